package domain

// Вершины, зарезервированные в сети раздачи
const (
	// SourceVertex исток сети раздачи
	SourceVertex int64 = 0
	// SinkVertex сток сети раздачи
	SinkVertex int64 = 1
)

// Ограничения на параметры обмена
const (
	MinGamesPerMember = 1
	MaxGamesPerMember = 32
)

// SubmitterVertex возвращает вершину участника для i-й заявки
func SubmitterVertex(i int) int64 {
	return 2 + 2*int64(i)
}

// SubmissionVertex возвращает вершину игры для i-й заявки
func SubmissionVertex(i int) int64 {
	return 3 + 2*int64(i)
}

// IsTerminalVertex проверяет, является ли вершина истоком или стоком
func IsTerminalVertex(v int64) bool {
	return v == SourceVertex || v == SinkVertex
}
