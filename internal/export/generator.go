// Package export строит файлы отчётов по обмену. Отчёт содержит
// метаданные обмена, список заявок и, для завершённых обменов,
// пересчитанную раздачу. Формат файла задаётся конфигурацией и не
// зависит от того, кто запросил отчёт.
package export

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"ratex/pkg/domain"
)

// Поддерживаемые форматы отчётов.
const (
	FormatExcel = "xlsx"
	FormatPDF   = "pdf"
)

// ReportData данные для генерации отчёта
type ReportData struct {
	Exchange    *domain.Exchange
	GuildName   string
	Submissions []domain.Submission

	// Раздача. Заполняется только для обменов в состоянии
	// AssignmentsSent, для остальных остаётся пустой.
	Assignments map[uint64][]domain.Submission
	Reviewers   []uint64
	RunID       string
	MaxFlow     int64

	GeneratedAt time.Time
	// MaxRows ограничивает длину таблиц в PDF; 0 отключает лимит.
	// Таблица Excel всегда содержит все строки.
	MaxRows int
}

// HasAssignments сообщает, есть ли в отчёте раздача
func (d *ReportData) HasAssignments() bool {
	return len(d.Reviewers) > 0
}

// AssignmentRows возвращает число пар «рецензент - игра» в раздаче
func (d *ReportData) AssignmentRows() int {
	n := 0
	for _, games := range d.Assignments {
		n += len(games)
	}
	return n
}

// Generator интерфейс генератора отчётов
type Generator interface {
	Generate(ctx context.Context, data *ReportData) ([]byte, error)
	// Format возвращает расширение файла отчёта без точки
	Format() string
}

// ForFormat возвращает генератор для формата из конфигурации.
// Пустая строка трактуется как формат по умолчанию (Excel).
func ForFormat(format string) (Generator, error) {
	switch format {
	case FormatExcel, "":
		return NewExcelGenerator(), nil
	case FormatPDF:
		return NewPDFGenerator(), nil
	default:
		return nil, fmt.Errorf("unsupported report format %q", format)
	}
}

// BaseGenerator базовые утилиты для генераторов
type BaseGenerator struct{}

// Title возвращает заголовок отчёта
func (b *BaseGenerator) Title(data *ReportData) string {
	if data.Exchange != nil && data.Exchange.DisplayName != "" {
		return "Rating Exchange Report: " + data.Exchange.DisplayName
	}
	return "Rating Exchange Report"
}

// FormatTimestamp форматирует время для отчёта, всегда в UTC
func (b *BaseGenerator) FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05")
}

// FormatMember форматирует идентификатор участника Discord. Snowflake
// не помещается в double, поэтому в ячейки он попадает строкой.
func (b *BaseGenerator) FormatMember(id uint64) string {
	return strconv.FormatUint(id, 10)
}
