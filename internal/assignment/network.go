// Package assignment переводит обмен оценками в задачу о максимальном
// потоке и обратно: сеть строится по заявкам и истории сыгранных игр,
// решается движком solver, а поток разбирается в списки назначений.
package assignment

import (
	"ratex/pkg/domain"
)

// BuildNetwork строит двудольную сеть обмена. Исток ограничивает число
// рецензий на участника, сток — число рецензентов на игру, а
// промежуточные рёбра единичной ёмкости соединяют участника с чужими
// играми, которые он ещё не играл.
//
// Порядок вставки рёбер фиксирован (рёбра истока, рёбра стока, затем
// пары в порядке заявок), поэтому решение воспроизводимо.
func BuildNetwork(exchange *domain.Exchange, submissions []domain.Submission, played domain.PlayedSet) *domain.FlowNetwork {
	n := domain.NewFlowNetwork(domain.SourceVertex, domain.SinkVertex)
	capacity := int64(exchange.GamesPerMember)

	for i := range submissions {
		_ = n.AddEdge(domain.SourceVertex, domain.SubmitterVertex(i), capacity, 0)
	}
	for i := range submissions {
		_ = n.AddEdge(domain.SubmissionVertex(i), domain.SinkVertex, capacity, 0)
	}

	for i, reviewer := range submissions {
		for j, candidate := range submissions {
			if reviewer.Submitter == candidate.Submitter {
				continue
			}
			if played.Contains(reviewer.Submitter, candidate.Link) {
				continue
			}
			_ = n.AddEdge(domain.SubmitterVertex(i), domain.SubmissionVertex(j), 1, 0)
		}
	}

	return n
}

// ExtractAssignments разбирает решённую сеть обратно в назначения.
// Каждый отправитель присутствует в результате, даже если его список
// пуст. Список повторяет порядок вставки рёбер, а reviewers — порядок
// заявок.
func ExtractAssignments(n *domain.FlowNetwork, submissions []domain.Submission) (map[uint64][]domain.Submission, []uint64) {
	assignments := make(map[uint64][]domain.Submission, len(submissions))
	reviewers := make([]uint64, 0, len(submissions))

	vertexToSubmission := make(map[int64]domain.Submission, len(submissions))
	for j, sub := range submissions {
		vertexToSubmission[domain.SubmissionVertex(j)] = sub
	}

	for i, sub := range submissions {
		reviewer := sub.Submitter
		if _, seen := assignments[reviewer]; !seen {
			assignments[reviewer] = []domain.Submission{}
			reviewers = append(reviewers, reviewer)
		}

		for _, key := range n.OutgoingEdges(domain.SubmitterVertex(i)) {
			flow, ok := n.Flow(key)
			if !ok || flow < 1 {
				continue
			}
			candidate, ok := vertexToSubmission[key.To]
			if !ok {
				continue
			}
			assignments[reviewer] = append(assignments[reviewer], candidate)
		}
	}

	return assignments, reviewers
}
