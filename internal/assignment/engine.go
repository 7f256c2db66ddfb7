package assignment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"ratex/internal/solver"
	"ratex/pkg/domain"
	"ratex/pkg/logger"
	"ratex/pkg/metrics"
	"ratex/pkg/telemetry"
)

// Engine выполняет прогоны назначений. Экземпляр не хранит состояния
// между прогонами и безопасен для конкурентного использования.
type Engine struct {
	solverOptions *solver.SolverOptions
	metrics       *metrics.Metrics
	log           *slog.Logger
}

// NewEngine создаёт движок назначений. nil opts означает настройки
// решателя по умолчанию.
func NewEngine(opts *solver.SolverOptions) *Engine {
	if opts == nil {
		opts = solver.DefaultSolverOptions()
	}
	return &Engine{
		solverOptions: opts,
		metrics:       metrics.Get(),
		log:           logger.WithService("assignment"),
	}
}

// Result описывает один прогон назначений.
type Result struct {
	// RunID идентифицирует прогон в логах, метриках и отчёте.
	RunID string

	// Assignments сопоставляет каждому участнику список чужих игр.
	Assignments map[uint64][]domain.Submission

	// Reviewers перечисляет участников в порядке заявок.
	Reviewers []uint64

	// MaxFlow, Phases и Duration приходят из решателя.
	MaxFlow  int64
	Phases   int
	Duration time.Duration

	// Vertices и Edges описывают размер построенной сети.
	Vertices int
	Edges    int
}

// Run выполняет полный прогон: сеть, решение, разбор потока.
// Пустой список заявок даёт пустой результат без ошибки.
func (e *Engine) Run(ctx context.Context, exchange *domain.Exchange, submissions []domain.Submission, played domain.PlayedSet) (*Result, error) {
	runID := uuid.NewString()
	start := time.Now()

	ctx, span := telemetry.StartSpan(ctx, "assignment.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			telemetry.AssignmentAttributes(runID, len(submissions), int(exchange.GamesPerMember))...,
		),
	)
	defer span.End()

	network := BuildNetwork(exchange, submissions, played)

	result := &Result{
		RunID:    runID,
		Vertices: network.VertexCount(),
		Edges:    network.EdgeCount(),
	}

	if e.metrics != nil {
		e.metrics.RecordNetworkSize("assignment", result.Vertices, result.Edges)
	}

	solveResult, err := solver.Solve(ctx, network, e.solverOptions)

	result.Duration = time.Since(start)

	if e.metrics != nil {
		var flow int64
		if solveResult != nil {
			flow = solveResult.MaxFlow
		}
		e.metrics.RecordAssignmentRun(err == nil, result.Duration, flow)
	}

	if err != nil {
		telemetry.SetError(ctx, err)
		e.log.Error("assignment run failed",
			"run_id", runID,
			"exchange_id", exchange.ID,
			"slug", exchange.Slug,
			"error", err,
		)
		return nil, fmt.Errorf("solve assignment network: %w", err)
	}

	result.MaxFlow = solveResult.MaxFlow
	result.Phases = solveResult.Phases
	result.Assignments, result.Reviewers = ExtractAssignments(network, submissions)

	span.SetAttributes(
		telemetry.NetworkAttributes(result.Vertices, result.Edges, result.MaxFlow, result.Phases)...,
	)

	e.log.Info("assignment run complete",
		"run_id", runID,
		"exchange_id", exchange.ID,
		"slug", exchange.Slug,
		"submissions", len(submissions),
		"max_flow", result.MaxFlow,
		"phases", result.Phases,
		"duration_ms", result.Duration.Milliseconds(),
	)

	return result, nil
}
