package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// WithCommandSpan выполняет обработчик команды внутри span.
// Ошибка обработчика помечает span как Error и возвращается как есть.
func WithCommandSpan(ctx context.Context, command string, userID uint64, fn func(context.Context) error) error {
	ctx, span := StartSpan(ctx, "discord.command/"+command,
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	span.SetAttributes(CommandAttributes(command, userID)...)

	err := fn(ctx)

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}

	return err
}

// WithOperationSpan выполняет внутреннюю операцию (тик планировщика,
// прогон назначений) внутри span.
func WithOperationSpan(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := StartSpan(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	defer span.End()

	err := fn(ctx)

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	}

	return err
}
