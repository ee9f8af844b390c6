package scoring

import (
	"context"
	"fmt"

	"salescoachdev/logger"
	"salescoachdev/modelapi"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type ScoringConnectProps struct {
	Logger    *logger.LogMiddleware
	Completer modelapi.Completer
}

// Engine evaluates a finished transcript against the six-dimension rubric and
// derives the 0-100 score.
type Engine struct {
	logger    *logger.LogMiddleware
	completer modelapi.Completer
}

func Connect(ctx context.Context, args ScoringConnectProps) *Engine {
	tracer := otel.Tracer("scoring/Connect")
	ctx, span := tracer.Start(ctx, "Connect")
	defer span.End()

	args.Logger.Logger(ctx).Info("[Scoring] Engine started")
	return &Engine{logger: args.Logger, completer: args.Completer}
}

// ScoreTranscript submits the labeled transcript with the rubric instruction
// and returns the derived total plus the full evaluation. A malformed model
// response is a *ParseError; it is not retried.
func (e *Engine) ScoreTranscript(ctx context.Context, transcript string) (int, *Evaluation, error) {
	tracer := otel.Tracer("scoring/ScoreTranscript")
	ctx, span := tracer.Start(ctx, "ScoreTranscript")
	defer span.End()

	span.SetAttributes(attribute.Int("transcript_length", len(transcript)))

	raw, err := e.completer.Complete(ctx, []modelapi.Message{
		{Role: modelapi.SYSTEM, Content: fmt.Sprintf(modelapi.RUBRIC_PROMPT, transcript)},
	})
	if err != nil {
		span.RecordError(err)
		e.logger.Logger(ctx).Error("[Scoring] Rubric completion failed", zap.Error(err))
		return 0, nil, err
	}

	evaluation, err := ParseEvaluation(raw)
	if err != nil {
		span.RecordError(err)
		e.logger.Logger(ctx).Error("[Scoring] Could not parse rubric response",
			zap.Error(err),
			zap.String("response", raw))
		return 0, nil, err
	}

	total := evaluation.Total()
	span.SetAttributes(attribute.Int("score", total))
	e.logger.Logger(ctx).Info("[Scoring] Transcript scored", zap.Int("score", total))

	return total, evaluation, nil
}
