package reporting

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"salescoachdev/logger"
	"salescoachdev/modelapi"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// How many recent transcripts feed one coaching summary.
const recentChatLimit = 5

// Store is the slice of the record store the reporting engine needs.
type Store interface {
	ScoresFor(ctx context.Context, name string) ([]int, error)
	RecentChatsFor(ctx context.Context, name string, limit int) ([]string, error)
	AddSummary(ctx context.Context, name string, avg float64, summary string, ts time.Time) error
}

type ReportingConnectProps struct {
	Logger    *logger.LogMiddleware
	Store     Store
	Completer modelapi.Completer
}

type Engine struct {
	logger    *logger.LogMiddleware
	store     Store
	completer modelapi.Completer
}

func Connect(ctx context.Context, args ReportingConnectProps) *Engine {
	tracer := otel.Tracer("reporting/Connect")
	ctx, span := tracer.Start(ctx, "Connect")
	defer span.End()

	args.Logger.Logger(ctx).Info("[Reporting] Engine started")
	return &Engine{logger: args.Logger, store: args.Store, completer: args.Completer}
}

// SummarizeTrainee aggregates a trainee's historical scores, asks the model
// for a strengths/mistakes summary over their recent transcripts, and
// persists the result. With no history the average is 0 and the summary is
// generated from an empty transcript block.
func (e *Engine) SummarizeTrainee(ctx context.Context, name string) (float64, string, error) {
	tracer := otel.Tracer("reporting/SummarizeTrainee")
	ctx, span := tracer.Start(ctx, "SummarizeTrainee")
	defer span.End()

	span.SetAttributes(attribute.String("trainee", name))

	scores, err := e.store.ScoresFor(ctx, name)
	if err != nil {
		span.RecordError(err)
		return 0, "", err
	}
	avg := averageScore(scores)

	chats, err := e.store.RecentChatsFor(ctx, name, recentChatLimit)
	if err != nil {
		span.RecordError(err)
		return 0, "", err
	}
	transcriptBlocks := strings.Join(chats, "\n\n")

	summary, err := e.completer.Complete(ctx, []modelapi.Message{
		{Role: modelapi.SYSTEM, Content: fmt.Sprintf(modelapi.COACHING_PROMPT, transcriptBlocks)},
	})
	if err != nil {
		span.RecordError(err)
		e.logger.Logger(ctx).Error("[Reporting] Coaching completion failed",
			zap.Error(err), zap.String("trainee", name))
		return 0, "", err
	}
	summary = strings.TrimSpace(summary)

	if err := e.store.AddSummary(ctx, name, avg, summary, time.Now()); err != nil {
		span.RecordError(err)
		return 0, "", err
	}

	e.logger.Logger(ctx).Info("[Reporting] Performance summary generated",
		zap.String("trainee", name),
		zap.Float64("avg_score", avg),
		zap.Int("chat_count", len(chats)))

	return avg, summary, nil
}

// averageScore is the arithmetic mean rounded to one decimal, 0 with no
// history.
func averageScore(scores []int) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0
	for _, score := range scores {
		sum += score
	}
	return math.Round(float64(sum)/float64(len(scores))*10) / 10
}
