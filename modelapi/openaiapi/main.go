package openaiapi

import (
	"context"
	"errors"
	"os"

	"salescoachdev/logger"
	"salescoachdev/modelapi"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

var errNoChoices = errors.New("no response choices received")

type OpenAI struct {
	logger    *logger.LogMiddleware
	semaphore *semaphore.Weighted
	client    *openai.Client
	model     string
}

type OpenAIConnectProps struct {
	Logger *logger.LogMiddleware
}

func Connect(ctx context.Context, args OpenAIConnectProps) *OpenAI {
	tracer := otel.Tracer("openaiapi/Connect")
	ctx, span := tracer.Start(ctx, "Connect")
	defer span.End()

	maxWorkers := 10
	sem := semaphore.NewWeighted(int64(maxWorkers))

	OPENAI_SECRET_KEY := os.Getenv("OPENAI_SECRET_KEY")

	span.SetAttributes(attribute.Int("maxWorkers", maxWorkers))
	client := openai.NewClient(
		option.WithAPIKey(OPENAI_SECRET_KEY),
	)

	args.Logger.Logger(ctx).Info("[OpenAIAPI] Chat completion client started",
		zap.String("model", modelapi.OPENAI_MODEL_NAME))

	return &OpenAI{
		logger:    args.Logger,
		semaphore: sem,
		client:    &client,
		model:     modelapi.OPENAI_MODEL_NAME,
	}
}

// Complete sends one synchronous chat completion request. No retry: a failed
// or empty response surfaces as a ProviderError for the calling interaction.
func (o *OpenAI) Complete(ctx context.Context, messages []modelapi.Message) (string, error) {
	tracer := otel.Tracer("openaiapi/Complete")
	ctx, span := tracer.Start(ctx, "Complete")
	defer span.End()

	span.SetAttributes(
		attribute.String("request.model", o.model),
		attribute.Int("request.message_count", len(messages)),
	)

	if err := o.semaphore.Acquire(ctx, 1); err != nil {
		span.RecordError(err)
		return "", &modelapi.ProviderError{Provider: "openai", Err: err}
	}
	defer o.semaphore.Release(1)

	ctx, cancel := context.WithTimeout(ctx, modelapi.CallTimeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.model),
		Messages: make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)),
	}
	for _, message := range messages {
		switch message.Role {
		case modelapi.SYSTEM:
			params.Messages = append(params.Messages, openai.SystemMessage(message.Content))
		case modelapi.ASSISTANT:
			params.Messages = append(params.Messages, openai.AssistantMessage(message.Content))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(message.Content))
		}
	}

	completion, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		span.RecordError(err)
		o.logger.Logger(ctx).Error("[OpenAIAPI] Completion request failed", zap.Error(err))
		return "", &modelapi.ProviderError{Provider: "openai", Err: err}
	}

	if len(completion.Choices) == 0 {
		o.logger.Logger(ctx).Error("[OpenAIAPI] Completion returned no choices")
		span.AddEvent("EmptyResponse")
		return "", &modelapi.ProviderError{Provider: "openai", Err: errNoChoices}
	}

	span.AddEvent("Request successful")
	return completion.Choices[0].Message.Content, nil
}
