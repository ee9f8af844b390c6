package geminiapi

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
	"google.golang.org/genai"
)

var errEmptyResponse = errors.New("empty or invalid response")

type GeminiConnectProps struct {
	Logger *logger.LogMiddleware
}

type Gemini struct {
	logger    *logger.LogMiddleware
	semaphore *semaphore.Weighted
	client    *genai.Client
	model     string
}

func Connect(ctx context.Context, args GeminiConnectProps) *Gemini {
	tracer := otel.Tracer("geminiapi/Connect")
	ctx, span := tracer.Start(ctx, "Connect")
	defer span.End()
	args.Logger.Logger(ctx).Info("[GeminiAPI] Connecting Gemini API client")

	maxWorkers := 10
	sem := semaphore.NewWeighted(int64(maxWorkers))
	span.SetAttributes(attribute.Int("maxWorkers", maxWorkers))

	GEMINI_KEY := os.Getenv("GEMINI_SECRET_KEY")

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  GEMINI_KEY,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		args.Logger.Logger(ctx).Error("[GeminiAPI] Could not create Gemini client")
		os.Exit(21)
	}

	return &Gemini{
		logger:    args.Logger,
		semaphore: sem,
		client:    client,
		model:     modelapi.GEMINI_MODEL_NAME,
	}
}

// Complete maps the message sequence onto Gemini content roles (system turns
// become the system instruction, assistant turns become model turns) and runs
// one generation under the shared call deadline. No retry.
func (g *Gemini) Complete(ctx context.Context, messages []modelapi.Message) (string, error) {
	tracer := otel.Tracer("geminiapi/Complete")
	ctx, span := tracer.Start(ctx, "Complete")
	defer span.End()

	span.SetAttributes(
		attribute.String("request.model", g.model),
		attribute.Int("request.message_count", len(messages)),
	)

	if err := g.semaphore.Acquire(ctx, 1); err != nil {
		span.RecordError(err)
		return "", &modelapi.ProviderError{Provider: "gemini", Err: err}
	}
	defer g.semaphore.Release(1)

	ctx, cancel := context.WithTimeout(ctx, modelapi.CallTimeout)
	defer cancel()

	thinkingBudget := int32(0)
	config := &genai.GenerateContentConfig{
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  &thinkingBudget,
		},
	}

	var contents []*genai.Content
	for _, message := range messages {
		switch message.Role {
		case modelapi.SYSTEM:
			config.SystemInstruction = &genai.Content{
				Parts: []*genai.Part{{Text: message.Content}},
			}
		case modelapi.ASSISTANT:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{{Text: message.Content}},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{Text: message.Content}},
			})
		}
	}

	// Gemini rejects an empty contents list; scoring and reporting send their
	// whole request as a single system turn.
	if len(contents) == 0 && config.SystemInstruction != nil {
		contents = append(contents, &genai.Content{
			Role:  genai.RoleUser,
			Parts: config.SystemInstruction.Parts,
		})
		config.SystemInstruction = nil
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		span.RecordError(err)
		g.logger.Logger(ctx).Error("[GeminiAPI] Error generating LLM content", zap.Error(err))
		return "", &modelapi.ProviderError{Provider: "gemini", Err: err}
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		g.logger.Logger(ctx).Warn("[GeminiAPI] Received empty or invalid LLM response")
		span.AddEvent("EmptyResponse")
		return "", &modelapi.ProviderError{Provider: "gemini", Err: errEmptyResponse}
	}

	span.AddEvent("LLM generation successful")
	return resp.Text(), nil
}
