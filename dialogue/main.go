package dialogue

import (
	"context"
	"fmt"
	"strings"

	"salescoachdev/catalog"
	"salescoachdev/logger"
	"salescoachdev/modelapi"
	"salescoachdev/session"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type DialogueConnectProps struct {
	Logger    *logger.LogMiddleware
	Completer modelapi.Completer
}

// Engine produces persona-consistent prospect replies. Each turn is one
// synchronous completion call; provider failures fail that turn.
type Engine struct {
	logger    *logger.LogMiddleware
	completer modelapi.Completer
}

func Connect(ctx context.Context, args DialogueConnectProps) *Engine {
	tracer := otel.Tracer("dialogue/Connect")
	ctx, span := tracer.Start(ctx, "Connect")
	defer span.End()

	args.Logger.Logger(ctx).Info("[Dialogue] Engine started")
	return &Engine{logger: args.Logger, completer: args.Completer}
}

func (e *Engine) GenerateReply(ctx context.Context, persona *catalog.Persona, transcript []session.Message) (string, error) {
	tracer := otel.Tracer("dialogue/GenerateReply")
	ctx, span := tracer.Start(ctx, "GenerateReply")
	defer span.End()

	span.SetAttributes(
		attribute.String("persona", persona.Name),
		attribute.Int("transcript_length", len(transcript)),
	)

	messages := BuildMessages(persona, transcript)

	reply, err := e.completer.Complete(ctx, messages)
	if err != nil {
		span.RecordError(err)
		e.logger.Logger(ctx).Error("[Dialogue] Could not generate prospect reply",
			zap.Error(err),
			zap.String("persona", persona.Name))
		return "", err
	}

	return strings.TrimSpace(reply), nil
}

// BuildMessages turns the persona and the running transcript into the
// role-conditioned message sequence: one system instruction, trainee turns as
// user messages, prospect turns as assistant messages.
func BuildMessages(persona *catalog.Persona, transcript []session.Message) []modelapi.Message {
	messages := make([]modelapi.Message, 0, len(transcript)+1)
	messages = append(messages, modelapi.Message{
		Role: modelapi.SYSTEM,
		Content: fmt.Sprintf(modelapi.PROSPECT_PROMPT,
			persona.Name, persona.Role, persona.Company, persona.Industry, persona.PainPoints),
	})

	for _, message := range transcript {
		role := modelapi.USER
		if message.Speaker == session.SpeakerProspect {
			role = modelapi.ASSISTANT
		}
		messages = append(messages, modelapi.Message{Role: role, Content: message.Text})
	}

	return messages
}
