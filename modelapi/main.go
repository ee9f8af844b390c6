package modelapi

import (
	"context"
	"fmt"
	"time"
)

const (
	ASSISTANT = "assistant"
	SYSTEM    = "system"
	USER      = "user"
)

// Each completion call runs under this deadline. There is no retry: a slow or
// failed call surfaces as a ProviderError for that one interaction.
const CallTimeout = 90 * time.Second

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer is the single operation this program needs from a text-completion
// provider: persona replies, transcript scoring, and coaching summaries all
// go through it.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s completion failed: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
