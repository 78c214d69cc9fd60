package ai

import "context"

// Provider is a text completion backend.
type Provider interface {
	Complete(ctx context.Context, model string, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, model string, systemPrompt string, prompt string) (string, error)
}
