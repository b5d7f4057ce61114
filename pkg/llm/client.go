package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"go-browserpilot/pkg/models"
)

// Client is the single capability a provider integration must satisfy:
// produce a completion for a prompt.
type Client interface {
	Provider() models.Provider
	Complete(ctx context.Context, prompt string) (string, error)
}

type client struct {
	provider models.Provider
	model    llms.Model
}

func (c *client) Provider() models.Provider { return c.provider }

func (c *client) Complete(ctx context.Context, prompt string) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return out, nil
}
