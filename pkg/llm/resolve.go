package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"

	"go-browserpilot/pkg/models"
)

const (
	openAIModel = "gpt-4o"
	geminiModel = "gemini-2.0-flash-exp"
)

// Resolve turns a provider choice plus credentials into a model client.
// Credential validation happens here so a bad setup fails before a browser
// ever starts; an unrecognized provider is an error, never a silent default.
func Resolve(ctx context.Context, provider models.Provider, creds models.Credentials) (Client, error) {
	switch provider {
	case models.ProviderOpenAI:
		key := strings.TrimSpace(creds.OpenAIKey)
		if key == "" {
			return nil, models.NewError(models.KindConfiguration, "openai api key is not set")
		}
		model, err := openai.New(openai.WithToken(key), openai.WithModel(openAIModel))
		if err != nil {
			return nil, models.WrapError(models.KindConfiguration, "openai client", err)
		}
		return &client{provider: provider, model: model}, nil
	case models.ProviderGemini:
		path := strings.TrimSpace(creds.GoogleCredentialsFile)
		if path == "" {
			return nil, models.NewError(models.KindConfiguration, "google credentials file is not set")
		}
		if _, err := os.Stat(path); err != nil {
			return nil, models.WrapError(models.KindConfiguration, "google credentials file", err)
		}
		model, err := googleai.New(ctx,
			googleai.WithCredentialsFile(path),
			googleai.WithDefaultModel(geminiModel),
		)
		if err != nil {
			return nil, models.WrapError(models.KindConfiguration, "gemini client", err)
		}
		return &client{provider: provider, model: model}, nil
	default:
		return nil, models.NewError(models.KindConfiguration, fmt.Sprintf("unknown provider: %q", provider))
	}
}
