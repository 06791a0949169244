package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spigell/talentpool/internal/ai"
	"github.com/spigell/talentpool/internal/logger"
	"github.com/spigell/talentpool/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	defaultModel    = "gemini-2.0-flash"
	defaultAttempts = 4
	flatBackoff     = 3 * time.Second
)

// backoff is indexed by attempt and clamped to its last entry.
var backoff = []time.Duration{3 * time.Second, 8 * time.Second, 15 * time.Second, 30 * time.Second}

// wait is swapped in tests to skip real pauses.
var wait = utils.WaitFor

type contentModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Generator wraps the Google GenAI client and retries failed calls.
type Generator struct {
	models   contentModels
	model    string
	attempts int
	logger   *zap.Logger
}

// NewGenerator creates a Generator for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey, model string, attempts int, log *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ai.ErrMissingCredential
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGenerator(client.Models, model, attempts, log), nil
}

func newGenerator(models contentModels, model string, attempts int, log *zap.Logger) *Generator {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	return &Generator{
		models:   models,
		model:    model,
		attempts: attempts,
		logger:   logger.WithCommonFields(log, "gemini", model),
	}
}

// Generate sends the parts as one user turn and returns the response text.
// Rate limit and unavailability errors back off on an escalating schedule,
// anything else waits a flat pause. The last error is returned once all
// attempts are spent.
func (g *Generator) Generate(ctx context.Context, parts []*genai.Part) (string, error) {
	if g == nil || g.models == nil {
		return "", errors.New("gemini generator is not initialized")
	}
	if len(parts) == 0 {
		return "", errors.New("request must not be empty")
	}

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	var lastErr error
	for attempt := 0; attempt < g.attempts; attempt++ {
		resp, err := g.models.GenerateContent(ctx, g.model, contents, nil)
		if err == nil {
			return responseText(resp)
		}
		lastErr = err

		if attempt == g.attempts-1 {
			break
		}

		delay := retryDelay(err, attempt)
		g.logger.Warn("gemini request failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", g.attempts),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if werr := wait(ctx, delay); werr != nil {
			return "", werr
		}
	}

	return "", fmt.Errorf("generate content: %w", lastErr)
}

func retryDelay(err error, attempt int) time.Duration {
	if ai.IsRateLimited(err) || ai.IsUnavailable(err) {
		return backoff[min(attempt, len(backoff)-1)]
	}
	return flatBackoff
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", errors.New("gemini api returned empty response")
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	return output, nil
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}
