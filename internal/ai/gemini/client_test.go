package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/spigell/talentpool/internal/ai"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

type fakeModels struct {
	mu        sync.Mutex
	responses []fakeResponse
	calls     []fakeCall
}

type fakeResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

type fakeCall struct {
	model    string
	contents []*genai.Content
}

func (f *fakeModels) enqueue(resp *genai.GenerateContentResponse, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, fakeResponse{resp: resp, err: err})
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fakeCall{model: model, contents: contents})
	if len(f.responses) == 0 {
		return nil, errors.New("unexpected call")
	}
	res := f.responses[0]
	f.responses = f.responses[1:]
	return res.resp, res.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

// recordWaits replaces the retry pause and returns the recorded delays.
func recordWaits(t *testing.T) *[]time.Duration {
	t.Helper()
	original := wait
	var delays []time.Duration
	wait = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	t.Cleanup(func() { wait = original })
	return &delays
}

func TestGeneratorRetriesOnTemporaryError(t *testing.T) {
	delays := recordWaits(t)

	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"})
	models.enqueue(textResponse("retry ok"), nil)

	g := newGenerator(models, "gemini-test", 4, zap.NewNop())

	output, err := g.Generate(context.Background(), []*genai.Part{genai.NewPartFromText("prompt")})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if output != "retry ok" {
		t.Fatalf("unexpected output: %q", output)
	}
	if len(models.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(models.calls))
	}
	if models.calls[0].model != "gemini-test" {
		t.Fatalf("unexpected model: %q", models.calls[0].model)
	}
	if got := models.calls[0].contents[0].Role; got != genai.RoleUser {
		t.Fatalf("expected user role, got %q", got)
	}
	if len(*delays) != 1 || (*delays)[0] != 3*time.Second {
		t.Fatalf("expected a flat 3s pause, got %v", *delays)
	}
}

func TestGeneratorBacksOffOnRateLimit(t *testing.T) {
	delays := recordWaits(t)

	quota := genai.APIError{Code: http.StatusTooManyRequests, Status: "RESOURCE_EXHAUSTED"}
	models := &fakeModels{}
	for i := 0; i < 4; i++ {
		models.enqueue(nil, quota)
	}

	g := newGenerator(models, "", 0, nil)
	_, err := g.Generate(context.Background(), []*genai.Part{genai.NewPartFromText("prompt")})
	if err == nil {
		t.Fatal("expected error after retries exhausted")
	}
	if !ai.IsRateLimited(err) {
		t.Fatalf("expected the last rate limit error to surface, got %v", err)
	}
	if len(models.calls) != 4 {
		t.Fatalf("expected 4 calls, got %d", len(models.calls))
	}
	if models.calls[0].model != defaultModel {
		t.Fatalf("expected default model, got %q", models.calls[0].model)
	}

	want := []time.Duration{3 * time.Second, 8 * time.Second, 15 * time.Second}
	if len(*delays) != len(want) {
		t.Fatalf("expected delays %v, got %v", want, *delays)
	}
	for i := range want {
		if (*delays)[i] != want[i] {
			t.Fatalf("expected delays %v, got %v", want, *delays)
		}
	}
}

func TestRetryDelay(t *testing.T) {
	t.Parallel()

	unavailable := genai.APIError{Code: http.StatusServiceUnavailable, Status: "UNAVAILABLE"}
	if got := retryDelay(unavailable, 1); got != 8*time.Second {
		t.Fatalf("expected 8s, got %v", got)
	}
	if got := retryDelay(unavailable, 9); got != 30*time.Second {
		t.Fatalf("expected schedule to clamp at 30s, got %v", got)
	}
	if got := retryDelay(errors.New("error 429: slow down"), 0); got != 3*time.Second {
		t.Fatalf("expected 3s, got %v", got)
	}
	if got := retryDelay(errors.New("boom"), 3); got != flatBackoff {
		t.Fatalf("expected flat pause, got %v", got)
	}
}

func TestGeneratorStopsWhenContextEnds(t *testing.T) {
	original := wait
	wait = func(ctx context.Context, _ time.Duration) error { return context.Canceled }
	defer func() { wait = original }()

	models := &fakeModels{}
	models.enqueue(nil, errors.New("boom"))

	g := newGenerator(models, "m", 4, zap.NewNop())
	_, err := g.Generate(context.Background(), []*genai.Part{genai.NewPartFromText("prompt")})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if len(models.calls) != 1 {
		t.Fatalf("expected a single call, got %d", len(models.calls))
	}
}

func TestGeneratorRejectsEmptyResponse(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(&genai.GenerateContentResponse{}, nil)

	g := newGenerator(models, "m", 1, zap.NewNop())
	if _, err := g.Generate(context.Background(), []*genai.Part{genai.NewPartFromText("prompt")}); err == nil {
		t.Fatal("expected error for empty response")
	}
}

func TestNewGeneratorRequiresKey(t *testing.T) {
	_, err := NewGenerator(context.Background(), "  ", "", 0, zap.NewNop())
	if !errors.Is(err, ai.ErrMissingCredential) {
		t.Fatalf("expected missing credential error, got %v", err)
	}
}
