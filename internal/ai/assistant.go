package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/spigell/talentpool/internal/profile"
	"google.golang.org/genai"
)

var (
	// ErrMissingCredential means the inference service cannot be reached at all.
	// It is a configuration problem and never retried.
	ErrMissingCredential = errors.New("inference api key is not configured")
	// ErrCountMismatch means a batch response is not aligned with its inputs.
	ErrCountMismatch = errors.New("result count does not match input count")
	// ErrMalformedResponse means no JSON value could be read from a response.
	ErrMalformedResponse = errors.New("malformed inference response")
)

// Job is the context a candidate is evaluated against.
type Job struct {
	ID          string
	Description string
	Weights     map[string]int
	RoleTitles  []string
}

// DefaultWeights are the criteria weights used when a job does not set its own.
func DefaultWeights() map[string]int {
	return map[string]int{"skills": 40, "technologies": 35, "experience": 25}
}

// SplitRoleTitle turns "Engenheiro de Dados / Data Engineer" into its variants.
func SplitRoleTitle(title string) []string {
	var out []string
	for _, part := range strings.Split(title, "/") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Extractor reads candidate profiles from résumé files. A nil job asks for
// extraction without a fit score.
type Extractor interface {
	Extract(ctx context.Context, path string, job *Job) (*profile.Extraction, error)
	// ExtractBatch returns one extraction per path, in the same order.
	ExtractBatch(ctx context.Context, paths []string, job *Job) ([]profile.Extraction, error)
}

// Scorer rates already extracted profiles against a job.
type Scorer interface {
	Score(ctx context.Context, candidate profile.CandidateProfile, job Job) (*profile.Assessment, error)
	// ScoreBatch returns one assessment per candidate, in the same order.
	ScoreBatch(ctx context.Context, candidates []profile.CandidateProfile, job Job) ([]profile.Assessment, error)
}

// IsRateLimited reports quota and rate limit failures.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && (apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED") {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "RESOURCE_EXHAUSTED") || strings.Contains(msg, "429")
}

// IsUnavailable reports a temporarily unavailable service.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && (apiErr.Code == http.StatusServiceUnavailable || apiErr.Status == "UNAVAILABLE") {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "503") || strings.Contains(msg, "UNAVAILABLE")
}
