package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spigell/talentpool/internal/ai"
	"github.com/spigell/talentpool/internal/logger"
	"github.com/spigell/talentpool/internal/profile"
	"github.com/spigell/talentpool/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	defaultMaxLogLength = 200
	pdfMimeType         = "application/pdf"
)

type contentGenerator interface {
	Generate(ctx context.Context, parts []*genai.Part) (string, error)
	Model() string
}

// Gateway extracts and scores candidates through Gemini.
type Gateway struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

var (
	_ ai.Extractor = (*Gateway)(nil)
	_ ai.Scorer    = (*Gateway)(nil)
)

func NewGateway(generator contentGenerator, maxLogLength int, log *zap.Logger) *Gateway {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Gateway{
		generator: generator,
		logger:    logger.WithCommonFields(log, "gemini", generator.Model()),
		maxLogLen: maxLogLength,
	}
}

// Extract reads one résumé PDF. A nil job skips scoring.
func (g *Gateway) Extract(ctx context.Context, path string, job *ai.Job) (*profile.Extraction, error) {
	parts, err := pdfParts([]string{path})
	if err != nil {
		return nil, err
	}

	value, err := g.call(ctx, parts, extractionPrompt(job, false), filepath.Base(path))
	if err != nil {
		return nil, err
	}

	obj, err := singleObject(value)
	if err != nil {
		return nil, err
	}
	e := toExtraction(obj)
	return &e, nil
}

// ExtractBatch reads several PDFs in one request. The response must hold
// exactly one entry per file, in file order.
func (g *Gateway) ExtractBatch(ctx context.Context, paths []string, job *ai.Job) ([]profile.Extraction, error) {
	parts, err := pdfParts(paths)
	if err != nil {
		return nil, err
	}

	value, err := g.call(ctx, parts, extractionPrompt(job, true), fmt.Sprintf("batch of %d", len(paths)))
	if err != nil {
		return nil, err
	}

	items, err := alignedItems(value, len(paths), "PDF(s)")
	if err != nil {
		return nil, err
	}

	out := make([]profile.Extraction, 0, len(items))
	for _, item := range items {
		out = append(out, toExtraction(item))
	}
	return out, nil
}

// Score rates a stored profile against the job.
func (g *Gateway) Score(ctx context.Context, candidate profile.CandidateProfile, job ai.Job) (*profile.Assessment, error) {
	prompt := adherencePrompt([]profile.CandidateProfile{candidate}, job, false)
	value, err := g.call(ctx, nil, prompt, candidate.Name)
	if err != nil {
		return nil, err
	}

	obj, err := singleObject(value)
	if err != nil {
		return nil, err
	}
	a := toAssessment(obj)
	return &a, nil
}

// ScoreBatch rates several stored profiles in one request.
func (g *Gateway) ScoreBatch(ctx context.Context, candidates []profile.CandidateProfile, job ai.Job) ([]profile.Assessment, error) {
	value, err := g.call(ctx, nil, adherencePrompt(candidates, job, true), fmt.Sprintf("batch of %d", len(candidates)))
	if err != nil {
		return nil, err
	}

	items, err := alignedItems(value, len(candidates), "candidato(s)")
	if err != nil {
		return nil, err
	}

	out := make([]profile.Assessment, 0, len(items))
	for _, item := range items {
		out = append(out, toAssessment(item))
	}
	return out, nil
}

func pdfParts(paths []string) ([]*genai.Part, error) {
	parts := make([]*genai.Part, 0, len(paths)+1)
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		parts = append(parts, genai.NewPartFromBytes(data, pdfMimeType))
	}
	return parts, nil
}

func (g *Gateway) call(ctx context.Context, parts []*genai.Part, prompt, subject string) (any, error) {
	parts = append(parts, genai.NewPartFromText(prompt))

	g.logger.Debug("gemini generate content request",
		zap.String("subject", subject),
		zap.Int("parts", len(parts)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, g.maxLogLen)),
	)

	raw, err := g.generator.Generate(ctx, parts)
	if err != nil {
		return nil, err
	}

	g.logger.Debug("gemini generate content response",
		zap.String("subject", subject),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, g.maxLogLen)),
	)

	return parseResponse(raw)
}

// parseResponse decodes the whole response first, then the outermost bracket
// pair, then the other kind. When all fail the first decode error is reported.
func parseResponse(raw string) (any, error) {
	cleaned := extractJSON(raw)

	var value any
	firstErr := json.Unmarshal([]byte(cleaned), &value)
	if firstErr == nil {
		return value, nil
	}

	pairs := [][2]string{{"[", "]"}, {"{", "}"}}
	// the bracket opening first encloses the other one
	if obj, arr := strings.Index(cleaned, "{"), strings.Index(cleaned, "["); obj != -1 && (arr == -1 || obj < arr) {
		pairs[0], pairs[1] = pairs[1], pairs[0]
	}

	for _, pair := range pairs {
		start := strings.Index(cleaned, pair[0])
		end := strings.LastIndex(cleaned, pair[1])
		if start == -1 || end <= start {
			continue
		}
		if err := json.Unmarshal([]byte(cleaned[start:end+1]), &value); err == nil {
			return value, nil
		}
	}

	return nil, fmt.Errorf("%w: %v", ai.ErrMalformedResponse, firstErr)
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func singleObject(value any) (map[string]any, error) {
	switch v := value.(type) {
	case map[string]any:
		return v, nil
	case []any:
		if len(v) == 1 {
			if obj, ok := v[0].(map[string]any); ok {
				return obj, nil
			}
		}
		return nil, fmt.Errorf("%w: expected one object, got %d items", ai.ErrMalformedResponse, len(v))
	default:
		return nil, fmt.Errorf("%w: expected an object, got %T", ai.ErrMalformedResponse, value)
	}
}

// alignedItems wraps a lone object into a list and checks it matches the inputs.
// Entries that are not objects become empty ones and are later rejected as incomplete.
func alignedItems(value any, want int, unit string) ([]map[string]any, error) {
	list, ok := value.([]any)
	if !ok {
		list = []any{value}
	}
	if len(list) != want {
		return nil, fmt.Errorf("%w: gemini returned %d result(s) for %d %s", ai.ErrCountMismatch, len(list), want, unit)
	}

	items := make([]map[string]any, 0, len(list))
	for _, item := range list {
		obj, _ := item.(map[string]any)
		if obj == nil {
			obj = map[string]any{}
		}
		items = append(items, obj)
	}
	return items, nil
}

func toExtraction(data map[string]any) profile.Extraction {
	return profile.Extraction{
		Profile: profile.CandidateProfile{
			Name:               coerceString(data["name"]),
			LinkedInURL:        profile.NormalizeLinkedInURL(coerceString(data["linkedin_url"])),
			Location:           coerceString(data["location"]),
			CurrentTitle:       coerceString(data["current_title"]),
			CurrentCompany:     coerceString(data["current_company"]),
			Summary:            coerceString(data["summary"]),
			Skills:             profile.NormalizeList(data["skills"]),
			Technologies:       profile.NormalizeList(data["technologies"]),
			Languages:          profile.NormalizeList(data["languages"]),
			Certifications:     profile.NormalizeList(data["certifications"]),
			Seniority:          profile.Seniority(coerceString(data["seniority"])),
			ExperienceYears:    coerceYears(data["experience_time_years"]),
			AverageTenureYears: coerceYears(data["average_tenure_years"]),
		},
		Assessment: toAssessment(data),
	}
}

func toAssessment(data map[string]any) profile.Assessment {
	return profile.Assessment{
		Adherence:     coerceScore(data["adherence"]),
		Justification: coerceString(data["technical_justification"]),
	}
}

func coerceYears(v any) *float64 {
	f := coerceFloat(v)
	if math.IsNaN(f) {
		return nil
	}
	return profile.Years(f)
}

func coerceScore(v any) *int {
	f := coerceFloat(v)
	if math.IsNaN(f) {
		return nil
	}
	score := int(math.Round(f))
	return &score
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.TrimSuffix(strings.TrimSpace(val), "%")
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(strings.Replace(trimmed, ",", ".", 1), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
