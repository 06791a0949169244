package profile

import (
	"fmt"
	"math"
	"strings"
)

// Seniority is the experience band inferred from years of experience.
type Seniority string

const (
	SeniorityUnknown      Seniority = ""
	SeniorityTrainee      Seniority = "Trainee"
	SeniorityJunior       Seniority = "Junior"
	SeniorityPleno        Seniority = "Pleno"
	SenioritySenior       Seniority = "Senior"
	SeniorityEspecialista Seniority = "Especialista"
)

// SeniorityFromYears maps years of experience onto a band. Each band includes
// its lower bound and excludes its upper bound. Nil years yields an unknown band.
func SeniorityFromYears(years *float64) Seniority {
	if years == nil {
		return SeniorityUnknown
	}

	switch y := *years; {
	case y < 1:
		return SeniorityTrainee
	case y < 2:
		return SeniorityJunior
	case y < 5:
		return SeniorityPleno
	case y < 8:
		return SenioritySenior
	default:
		return SeniorityEspecialista
	}
}

// CandidateProfile is the structured result of reading one résumé.
type CandidateProfile struct {
	Name           string   `json:"name"`
	CurrentTitle   string   `json:"current_title"`
	CurrentCompany string   `json:"current_company"`
	Location       string   `json:"location"`
	LinkedInURL    string   `json:"linkedin_url"`
	Summary        string   `json:"summary"`
	Skills         []string `json:"skills"`
	Technologies   []string `json:"technologies"`
	Languages      []string `json:"languages"`
	Certifications []string `json:"certifications"`

	Seniority          Seniority `json:"seniority"`
	ExperienceYears    *float64  `json:"experience_time_years"`
	AverageTenureYears *float64  `json:"average_tenure_years"`
}

// Acceptable reports whether the profile carries both required identity fields.
func (p CandidateProfile) Acceptable() bool {
	return strings.TrimSpace(p.Name) != "" && strings.TrimSpace(p.LinkedInURL) != ""
}

// ExperienceBlock is one position parsed from the experience section.
type ExperienceBlock struct {
	Company  string
	Title    string
	Location string
	Months   int
}

// Assessment is a job-fit score with its short justification.
type Assessment struct {
	Adherence     *int   `json:"adherence"`
	Justification string `json:"technical_justification"`
}

// Extraction is what any extraction strategy yields for one file.
type Extraction struct {
	Profile CandidateProfile
	Assessment
}

// NormalizeLinkedInURL adds a scheme to LinkedIn addresses that lack one.
// Values not pointing at linkedin.com are returned trimmed but otherwise untouched.
func NormalizeLinkedInURL(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if !strings.Contains(strings.ToLower(trimmed), "linkedin.com") {
		return trimmed
	}
	if !strings.HasPrefix(strings.ToLower(trimmed), "http") {
		return "https://" + strings.TrimLeft(trimmed, "/")
	}
	return trimmed
}

// NormalizeList accepts either a list or a comma separated string and returns
// the trimmed, non-empty items.
func NormalizeList(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case []string:
		return splitItems(v)
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			items = append(items, fmt.Sprint(item))
		}
		return splitItems(items)
	case string:
		return SplitList(v)
	default:
		s := strings.TrimSpace(fmt.Sprint(v))
		if s == "" {
			return nil
		}
		return []string{s}
	}
}

func splitItems(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// SplitList splits a comma joined storage value back into items.
func SplitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return splitItems(strings.Split(value, ","))
}

// JoinList renders items the way the candidate store keeps them.
func JoinList(items []string) string {
	return strings.Join(items, ", ")
}

// RoundYears rounds to one fractional digit.
func RoundYears(v float64) float64 {
	return math.Round(v*10) / 10
}

// Years returns a pointer to a rounded value, handy for optional decimal fields.
func Years(v float64) *float64 {
	r := RoundYears(v)
	return &r
}
