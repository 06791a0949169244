// Package store keeps candidate records and their links to jobs.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/spigell/talentpool/internal/profile"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("record not found")

// PipelineStatus is the hiring stage of a candidate for one job.
type PipelineStatus string

const (
	StatusFirstContact  PipelineStatus = "PRIMEIRO_CONTATO"
	StatusResponded     PipelineStatus = "RESPONDEU"
	StatusInterview     PipelineStatus = "ENTREVISTA"
	StatusTechInterview PipelineStatus = "ENTREVISTA_TECNICA"
	StatusSentManager   PipelineStatus = "ENVIADO_GESTOR"
	StatusReady         PipelineStatus = "CANDIDATO_PRONTO"
	StatusSentClient    PipelineStatus = "ENVIADO_CLIENTE"
	StatusHired         PipelineStatus = "CONTRATADO"
)

// Valid reports whether s is one of the known stages. Empty means no stage yet.
func (s PipelineStatus) Valid() bool {
	switch s {
	case "", StatusFirstContact, StatusResponded, StatusInterview, StatusTechInterview,
		StatusSentManager, StatusReady, StatusSentClient, StatusHired:
		return true
	}
	return false
}

// Candidate is a stored profile. List fields are kept comma joined.
type Candidate struct {
	ID      uuid.UUID `json:"id"`
	OwnerID string    `json:"owner_id,omitempty"`

	Name           string `json:"name"`
	CurrentTitle   string `json:"current_title"`
	CurrentCompany string `json:"current_company"`
	Location       string `json:"location"`
	LinkedInURL    string `json:"linkedin_url"`
	Summary        string `json:"summary"`
	Skills         string `json:"skills"`
	Technologies   string `json:"technologies"`
	Languages      string `json:"languages"`
	Certifications string `json:"certifications"`
	Seniority      string `json:"seniority"`

	ExperienceYears    *float64 `json:"experience_time"`
	AverageTenureYears *float64 `json:"average_tenure"`

	ReadyAt   *time.Time `json:"ready_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// FromProfile renders an extracted profile into its storage shape.
func FromProfile(p profile.CandidateProfile) Candidate {
	return Candidate{
		Name:               p.Name,
		CurrentTitle:       p.CurrentTitle,
		CurrentCompany:     p.CurrentCompany,
		Location:           p.Location,
		LinkedInURL:        p.LinkedInURL,
		Summary:            p.Summary,
		Skills:             profile.JoinList(p.Skills),
		Technologies:       profile.JoinList(p.Technologies),
		Languages:          profile.JoinList(p.Languages),
		Certifications:     profile.JoinList(p.Certifications),
		Seniority:          string(p.Seniority),
		ExperienceYears:    p.ExperienceYears,
		AverageTenureYears: p.AverageTenureYears,
	}
}

// Profile turns the record back into the profile shown to the scorer.
func (c Candidate) Profile() profile.CandidateProfile {
	return profile.CandidateProfile{
		Name:               c.Name,
		CurrentTitle:       c.CurrentTitle,
		CurrentCompany:     c.CurrentCompany,
		Location:           c.Location,
		LinkedInURL:        c.LinkedInURL,
		Summary:            c.Summary,
		Skills:             profile.SplitList(c.Skills),
		Technologies:       profile.SplitList(c.Technologies),
		Languages:          profile.SplitList(c.Languages),
		Certifications:     profile.SplitList(c.Certifications),
		Seniority:          profile.Seniority(c.Seniority),
		ExperienceYears:    c.ExperienceYears,
		AverageTenureYears: c.AverageTenureYears,
	}
}

// JobLink ties a candidate to a job with its fit score and stage.
type JobLink struct {
	JobID          string         `json:"job_id"`
	CandidateID    uuid.UUID      `json:"candidate_id"`
	Adherence      *int           `json:"adherence_score"`
	Justification  string         `json:"technical_justification"`
	PipelineStatus PipelineStatus `json:"pipeline_status"`
	ReadyAt        *time.Time     `json:"ready_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Scope selects whose candidates an operation sees. A shared scope spans the
// whole pool and tags nothing with an owner. An empty owner outside the shared
// pool also spans every record.
type Scope struct {
	OwnerID string
	Shared  bool
}

// Owner is the owner to stamp on new records.
func (s Scope) Owner() string {
	if s.Shared {
		return ""
	}
	return s.OwnerID
}

func (s Scope) restricted() bool {
	return !s.Shared && s.OwnerID != ""
}

// Filters narrow a pool search. Text filters are case-insensitive substring
// matches, all of which must hold.
type Filters struct {
	Name           string `mapstructure:"name"`
	Location       string `mapstructure:"location"`
	Seniority      string `mapstructure:"seniority"`
	Company        string `mapstructure:"company"`
	Technologies   string `mapstructure:"technologies"`
	Skills         string `mapstructure:"skills"`
	Languages      string `mapstructure:"languages"`
	Certifications string `mapstructure:"certifications"`
	ReadyOnly      bool   `mapstructure:"ready-only"`
}

// Store is the candidate repository the pipeline writes to.
type Store interface {
	// FindByLinkedIn matches the profile URL case-insensitively within scope.
	FindByLinkedIn(ctx context.Context, scope Scope, url string) (*Candidate, error)
	// Create assigns an id and timestamps to c and stores it.
	Create(ctx context.Context, c *Candidate) error
	Update(ctx context.Context, c *Candidate) error
	// UpsertJobLink writes the score and justification, keeping any stage.
	UpsertJobLink(ctx context.Context, link JobLink) error
	// SetPipelineStatus moves a linked candidate to a stage. Entering the
	// ready stage stamps the ready date on the link and the candidate.
	SetPipelineStatus(ctx context.Context, jobID string, candidateID uuid.UUID, status PipelineStatus) error
	// Search lists candidates in scope matching f that are not linked to
	// excludeJobID yet, most recently updated first.
	Search(ctx context.Context, scope Scope, excludeJobID string, f Filters) ([]Candidate, error)
}

func today(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
