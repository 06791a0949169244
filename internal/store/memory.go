package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type linkKey struct {
	job       string
	candidate uuid.UUID
}

// Memory is an in-process Store. Records are copied in and out so callers
// never share state with it.
type Memory struct {
	mu         sync.RWMutex
	candidates map[uuid.UUID]Candidate
	links      map[linkKey]JobLink
	seq        map[uuid.UUID]int
	next       int
	now        func() time.Time
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		candidates: make(map[uuid.UUID]Candidate),
		links:      make(map[linkKey]JobLink),
		seq:        make(map[uuid.UUID]int),
		now:        time.Now,
	}
}

func (m *Memory) FindByLinkedIn(_ context.Context, scope Scope, url string) (*Candidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var found *Candidate
	for _, c := range m.candidates {
		if !inScope(c, scope) || !strings.EqualFold(c.LinkedInURL, url) {
			continue
		}
		// oldest record wins
		if found == nil || m.seq[c.ID] < m.seq[found.ID] {
			found = &c
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

func (m *Memory) Create(_ context.Context, c *Candidate) error {
	if c == nil {
		return fmt.Errorf("candidate is nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	c.ID = uuid.New()
	c.CreatedAt = now
	c.UpdatedAt = now
	m.candidates[c.ID] = *c
	m.next++
	m.seq[c.ID] = m.next
	return nil
}

func (m *Memory) Update(_ context.Context, c *Candidate) error {
	if c == nil {
		return fmt.Errorf("candidate is nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.candidates[c.ID]
	if !ok {
		return fmt.Errorf("candidate %s: %w", c.ID, ErrNotFound)
	}
	c.CreatedAt = stored.CreatedAt
	c.UpdatedAt = m.now()
	m.candidates[c.ID] = *c
	return nil
}

func (m *Memory) UpsertJobLink(_ context.Context, link JobLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.candidates[link.CandidateID]; !ok {
		return fmt.Errorf("candidate %s: %w", link.CandidateID, ErrNotFound)
	}

	key := linkKey{job: link.JobID, candidate: link.CandidateID}
	now := m.now()
	if stored, ok := m.links[key]; ok {
		stored.Adherence = link.Adherence
		stored.Justification = link.Justification
		stored.UpdatedAt = now
		m.links[key] = stored
		return nil
	}

	link.CreatedAt = now
	link.UpdatedAt = now
	m.links[key] = link
	return nil
}

func (m *Memory) SetPipelineStatus(_ context.Context, jobID string, candidateID uuid.UUID, status PipelineStatus) error {
	if !status.Valid() {
		return fmt.Errorf("unknown pipeline status %q", status)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := linkKey{job: jobID, candidate: candidateID}
	link, ok := m.links[key]
	if !ok {
		return fmt.Errorf("job link %s/%s: %w", jobID, candidateID, ErrNotFound)
	}

	now := m.now()
	if status == StatusReady && (link.ReadyAt == nil || link.PipelineStatus != StatusReady) {
		day := today(now)
		link.ReadyAt = &day
		if c, ok := m.candidates[candidateID]; ok {
			c.ReadyAt = &day
			m.candidates[candidateID] = c
		}
	}
	link.PipelineStatus = status
	link.UpdatedAt = now
	m.links[key] = link
	return nil
}

func (m *Memory) Search(_ context.Context, scope Scope, excludeJobID string, f Filters) ([]Candidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Candidate, 0)
	for _, c := range m.ordered() {
		if !inScope(c, scope) || !matches(c, f) {
			continue
		}
		if excludeJobID != "" {
			if _, linked := m.links[linkKey{job: excludeJobID, candidate: c.ID}]; linked {
				continue
			}
		}
		out = append(out, c)
	}
	return out, nil
}

// Link returns a stored job link.
func (m *Memory) Link(jobID string, candidateID uuid.UUID) (JobLink, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	link, ok := m.links[linkKey{job: jobID, candidate: candidateID}]
	return link, ok
}

// All returns every candidate, most recently updated first.
func (m *Memory) All() []Candidate {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ordered()
}

// ordered sorts by update time then creation order, newest first.
// Callers hold the lock.
func (m *Memory) ordered() []Candidate {
	out := make([]Candidate, 0, len(m.candidates))
	for _, c := range m.candidates {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return m.seq[out[i].ID] > m.seq[out[j].ID]
	})
	return out
}

func inScope(c Candidate, scope Scope) bool {
	return !scope.restricted() || c.OwnerID == scope.OwnerID
}

func matches(c Candidate, f Filters) bool {
	checks := []struct{ value, filter string }{
		{c.Name, f.Name},
		{c.Location, f.Location},
		{c.Seniority, f.Seniority},
		{c.CurrentCompany, f.Company},
		{c.Technologies, f.Technologies},
		{c.Skills, f.Skills},
		{c.Languages, f.Languages},
		{c.Certifications, f.Certifications},
	}
	for _, check := range checks {
		needle := strings.TrimSpace(check.filter)
		if needle != "" && !strings.Contains(strings.ToLower(check.value), strings.ToLower(needle)) {
			return false
		}
	}
	return !f.ReadyOnly || c.ReadyAt != nil
}
