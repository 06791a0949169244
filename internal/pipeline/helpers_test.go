package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spigell/talentpool/internal/ai"
	"github.com/spigell/talentpool/internal/profile"
	"github.com/spigell/talentpool/internal/progress"
)

// recordWaits replaces the pauses between calls and returns the requested delays.
func recordWaits(t *testing.T) *[]time.Duration {
	t.Helper()
	original := wait
	var (
		mu     sync.Mutex
		delays []time.Duration
	)
	wait = func(_ context.Context, d time.Duration) error {
		mu.Lock()
		defer mu.Unlock()
		delays = append(delays, d)
		return nil
	}
	t.Cleanup(func() { wait = original })
	return &delays
}

func writeFiles(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("%PDF"), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func person(name, slug string) profile.Extraction {
	url := ""
	if slug != "" {
		url = "https://www.linkedin.com/in/" + slug
	}
	return profile.Extraction{Profile: profile.CandidateProfile{
		Name:         name,
		LinkedInURL:  url,
		CurrentTitle: "Engenheira de Software",
		Skills:       []string{"Go", "SQL"},
		Seniority:    profile.SeniorityPleno,
	}}
}

type stubExtractor struct {
	mu          sync.Mutex
	profiles    map[string]profile.Extraction
	batchErr    func(names []string) error
	fileErrs    map[string]error
	dropLast    bool
	batchCalls  [][]string
	singleCalls []string
	jobs        []*ai.Job
}

func (s *stubExtractor) ExtractBatch(_ context.Context, paths []string, job *ai.Job) ([]profile.Extraction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(paths))
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	s.batchCalls = append(s.batchCalls, names)
	s.jobs = append(s.jobs, job)

	if s.batchErr != nil {
		if err := s.batchErr(names); err != nil {
			return nil, err
		}
	}

	out := make([]profile.Extraction, 0, len(names))
	for _, name := range names {
		out = append(out, s.profiles[name])
	}
	if s.dropLast {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (s *stubExtractor) Extract(_ context.Context, path string, job *ai.Job) (*profile.Extraction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := filepath.Base(path)
	s.singleCalls = append(s.singleCalls, name)
	s.jobs = append(s.jobs, job)
	if err := s.fileErrs[name]; err != nil {
		return nil, err
	}
	e := s.profiles[name]
	return &e, nil
}

type stubScorer struct {
	mu          sync.Mutex
	scores      map[string]int
	batchErr    error
	short       bool
	errs        map[string]error
	batchCalls  [][]string
	singleCalls []string
}

func (s *stubScorer) assess(name string) profile.Assessment {
	score := s.scores[name]
	return profile.Assessment{Adherence: &score, Justification: "aderência de " + name}
}

func (s *stubScorer) ScoreBatch(_ context.Context, candidates []profile.CandidateProfile, _ ai.Job) ([]profile.Assessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(candidates))
	out := make([]profile.Assessment, 0, len(candidates))
	for _, c := range candidates {
		names = append(names, c.Name)
		out = append(out, s.assess(c.Name))
	}
	s.batchCalls = append(s.batchCalls, names)

	if s.batchErr != nil {
		return nil, s.batchErr
	}
	if s.short {
		return out[:len(out)-1], nil
	}
	return out, nil
}

func (s *stubScorer) Score(_ context.Context, c profile.CandidateProfile, _ ai.Job) (*profile.Assessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.singleCalls = append(s.singleCalls, c.Name)
	if err := s.errs[c.Name]; err != nil {
		return nil, err
	}
	a := s.assess(c.Name)
	return &a, nil
}

type updates struct {
	mu   sync.Mutex
	list []progress.Update
}

func (u *updates) record(update progress.Update) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.list = append(u.list, update)
}

func (u *updates) currents() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	var out []string
	for _, update := range u.list {
		if update.Current != nil {
			out = append(out, *update.Current)
		}
	}
	return out
}

func (u *updates) last() progress.Update {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.list[len(u.list)-1]
}

var errBoom = errors.New("boom")
