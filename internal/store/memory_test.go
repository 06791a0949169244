package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func fixedClock(m *Memory, start time.Time) *time.Time {
	current := start
	m.now = func() time.Time {
		current = current.Add(time.Minute)
		return current
	}
	return &current
}

func mustCreate(t *testing.T, m *Memory, c Candidate) Candidate {
	t.Helper()
	if err := m.Create(context.Background(), &c); err != nil {
		t.Fatalf("create: %v", err)
	}
	return c
}

func TestMemoryFindByLinkedInIsCaseInsensitiveAndScoped(t *testing.T) {
	m := NewMemory()
	ana := mustCreate(t, m, Candidate{Name: "Ana", LinkedInURL: "https://linkedin.com/in/Ana", OwnerID: "u1"})
	mustCreate(t, m, Candidate{Name: "Ana (u2)", LinkedInURL: "https://linkedin.com/in/ana", OwnerID: "u2"})

	got, err := m.FindByLinkedIn(context.Background(), Scope{OwnerID: "u1"}, "HTTPS://LINKEDIN.COM/IN/ANA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != ana.ID {
		t.Fatalf("expected u1 record, got %+v", got)
	}

	if _, err := m.FindByLinkedIn(context.Background(), Scope{OwnerID: "u3"}, ana.LinkedInURL); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	shared, err := m.FindByLinkedIn(context.Background(), Scope{OwnerID: "u3", Shared: true}, ana.LinkedInURL)
	if err != nil || shared.ID != ana.ID {
		t.Fatalf("expected the oldest record across the pool, got %+v, %v", shared, err)
	}
}

func TestMemoryUpdateKeepsCreationTime(t *testing.T) {
	m := NewMemory()
	fixedClock(m, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	c := mustCreate(t, m, Candidate{Name: "Ana", LinkedInURL: "u"})

	c.Skills = "Go"
	if err := m.Update(context.Background(), &c); err != nil {
		t.Fatalf("update: %v", err)
	}
	stored := m.All()[0]
	if stored.Skills != "Go" || !stored.UpdatedAt.After(stored.CreatedAt) {
		t.Fatalf("unexpected stored record: %+v", stored)
	}

	missing := Candidate{ID: uuid.New()}
	if err := m.Update(context.Background(), &missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMemoryUpsertJobLinkKeepsStage(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	c := mustCreate(t, m, Candidate{Name: "Ana", LinkedInURL: "u"})

	first := 60
	if err := m.UpsertJobLink(ctx, JobLink{JobID: "j1", CandidateID: c.ID, Adherence: &first, Justification: "ok"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := m.SetPipelineStatus(ctx, "j1", c.ID, StatusInterview); err != nil {
		t.Fatalf("set status: %v", err)
	}

	second := 80
	if err := m.UpsertJobLink(ctx, JobLink{JobID: "j1", CandidateID: c.ID, Adherence: &second, Justification: "melhor"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	link, ok := m.Link("j1", c.ID)
	if !ok {
		t.Fatal("expected link")
	}
	if *link.Adherence != 80 || link.Justification != "melhor" || link.PipelineStatus != StatusInterview {
		t.Fatalf("unexpected link: %+v", link)
	}

	if err := m.UpsertJobLink(ctx, JobLink{JobID: "j1", CandidateID: uuid.New()}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for unknown candidate, got %v", err)
	}
}

func TestMemoryReadyStageStampsDate(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	clock := fixedClock(m, time.Date(2024, 3, 10, 23, 0, 0, 0, time.UTC))
	c := mustCreate(t, m, Candidate{Name: "Ana", LinkedInURL: "u"})
	if err := m.UpsertJobLink(ctx, JobLink{JobID: "j1", CandidateID: c.ID}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if err := m.SetPipelineStatus(ctx, "j1", c.ID, StatusReady); err != nil {
		t.Fatalf("set status: %v", err)
	}
	link, _ := m.Link("j1", c.ID)
	want := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	if link.ReadyAt == nil || !link.ReadyAt.Equal(want) {
		t.Fatalf("expected ready date %v, got %v", want, link.ReadyAt)
	}
	if got := m.All()[0].ReadyAt; got == nil || !got.Equal(want) {
		t.Fatalf("expected candidate ready date %v, got %v", want, got)
	}

	// staying in the ready stage keeps the first date
	*clock = clock.Add(48 * time.Hour)
	if err := m.SetPipelineStatus(ctx, "j1", c.ID, StatusReady); err != nil {
		t.Fatalf("set status: %v", err)
	}
	link, _ = m.Link("j1", c.ID)
	if !link.ReadyAt.Equal(want) {
		t.Fatalf("expected ready date to stay %v, got %v", want, link.ReadyAt)
	}

	if err := m.SetPipelineStatus(ctx, "j1", c.ID, PipelineStatus("NOPE")); err == nil {
		t.Fatal("expected unknown status error")
	}
	if err := m.SetPipelineStatus(ctx, "j2", c.ID, StatusHired); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMemorySearch(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	fixedClock(m, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	ana := mustCreate(t, m, Candidate{Name: "Ana Souza", Location: "São Paulo", Technologies: "Go, Kubernetes", Seniority: "Senior", OwnerID: "u1"})
	bruno := mustCreate(t, m, Candidate{Name: "Bruno Lima", Location: "Recife", Technologies: "Go, AWS", Seniority: "Pleno", OwnerID: "u1"})
	mustCreate(t, m, Candidate{Name: "Carla", Technologies: "Go", OwnerID: "u2"})

	tests := []struct {
		name    string
		scope   Scope
		exclude string
		filters Filters
		want    []uuid.UUID
	}{
		{name: "owner scope newest first", scope: Scope{OwnerID: "u1"}, want: []uuid.UUID{bruno.ID, ana.ID}},
		{name: "substring ignores case", scope: Scope{OwnerID: "u1"}, filters: Filters{Technologies: "kubernetes"}, want: []uuid.UUID{ana.ID}},
		{name: "filters combine", scope: Scope{OwnerID: "u1"}, filters: Filters{Technologies: "go", Location: "recife"}, want: []uuid.UUID{bruno.ID}},
		{name: "no match", scope: Scope{OwnerID: "u1"}, filters: Filters{Name: "zé"}, want: nil},
		{name: "linked excluded", scope: Scope{OwnerID: "u1"}, exclude: "j1", want: []uuid.UUID{bruno.ID}},
		{name: "ready only", scope: Scope{OwnerID: "u1"}, filters: Filters{ReadyOnly: true}, want: []uuid.UUID{ana.ID}},
	}

	if err := m.UpsertJobLink(ctx, JobLink{JobID: "j1", CandidateID: ana.ID}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := m.SetPipelineStatus(ctx, "j1", ana.ID, StatusReady); err != nil {
		t.Fatalf("set status: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Search(ctx, tt.scope, tt.exclude, tt.filters)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d candidates, got %d", len(tt.want), len(got))
			}
			for i := range tt.want {
				if got[i].ID != tt.want[i] {
					t.Fatalf("unexpected order at %d: %s", i, got[i].Name)
				}
			}
		})
	}

	shared, _ := m.Search(ctx, Scope{Shared: true}, "", Filters{})
	if len(shared) != 3 {
		t.Fatalf("expected the whole pool, got %d", len(shared))
	}
}

func TestCandidateProfileRoundTrip(t *testing.T) {
	years := 3.5
	c := Candidate{Name: "Ana", Skills: "Go, SQL", Seniority: "Pleno", ExperienceYears: &years}
	p := c.Profile()
	if len(p.Skills) != 2 || p.Skills[1] != "SQL" || p.Seniority != "Pleno" {
		t.Fatalf("unexpected profile: %+v", p)
	}
	back := FromProfile(p)
	if back.Skills != "Go, SQL" || back.ExperienceYears != &years {
		t.Fatalf("unexpected record: %+v", back)
	}
}
