package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/spigell/talentpool/internal/ai"
	"github.com/spigell/talentpool/internal/progress"
	"github.com/spigell/talentpool/internal/store"
	"go.uber.org/zap"
)

func seedPool(t *testing.T, names ...string) *store.Memory {
	t.Helper()
	st := store.NewMemory()
	for _, name := range names {
		seedCandidate(t, st, store.Candidate{
			OwnerID:      "u1",
			Name:         name,
			LinkedInURL:  "https://www.linkedin.com/in/" + strings.ToLower(name),
			Technologies: "Go, Kubernetes",
		})
	}
	return st
}

func TestSearchLinksUnlinkedCandidates(t *testing.T) {
	recordWaits(t)

	st := seedPool(t, "Ana", "Bruno", "Carla")
	job := ai.Job{ID: "j1", Description: "Vaga Go"}
	for _, c := range st.All() {
		if c.Name == "Ana" {
			if err := st.UpsertJobLink(context.Background(), store.JobLink{JobID: "j1", CandidateID: c.ID}); err != nil {
				t.Fatalf("seed link: %v", err)
			}
		}
	}

	scorer := &stubScorer{scores: map[string]int{"Bruno": 80, "Carla": 65}}
	seen := &updates{}
	outcome, err := NewSearcher(scorer, st, Options{}, zap.NewNop()).Search(context.Background(), SearchRequest{
		Job:      job,
		Scope:    ownerScope,
		Progress: seen.record,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if outcome.Total != 2 || outcome.Linked != 2 || outcome.Errors != 0 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if len(scorer.batchCalls) != 1 || len(scorer.batchCalls[0]) != 2 || len(scorer.singleCalls) != 0 {
		t.Fatalf("expected one bulk call for both candidates, got %v / %v", scorer.batchCalls, scorer.singleCalls)
	}

	for _, c := range st.All() {
		link, ok := st.Link("j1", c.ID)
		if !ok {
			t.Fatalf("expected %s to be linked", c.Name)
		}
		if c.Name == "Ana" {
			if link.Adherence != nil {
				t.Fatalf("already linked candidates must not be rescored")
			}
			continue
		}
		if *link.Adherence != scorer.scores[c.Name] || link.Justification != "aderência de "+c.Name {
			t.Fatalf("unexpected link for %s: %+v", c.Name, link)
		}
	}

	if got := seen.currents(); len(got) != 2 || got[0] != "Lote 1/1: Carla" {
		t.Fatalf("unexpected progress labels: %v", got)
	}
	if final := seen.last(); final.Status != progress.StatusCompleted || final.Result != outcome {
		t.Fatalf("unexpected final update: %+v", final)
	}
}

func TestSearchWithoutCandidatesCompletesImmediately(t *testing.T) {
	recordWaits(t)

	scorer := &stubScorer{}
	seen := &updates{}
	outcome, err := NewSearcher(scorer, store.NewMemory(), Options{}, zap.NewNop()).Search(context.Background(), SearchRequest{
		Job:      ai.Job{ID: "j1"},
		Progress: seen.record,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Total != 0 || outcome.Linked != 0 || outcome.ErrorDetails == nil {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if len(seen.list) != 2 || seen.list[0].Status != progress.StatusRunning || seen.last().Status != progress.StatusCompleted {
		t.Fatalf("expected running then completed, got %+v", seen.list)
	}
	if len(scorer.batchCalls) != 0 {
		t.Fatalf("expected no scoring calls")
	}
}

func TestSearchFallsBackOnBatchFailure(t *testing.T) {
	delays := recordWaits(t)

	st := seedPool(t, "Ana", "Bruno")
	scorer := &stubScorer{
		scores:   map[string]int{"Ana": 70, "Bruno": 50},
		batchErr: errBoom,
		errs:     map[string]error{"Bruno": errors.New("RESOURCE_EXHAUSTED")},
	}
	seen := &updates{}

	outcome, err := NewSearcher(scorer, st, Options{}, zap.NewNop()).Search(context.Background(), SearchRequest{
		Job:      ai.Job{ID: "j1"},
		Scope:    ownerScope,
		Progress: seen.record,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if outcome.Linked != 1 || outcome.Errors != 1 || outcome.Total != 2 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if len(outcome.ErrorDetails) != 1 || outcome.ErrorDetails[0] != "Bruno: Limite de uso da API atingido" {
		t.Fatalf("unexpected details: %v", outcome.ErrorDetails)
	}
	if len(scorer.singleCalls) != 2 || len(*delays) != 2 {
		t.Fatalf("expected two single calls with pauses, got %v / %v", scorer.singleCalls, *delays)
	}
	if got := seen.currents(); got[0] != "Lote 1/1: Bruno (erro)" || got[1] != "Lote 1/1: Ana" {
		t.Fatalf("unexpected labels: %v", got)
	}
}

func TestSearchShortBatchFallsBack(t *testing.T) {
	recordWaits(t)

	st := seedPool(t, "Ana", "Bruno")
	scorer := &stubScorer{scores: map[string]int{"Ana": 1, "Bruno": 2}, short: true}

	outcome, err := NewSearcher(scorer, st, Options{}, zap.NewNop()).Search(context.Background(), SearchRequest{
		Job:   ai.Job{ID: "j1"},
		Scope: ownerScope,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Linked != 2 || len(scorer.singleCalls) != 2 {
		t.Fatalf("expected a per candidate retry, got %+v / %v", outcome, scorer.singleCalls)
	}
}

func TestSearchAppliesFiltersAndBatches(t *testing.T) {
	delays := recordWaits(t)

	var names []string
	for i := 0; i < 12; i++ {
		names = append(names, fmt.Sprintf("Pessoa%02d", i))
	}
	st := seedPool(t, names...)
	seedCandidate(t, st, store.Candidate{OwnerID: "u1", Name: "Rubyista", LinkedInURL: "r", Technologies: "Ruby"})

	scorer := &stubScorer{scores: map[string]int{}}
	outcome, err := NewSearcher(scorer, st, Options{BatchSize: 5}, zap.NewNop()).Search(context.Background(), SearchRequest{
		Job:     ai.Job{ID: "j1"},
		Scope:   ownerScope,
		Filters: store.Filters{Technologies: "kubernetes"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Total != 12 || outcome.Linked != 12 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if len(scorer.batchCalls) != 3 || len(scorer.batchCalls[2]) != 2 {
		t.Fatalf("expected batches of 5, 5 and 2, got %v", scorer.batchCalls)
	}
	if len(*delays) != 2 {
		t.Fatalf("expected pauses between batches only, got %v", *delays)
	}
}

func TestSearchLinkErrorsAreClassified(t *testing.T) {
	recordWaits(t)

	st := seedPool(t, "Ana")
	broken := &brokenLinks{Memory: st}
	outcome, err := NewSearcher(&stubScorer{scores: map[string]int{}}, broken, Options{}, zap.NewNop()).Search(context.Background(), SearchRequest{
		Job:   ai.Job{ID: "j1"},
		Scope: ownerScope,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Errors != 1 || outcome.ErrorDetails[0] != "Ana: Erro ao vincular - connection reset" {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
}

type brokenLinks struct {
	*store.Memory
}

func (b *brokenLinks) UpsertJobLink(context.Context, store.JobLink) error {
	return errors.New("connection reset")
}

func TestSearchRequiresJob(t *testing.T) {
	_, err := NewSearcher(&stubScorer{}, store.NewMemory(), Options{}, zap.NewNop()).Search(context.Background(), SearchRequest{})
	if !errors.Is(err, ErrJobRequired) {
		t.Fatalf("expected job required error, got %v", err)
	}
}
