package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/spigell/talentpool/internal/ai"
	"github.com/spigell/talentpool/internal/logger"
	"github.com/spigell/talentpool/internal/profile"
	"github.com/spigell/talentpool/internal/progress"
	"github.com/spigell/talentpool/internal/store"
	"go.uber.org/zap"
)

// ErrJobRequired is returned when a pool search has no job to link to.
var ErrJobRequired = errors.New("job id is required")

// SearchRequest scores stored candidates that are not linked to Job yet.
type SearchRequest struct {
	Job      ai.Job
	Scope    store.Scope
	Filters  store.Filters
	Progress progress.Func
}

type SearchOutcome struct {
	Linked       int      `json:"linked"`
	Errors       int      `json:"errors"`
	Total        int      `json:"total"`
	ErrorDetails []string `json:"error_details"`
}

func (o *SearchOutcome) String() string {
	return fmt.Sprintf("vinculados=%d erros=%d total=%d", o.Linked, o.Errors, o.Total)
}

// Searcher scores pool candidates against a job and links them to it.
type Searcher struct {
	scorer ai.Scorer
	store  store.Store
	opts   Options
	logger *zap.Logger
}

func NewSearcher(scorer ai.Scorer, st store.Store, opts Options, log *zap.Logger) *Searcher {
	return &Searcher{
		scorer: scorer,
		store:  st,
		opts:   opts.withDefaults(),
		logger: logger.WithFields(log),
	}
}

type searchRun struct {
	req     SearchRequest
	tally   *tally
	outcome *SearchOutcome
	logger  *zap.Logger
}

// Search runs the same batch and fallback shape as Import over the matching
// candidates, in query order.
func (s *Searcher) Search(ctx context.Context, req SearchRequest) (*SearchOutcome, error) {
	if req.Job.ID == "" {
		return nil, ErrJobRequired
	}

	candidates, err := s.store.Search(ctx, req.Scope, req.Job.ID, req.Filters)
	if err != nil {
		return nil, err
	}

	run := &searchRun{
		req:     req,
		tally:   &tally{total: len(candidates), report: req.Progress},
		outcome: &SearchOutcome{Total: len(candidates)},
		logger:  s.logger.With(zap.String("job_id", req.Job.ID), zap.Int("candidates", len(candidates))),
	}
	run.tally.start()
	run.logger.Info("pool search started")

	batches := chunk(candidates, s.opts.BatchSize)
	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		label := batchLabel(i+1, len(batches))

		res := s.scoreBatch(ctx, batch, req.Job)
		if res.ok() {
			for j, c := range batch {
				s.link(ctx, run, label, c, res.items[j])
			}
			if i < len(batches)-1 {
				if err := wait(ctx, s.opts.BatchPause); err != nil {
					return nil, err
				}
			}
			continue
		}

		if fatal(res.err) {
			return nil, res.err
		}
		run.logger.Warn("batch scoring failed, retrying candidate by candidate",
			zap.String("batch", label),
			zap.Int("batch_candidates", len(batch)),
			zap.Error(res.err),
		)

		for _, c := range batch {
			if err := s.scoreOne(ctx, run, label, c); err != nil {
				return nil, err
			}
			if err := wait(ctx, s.opts.RetryPause); err != nil {
				return nil, err
			}
		}
	}

	outcome := run.outcome
	outcome.Errors = run.tally.errors
	outcome.ErrorDetails = run.tally.detailList()
	run.tally.finish(outcome)

	run.logger.Info("pool search finished", zap.Int("linked", outcome.Linked), zap.Int("errors", outcome.Errors))
	return outcome, nil
}

func (s *Searcher) scoreBatch(ctx context.Context, batch []store.Candidate, job ai.Job) batchResult[profile.Assessment] {
	profiles := make([]profile.CandidateProfile, 0, len(batch))
	for _, c := range batch {
		profiles = append(profiles, c.Profile())
	}

	items, err := s.scorer.ScoreBatch(ctx, profiles, job)
	if err != nil {
		return failed[profile.Assessment](err)
	}
	return succeeded(items, len(batch))
}

func (s *Searcher) scoreOne(ctx context.Context, run *searchRun, label string, c store.Candidate) error {
	a, err := s.scorer.Score(ctx, c.Profile(), run.req.Job)
	if err != nil {
		if fatal(err) {
			return err
		}
		run.logger.Warn("candidate scoring failed", zap.String("candidate", c.Name), zap.Error(err))
		run.tally.fail(callError(c.Name, err))
		run.tally.done(label, c.Name, markError)
		return nil
	}
	if a == nil {
		a = &profile.Assessment{}
	}

	s.link(ctx, run, label, c, *a)
	return nil
}

func (s *Searcher) link(ctx context.Context, run *searchRun, label string, c store.Candidate, a profile.Assessment) {
	err := s.store.UpsertJobLink(ctx, store.JobLink{
		JobID:         run.req.Job.ID,
		CandidateID:   c.ID,
		Adherence:     a.Adherence,
		Justification: a.Justification,
	})
	if err != nil {
		run.logger.Warn("failed to link candidate", zap.String("candidate", c.Name), zap.Error(err))
		run.tally.fail(saveError(c.Name, "Erro ao vincular", err))
		run.tally.done(label, c.Name, markError)
		return
	}

	run.outcome.Linked++
	run.tally.done(label, c.Name, markNone)
}
