package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spigell/talentpool/internal/ai"
	"github.com/spigell/talentpool/internal/logger"
	"github.com/spigell/talentpool/internal/profile"
	"github.com/spigell/talentpool/internal/progress"
	"github.com/spigell/talentpool/internal/source"
	"github.com/spigell/talentpool/internal/store"
	"go.uber.org/zap"
)

// ImportRequest describes one import run. A nil Job imports without scoring.
type ImportRequest struct {
	Path     string
	Job      *ai.Job
	Scope    store.Scope
	Progress progress.Func
}

// ImportOutcome counts what happened to every file of a run.
type ImportOutcome struct {
	Created      int      `json:"created"`
	Updated      int      `json:"updated"`
	Skipped      int      `json:"skipped"`
	Errors       int      `json:"errors"`
	Total        int      `json:"total"`
	ErrorDetails []string `json:"error_details"`
}

// Importer turns a folder of résumés into stored candidates.
type Importer struct {
	extractor ai.Extractor
	store     store.Store
	opts      Options
	logger    *zap.Logger
}

func NewImporter(extractor ai.Extractor, st store.Store, opts Options, log *zap.Logger) *Importer {
	return &Importer{
		extractor: extractor,
		store:     st,
		opts:      opts.withDefaults(),
		logger:    logger.WithFields(log),
	}
}

type importRun struct {
	req     ImportRequest
	tally   *tally
	outcome *ImportOutcome
	logger  *zap.Logger
}

// Import processes the files under req.Path in batches. A failed bulk call is
// retried file by file. Per-file failures are counted and never stop the run;
// a missing path fails before anything is processed.
func (im *Importer) Import(ctx context.Context, req ImportRequest) (*ImportOutcome, error) {
	files, err := source.ListPDFs(req.Path)
	if err != nil {
		return nil, err
	}

	run := &importRun{
		req:     req,
		tally:   &tally{total: len(files), report: req.Progress},
		outcome: &ImportOutcome{Total: len(files)},
		logger:  im.logger.With(zap.String("path", req.Path), zap.Int("files", len(files))),
	}
	run.tally.start()
	run.logger.Info("import started", zap.Bool("scored", req.Job != nil))

	batches := chunk(files, im.opts.BatchSize)
	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		label := batchLabel(i+1, len(batches))

		res := im.extractBatch(ctx, batch, req.Job)
		if res.ok() {
			for j, path := range batch {
				im.accept(ctx, run, label, path, res.items[j])
			}
			if i < len(batches)-1 {
				if err := wait(ctx, im.opts.BatchPause); err != nil {
					return nil, err
				}
			}
			continue
		}

		if fatal(res.err) {
			return nil, res.err
		}
		run.logger.Warn("batch extraction failed, retrying file by file",
			zap.String("batch", label),
			zap.Int("batch_files", len(batch)),
			zap.Error(res.err),
		)

		for _, path := range batch {
			if err := im.extractOne(ctx, run, label, path); err != nil {
				return nil, err
			}
			if err := wait(ctx, im.opts.RetryPause); err != nil {
				return nil, err
			}
		}
	}

	outcome := run.outcome
	outcome.Errors = run.tally.errors
	outcome.ErrorDetails = run.tally.detailList()
	run.tally.finish(outcome)

	run.logger.Info("import finished",
		zap.Int("created", outcome.Created),
		zap.Int("updated", outcome.Updated),
		zap.Int("skipped", outcome.Skipped),
		zap.Int("errors", outcome.Errors),
	)
	return outcome, nil
}

func (im *Importer) extractBatch(ctx context.Context, paths []string, job *ai.Job) batchResult[profile.Extraction] {
	items, err := im.extractor.ExtractBatch(ctx, paths, job)
	if err != nil {
		return failed[profile.Extraction](err)
	}
	return succeeded(items, len(paths))
}

// extractOne is the fallback path for a single file. Only run-fatal errors
// are returned.
func (im *Importer) extractOne(ctx context.Context, run *importRun, label, path string) error {
	name := filepath.Base(path)

	e, err := im.extractor.Extract(ctx, path, run.req.Job)
	if err != nil {
		if fatal(err) {
			return err
		}
		run.logger.Warn("file extraction failed", zap.String("file", name), zap.Error(err))
		run.tally.fail(callError(name, err))
		run.tally.done(label, name, markError)
		return nil
	}
	if e == nil {
		e = &profile.Extraction{}
	}

	im.accept(ctx, run, label, path, *e)
	return nil
}

// accept skips incomplete profiles and reconciles the rest.
func (im *Importer) accept(ctx context.Context, run *importRun, label, path string, e profile.Extraction) {
	name := filepath.Base(path)

	if !e.Profile.Acceptable() {
		run.outcome.Skipped++
		run.logger.Debug("skipping incomplete profile", zap.String("file", name))
		run.tally.done(label, name, markSkipped)
		return
	}

	// a file lands in exactly one counter, so a failed link wins over a save
	result, err := reconcile(ctx, im.store, run.req.Scope, run.req.Job, e)
	if err != nil {
		run.logger.Warn("failed to save candidate", zap.String("file", name), zap.Error(err))
		run.tally.fail(saveError(name, "Erro ao salvar", err))
		run.tally.done(label, name, markError)
		return
	}

	switch result {
	case created:
		run.outcome.Created++
	case updated:
		run.outcome.Updated++
	}
	run.tally.done(label, name, markNone)
}

func (o *ImportOutcome) String() string {
	return fmt.Sprintf("criados=%d atualizados=%d pulados=%d erros=%d total=%d",
		o.Created, o.Updated, o.Skipped, o.Errors, o.Total)
}
