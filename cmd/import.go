package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spigell/talentpool/internal/ai"
	"github.com/spigell/talentpool/internal/logger"
	"github.com/spigell/talentpool/internal/pipeline"
	"github.com/spigell/talentpool/internal/progress"
	"github.com/spigell/talentpool/internal/source"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var importCmd = &cobra.Command{
	Use:   "import <path>",
	Short: "Import résumé PDFs from a file, folder or zip archive into the candidate pool",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runImport(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	addJobFlags(importCmd)
	addScopeFlags(importCmd)
	importCmd.Flags().String("strategy", strategyGemini, "extraction strategy: gemini or heuristic")
}

func runImport(cmd *cobra.Command, input string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log, config := setup()

	scope, err := scopeFromFlags(cmd)
	if err != nil {
		log.Fatal("resolving candidate scope", zap.Error(err))
	}

	job, err := jobFromFlags(cmd, config.Import.Weights)
	if err != nil {
		log.Fatal("resolving job", zap.Error(err))
	}

	strategy, _ := cmd.Flags().GetString("strategy")
	if job == nil && strategy == strategyHeuristic {
		roleTitle, _ := cmd.Flags().GetString("role-title")
		if roles := ai.SplitRoleTitle(roleTitle); len(roles) > 0 {
			job = &ai.Job{RoleTitles: roles}
		}
	}

	path := input
	if source.IsZip(path) {
		dir, err := os.MkdirTemp("", app+"-import-")
		if err != nil {
			log.Fatal("creating a temporary folder", zap.Error(err))
		}
		defer os.RemoveAll(dir)

		files, err := source.Unzip(path, dir)
		if err != nil {
			log.Fatal("extracting archive", zap.Error(err))
		}
		log.Info("archive extracted", zap.String("archive", path), zap.Int("files", len(files)))
		path = dir
	}

	states, closeStates, err := newProgressStore(ctx, config.Progress, log)
	if err != nil {
		log.Fatal("opening progress store", zap.Error(err))
	}
	defer closeStates()

	key := progress.PoolImportKey()
	if job != nil && job.ID != "" {
		key = progress.ImportKey(job.ID)
	}

	extractor, err := newExtractor(ctx, strategy, config, log)
	if err != nil {
		if serr := abortRun(ctx, states, key, err); serr != nil {
			log.Warn("failed to store progress", zap.String("key", key), zap.Error(serr))
		}
		log.Fatal("preparing extractor", zap.Error(err))
	}

	candidates, closeStore, err := newStore(ctx, config.Store, log)
	if err != nil {
		log.Fatal("opening candidate store", zap.Error(err))
	}
	defer closeStore()

	if auto, _ := cmd.Flags().GetBool("yes"); !auto {
		ok, err := confirm("Import résumés from " + input + "?")
		if err != nil {
			log.Fatal("exiting", zap.Error(err))
		}
		if !ok {
			log.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
	}

	runLogger := log.With(logger.RunFields("import", key)...)
	importer := pipeline.NewImporter(extractor, candidates, config.Import.Batch, runLogger)
	report := progressLogger(runLogger)

	task := progress.Start(ctx, states, key, log.With(logger.RunFields("import", "")...), func(ctx context.Context, save progress.Func) (any, error) {
		return importer.Import(ctx, pipeline.ImportRequest{
			Path:  path,
			Job:   job,
			Scope: scope,
			Progress: func(u progress.Update) {
				save(u)
				report(u)
			},
		})
	})

	result, err := task.Wait()
	if err != nil {
		log.Fatal("import failed", zap.Error(err))
	}

	if err := printJSON(cmd.OutOrStdout(), result); err != nil {
		log.Fatal("printing outcome", zap.Error(err))
	}
}
