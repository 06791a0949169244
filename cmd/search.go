package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spigell/talentpool/internal/logger"
	"github.com/spigell/talentpool/internal/pipeline"
	"github.com/spigell/talentpool/internal/progress"
	"github.com/spigell/talentpool/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Score pool candidates not linked to a job yet and link them to it",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		runSearch(cmd)
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	addJobFlags(searchCmd)
	addScopeFlags(searchCmd)

	searchCmd.Flags().String("name", "", "candidate name contains")
	searchCmd.Flags().String("location", "", "location contains")
	searchCmd.Flags().String("seniority", "", "seniority contains")
	searchCmd.Flags().String("company", "", "current company contains")
	searchCmd.Flags().String("technologies", "", "technologies contain")
	searchCmd.Flags().String("skills", "", "skills contain")
	searchCmd.Flags().String("languages", "", "languages contain")
	searchCmd.Flags().String("certifications", "", "certifications contain")
	searchCmd.Flags().Bool("ready-only", false, "only candidates that were marked ready at least once")
}

func filtersFromFlags(cmd *cobra.Command) store.Filters {
	get := func(name string) string {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	readyOnly, _ := cmd.Flags().GetBool("ready-only")

	return store.Filters{
		Name:           get("name"),
		Location:       get("location"),
		Seniority:      get("seniority"),
		Company:        get("company"),
		Technologies:   get("technologies"),
		Skills:         get("skills"),
		Languages:      get("languages"),
		Certifications: get("certifications"),
		ReadyOnly:      readyOnly,
	}
}

func runSearch(cmd *cobra.Command) {
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
	if job == nil || job.ID == "" {
		log.Fatal("resolving job", zap.Error(pipeline.ErrJobRequired))
	}

	states, closeStates, err := newProgressStore(ctx, config.Progress, log)
	if err != nil {
		log.Fatal("opening progress store", zap.Error(err))
	}
	defer closeStates()

	key := progress.SearchKey(job.ID)
	gateway, err := newGateway(ctx, config.Gemini, log)
	if err != nil {
		if serr := abortRun(ctx, states, key, err); serr != nil {
			log.Warn("failed to store progress", zap.String("key", key), zap.Error(serr))
		}
		log.Fatal("preparing scorer", zap.Error(err))
	}

	candidates, closeStore, err := newStore(ctx, config.Store, log)
	if err != nil {
		log.Fatal("opening candidate store", zap.Error(err))
	}
	defer closeStore()

	if auto, _ := cmd.Flags().GetBool("yes"); !auto {
		ok, err := confirm("Score pool candidates against job " + job.ID + "?")
		if err != nil {
			log.Fatal("exiting", zap.Error(err))
		}
		if !ok {
			log.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
	}

	runLogger := log.With(logger.RunFields("search", key)...)
	searcher := pipeline.NewSearcher(gateway, candidates, config.Import.Batch, runLogger)
	report := progressLogger(runLogger)

	task := progress.Start(ctx, states, key, log.With(logger.RunFields("search", "")...), func(ctx context.Context, save progress.Func) (any, error) {
		return searcher.Search(ctx, pipeline.SearchRequest{
			Job:     *job,
			Scope:   scope,
			Filters: filtersFromFlags(cmd),
			Progress: func(u progress.Update) {
				save(u)
				report(u)
			},
		})
	})

	result, err := task.Wait()
	if err != nil {
		log.Fatal("search failed", zap.Error(err))
	}

	if err := printJSON(cmd.OutOrStdout(), result); err != nil {
		log.Fatal("printing outcome", zap.Error(err))
	}
}
