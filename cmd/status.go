package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/talentpool/internal/pipeline"
	"github.com/spigell/talentpool/internal/progress"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var statusCmd = &cobra.Command{
	Use:   "status [key]",
	Short: "Print the stored progress of an import or search run",
	Long: `Print the stored progress of an import or search run.
The key defaults to the shared pool import; --import-job and --search-job
build the key of a job scoped run.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runStatus(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().String("import-job", "", "job id of an import run")
	statusCmd.Flags().String("search-job", "", "job id of a pool search run")
}

func statusKey(cmd *cobra.Command, args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	if id, _ := cmd.Flags().GetString("import-job"); id != "" {
		return progress.ImportKey(id)
	}
	if id, _ := cmd.Flags().GetString("search-job"); id != "" {
		return progress.SearchKey(id)
	}
	return progress.PoolImportKey()
}

func runStatus(cmd *cobra.Command, args []string) {
	log, config := setup()
	ctx := context.Background()

	states, closeStates, err := newProgressStore(ctx, config.Progress, log)
	if err != nil {
		log.Fatal("opening progress store", zap.Error(err))
	}
	defer closeStates()

	key := statusKey(cmd, args)
	update, err := states.Get(ctx, key)
	if err != nil {
		log.Fatal("reading progress", zap.String("key", key), zap.Error(err))
	}

	if err := printJSON(cmd.OutOrStdout(), update); err != nil {
		log.Fatal("printing progress", zap.Error(err))
	}

	if update.Status != progress.StatusCompleted {
		return
	}
	summary, err := outcomeSummary(key, update)
	if err != nil {
		log.Warn("reading run outcome", zap.String("key", key), zap.Error(err))
		return
	}
	log.Info("run outcome", zap.String("key", key), zap.String("summary", summary))
}

// outcomeSummary decodes the stored result by the kind of run the key belongs to.
func outcomeSummary(key string, update progress.Update) (string, error) {
	var outcome fmt.Stringer
	switch {
	case strings.HasPrefix(key, progress.SearchKey("")):
		outcome = &pipeline.SearchOutcome{}
	case strings.HasPrefix(key, progress.ImportKey("")), key == progress.PoolImportKey():
		outcome = &pipeline.ImportOutcome{}
	default:
		return "", fmt.Errorf("unknown run key %q", key)
	}

	if err := update.DecodeResult(outcome); err != nil {
		return "", err
	}
	return outcome.String(), nil
}
