package cmd

import (
	"context"
	"fmt"

	"github.com/spigell/talentpool/internal/store"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var stageCmd = &cobra.Command{
	Use:   "stage <job-id> <candidate-id> <status>",
	Short: "Move a linked candidate to another pipeline stage",
	Long: fmt.Sprintf(`Move a linked candidate to another pipeline stage.
Marking %s stamps the ready date on the link and on the candidate.`, store.StatusReady),
	Args: cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		runStage(args[0], args[1], args[2])
	},
}

func init() {
	rootCmd.AddCommand(stageCmd)
}

func runStage(jobID, candidateID, status string) {
	log, config := setup()
	ctx := context.Background()

	id, err := uuid.Parse(candidateID)
	if err != nil {
		log.Fatal("parsing candidate id", zap.Error(err))
	}

	stage := store.PipelineStatus(status)
	if stage == "" || !stage.Valid() {
		log.Fatal("unknown pipeline status", zap.String("status", status))
	}

	candidates, closeStore, err := newStore(ctx, config.Store, log)
	if err != nil {
		log.Fatal("opening candidate store", zap.Error(err))
	}
	defer closeStore()

	if err := candidates.SetPipelineStatus(ctx, jobID, id, stage); err != nil {
		log.Fatal("changing pipeline status", zap.Error(err))
	}

	log.Info("pipeline status changed",
		zap.String("job_id", jobID),
		zap.String("candidate_id", id.String()),
		zap.String("status", status),
	)
}
