package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spigell/talentpool/internal/ai"
	"github.com/spigell/talentpool/internal/store"

	"github.com/spf13/cobra"
)

// addJobFlags registers the flags describing the job a run evaluates against.
func addJobFlags(cmd *cobra.Command) {
	cmd.Flags().String("job-id", "", "id of the job candidates are linked to")
	cmd.Flags().String("job-description-file", "", "file with the job description used for scoring")
	cmd.Flags().String("role-title", "", "job title, variants separated by '/' (e.g. \"Engenheiro de Dados / Data Engineer\")")
}

func addScopeFlags(cmd *cobra.Command) {
	cmd.Flags().String("owner", "", "owner of the candidates")
	cmd.Flags().Bool("shared", false, "use the shared pool instead of the owner's one")
	cmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
}

// jobFromFlags returns nil when neither a job id nor a description is given.
func jobFromFlags(cmd *cobra.Command, weights map[string]int) (*ai.Job, error) {
	id, _ := cmd.Flags().GetString("job-id")
	descriptionFile, _ := cmd.Flags().GetString("job-description-file")
	roleTitle, _ := cmd.Flags().GetString("role-title")

	var description string
	if descriptionFile != "" {
		data, err := os.ReadFile(descriptionFile)
		if err != nil {
			return nil, fmt.Errorf("reading job description: %w", err)
		}
		description = strings.TrimSpace(string(data))
	}

	if id == "" && description == "" {
		return nil, nil
	}

	if len(weights) == 0 {
		weights = ai.DefaultWeights()
	}

	return &ai.Job{
		ID:          strings.TrimSpace(id),
		Description: description,
		Weights:     weights,
		RoleTitles:  ai.SplitRoleTitle(roleTitle),
	}, nil
}

func scopeFromFlags(cmd *cobra.Command) (store.Scope, error) {
	owner, _ := cmd.Flags().GetString("owner")
	shared, _ := cmd.Flags().GetBool("shared")

	scope := store.Scope{OwnerID: strings.TrimSpace(owner), Shared: shared}
	if !scope.Shared && scope.OwnerID == "" {
		return scope, fmt.Errorf("either --owner or --shared is required")
	}
	return scope, nil
}
