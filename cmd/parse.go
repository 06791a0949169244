package cmd

import (
	"context"

	"github.com/spigell/talentpool/internal/ai"
	"github.com/spigell/talentpool/internal/profile"
	"github.com/spigell/talentpool/internal/resume"
	"github.com/spigell/talentpool/internal/source"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var parseCmd = &cobra.Command{
	Use:   "parse <pdf|folder>...",
	Short: "Print the profiles the heuristic parser reads from résumé PDFs",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runParse(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().String("role-title", "", "job title used for role experience, variants separated by '/'")
}

// parsedFile is one entry of the parse output.
type parsedFile struct {
	File    string                   `json:"file"`
	Profile profile.CandidateProfile `json:"profile"`
	Error   string                   `json:"error,omitempty"`
}

func runParse(cmd *cobra.Command, args []string) {
	log, _ := setup()
	ctx := context.Background()

	roleTitle, _ := cmd.Flags().GetString("role-title")
	roles := ai.SplitRoleTitle(roleTitle)
	parser := resume.NewParser(nil, nil)

	var out []parsedFile
	for _, arg := range args {
		files, err := source.ListPDFs(arg)
		if err != nil {
			log.Fatal("listing résumés", zap.Error(err))
		}

		for _, file := range files {
			entry := parsedFile{File: file}
			parsed, err := parser.ParseFile(ctx, file, roles)
			if err != nil {
				log.Warn("parsing résumé failed", zap.String("file", file), zap.Error(err))
				entry.Error = err.Error()
			} else {
				entry.Profile = parsed
			}
			out = append(out, entry)
		}
	}

	if err := printJSON(cmd.OutOrStdout(), out); err != nil {
		log.Fatal("printing profiles", zap.Error(err))
	}
}
