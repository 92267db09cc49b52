package cmd

import (
	"github.com/spigell/talentscore/internal/report"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export score breakdowns of a stored resume against all stored jobs to xlsx",
	Run: func(cmd *cobra.Command, _ []string) {
		resumeID, _ := cmd.Flags().GetString("resume")
		out, _ := cmd.Flags().GetString("out")

		a := setup(cmd.Context())
		defer a.Close()

		matches, err := a.service.MatchAll(cmd.Context(), resumeID)
		if err != nil {
			a.logger.Fatal("scoring jobs", zap.Error(err))
		}

		rows := make([]report.Row, 0, len(matches))
		for _, m := range matches {
			rows = append(rows, report.Row{JobID: m.Job.ID, Title: m.Job.Title, Company: m.Job.Company, Breakdown: m.Breakdown})
		}

		if err := report.WriteFile(out, rows); err != nil {
			a.logger.Fatal("writing report", zap.Error(err))
		}
		a.logger.Info("report written", zap.String("filename", out), zap.Int("rows", len(rows)))
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().String("resume", "", "stored resume id")
	reportCmd.Flags().String("out", "report.xlsx", "output xlsx file")
	_ = reportCmd.MarkFlagRequired("resume")
}
