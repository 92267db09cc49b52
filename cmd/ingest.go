package cmd

import (
	"fmt"

	"github.com/spigell/talentscore/internal/service"
	"github.com/spigell/talentscore/internal/source"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest resumes or job postings",
}

var ingestResumeCmd = &cobra.Command{
	Use:   "resume <file|url>...",
	Short: "Extract, score, moderate, store and index resumes",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ingestResumes(cmd, args)
	},
}

var ingestJobCmd = &cobra.Command{
	Use:   "job <file>...",
	Short: "Moderate, score, store and index job postings from YAML or JSON files",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ingestJobs(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.AddCommand(ingestResumeCmd, ingestJobCmd)

	ingestResumeCmd.Flags().String("id", "", "profile id, only with a single document (default is a generated uuid)")
}

func ingestResumes(cmd *cobra.Command, refs []string) {
	ctx := cmd.Context()

	id, _ := cmd.Flags().GetString("id")
	a := setup(ctx)
	defer a.Close()
	a.requireEmbeddings()

	if id != "" && len(refs) > 1 {
		a.logger.Fatal("--id can only be used with a single document", zap.Int("documents", len(refs)))
	}

	results := make([]service.ResumeResult, 0, len(refs))
	failed := 0
	for _, ref := range refs {
		res, err := a.service.IngestResumeRef(ctx, ref, id)
		if err != nil {
			failed++
			a.logger.Error("ingesting resume", zap.String("document", ref), zap.Error(err))
			continue
		}
		results = append(results, res)
	}

	if err := printResult(cmd.OutOrStdout(), results); err != nil {
		a.logger.Fatal("printing results", zap.Error(err))
	}
	if failed > 0 {
		a.logger.Fatal("some resumes were not ingested", zap.Int("failed", failed), zap.Int("ingested", len(results)))
	}
}

type jobOutcome struct {
	service.JobResult `yaml:",inline"`
	Error             string `json:"error,omitempty" yaml:"error,omitempty"`
}

func ingestJobs(cmd *cobra.Command, files []string) {
	ctx := cmd.Context()

	a := setup(ctx)
	defer a.Close()
	a.requireEmbeddings()

	var outcomes []jobOutcome
	failed := 0
	for _, file := range files {
		jobs, err := source.LoadJobs(file)
		if err != nil {
			a.logger.Fatal("loading jobs", zap.String("file", file), zap.Error(err))
		}

		a.logger.Info("ingesting jobs", zap.String("file", file), zap.Int("count", len(jobs)))
		for _, res := range a.service.IngestJobs(ctx, jobs) {
			o := jobOutcome{JobResult: res}
			if res.Err != nil {
				failed++
				o.Error = res.Err.Error()
			}
			outcomes = append(outcomes, o)
		}
	}

	if err := printResult(cmd.OutOrStdout(), outcomes); err != nil {
		a.logger.Fatal("printing results", zap.Error(err))
	}
	if failed > 0 {
		a.logger.Warn("some jobs were not ingested", zap.Int("failed", failed), zap.String("hint", fmt.Sprintf("see the error field of %d results", failed)))
	}
}
