package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/talentscore/internal/moderation"
	"github.com/spigell/talentscore/internal/profile"
	"github.com/spigell/talentscore/internal/source"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	PromptApprove = "Approve"
	PromptReject  = "Reject"
	PromptSkip    = "Skip"
	PromptIssues  = "Show issues"
	PromptDone    = "done"
	PromptYes     = "Yes"
	PromptNo      = "No"
)

var errReviewDone = errors.New("review finished")

var moderateCmd = &cobra.Command{
	Use:   "moderate <file>...",
	Short: "Moderate job postings from YAML or JSON files without storing them",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		moderate(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(moderateCmd)

	moderateCmd.Flags().BoolP("review", "r", false, "walk through flagged and rejected postings interactively")
	moderateCmd.Flags().Bool("ingest", false, "store and index postings that end up approved")
}

// reviewItem is one posting with the machine verdict and the final decision.
type reviewItem struct {
	Job      profile.JobPosting     `json:"job" yaml:"job"`
	Analysis profile.AnalysisResult `json:"analysis" yaml:"analysis"`
	Decision profile.Recommendation `json:"decision" yaml:"decision"`
	Error    string                 `json:"error,omitempty" yaml:"error,omitempty"`
}

func moderate(cmd *cobra.Command, files []string) {
	ctx := cmd.Context()
	review, _ := cmd.Flags().GetBool("review")
	ingest, _ := cmd.Flags().GetBool("ingest")

	a := setup(ctx)
	defer a.Close()
	if ingest {
		a.requireEmbeddings()
	}

	var jobs []profile.JobPosting
	for _, file := range files {
		loaded, err := source.LoadJobs(file)
		if err != nil {
			a.logger.Fatal("loading jobs", zap.String("file", file), zap.Error(err))
		}
		jobs = append(jobs, loaded...)
	}

	a.logger.Info("moderating jobs", zap.Int("count", len(jobs)))
	items := toReviewItems(jobs, a.service.ModerateJobs(ctx, jobs))

	if review {
		if err := reviewLoop(items); err != nil && !errors.Is(err, errReviewDone) {
			a.logger.Fatal("review", zap.Error(err))
		}
	}

	if err := printResult(cmd.OutOrStdout(), items); err != nil {
		a.logger.Fatal("printing results", zap.Error(err))
	}

	if !ingest {
		return
	}

	approved := make([]profile.JobPosting, 0, len(items))
	for _, item := range items {
		if item.Decision == profile.RecommendApprove {
			approved = append(approved, item.Job)
		}
	}
	for _, res := range a.service.IngestJobs(ctx, approved) {
		if res.Err != nil {
			a.logger.Error("ingesting approved job", zap.String("job_id", res.Job.ID), zap.Error(res.Err))
		}
	}
	a.logger.Info("stored approved jobs", zap.Int("count", len(approved)))
}

func toReviewItems(jobs []profile.JobPosting, results []moderation.JobResult) []*reviewItem {
	items := make([]*reviewItem, 0, len(results))
	for i, res := range results {
		item := &reviewItem{Job: jobs[i], Analysis: res.Result, Decision: res.Result.Recommendation}
		if res.Err != nil {
			item.Decision = profile.RecommendReject
			item.Error = res.Err.Error()
		}
		items = append(items, item)
	}
	return items
}

// reviewLoop lets a moderator override verdicts of postings that were not
// approved automatically.
func reviewLoop(items []*reviewItem) error {
	for {
		labels := make([]string, 0, len(items)+1)
		pending := make([]*reviewItem, 0, len(items))
		for _, item := range items {
			if item.Analysis.Recommendation == profile.RecommendApprove || item.Error != "" {
				continue
			}
			pending = append(pending, item)
			labels = append(labels, fmt.Sprintf("%s %s / %s / risk %d / %s -> %s",
				item.Job.ID, item.Job.Title, item.Job.Company, item.Analysis.RiskScore, item.Analysis.Recommendation, item.Decision,
			))
		}

		if len(pending) == 0 {
			return errReviewDone
		}

		jobPrompt := promptui.Select{
			Label: "Choose a posting and press ENTER",
			Items: append(labels, PromptDone),
			Size:  10,
		}

		idx, selected, err := jobPrompt.Run()
		if err != nil {
			return err
		}
		if selected == PromptDone {
			return errReviewDone
		}

		if err := reviewItemPrompt(pending[idx]); err != nil {
			return err
		}
	}
}

func reviewItemPrompt(item *reviewItem) error {
	for {
		actionPrompt := promptui.Select{
			Label: fmt.Sprintf("%s (%s)", item.Job.Title, item.Job.ID),
			Items: []string{PromptIssues, PromptApprove, PromptReject, PromptSkip},
		}

		_, action, err := actionPrompt.Run()
		if err != nil {
			return err
		}

		switch action {
		case PromptIssues:
			if len(item.Analysis.Issues) == 0 {
				fmt.Println("no issues reported")
				continue
			}
			fmt.Println(" - " + strings.Join(item.Analysis.Issues, "\n - "))
		case PromptApprove:
			if !confirm(fmt.Sprintf("Approve %s despite risk %d", item.Job.ID, item.Analysis.RiskScore)) {
				continue
			}
			item.Decision = profile.RecommendApprove
			return nil
		case PromptReject:
			item.Decision = profile.RecommendReject
			return nil
		case PromptSkip:
			return nil
		default:
			return fmt.Errorf("invalid action: %s", action)
		}
	}
}

func confirm(label string) bool {
	p := promptui.Select{Label: label, Items: []string{PromptYes, PromptNo}}
	_, answer, err := p.Run()
	return err == nil && answer == PromptYes
}
