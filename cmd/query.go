package cmd

import (
	"strings"

	"github.com/spigell/talentscore/internal/profile"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Print the score breakdown of a stored resume against a stored job",
	Run: func(cmd *cobra.Command, _ []string) {
		resumeID, _ := cmd.Flags().GetString("resume")
		jobID, _ := cmd.Flags().GetString("job")

		a := setup(cmd.Context())
		defer a.Close()

		breakdown, err := a.service.Match(cmd.Context(), resumeID, jobID)
		if err != nil {
			a.logger.Fatal("matching", zap.Error(err))
		}
		if err := printResult(cmd.OutOrStdout(), breakdown); err != nil {
			a.logger.Fatal("printing results", zap.Error(err))
		}
	},
}

var searchCmd = &cobra.Command{
	Use:       "search <jobs|candidates>",
	Short:     "Find semantically similar jobs for a resume or candidates for a job",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"jobs", "candidates"},
	Run: func(cmd *cobra.Command, args []string) {
		search(cmd, args[0])
	},
}

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Rank stored jobs for a stored resume by shared attributes",
	Run: func(cmd *cobra.Command, _ []string) {
		resumeID, _ := cmd.Flags().GetString("resume")
		top, _ := cmd.Flags().GetInt("top")

		a := setup(cmd.Context())
		defer a.Close()

		ranked, err := a.service.Recommend(cmd.Context(), resumeID, top)
		if err != nil {
			a.logger.Fatal("recommending jobs", zap.Error(err))
		}
		if err := printResult(cmd.OutOrStdout(), ranked); err != nil {
			a.logger.Fatal("printing results", zap.Error(err))
		}
	},
}

var similarCmd = &cobra.Command{
	Use:   "similar",
	Short: "Rank stored jobs by attributes shared with a stored job",
	Run: func(cmd *cobra.Command, _ []string) {
		jobID, _ := cmd.Flags().GetString("job")
		top, _ := cmd.Flags().GetInt("top")

		a := setup(cmd.Context())
		defer a.Close()

		ranked, err := a.service.Similar(cmd.Context(), jobID, top)
		if err != nil {
			a.logger.Fatal("finding similar jobs", zap.Error(err))
		}
		if err := printResult(cmd.OutOrStdout(), ranked); err != nil {
			a.logger.Fatal("printing results", zap.Error(err))
		}
	},
}

var trendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "List stored trending jobs, featured first",
	Run: func(cmd *cobra.Command, _ []string) {
		top, _ := cmd.Flags().GetInt("top")

		a := setup(cmd.Context())
		defer a.Close()

		jobs, err := a.service.Trending(cmd.Context(), top)
		if err != nil {
			a.logger.Fatal("listing trending jobs", zap.Error(err))
		}
		if err := printResult(cmd.OutOrStdout(), jobs); err != nil {
			a.logger.Fatal("printing results", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(matchCmd, searchCmd, recommendCmd, similarCmd, trendingCmd)

	matchCmd.Flags().String("resume", "", "stored resume id")
	matchCmd.Flags().String("job", "", "stored job id")
	_ = matchCmd.MarkFlagRequired("resume")
	_ = matchCmd.MarkFlagRequired("job")

	searchCmd.Flags().String("resume", "", "stored resume id to search jobs for")
	searchCmd.Flags().String("job", "", "stored job id to search candidates for")
	searchCmd.Flags().String("text", "", "free text query instead of a stored record")
	searchCmd.Flags().IntP("top", "n", 10, "number of results")

	recommendCmd.Flags().String("resume", "", "stored resume id")
	recommendCmd.Flags().IntP("top", "n", 10, "number of results, 0 for all")
	_ = recommendCmd.MarkFlagRequired("resume")

	similarCmd.Flags().String("job", "", "stored job id")
	similarCmd.Flags().IntP("top", "n", 10, "number of results, 0 for all")
	_ = similarCmd.MarkFlagRequired("job")

	trendingCmd.Flags().IntP("top", "n", 10, "number of results, 0 for all")
}

func search(cmd *cobra.Command, target string) {
	ctx := cmd.Context()
	resumeID, _ := cmd.Flags().GetString("resume")
	jobID, _ := cmd.Flags().GetString("job")
	text, _ := cmd.Flags().GetString("text")
	top, _ := cmd.Flags().GetInt("top")

	a := setup(ctx)
	defer a.Close()
	a.requireEmbeddings()
	a.warmIndex(ctx)

	kind, err := profile.ParseKind(target)
	if err != nil {
		a.logger.Fatal("parsing search target", zap.Error(err))
	}

	var (
		hits any
		serr error
	)
	switch {
	case strings.TrimSpace(text) != "":
		hits = a.service.SearchText(ctx, text, kind, top)
	case kind == profile.KindJob && resumeID != "":
		hits, serr = a.service.SearchJobs(ctx, resumeID, top)
	case kind == profile.KindResume && jobID != "":
		hits, serr = a.service.SearchCandidates(ctx, jobID, top)
	default:
		a.logger.Fatal("nothing to search for",
			zap.String("hint", "use --resume with jobs, --job with candidates, or --text"),
		)
	}
	if serr != nil {
		a.logger.Fatal("searching", zap.Error(serr))
	}

	if err := printResult(cmd.OutOrStdout(), hits); err != nil {
		a.logger.Fatal("printing results", zap.Error(err))
	}
}
