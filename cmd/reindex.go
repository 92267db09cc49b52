package cmd

import (
	"context"
	"fmt"

	"github.com/spigell/talentscore/internal/service"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Re-embed every stored job and profile, once or on a cron schedule",
	Run: func(cmd *cobra.Command, _ []string) {
		reindex(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(reindexCmd)

	reindexCmd.Flags().String("schedule", "", `cron spec, e.g. "@every 6h" (default is a single run)`)
	viper.BindPFlag("reindex.schedule", reindexCmd.Flags().Lookup("schedule"))
}

func reindex(ctx context.Context) {
	a := setup(ctx)
	defer a.Close()
	a.requireEmbeddings()

	schedule := a.config.Reindex.Schedule
	if schedule == "" {
		if _, err := a.service.Reindex(ctx); err != nil {
			a.logger.Fatal("reindexing", zap.Error(err))
		}
		return
	}

	scheduler := newReindexScheduler(a.service, schedule, a.logger)
	if err := scheduler.Start(ctx); err != nil {
		a.logger.Fatal("starting scheduler", zap.Error(err))
	}

	<-ctx.Done()
	scheduler.Stop()
}

// reindexScheduler runs Service.Reindex on a cron schedule.
type reindexScheduler struct {
	cron    *cron.Cron
	service *service.Service
	spec    string
	logger  *zap.Logger
}

func newReindexScheduler(svc *service.Service, spec string, logger *zap.Logger) *reindexScheduler {
	return &reindexScheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		service: svc,
		spec:    spec,
		logger:  logger,
	}
}

// Start registers the job and runs it once right away.
func (s *reindexScheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.run(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logger.Info("reindex scheduler started", zap.String("schedule", s.spec))

	go s.run(ctx)
	return nil
}

// Stop waits for a running reindex to finish.
func (s *reindexScheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("reindex scheduler stopped")
}

func (s *reindexScheduler) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.service.Reindex(ctx); err != nil {
		s.logger.Error("scheduled reindex", zap.Error(err))
	}
}
