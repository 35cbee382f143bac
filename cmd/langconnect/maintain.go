package main

import (
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logutil"

	"github.com/var1ableX/langconnect-client/internal/job"
	"github.com/var1ableX/langconnect-client/internal/repo"
	"github.com/var1ableX/langconnect-client/internal/schedule"
)

func newMaintainCmd(opts *rootOptions) *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "maintain",
		Short: "run maintenance jobs on their cron schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			conn, err := openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer conn.Close()

			scheduler := schedule.NewCronScheduler()
			cleanup := job.NewEmbeddingCacheCleanupJob(repo.NewEmbeddingCacheRepo(conn), cfg.EmbeddingCache.MaxAgeDays)
			if err := scheduler.AddJob(cleanup, cfg.EmbeddingCache.CleanupSpec); err != nil {
				return err
			}
			if once {
				return scheduler.RunOnce(cmd.Context(), cleanup.Name())
			}
			scheduler.Start(cmd.Context())
			logutil.GetLogger(cmd.Context()).Info("maintenance scheduler running")
			<-cmd.Context().Done()
			scheduler.Stop()
			logutil.GetLogger(cmd.Context()).Info("maintenance scheduler stopped")
			return nil
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "run every job once and exit")
	return cmd
}
