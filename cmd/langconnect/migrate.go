package main

import (
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logutil"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "apply database migrations",
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
			logutil.GetLogger(cmd.Context()).Info("migrations applied")
			return nil
		},
	}
}
