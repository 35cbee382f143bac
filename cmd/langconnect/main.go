package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/var1ableX/langconnect-client/internal/pkg/errcode"
)

type rootOptions struct {
	configPath string
	ownerID    string
}

func main() {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "langconnect",
		Short:         "owner-scoped document collections with hybrid search",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config.json")
	rootCmd.PersistentFlags().StringVar(&opts.ownerID, "user", "", "owner id every call is scoped to")

	rootCmd.AddCommand(
		newMigrateCmd(opts),
		newCollectionsCmd(opts),
		newDocumentsCmd(opts),
		newSearchCmd(opts),
		newMaintainCmd(opts),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		writeError(err)
		os.Exit(1)
	}
}

func writeError(err error) {
	enc := json.NewEncoder(os.Stderr)
	enc.SetIndent("", "  ")
	_ = enc.Encode(map[string]interface{}{
		"code":    errcode.FromError(err),
		"message": err.Error(),
	})
}

func writeJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseJSONObject decodes a flag value such as --metadata. An empty value
// yields nil, meaning "not given".
func parseJSONObject(flag, value string) (map[string]interface{}, error) {
	if value == "" {
		return nil, nil
	}
	out := map[string]interface{}{}
	if err := json.Unmarshal([]byte(value), &out); err != nil {
		return nil, fmt.Errorf("--%s must be a JSON object: %w", flag, err)
	}
	return out, nil
}
