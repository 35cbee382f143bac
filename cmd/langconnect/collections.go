package main

import (
	"github.com/spf13/cobra"
)

func newCollectionsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collections",
		Aliases: []string{"collection"},
		Short:   "manage collections",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "list collections with document and chunk counts",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			items, err := a.collections.List(cmd.Context(), opts.ownerID)
			if err != nil {
				return err
			}
			return writeJSON(cmd, items)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <collection-id>",
		Short: "show one collection",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			c, err := a.collections.Get(cmd.Context(), opts.ownerID, args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd, c.Collection)
		}),
	})

	var createMeta string
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "create a collection",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			meta, err := parseJSONObject("metadata", createMeta)
			if err != nil {
				return err
			}
			c, err := a.collections.Create(cmd.Context(), opts.ownerID, args[0], meta)
			if err != nil {
				return err
			}
			return writeJSON(cmd, c.Collection)
		}),
	}
	create.Flags().StringVar(&createMeta, "metadata", "", "collection metadata as a JSON object")
	cmd.AddCommand(create)

	var (
		updateName string
		updateMeta string
	)
	update := &cobra.Command{
		Use:   "update <collection-id>",
		Short: "rename a collection or replace its metadata",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			var name *string
			if cmd.Flags().Changed("name") {
				name = &updateName
			}
			var meta map[string]interface{}
			if cmd.Flags().Changed("metadata") {
				var err error
				if meta, err = parseJSONObject("metadata", updateMeta); err != nil {
					return err
				}
				if meta == nil {
					meta = map[string]interface{}{}
				}
			}
			c, err := a.collections.Update(cmd.Context(), opts.ownerID, args[0], name, meta)
			if err != nil {
				return err
			}
			return writeJSON(cmd, c.Collection)
		}),
	}
	update.Flags().StringVar(&updateName, "name", "", "new collection name")
	update.Flags().StringVar(&updateMeta, "metadata", "", "replacement metadata as a JSON object")
	cmd.AddCommand(update)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <collection-id>",
		Short: "delete a collection and all of its documents",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			n, err := a.collections.Delete(cmd.Context(), opts.ownerID, args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd, map[string]int64{"deleted": n})
		}),
	})
	return cmd
}

// withApp builds the app for a command that needs --user and tears it down
// afterwards.
func withApp(opts *rootOptions, fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := requireUser(opts); err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), opts)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, a, args)
	}
}
