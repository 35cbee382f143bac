package main

import (
	"github.com/spf13/cobra"

	"github.com/var1ableX/langconnect-client/internal/model"
)

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var (
		limit      int
		searchType string
		filter     string
	)
	cmd := &cobra.Command{
		Use:   "search <collection-id> <query>",
		Short: "semantic, keyword or hybrid search over one collection",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			f, err := parseJSONObject("filter", filter)
			if err != nil {
				return err
			}
			results, err := a.search.Search(cmd.Context(), opts.ownerID, args[0], model.SearchRequest{
				Query:  args[1],
				Limit:  limit,
				Type:   model.SearchType(searchType),
				Filter: f,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd, results)
		}),
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum results (default from config)")
	cmd.Flags().StringVar(&searchType, "type", string(model.SearchTypeSemantic), "semantic, keyword or hybrid")
	cmd.Flags().StringVar(&filter, "filter", "", "exact-match metadata filter as a JSON object")
	return cmd
}
