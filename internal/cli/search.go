package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nainya/assetlib/pkg/library"
	"github.com/nainya/assetlib/pkg/query"
)

// cliQueryName names the query built from --filter flags
const cliQueryName = "cli"

type searchOptions struct {
	filters   []string
	matchAny  bool
	sortBy    []string
	groupBy   []string
	showTrash bool
	exclude   []string
}

func newSearchCmd(a *app) *cobra.Command {
	opts := &searchOptions{}

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search a library and print the grouped results",
		Example: `  assetlib search --filter type:is:mesh --filter name:startswith:chair
  assetlib search --filter '*:contains:wood' --group type:desc -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := a.searchLibrary(cmd, opts)
			if err != nil {
				return err
			}

			groups := groupsOutput(lib.GroupedResults())
			return a.render(cmd.OutOrStdout(), groups, func(w io.Writer) error {
				for _, g := range groups {
					fmt.Fprintf(w, "%s (%d)\n", g.Group, len(g.Items))
					for _, it := range g.Items {
						printItemLine(w, it)
					}
				}
				fmt.Fprintf(w, "%d items in %s\n", len(lib.Results()), lib.SearchTime())
				return nil
			})
		},
	}

	opts.bindFlags(cmd)
	return cmd
}

func (o *searchOptions) bindFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringArrayVarP(&o.filters, "filter", "f", nil, "Filter as field:condition:value (repeatable)")
	f.BoolVar(&o.matchAny, "any", false, "Match when any --filter matches instead of all")
	f.StringSliceVar(&o.sortBy, "sort", nil, "Sort spec, e.g. name:asc,type:desc")
	f.StringSliceVar(&o.groupBy, "group", nil, "Group spec, only the first field is used")
	f.BoolVar(&o.showTrash, "show-trash", false, "Include items in the trash folder")
	f.StringSliceVar(&o.exclude, "exclude-query", nil, "Configured queries to leave out")
}

// searchLibrary opens the selected library, applies the flags and searches
func (a *app) searchLibrary(cmd *cobra.Command, opts *searchOptions) (*library.Library, error) {
	lib, err := a.openLibrary()
	if err != nil {
		return nil, err
	}

	for _, name := range opts.exclude {
		lib.RemoveQuery(name)
	}
	if len(opts.filters) > 0 {
		q, err := parseFilters(opts.filters, opts.matchAny)
		if err != nil {
			return nil, err
		}
		if err := lib.AddQuery(q); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("sort") {
		lib.SetSortBy(opts.sortBy)
	}
	if cmd.Flags().Changed("group") {
		lib.SetGroupBy(opts.groupBy)
	}
	if cmd.Flags().Changed("show-trash") {
		err = lib.SetTrashVisible(opts.showTrash)
	} else {
		err = lib.Search()
	}
	if err != nil {
		return nil, err
	}
	return lib, nil
}

// parseFilters turns field:condition:value strings into one query. The
// value may itself contain colons.
func parseFilters(specs []string, matchAny bool) (query.Query, error) {
	b := query.NewQueryBuilder(cliQueryName)
	if matchAny {
		b.Any()
	}
	for _, spec := range specs {
		parts := strings.SplitN(spec, ":", 3)
		if len(parts) != 3 {
			return query.Query{}, fmt.Errorf("invalid filter %q, expected field:condition:value", spec)
		}
		b.Where(parts[0], query.Condition(parts[1]), parts[2])
	}
	return b.Build(), nil
}
