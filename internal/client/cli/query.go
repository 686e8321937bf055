package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iudanet/rowsync/internal/client/session"
	"github.com/iudanet/rowsync/internal/filter"
	"github.com/iudanet/rowsync/internal/rows"
)

func (c *Cli) queryCommand() *cobra.Command {
	var (
		opts  session.OpenOptions
		saved string
		ids   string
	)

	cmd := &cobra.Command{
		Use:   "query VIEW [SEARCH...]",
		Short: "Load rows of a view from the server into the local snapshot",
		Long: `Load rows of a view from the server. The view base filter (see 'filter base')
is combined with the search expression using AND. Unrecognized conditions are
ignored with a warning.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			view := args[0]

			opts.Search = strings.Join(args[1:], " ")
			if saved != "" {
				if opts.Search != "" {
					return fmt.Errorf("use either --saved or a search expression")
				}
				f, err := c.store.GetFilter(ctx, view, saved)
				if err != nil {
					return fmt.Errorf("failed to get filter %s: %w", saved, err)
				}
				opts.Search = f.Expression
			}

			if ids != "" {
				list := rows.ParseIDList(ids)
				if len(list) == 0 {
					return fmt.Errorf("no valid row ids in %q", ids)
				}
				opts.Search = joinConditions(opts.Search, idCondition(list))
			}

			result, err := c.session.Open(ctx, view, opts)
			if errors.Is(err, session.ErrPendingChanges) {
				return fmt.Errorf("%w: save or rollback first, or use --discard", err)
			}
			if err != nil {
				return err
			}

			if result.Filter != "" {
				c.io.Printf("Filter: %s\n", result.Filter)
			}
			rs := result.RowSet
			_, _ = c.io.Write([]byte(renderTable(rs.Columns(), rs.Rows(), c.io.Width())))
			c.io.Printf("%d of %d row(s)\n", rs.NumberOfRows(), result.Total)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "Number of rows to skip")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Maximum number of rows (0 means all)")
	cmd.Flags().BoolVar(&opts.Discard, "discard", false, "Replace snapshot even if it has unsaved changes")
	cmd.Flags().StringVar(&saved, "saved", "", "Use a saved filter instead of search expression")
	cmd.Flags().StringVar(&ids, "ids", "", "Comma separated row ids to load")
	return cmd
}

// idCondition строит условие "ID = a OR ID = b ..."
func idCondition(ids []int64) string {
	conditions := make([]filter.Filter, 0, len(ids))
	for _, id := range ids {
		conditions = append(conditions, filter.CompareID(filter.OpEQ, id))
	}
	return filter.Or(conditions...).String()
}

func joinConditions(search, condition string) string {
	if strings.TrimSpace(search) == "" {
		return condition
	}
	return "(" + search + ") AND (" + condition + ")"
}

func (c *Cli) showCommand() *cobra.Command {
	var changed bool

	cmd := &cobra.Command{
		Use:   "show VIEW [WHERE...]",
		Short: "Show rows of the local snapshot",
		Long: `Show rows of the local snapshot including unsaved edits.
Rows are marked: '*' changed, '+' new, '-' marked for delete.
An optional expression filters rows locally without a server request.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rs, err := c.loadView(ctx, args[0])
			if err != nil {
				return err
			}

			data := c.session.Search(ctx, rs, strings.Join(args[1:], " "))
			if changed {
				kept := data[:0]
				for _, row := range data {
					if row.IsDirty() || row.IsNew() || row.IsMarkedForDelete() {
						kept = append(kept, row)
					}
				}
				data = kept
			}

			_, _ = c.io.Write([]byte(renderTable(rs.Columns(), data, c.io.Width())))
			c.io.Printf("%d row(s)\n", len(data))
			return nil
		},
	}

	cmd.Flags().BoolVar(&changed, "changed", false, "Show only rows with unsaved changes")
	return cmd
}
