package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iudanet/rowsync/internal/client/api"
	"github.com/iudanet/rowsync/internal/rows"
)

func (c *Cli) statusCommand() *cobra.Command {
	var diff bool

	cmd := &cobra.Command{
		Use:   "status [VIEW]",
		Short: "Show unsaved changes of local snapshots",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			views := args
			if len(views) == 0 {
				names, err := c.store.ListSnapshots(ctx)
				if err != nil {
					return fmt.Errorf("failed to list snapshots: %w", err)
				}
				if len(names) == 0 {
					c.io.Println("No views loaded.")
					return nil
				}
				views = names
			}

			for _, view := range views {
				rs, err := c.loadView(ctx, view)
				if err != nil {
					return err
				}

				inserted, updated, deleted := changeCounts(rs)
				if inserted+updated+deleted == 0 {
					c.io.Printf("%s: %d row(s), no changes\n", rs.ViewName(), rs.NumberOfRows())
					continue
				}
				c.io.Printf("%s: %d row(s), unsaved: %d inserted, %d updated, %d deleted\n",
					rs.ViewName(), rs.NumberOfRows(), inserted, updated, deleted)
				if diff {
					c.printDiff(rs)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&diff, "diff", false, "Show original and new values of changed cells")
	return cmd
}

// printDiff выводит несохраненные изменения построчно
func (c *Cli) printDiff(rs *rows.RowSet) {
	changes := rs.GetChanges()
	if changes == nil {
		return
	}

	columns := changes.Columns()
	for _, row := range changes.Rows() {
		var parts []string
		switch row.State() {
		case rows.StateMarkedForInsert:
			for i, col := range columns {
				if !row.IsNull(i) {
					parts = append(parts, col.ID+"="+cellText(row, i))
				}
			}
		case rows.StateDirty:
			for _, idx := range row.DirtyIndexes() {
				parts = append(parts, fmt.Sprintf("%s: %s -> %s",
					columns[idx].ID, valueText(row.ShadowValue(idx)), cellText(row, idx)))
			}
		}

		line := fmt.Sprintf("  %s %d", stateMarker(row), row.ID())
		if len(parts) > 0 {
			line += " " + strings.Join(parts, ", ")
		}
		c.io.Println(line)
	}
}

func (c *Cli) saveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "save VIEW",
		Short: "Send unsaved changes to the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rs, err := c.loadView(ctx, args[0])
			if err != nil {
				return err
			}

			result, err := c.session.Save(ctx, rs)
			var conflict *api.ConflictError
			if errors.As(err, &conflict) {
				return fmt.Errorf("rows %s were changed by another user; run 'rowsync rollback %s' and query again",
					rows.BuildIDList(conflict.RowIDs...), rs.ViewName())
			}
			if err != nil {
				return err
			}

			if result.Empty() {
				c.io.Println("Nothing to save.")
				return nil
			}

			c.io.Printf("Saved: %d inserted, %d updated, %d deleted\n",
				result.Inserted, result.Updated, result.Deleted)
			if len(result.Unconfirmed) > 0 {
				c.io.Printf("Warning: server did not confirm new rows %v, they are kept as unsaved\n", result.Unconfirmed)
			}
			return nil
		},
	}
}

func (c *Cli) rollbackCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "rollback VIEW",
		Short: "Discard unsaved changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rs, err := c.loadView(ctx, args[0])
			if err != nil {
				return err
			}

			inserted, updated, deleted := changeCounts(rs)
			total := inserted + updated + deleted
			if total == 0 {
				c.io.Println("Nothing to roll back.")
				return nil
			}

			if !yes {
				answer, err := c.io.ReadInput(fmt.Sprintf("Discard %d change(s) in %s? [y/N]: ", total, rs.ViewName()))
				if err != nil {
					return fmt.Errorf("failed to read answer: %w", err)
				}
				if a := strings.ToLower(answer); a != "y" && a != "yes" {
					c.io.Println("Canceled.")
					return nil
				}
			}

			if err := c.session.Cancel(ctx, rs); err != nil {
				return err
			}
			c.io.Printf("Discarded %d change(s)\n", total)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}
