package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iudanet/rowsync/internal/rows"
)

func (c *Cli) editCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "edit VIEW ID|COLUMN=VALUE COLUMN=VALUE...",
		Short: "Change cells of a row in the local snapshot",
		Long: `Change cells of a row. Changes are kept locally until 'save'.
The row is selected by id or by a COLUMN=VALUE pair that matches exactly one row.
An empty value (COLUMN=) sets NULL. Setting a cell back to its original
value removes the change.`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rs, err := c.loadView(ctx, args[0])
			if err != nil {
				return err
			}

			row, err := findRow(rs, args[1])
			if err != nil {
				return err
			}

			target := row.Copy()
			if err := assign(rs, target, args[2:]); err != nil {
				return err
			}

			update, err := rows.GetUpdated(rs.ViewName(), rs.Columns(), row, target)
			if err != nil {
				return fmt.Errorf("failed to compare row %d: %w", row.ID(), err)
			}
			if update == nil {
				c.io.Printf("Row %d already has these values\n", row.ID())
				return nil
			}

			changed := update.Row(0)
			for i, col := range update.Columns() {
				row.PreliminaryUpdateValue(rs.ColumnIndex(col.ID), changed.Value(i))
			}

			if err := c.session.Store(ctx, rs); err != nil {
				return err
			}

			if row.IsDirty() {
				c.io.Printf("Row %d changed: %d cell(s)\n", row.ID(), len(row.DirtyIndexes()))
			} else {
				c.io.Printf("Row %d has no changes\n", row.ID())
			}
			return nil
		},
	}
}

func (c *Cli) insertCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "insert VIEW COLUMN=VALUE...",
		Short: "Add a new row to the local snapshot",
		Long: `Add a new row. Only editable columns with values are sent to the server,
so at least one of them must be set.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rs, err := c.loadView(ctx, args[0])
			if err != nil {
				return err
			}

			row := rs.AddEmptyRow()
			if err := assign(rs, row, args[1:]); err != nil {
				return err
			}

			payload := rows.CreateRowSetForInsert(rs.ViewName(), rs.Columns(), row)
			if payload == nil {
				return fmt.Errorf("nothing to insert: set at least one editable column")
			}

			if err := c.session.Store(ctx, rs); err != nil {
				return err
			}

			ids := make([]string, 0, payload.NumberOfColumns())
			for _, col := range payload.Columns() {
				ids = append(ids, col.ID)
			}
			c.io.Printf("Row added with temporary id %d: %s\n", row.ID(), strings.Join(ids, ", "))
			return nil
		},
	}
}
