package cli

import (
	"github.com/spf13/cobra"
)

func (c *Cli) deleteCommand() *cobra.Command {
	var undo bool

	cmd := &cobra.Command{
		Use:   "delete VIEW ID...",
		Short: "Mark rows for delete in the local snapshot",
		Long: `Mark rows for delete. Rows are removed on the server by 'save'.
New rows that were never saved are dropped immediately.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rs, err := c.loadView(ctx, args[0])
			if err != nil {
				return err
			}

			for _, arg := range args[1:] {
				row, err := findRow(rs, arg)
				if err != nil {
					return err
				}

				switch {
				case undo:
					row.UnmarkForDelete()
					c.io.Printf("Row %d restored\n", row.ID())
				case row.IsNew():
					rs.RemoveRow(row)
					c.io.Printf("New row %d dropped\n", row.ID())
				default:
					row.MarkForDelete()
					c.io.Printf("Row %d marked for delete\n", row.ID())
				}
			}

			return c.session.Store(ctx, rs)
		},
	}

	cmd.Flags().BoolVar(&undo, "undo", false, "Remove delete mark instead")
	return cmd
}
