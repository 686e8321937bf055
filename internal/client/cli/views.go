package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *Cli) pingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the server is available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			health, err := c.server.Health(cmd.Context())
			if err != nil {
				return err
			}
			c.io.Printf("Server is %s, version %s, %d view(s)\n", health.Status, health.Version, health.Views)
			return nil
		},
	}
}

func (c *Cli) viewsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "views",
		Short: "List views available on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, err := c.server.Views(cmd.Context())
			if err != nil {
				return err
			}
			if len(names) == 0 {
				c.io.Println("No views found.")
				return nil
			}
			for _, name := range names {
				c.io.Println(name)
			}
			return nil
		},
	}
}

func (c *Cli) columnsCommand() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "columns VIEW",
		Short: "Show column definitions of a view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			columns, err := c.session.Columns(cmd.Context(), args[0], refresh)
			if err != nil {
				return err
			}

			c.io.Printf("%-20s %-24s %-10s %s\n", "ID", "LABEL", "TYPE", "FLAGS")
			for _, col := range columns {
				flags := ""
				if col.ReadOnly {
					flags += "read-only "
				}
				if col.Nullable {
					flags += "nullable"
				}
				typ := string(col.Type)
				if col.Precision > 0 {
					typ = fmt.Sprintf("%s(%d,%d)", typ, col.Precision, col.Scale)
				}
				c.io.Printf("%-20s %-24s %-10s %s\n", col.ID, col.Label, typ, flags)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Reload columns from server instead of local cache")
	return cmd
}
