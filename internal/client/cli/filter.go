package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iudanet/rowsync/internal/client/storage"
	"github.com/iudanet/rowsync/internal/filter"
	"github.com/iudanet/rowsync/internal/validation"
)

func (c *Cli) parseCommand() *cobra.Command {
	var (
		lenient     bool
		tree        bool
		idName      string
		versionName string
	)

	cmd := &cobra.Command{
		Use:   "parse VIEW EXPRESSION...",
		Short: "Check a filter expression and print its canonical form",
		Long: `Check a filter expression and print its canonical form. Row id and version
are always printed as ID and Version, whatever names the expression uses.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			columns, err := c.session.Columns(cmd.Context(), args[0], false)
			if err != nil {
				return err
			}

			input := strings.Join(args[1:], " ")

			var f filter.Filter
			if lenient {
				f = filter.ParseCondition(input, columns, idName, versionName)
			} else {
				p := filter.NewParser(columns, nil, filter.WithIDName(idName), filter.WithVersionName(versionName))
				if f, err = p.ParseStrict(input); err != nil {
					return fmt.Errorf("invalid filter: %w", err)
				}
			}

			switch {
			case f == nil:
				c.io.Println("(no condition)")
			case tree:
				var b strings.Builder
				writeFilterTree(&b, f, 0)
				_, _ = c.io.Write([]byte(b.String()))
			default:
				c.io.Println(f.String())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&lenient, "lenient", false, "Parse like queries do: ignore unrecognized conditions")
	cmd.Flags().BoolVar(&tree, "tree", false, "Print the condition tree instead of the canonical form")
	cmd.Flags().StringVar(&idName, "id-name", filter.DefaultIDName, "Name of the row id in the expression")
	cmd.Flags().StringVar(&versionName, "version-name", filter.DefaultVersionName, "Name of the row version in the expression")
	return cmd
}

// writeFilterTree выводит дерево условий с отступом по уровням
func writeFilterTree(b *strings.Builder, f filter.Filter, depth int) {
	indent := strings.Repeat("  ", depth)

	switch n := f.(type) {
	case filter.CompoundFilter:
		fmt.Fprintf(b, "%s%s\n", indent, n.Type())
		for _, child := range n.Children() {
			writeFilterTree(b, child, depth+1)
		}
	case filter.ColumnValueFilter:
		fmt.Fprintf(b, "%s%s %s %q\n", indent, n.Column, n.Operator.Name(), n.Value)
	case filter.ColumnColumnFilter:
		fmt.Fprintf(b, "%s%s %s column %s\n", indent, n.Column, n.Operator.Name(), n.Other)
	case filter.ColumnIsNullFilter:
		fmt.Fprintf(b, "%s%s IS NULL\n", indent, n.Column)
	case filter.IDFilter:
		fmt.Fprintf(b, "%s%s %s %d\n", indent, filter.DefaultIDName, n.Operator.Name(), n.Value)
	case filter.VersionFilter:
		fmt.Fprintf(b, "%s%s %s %d\n", indent, filter.DefaultVersionName, n.Operator.Name(), n.Value)
	default:
		fmt.Fprintf(b, "%s%s\n", indent, f.String())
	}
}

func (c *Cli) filterCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Manage saved filters",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "save VIEW NAME EXPRESSION...",
			Short: "Save a named filter",
			Args:  cobra.MinimumNArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				if err := validation.ValidateFilterName(args[1]); err != nil {
					return err
				}
				expression, err := c.checkExpression(cmd, args[0], strings.Join(args[2:], " "))
				if err != nil {
					return err
				}

				if err := c.store.SaveFilter(ctx, &storage.SavedFilter{
					View:       args[0],
					Name:       args[1],
					Expression: expression,
				}); err != nil {
					return fmt.Errorf("failed to save filter: %w", err)
				}
				c.io.Printf("Filter %s saved: %s\n", args[1], expression)
				return nil
			},
		},
		&cobra.Command{
			Use:   "list VIEW",
			Short: "List saved filters of a view",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()

				base, err := c.store.GetBaseFilter(ctx, args[0])
				if err != nil {
					return fmt.Errorf("failed to get base filter: %w", err)
				}
				if base != "" {
					c.io.Printf("(base)  %s\n", base)
				}

				filters, err := c.store.ListFilters(ctx, args[0])
				if err != nil {
					return fmt.Errorf("failed to list filters: %w", err)
				}
				if len(filters) == 0 && base == "" {
					c.io.Println("No filters saved.")
					return nil
				}
				for _, f := range filters {
					c.io.Printf("%s  %s\n", f.Name, f.Expression)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete VIEW NAME",
			Short: "Delete a saved filter",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := c.store.DeleteFilter(cmd.Context(), args[0], args[1]); err != nil {
					return fmt.Errorf("failed to delete filter %s: %w", args[1], err)
				}
				c.io.Printf("Filter %s deleted\n", args[1])
				return nil
			},
		},
		c.baseFilterCommand(),
	)

	return cmd
}

func (c *Cli) baseFilterCommand() *cobra.Command {
	var clearBase bool

	cmd := &cobra.Command{
		Use:   "base VIEW [EXPRESSION...]",
		Short: "Show or set the filter applied to every query of a view",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			view := args[0]

			if clearBase {
				if err := c.store.SetBaseFilter(ctx, view, ""); err != nil {
					return fmt.Errorf("failed to clear base filter: %w", err)
				}
				c.io.Println("Base filter cleared")
				return nil
			}

			if len(args) == 1 {
				base, err := c.store.GetBaseFilter(ctx, view)
				if err != nil {
					return fmt.Errorf("failed to get base filter: %w", err)
				}
				if base == "" {
					c.io.Println("(no base filter)")
				} else {
					c.io.Println(base)
				}
				return nil
			}

			expression, err := c.checkExpression(cmd, view, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			if err := c.store.SetBaseFilter(ctx, view, expression); err != nil {
				return fmt.Errorf("failed to set base filter: %w", err)
			}
			c.io.Printf("Base filter set: %s\n", expression)
			return nil
		},
	}

	cmd.Flags().BoolVar(&clearBase, "clear", false, "Remove the base filter")
	return cmd
}

// checkExpression проверяет выражение по колонкам view и возвращает его каноническую форму
func (c *Cli) checkExpression(cmd *cobra.Command, view, expression string) (string, error) {
	columns, err := c.session.Columns(cmd.Context(), view, false)
	if err != nil {
		return "", err
	}

	f, err := filter.NewParser(columns, nil).ParseStrict(expression)
	if err != nil {
		return "", fmt.Errorf("invalid filter: %w", err)
	}
	if f == nil {
		return "", fmt.Errorf("invalid filter: empty expression")
	}
	return f.String(), nil
}
