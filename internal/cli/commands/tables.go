package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/dictgen/internal/catalog"
	"github.com/conduit-lang/dictgen/internal/cli/ui"
)

// NewTablesCommand creates the tables command
func NewTablesCommand(g *GlobalOptions) *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List the tables of an owner",
		Long: `List the tables of a configured owner with their column count and
primary key, to check what the dbml and crud commands will see.`,
		Example: `  dictgen tables --owner HR`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, err := openSession(ctx, cmd, g)
			if err != nil {
				return err
			}
			defer s.Close()

			if owner == "" {
				return &configError{err: fmt.Errorf("--owner is required, configured owners: %s", strings.Join(s.registry.Owners(), ", "))}
			}
			conn, err := s.connector(owner)
			if err != nil {
				return err
			}

			tables, err := conn.TablesOwnedBy(ctx, owner)
			if err != nil {
				return err
			}
			if len(tables) == 0 {
				fmt.Fprint(cmd.ErrOrStderr(), ui.Warning(fmt.Sprintf("Owner %s has no tables.", owner), g.NoColor))
				return nil
			}

			table := ui.NewTable(cmd.OutOrStdout(), []string{"TABLE", "COLUMNS", "PRIMARY KEY"}, g.NoColor)
			for _, t := range tables {
				pk := "-"
				c, err := conn.PrimaryKeyOf(ctx, t.Ref())
				switch {
				case err == nil:
					pk = fmt.Sprintf("%s (%s)", c.Name, strings.Join(c.ColumnNames(), ", "))
				case !catalog.IsNotFound(err):
					return err
				}
				table.AddRow(t.Name, strconv.Itoa(len(t.Columns)), pk)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Owner whose tables to list")
	cmd.RegisterFlagCompletionFunc("owner", completeOwners(g))

	return cmd
}
