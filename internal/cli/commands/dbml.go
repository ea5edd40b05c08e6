package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/dictgen/internal/dbml"
	"github.com/conduit-lang/dictgen/internal/graph"
)

type dbmlOptions struct {
	schema  string
	output  string
	qualify bool
	exclude string
	force   bool
}

// NewDBMLCommand creates the dbml command
func NewDBMLCommand(g *GlobalOptions) *cobra.Command {
	opts := &dbmlOptions{}

	cmd := &cobra.Command{
		Use:   "dbml",
		Short: "Render a schema and its cross-schema references as DBML",
		Long: `Render every table of a schema as a DBML document.

Tables of other configured owners referenced by a foreign key of the schema are
included as well, so the diagram shows where the schema reaches out. Foreign
keys to owners without a connection are left out.

The --exclude expression is evaluated against each table with the fields
Owner, Name and Columns; tables for which it is true are dropped.`,
		Example: `  # Diagram of the HR schema on stdout
  dictgen dbml --schema HR

  # Unqualified names, skipping journal tables, into a file
  dictgen dbml --schema HR --qualify=false --exclude 'Name endsWith "_JN"' -o hr.dbml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBML(cmd, g, opts)
		},
	}

	cmd.Flags().StringVar(&opts.schema, "schema", "", "Owner whose tables seed the diagram (default dbml.schema)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write to file instead of stdout (default dbml.output)")
	cmd.Flags().BoolVar(&opts.qualify, "qualify", true, "Prefix table names with their owner (default dbml.qualify_owner)")
	cmd.Flags().StringVar(&opts.exclude, "exclude", "", "Expression selecting tables to leave out (default dbml.exclude)")
	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "Overwrite the output file without asking")
	cmd.RegisterFlagCompletionFunc("schema", completeOwners(g))

	return cmd
}

func runDBML(cmd *cobra.Command, g *GlobalOptions, opts *dbmlOptions) error {
	ctx := cmd.Context()

	s, err := openSession(ctx, cmd, g)
	if err != nil {
		return err
	}
	defer s.Close()

	dc := s.cfg.DBML
	schema := firstNonEmpty(opts.schema, dc.Schema)
	if schema == "" {
		return &configError{err: fmt.Errorf("dbml.schema is required (or pass --schema)")}
	}
	if _, err := s.connector(schema); err != nil {
		return err
	}

	qualify := dc.QualifyOwner
	if cmd.Flags().Changed("qualify") {
		qualify = opts.qualify
	}

	exclude := dc.Exclude
	if cmd.Flags().Changed("exclude") {
		exclude = opts.exclude
	}

	filter, err := graph.CompileFilter(exclude)
	if err != nil {
		return err
	}

	tables, err := graph.NewResolver(s.registry, graph.WithLogger(s.logger)).Resolve(ctx, schema)
	if err != nil {
		return err
	}
	tables, err = filter.Exclude(tables)
	if err != nil {
		return err
	}

	doc, err := dbml.NewRenderer(s.registry,
		dbml.WithQualifyOwner(qualify),
		dbml.WithLogger(s.logger),
	).Render(ctx, tables)
	if err != nil {
		return err
	}

	s.logger.Info("rendered diagram", zap.String("schema", schema), zap.Int("tables", len(tables)))
	return writeOutput(cmd, firstNonEmpty(opts.output, dc.Output), doc, opts.force, g.NoColor)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
