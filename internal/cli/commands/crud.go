package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/dictgen/internal/catalog"
	"github.com/conduit-lang/dictgen/internal/plsql"
)

type crudOptions struct {
	owner  string
	pkg    string
	output string
	toJSON bool
	force  bool
}

// NewCRUDCommand creates the crud command
func NewCRUDCommand(g *GlobalOptions) *cobra.Command {
	opts := &crudOptions{}

	cmd := &cobra.Command{
		Use:   "crud",
		Short: "Generate a PL/SQL table interface package",
		Long: `Generate a PL/SQL package with insert, update, delete and JSON
conversion routines for the tables listed under crud.tables.

A table with a sequence gets its key from sequence.nextval on insert;
otherwise the caller supplies the key. Audit columns are left to triggers.
Nothing is written if any table breaks an assumption of the generator, such
as having no single-column primary key.`,
		Example: `  # Package for the tables in dictgen.yml, on stdout
  dictgen crud

  # Include to_json_object and write to a file
  dictgen crud --to-json -o tco_table_interface.sql`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCRUD(cmd, g, opts)
		},
	}

	cmd.Flags().StringVar(&opts.owner, "owner", "", "Owner of the tables (default crud.owner)")
	cmd.Flags().StringVar(&opts.pkg, "package", "", "Package name (default crud.package or <owner>_table_interface)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write to file instead of stdout (default crud.output)")
	cmd.Flags().BoolVar(&opts.toJSON, "to-json", false, "Also generate to_json_object (default crud.include_to_json)")
	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "Overwrite the output file without asking")
	cmd.RegisterFlagCompletionFunc("owner", completeOwners(g))

	return cmd
}

func runCRUD(cmd *cobra.Command, g *GlobalOptions, opts *crudOptions) error {
	ctx := cmd.Context()

	s, err := openSession(ctx, cmd, g)
	if err != nil {
		return err
	}
	defer s.Close()

	cc := s.cfg.CRUD
	owner := firstNonEmpty(opts.owner, cc.Owner)
	if owner == "" {
		return &configError{err: fmt.Errorf("crud.owner is required (or pass --owner)")}
	}
	if len(cc.Tables) == 0 {
		return &configError{err: fmt.Errorf("crud.tables lists no tables")}
	}

	conn, err := s.connector(owner)
	if err != nil {
		return err
	}

	audit := plsql.NewAuditSet(cc.AuditColumns...)
	specs := make([]*plsql.TableSpec, 0, len(cc.Tables))
	for _, t := range cc.Tables {
		strategy := plsql.SuppliedKey()
		if seq := strings.TrimSpace(t.Sequence); seq != "" {
			strategy = plsql.SequenceKey(seq)
		}

		ref := catalog.TableRef{Owner: owner, Name: strings.TrimSpace(t.Name)}
		spec, err := plsql.LoadTableSpec(ctx, conn, ref, strategy, audit)
		if err != nil {
			return err
		}
		s.logger.Debug("loaded table", zap.String("table", ref.String()), zap.String("key", strategy.String()))
		specs = append(specs, spec)
	}

	includeToJSON := cc.IncludeToJSON
	if cmd.Flags().Changed("to-json") {
		includeToJSON = opts.toJSON
	}

	text, err := plsql.NewGenerator(plsql.WithLogger(s.logger)).Package(specs, plsql.PackageOptions{
		Name:          firstNonEmpty(opts.pkg, cc.Package),
		IncludeToJSON: includeToJSON,
	})
	if err != nil {
		return err
	}

	return writeOutput(cmd, firstNonEmpty(opts.output, cc.Output), text, opts.force, g.NoColor)
}
