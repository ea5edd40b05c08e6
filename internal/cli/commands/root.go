package commands

import (
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/dictgen/internal/cli/ui"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	g := &GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "dictgen",
		Short: "Data dictionary diagrams and PL/SQL table interfaces",
		Long: color.CyanString(`dictgen - data dictionary tooling

dictgen reads table, constraint and index metadata from database data
dictionaries or schema scripts and generates:
  • DBML diagrams of a schema and the tables it references elsewhere
  • PL/SQL packages with insert, update, delete and JSON routines

Connections are configured per owner in dictgen.yml.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if g.NoColor {
				color.NoColor = true
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&g.ConfigPath, "config", "", "Config file (default ./dictgen.yml)")
	rootCmd.PersistentFlags().BoolVarP(&g.Verbose, "verbose", "v", false, "Log debug output to stderr")
	rootCmd.PersistentFlags().BoolVar(&g.NoColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewDBMLCommand(g))
	rootCmd.AddCommand(NewCRUDCommand(g))
	rootCmd.AddCommand(NewTablesCommand(g))
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the dictgen version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			kv := ui.NewKeyValueTable(cmd.OutOrStdout(), color.NoColor)
			kv.AddRow("dictgen version", Version)
			kv.AddRow("Git commit", GitCommit)
			kv.AddRow("Build date", BuildDate)
			kv.AddRow("Go version", goVer)
			kv.Render()
		},
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		noColor, _ := rootCmd.PersistentFlags().GetBool("no-color")
		reportError(rootCmd.ErrOrStderr(), err, noColor || color.NoColor)
		return err
	}
	return nil
}

// reportError prints a failed command's error in the ui format
func reportError(w io.Writer, err error, noColor bool) {
	var (
		oe *ownerError
		ce *configError
	)
	switch {
	case errors.As(err, &oe):
		fmt.Fprint(w, ui.OwnerNotConfiguredError(oe.owner, oe.configured, noColor))
	case errors.As(err, &ce):
		fmt.Fprint(w, ui.ConfigError(ce.Error(), noColor))
	default:
		fmt.Fprint(w, ui.DescribeError(err, noColor))
	}
}
