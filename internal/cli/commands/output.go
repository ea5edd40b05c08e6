package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/dictgen/internal/cli/ui"
)

// errOverwriteDeclined is returned when an existing output file is kept
var errOverwriteDeclined = errors.New("output file exists and was not overwritten")

// confirmOverwrite asks before replacing an existing file
var confirmOverwrite = func(path string) (bool, error) {
	overwrite := false
	prompt := &survey.Confirm{
		Message: fmt.Sprintf("%s already exists. Overwrite?", path),
		Default: false,
	}
	if err := survey.AskOne(prompt, &overwrite); err != nil {
		return false, err
	}
	return overwrite, nil
}

// writeOutput writes content to path, or to the command's stdout when path
// is empty. An existing file is replaced only with force or confirmation.
func writeOutput(cmd *cobra.Command, path, content string, force, noColor bool) error {
	if path == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), content)
		return err
	}

	if _, err := os.Stat(path); err == nil && !force {
		ok, err := confirmOverwrite(path)
		if err != nil {
			return fmt.Errorf("%w: %s (use --force to replace it): %v", errOverwriteDeclined, path, err)
		}
		if !ok {
			return fmt.Errorf("%w: %s", errOverwriteDeclined, path)
		}
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	ui.WriteSuccess(cmd.ErrOrStderr(), fmt.Sprintf("Wrote %s", path), noColor)
	return nil
}
