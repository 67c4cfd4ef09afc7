// Package commands implements the ledgerctl command line tool.
package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"finledger/internal/server"
)

// Backend opens the service graph a command runs against. The returned
// func releases it.
type Backend func() (*server.Services, func(), error)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand(open Backend, migrations MigratorOpener) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Operate the finledger ledger from the shell",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newProcessDueCommand(open))
	rootCmd.AddCommand(newEstimateCommand(open))
	rootCmd.AddCommand(newReconcileCommand(open))
	rootCmd.AddCommand(newMigrateCommand(migrations))

	return rootCmd
}

// withServices runs fn against a freshly opened backend.
func withServices(open Backend, fn func(*server.Services) error) error {
	svc, release, err := open()
	if err != nil {
		return err
	}
	defer release()
	return fn(svc)
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
