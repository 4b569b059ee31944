package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	apiclient "github.com/donaldgifford/collection-watcher/internal/api/client"
	"github.com/donaldgifford/collection-watcher/internal/fileio"
	"github.com/donaldgifford/collection-watcher/internal/state"
)

func stateCmd() *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "state",
		Short: "Show the last-seen collection",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if remote {
				return runRemoteState(cmd)
			}
			return runLocalState(cmd)
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "read the state from the API server")
	return cmd
}

func runLocalState(cmd *cobra.Command) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := state.New(cmd.Context(), &cfg.State, fileio.NewOS())
	if err != nil {
		return fmt.Errorf("opening state store: %w", err)
	}
	defer store.Close()

	st, err := store.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("loading state: %w", err)
	}
	if st == nil {
		fmt.Fprintln(os.Stderr, "No collection recorded yet.")
		return nil
	}

	if jsonOutput() {
		return outputJSON(st)
	}
	return printState(os.Stdout, st.ID, st.Slug, st.Name, st.DetectedAt)
}

func runRemoteState(cmd *cobra.Command) error {
	st, err := newClient().GetState(cmd.Context())
	if errors.Is(err, apiclient.ErrNotFound) {
		fmt.Fprintln(os.Stderr, "No collection recorded yet.")
		return nil
	}
	if err != nil {
		return err
	}

	if jsonOutput() {
		return outputJSON(st)
	}
	return printState(os.Stdout, st.ID, st.Slug, st.Name, st.DetectedAt)
}
