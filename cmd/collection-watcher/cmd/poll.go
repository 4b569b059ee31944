package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/collection-watcher/internal/fileio"
)

func pollCmd() *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Run a single detection cycle",
		Long: "Fetches the newest collection once, alerts if it is new and\n" +
			"records it. With --remote the cycle runs on the API server.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if remote {
				return runRemotePoll(cmd)
			}
			return runLocalPoll(cmd)
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "trigger the cycle on the API server")
	return cmd
}

func runLocalPoll(cmd *cobra.Command) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	files := fileio.NewOS()
	w, store, err := newWatcher(cmd.Context(), cfg, log, files, newMarketplaceClient(&cfg.Marketplace))
	if err != nil {
		return err
	}
	defer store.Close()

	res, err := w.Poll(cmd.Context())
	if res == nil {
		return fmt.Errorf("poll: %w", err)
	}

	var perr error
	if jsonOutput() {
		perr = outputJSON(res)
	} else {
		perr = printPollResult(os.Stdout, res)
	}
	return errors.Join(wrapPollErr(err), perr)
}

func wrapPollErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("poll: %w", err)
}

func runRemotePoll(cmd *cobra.Command) error {
	res, err := newClient().TriggerPoll(cmd.Context())
	if err != nil {
		return err
	}
	if jsonOutput() {
		return outputJSON(res)
	}

	tw := newTabWriter(os.Stdout)
	tw.writef("Cycle:\t%s\n", res.CycleID)
	tw.writef("Outcome:\t%s\n", res.Outcome)
	if res.Latest != nil {
		tw.writef("Latest:\t%d %s (%s)\n", res.Latest.ID, res.Latest.Name, res.Latest.Slug)
	}
	tw.writef("Previous ID:\t%d\n", res.PreviousID)
	tw.writef("Notified:\t%v\n", res.Notified)
	if res.NotifyError != "" {
		tw.writef("Notify error:\t%s\n", res.NotifyError)
	}
	tw.writef("Persisted:\t%v\n", res.Persisted)
	return tw.finish()
}
