package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Inspect or reset the saved resume cursors.",
}

var progressShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the page each mode would resume from.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, log, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		stores, closeStores, err := openStores(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer closeStores()

		t := newTable(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"Mode", "Backend", "Resume Page"})
		for _, mode := range storeModes(stores) {
			page, err := stores[mode].Load(ctx)
			if err != nil {
				log.Warn("failed to read cursor", "mode", mode, "error", err)
			}
			t.AppendRow(table.Row{mode, cfg.Resume.Backend, page})
		}
		t.Render()
		return nil
	},
}

var progressResetCmd = &cobra.Command{
	Use:       "reset [paged|cities]",
	Short:     "Clear the saved cursor of one mode, or of every mode when none is given.",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{modePaged, modeCities},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, log, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		stores, closeStores, err := openStores(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer closeStores()

		modes := storeModes(stores)
		if len(args) == 1 {
			if _, ok := stores[args[0]]; !ok {
				return fmt.Errorf("unknown mode %q, expected %s or %s", args[0], modePaged, modeCities)
			}
			modes = args
		}

		for _, mode := range modes {
			if err := stores[mode].Clear(ctx); err != nil {
				return fmt.Errorf("failed to reset %s cursor: %w", mode, err)
			}
			log.Info("cursor reset", "mode", mode)
		}
		return nil
	},
}

func init() {
	progressCmd.AddCommand(progressShowCmd)
	progressCmd.AddCommand(progressResetCmd)
	rootCmd.AddCommand(progressCmd)
}
