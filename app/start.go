package app

import (
	"github.com/spf13/cobra"

	"github.com/zach-adams/wp-browsersync-reload/internal/daemon"
)

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(startCmd)
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the webhook listener and the admin web service",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}

		d, err := daemon.New(&cfg)
		if err != nil {
			return err
		}

		return d.Start()
	},
}
