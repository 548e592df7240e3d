package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zach-adams/wp-browsersync-reload/internal/db"
	"github.com/zach-adams/wp-browsersync-reload/internal/db/controller/browsersync"
	"github.com/zach-adams/wp-browsersync-reload/internal/reload"
)

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(reloadCmd)
}

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Send one reload request with the stored Browsersync settings",
	Long: `Send one reload request with the stored Browsersync settings.
The enable switch is ignored, the request is always sent.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}

		gdb, err := db.Open(&cfg)
		if err != nil {
			return err
		}

		if sqlDB, err := gdb.DB(); err == nil {
			defer func() { _ = sqlDB.Close() }()
		}

		bs := browsersync.LoadConfig(gdb)

		if err = reload.New(nil).Reload(cmd.Context(), bs); err != nil {
			return err
		}

		_, err = fmt.Fprintf(cmd.OutOrStdout(), "reload sent to %s\n", bs.URL())

		return err
	},
}
