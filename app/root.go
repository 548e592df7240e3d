// Package app implements the bsreload commands.
package app

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zach-adams/wp-browsersync-reload/internal/config"
	"github.com/zach-adams/wp-browsersync-reload/internal/logger"
)

const (
	envPrefix = "BSRELOAD"

	keyConfig = "config"
	keyDev    = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "bsreload",
	Short: "bsreload tells a Browsersync server to reload whenever a post is saved",
	Long: `bsreload receives "post saved" events from a CMS, by webhook or NATS,
and sends a reload request to a Browsersync server so connected browsers refresh.
Reload host, port and the on/off switch are managed on a small admin page.`,
	Args:          cobra.OnlyValidArgs,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().String(keyConfig, "./etc/", "Directory holding main.toml")
	rootCmd.PersistentFlags().Bool(keyDev, false, "Enable dev mode")

	_ = viper.BindPFlag(keyConfig, rootCmd.PersistentFlags().Lookup(keyConfig))
	_ = viper.BindPFlag(keyDev, rootCmd.PersistentFlags().Lookup(keyDev))

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads main.toml from the directory given by --config or BSRELOAD_CONFIG.
// --dev or BSRELOAD_DEV switch dev mode on.
func loadConfig() (config.Config, error) {
	cfg, err := config.ReadConfig(viper.GetString(keyConfig))
	if err != nil {
		return cfg, err
	}

	if viper.GetBool(keyDev) {
		cfg.DevMode = true
	}

	return cfg, nil
}

// setup loads the configuration and initializes the global logger from it.
func setup() (config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return cfg, err
	}

	return cfg, logger.Init(cfg.Log)
}
