package main

import (
	"os"

	"github.com/spf13/cobra"

	"eve-chainmap/internal/config"
	"eve-chainmap/internal/logger"
)

var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "chainmap",
	Short: "Shared wormhole chain mapper",
	Long: "Map the wormhole chain your corp lives in, together.\n" +
		"Run `chainmap serve` once and `chainmap connect` from every pilot's terminal.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("chainmap {{ .Version }}\n")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.Path(), "Config file (TOML)")

	rootCmd.AddCommand(
		connectCmd(),
		serveCmd(),
		cookieCmd(),
	)
}

// loadConfig reads the config file and environment.
func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("CLI", err.Error())
		os.Exit(1)
	}
}
