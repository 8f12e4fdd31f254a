// Command cafe-server serves the café storefront API and its front-end.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/stevemurr/cafe-server/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// configLoader resolves the effective configuration for a command.
type configLoader func(cmd *cobra.Command) (config.Config, error)

func newRootCmd() *cobra.Command {
	var configFile string

	load := func(cmd *cobra.Command) (config.Config, error) {
		v, err := config.NewViper(configFile)
		if err != nil {
			return config.Config{}, err
		}
		if err := config.BindFlags(v, cmd.Flags()); err != nil {
			return config.Config{}, err
		}
		return config.Load(v)
	}

	serveCmd := newServeCmd(load)
	root := &cobra.Command{
		Use:   "cafe-server",
		Short: "Café storefront API and front-end server",
		Long: `cafe-server persists the productos, usuarios and pedidos collections
and serves them under /api/<collection>, next to the built front-end.

Configuration sources (in order of precedence):
1. Command line flags
2. Environment variables (PORT, DATA_DIR, STORE_BACKEND, ...)
3. Config file given with --config
4. Defaults`,
		SilenceUsage: true,
		RunE:         serveCmd.RunE,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "config file (yaml, json or toml)")
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(serveCmd, newSeedCmd(load))
	return root
}
