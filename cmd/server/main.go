// Command server runs the solicitudes HTTP API and its maintenance tasks.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"solicitudes/internal/platform/config"
	"solicitudes/internal/platform/logger"
)

type rootOptions struct {
	envFiles []string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "server",
		Short:         "Document approval requests service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", []string{".env"}, "optional dotenv files loaded before the environment")
	cmd.AddCommand(newServeCmd(opts), newMigrateCmd(opts), newSeedCmd(opts))
	return cmd
}

func (o *rootOptions) load() (config.Server, error) {
	return config.Load(o.envFiles...)
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		logger.New("error", "json").Error("command failed", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
