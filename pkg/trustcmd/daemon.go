package trustcmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.brendoncarroll.net/stdctx/logctx"

	"go.inet256.org/trustd/pkg/trustd"
)

func newDaemonCmd() *cobra.Command {
	var configPath string
	c := &cobra.Command{
		Use:   "daemon",
		Short: "Runs the trustd daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return errors.New("must provide config path")
			}
			config, err := trustd.LoadConfig(configPath)
			if err != nil {
				return err
			}
			logctx.Infof(ctx, "using config from path: %v", configPath)
			params, err := trustd.MakeParams(configPath, *config)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			d := trustd.New(*params)
			if err := d.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	c.Flags().StringVar(&configPath, "config", "", "--config=./path/to/config/yaml")
	return c
}
