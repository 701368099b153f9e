package trustcmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.brendoncarroll.net/stdctx/logctx"
	"go.uber.org/zap"
)

var ctx = func() context.Context {
	ctx := context.Background()
	l, _ := zap.NewProduction()
	ctx = logctx.NewContext(ctx, l)
	return ctx
}()

func Execute() error {
	return NewRootCmd().Execute()
}

func NewRootCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "trustd",
		Short: "trustd: keeps the set of trusted validator peers up to date",
	}
	c.AddCommand(newDaemonCmd())
	c.AddCommand(newCreateConfigCmd())
	c.AddCommand(newFetchCmd())
	c.AddCommand(newGenCertCmd())
	return c
}
