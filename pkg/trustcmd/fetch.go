package trustcmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"go.inet256.org/trustd/pkg/trustset"
	"go.inet256.org/trustd/pkg/valregistry"
)

func newFetchCmd() *cobra.Command {
	var timeout time.Duration
	c := &cobra.Command{
		Use:   "fetch <endpoint>",
		Short: "fetches the validator set once and prints the peers which would be trusted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := valregistry.NewClient(args[0], valregistry.WithTimeout(timeout))
			summary, err := client.Fetch(ctx)
			if err != nil {
				return err
			}
			snap, stats := trustset.Collect(ctx, summary)
			data, err := json.MarshalIndent(snap.List(), "", "  ")
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s\n", data)
			fmt.Fprintf(w, "ACCEPTED: %d\n", stats.Accepted)
			for _, reason := range []trustset.DropReason{trustset.DropPublicKey, trustset.DropAddress, trustset.DropDuplicate} {
				fmt.Fprintf(w, "DROPPED %s: %d\n", reason, stats.Dropped[reason])
			}
			return nil
		},
	}
	c.Flags().DurationVar(&timeout, "timeout", valregistry.DefaultTimeout, "--timeout=10s")
	return c
}
