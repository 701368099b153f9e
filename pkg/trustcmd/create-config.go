package trustcmd

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"go.inet256.org/trustd/pkg/trustd"
)

func newCreateConfigCmd() *cobra.Command {
	var endpoint string
	c := &cobra.Command{
		Use:   "create-config",
		Short: "creates a new default config and writes it to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := trustd.DefaultConfig()
			if endpoint != "" {
				c.Registry.Endpoint = endpoint
			}
			data, err := yaml.Marshal(c)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, err = out.Write(data)
			return err
		},
	}
	c.Flags().StringVar(&endpoint, "endpoint", "", "--endpoint=http://fullnode:9000")
	return c
}
