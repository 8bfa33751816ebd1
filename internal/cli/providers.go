package cli

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/nerdneilsfield/go-subtitle-translator/internal/config"
	"github.com/nerdneilsfield/go-subtitle-translator/pkg/providers/factory"
)

// newProvidersCommand 创建 providers 命令
func newProvidersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "列出可用的翻译提供商",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			active := providerName
			if active == "" {
				if cfg, err := config.LoadConfig(cfgFile); err == nil {
					active = cfg.Provider
				}
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"", "Provider", "Endpoint", "API key", "Description"})
			for _, info := range factory.Available() {
				mark := ""
				if info.Name == active {
					mark = "*"
				}
				key := "optional"
				if info.RequiresAPIKey {
					key = "required"
				}
				tw.AppendRow(table.Row{mark, info.Name, info.DefaultEndpoint, key, info.Description})
			}
			tw.SetStyle(table.StyleLight)
			tw.Render()
			return nil
		},
	}
}
