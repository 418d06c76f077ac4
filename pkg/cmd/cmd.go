// Package cmd 提供 imagevault 命令行：serve 启动服务，其余子命令用于排查配置、存储与令牌.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yeisme/imagevault/pkg/configs"
)

var (
	configPath string
	debug      bool

	rootCmd = &cobra.Command{
		Use:           "imagevault",
		Short:         "Multi-tenant image hosting API with signed expiring links",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// serve 自己完成初始化与校验
			if cmd == serveCmd {
				return nil
			}

			return configs.InitConfig(configPath)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "config file or directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "verbose output")

	registerServeCommands()
	registerConfigsCommands()
	registerDBCommands()
	registerKVCommands()
	registerMQCommands()
	registerLinkCommands()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
