package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/imagevault/pkg/configs"
	kv "github.com/yeisme/imagevault/pkg/internal/storage/kv"
)

var (
	kvCmd = &cobra.Command{
		Use:     "kv",
		Short:   "Inspect the configured key-value cache",
		Aliases: []string{"cache"},
	}

	kvListCmd = &cobra.Command{
		Use:     "ls",
		Short:   "list all registered kv types",
		Aliases: []string{"list"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "Registered kv types:")
			for _, t := range kv.GetRegisteredKVTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), "   - "+string(t))
			}
		},
	}

	kvPingCmd = &cobra.Command{
		Use:   "ping",
		Short: "write and read a probe key on the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKV(cmd, func(c *kv.Client) error {
				if err := c.HealthCheck(cmd.Context()); err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), "ok", configs.GetConfig().KV.Type)

				return nil
			})
		},
	}

	kvKeysCmd = &cobra.Command{
		Use:   "keys [pattern]",
		Short: "list cached keys, e.g. 'thumb:*'",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := "*"
			if len(args) == 1 {
				pattern = args[0]
			}

			return withKV(cmd, func(c *kv.Client) error {
				keys, err := c.Keys(cmd.Context(), pattern)
				if err != nil {
					return err
				}

				for _, k := range keys {
					fmt.Fprintln(cmd.OutOrStdout(), k)
				}

				return nil
			})
		},
	}

	kvDelCmd = &cobra.Command{
		Use:   "del <key>...",
		Short: "drop cached entries, e.g. a stale thumbnail",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKV(cmd, func(c *kv.Client) error {
				var errs []error
				for _, k := range args {
					errs = append(errs, c.Delete(cmd.Context(), k))
				}

				return errors.Join(errs...)
			})
		},
	}
)

// withKV 按当前配置连接 KV，执行 fn 后关闭.
func withKV(cmd *cobra.Command, fn func(*kv.Client) error) error {
	client, err := kv.NewKVClient(cmd.Context(), &configs.GetConfig().KV)
	if err != nil {
		return err
	}
	defer client.Close()

	return fn(client)
}

// registerKVCommands 注册 KV 相关命令.
func registerKVCommands() {
	rootCmd.AddCommand(kvCmd)
	kvCmd.AddCommand(kvListCmd, kvPingCmd, kvKeysCmd, kvDelCmd)
}
