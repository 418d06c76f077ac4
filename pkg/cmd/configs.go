package cmd

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/yeisme/imagevault/pkg/configs"
	"github.com/yeisme/imagevault/pkg/rule"
)

const redacted = "******"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "inspect the loaded configuration",
}

func printConfigPath(cmd *cobra.Command, _ []string) error {
	v := configs.GetViper()
	if v == nil {
		return fmt.Errorf("config not initialized")
	}

	if f := v.ConfigFileUsed(); f != "" {
		fmt.Fprintln(cmd.OutOrStdout(), f)
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "(none: defaults and "+configs.EnvPrefix+"_* environment)")
	}

	return nil
}

// configDump 以 JSON 打印生效配置，密钥类字段打码.
func configDump(cmd *cobra.Command, _ []string) error {
	v := configs.GetViper()
	if v == nil {
		return fmt.Errorf("config not initialized")
	}

	if debug {
		v.Debug()
	}

	b, err := sonic.ConfigStd.MarshalIndent(redactConfig(*configs.GetConfig()), "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(b))

	return nil
}

// configCheck 执行与 serve 启动时相同的校验，逐字段列出问题.
func configCheck(cmd *cobra.Command, _ []string) error {
	err := configs.Validate()
	if err == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "config ok")

		return nil
	}

	for field, msg := range rule.Errors(err) {
		fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", field, msg)
	}

	return err
}

// redactConfig 返回隐藏了密钥与密码的配置副本.
func redactConfig(c configs.AppConfig) configs.AppConfig {
	for _, s := range []*string{
		&c.Link.Secret,
		&c.S3.SecretAccessKey,
		&c.DB.Password,
		&c.KV.Redis.Password,
		&c.KV.NATS.Password,
		&c.MQ.NATS.Password,
		&c.MQ.Redis.Password,
	} {
		if *s != "" {
			*s = redacted
		}
	}

	return c
}

func registerConfigsCommands() {
	configCmd.AddCommand(
		&cobra.Command{Use: "path", Short: "print the config file in use", Args: cobra.NoArgs, RunE: printConfigPath},
		&cobra.Command{Use: "debug", Short: "print effective config with secrets redacted", Args: cobra.NoArgs, RunE: configDump},
		&cobra.Command{Use: "check", Short: "validate the config the way serve does", Args: cobra.NoArgs, RunE: configCheck},
	)

	rootCmd.AddCommand(configCmd)
}
