package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/yeisme/imagevault/pkg/configs"
	mq "github.com/yeisme/imagevault/pkg/internal/storage/mq"
	"github.com/yeisme/imagevault/pkg/queue"
)

var (
	mqCmd = &cobra.Command{
		Use:     "mq",
		Short:   "Inspect domain events on the configured message queue",
		Aliases: []string{"events"},
	}

	mqListCmd = &cobra.Command{
		Use:     "ls",
		Short:   "list all registered mq types",
		Aliases: []string{"list"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "Registered mq types:")
			for _, t := range mq.GetRegisteredMQTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), "   - "+string(t))
			}
		},
	}

	mqTopicsCmd = &cobra.Command{
		Use:   "topics",
		Short: "list the domain event topics",
		Run: func(cmd *cobra.Command, args []string) {
			for _, t := range slices.Concat(queue.ImageTopics, queue.LinkTopics) {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
		},
	}

	mqTailCmd = &cobra.Command{
		Use:   "tail [topic]...",
		Short: "print events as they arrive until interrupted; defaults to all topics",
		RunE: func(cmd *cobra.Command, args []string) error {
			topics := args
			if len(topics) == 0 {
				topics = slices.Concat(queue.ImageTopics, queue.LinkTopics)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client, err := mq.New(ctx, &configs.GetConfig().MQ)
			if err != nil {
				return err
			}
			defer client.Close()

			out := make(chan string)

			for _, topic := range topics {
				ch, err := client.Subscribe(ctx, topic)
				if err != nil {
					return fmt.Errorf("subscribe %s: %w", topic, err)
				}

				go func() {
					for msg := range ch {
						line := formatEvent(msg.Payload)
						msg.Ack()

						select {
						case out <- line:
						case <-ctx.Done():
							return
						}
					}
				}()
			}

			for {
				select {
				case <-ctx.Done():
					return nil
				case line := <-out:
					fmt.Fprintln(cmd.OutOrStdout(), line)
				}
			}
		},
	}
)

// formatEvent 把事件信封格式化为一行: 时间 主题 负载.
func formatEvent(data []byte) string {
	env, err := queue.Decode[sonic.NoCopyRawMessage](data)
	if err != nil {
		return fmt.Sprintf("undecodable event (%v): %s", err, data)
	}

	return fmt.Sprintf("%s %s %s", env.Header.OccurredAt.Format("15:04:05.000"), env.Header.Topic, env.Payload)
}

// registerMQCommands 注册 MQ 相关命令.
func registerMQCommands() {
	rootCmd.AddCommand(mqCmd)
	mqCmd.AddCommand(mqListCmd, mqTopicsCmd, mqTailCmd)
}
