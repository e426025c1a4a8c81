package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"velora/pkg/clients"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

// Options 全局选项
type Options struct {
	AssistantURL string
	AnalyticsURL string
	Output       string
	Timeout      time.Duration

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func (o *Options) assistant() *clients.AssistantClient {
	return clients.NewAssistantClient(o.AssistantURL, o.Timeout)
}

func (o *Options) analytics() *clients.AnalyticsClient {
	return clients.NewAnalyticsClient(o.AnalyticsURL, o.Timeout)
}

// Execute 执行根命令
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return NewRootCmd(&Options{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}).ExecuteContext(ctx)
}

// NewRootCmd 构建命令树
func NewRootCmd(opts *Options) *cobra.Command {
	root := &cobra.Command{
		Use:     "veloractl",
		Short:   "Velora operator CLI",
		Version: version,
		Long: `Command-line tool for the Velora assistant and analytics services.
Chat with the FAQ assistant, estimate transport costs and inspect
visitor analytics.`,
		Example: `  # Ask the assistant a question
  $ veloractl chat "what transport models do you offer?"

  # Estimate monthly cost
  $ veloractl estimate --employees 100 --shifts 2 --distance 15 --vehicle suv

  # Show the analytics dashboard as YAML
  $ veloractl analytics dashboard -o yaml`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return validateOutput(opts.Output)
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetVersionTemplate(fmt.Sprintf("veloractl version %s\n", version))
	root.SetIn(opts.Stdin)
	root.SetOut(opts.Stdout)
	root.SetErr(opts.Stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.AssistantURL, "assistant-url", envOr("VELORA_ASSISTANT_URL", "http://localhost:8005"), "assistant-service base URL")
	flags.StringVar(&opts.AnalyticsURL, "analytics-url", envOr("VELORA_ANALYTICS_URL", "http://localhost:8006"), "analytics-service base URL")
	flags.StringVarP(&opts.Output, "output", "o", outputJSON, "output format: json|yaml")
	flags.DurationVar(&opts.Timeout, "timeout", 30*time.Second, "request timeout")

	root.AddCommand(newChatCmd(opts))
	root.AddCommand(newEstimateCmd(opts))
	root.AddCommand(newAnalyticsCmd(opts))

	return root
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
