package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"velora/pkg/clients"

	"github.com/spf13/cobra"
)

func newChatCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "chat [message...]",
		Short: "chat with the Velora assistant",
		Long: `Start a conversation with the Velora assistant.

With a message argument the reply is printed and the command exits.
Without arguments an interactive session starts; type "exit" to quit
and "reset" to start over.`,
		Example: `  $ veloractl chat "how does it work?"
  $ veloractl chat`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), opts, args)
		},
	}
}

func runChat(ctx context.Context, opts *Options, args []string) error {
	client := opts.assistant()

	conv, err := client.StartConversation(ctx)
	if err != nil {
		return fmt.Errorf("start conversation: %w", err)
	}
	defer func() {
		// 会话只在本次命令内有效
		_ = client.DeleteConversation(context.WithoutCancel(ctx), conv.ID)
	}()

	if len(args) > 0 {
		return sendAndPrint(ctx, opts.Stdout, client, conv.ID, strings.Join(args, " "))
	}

	for _, msg := range conv.Messages {
		fmt.Fprintf(opts.Stdout, "assistant> %s\n", msg.Text)
	}
	return chatLoop(ctx, opts, client, conv.ID)
}

func chatLoop(ctx context.Context, opts *Options, client *clients.AssistantClient, id string) error {
	scanner := bufio.NewScanner(opts.Stdin)
	for {
		fmt.Fprint(opts.Stdout, "you> ")
		if !scanner.Scan() {
			fmt.Fprintln(opts.Stdout)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "reset":
			msgs, err := client.Reset(ctx, id)
			if err != nil {
				return fmt.Errorf("reset conversation: %w", err)
			}
			for _, msg := range msgs {
				fmt.Fprintf(opts.Stdout, "assistant> %s\n", msg.Text)
			}
			continue
		}

		if err := sendAndPrint(ctx, opts.Stdout, client, id, line); err != nil {
			return err
		}
	}
}

func sendAndPrint(ctx context.Context, w io.Writer, client *clients.AssistantClient, id, text string) error {
	result, err := client.SendMessage(ctx, id, text)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	fmt.Fprintf(w, "assistant> %s\n", result.Reply.Text)
	for _, c := range result.Reply.Commands {
		fmt.Fprintf(w, "  [%s %s after %dms]\n", c.Type, c.Target, c.DelayMs)
	}
	return nil
}
