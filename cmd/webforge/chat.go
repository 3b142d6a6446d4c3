package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var chatShowCode bool

var chatCmd = &cobra.Command{
	Use:   "chat <project-id> <message>",
	Short: "Send one message to the coding assistant",
	Long: `Open an editor session, send one message and save the resulting code.

One credit is spent per message.

Examples:
  webforge chat <project-id> "add a button" --user <user-id>
  webforge chat <project-id> "switch to dark mode" --code --user <user-id>`,
	Args: cobra.MinimumNArgs(2),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatShowCode, "code", false, "Print the code after the turn")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	id, err := requireUser()
	if err != nil {
		return err
	}

	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sess, err := a.svc.Editor.Open(ctx, id, args[0])
	if err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	defer a.svc.Editor.Shutdown(ctx, false)

	ex, err := sess.Submit(ctx, strings.Join(args[1:], " "))
	if err != nil {
		return fmt.Errorf("assistant request failed: %w", err)
	}
	if err := sess.Persist(ctx); err != nil {
		return fmt.Errorf("failed to save code: %w", err)
	}

	if ex.Assistant != nil {
		fmt.Println(ex.Assistant.Content)
	}
	if verbose {
		rule := ex.Rule
		if rule == "" {
			rule = "none"
		}
		fmt.Printf("\nRule: %s, applied: %v, credits left: %d\n", rule, ex.Applied, ex.Remaining)
	}
	if chatShowCode {
		fmt.Println()
		fmt.Println(sess.Code())
	}
	return nil
}
