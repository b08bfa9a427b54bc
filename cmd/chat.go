package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/taskloop/taskloop/internal/config"
	"github.com/taskloop/taskloop/internal/logger"
	"github.com/taskloop/taskloop/internal/ui"
)

// chatCmd starts the interactive conversation loop.
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start a conversation with the assistant",
	Long: `Chat opens an interactive session. Describe what you want in plain language:

  > Create a project called Apollo
  > Break the onboarding revamp down into tasks
  > Plan a sprint with capacity 20

Type "exit" to quit, or "/new" to start a fresh session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		defer logger.HandlePanic()
		logger.SetCommand("chat")
		logger.SetVersion(version)
		logger.SetBasePath(config.GetDataBasePath())

		orch, _, cleanup, err := buildOrchestrator()
		if err != nil {
			return err
		}
		defer cleanup()

		sessionID := uuid.NewString()
		fmt.Println(ui.StyleTitle.Render("TaskLoop") + ui.StyleSubtle.Render("  ·  type \"exit\" to quit, \"/new\" for a fresh session"))

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print(ui.StylePrefixUser.Render("you> "))
			if !scanner.Scan() {
				fmt.Println()
				return scanner.Err()
			}
			input := strings.TrimSpace(scanner.Text())
			switch {
			case input == "":
				continue
			case input == "exit" || input == "quit":
				return nil
			case input == "/new":
				sessionID = uuid.NewString()
				fmt.Println(ui.StyleSubtle.Render("started a new session"))
				continue
			}

			logger.SetLastMessage(sessionID, input)
			resp, err := orch.HandleMessage(cmd.Context(), sessionID, input, func(line string) {
				fmt.Println(ui.StyleSubtle.Render("  " + line))
			})
			if err != nil {
				fmt.Println(ui.StyleError.Render("error: " + err.Error()))
				continue
			}
			fmt.Println(ui.StylePrefixAgent.Render("loop> ") + resp.Reply)
		}
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
