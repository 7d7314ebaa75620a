package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"betterauth/internal/app"
	"betterauth/internal/devserver"
)

func sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Create or refresh an access session",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "create",
			Short: "Answer a fresh challenge and store a new access token",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := appCtx.CreateSession(cmd.Context()); err != nil {
					return err
				}
				fmt.Println("session created")
				return nil
			},
		},
		&cobra.Command{
			Use:   "refresh",
			Short: "Exchange the stored token for one bound to the next access key",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := appCtx.RefreshSession(cmd.Context()); err != nil {
					return err
				}
				fmt.Println("session refreshed")
				return nil
			},
		},
	)
	return cmd
}

// request <json>: send a signed access request and print the reply.
func requestCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "request <json>",
		Short: "Send a signed access request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var body map[string]any
			if err := json.Unmarshal([]byte(args[0]), &body); err != nil {
				return fmt.Errorf("request body must be a JSON object: %w", err)
			}
			reply, err := app.Request[map[string]any, map[string]any](cmd.Context(), appCtx, path, body)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(reply, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", devserver.EchoPath, "server path")
	return cmd
}
