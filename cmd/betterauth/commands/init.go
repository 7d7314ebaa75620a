package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"betterauth/internal/crypto"
	"betterauth/internal/devserver"
)

func initCmd() *cobra.Command {
	var keyPath string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Save the server URL and pin the server response key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.ServerURL == "" {
				return fmt.Errorf("server URL required (--server)")
			}
			if err := cfg.Save(); err != nil {
				return err
			}
			identity, fp, err := appCtx.TrustServer(cmd.Context(), keyPath)
			if err != nil {
				return err
			}
			fmt.Printf("Config saved to %s.\nServer identity: %s\nServer key fingerprint: %s\n", cfg.Home, identity, fp)
			fmt.Println("Compare the fingerprint with the server operator before creating an account.")
			return nil
		},
	}
	cmd.Flags().StringVar(&keyPath, "key-path", devserver.KeyPath, "server path serving the response key")
	return cmd
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print identity, device and key fingerprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			identity, err := appCtx.Identity()
			if err != nil {
				return err
			}
			device, err := appCtx.Device()
			if err != nil {
				return err
			}
			signer, err := appCtx.Wire().Auth.Keys.Signer()
			if err != nil {
				return err
			}
			pub, err := signer.Public()
			if err != nil {
				return err
			}
			fmt.Printf("Identity:    %s\nDevice:      %s\nFingerprint: %s\n", identity, device, crypto.Fingerprint(pub))
			return nil
		},
	}
}
