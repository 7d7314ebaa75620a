package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"betterauth/internal/protocol/messages"
)

func linkContainerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "link-container <identity>",
		Short: "Print a link container for this (new) device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := appCtx.GenerateLinkContainer(args[0])
			if err != nil {
				return err
			}
			device, err := appCtx.Device()
			if err != nil {
				return err
			}
			fmt.Printf("Device: %s\nRun on a linked device:\n\n  betterauth link %s\n", device, messages.ExportLinkContainer(container))
			return nil
		},
	}
}

func linkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "link <container>",
		Short: "Link a device from its container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := messages.ImportLinkContainer(args[0])
			if err != nil {
				return err
			}
			if err := appCtx.LinkDevice(cmd.Context(), container); err != nil {
				return err
			}
			fmt.Println("linked")
			return nil
		},
	}
}

func unlinkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unlink <device>",
		Short: "Revoke a device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := appCtx.UnlinkDevice(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("unlinked")
			return nil
		},
	}
}

func rotateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rotate",
		Short: "Rotate this device's authentication key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := appCtx.RotateDevice(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("rotated")
			return nil
		},
	}
}
