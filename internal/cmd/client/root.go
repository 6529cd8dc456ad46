package client

import (
	"github.com/spf13/cobra"
)

// NewRoot constructs a root Cobra command holding the client commands.
func NewRoot() *cobra.Command {
	root := &cobra.Command{
		Use:   "geyserstream",
		Short: "Geyser relay client commands",
	}
	AddCommands(root)
	return root
}

// AddCommands registers the client commands on root.
func AddCommands(root *cobra.Command) {
	root.AddCommand(NewSubscribeCommand(), NewSlotCommand(), NewHeartbeatCommand())
}
