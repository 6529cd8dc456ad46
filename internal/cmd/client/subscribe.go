package client

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	transports "github.com/rzbill/geyserstream/internal/cmd/client/transports"
)

// NewSubscribeCommand constructs the `subscribe <category>` command.
func NewSubscribeCommand() *cobra.Command {
	subscribeCmd := &cobra.Command{
		Use:       "subscribe <category>",
		Short:     "Stream updates of one category as JSON lines",
		Long:      "Stream updates of one category (" + strings.Join(transports.Categories, "|") + ") and print one JSON object per line.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: transports.Categories,
		RunE: func(cmd *cobra.Command, args []string) error {
			category := args[0]
			if !validCategory(category) {
				return fmt.Errorf("unknown category %q; use %s", category, strings.Join(transports.Categories, "|"))
			}
			accounts, _ := cmd.Flags().GetStringSlice("accounts")
			owners, _ := cmd.Flags().GetStringSlice("owners")
			filter, _ := cmd.Flags().GetString("filter")
			skipData, _ := cmd.Flags().GetBool("skip-data")
			excludeVotes, _ := cmd.Flags().GetBool("exclude-votes")
			limit, _ := cmd.Flags().GetInt("limit")
			heartbeats, _ := cmd.Flags().GetBool("heartbeats")

			if category != transports.CategoryAccounts && (len(accounts) > 0 || len(owners) > 0 || skipData) {
				return fmt.Errorf("--accounts, --owners and --skip-data apply to accounts only")
			}
			if category != transports.CategoryTransactions && excludeVotes {
				return fmt.Errorf("--exclude-votes applies to transactions only")
			}
			if filter != "" && category != transports.CategoryAccounts && category != transports.CategoryTransactions {
				return fmt.Errorf("--filter applies to accounts and transactions only")
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			return readConnFlags(cmd).transport().Subscribe(cmd.Context(), transports.SubscribeRequest{
				Category:     category,
				Accounts:     accounts,
				Owners:       owners,
				Filter:       filter,
				SkipData:     skipData,
				ExcludeVotes: excludeVotes,
				Limit:        limit,
				Heartbeats:   heartbeats,
			}, func(u transports.Update) error {
				return enc.Encode(decodedUpdate(u))
			})
		},
	}
	addConnFlags(subscribeCmd)
	subscribeCmd.Flags().StringSlice("accounts", nil, "Account pubkeys to match (base58, repeat or comma-separate)")
	subscribeCmd.Flags().StringSlice("owners", nil, "Owner program ids to match (base58)")
	subscribeCmd.Flags().String("filter", "", "CEL filter (server-side)")
	subscribeCmd.Flags().Bool("skip-data", false, "Omit account data")
	subscribeCmd.Flags().Bool("exclude-votes", false, "Drop vote transactions")
	subscribeCmd.Flags().Int("limit", 0, "Stop after N updates (0 = infinite)")
	subscribeCmd.Flags().Bool("heartbeats", false, "Print heartbeat envelopes")
	return subscribeCmd
}

// NewSlotCommand constructs the `highest-slot` command.
func NewSlotCommand() *cobra.Command {
	slotCmd := &cobra.Command{
		Use:   "highest-slot",
		Short: "Print the highest slot with an account write",
		RunE: func(cmd *cobra.Command, _ []string) error {
			slot, err := readConnFlags(cmd).transport().HighestWriteSlot(cmd.Context())
			if err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]uint64{"highest_write_slot": slot})
		},
	}
	addConnFlags(slotCmd)
	return slotCmd
}

// NewHeartbeatCommand constructs the `heartbeat-interval` command.
func NewHeartbeatCommand() *cobra.Command {
	hbCmd := &cobra.Command{
		Use:   "heartbeat-interval",
		Short: "Print the relay's heartbeat interval",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := readConnFlags(cmd).transport().HeartbeatInterval(cmd.Context())
			if err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
				"heartbeat_interval_ms": d.Milliseconds(),
				"heartbeat_interval":    d.String(),
			})
		},
	}
	addConnFlags(hbCmd)
	return hbCmd
}

func validCategory(c string) bool {
	for _, v := range transports.Categories {
		if v == c {
			return true
		}
	}
	return false
}
