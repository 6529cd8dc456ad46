// Package geyserv1 defines the geyser.v1 wire messages and the Geyser gRPC
// service. Messages travel with the "json" codec registered in codec.go;
// clients built with NewGeyserClient select it automatically.
//
// The content-subtype is application/grpc+json, not protobuf. Clients
// generated from the protobuf geyser schema share the method paths but
// cannot decode these messages, so they must use this package or send
// JSON bodies with the same content-subtype themselves.
package geyserv1

import (
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
)

// TxIndexUnknown marks a transaction whose in-block position the host did
// not report.
const TxIndexUnknown = ^uint64(0)

// AccountUpdate is the canonical account write.
type AccountUpdate struct {
	Slot         uint64 `json:"slot"`
	Pubkey       []byte `json:"pubkey"`
	Lamports     uint64 `json:"lamports"`
	Owner        []byte `json:"owner"`
	IsExecutable bool   `json:"is_executable"`
	RentEpoch    uint64 `json:"rent_epoch"`
	Data         []byte `json:"data,omitempty"`
	// Seq is the host's monotonically increasing write version.
	Seq       uint64 `json:"seq"`
	IsStartup bool   `json:"is_startup"`
	// TxSignature is the base58 signature of the transaction that caused
	// the write, when the host schema reports one.
	TxSignature    *string `json:"tx_signature,omitempty"`
	ReplicaVersion uint32  `json:"replica_version"`
}

// TimestampedAccountUpdate is one message of SubscribeAccountUpdates. A nil
// AccountUpdate is a heartbeat.
type TimestampedAccountUpdate struct {
	Ts            time.Time      `json:"ts"`
	AccountUpdate *AccountUpdate `json:"account_update,omitempty"`
}

// SlotUpdateStatus is the closed set of slot transitions.
type SlotUpdateStatus int32

const (
	SlotUpdateStatusProcessed SlotUpdateStatus = iota
	SlotUpdateStatusConfirmed
	SlotUpdateStatusRooted
	SlotUpdateStatusFirstShredReceived
	SlotUpdateStatusCompleted
	SlotUpdateStatusCreatedBank
	SlotUpdateStatusDead
)

var slotUpdateStatusNames = [...]string{
	SlotUpdateStatusProcessed:          "PROCESSED",
	SlotUpdateStatusConfirmed:          "CONFIRMED",
	SlotUpdateStatusRooted:             "ROOTED",
	SlotUpdateStatusFirstShredReceived: "FIRST_SHRED_RECEIVED",
	SlotUpdateStatusCompleted:          "COMPLETED",
	SlotUpdateStatusCreatedBank:        "CREATED_BANK",
	SlotUpdateStatusDead:               "DEAD",
}

func (s SlotUpdateStatus) String() string {
	if s >= 0 && int(s) < len(slotUpdateStatusNames) {
		return slotUpdateStatusNames[s]
	}
	return fmt.Sprintf("SlotUpdateStatus(%d)", int32(s))
}

// SlotUpdate is the canonical slot transition.
type SlotUpdate struct {
	Slot       uint64           `json:"slot"`
	ParentSlot *uint64          `json:"parent_slot,omitempty"`
	Status     SlotUpdateStatus `json:"status"`
}

// TimestampedSlotUpdate is one message of SubscribeSlotUpdates. A nil
// SlotUpdate is a heartbeat.
type TimestampedSlotUpdate struct {
	Ts         time.Time   `json:"ts"`
	SlotUpdate *SlotUpdate `json:"slot_update,omitempty"`
}

// SlotEntryUpdate is the canonical per-slot entry notification.
type SlotEntryUpdate struct {
	Slot                     uint64 `json:"slot"`
	Index                    uint64 `json:"index"`
	ExecutedTransactionCount uint64 `json:"executed_transaction_count"`
}

// TimestampedSlotEntryUpdate is one message of SubscribeSlotEntryUpdates.
type TimestampedSlotEntryUpdate struct {
	Ts          time.Time        `json:"ts"`
	EntryUpdate *SlotEntryUpdate `json:"entry_update,omitempty"`
}

// Reward is one block reward.
type Reward struct {
	Pubkey      string `json:"pubkey"`
	Lamports    int64  `json:"lamports"`
	PostBalance uint64 `json:"post_balance"`
	RewardType  string `json:"reward_type,omitempty"`
	Commission  *uint8 `json:"commission,omitempty"`
}

// BlockUpdate is the canonical block metadata record. Optional fields are
// nil when the host schema version did not expose them.
type BlockUpdate struct {
	Slot                     uint64     `json:"slot"`
	Blockhash                string     `json:"blockhash"`
	Rewards                  []Reward   `json:"rewards"`
	BlockTime                *time.Time `json:"block_time,omitempty"`
	BlockHeight              *uint64    `json:"block_height,omitempty"`
	ExecutedTransactionCount *uint64    `json:"executed_transaction_count,omitempty"`
	EntryCount               *uint64    `json:"entry_count,omitempty"`
}

// TimestampedBlockUpdate is one message of SubscribeBlockUpdates.
type TimestampedBlockUpdate struct {
	Ts          time.Time    `json:"ts"`
	BlockUpdate *BlockUpdate `json:"block_update,omitempty"`
}

// ConfirmedTransaction carries the wire-serialized transaction together with
// its execution status metadata.
type ConfirmedTransaction struct {
	Transaction []byte              `json:"transaction"`
	Meta        *rpc.TransactionMeta `json:"meta,omitempty"`
}

// TransactionUpdate is the canonical transaction result.
type TransactionUpdate struct {
	Slot      uint64 `json:"slot"`
	Signature string `json:"signature"`
	IsVote    bool   `json:"is_vote"`
	// TxIdx is TxIndexUnknown when the host did not report a position.
	TxIdx uint64                `json:"tx_idx"`
	Tx    *ConfirmedTransaction `json:"tx,omitempty"`
}

// TimestampedTransactionUpdate is one message of SubscribeTransactionUpdates.
type TimestampedTransactionUpdate struct {
	Ts          time.Time          `json:"ts"`
	Transaction *TransactionUpdate `json:"transaction,omitempty"`
}

// SubscribeAccountUpdatesRequest narrows an account stream. Empty Accounts
// and Owners match everything.
type SubscribeAccountUpdatesRequest struct {
	// Accounts are base58 public keys.
	Accounts []string `json:"accounts,omitempty"`
	// Owners are base58 program ids.
	Owners []string `json:"owners,omitempty"`
	// Filter is an optional CEL expression over the update.
	Filter string `json:"filter,omitempty"`
	// SkipData strips account data from delivered updates.
	SkipData bool `json:"skip_data,omitempty"`
}

type SubscribeSlotUpdatesRequest struct{}

type SubscribeSlotEntryUpdatesRequest struct{}

type SubscribeBlockUpdatesRequest struct{}

// SubscribeTransactionUpdatesRequest narrows a transaction stream.
type SubscribeTransactionUpdatesRequest struct {
	Filter string `json:"filter,omitempty"`
	// ExcludeVotes drops vote transactions.
	ExcludeVotes bool `json:"exclude_votes,omitempty"`
}

type GetHeartbeatIntervalRequest struct{}

type GetHeartbeatIntervalResponse struct {
	HeartbeatIntervalMs uint64 `json:"heartbeat_interval_ms"`
}

type GetHighestWriteSlotRequest struct{}

type GetHighestWriteSlotResponse struct {
	HighestWriteSlot uint64 `json:"highest_write_slot"`
}
