// Package replica models the notification payloads the validator hands to a
// geyser plugin. Each category is a closed set of schema versions: the
// unexported marker methods keep the sets sealed so that a type switch over
// them can be exhaustive.
package replica

import (
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// AccountInfo is one of AccountInfoV1, AccountInfoV2 or AccountInfoV3.
type AccountInfo interface{ accountInfo() }

// AccountInfoV1 is the first account write layout. Keys are raw bytes as
// delivered by the host and are not guaranteed to be well formed.
type AccountInfoV1 struct {
	Pubkey       []byte
	Lamports     uint64
	Owner        []byte
	Executable   bool
	RentEpoch    uint64
	Data         []byte
	WriteVersion uint64
}

// AccountInfoV2 adds the signature of the transaction that caused the write.
type AccountInfoV2 struct {
	AccountInfoV1
	TxnSignature *solana.Signature
}

// AccountInfoV3 carries the full originating transaction instead of only its
// signature.
type AccountInfoV3 struct {
	AccountInfoV1
	Txn *solana.Transaction
}

func (*AccountInfoV1) accountInfo() {}
func (*AccountInfoV2) accountInfo() {}
func (*AccountInfoV3) accountInfo() {}

// SlotStatusCode enumerates the host's slot transitions.
type SlotStatusCode int

const (
	SlotProcessed SlotStatusCode = iota
	SlotRooted
	SlotConfirmed
	SlotFirstShredReceived
	SlotCompleted
	SlotCreatedBank
	SlotDead
)

// SlotStatus is a slot transition. DeadReason is only set for SlotDead.
type SlotStatus struct {
	Code       SlotStatusCode
	DeadReason string
}

// Dead returns the dead-slot status with the host's reason.
func Dead(reason string) SlotStatus { return SlotStatus{Code: SlotDead, DeadReason: reason} }

// TransactionInfo is one of TransactionInfoV1 or TransactionInfoV2.
type TransactionInfo interface{ transactionInfo() }

type TransactionInfoV1 struct {
	Signature   solana.Signature
	IsVote      bool
	Transaction *solana.Transaction
	Meta        *rpc.TransactionMeta
}

// TransactionInfoV2 adds the transaction's position within its block.
type TransactionInfoV2 struct {
	TransactionInfoV1
	Index uint
}

func (*TransactionInfoV1) transactionInfo() {}
func (*TransactionInfoV2) transactionInfo() {}

// BlockInfo is one of BlockInfoV1 through BlockInfoV4.
type BlockInfo interface{ blockInfo() }

type BlockInfoV1 struct {
	Slot        uint64
	Blockhash   string
	Rewards     []rpc.BlockReward
	BlockTime   *int64
	BlockHeight *uint64
}

type BlockInfoV2 struct {
	BlockInfoV1
	ExecutedTransactionCount uint64
}

type BlockInfoV3 struct {
	BlockInfoV2
	EntryCount uint64
}

// RewardsAndNumPartitions is the partitioned reward container introduced with
// BlockInfoV4.
type RewardsAndNumPartitions struct {
	Rewards       []rpc.BlockReward
	NumPartitions *uint64
}

// BlockInfoV4 replaces the flat reward list with RewardsAndNumPartitions.
type BlockInfoV4 struct {
	Slot                     uint64
	Blockhash                string
	Rewards                  RewardsAndNumPartitions
	BlockTime                *int64
	BlockHeight              *uint64
	ExecutedTransactionCount uint64
	EntryCount               uint64
}

func (*BlockInfoV1) blockInfo() {}
func (*BlockInfoV2) blockInfo() {}
func (*BlockInfoV3) blockInfo() {}
func (*BlockInfoV4) blockInfo() {}

// EntryInfo is one of EntryInfoV1 or EntryInfoV2.
type EntryInfo interface{ entryInfo() }

type EntryInfoV1 struct {
	Slot                     uint64
	Index                    uint
	NumHashes                uint64
	Hash                     []byte
	ExecutedTransactionCount uint64
}

// EntryInfoV2 adds the index of the entry's first transaction in the slot.
type EntryInfoV2 struct {
	EntryInfoV1
	StartingTransactionIndex uint
}

func (*EntryInfoV1) entryInfo() {}
func (*EntryInfoV2) entryInfo() {}
