package updates

import (
	"bytes"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pkg/errors"

	geyserv1 "github.com/rzbill/geyserstream/api/geyser/v1"
	"github.com/rzbill/geyserstream/internal/replica"
)

// Category names one of the five notification streams.
type Category string

const (
	CategoryAccount     Category = "account"
	CategorySlot        Category = "slot"
	CategoryEntry       Category = "entry"
	CategoryBlock       Category = "block"
	CategoryTransaction Category = "transaction"
)

// Categories lists every category in a stable order.
var Categories = []Category{CategoryAccount, CategorySlot, CategoryEntry, CategoryBlock, CategoryTransaction}

// KeyLen is the required length of account and owner public keys.
const KeyLen = 32

var (
	// ErrUnsupportedVersion is returned for a nil or unknown schema version.
	ErrUnsupportedVersion = errors.New("unsupported host schema version")
	// ErrInvalidKey is returned by ValidateAccount for malformed keys.
	ErrInvalidKey = errors.New("invalid account key length")
)

// Account normalizes an account write observed at slot. Byte fields are
// copied since the host may reuse its buffers once the callback returns.
func Account(info replica.AccountInfo, slot uint64, isStartup bool) (*geyserv1.AccountUpdate, error) {
	var (
		base    *replica.AccountInfoV1
		sig     *string
		version uint32
	)
	switch a := info.(type) {
	case *replica.AccountInfoV1:
		if a == nil {
			return nil, ErrUnsupportedVersion
		}
		base, version = a, 1
	case *replica.AccountInfoV2:
		if a == nil {
			return nil, ErrUnsupportedVersion
		}
		base, version = &a.AccountInfoV1, 2
		if a.TxnSignature != nil {
			s := a.TxnSignature.String()
			sig = &s
		}
	case *replica.AccountInfoV3:
		if a == nil {
			return nil, ErrUnsupportedVersion
		}
		base, version = &a.AccountInfoV1, 2
		if a.Txn != nil && len(a.Txn.Signatures) > 0 {
			s := a.Txn.Signatures[0].String()
			sig = &s
		}
	default:
		return nil, ErrUnsupportedVersion
	}
	return &geyserv1.AccountUpdate{
		Slot:           slot,
		Pubkey:         bytes.Clone(base.Pubkey),
		Lamports:       base.Lamports,
		Owner:          bytes.Clone(base.Owner),
		IsExecutable:   base.Executable,
		RentEpoch:      base.RentEpoch,
		Data:           bytes.Clone(base.Data),
		Seq:            base.WriteVersion,
		IsStartup:      isStartup,
		TxSignature:    sig,
		ReplicaVersion: version,
	}, nil
}

// ValidateAccount reports whether both keys of u are exactly KeyLen bytes.
func ValidateAccount(u *geyserv1.AccountUpdate) error {
	if len(u.Pubkey) != KeyLen {
		return errors.Wrapf(ErrInvalidKey, "pubkey has %d bytes", len(u.Pubkey))
	}
	if len(u.Owner) != KeyLen {
		return errors.Wrapf(ErrInvalidKey, "owner has %d bytes", len(u.Owner))
	}
	return nil
}

// Slot normalizes a slot transition. The dead reason is dropped.
func Slot(slot uint64, parent *uint64, st replica.SlotStatus) (*geyserv1.SlotUpdate, error) {
	var status geyserv1.SlotUpdateStatus
	switch st.Code {
	case replica.SlotProcessed:
		status = geyserv1.SlotUpdateStatusProcessed
	case replica.SlotConfirmed:
		status = geyserv1.SlotUpdateStatusConfirmed
	case replica.SlotRooted:
		status = geyserv1.SlotUpdateStatusRooted
	case replica.SlotFirstShredReceived:
		status = geyserv1.SlotUpdateStatusFirstShredReceived
	case replica.SlotCompleted:
		status = geyserv1.SlotUpdateStatusCompleted
	case replica.SlotCreatedBank:
		status = geyserv1.SlotUpdateStatusCreatedBank
	case replica.SlotDead:
		status = geyserv1.SlotUpdateStatusDead
	default:
		return nil, errors.Wrapf(ErrUnsupportedVersion, "slot status %d", int(st.Code))
	}
	var p *uint64
	if parent != nil {
		v := *parent
		p = &v
	}
	return &geyserv1.SlotUpdate{Slot: slot, ParentSlot: p, Status: status}, nil
}

// Entry normalizes an entry notification; the index is widened to uint64.
func Entry(info replica.EntryInfo) (*geyserv1.SlotEntryUpdate, error) {
	var base *replica.EntryInfoV1
	switch e := info.(type) {
	case *replica.EntryInfoV1:
		base = e
	case *replica.EntryInfoV2:
		if e != nil {
			base = &e.EntryInfoV1
		}
	}
	if base == nil {
		return nil, ErrUnsupportedVersion
	}
	return &geyserv1.SlotEntryUpdate{
		Slot:                     base.Slot,
		Index:                    uint64(base.Index),
		ExecutedTransactionCount: base.ExecutedTransactionCount,
	}, nil
}

// Block normalizes block metadata. Counts the version does not report stay nil.
func Block(info replica.BlockInfo) (*geyserv1.BlockUpdate, error) {
	var (
		v1       *replica.BlockInfoV1
		executed *uint64
		entries  *uint64
	)
	switch b := info.(type) {
	case *replica.BlockInfoV1:
		v1 = b
	case *replica.BlockInfoV2:
		if b != nil {
			v1 = &b.BlockInfoV1
			executed = u64(b.ExecutedTransactionCount)
		}
	case *replica.BlockInfoV3:
		if b != nil {
			v1 = &b.BlockInfoV1
			executed = u64(b.ExecutedTransactionCount)
			entries = u64(b.EntryCount)
		}
	case *replica.BlockInfoV4:
		if b != nil {
			v1 = &replica.BlockInfoV1{
				Slot:        b.Slot,
				Blockhash:   b.Blockhash,
				Rewards:     b.Rewards.Rewards,
				BlockTime:   b.BlockTime,
				BlockHeight: b.BlockHeight,
			}
			executed = u64(b.ExecutedTransactionCount)
			entries = u64(b.EntryCount)
		}
	}
	if v1 == nil {
		return nil, ErrUnsupportedVersion
	}
	out := &geyserv1.BlockUpdate{
		Slot:                     v1.Slot,
		Blockhash:                v1.Blockhash,
		Rewards:                  rewards(v1.Rewards),
		ExecutedTransactionCount: executed,
		EntryCount:               entries,
	}
	if v1.BlockTime != nil {
		t := time.Unix(*v1.BlockTime, 0).UTC()
		out.BlockTime = &t
	}
	if v1.BlockHeight != nil {
		out.BlockHeight = u64(*v1.BlockHeight)
	}
	return out, nil
}

// Transaction normalizes a transaction result observed at slot.
func Transaction(info replica.TransactionInfo, slot uint64) (*geyserv1.TransactionUpdate, error) {
	var (
		base *replica.TransactionInfoV1
		idx  = geyserv1.TxIndexUnknown
	)
	switch t := info.(type) {
	case *replica.TransactionInfoV1:
		base = t
	case *replica.TransactionInfoV2:
		if t != nil {
			base = &t.TransactionInfoV1
			idx = uint64(t.Index)
		}
	}
	if base == nil {
		return nil, ErrUnsupportedVersion
	}
	tx := &geyserv1.ConfirmedTransaction{Meta: base.Meta}
	if base.Transaction != nil {
		raw, err := base.Transaction.MarshalBinary()
		if err != nil {
			return nil, errors.Wrap(err, "serialize transaction")
		}
		tx.Transaction = raw
	}
	return &geyserv1.TransactionUpdate{
		Slot:      slot,
		Signature: base.Signature.String(),
		IsVote:    base.IsVote,
		TxIdx:     idx,
		Tx:        tx,
	}, nil
}

func rewards(in []rpc.BlockReward) []geyserv1.Reward {
	out := make([]geyserv1.Reward, 0, len(in))
	for _, r := range in {
		out = append(out, geyserv1.Reward{
			Pubkey:      r.Pubkey.String(),
			Lamports:    r.Lamports,
			PostBalance: r.PostBalance,
			RewardType:  string(r.RewardType),
			Commission:  r.Commission,
		})
	}
	return out
}

func u64(v uint64) *uint64 { return &v }
