package updates

import (
	"bytes"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	geyserv1 "github.com/rzbill/geyserstream/api/geyser/v1"
	"github.com/rzbill/geyserstream/internal/replica"
)

func key(b byte) []byte { return bytes.Repeat([]byte{b}, KeyLen) }

func baseAccount() replica.AccountInfoV1 {
	return replica.AccountInfoV1{
		Pubkey:       key(1),
		Lamports:     42,
		Owner:        key(2),
		Executable:   true,
		RentEpoch:    7,
		Data:         []byte("data"),
		WriteVersion: 99,
	}
}

func TestAccountVersions(t *testing.T) {
	sig := solana.Signature{1, 2, 3}
	v1 := baseAccount()
	cases := []struct {
		name    string
		info    replica.AccountInfo
		version uint32
		sig     *string
	}{
		{"v1", &v1, 1, nil},
		{"v2 without signature", &replica.AccountInfoV2{AccountInfoV1: baseAccount()}, 2, nil},
		{"v2", &replica.AccountInfoV2{AccountInfoV1: baseAccount(), TxnSignature: &sig}, 2, strp(sig.String())},
		{"v3", &replica.AccountInfoV3{AccountInfoV1: baseAccount(), Txn: &solana.Transaction{Signatures: []solana.Signature{sig}}}, 2, strp(sig.String())},
		{"v3 without transaction", &replica.AccountInfoV3{AccountInfoV1: baseAccount()}, 2, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u, err := Account(tc.info, 10, true)
			if err != nil {
				t.Fatalf("normalize: %v", err)
			}
			if u.Slot != 10 || u.Lamports != 42 || !u.IsExecutable || u.RentEpoch != 7 || u.Seq != 99 || !u.IsStartup {
				t.Fatalf("fields not copied: %+v", u)
			}
			if !bytes.Equal(u.Pubkey, key(1)) || !bytes.Equal(u.Owner, key(2)) || string(u.Data) != "data" {
				t.Fatalf("bytes not copied: %+v", u)
			}
			if u.ReplicaVersion != tc.version {
				t.Fatalf("replica version: want %d got %d", tc.version, u.ReplicaVersion)
			}
			switch {
			case tc.sig == nil && u.TxSignature != nil:
				t.Fatalf("unexpected signature %q", *u.TxSignature)
			case tc.sig != nil && (u.TxSignature == nil || *u.TxSignature != *tc.sig):
				t.Fatalf("signature mismatch: %v", u.TxSignature)
			}
		})
	}
}

func TestAccountCopiesHostBuffers(t *testing.T) {
	info := baseAccount()
	u, err := Account(&info, 1, false)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	copy(info.Data, "XXXX")
	info.Pubkey[0] = 0xff
	info.Owner[0] = 0xff
	if string(u.Data) != "data" || !bytes.Equal(u.Pubkey, key(1)) || !bytes.Equal(u.Owner, key(2)) {
		t.Fatalf("record aliases host buffers: %+v", u)
	}
}

func TestAccountUnsupported(t *testing.T) {
	var nilV2 *replica.AccountInfoV2
	for _, info := range []replica.AccountInfo{nil, nilV2} {
		if _, err := Account(info, 1, false); !errors.Is(err, ErrUnsupportedVersion) {
			t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
		}
	}
}

func TestValidateAccountKeyLengths(t *testing.T) {
	cases := []struct {
		pubkey, owner []byte
		ok            bool
	}{
		{key(1), key(2), true},
		{key(1)[:31], key(2), false},
		{key(1), append(key(2), 0), false},
		{nil, key(2), false},
		{key(1), nil, false},
	}
	for i, tc := range cases {
		err := ValidateAccount(&geyserv1.AccountUpdate{Pubkey: tc.pubkey, Owner: tc.owner})
		if tc.ok && err != nil {
			t.Fatalf("case %d: unexpected error %v", i, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("case %d: expected ErrInvalidKey, got %v", i, err)
		}
	}
}

func TestSlotStatusMapping(t *testing.T) {
	cases := map[replica.SlotStatusCode]geyserv1.SlotUpdateStatus{
		replica.SlotProcessed:          geyserv1.SlotUpdateStatusProcessed,
		replica.SlotConfirmed:          geyserv1.SlotUpdateStatusConfirmed,
		replica.SlotRooted:             geyserv1.SlotUpdateStatusRooted,
		replica.SlotFirstShredReceived: geyserv1.SlotUpdateStatusFirstShredReceived,
		replica.SlotCompleted:          geyserv1.SlotUpdateStatusCompleted,
		replica.SlotCreatedBank:        geyserv1.SlotUpdateStatusCreatedBank,
		replica.SlotDead:               geyserv1.SlotUpdateStatusDead,
	}
	parent := uint64(4)
	for code, want := range cases {
		u, err := Slot(5, &parent, replica.SlotStatus{Code: code})
		if err != nil {
			t.Fatalf("code %d: %v", code, err)
		}
		if u.Status != want || u.Slot != 5 || u.ParentSlot == nil || *u.ParentSlot != 4 {
			t.Fatalf("code %d: unexpected %+v", code, u)
		}
	}
	u, err := Slot(6, nil, replica.Dead("bank hash mismatch"))
	if err != nil || u.Status != geyserv1.SlotUpdateStatusDead || u.ParentSlot != nil {
		t.Fatalf("dead: %+v %v", u, err)
	}
	if _, err := Slot(1, nil, replica.SlotStatus{Code: 100}); !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected unsupported status error, got %v", err)
	}
}

func TestEntryWidensIndex(t *testing.T) {
	for _, info := range []replica.EntryInfo{
		&replica.EntryInfoV1{Slot: 3, Index: 17, ExecutedTransactionCount: 5},
		&replica.EntryInfoV2{EntryInfoV1: replica.EntryInfoV1{Slot: 3, Index: 17, ExecutedTransactionCount: 5}, StartingTransactionIndex: 40},
	} {
		u, err := Entry(info)
		if err != nil {
			t.Fatalf("entry: %v", err)
		}
		if u.Slot != 3 || u.Index != 17 || u.ExecutedTransactionCount != 5 {
			t.Fatalf("unexpected %+v", u)
		}
	}
}

func TestBlockOptionalFields(t *testing.T) {
	bt := int64(1700000000)
	height := uint64(88)
	commission := uint8(5)
	rw := []rpc.BlockReward{{Pubkey: solana.PublicKey{9}, Lamports: -3, PostBalance: 10, RewardType: rpc.RewardTypeVoting, Commission: &commission}}
	v1 := replica.BlockInfoV1{Slot: 1, Blockhash: "hash", Rewards: rw, BlockTime: &bt, BlockHeight: &height}

	cases := []struct {
		name              string
		info              replica.BlockInfo
		executed, entries *uint64
	}{
		{"v1", &v1, nil, nil},
		{"v2", &replica.BlockInfoV2{BlockInfoV1: v1, ExecutedTransactionCount: 0}, u64(0), nil},
		{"v3", &replica.BlockInfoV3{BlockInfoV2: replica.BlockInfoV2{BlockInfoV1: v1, ExecutedTransactionCount: 4}, EntryCount: 2}, u64(4), u64(2)},
		{"v4", &replica.BlockInfoV4{
			Slot: 1, Blockhash: "hash", BlockTime: &bt, BlockHeight: &height,
			Rewards:                  replica.RewardsAndNumPartitions{Rewards: rw},
			ExecutedTransactionCount: 4, EntryCount: 2,
		}, u64(4), u64(2)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u, err := Block(tc.info)
			if err != nil {
				t.Fatalf("block: %v", err)
			}
			if u.Slot != 1 || u.Blockhash != "hash" || u.BlockHeight == nil || *u.BlockHeight != 88 {
				t.Fatalf("unexpected %+v", u)
			}
			if u.BlockTime == nil || u.BlockTime.Unix() != bt {
				t.Fatalf("block time: %v", u.BlockTime)
			}
			if len(u.Rewards) != 1 || u.Rewards[0].Lamports != -3 || u.Rewards[0].RewardType != "Voting" || *u.Rewards[0].Commission != 5 {
				t.Fatalf("rewards: %+v", u.Rewards)
			}
			if !eqPtr(u.ExecutedTransactionCount, tc.executed) || !eqPtr(u.EntryCount, tc.entries) {
				t.Fatalf("optional counts: executed=%v entries=%v", u.ExecutedTransactionCount, u.EntryCount)
			}
		})
	}
}

func TestBlockWithoutTimeOrHeight(t *testing.T) {
	u, err := Block(&replica.BlockInfoV1{Slot: 2})
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	if u.BlockTime != nil || u.BlockHeight != nil || u.Rewards == nil || len(u.Rewards) != 0 {
		t.Fatalf("absent fields must stay absent: %+v", u)
	}
}

func TestTransactionIndex(t *testing.T) {
	sig := solana.Signature{7}
	v1 := replica.TransactionInfoV1{Signature: sig, IsVote: true, Meta: &rpc.TransactionMeta{Fee: 5000}}
	u, err := Transaction(&v1, 12)
	if err != nil {
		t.Fatalf("v1: %v", err)
	}
	if u.TxIdx != geyserv1.TxIndexUnknown || u.Slot != 12 || !u.IsVote || u.Signature != sig.String() {
		t.Fatalf("v1 unexpected %+v", u)
	}
	if u.Tx == nil || u.Tx.Meta == nil || u.Tx.Meta.Fee != 5000 || u.Tx.Transaction != nil {
		t.Fatalf("v1 payload %+v", u.Tx)
	}

	u, err = Transaction(&replica.TransactionInfoV2{TransactionInfoV1: v1, Index: 3}, 12)
	if err != nil {
		t.Fatalf("v2: %v", err)
	}
	if u.TxIdx != 3 {
		t.Fatalf("v2 index: %d", u.TxIdx)
	}
}

func TestTransactionSerializesPayload(t *testing.T) {
	sig := solana.Signature{8}
	tx := &solana.Transaction{
		Signatures: []solana.Signature{sig},
		Message: solana.Message{
			Header:      solana.MessageHeader{NumRequiredSignatures: 1},
			AccountKeys: []solana.PublicKey{{1}},
		},
	}
	u, err := Transaction(&replica.TransactionInfoV2{TransactionInfoV1: replica.TransactionInfoV1{Signature: sig, Transaction: tx}}, 1)
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
	if len(u.Tx.Transaction) == 0 {
		t.Fatalf("expected serialized transaction bytes")
	}
}

func strp(s string) *string { return &s }

func eqPtr(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
