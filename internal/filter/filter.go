// Package filter compiles subscription filters for account and transaction
// streams. Filters combine static key sets with an optional CEL expression.
//
// Account expressions see: slot, pubkey, owner (base58 strings), lamports,
// executable, data_len, write_version and is_startup.
// Transaction expressions see: slot, signature, is_vote, tx_idx (-1 when the
// host did not report a position) and failed.
package filter

import (
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	geyserv1 "github.com/rzbill/geyserstream/api/geyser/v1"
)

// ErrInvalid wraps every filter compilation error.
var ErrInvalid = errors.New("invalid subscription filter")

// celProgram wraps a compiled CEL program. A disabled program accepts
// everything.
type celProgram struct {
	prog    cel.Program
	enabled bool
}

func compile(expr string, vars ...cel.EnvOption) (celProgram, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return celProgram{}, nil
	}
	env, err := cel.NewEnv(vars...)
	if err != nil {
		return celProgram{}, err
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return celProgram{}, errors.Wrap(ErrInvalid, iss.Err().Error())
	}
	if t := ast.OutputType().String(); t != "bool" {
		return celProgram{}, errors.Wrapf(ErrInvalid, "expression must be bool, got %s", t)
	}
	prog, err := env.Program(ast)
	if err != nil {
		return celProgram{}, errors.Wrap(ErrInvalid, err.Error())
	}
	return celProgram{prog: prog, enabled: true}, nil
}

// eval treats evaluation errors as a non-match.
func (p celProgram) eval(vars map[string]any) bool {
	if !p.enabled {
		return true
	}
	out, _, err := p.prog.Eval(vars)
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}

// Account matches account updates.
type Account struct {
	accounts map[string]struct{}
	owners   map[string]struct{}
	skipData bool
	prog     celProgram
}

// NewAccount compiles an account subscription request.
func NewAccount(req *geyserv1.SubscribeAccountUpdatesRequest) (*Account, error) {
	f := &Account{}
	if req == nil {
		return f, nil
	}
	var err error
	if f.accounts, err = keySet(req.Accounts); err != nil {
		return nil, errors.Wrap(err, "accounts")
	}
	if f.owners, err = keySet(req.Owners); err != nil {
		return nil, errors.Wrap(err, "owners")
	}
	f.skipData = req.SkipData
	f.prog, err = compile(req.Filter,
		cel.Variable("slot", cel.IntType),
		cel.Variable("pubkey", cel.StringType),
		cel.Variable("owner", cel.StringType),
		cel.Variable("lamports", cel.IntType),
		cel.Variable("executable", cel.BoolType),
		cel.Variable("data_len", cel.IntType),
		cel.Variable("write_version", cel.IntType),
		cel.Variable("is_startup", cel.BoolType),
	)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// SkipData reports whether delivered updates should omit account data.
func (f *Account) SkipData() bool { return f.skipData }

// Match reports whether m passes the filter.
func (f *Account) Match(m *geyserv1.TimestampedAccountUpdate) bool {
	u := m.AccountUpdate
	if u == nil {
		return true
	}
	if f.accounts != nil {
		if _, ok := f.accounts[string(u.Pubkey)]; !ok {
			return false
		}
	}
	if f.owners != nil {
		if _, ok := f.owners[string(u.Owner)]; !ok {
			return false
		}
	}
	if !f.prog.enabled {
		return true
	}
	return f.prog.eval(map[string]any{
		"slot":          int64(u.Slot),
		"pubkey":        base58.Encode(u.Pubkey),
		"owner":         base58.Encode(u.Owner),
		"lamports":      int64(u.Lamports),
		"executable":    u.IsExecutable,
		"data_len":      int64(len(u.Data)),
		"write_version": int64(u.Seq),
		"is_startup":    u.IsStartup,
	})
}

// Transaction matches transaction updates.
type Transaction struct {
	excludeVotes bool
	prog         celProgram
}

// NewTransaction compiles a transaction subscription request.
func NewTransaction(req *geyserv1.SubscribeTransactionUpdatesRequest) (*Transaction, error) {
	f := &Transaction{}
	if req == nil {
		return f, nil
	}
	f.excludeVotes = req.ExcludeVotes
	var err error
	f.prog, err = compile(req.Filter,
		cel.Variable("slot", cel.IntType),
		cel.Variable("signature", cel.StringType),
		cel.Variable("is_vote", cel.BoolType),
		cel.Variable("tx_idx", cel.IntType),
		cel.Variable("failed", cel.BoolType),
	)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Match reports whether m passes the filter.
func (f *Transaction) Match(m *geyserv1.TimestampedTransactionUpdate) bool {
	u := m.Transaction
	if u == nil {
		return true
	}
	if f.excludeVotes && u.IsVote {
		return false
	}
	if !f.prog.enabled {
		return true
	}
	idx := int64(-1)
	if u.TxIdx != geyserv1.TxIndexUnknown {
		idx = int64(u.TxIdx)
	}
	return f.prog.eval(map[string]any{
		"slot":      int64(u.Slot),
		"signature": u.Signature,
		"is_vote":   u.IsVote,
		"tx_idx":    idx,
		"failed":    u.Tx != nil && u.Tx.Meta != nil && u.Tx.Meta.Err != nil,
	})
}

// keySet decodes base58 public keys. An empty list yields a nil set, which
// matches everything.
func keySet(keys []string) (map[string]struct{}, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		raw, err := base58.Decode(strings.TrimSpace(k))
		if err != nil {
			return nil, errors.Wrapf(ErrInvalid, "key %q: %v", k, err)
		}
		if len(raw) != 32 {
			return nil, errors.Wrapf(ErrInvalid, "key %q decodes to %d bytes", k, len(raw))
		}
		set[string(raw)] = struct{}{}
	}
	return set, nil
}
