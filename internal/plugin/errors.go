package plugin

import (
	"github.com/pkg/errors"
)

var (
	// ErrNotLoaded is returned by callbacks before Load or after Unload.
	ErrNotLoaded = errors.New("plugin not loaded")
	// ErrAlreadyLoaded is returned by a second Load without Unload.
	ErrAlreadyLoaded = errors.New("plugin already loaded")
)

// ErrorKind classifies fatal callback errors the way the host reports them.
type ErrorKind int

const (
	AccountsUpdateError ErrorKind = iota
	SlotStatusUpdateError
	TransactionUpdateError
	CustomError
)

func (k ErrorKind) String() string {
	switch k {
	case AccountsUpdateError:
		return "accounts update error"
	case SlotStatusUpdateError:
		return "slot status update error"
	case TransactionUpdateError:
		return "transaction update error"
	default:
		return "custom error"
	}
}

// Error is a fatal callback failure. The host should unload the plugin.
type Error struct {
	Kind ErrorKind
	Msg  string
	err  error
}

func (e *Error) Error() string { return e.Kind.String() + ": " + e.Msg }

func (e *Error) Unwrap() error { return e.err }
