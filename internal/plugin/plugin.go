package plugin

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	geyserv1 "github.com/rzbill/geyserstream/api/geyser/v1"
	"github.com/rzbill/geyserstream/internal/config"
	"github.com/rzbill/geyserstream/internal/ingest"
	"github.com/rzbill/geyserstream/internal/metrics"
	"github.com/rzbill/geyserstream/internal/progress"
	"github.com/rzbill/geyserstream/internal/replica"
	"github.com/rzbill/geyserstream/internal/runtime"
	"github.com/rzbill/geyserstream/internal/updates"
	logpkg "github.com/rzbill/geyserstream/pkg/log"
)

// Name is reported to the host.
const Name = "geyserstream"

// GeyserPlugin is the callback contract the host loader drives.
type GeyserPlugin interface {
	Name() string
	OnLoad(configPath string, isReload bool) error
	OnUnload()
	NotifyEndOfStartup() error
	UpdateAccount(info replica.AccountInfo, slot uint64, isStartup bool) error
	UpdateSlotStatus(slot uint64, parent *uint64, status replica.SlotStatus) error
	NotifyTransaction(info replica.TransactionInfo, slot uint64) error
	NotifyBlockMetadata(info replica.BlockInfo) error
	NotifyEntry(info replica.EntryInfo) error
	AccountDataNotificationsEnabled() bool
	TransactionNotificationsEnabled() bool
	EntryNotificationsEnabled() bool
}

var _ GeyserPlugin = (*Plugin)(nil)

// Option configures a Plugin.
type Option func(*Plugin)

// WithLogger sets the logger used until a config supplies its own level or
// format.
func WithLogger(l logpkg.Logger) Option { return func(p *Plugin) { p.logger = l } }

// WithShutdownTimeout bounds how long Unload waits for serving tasks.
func WithShutdownTimeout(d time.Duration) Option { return func(p *Plugin) { p.shutdownTimeout = d } }

// Plugin implements GeyserPlugin.
type Plugin struct {
	logger          logpkg.Logger
	shutdownTimeout time.Duration

	// lifecycle serializes Load and Unload; callbacks only read inst.
	lifecycle sync.Mutex
	inst      atomic.Pointer[instance]
}

// instance is the state of one loaded lifetime.
type instance struct {
	rt              *runtime.Runtime
	ch              *ingest.Set
	highWater       *progress.HighWaterSlot
	gate            *progress.StartupGate
	metrics         *metrics.Metrics
	accountsEnabled bool
	logger          logpkg.Logger
	// warned is built at load and only read afterwards.
	warned map[dropKey]*atomic.Bool
}

type dropKey struct {
	category updates.Category
	reason   metrics.DropReason
}

func newWarned() map[dropKey]*atomic.Bool {
	m := make(map[dropKey]*atomic.Bool)
	for _, c := range updates.Categories {
		for _, r := range []metrics.DropReason{metrics.DropFull, metrics.DropInvalid, metrics.DropUnsupported} {
			m[dropKey{c, r}] = new(atomic.Bool)
		}
	}
	return m
}

// New returns an unloaded plugin.
func New(opts ...Option) *Plugin {
	p := &Plugin{}
	for _, o := range opts {
		o(p)
	}
	if p.logger == nil {
		p.logger = logpkg.NewLogger()
	}
	return p
}

func (p *Plugin) Name() string { return Name }

// OnLoad reads the config file, overlays GEYSER_* variables and loads.
func (p *Plugin) OnLoad(configPath string, isReload bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	config.FromEnv(&cfg)
	p.logger.Info("loading plugin", logpkg.Str("config", configPath), logpkg.Bool("reload", isReload))
	return p.Load(cfg)
}

// Load builds the serving runtime from cfg and starts it. On error the
// plugin stays unloaded.
func (p *Plugin) Load(cfg config.Config) error {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()
	if p.inst.Load() != nil {
		return ErrAlreadyLoaded
	}
	logger := p.logger
	if cfg.LogLevel != "" || cfg.LogFormat != "" {
		l, err := logpkg.ApplyConfig(&logpkg.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
		if err != nil {
			return errors.Wrap(config.ErrInvalid, err.Error())
		}
		logger = l
	}
	logger = logger.With(logpkg.Component("plugin"))

	rt, err := runtime.Open(runtime.Options{Config: cfg, Logger: logger, ShutdownTimeout: p.shutdownTimeout})
	if err != nil {
		logger.Error("load failed", logpkg.Err(err))
		return err
	}
	rt.Start()
	p.inst.Store(&instance{
		rt:              rt,
		ch:              rt.Channels(),
		highWater:       rt.HighWater(),
		gate:            progress.NewStartupGate(cfg.SkipStartupStream),
		metrics:         rt.Metrics(),
		accountsEnabled: cfg.AccountDataNotificationsEnabled,
		logger:          logger,
		warned:          newWarned(),
	})
	logger.Info("plugin loaded",
		logpkg.Str("grpc", rt.GRPCAddr()),
		logpkg.Bool("skip_startup_stream", cfg.SkipStartupStream),
		logpkg.Bool("account_notifications", cfg.AccountDataNotificationsEnabled),
	)
	return nil
}

// Unload stops the runtime and returns to the unloaded state.
func (p *Plugin) Unload() error {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()
	in := p.inst.Swap(nil)
	if in == nil {
		return ErrNotLoaded
	}
	err := in.rt.Close()
	in.logger.Info("plugin unloaded", logpkg.Uint64("highest_write_slot", in.highWater.Load()))
	return err
}

// OnUnload is the host hook; errors are logged since the host ignores them.
func (p *Plugin) OnUnload() {
	if err := p.Unload(); err != nil && !errors.Is(err, ErrNotLoaded) {
		p.logger.Warn("unload", logpkg.Err(err))
	}
}

// Loaded reports whether the plugin is in the loaded state.
func (p *Plugin) Loaded() bool { return p.inst.Load() != nil }

// Runtime returns the loaded runtime, or nil when unloaded.
func (p *Plugin) Runtime() *runtime.Runtime {
	if in := p.inst.Load(); in != nil {
		return in.rt
	}
	return nil
}

// NotifyEndOfStartup opens the startup gate. Repeated calls are no-ops.
func (p *Plugin) NotifyEndOfStartup() error {
	in := p.inst.Load()
	if in == nil {
		return ErrNotLoaded
	}
	if in.gate.Open() {
		in.logger.Info("startup complete", logpkg.Uint64("highest_write_slot", in.highWater.Load()))
	}
	return nil
}

// UpdateAccount handles an account write.
func (p *Plugin) UpdateAccount(info replica.AccountInfo, slot uint64, isStartup bool) error {
	in := p.inst.Load()
	if in == nil {
		return ErrNotLoaded
	}
	if isStartup && in.gate.Suppressing() {
		in.drop(updates.CategoryAccount, metrics.DropStartup, nil)
		return nil
	}
	u, err := updates.Account(info, slot, isStartup)
	if err != nil {
		in.drop(updates.CategoryAccount, metrics.DropUnsupported, err)
		return nil
	}
	if err := updates.ValidateAccount(u); err != nil {
		in.drop(updates.CategoryAccount, metrics.DropInvalid, err)
		return nil
	}
	in.highWater.Observe(slot)
	err = in.ch.Accounts.TrySend(&geyserv1.TimestampedAccountUpdate{Ts: time.Now(), AccountUpdate: u})
	return in.result(updates.CategoryAccount, err, AccountsUpdateError, "account update channel disconnected")
}

// UpdateSlotStatus handles a slot transition.
func (p *Plugin) UpdateSlotStatus(slot uint64, parent *uint64, status replica.SlotStatus) error {
	in := p.inst.Load()
	if in == nil {
		return ErrNotLoaded
	}
	u, err := updates.Slot(slot, parent, status)
	if err != nil {
		in.drop(updates.CategorySlot, metrics.DropUnsupported, err)
		return nil
	}
	err = in.ch.Slots.TrySend(&geyserv1.TimestampedSlotUpdate{Ts: time.Now(), SlotUpdate: u})
	return in.result(updates.CategorySlot, err, SlotStatusUpdateError, "slot update channel disconnected")
}

// NotifyTransaction handles a transaction result.
func (p *Plugin) NotifyTransaction(info replica.TransactionInfo, slot uint64) error {
	in := p.inst.Load()
	if in == nil {
		return ErrNotLoaded
	}
	u, err := updates.Transaction(info, slot)
	if err != nil {
		in.drop(updates.CategoryTransaction, metrics.DropUnsupported, err)
		return nil
	}
	err = in.ch.Transactions.TrySend(&geyserv1.TimestampedTransactionUpdate{Ts: time.Now(), Transaction: u})
	return in.result(updates.CategoryTransaction, err, TransactionUpdateError, "transaction update channel disconnected")
}

// NotifyBlockMetadata handles block metadata.
func (p *Plugin) NotifyBlockMetadata(info replica.BlockInfo) error {
	in := p.inst.Load()
	if in == nil {
		return ErrNotLoaded
	}
	u, err := updates.Block(info)
	if err != nil {
		in.drop(updates.CategoryBlock, metrics.DropUnsupported, err)
		return nil
	}
	err = in.ch.Blocks.TrySend(&geyserv1.TimestampedBlockUpdate{Ts: time.Now(), BlockUpdate: u})
	return in.result(updates.CategoryBlock, err, CustomError, "block update channel disconnected")
}

// NotifyEntry handles an entry notification.
func (p *Plugin) NotifyEntry(info replica.EntryInfo) error {
	in := p.inst.Load()
	if in == nil {
		return ErrNotLoaded
	}
	u, err := updates.Entry(info)
	if err != nil {
		in.drop(updates.CategoryEntry, metrics.DropUnsupported, err)
		return nil
	}
	err = in.ch.Entries.TrySend(&geyserv1.TimestampedSlotEntryUpdate{Ts: time.Now(), EntryUpdate: u})
	return in.result(updates.CategoryEntry, err, SlotStatusUpdateError, "entry update channel disconnected")
}

// AccountDataNotificationsEnabled reports the configured flag; false while
// unloaded.
func (p *Plugin) AccountDataNotificationsEnabled() bool {
	in := p.inst.Load()
	return in != nil && in.accountsEnabled
}

func (p *Plugin) TransactionNotificationsEnabled() bool { return true }

func (p *Plugin) EntryNotificationsEnabled() bool { return true }

// result maps a TrySend outcome to what the host sees.
func (in *instance) result(c updates.Category, err error, kind ErrorKind, msg string) error {
	switch {
	case err == nil:
		in.metrics.Received(c)
		return nil
	case errors.Is(err, ingest.ErrFull):
		in.drop(c, metrics.DropFull, nil)
		return nil
	default:
		in.logger.Error(msg, logpkg.Str("category", string(c)), logpkg.Err(err))
		return &Error{Kind: kind, Msg: msg, err: err}
	}
}

// drop counts a dropped record. The first drop per category and reason is
// logged at warn, the rest at debug.
func (in *instance) drop(c updates.Category, reason metrics.DropReason, cause error) {
	in.metrics.Dropped(c, reason)
	if reason == metrics.DropStartup {
		return
	}
	if w, ok := in.warned[dropKey{c, reason}]; ok && w.CompareAndSwap(false, true) {
		in.logger.Warn("dropping notifications", logpkg.Str("category", string(c)), logpkg.Str("reason", string(reason)), logpkg.Err(cause))
		return
	}
	if in.logger.Enabled(logpkg.DebugLevel) {
		in.logger.Debug("notification dropped", logpkg.Str("category", string(c)), logpkg.Str("reason", string(reason)), logpkg.Err(cause))
	}
}
