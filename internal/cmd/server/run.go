package serverrun

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"

	cfgpkg "github.com/rzbill/geyserstream/internal/config"
	"github.com/rzbill/geyserstream/internal/plugin"
	logpkg "github.com/rzbill/geyserstream/pkg/log"
)

type Options struct {
	// ConfigPath is read when Config is nil; empty means config.DefaultPath.
	ConfigPath string
	// Config, when set, is used as is.
	Config *cfgpkg.Config
	// BindAddress and MetricsAddress override the config when set.
	BindAddress    string
	MetricsAddress string
	LogLevel       string
	LogFormat      string
	// Ready is called once the plugin is loaded, before Run blocks.
	Ready func(*plugin.Plugin)
}

// Run loads the relay outside a validator and blocks until ctx is
// cancelled or SIGINT/SIGTERM arrives. The startup gate is opened right
// away since no snapshot replay follows.
func Run(ctx context.Context, opts Options) error {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, path, err := resolveConfig(opts)
	if err != nil {
		return err
	}

	// Build process-wide logger; defaults: level=info, format=text
	logCfg := &logpkg.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}
	procLogger, err := logpkg.ApplyConfig(logCfg)
	if err != nil {
		return errors.Wrap(cfgpkg.ErrInvalid, err.Error())
	}
	// Redirect stdlib logs (e.g. grpc-go) to our logger
	logpkg.RedirectStdLog(procLogger)

	procLogger.Info("Starting geyser relay",
		logpkg.Str("config", path),
		logpkg.Str("grpc", cfg.BindAddress),
		logpkg.Str("metrics", cfg.MetricsAddress),
		logpkg.Str("level", logCfg.Level),
		logpkg.Str("format", logCfg.Format),
		logpkg.Int("sub_buf", cfg.Service.SubscriberBufferSize),
	)

	p := plugin.New(plugin.WithLogger(procLogger))
	if err := p.Load(cfg); err != nil {
		return err
	}
	if err := p.NotifyEndOfStartup(); err != nil {
		_ = p.Unload()
		return err
	}
	if opts.Ready != nil {
		opts.Ready(p)
	}

	<-sctx.Done()
	procLogger.Info("Stopping geyser relay")
	return p.Unload()
}

func resolveConfig(opts Options) (cfgpkg.Config, string, error) {
	var (
		cfg  cfgpkg.Config
		path = opts.ConfigPath
	)
	if opts.Config != nil {
		cfg = *opts.Config
		path = ""
	} else {
		if path == "" {
			path = cfgpkg.DefaultPath()
		}
		if path == "" {
			cfg = cfgpkg.Default()
		} else {
			loaded, err := cfgpkg.Load(path)
			if err != nil {
				return cfg, path, err
			}
			cfg = loaded
		}
		cfgpkg.FromEnv(&cfg)
	}
	if opts.BindAddress != "" {
		cfg.BindAddress = opts.BindAddress
	}
	if opts.MetricsAddress != "" {
		cfg.MetricsAddress = opts.MetricsAddress
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if opts.LogFormat != "" {
		cfg.LogFormat = opts.LogFormat
	}
	return cfg, path, nil
}
