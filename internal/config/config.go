package config

import (
	"encoding/json"
	"net"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// DefaultSlotEntryBufferSize applies when slot_entry_update_buffer_size is
// omitted or is not a non-negative integer.
const DefaultSlotEntryBufferSize = 1_000_000

// Config is the plugin configuration file.
type Config struct {
	// BindAddress is the gRPC listen address, e.g. "0.0.0.0:10000".
	BindAddress string `json:"bind_address" yaml:"bind_address"`

	AccountUpdateBufferSize     int `json:"account_update_buffer_size" yaml:"account_update_buffer_size"`
	SlotUpdateBufferSize        int `json:"slot_update_buffer_size" yaml:"slot_update_buffer_size"`
	SlotEntryUpdateBufferSize   int `json:"slot_entry_update_buffer_size" yaml:"slot_entry_update_buffer_size"`
	BlockUpdateBufferSize       int `json:"block_update_buffer_size" yaml:"block_update_buffer_size"`
	TransactionUpdateBufferSize int `json:"transaction_update_buffer_size" yaml:"transaction_update_buffer_size"`

	// SkipStartupStream drops startup account updates until the host
	// signals the end of startup.
	SkipStartupStream bool `json:"skip_startup_stream" yaml:"skip_startup_stream"`
	// AccountDataNotificationsEnabled is reported to the host, which stops
	// sending account writes when it is false.
	AccountDataNotificationsEnabled bool `json:"account_data_notifications_enabled" yaml:"account_data_notifications_enabled"`

	// MetricsAddress serves /metrics and /v1/healthz when set.
	MetricsAddress string `json:"metrics_address,omitempty" yaml:"metrics_address,omitempty"`
	LogLevel       string `json:"log_level,omitempty" yaml:"log_level,omitempty"`
	LogFormat      string `json:"log_format,omitempty" yaml:"log_format,omitempty"`

	Service ServiceConfig `json:"geyser_service_config" yaml:"geyser_service_config"`
}

// ServiceConfig configures the streaming service.
type ServiceConfig struct {
	// HeartbeatIntervalMs is the keep-alive period; 0 disables heartbeats.
	HeartbeatIntervalMs uint64 `json:"heartbeat_interval_ms" yaml:"heartbeat_interval_ms"`
	// SubscriberBufferSize bounds each subscriber's queue.
	SubscriberBufferSize int `json:"subscriber_buffer_size" yaml:"subscriber_buffer_size"`
	// AccessToken, when set, must accompany every geyser RPC.
	AccessToken string     `json:"access_token,omitempty" yaml:"access_token,omitempty"`
	TLS         *TLSConfig `json:"tls_config,omitempty" yaml:"tls_config,omitempty"`
}

// TLSConfig names the server identity files.
type TLSConfig struct {
	CertPath string `json:"cert_path" yaml:"cert_path"`
	KeyPath  string `json:"key_path" yaml:"key_path"`
}

// Default returns the optional-field defaults. Required fields stay unset.
func Default() Config {
	return Config{
		SlotEntryUpdateBufferSize:       DefaultSlotEntryBufferSize,
		AccountDataNotificationsEnabled: true,
		Service: ServiceConfig{
			HeartbeatIntervalMs:  0,
			SubscriberBufferSize: 1024,
		},
	}
}

// Load reads configuration from a JSON or YAML file (by extension) over
// Default. Unknown keys such as the host's "libpath" are ignored.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config")
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = decodeYAML(b, &cfg)
	default:
		err = decodeJSON(b, &cfg)
	}
	if err != nil {
		return Config{}, errors.Wrapf(ErrInvalid, "parse %s: %v", path, err)
	}
	return cfg, nil
}

// lenientKey falls back to its default instead of failing the whole file
// when the value has the wrong type.
const lenientKey = "slot_entry_update_buffer_size"

func decodeJSON(b []byte, cfg *Config) error {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(b, &top); err != nil {
		return err
	}
	if raw, ok := top[lenientKey]; ok {
		var n uint64
		if json.Unmarshal(raw, &n) != nil {
			delete(top, lenientKey)
			fixed, err := json.Marshal(top)
			if err != nil {
				return err
			}
			b = fixed
		}
	}
	return json.Unmarshal(b, cfg)
}

func decodeYAML(b []byte, cfg *Config) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return err
	}
	if len(doc.Content) == 0 {
		return nil
	}
	root := doc.Content[0]
	if root.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(root.Content); i += 2 {
			if root.Content[i].Value != lenientKey {
				continue
			}
			var n uint64
			if root.Content[i+1].Decode(&n) != nil {
				root.Content = append(root.Content[:i], root.Content[i+2:]...)
			}
			break
		}
	}
	return root.Decode(cfg)
}

// Validate checks required fields and value ranges.
func (c Config) Validate() error {
	if c.BindAddress == "" {
		return errors.Wrap(ErrInvalid, "bind_address is required")
	}
	if _, _, err := net.SplitHostPort(c.BindAddress); err != nil {
		return errors.Wrapf(ErrInvalid, "bind_address %q: %v", c.BindAddress, err)
	}
	sizes := []struct {
		name string
		v    int
	}{
		{"account_update_buffer_size", c.AccountUpdateBufferSize},
		{"slot_update_buffer_size", c.SlotUpdateBufferSize},
		{"slot_entry_update_buffer_size", c.SlotEntryUpdateBufferSize},
		{"block_update_buffer_size", c.BlockUpdateBufferSize},
		{"transaction_update_buffer_size", c.TransactionUpdateBufferSize},
		{"geyser_service_config.subscriber_buffer_size", c.Service.SubscriberBufferSize},
	}
	for _, s := range sizes {
		if s.v <= 0 {
			return errors.Wrapf(ErrInvalid, "%s must be > 0", s.name)
		}
	}
	if t := c.Service.TLS; t != nil && (t.CertPath == "" || t.KeyPath == "") {
		return errors.Wrap(ErrInvalid, "tls_config needs cert_path and key_path")
	}
	if c.MetricsAddress != "" {
		if _, _, err := net.SplitHostPort(c.MetricsAddress); err != nil {
			return errors.Wrapf(ErrInvalid, "metrics_address %q: %v", c.MetricsAddress, err)
		}
	}
	return nil
}
