package config

import (
	"os"
	"strconv"
)

// FromEnv overlays GEYSER_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("GEYSER_BIND_ADDRESS"); v != "" {
		cfg.BindAddress = v
	}
	setInt(&cfg.AccountUpdateBufferSize, "GEYSER_ACCOUNT_UPDATE_BUFFER_SIZE")
	setInt(&cfg.SlotUpdateBufferSize, "GEYSER_SLOT_UPDATE_BUFFER_SIZE")
	setInt(&cfg.SlotEntryUpdateBufferSize, "GEYSER_SLOT_ENTRY_UPDATE_BUFFER_SIZE")
	setInt(&cfg.BlockUpdateBufferSize, "GEYSER_BLOCK_UPDATE_BUFFER_SIZE")
	setInt(&cfg.TransactionUpdateBufferSize, "GEYSER_TRANSACTION_UPDATE_BUFFER_SIZE")
	setBool(&cfg.SkipStartupStream, "GEYSER_SKIP_STARTUP_STREAM")
	setBool(&cfg.AccountDataNotificationsEnabled, "GEYSER_ACCOUNT_DATA_NOTIFICATIONS_ENABLED")
	if v := os.Getenv("GEYSER_METRICS_ADDRESS"); v != "" {
		cfg.MetricsAddress = v
	}
	if v := os.Getenv("GEYSER_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("GEYSER_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("GEYSER_HEARTBEAT_INTERVAL_MS"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Service.HeartbeatIntervalMs = n
		}
	}
	setInt(&cfg.Service.SubscriberBufferSize, "GEYSER_SUBSCRIBER_BUFFER_SIZE")
	if v := os.Getenv("GEYSER_ACCESS_TOKEN"); v != "" {
		cfg.Service.AccessToken = v
	}
	cert, key := os.Getenv("GEYSER_TLS_CERT_PATH"), os.Getenv("GEYSER_TLS_KEY_PATH")
	if cert != "" || key != "" {
		cfg.Service.TLS = &TLSConfig{CertPath: cert, KeyPath: key}
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
