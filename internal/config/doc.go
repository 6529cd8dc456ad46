// Package config loads the plugin configuration file and overlays GEYSER_*
// environment variables. Keys keep the names validators already use for
// geyser plugin configs (bind_address, *_buffer_size, geyser_service_config).
//
// Example:
//
//	cfg, err := config.Load("/etc/geyserstream/config.json")
//	if err != nil {
//	    return err
//	}
//	config.FromEnv(&cfg)
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
package config
