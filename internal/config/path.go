package config

import (
	"os"
	"path/filepath"
)

// DefaultPath returns the config file used when none is given: GEYSER_CONFIG
// if set, then the first existing file among the XDG config dir,
// ~/.config/geyserstream and /etc/geyserstream. It returns "" when nothing
// is found.
func DefaultPath() string {
	if p := os.Getenv("GEYSER_CONFIG"); p != "" {
		return p
	}
	var dirs []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dirs = append(dirs, filepath.Join(xdg, "geyserstream"))
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		dirs = append(dirs, filepath.Join(home, ".config", "geyserstream"))
	}
	dirs = append(dirs, "/etc/geyserstream")
	for _, d := range dirs {
		for _, name := range []string{"config.json", "config.yaml", "config.yml"} {
			p := filepath.Join(d, name)
			if isFile(p) {
				return p
			}
		}
	}
	return ""
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
