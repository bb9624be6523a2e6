package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/mrnavastar/yagua/util"
)

const (
	EnvPrefix          = "YAGUA_"
	DefaultManifestUrl = "https://launchermeta.mojang.com/mc/game/version_manifest.json"
	DefaultResources   = "https://resources.download.minecraft.net/"
	DefaultRepository  = "https://libraries.minecraft.net/"
)

type Config struct {
	GameRoot          string        `koanf:"game_root"`
	JavaPath          string        `koanf:"java_path"`
	RamMb             int           `koanf:"ram_mb"`
	ManifestUrl       string        `koanf:"manifest_url"`
	ResourcesUrl      string        `koanf:"resources_url"`
	LibraryRepository string        `koanf:"library_repository"`
	DownloadAttempts  int           `koanf:"download_attempts"`
	RetryDelay        time.Duration `koanf:"retry_delay"`
	HttpTimeout       time.Duration `koanf:"http_timeout"`
	NativesMarker     string        `koanf:"natives_marker"`
	Concurrency       int           `koanf:"concurrency"`
	WindowWidth       int           `koanf:"window_width"`
	WindowHeight      int           `koanf:"window_height"`
	LauncherName      string        `koanf:"launcher_name"`
	LauncherVersion   string        `koanf:"launcher_version"`
	Debug             bool          `koanf:"debug"`
}

func defaults() map[string]interface{} {
	home, _ := os.UserHomeDir()
	return map[string]interface{}{
		"game_root":          filepath.Join(home, ".minecraft"),
		"java_path":          "java",
		"ram_mb":             2048,
		"manifest_url":       DefaultManifestUrl,
		"resources_url":      DefaultResources,
		"library_repository": DefaultRepository,
		"download_attempts":  3,
		"retry_delay":        "500ms",
		"http_timeout":       "60s",
		"natives_marker":     "natives-" + util.OsName(),
		"concurrency":        1,
		"window_width":       854,
		"window_height":      480,
		"launcher_name":      "YaguaLauncher",
		"launcher_version":   "1.0",
		"debug":              false,
	}
}

// DefaultPath is where the config file is looked up when none is given.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "yagua", "config.yaml")
}

// Load layers defaults, the yaml file at path (if it exists) and YAGUA_
// environment variables, in increasing priority.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("error reading config file %s: %w", path, err)
			}
		}
	}

	// YAGUA_GAME_ROOT -> game_root
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if cfg.DownloadAttempts < 1 {
		cfg.DownloadAttempts = 1
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if !strings.HasSuffix(cfg.ResourcesUrl, "/") {
		cfg.ResourcesUrl += "/"
	}
	return &cfg, nil
}

// Default returns the configuration built from defaults only.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(err)
	}
	return cfg
}
