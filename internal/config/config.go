package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the server settings. Values are resolved as defaults,
// then the YAML file (if any), then environment variables; command-line
// flags override all of these.
type Config struct {
	Port        int    `yaml:"port"`
	DownloadDir string `yaml:"download_dir"`
	Format      string `yaml:"format"`
	ProxyURL    string `yaml:"proxy"`
	UserAgent   string `yaml:"user_agent"`
}

const DefaultPort = 7860

func Default() Config {
	return Config{
		Port:        DefaultPort,
		DownloadDir: DefaultDownloadDir(),
		Format:      "best",
	}
}

// DefaultDownloadDir prefers the hosting platform's persistent volume
// when mounted, otherwise a directory under the system temp dir.
func DefaultDownloadDir() string {
	root := os.TempDir()
	if info, err := os.Stat("/data"); err == nil && info.IsDir() {
		root = "/data"
	}
	return filepath.Join(root, "youtube_downloads")
}

// Load resolves the configuration. A missing file at path is not an
// error; a file that exists but does not parse is.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("error reading config file: %v", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("error parsing config file: %v", err)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil && p > 0 {
			cfg.Port = p
		}
	}
	if dir := os.Getenv("YTDLR_DOWNLOAD_DIR"); dir != "" {
		cfg.DownloadDir = dir
	}
	if format := os.Getenv("YTDLR_FORMAT"); format != "" {
		cfg.Format = format
	}
	if proxy := os.Getenv("YTDLR_PROXY"); proxy != "" {
		cfg.ProxyURL = proxy
	}
}
