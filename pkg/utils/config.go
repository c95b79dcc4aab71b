package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"paperhub/pkg/models"
)

// ServiceConfig is built once in main and passed into constructors.
// Nothing reads it ambiently after startup.
type ServiceConfig struct {
	HTTPAddr        string        `yaml:"http_addr"`
	FeedAddr        string        `yaml:"feed_addr"`
	UploadDir       string        `yaml:"upload_dir"`
	SidecarDir      string        `yaml:"sidecar_dir"`
	ArtifactBackend string        `yaml:"artifact_backend"` // file | inline | remote
	PeerURL         string        `yaml:"peer_url"`
	PeerTimeout     time.Duration `yaml:"peer_timeout"`
}

func defaultServiceConfig() ServiceConfig {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return ServiceConfig{
		HTTPAddr:        ":8080",
		FeedAddr:        ":7070",
		UploadDir:       filepath.Join(home, ".paperhub", "uploads"),
		SidecarDir:      filepath.Join(home, ".paperhub", "sidecars"),
		ArtifactBackend: models.ArtifactKindFile,
		PeerURL:         "http://localhost:9000",
		PeerTimeout:     15 * time.Second,
	}
}

// LoadServiceConfig layers, lowest to highest: built-in defaults, an
// optional YAML file named by PAPERHUB_CONFIG, then PAPERHUB_* env vars.
// A .env file in the working directory is loaded first if present.
func LoadServiceConfig() (ServiceConfig, error) {
	_ = godotenv.Load()

	cfg := defaultServiceConfig()

	if path := os.Getenv("PAPERHUB_CONFIG"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if v := os.Getenv("PAPERHUB_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("PAPERHUB_FEED_ADDR"); v != "" {
		cfg.FeedAddr = v
	}
	if v := os.Getenv("PAPERHUB_UPLOAD_DIR"); v != "" {
		cfg.UploadDir = v
	}
	if v := os.Getenv("PAPERHUB_SIDECAR_DIR"); v != "" {
		cfg.SidecarDir = v
	}
	if v := os.Getenv("PAPERHUB_ARTIFACT_BACKEND"); v != "" {
		cfg.ArtifactBackend = v
	}
	if v := os.Getenv("PAPERHUB_PEER_URL"); v != "" {
		cfg.PeerURL = v
	}
	if v := os.Getenv("PAPERHUB_PEER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("parse PAPERHUB_PEER_TIMEOUT: %w", err)
		}
		cfg.PeerTimeout = d
	}

	switch cfg.ArtifactBackend {
	case models.ArtifactKindFile, models.ArtifactKindInline, models.ArtifactKindRemote:
	default:
		return cfg, fmt.Errorf("unknown artifact backend %q", cfg.ArtifactBackend)
	}

	return cfg, nil
}
