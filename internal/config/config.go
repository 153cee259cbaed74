package config

import (
	"fmt"
	"os"
	"time"

	"oli-admin/internal/render"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `envPrefix:"SERVER_"`
	Redis   RedisConfig   `envPrefix:"REDIS_"`
	Store   StoreConfig   `envPrefix:"STORE_"`
	Auth    AuthConfig    `envPrefix:"AUTH_"`
	Display DisplayConfig `envPrefix:"DISPLAY_"`
	Log     LogConfig     `envPrefix:"LOG_"`
}

type ServerConfig struct {
	Host           string `env:"HOST" envDefault:"0.0.0.0"`
	Port           string `env:"PORT" envDefault:"8080"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`
	SecureCookies  bool   `env:"SECURE_COOKIES" envDefault:"false"`
}

type RedisConfig struct {
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

type StoreConfig struct {
	// Driver is "badger" or "mongo". Blobs always live in Badger.
	Driver        string `env:"DRIVER" envDefault:"badger"`
	BadgerPath    string `env:"BADGER_PATH" envDefault:"./badger-data"`
	MongoURI      string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"oli"`
}

type AuthConfig struct {
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"12h"`
}

type DisplayConfig struct {
	LabelsFile       string `env:"LABELS_FILE"`
	Currency         string `env:"CURRENCY" envDefault:"FCFA"`
	PlaceholderImage string `env:"PLACEHOLDER_IMAGE" envDefault:"/static/placeholder.svg"`
}

type LogConfig struct {
	Development bool `env:"DEVELOPMENT" envDefault:"false"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that env parsing cannot.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "badger", "mongo":
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}
	return nil
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

type labelsFile struct {
	Categories map[string]string `yaml:"categories"`
}

// LoadLabels reads the category label table. An empty path yields an empty table.
func LoadLabels(path string) (render.Labels, error) {
	if path == "" {
		return render.Labels{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}

	var f labelsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse labels %s: %w", path, err)
	}
	if f.Categories == nil {
		return render.Labels{}, nil
	}
	return render.Labels(f.Categories), nil
}
