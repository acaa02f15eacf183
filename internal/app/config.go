package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (STORE_ prefix), flags, or YAML config files.
type Config struct {
	Addr     string `default:"127.0.0.1:8080" usage:"store server listen address"`
	Catalog  CatalogConfig
	Storage  StorageConfig
	Handoff  HandoffConfig
	UI       UIConfig
	Graceful GracefulConfig
}

// CatalogConfig controls where products are fetched from and the fallback
// snapshot used when the upstream is unreachable.
type CatalogConfig struct {
	URL          string `default:"https://fakestoreapi.com/products" usage:"product catalog endpoint" flag:"catalog-url"`
	SnapshotFile string `default:"" usage:"gzip catalog snapshot used when the fetch fails" flag:"catalog-snapshot"`
}

// StorageConfig controls where cart and order state is kept on disk.
type StorageConfig struct {
	Dir        string `default:"" usage:"data directory (defaults to the user config dir)" flag:"data-dir"`
	CartFile   string `default:"online-store.json" usage:"cart slot file name" flag:"cart-file"`
	OrdersFile string `default:"orders.jsonl" usage:"order history file name" flag:"orders-file"`
}

// HandoffConfig controls where checkout sends the composed order message.
type HandoffConfig struct {
	BaseURL string `default:"https://wa.me" usage:"messaging handoff base URL" flag:"handoff-base"`
	Phone   string `default:"+6281936020227" usage:"destination phone number" flag:"handoff-phone"`
}

// UIConfig controls presentation timing.
type UIConfig struct {
	CloseDelay time.Duration `default:"300ms" usage:"delay before the cart overlay closes after it empties" flag:"close-delay"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"1s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"10s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// CartPath returns the absolute cart slot file path.
func (c *Config) CartPath() string {
	return filepath.Join(c.Storage.Dir, c.Storage.CartFile)
}

// OrdersPath returns the absolute order history file path.
func (c *Config) OrdersPath() string {
	return filepath.Join(c.Storage.Dir, c.Storage.OrdersFile)
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "STORE",
		Files:     []string{"config.yaml", "/etc/online-store/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyDefaults resolves the data directory and maps platform-provided
// environment variables like PORT to the STORE_-prefixed configuration.
func (c *Config) applyDefaults() error {
	if c.Storage.Dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return errors.Wrap(err, "resolve user config dir")
		}
		c.Storage.Dir = filepath.Join(base, "online-store")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "127.0.0.1:8080" {
		c.Addr = "0.0.0.0:" + port
	}
	return nil
}
