package app

import (
	"net/url"
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"

	"github.com/xenking/cleanwave-checkout/internal/backend"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (CHECKOUT_ prefix), flags, or YAML config files.
type Config struct {
	Addr      string `default:"0.0.0.0:8080" usage:"Checkout server listen address"`
	Backend   BackendConfig
	Session   SessionConfig
	Catalog   CatalogConfig
	Health    HealthConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Graceful  GracefulConfig
}

// BackendConfig points at the laundry backend API.
type BackendConfig struct {
	URL             string        `usage:"Backend API base URL (CHECKOUT_BACKEND_URL or BACKEND_URL)"`
	Timeout         time.Duration `default:"10s" usage:"Timeout of a single backend call"`
	ServicesPath    string        `default:"/services" usage:"Service catalog path"`
	CouponPath      string        `default:"/coupons/validate" usage:"Coupon validation path"`
	OrdersPath      string        `default:"/orders" usage:"Order submission path"`
	GuestOrdersPath string        `default:"/guest/orders" usage:"Guest order submission path"`
}

// SessionConfig controls the in-memory form sessions.
type SessionConfig struct {
	IdleTTL       time.Duration `default:"30m" usage:"Idle time after which a form session is discarded"`
	MaxSessions   int           `default:"10000" usage:"Maximum number of open form sessions, 0 for no limit"`
	SweepInterval time.Duration `default:"1m" usage:"How often idle sessions are swept"`
}

// CatalogConfig controls caching of the service catalog.
type CatalogConfig struct {
	CacheTTL time.Duration `default:"30s" usage:"How long a fetched catalog is reused, 0 disables caching"`
}

// HealthConfig controls the liveness and readiness checks.
type HealthConfig struct {
	Interval         time.Duration `default:"10s" usage:"How often health checks run"`
	MaxGoroutines    int           `default:"10000" usage:"Goroutine count above which the service is not live"`
	GCPauseThreshold time.Duration `default:"2s" usage:"GC pause above which the service is not live"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, flags, YAML
// config files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(aconfig.Config{
		Args:  os.Args[1:],
		Files: []string{"config.yaml", "/etc/checkout/config.yaml"},
	})
}

func loadConfig(base aconfig.Config) (*Config, error) {
	var cfg Config
	base.EnvPrefix = "CHECKOUT"
	base.FileDecoders = map[string]aconfig.FileDecoder{
		".yaml": aconfigyaml.New(),
	}
	if err := aconfig.LoaderFor(&cfg, base).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults maps the unprefixed BACKEND_URL and PORT variables
// that hosting platforms provide.
func (c *Config) applyPlatformDefaults() {
	if c.Backend.URL == "" {
		c.Backend.URL = os.Getenv("BACKEND_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}

func (c *Config) validate() error {
	if c.Backend.URL == "" {
		return errors.New("backend URL is required: set CHECKOUT_BACKEND_URL or BACKEND_URL")
	}
	u, err := url.Parse(c.Backend.URL)
	if err != nil || u.Host == "" {
		return errors.Errorf("invalid backend URL %q", c.Backend.URL)
	}
	if c.Session.SweepInterval <= 0 {
		return errors.New("session sweep interval must be positive")
	}
	if c.Health.Interval <= 0 {
		return errors.New("health check interval must be positive")
	}
	return nil
}

// BackendOptions converts the backend section into client options.
func (c *Config) BackendOptions() backend.Options {
	return backend.Options{
		BaseURL: c.Backend.URL,
		Timeout: c.Backend.Timeout,
		Paths: backend.Paths{
			Services:       c.Backend.ServicesPath,
			ValidateCoupon: c.Backend.CouponPath,
			Orders:         c.Backend.OrdersPath,
			GuestOrders:    c.Backend.GuestOrdersPath,
		},
		CatalogTTL: c.Catalog.CacheTTL,
	}
}
