// Package procconfig loads the gateway PROCESS configuration (listen
// address, timeouts, cache backend, telemetry toggles) — distinct from the
// user-facing Config model (internal/config) that describes the gateway's
// own GraphQL surface. Precedence and provider stack are grounded on
// Hola-to-network_logistics_problem's pkg/config/loader.go: defaults → YAML
// file → environment variables, highest precedence last.
package procconfig

import (
	"fmt"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "GATEWING_"

// Config is the gateway process configuration.
type Config struct {
	Server struct {
		Addr            string        `koanf:"addr"`
		ReadTimeout     time.Duration `koanf:"read_timeout"`
		WriteTimeout    time.Duration `koanf:"write_timeout"`
		ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	} `koanf:"server"`
	Blueprint struct {
		Path string `koanf:"path"`
	} `koanf:"blueprint"`
	Cache struct {
		Backend    string        `koanf:"backend"`
		RedisAddr  string        `koanf:"redis_addr"`
		DefaultTTL time.Duration `koanf:"default_ttl"`
	} `koanf:"cache"`
	Log struct {
		Level  string `koanf:"level"`
		Format string `koanf:"format"`
		Output string `koanf:"output"`
	} `koanf:"log"`
	Telemetry struct {
		OTLPEndpoint string `koanf:"otlp_endpoint"`
		MetricsAddr  string `koanf:"metrics_addr"`
	} `koanf:"telemetry"`
	Auth struct {
		JWTSecret string `koanf:"jwt_secret"`
	} `koanf:"auth"`
}

// Loader assembles Config from defaults, an optional YAML file, and
// environment variables prefixed with GATEWING_.
type Loader struct {
	k          *koanf.Koanf
	configPath string
}

type Option func(*Loader)

func WithConfigPath(path string) Option {
	return func(l *Loader) { l.configPath = path }
}

func NewLoader(opts ...Option) *Loader {
	l := &Loader{k: koanf.New(".")}
	for _, o := range opts {
		o(l)
	}
	return l
}

func (l *Loader) Load() (*Config, error) {
	if err := l.k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("procconfig: load defaults: %w", err)
	}
	if l.configPath != "" {
		if err := l.k.Load(file.Provider(l.configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("procconfig: load file %s: %w", l.configPath, err)
		}
	}
	if err := l.k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("procconfig: load env: %w", err)
	}
	var cfg Config
	if err := l.k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("procconfig: unmarshal: %w", err)
	}
	if cfg.Server.Addr == "" {
		return nil, fmt.Errorf("procconfig: server.addr must not be empty")
	}
	return &cfg, nil
}

func defaults() map[string]any {
	return map[string]any{
		"server.addr":             ":8080",
		"server.read_timeout":     30 * time.Second,
		"server.write_timeout":    30 * time.Second,
		"server.shutdown_timeout": 10 * time.Second,
		"cache.backend":           "memory",
		"cache.default_ttl":       5 * time.Minute,
		"log.level":               "info",
		"log.format":              "json",
		"log.output":              "stdout",
	}
}

func envTransform(s string) string {
	if len(s) > len(envPrefix) {
		s = s[len(envPrefix):]
	}
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z':
			out = append(out, c-'A'+'a')
		case c == '_':
			out = append(out, '.')
		default:
			out = append(out, c)
		}
	}
	return string(out)
}
