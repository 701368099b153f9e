package trustd

import (
	"crypto/tls"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"go.inet256.org/trustd/pkg/valregistry"
)

const (
	DefaultAPIEndpoint = "127.0.0.1:9184"

	defaultPollingPeriod = 60 * time.Second
)

type RegistrySpec struct {
	Endpoint string        `yaml:"endpoint"`
	Period   time.Duration `yaml:"period,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`
}

// TLSSpec configures a listener which only accepts peers from the trust set.
type TLSSpec struct {
	Endpoint string `yaml:"endpoint"`
	CertPath string `yaml:"cert_path"`
	KeyPath  string `yaml:"key_path"`
}

type Config struct {
	Registry    RegistrySpec `yaml:"registry"`
	APIEndpoint string       `yaml:"api_endpoint"`
	TLS         *TLSSpec     `yaml:"tls,omitempty"`
}

func (c Config) GetAPIAddr() string {
	if c.APIEndpoint == "" {
		return DefaultAPIEndpoint
	}
	return c.APIEndpoint
}

func (c Config) GetPeriod() time.Duration {
	if c.Registry.Period == 0 {
		return defaultPollingPeriod
	}
	return c.Registry.Period
}

func (c Config) GetTimeout() time.Duration {
	if c.Registry.Timeout == 0 {
		return valregistry.DefaultTimeout
	}
	return c.Registry.Timeout
}

// MakeParams validates c and builds the Params for a Daemon.
// Relative paths starting with ./ are resolved against the directory containing configPath.
func MakeParams(configPath string, c Config) (*Params, error) {
	if c.Registry.Endpoint == "" {
		return nil, errors.New("config: registry.endpoint is required")
	}
	if !strings.HasPrefix(c.Registry.Endpoint, "http://") && !strings.HasPrefix(c.Registry.Endpoint, "https://") {
		return nil, errors.Errorf("config: registry.endpoint must be an http(s) url, have %q", c.Registry.Endpoint)
	}
	if c.Registry.Period < 0 || c.Registry.Timeout < 0 {
		return nil, errors.New("config: registry.period and registry.timeout cannot be negative")
	}
	params := &Params{
		Fetcher: valregistry.NewClient(c.Registry.Endpoint, valregistry.WithTimeout(c.GetTimeout())),
		Period:  c.GetPeriod(),
		APIAddr: c.GetAPIAddr(),
	}
	if c.TLS != nil {
		if c.TLS.Endpoint == "" {
			return nil, errors.New("config: tls.endpoint is required")
		}
		cert, err := tls.LoadX509KeyPair(resolvePath(configPath, c.TLS.CertPath), resolvePath(configPath, c.TLS.KeyPath))
		if err != nil {
			return nil, errors.Wrap(err, "loading tls key pair")
		}
		params.TLS = &TLSParams{
			Addr:        c.TLS.Endpoint,
			Certificate: cert,
		}
	}
	return params, nil
}

func resolvePath(configPath, p string) string {
	if strings.HasPrefix(p, "./") {
		return filepath.Join(filepath.Dir(configPath), p)
	}
	return p
}

func DefaultConfig() Config {
	return Config{
		Registry: RegistrySpec{
			Endpoint: "http://127.0.0.1:9000",
			Period:   defaultPollingPeriod,
			Timeout:  valregistry.DefaultTimeout,
		},
		APIEndpoint: DefaultAPIEndpoint,
	}
}

func LoadConfig(p string) (*Config, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	c := &Config{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, err
	}
	return c, nil
}

func SaveConfig(config Config, p string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}
