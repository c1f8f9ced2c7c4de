package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	util "kamatera-manager/internal/util"
)

const (
	DefaultAPIBaseURL      = "https://console.kamatera.com/service"
	DefaultConsoleURL      = "https://console.kamatera.com/"
	DefaultCredentialsPath = "config.json"
	DefaultCLIName         = "kamatera"
)

// Config is shared by every command. Fields not used by a command are ignored.
type Config struct {
	APIBaseURL string
	ConsoleURL string

	// Credentials file and the optional passphrase used to encrypt its values.
	CredentialsPath  string
	CredentialSecret string

	// Credentials supplied through the environment take precedence over the file.
	EnvAPIKey    string
	EnvAPISecret string

	HTTPTimeout time.Duration

	// Fixed delays between workflow steps
	PowerOffWait time.Duration
	PowerOnWait  time.Duration
	RefreshDelay time.Duration

	// Empty means the activity journal lives in memory only.
	JournalPath string

	AutoNetwork bool
	CLIName     string

	LogFormat string
	LogLevel  string
}

// Settings is the optional YAML file named by KAMATERA_SETTINGS.
type Settings struct {
	APIURL          string `yaml:"api_url"`
	ConsoleURL      string `yaml:"console_url"`
	CredentialsFile string `yaml:"credentials_file"`
	JournalFile     string `yaml:"journal_file"`
	HTTPTimeout     string `yaml:"http_timeout"`
	PowerOffWait    string `yaml:"power_off_wait"`
	PowerOnWait     string `yaml:"power_on_wait"`
	RefreshDelay    string `yaml:"refresh_delay"`
	AutoNetwork     *bool  `yaml:"auto_network"`
	CLIName         string `yaml:"cli_name"`
	Log             struct {
		Format string `yaml:"format"`
		Level  string `yaml:"level"`
	} `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		APIBaseURL:      DefaultAPIBaseURL,
		ConsoleURL:      DefaultConsoleURL,
		CredentialsPath: DefaultCredentialsPath,
		HTTPTimeout:     30 * time.Second,
		PowerOffWait:    5 * time.Second,
		PowerOnWait:     10 * time.Second,
		RefreshDelay:    3 * time.Second,
		CLIName:         DefaultCLIName,
		LogFormat:       "text",
		LogLevel:        "info",
	}
}

// LoadFromEnv builds the configuration from defaults, the optional settings
// file and finally environment variables, in that order of precedence.
func LoadFromEnv() (*Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("KAMATERA_SETTINGS")); path != "" {
		s, err := LoadSettings(path)
		if err != nil {
			return nil, err
		}
		if err := cfg.Apply(s); err != nil {
			return nil, fmt.Errorf("settings %s: %w", path, err)
		}
	}

	cfg.APIBaseURL = strings.TrimRight(util.EnvString("KAMATERA_API_URL", cfg.APIBaseURL), "/")
	cfg.ConsoleURL = util.EnvString("KAMATERA_CONSOLE_URL", cfg.ConsoleURL)
	cfg.CredentialsPath = util.EnvString("KAMATERA_CONFIG", cfg.CredentialsPath)
	cfg.CredentialSecret = os.Getenv("KAMATERA_CONFIG_SECRET")
	cfg.EnvAPIKey = strings.TrimSpace(os.Getenv("KAMATERA_API_CLIENT_ID"))
	cfg.EnvAPISecret = strings.TrimSpace(os.Getenv("KAMATERA_API_SECRET"))
	cfg.JournalPath = util.EnvString("KAMATERA_JOURNAL", cfg.JournalPath)
	cfg.CLIName = util.EnvString("KAMATERA_CLI", cfg.CLIName)
	cfg.LogFormat = util.EnvString("LOG_FORMAT", cfg.LogFormat)
	cfg.LogLevel = util.EnvString("LOG_LEVEL", cfg.LogLevel)

	var err error
	if cfg.HTTPTimeout, err = util.EnvDuration("HTTP_TIMEOUT", cfg.HTTPTimeout); err != nil {
		return nil, err
	}
	if cfg.PowerOffWait, err = util.EnvDuration("WORKFLOW_POWER_OFF_WAIT", cfg.PowerOffWait); err != nil {
		return nil, err
	}
	if cfg.PowerOnWait, err = util.EnvDuration("WORKFLOW_POWER_ON_WAIT", cfg.PowerOnWait); err != nil {
		return nil, err
	}
	if cfg.RefreshDelay, err = util.EnvDuration("POWER_REFRESH_DELAY", cfg.RefreshDelay); err != nil {
		return nil, err
	}
	if cfg.AutoNetwork, err = util.EnvBool("NETSWITCH_AUTO", cfg.AutoNetwork); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadSettings reads and parses a YAML settings file.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse settings YAML: %w", err)
	}
	return &s, nil
}

// Apply overlays the non-empty values of s onto cfg.
func (cfg *Config) Apply(s *Settings) error {
	if s == nil {
		return nil
	}
	if s.APIURL != "" {
		cfg.APIBaseURL = strings.TrimRight(s.APIURL, "/")
	}
	if s.ConsoleURL != "" {
		cfg.ConsoleURL = s.ConsoleURL
	}
	if s.CredentialsFile != "" {
		cfg.CredentialsPath = s.CredentialsFile
	}
	if s.JournalFile != "" {
		cfg.JournalPath = s.JournalFile
	}
	if s.CLIName != "" {
		cfg.CLIName = s.CLIName
	}
	if s.AutoNetwork != nil {
		cfg.AutoNetwork = *s.AutoNetwork
	}
	if s.Log.Format != "" {
		cfg.LogFormat = s.Log.Format
	}
	if s.Log.Level != "" {
		cfg.LogLevel = s.Log.Level
	}

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"http_timeout", s.HTTPTimeout, &cfg.HTTPTimeout},
		{"power_off_wait", s.PowerOffWait, &cfg.PowerOffWait},
		{"power_on_wait", s.PowerOnWait, &cfg.PowerOnWait},
		{"refresh_delay", s.RefreshDelay, &cfg.RefreshDelay},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := util.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = v
	}
	return nil
}
