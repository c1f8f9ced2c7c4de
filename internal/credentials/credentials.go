package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"kamatera-manager/internal/console"
	"kamatera-manager/internal/logger"
	"kamatera-manager/internal/secretbox"
)

var (
	ErrNotFound = errors.New("credentials file not found; please login")
	ErrInvalid  = errors.New("invalid credentials file; please login")
)

// maxLoginAttempts bounds how often the login prompt reappears after an empty entry.
const maxLoginAttempts = 3

// Credentials is the API key pair, stored as {"api_key": ..., "api_secret": ...}.
type Credentials struct {
	APIKey    string `json:"api_key"`
	APISecret string `json:"api_secret"`
}

func (c Credentials) Valid() bool {
	return strings.TrimSpace(c.APIKey) != "" && strings.TrimSpace(c.APISecret) != ""
}

// Load reads the credentials file, decrypting enc: values with box.
func Load(path string, box *secretbox.Box) (Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Credentials{}, ErrNotFound
		}
		return Credentials{}, fmt.Errorf("failed to read credentials: %w", err)
	}
	var c Credentials
	if err := json.Unmarshal(data, &c); err != nil {
		return Credentials{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.APIKey, err = box.Decrypt(c.APIKey); err != nil {
		return Credentials{}, err
	}
	if c.APISecret, err = box.Decrypt(c.APISecret); err != nil {
		return Credentials{}, err
	}
	return c, nil
}

// Save writes the credentials with 0600 permissions, encrypting values when box is set.
func Save(path string, c Credentials, box *secretbox.Box) error {
	key, err := box.Encrypt(c.APIKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt api key: %w", err)
	}
	secret, err := box.Encrypt(c.APISecret)
	if err != nil {
		return fmt.Errorf("failed to encrypt api secret: %w", err)
	}
	data, err := json.MarshalIndent(Credentials{APIKey: key, APISecret: secret}, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create credentials dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	return nil
}

// Login prompts for a key pair until both fields are filled in, then saves it.
func Login(p console.Prompter, path string, box *secretbox.Box) (Credentials, error) {
	for attempt := 1; attempt <= maxLoginAttempts; attempt++ {
		key, err := p.Ask("Kamatera API key")
		if err != nil {
			return Credentials{}, fmt.Errorf("failed to read api key: %w", err)
		}
		secret, err := p.AskSecret("Kamatera API secret")
		if err != nil {
			return Credentials{}, fmt.Errorf("failed to read api secret: %w", err)
		}
		c := Credentials{APIKey: key, APISecret: secret}
		if !c.Valid() {
			p.Warn("Error", "API key and secret are required.")
			continue
		}
		if err := Save(path, c, box); err != nil {
			return Credentials{}, err
		}
		logger.Info("credentials saved", "path", path)
		return c, nil
	}
	return Credentials{}, fmt.Errorf("login aborted after %d attempts: %w", maxLoginAttempts, ErrInvalid)
}

// Resolve picks credentials in order: environment, stored file, interactive login.
func Resolve(p console.Prompter, envKey, envSecret, path string, box *secretbox.Box) (Credentials, error) {
	if c := (Credentials{APIKey: envKey, APISecret: envSecret}); c.Valid() {
		logger.Debug("using credentials from environment")
		return c, nil
	}

	c, err := Load(path, box)
	switch {
	case err == nil && c.Valid():
		return c, nil
	case err == nil:
		logger.Warn("stored credentials are incomplete; please login", "path", path)
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalid):
		logger.Warn(err.Error(), "path", path)
	default:
		return Credentials{}, err
	}

	if p == nil {
		return Credentials{}, fmt.Errorf("no usable credentials in %s", path)
	}
	return Login(p, path, box)
}
