//go:build !darwin

package crypto

import (
	"errors"
	"fmt"
	"os"
)

// envKeyring reads the passphrase from INVOICER_DB_KEY. It can't persist a
// new key, so first-run setup tells the user to export one instead.
type envKeyring struct{}

func newPlatformKeyring() Keyring {
	return &envKeyring{}
}

// GetKey retrieves the passphrase from the environment
func (k *envKeyring) GetKey() (string, error) {
	key := os.Getenv(EnvKey)
	if key == "" {
		return "", fmt.Errorf("%s environment variable not set", EnvKey)
	}

	return key, nil
}

// SetKey accepts the passphrase only if it already matches the environment
func (k *envKeyring) SetKey(password string) error {
	if password == "" {
		return errors.New("password cannot be empty")
	}
	if os.Getenv(EnvKey) == password {
		return nil
	}

	return fmt.Errorf("keyring not available on this platform: export %s with the chosen password", EnvKey)
}

// DeleteKey returns an error suggesting to unset the environment variable
func (k *envKeyring) DeleteKey() error {
	if os.Getenv(EnvKey) == "" {
		return nil
	}
	return fmt.Errorf("keyring not available on this platform: unset %s manually", EnvKey)
}

// IsAvailable checks if the environment variable is set
func (k *envKeyring) IsAvailable() bool {
	return os.Getenv(EnvKey) != ""
}
