package crypto

// Keyring provides secure storage for the database passphrase
type Keyring interface {
	GetKey() (string, error)
	SetKey(password string) error
	DeleteKey() error
	IsAvailable() bool
}

const (
	ServiceName = "invoicer"
	KeyName     = "db-encryption-key"

	// EnvKey holds the passphrase where no system keyring is available.
	EnvKey = "INVOICER_DB_KEY"
)

// NewKeyring returns the best available keyring implementation
func NewKeyring() Keyring {
	return newPlatformKeyring()
}
