package repository

import (
	"database/sql"
	"errors"
	"time"

	"tychoorderbook/internal/models"
	"tychoorderbook/pkg/crypto"
)

// ErrCredentialNotFound is returned when a named credential has not been
// stored.
var ErrCredentialNotFound = errors.New("credential not found")

// CredentialStore persists feed/RPC API keys at rest, encrypted with
// AES-256-GCM under the operator's ENCRYPTION_KEY. Grounded on the
// teacher's ExchangeAccount pattern of storing API secrets pre-encrypted
// and never surfacing them via json tags.
type CredentialStore struct {
	db  *sql.DB
	key []byte
}

// NewCredentialStore builds a CredentialStore. key must be exactly 32
// bytes (AES-256).
func NewCredentialStore(db *sql.DB, key []byte) *CredentialStore {
	return &CredentialStore{db: db, key: key}
}

// Put encrypts and upserts a named credential value.
func (c *CredentialStore) Put(name, value string) error {
	encrypted, err := crypto.Encrypt(value, c.key)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO credentials (name, encrypted_value, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (name) DO UPDATE SET encrypted_value = $2, updated_at = $3`

	_, err = c.db.Exec(query, name, encrypted, time.Now())
	return err
}

// Get decrypts and returns a named credential value.
func (c *CredentialStore) Get(name string) (string, error) {
	query := `SELECT encrypted_value FROM credentials WHERE name = $1`

	var encrypted string
	if err := c.db.QueryRow(query, name).Scan(&encrypted); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrCredentialNotFound
		}
		return "", err
	}

	return crypto.Decrypt(encrypted, c.key)
}

// Delete removes a named credential.
func (c *CredentialStore) Delete(name string) error {
	query := `DELETE FROM credentials WHERE name = $1`

	result, err := c.db.Exec(query, name)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrCredentialNotFound
	}
	return nil
}

// List returns every stored credential's metadata, never the decrypted
// value.
func (c *CredentialStore) List() ([]*models.Credential, error) {
	query := `SELECT id, name, created_at, updated_at FROM credentials ORDER BY name`

	rows, err := c.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var creds []*models.Credential
	for rows.Next() {
		cr := &models.Credential{}
		if err := rows.Scan(&cr.ID, &cr.Name, &cr.CreatedAt, &cr.UpdatedAt); err != nil {
			return nil, err
		}
		creds = append(creds, cr)
	}
	return creds, rows.Err()
}
