package repository

import (
	"database/sql"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"tychoorderbook/pkg/crypto"
)

func fixedKey() []byte {
	k := make([]byte, 32)
	copy(k, "test-encryption-key-32-bytes!!")
	return k
}

func TestCredentialStorePut(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`INSERT INTO credentials`).
		WithArgs("rpc_key", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	store := NewCredentialStore(db, fixedKey())
	if err := store.Put("rpc_key", "super-secret"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCredentialStoreGetRoundTrip(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	key := fixedKey()
	encrypted, err := crypto.Encrypt("super-secret", key)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}

	rows := sqlmock.NewRows([]string{"encrypted_value"}).AddRow(encrypted)
	mock.ExpectQuery(`SELECT encrypted_value FROM credentials WHERE name = \$1`).
		WithArgs("rpc_key").
		WillReturnRows(rows)

	store := NewCredentialStore(db, key)
	value, err := store.Get("rpc_key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != "super-secret" {
		t.Fatalf("expected decrypted value to round-trip, got %q", value)
	}
}

func TestCredentialStoreGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT encrypted_value FROM credentials WHERE name = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	store := NewCredentialStore(db, fixedKey())
	if _, err := store.Get("missing"); !errors.Is(err, ErrCredentialNotFound) {
		t.Fatalf("expected ErrCredentialNotFound, got %v", err)
	}
}
