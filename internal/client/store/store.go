// Package store persists the session TokenRecord and the saved login
// credentials in the local SQLite metadata table.
//
// Records are stored under fixed keys. The token record is plain JSON with
// epoch-millisecond timestamps:
//
//	{"token":"…","userLogin":"alice","expiresAt":1760000000000,"lastRefresh":1759999400000}
//
// Credentials ({"betLogin","betPassword"}) are AES-GCM sealed with a device
// key derived from host material and a random per-database salt.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/betclient/internal/client/models"
	"github.com/dmitrijs2005/betclient/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/betclient/internal/common"
	"github.com/dmitrijs2005/betclient/internal/cryptox"
	"github.com/dmitrijs2005/betclient/internal/dbx"
)

const (
	KeyToken       = "session.token"
	KeyCredentials = "session.credentials"
	KeyDeviceSalt  = "device.salt"

	deviceSaltSize = 16
)

type tokenRecordJSON struct {
	Token       string `json:"token"`
	UserLogin   string `json:"userLogin"`
	ExpiresAt   int64  `json:"expiresAt"`
	LastRefresh int64  `json:"lastRefresh"`
}

// TokenStore is the durable Credential/Token Store.
type TokenStore struct {
	db   *sql.DB
	repo metadata.Repository
	key  []byte
}

// New builds a store over a migrated database using an explicit sealing key.
func New(db *sql.DB, key []byte) *TokenStore {
	return &TokenStore{db: db, repo: metadata.NewSQLiteRepository(db), key: key}
}

// Open builds a store whose sealing key is derived from this device and the
// database's salt, creating the salt on first use.
func Open(ctx context.Context, db *sql.DB) (*TokenStore, error) {
	repo := metadata.NewSQLiteRepository(db)

	salt, err := repo.Get(ctx, KeyDeviceSalt)
	if err != nil {
		return nil, fmt.Errorf("load device salt: %w", err)
	}
	if len(salt) == 0 {
		salt = common.GenerateRandByteArray(deviceSaltSize)
		if err := repo.Set(ctx, KeyDeviceSalt, salt); err != nil {
			return nil, fmt.Errorf("save device salt: %w", err)
		}
	}

	return New(db, cryptox.DeriveDeviceKey(cryptox.DeviceMaterial(), salt)), nil
}

// Write overwrites the stored TokenRecord.
func (s *TokenStore) Write(ctx context.Context, rec *models.TokenRecord) error {
	return s.writeToken(ctx, s.repo, rec)
}

// Read returns the stored TokenRecord, or nil when logged out.
func (s *TokenStore) Read(ctx context.Context) (*models.TokenRecord, error) {
	raw, err := s.repo.Get(ctx, KeyToken)
	if err != nil {
		return nil, &StorageReadError{Key: KeyToken, Err: err}
	}
	if raw == nil {
		return nil, nil
	}

	var dto tokenRecordJSON
	if err := json.Unmarshal(raw, &dto); err != nil {
		return nil, &StorageReadError{Key: KeyToken, Err: fmt.Errorf("%w: %v", ErrCorrupt, err)}
	}
	if dto.Token == "" {
		return nil, &StorageReadError{Key: KeyToken, Err: fmt.Errorf("%w: empty token", ErrCorrupt)}
	}

	return &models.TokenRecord{
		Token:       dto.Token,
		UserLogin:   dto.UserLogin,
		ExpiresAt:   time.UnixMilli(dto.ExpiresAt),
		LastRefresh: time.UnixMilli(dto.LastRefresh),
	}, nil
}

// WriteCredentials overwrites the saved credentials.
func (s *TokenStore) WriteCredentials(ctx context.Context, creds models.Credentials) error {
	return s.writeCredentials(ctx, s.repo, creds)
}

// ReadCredentials returns the saved credentials, or nil if none are stored.
func (s *TokenStore) ReadCredentials(ctx context.Context) (*models.Credentials, error) {
	raw, err := s.repo.Get(ctx, KeyCredentials)
	if err != nil {
		return nil, &StorageReadError{Key: KeyCredentials, Err: err}
	}
	if raw == nil {
		return nil, nil
	}

	var creds models.Credentials
	if err := cryptox.OpenJSON(s.key, raw, &creds); err != nil {
		return nil, &StorageReadError{Key: KeyCredentials, Err: fmt.Errorf("%w: %v", ErrCorrupt, err)}
	}
	return &creds, nil
}

// Save writes a fresh TokenRecord together with the credentials it was
// obtained with, in one transaction.
func (s *TokenStore) Save(ctx context.Context, rec *models.TokenRecord, creds models.Credentials) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := s.writeToken(ctx, repo, rec); err != nil {
			return err
		}
		return s.writeCredentials(ctx, repo, creds)
	})
}

// Clear deletes the TokenRecord and the credentials together. Clearing an
// empty store succeeds.
func (s *TokenStore) Clear(ctx context.Context) error {
	if err := s.repo.Delete(ctx, KeyToken, KeyCredentials); err != nil {
		return &StorageWriteError{Key: KeyToken, Err: err}
	}
	return nil
}

func (s *TokenStore) writeToken(ctx context.Context, repo metadata.Repository, rec *models.TokenRecord) error {
	if rec == nil || rec.Token == "" || rec.LastRefresh.After(rec.ExpiresAt) {
		return &StorageWriteError{Key: KeyToken, Err: ErrInvalidRecord}
	}

	raw, err := json.Marshal(tokenRecordJSON{
		Token:       rec.Token,
		UserLogin:   rec.UserLogin,
		ExpiresAt:   rec.ExpiresAt.UnixMilli(),
		LastRefresh: rec.LastRefresh.UnixMilli(),
	})
	if err != nil {
		return &StorageWriteError{Key: KeyToken, Err: err}
	}
	if err := repo.Set(ctx, KeyToken, raw); err != nil {
		return &StorageWriteError{Key: KeyToken, Err: err}
	}
	return nil
}

func (s *TokenStore) writeCredentials(ctx context.Context, repo metadata.Repository, creds models.Credentials) error {
	sealed, err := cryptox.SealJSON(s.key, creds)
	if err != nil {
		return &StorageWriteError{Key: KeyCredentials, Err: err}
	}
	if err := repo.Set(ctx, KeyCredentials, sealed); err != nil {
		return &StorageWriteError{Key: KeyCredentials, Err: err}
	}
	return nil
}
