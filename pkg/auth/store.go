package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const tokenPrefix = "token/"

// ErrTokenNotFound is returned when no token exists for an alias.
var ErrTokenNotFound = errors.New("token not found")

// ErrTokenExists is returned when creating a token under a taken alias.
var ErrTokenExists = errors.New("token already exists")

// TokenStore persists access tokens in badger under the "token/" prefix.
type TokenStore struct {
	db *badgerdb.DB
}

// NewTokenStore wraps an open badger database.
func NewTokenStore(db *badgerdb.DB) *TokenStore {
	return &TokenStore{db: db}
}

// Create generates and persists a new token for alias. The returned secret
// is shown once and never stored in plaintext.
func (s *TokenStore) Create(alias string, manager bool, routes []Route) (*Token, string, error) {
	if alias == "" {
		return nil, "", errors.New("token alias cannot be empty")
	}
	if _, err := s.Get(alias); err == nil {
		return nil, "", fmt.Errorf("%w: %s", ErrTokenExists, alias)
	}

	secret, err := GenerateSecret()
	if err != nil {
		return nil, "", err
	}

	hash, err := HashSecret(secret)
	if err != nil {
		return nil, "", err
	}

	token := &Token{
		ID:         uuid.New(),
		Alias:      alias,
		SecretHash: hash,
		CreatedAt:  time.Now(),
		Manager:    manager,
		Routes:     routes,
	}

	if err := s.put(token); err != nil {
		return nil, "", err
	}
	return token, secret, nil
}

// Get returns the token stored under alias.
func (s *TokenStore) Get(alias string) (*Token, error) {
	var token Token

	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(makeTokenKey(alias))
		if err == badgerdb.ErrKeyNotFound {
			return fmt.Errorf("%w: %s", ErrTokenNotFound, alias)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &token)
		})
	})
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// Authenticate verifies alias and secret, returning the token on success.
func (s *TokenStore) Authenticate(alias, secret string) (*Token, error) {
	token, err := s.Get(alias)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !token.Verify(secret) {
		return nil, ErrInvalidCredentials
	}
	return token, nil
}

// List returns all tokens sorted by alias.
func (s *TokenStore) List() ([]*Token, error) {
	var tokens []*Token

	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte(tokenPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var token Token
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &token)
			}); err != nil {
				return err
			}
			tokens = append(tokens, &token)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}

	sort.Slice(tokens, func(i, j int) bool { return tokens[i].Alias < tokens[j].Alias })
	return tokens, nil
}

// Delete removes the token stored under alias.
func (s *TokenStore) Delete(alias string) error {
	return s.db.Update(func(txn *badgerdb.Txn) error {
		if _, err := txn.Get(makeTokenKey(alias)); err == badgerdb.ErrKeyNotFound {
			return fmt.Errorf("%w: %s", ErrTokenNotFound, alias)
		}
		return txn.Delete(makeTokenKey(alias))
	})
}

// EnsureAdminToken creates the initial "admin" manager token when the store
// holds no tokens at all. Returns the generated secret on first run, empty
// otherwise.
func (s *TokenStore) EnsureAdminToken() (string, error) {
	tokens, err := s.List()
	if err != nil {
		return "", err
	}
	if len(tokens) > 0 {
		return "", nil
	}

	_, secret, err := s.Create("admin", true, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create admin token: %w", err)
	}
	return secret, nil
}

func (s *TokenStore) put(token *Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(makeTokenKey(token.Alias), data)
	})
}

func makeTokenKey(alias string) []byte {
	return []byte(tokenPrefix + alias)
}
