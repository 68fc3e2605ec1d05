//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"chatwire/domain"
	"chatwire/errors"
)

type IUserRepository interface {
	Create(profile domain.Profile) (domain.Profile, error)
	Get(id string) (domain.Profile, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) UserRepository {
	return UserRepository{db: db}
}

// Create persists a profile under "user:{id}", generating the id when the
// caller left it empty. Returns the stored profile.
func (u UserRepository) Create(profile domain.Profile) (domain.Profile, error) {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("marshal failed: %w", err)
	}
	err = u.db.Update(func(txn *badger.Txn) error {
		key := []byte("user:" + profile.ID)
		if _, err := txn.Get(key); err == nil {
			return errors.ErrUserExists
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return domain.Profile{}, err
	}
	return profile, nil
}

// Get retrieves the projection stored for an identity.
func (u UserRepository) Get(id string) (domain.Profile, error) {
	var profile domain.Profile
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("user:" + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &profile)
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.Profile{}, errors.ErrUserNotFound
	}
	if err != nil {
		return domain.Profile{}, err
	}
	return profile, nil
}
