package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/parkingmate/service-parking/internal/common/domain"
	"github.com/parkingmate/service-parking/internal/domain/user"
)

// UserRepository implements user.UserRepository in memory.
type UserRepository struct {
	store *Store
}

var _ user.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) FindByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	u, ok := r.store.users[id]
	if !ok {
		return nil, domain.NewNotFoundError("user", id.String())
	}
	return u, nil
}

func (r *UserRepository) FindByIDs(_ context.Context, ids []uuid.UUID) ([]*user.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]*user.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.store.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *UserRepository) findByEmail(email string) (*user.User, bool) {
	email = user.NormalizeEmail(email)
	for _, u := range r.store.users {
		if u.Email() == email {
			return u, true
		}
	}
	return nil, false
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*user.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	u, ok := r.findByEmail(email)
	if !ok {
		return nil, domain.NewNotFoundError("user", email)
	}
	return u, nil
}

func (r *UserRepository) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	_, ok := r.findByEmail(email)
	return ok, nil
}

func (r *UserRepository) Save(_ context.Context, u *user.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, taken := r.findByEmail(u.Email()); taken {
		return domain.NewConflictError("email already registered")
	}
	r.store.users[u.ID()] = u
	return nil
}
