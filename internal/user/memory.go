package user

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/armaanamatya/3380-coogmusic-sub001/internal/apperr"
)

// MemoryRepository is an in-memory Repository, used by unit tests and
// shared with the in-memory ledger/catalog/analytics stores.
type MemoryRepository struct {
	mu      sync.RWMutex
	users   map[string]*User
	artists map[string]*ArtistProfile
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:   make(map[string]*User),
		artists: make(map[string]*ArtistProfile),
	}
}

func (r *MemoryRepository) Create(_ context.Context, u *User, artistBio string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.Account]; ok {
		return apperr.Validation("account already exists")
	}
	cp := *u
	r.users[u.Account] = &cp
	if u.UserType == TypeArtist {
		r.artists[u.Account] = &ArtistProfile{UserAccount: u.Account, Bio: artistBio}
	}
	return nil
}

func (r *MemoryRepository) GetByAccount(_ context.Context, account string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[account]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	cp := *u
	return &cp, nil
}

func (r *MemoryRepository) GetByAccountFold(_ context.Context, account string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for acc, u := range r.users {
		if strings.EqualFold(acc, account) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("user not found")
}

func (r *MemoryRepository) GetArtist(_ context.Context, account string) (*ArtistProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.artists[account]
	if !ok {
		return nil, apperr.NotFound("artist not found")
	}
	cp := *a
	return &cp, nil
}

func (r *MemoryRepository) SetStatus(_ context.Context, account string, status AccountStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[account]
	if !ok {
		return apperr.NotFound("user not found")
	}
	u.Status = status
	return nil
}

func (r *MemoryRepository) SetOnline(_ context.Context, account string, online bool, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[account]
	if !ok {
		return apperr.NotFound("user not found")
	}
	u.IsOnline = online
	if online {
		u.LastLoginAt = at
	}
	return nil
}

// MutateArtist runs fn against the stored artist row under the lock.
// Used by the in-memory catalog's verification threshold rule.
func (r *MemoryRepository) MutateArtist(account string, fn func(*ArtistProfile)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.artists[account]
	if !ok {
		return apperr.NotFound("artist not found")
	}
	fn(a)
	return nil
}

// All returns a snapshot of every user. The in-memory analytics store
// scans this for population aggregates.
func (r *MemoryRepository) All() []User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out
}
