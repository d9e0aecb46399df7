package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/armaanamatya/3380-coogmusic-sub001/internal/apperr"
	"github.com/armaanamatya/3380-coogmusic-sub001/internal/user"
)

// MemoryRepository is an in-memory Repository. It holds a reference to
// the user store so the online-status rule stays coupled to the ledger
// writes, mirroring the MySQL implementation's transactions.
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	logins map[int64]*Login
	users  *user.MemoryRepository
}

func NewMemoryRepository(users *user.MemoryRepository) *MemoryRepository {
	return &MemoryRepository{
		nextID: 1,
		logins: make(map[int64]*Login),
		users:  users,
	}
}

func (r *MemoryRepository) CreateLogin(ctx context.Context, account string, at time.Time) (*Login, error) {
	if _, err := r.users.GetByAccount(ctx, account); err != nil {
		return nil, err
	}
	r.mu.Lock()
	row := &Login{ID: r.nextID, UserAccount: account, LoginAt: at}
	r.logins[row.ID] = row
	r.nextID++
	r.mu.Unlock()

	if err := r.users.SetOnline(ctx, account, true, at); err != nil {
		return nil, err
	}
	cp := *row
	return &cp, nil
}

func (r *MemoryRepository) ActiveLogin(_ context.Context, account string) (*Login, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest *Login
	for _, row := range r.logins {
		if row.UserAccount != account || !row.Open() {
			continue
		}
		if latest == nil || row.LoginAt.After(latest.LoginAt) ||
			(row.LoginAt.Equal(latest.LoginAt) && row.ID > latest.ID) {
			latest = row
		}
	}
	if latest == nil {
		return nil, apperr.NotFound("no active login")
	}
	cp := *latest
	return &cp, nil
}

func (r *MemoryRepository) AddActivity(_ context.Context, loginID int64, delta ActivityDelta) error {
	if delta.Empty() {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.logins[loginID]
	if !ok || !row.Open() {
		return apperr.NotFound("no active login")
	}
	row.SongsPlayed += delta.SongsPlayed
	row.SongsLiked += delta.SongsLiked
	row.ArtistsFollowed += delta.ArtistsFollowed
	row.SongsUploaded += delta.SongsUploaded
	return nil
}

func (r *MemoryRepository) CloseLogin(ctx context.Context, loginID int64, at time.Time) (*Login, error) {
	r.mu.Lock()
	row, ok := r.logins[loginID]
	if !ok || !row.Open() {
		r.mu.Unlock()
		return nil, apperr.NotFound("no open login")
	}
	logout := at
	duration := int64(at.Sub(row.LoginAt) / time.Second)
	row.LogoutAt = &logout
	row.DurationSeconds = &duration
	account := row.UserAccount
	cp := *row
	r.mu.Unlock()

	if err := r.users.SetOnline(ctx, account, false, at); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (r *MemoryRepository) InactiveLogins(_ context.Context, olderThan time.Duration, now time.Time) ([]Login, error) {
	cutoff := now.Add(-olderThan)
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Login
	for _, row := range r.logins {
		if row.Open() && row.LoginAt.Before(cutoff) {
			out = append(out, *row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LoginAt.Before(out[j].LoginAt) })
	return out, nil
}

func (r *MemoryRepository) SweepInactive(ctx context.Context, olderThan time.Duration, now time.Time) (int, error) {
	stale, err := r.InactiveLogins(ctx, olderThan, now)
	if err != nil {
		return 0, err
	}
	closed := 0
	for _, row := range stale {
		if _, err := r.CloseLogin(ctx, row.ID, now); err != nil {
			if apperr.IsKind(err, apperr.KindNotFound) {
				continue
			}
			return closed, err
		}
		closed++
	}
	return closed, nil
}

// All returns a snapshot of every ledger row for the in-memory
// analytics store.
func (r *MemoryRepository) All() []Login {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Login, 0, len(r.logins))
	for _, row := range r.logins {
		out = append(out, *row)
	}
	return out
}
