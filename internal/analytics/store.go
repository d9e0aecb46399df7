package analytics

import (
	"context"

	"github.com/armaanamatya/3380-coogmusic-sub001/internal/ledger"
	"github.com/armaanamatya/3380-coogmusic-sub001/internal/user"
)

// Store supplies the fact rows and pre-counted interaction aggregates
// the report assembly works from. Implementations must exclude
// Analyst-typed users from every population method; the exclusion is
// unconditional, not a request flag.
type Store interface {
	// JoinedUsers returns non-Analyst users whose join date falls
	// in the range.
	JoinedUsers(ctx context.Context, r DateRange) ([]user.User, error)
	// LoginFacts returns every non-Analyst ledger row whose login
	// date falls in the range, joined with the owner's user type.
	LoginFacts(ctx context.Context, r DateRange) ([]LoginFact, error)
	PlaylistFacts(ctx context.Context, r DateRange) (*PlaylistStats, error)
	AlbumFacts(ctx context.Context, r DateRange) (*AlbumStats, error)

	// UserByAccount resolves an individual-report target:
	// case-sensitive lookup first, case-insensitive fallback.
	UserByAccount(ctx context.Context, username string) (*user.User, error)
	UserLogins(ctx context.Context, account string, r DateRange) ([]ledger.Login, error)
	ListenerActivity(ctx context.Context, account string, r DateRange) (*ListenerReport, error)
	ArtistActivity(ctx context.Context, account string, r DateRange) (*ArtistReport, error)
}
