package analytics

import (
	"context"
	"math"
	"time"

	"github.com/armaanamatya/3380-coogmusic-sub001/internal/apperr"
	"github.com/armaanamatya/3380-coogmusic-sub001/internal/ledger"
	"github.com/armaanamatya/3380-coogmusic-sub001/internal/user"
)

var (
	errMissingRange  = apperr.Validation("start_date and end_date are required")
	errInvertedRange = apperr.Validation("start_date is after end_date")
)

func errBadDate(s string) error {
	return apperr.Validation("invalid date %q, want YYYY-MM-DD", s)
}

// Aggregator assembles reports from a Store. It holds no state beyond
// the clock, which tests pin.
type Aggregator struct {
	store Store
	now   func() time.Time
}

func NewAggregator(store Store) *Aggregator {
	return &Aggregator{store: store, now: time.Now}
}

// PopulationReport computes the requested sub-reports over the window.
// Requests are validated before the store is touched; any sub-report
// error fails the whole request rather than degrading to zeros.
func (a *Aggregator) PopulationReport(ctx context.Context, req PopulationRequest) (*PopulationReport, error) {
	r, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	if !req.IncludeListeners && !req.IncludeArtists {
		return nil, apperr.Validation("at least one of listeners or artists must be included")
	}

	users, err := a.store.JoinedUsers(ctx, r)
	if err != nil {
		return nil, err
	}
	logins, err := a.store.LoginFacts(ctx, r)
	if err != nil {
		return nil, err
	}

	report := &PopulationReport{StartDate: req.StartDate, EndDate: req.EndDate}
	report.UserCounts = a.splitUsers(users, req)
	report.LoginCounts = a.splitLogins(logins, req)
	report.LoginTime = a.loginTime(logins, req)
	report.SongsListened, report.SongsUploaded = a.activitySums(logins, req)

	if req.IncludePlaylistStatistics {
		stats, err := a.store.PlaylistFacts(ctx, r)
		if err != nil {
			return nil, err
		}
		stats.PublicPrivateRatio = ratioString(stats.PublicCreated, stats.PrivateCreated)
		report.PlaylistStats = stats
	}
	if req.IncludeAlbumStatistics {
		stats, err := a.store.AlbumFacts(ctx, r)
		if err != nil {
			return nil, err
		}
		report.AlbumStats = stats
	}
	if req.IncludeGeographics {
		report.Demographics = a.demographics(users, req)
	}
	return report, nil
}

// requested reports whether a user type belongs to the requested
// population. Administrators and Analysts are never part of it.
func requested(typ user.UserType, req PopulationRequest) bool {
	switch typ {
	case user.TypeListener:
		return req.IncludeListeners
	case user.TypeArtist:
		return req.IncludeArtists
	default:
		return false
	}
}

func (a *Aggregator) splitUsers(users []user.User, req PopulationRequest) *SplitCounts {
	listeners, artists := 0, 0
	for _, u := range users {
		switch u.UserType {
		case user.TypeListener:
			listeners++
		case user.TypeArtist:
			artists++
		}
	}
	return buildSplit(listeners, artists, req)
}

func (a *Aggregator) splitLogins(logins []LoginFact, req PopulationRequest) *SplitCounts {
	// logged-in users, not login rows
	listeners := map[string]struct{}{}
	artists := map[string]struct{}{}
	for _, l := range logins {
		switch l.UserType {
		case user.TypeListener:
			listeners[l.UserAccount] = struct{}{}
		case user.TypeArtist:
			artists[l.UserAccount] = struct{}{}
		}
	}
	return buildSplit(len(listeners), len(artists), req)
}

func buildSplit(listeners, artists int, req PopulationRequest) *SplitCounts {
	s := &SplitCounts{}
	if req.IncludeListeners {
		s.Listeners = &listeners
	}
	if req.IncludeArtists {
		s.Artists = &artists
	}
	if req.IncludeListeners && req.IncludeArtists {
		s.Ratio = ratioString(listeners, artists)
	}
	return s
}

// loginTime sums closed-session durations. Open rows and rows missing
// a duration are excluded.
func (a *Aggregator) loginTime(logins []LoginFact, req PopulationRequest) *LoginTime {
	type bucket struct {
		total int64
		users map[string]struct{}
	}
	newBucket := func() *bucket { return &bucket{users: map[string]struct{}{}} }
	listeners, artists, all := newBucket(), newBucket(), newBucket()

	add := func(b *bucket, l LoginFact) {
		b.total += *l.DurationSeconds
		b.users[l.UserAccount] = struct{}{}
	}
	for _, l := range logins {
		if l.DurationSeconds == nil || !requested(l.UserType, req) {
			continue
		}
		add(all, l)
		switch l.UserType {
		case user.TypeListener:
			add(listeners, l)
		case user.TypeArtist:
			add(artists, l)
		}
	}

	stats := func(b *bucket) DurationStats {
		s := DurationStats{Total: b.total}
		if n := len(b.users); n > 0 {
			s.Average = int64(math.Round(float64(b.total) / float64(n)))
		}
		return s
	}
	lt := &LoginTime{All: stats(all)}
	if req.IncludeListeners {
		s := stats(listeners)
		lt.Listeners = &s
	}
	if req.IncludeArtists {
		s := stats(artists)
		lt.Artists = &s
	}
	return lt
}

// activitySums reads the ledger counters directly. Listening history
// is deliberately not consulted here.
func (a *Aggregator) activitySums(logins []LoginFact, req PopulationRequest) (listened, uploaded int64) {
	for _, l := range logins {
		if !requested(l.UserType, req) {
			continue
		}
		listened += int64(l.SongsPlayed)
		uploaded += int64(l.SongsUploaded)
	}
	return listened, uploaded
}

func (a *Aggregator) demographics(users []user.User, req PopulationRequest) *Demographics {
	var population []user.User
	for _, u := range users {
		if requested(u.UserType, req) {
			population = append(population, u)
		}
	}
	now := a.now()

	byBand := map[string]int{}
	for _, u := range population {
		byBand[ageBand(u.DateOfBirth, now)]++
	}
	bands := make([]AgeBandCount, 0, len(ageBands))
	for _, band := range ageBands {
		bands = append(bands, AgeBandCount{
			Band:       band,
			Count:      byBand[band],
			Percentage: percentage(byBand[band], len(population)),
		})
	}

	byCountry := map[string]int{}
	for _, u := range population {
		if u.Country != "" {
			byCountry[u.Country]++
		}
	}
	top := topCountries(byCountry, 5)
	total := 0
	for _, c := range top {
		total += c.Count
	}
	countries := make([]CountryCount, 0, len(top))
	for _, c := range top {
		countries = append(countries, CountryCount{
			Country:    c.Name,
			Code:       countryCode(c.Name),
			Count:      c.Count,
			Percentage: percentage(c.Count, total),
		})
	}
	return &Demographics{AgeBands: bands, Countries: countries}
}

type countryTally struct {
	Name  string
	Count int
}

// topCountries picks the n largest tallies, name-ordered within equal
// counts so the result is stable.
func topCountries(byCountry map[string]int, n int) []countryTally {
	out := make([]countryTally, 0, len(byCountry))
	for name, count := range byCountry {
		out = append(out, countryTally{Name: name, Count: count})
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].Count > out[i].Count ||
				(out[j].Count == out[i].Count && out[j].Name < out[i].Name) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// UserReport builds the individual report. Unknown usernames are
// not-found; Analyst targets are a policy error; the two kinds stay
// distinguishable for the caller.
func (a *Aggregator) UserReport(ctx context.Context, req UserReportRequest) (*UserReport, error) {
	r, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	if req.Username == "" {
		return nil, apperr.Validation("username is required")
	}

	target, err := a.store.UserByAccount(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if target.UserType == user.TypeAnalyst {
		return nil, apperr.Policy("cannot analyze an Analyst account")
	}

	logins, err := a.store.UserLogins(ctx, target.Account, r)
	if err != nil {
		return nil, err
	}

	report := &UserReport{
		Profile: ProfileSummary{
			Account:     target.Account,
			DisplayName: target.DisplayName,
			UserType:    string(target.UserType),
			Country:     target.Country,
			City:        target.City,
			JoinedAt:    target.CreatedAt.Format(DateLayout),
		},
		Logins: loginStats(logins),
	}

	if target.UserType == user.TypeArtist {
		report.Artist, err = a.store.ArtistActivity(ctx, target.Account, r)
	} else {
		report.Listener, err = a.store.ListenerActivity(ctx, target.Account, r)
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

func loginStats(logins []ledger.Login) LoginStats {
	s := LoginStats{Count: len(logins)}
	closed := 0
	for _, l := range logins {
		if l.DurationSeconds == nil {
			continue
		}
		s.TotalSeconds += *l.DurationSeconds
		closed++
	}
	if closed > 0 {
		s.AverageSeconds = int64(math.Round(float64(s.TotalSeconds) / float64(closed)))
	}
	return s
}
