package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/armaanamatya/3380-coogmusic-sub001/internal/apperr"
	"github.com/armaanamatya/3380-coogmusic-sub001/internal/catalog"
	"github.com/armaanamatya/3380-coogmusic-sub001/internal/ledger"
	"github.com/armaanamatya/3380-coogmusic-sub001/internal/user"
)

type fixture struct {
	users   *user.MemoryRepository
	logins  *ledger.MemoryRepository
	catalog *catalog.MemoryRepository
	agg     *Aggregator
}

func newAggFixture(t *testing.T) *fixture {
	t.Helper()
	users := user.NewMemoryRepository()
	logins := ledger.NewMemoryRepository(users)
	cat := catalog.NewMemoryRepository(users)
	agg := NewAggregator(NewMemoryStore(users, logins, cat))
	agg.now = func() time.Time { return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC) }
	return &fixture{users: users, logins: logins, catalog: cat, agg: agg}
}

func (f *fixture) seedUser(t *testing.T, account string, typ user.UserType, joined time.Time, dob time.Time, country string) {
	t.Helper()
	u := &user.User{
		Account:     account,
		DisplayName: account,
		DateOfBirth: dob,
		Country:     country,
		City:        "Houston",
		UserType:    typ,
		Status:      user.StatusActive,
		CreatedAt:   joined,
	}
	bio := ""
	if typ == user.TypeArtist {
		bio = "bio"
	}
	if err := f.users.Create(context.Background(), u, bio); err != nil {
		t.Fatalf("seed user %s: %v", account, err)
	}
}

var (
	dobAdult = time.Date(1998, 5, 1, 0, 0, 0, 0, time.UTC)
	jan10    = time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
)

func TestPopulationReportValidation(t *testing.T) {
	// a nil store pins that validation happens before any store access
	agg := NewAggregator(nil)
	ctx := context.Background()

	cases := []PopulationRequest{
		{EndDate: "2024-01-31", IncludeListeners: true},
		{StartDate: "2024-01-01", IncludeListeners: true},
		{StartDate: "not-a-date", EndDate: "2024-01-31", IncludeListeners: true},
		{StartDate: "2024-02-01", EndDate: "2024-01-31", IncludeListeners: true},
		{StartDate: "2024-01-01", EndDate: "2024-01-31"},
	}
	for _, req := range cases {
		if _, err := agg.PopulationReport(ctx, req); !apperr.IsKind(err, apperr.KindValidation) {
			t.Errorf("req %+v: err = %v, want validation", req, err)
		}
	}
}

func TestPopulationReportEndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newAggFixture(t)
	f.seedUser(t, "listener1", user.TypeListener, jan10, dobAdult, "United States")
	f.seedUser(t, "artist1", user.TypeArtist, time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), dobAdult, "Canada")

	login, err := f.logins.CreateLogin(ctx, "listener1", jan10)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.logins.AddActivity(ctx, login.ID, ledger.ActivityDelta{SongsPlayed: 5}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.logins.CloseLogin(ctx, login.ID, jan10.Add(3600*time.Second)); err != nil {
		t.Fatal(err)
	}

	song := &catalog.Song{ULID: "01SONG", Title: "song", ArtistAccount: "artist1", DurationSeconds: 200, CreatedAt: jan10}
	if err := f.catalog.CreateSong(ctx, song); err != nil {
		t.Fatal(err)
	}
	if _, err := f.catalog.RateSong(ctx, "listener1", song.ID, 4, jan10); err != nil {
		t.Fatal(err)
	}
	rated, err := f.catalog.RateSong(ctx, "listener1", song.ID, 5, jan10.Add(time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if rated.AverageRating != 5.00 || rated.TotalRatings != 1 {
		t.Fatalf("rating aggregate = %.2f/%d, want 5.00/1", rated.AverageRating, rated.TotalRatings)
	}

	report, err := f.agg.PopulationReport(ctx, PopulationRequest{
		StartDate:        "2024-01-01",
		EndDate:          "2024-01-31",
		IncludeListeners: true,
	})
	if err != nil {
		t.Fatalf("PopulationReport: %v", err)
	}
	if report.UserCounts.Listeners == nil || *report.UserCounts.Listeners != 1 {
		t.Errorf("userCounts.listeners = %v, want 1", report.UserCounts.Listeners)
	}
	// artists were not requested, so the side is absent entirely
	if report.UserCounts.Artists != nil {
		t.Errorf("userCounts.artists = %v, want omitted", *report.UserCounts.Artists)
	}
	if report.UserCounts.Ratio != "" {
		t.Errorf("ratio = %q, want empty with one side requested", report.UserCounts.Ratio)
	}
	if lt := report.LoginTime.Listeners; lt == nil || lt.Total != 3600 || lt.Average != 3600 {
		t.Errorf("loginTime.listeners = %+v, want {3600 3600}", lt)
	}
	if report.LoginTime.All.Total != 3600 {
		t.Errorf("loginTime.all.total = %d, want 3600", report.LoginTime.All.Total)
	}
	if report.SongsListened != 5 {
		t.Errorf("songsListened = %d, want 5 (from the ledger counter)", report.SongsListened)
	}
	if report.LoginCounts.Listeners == nil || *report.LoginCounts.Listeners != 1 {
		t.Errorf("loginCounts.listeners = %v, want 1", report.LoginCounts.Listeners)
	}
}

func TestPopulationReportRatioSentinel(t *testing.T) {
	ctx := context.Background()
	f := newAggFixture(t)
	f.seedUser(t, "listener1", user.TypeListener, jan10, dobAdult, "United States")
	f.seedUser(t, "listener2", user.TypeListener, jan10, dobAdult, "United States")

	report, err := f.agg.PopulationReport(ctx, PopulationRequest{
		StartDate:        "2024-01-01",
		EndDate:          "2024-01-31",
		IncludeListeners: true,
		IncludeArtists:   true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if report.UserCounts.Ratio != "N/A" {
		t.Errorf("ratio with zero artists = %q, want N/A", report.UserCounts.Ratio)
	}
	if report.UserCounts.Artists == nil || *report.UserCounts.Artists != 0 {
		t.Errorf("artists = %v, want explicit 0", report.UserCounts.Artists)
	}
}

func TestPopulationReportExcludesAnalysts(t *testing.T) {
	ctx := context.Background()
	f := newAggFixture(t)
	f.seedUser(t, "listener1", user.TypeListener, jan10, dobAdult, "United States")
	f.seedUser(t, "analyst1", user.TypeAnalyst, jan10, dobAdult, "United States")
	if _, err := f.logins.CreateLogin(ctx, "analyst1", jan10); err != nil {
		t.Fatal(err)
	}

	report, err := f.agg.PopulationReport(ctx, PopulationRequest{
		StartDate:          "2024-01-01",
		EndDate:            "2024-01-31",
		IncludeListeners:   true,
		IncludeGeographics: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if *report.UserCounts.Listeners != 1 {
		t.Errorf("listeners = %d, want 1 (analyst excluded)", *report.UserCounts.Listeners)
	}
	if *report.LoginCounts.Listeners != 0 {
		t.Errorf("login counts = %d, want 0", *report.LoginCounts.Listeners)
	}
	for _, c := range report.Demographics.Countries {
		if c.Count != 1 {
			t.Errorf("country %s count = %d, want 1", c.Country, c.Count)
		}
	}
}

func TestPopulationReportDemographics(t *testing.T) {
	ctx := context.Background()
	f := newAggFixture(t)
	// six countries so the top-5 cut drops one
	seeds := []struct {
		account string
		dob     time.Time
		country string
	}{
		{"u1", time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC), "United States"},
		{"u2", time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC), "United States"},
		{"u3", time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), "United States"},
		{"u4", time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), "Canada"},
		{"u5", time.Date(1960, 1, 1, 0, 0, 0, 0, time.UTC), "Iceland"},
		{"u6", time.Date(1960, 1, 1, 0, 0, 0, 0, time.UTC), "Mexico"},
		{"u7", time.Date(1985, 1, 1, 0, 0, 0, 0, time.UTC), "Brazil"},
		{"u8", time.Date(1985, 1, 1, 0, 0, 0, 0, time.UTC), "Zambia"},
	}
	for _, s := range seeds {
		f.seedUser(t, s.account, user.TypeListener, jan10, s.dob, s.country)
	}

	report, err := f.agg.PopulationReport(ctx, PopulationRequest{
		StartDate:          "2024-01-01",
		EndDate:            "2024-01-31",
		IncludeListeners:   true,
		IncludeGeographics: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	demo := report.Demographics
	if demo == nil {
		t.Fatal("demographics missing despite flag")
	}

	// all six bands present, report order, percentages of the population
	wantBands := map[string]struct {
		count int
		pct   string
	}{
		"<18": {2, "25.00%"}, "18-24": {0, "0.00%"}, "25-34": {2, "25.00%"},
		"35-44": {2, "25.00%"}, "45-54": {0, "0.00%"}, ">55": {2, "25.00%"},
	}
	if len(demo.AgeBands) != len(ageBands) {
		t.Fatalf("bands = %d, want %d", len(demo.AgeBands), len(ageBands))
	}
	for i, b := range demo.AgeBands {
		if b.Band != ageBands[i] {
			t.Errorf("band[%d] = %s, want %s", i, b.Band, ageBands[i])
		}
		want := wantBands[b.Band]
		if b.Count != want.count || b.Percentage != want.pct {
			t.Errorf("band %s = %d/%s, want %d/%s", b.Band, b.Count, b.Percentage, want.count, want.pct)
		}
	}

	if len(demo.Countries) != 5 {
		t.Fatalf("countries = %d, want top-5 of 6", len(demo.Countries))
	}
	top := demo.Countries[0]
	if top.Country != "United States" || top.Code != "US" || top.Count != 3 {
		t.Errorf("top country = %+v", top)
	}
	// percentage is of the top-5 set (3+1+1+1+1 = 7), not of all 8 users
	if top.Percentage != "42.86%" {
		t.Errorf("top percentage = %s, want 42.86%% of the top-5 set", top.Percentage)
	}
	for _, c := range demo.Countries {
		if c.Country == "Iceland" && c.Code != "IC" {
			t.Errorf("unmapped country code = %s, want IC fallback", c.Code)
		}
	}
}

func TestPopulationReportOptionalSubReports(t *testing.T) {
	ctx := context.Background()
	f := newAggFixture(t)
	f.seedUser(t, "listener1", user.TypeListener, jan10, dobAdult, "United States")
	f.seedUser(t, "artist1", user.TypeArtist, jan10, dobAdult, "Canada")

	p := &catalog.Playlist{ULID: "01PL", Name: "mix", UserAccount: "listener1", IsPublic: true, CreatedAt: jan10, UpdatedAt: jan10}
	if err := f.catalog.CreatePlaylist(ctx, p); err != nil {
		t.Fatal(err)
	}
	album := &catalog.Album{ULID: "01AL", Title: "album", ArtistAccount: "artist1", ReleaseDate: jan10, CreatedAt: jan10}
	if err := f.catalog.CreateAlbum(ctx, album); err != nil {
		t.Fatal(err)
	}
	if err := f.catalog.LikeAlbum(ctx, "listener1", album.ID, jan10); err != nil {
		t.Fatal(err)
	}

	plain, err := f.agg.PopulationReport(ctx, PopulationRequest{
		StartDate: "2024-01-01", EndDate: "2024-01-31", IncludeListeners: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if plain.PlaylistStats != nil || plain.AlbumStats != nil || plain.Demographics != nil {
		t.Error("unflagged sub-reports present")
	}

	full, err := f.agg.PopulationReport(ctx, PopulationRequest{
		StartDate: "2024-01-01", EndDate: "2024-01-31",
		IncludeListeners: true, IncludeArtists: true,
		IncludePlaylistStatistics: true, IncludeAlbumStatistics: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	ps := full.PlaylistStats
	if ps == nil || ps.PublicCreated != 1 || ps.PrivateCreated != 0 {
		t.Errorf("playlist stats = %+v", ps)
	}
	if ps.PublicPrivateRatio != "N/A" {
		t.Errorf("public:private ratio = %q, want N/A with zero private", ps.PublicPrivateRatio)
	}
	as := full.AlbumStats
	if as == nil || as.Created != 1 || as.TotalLikes != 1 || as.DistinctLiked != 1 {
		t.Errorf("album stats = %+v", as)
	}
}

func TestUserReportErrorKinds(t *testing.T) {
	ctx := context.Background()
	f := newAggFixture(t)
	f.seedUser(t, "analyst1", user.TypeAnalyst, jan10, dobAdult, "United States")

	_, err := f.agg.UserReport(ctx, UserReportRequest{Username: "nobody", StartDate: "2024-01-01", EndDate: "2024-01-31"})
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("unknown user err = %v, want not-found", err)
	}
	_, err = f.agg.UserReport(ctx, UserReportRequest{Username: "analyst1", StartDate: "2024-01-01", EndDate: "2024-01-31"})
	if !apperr.IsKind(err, apperr.KindPolicy) {
		t.Errorf("analyst target err = %v, want policy", err)
	}
	if apperr.IsKind(err, apperr.KindNotFound) {
		t.Error("policy error also matches not-found, kinds not distinguishable")
	}
}

func TestUserReportListenerShape(t *testing.T) {
	ctx := context.Background()
	f := newAggFixture(t)
	f.seedUser(t, "Listener1", user.TypeListener, jan10, dobAdult, "United States")
	f.seedUser(t, "artist1", user.TypeArtist, jan10, dobAdult, "Canada")

	songA := &catalog.Song{ULID: "01SA", Title: "alpha", ArtistAccount: "artist1", DurationSeconds: 100, CreatedAt: jan10}
	songB := &catalog.Song{ULID: "01SB", Title: "beta", ArtistAccount: "artist1", DurationSeconds: 100, CreatedAt: jan10}
	for _, s := range []*catalog.Song{songA, songB} {
		if err := f.catalog.CreateSong(ctx, s); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 3; i++ {
		if err := f.catalog.RecordListen(ctx, "Listener1", songA.ID, jan10.Add(time.Duration(i)*time.Hour), 100); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.catalog.RecordListen(ctx, "Listener1", songB.ID, jan10, 50); err != nil {
		t.Fatal(err)
	}
	if err := f.catalog.LikeSong(ctx, "Listener1", songB.ID, jan10); err != nil {
		t.Fatal(err)
	}
	p := &catalog.Playlist{ULID: "01PL", Name: "mix", UserAccount: "Listener1", CreatedAt: jan10, UpdatedAt: jan10}
	if err := f.catalog.CreatePlaylist(ctx, p); err != nil {
		t.Fatal(err)
	}

	// case-insensitive fallback resolves the canonical account
	report, err := f.agg.UserReport(ctx, UserReportRequest{Username: "listener1", StartDate: "2024-01-01", EndDate: "2024-01-31"})
	if err != nil {
		t.Fatalf("UserReport: %v", err)
	}
	if report.Profile.Account != "Listener1" {
		t.Errorf("resolved account = %s", report.Profile.Account)
	}
	if report.Artist != nil || report.Listener == nil {
		t.Fatal("wrong report shape for a listener")
	}
	l := report.Listener
	if l.SongsPlayed != 4 || l.DistinctSongs != 2 || l.ListeningSeconds != 350 {
		t.Errorf("listening = %d/%d/%d, want 4/2/350", l.SongsPlayed, l.DistinctSongs, l.ListeningSeconds)
	}
	if l.PlaylistsCreated != 1 || l.SongsLiked != 1 {
		t.Errorf("created=%d liked=%d", l.PlaylistsCreated, l.SongsLiked)
	}
	if len(l.TopSongs) != 2 || l.TopSongs[0].Title != "alpha" || l.TopSongs[0].PlayCount != 3 {
		t.Errorf("top songs = %+v", l.TopSongs)
	}
}

func TestUserReportArtistShape(t *testing.T) {
	ctx := context.Background()
	f := newAggFixture(t)
	f.seedUser(t, "artist1", user.TypeArtist, jan10, dobAdult, "Canada")
	f.seedUser(t, "listener1", user.TypeListener, jan10, dobAdult, "United States")

	rock, err := f.catalog.CreateGenre(ctx, "Rock")
	if err != nil {
		t.Fatal(err)
	}
	songA := &catalog.Song{ULID: "01SA", Title: "alpha", ArtistAccount: "artist1", GenreID: &rock.ID, DurationSeconds: 100, CreatedAt: jan10}
	songB := &catalog.Song{ULID: "01SB", Title: "beta", ArtistAccount: "artist1", DurationSeconds: 100, CreatedAt: jan10}
	for _, s := range []*catalog.Song{songA, songB} {
		if err := f.catalog.CreateSong(ctx, s); err != nil {
			t.Fatal(err)
		}
	}
	album := &catalog.Album{ULID: "01AL", Title: "album", ArtistAccount: "artist1", ReleaseDate: jan10, CreatedAt: jan10}
	if err := f.catalog.CreateAlbum(ctx, album); err != nil {
		t.Fatal(err)
	}
	if err := f.catalog.LikeAlbum(ctx, "listener1", album.ID, jan10); err != nil {
		t.Fatal(err)
	}

	// two plays by the listener, one by the artist themselves
	if err := f.catalog.RecordListen(ctx, "listener1", songA.ID, jan10, 100); err != nil {
		t.Fatal(err)
	}
	if err := f.catalog.RecordListen(ctx, "listener1", songA.ID, jan10.Add(time.Hour), 100); err != nil {
		t.Fatal(err)
	}
	if err := f.catalog.RecordListen(ctx, "artist1", songA.ID, jan10, 100); err != nil {
		t.Fatal(err)
	}

	p := &catalog.Playlist{ULID: "01PL", Name: "mix", UserAccount: "listener1", CreatedAt: jan10, UpdatedAt: jan10}
	if err := f.catalog.CreatePlaylist(ctx, p); err != nil {
		t.Fatal(err)
	}
	if err := f.catalog.UpdatePlaylist(ctx, p.ID, "mix", false, []int{songA.ID}, jan10); err != nil {
		t.Fatal(err)
	}

	report, err := f.agg.UserReport(ctx, UserReportRequest{Username: "artist1", StartDate: "2024-01-01", EndDate: "2024-01-31"})
	if err != nil {
		t.Fatalf("UserReport: %v", err)
	}
	if report.Listener != nil || report.Artist == nil {
		t.Fatal("wrong report shape for an artist")
	}
	a := report.Artist
	if a.PlaysByOthers != 2 {
		t.Errorf("plays by others = %d, want 2 (own play excluded)", a.PlaysByOthers)
	}
	if a.PlaylistAdds != 1 {
		t.Errorf("playlist adds = %d, want 1", a.PlaylistAdds)
	}
	if a.AlbumsCreated != 1 || a.AlbumsLiked != 1 {
		t.Errorf("albums = %d created / %d liked", a.AlbumsCreated, a.AlbumsLiked)
	}
	if len(a.Genres) != 2 {
		t.Fatalf("genres = %+v", a.Genres)
	}
	for _, g := range a.Genres {
		if g.Percentage != "50.00%" {
			t.Errorf("genre %s = %s, want 50.00%%", g.Genre, g.Percentage)
		}
		if g.Genre != "Rock" && g.Genre != "Unknown" {
			t.Errorf("unexpected genre %q", g.Genre)
		}
	}
	if len(a.TopSongs) != 1 || a.TopSongs[0].PlayCount != 3 {
		t.Errorf("top songs = %+v (all plays counted, self included)", a.TopSongs)
	}
}
