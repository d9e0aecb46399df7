// Package api exposes the HTTP/JSON surface: auth, catalog actions,
// playlists, and the admin/report endpoints.
package api

import (
	"fmt"
	"math/rand"
	"net/http"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/armaanamatya/3380-coogmusic-sub001/internal/analytics"
	"github.com/armaanamatya/3380-coogmusic-sub001/internal/apperr"
	"github.com/armaanamatya/3380-coogmusic-sub001/internal/catalog"
	"github.com/armaanamatya/3380-coogmusic-sub001/internal/ledger"
	"github.com/armaanamatya/3380-coogmusic-sub001/internal/metrics"
	"github.com/armaanamatya/3380-coogmusic-sub001/internal/user"
)

const SessionCookieName = "coogmusic_session"

// for use ULID
var entropy = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)

func newULID(at time.Time) (string, error) {
	id, err := ulid.New(ulid.Timestamp(at), entropy)
	if err != nil {
		return "", fmt.Errorf("error ulid.New: %w", err)
	}
	return id.String(), nil
}

// Handler carries the stores and the session layer for every route.
type Handler struct {
	users             user.Repository
	logins            ledger.Repository
	catalog           catalog.Repository
	aggregator        *analytics.Aggregator
	sessionStore      sessions.Store
	metrics           *metrics.Metrics
	inactivityTimeout time.Duration
}

func NewHandler(
	users user.Repository,
	logins ledger.Repository,
	cat catalog.Repository,
	aggregator *analytics.Aggregator,
	sessionStore sessions.Store,
	m *metrics.Metrics,
	inactivityTimeout time.Duration,
) *Handler {
	if inactivityTimeout <= 0 {
		inactivityTimeout = ledger.DefaultInactivityTimeout
	}
	return &Handler{
		users:             users,
		logins:            logins,
		catalog:           cat,
		aggregator:        aggregator,
		sessionStore:      sessionStore,
		metrics:           m,
		inactivityTimeout: inactivityTimeout,
	}
}

// Register wires every route onto the echo instance.
func (h *Handler) Register(e *echo.Echo) {
	e.POST("/api/signup", h.apiSignupHandler)
	e.POST("/api/login", h.apiLoginHandler)
	e.POST("/api/logout", h.apiLogoutHandler)

	e.GET("/api/genres", h.apiGenresHandler)
	e.POST("/api/album/add", h.apiAlbumAddHandler)
	e.POST("/api/album/:albumUlid/delete", h.apiAlbumDeleteHandler)
	e.POST("/api/album/:albumUlid/like", h.apiAlbumLikeHandler)
	e.POST("/api/album/:albumUlid/rate", h.apiAlbumRateHandler)
	e.POST("/api/song/add", h.apiSongAddHandler)
	e.POST("/api/song/:songUlid/delete", h.apiSongDeleteHandler)
	e.POST("/api/song/:songUlid/play", h.apiSongPlayHandler)
	e.POST("/api/song/:songUlid/like", h.apiSongLikeHandler)
	e.POST("/api/song/:songUlid/rate", h.apiSongRateHandler)
	e.POST("/api/artist/:artistAccount/follow", h.apiArtistFollowHandler)

	e.GET("/api/recent_playlists", h.apiRecentPlaylistsHandler)
	e.GET("/api/popular_playlists", h.apiPopularPlaylistsHandler)
	e.GET("/api/playlists", h.apiPlaylistsHandler)
	e.GET("/api/playlist/:playlistUlid", h.apiPlaylistHandler)
	e.POST("/api/playlist/add", h.apiPlaylistAddHandler)
	e.POST("/api/playlist/:playlistUlid/update", h.apiPlaylistUpdateHandler)
	e.POST("/api/playlist/:playlistUlid/delete", h.apiPlaylistDeleteHandler)
	e.POST("/api/playlist/:playlistUlid/favorite", h.apiPlaylistFavoriteHandler)

	e.POST("/api/admin/genre/add", h.apiAdminGenreAddHandler)
	e.POST("/api/admin/user/status", h.apiAdminUserStatusHandler)
	e.POST("/api/admin/logins/sweep", h.apiAdminSweepLoginsHandler)
	e.POST("/api/admin/report/population", h.apiAdminPopulationReportHandler)
	e.POST("/api/admin/report/user", h.apiAdminUserReportHandler)
}

func (h *Handler) getSession(r *http.Request) (*sessions.Session, error) {
	session, err := h.sessionStore.Get(r, SessionCookieName)
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (h *Handler) newSession(r *http.Request) (*sessions.Session, error) {
	session, err := h.sessionStore.New(r, SessionCookieName)
	if err != nil {
		return nil, err
	}
	return session, nil
}

func errorResponse(c echo.Context, code int, message string) error {
	c.Logger().Debugf("error: status=%d, message=%s", code, message)

	body := BasicResponse{
		Result: false,
		Status: code,
		Error:  &message,
	}
	if err := c.JSON(code, body); err != nil {
		return fmt.Errorf("error returns JSON at errorResponse: %w", err)
	}
	return nil
}

// kindResponse maps the error taxonomy onto status codes. Internal
// errors are logged and answered with a generic reason, never with
// query text.
func kindResponse(c echo.Context, err error) error {
	if apperr.KindOf(err) == apperr.KindInternal {
		c.Logger().Errorf("internal error: %s", err)
	}
	return errorResponse(c, apperr.StatusCode(err), apperr.Reason(err))
}

// validateSession resolves the session cookie to an active user.
func (h *Handler) validateSession(c echo.Context) (*user.User, bool, error) {
	sess, err := h.getSession(c.Request())
	if err != nil {
		return nil, false, fmt.Errorf("error getSession: %w", err)
	}
	_account, ok := sess.Values["user_account"]
	if !ok {
		return nil, false, nil
	}
	account, ok := _account.(string)
	if !ok {
		return nil, false, nil
	}
	u, err := h.users.GetByAccount(c.Request().Context(), account)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("error GetByAccount: %w", err)
	}
	if !u.Active() {
		return nil, false, nil
	}
	return u, true, nil
}

// currentLoginID returns the ledger row id stored at login time.
func (h *Handler) currentLoginID(c echo.Context) (int64, bool) {
	sess, err := h.getSession(c.Request())
	if err != nil {
		return 0, false
	}
	_id, ok := sess.Values["login_id"]
	if !ok {
		return 0, false
	}
	id, ok := _id.(int64)
	return id, ok
}

// addActivity increments the caller's open ledger row. A missing or
// already-closed row (swept in the background) is not an error for
// the triggering action.
func (h *Handler) addActivity(c echo.Context, delta ledger.ActivityDelta) error {
	id, ok := h.currentLoginID(c)
	if !ok {
		return nil
	}
	err := h.logins.AddActivity(c.Request().Context(), id, delta)
	if err != nil && !apperr.IsKind(err, apperr.KindNotFound) {
		return err
	}
	return nil
}

var accountPattern = regexp.MustCompile(`[^a-zA-Z0-9\-_]`)

func validAccount(account string) bool {
	if account == "" || len(account) < 4 || 191 < len(account) {
		return false
	}
	return !accountPattern.MatchString(account)
}

func validPassword(password string) bool {
	if password == "" || len(password) < 8 || 64 < len(password) {
		return false
	}
	return !accountPattern.MatchString(password)
}

func validDisplayName(name string) bool {
	n := utf8.RuneCountInString(name)
	return name != "" && 2 <= n && n <= 24
}

func validPlaylistName(name string) bool {
	n := utf8.RuneCountInString(name)
	return name != "" && 2 <= n && n <= 191
}

var ulidPattern = regexp.MustCompile("[^a-zA-Z0-9]")

func validULIDParam(s string) bool {
	return s != "" && !ulidPattern.MatchString(s)
}

func generatePasswordHash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), 11)
	if err != nil {
		return "", fmt.Errorf("error bcrypt.GenerateFromPassword: %w", err)
	}
	return string(hashed), nil
}

func comparePasswordHash(newPassword, passwordHash string) (bool, error) {
	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(newPassword)); err != nil {
		if err == bcrypt.ErrMismatchedHashAndPassword {
			return false, nil
		}
		return false, fmt.Errorf("error bcrypt.CompareHashAndPassword: %w", err)
	}
	return true, nil
}

func okResponse(c echo.Context) error {
	body := BasicResponse{
		Result: true,
		Status: 200,
	}
	if err := c.JSON(http.StatusOK, body); err != nil {
		return fmt.Errorf("error returns JSON: %w", err)
	}
	return nil
}

func ok() BasicResponse {
	return BasicResponse{Result: true, Status: 200}
}
