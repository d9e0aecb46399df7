package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"github.com/armaanamatya/3380-coogmusic-sub001/internal/catalog"
	"github.com/armaanamatya/3380-coogmusic-sub001/internal/ledger"
	"github.com/armaanamatya/3380-coogmusic-sub001/internal/user"
)

// GET /api/genres

func (h *Handler) apiGenresHandler(c echo.Context) error {
	genres, err := h.catalog.Genres(c.Request().Context())
	if err != nil {
		return kindResponse(c, err)
	}
	body := GenresResponse{
		BasicResponse: ok(),
		Genres:        genres,
	}
	if err := c.JSON(http.StatusOK, body); err != nil {
		c.Logger().Errorf("error returns JSON: %s", err)
		return errorResponse(c, 500, "internal server error")
	}
	return nil
}

// POST /api/album/add

func (h *Handler) apiAlbumAddHandler(c echo.Context) error {
	u, valid, err := h.validateSession(c)
	if err != nil {
		c.Logger().Errorf("error validateSession: %s", err)
		return errorResponse(c, 500, "internal server error")
	}
	if !valid {
		return errorResponse(c, 401, "login required")
	}
	if u.UserType != user.TypeArtist {
		return errorResponse(c, 403, "artist account required")
	}

	var req AddAlbumRequest
	if err := c.Bind(&req); err != nil {
		c.Logger().Errorf("error Bind request to AddAlbumRequest: %s", err)
		return errorResponse(c, 500, "internal server error")
	}
	if !validDisplayName(req.Title) {
		return errorResponse(c, 400, "invalid title")
	}
	releaseDate, err := time.Parse("2006-01-02", req.ReleaseDate)
	if err != nil {
		return errorResponse(c, 400, "bad release_date")
	}

	now := time.Now()
	albumULID, err := newULID(now)
	if err != nil {
		c.Logger().Errorf("error newULID: %s", err)
		return errorResponse(c, 500, "internal server error")
	}
	album := &catalog.Album{
		ULID:          albumULID,
		Title:         req.Title,
		ArtistAccount: u.Account,
		ReleaseDate:   releaseDate,
		CreatedAt:     now,
	}
	if err := h.catalog.CreateAlbum(c.Request().Context(), album); err != nil {
		return kindResponse(c, err)
	}

	body := AlbumResponse{
		BasicResponse: ok(),
		Album:         *album,
	}
	if err := c.JSON(http.StatusOK, body); err != nil {
		c.Logger().Errorf("error returns JSON: %s", err)
		return errorResponse(c, 500, "internal server error")
	}
	return nil
}

// POST /api/album/:albumUlid/delete

func (h *Handler) apiAlbumDeleteHandler(c echo.Context) error {
	u, valid, err := h.validateSession(c)
	if err != nil {
		c.Logger().Errorf("error validateSession: %s", err)
		return errorResponse(c, 500, "internal server error")
	}
	if !valid {
		return errorResponse(c, 401, "login required")
	}

	albumULID := c.Param("albumUlid")
	if !validULIDParam(albumULID) {
		return errorResponse(c, 404, "bad album ulid")
	}

	ctx := c.Request().Context()
	album, err := h.catalog.AlbumByULID(ctx, albumULID)
	if err != nil {
		return kindResponse(c, err)
	}
	if album.ArtistAccount != u.Account && u.UserType != user.TypeAdministrator {
		return errorResponse(c, 403, "do not delete other artists album")
	}

	// cascades to the album's songs and their interaction rows
	if err := h.catalog.DeleteAlbum(ctx, album.ID); err != nil {
		return kindResponse(c, err)
	}
	return okResponse(c)
}

// POST /api/song/add

func (h *Handler) apiSongAddHandler(c echo.Context) error {
	u, valid, err := h.validateSession(c)
	if err != nil {
		c.Logger().Errorf("error validateSession: %s", err)
		return errorResponse(c, 500, "internal server error")
	}
	if !valid {
		return errorResponse(c, 401, "login required")
	}
	if u.UserType != user.TypeArtist {
		return errorResponse(c, 403, "artist account required")
	}

	var req AddSongRequest
	if err := c.Bind(&req); err != nil {
		c.Logger().Errorf("error Bind request to AddSongRequest: %s", err)
		return errorResponse(c, 500, "internal server error")
	}
	if !validDisplayName(req.Title) {
		return errorResponse(c, 400, "invalid title")
	}
	if req.DurationSeconds <= 0 {
		return errorResponse(c, 400, "invalid duration_seconds")
	}

	ctx := c.Request().Context()
	var albumID *int
	if req.AlbumULID != nil {
		album, err := h.catalog.AlbumByULID(ctx, *req.AlbumULID)
		if err != nil {
			return kindResponse(c, err)
		}
		if album.ArtistAccount != u.Account {
			return errorResponse(c, 403, "do not add songs to other artists album")
		}
		albumID = &album.ID
	}
	if req.GenreID != nil {
		genres, err := h.catalog.Genres(ctx)
		if err != nil {
			return kindResponse(c, err)
		}
		if !lo.ContainsBy(genres, func(g catalog.Genre) bool { return g.ID == *req.GenreID }) {
			return errorResponse(c, 400, "unknown genre_id")
		}
	}

	now := time.Now()
	songULID, err := newULID(now)
	if err != nil {
		c.Logger().Errorf("error newULID: %s", err)
		return errorResponse(c, 500, "internal server error")
	}
	song := &catalog.Song{
		ULID:            songULID,
		Title:           req.Title,
		ArtistAccount:   u.Account,
		AlbumID:         albumID,
		GenreID:         req.GenreID,
		DurationSeconds: req.DurationSeconds,
		CreatedAt:       now,
	}
	if err := h.catalog.CreateSong(ctx, song); err != nil {
		return kindResponse(c, err)
	}
	if err := h.addActivity(c, ledger.ActivityDelta{SongsUploaded: 1}); err != nil {
		return kindResponse(c, err)
	}

	body := SongResponse{
		BasicResponse: ok(),
		Song:          *song,
	}
	if err := c.JSON(http.StatusOK, body); err != nil {
		c.Logger().Errorf("error returns JSON: %s", err)
		return errorResponse(c, 500, "internal server error")
	}
	return nil
}

// POST /api/song/:songUlid/delete

func (h *Handler) apiSongDeleteHandler(c echo.Context) error {
	u, valid, err := h.validateSession(c)
	if err != nil {
		c.Logger().Errorf("error validateSession: %s", err)
		return errorResponse(c, 500, "internal server error")
	}
	if !valid {
		return errorResponse(c, 401, "login required")
	}

	songULID := c.Param("songUlid")
	if !validULIDParam(songULID) {
		return errorResponse(c, 404, "bad song ulid")
	}

	ctx := c.Request().Context()
	song, err := h.catalog.SongByULID(ctx, songULID)
	if err != nil {
		return kindResponse(c, err)
	}
	if song.ArtistAccount != u.Account && u.UserType != user.TypeAdministrator {
		return errorResponse(c, 403, "do not delete other artists song")
	}

	if err := h.catalog.DeleteSong(ctx, song.ID); err != nil {
		return kindResponse(c, err)
	}
	return okResponse(c)
}
