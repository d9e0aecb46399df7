package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"github.com/armaanamatya/3380-coogmusic-sub001/internal/catalog"
)

const recentPlaylistsLimit = 100

// GET /api/recent_playlists

func (h *Handler) apiRecentPlaylistsHandler(c echo.Context) error {
	// login is optional here
	var viewer *string
	if u, valid, err := h.validateSession(c); err != nil {
		c.Logger().Errorf("error validateSession: %s", err)
		return errorResponse(c, 500, "internal server error")
	} else if valid {
		viewer = &u.Account
	}

	playlists, err := h.catalog.RecentPlaylists(c.Request().Context(), viewer, recentPlaylistsLimit)
	if err != nil {
		return kindResponse(c, err)
	}
	if playlists == nil {
		playlists = []catalog.PlaylistSummary{}
	}

	body := GetRecentPlaylistsResponse{
		BasicResponse: ok(),
		Playlists:     playlists,
	}
	if err := c.JSON(http.StatusOK, body); err != nil {
		c.Logger().Errorf("error returns JSON: %s", err)
		return errorResponse(c, 500, "internal server error")
	}
	return nil
}

// GET /api/popular_playlists

func (h *Handler) apiPopularPlaylistsHandler(c echo.Context) error {
	var viewer *string
	if u, valid, err := h.validateSession(c); err != nil {
		c.Logger().Errorf("error validateSession: %s", err)
		return errorResponse(c, 500, "internal server error")
	} else if valid {
		viewer = &u.Account
	}

	playlists, err := h.catalog.PopularPlaylists(c.Request().Context(), viewer, recentPlaylistsLimit)
	if err != nil {
		return kindResponse(c, err)
	}
	if playlists == nil {
		playlists = []catalog.PlaylistSummary{}
	}

	body := GetRecentPlaylistsResponse{
		BasicResponse: ok(),
		Playlists:     playlists,
	}
	if err := c.JSON(http.StatusOK, body); err != nil {
		c.Logger().Errorf("error returns JSON: %s", err)
		return errorResponse(c, 500, "internal server error")
	}
	return nil
}

// GET /api/playlists

func (h *Handler) apiPlaylistsHandler(c echo.Context) error {
	u, valid, err := h.validateSession(c)
	if err != nil {
		c.Logger().Errorf("error validateSession: %s", err)
		return errorResponse(c, 500, "internal server error")
	}
	if !valid {
		return errorResponse(c, 401, "login required")
	}

	created, err := h.catalog.PlaylistsByUser(c.Request().Context(), u.Account)
	if err != nil {
		return kindResponse(c, err)
	}
	if created == nil {
		created = []catalog.PlaylistSummary{}
	}

	body := GetPlaylistsResponse{
		BasicResponse:    ok(),
		CreatedPlaylists: created,
	}
	if err := c.JSON(http.StatusOK, body); err != nil {
		c.Logger().Errorf("error returns JSON: %s", err)
		return errorResponse(c, 500, "internal server error")
	}
	return nil
}

// GET /api/playlist/:playlistUlid

func (h *Handler) apiPlaylistHandler(c echo.Context) error {
	var viewer *string
	u, valid, err := h.validateSession(c)
	if err != nil {
		c.Logger().Errorf("error validateSession: %s", err)
		return errorResponse(c, 500, "internal server error")
	}
	if valid {
		viewer = &u.Account
	}

	playlistULID := c.Param("playlistUlid")
	if !validULIDParam(playlistULID) {
		return errorResponse(c, 400, "bad playlist ulid")
	}

	ctx := c.Request().Context()
	playlist, err := h.catalog.PlaylistByULID(ctx, playlistULID)
	if err != nil {
		return kindResponse(c, err)
	}
	// private playlists are visible to the owner only
	if !playlist.IsPublic && (viewer == nil || *viewer != playlist.UserAccount) {
		return errorResponse(c, 404, "playlist not found")
	}

	detail, err := h.catalog.PlaylistDetail(ctx, playlistULID, viewer)
	if err != nil {
		return kindResponse(c, err)
	}

	body := SinglePlaylistResponse{
		BasicResponse: ok(),
		Playlist:      *detail,
	}
	if err := c.JSON(http.StatusOK, body); err != nil {
		c.Logger().Errorf("error returns JSON: %s", err)
		return errorResponse(c, 500, "internal server error")
	}
	return nil
}

// POST /api/playlist/add

func (h *Handler) apiPlaylistAddHandler(c echo.Context) error {
	u, valid, err := h.validateSession(c)
	if err != nil {
		c.Logger().Errorf("error validateSession: %s", err)
		return errorResponse(c, 500, "internal server error")
	}
	if !valid {
		return errorResponse(c, 401, "login required")
	}

	var req AddPlaylistRequest
	if err := c.Bind(&req); err != nil {
		c.Logger().Errorf("error Bind request to AddPlaylistRequest: %s", err)
		return errorResponse(c, 500, "internal server error")
	}
	if !validPlaylistName(req.Name) {
		return errorResponse(c, 400, "invalid name")
	}

	now := time.Now()
	playlistULID, err := newULID(now)
	if err != nil {
		c.Logger().Errorf("error newULID: %s", err)
		return errorResponse(c, 500, "internal server error")
	}
	// playlists start private
	playlist := &catalog.Playlist{
		ULID:        playlistULID,
		Name:        req.Name,
		UserAccount: u.Account,
		IsPublic:    false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.catalog.CreatePlaylist(c.Request().Context(), playlist); err != nil {
		return kindResponse(c, err)
	}

	body := AddPlaylistResponse{
		BasicResponse: ok(),
		PlaylistULID:  playlistULID,
	}
	if err := c.JSON(http.StatusOK, body); err != nil {
		c.Logger().Errorf("error returns JSON: %s", err)
		return errorResponse(c, 500, "internal server error")
	}
	return nil
}

// POST /api/playlist/:playlistUlid/update

func (h *Handler) apiPlaylistUpdateHandler(c echo.Context) error {
	u, valid, err := h.validateSession(c)
	if err != nil {
		c.Logger().Errorf("error validateSession: %s", err)
		return errorResponse(c, 500, "internal server error")
	}
	if !valid {
		return errorResponse(c, 401, "login required")
	}

	playlistULID := c.Param("playlistUlid")
	if !validULIDParam(playlistULID) {
		return errorResponse(c, 404, "bad playlist ulid")
	}

	ctx := c.Request().Context()
	playlist, err := h.catalog.PlaylistByULID(ctx, playlistULID)
	if err != nil {
		return kindResponse(c, err)
	}
	if playlist.UserAccount != u.Account {
		// not the owner; hide the playlist's existence
		return errorResponse(c, 404, "playlist not found")
	}

	var req UpdatePlaylistRequest
	if err := c.Bind(&req); err != nil {
		c.Logger().Errorf("error Bind request to UpdatePlaylistRequest: %s", err)
		return errorResponse(c, 500, "internal server error")
	}
	if req.Name == nil || *req.Name == "" || req.SongULIDs == nil {
		return errorResponse(c, 400, "name, song_ulids and is_public is required")
	}
	if !validPlaylistName(*req.Name) {
		return errorResponse(c, 400, "invalid name")
	}
	if 80 < len(req.SongULIDs) {
		return errorResponse(c, 400, "invalid song_ulids")
	}
	if len(lo.Uniq(req.SongULIDs)) != len(req.SongULIDs) {
		return errorResponse(c, 400, "invalid song_ulids")
	}

	songIDs := make([]int, 0, len(req.SongULIDs))
	for _, songULID := range req.SongULIDs {
		song, err := h.catalog.SongByULID(ctx, songULID)
		if err != nil {
			return kindResponse(c, err)
		}
		songIDs = append(songIDs, song.ID)
	}

	if err := h.catalog.UpdatePlaylist(ctx, playlist.ID, *req.Name, req.IsPublic, songIDs, time.Now()); err != nil {
		return kindResponse(c, err)
	}

	detail, err := h.catalog.PlaylistDetail(ctx, playlist.ULID, &u.Account)
	if err != nil {
		return kindResponse(c, err)
	}
	body := SinglePlaylistResponse{
		BasicResponse: ok(),
		Playlist:      *detail,
	}
	if err := c.JSON(http.StatusOK, body); err != nil {
		c.Logger().Errorf("error returns JSON: %s", err)
		return errorResponse(c, 500, "internal server error")
	}
	return nil
}

// POST /api/playlist/:playlistUlid/delete

func (h *Handler) apiPlaylistDeleteHandler(c echo.Context) error {
	u, valid, err := h.validateSession(c)
	if err != nil {
		c.Logger().Errorf("error validateSession: %s", err)
		return errorResponse(c, 500, "internal server error")
	}
	if !valid {
		return errorResponse(c, 401, "login required")
	}

	playlistULID := c.Param("playlistUlid")
	if !validULIDParam(playlistULID) {
		return errorResponse(c, 404, "bad playlist ulid")
	}

	ctx := c.Request().Context()
	playlist, err := h.catalog.PlaylistByULID(ctx, playlistULID)
	if err != nil {
		return kindResponse(c, err)
	}
	if playlist.UserAccount != u.Account {
		return errorResponse(c, 400, "do not delete other users playlist")
	}

	if err := h.catalog.DeletePlaylist(ctx, playlist.ID); err != nil {
		return kindResponse(c, err)
	}
	return okResponse(c)
}

// POST /api/playlist/:playlistUlid/favorite

func (h *Handler) apiPlaylistFavoriteHandler(c echo.Context) error {
	u, valid, err := h.validateSession(c)
	if err != nil {
		c.Logger().Errorf("error validateSession: %s", err)
		return errorResponse(c, 500, "internal server error")
	}
	if !valid {
		return errorResponse(c, 401, "login required")
	}

	playlistULID := c.Param("playlistUlid")
	if !validULIDParam(playlistULID) {
		return errorResponse(c, 404, "bad playlist ulid")
	}
	var req FavoritePlaylistRequest
	if err := c.Bind(&req); err != nil {
		c.Logger().Errorf("error Bind request to FavoritePlaylistRequest: %s", err)
		return errorResponse(c, 500, "internal server error")
	}

	ctx := c.Request().Context()
	playlist, err := h.catalog.PlaylistByULID(ctx, playlistULID)
	if err != nil {
		return kindResponse(c, err)
	}
	if playlist.UserAccount != u.Account && !playlist.IsPublic {
		return errorResponse(c, 404, "playlist not found")
	}

	if req.IsFavorited {
		if err := h.catalog.LikePlaylist(ctx, u.Account, playlist.ID, time.Now()); err != nil {
			return kindResponse(c, err)
		}
	} else {
		if err := h.catalog.UnlikePlaylist(ctx, u.Account, playlist.ID); err != nil {
			return kindResponse(c, err)
		}
	}

	detail, err := h.catalog.PlaylistDetail(ctx, playlist.ULID, &u.Account)
	if err != nil {
		return kindResponse(c, err)
	}
	body := SinglePlaylistResponse{
		BasicResponse: ok(),
		Playlist:      *detail,
	}
	if err := c.JSON(http.StatusOK, body); err != nil {
		c.Logger().Errorf("error returns JSON: %s", err)
		return errorResponse(c, 500, "internal server error")
	}
	return nil
}
