package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/armaanamatya/3380-coogmusic-sub001/internal/ledger"
)

// POST /api/song/:songUlid/play

func (h *Handler) apiSongPlayHandler(c echo.Context) error {
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
	var req PlayRequest
	if err := c.Bind(&req); err != nil {
		c.Logger().Errorf("error Bind request to PlayRequest: %s", err)
		return errorResponse(c, 500, "internal server error")
	}
	if req.DurationSeconds < 0 {
		return errorResponse(c, 400, "invalid duration_seconds")
	}

	ctx := c.Request().Context()
	song, err := h.catalog.SongByULID(ctx, songULID)
	if err != nil {
		return kindResponse(c, err)
	}
	if err := h.catalog.RecordListen(ctx, u.Account, song.ID, time.Now(), req.DurationSeconds); err != nil {
		return kindResponse(c, err)
	}
	if err := h.addActivity(c, ledger.ActivityDelta{SongsPlayed: 1}); err != nil {
		return kindResponse(c, err)
	}
	h.metrics.IncSongPlays()

	return okResponse(c)
}

// POST /api/song/:songUlid/like

func (h *Handler) apiSongLikeHandler(c echo.Context) error {
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
	var req LikeRequest
	if err := c.Bind(&req); err != nil {
		c.Logger().Errorf("error Bind request to LikeRequest: %s", err)
		return errorResponse(c, 500, "internal server error")
	}

	ctx := c.Request().Context()
	song, err := h.catalog.SongByULID(ctx, songULID)
	if err != nil {
		return kindResponse(c, err)
	}
	if req.IsLiked {
		if err := h.catalog.LikeSong(ctx, u.Account, song.ID, time.Now()); err != nil {
			return kindResponse(c, err)
		}
		if err := h.addActivity(c, ledger.ActivityDelta{SongsLiked: 1}); err != nil {
			return kindResponse(c, err)
		}
	} else {
		if err := h.catalog.UnlikeSong(ctx, u.Account, song.ID); err != nil {
			return kindResponse(c, err)
		}
	}

	return okResponse(c)
}

// POST /api/album/:albumUlid/like

func (h *Handler) apiAlbumLikeHandler(c echo.Context) error {
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
	var req LikeRequest
	if err := c.Bind(&req); err != nil {
		c.Logger().Errorf("error Bind request to LikeRequest: %s", err)
		return errorResponse(c, 500, "internal server error")
	}

	ctx := c.Request().Context()
	album, err := h.catalog.AlbumByULID(ctx, albumULID)
	if err != nil {
		return kindResponse(c, err)
	}
	if req.IsLiked {
		if err := h.catalog.LikeAlbum(ctx, u.Account, album.ID, time.Now()); err != nil {
			return kindResponse(c, err)
		}
	} else {
		if err := h.catalog.UnlikeAlbum(ctx, u.Account, album.ID); err != nil {
			return kindResponse(c, err)
		}
	}

	return okResponse(c)
}

// POST /api/song/:songUlid/rate

func (h *Handler) apiSongRateHandler(c echo.Context) error {
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
	var req RateRequest
	if err := c.Bind(&req); err != nil {
		c.Logger().Errorf("error Bind request to RateRequest: %s", err)
		return errorResponse(c, 500, "internal server error")
	}

	ctx := c.Request().Context()
	song, err := h.catalog.SongByULID(ctx, songULID)
	if err != nil {
		return kindResponse(c, err)
	}

	var updated = song
	if req.Rating == 0 {
		updated, err = h.catalog.DeleteSongRating(ctx, u.Account, song.ID)
	} else {
		updated, err = h.catalog.RateSong(ctx, u.Account, song.ID, req.Rating, time.Now())
	}
	if err != nil {
		return kindResponse(c, err)
	}

	body := SongResponse{
		BasicResponse: ok(),
		Song:          *updated,
	}
	if err := c.JSON(http.StatusOK, body); err != nil {
		c.Logger().Errorf("error returns JSON: %s", err)
		return errorResponse(c, 500, "internal server error")
	}
	return nil
}

// POST /api/album/:albumUlid/rate

func (h *Handler) apiAlbumRateHandler(c echo.Context) error {
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
	var req RateRequest
	if err := c.Bind(&req); err != nil {
		c.Logger().Errorf("error Bind request to RateRequest: %s", err)
		return errorResponse(c, 500, "internal server error")
	}

	ctx := c.Request().Context()
	album, err := h.catalog.AlbumByULID(ctx, albumULID)
	if err != nil {
		return kindResponse(c, err)
	}

	var updated = album
	if req.Rating == 0 {
		updated, err = h.catalog.DeleteAlbumRating(ctx, u.Account, album.ID)
	} else {
		updated, err = h.catalog.RateAlbum(ctx, u.Account, album.ID, req.Rating, time.Now())
	}
	if err != nil {
		return kindResponse(c, err)
	}

	body := AlbumResponse{
		BasicResponse: ok(),
		Album:         *updated,
	}
	if err := c.JSON(http.StatusOK, body); err != nil {
		c.Logger().Errorf("error returns JSON: %s", err)
		return errorResponse(c, 500, "internal server error")
	}
	return nil
}

// POST /api/artist/:artistAccount/follow

func (h *Handler) apiArtistFollowHandler(c echo.Context) error {
	u, valid, err := h.validateSession(c)
	if err != nil {
		c.Logger().Errorf("error validateSession: %s", err)
		return errorResponse(c, 500, "internal server error")
	}
	if !valid {
		return errorResponse(c, 401, "login required")
	}

	artistAccount := c.Param("artistAccount")
	if !validAccount(artistAccount) {
		return errorResponse(c, 404, "bad artist account")
	}
	if artistAccount == u.Account {
		return errorResponse(c, 400, "do not follow yourself")
	}
	var req FollowRequest
	if err := c.Bind(&req); err != nil {
		c.Logger().Errorf("error Bind request to FollowRequest: %s", err)
		return errorResponse(c, 500, "internal server error")
	}

	ctx := c.Request().Context()
	if req.IsFollowing {
		created, err := h.catalog.FollowArtist(ctx, u.Account, artistAccount, time.Now())
		if err != nil {
			return kindResponse(c, err)
		}
		if created {
			if err := h.addActivity(c, ledger.ActivityDelta{ArtistsFollowed: 1}); err != nil {
				return kindResponse(c, err)
			}
		}
	} else {
		if _, err := h.catalog.UnfollowArtist(ctx, u.Account, artistAccount); err != nil {
			return kindResponse(c, err)
		}
	}

	count, err := h.catalog.FollowerCount(ctx, artistAccount)
	if err != nil {
		return kindResponse(c, err)
	}
	body := FollowResponse{
		BasicResponse: ok(),
		ArtistAccount: artistAccount,
		FollowerCount: count,
		IsFollowing:   req.IsFollowing,
	}
	if err := c.JSON(http.StatusOK, body); err != nil {
		c.Logger().Errorf("error returns JSON: %s", err)
		return errorResponse(c, 500, "internal server error")
	}
	return nil
}
