package api

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/armaanamatya/3380-coogmusic-sub001/internal/apperr"
	"github.com/armaanamatya/3380-coogmusic-sub001/internal/user"
)

var userTypes = map[string]user.UserType{
	string(user.TypeListener):      user.TypeListener,
	string(user.TypeArtist):        user.TypeArtist,
	string(user.TypeAdministrator): user.TypeAdministrator,
	string(user.TypeAnalyst):       user.TypeAnalyst,
}

// POST /api/signup

func (h *Handler) apiSignupHandler(c echo.Context) error {
	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		c.Logger().Errorf("error Bind request to SignupRequest: %s", err)
		return errorResponse(c, 500, "failed to signup")
	}

	// validation
	if !validAccount(req.UserAccount) {
		return errorResponse(c, 400, "bad user_account")
	}
	if !validPassword(req.Password) {
		return errorResponse(c, 400, "bad password")
	}
	if !validDisplayName(req.DisplayName) {
		return errorResponse(c, 400, "bad display_name")
	}
	if req.Email == "" {
		return errorResponse(c, 400, "bad email")
	}
	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		return errorResponse(c, 400, "bad date_of_birth")
	}
	userType, okType := userTypes[req.UserType]
	if req.UserType == "" {
		userType = user.TypeListener
	} else if !okType {
		return errorResponse(c, 400, "bad user_type")
	}

	passwordHash, err := generatePasswordHash(req.Password)
	if err != nil {
		c.Logger().Errorf("error generatePasswordHash: %s", err)
		return errorResponse(c, 500, "failed to signup")
	}

	now := time.Now()
	u := &user.User{
		Account:      req.UserAccount,
		PasswordHash: passwordHash,
		DisplayName:  req.DisplayName,
		Email:        req.Email,
		DateOfBirth:  dob,
		Country:      req.Country,
		City:         req.City,
		UserType:     userType,
		Status:       user.StatusActive,
		CreatedAt:    now,
		LastLoginAt:  now,
	}
	ctx := c.Request().Context()
	if err := h.users.Create(ctx, u, req.Bio); err != nil {
		return kindResponse(c, err)
	}

	// signup counts as the first login
	login, err := h.logins.CreateLogin(ctx, u.Account, now)
	if err != nil {
		return kindResponse(c, err)
	}
	h.metrics.IncLogins()

	sess, err := h.newSession(c.Request())
	if err != nil {
		c.Logger().Errorf("error newSession: %s", err)
		return errorResponse(c, 500, "failed to signup")
	}
	sess.Values["user_account"] = u.Account
	sess.Values["login_id"] = login.ID
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		c.Logger().Errorf("error Save to session: %s", err)
		return errorResponse(c, 500, "failed to signup")
	}

	return okResponse(c)
}

// POST /api/login

func (h *Handler) apiLoginHandler(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		c.Logger().Errorf("error Bind request to LoginRequest: %s", err)
		return errorResponse(c, 500, "failed to login (server error)")
	}

	// validation
	if !validAccount(req.UserAccount) {
		return errorResponse(c, 400, "bad user_account")
	}
	if !validPassword(req.Password) {
		return errorResponse(c, 400, "bad password")
	}

	ctx := c.Request().Context()
	u, err := h.users.GetByAccount(ctx, req.UserAccount)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return errorResponse(c, 401, "failed to login (no such user)")
		}
		return kindResponse(c, err)
	}
	if !u.Active() {
		return errorResponse(c, 401, "failed to login (no such user)")
	}

	matched, err := comparePasswordHash(req.Password, u.PasswordHash)
	if err != nil {
		c.Logger().Errorf("error comparePasswordHash: %s", err)
		return errorResponse(c, 500, "failed to login (server error)")
	}
	if !matched {
		return errorResponse(c, 401, "failed to login (wrong password)")
	}

	// ledger row first; it also flips the online flag
	login, err := h.logins.CreateLogin(ctx, u.Account, time.Now())
	if err != nil {
		return kindResponse(c, err)
	}
	h.metrics.IncLogins()

	sess, err := h.newSession(c.Request())
	if err != nil {
		c.Logger().Errorf("error newSession: %s", err)
		return errorResponse(c, 500, "failed to login (server error)")
	}
	sess.Values["user_account"] = u.Account
	sess.Values["login_id"] = login.ID
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		c.Logger().Errorf("error Save to session: %s", err)
		return errorResponse(c, 500, "failed to login (server error)")
	}

	return okResponse(c)
}

// POST /api/logout

func (h *Handler) apiLogoutHandler(c echo.Context) error {
	ctx := c.Request().Context()
	if id, okID := h.currentLoginID(c); okID {
		// the row may already be closed by the inactivity sweep
		if _, err := h.logins.CloseLogin(ctx, id, time.Now()); err != nil && !apperr.IsKind(err, apperr.KindNotFound) {
			return kindResponse(c, err)
		}
		h.metrics.IncLogouts()
	}

	sess, err := h.getSession(c.Request())
	if err != nil {
		c.Logger().Errorf("error getSession: %s", err)
		return errorResponse(c, 500, "failed to logout (server error)")
	}
	sess.Options.MaxAge = -1
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		c.Logger().Errorf("error Save session: %s", err)
		return errorResponse(c, 500, "failed to logout (server error)")
	}

	return okResponse(c)
}
