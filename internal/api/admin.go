package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/armaanamatya/3380-coogmusic-sub001/internal/analytics"
	"github.com/armaanamatya/3380-coogmusic-sub001/internal/catalog"
	"github.com/armaanamatya/3380-coogmusic-sub001/internal/user"
)

var accountStatuses = map[string]user.AccountStatus{
	string(user.StatusActive):    user.StatusActive,
	string(user.StatusSuspended): user.StatusSuspended,
	string(user.StatusBanned):    user.StatusBanned,
}

// adminSession resolves the session and checks the Administrator role.
// When the returned user is nil the response has already been written.
func (h *Handler) adminSession(c echo.Context) (*user.User, error) {
	u, valid, err := h.validateSession(c)
	if err != nil {
		c.Logger().Errorf("error validateSession: %s", err)
		return nil, errorResponse(c, 500, "internal server error")
	}
	if !valid {
		return nil, errorResponse(c, 401, "login required")
	}
	if u.UserType != user.TypeAdministrator {
		return nil, errorResponse(c, 403, "not admin user")
	}
	return u, nil
}

// POST /api/admin/genre/add

func (h *Handler) apiAdminGenreAddHandler(c echo.Context) error {
	admin, errRes := h.adminSession(c)
	if admin == nil {
		return errRes
	}

	var req AddGenreRequest
	if err := c.Bind(&req); err != nil {
		c.Logger().Errorf("error Bind request to AddGenreRequest: %s", err)
		return errorResponse(c, 500, "internal server error")
	}
	if !validDisplayName(req.Name) {
		return errorResponse(c, 400, "invalid name")
	}

	genre, err := h.catalog.CreateGenre(c.Request().Context(), req.Name)
	if err != nil {
		return kindResponse(c, err)
	}

	body := GenresResponse{
		BasicResponse: ok(),
		Genres:        []catalog.Genre{*genre},
	}
	if err := c.JSON(http.StatusOK, body); err != nil {
		c.Logger().Errorf("error returns JSON: %s", err)
		return errorResponse(c, 500, "internal server error")
	}
	return nil
}

// POST /api/admin/user/status

func (h *Handler) apiAdminUserStatusHandler(c echo.Context) error {
	admin, errRes := h.adminSession(c)
	if admin == nil {
		return errRes
	}

	var req AdminUserStatusRequest
	if err := c.Bind(&req); err != nil {
		c.Logger().Errorf("error Bind request to AdminUserStatusRequest: %s", err)
		return errorResponse(c, 500, "internal server error")
	}
	if !validAccount(req.UserAccount) {
		return errorResponse(c, 400, "bad user_account")
	}
	status, okStatus := accountStatuses[req.Status]
	if !okStatus {
		return errorResponse(c, 400, "bad account_status")
	}

	ctx := c.Request().Context()
	target, err := h.users.GetByAccount(ctx, req.UserAccount)
	if err != nil {
		return kindResponse(c, err)
	}
	if err := h.users.SetStatus(ctx, target.Account, status); err != nil {
		return kindResponse(c, err)
	}
	// a banned or suspended user's open login is closed on the spot,
	// not left to the sweep
	if status != user.StatusActive {
		if login, err := h.logins.ActiveLogin(ctx, target.Account); err == nil {
			if _, err := h.logins.CloseLogin(ctx, login.ID, time.Now()); err == nil {
				h.metrics.IncLogouts()
			}
		}
	}

	body := AdminUserStatusResponse{
		BasicResponse: ok(),
		UserAccount:   target.Account,
		DisplayName:   target.DisplayName,
		Status:        string(status),
	}
	if err := c.JSON(http.StatusOK, body); err != nil {
		c.Logger().Errorf("error returns JSON: %s", err)
		return errorResponse(c, 500, "internal server error")
	}
	return nil
}

// POST /api/admin/logins/sweep

func (h *Handler) apiAdminSweepLoginsHandler(c echo.Context) error {
	admin, errRes := h.adminSession(c)
	if admin == nil {
		return errRes
	}

	closed, err := h.logins.SweepInactive(c.Request().Context(), h.inactivityTimeout, time.Now())
	if err != nil {
		return kindResponse(c, err)
	}
	h.metrics.AddSweptLogins(closed)

	body := SweepLoginsResponse{
		BasicResponse: ok(),
		Closed:        closed,
	}
	if err := c.JSON(http.StatusOK, body); err != nil {
		c.Logger().Errorf("error returns JSON: %s", err)
		return errorResponse(c, 500, "internal server error")
	}
	return nil
}

// POST /api/admin/report/population

func (h *Handler) apiAdminPopulationReportHandler(c echo.Context) error {
	admin, errRes := h.adminSession(c)
	if admin == nil {
		return errRes
	}

	var req analytics.PopulationRequest
	if err := c.Bind(&req); err != nil {
		c.Logger().Errorf("error Bind request to PopulationRequest: %s", err)
		return errorResponse(c, 500, "internal server error")
	}

	report, err := h.aggregator.PopulationReport(c.Request().Context(), req)
	if err != nil {
		return kindResponse(c, err)
	}
	h.metrics.IncReportRequests()

	body := PopulationReportResponse{
		BasicResponse: ok(),
		Report:        report,
	}
	if err := c.JSON(http.StatusOK, body); err != nil {
		c.Logger().Errorf("error returns JSON: %s", err)
		return errorResponse(c, 500, "internal server error")
	}
	return nil
}

// POST /api/admin/report/user

func (h *Handler) apiAdminUserReportHandler(c echo.Context) error {
	admin, errRes := h.adminSession(c)
	if admin == nil {
		return errRes
	}

	var req analytics.UserReportRequest
	if err := c.Bind(&req); err != nil {
		c.Logger().Errorf("error Bind request to UserReportRequest: %s", err)
		return errorResponse(c, 500, "internal server error")
	}

	report, err := h.aggregator.UserReport(c.Request().Context(), req)
	if err != nil {
		return kindResponse(c, err)
	}
	h.metrics.IncReportRequests()

	body := UserReportResponse{
		BasicResponse: ok(),
		Report:        report,
	}
	if err := c.JSON(http.StatusOK, body); err != nil {
		c.Logger().Errorf("error returns JSON: %s", err)
		return errorResponse(c, 500, "internal server error")
	}
	return nil
}
