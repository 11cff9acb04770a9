package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/yuvrajxx14mu/marketing-yard/internal/middleware"
	"github.com/yuvrajxx14mu/marketing-yard/internal/repository"
)

// SettingsHandler serves the profile settings page data.
type SettingsHandler struct {
	Users    *repository.UserRepo
	Profiles *repository.ProfileRepo
}

// Get returns the caller's account and profile for the settings form.
func (h *SettingsHandler) Get(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}

	out := echo.Map{
		"id":       u.ID,
		"email":    u.Email,
		"role":     u.Role,
		"name":     "",
		"phone":    nil,
		"location": nil,
	}
	if p, err := h.Profiles.GetByID(ctx, uid); err == nil {
		out["name"] = p.Name
		out["phone"] = p.Phone
		out["location"] = p.Location
	}
	return c.JSON(http.StatusOK, out)
}

type updateProfileReq struct {
	Name     string  `json:"name"`
	Phone    *string `json:"phone"`
	Location *string `json:"location"`
}

// Update rewrites the caller's profile attributes. Email and role are
// not editable here.
func (h *SettingsHandler) Update(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req updateProfileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Profiles.Update(ctx, uid, req.Name, req.Phone, req.Location); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": uid, "name": req.Name})
}
