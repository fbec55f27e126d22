package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/session-auth/internal/core/domain"
	"github.com/99minutos/session-auth/internal/core/ports"
)

// UserHandler serves admin user management. Every route sits behind the
// Session and RBAC(admin) middleware.
type UserHandler struct {
	users ports.CredentialStore
}

func NewUserHandler(users ports.CredentialStore) *UserHandler {
	return &UserHandler{users: users}
}

// List handles GET /api/users.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Param        offset  query     int  false  "Rows to skip"
// @Param        limit   query     int  false  "Page size (max 100)"
// @Success      200     {object}  listUsersResponse
// @Failure      401     {object}  errorResponse
// @Failure      403     {object}  errorResponse
// @Router       /api/users [get]
func (h *UserHandler) List(c echo.Context) error {
	var offset, limit int
	if err := echo.QueryParamsBinder(c).
		Int("offset", &offset).
		Int("limit", &limit).
		BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "offset and limit must be integers")
	}

	users, err := h.users.List(c.Request().Context(), offset, limit)
	if err != nil {
		return err
	}

	resp := listUsersResponse{Users: make([]userDetailResponse, 0, len(users)), Offset: offset, Limit: limit}
	for _, u := range users {
		resp.Users = append(resp.Users, toUserDetail(u))
	}
	return c.JSON(http.StatusOK, resp)
}

// Get handles GET /api/users/:id.
//
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  userDetailResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	user, err := h.users.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserDetail(user))
}

// Update handles PATCH /api/users/:id. Only the fields present are changed;
// a new password is rehashed by the store.
//
// @Summary      Update a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "User id"
// @Param        body  body      updateUserRequest  true  "Fields to change"
// @Success      200   {object}  userDetailResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/users/{id} [patch]
func (h *UserHandler) Update(c echo.Context) error {
	var req updateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.users.Update(c.Request().Context(), c.Param("id"), domain.UserUpdate{
		Username: req.Username,
		Role:     req.Role,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserDetail(user))
}

// Delete handles DELETE /api/users/:id.
//
// @Summary      Delete a user
// @Tags         users
// @Param        id   path  string  true  "User id"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /api/users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	if err := h.users.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
