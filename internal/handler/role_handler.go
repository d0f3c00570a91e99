package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"socioai/internal/service"
)

// RoleHandler exposes role administration.
type RoleHandler struct {
	svc service.RoleService
}

// NewRoleHandler creates a new role handler.
func NewRoleHandler(svc service.RoleService) *RoleHandler {
	return &RoleHandler{svc: svc}
}

// RoleRequest names a role.
type RoleRequest struct {
	Description string `json:"description" validate:"required,notblank,max=45"`
}

// CreateRole godoc
// @Summary Create role
// @Tags roles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body RoleRequest true "Role"
// @Success 201 {object} model.Role
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /roles [post]
func (h *RoleHandler) CreateRole(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var req RoleRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	role, err := h.svc.Create(c.Request().Context(), actor, req.Description)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, role)
}

// CreateRoles godoc
// @Summary Create roles in batch
// @Tags roles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body []RoleRequest true "Roles"
// @Success 201 {array} model.Role
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /roles/batch [post]
func (h *RoleHandler) CreateRoles(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var req []RoleRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("INVALID_REQUEST", "invalid request body")
	}
	descriptions := make([]string, 0, len(req))
	for _, r := range req {
		descriptions = append(descriptions, r.Description)
	}
	roles, err := h.svc.CreateBatch(c.Request().Context(), actor, descriptions)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, roles)
}

// DeleteRoles godoc
// @Summary Delete roles in batch
// @Tags roles
// @Produce json
// @Security BearerAuth
// @Param ids query string true "Comma separated role IDs"
// @Success 200 {array} BatchDeleteItem
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /roles/batch [delete]
func (h *RoleHandler) DeleteRoles(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}
	ids, err := parseIDList(c.QueryParam("ids"))
	if err != nil {
		return err
	}
	results, err := h.svc.DeleteBatch(c.Request().Context(), actor, ids)
	if err != nil {
		return fail(err)
	}
	return batchDeleteResponse(c, results)
}

// ListRoles godoc
// @Summary List roles
// @Tags roles
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Role
// @Failure 403 {object} errors.ErrorResponse
// @Router /roles [get]
func (h *RoleHandler) ListRoles(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}
	roles, err := h.svc.List(c.Request().Context(), actor)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, roles)
}

// GetRole godoc
// @Summary Get role
// @Tags roles
// @Produce json
// @Security BearerAuth
// @Param id path int true "Role ID"
// @Success 200 {object} model.Role
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /roles/{id} [get]
func (h *RoleHandler) GetRole(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	role, err := h.svc.GetByID(c.Request().Context(), actor, id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, role)
}

// UpdateRole godoc
// @Summary Rename role
// @Tags roles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Role ID"
// @Param request body RoleRequest true "Role"
// @Success 200 {object} model.Role
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /roles/{id} [put]
func (h *RoleHandler) UpdateRole(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req RoleRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	role, err := h.svc.Update(c.Request().Context(), actor, id, req.Description)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, role)
}

// DeleteRole godoc
// @Summary Delete role
// @Tags roles
// @Security BearerAuth
// @Param id path int true "Role ID"
// @Success 204
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /roles/{id} [delete]
func (h *RoleHandler) DeleteRole(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), actor, id); err != nil {
		return fail(err)
	}
	return c.NoContent(http.StatusNoContent)
}
