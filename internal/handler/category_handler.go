package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"socioai/internal/service"
)

// CategoryHandler exposes category CRUD and per-category totals.
type CategoryHandler struct {
	svc     service.CategoryService
	reports service.ReportService
}

// NewCategoryHandler creates a new category handler.
func NewCategoryHandler(svc service.CategoryService, reports service.ReportService) *CategoryHandler {
	return &CategoryHandler{svc: svc, reports: reports}
}

// CategoryRequest creates a category owned by Username.
type CategoryRequest struct {
	Username string `json:"username" validate:"required,email"`
	Name     string `json:"name" validate:"required,notblank,max=45"`
}

// RenameCategoryRequest renames a category.
type RenameCategoryRequest struct {
	Name string `json:"name" validate:"required,notblank,max=45"`
}

// CreateCategory godoc
// @Summary Create category
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CategoryRequest true "Category"
// @Success 201 {object} model.Category
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /categories [post]
func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var req CategoryRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	category, err := h.svc.Create(c.Request().Context(), actor, service.CategoryInput{Username: req.Username, Name: req.Name})
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, category)
}

// CreateCategories godoc
// @Summary Create categories in batch
// @Description All or nothing. Administrators only.
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body []CategoryRequest true "Categories"
// @Success 201 {array} model.Category
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /categories/batch [post]
func (h *CategoryHandler) CreateCategories(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var req []CategoryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("INVALID_REQUEST", "invalid request body")
	}
	in := make([]service.CategoryInput, 0, len(req))
	for _, r := range req {
		in = append(in, service.CategoryInput{Username: r.Username, Name: r.Name})
	}
	categories, err := h.svc.CreateBatch(c.Request().Context(), actor, in)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, categories)
}

// DeleteCategories godoc
// @Summary Delete categories in batch
// @Description Each category is deleted with its goals, entries and movements on its own. Administrators only.
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Param ids query string true "Comma separated category IDs"
// @Success 200 {array} BatchDeleteItem
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /categories/batch [delete]
func (h *CategoryHandler) DeleteCategories(c echo.Context) error {
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

// ListCategories godoc
// @Summary List all categories
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Category
// @Failure 403 {object} errors.ErrorResponse
// @Router /categories [get]
func (h *CategoryHandler) ListCategories(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}
	categories, err := h.svc.List(c.Request().Context(), actor)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, categories)
}

// ListUserCategories godoc
// @Summary List categories of a user
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username (email)"
// @Success 200 {array} model.Category
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /categories/user/{username} [get]
func (h *CategoryHandler) ListUserCategories(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}
	categories, err := h.svc.ListByUsername(c.Request().Context(), actor, c.Param("username"))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, categories)
}

// CategoryTotals godoc
// @Summary Goal balance totals per category
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username (email)"
// @Success 200 {array} repository.CategoryTotal
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /categories/user/{username}/totals [get]
func (h *CategoryHandler) CategoryTotals(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}
	totals, err := h.reports.CategoryTotals(c.Request().Context(), actor, c.Param("username"))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, totals)
}

// GetCategory godoc
// @Summary Get category
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 200 {object} model.Category
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /categories/{id} [get]
func (h *CategoryHandler) GetCategory(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	category, err := h.svc.GetByID(c.Request().Context(), actor, id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, category)
}

// RenameCategory godoc
// @Summary Rename category
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Param request body RenameCategoryRequest true "New name"
// @Success 200 {object} model.Category
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /categories/{id} [put]
func (h *CategoryHandler) RenameCategory(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req RenameCategoryRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	category, err := h.svc.Rename(c.Request().Context(), actor, id, req.Name)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, category)
}

// DeleteCategory godoc
// @Summary Delete category
// @Description Deletes the category with its goals, ledger entries, incomes and expenses.
// @Tags categories
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 204
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
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
