package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"socioai/internal/service"
)

// GoalHandler exposes goal CRUD.
type GoalHandler struct {
	svc service.GoalService
}

// NewGoalHandler creates a new goal handler.
func NewGoalHandler(svc service.GoalService) *GoalHandler {
	return &GoalHandler{svc: svc}
}

// GoalRequest carries goal fields. Dates are YYYY-MM-DD. OpeningBalance and
// CategoryID are ignored on update.
type GoalRequest struct {
	Description    string          `json:"description" validate:"required,notblank,max=45"`
	OpeningBalance decimal.Decimal `json:"opening_balance" swaggertype:"string" example:"100.00"`
	StartDate      string          `json:"start_date" validate:"required" example:"2024-01-01"`
	EndDate        string          `json:"end_date" validate:"required" example:"2024-12-31"`
	CategoryID     uint            `json:"category_id"`
}

func (r GoalRequest) input(prefix string) (service.GoalInput, error) {
	start, err := parseDate(prefix+"start_date", r.StartDate)
	if err != nil {
		return service.GoalInput{}, err
	}
	end, err := parseDate(prefix+"end_date", r.EndDate)
	if err != nil {
		return service.GoalInput{}, err
	}
	return service.GoalInput{
		Description:    r.Description,
		OpeningBalance: r.OpeningBalance,
		StartDate:      start,
		EndDate:        end,
		CategoryID:     r.CategoryID,
	}, nil
}

// CreateGoal godoc
// @Summary Create goal
// @Description The balance starts at the opening balance and afterwards moves only through ledger entries.
// @Tags goals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body GoalRequest true "Goal"
// @Success 201 {object} model.Goal
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /goals [post]
func (h *GoalHandler) CreateGoal(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var req GoalRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	in, err := req.input("")
	if err != nil {
		return err
	}
	goal, err := h.svc.Create(c.Request().Context(), actor, in)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, goal)
}

// CreateGoals godoc
// @Summary Create goals in batch
// @Description All or nothing. Administrators only.
// @Tags goals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body []GoalRequest true "Goals"
// @Success 201 {array} model.Goal
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /goals/batch [post]
func (h *GoalHandler) CreateGoals(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var req []GoalRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("INVALID_REQUEST", "invalid request body")
	}
	in := make([]service.GoalInput, 0, len(req))
	for i, r := range req {
		item, err := r.input(fmt.Sprintf("goals[%d].", i))
		if err != nil {
			return err
		}
		in = append(in, item)
	}
	goals, err := h.svc.CreateBatch(c.Request().Context(), actor, in)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, goals)
}

// DeleteGoals godoc
// @Summary Delete goals in batch
// @Description Each goal is deleted on its own. Administrators only.
// @Tags goals
// @Produce json
// @Security BearerAuth
// @Param ids query string true "Comma separated goal IDs"
// @Success 200 {array} BatchDeleteItem
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /goals/batch [delete]
func (h *GoalHandler) DeleteGoals(c echo.Context) error {
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

// ListGoals godoc
// @Summary List all goals
// @Tags goals
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Goal
// @Failure 403 {object} errors.ErrorResponse
// @Router /goals [get]
func (h *GoalHandler) ListGoals(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}
	goals, err := h.svc.List(c.Request().Context(), actor)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, goals)
}

// ListUserGoals godoc
// @Summary List goals of a user
// @Tags goals
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username (email)"
// @Success 200 {array} model.Goal
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /goals/user/{username} [get]
func (h *GoalHandler) ListUserGoals(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}
	goals, err := h.svc.ListByUsername(c.Request().Context(), actor, c.Param("username"))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, goals)
}

// GetGoal godoc
// @Summary Get goal
// @Tags goals
// @Produce json
// @Security BearerAuth
// @Param id path int true "Goal ID"
// @Success 200 {object} model.Goal
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /goals/{id} [get]
func (h *GoalHandler) GetGoal(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	goal, err := h.svc.GetByID(c.Request().Context(), actor, id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, goal)
}

// UpdateGoal godoc
// @Summary Update goal description and dates
// @Tags goals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Goal ID"
// @Param request body GoalRequest true "Goal"
// @Success 200 {object} model.Goal
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /goals/{id} [put]
func (h *GoalHandler) UpdateGoal(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req GoalRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	in, err := req.input("")
	if err != nil {
		return err
	}
	goal, err := h.svc.Update(c.Request().Context(), actor, id, in)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, goal)
}

// DeleteGoal godoc
// @Summary Delete goal
// @Description Deletes the goal with its ledger entries.
// @Tags goals
// @Security BearerAuth
// @Param id path int true "Goal ID"
// @Success 204
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /goals/{id} [delete]
func (h *GoalHandler) DeleteGoal(c echo.Context) error {
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
