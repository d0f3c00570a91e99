package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"socioai/internal/model"
	"socioai/internal/service"
)

// MovementHandler serves incomes or expenses. Both share one shape.
type MovementHandler[T model.Income | model.Expense] struct {
	svc service.MovementService[T]
	// plural names batch items in validation fields, e.g. incomes[0].timestamp.
	plural string
}

// NewIncomeHandler creates the income handler.
func NewIncomeHandler(svc service.MovementService[model.Income]) *MovementHandler[model.Income] {
	return &MovementHandler[model.Income]{svc: svc, plural: "incomes"}
}

// NewExpenseHandler creates the expense handler.
func NewExpenseHandler(svc service.MovementService[model.Expense]) *MovementHandler[model.Expense] {
	return &MovementHandler[model.Expense]{svc: svc, plural: "expenses"}
}

// MovementRequest carries an income or expense. Amount must be positive.
type MovementRequest struct {
	Description string          `json:"description" validate:"max=100"`
	Amount      decimal.Decimal `json:"amount" swaggertype:"string" example:"250.00"`
	Timestamp   string          `json:"timestamp" validate:"required" example:"2024-03-15T10:00:00"`
	CategoryID  uint            `json:"category_id" validate:"required"`
}

func (r MovementRequest) input(prefix string) (service.MovementInput, error) {
	at, err := parseTimestamp(prefix+"timestamp", r.Timestamp)
	if err != nil {
		return service.MovementInput{}, err
	}
	return service.MovementInput{
		Description: r.Description,
		Amount:      r.Amount,
		OccurredAt:  at,
		CategoryID:  r.CategoryID,
	}, nil
}

// Create godoc
// @Summary Record income or expense
// @Tags movements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body MovementRequest true "Movement"
// @Success 201 {object} model.Movement
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /incomes [post]
// @Router /expenses [post]
func (h *MovementHandler[T]) Create(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var req MovementRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	in, err := req.input("")
	if err != nil {
		return err
	}
	m, err := h.svc.Create(c.Request().Context(), actor, in)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, m)
}

// CreateBatch godoc
// @Summary Record incomes or expenses in batch
// @Description All or nothing.
// @Tags movements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body []MovementRequest true "Movements"
// @Success 201 {array} model.Movement
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /incomes/batch [post]
// @Router /expenses/batch [post]
func (h *MovementHandler[T]) CreateBatch(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var req []MovementRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("INVALID_REQUEST", "invalid request body")
	}
	in := make([]service.MovementInput, 0, len(req))
	for i, r := range req {
		item, err := r.input(fmt.Sprintf("%s[%d].", h.plural, i))
		if err != nil {
			return err
		}
		in = append(in, item)
	}
	items, err := h.svc.CreateBatch(c.Request().Context(), actor, in)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, items)
}

// DeleteBatch godoc
// @Summary Delete incomes or expenses in batch
// @Description Each id is deleted on its own; the response reports every outcome.
// @Tags movements
// @Produce json
// @Security BearerAuth
// @Param ids query string true "Comma separated IDs"
// @Success 200 {array} BatchDeleteItem
// @Failure 400 {object} errors.ErrorResponse
// @Router /incomes/batch [delete]
// @Router /expenses/batch [delete]
func (h *MovementHandler[T]) DeleteBatch(c echo.Context) error {
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

// List godoc
// @Summary List all incomes or expenses
// @Tags movements
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Movement
// @Failure 403 {object} errors.ErrorResponse
// @Router /incomes [get]
// @Router /expenses [get]
func (h *MovementHandler[T]) List(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}
	items, err := h.svc.List(c.Request().Context(), actor)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, items)
}

// Get godoc
// @Summary Get income or expense
// @Tags movements
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID"
// @Success 200 {object} model.Movement
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /incomes/{id} [get]
// @Router /expenses/{id} [get]
func (h *MovementHandler[T]) Get(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	m, err := h.svc.GetByID(c.Request().Context(), actor, id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, m)
}

// Update godoc
// @Summary Update income or expense
// @Tags movements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID"
// @Param request body MovementRequest true "Movement"
// @Success 200 {object} model.Movement
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /incomes/{id} [put]
// @Router /expenses/{id} [put]
func (h *MovementHandler[T]) Update(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req MovementRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	in, err := req.input("")
	if err != nil {
		return err
	}
	m, err := h.svc.Update(c.Request().Context(), actor, id, in)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, m)
}

// Delete godoc
// @Summary Delete income or expense
// @Tags movements
// @Security BearerAuth
// @Param id path int true "ID"
// @Success 204
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /incomes/{id} [delete]
// @Router /expenses/{id} [delete]
func (h *MovementHandler[T]) Delete(c echo.Context) error {
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

// ListByUser godoc
// @Summary List incomes or expenses of a user
// @Tags movements
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username (email)"
// @Success 200 {array} model.Movement
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /incomes/user/{username} [get]
// @Router /expenses/user/{username} [get]
func (h *MovementHandler[T]) ListByUser(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListByUsername(c.Request().Context(), actor, c.Param("username"))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, items)
}
