package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"socioai/internal/errors"
	"socioai/internal/model"
	"socioai/internal/service"
)

// EntryHandler exposes ledger entries. Every write moves the goal balance
// in the same transaction.
type EntryHandler struct {
	svc service.EntryService
}

// NewEntryHandler creates a new ledger entry handler.
func NewEntryHandler(svc service.EntryService) *EntryHandler {
	return &EntryHandler{svc: svc}
}

// EntryRequest carries a ledger entry. Amount is signed: positive is income,
// negative is expense. Type may be omitted.
type EntryRequest struct {
	Description string          `json:"description" validate:"required,notblank,max=100"`
	Amount      decimal.Decimal `json:"amount" swaggertype:"string" example:"-12.50"`
	Type        string          `json:"type,omitempty" validate:"omitempty,oneof=INCOME EXPENSE" enums:"INCOME,EXPENSE"`
	Timestamp   string          `json:"timestamp" validate:"required" example:"2024-03-15T10:00:00"`
	GoalID      uint            `json:"goal_id" validate:"required"`
}

func (r EntryRequest) input(prefix string) (service.EntryInput, error) {
	at, err := parseTimestamp(prefix+"timestamp", r.Timestamp)
	if err != nil {
		return service.EntryInput{}, err
	}
	return service.EntryInput{
		Description: r.Description,
		Amount:      r.Amount,
		Type:        model.EntryType(r.Type),
		OccurredAt:  at,
		GoalID:      r.GoalID,
	}, nil
}

// BatchDeleteItem is the outcome for one id of a batch delete.
type BatchDeleteItem struct {
	ID      uint                  `json:"id"`
	Deleted bool                  `json:"deleted"`
	Error   *errors.ErrorResponse `json:"error,omitempty"`
}

// CreateEntry godoc
// @Summary Create ledger entry
// @Tags entries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body EntryRequest true "Entry"
// @Success 201 {object} model.LedgerEntry
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /entries [post]
func (h *EntryHandler) CreateEntry(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var req EntryRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	in, err := req.input("")
	if err != nil {
		return err
	}
	entry, err := h.svc.Create(c.Request().Context(), actor, in)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, entry)
}

// CreateEntries godoc
// @Summary Create ledger entries in batch
// @Description All or nothing: one invalid entry rejects the whole batch.
// @Tags entries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body []EntryRequest true "Entries"
// @Success 201 {array} model.LedgerEntry
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /entries/batch [post]
func (h *EntryHandler) CreateEntries(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var req []EntryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("INVALID_REQUEST", "invalid request body")
	}

	in := make([]service.EntryInput, 0, len(req))
	for i, r := range req {
		item, err := r.input(fmt.Sprintf("entries[%d].", i))
		if err != nil {
			return err
		}
		in = append(in, item)
	}

	entries, err := h.svc.CreateBatch(c.Request().Context(), actor, in)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, entries)
}

// DeleteEntries godoc
// @Summary Delete ledger entries in batch
// @Description Each id is deleted on its own; the response reports every outcome.
// @Tags entries
// @Produce json
// @Security BearerAuth
// @Param ids query string true "Comma separated entry IDs"
// @Success 200 {array} BatchDeleteItem
// @Failure 400 {object} errors.ErrorResponse
// @Router /entries/batch [delete]
func (h *EntryHandler) DeleteEntries(c echo.Context) error {
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

// ListEntries godoc
// @Summary List all ledger entries
// @Tags entries
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.LedgerEntry
// @Failure 403 {object} errors.ErrorResponse
// @Router /entries [get]
func (h *EntryHandler) ListEntries(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}
	entries, err := h.svc.ListAll(c.Request().Context(), actor)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, entries)
}

// ListUserEntries godoc
// @Summary List ledger entries of a user
// @Tags entries
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username (email)"
// @Success 200 {array} model.LedgerEntry
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /entries/user/{username} [get]
func (h *EntryHandler) ListUserEntries(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}
	entries, err := h.svc.ListByUsername(c.Request().Context(), actor, c.Param("username"))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, entries)
}

// ListGoalEntries godoc
// @Summary List ledger entries of a goal
// @Tags entries
// @Produce json
// @Security BearerAuth
// @Param id path int true "Goal ID"
// @Success 200 {array} model.LedgerEntry
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /goals/{id}/entries [get]
func (h *EntryHandler) ListGoalEntries(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	entries, err := h.svc.ListByGoal(c.Request().Context(), actor, id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, entries)
}

// GetEntry godoc
// @Summary Get ledger entry
// @Tags entries
// @Produce json
// @Security BearerAuth
// @Param id path int true "Entry ID"
// @Success 200 {object} model.LedgerEntry
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /entries/{id} [get]
func (h *EntryHandler) GetEntry(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	entry, err := h.svc.GetByID(c.Request().Context(), actor, id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, entry)
}

// UpdateEntry godoc
// @Summary Replace ledger entry
// @Description Moving an entry to another goal reverses it on the old goal and applies it on the new one.
// @Tags entries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Entry ID"
// @Param request body EntryRequest true "Entry"
// @Success 200 {object} model.LedgerEntry
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /entries/{id} [put]
func (h *EntryHandler) UpdateEntry(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req EntryRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	in, err := req.input("")
	if err != nil {
		return err
	}
	entry, err := h.svc.Update(c.Request().Context(), actor, id, in)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, entry)
}

// DeleteEntry godoc
// @Summary Delete ledger entry
// @Tags entries
// @Security BearerAuth
// @Param id path int true "Entry ID"
// @Success 204
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /entries/{id} [delete]
func (h *EntryHandler) DeleteEntry(c echo.Context) error {
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
