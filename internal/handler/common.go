package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"socioai/internal/authz"
	"socioai/internal/errors"
	"socioai/internal/service"
)

// IdentityKey is the echo context key holding the authenticated authz.Identity.
const IdentityKey = "identity"

// timestampLayouts are accepted for entry and movement timestamps.
var timestampLayouts = []string{"2006-01-02T15:04:05", time.RFC3339}

const dateLayout = "2006-01-02"

// MessageResponse is returned by endpoints without a body of their own.
type MessageResponse struct {
	Message string `json:"message"`
}

// currentIdentity returns the identity put in context by the auth middleware.
func currentIdentity(c echo.Context) (authz.Identity, error) {
	id, ok := c.Get(IdentityKey).(authz.Identity)
	if !ok {
		return authz.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
			Error: "missing identity",
			Code:  "UNAUTHORIZED",
		})
	}
	return id, nil
}

// fail converts a service error into the JSON error envelope.
func fail(err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

func badRequest(code, message string) error {
	return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// bind decodes and validates the request body.
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return badRequest("INVALID_REQUEST", "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return badRequest("VALIDATION_ERROR", err.Error())
	}
	return nil
}

// batchDeleteResponse renders per-id outcomes of a batch delete.
func batchDeleteResponse(c echo.Context, results []service.BatchDeleteResult) error {
	out := make([]BatchDeleteItem, 0, len(results))
	for _, r := range results {
		item := BatchDeleteItem{ID: r.ID, Deleted: r.Deleted}
		if r.Err != nil {
			resp := errors.MapErrorToHTTP(r.Err).ToErrorResponse()
			item.Error = &resp
		}
		out = append(out, item)
	}
	return c.JSON(http.StatusOK, out)
}

func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, badRequest("INVALID_ID", "invalid "+name)
	}
	return uint(id), nil
}

// parseIDList reads a comma separated list of numeric ids.
func parseIDList(raw string) ([]uint, error) {
	var ids []uint
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 64)
		if err != nil || id == 0 {
			return nil, badRequest("INVALID_ID", "invalid id "+part)
		}
		ids = append(ids, uint(id))
	}
	if len(ids) == 0 {
		return nil, badRequest("VALIDATION_ERROR", "ids must not be empty")
	}
	return ids, nil
}

func parseTimestamp(field, raw string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fail(errors.NewValidation(field, "must look like 2006-01-02T15:04:05"))
}

func parseDate(field, raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range append([]string{dateLayout}, timestampLayouts...) {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fail(errors.NewValidation(field, "must look like 2006-01-02"))
}
