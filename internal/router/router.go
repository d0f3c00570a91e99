package router

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"socioai/internal/auth"
	"socioai/internal/authz"
	"socioai/internal/config"
	"socioai/internal/errors"
	"socioai/internal/handler"
	"socioai/internal/model"
)

// IdentityResolver maps a token subject to the acting identity.
type IdentityResolver interface {
	Identity(ctx context.Context, userID uuid.UUID) (authz.Identity, error)
}

// Deps are the non-handler collaborators of the router.
type Deps struct {
	Config     *config.Config
	Logger     *slog.Logger
	JWT        *auth.JWTService
	Tokens     auth.TokenStoreInterface
	Identities IdentityResolver
	// Health reports whether backing stores are reachable.
	Health func(ctx context.Context) error
}

// Handlers groups every HTTP handler.
type Handlers struct {
	Auth     *handler.AuthHandler
	User     *handler.UserHandler
	Role     *handler.RoleHandler
	Category *handler.CategoryHandler
	Goal     *handler.GoalHandler
	Entry    *handler.EntryHandler
	Income   *handler.MovementHandler[model.Income]
	Expense  *handler.MovementHandler[model.Expense]
	Report   *handler.ReportHandler
}

// Register wires routes and middleware.
func Register(e *echo.Echo, deps Deps, h Handlers) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e.HideBanner = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = errorHandler(logger)

	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))
	e.Use(middleware.Recover())
	if deps.Config != nil && len(deps.Config.CORSOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: deps.Config.CORSOrigins,
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		}))
	}

	e.GET("/healthz", func(c echo.Context) error {
		if deps.Health != nil {
			if err := deps.Health(c.Request().Context()); err != nil {
				logger.WarnContext(c.Request().Context(), "health check failed", "error", err)
				return c.JSON(http.StatusServiceUnavailable, errors.ErrorResponse{Error: "unavailable", Code: "UNAVAILABLE"})
			}
		}
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/refresh", h.Auth.Refresh)
	api.POST("/auth/logout", h.Auth.Logout)

	// Secured routes (require JWT authentication)
	secured := api.Group("", echojwt.WithConfig(echojwt.Config{
		TokenLookup:    "header:" + echo.HeaderAuthorization + ":Bearer ",
		ContextKey:     handler.IdentityKey,
		ParseTokenFunc: parseToken(deps),
	}))

	secured.GET("/me", h.User.Me)

	secured.GET("/users", h.User.ListUsers)
	secured.DELETE("/users", h.User.DeleteUsers)
	secured.GET("/users/:id", h.User.GetUser)
	secured.DELETE("/users/:id", h.User.DeleteUser)
	secured.GET("/users/email/:email", h.User.GetUserByEmail)
	secured.PUT("/users/email/:email", h.User.UpdateUser)

	secured.POST("/roles", h.Role.CreateRole)
	secured.GET("/roles", h.Role.ListRoles)
	secured.POST("/roles/batch", h.Role.CreateRoles)
	secured.DELETE("/roles/batch", h.Role.DeleteRoles)
	secured.GET("/roles/:id", h.Role.GetRole)
	secured.PUT("/roles/:id", h.Role.UpdateRole)
	secured.DELETE("/roles/:id", h.Role.DeleteRole)

	secured.POST("/categories", h.Category.CreateCategory)
	secured.GET("/categories", h.Category.ListCategories)
	secured.POST("/categories/batch", h.Category.CreateCategories)
	secured.DELETE("/categories/batch", h.Category.DeleteCategories)
	secured.GET("/categories/:id", h.Category.GetCategory)
	secured.PUT("/categories/:id", h.Category.RenameCategory)
	secured.DELETE("/categories/:id", h.Category.DeleteCategory)
	secured.GET("/categories/user/:username", h.Category.ListUserCategories)
	secured.GET("/categories/user/:username/totals", h.Category.CategoryTotals)

	secured.POST("/goals", h.Goal.CreateGoal)
	secured.GET("/goals", h.Goal.ListGoals)
	secured.POST("/goals/batch", h.Goal.CreateGoals)
	secured.DELETE("/goals/batch", h.Goal.DeleteGoals)
	secured.GET("/goals/:id", h.Goal.GetGoal)
	secured.PUT("/goals/:id", h.Goal.UpdateGoal)
	secured.DELETE("/goals/:id", h.Goal.DeleteGoal)
	secured.GET("/goals/user/:username", h.Goal.ListUserGoals)
	secured.GET("/goals/:id/entries", h.Entry.ListGoalEntries)

	secured.POST("/entries", h.Entry.CreateEntry)
	secured.GET("/entries", h.Entry.ListEntries)
	secured.POST("/entries/batch", h.Entry.CreateEntries)
	secured.DELETE("/entries/batch", h.Entry.DeleteEntries)
	secured.GET("/entries/:id", h.Entry.GetEntry)
	secured.PUT("/entries/:id", h.Entry.UpdateEntry)
	secured.DELETE("/entries/:id", h.Entry.DeleteEntry)
	secured.GET("/entries/user/:username", h.Entry.ListUserEntries)

	incomes := secured.Group("/incomes")
	incomes.POST("", h.Income.Create)
	incomes.GET("", h.Income.List)
	incomes.POST("/batch", h.Income.CreateBatch)
	incomes.DELETE("/batch", h.Income.DeleteBatch)
	incomes.GET("/:id", h.Income.Get)
	incomes.PUT("/:id", h.Income.Update)
	incomes.DELETE("/:id", h.Income.Delete)
	incomes.GET("/user/:username", h.Income.ListByUser)

	expenses := secured.Group("/expenses")
	expenses.POST("", h.Expense.Create)
	expenses.GET("", h.Expense.List)
	expenses.POST("/batch", h.Expense.CreateBatch)
	expenses.DELETE("/batch", h.Expense.DeleteBatch)
	expenses.GET("/:id", h.Expense.Get)
	expenses.PUT("/:id", h.Expense.Update)
	expenses.DELETE("/:id", h.Expense.Delete)
	expenses.GET("/user/:username", h.Expense.ListByUser)

	secured.GET("/reports/cash-flow", h.Report.CashFlowGlobal)
	secured.GET("/reports/cash-flow/:username", h.Report.CashFlow)
	secured.GET("/reports/cash-flow/:username/export", h.Report.ExportCashFlow)
}

// parseToken validates the bearer token, rejects blacklisted tokens and
// resolves the current identity of its subject.
func parseToken(deps Deps) func(c echo.Context, token string) (interface{}, error) {
	return func(c echo.Context, token string) (interface{}, error) {
		claims, err := deps.JWT.ValidateToken(token)
		if err != nil {
			return nil, err
		}
		ctx := c.Request().Context()
		if deps.Tokens != nil {
			revoked, err := deps.Tokens.IsAccessTokenBlacklisted(ctx, claims.ID)
			if err != nil {
				return nil, err
			}
			if revoked {
				return nil, stderrors.New("token revoked")
			}
		}
		return deps.Identities.Identity(ctx, claims.UserID)
	}
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
			}
			level := slog.LevelInfo
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
				if v.Status >= http.StatusInternalServerError {
					level = slog.LevelError
				}
			}
			logger.LogAttrs(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	})
}

// errorHandler renders every error as errors.ErrorResponse.
func errorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := render(err)
		if status >= http.StatusInternalServerError {
			logger.ErrorContext(c.Request().Context(), "request failed", "error", err, "path", c.Path())
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.ErrorContext(c.Request().Context(), "write error response", "error", err)
		}
	}
}

func render(err error) (int, errors.ErrorResponse) {
	var he *echo.HTTPError
	if !stderrors.As(err, &he) {
		mapped := errors.MapErrorToHTTP(err)
		return mapped.StatusCode, mapped.ToErrorResponse()
	}

	switch msg := he.Message.(type) {
	case errors.ErrorResponse:
		return he.Code, msg
	case string:
		return he.Code, errors.ErrorResponse{Error: msg, Code: statusCode(he.Code)}
	default:
		return he.Code, errors.ErrorResponse{Error: fmt.Sprint(msg), Code: statusCode(he.Code)}
	}
}

func statusCode(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return "ERROR"
	}
	return strings.ToUpper(strings.ReplaceAll(text, " ", "_"))
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator builds the request validator with the notblank rule registered.
func NewValidator() *CustomValidator {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
