// Package api exposes the expression engine over HTTP.
package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"github.com/quickdata/qexpr/pkg/engine"
	"github.com/quickdata/qexpr/pkg/types"
)

// Server wraps a fiber app serving the engine API.
type Server struct {
	app    *fiber.App
	engine *engine.Engine
}

type evaluateRequest struct {
	Expression string                 `json:"expression"`
	Context    map[string]interface{} `json:"context"`
}

type evaluateResponse struct {
	Result interface{} `json:"result"`
	Type   string      `json:"type"`
}

type validateRequest struct {
	Expression string `json:"expression"`
}

type validateResponse struct {
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// NewServer creates the HTTP server around an engine.
func NewServer(e *engine.Engine) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	app.Use(logger.New())

	s := &Server{app: app, engine: e}

	v1 := app.Group("/v1")
	v1.Post("/evaluate", s.handleEvaluate)
	v1.Post("/validate", s.handleValidate)
	v1.Get("/functions", s.handleFunctions)
	v1.Get("/cache/stats", s.handleCacheStats)
	v1.Delete("/cache", s.handleCacheClear)

	return s
}

// App returns the underlying fiber app, used by tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts serving on the given address and blocks.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) handleEvaluate(c *fiber.Ctx) error {
	var req evaluateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Expression == "" {
		return fiber.NewError(fiber.StatusBadRequest, "expression is required")
	}

	ctx := types.Null
	if req.Context != nil {
		ctx = types.FromGo(req.Context)
	}

	result, err := s.engine.Evaluate(req.Expression, ctx)
	if err != nil {
		return err
	}
	return c.JSON(evaluateResponse{Result: result.ToGo(), Type: result.Type().String()})
}

func (s *Server) handleValidate(c *fiber.Ctx) error {
	var req validateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Expression == "" {
		return fiber.NewError(fiber.StatusBadRequest, "expression is required")
	}

	violations := s.engine.CheckExpression(req.Expression)
	if violations == nil {
		violations = []string{}
	}
	return c.JSON(validateResponse{Valid: len(violations) == 0, Violations: violations})
}

func (s *Server) handleFunctions(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"functions": s.engine.Functions()})
}

func (s *Server) handleCacheStats(c *fiber.Ctx) error {
	return c.JSON(s.engine.CacheStats())
}

func (s *Server) handleCacheClear(c *fiber.Ctx) error {
	s.engine.ClearCache()
	return c.SendStatus(fiber.StatusNoContent)
}

// errorHandler maps engine errors onto HTTP statuses: parse failures are
// client errors, sandbox rejections are forbidden, evaluation failures are
// unprocessable, anything else is a 500.
func errorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	code := "internal"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
		code = "bad_request"
	}

	var ee *types.Error
	if errors.As(err, &ee) {
		code = string(ee.Kind)
		switch ee.Kind {
		case types.KindParse:
			status = fiber.StatusBadRequest
		case types.KindSecurity:
			status = fiber.StatusForbidden
		default:
			status = fiber.StatusUnprocessableEntity
		}
	}

	return c.Status(status).JSON(errorResponse{Error: errorBody{
		Code:    code,
		Message: err.Error(),
		Status:  status,
	}})
}
