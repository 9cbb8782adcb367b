package auth

import (
	"errors"

	"gas-market/core/logger"
	authmw "gas-market/core/middleware/auth"
	"gas-market/core/validation"
	"gas-market/feature/auth/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for authentication and user management.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the auth routes. Everything except login expects
// the bearer middleware to run first.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/auth")
	group.Post("/login", h.HandleLogin)
	group.Get("/me", h.HandleMe)
	group.Post("/refresh", h.HandleRefresh)
	group.Post("/users", h.HandleCreateUser)
	group.Get("/users", h.HandleListUsers)
	group.Get("/users/:id", h.HandleGetUser)
	group.Put("/users/:id", h.HandleUpdateUser)
	group.Delete("/users/:id", h.HandleDeleteUser)
}

// HandleLogin exchanges credentials for an access token.
// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body models.LoginRequest true "Credentials"
// @Success 200 {object} models.TokenResponse
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Router /auth/login [post]
func (h *Handler) HandleLogin(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	token, err := h.service.Authenticate(c.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrInactiveUser) {
			l.Info("Login rejected", zap.String("username", req.Username), zap.Error(err))
		}
		return h.fail(c, l, err)
	}
	return c.JSON(token)
}

// HandleMe returns the authenticated user.
// @Summary Current user
// @Tags auth
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /auth/me [get]
func (h *Handler) HandleMe(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	claims := authmw.ClaimsFrom(c)
	if claims == nil {
		return unauthorized(c, "not authenticated")
	}

	user, err := h.service.Current(c.Context(), claims)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return unauthorized(c, "user no longer exists")
		}
		return h.fail(c, l, err)
	}
	return c.JSON(user)
}

// HandleRefresh issues a fresh token for the authenticated user.
// @Summary Refresh token
// @Tags auth
// @Produce json
// @Success 200 {object} models.TokenResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /auth/refresh [post]
func (h *Handler) HandleRefresh(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	claims := authmw.ClaimsFrom(c)
	if claims == nil {
		return unauthorized(c, "not authenticated")
	}

	token, err := h.service.Refresh(claims)
	if err != nil {
		return h.fail(c, l, err)
	}
	return c.JSON(token)
}

// HandleCreateUser creates a user.
// @Summary Create user
// @Tags auth
// @Accept json
// @Produce json
// @Param user body models.CreateUserRequest true "User"
// @Success 201 {object} models.User
// @Failure 400 {object} map[string]any "Validation Error"
// @Failure 409 {object} map[string]string "Conflict"
// @Security BearerAuth
// @Router /auth/users [post]
func (h *Handler) HandleCreateUser(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req models.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	user, err := h.service.Create(c.Context(), req)
	if err != nil {
		return h.fail(c, l, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// HandleListUsers lists users.
// @Summary List users
// @Tags auth
// @Produce json
// @Param skip query int false "Offset" default(0)
// @Param limit query int false "Page size (1-1000)" default(100)
// @Success 200 {array} models.User
// @Failure 400 {object} map[string]any "Validation Error"
// @Security BearerAuth
// @Router /auth/users [get]
func (h *Handler) HandleListUsers(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	users, err := h.service.List(c.Context(), c.QueryInt("skip", 0), c.QueryInt("limit", DefaultLimit))
	if err != nil {
		return h.fail(c, l, err)
	}
	return c.JSON(users)
}

// HandleGetUser returns a user.
// @Summary Get user
// @Tags auth
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} map[string]string "Not Found"
// @Security BearerAuth
// @Router /auth/users/{id} [get]
func (h *Handler) HandleGetUser(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	id, err := userID(c)
	if err != nil {
		return h.fail(c, l, err)
	}

	user, err := h.service.Get(c.Context(), id)
	if err != nil {
		return h.fail(c, l, err)
	}
	return c.JSON(user)
}

// HandleUpdateUser applies a partial update.
// @Summary Update user
// @Tags auth
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param user body models.UpdateUserRequest true "Fields to change"
// @Success 200 {object} models.User
// @Failure 400 {object} map[string]any "Validation Error"
// @Failure 404 {object} map[string]string "Not Found"
// @Failure 409 {object} map[string]string "Conflict"
// @Security BearerAuth
// @Router /auth/users/{id} [put]
func (h *Handler) HandleUpdateUser(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	id, err := userID(c)
	if err != nil {
		return h.fail(c, l, err)
	}

	var req models.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	user, err := h.service.Update(c.Context(), id, req)
	if err != nil {
		return h.fail(c, l, err)
	}
	return c.JSON(user)
}

// HandleDeleteUser removes a user.
// @Summary Delete user
// @Tags auth
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string "Not Found"
// @Security BearerAuth
// @Router /auth/users/{id} [delete]
func (h *Handler) HandleDeleteUser(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	id, err := userID(c)
	if err != nil {
		return h.fail(c, l, err)
	}

	if err := h.service.Delete(c.Context(), id); err != nil {
		return h.fail(c, l, err)
	}
	return c.JSON(fiber.Map{"message": "user deleted"})
}

func (h *Handler) fail(c *fiber.Ctx, l *zap.Logger, err error) error {
	switch {
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrInactiveUser):
		return unauthorized(c, err.Error())
	case errors.Is(err, ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrUsernameTaken), errors.Is(err, ErrEmailTaken):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case validation.IsValidation(err):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   err.Error(),
			"details": validation.Details(err),
		})
	default:
		l.Error("Auth request failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}

func unauthorized(c *fiber.Ctx, msg string) error {
	c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": msg})
}

func userID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, validation.New(validation.KindInvalidParameter, "invalid user id %q", c.Params("id"))
	}
	return uint(id), nil
}
