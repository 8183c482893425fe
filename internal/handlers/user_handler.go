package handlers

import (
	"fmt"

	"usersync/internal/models"
	"usersync/internal/services"
	"usersync/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

// UserResponse is the JSON shape of one row of the Users table.
type UserResponse struct {
	UserID      string `json:"user_id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Age         int    `json:"age"`
	Gender      string `json:"gender"`
	YearOfBirth int    `json:"year_of_birth"`
}

func toResponse(u models.User) UserResponse {
	return UserResponse{
		UserID:      u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Age:         u.Age,
		Gender:      u.Gender,
		YearOfBirth: u.YearOfBirth,
	}
}

// UserHandler serves read-only views of the remote Users table.
type UserHandler struct {
	service *services.DisplayService
	logger  *zap.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *services.DisplayService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the user routes with the Fiber app.
func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	userRoutes := router.Group("/users")
	userRoutes.Get("/", h.HandleGetUsers)
	userRoutes.Get("/:id", h.HandleGetUserByID)
}

// HandleGetUsers returns every user.
func (h *UserHandler) HandleGetUsers(c *fiber.Ctx) error {
	users, err := h.service.Find("")
	if err != nil {
		h.logger.Error("failed to get users", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve users",
			"error":   err.Error(),
		})
	}

	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, toResponse(u))
	}
	return c.JSON(resp)
}

// HandleGetUserByID returns one user. The ID must pass the identifier rule.
func (h *UserHandler) HandleGetUserByID(c *fiber.Ctx) error {
	userID := utils.CopyString(c.Params("id"))
	if !validation.ValidIdentifier(userID) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "User ID should be exactly 3 numeric characters",
		})
	}

	users, err := h.service.Find(userID)
	if err != nil {
		h.logger.Error("failed to get user", zap.String("user_id", userID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve user",
			"error":   err.Error(),
		})
	}
	if len(users) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": fmt.Sprintf("No data found for User ID: %s", userID),
		})
	}
	return c.JSON(toResponse(users[0]))
}
