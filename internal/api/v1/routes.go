package v1

import (
	"task-management-api/internal/api/v1/handlers"
	"task-management-api/internal/middleware"
	"task-management-api/internal/models"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts every endpoint on router. POST/PUT/DELETE on tasks and
// the user listing are admin only at the route level.
func RegisterRoutes(router fiber.Router, h *handlers.Handler, tokens middleware.TokenValidator) {
	auth := middleware.UseToken(tokens)
	admin := middleware.RequireRole(models.RoleAdmin)

	router.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Auth
	router.Post("/register", h.Register)
	router.Post("/login", h.Login)
	router.Post("/logout", auth, h.Logout)
	router.Get("/me", auth, h.Me)

	// User
	router.Get("/users", auth, admin, h.GetAllUsers)

	// Task
	taskRoutes := router.Group("/tasks", auth)
	taskRoutes.Get("/", h.ListTasks)
	taskRoutes.Post("/", admin, h.CreateTask)
	taskRoutes.Get("/:id", h.GetTask)
	taskRoutes.Put("/:id", admin, h.UpdateTask)
	taskRoutes.Delete("/:id", admin, h.DeleteTask)
}

// NewApp creates the fiber app with the error handler and global middleware.
func NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.HandleError,
	})
	app.Use(middleware.ErrorHandler())
	return app
}
