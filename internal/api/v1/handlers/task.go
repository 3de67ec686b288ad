package handlers

import (
	"encoding/json"
	"math"

	"task-management-api/internal/apperror"
	"task-management-api/internal/middleware"
	"task-management-api/internal/models"
	"task-management-api/internal/policy"
	"task-management-api/internal/validation"
	"task-management-api/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Task handlers

// taskID membaca parameter :id. ID yang bukan angka atau di luar rentang kolom
// SERIAL tidak mungkin ada, jadi 404.
func taskID(c *fiber.Ctx) (int, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 || id > math.MaxInt32 {
		return 0, apperror.NotFound("Task not found")
	}
	return id, nil
}

// CreateTask membuat task baru milik admin yang membuatnya.
func (h *Handler) CreateTask(c *fiber.Ctx) error {
	caller := middleware.CurrentUser(c)
	if err := policy.Authorize(caller, policy.CreateTask, nil); err != nil {
		return err
	}

	type CreateTaskRequest struct {
		Title       string  `json:"title" validate:"required,max=255"`
		Description *string `json:"description"`
		Status      string  `json:"status" validate:"required,oneof=in_progress done"`
	}

	var req CreateTaskRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := validation.Struct(req); err != nil {
		return err
	}

	// owner selalu pembuat task
	task := &models.Task{
		UserID:      caller.ID,
		Title:       req.Title,
		Description: req.Description,
		Status:      models.Status(req.Status),
	}
	if err := h.tasks.Create(c.UserContext(), task); err != nil {
		return err
	}

	logger.AuditLogger.Info("Task created", zap.Int("task_id", task.ID), zap.Int("user_id", caller.ID))
	return c.Status(fiber.StatusCreated).JSON(task)
}

// ListTasks mengembalikan semua task untuk admin, dan hanya task miliknya untuk user.
func (h *Handler) ListTasks(c *fiber.Ctx) error {
	caller := middleware.CurrentUser(c)
	if err := policy.Authorize(caller, policy.ListTasks, nil); err != nil {
		return err
	}

	var (
		tasks []models.Task
		err   error
	)
	if ownerID, scoped := policy.TaskScope(caller); scoped {
		tasks, err = h.tasks.ListByOwner(c.UserContext(), ownerID)
	} else {
		tasks, err = h.tasks.ListAll(c.UserContext())
	}
	if err != nil {
		return err
	}
	return c.JSON(tasks)
}

// GetTask returns one task. Existence is checked before ownership.
func (h *Handler) GetTask(c *fiber.Ctx) error {
	caller := middleware.CurrentUser(c)
	id, err := taskID(c)
	if err != nil {
		return err
	}

	task, err := h.tasks.FindByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	if err := policy.Authorize(caller, policy.ViewTask, task); err != nil {
		logger.SecurityLogger.Warn("Forbidden task access", zap.Int("user_id", caller.ID), zap.Int("task_id", id))
		return err
	}
	return c.JSON(task)
}

// UpdateTask applies a partial update; fields missing from the body are left as they are.
func (h *Handler) UpdateTask(c *fiber.Ctx) error {
	caller := middleware.CurrentUser(c)
	id, err := taskID(c)
	if err != nil {
		return err
	}

	task, err := h.tasks.FindByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	if err := policy.Authorize(caller, policy.UpdateTask, task); err != nil {
		logger.SecurityLogger.Warn("Forbidden task update", zap.Int("user_id", caller.ID), zap.Int("task_id", id))
		return err
	}

	// pointer (*) untuk menandakan bahwa field bisa kosong
	type UpdateTaskRequest struct {
		Title       *string        `json:"title"`
		Description nullableString `json:"description"`
		Status      *string        `json:"status"`
	}

	var req UpdateTaskRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	patch := models.TaskPatch{Title: req.Title}
	if req.Description.Set {
		if req.Description.Value == nil {
			patch.ClearDescription = true
		} else {
			patch.Description = req.Description.Value
		}
	}
	if req.Status != nil {
		status := models.Status(*req.Status)
		patch.Status = &status
	}
	if patch.Empty() {
		return c.JSON(task)
	}

	updated, err := h.tasks.Update(c.UserContext(), id, patch)
	if err != nil {
		return err
	}

	logger.AuditLogger.Info("Task updated", zap.Int("task_id", id), zap.Int("user_id", caller.ID))
	return c.JSON(updated)
}

// DeleteTask menghapus task. Pembatasan role ada di route, tidak ada cek kepemilikan.
func (h *Handler) DeleteTask(c *fiber.Ctx) error {
	caller := middleware.CurrentUser(c)
	id, err := taskID(c)
	if err != nil {
		return err
	}
	if err := policy.Authorize(caller, policy.DeleteTask, nil); err != nil {
		return err
	}

	if err := h.tasks.Delete(c.UserContext(), id); err != nil {
		return err
	}

	logger.AuditLogger.Info("Task deleted", zap.Int("task_id", id), zap.Int("user_id", caller.ID))
	return c.JSON(fiber.Map{"message": "Task deleted"})
}

// nullableString membedakan field yang tidak dikirim dengan field bernilai null.
type nullableString struct {
	Set   bool
	Value *string
}

func (n *nullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}
	return json.Unmarshal(data, &n.Value)
}
