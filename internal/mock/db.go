// Package mock provides in-memory stores for tests.
package mock

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"task-management-api/internal/apperror"
	"task-management-api/internal/models"
	"task-management-api/internal/repository"
)

// UserRepository is an in-memory stand-in for repository.UserRepository.
type UserRepository struct {
	mu     sync.Mutex
	nextID int
	users  map[int]models.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: map[int]models.User{}}
}

func (r *UserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username {
			return repository.ErrDuplicateUsername
		}
	}
	r.nextID++
	now := time.Now()
	user.ID, user.CreatedAt, user.UpdatedAt = r.nextID, now, now
	r.users[user.ID] = *user
	return nil
}

func (r *UserRepository) FindByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (r *UserRepository) FindByID(_ context.Context, id int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperror.NotFound("User not found")
	}
	return &u, nil
}

func (r *UserRepository) All(_ context.Context) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// Remove deletes a user directly. There is no API for it; tests use it to
// check that tokens of a vanished user stop working.
func (r *UserRepository) Remove(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
}

// TaskRepository is an in-memory stand-in for repository.TaskRepository.
type TaskRepository struct {
	mu     sync.Mutex
	nextID int
	tasks  map[int]models.Task
}

func NewTaskRepository() *TaskRepository {
	return &TaskRepository{tasks: map[int]models.Task{}}
}

func (r *TaskRepository) Create(_ context.Context, task *models.Task) error {
	if err := repository.ValidateTask(task); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	now := time.Now()
	task.ID, task.CreatedAt, task.UpdatedAt = r.nextID, now, now
	r.tasks[task.ID] = *task
	return nil
}

func (r *TaskRepository) FindByID(_ context.Context, id int) (*models.Task, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, apperror.NotFound("Task not found")
	}
	return &t, nil
}

func (r *TaskRepository) ListAll(_ context.Context) ([]models.Task, error) {
	return r.filter(func(models.Task) bool { return true }), nil
}

func (r *TaskRepository) ListByOwner(_ context.Context, ownerID int) ([]models.Task, error) {
	return r.filter(func(t models.Task) bool { return t.UserID == ownerID }), nil
}

func (r *TaskRepository) Update(_ context.Context, id int, patch models.TaskPatch) (*models.Task, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	if err := repository.ValidatePatch(patch); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, apperror.NotFound("Task not found")
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		d := *patch.Description
		t.Description = &d
	}
	if patch.ClearDescription {
		t.Description = nil
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	t.UpdatedAt = time.Now()
	r.tasks[id] = t
	return &t, nil
}

func (r *TaskRepository) Delete(_ context.Context, id int) error {
	if err := checkID(id); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return apperror.NotFound("Task not found")
	}
	delete(r.tasks, id)
	return nil
}

func (r *TaskRepository) filter(keep func(models.Task) bool) []models.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	tasks := []models.Task{}
	for _, t := range r.tasks {
		if keep(t) {
			tasks = append(tasks, t)
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks
}

// checkID menolak id di luar rentang integer Postgres, seperti kolom SERIAL.
func checkID(id int) error {
	if id < math.MinInt32 || id > math.MaxInt32 {
		return fmt.Errorf("value %d out of range for type integer", id)
	}
	return nil
}
