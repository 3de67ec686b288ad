// Package policy decides whether a caller may perform an action on a task.
// All functions are pure: the caller is always passed in explicitly.
package policy

import (
	"task-management-api/internal/apperror"
	"task-management-api/internal/models"
)

type Action string

const (
	ListUsers  Action = "list_users"
	ListTasks  Action = "list_tasks"
	CreateTask Action = "create_task"
	ViewTask   Action = "view_task"
	UpdateTask Action = "update_task"
	DeleteTask Action = "delete_task"
)

// Authorize returns nil when caller may perform action, or a 403 *apperror.Error.
// task is the target of ViewTask and UpdateTask and is ignored otherwise.
func Authorize(caller *models.User, action Action, task *models.Task) error {
	if caller == nil {
		return apperror.Unauthenticated("Unauthenticated.")
	}
	switch action {
	case ListUsers, CreateTask:
		if caller.IsAdmin() {
			return nil
		}
	case ListTasks, DeleteTask:
		// list dibatasi lewat TaskScope, delete dibatasi di level route
		return nil
	case ViewTask, UpdateTask:
		if caller.IsAdmin() || (task != nil && task.UserID == caller.ID) {
			return nil
		}
	}
	return apperror.Forbidden("Forbidden")
}

// TaskScope returns the owner id a task listing is restricted to.
// ok is false for admins, who see every task.
func TaskScope(caller *models.User) (ownerID int, ok bool) {
	if caller.IsAdmin() {
		return 0, false
	}
	return caller.ID, true
}
