package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/lms/internal/tasks"
)

// TasksController handles task queue management endpoints.
type TasksController struct {
	dispatcher *tasks.Dispatcher
}

// NewTasksController creates a new TasksController.
func NewTasksController(dispatcher *tasks.Dispatcher) *TasksController {
	return &TasksController{dispatcher: dispatcher}
}

// TaskTypeInfo describes an available task type.
type TaskTypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Queue       string `json:"queue"`
}

// ListTaskTypes handles GET /api/admin/tasks/types
func (tc *TasksController) ListTaskTypes(c *gin.Context) {
	types := []TaskTypeInfo{
		{
			Type:        "recompute_course_progress",
			Description: "Recompute enrollment progress for every student of a course",
			Queue:       "recompute_course_progress",
		},
		{
			Type:        "cleanup_notifications",
			Description: "Delete read notifications older than the retention",
			Queue:       "cleanup_notifications",
		},
		{
			Type:        "cleanup_audit_events",
			Description: "Delete audit events older than the retention",
			Queue:       "cleanup_audit_events",
		},
	}

	c.JSON(http.StatusOK, gin.H{
		"task_types": types,
		"async":      tc.dispatcher.Async(),
	})
}

// GetTaskStatus handles GET /api/admin/tasks/:id
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		respondBadRequest(c, "task ID is required")
		return
	}
	client := tc.dispatcher.Client()
	if client == nil {
		respondError(c, http.StatusServiceUnavailable, "task queue is disabled")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := client.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "task status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": tasks.StatusString(status),
	})
}

// RunTaskRequest is the request body for running a task.
type RunTaskRequest struct {
	// CourseID is required for recompute_course_progress
	CourseID uint `json:"course_id,omitempty"`
	// RetentionDays is required for the cleanup tasks
	RetentionDays int `json:"retention_days,omitempty" validate:"gte=0"`
}

// RunTask handles POST /api/admin/tasks/:type/run
func (tc *TasksController) RunTask(c *gin.Context) {
	taskType := c.Param("type")

	var req RunTaskRequest
	if c.Request.ContentLength > 0 && !bind(c, &req) {
		return
	}

	ctx := c.Request.Context()
	var (
		taskID string
		err    error
	)
	switch taskType {
	case "recompute_course_progress":
		if req.CourseID == 0 {
			respondBadRequest(c, "course_id is required for recompute_course_progress task")
			return
		}
		taskID, err = tc.dispatcher.RecomputeCourseProgress(ctx, req.CourseID)

	case "cleanup_notifications", "cleanup_audit_events":
		if req.RetentionDays < 1 {
			respondBadRequest(c, "retention_days must be at least 1")
			return
		}
		if taskType == "cleanup_notifications" {
			taskID, err = tc.dispatcher.CleanupNotifications(ctx, req.RetentionDays)
		} else {
			taskID, err = tc.dispatcher.CleanupAuditEvents(ctx, req.RetentionDays)
		}

	default:
		respondBadRequest(c, fmt.Sprintf("unknown task type: %s", taskType))
		return
	}

	if err != nil {
		respondInternalError(c, err, "run task "+taskType)
		return
	}
	if taskID == "" {
		c.JSON(http.StatusOK, gin.H{"type": taskType, "message": "task completed"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"task_id": taskID,
		"type":    taskType,
		"message": "task enqueued",
	})
}
