package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/finboard/fundsync/internal/api/shared"
	"github.com/finboard/fundsync/internal/task"
)

// TaskHandler exposes the task subsystem over HTTP.
type TaskHandler struct {
	manager *task.JobManager
	logger  *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(manager *task.JobManager, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		manager: manager,
		logger:  logger.With("component", "task_handler"),
	}
}

// Routes mounts the task endpoints on the given router.
func (h *TaskHandler) Routes(r chi.Router) {
	r.Get("/task-types", h.ListTaskTypes)
	r.Route("/tasks", func(r chi.Router) {
		r.Post("/", h.AddTask)
		r.Get("/", h.TaskHistory)
		r.Get("/progress", h.TasksProgress)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetTask)
			r.Get("/children", h.ChildTasks)
			r.Post("/pause", h.PauseTask)
			r.Post("/resume", h.ResumeTask)
		})
	})
}

// AddTask handles POST /api/tasks.
func (h *TaskHandler) AddTask(w http.ResponseWriter, r *http.Request) {
	var req AddTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Missing task type", err)
		return
	}

	taskID, err := h.manager.AddTask(r.Context(), task.AddTaskRequest{
		Type:         req.Type,
		Priority:     req.Priority,
		Timeout:      req.Timeout,
		DelaySeconds: req.DelaySeconds,
		Params:       task.Params(req.Params),
	})
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, AddTaskResponse{TaskID: taskID.String()})
}

// GetTask handles GET /api/tasks/{id}. Unknown ids return the not_found
// envelope rather than a bare error so that pollers can distinguish "gone"
// from "broken".
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathTaskID(w, r)
	if !ok {
		return
	}

	rec, err := h.manager.GetTask(r.Context(), id)
	if err != nil {
		if errors.Is(err, task.ErrTaskNotFound) {
			shared.RespondWithJSON(w, r, http.StatusNotFound, NotFoundResponse{Status: "not_found"})
			return
		}
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, rec)
}

// PauseTask handles POST /api/tasks/{id}/pause.
func (h *TaskHandler) PauseTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathTaskID(w, r)
	if !ok {
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, ActionResponse{
		Success: h.manager.PauseTask(r.Context(), id),
	})
}

// ResumeTask handles POST /api/tasks/{id}/resume.
func (h *TaskHandler) ResumeTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathTaskID(w, r)
	if !ok {
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, ActionResponse{
		Success: h.manager.ResumeTask(r.Context(), id),
	})
}

// TaskHistory handles GET /api/tasks?limit=N.
func (h *TaskHandler) TaskHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	records, err := h.manager.TaskHistory(r.Context(), limit)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to load task history", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskListResponse{Tasks: records})
}

// ChildTasks handles GET /api/tasks/{id}/children.
func (h *TaskHandler) ChildTasks(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathTaskID(w, r)
	if !ok {
		return
	}

	records, err := h.manager.ChildTasks(r.Context(), id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to load child tasks", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskListResponse{Tasks: records})
}

// TasksProgress handles GET /api/tasks/progress?ids=a,b,c.
func (h *TaskHandler) TasksProgress(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("ids")
	if raw == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Missing ids parameter")
		return
	}

	var ids []uuid.UUID
	for _, part := range strings.Split(raw, ",") {
		id, err := uuid.Parse(strings.TrimSpace(part))
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task id: "+part)
			return
		}
		ids = append(ids, id)
	}

	progress := h.manager.TasksProgress(r.Context(), ids)

	out := make(map[string]int, len(progress))
	for id, p := range progress {
		out[id.String()] = p
	}
	shared.RespondWithJSON(w, r, http.StatusOK, ProgressResponse{Progress: out})
}

// ListTaskTypes handles GET /api/task-types.
func (h *TaskHandler) ListTaskTypes(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, TaskTypesResponse{
		Types: h.manager.Registry().AllTypes(),
	})
}

// pathTaskID extracts and parses the {id} path parameter, writing a 400
// response on failure.
func (h *TaskHandler) pathTaskID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task id")
		return uuid.Nil, false
	}
	return id, true
}
