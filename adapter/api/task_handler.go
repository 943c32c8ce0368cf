package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/felixgeelhaar/quadra/internal/matrix/application/commands"
	"github.com/felixgeelhaar/quadra/internal/matrix/application/queries"
	"github.com/felixgeelhaar/quadra/internal/matrix/domain/task"
	"github.com/felixgeelhaar/quadra/pkg/observability"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// TaskHandler handles task and statistics requests.
type TaskHandler struct {
	createTask        *commands.CreateTaskHandler
	updateTask        *commands.UpdateTaskHandler
	completeTask      *commands.CompleteTaskHandler
	deleteTask        *commands.DeleteTaskHandler
	getTask           *queries.GetTaskHandler
	listTasks         *queries.ListTasksHandler
	searchTasks       *queries.SearchTasksHandler
	getStats          *queries.GetStatsHandler
	upcomingDeadlines *queries.UpcomingDeadlinesHandler
	schemas           *schemas
	metrics           observability.Metrics
	logger            *slog.Logger
}

// TaskHandlerConfig holds dependencies for the task handler.
type TaskHandlerConfig struct {
	CreateTask        *commands.CreateTaskHandler
	UpdateTask        *commands.UpdateTaskHandler
	CompleteTask      *commands.CompleteTaskHandler
	DeleteTask        *commands.DeleteTaskHandler
	GetTask           *queries.GetTaskHandler
	ListTasks         *queries.ListTasksHandler
	SearchTasks       *queries.SearchTasksHandler
	GetStats          *queries.GetStatsHandler
	UpcomingDeadlines *queries.UpcomingDeadlinesHandler
	Metrics           observability.Metrics
	Logger            *slog.Logger
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(cfg TaskHandlerConfig) (*TaskHandler, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observability.NoopMetrics{}
	}

	s, err := compileSchemas()
	if err != nil {
		return nil, err
	}

	return &TaskHandler{
		createTask:        cfg.CreateTask,
		updateTask:        cfg.UpdateTask,
		completeTask:      cfg.CompleteTask,
		deleteTask:        cfg.DeleteTask,
		getTask:           cfg.GetTask,
		listTasks:         cfg.ListTasks,
		searchTasks:       cfg.SearchTasks,
		getStats:          cfg.GetStats,
		upcomingDeadlines: cfg.UpcomingDeadlines,
		schemas:           s,
		metrics:           cfg.Metrics,
		logger:            cfg.Logger,
	}, nil
}

type taskList struct {
	Count int               `json:"count"`
	Tasks []queries.TaskDTO `json:"tasks"`
}

type quadrantTaskList struct {
	Quadrant string `json:"quadrant"`
	taskList
}

type statusTaskList struct {
	Status string `json:"status"`
	taskList
}

type searchResult struct {
	Query string `json:"query"`
	taskList
}

func newTaskList(tasks []queries.TaskDTO) taskList {
	return taskList{Count: len(tasks), Tasks: tasks}
}

// ListTasks handles GET /api/v2/tasks. Optional quadrant and status
// query parameters narrow the result.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.listTasks.Handle(r.Context(), queries.ListTasksQuery{
		Quadrant: r.URL.Query().Get("quadrant"),
		Status:   r.URL.Query().Get("status"),
	})
	if err != nil {
		h.fail(w, r, "list tasks", err)
		return
	}

	writeJSON(w, http.StatusOK, newTaskList(tasks))
}

// ListByQuadrant handles GET /api/v2/tasks/quadrant/{quadrant}
func (h *TaskHandler) ListByQuadrant(w http.ResponseWriter, r *http.Request) {
	quadrant := r.PathValue("quadrant")
	tasks, err := h.listTasks.Handle(r.Context(), queries.ListTasksQuery{Quadrant: quadrant})
	if err != nil {
		h.fail(w, r, "list tasks by quadrant", err)
		return
	}

	writeJSON(w, http.StatusOK, quadrantTaskList{Quadrant: quadrant, taskList: newTaskList(tasks)})
}

// ListByStatus handles GET /api/v2/tasks/status/{status}
func (h *TaskHandler) ListByStatus(w http.ResponseWriter, r *http.Request) {
	status := r.PathValue("status")
	tasks, err := h.listTasks.Handle(r.Context(), queries.ListTasksQuery{Status: status})
	if err != nil {
		h.fail(w, r, "list tasks by status", err)
		return
	}

	writeJSON(w, http.StatusOK, statusTaskList{Status: status, taskList: newTaskList(tasks)})
}

// SearchTasks handles GET /api/v2/tasks/search?q=
func (h *TaskHandler) SearchTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	tasks, err := h.searchTasks.Handle(r.Context(), queries.SearchTasksQuery{Query: q})
	if err != nil {
		h.fail(w, r, "search tasks", err)
		return
	}

	writeJSON(w, http.StatusOK, searchResult{Query: q, taskList: newTaskList(tasks)})
}

// CreateTask handles POST /api/v2/tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		h.fail(w, r, "create task", err)
		return
	}

	cmd, err := decodeCreateTask(h.schemas, body)
	if err != nil {
		h.fail(w, r, "create task", err)
		return
	}

	created, err := h.createTask.Handle(r.Context(), cmd)
	if err != nil {
		h.fail(w, r, "create task", err)
		return
	}

	h.metrics.Counter(observability.MetricTasksCreated, 1, observability.T("quadrant", created.Quadrant))
	w.Header().Set("Location", fmt.Sprintf("/api/v2/tasks/%d", created.ID))
	writeJSON(w, http.StatusCreated, created)
}

// GetTask handles GET /api/v2/tasks/{id}
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := task.ParseID(r.PathValue("id"))
	if err != nil {
		h.fail(w, r, "get task", err)
		return
	}

	found, err := h.getTask.Handle(r.Context(), queries.GetTaskQuery{TaskID: id})
	if err != nil {
		h.fail(w, r, "get task", err)
		return
	}

	writeJSON(w, http.StatusOK, found)
}

// UpdateTask handles PUT and PATCH /api/v2/tasks/{id}
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := task.ParseID(r.PathValue("id"))
	if err != nil {
		h.fail(w, r, "update task", err)
		return
	}

	body, err := readBody(w, r)
	if err != nil {
		h.fail(w, r, "update task", err)
		return
	}

	patch, err := decodeTaskPatch(h.schemas, body)
	if err != nil {
		h.fail(w, r, "update task", err)
		return
	}

	result, err := h.updateTask.Handle(r.Context(), commands.UpdateTaskCommand{TaskID: id, Patch: patch})
	if err != nil {
		h.fail(w, r, "update task", err)
		return
	}

	if len(result.Fields) > 0 {
		h.metrics.Counter(observability.MetricTasksUpdated, 1)
	}
	writeJSON(w, http.StatusOK, result.Task)
}

// CompleteTask handles PATCH /api/v2/tasks/{id}/complete
func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := task.ParseID(r.PathValue("id"))
	if err != nil {
		h.fail(w, r, "complete task", err)
		return
	}

	completed, err := h.completeTask.Handle(r.Context(), commands.CompleteTaskCommand{TaskID: id})
	if err != nil {
		h.fail(w, r, "complete task", err)
		return
	}

	h.metrics.Counter(observability.MetricTasksCompleted, 1)
	writeJSON(w, http.StatusOK, completed)
}

// DeleteTask handles DELETE /api/v2/tasks/{id}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := task.ParseID(r.PathValue("id"))
	if err != nil {
		h.fail(w, r, "delete task", err)
		return
	}

	if err := h.deleteTask.Handle(r.Context(), commands.DeleteTaskCommand{TaskID: id}); err != nil {
		h.fail(w, r, "delete task", err)
		return
	}

	h.metrics.Counter(observability.MetricTasksDeleted, 1)
	w.WriteHeader(http.StatusNoContent)
}

// GetStats handles GET /api/v2/stats
func (h *TaskHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.getStats.Handle(r.Context(), queries.GetStatsQuery{})
	if err != nil {
		h.fail(w, r, "get stats", err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// GetDeadlines handles GET /api/v2/stats/deadlines
func (h *TaskHandler) GetDeadlines(w http.ResponseWriter, r *http.Request) {
	entries, err := h.upcomingDeadlines.Handle(r.Context(), queries.UpcomingDeadlinesQuery{})
	if err != nil {
		h.fail(w, r, "get deadlines", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":     len(entries),
		"deadlines": entries,
	})
}

// fail maps err to a response. Only unexpected errors are logged as errors.
func (h *TaskHandler) fail(w http.ResponseWriter, r *http.Request, operation string, err error) {
	apiErr := toAPIError(err)
	if apiErr.Status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "failed to "+operation, observability.ErrorKey, err)
	} else {
		h.logger.DebugContext(r.Context(), operation+" rejected", observability.ErrorKey, err)
	}
	writeError(w, apiErr)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, &RequestError{Message: "request body could not be read"}
	}
	return body, nil
}
