package cli

import (
	"context"

	"github.com/felixgeelhaar/quadra/internal/matrix/application/commands"
	"github.com/felixgeelhaar/quadra/internal/matrix/application/queries"
	"github.com/felixgeelhaar/quadra/pkg/observability"
)

// App holds the CLI application dependencies.
type App struct {
	// Task Command Handlers
	CreateTaskHandler   *commands.CreateTaskHandler
	UpdateTaskHandler   *commands.UpdateTaskHandler
	CompleteTaskHandler *commands.CompleteTaskHandler
	DeleteTaskHandler   *commands.DeleteTaskHandler

	// Task Query Handlers
	GetTaskHandler           *queries.GetTaskHandler
	ListTasksHandler         *queries.ListTasksHandler
	SearchTasksHandler       *queries.SearchTasksHandler
	GetStatsHandler          *queries.GetStatsHandler
	UpcomingDeadlinesHandler *queries.UpcomingDeadlinesHandler

	// Health reports the state of the backing services.
	Health *observability.HealthRegistry
	// Metrics receives operation timings from the adapters built on the App.
	Metrics observability.Metrics

	flush func(ctx context.Context) error
	close func()
}

// NewApp creates a new CLI application with the provided handlers.
func NewApp(
	createTaskHandler *commands.CreateTaskHandler,
	updateTaskHandler *commands.UpdateTaskHandler,
	completeTaskHandler *commands.CompleteTaskHandler,
	deleteTaskHandler *commands.DeleteTaskHandler,
	getTaskHandler *queries.GetTaskHandler,
	listTasksHandler *queries.ListTasksHandler,
	searchTasksHandler *queries.SearchTasksHandler,
	getStatsHandler *queries.GetStatsHandler,
	upcomingDeadlinesHandler *queries.UpcomingDeadlinesHandler,
) *App {
	return &App{
		CreateTaskHandler:        createTaskHandler,
		UpdateTaskHandler:        updateTaskHandler,
		CompleteTaskHandler:      completeTaskHandler,
		DeleteTaskHandler:        deleteTaskHandler,
		GetTaskHandler:           getTaskHandler,
		ListTasksHandler:         listTasksHandler,
		SearchTasksHandler:       searchTasksHandler,
		GetStatsHandler:          getStatsHandler,
		UpcomingDeadlinesHandler: upcomingDeadlinesHandler,
	}
}

// SetHealth updates the health registry.
func (a *App) SetHealth(h *observability.HealthRegistry) {
	a.Health = h
}

// SetMetrics updates the metrics collector.
func (a *App) SetMetrics(m observability.Metrics) {
	a.Metrics = m
}

// SetFlush sets the function that relays pending outbox events.
func (a *App) SetFlush(fn func(ctx context.Context) error) {
	a.flush = fn
}

// SetCloser sets the function that releases the App's resources.
func (a *App) SetCloser(fn func()) {
	a.close = fn
}

// Flush relays pending outbox events, if a relay is configured.
func (a *App) Flush(ctx context.Context) error {
	if a.flush == nil {
		return nil
	}
	return a.flush(ctx)
}

// Close releases the App's resources. It is safe to call more than once.
func (a *App) Close() {
	if a.close == nil {
		return
	}
	fn := a.close
	a.close = nil
	fn()
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}
