package cli

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	internalApp "github.com/felixgeelhaar/quadra/internal/app"
	"github.com/felixgeelhaar/quadra/internal/matrix/application/queries"
	"github.com/felixgeelhaar/quadra/internal/matrix/domain/report"
	"github.com/felixgeelhaar/quadra/internal/matrix/domain/task"
	"github.com/felixgeelhaar/quadra/pkg/config"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryBootstrap(calls *int) Bootstrap {
	return func(ctx context.Context, configPath string, verbose bool) (*App, error) {
		*calls++
		cfg := config.Defaults()
		cfg.DatabaseURL = "memory"
		container, err := internalApp.NewContainer(ctx, cfg, slog.New(slog.DiscardHandler))
		if err != nil {
			return nil, err
		}
		return NewAppFromContainer(container), nil
	}
}

// execute runs the root command with a fresh App built by b.
func execute(t *testing.T, b Bootstrap, args ...string) (string, error) {
	t.Helper()

	SetBootstrap(b)
	t.Cleanup(func() {
		if app != nil {
			app.Close()
		}
		SetApp(nil)
		SetBootstrap(nil)
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRoot_BootstrapsOncePerProcess(t *testing.T) {
	calls := 0
	b := memoryBootstrap(&calls)

	out, err := execute(t, b, "add", "Pay rent today !")
	require.NoError(t, err)
	assert.Contains(t, out, "Task created!")
	assert.Contains(t, out, "Pay rent")
	assert.Contains(t, out, "Q1")

	out, err = execute(t, b, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Total:     1")
	assert.Equal(t, 1, calls)
}

func TestRoot_VersionSkipsBootstrap(t *testing.T) {
	calls := 0

	out, err := execute(t, memoryBootstrap(&calls), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "quadra "+Version)
	assert.Zero(t, calls)
}

func TestRoot_BootstrapFailure(t *testing.T) {
	failing := func(context.Context, string, bool) (*App, error) {
		return nil, errors.New("database unreachable")
	}

	_, err := execute(t, failing, "stats")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database unreachable")
}

func TestRoot_FlushesOutboxAfterCommand(t *testing.T) {
	flushed := 0
	b := func(context.Context, string, bool) (*App, error) {
		a := NewApp(nil, nil, nil, nil, nil, nil, nil, nil, nil)
		a.SetFlush(func(context.Context) error {
			flushed++
			return nil
		})
		return a, nil
	}

	_, err := execute(t, b, "health")
	require.NoError(t, err)
	assert.Equal(t, 1, flushed)
}

func TestIsStandalone(t *testing.T) {
	parent := &cobra.Command{Use: "parent", Annotations: map[string]string{StandaloneAnnotation: "true"}}
	child := &cobra.Command{Use: "child"}
	parent.AddCommand(child)

	assert.True(t, isStandalone(child))
	assert.False(t, isStandalone(&cobra.Command{Use: "plain"}))
}

func TestApp_CloseRunsOnce(t *testing.T) {
	closed := 0
	a := NewApp(nil, nil, nil, nil, nil, nil, nil, nil, nil)
	a.SetCloser(func() { closed++ })

	a.Close()
	a.Close()
	assert.Equal(t, 1, closed)
	assert.NoError(t, a.Flush(context.Background()))
}

func TestRenderMatrix(t *testing.T) {
	tasks := []queries.TaskDTO{
		{ID: 1, Title: "Fix outage", Quadrant: "Q1"},
		{ID: 2, Title: "Plan roadmap", Quadrant: "Q2"},
		{ID: 3, Title: "Answer vendor email", Quadrant: "Q3"},
		{ID: 4, Title: "Plan offsite", Quadrant: "Q2"},
	}

	out := RenderMatrix(tasks, 30, 10)

	for _, want := range []string{"Q1 Do first (1)", "Q2 Schedule (2)", "Q3 Delegate (1)", "Q4 Eliminate (0)", "#1 Fix outage", "#4 Plan offsite"} {
		assert.Contains(t, out, want)
	}

	lines := strings.Split(out, "\n")
	q1Row := -1
	q3Row := -1
	for i, line := range lines {
		if strings.Contains(line, "Q1 Do") {
			q1Row = i
			assert.Contains(t, line, "Q2 Schedule", "Q1 and Q2 share the top row")
		}
		if strings.Contains(line, "Q3 Delegate") {
			q3Row = i
			assert.Contains(t, line, "Q4 Eliminate", "Q3 and Q4 share the bottom row")
		}
	}
	assert.Less(t, q1Row, q3Row)
}

func TestRenderMatrix_LimitsItems(t *testing.T) {
	var tasks []queries.TaskDTO
	for i := 1; i <= 5; i++ {
		tasks = append(tasks, queries.TaskDTO{ID: int64(i), Title: "Low value chore", Quadrant: "Q4"})
	}

	out := RenderMatrix(tasks, 30, 3)
	assert.Contains(t, out, "2 more")
	assert.NotContains(t, out, "#4 ")
}

func TestPrintStats(t *testing.T) {
	var out bytes.Buffer
	PrintStats(&out, report.Stats{
		Total:      3,
		ByQuadrant: map[task.Quadrant]int{task.Q1: 2, task.Q2: 0, task.Q3: 1, task.Q4: 0},
		ByStatus:   report.StatusCounts{Completed: 1, Pending: 2},
	})

	s := out.String()
	assert.Contains(t, s, "Total:     3")
	assert.Contains(t, s, "Pending:   2")
	assert.Contains(t, s, "Completed: 1")
	assert.Contains(t, s, "Q4 Eliminate")
}

func TestPrintDeadlines(t *testing.T) {
	var out bytes.Buffer
	PrintDeadlines(&out, nil)
	assert.Contains(t, out.String(), "No upcoming deadlines.")

	out.Reset()
	PrintDeadlines(&out, []report.DeadlineEntry{
		{TaskID: 1, Title: "File taxes", DeadlineAt: time.Now(), DaysRemaining: -2},
		{TaskID: 2, Title: "Book flights", DeadlineAt: time.Now(), DaysRemaining: 5},
	})
	s := out.String()
	assert.Contains(t, s, "Deadlines (2)")
	assert.Contains(t, s, "#1 File taxes")
	assert.Contains(t, s, "[OVERDUE 2d]")
	assert.Contains(t, s, "[5 days]")
}

func TestDaysLabel(t *testing.T) {
	assert.Equal(t, "[TODAY]", daysLabel(0))
	assert.Equal(t, "[1 day]", daysLabel(1))
	assert.Equal(t, "[OVERDUE 1d]", daysLabel(-1))
}

func TestParseDeadline(t *testing.T) {
	t.Run("rfc3339", func(t *testing.T) {
		got, err := ParseDeadline("2026-03-01T09:30:00Z")
		require.NoError(t, err)
		assert.True(t, got.Equal(time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)))
	})

	t.Run("date and time", func(t *testing.T) {
		got, err := ParseDeadline("2026-03-01 09:30")
		require.NoError(t, err)
		assert.Equal(t, 9, got.Hour())
		assert.Equal(t, 30, got.Minute())
	})

	t.Run("date means end of day", func(t *testing.T) {
		got, err := ParseDeadline("2026-03-01")
		require.NoError(t, err)
		assert.Equal(t, 1, got.Day())
		assert.Equal(t, 23, got.Hour())
		assert.Equal(t, 59, got.Minute())
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ParseDeadline("next tuesday")
		assert.ErrorContains(t, err, "invalid deadline")
	})
}
