package mcp

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/felixgeelhaar/mcp-go/middleware"
	"github.com/felixgeelhaar/mcp-go/testutil"
	"github.com/felixgeelhaar/quadra/adapter/cli"
	"github.com/felixgeelhaar/quadra/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer_RegistersTools(t *testing.T) {
	srv, err := NewServer(&cli.App{}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	tc := testutil.NewTestClient(t, srv)
	defer tc.Close()

	tools, err := tc.ListTools()
	require.NoError(t, err)
	assert.NotEmpty(t, tools)
}

func TestNewServer_RequiresApp(t *testing.T) {
	_, err := NewServer(nil, nil)
	assert.Error(t, err)
}

func TestMiddleware_AuthOnlyWithToken(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	cfg := config.Defaults()
	open := Middleware(cfg, logger)
	assert.Contains(t, logs.String(), "unauthenticated")

	cfg.MCPAuthToken = "secret"
	secured := Middleware(cfg, logger)
	assert.Len(t, secured, len(open)+1)
}

func TestFieldsToArgs(t *testing.T) {
	args := fieldsToArgs([]middleware.Field{{Key: "tool", Value: "task.create"}, {Key: "ms", Value: 3}})
	assert.Equal(t, []any{"tool", "task.create", "ms", 3}, args)
}
