// Package mcp exposes read-only MCP tools over the session store, so
// assistants can inspect live session state and training totals without
// touching the command surface.
package mcp

import (
	"context"
	"log/slog"
	"time"

	"github.com/GastonDalla/dallatrack/internal/session"
	"github.com/GastonDalla/dallatrack/internal/storage"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return 1
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// DataSource abstracts the reads the MCP tools need. *storage.DB and
// *storage.SQLite both satisfy it.
type DataSource interface {
	Load(ctx context.Context, id uuid.UUID) (*session.Session, error)
	ListSessions(ctx context.Context, userID, limit int) ([]storage.SessionListItem, error)
	GetSummary(ctx context.Context, sessionID uuid.UUID) (*storage.SummaryRow, error)
	GetUserStats(ctx context.Context, userID int) (*storage.UserStats, error)
	ListExercises(ctx context.Context) ([]session.ExerciseRef, error)
}

var (
	_ DataSource = (*storage.DB)(nil)
	_ DataSource = (*storage.SQLite)(nil)
)

// New creates an MCP server with all tools registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("DallaTrack", version,
		server.WithToolCapabilities(false),
		server.WithInstructions("DallaTrack training server. Inspect active and finished workout sessions, per-session summaries, the exercise catalog, and rolled-up training totals. All data is scoped to the authenticated user."),
	)

	h := &handlers{ds: ds, log: log, now: time.Now}

	s.AddTools(
		server.ServerTool{Tool: toolGetSession, Handler: h.getSession},
		server.ServerTool{Tool: toolListSessions, Handler: h.listSessions},
		server.ServerTool{Tool: toolGetSessionSummary, Handler: h.getSessionSummary},
		server.ServerTool{Tool: toolGetTrainingTotals, Handler: h.getTrainingTotals},
		server.ServerTool{Tool: toolListExercises, Handler: h.listExercises},
	)

	return s
}

// handlers holds dependencies for MCP tool handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
	now func() time.Time
}
