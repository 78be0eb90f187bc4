package mcp

import (
	"context"

	"github.com/GastonDalla/dallatrack/internal/session"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// --- Tool definitions ---

var toolGetSession = mcp.NewTool("get_session",
	mcp.WithDescription("Retrieve one training session by id, including exercises, sets, the progression cursor, and active elapsed seconds."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session UUID")),
)

var toolListSessions = mcp.NewTool("list_sessions",
	mcp.WithDescription("List the user's training sessions, newest first. Returns lightweight rows without the full set data."),
	mcp.WithNumber("limit", mcp.Description("Maximum rows to return. Defaults to 20.")),
)

var toolGetSessionSummary = mcp.NewTool("get_session_summary",
	mcp.WithDescription("Retrieve the finalization summary of a finished session: duration, sets completed, and total weight moved."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session UUID")),
)

var toolGetTrainingTotals = mcp.NewTool("get_training_totals",
	mcp.WithDescription("Rolled-up training totals across all finalized sessions: session count, minutes, sets, and weight moved."),
)

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List the exercise catalog with muscle groups and default rest times."),
)

// --- Tool handlers ---

func (h *handlers) getSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireSessionID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s, err := h.ds.Load(ctx, id)
	if err != nil {
		h.log.Error("mcp get_session", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	payload := struct {
		*session.Session
		ElapsedSeconds int `json:"elapsedSeconds"`
	}{s, session.ElapsedSeconds(s, h.now())}

	result, err := mcp.NewToolResultJSON(payload)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 20)
	uid := UserIDFromContext(ctx)

	items, err := h.ds.ListSessions(ctx, uid, limit)
	if err != nil {
		h.log.Error("mcp list_sessions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(items)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSessionSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireSessionID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sum, err := h.ds.GetSummary(ctx, id)
	if err != nil {
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(sum)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getTrainingTotals(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)

	stats, err := h.ds.GetUserStats(ctx, uid)
	if err != nil {
		h.log.Error("mcp get_training_totals", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(stats)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	refs, err := h.ds.ListExercises(ctx)
	if err != nil {
		h.log.Error("mcp list_exercises", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(refs)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func requireSessionID(req mcp.CallToolRequest) (uuid.UUID, error) {
	raw, err := req.RequireString("session_id")
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(raw)
}
