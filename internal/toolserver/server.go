// Package toolserver はMCPツールとしてダッシュボードとノートを公開する。
// ツールはセッションミドルウェアが注入したユーザーIDの範囲でのみ動作する。
package toolserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hitoshi/foodjournal/internal/api"
	"github.com/hitoshi/foodjournal/internal/middleware"
	"github.com/hitoshi/foodjournal/internal/model"
	"github.com/hitoshi/foodjournal/internal/note"
)

const (
	defaultRecentLimit = 10
	maxRecentLimit     = 50
)

// DashboardProvider はget_dashboardツールが使うインターフェース。
type DashboardProvider interface {
	GetDashboard(ctx context.Context, userID string) (*model.Dashboard, error)
}

// NoteReader はノート系ツールが使うインターフェース。note.Serviceが満たす。
type NoteReader interface {
	List(ctx context.Context, userID string, filter model.NoteFilter) ([]*model.Note, error)
	Get(ctx context.Context, userID, noteID string) (*note.Detail, error)
}

// NewServer はツールを登録したMCPサーバーを生成する。
func NewServer(dashboard DashboardProvider, notes NoteReader, version string) *server.MCPServer {
	s := server.NewMCPServer("foodjournal", version, server.WithToolCapabilities(false))

	s.AddTool(
		mcp.NewTool("get_dashboard",
			mcp.WithDescription("Get the signed-in user's food journal statistics (total notes, notes this month, restaurant/recipe split, average rating) and recent activity."),
		),
		handleGetDashboard(dashboard),
	)

	s.AddTool(
		mcp.NewTool("list_recent_notes",
			mcp.WithDescription("List the signed-in user's notes, newest first. Optionally filter by category or tag."),
			mcp.WithString("category",
				mcp.Description("Optional: restaurant or recipe"),
				mcp.Enum(string(model.CategoryRestaurant), string(model.CategoryRecipe)),
			),
			mcp.WithString("tag",
				mcp.Description("Optional: only notes carrying this exact tag"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of notes to return (default: 10, max: 50)"),
			),
		),
		handleListRecentNotes(notes),
	)

	s.AddTool(
		mcp.NewTool("get_note",
			mcp.WithDescription("Get one note by ID including its markdown body."),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("The note ID (UUID)"),
			),
		),
		handleGetNote(notes),
	)

	return s
}

// NewHTTPHandler はStreamable HTTPトランスポートのハンドラーを返す。
// セッションミドルウェアの内側にマウントし、リクエストのユーザーIDをツールに引き渡す。
func NewHTTPHandler(s *server.MCPServer) http.Handler {
	return server.NewStreamableHTTPServer(s,
		server.WithStateLess(true),
		server.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			if userID, err := middleware.UserIDFromContext(r.Context()); err == nil {
				return middleware.ContextWithUserID(ctx, userID)
			}
			return ctx
		}),
	)
}

func handleGetDashboard(dashboard DashboardProvider) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID, err := middleware.UserIDFromContext(ctx)
		if err != nil {
			return mcp.NewToolResultError("not signed in"), nil
		}

		d, err := dashboard.GetDashboard(ctx, userID)
		if err != nil {
			return toolError(err), nil
		}
		return jsonResult(api.FromDashboard(d))
	}
}

func handleListRecentNotes(notes NoteReader) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID, err := middleware.UserIDFromContext(ctx)
		if err != nil {
			return mcp.NewToolResultError("not signed in"), nil
		}

		limit := req.GetInt("limit", defaultRecentLimit)
		if limit <= 0 {
			limit = defaultRecentLimit
		}
		limit = min(limit, maxRecentLimit)

		list, err := notes.List(ctx, userID, model.NoteFilter{
			Category: model.NoteCategory(req.GetString("category", "")),
			Tag:      req.GetString("tag", ""),
		})
		if err != nil {
			return toolError(err), nil
		}
		if len(list) > limit {
			list = list[:limit]
		}
		return jsonResult(api.FromNotes(list))
	}
}

func handleGetNote(notes NoteReader) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID, err := middleware.UserIDFromContext(ctx)
		if err != nil {
			return mcp.NewToolResultError("not signed in"), nil
		}

		id, err := req.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError("id is required"), nil
		}

		detail, err := notes.Get(ctx, userID, id)
		if err != nil {
			return toolError(err), nil
		}
		return jsonResult(api.FromNote(detail.Note))
	}
}

// toolError はAPIErrorのメッセージのみをツール結果として返す。内部エラーの詳細はログに残す。
func toolError(err error) *mcp.CallToolResult {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return mcp.NewToolResultError(apiErr.Message)
	}
	slog.Error("tool call failed", slog.String("error", err.Error()))
	return mcp.NewToolResultError(model.NewInternalError().Message)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}
