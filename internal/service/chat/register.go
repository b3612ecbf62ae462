package chat

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/oggyb/swapcircle/internal/app"
	"github.com/oggyb/swapcircle/internal/auth"
	svcErr "github.com/oggyb/swapcircle/internal/errors"
)

// Registrar ties the chat service into the HTTP server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the chat service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the conversation routes to the API group
func (r *Registrar) Register(g *echo.Group) {
	h := &handler{svc: NewService(r.appCtx), appCtx: r.appCtx}
	g.GET("/conversations", h.listConversations)
	g.POST("/conversations/:id/read", h.markRead)
	g.GET("/swap-context/:user", h.getSwapContext)
}

type handler struct {
	svc    *Service
	appCtx *app.AppContext
}

type conversationResponse struct {
	MatchID            uint64  `json:"match_id"`
	OtherUserID        uint64  `json:"other_user_id"`
	OtherUsername      string  `json:"other_username"`
	LastMessage        *string `json:"last_message"`
	LastActivityMillis int64   `json:"last_activity_ms"`
	HasUnread          bool    `json:"has_unread"`
}

type swapItemResponse struct {
	ID       uint64 `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
}

type swapContextResponse struct {
	Mine   []swapItemResponse `json:"mine"`
	Theirs []swapItemResponse `json:"theirs"`
}

type markReadRequest struct {
	ReadAt string `json:"read_at,omitempty"` // RFC3339; empty means now
}

// GET /api/v1/conversations
func (h *handler) listConversations(c echo.Context) error {
	viewerID, ok := auth.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusOK, []conversationResponse{})
	}

	summaries, err := h.svc.ListConversations(c.Request().Context(), viewerID)
	if err != nil {
		h.appCtx.Logger.Error("ListConversations failed", "viewer", viewerID, "err", err)
		return svcErr.Map(err)
	}

	resp := make([]conversationResponse, 0, len(summaries))
	for _, s := range summaries {
		resp = append(resp, conversationResponse{
			MatchID:            s.MatchID,
			OtherUserID:        s.OtherUserID,
			OtherUsername:      s.OtherUsername,
			LastMessage:        s.LastMessage,
			LastActivityMillis: s.LastActivity.UnixMilli(),
			HasUnread:          s.HasUnread,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

// POST /api/v1/conversations/:id/read
func (h *handler) markRead(c echo.Context) error {
	viewerID, ok := auth.CurrentUser(c)
	if !ok {
		return svcErr.Map(svcErr.ErrNotAuthenticated)
	}

	matchID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return svcErr.InvalidArgument("match id must be a valid uint64")
	}

	var req markReadRequest
	_ = c.Bind(&req) // empty body is fine, means "read up to now"

	var readAt time.Time
	if req.ReadAt != "" {
		readAt, err = time.Parse(time.RFC3339, req.ReadAt)
		if err != nil {
			return svcErr.InvalidArgument("read_at must be RFC3339")
		}
	}

	if err := h.svc.MarkRead(c.Request().Context(), viewerID, matchID, readAt); err != nil {
		h.appCtx.Logger.Error("MarkRead failed", "viewer", viewerID, "match_id", matchID, "err", err)
		return svcErr.Map(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// GET /api/v1/swap-context/:user
func (h *handler) getSwapContext(c echo.Context) error {
	viewerID, ok := auth.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusOK, swapContextResponse{Mine: []swapItemResponse{}, Theirs: []swapItemResponse{}})
	}

	otherID, err := strconv.ParseUint(c.Param("user"), 10, 64)
	if err != nil {
		return svcErr.InvalidArgument("user must be a valid uint64")
	}

	sc, err := h.svc.GetSwapContext(c.Request().Context(), viewerID, otherID)
	if err != nil {
		h.appCtx.Logger.Error("GetSwapContext failed", "viewer", viewerID, "other", otherID, "err", err)
		return svcErr.Map(err)
	}

	resp := swapContextResponse{Mine: []swapItemResponse{}, Theirs: []swapItemResponse{}}
	for _, item := range sc.Mine {
		resp.Mine = append(resp.Mine, swapItemResponse{ID: item.ID, Title: item.Title, Category: item.Category})
	}
	for _, item := range sc.Theirs {
		resp.Theirs = append(resp.Theirs, swapItemResponse{ID: item.ID, Title: item.Title, Category: item.Category})
	}
	return c.JSON(http.StatusOK, resp)
}
