package decision

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/oggyb/swapcircle/internal/app"
	"github.com/oggyb/swapcircle/internal/auth"
	"github.com/oggyb/swapcircle/internal/db"
	svcErr "github.com/oggyb/swapcircle/internal/errors"
)

// Registrar ties the decision service into the HTTP server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the decision service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the decision routes to the API group
func (r *Registrar) Register(g *echo.Group) {
	h := &handler{svc: NewService(r.appCtx), appCtx: r.appCtx}
	g.PUT("/decisions/:target", h.putDecision)
	g.GET("/admirers", h.listAdmirers)
	g.GET("/admirers/count", h.countAdmirers)
}

type handler struct {
	svc    *Service
	appCtx *app.AppContext
}

type decisionRequest struct {
	Kind   string  `json:"kind"`
	ItemID *uint64 `json:"item_id,omitempty"`
}

type decisionResponse struct {
	OK            bool   `json:"ok"`
	Matched       bool   `json:"matched"`
	MatchID       uint64 `json:"match_id,omitempty"`
	MatchedUserID uint64 `json:"matched_user_id,omitempty"`
}

type admirerResponse struct {
	UserID        uint64 `json:"user_id"`
	LikedAtMillis int64  `json:"liked_at_ms"`
}

type admirerListResponse struct {
	Admirers  []admirerResponse `json:"admirers"`
	NextToken *string           `json:"next_page_token,omitempty"`
}

// PUT /api/v1/decisions/:target
func (h *handler) putDecision(c echo.Context) error {
	actorID, ok := auth.CurrentUser(c)
	if !ok {
		return svcErr.Map(svcErr.ErrNotAuthenticated)
	}

	targetID, err := strconv.ParseUint(c.Param("target"), 10, 64)
	if err != nil {
		return svcErr.InvalidArgument("target must be a valid uint64")
	}

	var req decisionRequest
	if err := c.Bind(&req); err != nil {
		return svcErr.InvalidArgument("malformed decision body")
	}

	h.appCtx.Logger.Debug("putDecision called", "actor", actorID, "target", targetID, "kind", req.Kind)

	switch req.Kind {
	case db.EdgeKindLike:
		result, err := h.svc.Like(c.Request().Context(), actorID, targetID, req.ItemID)
		if err != nil {
			h.appCtx.Logger.Error("Like failed", "actor", actorID, "target", targetID, "err", err)
			return svcErr.Map(err)
		}
		return c.JSON(http.StatusOK, decisionResponse{
			OK:            true,
			Matched:       result.Matched,
			MatchID:       result.MatchID,
			MatchedUserID: result.MatchedUserID,
		})

	case db.EdgeKindPass:
		if err := h.svc.Pass(c.Request().Context(), actorID, targetID); err != nil {
			h.appCtx.Logger.Error("Pass failed", "actor", actorID, "target", targetID, "err", err)
			return svcErr.Map(err)
		}
		return c.JSON(http.StatusOK, decisionResponse{OK: true})

	default:
		return svcErr.InvalidArgument("kind must be \"like\" or \"pass\"")
	}
}

// GET /api/v1/admirers
func (h *handler) listAdmirers(c echo.Context) error {
	viewerID, ok := auth.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusOK, admirerListResponse{Admirers: []admirerResponse{}})
	}

	var token *string
	if v := c.QueryParam("page_token"); v != "" {
		token = &v
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	admirers, nextToken, err := h.svc.ListAdmirers(c.Request().Context(), viewerID, token, limit)
	if err != nil {
		h.appCtx.Logger.Error("ListAdmirers failed", "viewer", viewerID, "err", err)
		return svcErr.Map(err)
	}

	resp := admirerListResponse{Admirers: make([]admirerResponse, 0, len(admirers)), NextToken: nextToken}
	for _, a := range admirers {
		resp.Admirers = append(resp.Admirers, admirerResponse{
			UserID:        a.UserID,
			LikedAtMillis: a.LikedAt.UnixMilli(),
		})
	}
	return c.JSON(http.StatusOK, resp)
}

// GET /api/v1/admirers/count
func (h *handler) countAdmirers(c echo.Context) error {
	viewerID, ok := auth.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusOK, map[string]int64{"count": 0})
	}

	count, err := h.svc.CountAdmirers(c.Request().Context(), viewerID)
	if err != nil {
		h.appCtx.Logger.Error("CountAdmirers failed", "viewer", viewerID, "err", err)
		return svcErr.Map(err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"count": count})
}
