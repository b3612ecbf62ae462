package discover

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/oggyb/swapcircle/internal/app"
	"github.com/oggyb/swapcircle/internal/auth"
	svcErr "github.com/oggyb/swapcircle/internal/errors"
)

// Registrar ties the discovery service into the HTTP server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the discovery service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the discovery routes to the API group
func (r *Registrar) Register(g *echo.Group) {
	h := &handler{svc: NewService(r.appCtx), appCtx: r.appCtx}
	g.GET("/discover", h.listCandidates)
}

type handler struct {
	svc    *Service
	appCtx *app.AppContext
}

type itemResponse struct {
	ID       uint64 `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
}

type candidateResponse struct {
	UserID   uint64         `json:"user_id"`
	Username string         `json:"username"`
	Items    []itemResponse `json:"items"`
}

// GET /api/v1/discover
func (h *handler) listCandidates(c echo.Context) error {
	viewerID, ok := auth.CurrentUser(c)
	if !ok {
		// guests see an empty feed, not an error
		return c.JSON(http.StatusOK, []candidateResponse{})
	}

	candidates, err := h.svc.ListCandidates(c.Request().Context(), viewerID)
	if err != nil {
		h.appCtx.Logger.Error("ListCandidates failed", "viewer", viewerID, "err", err)
		return svcErr.Map(err)
	}

	resp := make([]candidateResponse, 0, len(candidates))
	for _, cand := range candidates {
		items := make([]itemResponse, 0, len(cand.Items))
		for _, item := range cand.Items {
			items = append(items, itemResponse{ID: item.ID, Title: item.Title, Category: item.Category})
		}
		resp = append(resp, candidateResponse{
			UserID:   cand.User.ID,
			Username: cand.User.Username,
			Items:    items,
		})
	}
	return c.JSON(http.StatusOK, resp)
}
