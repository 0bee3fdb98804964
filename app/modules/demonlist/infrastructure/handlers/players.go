package demonlisthandlers

import (
	"net/http"

	demonlistdomain "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/domain"
	"github.com/go-chi/chi/v5"
)

type playerRequest struct {
	Name string `json:"name"`
}

type pointsResponse struct {
	Player string                `json:"player"`
	Scope  demonlistdomain.Scope `json:"scope"`
	Points float64               `json:"points"`
}

// HandleListPlayers returns the roster in join order.
func (h *DemonListHandlers) HandleListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.service.Roster(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, players)
}

// HandleAddPlayer adds a player. Duplicates are a 409.
func (h *DemonListHandlers) HandleAddPlayer(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.service.AddPlayer(r.Context(), req.Name); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.view.Invalidate()

	name, _ := demonlistdomain.SanitizePlayerName(req.Name)
	writeJSON(w, http.StatusCreated, playerRequest{Name: name})
}

// HandleRemovePlayer drops a player and their progress. The last player stays.
func (h *DemonListHandlers) HandleRemovePlayer(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RemovePlayer(r.Context(), chi.URLParam(r, "name")); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.view.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}

// HandlePlayerPoints totals one player's earned points over ?scope.
func (h *DemonListHandlers) HandlePlayerPoints(w http.ResponseWriter, r *http.Request) {
	scope, err := scopeParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	name, err := demonlistdomain.SanitizePlayerName(chi.URLParam(r, "name"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	points, err := h.service.TotalPoints(r.Context(), name, scope)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pointsResponse{Player: name, Scope: scope, Points: points})
}
