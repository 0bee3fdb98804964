package demonlisthandlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type addLevelRequest struct {
	Name            string   `json:"name"`
	Creator         string   `json:"creator"`
	DifficultyScore *float64 `json:"difficulty_score"`
}

type updateLevelRequest struct {
	Name    string `json:"name"`
	Creator string `json:"creator"`
}

type difficultyRequest struct {
	DifficultyScore *float64 `json:"difficulty_score"`
}

// HandleListLevels serves the cached read model for ?scope=active|reserve|both.
func (h *DemonListHandlers) HandleListLevels(w http.ResponseWriter, r *http.Request) {
	scope, err := scopeParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	levels, err := h.view.Levels(r.Context(), scope)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, levels)
}

// HandleAddLevel inserts a level and returns it as placed by the recompute.
func (h *DemonListHandlers) HandleAddLevel(w http.ResponseWriter, r *http.Request) {
	var req addLevelRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.DifficultyScore == nil {
		h.writeError(w, r, badRequest("difficulty_score", "is required"))
		return
	}

	level, err := h.service.AddLevel(r.Context(), req.Name, req.Creator, *req.DifficultyScore)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.view.Invalidate()
	writeJSON(w, http.StatusCreated, level)
}

// HandleUpdateLevel edits name and creator. Ranks are untouched.
func (h *DemonListHandlers) HandleUpdateLevel(w http.ResponseWriter, r *http.Request) {
	id, err := levelIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req updateLevelRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	level, err := h.service.UpdateLevelDetails(r.Context(), id, req.Name, req.Creator)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.view.Invalidate()
	writeJSON(w, http.StatusOK, level)
}

// HandleSetDifficulty changes a level's score, which may move it between tiers.
func (h *DemonListHandlers) HandleSetDifficulty(w http.ResponseWriter, r *http.Request) {
	id, err := levelIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req difficultyRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.DifficultyScore == nil {
		h.writeError(w, r, badRequest("difficulty_score", "is required"))
		return
	}

	if err := h.service.SetDifficultyScore(r.Context(), id, *req.DifficultyScore); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.view.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}

// HandleDeleteLevel removes a level and re-densifies the ranks below it.
func (h *DemonListHandlers) HandleDeleteLevel(w http.ResponseWriter, r *http.Request) {
	id, err := levelIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.service.DeleteLevel(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.view.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}

// HandleSetProgress records one player's percent on one level. Unparseable input
// counts as 0.
func (h *DemonListHandlers) HandleSetProgress(w http.ResponseWriter, r *http.Request) {
	id, err := levelIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req struct {
		Percent json.RawMessage `json:"percent"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	entry, err := h.service.SetProgress(r.Context(), id, chi.URLParam(r, "player"), parsePercent(req.Percent))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.view.Invalidate()
	writeJSON(w, http.StatusOK, entry)
}
