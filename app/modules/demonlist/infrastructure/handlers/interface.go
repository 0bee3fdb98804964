package demonlisthandlers

import (
	"context"
	"net/http"
)

// ReconcileEnqueuer schedules a reconcile pass on the job queue.
type ReconcileEnqueuer interface {
	EnqueueReconcile(ctx context.Context, reason string) (int64, error)
}

// Handlers serves the demon list HTTP API.
type Handlers interface {
	HandleHealth(w http.ResponseWriter, r *http.Request)

	HandleListLevels(w http.ResponseWriter, r *http.Request)
	HandleAddLevel(w http.ResponseWriter, r *http.Request)
	HandleUpdateLevel(w http.ResponseWriter, r *http.Request)
	HandleSetDifficulty(w http.ResponseWriter, r *http.Request)
	HandleDeleteLevel(w http.ResponseWriter, r *http.Request)
	HandleSetProgress(w http.ResponseWriter, r *http.Request)

	HandleListPlayers(w http.ResponseWriter, r *http.Request)
	HandleAddPlayer(w http.ResponseWriter, r *http.Request)
	HandleRemovePlayer(w http.ResponseWriter, r *http.Request)
	HandlePlayerPoints(w http.ResponseWriter, r *http.Request)

	HandleStandings(w http.ResponseWriter, r *http.Request)
	HandleStandingsChart(w http.ResponseWriter, r *http.Request)
	HandleExport(w http.ResponseWriter, r *http.Request)
	HandleImport(w http.ResponseWriter, r *http.Request)
	HandleReconcile(w http.ResponseWriter, r *http.Request)
}
