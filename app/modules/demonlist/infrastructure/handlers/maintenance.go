package demonlisthandlers

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/Black-And-White-Club/demonlist-tracker/app/observability/attr"
)

const (
	maxUploadBytes = 32 << 20
	xlsxMediaType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// HandleStandings returns every player's totals.
func (h *DemonListHandlers) HandleStandings(w http.ResponseWriter, r *http.Request) {
	standings, err := h.service.Standings(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, standings)
}

// HandleStandingsChart renders the standings as a PNG.
func (h *DemonListHandlers) HandleStandingsChart(w http.ResponseWriter, r *http.Request) {
	png, err := h.service.StandingsChart(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// HandleExport streams the list as an XLSX attachment.
func (h *DemonListHandlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	// Buffered so a failure can still be reported with a proper status.
	var buf bytes.Buffer
	if err := h.service.ExportSpreadsheet(r.Context(), &buf); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsxMediaType)
	w.Header().Set("Content-Disposition", `attachment; filename="demonlist.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// HandleImport replaces the list with the workbook in the multipart "file" field.
func (h *DemonListHandlers) HandleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.writeError(w, r, badRequest("file", "expected a multipart upload"))
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, r, badRequest("file", "missing form field \"file\""))
		return
	}
	defer file.Close()

	res, err := h.service.ImportSpreadsheet(r.Context(), file)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.view.Invalidate()
	writeJSON(w, http.StatusOK, res)
}

// HandleReconcile queues a reconcile job (202) when a queue is configured and
// otherwise runs one inline (200).
func (h *DemonListHandlers) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	if h.queue != nil {
		jobID, err := h.queue.EnqueueReconcile(r.Context(), "http")
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		h.logger.InfoContext(r.Context(), "Reconcile enqueued",
			attr.ExtractCorrelationID(r.Context()),
			attr.Any("job_id", jobID),
		)
		writeJSON(w, http.StatusAccepted, map[string]int64{"job_id": jobID})
		return
	}

	res, err := h.service.Reconcile(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.view.Invalidate()
	writeJSON(w, http.StatusOK, res)
}
