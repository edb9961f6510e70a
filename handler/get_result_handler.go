package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/labstack/gommon/log"
	usecase "github.com/radhian/ledger-reconciliation/usecase/reconciliation"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GetProgress reports the state of a job. Unknown ids get a "not started"
// answer rather than 404.
func (h *ReconciliationHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)[fieldJobID]

	state, err := h.Usecase.GetProgress(r.Context(), jobID)
	if err != nil {
		log.Errorf("[HTTP] Failed to read progress of job %s: %v", jobID, err)
		writeError(w, http.StatusInternalServerError, "failed to get progress")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// ProbeResult answers 200 when the report can be downloaded, 404 otherwise.
func (h *ReconciliationHandler) ProbeResult(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)[fieldJobID]
	if !h.Usecase.ProbeResult(r.Context(), jobID) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.WriteHeader(http.StatusOK)
}

// GetResult streams the report once. The job and its file are gone after
// this call.
func (h *ReconciliationHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)[fieldJobID]

	rc, err := h.Usecase.ConsumeResult(r.Context(), jobID)
	if errors.Is(err, usecase.ErrResultNotReady) {
		writeError(w, http.StatusNotFound, "result not found or already downloaded")
		return
	}
	if err != nil {
		log.Errorf("[HTTP] Failed to hand out result of job %s: %v", jobID, err)
		writeError(w, http.StatusInternalServerError, "failed to get result")
		return
	}
	defer rc.Close()

	name := fmt.Sprintf("reconciliation_%s.xlsx", jobID)
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	http.ServeContent(w, r, name, time.Now(), rc)
}
