package handler

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/gommon/log"
	"github.com/radhian/ledger-reconciliation/entity"
	usecase "github.com/radhian/ledger-reconciliation/usecase/reconciliation"
)

type ReconciliationHandler struct {
	Usecase        usecase.ReconciliationUsecase
	MaxUploadBytes int64
}

func NewReconciliationHandler(uc usecase.ReconciliationUsecase, maxUploadBytes int64) *ReconciliationHandler {
	return &ReconciliationHandler{Usecase: uc, MaxUploadBytes: maxUploadBytes}
}

type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type ReconciliationResponse struct {
	APIResponse
	*entity.ReconciliationResult
}

type ReportJobResponse struct {
	APIResponse
	JobID string `json:"job_id"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warnf("[HTTP] Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, APIResponse{Success: false, Message: message})
}

func (h *ReconciliationHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "ok"})
}
