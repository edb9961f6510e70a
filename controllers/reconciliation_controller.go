package controllers

import (
	"net/http"

	"github.com/radhian/ledger-reconciliation/handler"

	"github.com/gorilla/mux"
)

func RegisterReconciliationRoutes(router *mux.Router, h *handler.ReconciliationHandler) {
	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	router.HandleFunc("/reconciliation/process", h.ProcessReconciliation).Methods(http.MethodPost)
	router.HandleFunc("/reconciliation/report", h.SubmitReport).Methods(http.MethodPost)
	router.HandleFunc("/reconciliation/progress/{job_id}", h.GetProgress).Methods(http.MethodGet)
	router.HandleFunc("/reconciliation/report/{job_id}", h.ProbeResult).Methods(http.MethodHead)
	router.HandleFunc("/reconciliation/report/{job_id}", h.GetResult).Methods(http.MethodGet)
}
