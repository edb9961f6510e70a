package handler

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/gommon/log"
	"github.com/radhian/ledger-reconciliation/entity"
	usecase "github.com/radhian/ledger-reconciliation/usecase/reconciliation"
)

const (
	fieldJD    = "file_jd"
	fieldCore  = "file_core"
	fieldJobID = "job_id"

	multipartMemory = 32 << 20
)

var allowedExtensions = map[string]bool{".csv": true, ".txt": true, ".xlsx": true}

var errBadUpload = errors.New("invalid upload")

// ProcessReconciliation reconciles the two uploaded ledgers and answers with
// the result in the same request.
func (h *ReconciliationHandler) ProcessReconciliation(w http.ResponseWriter, r *http.Request) {
	jdPath, corePath, err := h.stageUploads(w, r)
	if err != nil {
		h.writeUploadError(w, err)
		return
	}
	defer h.Usecase.DiscardUploads(jdPath, corePath)

	res, err := h.Usecase.ProcessReconciliation(r.Context(), jdPath, corePath)
	if err != nil {
		log.Errorf("[HTTP] Reconciliation failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to process reconciliation")
		return
	}

	writeJSON(w, http.StatusOK, ReconciliationResponse{
		APIResponse:          APIResponse{Success: true},
		ReconciliationResult: res,
	})
}

// SubmitReport starts a background report job and answers with its id.
func (h *ReconciliationHandler) SubmitReport(w http.ResponseWriter, r *http.Request) {
	jdPath, corePath, err := h.stageUploads(w, r)
	if err != nil {
		h.writeUploadError(w, err)
		return
	}

	jobID, err := h.Usecase.ProcessReconciliationInit(r.Context(), entity.ReportJobRequest{
		JobID:    r.FormValue(fieldJobID),
		JDPath:   jdPath,
		CorePath: corePath,
	})
	if errors.Is(err, usecase.ErrJobInUse) {
		writeError(w, http.StatusConflict, "job_id already in use")
		return
	}
	if err != nil {
		log.Errorf("[HTTP] Failed to start report job: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to start report job")
		return
	}

	writeJSON(w, http.StatusAccepted, ReportJobResponse{
		APIResponse: APIResponse{Success: true, Message: "processing started"},
		JobID:       jobID,
	})
}

// stageUploads saves both ledgers to staging. Nothing is left behind when it
// fails.
func (h *ReconciliationHandler) stageUploads(w http.ResponseWriter, r *http.Request) (string, string, error) {
	if h.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", "", err
		}
		return "", "", fmt.Errorf("%w: both %s and %s are required", errBadUpload, fieldJD, fieldCore)
	}

	jdPath, err := h.stageField(r, fieldJD)
	if err != nil {
		return "", "", err
	}
	corePath, err := h.stageField(r, fieldCore)
	if err != nil {
		h.Usecase.DiscardUploads(jdPath)
		return "", "", err
	}
	return jdPath, corePath, nil
}

func (h *ReconciliationHandler) stageField(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", fmt.Errorf("%w: both %s and %s are required", errBadUpload, fieldJD, fieldCore)
	}
	defer file.Close()

	if !allowedExtensions[strings.ToLower(filepath.Ext(header.Filename))] {
		return "", fmt.Errorf("%w: %s must be a .csv, .txt or .xlsx file", errBadUpload, field)
	}

	path, err := h.Usecase.StageUpload(file, header.Filename)
	if err != nil {
		return "", fmt.Errorf("failed to stage %s: %w", field, err)
	}
	return path, nil
}

func (h *ReconciliationHandler) writeUploadError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
	case errors.Is(err, errBadUpload):
		writeError(w, http.StatusBadRequest, strings.TrimPrefix(err.Error(), errBadUpload.Error()+": "))
	default:
		log.Errorf("[HTTP] Failed to stage upload: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to store upload")
	}
}
