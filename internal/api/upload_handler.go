package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/ignite/connect-metrics/internal/datanorm"
	"github.com/ignite/connect-metrics/internal/ingest"
	"github.com/ignite/connect-metrics/internal/pkg/httputil"
)

type uploadResponse struct {
	Message string `json:"message"`
	ingest.UploadResult
}

type missingColumnsDetails struct {
	Missing   []string `json:"missing"`
	Available []string `json:"available"`
}

// HandleUpload validates a CSV upload and stores it for its source.
// Form fields: file (required), file_type (id or label; inferred when
// empty).
//
//	POST /api/upload
func (h *Handlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.Error(w, http.StatusRequestEntityTooLarge, "Uploaded file is too large.")
			return
		}
		httputil.BadRequest(w, "Missing file or file type.")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.BadRequest(w, "Missing file or file type.")
		return
	}
	defer file.Close()

	body, err := io.ReadAll(file)
	if err != nil {
		httputil.BadRequest(w, "Could not read uploaded file.")
		return
	}

	res, err := h.uploads.Upload(r.Context(), ingest.UploadRequest{
		FileType: strings.TrimSpace(r.FormValue("file_type")),
		Filename: header.Filename,
		Body:     body,
	})
	if err != nil {
		writeUploadError(w, err)
		return
	}
	httputil.OK(w, uploadResponse{Message: "File uploaded and validated successfully.", UploadResult: res})
}

func writeUploadError(w http.ResponseWriter, err error) {
	var missing *datanorm.MissingColumnsError
	var parseErr *datanorm.ParseError
	switch {
	case errors.As(err, &missing):
		httputil.ErrorWithDetails(w, http.StatusBadRequest, missing.Error(),
			missingColumnsDetails{Missing: missing.Missing, Available: missing.Available})
	case errors.Is(err, datanorm.ErrEmptyFile):
		httputil.BadRequest(w, "Uploaded file is empty. Please upload a file with data.")
	case errors.As(err, &parseErr):
		httputil.BadRequest(w, "Failed to parse CSV. Please check your file format. "+parseErr.Error())
	case errors.Is(err, datanorm.ErrUnknownFileType), errors.Is(err, ingest.ErrUndetectedFileType):
		httputil.BadRequest(w, err.Error())
	default:
		httputil.InternalError(w, err)
	}
}
