package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jobhunterui/cvgen/core/logger"
	"github.com/jobhunterui/cvgen/core/response"
	"github.com/jobhunterui/cvgen/middleware"
	"github.com/jobhunterui/cvgen/pkg/cvgen"
)

// CVRequest is the payload for a generation request.
type CVRequest struct {
	JobDescription string `json:"job_description"`
	Resume         string `json:"resume"`
}

// QuotaInfo reports the caller's remaining allowance after this request.
type QuotaInfo struct {
	Remaining int `json:"remaining"`
	Total     int `json:"total"`
}

// CVResponse is the successful generation result.
type CVResponse struct {
	CVData map[string]any `json:"cv_data"`
	Quota  QuotaInfo      `json:"quota"`
}

// maxRequestBody bounds the decoded request payload (1 MiB).
const maxRequestBody = 1 << 20

// GenerateCV returns the handler for POST /api/v1/cv/generate. It expects
// the admission middleware to have run already; the quota block in the
// response is filled from the admission result stored in the context.
func GenerateCV(gen cvgen.Generator, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CVRequest
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, response.ErrBadRequest.WithMessage("Invalid JSON payload."))
			return
		}

		req.JobDescription = strings.TrimSpace(req.JobDescription)
		req.Resume = strings.TrimSpace(req.Resume)
		if req.JobDescription == "" || req.Resume == "" {
			response.Error(w, response.ErrBadRequest.
				WithMessage("Both job_description and resume are required."))
			return
		}

		cvData, err := gen.GenerateCV(r.Context(), req.JobDescription, req.Resume)
		if err != nil {
			log.ErrorContext(r.Context(), "cv generation failed",
				logger.Component("api"),
				logger.Error(err))
			response.Error(w, response.ErrInternalServerError.
				WithMessage("Failed to generate CV. Please try again."))
			return
		}

		resp := CVResponse{CVData: cvData}
		if result, ok := middleware.GetQuotaResult(r.Context()); ok {
			resp.Quota = QuotaInfo{Remaining: result.Remaining, Total: result.Limit}
		}

		response.JSON(w, http.StatusOK, resp)
	}
}
