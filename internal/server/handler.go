package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"resumeroast/internal/ai"
	"resumeroast/internal/diff"
	appErrors "resumeroast/internal/errors"
	"resumeroast/internal/types"
	"resumeroast/internal/utils"
)

const tracerName = "resumeroast.api"

// analyzeHandler validates the roast request, then streams status, partial,
// complete and error events as Server-Sent Events.
func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.Observability.Tracer(tracerName).Start(r.Context(), "api.analyze")
	defer span.End()
	logger := s.Logger.With("request_id", requestID(ctx))

	var req types.AnalysisRequest
	if err := parseJSONRequest(r, &req); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", "validation"))
		writeErrorResponse(w, "Invalid request", err.Error(), http.StatusBadRequest)
		return
	}
	if err := ai.ValidateRequest(&req); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", "validation"))
		writeAppError(w, err, http.StatusBadRequest)
		return
	}

	span.SetAttributes(
		attribute.Int("request.resume_length", len(req.ResumeText)),
		attribute.String("request.target_role", req.TargetRole),
		attribute.Bool("request.has_company", req.Company != ""),
	)

	events, err := newSSEWriter(w)
	if err != nil {
		span.RecordError(err)
		logger.LogError(err, "Failed to start event stream")
		return
	}

	stopKeepAlive := events.startKeepAlive(sseKeepAlive)
	defer stopKeepAlive()

	_ = events.Send("status", StatusEvent{Message: "Starting analysis..."})

	partials := 0
	result, err := s.Service.Roast(ctx, &req, func(p *types.PartialAnalysis) {
		partials++
		if err := events.Send("partial", p); err != nil {
			logger.Debug("Dropped partial event", "error", err)
		}
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "roast failed")
		_ = events.Send("error", errorEvent(err))
		return
	}

	span.SetAttributes(
		attribute.String("roast.id", result.ID),
		attribute.String("roast.method", string(result.Method)),
		attribute.Int("roast.partials", partials),
		attribute.Int("roast.warnings", len(result.Warnings)),
	)

	_ = events.Send("status", StatusEvent{Message: "Analysis complete"})
	if err := events.Send("complete", result); err != nil {
		logger.LogError(err, "Failed to deliver roast result", "roast_id", result.ID)
	}
}

// errorEvent converts a roast failure into the payload clients receive.
// Internal causes stay in the logs.
func errorEvent(err error) ErrorEvent {
	if appErr, ok := appErrors.AsAppError(err); ok {
		return ErrorEvent{Message: appErr.Message, Code: appErr.Code}
	}
	if errors.Is(err, context.Canceled) {
		return ErrorEvent{Message: "Analysis cancelled"}
	}
	return ErrorEvent{Message: "Analysis failed"}
}

// parseHandler extracts plain text from an uploaded resume (multipart field "file").
func (s *Server) parseHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.Observability.Tracer(tracerName).Start(r.Context(), "api.parse")
	defer span.End()
	metrics := s.Observability.GetMetrics()

	maxSize := s.MaxFileSize
	if maxSize <= 0 {
		maxSize = utils.DefaultMaxResumeSize
	}
	tooLarge := fmt.Sprintf("File too large. Maximum size is %s.", utils.FormatFileSize(maxSize))

	file, header, err := r.FormFile("file")
	if err != nil {
		span.RecordError(err)
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeErrorResponse(w, tooLarge, "", http.StatusBadRequest)
			return
		}
		writeErrorResponse(w, "No file provided", "", http.StatusBadRequest)
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			s.Logger.Warn("Failed to close uploaded file", "error", err)
		}
	}()

	span.SetAttributes(
		attribute.String("file.name", header.Filename),
		attribute.Int64("file.size", header.Size),
	)

	if header.Size > maxSize {
		metrics.RecordResumeParsed(ctx, utils.GetFileExtension(header.Filename), header.Size, false)
		writeErrorResponse(w, tooLarge, "", http.StatusBadRequest)
		return
	}

	data := make([]byte, header.Size)
	if _, err := io.ReadFull(file, data); err != nil {
		span.RecordError(err)
		writeErrorResponse(w, "Failed to read uploaded file", "", http.StatusBadRequest)
		return
	}

	text, err := utils.ExtractResumeText(header.Filename, data)
	metrics.RecordResumeParsed(ctx, utils.GetFileExtension(header.Filename), header.Size, err == nil)
	if err != nil {
		span.RecordError(err)
		s.Logger.LogError(err, "Resume extraction failed",
			"filename", header.Filename,
			"request_id", requestID(ctx))
		writeAppError(w, err, http.StatusUnprocessableEntity)
		return
	}

	writeJSON(w, http.StatusOK, types.ParseResponse{Success: true, Text: text})
}

// diffHandler returns the word diff of two texts.
func (s *Server) diffHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.Observability.Tracer(tracerName).Start(r.Context(), "api.diff")
	defer span.End()

	var req types.DiffRequest
	if err := parseJSONRequest(r, &req); err != nil {
		span.RecordError(err)
		writeErrorResponse(w, "Invalid request", err.Error(), http.StatusBadRequest)
		return
	}

	result := diff.NewResult("", req.Original, req.Improved)
	s.Observability.GetMetrics().RecordDiff(ctx, "api", len(result.Segments))
	span.SetAttributes(
		attribute.Int("diff.segments", len(result.Segments)),
		attribute.Int("diff.added", result.Stats.Added),
		attribute.Int("diff.removed", result.Stats.Removed),
	)

	writeJSON(w, http.StatusOK, result)
}
