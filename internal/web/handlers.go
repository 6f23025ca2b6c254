package web

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/JonMunkholm/csvgate/internal/core"
	"github.com/JonMunkholm/csvgate/internal/logging"
	"github.com/JonMunkholm/csvgate/internal/schema"
	"github.com/JonMunkholm/csvgate/internal/web/templates"
)

var errNoFile = errors.New("no file provided")

// ValidationResponse is the JSON body returned by POST /api/validate.
type ValidationResponse struct {
	OK       bool   `json:"ok"`
	RunID    string `json:"run_id"`
	Source   string `json:"source"`
	Mode     string `json:"mode"`
	Message  string `json:"message"`
	Kind     string `json:"kind,omitempty"`
	Code     string `json:"code,omitempty"`
	Row      int    `json:"row,omitempty"`
	Column   string `json:"column,omitempty"`
	Position int    `json:"position,omitempty"`
	Rows     int    `json:"rows"`
}

func newValidationResponse(out core.Outcome) ValidationResponse {
	resp := ValidationResponse{
		OK:      out.OK,
		RunID:   out.RunID,
		Source:  out.Source,
		Mode:    string(out.Mode),
		Message: out.Message(),
		Rows:    out.Rows,
	}
	if out.Err != nil {
		resp.Kind = out.Kind()
		resp.Code = core.MapError(out.Err).Code
		resp.Row = out.Err.Row
		resp.Column = out.Err.Column
		resp.Position = out.Err.Position
	}
	return resp
}

// SchemaResponse is the JSON body returned by GET /api/schema.
type SchemaResponse struct {
	Mode           string                 `json:"mode"`
	Columns        []string               `json:"columns"`
	NumericColumns []schema.NumericColumn `json:"numeric_columns"`
	MaxFileSize    int64                  `json:"max_file_size"`
}

// handleValidate validates the multipart "file" field of the request.
// The part is streamed into the processor without touching disk.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := core.ContextWithClient(r.Context(), clientIP(r), r.UserAgent())

	if !s.limiter.TryAcquire() {
		logging.FromContext(ctx).Debug("waiting for validation slot",
			"active", s.limiter.ActiveCount(),
		)
		if err := s.limiter.Acquire(ctx); err != nil {
			if errors.Is(err, core.ErrTooManyValidations) && s.metrics != nil {
				s.metrics.LimiterRejected()
			}
			respondError(w, r, err, http.StatusServiceUnavailable)
			return
		}
	}
	defer s.limiter.Release()

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Validation.MaxFileSize+multipartOverhead)

	part, err := filePart(r)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	defer part.Close()

	out, err := s.processor.ValidateReader(ctx, part.FileName(), part)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, &core.ProcessingError{
				Kind:   core.KindInvalidFormat,
				Detail: "request body too large",
				Err:    core.ErrFileTooLarge,
			}, http.StatusRequestEntityTooLarge)
			return
		}
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	if !out.OK {
		status = http.StatusUnprocessableEntity
	}
	resp := newValidationResponse(out)

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		view := templates.ResultView{
			OK:       resp.OK,
			Source:   resp.Source,
			Message:  resp.Message,
			Code:     resp.Code,
			Row:      resp.Row,
			Column:   resp.Column,
			Position: resp.Position,
		}
		if err := templates.ValidationResult(view).Render(ctx, w); err != nil {
			logging.FromContext(ctx).Error("render validation result", "error", err)
		}
		return
	}

	writeJSON(w, status, resp)
}

// filePart returns the first multipart part named "file".
func filePart(r *http.Request) (*multipart.Part, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, errNoFile
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil, errNoFile
		}
		if err != nil {
			return nil, err
		}
		if part.FormName() == "file" {
			return part, nil
		}
		part.Close()
	}
}

// handleSchema describes the expected CSV layout.
func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	specs := s.processor.Specs()
	writeJSON(w, http.StatusOK, SchemaResponse{
		Mode:           string(s.processor.Mode()),
		Columns:        schema.Headers(specs),
		NumericColumns: schema.NumericColumns(specs),
		MaxFileSize:    s.cfg.Validation.MaxFileSize,
	})
}

// handleHealth reports liveness and limiter occupancy.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"limiter": s.limiter.Status(),
	})
}
