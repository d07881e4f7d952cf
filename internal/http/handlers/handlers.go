package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/diagnosis/lifesave-bloodbank/internal/http/response"
	"github.com/diagnosis/lifesave-bloodbank/internal/service"
	"github.com/diagnosis/lifesave-bloodbank/pkg/config"
	"github.com/diagnosis/lifesave-bloodbank/pkg/logger"
)

type Handlers struct {
	auth   service.AuthService
	donors service.DonorService
	staff  service.StaffService
	export service.ExportService
	cfg    *config.Config
}

func New(
	auth service.AuthService,
	donors service.DonorService,
	staff service.StaffService,
	export service.ExportService,
	cfg *config.Config,
) *Handlers {
	return &Handlers{auth: auth, donors: donors, staff: staff, export: export, cfg: cfg}
}

func (h *Handlers) dev() bool {
	return !h.cfg.IsProduction()
}

// fail maps err onto the JSON error envelope.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	response.Error(w, r, err, h.dev())
}

// NotFound answers unknown routes and methods the way the API always has.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	response.NotFound(w, "Route "+r.URL.Path+" not found")
}

// decodeJSON reads a single JSON object. An empty body decodes to the zero value.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// message is the {"message": ...} envelope the dashboards expect on writes.
type message map[string]any

func withMessage(msg string, kv ...any) message {
	m := message{"message": msg}
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			m[k] = kv[i+1]
		}
	}
	return m
}
