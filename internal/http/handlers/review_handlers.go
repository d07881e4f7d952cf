package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/lifesave-bloodbank/internal/domain"
	httpmw "github.com/diagnosis/lifesave-bloodbank/internal/http/middleware"
	"github.com/diagnosis/lifesave-bloodbank/internal/http/response"
	"github.com/diagnosis/lifesave-bloodbank/internal/service"
	"github.com/diagnosis/lifesave-bloodbank/pkg/logger"
)

type donorLister func(ctx context.Context, p *domain.Principal) ([]domain.Donor, error)

func (h *Handlers) writeDonors(w http.ResponseWriter, r *http.Request, list donorLister) {
	donors, err := list(r.Context(), httpmw.Principal(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if donors == nil {
		donors = []domain.Donor{}
	}
	writeJSON(w, http.StatusOK, donors)
}

// PendingDonors handles GET /api/staff/pending-donors.
func (h *Handlers) PendingDonors(w http.ResponseWriter, r *http.Request) {
	h.writeDonors(w, r, h.donors.ListPending)
}

// ApprovedDonors handles GET /api/staff/approved-donors.
func (h *Handlers) ApprovedDonors(w http.ResponseWriter, r *http.Request) {
	h.writeDonors(w, r, h.donors.ListApproved)
}

// ApproveDonor handles POST /api/staff/approve-donor/{id}.
func (h *Handlers) ApproveDonor(w http.ResponseWriter, r *http.Request) {
	donor, err := h.donors.Approve(r.Context(), httpmw.Principal(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, withMessage("Donor approved successfully", "donor", donor))
}

// RejectDonor handles POST /api/staff/reject-donor/{id}. The reason is optional.
func (h *Handlers) RejectDonor(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Reason string `json:"reason"`
	}
	if err := decodeJSON(r, &in); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	donor, err := h.donors.Reject(r.Context(), httpmw.Principal(r), chi.URLParam(r, "id"), in.Reason)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, withMessage("Donor rejected", "donor", donor))
}

// StaffStats handles GET /api/staff/stats.
func (h *Handlers) StaffStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.donors.StaffStats(r.Context(), httpmw.Principal(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ExportApprovedDonors handles GET /api/staff/export-donors.
func (h *Handlers) ExportApprovedDonors(w http.ResponseWriter, r *http.Request) {
	h.writeExport(w, r, service.ExportApprovedDonors)
}

func (h *Handlers) writeExport(w http.ResponseWriter, r *http.Request, kind service.ExportKind) {
	out, err := h.export.Prepare(r.Context(), httpmw.Principal(r), kind)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+out.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	if err := out.WriteCSV(w); err != nil {
		// Headers are gone; all that is left is to log.
		logger.ErrorContext(r.Context(), "Failed to stream export", "kind", kind, "error", err)
	}
}
