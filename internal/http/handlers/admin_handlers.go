package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/lifesave-bloodbank/internal/domain"
	httpmw "github.com/diagnosis/lifesave-bloodbank/internal/http/middleware"
	"github.com/diagnosis/lifesave-bloodbank/internal/http/response"
	"github.com/diagnosis/lifesave-bloodbank/internal/service"
)

// ListStaff handles GET /api/admin/staff.
func (h *Handlers) ListStaff(w http.ResponseWriter, r *http.Request) {
	staff, err := h.staff.List(r.Context(), httpmw.Principal(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if staff == nil {
		staff = []domain.Account{}
	}
	writeJSON(w, http.StatusOK, staff)
}

// CreateStaff handles POST /api/admin/staff.
func (h *Handlers) CreateStaff(w http.ResponseWriter, r *http.Request) {
	var in domain.StaffCreate
	if err := decodeJSON(r, &in); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	created, err := h.staff.Create(r.Context(), httpmw.Principal(r), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, withMessage("Staff member added successfully", "staff", created))
}

// UpdateStaff handles PUT /api/admin/staff/{id}.
func (h *Handlers) UpdateStaff(w http.ResponseWriter, r *http.Request) {
	var in domain.StaffUpdate
	if err := decodeJSON(r, &in); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	acc, err := h.staff.Update(r.Context(), httpmw.Principal(r), chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

// DeleteStaff handles DELETE /api/admin/staff/{id}.
func (h *Handlers) DeleteStaff(w http.ResponseWriter, r *http.Request) {
	if err := h.staff.Delete(r.Context(), httpmw.Principal(r), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, withMessage("Staff member deleted successfully"))
}

// AllDonors handles GET /api/admin/donors.
func (h *Handlers) AllDonors(w http.ResponseWriter, r *http.Request) {
	h.writeDonors(w, r, h.donors.ListAll)
}

// RejectedDonors handles GET /api/admin/rejected-donors.
func (h *Handlers) RejectedDonors(w http.ResponseWriter, r *http.Request) {
	h.writeDonors(w, r, h.donors.ListRejected)
}

// DeleteRejectedDonor handles DELETE /api/admin/rejected-donors/{id}.
func (h *Handlers) DeleteRejectedDonor(w http.ResponseWriter, r *http.Request) {
	if err := h.donors.DeleteRejected(r.Context(), httpmw.Principal(r), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, withMessage("Rejected donor deleted successfully"))
}

// AdminStats handles GET /api/admin/stats.
func (h *Handlers) AdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.donors.AdminStats(r.Context(), httpmw.Principal(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Export handles GET /api/admin/export/{type} for "donors" and "staff".
func (h *Handlers) Export(w http.ResponseWriter, r *http.Request) {
	kind := service.ExportKind(chi.URLParam(r, "type"))
	if kind != service.ExportDonors && kind != service.ExportStaff {
		h.fail(w, r, domain.ErrInvalidExportType)
		return
	}
	h.writeExport(w, r, kind)
}
