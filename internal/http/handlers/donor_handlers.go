package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/lifesave-bloodbank/internal/domain"
	httpmw "github.com/diagnosis/lifesave-bloodbank/internal/http/middleware"
	"github.com/diagnosis/lifesave-bloodbank/internal/http/response"
	"github.com/diagnosis/lifesave-bloodbank/internal/utils"
)

// multipartMemory is how much of a registration form is held in memory before
// file parts spill to disk.
const multipartMemory = 8 << 20

// RegisterDonor handles POST /api/donors/register.
func (h *Handlers) RegisterDonor(w http.ResponseWriter, r *http.Request) {
	maxFile := h.cfg.Donor.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, 2*maxFile+(1<<20))

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			h.fail(w, r, &domain.UploadError{Field: "form", Reason: tooLarge(maxFile)})
		case errors.Is(err, http.ErrNotMultipart):
			response.BadRequest(w, "Expected multipart/form-data")
		default:
			response.BadRequest(w, "Malformed form data")
		}
		return
	}
	defer r.MultipartForm.RemoveAll()

	reg, err := h.readRegistration(r.MultipartForm)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	donor, err := h.donors.Register(r.Context(), *reg)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, withMessage("Donor registration submitted successfully", "donorId", donor.ID))
}

func (h *Handlers) readRegistration(form *multipart.Form) (*domain.DonorRegistration, error) {
	value := func(key string) string {
		if vs := form.Value[key]; len(vs) > 0 {
			return vs[0]
		}
		return ""
	}

	reg := &domain.DonorRegistration{
		FullName:   value("fullName"),
		Phone:      value("phone"),
		Whatsapp:   value("whatsapp"),
		Gmail:      value("gmail"),
		BloodGroup: value("bloodGroup"),
		Age:        value("age"),
		Sex:        value("sex"),
	}
	if reg.Gmail == "" {
		reg.Gmail = value("email")
	}

	// A JSON address wins over bracket fields; unparsable JSON falls back to them.
	if raw := strings.TrimSpace(value("address")); raw == "" || json.Unmarshal([]byte(raw), &reg.Address) != nil {
		reg.Address = domain.Address{
			Street:  value("address[street]"),
			City:    value("address[city]"),
			State:   value("address[state]"),
			Pincode: value("address[pincode]"),
			Country: value("address[country]"),
		}
	}

	for field, headers := range form.File {
		kind := domain.AttachmentKind(field)
		if (kind != domain.AttachmentPhoto && kind != domain.AttachmentGovernmentID) || len(headers) != 1 {
			return nil, &domain.UploadError{Field: field, Reason: "Invalid file field"}
		}
		up, err := h.readUpload(kind, headers[0])
		if err != nil {
			return nil, err
		}
		if kind == domain.AttachmentPhoto {
			reg.Photo = up
		} else {
			reg.GovernmentID = up
		}
	}
	return reg, nil
}

func (h *Handlers) readUpload(kind domain.AttachmentKind, fh *multipart.FileHeader) (*domain.Upload, error) {
	maxFile := h.cfg.Donor.MaxUploadBytes
	if fh.Size > maxFile {
		return nil, &domain.UploadError{Field: string(kind), Reason: tooLarge(maxFile)}
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s upload: %w", kind, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxFile+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s upload: %w", kind, err)
	}

	ct := strings.TrimSpace(fh.Header.Get("Content-Type"))
	if ct == "" || strings.EqualFold(ct, "application/octet-stream") {
		ct = mimetype.Detect(data).String()
	}
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		ct = mt
	}

	return &domain.Upload{
		Filename:    utils.SafeFilename(fh.Filename, string(kind)),
		ContentType: ct,
		Size:        int64(len(data)),
		Data:        data,
	}, nil
}

func tooLarge(maxBytes int64) string {
	return fmt.Sprintf("File too large. Maximum size is %dMB.", maxBytes/(1024*1024))
}

// DonorPhoto handles GET /api/donors/photo/{id}.
func (h *Handlers) DonorPhoto(w http.ResponseWriter, r *http.Request) {
	h.serveAttachment(w, r, domain.AttachmentPhoto, "photo")
}

// DonorDocument handles GET /api/donors/document/{id}.
func (h *Handlers) DonorDocument(w http.ResponseWriter, r *http.Request) {
	h.serveAttachment(w, r, domain.AttachmentGovernmentID, "document")
}

func (h *Handlers) serveAttachment(w http.ResponseWriter, r *http.Request, kind domain.AttachmentKind, fallback string) {
	a, err := h.donors.Attachment(r.Context(), httpmw.Principal(r), chi.URLParam(r, "id"), kind)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ct := a.ContentType
	if ct == "" {
		ct = mimetype.Detect(a.Data).String()
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{
		"filename": utils.SafeFilename(a.Filename, fallback),
	}))
	w.Header().Set("Content-Length", strconv.Itoa(len(a.Data)))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(a.Data)
}
