package handlers

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/lifesave-bloodbank/internal/repo/memory"
	"github.com/diagnosis/lifesave-bloodbank/internal/repo/redisstore"
	"github.com/diagnosis/lifesave-bloodbank/internal/service"
	"github.com/diagnosis/lifesave-bloodbank/pkg/config"
	"github.com/diagnosis/lifesave-bloodbank/pkg/events"
	"github.com/diagnosis/lifesave-bloodbank/pkg/metrics"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n%%EOF\n")

type testServer struct {
	t      *testing.T
	server *httptest.Server
	bus    *events.LocalEventBus
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Env: "test", AllowedOrigins: []string{"http://localhost:5173"}},
		Auth: config.AuthConfig{
			JWTSecret:            "handler-test-secret",
			TokenTTL:             time.Hour,
			DefaultStaffPassword: "staff123",
			AllowDevSeed:         true,
			LoginRateLimit:       100,
		},
		Donor: config.DonorConfig{
			MaxUploadBytes:     1 << 20,
			BloodUnitsPerDonor: 2,
			RegisterRateLimit:  100,
			RateLimitWindow:    time.Minute,
		},
		Export: config.ExportConfig{DateLayout: "1/2/2006"},
	}
}

func newTestServer(t *testing.T, cfg *config.Config, deps RouterDeps) *testServer {
	t.Helper()

	accounts := memory.NewAccountsRepo()
	donors := memory.NewDonorsRepo(accounts)
	bus := events.NewLocalEventBus()
	t.Cleanup(func() { _ = bus.Close() })
	m := metrics.New()

	h := New(
		service.NewAuthService(accounts, cfg.Auth),
		service.NewDonorService(donors, accounts, bus, m, cfg.Donor),
		service.NewStaffService(accounts, bus, cfg.Auth),
		service.NewExportService(donors, accounts, cfg.Export),
		cfg,
	)
	deps.Metrics = m

	srv := httptest.NewServer(h.Router(deps))
	t.Cleanup(srv.Close)
	return &testServer{t: t, server: srv, bus: bus}
}

func (s *testServer) do(method, path, token string, body any) *http.Response {
	s.t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, s.server.URL+path, rdr)
	require.NoError(s.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(s.t, err)
	s.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (s *testServer) seed() {
	s.t.Helper()
	resp := s.do(http.MethodPost, "/api/auth/create-admin", "", nil)
	require.Equal(s.t, http.StatusOK, resp.StatusCode)
}

func (s *testServer) login(email, password string) string {
	s.t.Helper()
	resp := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(s.t, http.StatusOK, resp.StatusCode)
	var out struct {
		Token string `json:"token"`
		User  struct {
			Role string `json:"role"`
		} `json:"user"`
	}
	decode(s.t, resp, &out)
	require.NotEmpty(s.t, out.Token)
	return out.Token
}

func (s *testServer) adminToken() string { return s.login(service.SeedAdminEmail, service.SeedAdminPassword) }
func (s *testServer) staffToken() string { return s.login(service.SeedStaffEmail, "staff123") }

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

type part struct {
	field, filename, contentType string
	data                         []byte
}

func donorForm(t *testing.T, fields map[string]string, files ...part) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, f.field, f.filename))
		if f.contentType != "" {
			hdr.Set("Content-Type", f.contentType)
		}
		w, err := mw.CreatePart(hdr)
		require.NoError(t, err)
		_, err = w.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func ashaFields() map[string]string {
	return map[string]string{
		"fullName":         "Asha Rao",
		"phone":            "9990001111",
		"gmail":            "asha@example.org",
		"bloodGroup":       "O+",
		"age":              "24",
		"sex":              "female",
		"address[street]":  "12 MG Road",
		"address[city]":    "Bengaluru",
		"address[state]":   "Karnataka",
		"address[pincode]": "560001",
		"address[country]": "India",
	}
}

func ashaFiles() []part {
	return []part{
		{field: "photo", filename: "asha.png", contentType: "image/png", data: pngBytes},
		{field: "governmentId", filename: "aadhaar.pdf", contentType: "application/pdf", data: pdfBytes},
	}
}

func (s *testServer) register(fields map[string]string, files []part, header http.Header) *http.Response {
	s.t.Helper()
	body, ct := donorForm(s.t, fields, files...)
	req, err := http.NewRequest(http.MethodPost, s.server.URL+"/api/donors/register", body)
	require.NoError(s.t, err)
	req.Header.Set("Content-Type", ct)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(s.t, err)
	s.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (s *testServer) registerAsha() string {
	s.t.Helper()
	resp := s.register(ashaFields(), ashaFiles(), nil)
	require.Equal(s.t, http.StatusCreated, resp.StatusCode)
	var out struct {
		Message string `json:"message"`
		DonorID string `json:"donorId"`
	}
	decode(s.t, resp, &out)
	assert.Equal(s.t, "Donor registration submitted successfully", out.Message)
	require.NotEmpty(s.t, out.DonorID)
	return out.DonorID
}

type donorJSON struct {
	ID         string     `json:"id"`
	FullName   string     `json:"fullName"`
	Status     string     `json:"status"`
	ApprovedAt *time.Time `json:"approvedAt"`
	ReviewedAt *time.Time `json:"reviewedAt"`
	PhotoURL   string     `json:"photoUrl"`
}

func (s *testServer) donors(path, token string) []donorJSON {
	s.t.Helper()
	resp := s.do(http.MethodGet, path, token, nil)
	require.Equal(s.t, http.StatusOK, resp.StatusCode)
	var out []donorJSON
	decode(s.t, resp, &out)
	return out
}

func findDonor(list []donorJSON, id string) *donorJSON {
	for i := range list {
		if list[i].ID == id {
			return &list[i]
		}
	}
	return nil
}

func TestDonorLifecycle(t *testing.T) {
	s := newTestServer(t, testConfig(), RouterDeps{})
	s.seed()
	staff := s.staffToken()

	id := s.registerAsha()

	pending := findDonor(s.donors("/api/staff/pending-donors", staff), id)
	require.NotNil(t, pending)
	assert.Equal(t, "pending", pending.Status)
	assert.Equal(t, "/api/donors/photo/"+id, pending.PhotoURL)

	resp := s.do(http.MethodPost, "/api/staff/approve-donor/"+id, staff, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var approved struct {
		Message string    `json:"message"`
		Donor   donorJSON `json:"donor"`
	}
	decode(t, resp, &approved)
	assert.Equal(t, "Donor approved successfully", approved.Message)
	assert.Equal(t, "approved", approved.Donor.Status)

	got := findDonor(s.donors("/api/staff/approved-donors", staff), id)
	require.NotNil(t, got)
	assert.Equal(t, "approved", got.Status)
	require.NotNil(t, got.ApprovedAt)
	assert.Nil(t, findDonor(s.donors("/api/staff/pending-donors", staff), id))

	// A second approval keeps the first review.
	resp = s.do(http.MethodPost, "/api/staff/approve-donor/"+id, staff, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	again := findDonor(s.donors("/api/staff/approved-donors", staff), id)
	require.NotNil(t, again)
	assert.Equal(t, got.ReviewedAt, again.ReviewedAt)
}

func TestRejectAndDelete(t *testing.T) {
	s := newTestServer(t, testConfig(), RouterDeps{})
	s.seed()
	staff, admin := s.staffToken(), s.adminToken()
	id := s.registerAsha()

	resp := s.do(http.MethodDelete, "/api/admin/rejected-donors/"+id, admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(http.MethodPost, "/api/staff/reject-donor/"+id, staff, map[string]string{"reason": "  Low haemoglobin "})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rejected struct {
		Message string `json:"message"`
		Donor   struct {
			Status          string `json:"status"`
			RejectionReason string `json:"rejectionReason"`
		} `json:"donor"`
	}
	decode(t, resp, &rejected)
	assert.Equal(t, "Donor rejected", rejected.Message)
	assert.Equal(t, "rejected", rejected.Donor.Status)
	assert.Equal(t, "Low haemoglobin", rejected.Donor.RejectionReason)

	require.NotNil(t, findDonor(s.donors("/api/admin/rejected-donors", admin), id))

	resp = s.do(http.MethodDelete, "/api/admin/rejected-donors/"+id, admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var msg map[string]string
	decode(t, resp, &msg)
	assert.Equal(t, "Rejected donor deleted successfully", msg["message"])
	assert.Nil(t, findDonor(s.donors("/api/admin/donors", admin), id))
}

func TestLogin(t *testing.T) {
	s := newTestServer(t, testConfig(), RouterDeps{})
	s.seed()

	resp := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ADMIN@lifesave.org", "password": "wrong"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body map[string]any
	decode(t, resp, &body)
	assert.Equal(t, "Invalid credentials", body["message"])
	assert.NotContains(t, body, "token")

	token := s.login("ADMIN@lifesave.org", service.SeedAdminPassword)

	resp = s.do(http.MethodGet, "/api/auth/verify", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var verified struct {
		User struct {
			Email        string   `json:"email"`
			Role         string   `json:"role"`
			Capabilities []string `json:"capabilities"`
		} `json:"user"`
	}
	decode(t, resp, &verified)
	assert.Equal(t, service.SeedAdminEmail, verified.User.Email)
	assert.Equal(t, "admin", verified.User.Role)
	assert.Contains(t, verified.User.Capabilities, "export")

	resp = s.do(http.MethodGet, "/api/auth/verify", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = s.do(http.MethodPost, "/api/auth/create-admin", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	decode(t, resp, &body)
	assert.Equal(t, "Admin already exists", body["message"])
}

func TestCreateAdminNotMountedWithoutDevSeed(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.AllowDevSeed = false
	s := newTestServer(t, cfg, RouterDeps{})

	resp := s.do(http.MethodPost, "/api/auth/create-admin", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t, testConfig(), RouterDeps{})

	resp := s.do(http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "Route /api/nope not found", body["message"])

	resp = s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStaffCannotUseAdminRoutes(t *testing.T) {
	s := newTestServer(t, testConfig(), RouterDeps{})
	s.seed()
	staff := s.staffToken()

	for _, path := range []string{"/api/admin/staff", "/api/admin/donors", "/api/admin/stats", "/api/admin/export/donors"} {
		resp := s.do(http.MethodGet, path, staff, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, path)
	}

	resp := s.do(http.MethodGet, "/api/staff/pending-donors", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestStaffAdministration(t *testing.T) {
	s := newTestServer(t, testConfig(), RouterDeps{})
	s.seed()
	admin := s.adminToken()

	resp := s.do(http.MethodPost, "/api/admin/staff", admin, map[string]any{
		"name": "Ravi Kumar", "email": "ravi@lifesave.org", "phone": "9876500000", "sex": "Male",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		Message string `json:"message"`
		Staff   struct {
			ID              string `json:"id"`
			Email           string `json:"email"`
			DefaultPassword string `json:"defaultPassword"`
		} `json:"staff"`
	}
	decode(t, resp, &created)
	assert.Equal(t, "Staff member added successfully", created.Message)
	assert.Equal(t, "staff123", created.Staff.DefaultPassword)

	s.login("ravi@lifesave.org", "staff123")

	resp = s.do(http.MethodPut, "/api/admin/staff/"+created.Staff.ID, admin, map[string]any{"salary": "32000"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated map[string]any
	decode(t, resp, &updated)
	assert.EqualValues(t, 32000, updated["salary"])

	resp = s.do(http.MethodPut, "/api/admin/staff/"+created.Staff.ID, admin, map[string]any{"age": "abc"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(http.MethodPut, "/api/admin/staff/"+created.Staff.ID, admin, map[string]any{"salary": "NaN"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = s.do(http.MethodPost, "/api/admin/staff", admin, map[string]any{
		"name": "Bad Pay", "email": "badpay@lifesave.org", "phone": "9876500001", "salary": "Infinity",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(http.MethodGet, "/api/admin/staff", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var staff []map[string]any
	decode(t, resp, &staff)
	assert.Len(t, staff, 2)

	resp = s.do(http.MethodDelete, "/api/admin/staff/"+created.Staff.ID, admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(http.MethodDelete, "/api/admin/staff/"+created.Staff.ID, admin, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAttachments(t *testing.T) {
	t.Run("gated", func(t *testing.T) {
		s := newTestServer(t, testConfig(), RouterDeps{})
		s.seed()
		id := s.registerAsha()

		resp := s.do(http.MethodGet, "/api/donors/photo/"+id, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		resp = s.do(http.MethodGet, "/api/donors/document/"+id, s.staffToken(), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
		assert.Contains(t, resp.Header.Get("Content-Disposition"), "inline")
		assert.Contains(t, resp.Header.Get("Content-Disposition"), "aadhaar.pdf")

		resp = s.do(http.MethodGet, "/api/donors/photo/missing", s.staffToken(), nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("public", func(t *testing.T) {
		cfg := testConfig()
		cfg.Donor.PublicFiles = true
		s := newTestServer(t, cfg, RouterDeps{})
		id := s.registerAsha()

		resp := s.do(http.MethodGet, "/api/donors/photo/"+id, "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	})
}

func TestRegisterRejectsBadInput(t *testing.T) {
	cfg := testConfig()
	s := newTestServer(t, cfg, RouterDeps{})

	t.Run("missing fields", func(t *testing.T) {
		fields := ashaFields()
		delete(fields, "bloodGroup")
		resp := s.register(fields, ashaFiles(), nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("bad pincode", func(t *testing.T) {
		fields := ashaFields()
		fields["address[pincode]"] = "5600"
		resp := s.register(fields, ashaFiles(), nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("photo not an image", func(t *testing.T) {
		files := ashaFiles()
		files[0] = part{field: "photo", filename: "p.pdf", contentType: "application/pdf", data: pdfBytes}
		resp := s.register(ashaFields(), files, nil)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body map[string]any
		decode(t, resp, &body)
		assert.Equal(t, "Profile photo must be an image", body["message"])
	})

	t.Run("unknown file field", func(t *testing.T) {
		files := append(ashaFiles(), part{field: "resume", filename: "cv.pdf", contentType: "application/pdf", data: pdfBytes})
		resp := s.register(ashaFields(), files, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("file too large", func(t *testing.T) {
		files := ashaFiles()
		files[0].data = append(append([]byte{}, pngBytes...), make([]byte, cfg.Donor.MaxUploadBytes)...)
		resp := s.register(ashaFields(), files, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("not multipart", func(t *testing.T) {
		resp := s.do(http.MethodPost, "/api/donors/register", "", ashaFields())
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestRegisterSniffsOctetStream(t *testing.T) {
	cfg := testConfig()
	cfg.Donor.PublicFiles = true
	s := newTestServer(t, cfg, RouterDeps{})

	files := ashaFiles()
	files[1].contentType = "application/octet-stream"
	resp := s.register(ashaFields(), files, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var out struct {
		DonorID string `json:"donorId"`
	}
	decode(t, resp, &out)

	resp = s.do(http.MethodGet, "/api/donors/document/"+out.DonorID, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
}

func TestExports(t *testing.T) {
	s := newTestServer(t, testConfig(), RouterDeps{})
	s.seed()
	staff, admin := s.staffToken(), s.adminToken()
	id := s.registerAsha()
	s.do(http.MethodPost, "/api/staff/approve-donor/"+id, staff, nil)

	resp := s.do(http.MethodGet, "/api/staff/export-donors", staff, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="donors.csv"`, resp.Header.Get("Content-Disposition"))
	rows, err := csv.NewReader(resp.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Full Name", rows[0][0])
	assert.Equal(t, "Asha Rao", rows[1][0])

	resp = s.do(http.MethodGet, "/api/admin/export/staff", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="staff.csv"`, resp.Header.Get("Content-Disposition"))
	rows, err = csv.NewReader(resp.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Staff Member", rows[1][0])

	resp = s.do(http.MethodGet, "/api/admin/export/invoices", admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = s.do(http.MethodGet, "/api/admin/export/approved-donors", admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStats(t *testing.T) {
	s := newTestServer(t, testConfig(), RouterDeps{})
	s.seed()
	staff, admin := s.staffToken(), s.adminToken()
	id := s.registerAsha()
	s.registerAsha()
	s.do(http.MethodPost, "/api/staff/approve-donor/"+id, staff, nil)

	resp := s.do(http.MethodGet, "/api/staff/stats", staff, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var st map[string]int
	decode(t, resp, &st)
	assert.Equal(t, 1, st["pendingReviews"])
	assert.Equal(t, 1, st["approvedToday"])
	assert.Equal(t, 1, st["totalDonors"])

	resp = s.do(http.MethodGet, "/api/admin/stats", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	decode(t, resp, &body)
	assert.NotEmpty(t, body)
}

func TestRegisterIdempotentReplay(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	s := newTestServer(t, testConfig(), RouterDeps{
		RateLimits:  redisstore.NewRateLimitStore(client),
		Idempotency: redisstore.NewIdempotencyStore(client),
	})
	s.seed()

	hdr := http.Header{"Idempotency-Key": []string{"form-7"}}
	first := s.register(ashaFields(), ashaFiles(), hdr)
	require.Equal(t, http.StatusCreated, first.StatusCode)
	second := s.register(ashaFields(), ashaFiles(), hdr)
	require.Equal(t, http.StatusCreated, second.StatusCode)
	assert.Equal(t, "true", second.Header.Get("Idempotent-Replayed"))

	var a, b map[string]string
	decode(t, first, &a)
	decode(t, second, &b)
	assert.Equal(t, a["donorId"], b["donorId"])
	assert.Len(t, s.donors("/api/staff/pending-donors", s.staffToken()), 1)
}

func TestLoginRateLimited(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := testConfig()
	cfg.Auth.LoginRateLimit = 2
	s := newTestServer(t, cfg, RouterDeps{RateLimits: redisstore.NewRateLimitStore(client)})

	creds := map[string]string{"email": "nobody@lifesave.org", "password": "x"}
	for i := 0; i < 2; i++ {
		resp := s.do(http.MethodPost, "/api/auth/login", "", creds)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	}
	resp := s.do(http.MethodPost, "/api/auth/login", "", creds)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get("Retry-After"))
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, testConfig(), RouterDeps{})
	s.do(http.MethodGet, "/api/nope", "", nil)

	resp := s.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "http_requests_total")
}
