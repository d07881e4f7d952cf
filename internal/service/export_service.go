package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/diagnosis/lifesave-bloodbank/internal/domain"
	"github.com/diagnosis/lifesave-bloodbank/internal/repo"
	"github.com/diagnosis/lifesave-bloodbank/pkg/config"
	"github.com/diagnosis/lifesave-bloodbank/pkg/logger"
)

type ExportKind string

const (
	ExportDonors         ExportKind = "donors"
	ExportStaff          ExportKind = "staff"
	ExportApprovedDonors ExportKind = "approved-donors"
)

// Export is a rendered snapshot ready to stream.
type Export struct {
	Filename string
	Header   []string
	Rows     [][]string
}

func (e *Export) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(e.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(e.Rows); err != nil {
		return err
	}
	return cw.Error()
}

type ExportService interface {
	Prepare(ctx context.Context, p *domain.Principal, kind ExportKind) (*Export, error)
}

type exportService struct {
	donors   repo.DonorsRepo
	accounts repo.AccountsRepo
	cfg      config.ExportConfig
	loc      *time.Location
}

func NewExportService(donors repo.DonorsRepo, accounts repo.AccountsRepo, cfg config.ExportConfig) ExportService {
	return &exportService{donors: donors, accounts: accounts, cfg: cfg, loc: time.Local}
}

func (s *exportService) Prepare(ctx context.Context, p *domain.Principal, kind ExportKind) (*Export, error) {
	var (
		out *Export
		err error
	)
	switch kind {
	case ExportDonors:
		if err := p.Require(domain.CapExport); err != nil {
			return nil, err
		}
		out, err = s.allDonors(ctx)
	case ExportStaff:
		if err := p.Require(domain.CapExport); err != nil {
			return nil, err
		}
		out, err = s.staff(ctx)
	case ExportApprovedDonors:
		if err := p.Require(domain.CapReviewDonors); err != nil {
			return nil, err
		}
		out, err = s.approvedDonors(ctx)
	default:
		if err := p.Require(domain.CapExport); err != nil {
			return nil, err
		}
		return nil, domain.ErrInvalidExportType
	}
	if err != nil {
		return nil, fmt.Errorf("failed to export %s: %w", kind, err)
	}

	logger.InfoContext(ctx, "Export prepared", "kind", kind, "rows", len(out.Rows), "requested_by", p.AccountID)
	return out, nil
}

func (s *exportService) allDonors(ctx context.Context) (*Export, error) {
	donors, err := s.donors.List(ctx, repo.DonorFilter{})
	if err != nil {
		return nil, err
	}
	out := &Export{
		Filename: "donors.csv",
		Header: []string{"Full Name", "Phone", "Email", "Blood Group", "Age", "Sex", "Status",
			"Submitted Date", "Approved Date", "Total Donations", "Rejection Reason"},
		Rows: make([][]string, 0, len(donors)),
	}
	for _, d := range donors {
		out.Rows = append(out.Rows, []string{
			d.FullName, d.Phone, d.Gmail, string(d.BloodGroup), strconv.Itoa(d.Age), string(d.Sex), string(d.Status),
			s.date(&d.SubmittedAt), s.date(d.ApprovedAt), strconv.Itoa(d.TotalDonations), d.RejectionReason,
		})
	}
	return out, nil
}

func (s *exportService) approvedDonors(ctx context.Context) (*Export, error) {
	donors, err := s.donors.List(ctx, repo.DonorFilter{Status: domain.DonorApproved})
	if err != nil {
		return nil, err
	}
	out := &Export{
		Filename: "donors.csv",
		Header:   []string{"Full Name", "Phone", "Email", "Blood Group", "Age", "Sex", "Approved Date", "Total Donations"},
		Rows:     make([][]string, 0, len(donors)),
	}
	for _, d := range donors {
		out.Rows = append(out.Rows, []string{
			d.FullName, d.Phone, d.Gmail, string(d.BloodGroup), strconv.Itoa(d.Age), string(d.Sex),
			s.date(d.ApprovedAt), strconv.Itoa(d.TotalDonations),
		})
	}
	return out, nil
}

func (s *exportService) staff(ctx context.Context) (*Export, error) {
	staff, err := s.accounts.ListByRole(ctx, domain.RoleStaff)
	if err != nil {
		return nil, err
	}
	out := &Export{
		Filename: "staff.csv",
		Header:   []string{"Name", "Email", "Phone", "WhatsApp", "Blood Group", "Age", "Sex", "Salary", "Join Date"},
		Rows:     make([][]string, 0, len(staff)),
	}
	for _, a := range staff {
		var group, age, sex, salary string
		if a.BloodGroup != nil {
			group = string(*a.BloodGroup)
		}
		if a.Age != nil {
			age = strconv.Itoa(*a.Age)
		}
		if a.Sex != nil {
			sex = string(*a.Sex)
		}
		if a.Salary != nil {
			salary = strconv.FormatFloat(*a.Salary, 'f', -1, 64)
		}
		out.Rows = append(out.Rows, []string{
			a.Name, a.Email, a.Phone, a.Whatsapp, group, age, sex, salary, s.date(&a.CreatedAt),
		})
	}
	return out, nil
}

func (s *exportService) date(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.In(s.loc).Format(s.cfg.DateLayout)
}
