package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/diagnosis/lifesave-bloodbank/internal/domain"
	"github.com/diagnosis/lifesave-bloodbank/internal/repo"
	"github.com/diagnosis/lifesave-bloodbank/pkg/config"
	"github.com/diagnosis/lifesave-bloodbank/pkg/events"
	"github.com/diagnosis/lifesave-bloodbank/pkg/logger"
	"github.com/diagnosis/lifesave-bloodbank/pkg/metrics"
)

type DonorService interface {
	Register(ctx context.Context, reg domain.DonorRegistration) (*domain.Donor, error)
	ListPending(ctx context.Context, p *domain.Principal) ([]domain.Donor, error)
	ListApproved(ctx context.Context, p *domain.Principal) ([]domain.Donor, error)
	ListAll(ctx context.Context, p *domain.Principal) ([]domain.Donor, error)
	ListRejected(ctx context.Context, p *domain.Principal) ([]domain.Donor, error)
	Approve(ctx context.Context, p *domain.Principal, id string) (*domain.Donor, error)
	Reject(ctx context.Context, p *domain.Principal, id, reason string) (*domain.Donor, error)
	DeleteRejected(ctx context.Context, p *domain.Principal, id string) error
	// Attachment accepts a nil principal only when donor files are public.
	Attachment(ctx context.Context, p *domain.Principal, id string, kind domain.AttachmentKind) (*domain.Attachment, error)
	AdminStats(ctx context.Context, p *domain.Principal) (*domain.AdminStats, error)
	StaffStats(ctx context.Context, p *domain.Principal) (*domain.StaffStats, error)
	FilesArePublic() bool
}

type donorService struct {
	donors   repo.DonorsRepo
	accounts repo.AccountsRepo
	eventBus events.EventBus
	metrics  *metrics.Metrics
	cfg      config.DonorConfig
	now      func() time.Time
}

func NewDonorService(
	donors repo.DonorsRepo,
	accounts repo.AccountsRepo,
	eventBus events.EventBus,
	m *metrics.Metrics,
	cfg config.DonorConfig,
) DonorService {
	return &donorService{
		donors:   donors,
		accounts: accounts,
		eventBus: eventBus,
		metrics:  m,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (s *donorService) Register(ctx context.Context, reg domain.DonorRegistration) (*domain.Donor, error) {
	nd, err := reg.Validate(s.cfg.MaxUploadBytes)
	if err != nil {
		return nil, err
	}

	donor, err := s.donors.Create(ctx, nd, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to create donor: %w", err)
	}

	s.metrics.RecordDonorSubmission()
	logger.InfoContext(ctx, "Donor registration submitted", "donor_id", donor.ID, "blood_group", donor.BloodGroup)
	s.publish(ctx, events.DonorSubmitted, events.DonorSubmittedEvent{
		DonorID:     donor.ID,
		Name:        donor.FullName,
		BloodGroup:  string(donor.BloodGroup),
		SubmittedAt: donor.SubmittedAt,
	})
	return donor, nil
}

func (s *donorService) ListPending(ctx context.Context, p *domain.Principal) ([]domain.Donor, error) {
	return s.list(ctx, p, domain.CapReviewDonors, domain.DonorPending)
}

func (s *donorService) ListApproved(ctx context.Context, p *domain.Principal) ([]domain.Donor, error) {
	return s.list(ctx, p, domain.CapReviewDonors, domain.DonorApproved)
}

func (s *donorService) ListAll(ctx context.Context, p *domain.Principal) ([]domain.Donor, error) {
	return s.list(ctx, p, domain.CapManageDonors, "")
}

func (s *donorService) ListRejected(ctx context.Context, p *domain.Principal) ([]domain.Donor, error) {
	return s.list(ctx, p, domain.CapManageDonors, domain.DonorRejected)
}

func (s *donorService) list(ctx context.Context, p *domain.Principal, c domain.Capability, status domain.DonorStatus) ([]domain.Donor, error) {
	if err := p.Require(c); err != nil {
		return nil, err
	}
	donors, err := s.donors.List(ctx, repo.DonorFilter{Status: status})
	if err != nil {
		return nil, fmt.Errorf("failed to list donors: %w", err)
	}
	return donors, nil
}

func (s *donorService) Approve(ctx context.Context, p *domain.Principal, id string) (*domain.Donor, error) {
	if err := p.Require(domain.CapReviewDonors); err != nil {
		return nil, err
	}
	donor, err := s.donors.Approve(ctx, id, p.AccountID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to approve donor: %w", err)
	}

	s.metrics.RecordDonorTransition(string(domain.DonorApproved))
	logger.InfoContext(ctx, "Donor approved", "donor_id", donor.ID, "reviewed_by", p.AccountID)
	s.publish(ctx, events.DonorApproved, reviewedEvent(donor, p))
	return donor, nil
}

func (s *donorService) Reject(ctx context.Context, p *domain.Principal, id, reason string) (*domain.Donor, error) {
	if err := p.Require(domain.CapReviewDonors); err != nil {
		return nil, err
	}
	donor, err := s.donors.Reject(ctx, id, p.AccountID, strings.TrimSpace(reason), s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to reject donor: %w", err)
	}

	s.metrics.RecordDonorTransition(string(domain.DonorRejected))
	logger.InfoContext(ctx, "Donor rejected", "donor_id", donor.ID, "reviewed_by", p.AccountID, "reason", donor.RejectionReason)
	s.publish(ctx, events.DonorRejected, reviewedEvent(donor, p))
	return donor, nil
}

func (s *donorService) DeleteRejected(ctx context.Context, p *domain.Principal, id string) error {
	if err := p.Require(domain.CapManageDonors); err != nil {
		return err
	}
	if err := s.donors.DeleteRejected(ctx, id); err != nil {
		return fmt.Errorf("failed to delete donor: %w", err)
	}

	logger.InfoContext(ctx, "Rejected donor deleted", "donor_id", id, "deleted_by", p.AccountID)
	s.publish(ctx, events.DonorDeleted, events.DonorDeletedEvent{DonorID: id, DeletedBy: p.AccountID, DeletedAt: s.now()})
	return nil
}

func (s *donorService) Attachment(ctx context.Context, p *domain.Principal, id string, kind domain.AttachmentKind) (*domain.Attachment, error) {
	if !s.cfg.PublicFiles {
		if err := p.Require(domain.CapViewDonorFiles); err != nil {
			return nil, err
		}
	}
	a, err := s.donors.GetAttachment(ctx, id, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", kind, err)
	}
	return a, nil
}

func (s *donorService) FilesArePublic() bool {
	return s.cfg.PublicFiles
}

func (s *donorService) AdminStats(ctx context.Context, p *domain.Principal) (*domain.AdminStats, error) {
	if err := p.Require(domain.CapViewStats); err != nil {
		return nil, err
	}

	var (
		stats  domain.AdminStats
		groups map[domain.BloodGroup]int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.TotalStaff, err = s.accounts.CountByRole(gctx, domain.RoleStaff)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalDonors, err = s.donors.Count(gctx, "")
		return err
	})
	g.Go(func() (err error) {
		stats.PendingApprovals, err = s.donors.Count(gctx, domain.DonorPending)
		return err
	})
	g.Go(func() (err error) {
		stats.ApprovedDonors, err = s.donors.Count(gctx, domain.DonorApproved)
		return err
	})
	g.Go(func() (err error) {
		stats.RejectedDonors, err = s.donors.Count(gctx, domain.DonorRejected)
		return err
	})
	g.Go(func() (err error) {
		groups, err = s.donors.BloodGroupCounts(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}

	stats.TotalBloodUnits = stats.ApprovedDonors * s.cfg.BloodUnitsPerDonor
	stats.BloodGroupDistribution = domain.BuildDistribution(groups, stats.ApprovedDonors)
	return &stats, nil
}

func (s *donorService) StaffStats(ctx context.Context, p *domain.Principal) (*domain.StaffStats, error) {
	if err := p.Require(domain.CapReviewDonors); err != nil {
		return nil, err
	}

	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var stats domain.StaffStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.PendingReviews, err = s.donors.Count(gctx, domain.DonorPending)
		return err
	})
	g.Go(func() (err error) {
		stats.ApprovedToday, err = s.donors.CountApprovedSince(gctx, midnight)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalDonors, err = s.donors.Count(gctx, domain.DonorApproved)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}
	return &stats, nil
}

func (s *donorService) publish(ctx context.Context, subject string, payload interface{}) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, subject, payload); err != nil {
		logger.ErrorContext(ctx, "Failed to publish event", "subject", subject, "error", err)
	}
}

func reviewedEvent(d *domain.Donor, p *domain.Principal) events.DonorReviewedEvent {
	ev := events.DonorReviewedEvent{
		DonorID:    d.ID,
		Name:       d.FullName,
		Email:      d.Gmail,
		BloodGroup: string(d.BloodGroup),
		Status:     string(d.Status),
		Reason:     d.RejectionReason,
		ReviewedBy: p.AccountID,
	}
	if d.ReviewedAt != nil {
		ev.ReviewedAt = *d.ReviewedAt
	}
	return ev
}
