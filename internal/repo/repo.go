// Package repo declares the storage contracts shared by the Postgres
// implementation and the in-memory one used in tests.
package repo

import (
	"context"
	"time"

	"github.com/diagnosis/lifesave-bloodbank/internal/domain"
)

// AccountsRepo is the credential store. Lookups that find nothing return
// domain.ErrNotFound; duplicate emails return domain.ErrConflict.
type AccountsRepo interface {
	Create(ctx context.Context, in *domain.NewAccount, passwordHash string) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	// ListByRole returns accounts newest first.
	ListByRole(ctx context.Context, role domain.Role) ([]domain.Account, error)
	CountByRole(ctx context.Context, role domain.Role) (int, error)
	// UpdateStaff applies ch to a staff-role account only.
	UpdateStaff(ctx context.Context, id string, ch *domain.StaffChanges, passwordHash *string) (*domain.Account, error)
	// DeleteStaff removes a staff-role account only.
	DeleteStaff(ctx context.Context, id string) error
}

// DonorFilter selects donors by status. The zero value selects every donor.
type DonorFilter struct {
	Status domain.DonorStatus
}

// DonorsRepo is the donor store. Transitions are conditional on the current
// status and report domain.ErrNotPending or domain.ErrNotRejected when the
// condition does not hold.
type DonorsRepo interface {
	Create(ctx context.Context, in *domain.NewDonor, submittedAt time.Time) (*domain.Donor, error)
	GetByID(ctx context.Context, id string) (*domain.Donor, error)
	GetAttachment(ctx context.Context, id string, kind domain.AttachmentKind) (*domain.Attachment, error)
	// List orders approved donors by approval time and everything else by
	// submission time, newest first.
	List(ctx context.Context, f DonorFilter) ([]domain.Donor, error)
	Approve(ctx context.Context, id, reviewerID string, at time.Time) (*domain.Donor, error)
	Reject(ctx context.Context, id, reviewerID, reason string, at time.Time) (*domain.Donor, error)
	DeleteRejected(ctx context.Context, id string) error
	// Count with an empty status counts every donor.
	Count(ctx context.Context, status domain.DonorStatus) (int, error)
	CountApprovedSince(ctx context.Context, since time.Time) (int, error)
	// BloodGroupCounts covers approved donors only.
	BloodGroupCounts(ctx context.Context) (map[domain.BloodGroup]int, error)
}
