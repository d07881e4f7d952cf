// Package memory holds map-backed stores with the same semantics as the
// Postgres ones. Services and handlers are tested against it.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/diagnosis/lifesave-bloodbank/internal/domain"
	"github.com/diagnosis/lifesave-bloodbank/internal/repo"
)

var errEmailExists = domain.WithMessage(domain.ErrConflict, "Email already exists")

type AccountsRepo struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
	now      func() time.Time
}

func NewAccountsRepo() *AccountsRepo {
	return &AccountsRepo{accounts: make(map[string]*domain.Account), now: time.Now}
}

var _ repo.AccountsRepo = (*AccountsRepo)(nil)

func (r *AccountsRepo) Create(_ context.Context, in *domain.NewAccount, passwordHash string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.byEmailLocked(in.Email) != nil {
		return nil, errEmailExists
	}
	acc := &domain.Account{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: passwordHash,
		Role:         in.Role,
		Phone:        in.Phone,
		Whatsapp:     in.Whatsapp,
		Address:      in.Address,
		BloodGroup:   in.BloodGroup,
		Age:          in.Age,
		Sex:          in.Sex,
		BankDetails:  in.BankDetails,
		Salary:       in.Salary,
		IsActive:     true,
		CreatedAt:    r.now(),
	}
	r.accounts[acc.ID] = acc
	out := *acc
	return &out, nil
}

func (r *AccountsRepo) byEmailLocked(email string) *domain.Account {
	for _, a := range r.accounts {
		if strings.EqualFold(a.Email, email) {
			return a
		}
	}
	return nil
}

func (r *AccountsRepo) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a := r.byEmailLocked(email)
	if a == nil {
		return nil, domain.WithMessage(domain.ErrNotFound, "Account not found")
	}
	out := *a
	return &out, nil
}

func (r *AccountsRepo) FindByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, domain.WithMessage(domain.ErrNotFound, "Account not found")
	}
	out := *a
	return &out, nil
}

func (r *AccountsRepo) ListByRole(_ context.Context, role domain.Role) ([]domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Account, 0)
	for _, a := range r.accounts {
		if a.Role == role {
			out = append(out, *a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *AccountsRepo) CountByRole(_ context.Context, role domain.Role) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, a := range r.accounts {
		if a.Role == role {
			n++
		}
	}
	return n, nil
}

func (r *AccountsRepo) UpdateStaff(_ context.Context, id string, ch *domain.StaffChanges, passwordHash *string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok || a.Role != domain.RoleStaff {
		return nil, domain.WithMessage(domain.ErrNotFound, "Staff member not found")
	}
	if ch.Email != nil {
		if other := r.byEmailLocked(*ch.Email); other != nil && other.ID != id {
			return nil, errEmailExists
		}
	}
	updated := ch.Apply(*a)
	if passwordHash != nil {
		updated.PasswordHash = *passwordHash
	}
	r.accounts[id] = &updated
	out := updated
	return &out, nil
}

func (r *AccountsRepo) DeleteStaff(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok || a.Role != domain.RoleStaff {
		return domain.WithMessage(domain.ErrNotFound, "Staff member not found")
	}
	delete(r.accounts, id)
	return nil
}

type donorRecord struct {
	donor    domain.Donor
	photo    domain.Attachment
	document domain.Attachment
}

// DonorsRepo resolves reviewer names through the accounts store, so a deleted
// reviewer leaves a blank name the same way the SQL join does.
type DonorsRepo struct {
	mu       sync.RWMutex
	donors   map[string]*donorRecord
	accounts *AccountsRepo
}

func NewDonorsRepo(accounts *AccountsRepo) *DonorsRepo {
	return &DonorsRepo{donors: make(map[string]*donorRecord), accounts: accounts}
}

var _ repo.DonorsRepo = (*DonorsRepo)(nil)

const notFoundDonor = "Donor not found"

func (r *DonorsRepo) Create(_ context.Context, in *domain.NewDonor, submittedAt time.Time) (*domain.Donor, error) {
	id := uuid.NewString()
	rec := &donorRecord{
		donor: domain.Donor{
			ID:              id,
			FullName:        in.FullName,
			Phone:           in.Phone,
			Whatsapp:        in.Whatsapp,
			Gmail:           in.Gmail,
			Address:         in.Address,
			BloodGroup:      in.BloodGroup,
			Age:             in.Age,
			Sex:             in.Sex,
			PhotoURL:        domain.PhotoURL(id),
			GovernmentIDURL: domain.DocumentURL(id),
			Status:          domain.DonorPending,
			SubmittedAt:     submittedAt,
		},
		photo:    in.Photo,
		document: in.GovernmentID,
	}

	r.mu.Lock()
	r.donors[id] = rec
	r.mu.Unlock()

	return r.view(rec), nil
}

// view copies the record and fills in the reviewer name.
func (r *DonorsRepo) view(rec *donorRecord) *domain.Donor {
	d := rec.donor
	if d.ReviewedBy != nil && r.accounts != nil {
		if a, err := r.accounts.FindByID(context.Background(), *d.ReviewedBy); err == nil {
			d.ReviewerName = a.Name
		}
	}
	return &d
}

func (r *DonorsRepo) GetByID(_ context.Context, id string) (*domain.Donor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.donors[id]
	if !ok {
		return nil, domain.WithMessage(domain.ErrNotFound, notFoundDonor)
	}
	return r.view(rec), nil
}

func (r *DonorsRepo) GetAttachment(_ context.Context, id string, kind domain.AttachmentKind) (*domain.Attachment, error) {
	var notFound string
	switch kind {
	case domain.AttachmentPhoto:
		notFound = "Photo not found"
	case domain.AttachmentGovernmentID:
		notFound = "Document not found"
	default:
		return nil, domain.WithMessage(domain.ErrNotFound, "Attachment not found")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.donors[id]
	if !ok {
		return nil, domain.WithMessage(domain.ErrNotFound, notFound)
	}
	a := rec.photo
	if kind == domain.AttachmentGovernmentID {
		a = rec.document
	}
	if len(a.Data) == 0 {
		return nil, domain.WithMessage(domain.ErrNotFound, notFound)
	}
	return &a, nil
}

func (r *DonorsRepo) List(_ context.Context, f repo.DonorFilter) ([]domain.Donor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Donor, 0)
	for _, rec := range r.donors {
		if f.Status != "" && rec.donor.Status != f.Status {
			continue
		}
		out = append(out, *r.view(rec))
	}

	key := func(d domain.Donor) time.Time {
		if f.Status == domain.DonorApproved && d.ApprovedAt != nil {
			return *d.ApprovedAt
		}
		return d.SubmittedAt
	}
	sort.SliceStable(out, func(i, j int) bool {
		ki, kj := key(out[i]), key(out[j])
		if ki.Equal(kj) {
			return out[i].ID < out[j].ID
		}
		return ki.After(kj)
	})
	return out, nil
}

func (r *DonorsRepo) Approve(_ context.Context, id, reviewerID string, at time.Time) (*domain.Donor, error) {
	return r.transition(id, func(d *domain.Donor) {
		d.Status = domain.DonorApproved
		d.ApprovedAt = &at
		d.ReviewedBy = &reviewerID
		d.ReviewedAt = &at
	})
}

func (r *DonorsRepo) Reject(_ context.Context, id, reviewerID, reason string, at time.Time) (*domain.Donor, error) {
	return r.transition(id, func(d *domain.Donor) {
		d.Status = domain.DonorRejected
		d.RejectionReason = reason
		d.ReviewedBy = &reviewerID
		d.ReviewedAt = &at
	})
}

func (r *DonorsRepo) transition(id string, apply func(*domain.Donor)) (*domain.Donor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.donors[id]
	if !ok {
		return nil, domain.WithMessage(domain.ErrNotFound, notFoundDonor)
	}
	if rec.donor.Status != domain.DonorPending {
		return nil, domain.ErrNotPending
	}
	apply(&rec.donor)
	return r.view(rec), nil
}

func (r *DonorsRepo) DeleteRejected(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.donors[id]
	if !ok {
		return domain.WithMessage(domain.ErrNotFound, notFoundDonor)
	}
	if rec.donor.Status != domain.DonorRejected {
		return domain.ErrNotRejected
	}
	delete(r.donors, id)
	return nil
}

func (r *DonorsRepo) Count(_ context.Context, status domain.DonorStatus) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, rec := range r.donors {
		if status == "" || rec.donor.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *DonorsRepo) CountApprovedSince(_ context.Context, since time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, rec := range r.donors {
		d := rec.donor
		if d.Status == domain.DonorApproved && d.ApprovedAt != nil && !d.ApprovedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *DonorsRepo) BloodGroupCounts(_ context.Context) (map[domain.BloodGroup]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[domain.BloodGroup]int)
	for _, rec := range r.donors {
		if rec.donor.Status == domain.DonorApproved {
			out[rec.donor.BloodGroup]++
		}
	}
	return out, nil
}
