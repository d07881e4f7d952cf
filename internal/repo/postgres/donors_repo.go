package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diagnosis/lifesave-bloodbank/internal/domain"
	"github.com/diagnosis/lifesave-bloodbank/internal/repo"
)

type DonorsRepoImpl struct{ pool *pgxpool.Pool }

func NewDonorsRepo(pool *pgxpool.Pool) *DonorsRepoImpl { return &DonorsRepoImpl{pool: pool} }

var _ repo.DonorsRepo = (*DonorsRepoImpl)(nil)

// donorCols never includes attachment bytes.
const donorCols = `d.id, d.full_name, d.phone, d.whatsapp, d.gmail,
d.address_street, d.address_city, d.address_state, d.address_pincode, d.address_country,
d.blood_group, d.age, d.sex, d.status, d.rejection_reason,
d.reviewed_by, COALESCE(a.name, ''), d.reviewed_at, d.submitted_at, d.approved_at,
d.last_donation, d.total_donations`

const donorFrom = ` FROM donors d LEFT JOIN accounts a ON a.id = d.reviewed_by`

const notFoundDonor = "Donor not found"

func scanDonor(row pgx.Row) (*domain.Donor, error) {
	var d domain.Donor
	err := row.Scan(
		&d.ID, &d.FullName, &d.Phone, &d.Whatsapp, &d.Gmail,
		&d.Address.Street, &d.Address.City, &d.Address.State, &d.Address.Pincode, &d.Address.Country,
		&d.BloodGroup, &d.Age, &d.Sex, &d.Status, &d.RejectionReason,
		&d.ReviewedBy, &d.ReviewerName, &d.ReviewedAt, &d.SubmittedAt, &d.ApprovedAt,
		&d.LastDonation, &d.TotalDonations,
	)
	if err != nil {
		return nil, err
	}
	d.PhotoURL = domain.PhotoURL(d.ID)
	d.GovernmentIDURL = domain.DocumentURL(d.ID)
	return &d, nil
}

func (r *DonorsRepoImpl) Create(ctx context.Context, in *domain.NewDonor, submittedAt time.Time) (*domain.Donor, error) {
	const q = `
INSERT INTO donors (id, full_name, phone, whatsapp, gmail,
  address_street, address_city, address_state, address_pincode, address_country,
  blood_group, age, sex,
  photo_data, photo_content_type, photo_filename,
  document_data, document_content_type, document_filename,
  status, submitted_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,'pending',$20)`

	id := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, id, in.FullName, in.Phone, in.Whatsapp, in.Gmail,
		in.Address.Street, in.Address.City, in.Address.State, in.Address.Pincode, in.Address.Country,
		in.BloodGroup, in.Age, in.Sex,
		in.Photo.Data, in.Photo.ContentType, in.Photo.Filename,
		in.GovernmentID.Data, in.GovernmentID.ContentType, in.GovernmentID.Filename,
		submittedAt,
	)
	if err != nil {
		return nil, mapErr(err, notFoundDonor)
	}
	return r.GetByID(ctx, id)
}

func (r *DonorsRepoImpl) GetByID(ctx context.Context, id string) (*domain.Donor, error) {
	const q = `SELECT ` + donorCols + donorFrom + ` WHERE d.id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	d, err := scanDonor(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, mapErr(err, notFoundDonor)
	}
	return d, nil
}

func (r *DonorsRepoImpl) GetAttachment(ctx context.Context, id string, kind domain.AttachmentKind) (*domain.Attachment, error) {
	var q, notFound string
	switch kind {
	case domain.AttachmentPhoto:
		q = `SELECT photo_data, photo_content_type, photo_filename FROM donors WHERE id=$1`
		notFound = "Photo not found"
	case domain.AttachmentGovernmentID:
		q = `SELECT document_data, document_content_type, document_filename FROM donors WHERE id=$1`
		notFound = "Document not found"
	default:
		return nil, domain.WithMessage(domain.ErrNotFound, "Attachment not found")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var a domain.Attachment
	if err := r.pool.QueryRow(ctx, q, id).Scan(&a.Data, &a.ContentType, &a.Filename); err != nil {
		return nil, mapErr(err, notFound)
	}
	if len(a.Data) == 0 {
		return nil, domain.WithMessage(domain.ErrNotFound, notFound)
	}
	return &a, nil
}

func (r *DonorsRepoImpl) List(ctx context.Context, f repo.DonorFilter) ([]domain.Donor, error) {
	q := `SELECT ` + donorCols + donorFrom
	var args []any
	if f.Status != "" {
		q += ` WHERE d.status=$1`
		args = append(args, f.Status)
	}
	if f.Status == domain.DonorApproved {
		q += ` ORDER BY d.approved_at DESC, d.id`
	} else {
		q += ` ORDER BY d.submitted_at DESC, d.id`
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Donor, 0)
	for rows.Next() {
		d, err := scanDonor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// Approve only moves a pending donor. A concurrent second reviewer gets
// ErrNotPending instead of overwriting the first decision.
func (r *DonorsRepoImpl) Approve(ctx context.Context, id, reviewerID string, at time.Time) (*domain.Donor, error) {
	const q = `
UPDATE donors SET status='approved', approved_at=$3, reviewed_by=$2, reviewed_at=$3
WHERE id=$1 AND status='pending'`
	return r.transition(ctx, q, id, reviewerID, at)
}

func (r *DonorsRepoImpl) Reject(ctx context.Context, id, reviewerID, reason string, at time.Time) (*domain.Donor, error) {
	const q = `
UPDATE donors SET status='rejected', rejection_reason=$4, reviewed_by=$2, reviewed_at=$3
WHERE id=$1 AND status='pending'`
	return r.transition(ctx, q, id, reviewerID, at, reason)
}

func (r *DonorsRepoImpl) transition(ctx context.Context, q, id, reviewerID string, at time.Time, extra ...any) (*domain.Donor, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	args := append([]any{id, reviewerID, at}, extra...)
	tag, err := r.pool.Exec(ctx, q, args...)
	if err != nil {
		return nil, mapErr(err, notFoundDonor)
	}
	if tag.RowsAffected() == 0 {
		if err := r.existsErr(ctx, id); err != nil {
			return nil, err
		}
		return nil, domain.ErrNotPending
	}
	return r.GetByID(ctx, id)
}

func (r *DonorsRepoImpl) DeleteRejected(ctx context.Context, id string) error {
	const q = `DELETE FROM donors WHERE id=$1 AND status='rejected'`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if err := r.existsErr(ctx, id); err != nil {
			return err
		}
		return domain.ErrNotRejected
	}
	return nil
}

// existsErr returns ErrNotFound when no donor has the id, nil otherwise.
func (r *DonorsRepoImpl) existsErr(ctx context.Context, id string) error {
	var one int
	err := r.pool.QueryRow(ctx, `SELECT 1 FROM donors WHERE id=$1`, id).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.WithMessage(domain.ErrNotFound, notFoundDonor)
	}
	return err
}

func (r *DonorsRepoImpl) Count(ctx context.Context, status domain.DonorStatus) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var n int
	var err error
	if status == "" {
		err = r.pool.QueryRow(ctx, `SELECT count(*) FROM donors`).Scan(&n)
	} else {
		err = r.pool.QueryRow(ctx, `SELECT count(*) FROM donors WHERE status=$1`, status).Scan(&n)
	}
	return n, err
}

func (r *DonorsRepoImpl) CountApprovedSince(ctx context.Context, since time.Time) (int, error) {
	const q = `SELECT count(*) FROM donors WHERE status='approved' AND approved_at >= $1`
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var n int
	err := r.pool.QueryRow(ctx, q, since).Scan(&n)
	return n, err
}

func (r *DonorsRepoImpl) BloodGroupCounts(ctx context.Context) (map[domain.BloodGroup]int, error) {
	const q = `SELECT blood_group, count(*) FROM donors WHERE status='approved' GROUP BY blood_group`
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[domain.BloodGroup]int)
	for rows.Next() {
		var g domain.BloodGroup
		var n int
		if err := rows.Scan(&g, &n); err != nil {
			return nil, err
		}
		out[g] = n
	}
	return out, rows.Err()
}
