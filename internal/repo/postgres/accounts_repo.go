package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diagnosis/lifesave-bloodbank/internal/domain"
	"github.com/diagnosis/lifesave-bloodbank/internal/repo"
)

type AccountsRepoImpl struct{ pool *pgxpool.Pool }

func NewAccountsRepo(pool *pgxpool.Pool) *AccountsRepoImpl { return &AccountsRepoImpl{pool: pool} }

var _ repo.AccountsRepo = (*AccountsRepoImpl)(nil)

const accountCols = `id, name, email, password_hash, role, phone, whatsapp, address,
blood_group, age, sex, account_number, ifsc_code, bank_name, salary, is_active, created_at`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(
		&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.Role, &a.Phone, &a.Whatsapp, &a.Address,
		&a.BloodGroup, &a.Age, &a.Sex,
		&a.BankDetails.AccountNumber, &a.BankDetails.IFSCCode, &a.BankDetails.BankName,
		&a.Salary, &a.IsActive, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountsRepoImpl) Create(ctx context.Context, in *domain.NewAccount, passwordHash string) (*domain.Account, error) {
	const q = `
INSERT INTO accounts (id, name, email, password_hash, role, phone, whatsapp, address,
  blood_group, age, sex, account_number, ifsc_code, bank_name, salary)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
RETURNING ` + accountCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	a, err := scanAccount(r.pool.QueryRow(ctx, q,
		uuid.NewString(), in.Name, in.Email, passwordHash, in.Role, in.Phone, in.Whatsapp, in.Address,
		in.BloodGroup, in.Age, in.Sex,
		in.BankDetails.AccountNumber, in.BankDetails.IFSCCode, in.BankDetails.BankName,
		in.Salary,
	))
	if err != nil {
		return nil, mapErr(err, "Account not found")
	}
	return a, nil
}

func (r *AccountsRepoImpl) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	const q = `SELECT ` + accountCols + ` FROM accounts WHERE lower(email)=lower($1)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	a, err := scanAccount(r.pool.QueryRow(ctx, q, email))
	if err != nil {
		return nil, mapErr(err, "Account not found")
	}
	return a, nil
}

func (r *AccountsRepoImpl) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	const q = `SELECT ` + accountCols + ` FROM accounts WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	a, err := scanAccount(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, mapErr(err, "Account not found")
	}
	return a, nil
}

func (r *AccountsRepoImpl) ListByRole(ctx context.Context, role domain.Role) ([]domain.Account, error) {
	const q = `SELECT ` + accountCols + ` FROM accounts WHERE role=$1 ORDER BY created_at DESC, id`
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *AccountsRepoImpl) CountByRole(ctx context.Context, role domain.Role) (int, error) {
	const q = `SELECT count(*) FROM accounts WHERE role=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var n int
	err := r.pool.QueryRow(ctx, q, role).Scan(&n)
	return n, err
}

// UpdateStaff relies on the unique index on lower(email) to reject a
// collision with any other account.
func (r *AccountsRepoImpl) UpdateStaff(ctx context.Context, id string, ch *domain.StaffChanges, passwordHash *string) (*domain.Account, error) {
	const q = `
UPDATE accounts SET
  name           = COALESCE($2, name),
  email          = COALESCE($3, email),
  password_hash  = COALESCE($4, password_hash),
  phone          = COALESCE($5, phone),
  whatsapp       = COALESCE($6, whatsapp),
  address        = COALESCE($7, address),
  blood_group    = CASE WHEN $8::boolean THEN NULL ELSE COALESCE($9, blood_group) END,
  age            = COALESCE($10, age),
  sex            = COALESCE($11, sex),
  account_number = COALESCE($12, account_number),
  ifsc_code      = COALESCE($13, ifsc_code),
  bank_name      = COALESCE($14, bank_name),
  salary         = COALESCE($15, salary)
WHERE id=$1 AND role='staff'
RETURNING ` + accountCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var address any
	if ch.Address != nil {
		address = ch.Address
	}

	a, err := scanAccount(r.pool.QueryRow(ctx, q, id,
		ch.Name, ch.Email, passwordHash, ch.Phone, ch.Whatsapp, address,
		ch.ClearBloodGroup, ch.BloodGroup, ch.Age, ch.Sex,
		ch.AccountNumber, ch.IFSCCode, ch.BankName, ch.Salary,
	))
	if err != nil {
		return nil, mapErr(err, "Staff member not found")
	}
	return a, nil
}

func (r *AccountsRepoImpl) DeleteStaff(ctx context.Context, id string) error {
	const q = `DELETE FROM accounts WHERE id=$1 AND role='staff'`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.WithMessage(domain.ErrNotFound, "Staff member not found")
	}
	return nil
}
