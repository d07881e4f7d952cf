package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
	"github.com/golang-jwt/jwt/v5"

	"github.com/diagnosis/lifesave-bloodbank/internal/domain"
	"github.com/diagnosis/lifesave-bloodbank/internal/repo"
	"github.com/diagnosis/lifesave-bloodbank/internal/utils"
	"github.com/diagnosis/lifesave-bloodbank/pkg/auth"
	"github.com/diagnosis/lifesave-bloodbank/pkg/config"
	"github.com/diagnosis/lifesave-bloodbank/pkg/logger"
)

type LoginResult struct {
	Token string            `json:"token"`
	User  domain.PublicUser `json:"user"`
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	// Authenticate resolves a bearer token to a principal whose role comes
	// from the stored account, not from the token.
	Authenticate(ctx context.Context, token string) (*domain.Principal, error)
	CurrentUser(ctx context.Context, accountID string) (*domain.Account, error)
	// SeedDefaults creates the default admin and staff logins.
	SeedDefaults(ctx context.Context) error
}

type authService struct {
	accounts repo.AccountsRepo
	cfg      config.AuthConfig
	params   *argon2id.Params
}

func NewAuthService(accounts repo.AccountsRepo, cfg config.AuthConfig) AuthService {
	return &authService{accounts: accounts, cfg: cfg, params: argon2id.DefaultParams}
}

func (s *authService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = utils.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	acc, err := s.accounts.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}

	valid, err := argon2id.ComparePasswordAndHash(password, acc.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := auth.NewAccessToken(acc.ID, string(acc.Role), s.cfg.JWTSecret, s.cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	logger.InfoContext(ctx, "Account logged in", "account_id", acc.ID, "role", acc.Role)
	return &LoginResult{Token: token, User: acc.Public()}, nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*domain.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.WithMessage(domain.ErrUnauthenticated, "No token, authorization denied")
	}

	claims, err := auth.Parse(token, s.cfg.JWTSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.WithMessage(domain.ErrTokenExpired, "Token expired")
		}
		return nil, domain.WithMessage(domain.ErrTokenInvalid, "Invalid token")
	}

	acc, err := s.accounts.FindByID(ctx, claims.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.WithMessage(domain.ErrTokenInvalid, "Token is not valid")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	if claims.Role != string(acc.Role) {
		logger.InfoContext(ctx, "Token role differs from stored role", "account_id", acc.ID, "token_role", claims.Role, "role", acc.Role)
	}

	return &domain.Principal{AccountID: acc.ID, Name: acc.Name, Email: acc.Email, Role: acc.Role}, nil
}

func (s *authService) CurrentUser(ctx context.Context, accountID string) (*domain.Account, error) {
	acc, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return acc, nil
}

const (
	SeedAdminEmail    = "admin@lifesave.org"
	SeedAdminPassword = "admin123"
	SeedStaffEmail    = "staff@lifesave.org"
)

// SeedDefaults creates the default admin and staff accounts. Both emails are
// checked first so a taken staff email leaves no admin behind.
func (s *authService) SeedDefaults(ctx context.Context) error {
	for _, seed := range []struct{ email, conflict string }{
		{SeedAdminEmail, "Admin already exists"},
		{SeedStaffEmail, "Staff account already exists"},
	} {
		_, err := s.accounts.FindByEmail(ctx, seed.email)
		if err == nil {
			return domain.WithMessage(domain.ErrConflict, seed.conflict)
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("failed to check seed account %s: %w", seed.email, err)
		}
	}

	admin := seedAccount("Super Admin", SeedAdminEmail, domain.RoleAdmin, "+91 98765 43210", domain.BloodOPos, 35, domain.SexMale)
	if err := s.createWithPassword(ctx, admin, SeedAdminPassword); err != nil {
		return err
	}

	staff := seedAccount("Staff Member", SeedStaffEmail, domain.RoleStaff, "+91 98765 43211", domain.BloodAPos, 28, domain.SexFemale)
	if err := s.createWithPassword(ctx, staff, s.cfg.DefaultStaffPassword); err != nil {
		return err
	}

	logger.InfoContext(ctx, "Default accounts created", "admin", SeedAdminEmail, "staff", SeedStaffEmail)
	return nil
}

func (s *authService) createWithPassword(ctx context.Context, in *domain.NewAccount, password string) error {
	hash, err := argon2id.CreateHash(password, s.params)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if _, err := s.accounts.Create(ctx, in, hash); err != nil {
		return fmt.Errorf("failed to create %s account: %w", in.Role, err)
	}
	return nil
}

func seedAccount(name, email string, role domain.Role, phone string, group domain.BloodGroup, age int, sex domain.Sex) *domain.NewAccount {
	return &domain.NewAccount{
		Name:       name,
		Email:      email,
		Role:       role,
		Phone:      phone,
		BloodGroup: &group,
		Age:        &age,
		Sex:        &sex,
	}
}
