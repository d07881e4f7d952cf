package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"

	"github.com/diagnosis/lifesave-bloodbank/internal/domain"
	"github.com/diagnosis/lifesave-bloodbank/internal/repo"
	"github.com/diagnosis/lifesave-bloodbank/pkg/config"
	"github.com/diagnosis/lifesave-bloodbank/pkg/events"
	"github.com/diagnosis/lifesave-bloodbank/pkg/logger"
)

// CreatedStaff is returned once on creation. DefaultPassword is set only when
// the server assigned one; the caller relays it out of band.
type CreatedStaff struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	DefaultPassword string `json:"defaultPassword,omitempty"`
}

type StaffService interface {
	List(ctx context.Context, p *domain.Principal) ([]domain.Account, error)
	Create(ctx context.Context, p *domain.Principal, in domain.StaffCreate) (*CreatedStaff, error)
	Update(ctx context.Context, p *domain.Principal, id string, in domain.StaffUpdate) (*domain.Account, error)
	Delete(ctx context.Context, p *domain.Principal, id string) error
}

type staffService struct {
	accounts repo.AccountsRepo
	eventBus events.EventBus
	cfg      config.AuthConfig
	params   *argon2id.Params
}

func NewStaffService(accounts repo.AccountsRepo, eventBus events.EventBus, cfg config.AuthConfig) StaffService {
	return &staffService{accounts: accounts, eventBus: eventBus, cfg: cfg, params: argon2id.DefaultParams}
}

var errEmailExists = domain.WithMessage(domain.ErrConflict, "Email already exists")

func (s *staffService) List(ctx context.Context, p *domain.Principal) ([]domain.Account, error) {
	if err := p.Require(domain.CapManageStaff); err != nil {
		return nil, err
	}
	staff, err := s.accounts.ListByRole(ctx, domain.RoleStaff)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	return staff, nil
}

func (s *staffService) Create(ctx context.Context, p *domain.Principal, in domain.StaffCreate) (*CreatedStaff, error) {
	if err := p.Require(domain.CapManageStaff); err != nil {
		return nil, err
	}
	na, err := in.Validate()
	if err != nil {
		return nil, err
	}

	if _, err := s.accounts.FindByEmail(ctx, na.Email); err == nil {
		return nil, errEmailExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}

	password, defaultPassword := in.Password, ""
	if password == "" {
		password = s.cfg.DefaultStaffPassword
		defaultPassword = password
	}
	hash, err := argon2id.CreateHash(password, s.params)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	acc, err := s.accounts.Create(ctx, na, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to create staff: %w", err)
	}

	logger.InfoContext(ctx, "Staff member created", "staff_id", acc.ID, "created_by", p.AccountID)
	s.publish(ctx, events.StaffCreated, events.StaffEvent{StaffID: acc.ID, Email: acc.Email, ActorID: p.AccountID, At: acc.CreatedAt})

	return &CreatedStaff{ID: acc.ID, Name: acc.Name, Email: acc.Email, DefaultPassword: defaultPassword}, nil
}

func (s *staffService) Update(ctx context.Context, p *domain.Principal, id string, in domain.StaffUpdate) (*domain.Account, error) {
	if err := p.Require(domain.CapManageStaff); err != nil {
		return nil, err
	}
	ch, err := in.Validate()
	if err != nil {
		return nil, err
	}

	if ch.Email != nil {
		existing, err := s.accounts.FindByEmail(ctx, *ch.Email)
		switch {
		case err == nil && existing.ID != id:
			return nil, errEmailExists
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return nil, fmt.Errorf("failed to check existing account: %w", err)
		}
	}

	var hash *string
	if ch.Password != nil {
		h, err := argon2id.CreateHash(*ch.Password, s.params)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		hash = &h
	}

	acc, err := s.accounts.UpdateStaff(ctx, id, ch, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to update staff: %w", err)
	}
	logger.InfoContext(ctx, "Staff member updated", "staff_id", id, "updated_by", p.AccountID)
	return acc, nil
}

func (s *staffService) Delete(ctx context.Context, p *domain.Principal, id string) error {
	if err := p.Require(domain.CapManageStaff); err != nil {
		return err
	}
	if err := s.accounts.DeleteStaff(ctx, id); err != nil {
		return fmt.Errorf("failed to delete staff: %w", err)
	}
	logger.InfoContext(ctx, "Staff member deleted", "staff_id", id, "deleted_by", p.AccountID)
	s.publish(ctx, events.StaffDeleted, events.StaffEvent{StaffID: id, ActorID: p.AccountID, At: time.Now()})
	return nil
}

func (s *staffService) publish(ctx context.Context, subject string, payload interface{}) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, subject, payload); err != nil {
		logger.ErrorContext(ctx, "Failed to publish event", "subject", subject, "error", err)
	}
}
