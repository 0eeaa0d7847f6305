package signup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-consult-auth/internal/application/profile"
	"github.com/go-consult-auth/internal/domain"
	"github.com/go-consult-auth/internal/pkg/validate"
	"github.com/shopspring/decimal"
)

// Default per-minute rates for a new provider.
var (
	defaultChatRate  = decimal.NewFromInt(15)
	defaultVoiceRate = decimal.NewFromInt(20)
	defaultVideoRate = decimal.NewFromInt(25)
)

type registrar interface {
	Register(ctx context.Context, email, password string) (domain.Identity, error)
	Remove(ctx context.Context, identityID string) error
}

type endUserStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.EndUserProfile, error)
	Create(ctx context.Context, p *domain.EndUserProfile) error
}

type providerStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.ProviderProfile, error)
	Create(ctx context.Context, p *domain.ProviderProfile) error
}

type Service interface {
	SignUpEndUser(ctx context.Context, req domain.SignUpEndUserRequest) (*domain.EndUserProfile, error)
	SignUpProvider(ctx context.Context, req domain.SignUpProviderRequest) (*domain.ProviderProfile, error)
}

type ServiceDeps struct {
	Credentials registrar
	EndUsers    endUserStore
	Providers   providerStore
	Now         func() time.Time
}

type service struct {
	credentials registrar
	endUsers    endUserStore
	providers   providerStore
	now         func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{credentials: deps.Credentials, endUsers: deps.EndUsers, providers: deps.Providers, now: now}
}

// checkCommon validates the shared fields and that neither partition already
// holds the email.
func (s *service) checkCommon(ctx context.Context, req *domain.SignUpRequest) error {
	req.Email = domain.NormalizeEmail(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	phone, err := profile.NormalizePhone(req.Phone)
	if err != nil {
		return err
	}
	req.Phone = phone

	if _, err := s.endUsers.GetByEmail(ctx, req.Email); err == nil {
		return fmt.Errorf("email already registered: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if _, err := s.providers.GetByEmail(ctx, req.Email); err == nil {
		return fmt.Errorf("email already registered: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

// rollback removes a credential whose profile could not be written.
func (s *service) rollback(ctx context.Context, ident domain.Identity, cause error) {
	if err := s.credentials.Remove(ctx, ident.ID); err != nil {
		slog.Warn("failed to roll back credential after profile write failure",
			"identity_id", ident.ID, "email", ident.Email, "cause", cause, "err", err)
	}
}

func (s *service) SignUpEndUser(ctx context.Context, req domain.SignUpEndUserRequest) (*domain.EndUserProfile, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if req.BirthDate != nil {
		if err := profile.CheckBirthDate(*req.BirthDate, s.now()); err != nil {
			return nil, err
		}
	}
	if err := s.checkCommon(ctx, &req.SignUpRequest); err != nil {
		return nil, err
	}

	ident, err := s.credentials.Register(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	p := &domain.EndUserProfile{
		ID:            ident.ID,
		Email:         ident.Email,
		DisplayName:   req.FullName,
		Phone:         req.Phone,
		BirthDate:     req.BirthDate,
		BirthTime:     req.BirthTime,
		BirthPlace:    req.BirthPlace,
		WalletBalance: decimal.Zero,
		Status:        domain.EndUserActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.endUsers.Create(ctx, p); err != nil {
		s.rollback(ctx, ident, err)
		return nil, fmt.Errorf("create end user profile: %w", err)
	}
	return p, nil
}

func (s *service) SignUpProvider(ctx context.Context, req domain.SignUpProviderRequest) (*domain.ProviderProfile, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	rates := domain.RateCard{Chat: defaultChatRate, Voice: defaultVoiceRate, Video: defaultVideoRate}
	if req.ChatRate != nil {
		rates.Chat = *req.ChatRate
	}
	if req.VoiceRate != nil {
		rates.Voice = *req.VoiceRate
	}
	if req.VideoRate != nil {
		rates.Video = *req.VideoRate
	}
	if err := rates.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkCommon(ctx, &req.SignUpRequest); err != nil {
		return nil, err
	}

	display := req.FullName
	if req.DisplayName != nil && strings.TrimSpace(*req.DisplayName) != "" {
		display = strings.TrimSpace(*req.DisplayName)
	}

	ident, err := s.credentials.Register(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	p := &domain.ProviderProfile{
		ID:          ident.ID,
		Email:       ident.Email,
		DisplayName: display,
		Phone:       req.Phone,
		Bio:         req.Bio,
		Rates:       rates,
		Status:      domain.ProviderPendingApproval,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.providers.Create(ctx, p); err != nil {
		s.rollback(ctx, ident, err)
		return nil, fmt.Errorf("create provider profile: %w", err)
	}
	return p, nil
}
