package profile

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-consult-auth/internal/domain"
	"github.com/go-consult-auth/internal/infrastructure/dynamo"
	"github.com/go-consult-auth/internal/pkg/validate"
	"github.com/shopspring/decimal"
)

var phonePattern = regexp.MustCompile(`^[+]?[0-9]{10,15}$`)

const (
	minAge = 13
	maxAge = 120
)

type endUserStore interface {
	GetByID(ctx context.Context, identityID string) (*domain.EndUserProfile, error)
	Update(ctx context.Context, identityID string, updates map[string]interface{}) error
}

type providerStore interface {
	GetByID(ctx context.Context, identityID string) (*domain.ProviderProfile, error)
	Update(ctx context.Context, identityID string, updates map[string]interface{}) error
}

// Service edits the caller's own profile row.
type Service interface {
	UpdateEndUser(ctx context.Context, identityID string, req domain.UpdateEndUserRequest) (*domain.EndUserProfile, error)
	UpdateProvider(ctx context.Context, identityID string, req domain.UpdateProviderRequest) (*domain.ProviderProfile, error)
}

type ServiceDeps struct {
	EndUsers  endUserStore
	Providers providerStore
	Now       func() time.Time // defaults to time.Now
}

type service struct {
	endUsers  endUserStore
	providers providerStore
	now       func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{endUsers: deps.EndUsers, providers: deps.Providers, now: now}
}

func (s *service) UpdateEndUser(ctx context.Context, identityID string, req domain.UpdateEndUserRequest) (*domain.EndUserProfile, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if req.DisplayName != nil {
		updates[dynamo.FieldDisplayName] = strings.TrimSpace(*req.DisplayName)
	}
	if req.Phone != nil {
		phone, err := NormalizePhone(*req.Phone)
		if err != nil {
			return nil, err
		}
		updates[dynamo.FieldPhone] = phone
	}
	if req.BirthDate != nil {
		if err := CheckBirthDate(*req.BirthDate, s.now()); err != nil {
			return nil, err
		}
		updates[dynamo.FieldBirthDate] = *req.BirthDate
	}
	if req.BirthTime != nil {
		updates[dynamo.FieldBirthTime] = *req.BirthTime
	}
	if req.BirthPlace != nil {
		updates[dynamo.FieldBirthPlace] = *req.BirthPlace
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("no fields to update: %w", domain.ErrBadRequest)
	}
	if err := s.endUsers.Update(ctx, identityID, updates); err != nil {
		return nil, err
	}
	return s.endUsers.GetByID(ctx, identityID)
}

func (s *service) UpdateProvider(ctx context.Context, identityID string, req domain.UpdateProviderRequest) (*domain.ProviderProfile, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if req.DisplayName != nil {
		updates[dynamo.FieldDisplayName] = strings.TrimSpace(*req.DisplayName)
	}
	if req.Phone != nil {
		phone, err := NormalizePhone(*req.Phone)
		if err != nil {
			return nil, err
		}
		updates[dynamo.FieldPhone] = phone
	}
	if req.Bio != nil {
		updates[dynamo.FieldBio] = *req.Bio
	}
	rates := []struct {
		field, name string
		v           *decimal.Decimal
	}{
		{dynamo.FieldChatRate, "chat", req.ChatRate},
		{dynamo.FieldVoiceRate, "voice", req.VoiceRate},
		{dynamo.FieldVideoRate, "video", req.VideoRate},
	}
	for _, r := range rates {
		if r.v == nil {
			continue
		}
		if !r.v.IsPositive() {
			return nil, fmt.Errorf("%s rate must be positive: %w", r.name, domain.ErrBadRequest)
		}
		updates[r.field] = r.v.String()
	}
	if req.Online != nil {
		updates[dynamo.FieldOnline] = *req.Online
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("no fields to update: %w", domain.ErrBadRequest)
	}
	if err := s.providers.Update(ctx, identityID, updates); err != nil {
		return nil, err
	}
	return s.providers.GetByID(ctx, identityID)
}

// NormalizePhone strips whitespace and checks the result is 10-15 digits with
// an optional leading +.
func NormalizePhone(raw string) (string, error) {
	phone := strings.Join(strings.Fields(raw), "")
	if !phonePattern.MatchString(phone) {
		return "", fmt.Errorf("invalid phone number: %w", domain.ErrBadRequest)
	}
	return phone, nil
}

// CheckBirthDate requires YYYY-MM-DD and an age between 13 and 120 at now.
func CheckBirthDate(date string, now time.Time) error {
	dob, err := time.Parse("2006-01-02", date)
	if err != nil {
		return fmt.Errorf("birth date must be YYYY-MM-DD: %w", domain.ErrBadRequest)
	}
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	if age < minAge || age > maxAge {
		return fmt.Errorf("age must be between %d and %d: %w", minAge, maxAge, domain.ErrBadRequest)
	}
	return nil
}
