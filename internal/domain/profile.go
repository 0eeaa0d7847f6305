package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type EndUserStatus string

const (
	EndUserActive    EndUserStatus = "active"
	EndUserInactive  EndUserStatus = "inactive"
	EndUserSuspended EndUserStatus = "suspended"
)

type ProviderStatus string

const (
	ProviderActive          ProviderStatus = "active"
	ProviderInactive        ProviderStatus = "inactive"
	ProviderPendingApproval ProviderStatus = "pending_approval"
	ProviderSuspended       ProviderStatus = "suspended"
)

// EndUserProfile is a consumer account. Birth facts are opaque to this service.
type EndUserProfile struct {
	ID                 string          `json:"id"`
	Email              string          `json:"email"`
	DisplayName        string          `json:"display_name"`
	Phone              string          `json:"phone"`
	BirthDate          *string         `json:"birth_date,omitempty"` // YYYY-MM-DD
	BirthTime          *string         `json:"birth_time,omitempty"` // HH:MM
	BirthPlace         *string         `json:"birth_place,omitempty"`
	WalletBalance      decimal.Decimal `json:"wallet_balance"`
	TotalConsultations int             `json:"total_consultations"`
	Status             EndUserStatus   `json:"status"`
	CreatedAt          time.Time       `json:"created"`
	UpdatedAt          time.Time       `json:"updated"`
}

// RateCard holds per-minute prices for each consultation channel.
type RateCard struct {
	Chat  decimal.Decimal `json:"chat"`
	Voice decimal.Decimal `json:"voice"`
	Video decimal.Decimal `json:"video"`
}

// Validate requires every rate to be strictly positive.
func (r RateCard) Validate() error {
	rates := []struct {
		name string
		v    decimal.Decimal
	}{{"chat", r.Chat}, {"voice", r.Voice}, {"video", r.Video}}
	for _, rate := range rates {
		if !rate.v.IsPositive() {
			return fmt.Errorf("%s rate must be positive: %w", rate.name, ErrBadRequest)
		}
	}
	return nil
}

// ProviderProfile is a consultant account.
type ProviderProfile struct {
	ID          string         `json:"id"`
	Email       string         `json:"email"`
	DisplayName string         `json:"display_name"`
	Phone       string         `json:"phone"`
	Bio         *string        `json:"bio,omitempty"`
	Rates       RateCard       `json:"rates"`
	Rating      float64        `json:"rating"`
	ReviewCount int            `json:"review_count"`
	Status      ProviderStatus `json:"status"`
	Online      bool           `json:"online"`
	CreatedAt   time.Time      `json:"created"`
	UpdatedAt   time.Time      `json:"updated"`
}

// Profile is a tagged union over the two partitions. Exactly one of EndUser and
// Provider is set, matching Kind.
type Profile struct {
	Kind     AccountKind      `json:"kind"`
	EndUser  *EndUserProfile  `json:"end_user,omitempty"`
	Provider *ProviderProfile `json:"provider,omitempty"`
}

func NewEndUserProfile(p *EndUserProfile) *Profile {
	return &Profile{Kind: AccountKindEndUser, EndUser: p}
}

func NewProviderProfile(p *ProviderProfile) *Profile {
	return &Profile{Kind: AccountKindProvider, Provider: p}
}

// Validate checks that the tag and payload agree.
func (p *Profile) Validate() error {
	switch p.Kind {
	case AccountKindEndUser:
		if p.EndUser == nil || p.Provider != nil {
			return fmt.Errorf("end-user profile payload mismatch: %w", ErrBadRequest)
		}
	case AccountKindProvider:
		if p.Provider == nil || p.EndUser != nil {
			return fmt.Errorf("provider profile payload mismatch: %w", ErrBadRequest)
		}
	default:
		return fmt.Errorf("unknown profile kind %q: %w", p.Kind, ErrBadRequest)
	}
	return nil
}

func (p *Profile) ID() string {
	if p.Provider != nil {
		return p.Provider.ID
	}
	if p.EndUser != nil {
		return p.EndUser.ID
	}
	return ""
}

func (p *Profile) Email() string {
	if p.Provider != nil {
		return p.Provider.Email
	}
	if p.EndUser != nil {
		return p.EndUser.Email
	}
	return ""
}

func (p *Profile) DisplayName() string {
	if p.Provider != nil {
		return p.Provider.DisplayName
	}
	if p.EndUser != nil {
		return p.EndUser.DisplayName
	}
	return ""
}

// SignUpRequest carries the fields shared by both signup flows.
type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	FullName string `json:"full_name" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
}

type SignUpEndUserRequest struct {
	SignUpRequest
	BirthDate  *string `json:"birth_date"`
	BirthTime  *string `json:"birth_time"`
	BirthPlace *string `json:"birth_place"`
}

type SignUpProviderRequest struct {
	SignUpRequest
	DisplayName *string          `json:"display_name"`
	Bio         *string          `json:"bio"`
	ChatRate    *decimal.Decimal `json:"chat_rate"`
	VoiceRate   *decimal.Decimal `json:"voice_rate"`
	VideoRate   *decimal.Decimal `json:"video_rate"`
}

type UpdateEndUserRequest struct {
	DisplayName *string `json:"display_name" validate:"omitempty,min=1"`
	Phone       *string `json:"phone"`
	BirthDate   *string `json:"birth_date"` // expected format: YYYY-MM-DD
	BirthTime   *string `json:"birth_time"`
	BirthPlace  *string `json:"birth_place"`
}

type UpdateProviderRequest struct {
	DisplayName *string          `json:"display_name" validate:"omitempty,min=1"`
	Phone       *string          `json:"phone"`
	Bio         *string          `json:"bio"`
	ChatRate    *decimal.Decimal `json:"chat_rate"`
	VoiceRate   *decimal.Decimal `json:"voice_rate"`
	VideoRate   *decimal.Decimal `json:"video_rate"`
	Online      *bool            `json:"online"`
}
