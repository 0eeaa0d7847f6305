package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/go-consult-auth/internal/domain"
	"github.com/shopspring/decimal"
)

// Money is stored as a decimal string so no precision is lost in the N type round-trip.

type endUserItem struct {
	IdentityID         string    `dynamodbav:"identity_id"`
	Email              string    `dynamodbav:"email"`
	DisplayName        string    `dynamodbav:"display_name"`
	Phone              string    `dynamodbav:"phone"`
	BirthDate          *string   `dynamodbav:"birth_date,omitempty"`
	BirthTime          *string   `dynamodbav:"birth_time,omitempty"`
	BirthPlace         *string   `dynamodbav:"birth_place,omitempty"`
	WalletBalance      string    `dynamodbav:"wallet_balance"`
	TotalConsultations int       `dynamodbav:"total_consultations"`
	Status             string    `dynamodbav:"status"`
	CreatedAt          time.Time `dynamodbav:"created_at"`
	UpdatedAt          time.Time `dynamodbav:"updated_at"`
}

func endUserToItem(p *domain.EndUserProfile) *endUserItem {
	return &endUserItem{
		IdentityID:         p.ID,
		Email:              domain.NormalizeEmail(p.Email),
		DisplayName:        p.DisplayName,
		Phone:              p.Phone,
		BirthDate:          p.BirthDate,
		BirthTime:          p.BirthTime,
		BirthPlace:         p.BirthPlace,
		WalletBalance:      p.WalletBalance.String(),
		TotalConsultations: p.TotalConsultations,
		Status:             string(p.Status),
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

func (it *endUserItem) toDomain() (*domain.EndUserProfile, error) {
	balance, err := parseMoney(it.WalletBalance)
	if err != nil {
		return nil, fmt.Errorf("end user %s wallet_balance: %w", it.IdentityID, err)
	}
	return &domain.EndUserProfile{
		ID:                 it.IdentityID,
		Email:              it.Email,
		DisplayName:        it.DisplayName,
		Phone:              it.Phone,
		BirthDate:          it.BirthDate,
		BirthTime:          it.BirthTime,
		BirthPlace:         it.BirthPlace,
		WalletBalance:      balance,
		TotalConsultations: it.TotalConsultations,
		Status:             domain.EndUserStatus(it.Status),
		CreatedAt:          it.CreatedAt,
		UpdatedAt:          it.UpdatedAt,
	}, nil
}

type providerItem struct {
	IdentityID  string    `dynamodbav:"identity_id"`
	Email       string    `dynamodbav:"email"`
	DisplayName string    `dynamodbav:"display_name"`
	Phone       string    `dynamodbav:"phone"`
	Bio         *string   `dynamodbav:"bio,omitempty"`
	ChatRate    string    `dynamodbav:"chat_rate"`
	VoiceRate   string    `dynamodbav:"voice_rate"`
	VideoRate   string    `dynamodbav:"video_rate"`
	Rating      float64   `dynamodbav:"rating"`
	ReviewCount int       `dynamodbav:"review_count"`
	Status      string    `dynamodbav:"status"`
	Online      bool      `dynamodbav:"online"`
	CreatedAt   time.Time `dynamodbav:"created_at"`
	UpdatedAt   time.Time `dynamodbav:"updated_at"`
}

func providerToItem(p *domain.ProviderProfile) *providerItem {
	return &providerItem{
		IdentityID:  p.ID,
		Email:       domain.NormalizeEmail(p.Email),
		DisplayName: p.DisplayName,
		Phone:       p.Phone,
		Bio:         p.Bio,
		ChatRate:    p.Rates.Chat.String(),
		VoiceRate:   p.Rates.Voice.String(),
		VideoRate:   p.Rates.Video.String(),
		Rating:      p.Rating,
		ReviewCount: p.ReviewCount,
		Status:      string(p.Status),
		Online:      p.Online,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (it *providerItem) toDomain() (*domain.ProviderProfile, error) {
	var rates domain.RateCard
	var err error
	if rates.Chat, err = parseMoney(it.ChatRate); err != nil {
		return nil, fmt.Errorf("provider %s chat_rate: %w", it.IdentityID, err)
	}
	if rates.Voice, err = parseMoney(it.VoiceRate); err != nil {
		return nil, fmt.Errorf("provider %s voice_rate: %w", it.IdentityID, err)
	}
	if rates.Video, err = parseMoney(it.VideoRate); err != nil {
		return nil, fmt.Errorf("provider %s video_rate: %w", it.IdentityID, err)
	}
	return &domain.ProviderProfile{
		ID:          it.IdentityID,
		Email:       it.Email,
		DisplayName: it.DisplayName,
		Phone:       it.Phone,
		Bio:         it.Bio,
		Rates:       rates,
		Rating:      it.Rating,
		ReviewCount: it.ReviewCount,
		Status:      domain.ProviderStatus(it.Status),
		Online:      it.Online,
		CreatedAt:   it.CreatedAt,
		UpdatedAt:   it.UpdatedAt,
	}, nil
}

func parseMoney(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// EndUserRepo provides typed DynamoDB operations for the end-user profile partition.
// PK: identity_id, GSI: email-index.
type EndUserRepo struct {
	t table
}

func NewEndUserRepo(client API, tableName string) *EndUserRepo {
	return &EndUserRepo{t: table{client: client, name: tableName}}
}

// Create inserts a new profile; an existing row for the identity is a conflict.
func (r *EndUserRepo) Create(ctx context.Context, p *domain.EndUserProfile) error {
	return r.t.put(ctx, endUserToItem(p), "attribute_not_exists(identity_id)")
}

func (r *EndUserRepo) GetByID(ctx context.Context, identityID string) (*domain.EndUserProfile, error) {
	var it endUserItem
	if err := r.t.get(ctx, strKey(fieldIdentityID, identityID), &it); err != nil {
		return nil, err
	}
	return it.toDomain()
}

func (r *EndUserRepo) GetByEmail(ctx context.Context, email string) (*domain.EndUserProfile, error) {
	var it endUserItem
	if err := r.t.queryOne(ctx, indexEmail, fieldEmail, domain.NormalizeEmail(email), &it); err != nil {
		return nil, err
	}
	return it.toDomain()
}

func (r *EndUserRepo) Update(ctx context.Context, identityID string, updates map[string]interface{}) error {
	return r.t.update(ctx, strKey(fieldIdentityID, identityID), fieldIdentityID, updates)
}

// ProviderRepo provides typed DynamoDB operations for the provider profile partition.
// PK: identity_id, GSI: email-index.
type ProviderRepo struct {
	t table
}

func NewProviderRepo(client API, tableName string) *ProviderRepo {
	return &ProviderRepo{t: table{client: client, name: tableName}}
}

func (r *ProviderRepo) Create(ctx context.Context, p *domain.ProviderProfile) error {
	return r.t.put(ctx, providerToItem(p), "attribute_not_exists(identity_id)")
}

func (r *ProviderRepo) GetByID(ctx context.Context, identityID string) (*domain.ProviderProfile, error) {
	var it providerItem
	if err := r.t.get(ctx, strKey(fieldIdentityID, identityID), &it); err != nil {
		return nil, err
	}
	return it.toDomain()
}

func (r *ProviderRepo) GetByEmail(ctx context.Context, email string) (*domain.ProviderProfile, error) {
	var it providerItem
	if err := r.t.queryOne(ctx, indexEmail, fieldEmail, domain.NormalizeEmail(email), &it); err != nil {
		return nil, err
	}
	return it.toDomain()
}

func (r *ProviderRepo) Update(ctx context.Context, identityID string, updates map[string]interface{}) error {
	return r.t.update(ctx, strKey(fieldIdentityID, identityID), fieldIdentityID, updates)
}
