package profile

import (
	"context"
	"testing"
	"time"

	"github.com/go-consult-auth/internal/domain"
	"github.com/go-consult-auth/internal/infrastructure/dynamo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockEndUserStore struct{ mock.Mock }

func (m *mockEndUserStore) GetByID(ctx context.Context, id string) (*domain.EndUserProfile, error) {
	args := m.Called(ctx, id)
	if p, _ := args.Get(0).(*domain.EndUserProfile); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockEndUserStore) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	return m.Called(ctx, id, updates).Error(0)
}

type mockProviderStore struct{ mock.Mock }

func (m *mockProviderStore) GetByID(ctx context.Context, id string) (*domain.ProviderProfile, error) {
	args := m.Called(ctx, id)
	if p, _ := args.Get(0).(*domain.ProviderProfile); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockProviderStore) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	return m.Called(ctx, id, updates).Error(0)
}

var fixedNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func newSvc(eu *mockEndUserStore, pr *mockProviderStore) Service {
	return NewService(ServiceDeps{EndUsers: eu, Providers: pr, Now: func() time.Time { return fixedNow }})
}

func strPtr(s string) *string { return &s }

func TestUpdateEndUser_WritesNormalizedFields(t *testing.T) {
	eu := new(mockEndUserStore)
	eu.On("Update", mock.Anything, "u1", map[string]interface{}{
		dynamo.FieldPhone:     "+919876543210",
		dynamo.FieldBirthDate: "1990-06-15",
	}).Return(nil)
	eu.On("GetByID", mock.Anything, "u1").Return(&domain.EndUserProfile{ID: "u1"}, nil)

	p, err := newSvc(eu, nil).UpdateEndUser(context.Background(), "u1", domain.UpdateEndUserRequest{
		Phone:     strPtr("+91 98765 43210"),
		BirthDate: strPtr("1990-06-15"),
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", p.ID)
	eu.AssertExpectations(t)
}

func TestUpdateEndUser_Rejects(t *testing.T) {
	cases := []struct {
		name string
		req  domain.UpdateEndUserRequest
	}{
		{"short phone", domain.UpdateEndUserRequest{Phone: strPtr("12345")}},
		{"letters in phone", domain.UpdateEndUserRequest{Phone: strPtr("+1555abc0000")}},
		{"bad date", domain.UpdateEndUserRequest{BirthDate: strPtr("15/06/1990")}},
		{"too young", domain.UpdateEndUserRequest{BirthDate: strPtr("2014-01-01")}},
		{"too old", domain.UpdateEndUserRequest{BirthDate: strPtr("1900-01-01")}},
		{"empty", domain.UpdateEndUserRequest{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			eu := new(mockEndUserStore)
			_, err := newSvc(eu, nil).UpdateEndUser(context.Background(), "u1", tc.req)
			assert.ErrorIs(t, err, domain.ErrBadRequest)
			eu.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCheckBirthDate_Boundary(t *testing.T) {
	// turns 13 exactly today
	assert.NoError(t, CheckBirthDate("2013-06-15", fixedNow))
	// turns 13 tomorrow
	assert.ErrorIs(t, CheckBirthDate("2013-06-16", fixedNow), domain.ErrBadRequest)
}

func TestUpdateProvider_RatesStoredAsStrings(t *testing.T) {
	pr := new(mockProviderStore)
	chat := decimal.RequireFromString("18.50")
	online := true
	pr.On("Update", mock.Anything, "p1", map[string]interface{}{
		dynamo.FieldChatRate: "18.5",
		dynamo.FieldOnline:   true,
	}).Return(nil)
	pr.On("GetByID", mock.Anything, "p1").Return(&domain.ProviderProfile{ID: "p1"}, nil)

	_, err := newSvc(nil, pr).UpdateProvider(context.Background(), "p1", domain.UpdateProviderRequest{
		ChatRate: &chat,
		Online:   &online,
	})
	require.NoError(t, err)
	pr.AssertExpectations(t)
}

func TestUpdateProvider_NonPositiveRate(t *testing.T) {
	pr := new(mockProviderStore)
	zero := decimal.Zero
	_, err := newSvc(nil, pr).UpdateProvider(context.Background(), "p1", domain.UpdateProviderRequest{VideoRate: &zero})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	pr.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateProvider_MissingRowIsNotFound(t *testing.T) {
	pr := new(mockProviderStore)
	pr.On("Update", mock.Anything, "p1", mock.Anything).Return(domain.ErrNotFound)

	_, err := newSvc(nil, pr).UpdateProvider(context.Background(), "p1", domain.UpdateProviderRequest{Bio: strPtr("hi")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
