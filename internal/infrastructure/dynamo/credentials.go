package dynamo

import (
	"context"

	"github.com/go-consult-auth/internal/domain"
)

// CredentialRepo stores password credentials.
// PK: identity_id, GSI: email-index.
type CredentialRepo struct {
	t table
}

func NewCredentialRepo(client API, tableName string) *CredentialRepo {
	return &CredentialRepo{t: table{client: client, name: tableName}}
}

func (r *CredentialRepo) Create(ctx context.Context, c *domain.Credential) error {
	c.Email = domain.NormalizeEmail(c.Email)
	return r.t.put(ctx, c, "attribute_not_exists(identity_id)")
}

func (r *CredentialRepo) Get(ctx context.Context, identityID string) (*domain.Credential, error) {
	var c domain.Credential
	if err := r.t.get(ctx, strKey(fieldIdentityID, identityID), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CredentialRepo) GetByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	var c domain.Credential
	if err := r.t.queryOne(ctx, indexEmail, fieldEmail, domain.NormalizeEmail(email), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CredentialRepo) Delete(ctx context.Context, identityID string) error {
	return r.t.delete(ctx, strKey(fieldIdentityID, identityID))
}
