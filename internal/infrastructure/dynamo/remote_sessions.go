package dynamo

import (
	"context"
	"fmt"

	"github.com/go-consult-auth/internal/domain"
)

// RemoteSessionRepo provides typed DynamoDB operations for the remote_sessions table.
// PK: session_id, GSI: identity_id-index, TTL: expires_at.
type RemoteSessionRepo struct {
	t table
}

func NewRemoteSessionRepo(client API, tableName string) *RemoteSessionRepo {
	return &RemoteSessionRepo{t: table{client: client, name: tableName}}
}

func (r *RemoteSessionRepo) Put(ctx context.Context, s *domain.RemoteSession) error {
	return r.t.put(ctx, s, "")
}

func (r *RemoteSessionRepo) Get(ctx context.Context, sessionID string) (*domain.RemoteSession, error) {
	var s domain.RemoteSession
	if err := r.t.get(ctx, strKey(fieldSessionID, sessionID), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Disable soft-deletes a session so later token checks reject it.
func (r *RemoteSessionRepo) Disable(ctx context.Context, sessionID string) error {
	if err := r.t.update(ctx, strKey(fieldSessionID, sessionID), fieldSessionID, map[string]interface{}{fieldEnable: false}); err != nil {
		return fmt.Errorf("disable session %s: %w", sessionID, err)
	}
	return nil
}
