package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-consult-auth/internal/domain"
)

// challengeRetention keeps expired challenges around long enough for Verify
// to report them as expired before DynamoDB's TTL sweeper removes them.
const challengeRetention = 24 * time.Hour

// ChallengeRepo keeps at most one pending one-time code per email.
// PK: email, TTL: ttl (expires_at plus challengeRetention). Expiry itself is
// decided by the caller; the TTL only sweeps long-dead items.
type ChallengeRepo struct {
	t table
}

type challengeItem struct {
	Email     string `dynamodbav:"email"`
	Purpose   string `dynamodbav:"purpose"`
	Code      string `dynamodbav:"code"`
	IssuedAt  string `dynamodbav:"issued_at"`
	ExpiresAt string `dynamodbav:"expires_at"`
	TTL       int64  `dynamodbav:"ttl"`
}

func NewChallengeRepo(client API, tableName string) *ChallengeRepo {
	return &ChallengeRepo{t: table{client: client, name: tableName}}
}

// Put overwrites any existing challenge for the same email.
func (r *ChallengeRepo) Put(ctx context.Context, c *domain.OTPChallenge) error {
	return r.t.put(ctx, &challengeItem{
		Email:     domain.NormalizeEmail(c.Email),
		Purpose:   string(c.Purpose),
		Code:      c.Code,
		IssuedAt:  c.IssuedAt.UTC().Format(time.RFC3339Nano),
		ExpiresAt: c.ExpiresAt.UTC().Format(time.RFC3339Nano),
		TTL:       c.ExpiresAt.Add(challengeRetention).Unix(),
	}, "")
}

func (r *ChallengeRepo) Get(ctx context.Context, email string) (*domain.OTPChallenge, error) {
	var it challengeItem
	if err := r.t.get(ctx, strKey(fieldEmail, domain.NormalizeEmail(email)), &it); err != nil {
		return nil, err
	}
	issued, err := time.Parse(time.RFC3339Nano, it.IssuedAt)
	if err != nil {
		return nil, fmt.Errorf("challenge issued_at: %w", err)
	}
	expires, err := time.Parse(time.RFC3339Nano, it.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("challenge expires_at: %w", err)
	}
	return &domain.OTPChallenge{
		Email:     it.Email,
		Purpose:   domain.ChallengePurpose(it.Purpose),
		Code:      it.Code,
		IssuedAt:  issued,
		ExpiresAt: expires,
	}, nil
}

func (r *ChallengeRepo) Delete(ctx context.Context, email string) error {
	return r.t.delete(ctx, strKey(fieldEmail, domain.NormalizeEmail(email)))
}

// DeleteIfMatch removes the challenge for c.Email only while it still carries
// c's code and issue time.
func (r *ChallengeRepo) DeleteIfMatch(ctx context.Context, c *domain.OTPChallenge) error {
	_, err := r.t.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.t.name),
		Key:                 strKey(fieldEmail, domain.NormalizeEmail(c.Email)),
		ConditionExpression: aws.String("#c = :c AND #i = :i"),
		ExpressionAttributeNames: map[string]string{
			"#c": "code",
			"#i": "issued_at",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberS{Value: c.Code},
			":i": &types.AttributeValueMemberS{Value: c.IssuedAt.UTC().Format(time.RFC3339Nano)},
		},
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("%s item changed: %w", r.t.name, domain.ErrNotFound)
	}
	return err
}
