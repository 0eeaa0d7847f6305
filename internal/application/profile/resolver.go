package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-consult-auth/internal/domain"
)

// Partition is one account-kind slice of the profile store. A miss must wrap
// domain.ErrNotFound; any other error is a store failure.
type Partition interface {
	GetByEmail(ctx context.Context, email string) (*domain.Profile, error)
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
}

// Resolver finds the profile behind an identity across both partitions.
type Resolver struct {
	partitions map[domain.AccountKind]Partition
}

func NewResolver(endUsers, providers Partition) *Resolver {
	return &Resolver{partitions: map[domain.AccountKind]Partition{
		domain.AccountKindEndUser:  endUsers,
		domain.AccountKindProvider: providers,
	}}
}

type lookup struct {
	kind  domain.AccountKind
	field string
	run   func(context.Context, Partition) (*domain.Profile, error)
}

// Resolve tries, in order: the hinted partition by email, the hinted partition
// by id, the other partition by email, the other partition by id. The first
// hit wins and reports the kind of the partition it came from. A store error
// aborts immediately with ErrResolution; it is never read as a miss.
// An empty hint means end user.
func (r *Resolver) Resolve(ctx context.Context, identity domain.Identity, email string, hinted domain.AccountKind) (*domain.Profile, error) {
	if !hinted.Valid() {
		hinted = domain.AccountKindEndUser
	}
	if email == "" {
		email = identity.Email
	}
	byEmail := func(ctx context.Context, p Partition) (*domain.Profile, error) { return p.GetByEmail(ctx, email) }
	byID := func(ctx context.Context, p Partition) (*domain.Profile, error) { return p.GetByID(ctx, identity.ID) }

	steps := []lookup{
		{hinted, "email", byEmail},
		{hinted, "id", byID},
		{hinted.Other(), "email", byEmail},
		{hinted.Other(), "id", byID},
	}
	for _, step := range steps {
		if step.field == "email" && email == "" {
			continue
		}
		if step.field == "id" && identity.ID == "" {
			continue
		}
		p, err := step.run(ctx, r.partitions[step.kind])
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s by %s: %w", domain.ErrResolution, step.kind, step.field, err)
		}
		if p == nil {
			continue
		}
		if p.Kind == "" {
			p.Kind = step.kind
		}
		return p, nil
	}
	return nil, domain.ErrProfileNotFound
}

type endUserSource interface {
	GetByEmail(ctx context.Context, email string) (*domain.EndUserProfile, error)
	GetByID(ctx context.Context, identityID string) (*domain.EndUserProfile, error)
}

type providerSource interface {
	GetByEmail(ctx context.Context, email string) (*domain.ProviderProfile, error)
	GetByID(ctx context.Context, identityID string) (*domain.ProviderProfile, error)
}

type endUserPartition struct{ src endUserSource }

// EndUsers adapts a typed end-user repo to a Partition.
func EndUsers(src endUserSource) Partition { return endUserPartition{src} }

func (p endUserPartition) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	return wrapEndUser(p.src.GetByEmail(ctx, email))
}

func (p endUserPartition) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	return wrapEndUser(p.src.GetByID(ctx, id))
}

func wrapEndUser(u *domain.EndUserProfile, err error) (*domain.Profile, error) {
	if err != nil {
		return nil, err
	}
	return domain.NewEndUserProfile(u), nil
}

type providerPartition struct{ src providerSource }

// Providers adapts a typed provider repo to a Partition.
func Providers(src providerSource) Partition { return providerPartition{src} }

func (p providerPartition) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	return wrapProvider(p.src.GetByEmail(ctx, email))
}

func (p providerPartition) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	return wrapProvider(p.src.GetByID(ctx, id))
}

func wrapProvider(pp *domain.ProviderProfile, err error) (*domain.Profile, error) {
	if err != nil {
		return nil, err
	}
	return domain.NewProviderProfile(pp), nil
}
