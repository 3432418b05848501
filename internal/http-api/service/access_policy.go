package service

import (
	"context"
	"fmt"

	"circdesk/internal/http-api/models"
	"circdesk/internal/http-api/repository"
)

// AccessPolicy resolves a requestor id to a user and enforces role rules.
// Every manager method runs exactly one of its checks (or Requestor for
// public reads) before touching entity state.
type AccessPolicy struct {
	users repository.UserRepository
}

func NewAccessPolicy(users repository.UserRepository) *AccessPolicy {
	return &AccessPolicy{users: users}
}

// Requestor resolves the requestor id, failing with ErrAuthenticationFailed
// when it does not name a user.
func (p *AccessPolicy) Requestor(ctx context.Context, requestorID string) (*models.User, error) {
	user, err := p.users.FindByID(ctx, requestorID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user not found", ErrAuthenticationFailed)
	}
	return user, nil
}

// RequireStaff resolves the requestor and fails unless they hold the STAFF role.
func (p *AccessPolicy) RequireStaff(ctx context.Context, requestorID string) (*models.User, error) {
	requestor, err := p.Requestor(ctx, requestorID)
	if err != nil {
		return nil, err
	}
	if !requestor.IsStaff() {
		return nil, fmt.Errorf("%w: staff access required", ErrAuthorizationFailed)
	}
	return requestor, nil
}

// RequireSelfOrStaff resolves the requestor and fails unless they are staff
// or the subject themselves.
func (p *AccessPolicy) RequireSelfOrStaff(ctx context.Context, requestorID, subjectID string) (*models.User, error) {
	requestor, err := p.Requestor(ctx, requestorID)
	if err != nil {
		return nil, err
	}
	if !requestor.IsStaff() && requestorID != subjectID {
		return nil, fmt.Errorf("%w: you can only access your own data", ErrAuthorizationFailed)
	}
	return requestor, nil
}
