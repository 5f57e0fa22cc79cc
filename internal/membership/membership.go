// Package membership is the boundary to the club-membership collaborator.
// The joining/approval workflow lives outside this service; the only fact the
// core consumes is whether a user is currently allowed to register.
package membership

import (
	"context"

	id "rollcall/pkg/domain"
)

// Checker answers the single membership question admission depends on.
type Checker interface {
	IsEligibleToRegister(ctx context.Context, userID id.UserID) (bool, error)
}

// AllowAll is the development default when no membership collaborator is
// configured: every user may register.
type AllowAll struct{}

// IsEligibleToRegister always answers yes.
func (AllowAll) IsEligibleToRegister(_ context.Context, _ id.UserID) (bool, error) {
	return true, nil
}
