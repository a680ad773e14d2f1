package auth

import "errors"

var (
	// ErrOwnershipMismatch is returned when a valid token belongs to a user
	// other than the owner of the requested resource.
	ErrOwnershipMismatch = errors.New("ownership mismatch")

	// ErrNotAuthorized is returned when a non-admin calls an admin-only
	// operation.
	ErrNotAuthorized = errors.New("not authorized")
)

// Gate checks caller identity and resource ownership before any
// owner-scoped store access.
type Gate struct {
	tokens        *TokenService
	adminUsername string
}

func NewGate(tokens *TokenService, adminUsername string) *Gate {
	return &Gate{tokens: tokens, adminUsername: adminUsername}
}

// Authorize validates token and requires its user id to equal ownerID.
func (g *Gate) Authorize(token string, ownerID int) (Identity, error) {
	identity, err := g.tokens.Validate(token)
	if err != nil {
		return Identity{}, err
	}
	if identity.UserID != ownerID {
		return Identity{}, ErrOwnershipMismatch
	}
	return identity, nil
}

// AuthorizeAdmin validates token and requires the administrator username.
func (g *Gate) AuthorizeAdmin(token string) (Identity, error) {
	identity, err := g.tokens.Validate(token)
	if err != nil {
		return Identity{}, err
	}
	if g.adminUsername == "" || identity.Username != g.adminUsername {
		return Identity{}, ErrNotAuthorized
	}
	return identity, nil
}
