// Package session carries the authenticated operator through a request.
//
// A Session is built by the auth middleware from a verified token and handed
// explicitly to services that need identity; nothing reads identity from
// process-wide state.
package session

import (
	"kasa-pos/internal/model"

	"github.com/google/uuid"
)

type Session struct {
	UserID       uuid.UUID
	Username     string
	Role         string
	TokenVersion string
}

// Key identifies the cart and other per-operator state.
func (s Session) Key() string {
	return s.UserID.String()
}

func (s Session) Can(privilege string) bool {
	return model.RoleHasPrivilege(s.Role, privilege)
}

func (s Session) IsAdmin() bool {
	return s.Role == model.RoleAdmin
}
