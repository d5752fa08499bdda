package http

import (
	"errors"

	"github.com/karloscodes/cartridge"

	"jpsystems/internal/users"
)

var errNotAdmin = errors.New("administrator role required")

// sessionUser loads the user behind the current session.
func sessionUser(ctx *cartridge.Context) (*users.User, error) {
	userID, authenticated := ctx.Session.GetUserID(ctx.Ctx)
	if !authenticated {
		return nil, errors.New("authentication required")
	}
	return users.FindByID(ctx.DB(), userID)
}

// adminUser loads the session user and rejects non-admin roles. Route-level
// session middleware already guarantees authentication; this adds the role
// check for management actions.
func adminUser(ctx *cartridge.Context) (*users.User, error) {
	user, err := sessionUser(ctx)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, errNotAdmin
	}
	return user, nil
}
