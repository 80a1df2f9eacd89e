package auth

import "pcprompts/internal/models"

// Level is the privilege an action requires.
type Level int

const (
	// LevelOwner: the resource owner, or any moderator/admin.
	LevelOwner Level = iota
	// LevelModerator: moderators and admins.
	LevelModerator
	// LevelAdmin: admins only.
	LevelAdmin
)

// Actor is the authenticated identity as seen by authorization checks.
type Actor struct {
	ID          uint
	IsAdmin     bool
	IsModerator bool
}

func ActorFromUser(u *models.User) *Actor {
	if u == nil {
		return nil
	}
	return &Actor{ID: u.ID, IsAdmin: u.IsAdmin, IsModerator: u.IsModerator}
}

// Privileged reports moderator-or-admin.
func (a *Actor) Privileged() bool {
	return a != nil && (a.IsAdmin || a.IsModerator)
}

// Authorize is the single ownership/role predicate. ownerID is ignored for role-only levels.
// A nil actor (anonymous) is never authorized.
func Authorize(ownerID uint, actor *Actor, required Level) bool {
	if actor == nil {
		return false
	}
	switch required {
	case LevelAdmin:
		return actor.IsAdmin
	case LevelModerator:
		return actor.Privileged()
	case LevelOwner:
		return (ownerID != 0 && ownerID == actor.ID) || actor.Privileged()
	default:
		return false
	}
}

// ApprovalAfterEdit returns the approval flag a prompt or comment keeps after actor edits it:
// privileged edits preserve it, everybody else sends the content back to review.
func ApprovalAfterEdit(previous bool, actor *Actor) bool {
	if actor.Privileged() {
		return previous
	}
	return false
}
