package blog

import (
	"github.com/socialnomad/nomadblog/internal/auth"
	"github.com/socialnomad/nomadblog/internal/domain/user"
)

// CanMutate decides update and delete identically: owners may touch any
// post, everyone else only their own.
func CanMutate(p auth.Principal, writerID string) bool {
	return p.Role == user.RoleOwner || p.UserID == writerID
}

// CanBackup gates both backup and restore. Owner only, no finer grain.
func CanBackup(p auth.Principal) bool {
	return p.Role == user.RoleOwner
}
