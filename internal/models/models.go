package models

import "time"

// WildcardPermission grants every check. Seeded onto the Administrador role.
const WildcardPermission = "*:*"

type Role struct {
	ID          int          `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string       `gorm:"uniqueIndex;not null" json:"name"`
	Description string       `json:"description"`
	Permissions []Permission `gorm:"many2many:role_permissions" json:"permissions,omitempty"`
}

// Permission is a module:action capability, e.g. "financeiro:read".
type Permission struct {
	ID          int    `gorm:"primaryKey;autoIncrement" json:"id"`
	Module      string `gorm:"not null;uniqueIndex:idx_module_action" json:"module"`
	Action      string `gorm:"not null;uniqueIndex:idx_module_action" json:"action"`
	Description string `json:"description"`
}

// Key returns the permission in the module:action wire format.
func (p Permission) Key() string { return p.Module + ":" + p.Action }

type User struct {
	ID           int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	FullName     string    `json:"full_name"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	Roles        []Role    `gorm:"many2many:user_roles" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RoleNames flattens the user's roles for the /auth/me payload.
func (u User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

// PermissionKeys flattens the permissions of every role, deduplicated.
func (u User) PermissionKeys() []string {
	seen := map[string]struct{}{}
	keys := []string{}
	for _, r := range u.Roles {
		for _, p := range r.Permissions {
			k := p.Key()
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	return keys
}
