package model

// Role is the closed set of roles the blog recognizes. Stored role names are
// free strings; anything that is not Admin or Contributor maps to RoleOther.
type Role int

const (
	RoleOther Role = iota
	RoleAdmin
	RoleContributor
)

const (
	AdminRoleName       = "Admin"
	ContributorRoleName = "Contributor"
)

// ParseRole maps a stored role name onto the enum.
func ParseRole(name string) Role {
	switch name {
	case AdminRoleName:
		return RoleAdmin
	case ContributorRoleName:
		return RoleContributor
	default:
		return RoleOther
	}
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return AdminRoleName
	case RoleContributor:
		return ContributorRoleName
	case RoleOther:
		return "Other"
	}
	return "Other"
}

// CanAuthor reports whether the role may write articles.
func (r Role) CanAuthor() bool {
	switch r {
	case RoleAdmin, RoleContributor:
		return true
	case RoleOther:
		return false
	}
	return false
}

// ParseRoles maps role names onto the enum, dropping duplicates.
func ParseRoles(names []string) []Role {
	seen := make(map[Role]bool, len(names))
	roles := make([]Role, 0, len(names))
	for _, n := range names {
		r := ParseRole(n)
		if seen[r] {
			continue
		}
		seen[r] = true
		roles = append(roles, r)
	}
	return roles
}

// HasRole reports whether want is among roles.
func HasRole(roles []Role, want Role) bool {
	for _, r := range roles {
		if r == want {
			return true
		}
	}
	return false
}
