package models

// Role controls what a member may do in a group. It has no effect on balances.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// Member is a user's membership in a group.
type Member struct {
	// UserID references User.ID.
	UserID string

	// Name and Email are copied from the user for display.
	Name  string
	Email string

	Role Role

	// JoinedAt is the Unix timestamp when the member was added.
	JoinedAt int64
}

// Group represents a named collection of members sharing expenses.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Goa Trip").
	Name string

	// CreatedBy is the user ID of the creator, who starts as the only admin.
	CreatedBy string

	// Members is the current roster, in join order.
	Members []Member

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// MemberIDs returns the user IDs of the current roster in join order.
func (g *Group) MemberIDs() []string {
	ids := make([]string, len(g.Members))
	for i, m := range g.Members {
		ids[i] = m.UserID
	}
	return ids
}

// Member returns the membership for userID, or nil.
func (g *Group) Member(userID string) *Member {
	for i := range g.Members {
		if g.Members[i].UserID == userID {
			return &g.Members[i]
		}
	}
	return nil
}

// IsMember reports whether userID is on the roster.
func (g *Group) IsMember(userID string) bool {
	return g.Member(userID) != nil
}

// IsAdmin reports whether userID is an admin of the group.
func (g *Group) IsAdmin(userID string) bool {
	m := g.Member(userID)
	return m != nil && m.Role == RoleAdmin
}
