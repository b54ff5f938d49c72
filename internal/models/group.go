package models

// Group is a set of members sharing expenses.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Work Lunch").
	Name string

	// Description is optional free text.
	Description string

	// CreatedBy is the user ID of the member who created the group.
	CreatedBy string

	// Members lists every member, including inactive ones.
	// Inactive members keep their history and still appear in balances.
	Members []GroupMember

	// Active is false once an admin archived the group. Archived groups
	// accept no new expenses but can still be settled.
	Active bool

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// GroupMember is a user's membership in a group.
type GroupMember struct {
	UserID string

	// DisplayName is filled in from the users table on read.
	DisplayName string

	// IsAdmin members may add/remove members, delete the group, and
	// update or delete any expense in it.
	IsAdmin bool

	// Active is false once the member was removed from the group.
	Active bool

	JoinedAt int64
}

// Member returns the membership for userID.
func (g *Group) Member(userID string) (GroupMember, bool) {
	for _, m := range g.Members {
		if m.UserID == userID {
			return m, true
		}
	}
	return GroupMember{}, false
}

// IsActiveMember reports whether userID is a current member of the group.
func (g *Group) IsActiveMember(userID string) bool {
	m, ok := g.Member(userID)
	return ok && m.Active
}

// IsAdmin reports whether userID is an active admin of the group.
func (g *Group) IsAdmin(userID string) bool {
	m, ok := g.Member(userID)
	return ok && m.Active && m.IsAdmin
}

// MemberIDs returns the user IDs of all members, active or not.
func (g *Group) MemberIDs() []string {
	ids := make([]string, len(g.Members))
	for i, m := range g.Members {
		ids[i] = m.UserID
	}
	return ids
}

// ActiveMemberIDs returns the user IDs of active members.
func (g *Group) ActiveMemberIDs() []string {
	var ids []string
	for _, m := range g.Members {
		if m.Active {
			ids = append(ids, m.UserID)
		}
	}
	return ids
}
