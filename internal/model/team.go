package model

// DeclaredTeam is a team as written in the source-of-truth declaration.
// Members' roles are derived, not declared (invariant I2): the declaration
// only states who belongs to the team, never at what role.
type DeclaredTeam struct {
	Org     OrgName
	Name    string
	Members []UserID
}

// Membership is an observed team member: the Provider username the role
// belongs to, and the role actually held.
type Membership struct {
	Username Username
	Role     Role
}

// ObservedTeam is a team as currently configured on the Provider. Its
// current membership roster and pending invitations are fetched separately
// through the Read capability's TeamMemberships/TeamMembershipInvitations
// methods rather than carried here, since the engine always needs a fresh
// roster at diff time, not a snapshot taken when the team itself was looked
// up.
type ObservedTeam struct {
	Org         OrgName
	Name        string
	Slug        string
	Description string
	Privacy     Privacy
}
