package model

// RepoTeamPermission declares the access permission granted to a team on a
// repository.
type RepoTeamPermission struct {
	TeamName   string
	Permission Permission
}

// RepoMemberPermission declares the access permission granted to an
// individual user on a repository.
type RepoMemberPermission struct {
	Username   string
	Permission Permission
}

// DeclaredRepo is a repository as written in the source-of-truth
// declaration.
type DeclaredRepo struct {
	Org               OrgName
	Name              string
	Description       string
	Homepage          *string
	Archived          bool
	AutoMergeEnabled  bool
	Teams             []RepoTeamPermission
	Members           []RepoMemberPermission
	Bots              []Bot
	BranchProtections []DeclaredBranchProtection
}

// RepoSettings is the subset of repository fields the Diff Applier writes
// with a single settings call, compared field by field by the Diff
// Renderer.
type RepoSettings struct {
	Description      string
	Homepage         *string
	Archived         bool
	AutoMergeEnabled bool
}

// Equal compares two RepoSettings by value; Homepage is compared by pointee,
// not pointer identity, since declared and observed settings are never the
// same allocation.
func (s RepoSettings) Equal(other RepoSettings) bool {
	if s.Description != other.Description || s.Archived != other.Archived || s.AutoMergeEnabled != other.AutoMergeEnabled {
		return false
	}
	if (s.Homepage == nil) != (other.Homepage == nil) {
		return false
	}
	return s.Homepage == nil || *s.Homepage == *other.Homepage
}

// ObservedRepo is a repository as currently configured on the Provider.
type ObservedRepo struct {
	Org      OrgName
	Name     string
	NodeID   string
	Settings RepoSettings
}

// ObservedRepoTeam is a team's current permission on a repository.
type ObservedRepoTeam struct {
	Name       string
	Permission Permission
}

// ObservedRepoUser is an individual collaborator's current permission on a
// repository.
type ObservedRepoUser struct {
	Name       string
	Permission Permission
}
