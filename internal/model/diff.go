package model

// Diff is the single serializable hand-off between the Diff Engine and
// either the Diff Renderer or the Diff Applier. Team diffs always complete
// before repo diffs are applied (teams referenced by repo permissions must
// exist first).
type Diff struct {
	TeamDiffs []TeamDiff
	RepoDiffs []RepoDiff
}

// IsEmpty reports whether the diff carries no team diffs and no repo diffs.
// A diff whose entries are all no-ops (e.g. an archive-frozen repo update)
// is not empty by this test, even though applying it issues zero writes.
func (d Diff) IsEmpty() bool {
	return len(d.TeamDiffs) == 0 && len(d.RepoDiffs) == 0
}

// TeamDiff is one of CreateTeamDiff, EditTeamDiff or DeleteTeamDiff.
type TeamDiff interface {
	isTeamDiff()
}

// MemberDiffKind tags what must happen to a single team member.
type MemberDiffKind int

const (
	MemberNoop MemberDiffKind = iota
	MemberCreate
	MemberChangeRole
	MemberDelete
)

// MemberDiff is the change (if any) needed for one team member, keyed by
// username in EditTeamDiff.MemberDiffs.
type MemberDiff struct {
	Kind    MemberDiffKind
	OldRole Role // only meaningful for MemberChangeRole
	NewRole Role // meaningful for MemberCreate and MemberChangeRole
}

// CreateTeamDiff creates a team that does not yet exist on the Provider.
type CreateTeamDiff struct {
	Org         OrgName
	Name        string
	Description string
	Privacy     Privacy
	// Members is ordered (declaration order) and carries the resolved
	// username + derived role for each declared member.
	Members []CreateTeamMember
}

func (CreateTeamDiff) isTeamDiff() {}

// CreateTeamMember is one member to add at team-creation time.
type CreateTeamMember struct {
	Username Username
	Role     Role
}

// EditTeamDiff updates an existing team. A zero-value NameDiff/
// DescriptionDiff/PrivacyDiff pointer means that field is unchanged.
type EditTeamDiff struct {
	Org  OrgName
	Name string // the Provider's current team name, source of truth for `name_diff` comparisons is the declaration

	NameDiff        *string
	DescriptionDiff *StringChange
	PrivacyDiff     *PrivacyChange

	// MemberDiffs preserves declared-member order, followed by orphaned
	// (observed-only) members in ascending UserID order.
	MemberDiffs []NamedMemberDiff
}

func (EditTeamDiff) isTeamDiff() {}

// NamedMemberDiff pairs a username with its MemberDiff so ordering can be
// preserved in a slice instead of a map.
type NamedMemberDiff struct {
	Username Username
	Diff     MemberDiff
}

// StringChange is an old/new pair of string values.
type StringChange struct {
	Old string
	New string
}

// PrivacyChange is an old/new pair of Privacy values.
type PrivacyChange struct {
	Old Privacy
	New Privacy
}

// IsNoop reports whether the edit carries no actual change.
func (e EditTeamDiff) IsNoop() bool {
	if e.NameDiff != nil || e.DescriptionDiff != nil || e.PrivacyDiff != nil {
		return false
	}
	for _, m := range e.MemberDiffs {
		if m.Diff.Kind != MemberNoop {
			return false
		}
	}
	return true
}

// DeleteTeamDiff deletes a team absent from the declaration (the team
// delete gate of invariant I6).
type DeleteTeamDiff struct {
	Org  OrgName
	Name string
	Slug string
}

func (DeleteTeamDiff) isTeamDiff() {}

// RepoDiff is one of CreateRepoDiff or UpdateRepoDiff. There is no explicit
// Delete: repositories are never deleted by this engine.
type RepoDiff interface {
	isRepoDiff()
}

// CreateRepoDiff creates a repository that does not yet exist on the
// Provider. Archived is always forced to false regardless of the
// declaration (creating an already-archived repository is ill-defined on
// the Provider).
type CreateRepoDiff struct {
	Org               OrgName
	Name              string
	Settings          RepoSettings
	Permissions       []RepoPermissionAssignmentDiff
	BranchProtections []PatternedBranchProtection
}

func (CreateRepoDiff) isRepoDiff() {}

// PatternedBranchProtection pairs a branch pattern with the protection to
// create for it, used by CreateRepoDiff where there is no existing Provider
// state to diff against.
type PatternedBranchProtection struct {
	Pattern    string
	Protection CanonicalBranchProtection
}

// UpdateRepoDiff reconciles an existing repository's settings, permissions
// and branch protections.
type UpdateRepoDiff struct {
	Org         OrgName
	Name        string
	RepoNodeID  string
	OldSettings RepoSettings
	NewSettings RepoSettings

	PermissionDiffs       []RepoPermissionAssignmentDiff
	BranchProtectionDiffs []BranchProtectionDiff
}

func (UpdateRepoDiff) isRepoDiff() {}

// IsArchiveFreeze reports whether the repository is archived both before
// and after, in which case the update must be a strict no-op regardless of
// any other sub-diffs it carries (the fast-skip rule of §4.4 / P4).
func (u UpdateRepoDiff) IsArchiveFreeze() bool {
	return u.OldSettings.Archived && u.NewSettings.Archived
}

// IsNoop reports whether applying this update would issue zero Provider
// writes.
func (u UpdateRepoDiff) IsNoop() bool {
	if u.IsArchiveFreeze() {
		return true
	}
	return u.OldSettings.Equal(u.NewSettings) &&
		len(u.PermissionDiffs) == 0 &&
		len(u.BranchProtectionDiffs) == 0
}

// RepoCollaboratorKind tags whether a RepoPermissionAssignmentDiff targets a
// team or an individual user.
type RepoCollaboratorKind int

const (
	CollaboratorTeam RepoCollaboratorKind = iota
	CollaboratorUser
)

// RepoPermissionAssignmentDiffKind tags the kind of permission change.
type RepoPermissionAssignmentDiffKind int

const (
	PermissionCreate RepoPermissionAssignmentDiffKind = iota
	PermissionUpdate
	PermissionDelete
)

// RepoPermissionAssignmentDiff is a single team/user permission change on a
// repository, produced by the Permission Resolver in a stable order: teams,
// then bot users, then declared members, then orphans-to-delete.
type RepoPermissionAssignmentDiff struct {
	CollaboratorKind RepoCollaboratorKind
	CollaboratorName string
	Kind             RepoPermissionAssignmentDiffKind
	OldPermission    Permission // meaningful for Update and Delete
	NewPermission    Permission // meaningful for Create and Update
}

// BranchProtectionDiffKind tags a branch protection write operation.
type BranchProtectionDiffKind int

const (
	BranchProtectionCreate BranchProtectionDiffKind = iota
	BranchProtectionUpdate
	BranchProtectionDelete
)

// BranchProtectionDiff is a single branch protection rule's change.
type BranchProtectionDiff struct {
	Pattern    string
	Kind       BranchProtectionDiffKind
	DatabaseID string // meaningful for Update and Delete
	Old        CanonicalBranchProtection // meaningful for Update
	New        CanonicalBranchProtection // meaningful for Create and Update
}
