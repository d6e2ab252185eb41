package model

import "context"

// Read is the Provider capability the Diff Engine consumes to observe live
// state. Every method may block indefinitely and may fail with a transport
// error, which the caller propagates unchanged (§7 Transport errors).
//
// Implementations live outside the core, e.g. internal/provider/github.
type Read interface {
	// Usernames resolves a set of UserIDs to their current Provider login.
	// Every id referenced by any declared team must resolve (invariant I1);
	// a missing id is a Consistency error.
	Usernames(ctx context.Context, ids []UserID) (map[UserID]Username, error)

	// OrgOwners returns the set of UserIDs holding the organization-owner
	// role in org. Role derivation within a run treats this set as fixed
	// (invariant I2).
	OrgOwners(ctx context.Context, org OrgName) (map[UserID]struct{}, error)

	// OrgTeams lists every team in org as (name, slug) pairs.
	OrgTeams(ctx context.Context, org OrgName) ([]OrgTeamRef, error)

	// Team fetches a single team by name, or (nil, nil) if it does not
	// exist.
	Team(ctx context.Context, org OrgName, name string) (*ObservedTeam, error)

	// TeamMemberships returns the current membership roster of team, keyed
	// by UserID so the caller can remove matched members while walking the
	// declared list.
	TeamMemberships(ctx context.Context, team *ObservedTeam, org OrgName) (map[UserID]Membership, error)

	// TeamMembershipInvitations returns the set of usernames with a pending,
	// not-yet-accepted invitation to teamName in org.
	TeamMembershipInvitations(ctx context.Context, org OrgName, teamName string) (map[Username]struct{}, error)

	// Repo fetches a single repository by name, or (nil, nil) if it does
	// not exist.
	Repo(ctx context.Context, org OrgName, name string) (*ObservedRepo, error)

	// RepoTeams lists every team with direct access to a repository.
	RepoTeams(ctx context.Context, org OrgName, name string) ([]ObservedRepoTeam, error)

	// RepoCollaborators lists every individual user with direct access to a
	// repository.
	RepoCollaborators(ctx context.Context, org OrgName, name string) ([]ObservedRepoUser, error)

	// BranchProtections returns every branch protection rule currently
	// configured on a repository, keyed by pattern.
	BranchProtections(ctx context.Context, org OrgName, name string) (map[string]ObservedBranchProtection, error)

	// UsesPAT reports whether this Read capability is backed by a personal
	// access token rather than a GitHub App installation token. Branch
	// protection diffing for the designated PAT-only repository is skipped
	// when this is false (§4.1 special case).
	UsesPAT(ctx context.Context) bool
}

// OrgTeamRef is a (name, slug) pair as returned by Read.OrgTeams.
type OrgTeamRef struct {
	Name string
	Slug string
}

// Write is the Provider capability the Diff Applier issues mutations
// through. Every method may block indefinitely and may fail with a
// transport error.
type Write interface {
	CreateRepo(ctx context.Context, org OrgName, name string, settings RepoSettings) (*ObservedRepo, error)
	EditRepo(ctx context.Context, org OrgName, name string, settings RepoSettings) error

	UpdateTeamRepoPermissions(ctx context.Context, org OrgName, repo, team string, permission Permission) error
	UpdateUserRepoPermissions(ctx context.Context, org OrgName, repo, user string, permission Permission) error
	RemoveTeamFromRepo(ctx context.Context, org OrgName, repo, team string) error
	RemoveCollaboratorFromRepo(ctx context.Context, org OrgName, repo, user string) error

	// UpsertBranchProtection creates or updates a branch protection rule.
	// op distinguishes the two: CreateRepoNodeID carries the repository node
	// id, UpdateDatabaseID carries the rule's database id.
	UpsertBranchProtection(ctx context.Context, org OrgName, repo string, op BranchProtectionOp, pattern string, protection CanonicalBranchProtection) error
	DeleteBranchProtection(ctx context.Context, org OrgName, repo string, databaseID string) error

	CreateTeam(ctx context.Context, org OrgName, name, description string, privacy Privacy) error
	EditTeam(ctx context.Context, org OrgName, name string, newName, newDescription *string, newPrivacy *Privacy) error
	DeleteTeam(ctx context.Context, org OrgName, slug string) error

	SetTeamMembership(ctx context.Context, org OrgName, team, member string, role Role) error
	RemoveTeamMembership(ctx context.Context, org OrgName, team, member string) error
}

// BranchProtectionOp tags whether a branch protection write creates a new
// rule against a repository node, or updates an existing rule by database
// id.
type BranchProtectionOp struct {
	CreateRepoNodeID string // set when creating
	UpdateDatabaseID string // set when updating
}

// IsCreate reports whether this op creates a new rule.
func (op BranchProtectionOp) IsCreate() bool {
	return op.CreateRepoNodeID != ""
}
