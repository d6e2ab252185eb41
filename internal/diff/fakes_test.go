package diff

import (
	"context"

	"github.com/rust-team-sync/orgsync/internal/model"
)

// fakeRead is an in-memory model.Read fake, grounded on the teacher's
// GoliacRemoteMock pattern: a plain struct holding canned maps, methods
// returning them directly with no network calls.
type fakeRead struct {
	usernames map[model.UserID]model.Username
	owners    map[model.OrgName]map[model.UserID]struct{}
	orgTeams  map[model.OrgName][]model.OrgTeamRef
	teams     map[string]*model.ObservedTeam // key "org/name"
	memberships map[string]map[model.UserID]model.Membership
	invitations map[string]map[model.Username]struct{}
	repos          map[string]*model.ObservedRepo
	repoTeams      map[string][]model.ObservedRepoTeam
	repoCollabs    map[string][]model.ObservedRepoUser
	branchProtects map[string]map[string]model.ObservedBranchProtection
	usesPAT        bool
}

func newFakeRead() *fakeRead {
	return &fakeRead{
		usernames:      map[model.UserID]model.Username{},
		owners:         map[model.OrgName]map[model.UserID]struct{}{},
		orgTeams:       map[model.OrgName][]model.OrgTeamRef{},
		teams:          map[string]*model.ObservedTeam{},
		memberships:    map[string]map[model.UserID]model.Membership{},
		invitations:    map[string]map[model.Username]struct{}{},
		repos:          map[string]*model.ObservedRepo{},
		repoTeams:      map[string][]model.ObservedRepoTeam{},
		repoCollabs:    map[string][]model.ObservedRepoUser{},
		branchProtects: map[string]map[string]model.ObservedBranchProtection{},
	}
}

func key(org model.OrgName, name string) string {
	return string(org) + "/" + name
}

func (f *fakeRead) Usernames(ctx context.Context, ids []model.UserID) (map[model.UserID]model.Username, error) {
	out := make(map[model.UserID]model.Username, len(ids))
	for _, id := range ids {
		if name, ok := f.usernames[id]; ok {
			out[id] = name
		}
	}
	return out, nil
}

func (f *fakeRead) OrgOwners(ctx context.Context, org model.OrgName) (map[model.UserID]struct{}, error) {
	if owners, ok := f.owners[org]; ok {
		return owners, nil
	}
	return map[model.UserID]struct{}{}, nil
}

func (f *fakeRead) OrgTeams(ctx context.Context, org model.OrgName) ([]model.OrgTeamRef, error) {
	return f.orgTeams[org], nil
}

func (f *fakeRead) Team(ctx context.Context, org model.OrgName, name string) (*model.ObservedTeam, error) {
	return f.teams[key(org, name)], nil
}

func (f *fakeRead) TeamMemberships(ctx context.Context, team *model.ObservedTeam, org model.OrgName) (map[model.UserID]model.Membership, error) {
	// Copy so the engine's in-place `delete` doesn't corrupt the fixture
	// across test assertions.
	src := f.memberships[key(org, team.Name)]
	out := make(map[model.UserID]model.Membership, len(src))
	for id, m := range src {
		out[id] = m
	}
	return out, nil
}

func (f *fakeRead) TeamMembershipInvitations(ctx context.Context, org model.OrgName, teamName string) (map[model.Username]struct{}, error) {
	return f.invitations[key(org, teamName)], nil
}

func (f *fakeRead) Repo(ctx context.Context, org model.OrgName, name string) (*model.ObservedRepo, error) {
	return f.repos[key(org, name)], nil
}

func (f *fakeRead) RepoTeams(ctx context.Context, org model.OrgName, name string) ([]model.ObservedRepoTeam, error) {
	return f.repoTeams[key(org, name)], nil
}

func (f *fakeRead) RepoCollaborators(ctx context.Context, org model.OrgName, name string) ([]model.ObservedRepoUser, error) {
	return f.repoCollabs[key(org, name)], nil
}

func (f *fakeRead) BranchProtections(ctx context.Context, org model.OrgName, name string) (map[string]model.ObservedBranchProtection, error) {
	src := f.branchProtects[key(org, name)]
	out := make(map[string]model.ObservedBranchProtection, len(src))
	for pattern, p := range src {
		out[pattern] = p
	}
	return out, nil
}

func (f *fakeRead) UsesPAT(ctx context.Context) bool {
	return f.usesPAT
}

// fakeWrite is an in-memory model.Write fake that records every mutation it
// receives, in call order, so tests can assert on what the Diff Applier
// actually issued.
type fakeWrite struct {
	calls []string

	createdRepoNodeID string
}

func newFakeWrite() *fakeWrite {
	return &fakeWrite{createdRepoNodeID: "repo-node-id"}
}

func (f *fakeWrite) record(s string) {
	f.calls = append(f.calls, s)
}

func (f *fakeWrite) CreateRepo(ctx context.Context, org model.OrgName, name string, settings model.RepoSettings) (*model.ObservedRepo, error) {
	f.record("create_repo " + string(org) + "/" + name)
	return &model.ObservedRepo{Org: org, Name: name, NodeID: f.createdRepoNodeID, Settings: settings}, nil
}

func (f *fakeWrite) EditRepo(ctx context.Context, org model.OrgName, name string, settings model.RepoSettings) error {
	f.record("edit_repo " + string(org) + "/" + name)
	return nil
}

func (f *fakeWrite) UpdateTeamRepoPermissions(ctx context.Context, org model.OrgName, repo, team string, permission model.Permission) error {
	f.record("update_team_repo_permissions " + string(org) + "/" + repo + " " + team + " " + string(permission))
	return nil
}

func (f *fakeWrite) UpdateUserRepoPermissions(ctx context.Context, org model.OrgName, repo, user string, permission model.Permission) error {
	f.record("update_user_repo_permissions " + string(org) + "/" + repo + " " + user + " " + string(permission))
	return nil
}

func (f *fakeWrite) RemoveTeamFromRepo(ctx context.Context, org model.OrgName, repo, team string) error {
	f.record("remove_team_from_repo " + string(org) + "/" + repo + " " + team)
	return nil
}

func (f *fakeWrite) RemoveCollaboratorFromRepo(ctx context.Context, org model.OrgName, repo, user string) error {
	f.record("remove_collaborator_from_repo " + string(org) + "/" + repo + " " + user)
	return nil
}

func (f *fakeWrite) UpsertBranchProtection(ctx context.Context, org model.OrgName, repo string, op model.BranchProtectionOp, pattern string, protection model.CanonicalBranchProtection) error {
	if op.IsCreate() {
		f.record("create_branch_protection " + string(org) + "/" + repo + " " + pattern)
	} else {
		f.record("update_branch_protection " + string(org) + "/" + repo + " " + pattern)
	}
	return nil
}

func (f *fakeWrite) DeleteBranchProtection(ctx context.Context, org model.OrgName, repo string, databaseID string) error {
	f.record("delete_branch_protection " + string(org) + "/" + repo + " " + databaseID)
	return nil
}

func (f *fakeWrite) CreateTeam(ctx context.Context, org model.OrgName, name, description string, privacy model.Privacy) error {
	f.record("create_team " + string(org) + "/" + name)
	return nil
}

func (f *fakeWrite) EditTeam(ctx context.Context, org model.OrgName, name string, newName, newDescription *string, newPrivacy *model.Privacy) error {
	f.record("edit_team " + string(org) + "/" + name)
	return nil
}

func (f *fakeWrite) DeleteTeam(ctx context.Context, org model.OrgName, slug string) error {
	f.record("delete_team " + string(org) + "/" + slug)
	return nil
}

func (f *fakeWrite) SetTeamMembership(ctx context.Context, org model.OrgName, team, member string, role model.Role) error {
	f.record("set_team_membership " + string(org) + "/" + team + " " + member + " " + string(role))
	return nil
}

func (f *fakeWrite) RemoveTeamMembership(ctx context.Context, org model.OrgName, team, member string) error {
	f.record("remove_team_membership " + string(org) + "/" + team + " " + member)
	return nil
}
