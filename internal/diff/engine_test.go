package diff

import (
	"context"
	"testing"

	"github.com/rust-team-sync/orgsync/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_DiffTeams_CreatesMissingTeam(t *testing.T) {
	ctx := context.Background()
	read := newFakeRead()
	read.usernames[1] = "alice"
	read.owners["rust-lang"] = map[model.UserID]struct{}{1: {}}
	read.orgTeams["rust-lang"] = nil

	teams := []model.DeclaredTeam{{Org: "rust-lang", Name: "compiler", Members: []model.UserID{1}}}

	e, err := NewEngine(ctx, read, teams, nil)
	require.NoError(t, err)

	d, err := e.DiffAll(ctx)
	require.NoError(t, err)

	require.Len(t, d.TeamDiffs, 1)
	create, ok := d.TeamDiffs[0].(model.CreateTeamDiff)
	require.True(t, ok)
	assert.Equal(t, model.OrgName("rust-lang"), create.Org)
	assert.Equal(t, "compiler", create.Name)
	assert.Equal(t, DefaultTeamDescription, create.Description)
	assert.Equal(t, DefaultTeamPrivacy, create.Privacy)
	require.Len(t, create.Members, 1)
	assert.Equal(t, model.Username("alice"), create.Members[0].Username)
	assert.Equal(t, model.RoleMaintainer, create.Members[0].Role)
}

func TestEngine_DiffTeams_EditsExistingTeamMembership(t *testing.T) {
	ctx := context.Background()
	read := newFakeRead()
	read.usernames[1] = "alice"
	read.usernames[2] = "bob"
	read.owners["rust-lang"] = map[model.UserID]struct{}{1: {}}
	read.teams["rust-lang/compiler"] = &model.ObservedTeam{
		Org: "rust-lang", Name: "compiler", Slug: "compiler",
		Description: DefaultTeamDescription, Privacy: DefaultTeamPrivacy,
	}
	// bob is currently a maintainer but declared state says he should be a
	// plain member (not an org owner); alice is newly declared and, as an
	// org owner, is added as a maintainer.
	read.memberships["rust-lang/compiler"] = map[model.UserID]model.Membership{
		2: {Username: "bob", Role: model.RoleMaintainer},
	}
	read.invitations["rust-lang/compiler"] = map[model.Username]struct{}{}

	teams := []model.DeclaredTeam{{Org: "rust-lang", Name: "compiler", Members: []model.UserID{1, 2}}}

	e, err := NewEngine(ctx, read, teams, nil)
	require.NoError(t, err)

	d, err := e.DiffAll(ctx)
	require.NoError(t, err)

	require.Len(t, d.TeamDiffs, 1)
	edit, ok := d.TeamDiffs[0].(model.EditTeamDiff)
	require.True(t, ok)
	assert.Nil(t, edit.NameDiff)
	assert.Nil(t, edit.DescriptionDiff)
	assert.Nil(t, edit.PrivacyDiff)
	require.Len(t, edit.MemberDiffs, 2)

	byUsername := map[model.Username]model.MemberDiff{}
	for _, m := range edit.MemberDiffs {
		byUsername[m.Username] = m.Diff
	}
	assert.Equal(t, model.MemberCreate, byUsername["alice"].Kind)
	assert.Equal(t, model.RoleMaintainer, byUsername["alice"].NewRole)
	assert.Equal(t, model.MemberChangeRole, byUsername["bob"].Kind)
	assert.Equal(t, model.RoleMember, byUsername["bob"].NewRole)
}

func TestEngine_DiffTeams_NoopWhenIdentical(t *testing.T) {
	ctx := context.Background()
	read := newFakeRead()
	read.usernames[1] = "alice"
	read.teams["rust-lang/compiler"] = &model.ObservedTeam{
		Org: "rust-lang", Name: "compiler", Slug: "compiler",
		Description: DefaultTeamDescription, Privacy: DefaultTeamPrivacy,
	}
	read.memberships["rust-lang/compiler"] = map[model.UserID]model.Membership{
		1: {Username: "alice", Role: model.RoleMember},
	}
	read.invitations["rust-lang/compiler"] = map[model.Username]struct{}{}

	teams := []model.DeclaredTeam{{Org: "rust-lang", Name: "compiler", Members: []model.UserID{1}}}

	e, err := NewEngine(ctx, read, teams, nil)
	require.NoError(t, err)

	d, err := e.DiffAll(ctx)
	require.NoError(t, err)

	assert.Empty(t, d.TeamDiffs)
}

func TestEngine_DiffTeams_DeletesUnmanagedTeamInAllowedOrg(t *testing.T) {
	ctx := context.Background()
	read := newFakeRead()
	read.orgTeams["rust-lang"] = []model.OrgTeamRef{{Name: "abandoned", Slug: "abandoned"}}

	teams := []model.DeclaredTeam{{Org: "rust-lang", Name: "compiler"}}
	read.teams["rust-lang/compiler"] = &model.ObservedTeam{
		Org: "rust-lang", Name: "compiler", Slug: "compiler",
		Description: DefaultTeamDescription, Privacy: DefaultTeamPrivacy,
	}
	read.memberships["rust-lang/compiler"] = map[model.UserID]model.Membership{}
	read.invitations["rust-lang/compiler"] = map[model.Username]struct{}{}

	e, err := NewEngine(ctx, read, teams, nil)
	require.NoError(t, err)

	d, err := e.DiffAll(ctx)
	require.NoError(t, err)

	require.Len(t, d.TeamDiffs, 1)
	del, ok := d.TeamDiffs[0].(model.DeleteTeamDiff)
	require.True(t, ok)
	assert.Equal(t, "abandoned", del.Name)
}

func TestEngine_DiffTeams_ReservedBotTeamNeverDeleted(t *testing.T) {
	ctx := context.Background()
	read := newFakeRead()
	read.orgTeams["rust-lang"] = []model.OrgTeamRef{{Name: "bors", Slug: "bors"}}

	teams := []model.DeclaredTeam{{Org: "rust-lang", Name: "compiler"}}
	read.teams["rust-lang/compiler"] = &model.ObservedTeam{
		Org: "rust-lang", Name: "compiler", Slug: "compiler",
		Description: DefaultTeamDescription, Privacy: DefaultTeamPrivacy,
	}
	read.memberships["rust-lang/compiler"] = map[model.UserID]model.Membership{}
	read.invitations["rust-lang/compiler"] = map[model.Username]struct{}{}

	e, err := NewEngine(ctx, read, teams, nil)
	require.NoError(t, err)

	d, err := e.DiffAll(ctx)
	require.NoError(t, err)

	assert.Empty(t, d.TeamDiffs)
}

func TestEngine_DiffTeams_NeverDeletesOutsideAllowedOrgs(t *testing.T) {
	ctx := context.Background()
	read := newFakeRead()
	read.orgTeams["some-other-org"] = []model.OrgTeamRef{{Name: "abandoned", Slug: "abandoned"}}

	teams := []model.DeclaredTeam{{Org: "some-other-org", Name: "compiler"}}
	read.teams["some-other-org/compiler"] = &model.ObservedTeam{
		Org: "some-other-org", Name: "compiler", Slug: "compiler",
		Description: DefaultTeamDescription, Privacy: DefaultTeamPrivacy,
	}
	read.memberships["some-other-org/compiler"] = map[model.UserID]model.Membership{}
	read.invitations["some-other-org/compiler"] = map[model.Username]struct{}{}

	e, err := NewEngine(ctx, read, teams, nil)
	require.NoError(t, err)

	d, err := e.DiffAll(ctx)
	require.NoError(t, err)

	assert.Empty(t, d.TeamDiffs)
}

func TestEngine_DiffRepos_CreatesMissingRepo(t *testing.T) {
	ctx := context.Background()
	read := newFakeRead()

	repos := []model.DeclaredRepo{{
		Org:         "rust-lang",
		Name:        "new-repo",
		Description: "a new repo",
		Teams:       []model.RepoTeamPermission{{TeamName: "compiler", Permission: model.PermissionWrite}},
	}}

	e, err := NewEngine(ctx, read, nil, repos)
	require.NoError(t, err)

	d, err := e.DiffAll(ctx)
	require.NoError(t, err)

	require.Len(t, d.RepoDiffs, 1)
	create, ok := d.RepoDiffs[0].(model.CreateRepoDiff)
	require.True(t, ok)
	assert.Equal(t, "new-repo", create.Name)
	assert.False(t, create.Settings.Archived)
	require.Len(t, create.Permissions, 1)
	assert.Equal(t, "compiler", create.Permissions[0].CollaboratorName)
}

func TestEngine_DiffRepos_NoopWhenIdentical(t *testing.T) {
	ctx := context.Background()
	read := newFakeRead()
	read.repos["rust-lang/rust"] = &model.ObservedRepo{
		Org: "rust-lang", Name: "rust", NodeID: "node1",
		Settings: model.RepoSettings{Description: "the rust compiler"},
	}

	repos := []model.DeclaredRepo{{Org: "rust-lang", Name: "rust", Description: "the rust compiler"}}

	e, err := NewEngine(ctx, read, nil, repos)
	require.NoError(t, err)

	d, err := e.DiffAll(ctx)
	require.NoError(t, err)

	assert.Empty(t, d.RepoDiffs)
}

func TestEngine_DiffRepos_ArchiveFreezeSkipsEverything(t *testing.T) {
	ctx := context.Background()
	read := newFakeRead()
	read.repos["rust-lang/old-repo"] = &model.ObservedRepo{
		Org: "rust-lang", Name: "old-repo", NodeID: "node1",
		Settings: model.RepoSettings{Archived: true},
	}
	read.repoTeams["rust-lang/old-repo"] = []model.ObservedRepoTeam{
		{Name: "stale-team", Permission: model.PermissionAdmin},
	}

	repos := []model.DeclaredRepo{{Org: "rust-lang", Name: "old-repo", Archived: true}}

	e, err := NewEngine(ctx, read, nil, repos)
	require.NoError(t, err)

	d, err := e.DiffAll(ctx)
	require.NoError(t, err)

	assert.Empty(t, d.RepoDiffs, "an archived repo that stays archived must produce zero diffs even with stale permissions")
}

func TestEngine_DiffRepos_PATOnlySkipsBranchProtectionDiff(t *testing.T) {
	ctx := context.Background()
	read := newFakeRead()
	read.usesPAT = false
	read.repos[key(PATOnlyRepoOrg, PATOnlyRepoName)] = &model.ObservedRepo{
		Org: PATOnlyRepoOrg, Name: PATOnlyRepoName, NodeID: "node1",
	}
	read.branchProtects[key(PATOnlyRepoOrg, PATOnlyRepoName)] = map[string]model.ObservedBranchProtection{
		"main": {DatabaseID: "db1"},
	}

	repos := []model.DeclaredRepo{{
		Org:         PATOnlyRepoOrg,
		Name:        PATOnlyRepoName,
		Description: "the rust compiler",
		BranchProtections: []model.DeclaredBranchProtection{
			{Pattern: "main", Mode: model.PrNotRequired{}},
		},
	}}

	e, err := NewEngine(ctx, read, nil, repos)
	require.NoError(t, err)

	d, err := e.DiffAll(ctx)
	require.NoError(t, err)

	require.Len(t, d.RepoDiffs, 1)
	update, ok := d.RepoDiffs[0].(model.UpdateRepoDiff)
	require.True(t, ok)
	assert.Empty(t, update.BranchProtectionDiffs)
}

func TestEngine_Username_UnknownIDIsConsistencyError(t *testing.T) {
	ctx := context.Background()
	read := newFakeRead()

	teams := []model.DeclaredTeam{{Org: "rust-lang", Name: "compiler", Members: []model.UserID{42}}}

	e, err := NewEngine(ctx, read, teams, nil)
	require.NoError(t, err)

	_, err = e.DiffAll(ctx)
	require.Error(t, err)
}
