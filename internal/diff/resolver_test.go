package diff

import (
	"testing"

	"github.com/rust-team-sync/orgsync/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestResolvePermissions_CreatesMissingTeam(t *testing.T) {
	repo := model.DeclaredRepo{
		Org:   "rust-lang",
		Name:  "rust",
		Teams: []model.RepoTeamPermission{{TeamName: "compiler", Permission: model.PermissionWrite}},
	}

	diffs := ResolvePermissions(repo, map[string]model.ObservedRepoTeam{}, map[string]model.ObservedRepoUser{})

	assert.Equal(t, []model.RepoPermissionAssignmentDiff{{
		CollaboratorKind: model.CollaboratorTeam,
		CollaboratorName: "compiler",
		Kind:             model.PermissionCreate,
		NewPermission:    model.PermissionWrite,
	}}, diffs)
}

func TestResolvePermissions_UpdatesChangedTeamPermission(t *testing.T) {
	repo := model.DeclaredRepo{
		Org:   "rust-lang",
		Name:  "rust",
		Teams: []model.RepoTeamPermission{{TeamName: "compiler", Permission: model.PermissionAdmin}},
	}
	observedTeams := map[string]model.ObservedRepoTeam{
		"compiler": {Name: "compiler", Permission: model.PermissionWrite},
	}

	diffs := ResolvePermissions(repo, observedTeams, map[string]model.ObservedRepoUser{})

	assert.Equal(t, []model.RepoPermissionAssignmentDiff{{
		CollaboratorKind: model.CollaboratorTeam,
		CollaboratorName: "compiler",
		Kind:             model.PermissionUpdate,
		OldPermission:    model.PermissionWrite,
		NewPermission:    model.PermissionAdmin,
	}}, diffs)
}

func TestResolvePermissions_NoopWhenUnchanged(t *testing.T) {
	repo := model.DeclaredRepo{
		Org:   "rust-lang",
		Name:  "rust",
		Teams: []model.RepoTeamPermission{{TeamName: "compiler", Permission: model.PermissionWrite}},
	}
	observedTeams := map[string]model.ObservedRepoTeam{
		"compiler": {Name: "compiler", Permission: model.PermissionWrite},
	}

	diffs := ResolvePermissions(repo, observedTeams, map[string]model.ObservedRepoUser{})

	assert.Empty(t, diffs)
}

func TestResolvePermissions_OrphanedTeamIsDeleted(t *testing.T) {
	repo := model.DeclaredRepo{Org: "rust-lang", Name: "rust"}
	observedTeams := map[string]model.ObservedRepoTeam{
		"old-team": {Name: "old-team", Permission: model.PermissionWrite},
	}

	diffs := ResolvePermissions(repo, observedTeams, map[string]model.ObservedRepoUser{})

	assert.Equal(t, []model.RepoPermissionAssignmentDiff{{
		CollaboratorKind: model.CollaboratorTeam,
		CollaboratorName: "old-team",
		Kind:             model.PermissionDelete,
		OldPermission:    model.PermissionWrite,
	}}, diffs)
}

func TestResolvePermissions_SecurityTeamExceptionNeverDeleted(t *testing.T) {
	repo := model.DeclaredRepo{Org: SecurityTeamOrg, Name: "rust"}
	observedTeams := map[string]model.ObservedRepoTeam{
		SecurityTeamName: {Name: SecurityTeamName, Permission: model.PermissionAdmin},
	}

	diffs := ResolvePermissions(repo, observedTeams, map[string]model.ObservedRepoUser{})

	assert.Empty(t, diffs)
}

func TestResolvePermissions_SecurityTeamDeletedOutsideItsOrg(t *testing.T) {
	repo := model.DeclaredRepo{Org: "some-other-org", Name: "rust"}
	observedTeams := map[string]model.ObservedRepoTeam{
		SecurityTeamName: {Name: SecurityTeamName, Permission: model.PermissionAdmin},
	}

	diffs := ResolvePermissions(repo, observedTeams, map[string]model.ObservedRepoUser{})

	assert.Len(t, diffs, 1)
	assert.Equal(t, model.PermissionDelete, diffs[0].Kind)
}

func TestResolvePermissions_BotWithUsernameBecomesCollaborator(t *testing.T) {
	repo := model.DeclaredRepo{
		Org:  "rust-lang",
		Name: "rust",
		Bots: []model.Bot{model.BotBors},
	}

	diffs := ResolvePermissions(repo, map[string]model.ObservedRepoTeam{}, map[string]model.ObservedRepoUser{})

	assert.Equal(t, []model.RepoPermissionAssignmentDiff{{
		CollaboratorKind: model.CollaboratorUser,
		CollaboratorName: "bors",
		Kind:             model.PermissionCreate,
		NewPermission:    model.PermissionWrite,
	}}, diffs)
}

func TestResolvePermissions_AppOnlyBotSkipped(t *testing.T) {
	repo := model.DeclaredRepo{
		Org:  "rust-lang",
		Name: "rust",
		Bots: []model.Bot{model.BotRenovate},
	}

	diffs := ResolvePermissions(repo, map[string]model.ObservedRepoTeam{}, map[string]model.ObservedRepoUser{})

	assert.Empty(t, diffs)
}

func TestResolvePermissions_OrphanedCollaboratorDeletedInSortedOrder(t *testing.T) {
	repo := model.DeclaredRepo{Org: "rust-lang", Name: "rust"}
	observed := map[string]model.ObservedRepoUser{
		"zed":   {Name: "zed", Permission: model.PermissionWrite},
		"alice": {Name: "alice", Permission: model.PermissionTriage},
	}

	diffs := ResolvePermissions(repo, map[string]model.ObservedRepoTeam{}, observed)

	assert.Len(t, diffs, 2)
	assert.Equal(t, "alice", diffs[0].CollaboratorName)
	assert.Equal(t, "zed", diffs[1].CollaboratorName)
}
