package github

import (
	"context"
	"fmt"

	gogithub "github.com/google/go-github/v55/github"
	"github.com/rust-team-sync/orgsync/internal/model"
	"github.com/sirupsen/logrus"
)

// CreateRepo creates a repository with settings (model.Write), grounded on
// GithubCommandCreateRepository.Apply.
func (c *Client) CreateRepo(ctx context.Context, org model.OrgName, name string, settings model.RepoSettings) (*model.ObservedRepo, error) {
	logrus.WithFields(logrus.Fields{"command": "create_repo", "org": org, "repo": name}).Info("creating repository")

	repo := &gogithub.Repository{
		Name:           gogithub.String(name),
		Description:    gogithub.String(settings.Description),
		Private:        gogithub.Bool(true),
		AutoInit:       gogithub.Bool(false),
		AllowAutoMerge: gogithub.Bool(settings.AutoMergeEnabled),
	}
	if settings.Homepage != nil {
		repo.Homepage = settings.Homepage
	}

	created, _, err := c.rest.Repositories.Create(ctx, string(org), repo)
	if err != nil {
		return nil, fmt.Errorf("creating repo %s/%s: %w", org, name, err)
	}

	if settings.Archived {
		if _, _, err := c.rest.Repositories.Edit(ctx, string(org), name, &gogithub.Repository{Archived: gogithub.Bool(true)}); err != nil {
			return nil, fmt.Errorf("archiving newly created repo %s/%s: %w", org, name, err)
		}
	}

	return &model.ObservedRepo{
		Org:      org,
		Name:     created.GetName(),
		NodeID:   created.GetNodeID(),
		Settings: settings,
	}, nil
}

// EditRepo updates a repository's settings in a single call (model.Write),
// grounded on GithubCommandUpdateRepositoryUpdatePrivate/UpdateArchived.Apply.
func (c *Client) EditRepo(ctx context.Context, org model.OrgName, name string, settings model.RepoSettings) error {
	logrus.WithFields(logrus.Fields{"command": "edit_repo", "org": org, "repo": name}).Info("updating repository settings")

	repo := &gogithub.Repository{
		Description:    gogithub.String(settings.Description),
		Archived:       gogithub.Bool(settings.Archived),
		AllowAutoMerge: gogithub.Bool(settings.AutoMergeEnabled),
	}
	if settings.Homepage != nil {
		repo.Homepage = settings.Homepage
	} else {
		repo.Homepage = gogithub.String("")
	}

	if _, _, err := c.rest.Repositories.Edit(ctx, string(org), name, repo); err != nil {
		return fmt.Errorf("editing repo %s/%s: %w", org, name, err)
	}
	return nil
}

// wirePermission maps a model.Permission to the literal GitHub's team-repo
// and collaborator-permission endpoints accept, the inverse of
// highestPermission's boolean-map read. GitHub calls the write level "push",
// not "write", everywhere outside the repository-permissions read API.
func wirePermission(permission model.Permission) string {
	if permission == model.PermissionWrite {
		return "push"
	}
	return string(permission)
}

// UpdateTeamRepoPermissions grants or updates a team's access to a
// repository (model.Write), grounded on
// GithubCommandUpdateRepositorySetTeamAccess.Apply.
func (c *Client) UpdateTeamRepoPermissions(ctx context.Context, org model.OrgName, repo, team string, permission model.Permission) error {
	logrus.WithFields(logrus.Fields{"command": "update_team_repo_permission", "org": org, "repo": repo, "team": team, "permission": permission}).Info("setting team repository permission")

	_, err := c.rest.Teams.AddTeamRepoBySlug(ctx, string(org), team, string(org), repo, &gogithub.TeamAddTeamRepoOptions{
		Permission: wirePermission(permission),
	})
	if err != nil {
		return fmt.Errorf("granting team %s %s access to repo %s/%s: %w", team, permission, org, repo, err)
	}
	return nil
}

// UpdateUserRepoPermissions grants or updates an individual collaborator's
// access to a repository (model.Write), grounded on
// GithubCommandCreateRepository.Apply's per-collaborator REST call.
func (c *Client) UpdateUserRepoPermissions(ctx context.Context, org model.OrgName, repo, user string, permission model.Permission) error {
	logrus.WithFields(logrus.Fields{"command": "update_user_repo_permission", "org": org, "repo": repo, "user": user, "permission": permission}).Info("setting collaborator repository permission")

	_, _, err := c.rest.Repositories.AddCollaborator(ctx, string(org), repo, user, &gogithub.RepositoryAddCollaboratorOptions{
		Permission: wirePermission(permission),
	})
	if err != nil {
		return fmt.Errorf("granting user %s %s access to repo %s/%s: %w", user, permission, org, repo, err)
	}
	return nil
}

// RemoveTeamFromRepo revokes a team's direct access to a repository
// (model.Write), grounded on
// GithubCommandUpdateRepositoryRemoveTeamAccess.Apply.
func (c *Client) RemoveTeamFromRepo(ctx context.Context, org model.OrgName, repo, team string) error {
	logrus.WithFields(logrus.Fields{"command": "remove_team_from_repo", "org": org, "repo": repo, "team": team}).Info("removing team repository access")

	if _, err := c.rest.Teams.RemoveTeamRepoBySlug(ctx, string(org), team, string(org), repo); err != nil {
		return fmt.Errorf("removing team %s access to repo %s/%s: %w", team, org, repo, err)
	}
	return nil
}

// RemoveCollaboratorFromRepo revokes an individual collaborator's access to
// a repository (model.Write).
func (c *Client) RemoveCollaboratorFromRepo(ctx context.Context, org model.OrgName, repo, user string) error {
	logrus.WithFields(logrus.Fields{"command": "remove_collaborator_from_repo", "org": org, "repo": repo, "user": user}).Info("removing collaborator repository access")

	if _, err := c.rest.Repositories.RemoveCollaborator(ctx, string(org), repo, user); err != nil {
		return fmt.Errorf("removing collaborator %s from repo %s/%s: %w", user, org, repo, err)
	}
	return nil
}

// CreateTeam creates a team (model.Write), grounded on
// GithubCommandCreateTeam.Apply.
func (c *Client) CreateTeam(ctx context.Context, org model.OrgName, name, description string, privacy model.Privacy) error {
	logrus.WithFields(logrus.Fields{"command": "create_team", "org": org, "team": name}).Info("creating team")

	_, _, err := c.rest.Teams.CreateTeam(ctx, string(org), gogithub.NewTeam{
		Name:        name,
		Description: gogithub.String(description),
		Privacy:     gogithub.String(string(privacy)),
	})
	if err != nil {
		return fmt.Errorf("creating team %s/%s: %w", org, name, err)
	}
	return nil
}

// EditTeam updates a team's name, description and/or privacy (model.Write),
// grounded on the teacher's team-edit REST shape (PATCH
// /orgs/{org}/teams/{team_slug}).
func (c *Client) EditTeam(ctx context.Context, org model.OrgName, name string, newName, newDescription *string, newPrivacy *model.Privacy) error {
	logrus.WithFields(logrus.Fields{"command": "edit_team", "org": org, "team": name}).Info("updating team metadata")

	update := gogithub.NewTeam{Name: name}
	if newName != nil {
		update.Name = *newName
	}
	if newDescription != nil {
		update.Description = newDescription
	}
	if newPrivacy != nil {
		update.Privacy = gogithub.String(string(*newPrivacy))
	}

	if _, _, err := c.rest.Teams.EditTeamBySlug(ctx, string(org), name, update, false); err != nil {
		return fmt.Errorf("editing team %s/%s: %w", org, name, err)
	}
	return nil
}

// DeleteTeam deletes a team (model.Write), grounded on
// GithubCommandDeleteTeam.Apply.
func (c *Client) DeleteTeam(ctx context.Context, org model.OrgName, slug string) error {
	logrus.WithFields(logrus.Fields{"command": "delete_team", "org": org, "team": slug}).Info("deleting team")

	if _, err := c.rest.Teams.DeleteTeamBySlug(ctx, string(org), slug); err != nil {
		return fmt.Errorf("deleting team %s/%s: %w", org, slug, err)
	}
	return nil
}

// SetTeamMembership adds a member to a team or updates their role
// (model.Write), grounded on GithubCommandUpdateTeamAddMember.Apply.
func (c *Client) SetTeamMembership(ctx context.Context, org model.OrgName, team, member string, role model.Role) error {
	logrus.WithFields(logrus.Fields{"command": "set_team_membership", "org": org, "team": team, "member": member, "role": role}).Info("setting team membership")

	_, _, err := c.rest.Teams.AddTeamMembershipBySlug(ctx, string(org), team, member, &gogithub.TeamAddTeamMembershipOptions{
		Role: string(role),
	})
	if err != nil {
		return fmt.Errorf("setting membership of %s on team %s/%s: %w", member, org, team, err)
	}
	return nil
}

// RemoveTeamMembership removes a member from a team (model.Write), grounded
// on GithubCommandUpdateTeamRemoveMember.Apply.
func (c *Client) RemoveTeamMembership(ctx context.Context, org model.OrgName, team, member string) error {
	logrus.WithFields(logrus.Fields{"command": "remove_team_membership", "org": org, "team": team, "member": member}).Info("removing team membership")

	if _, err := c.rest.Teams.RemoveTeamMembershipBySlug(ctx, string(org), team, member); err != nil {
		return fmt.Errorf("removing membership of %s on team %s/%s: %w", member, org, team, err)
	}
	return nil
}
