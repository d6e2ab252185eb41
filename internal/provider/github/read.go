package github

import (
	"context"
	"fmt"

	gogithub "github.com/google/go-github/v55/github"
	"github.com/rust-team-sync/orgsync/internal/model"
)

// Usernames resolves a set of UserIDs to their current Provider login via
// the REST user-by-id endpoint; go-github has no bulk form of this call, so
// each id is resolved with its own request (model.Read).
func (c *Client) Usernames(ctx context.Context, ids []model.UserID) (map[model.UserID]model.Username, error) {
	out := make(map[model.UserID]model.Username, len(ids))
	for _, id := range ids {
		user, _, err := c.rest.Users.GetByID(ctx, int64(id))
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("resolving username for user id %d: %w", id, err)
		}
		out[id] = model.Username(user.GetLogin())
	}
	return out, nil
}

// OrgOwners returns the set of UserIDs holding the organization-owner role
// in org (model.Read).
func (c *Client) OrgOwners(ctx context.Context, org model.OrgName) (map[model.UserID]struct{}, error) {
	owners := make(map[model.UserID]struct{})
	opts := &gogithub.ListMembersOptions{
		Role:        "admin",
		ListOptions: gogithub.ListOptions{PerPage: 100},
	}
	for {
		members, resp, err := c.rest.Organizations.ListMembers(ctx, string(org), opts)
		if err != nil {
			return nil, fmt.Errorf("listing owners of org %s: %w", org, err)
		}
		for _, m := range members {
			owners[model.UserID(m.GetID())] = struct{}{}
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return owners, nil
}

// Team fetches a single team by name, or (nil, nil) if it does not exist
// (model.Read).
func (c *Client) Team(ctx context.Context, org model.OrgName, name string) (*model.ObservedTeam, error) {
	team, resp, err := c.rest.Teams.GetTeamByName(ctx, string(org), name)
	if err != nil {
		if resp != nil && resp.StatusCode == 404 {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching team %s/%s: %w", org, name, err)
	}

	privacy := model.PrivacyClosed
	if team.GetPrivacy() == "secret" {
		privacy = model.PrivacySecret
	}

	return &model.ObservedTeam{
		Org:         org,
		Name:        team.GetName(),
		Slug:        team.GetSlug(),
		Description: team.GetDescription(),
		Privacy:     privacy,
	}, nil
}

// TeamMemberships returns the current membership roster of team, keyed by
// UserID (model.Read).
func (c *Client) TeamMemberships(ctx context.Context, team *model.ObservedTeam, org model.OrgName) (map[model.UserID]model.Membership, error) {
	return c.teamMemberships(ctx, org, team.Slug)
}

func (c *Client) teamMemberships(ctx context.Context, org model.OrgName, slug string) (map[model.UserID]model.Membership, error) {
	memberships := make(map[model.UserID]model.Membership)
	for _, role := range []struct {
		apiRole string
		role    model.Role
	}{
		{"member", model.RoleMember},
		{"maintainer", model.RoleMaintainer},
	} {
		opts := &gogithub.TeamListTeamMembersOptions{
			Role:        role.apiRole,
			ListOptions: gogithub.ListOptions{PerPage: 100},
		}
		for {
			members, resp, err := c.rest.Teams.ListTeamMembersBySlug(ctx, string(org), slug, opts)
			if err != nil {
				return nil, fmt.Errorf("listing %s members of team %s/%s: %w", role.apiRole, org, slug, err)
			}
			for _, m := range members {
				memberships[model.UserID(m.GetID())] = model.Membership{
					Username: model.Username(m.GetLogin()),
					Role:     role.role,
				}
			}
			if resp.NextPage == 0 {
				break
			}
			opts.Page = resp.NextPage
		}
	}
	return memberships, nil
}

// TeamMembershipInvitations returns the set of usernames with a pending
// invitation to teamName in org (model.Read).
func (c *Client) TeamMembershipInvitations(ctx context.Context, org model.OrgName, teamName string) (map[model.Username]struct{}, error) {
	invitations := make(map[model.Username]struct{})
	opts := &gogithub.ListOptions{PerPage: 100}
	for {
		invited, resp, err := c.rest.Teams.ListPendingTeamInvitationsBySlug(ctx, string(org), teamName, opts)
		if err != nil {
			return nil, fmt.Errorf("listing pending invitations for team %s/%s: %w", org, teamName, err)
		}
		for _, inv := range invited {
			invitations[model.Username(inv.GetLogin())] = struct{}{}
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return invitations, nil
}

// Repo fetches a single repository by name, or (nil, nil) if it does not
// exist (model.Read).
func (c *Client) Repo(ctx context.Context, org model.OrgName, name string) (*model.ObservedRepo, error) {
	repo, resp, err := c.rest.Repositories.Get(ctx, string(org), name)
	if err != nil {
		if resp != nil && resp.StatusCode == 404 {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching repo %s/%s: %w", org, name, err)
	}

	var homepage *string
	if h := repo.GetHomepage(); h != "" {
		homepage = &h
	}

	return &model.ObservedRepo{
		Org:    org,
		Name:   repo.GetName(),
		NodeID: repo.GetNodeID(),
		Settings: model.RepoSettings{
			Description:      repo.GetDescription(),
			Homepage:         homepage,
			Archived:         repo.GetArchived(),
			AutoMergeEnabled: repo.GetAllowAutoMerge(),
		},
	}, nil
}

// RepoTeams lists every team with direct access to a repository
// (model.Read).
func (c *Client) RepoTeams(ctx context.Context, org model.OrgName, name string) ([]model.ObservedRepoTeam, error) {
	var teams []model.ObservedRepoTeam
	opts := &gogithub.ListOptions{PerPage: 100}
	for {
		ghTeams, resp, err := c.rest.Repositories.ListTeams(ctx, string(org), name, opts)
		if err != nil {
			return nil, fmt.Errorf("listing teams of repo %s/%s: %w", org, name, err)
		}
		for _, t := range ghTeams {
			perm, ok := highestPermission(t.Permissions)
			if !ok {
				continue
			}
			teams = append(teams, model.ObservedRepoTeam{Name: t.GetSlug(), Permission: perm})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return teams, nil
}

// RepoCollaborators lists every individual user with direct access to a
// repository (model.Read).
func (c *Client) RepoCollaborators(ctx context.Context, org model.OrgName, name string) ([]model.ObservedRepoUser, error) {
	var users []model.ObservedRepoUser
	opts := &gogithub.ListCollaboratorsOptions{
		Affiliation: "direct",
		ListOptions: gogithub.ListOptions{PerPage: 100},
	}
	for {
		collaborators, resp, err := c.rest.Repositories.ListCollaborators(ctx, string(org), name, opts)
		if err != nil {
			return nil, fmt.Errorf("listing collaborators of repo %s/%s: %w", org, name, err)
		}
		for _, collab := range collaborators {
			perm, ok := highestPermission(collab.Permissions)
			if !ok {
				continue
			}
			users = append(users, model.ObservedRepoUser{Name: collab.GetLogin(), Permission: perm})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return users, nil
}

// highestPermission picks the strongest Permission set in a go-github
// "permissions" boolean map, since the REST API reports permission as a set
// of independent booleans rather than a single level.
func highestPermission(permissions map[string]bool) (model.Permission, bool) {
	switch {
	case permissions["admin"]:
		return model.PermissionAdmin, true
	case permissions["maintain"]:
		return model.PermissionMaintain, true
	case permissions["push"]:
		return model.PermissionWrite, true
	case permissions["triage"]:
		return model.PermissionTriage, true
	default:
		return "", false
	}
}

func isNotFound(err error) bool {
	if ghErr, ok := err.(*gogithub.ErrorResponse); ok {
		return ghErr.Response != nil && ghErr.Response.StatusCode == 404
	}
	return false
}

// UsesPAT reports whether this Read capability is backed by a personal
// access token rather than a GitHub App installation token (model.Read).
// The ctx parameter is accepted only to match the capability interface;
// resolving it never blocks.
func (c *Client) UsesPAT(ctx context.Context) bool {
	return c.isPAT()
}
