package diff

import (
	"context"
	"fmt"
	"sort"

	"github.com/rust-team-sync/orgsync/internal/model"
)

// Engine computes a model.Diff between a declared state and the Provider's
// observed state, consuming a model.Read capability. It is the Diff Engine
// of §4.1: it owns the username cache and org-owner map built eagerly at
// construction and read-only thereafter (§3 Lifecycles).
type Engine struct {
	read  model.Read
	teams []model.DeclaredTeam
	repos []model.DeclaredRepo

	usernames map[model.UserID]model.Username
	orgOwners map[model.OrgName]map[model.UserID]struct{}
}

// NewEngine constructs an Engine, eagerly building the username cache (over
// the union of all members of all declared teams) and the org-owner map
// (one Read call per distinct org referenced by a declared team).
func NewEngine(ctx context.Context, read model.Read, teams []model.DeclaredTeam, repos []model.DeclaredRepo) (*Engine, error) {
	ids := distinctUserIDs(teams)
	usernames, err := read.Usernames(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("caching usernames: %w", err)
	}

	orgOwners := make(map[model.OrgName]map[model.UserID]struct{})
	for _, org := range distinctTeamOrgs(teams) {
		owners, err := read.OrgOwners(ctx, org)
		if err != nil {
			return nil, fmt.Errorf("caching org owners for %s: %w", org, err)
		}
		orgOwners[org] = owners
	}

	return &Engine{
		read:      read,
		teams:     teams,
		repos:     repos,
		usernames: usernames,
		orgOwners: orgOwners,
	}, nil
}

// DiffAll computes the full Diff: every team diff first, then every repo
// diff, each list in declaration order (§5 ordering guarantees).
func (e *Engine) DiffAll(ctx context.Context) (model.Diff, error) {
	teamDiffs, err := e.diffTeams(ctx)
	if err != nil {
		return model.Diff{}, err
	}
	repoDiffs, err := e.diffRepos(ctx)
	if err != nil {
		return model.Diff{}, err
	}
	return model.Diff{TeamDiffs: teamDiffs, RepoDiffs: repoDiffs}, nil
}

func (e *Engine) expectedRole(org model.OrgName, user model.UserID) model.Role {
	if owners, ok := e.orgOwners[org]; ok {
		if _, isOwner := owners[user]; isOwner {
			return model.RoleMaintainer
		}
	}
	return model.RoleMember
}

func (e *Engine) username(id model.UserID) (model.Username, error) {
	name, ok := e.usernames[id]
	if !ok {
		return "", fmt.Errorf("%w: user id %d has no known username", model.ErrConsistency, id)
	}
	return name, nil
}

func (e *Engine) diffTeams(ctx context.Context) ([]model.TeamDiff, error) {
	var diffs []model.TeamDiff
	unseenInOrg := make(map[model.OrgName]map[string]model.OrgTeamRef)

	for _, team := range e.teams {
		unseen, ok := unseenInOrg[team.Org]
		if !ok {
			refs, err := e.read.OrgTeams(ctx, team.Org)
			if err != nil {
				return nil, fmt.Errorf("listing teams in org %s: %w", team.Org, err)
			}
			unseen = make(map[string]model.OrgTeamRef, len(refs))
			for _, ref := range refs {
				unseen[ref.Name] = ref
			}
			unseenInOrg[team.Org] = unseen
		}
		delete(unseen, team.Name)

		d, err := e.diffTeam(ctx, team)
		if err != nil {
			return nil, err
		}
		if !teamDiffIsNoop(d) {
			diffs = append(diffs, d)
		}
	}

	for _, org := range sortedOrgs(unseenInOrg) {
		if !isDeletionAllowedOrg(org) {
			continue
		}
		remaining := unseenInOrg[org]
		names := make([]string, 0, len(remaining))
		for name := range remaining {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if isReservedBotTeam(name) {
				continue
			}
			ref := remaining[name]
			diffs = append(diffs, model.DeleteTeamDiff{Org: org, Name: name, Slug: ref.Slug})
		}
	}

	return diffs, nil
}

func (e *Engine) diffTeam(ctx context.Context, team model.DeclaredTeam) (model.TeamDiff, error) {
	existing, err := e.read.Team(ctx, team.Org, team.Name)
	if err != nil {
		return nil, fmt.Errorf("reading team %s/%s: %w", team.Org, team.Name, err)
	}

	if existing == nil {
		members := make([]model.CreateTeamMember, 0, len(team.Members))
		for _, id := range team.Members {
			username, err := e.username(id)
			if err != nil {
				return nil, err
			}
			members = append(members, model.CreateTeamMember{
				Username: username,
				Role:     e.expectedRole(team.Org, id),
			})
		}
		return model.CreateTeamDiff{
			Org:         team.Org,
			Name:        team.Name,
			Description: DefaultTeamDescription,
			Privacy:     DefaultTeamPrivacy,
			Members:     members,
		}, nil
	}

	var nameDiff *string
	if existing.Name != team.Name {
		name := team.Name
		nameDiff = &name
	}

	var descriptionDiff *model.StringChange
	if existing.Description != DefaultTeamDescription {
		descriptionDiff = &model.StringChange{Old: existing.Description, New: DefaultTeamDescription}
	}

	var privacyDiff *model.PrivacyChange
	if existing.Privacy != DefaultTeamPrivacy {
		privacyDiff = &model.PrivacyChange{Old: existing.Privacy, New: DefaultTeamPrivacy}
	}

	currentMembers, err := e.read.TeamMemberships(ctx, existing, team.Org)
	if err != nil {
		return nil, fmt.Errorf("reading memberships of %s/%s: %w", team.Org, team.Name, err)
	}
	invites, err := e.read.TeamMembershipInvitations(ctx, team.Org, team.Name)
	if err != nil {
		return nil, fmt.Errorf("reading invitations of %s/%s: %w", team.Org, team.Name, err)
	}

	var memberDiffs []model.NamedMemberDiff
	for _, id := range team.Members {
		expectedRole := e.expectedRole(team.Org, id)
		username, err := e.username(id)
		if err != nil {
			return nil, err
		}

		if member, ok := currentMembers[id]; ok {
			delete(currentMembers, id)
			if member.Role != expectedRole {
				memberDiffs = append(memberDiffs, model.NamedMemberDiff{
					Username: username,
					Diff:     model.MemberDiff{Kind: model.MemberChangeRole, OldRole: member.Role, NewRole: expectedRole},
				})
			} else {
				memberDiffs = append(memberDiffs, model.NamedMemberDiff{Username: username, Diff: model.MemberDiff{Kind: model.MemberNoop}})
			}
			continue
		}

		if _, invited := invites[username]; invited {
			memberDiffs = append(memberDiffs, model.NamedMemberDiff{Username: username, Diff: model.MemberDiff{Kind: model.MemberNoop}})
		} else {
			memberDiffs = append(memberDiffs, model.NamedMemberDiff{
				Username: username,
				Diff:     model.MemberDiff{Kind: model.MemberCreate, NewRole: expectedRole},
			})
		}
	}

	// What's left in currentMembers was not re-encountered: delete it.
	for _, remainingID := range sortedUserIDs(currentMembers) {
		member := currentMembers[remainingID]
		memberDiffs = append(memberDiffs, model.NamedMemberDiff{Username: member.Username, Diff: model.MemberDiff{Kind: model.MemberDelete}})
	}

	return model.EditTeamDiff{
		Org:             team.Org,
		Name:            existing.Name,
		NameDiff:        nameDiff,
		DescriptionDiff: descriptionDiff,
		PrivacyDiff:     privacyDiff,
		MemberDiffs:     memberDiffs,
	}, nil
}

func (e *Engine) diffRepos(ctx context.Context) ([]model.RepoDiff, error) {
	var diffs []model.RepoDiff
	for _, repo := range e.repos {
		d, err := e.diffRepo(ctx, repo)
		if err != nil {
			return nil, err
		}
		if !repoDiffIsNoop(d) {
			diffs = append(diffs, d)
		}
	}
	return diffs, nil
}

func (e *Engine) diffRepo(ctx context.Context, repo model.DeclaredRepo) (model.RepoDiff, error) {
	actual, err := e.read.Repo(ctx, repo.Org, repo.Name)
	if err != nil {
		return nil, fmt.Errorf("reading repo %s/%s: %w", repo.Org, repo.Name, err)
	}

	if actual == nil {
		permissions := ResolvePermissions(repo, map[string]model.ObservedRepoTeam{}, map[string]model.ObservedRepoUser{})

		branchProtections := make([]model.PatternedBranchProtection, 0, len(repo.BranchProtections))
		for _, bp := range repo.BranchProtections {
			projected, err := Project(repo, bp)
			if err != nil {
				return nil, err
			}
			branchProtections = append(branchProtections, model.PatternedBranchProtection{Pattern: bp.Pattern, Protection: projected})
		}

		return model.CreateRepoDiff{
			Org:  repo.Org,
			Name: repo.Name,
			Settings: model.RepoSettings{
				Description:      repo.Description,
				Homepage:         repo.Homepage,
				Archived:         false,
				AutoMergeEnabled: repo.AutoMergeEnabled,
			},
			Permissions:       permissions,
			BranchProtections: branchProtections,
		}, nil
	}

	permissionDiffs, err := e.diffPermissions(ctx, repo)
	if err != nil {
		return nil, err
	}
	branchProtectionDiffs, err := e.diffBranchProtections(ctx, *actual, repo)
	if err != nil {
		return nil, err
	}

	newSettings := model.RepoSettings{
		Description:      repo.Description,
		Homepage:         repo.Homepage,
		Archived:         repo.Archived,
		AutoMergeEnabled: repo.AutoMergeEnabled,
	}

	return model.UpdateRepoDiff{
		Org:                   repo.Org,
		Name:                  actual.Name,
		RepoNodeID:            actual.NodeID,
		OldSettings:           actual.Settings,
		NewSettings:           newSettings,
		PermissionDiffs:       permissionDiffs,
		BranchProtectionDiffs: branchProtectionDiffs,
	}, nil
}

func (e *Engine) diffPermissions(ctx context.Context, repo model.DeclaredRepo) ([]model.RepoPermissionAssignmentDiff, error) {
	actualTeams, err := e.read.RepoTeams(ctx, repo.Org, repo.Name)
	if err != nil {
		return nil, fmt.Errorf("reading repo teams for %s/%s: %w", repo.Org, repo.Name, err)
	}
	teams := make(map[string]model.ObservedRepoTeam, len(actualTeams))
	for _, t := range actualTeams {
		teams[t.Name] = t
	}

	actualCollaborators, err := e.read.RepoCollaborators(ctx, repo.Org, repo.Name)
	if err != nil {
		return nil, fmt.Errorf("reading repo collaborators for %s/%s: %w", repo.Org, repo.Name, err)
	}
	collaborators := make(map[string]model.ObservedRepoUser, len(actualCollaborators))
	for _, u := range actualCollaborators {
		collaborators[u.Name] = u
	}

	return ResolvePermissions(repo, teams, collaborators), nil
}

func (e *Engine) diffBranchProtections(ctx context.Context, actual model.ObservedRepo, repo model.DeclaredRepo) ([]model.BranchProtectionDiff, error) {
	// The designated repository uses Provider App push allowance actors for
	// its branch protections, which cannot be read without a PAT. To avoid
	// spurious deletions, we simply return an empty diff here.
	if !e.read.UsesPAT(ctx) && actual.Org == PATOnlyRepoOrg && actual.Name == PATOnlyRepoName {
		return nil, nil
	}

	observed, err := e.read.BranchProtections(ctx, actual.Org, actual.Name)
	if err != nil {
		return nil, fmt.Errorf("reading branch protections for %s/%s: %w", actual.Org, actual.Name, err)
	}
	return DiffBranchProtections(repo, observed)
}

func teamDiffIsNoop(d model.TeamDiff) bool {
	if edit, ok := d.(model.EditTeamDiff); ok {
		return edit.IsNoop()
	}
	return false
}

func repoDiffIsNoop(d model.RepoDiff) bool {
	if update, ok := d.(model.UpdateRepoDiff); ok {
		return update.IsNoop()
	}
	return false
}

func distinctUserIDs(teams []model.DeclaredTeam) []model.UserID {
	seen := make(map[model.UserID]struct{})
	var ids []model.UserID
	for _, t := range teams {
		for _, id := range t.Members {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func distinctTeamOrgs(teams []model.DeclaredTeam) []model.OrgName {
	seen := make(map[model.OrgName]struct{})
	var orgs []model.OrgName
	for _, t := range teams {
		if _, ok := seen[t.Org]; !ok {
			seen[t.Org] = struct{}{}
			orgs = append(orgs, t.Org)
		}
	}
	return orgs
}

func sortedOrgs(m map[model.OrgName]map[string]model.OrgTeamRef) []model.OrgName {
	orgs := make([]model.OrgName, 0, len(m))
	for org := range m {
		orgs = append(orgs, org)
	}
	sort.Slice(orgs, func(i, j int) bool { return orgs[i] < orgs[j] })
	return orgs
}

func sortedUserIDs(m map[model.UserID]model.Membership) []model.UserID {
	ids := make([]model.UserID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
