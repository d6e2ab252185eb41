package github

import (
	"context"
	"fmt"

	"github.com/rust-team-sync/orgsync/internal/model"
)

// listTeamsQuery lists every team in an org with its slug, grounded on
// GoliacRemoteImpl.loadTeams's listAllTeamsInOrg query
// (internal/engine/remote.go); go-github's REST team listing omits slug
// pagination cursors, so GraphQL is used here per SPEC_FULL.md §2.7.
const listTeamsQuery = `
query listTeams($orgLogin: String!, $endCursor: String) {
  organization(login: $orgLogin) {
    teams(first: 100, after: $endCursor) {
      nodes {
        name
        slug
      }
      pageInfo {
        hasNextPage
        endCursor
      }
    }
  }
}`

type listTeamsResponse struct {
	Data struct {
		Organization struct {
			Teams struct {
				Nodes []struct {
					Name string
					Slug string
				}
				PageInfo struct {
					HasNextPage bool
					EndCursor   string
				}
			}
		}
	}
}

// OrgTeams lists every team in org as (name, slug) pairs (model.Read).
func (c *Client) OrgTeams(ctx context.Context, org model.OrgName) ([]model.OrgTeamRef, error) {
	var refs []model.OrgTeamRef
	variables := map[string]interface{}{"orgLogin": string(org), "endCursor": nil}

	for {
		var resp listTeamsResponse
		if err := c.queryGraphQL(ctx, listTeamsQuery, variables, &resp); err != nil {
			return nil, fmt.Errorf("listing teams for org %s: %w", org, err)
		}
		for _, n := range resp.Data.Organization.Teams.Nodes {
			refs = append(refs, model.OrgTeamRef{Name: n.Name, Slug: n.Slug})
		}
		if !resp.Data.Organization.Teams.PageInfo.HasNextPage {
			break
		}
		variables["endCursor"] = resp.Data.Organization.Teams.PageInfo.EndCursor
	}
	return refs, nil
}

// branchProtectionRulesQuery fetches every branch protection rule on a
// repository, grounded on the branchProtectionRules fragment of
// GoliacRemoteImpl.loadRepositories (internal/engine/remote.go): REST's
// branch-protection endpoint only addresses a single literal branch name,
// but rules here are glob patterns, so GraphQL is required.
const branchProtectionRulesQuery = `
query repoBranchProtections($orgLogin: String!, $repoName: String!, $endCursor: String) {
  repository(owner: $orgLogin, name: $repoName) {
    branchProtectionRules(first: 100, after: $endCursor) {
      nodes {
        id
        pattern
        isAdminEnforced
        dismissesStaleReviews
        requiredApprovingReviewCount
        requiredStatusCheckContexts
        requiresApprovingReviews
        pushAllowances(first: 100) {
          nodes {
            actor {
              ... on User { login }
              ... on Team { organization { login } slug }
              ... on App { id }
            }
          }
        }
      }
      pageInfo {
        hasNextPage
        endCursor
      }
    }
  }
}`

type branchProtectionRulesResponse struct {
	Data struct {
		Repository struct {
			BranchProtectionRules struct {
				Nodes []struct {
					ID                           string
					Pattern                      string
					IsAdminEnforced              bool
					DismissesStaleReviews        bool
					RequiredApprovingReviewCount int
					RequiredStatusCheckContexts  []string
					RequiresApprovingReviews     bool
					PushAllowances               struct {
						Nodes []struct {
							Actor struct {
								Login        string
								Organization struct {
									Login string
								}
								Slug string
								Id   string
							}
						}
					}
				}
				PageInfo struct {
					HasNextPage bool
					EndCursor   string
				}
			}
		}
	}
}

// BranchProtections returns every branch protection rule currently
// configured on a repository, keyed by pattern (model.Read).
func (c *Client) BranchProtections(ctx context.Context, org model.OrgName, name string) (map[string]model.ObservedBranchProtection, error) {
	result := make(map[string]model.ObservedBranchProtection)
	variables := map[string]interface{}{"orgLogin": string(org), "repoName": name, "endCursor": nil}

	for {
		var resp branchProtectionRulesResponse
		if err := c.queryGraphQL(ctx, branchProtectionRulesQuery, variables, &resp); err != nil {
			return nil, fmt.Errorf("listing branch protections for %s/%s: %w", org, name, err)
		}
		for _, n := range resp.Data.Repository.BranchProtectionRules.Nodes {
			var actors []model.Actor
			for _, pa := range n.PushAllowances.Nodes {
				switch {
				case pa.Actor.Login != "":
					actors = append(actors, model.UserActor{Login: pa.Actor.Login})
				case pa.Actor.Slug != "":
					actors = append(actors, model.TeamActor{Org: pa.Actor.Organization.Login, Name: pa.Actor.Slug})
				case pa.Actor.Id != "":
					actors = append(actors, model.AppActor{Opaque: pa.Actor.Id})
				}
			}
			result[n.Pattern] = model.ObservedBranchProtection{
				DatabaseID: n.ID,
				Protection: model.CanonicalBranchProtection{
					Pattern:                      n.Pattern,
					IsAdminEnforced:              n.IsAdminEnforced,
					DismissesStaleReviews:        n.DismissesStaleReviews,
					RequiredApprovingReviewCount: uint8(n.RequiredApprovingReviewCount),
					RequiredStatusCheckContexts:  n.RequiredStatusCheckContexts,
					PushAllowances:               actors,
					RequiresApprovingReviews:     n.RequiresApprovingReviews,
				},
			}
		}
		if !resp.Data.Repository.BranchProtectionRules.PageInfo.HasNextPage {
			break
		}
		variables["endCursor"] = resp.Data.Repository.BranchProtectionRules.PageInfo.EndCursor
	}
	return result, nil
}

// createBranchProtectionRuleMutation mirrors GoliacRemoteImpl's
// createBranchProtectionRule mutation, trimmed to the fields
// CanonicalBranchProtection actually carries.
const createBranchProtectionRuleMutation = `
mutation createBranchProtectionRule(
  $repositoryId: ID!,
  $pattern: String!,
  $requiresApprovingReviews: Boolean!,
  $requiredApprovingReviewCount: Int!,
  $dismissesStaleReviews: Boolean!,
  $isAdminEnforced: Boolean!,
  $requiredStatusCheckContexts: [String!],
  $bypassPullRequestActorIds: [ID!]!) {
  createBranchProtectionRule(input: {
    repositoryId: $repositoryId,
    pattern: $pattern,
    requiresApprovingReviews: $requiresApprovingReviews,
    requiredApprovingReviewCount: $requiredApprovingReviewCount,
    dismissesStaleReviews: $dismissesStaleReviews,
    isAdminEnforced: $isAdminEnforced,
    requiresStatusChecks: true,
    requiredStatusCheckContexts: $requiredStatusCheckContexts,
    bypassPullRequestActorIds: $bypassPullRequestActorIds
  }) {
    branchProtectionRule {
      databaseId
    }
  }
}`

const updateBranchProtectionRuleMutation = `
mutation updateBranchProtectionRule(
  $branchProtectionRuleId: ID!,
  $pattern: String!,
  $requiresApprovingReviews: Boolean!,
  $requiredApprovingReviewCount: Int!,
  $dismissesStaleReviews: Boolean!,
  $isAdminEnforced: Boolean!,
  $requiredStatusCheckContexts: [String!],
  $bypassPullRequestActorIds: [ID!]!) {
  updateBranchProtectionRule(input: {
    branchProtectionRuleId: $branchProtectionRuleId,
    pattern: $pattern,
    requiresApprovingReviews: $requiresApprovingReviews,
    requiredApprovingReviewCount: $requiredApprovingReviewCount,
    dismissesStaleReviews: $dismissesStaleReviews,
    isAdminEnforced: $isAdminEnforced,
    requiresStatusChecks: true,
    requiredStatusCheckContexts: $requiredStatusCheckContexts,
    bypassPullRequestActorIds: $bypassPullRequestActorIds
  }) {
    branchProtectionRule {
      databaseId
    }
  }
}`

const deleteBranchProtectionRuleMutation = `
mutation deleteBranchProtectionRule($branchProtectionRuleId: ID!) {
  deleteBranchProtectionRule(input: { branchProtectionRuleId: $branchProtectionRuleId }) {
    clientMutationId
  }
}`

func bypassActorIDs(org model.OrgName, actors []model.Actor) []string {
	ids := make([]string, 0, len(actors))
	for _, a := range actors {
		switch actor := a.(type) {
		case model.UserActor:
			ids = append(ids, actor.Login)
		case model.TeamActor:
			ids = append(ids, actor.Name)
		case model.AppActor:
			ids = append(ids, actor.Opaque)
		}
	}
	return ids
}

// UpsertBranchProtection creates or updates a branch protection rule
// (model.Write), grounded on GoliacRemoteImpl.AddRepositoryBranchProtection
// / UpdateRepositoryBranchProtection.
func (c *Client) UpsertBranchProtection(ctx context.Context, org model.OrgName, repo string, op model.BranchProtectionOp, pattern string, protection model.CanonicalBranchProtection) error {
	bypassIDs := bypassActorIDs(org, protection.PushAllowances)

	if op.IsCreate() {
		variables := map[string]interface{}{
			"repositoryId":                 op.CreateRepoNodeID,
			"pattern":                      pattern,
			"requiresApprovingReviews":     protection.RequiresApprovingReviews,
			"requiredApprovingReviewCount": int(protection.RequiredApprovingReviewCount),
			"dismissesStaleReviews":        protection.DismissesStaleReviews,
			"isAdminEnforced":              protection.IsAdminEnforced,
			"requiredStatusCheckContexts":  protection.RequiredStatusCheckContexts,
			"bypassPullRequestActorIds":    bypassIDs,
		}
		if err := c.queryGraphQL(ctx, createBranchProtectionRuleMutation, variables, nil); err != nil {
			return fmt.Errorf("creating branch protection %s/%s pattern %s: %w", org, repo, pattern, err)
		}
		return nil
	}

	variables := map[string]interface{}{
		"branchProtectionRuleId":      op.UpdateDatabaseID,
		"pattern":                      pattern,
		"requiresApprovingReviews":     protection.RequiresApprovingReviews,
		"requiredApprovingReviewCount": int(protection.RequiredApprovingReviewCount),
		"dismissesStaleReviews":        protection.DismissesStaleReviews,
		"isAdminEnforced":              protection.IsAdminEnforced,
		"requiredStatusCheckContexts":  protection.RequiredStatusCheckContexts,
		"bypassPullRequestActorIds":    bypassIDs,
	}
	if err := c.queryGraphQL(ctx, updateBranchProtectionRuleMutation, variables, nil); err != nil {
		return fmt.Errorf("updating branch protection %s/%s pattern %s: %w", org, repo, pattern, err)
	}
	return nil
}

// DeleteBranchProtection deletes a branch protection rule by its database
// id (model.Write), grounded on
// GoliacRemoteImpl.DeleteRepositoryBranchProtection.
func (c *Client) DeleteBranchProtection(ctx context.Context, org model.OrgName, repo string, databaseID string) error {
	if err := c.queryGraphQL(ctx, deleteBranchProtectionRuleMutation, map[string]interface{}{
		"branchProtectionRuleId": databaseID,
	}, nil); err != nil {
		return fmt.Errorf("deleting branch protection %s/%s (id %s): %w", org, repo, databaseID, err)
	}
	return nil
}
