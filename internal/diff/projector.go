package diff

import (
	"fmt"
	"sort"

	"github.com/google/go-cmp/cmp"
	"github.com/rust-team-sync/orgsync/internal/model"
)

// effectiveMode returns the branch protection mode actually in force: any
// declared merge bot forces PrNotRequired regardless of the declared mode,
// because a merge bot force-pushes merges directly to the branch
// (invariant I5).
func effectiveMode(bp model.DeclaredBranchProtection) model.BranchProtectionMode {
	if len(bp.MergeBots) > 0 {
		return model.PrNotRequired{}
	}
	return bp.Mode
}

// Project turns a declared branch protection into its canonical,
// Provider-shaped form. It never produces an App push allowance (invariant
// B5); those are copied in separately by DiffBranchProtections when an
// observed protection already exists.
func Project(repo model.DeclaredRepo, bp model.DeclaredBranchProtection) (model.CanonicalBranchProtection, error) {
	mode := effectiveMode(bp)

	var reviewCount uint8
	var ciChecks []string
	requiresReviews := false

	switch m := mode.(type) {
	case model.PrRequired:
		if m.RequiredApprovals < 0 || m.RequiredApprovals > 255 {
			return model.CanonicalBranchProtection{}, fmt.Errorf(
				"%w: required_approving_review_count %d does not fit in a uint8 for %s/%s pattern %q",
				model.ErrProjection, m.RequiredApprovals, repo.Org, repo.Name, bp.Pattern,
			)
		}
		reviewCount = uint8(m.RequiredApprovals)
		ciChecks = append(ciChecks, m.CIChecks...)
		requiresReviews = true
	case model.PrNotRequired:
		reviewCount = 0
	default:
		return model.CanonicalBranchProtection{}, fmt.Errorf("%w: unknown branch protection mode %T", model.ErrProjection, mode)
	}

	// Normalize check order so textual order never produces a spurious
	// diff (invariant I3).
	sort.Strings(ciChecks)

	pushAllowances := make([]model.Actor, 0, len(bp.AllowedMergeTeams)+len(bp.MergeBots))
	for _, team := range bp.AllowedMergeTeams {
		pushAllowances = append(pushAllowances, model.TeamActor{Org: string(repo.Org), Name: team})
	}
	for _, mb := range bp.MergeBots {
		pushAllowances = append(pushAllowances, model.UserActor{Login: mb.Username()})
	}

	return model.CanonicalBranchProtection{
		Pattern:                      bp.Pattern,
		IsAdminEnforced:              true,
		DismissesStaleReviews:        bp.DismissStaleReview,
		RequiredApprovingReviewCount: reviewCount,
		RequiredStatusCheckContexts:  ciChecks,
		PushAllowances:               pushAllowances,
		RequiresApprovingReviews:     requiresReviews,
	}, nil
}

// DiffBranchProtections computes the branch protection diffs for a single
// repository (§4.3 Differ). observed is consumed: every matched pattern is
// removed, and what remains afterward becomes a Delete diff.
func DiffBranchProtections(repo model.DeclaredRepo, observed map[string]model.ObservedBranchProtection) ([]model.BranchProtectionDiff, error) {
	var diffs []model.BranchProtectionDiff

	for _, bp := range repo.BranchProtections {
		existing, hadExisting := observed[bp.Pattern]
		delete(observed, bp.Pattern)

		projected, err := Project(repo, bp)
		if err != nil {
			return nil, err
		}

		if hadExisting {
			// We don't model Provider App push allowance actors in the
			// declaration. Copy any observed App actors into the projected
			// form before comparing, so manually granted App access
			// round-trips instead of being deleted (invariant I4/B5).
			for _, actor := range existing.Protection.PushAllowances {
				if _, ok := actor.(model.AppActor); ok {
					projected.PushAllowances = append(projected.PushAllowances, actor)
				}
			}

			if branchProtectionsEqual(existing.Protection, projected) {
				continue
			}

			diffs = append(diffs, model.BranchProtectionDiff{
				Pattern:    bp.Pattern,
				Kind:       model.BranchProtectionUpdate,
				DatabaseID: existing.DatabaseID,
				Old:        existing.Protection,
				New:        projected,
			})
			continue
		}

		diffs = append(diffs, model.BranchProtectionDiff{
			Pattern: bp.Pattern,
			Kind:    model.BranchProtectionCreate,
			New:     projected,
		})
	}

	// Whatever remains in `observed` was not expected but is still on the
	// Provider: delete it, in a deterministic order.
	patterns := make([]string, 0, len(observed))
	for pattern := range observed {
		patterns = append(patterns, pattern)
	}
	sort.Strings(patterns)
	for _, pattern := range patterns {
		existing := observed[pattern]
		diffs = append(diffs, model.BranchProtectionDiff{
			Pattern:    pattern,
			Kind:       model.BranchProtectionDelete,
			DatabaseID: existing.DatabaseID,
		})
	}

	return diffs, nil
}

func branchProtectionsEqual(a, b model.CanonicalBranchProtection) bool {
	return cmp.Equal(a, b)
}
