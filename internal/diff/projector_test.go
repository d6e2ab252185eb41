package diff

import (
	"errors"
	"testing"

	"github.com/rust-team-sync/orgsync/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProject_PrRequired_SortsChecksAndEnforcesAdmin(t *testing.T) {
	repo := model.DeclaredRepo{Org: "rust-lang", Name: "rust"}
	bp := model.DeclaredBranchProtection{
		Pattern:            "main",
		DismissStaleReview: true,
		Mode: model.PrRequired{
			RequiredApprovals: 2,
			CIChecks:          []string{"ci/test", "ci/build"},
		},
	}

	got, err := Project(repo, bp)

	require.NoError(t, err)
	assert.Equal(t, model.CanonicalBranchProtection{
		Pattern:                      "main",
		IsAdminEnforced:              true,
		DismissesStaleReviews:        true,
		RequiredApprovingReviewCount: 2,
		RequiredStatusCheckContexts:  []string{"ci/build", "ci/test"},
		PushAllowances:               []model.Actor{},
		RequiresApprovingReviews:     true,
	}, got)
}

func TestProject_MergeBotForcesPrNotRequired(t *testing.T) {
	repo := model.DeclaredRepo{Org: "rust-lang", Name: "rust"}
	bp := model.DeclaredBranchProtection{
		Pattern: "main",
		Mode: model.PrRequired{
			RequiredApprovals: 2,
			CIChecks:          []string{"ci/test"},
		},
		MergeBots: []model.MergeBot{model.MergeBotHomu},
	}

	got, err := Project(repo, bp)

	require.NoError(t, err)
	assert.False(t, got.RequiresApprovingReviews)
	assert.Equal(t, uint8(0), got.RequiredApprovingReviewCount)
	assert.Equal(t, []model.Actor{model.UserActor{Login: "bors"}}, got.PushAllowances)
}

func TestProject_AllowedMergeTeamsBecomePushAllowances(t *testing.T) {
	repo := model.DeclaredRepo{Org: "rust-lang", Name: "rust"}
	bp := model.DeclaredBranchProtection{
		Pattern:           "main",
		Mode:              model.PrNotRequired{},
		AllowedMergeTeams: []string{"release-team"},
	}

	got, err := Project(repo, bp)

	require.NoError(t, err)
	assert.Equal(t, []model.Actor{model.TeamActor{Org: "rust-lang", Name: "release-team"}}, got.PushAllowances)
}

func TestProject_RequiredApprovalsOverflowIsProjectionError(t *testing.T) {
	repo := model.DeclaredRepo{Org: "rust-lang", Name: "rust"}
	bp := model.DeclaredBranchProtection{
		Pattern: "main",
		Mode:    model.PrRequired{RequiredApprovals: 256},
	}

	_, err := Project(repo, bp)

	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrProjection))
}

func TestDiffBranchProtections_CreatesMissingPattern(t *testing.T) {
	repo := model.DeclaredRepo{
		Org:  "rust-lang",
		Name: "rust",
		BranchProtections: []model.DeclaredBranchProtection{
			{Pattern: "main", Mode: model.PrNotRequired{}},
		},
	}

	diffs, err := DiffBranchProtections(repo, map[string]model.ObservedBranchProtection{})

	require.NoError(t, err)
	require.Len(t, diffs, 1)
	assert.Equal(t, model.BranchProtectionCreate, diffs[0].Kind)
	assert.Equal(t, "main", diffs[0].Pattern)
}

func TestDiffBranchProtections_NoopWhenIdentical(t *testing.T) {
	repo := model.DeclaredRepo{
		Org:  "rust-lang",
		Name: "rust",
		BranchProtections: []model.DeclaredBranchProtection{
			{Pattern: "main", Mode: model.PrNotRequired{}},
		},
	}
	projected, err := Project(repo, repo.BranchProtections[0])
	require.NoError(t, err)

	observed := map[string]model.ObservedBranchProtection{
		"main": {DatabaseID: "db1", Protection: projected},
	}

	diffs, err := DiffBranchProtections(repo, observed)

	require.NoError(t, err)
	assert.Empty(t, diffs)
}

func TestDiffBranchProtections_PreservesAppPushAllowance(t *testing.T) {
	repo := model.DeclaredRepo{
		Org:  "rust-lang",
		Name: "rust",
		BranchProtections: []model.DeclaredBranchProtection{
			{Pattern: "main", Mode: model.PrNotRequired{}},
		},
	}
	appActor := model.AppActor{Opaque: "app-node-id"}
	observed := map[string]model.ObservedBranchProtection{
		"main": {
			DatabaseID: "db1",
			Protection: model.CanonicalBranchProtection{
				Pattern:         "main",
				IsAdminEnforced: true,
				PushAllowances:  []model.Actor{appActor},
			},
		},
	}

	diffs, err := DiffBranchProtections(repo, observed)

	require.NoError(t, err)
	assert.Empty(t, diffs, "an observed App push allowance with nothing else changed must not trigger an update")
}

func TestDiffBranchProtections_DeletesOrphanedPattern(t *testing.T) {
	repo := model.DeclaredRepo{Org: "rust-lang", Name: "rust"}
	observed := map[string]model.ObservedBranchProtection{
		"old-pattern": {DatabaseID: "db9"},
	}

	diffs, err := DiffBranchProtections(repo, observed)

	require.NoError(t, err)
	require.Len(t, diffs, 1)
	assert.Equal(t, model.BranchProtectionDelete, diffs[0].Kind)
	assert.Equal(t, "db9", diffs[0].DatabaseID)
}
