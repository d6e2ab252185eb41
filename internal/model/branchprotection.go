package model

// BranchProtectionMode is the declared review requirement for a protected
// branch: either pull requests are required (with an approval count and a
// set of required CI checks) or they are not required at all.
type BranchProtectionMode interface {
	isBranchProtectionMode()
}

// PrRequired means merges must go through a pull request with at least
// RequiredApprovals approvals and all of CIChecks passing.
type PrRequired struct {
	RequiredApprovals int
	CIChecks          []string
}

func (PrRequired) isBranchProtectionMode() {}

// PrNotRequired means the branch can be pushed to directly (typically
// because a merge bot force-pushes merges to it).
type PrNotRequired struct{}

func (PrNotRequired) isBranchProtectionMode() {}

// DeclaredBranchProtection is a branch protection rule as written in the
// source-of-truth declaration.
type DeclaredBranchProtection struct {
	Pattern            string
	DismissStaleReview bool
	Mode               BranchProtectionMode
	AllowedMergeTeams  []string
	MergeBots          []MergeBot
}

// CanonicalBranchProtection is the Provider-shaped form of a branch
// protection rule, produced either by projecting a DeclaredBranchProtection
// (see diff.Project) or by reading the Provider's live state. Equality
// between two canonical values is structural, field by field; list fields
// must already be in canonical order (RequiredStatusCheckContexts sorted
// ascending, invariant I3) for equality to be stable.
type CanonicalBranchProtection struct {
	Pattern                      string
	IsAdminEnforced              bool
	DismissesStaleReviews        bool
	RequiredApprovingReviewCount uint8
	RequiredStatusCheckContexts  []string
	PushAllowances               []Actor
	RequiresApprovingReviews     bool
}

// ObservedBranchProtection pairs a CanonicalBranchProtection with the
// Provider's opaque handle for the existing rule, required by update/delete
// write calls.
type ObservedBranchProtection struct {
	DatabaseID string
	Protection CanonicalBranchProtection
}
