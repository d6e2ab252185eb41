package diff

import (
	"fmt"
	"strings"

	"github.com/rust-team-sync/orgsync/internal/model"
)

// Render produces a deterministic, human-readable text report of a Diff
// (§4.5 Diff Renderer). Team diffs are rendered before repo diffs, in the
// same order the engine produced them. A Diff that issues zero writes
// renders as the empty string.
func Render(d model.Diff) string {
	var b strings.Builder

	for _, t := range d.TeamDiffs {
		renderTeamDiff(&b, t)
	}
	for _, r := range d.RepoDiffs {
		renderRepoDiff(&b, r)
	}

	return b.String()
}

func renderTeamDiff(b *strings.Builder, t model.TeamDiff) {
	switch d := t.(type) {
	case model.CreateTeamDiff:
		fmt.Fprintf(b, "+ team %s/%s\n", d.Org, d.Name)
		fmt.Fprintf(b, "    description: %q\n", d.Description)
		fmt.Fprintf(b, "    privacy: %s\n", d.Privacy)
		for _, m := range d.Members {
			fmt.Fprintf(b, "    + member %s (%s)\n", m.Username, m.Role)
		}

	case model.EditTeamDiff:
		if d.IsNoop() {
			return
		}
		fmt.Fprintf(b, "~ team %s/%s\n", d.Org, d.Name)
		if d.NameDiff != nil {
			fmt.Fprintf(b, "    name: %q -> %q\n", d.Name, *d.NameDiff)
		}
		if d.DescriptionDiff != nil {
			fmt.Fprintf(b, "    description: %q -> %q\n", d.DescriptionDiff.Old, d.DescriptionDiff.New)
		}
		if d.PrivacyDiff != nil {
			fmt.Fprintf(b, "    privacy: %s -> %s\n", d.PrivacyDiff.Old, d.PrivacyDiff.New)
		}
		for _, m := range d.MemberDiffs {
			renderMemberDiff(b, m)
		}

	case model.DeleteTeamDiff:
		fmt.Fprintf(b, "- team %s/%s (slug %s)\n", d.Org, d.Name, d.Slug)
	}
}

func renderMemberDiff(b *strings.Builder, m model.NamedMemberDiff) {
	switch m.Diff.Kind {
	case model.MemberCreate:
		fmt.Fprintf(b, "    + member %s (%s)\n", m.Username, m.Diff.NewRole)
	case model.MemberChangeRole:
		fmt.Fprintf(b, "    ~ member %s: %s -> %s\n", m.Username, m.Diff.OldRole, m.Diff.NewRole)
	case model.MemberDelete:
		fmt.Fprintf(b, "    - member %s\n", m.Username)
	case model.MemberNoop:
	}
}

func renderRepoDiff(b *strings.Builder, r model.RepoDiff) {
	switch d := r.(type) {
	case model.CreateRepoDiff:
		fmt.Fprintf(b, "+ repo %s/%s\n", d.Org, d.Name)
		renderRepoSettingsCreate(b, d.Settings)
		for _, p := range d.Permissions {
			renderPermissionDiff(b, p)
		}
		for _, bp := range d.BranchProtections {
			fmt.Fprintf(b, "    + branch protection %q\n", bp.Pattern)
			renderProtectionFields(b, "        ", bp.Protection)
		}

	case model.UpdateRepoDiff:
		if d.IsNoop() {
			return
		}
		if d.IsArchiveFreeze() {
			// Unreachable given the IsNoop() guard above, kept for clarity:
			// an archive-frozen update is always a no-op.
			return
		}
		fmt.Fprintf(b, "~ repo %s/%s\n", d.Org, d.Name)
		renderRepoSettingsUpdate(b, d.OldSettings, d.NewSettings)
		for _, p := range d.PermissionDiffs {
			renderPermissionDiff(b, p)
		}
		for _, bp := range d.BranchProtectionDiffs {
			renderBranchProtectionDiff(b, bp)
		}
	}
}

func renderRepoSettingsCreate(b *strings.Builder, s model.RepoSettings) {
	fmt.Fprintf(b, "    description: %q\n", s.Description)
	if s.Homepage != nil {
		fmt.Fprintf(b, "    homepage: %q\n", *s.Homepage)
	}
	fmt.Fprintf(b, "    auto_merge: %v\n", s.AutoMergeEnabled)
}

func renderRepoSettingsUpdate(b *strings.Builder, old, new model.RepoSettings) {
	if old.Description != new.Description {
		fmt.Fprintf(b, "    description: %q -> %q\n", old.Description, new.Description)
	}
	if !stringPtrEqual(old.Homepage, new.Homepage) {
		fmt.Fprintf(b, "    homepage: %s -> %s\n", stringPtrOrNone(old.Homepage), stringPtrOrNone(new.Homepage))
	}
	if old.Archived != new.Archived {
		fmt.Fprintf(b, "    archived: %v -> %v\n", old.Archived, new.Archived)
	}
	if old.AutoMergeEnabled != new.AutoMergeEnabled {
		fmt.Fprintf(b, "    auto_merge: %v -> %v\n", old.AutoMergeEnabled, new.AutoMergeEnabled)
	}
}

func stringPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func stringPtrOrNone(s *string) string {
	if s == nil {
		return "(none)"
	}
	return fmt.Sprintf("%q", *s)
}

func renderPermissionDiff(b *strings.Builder, p model.RepoPermissionAssignmentDiff) {
	kind := "team"
	if p.CollaboratorKind == model.CollaboratorUser {
		kind = "user"
	}
	switch p.Kind {
	case model.PermissionCreate:
		fmt.Fprintf(b, "    + %s %s: %s\n", kind, p.CollaboratorName, p.NewPermission)
	case model.PermissionUpdate:
		fmt.Fprintf(b, "    ~ %s %s: %s -> %s\n", kind, p.CollaboratorName, p.OldPermission, p.NewPermission)
	case model.PermissionDelete:
		fmt.Fprintf(b, "    - %s %s (was %s)\n", kind, p.CollaboratorName, p.OldPermission)
	}
}

func renderBranchProtectionDiff(b *strings.Builder, bp model.BranchProtectionDiff) {
	switch bp.Kind {
	case model.BranchProtectionCreate:
		fmt.Fprintf(b, "    + branch protection %q\n", bp.Pattern)
		renderProtectionFields(b, "        ", bp.New)
	case model.BranchProtectionUpdate:
		fmt.Fprintf(b, "    ~ branch protection %q\n", bp.Pattern)
		renderProtectionDiffFields(b, "        ", bp.Old, bp.New)
	case model.BranchProtectionDelete:
		fmt.Fprintf(b, "    - branch protection %q\n", bp.Pattern)
	}
}

func renderProtectionFields(b *strings.Builder, indent string, p model.CanonicalBranchProtection) {
	fmt.Fprintf(b, "%srequires_approving_reviews: %v\n", indent, p.RequiresApprovingReviews)
	if p.RequiresApprovingReviews {
		fmt.Fprintf(b, "%srequired_approving_review_count: %d\n", indent, p.RequiredApprovingReviewCount)
	}
	fmt.Fprintf(b, "%sdismisses_stale_reviews: %v\n", indent, p.DismissesStaleReviews)
	if len(p.RequiredStatusCheckContexts) > 0 {
		fmt.Fprintf(b, "%srequired_status_checks: %s\n", indent, strings.Join(p.RequiredStatusCheckContexts, ", "))
	}
	for _, actor := range p.PushAllowances {
		fmt.Fprintf(b, "%spush_allowance: %s\n", indent, actorLabel(actor))
	}
}

func renderProtectionDiffFields(b *strings.Builder, indent string, old, new model.CanonicalBranchProtection) {
	if old.RequiresApprovingReviews != new.RequiresApprovingReviews {
		fmt.Fprintf(b, "%srequires_approving_reviews: %v -> %v\n", indent, old.RequiresApprovingReviews, new.RequiresApprovingReviews)
	}
	if old.RequiredApprovingReviewCount != new.RequiredApprovingReviewCount {
		fmt.Fprintf(b, "%srequired_approving_review_count: %d -> %d\n", indent, old.RequiredApprovingReviewCount, new.RequiredApprovingReviewCount)
	}
	if old.DismissesStaleReviews != new.DismissesStaleReviews {
		fmt.Fprintf(b, "%sdismisses_stale_reviews: %v -> %v\n", indent, old.DismissesStaleReviews, new.DismissesStaleReviews)
	}
	if strings.Join(old.RequiredStatusCheckContexts, ",") != strings.Join(new.RequiredStatusCheckContexts, ",") {
		fmt.Fprintf(b, "%srequired_status_checks: [%s] -> [%s]\n", indent,
			strings.Join(old.RequiredStatusCheckContexts, ", "), strings.Join(new.RequiredStatusCheckContexts, ", "))
	}
	if len(old.PushAllowances) != len(new.PushAllowances) || !sameActors(old.PushAllowances, new.PushAllowances) {
		fmt.Fprintf(b, "%spush_allowances: [%s] -> [%s]\n", indent, actorLabels(old.PushAllowances), actorLabels(new.PushAllowances))
	}
}

func sameActors(a, b []model.Actor) bool {
	return actorLabels(a) == actorLabels(b)
}

func actorLabels(actors []model.Actor) string {
	labels := make([]string, 0, len(actors))
	for _, a := range actors {
		labels = append(labels, actorLabel(a))
	}
	return strings.Join(labels, ", ")
}

func actorLabel(a model.Actor) string {
	switch v := a.(type) {
	case model.TeamActor:
		return fmt.Sprintf("team:%s/%s", v.Org, v.Name)
	case model.UserActor:
		return fmt.Sprintf("user:%s", v.Login)
	case model.AppActor:
		return fmt.Sprintf("app:%s", v.Opaque)
	default:
		return fmt.Sprintf("%s:?", a.Kind())
	}
}
