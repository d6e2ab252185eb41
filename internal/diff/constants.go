// Package diff implements the pure diff-computation and diff-application
// engine: it turns a declared state and an observed state into an ordered
// Diff (see internal/model), and turns a Diff into either a human-readable
// rendering or a sequence of Provider writes. Nothing in this package talks
// to the network; it consumes model.Read and model.Write capabilities.
package diff

import "github.com/rust-team-sync/orgsync/internal/model"

// DefaultTeamDescription is the description assigned to a team created by
// this engine, and the canonical value an existing team's description is
// compared against.
const DefaultTeamDescription = "Managed by the rust-lang/team repository."

// DefaultTeamPrivacy is the canonical team visibility.
const DefaultTeamPrivacy = model.PrivacyClosed

// DeletionAllowedOrgs is the set of organizations in which a team absent
// from the declaration is eligible for deletion (invariant I6). Orgs not in
// this set never have their unmanaged teams deleted.
var DeletionAllowedOrgs = map[model.OrgName]struct{}{
	"rust-lang":         {},
	"rust-lang-nursery": {},
}

// ReservedBotTeams is the set of team names that are never deleted even when
// absent from the declaration and in a deletion-allowed org (invariant I6).
var ReservedBotTeams = map[string]struct{}{
	"bors":     {},
	"highfive": {},
	"rfcbot":   {},
	"bots":     {},
}

// SecurityTeamOrg and SecurityTeamName identify the one built-in
// team-preservation rule (invariant I7): an observed team by this name in
// this org is never emitted as a permission Delete, because the Provider
// grants it implicit read access via a security-manager role that cannot be
// revoked through this API.
const (
	SecurityTeamOrg  = model.OrgName("rust-lang")
	SecurityTeamName = "security"
)

// PATOnlyRepoOrg and PATOnlyRepoName identify the one repository whose
// branch-protection diffing is skipped entirely when the Read capability is
// operating without a personal access token (§4.1 special case): its branch
// protections use Provider App push allowances that cannot be observed
// without a PAT, and diffing without seeing them would spuriously delete
// them.
const (
	PATOnlyRepoOrg  = model.OrgName("rust-lang")
	PATOnlyRepoName = "rust"
)

func isDeletionAllowedOrg(org model.OrgName) bool {
	_, ok := DeletionAllowedOrgs[org]
	return ok
}

func isReservedBotTeam(name string) bool {
	_, ok := ReservedBotTeams[name]
	return ok
}
