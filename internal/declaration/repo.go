package declaration

import (
	"fmt"

	"github.com/rust-team-sync/orgsync/internal/model"
	"gopkg.in/yaml.v3"
)

// knownBots is the reverse lookup used to validate a declared bot name
// against the fixed set of Bot variants (invariant: a declaration can only
// reference one of the finite well-known automation accounts).
var knownBots = map[string]model.Bot{
	"bors":         model.BotBors,
	"highfive":     model.BotHighfive,
	"rust_timer":   model.BotRustTimer,
	"rustbot":      model.BotRustbot,
	"rfcbot":       model.BotRfcbot,
	"craterbot":    model.BotCraterbot,
	"glacierbot":   model.BotGlacierbot,
	"log_analyzer": model.BotLogAnalyzer,
	"renovate":     model.BotRenovate,
}

var knownMergeBots = map[string]model.MergeBot{
	"homu":       model.MergeBotHomu,
	"rust_timer": model.MergeBotRustTimer,
}

// teamPermissionSpec declares a team's access level on a repository, e.g.
//
//	teams:
//	  - name: compiler
//	    permission: write
type teamPermissionSpec struct {
	Name       string `yaml:"name"`
	Permission string `yaml:"permission"`
}

// memberPermissionSpec declares an individual collaborator's access level.
type memberPermissionSpec struct {
	Username   string `yaml:"username"`
	Permission string `yaml:"permission"`
}

// branchProtectionModeSpec is the tagged-union YAML form of
// model.BranchProtectionMode: `type: pr_required` carries
// requiredApprovals/ciChecks, `type: pr_not_required` carries nothing else.
type branchProtectionModeSpec struct {
	Type              string   `yaml:"type"`
	RequiredApprovals int      `yaml:"requiredApprovals,omitempty"`
	CIChecks          []string `yaml:"ciChecks,omitempty"`
}

type branchProtectionSpec struct {
	Pattern            string                    `yaml:"pattern"`
	DismissStaleReview bool                      `yaml:"dismissStaleReview,omitempty"`
	Mode               branchProtectionModeSpec  `yaml:"mode"`
	AllowedMergeTeams  []string                  `yaml:"allowedMergeTeams,omitempty"`
	MergeBots          []string                  `yaml:"mergeBots,omitempty"`
}

// repoFile is the on-disk shape of a repository declaration, e.g.
// repos/rust.yaml:
//
//	apiVersion: v1
//	kind: Repository
//	name: rust
//	spec:
//	  description: "the rust compiler"
//	  autoMergeEnabled: true
//	  teams:
//	    - {name: compiler, permission: write}
//	  bots: [bors]
//	  branchProtections:
//	    - pattern: main
//	      mode: {type: pr_required, requiredApprovals: 2, ciChecks: [ci/test]}
type repoFile struct {
	entity `yaml:",inline"`
	Spec   struct {
		Description        string                  `yaml:"description,omitempty"`
		Homepage           *string                 `yaml:"homepage,omitempty"`
		Archived           bool                    `yaml:"archived,omitempty"`
		AutoMergeEnabled   bool                    `yaml:"autoMergeEnabled,omitempty"`
		Teams              []teamPermissionSpec    `yaml:"teams,omitempty"`
		Members            []memberPermissionSpec  `yaml:"members,omitempty"`
		Bots               []string                `yaml:"bots,omitempty"`
		BranchProtections  []branchProtectionSpec  `yaml:"branchProtections,omitempty"`
	} `yaml:"spec"`
}

func parseRepoFile(org model.OrgName, data []byte) (model.DeclaredRepo, error) {
	var f repoFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return model.DeclaredRepo{}, fmt.Errorf("parsing repo declaration: %w", err)
	}
	if f.Kind != "" && f.Kind != "Repository" {
		return model.DeclaredRepo{}, fmt.Errorf("expected kind Repository, got %q", f.Kind)
	}
	if f.Name == "" {
		return model.DeclaredRepo{}, fmt.Errorf("repo declaration is missing a name")
	}

	teams := make([]model.RepoTeamPermission, 0, len(f.Spec.Teams))
	for _, t := range f.Spec.Teams {
		perm, err := parsePermission(t.Permission)
		if err != nil {
			return model.DeclaredRepo{}, fmt.Errorf("repo %s team %s: %w", f.Name, t.Name, err)
		}
		teams = append(teams, model.RepoTeamPermission{TeamName: t.Name, Permission: perm})
	}

	members := make([]model.RepoMemberPermission, 0, len(f.Spec.Members))
	for _, m := range f.Spec.Members {
		perm, err := parsePermission(m.Permission)
		if err != nil {
			return model.DeclaredRepo{}, fmt.Errorf("repo %s member %s: %w", f.Name, m.Username, err)
		}
		members = append(members, model.RepoMemberPermission{Username: m.Username, Permission: perm})
	}

	bots := make([]model.Bot, 0, len(f.Spec.Bots))
	for _, name := range f.Spec.Bots {
		bot, ok := knownBots[name]
		if !ok {
			return model.DeclaredRepo{}, fmt.Errorf("repo %s: unknown bot %q", f.Name, name)
		}
		bots = append(bots, bot)
	}

	protections := make([]model.DeclaredBranchProtection, 0, len(f.Spec.BranchProtections))
	for _, bp := range f.Spec.BranchProtections {
		protection, err := parseBranchProtection(f.Name, bp)
		if err != nil {
			return model.DeclaredRepo{}, err
		}
		protections = append(protections, protection)
	}

	return model.DeclaredRepo{
		Org:               org,
		Name:              f.Name,
		Description:       f.Spec.Description,
		Homepage:          f.Spec.Homepage,
		Archived:          f.Spec.Archived,
		AutoMergeEnabled:  f.Spec.AutoMergeEnabled,
		Teams:             teams,
		Members:           members,
		Bots:              bots,
		BranchProtections: protections,
	}, nil
}

func parsePermission(s string) (model.Permission, error) {
	switch model.Permission(s) {
	case model.PermissionTriage, model.PermissionWrite, model.PermissionMaintain, model.PermissionAdmin:
		return model.Permission(s), nil
	default:
		return "", fmt.Errorf("unknown permission %q", s)
	}
}

func parseBranchProtection(repoName string, bp branchProtectionSpec) (model.DeclaredBranchProtection, error) {
	var mode model.BranchProtectionMode
	switch bp.Mode.Type {
	case "pr_required":
		mode = model.PrRequired{RequiredApprovals: bp.Mode.RequiredApprovals, CIChecks: bp.Mode.CIChecks}
	case "pr_not_required", "":
		mode = model.PrNotRequired{}
	default:
		return model.DeclaredBranchProtection{}, fmt.Errorf("repo %s pattern %s: unknown mode type %q", repoName, bp.Pattern, bp.Mode.Type)
	}

	mergeBots := make([]model.MergeBot, 0, len(bp.MergeBots))
	for _, name := range bp.MergeBots {
		mb, ok := knownMergeBots[name]
		if !ok {
			return model.DeclaredBranchProtection{}, fmt.Errorf("repo %s pattern %s: unknown merge bot %q", repoName, bp.Pattern, name)
		}
		mergeBots = append(mergeBots, mb)
	}

	return model.DeclaredBranchProtection{
		Pattern:            bp.Pattern,
		DismissStaleReview: bp.DismissStaleReview,
		Mode:               mode,
		AllowedMergeTeams:  bp.AllowedMergeTeams,
		MergeBots:          mergeBots,
	}, nil
}
