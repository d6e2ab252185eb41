package declaration

import (
	"fmt"

	"github.com/gosimple/slug"
	"github.com/rust-team-sync/orgsync/internal/model"
	"gopkg.in/yaml.v3"
)

// teamFile is the on-disk shape of a team declaration, e.g.
// teams/compiler.yaml:
//
//	apiVersion: v1
//	kind: Team
//	name: compiler
//	spec:
//	  members: [1234, 5678]
type teamFile struct {
	entity `yaml:",inline"`
	Spec   struct {
		Members []model.UserID `yaml:"members,omitempty"`
	} `yaml:"spec"`
}

func parseTeamFile(org model.OrgName, data []byte) (model.DeclaredTeam, error) {
	var f teamFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return model.DeclaredTeam{}, fmt.Errorf("parsing team declaration: %w", err)
	}
	if f.Kind != "" && f.Kind != "Team" {
		return model.DeclaredTeam{}, fmt.Errorf("expected kind Team, got %q", f.Kind)
	}
	if f.Name == "" {
		return model.DeclaredTeam{}, fmt.Errorf("team declaration is missing a name")
	}
	// The engine looks teams up and creates them by name, and GitHub derives
	// a team's slug from its name by lowercasing and hyphenating it; a name
	// that isn't already its own slug would resolve to a different team on
	// GitHub than the one this declaration thinks it is naming.
	if want := slug.Make(f.Name); f.Name != want {
		return model.DeclaredTeam{}, fmt.Errorf("team name %q is not a valid slug (expected %q)", f.Name, want)
	}

	return model.DeclaredTeam{
		Org:     org,
		Name:    f.Name,
		Members: f.Spec.Members,
	}, nil
}
