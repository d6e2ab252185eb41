package diff

import (
	"context"
	"fmt"

	"github.com/rust-team-sync/orgsync/internal/model"
	"github.com/sirupsen/logrus"
)

// Apply walks a Diff and issues idempotent mutations through a model.Write
// capability (§4.4 Diff Applier). Team diffs are applied before repo diffs
// (teams referenced by repo permissions must already exist), in the order
// they appear in d.
func Apply(ctx context.Context, write model.Write, d model.Diff) error {
	for _, t := range d.TeamDiffs {
		if err := applyTeamDiff(ctx, write, t); err != nil {
			return err
		}
	}
	for _, r := range d.RepoDiffs {
		if err := applyRepoDiff(ctx, write, r); err != nil {
			return err
		}
	}
	return nil
}

func applyTeamDiff(ctx context.Context, write model.Write, t model.TeamDiff) error {
	switch d := t.(type) {
	case model.CreateTeamDiff:
		logrus.WithFields(logrus.Fields{"command": "create_team", "org": d.Org, "team": d.Name}).Info("creating team")
		if err := write.CreateTeam(ctx, d.Org, d.Name, d.Description, d.Privacy); err != nil {
			return fmt.Errorf("creating team %s/%s: %w", d.Org, d.Name, err)
		}
		for _, m := range d.Members {
			logrus.WithFields(logrus.Fields{"command": "set_team_membership", "org": d.Org, "team": d.Name, "member": m.Username}).Infof("adding member with role %s", m.Role)
			if err := write.SetTeamMembership(ctx, d.Org, d.Name, string(m.Username), m.Role); err != nil {
				return fmt.Errorf("adding member %s to team %s/%s: %w", m.Username, d.Org, d.Name, err)
			}
		}
		return nil

	case model.EditTeamDiff:
		if d.NameDiff != nil || d.DescriptionDiff != nil || d.PrivacyDiff != nil {
			var newName, newDescription *string
			var newPrivacy *model.Privacy
			if d.NameDiff != nil {
				newName = d.NameDiff
			}
			if d.DescriptionDiff != nil {
				newDescription = &d.DescriptionDiff.New
			}
			if d.PrivacyDiff != nil {
				newPrivacy = &d.PrivacyDiff.New
			}
			logrus.WithFields(logrus.Fields{"command": "edit_team", "org": d.Org, "team": d.Name}).Info("editing team metadata")
			if err := write.EditTeam(ctx, d.Org, d.Name, newName, newDescription, newPrivacy); err != nil {
				return fmt.Errorf("editing team %s/%s: %w", d.Org, d.Name, err)
			}
		}
		for _, m := range d.MemberDiffs {
			if err := applyMemberDiff(ctx, write, d.Org, d.Name, m); err != nil {
				return err
			}
		}
		return nil

	case model.DeleteTeamDiff:
		logrus.WithFields(logrus.Fields{"command": "delete_team", "org": d.Org, "slug": d.Slug}).Info("deleting team")
		if err := write.DeleteTeam(ctx, d.Org, d.Slug); err != nil {
			return fmt.Errorf("deleting team %s/%s (slug %s): %w", d.Org, d.Name, d.Slug, err)
		}
		return nil

	default:
		return fmt.Errorf("unknown team diff type %T", t)
	}
}

func applyMemberDiff(ctx context.Context, write model.Write, org model.OrgName, team string, m model.NamedMemberDiff) error {
	switch m.Diff.Kind {
	case model.MemberCreate, model.MemberChangeRole:
		logrus.WithFields(logrus.Fields{"command": "set_team_membership", "org": org, "team": team, "member": m.Username}).Infof("setting membership role %s", m.Diff.NewRole)
		if err := write.SetTeamMembership(ctx, org, team, string(m.Username), m.Diff.NewRole); err != nil {
			return fmt.Errorf("setting membership of %s on team %s/%s: %w", m.Username, org, team, err)
		}
	case model.MemberDelete:
		logrus.WithFields(logrus.Fields{"command": "remove_team_membership", "org": org, "team": team, "member": m.Username}).Info("removing membership")
		if err := write.RemoveTeamMembership(ctx, org, team, string(m.Username)); err != nil {
			return fmt.Errorf("removing membership of %s on team %s/%s: %w", m.Username, org, team, err)
		}
	case model.MemberNoop:
		// nothing to do
	}
	return nil
}

func applyRepoDiff(ctx context.Context, write model.Write, r model.RepoDiff) error {
	switch d := r.(type) {
	case model.CreateRepoDiff:
		logrus.WithFields(logrus.Fields{"command": "create_repo", "org": d.Org, "repo": d.Name}).Info("creating repo")
		created, err := write.CreateRepo(ctx, d.Org, d.Name, d.Settings)
		if err != nil {
			return fmt.Errorf("creating repo %s/%s: %w", d.Org, d.Name, err)
		}
		for _, p := range d.Permissions {
			if err := applyPermissionDiff(ctx, write, d.Org, d.Name, p); err != nil {
				return err
			}
		}
		for _, bp := range d.BranchProtections {
			op := model.BranchProtectionOp{CreateRepoNodeID: created.NodeID}
			logrus.WithFields(logrus.Fields{"command": "upsert_branch_protection", "org": d.Org, "repo": d.Name, "pattern": bp.Pattern}).Info("creating branch protection")
			if err := write.UpsertBranchProtection(ctx, d.Org, d.Name, op, bp.Pattern, bp.Protection); err != nil {
				return fmt.Errorf("creating branch protection %q on %s/%s: %w", bp.Pattern, d.Org, d.Name, err)
			}
		}
		return nil

	case model.UpdateRepoDiff:
		if d.IsArchiveFreeze() {
			// An archived repository that should stay archived is frozen:
			// issue zero Provider writes regardless of what other diffs it
			// carries.
			return nil
		}

		isUnarchive := d.OldSettings.Archived && !d.NewSettings.Archived

		if isUnarchive {
			logrus.WithFields(logrus.Fields{"command": "edit_repo", "org": d.Org, "repo": d.Name}).Info("unarchiving repo (settings written first)")
			if err := write.EditRepo(ctx, d.Org, d.Name, d.NewSettings); err != nil {
				return fmt.Errorf("unarchiving repo %s/%s: %w", d.Org, d.Name, err)
			}
		}

		for _, p := range d.PermissionDiffs {
			if err := applyPermissionDiff(ctx, write, d.Org, d.Name, p); err != nil {
				return err
			}
		}

		for _, bp := range d.BranchProtectionDiffs {
			if err := applyBranchProtectionDiff(ctx, write, d.Org, d.Name, d.RepoNodeID, bp); err != nil {
				return err
			}
		}

		if !isUnarchive && !d.OldSettings.Equal(d.NewSettings) {
			logrus.WithFields(logrus.Fields{"command": "edit_repo", "org": d.Org, "repo": d.Name}).Info("writing repo settings")
			if err := write.EditRepo(ctx, d.Org, d.Name, d.NewSettings); err != nil {
				return fmt.Errorf("editing repo %s/%s: %w", d.Org, d.Name, err)
			}
		}
		return nil

	default:
		return fmt.Errorf("unknown repo diff type %T", r)
	}
}

func applyPermissionDiff(ctx context.Context, write model.Write, org model.OrgName, repo string, p model.RepoPermissionAssignmentDiff) error {
	switch p.Kind {
	case model.PermissionCreate, model.PermissionUpdate:
		if p.CollaboratorKind == model.CollaboratorTeam {
			logrus.WithFields(logrus.Fields{"command": "update_team_repo_permissions", "org": org, "repo": repo, "team": p.CollaboratorName}).Infof("granting %s permission", p.NewPermission)
			if err := write.UpdateTeamRepoPermissions(ctx, org, repo, p.CollaboratorName, p.NewPermission); err != nil {
				return fmt.Errorf("granting team %s %s permission on %s/%s: %w", p.CollaboratorName, p.NewPermission, org, repo, err)
			}
			return nil
		}
		logrus.WithFields(logrus.Fields{"command": "update_user_repo_permissions", "org": org, "repo": repo, "user": p.CollaboratorName}).Infof("granting %s permission", p.NewPermission)
		if err := write.UpdateUserRepoPermissions(ctx, org, repo, p.CollaboratorName, p.NewPermission); err != nil {
			return fmt.Errorf("granting user %s %s permission on %s/%s: %w", p.CollaboratorName, p.NewPermission, org, repo, err)
		}
		return nil

	case model.PermissionDelete:
		if p.CollaboratorKind == model.CollaboratorTeam {
			logrus.WithFields(logrus.Fields{"command": "remove_team_from_repo", "org": org, "repo": repo, "team": p.CollaboratorName}).Info("removing team access")
			if err := write.RemoveTeamFromRepo(ctx, org, repo, p.CollaboratorName); err != nil {
				return fmt.Errorf("removing team %s from %s/%s: %w", p.CollaboratorName, org, repo, err)
			}
			return nil
		}
		logrus.WithFields(logrus.Fields{"command": "remove_collaborator_from_repo", "org": org, "repo": repo, "user": p.CollaboratorName}).Info("removing collaborator access")
		if err := write.RemoveCollaboratorFromRepo(ctx, org, repo, p.CollaboratorName); err != nil {
			return fmt.Errorf("removing collaborator %s from %s/%s: %w", p.CollaboratorName, org, repo, err)
		}
		return nil
	}
	return nil
}

func applyBranchProtectionDiff(ctx context.Context, write model.Write, org model.OrgName, repo string, repoNodeID string, bp model.BranchProtectionDiff) error {
	switch bp.Kind {
	case model.BranchProtectionCreate:
		logrus.WithFields(logrus.Fields{"command": "upsert_branch_protection", "org": org, "repo": repo, "pattern": bp.Pattern}).Info("creating branch protection")
		op := model.BranchProtectionOp{CreateRepoNodeID: repoNodeID}
		if err := write.UpsertBranchProtection(ctx, org, repo, op, bp.Pattern, bp.New); err != nil {
			return fmt.Errorf("creating branch protection %q on %s/%s: %w", bp.Pattern, org, repo, err)
		}
	case model.BranchProtectionUpdate:
		logrus.WithFields(logrus.Fields{"command": "upsert_branch_protection", "org": org, "repo": repo, "pattern": bp.Pattern}).Info("updating branch protection")
		op := model.BranchProtectionOp{UpdateDatabaseID: bp.DatabaseID}
		if err := write.UpsertBranchProtection(ctx, org, repo, op, bp.Pattern, bp.New); err != nil {
			return fmt.Errorf("updating branch protection %q on %s/%s: %w", bp.Pattern, org, repo, err)
		}
	case model.BranchProtectionDelete:
		logrus.WithFields(logrus.Fields{"command": "delete_branch_protection", "org": org, "repo": repo, "pattern": bp.Pattern}).Info("deleting branch protection")
		if err := write.DeleteBranchProtection(ctx, org, repo, bp.DatabaseID); err != nil {
			return fmt.Errorf("deleting branch protection %q on %s/%s: %w", bp.Pattern, org, repo, err)
		}
	}
	return nil
}
