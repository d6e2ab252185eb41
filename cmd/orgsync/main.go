// Command orgsync reconciles a GitHub organization's teams, repositories,
// permissions and branch protection rules against a declarative YAML source
// of truth, grounded on cmd/goliac/main.go's cobra command tree.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rust-team-sync/orgsync/internal/config"
	"github.com/rust-team-sync/orgsync/internal/declaration"
	"github.com/rust-team-sync/orgsync/internal/diff"
	"github.com/rust-team-sync/orgsync/internal/model"
	"github.com/rust-team-sync/orgsync/internal/provider/github"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	repositoryFlag string
	branchFlag     string
	teamsDirFlag   string
	reposDirFlag   string
	noProgressbar  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "orgsync",
		Short: "Reconcile a GitHub organization against a declared YAML source of truth",
		Long: `orgsync diffs a directory of team/repo YAML declarations against a live
GitHub organization and either prints the plan (plan) or applies it (sync).`,
	}

	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute and print the diff between the declaration and GitHub, without applying it",
		Run: func(cmd *cobra.Command, args []string) {
			run(cmd.Context(), false)
		},
	}
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Compute the diff and apply it to GitHub",
		Run: func(cmd *cobra.Command, args []string) {
			run(cmd.Context(), true)
		},
	}

	for _, c := range []*cobra.Command{planCmd, syncCmd} {
		c.Flags().StringVarP(&repositoryFlag, "repository", "r", "", "declaration repository URL (default env ORGSYNC_DECLARATION_REPOSITORY)")
		c.Flags().StringVarP(&branchFlag, "branch", "b", "", "declaration branch (default env ORGSYNC_DECLARATION_BRANCH)")
		c.Flags().StringVar(&teamsDirFlag, "teams-dir", "teams", "directory of team YAML files within the declaration repository")
		c.Flags().StringVar(&reposDirFlag, "repos-dir", "repos", "directory of repo YAML files within the declaration repository")
		c.Flags().BoolVarP(&noProgressbar, "noprogressbar", "p", false, "disable the fetch-phase progress spinner")
	}

	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(syncCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// run loads config, clones the declaration, builds the Provider client, and
// runs the diff/plan/sync pipeline shared by both subcommands; apply selects
// "sync" (diff + Apply) over "plan" (diff + Render).
func run(ctx context.Context, apply bool) {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load config: %s", err)
	}
	if err := config.SetupLogging(cfg); err != nil {
		logrus.Fatalf("failed to configure logging: %s", err)
	}

	repo := repositoryFlag
	if repo == "" {
		repo = cfg.DeclarationRepository
	}
	branch := branchFlag
	if branch == "" {
		branch = cfg.DeclarationBranch
	}
	if repo == "" {
		logrus.Fatalf("missing declaration repository. Try --help")
	}

	applyConfigOverrides(cfg)

	fs, err := declaration.Clone(repo, branch, cfg.GithubPATToken)
	if err != nil {
		logrus.Fatalf("failed to clone declaration repository: %s", err)
	}

	org := model.OrgName(cfg.GithubOrganization)
	teams, err := declaration.LoadTeams(fs, org, teamsDirFlag)
	if err != nil {
		logrus.Fatalf("failed to load declared teams: %s", err)
	}
	repos, err := declaration.LoadRepos(fs, org, reposDirFlag)
	if err != nil {
		logrus.Fatalf("failed to load declared repos: %s", err)
	}

	client, err := github.New(github.Config{
		Server:          cfg.GithubServer,
		Organization:    cfg.GithubOrganization,
		AppID:           cfg.GithubAppID,
		PrivateKeyFile:  cfg.GithubAppPrivateKeyFile,
		PATToken:        cfg.GithubPATToken,
		RateLimitPerSec: cfg.GithubRateLimitPerSec,
		RateLimitBurst:  cfg.GithubRateLimitBurst,
	})
	if err != nil {
		logrus.Fatalf("failed to build github client: %s", err)
	}

	var read model.Read = client
	var reader *progressReader
	if !noProgressbar {
		reader = newProgressReader(read)
		read = reader
	}

	engine, err := diff.NewEngine(ctx, read, teams, repos)
	if err != nil {
		logrus.Fatalf("failed to build diff engine: %s", err)
	}
	d, err := engine.DiffAll(ctx)
	if reader != nil {
		reader.finish()
	}
	if err != nil {
		logrus.Fatalf("failed to compute diff: %s", err)
	}

	if !apply {
		rendered := diff.Render(d)
		if rendered == "" {
			fmt.Println("no changes")
			return
		}
		fmt.Print(styleDiff(rendered))
		return
	}

	if err := diff.Apply(ctx, client, d); err != nil {
		logrus.Fatalf("failed to apply diff: %s", err)
	}
}

// applyConfigOverrides installs cfg's optional overrides of
// diff.DeletionAllowedOrgs/diff.ReservedBotTeams when the operator has
// configured them, per SPEC_FULL §2 item 10.
func applyConfigOverrides(cfg *config.Config) {
	if len(cfg.DeletionAllowedOrgs) > 0 {
		allowed := make(map[model.OrgName]struct{}, len(cfg.DeletionAllowedOrgs))
		for _, org := range cfg.DeletionAllowedOrgs {
			allowed[model.OrgName(org)] = struct{}{}
		}
		diff.DeletionAllowedOrgs = allowed
	}
	if len(cfg.ReservedBotTeams) > 0 {
		reserved := make(map[string]struct{}, len(cfg.ReservedBotTeams))
		for _, name := range cfg.ReservedBotTeams {
			reserved[name] = struct{}{}
		}
		diff.ReservedBotTeams = reserved
	}
}
