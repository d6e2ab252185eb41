package main

import (
	"context"
	"time"

	"github.com/rust-team-sync/orgsync/internal/model"
	"github.com/schollz/progressbar/v3"
)

// progressReader decorates a model.Read with a progressbar/v3 spinner,
// ticked once per capability call except UsesPAT, which is passed through
// without a tick, grounded on the teacher's
// cmd/goliac/main.go ProgressBar (itself a thin wrapper over the same
// library) driving goliac's remote-observability hooks during the fetch
// phase of "plan"/"apply".
type progressReader struct {
	model.Read
	bar *progressbar.ProgressBar
}

func newProgressReader(read model.Read) *progressReader {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("fetching github"),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() { /* newline printed by caller */ }),
	)
	return &progressReader{Read: read, bar: bar}
}

func (p *progressReader) tick() { p.bar.Add(1) }

func (p *progressReader) Usernames(ctx context.Context, ids []model.UserID) (map[model.UserID]model.Username, error) {
	defer p.tick()
	return p.Read.Usernames(ctx, ids)
}

func (p *progressReader) OrgOwners(ctx context.Context, org model.OrgName) (map[model.UserID]struct{}, error) {
	defer p.tick()
	return p.Read.OrgOwners(ctx, org)
}

func (p *progressReader) OrgTeams(ctx context.Context, org model.OrgName) ([]model.OrgTeamRef, error) {
	defer p.tick()
	return p.Read.OrgTeams(ctx, org)
}

func (p *progressReader) Team(ctx context.Context, org model.OrgName, name string) (*model.ObservedTeam, error) {
	defer p.tick()
	return p.Read.Team(ctx, org, name)
}

func (p *progressReader) TeamMemberships(ctx context.Context, team *model.ObservedTeam, org model.OrgName) (map[model.UserID]model.Membership, error) {
	defer p.tick()
	return p.Read.TeamMemberships(ctx, team, org)
}

func (p *progressReader) TeamMembershipInvitations(ctx context.Context, org model.OrgName, teamName string) (map[model.Username]struct{}, error) {
	defer p.tick()
	return p.Read.TeamMembershipInvitations(ctx, org, teamName)
}

func (p *progressReader) Repo(ctx context.Context, org model.OrgName, name string) (*model.ObservedRepo, error) {
	defer p.tick()
	return p.Read.Repo(ctx, org, name)
}

func (p *progressReader) RepoTeams(ctx context.Context, org model.OrgName, name string) ([]model.ObservedRepoTeam, error) {
	defer p.tick()
	return p.Read.RepoTeams(ctx, org, name)
}

func (p *progressReader) RepoCollaborators(ctx context.Context, org model.OrgName, name string) ([]model.ObservedRepoUser, error) {
	defer p.tick()
	return p.Read.RepoCollaborators(ctx, org, name)
}

func (p *progressReader) BranchProtections(ctx context.Context, org model.OrgName, name string) (map[string]model.ObservedBranchProtection, error) {
	defer p.tick()
	return p.Read.BranchProtections(ctx, org, name)
}

func (p *progressReader) finish() {
	p.bar.Finish()
}
