package declaration

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/rust-team-sync/orgsync/internal/model"
)

// Clone shallow-clones repositoryURL at branch into a fresh temporary
// directory and returns the worktree's filesystem, grounded on the teacher's
// internal/engine/local.go GoliacLocalImpl.Clone.
func Clone(repositoryURL, branch, accessToken string) (billy.Filesystem, error) {
	tmpDir, err := os.MkdirTemp("", "orgsync")
	if err != nil {
		return nil, fmt.Errorf("creating clone directory: %w", err)
	}

	auth := &http.BasicAuth{
		Username: "x-access-token", // can be anything non-empty for a token-based clone
		Password: accessToken,
	}

	repo, err := git.PlainClone(tmpDir, false, &git.CloneOptions{
		URL:           repositoryURL,
		Auth:          auth,
		ReferenceName: plumbing.NewBranchReferenceName(branch),
		SingleBranch:  true,
		Depth:         1,
	})
	if err != nil {
		return nil, fmt.Errorf("cloning %s: %w", repositoryURL, err)
	}

	w, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("opening worktree of %s: %w", repositoryURL, err)
	}
	return w.Filesystem, nil
}

// LoadTeams reads every *.yaml/*.yml file directly under dir and parses it
// as a team declaration belonging to org.
func LoadTeams(fs billy.Filesystem, org model.OrgName, dir string) ([]model.DeclaredTeam, error) {
	files, err := yamlFilesIn(fs, dir)
	if err != nil {
		return nil, err
	}

	teams := make([]model.DeclaredTeam, 0, len(files))
	for _, path := range files {
		data, err := readFile(fs, path)
		if err != nil {
			return nil, err
		}
		team, err := parseTeamFile(org, data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		teams = append(teams, team)
	}
	return teams, nil
}

// LoadRepos reads every *.yaml/*.yml file directly under dir and parses it
// as a repository declaration belonging to org.
func LoadRepos(fs billy.Filesystem, org model.OrgName, dir string) ([]model.DeclaredRepo, error) {
	files, err := yamlFilesIn(fs, dir)
	if err != nil {
		return nil, err
	}

	repos := make([]model.DeclaredRepo, 0, len(files))
	for _, path := range files {
		data, err := readFile(fs, path)
		if err != nil {
			return nil, err
		}
		repo, err := parseRepoFile(org, data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		repos = append(repos, repo)
	}
	return repos, nil
}

func yamlFilesIn(fs billy.Filesystem, dir string) ([]string, error) {
	exists, err := dirExists(fs, dir)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	entries, err := fs.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if !strings.HasSuffix(e.Name(), ".yaml") && !strings.HasSuffix(e.Name(), ".yml") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

func dirExists(fs billy.Filesystem, path string) (bool, error) {
	_, err := fs.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func readFile(fs billy.Filesystem, path string) ([]byte, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return io.ReadAll(f)
}
