package demo

import (
	"encoding/json"
	"fmt"
	"strings"

	git "github.com/go-git/go-git/v5"
	githubv53 "github.com/google/go-github/v53/github"
)

type PushOptions struct {
	// Path of the local repository; parent directories are searched for .git.
	Path string
	// Branch overrides the ref of HEAD, required when HEAD is detached.
	Branch string
	// Pusher overrides the HEAD commit author name.
	Pusher string
}

// PushPayloadFromRepo renders a push delivery describing HEAD of a local git
// repository.
func PushPayloadFromRepo(opts PushOptions) ([]byte, error) {
	path := opts.Path
	if strings.TrimSpace(path) == "" {
		path = "."
	}
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", path, err)
	}
	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("load HEAD commit: %w", err)
	}

	ref := head.Name().String()
	if b := strings.TrimSpace(opts.Branch); b != "" {
		ref = "refs/heads/" + strings.TrimPrefix(b, "refs/heads/")
	} else if !head.Name().IsBranch() {
		return nil, fmt.Errorf("HEAD is detached; pass a branch name")
	}

	pusher := strings.TrimSpace(opts.Pusher)
	if pusher == "" {
		pusher = commit.Author.Name
	}
	payload := githubv53.PushEvent{
		Ref:   githubv53.String(ref),
		After: githubv53.String(commit.Hash.String()),
		HeadCommit: &githubv53.HeadCommit{
			ID:        githubv53.String(commit.Hash.String()),
			Message:   githubv53.String(strings.TrimSpace(commit.Message)),
			Timestamp: &githubv53.Timestamp{Time: commit.Committer.When},
			Author: &githubv53.CommitAuthor{
				Name:  githubv53.String(commit.Author.Name),
				Email: githubv53.String(commit.Author.Email),
			},
		},
		Pusher: &githubv53.User{
			Name:  githubv53.String(pusher),
			Email: githubv53.String(commit.Author.Email),
		},
		Repo: &githubv53.PushEventRepository{Name: githubv53.String(repoName(repo))},
	}
	return json.MarshalIndent(payload, "", "  ")
}

func repoName(repo *git.Repository) string {
	remote, err := repo.Remote("origin")
	if err != nil || len(remote.Config().URLs) == 0 {
		return "local"
	}
	u := strings.TrimSuffix(remote.Config().URLs[0], ".git")
	if i := strings.LastIndexAny(u, "/:"); i >= 0 {
		u = u[i+1:]
	}
	if u == "" {
		return "local"
	}
	return u
}
