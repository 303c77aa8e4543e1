package upstream

import (
	"context"
	"io/ioutil"
	"net/http"

	"github.com/google/go-github/v27/github"
)

// GithubFetcher reads files through the GitHub contents API.
type GithubFetcher struct {
	Client *github.Client
	Repo   Repository
}

// NewGithubFetcher creates a fetcher using the given HTTP client, which may carry credentials.
// A nil client uses http.DefaultClient.
func NewGithubFetcher(hc *http.Client, repo Repository) *GithubFetcher {
	return &GithubFetcher{Client: github.NewClient(hc), Repo: repo}
}

func (f *GithubFetcher) Fetch(ctx context.Context, path string) (string, error) {
	opt := &github.RepositoryContentGetOptions{Ref: f.Repo.Ref}
	file, _, _, err := f.Client.Repositories.GetContents(ctx, f.Repo.Owner, f.Repo.Name, path, opt)
	if err != nil {
		return "", ErrFetchFailed.Wrap(err, path)
	}
	if file == nil {
		return "", ErrFetchFailed.New(path + " (directory)")
	}
	if text, err := file.GetContent(); err == nil && (text != "" || file.GetSize() == 0) {
		return text, nil
	}

	// files above the inline size limit come without content
	rc, err := f.Client.Repositories.DownloadContents(ctx, f.Repo.Owner, f.Repo.Name, path, opt)
	if err != nil {
		return "", ErrFetchFailed.Wrap(err, path)
	}
	defer rc.Close()

	data, err := ioutil.ReadAll(rc)
	if err != nil {
		return "", ErrFetchFailed.Wrap(err, path)
	}
	return string(data), nil
}
