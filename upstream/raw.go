package upstream

import (
	"context"
	"fmt"
	"io/ioutil"
	"net/http"
	"strings"
)

// RawBaseURL is the host serving raw repository files.
const RawBaseURL = "https://raw.githubusercontent.com"

// RawFetcher downloads files from the raw content host with plain GET requests.
type RawFetcher struct {
	Client  *http.Client
	BaseURL string
	Repo    Repository
	// Token is sent as a bearer token when set.
	Token string
}

func NewRawFetcher(hc *http.Client, repo Repository) *RawFetcher {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &RawFetcher{Client: hc, BaseURL: RawBaseURL, Repo: repo}
}

// URL returns the address of a file.
func (f *RawFetcher) URL(path string) string {
	return strings.Join([]string{
		strings.TrimSuffix(f.BaseURL, "/"),
		f.Repo.Owner, f.Repo.Name, f.Repo.Ref,
		strings.TrimPrefix(path, "/"),
	}, "/")
}

func (f *RawFetcher) Fetch(ctx context.Context, path string) (string, error) {
	req, err := http.NewRequest(http.MethodGet, f.URL(path), nil)
	if err != nil {
		return "", ErrFetchFailed.Wrap(err, path)
	}
	req = req.WithContext(ctx)
	if f.Token != "" {
		req.Header.Set("Authorization", "Bearer "+f.Token)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return "", ErrFetchFailed.Wrap(err, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", ErrFetchFailed.Wrap(fmt.Errorf("unexpected status %s", resp.Status), path)
	}
	data, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return "", ErrFetchFailed.Wrap(err, path)
	}
	return string(data), nil
}
