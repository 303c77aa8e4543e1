// Package upstream fetches O2Physics source files, either through the GitHub API or from the raw
// content host, optionally through an on-disk cache.
package upstream

import (
	"context"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"gopkg.in/src-d/go-errors.v1"
)

const (
	DefaultOwner      = "AliceO2Group"
	DefaultRepository = "O2Physics"
	DefaultRef        = "master"

	// TransportAPI fetches through the GitHub contents API.
	TransportAPI = "api"
	// TransportRaw fetches from raw.githubusercontent.com.
	TransportRaw = "raw"
)

var (
	ErrFetchFailed      = errors.NewKind("failed to fetch %s")
	ErrNotCached        = errors.NewKind("%s is not in the cache and offline mode is on")
	ErrUnknownTransport = errors.NewKind("unknown upstream transport %q")
)

// Fetcher returns the content of a file of the upstream repository.
type Fetcher interface {
	Fetch(ctx context.Context, path string) (string, error)
}

// Repository identifies the upstream tree sources are read from.
type Repository struct {
	Owner string `toml:"owner"`
	Name  string `toml:"repository"`
	Ref   string `toml:"ref"`
}

// DefaultRepo returns the O2Physics master branch.
func DefaultRepo() Repository {
	return Repository{Owner: DefaultOwner, Name: DefaultRepository, Ref: DefaultRef}
}

// Options configures New.
type Options struct {
	Repository
	// Transport is TransportAPI or TransportRaw; empty means TransportRaw.
	Transport string
	// TokenEnv names the environment variable holding a GitHub token.
	TokenEnv string
	// CacheDir enables the on-disk cache when not empty.
	CacheDir string
	Offline  bool
}

// New builds the fetcher described by opts.
func New(ctx context.Context, opts Options) (Fetcher, error) {
	var token string
	if opts.TokenEnv != "" {
		token = os.Getenv(opts.TokenEnv)
	}

	var f Fetcher
	switch opts.Transport {
	case TransportAPI:
		f = NewGithubFetcher(httpClient(ctx, token), opts.Repository)
	case TransportRaw, "":
		rf := NewRawFetcher(http.DefaultClient, opts.Repository)
		rf.Token = token
		f = rf
	default:
		return nil, ErrUnknownTransport.New(opts.Transport)
	}
	if opts.CacheDir == "" {
		return f, nil
	}
	return &Cache{Fetcher: f, Dir: opts.CacheDir, Ref: opts.Ref, Offline: opts.Offline}, nil
}

func httpClient(ctx context.Context, token string) *http.Client {
	if token == "" {
		return nil
	}
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	))
}
