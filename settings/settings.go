// Package settings holds the user settings of o2dq, read from an o2dq.toml file.
package settings

import (
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"gopkg.in/src-d/go-errors.v1"

	"github.com/dqworkflows/o2dq/config"
	"github.com/dqworkflows/o2dq/upstream"
)

const Filename = "o2dq.toml"

var ErrMalformedSettings = errors.NewKind("malformed settings file %s")

type Upstream struct {
	upstream.Repository
	Transport string `toml:"transport,omitempty"`
	TokenEnv  string `toml:"token_env,omitempty"`
}

type Cache struct {
	Dir     string `toml:"dir,omitempty"`
	Offline bool   `toml:"offline"`
}

type Run struct {
	Severity           string `toml:"severity,omitempty"`
	ShmSegmentSize     int64  `toml:"shm_segment_size,omitempty"`
	AODMemoryRateLimit int64  `toml:"aod_memory_rate_limit,omitempty"`
}

type Log struct {
	Level  string `toml:"level,omitempty"`
	Format string `toml:"format,omitempty"`
	// Fields are added to every log entry.
	Fields map[string]string `toml:"fields,omitempty"`
}

type Settings struct {
	Upstream Upstream    `toml:"upstream"`
	Cache    Cache       `toml:"cache"`
	Run      Run         `toml:"run"`
	Log      Log         `toml:"log"`
	Migrate  config.Keep `toml:"migrate"`
	// Catalogue replaces the built-in workflow catalogue when set.
	Catalogue string `toml:"catalogue,omitempty"`
}

// Default returns the settings used when no file exists.
func Default() *Settings {
	return &Settings{
		Upstream: Upstream{
			Repository: upstream.DefaultRepo(),
			Transport:  upstream.TransportRaw,
			TokenEnv:   "GITHUB_TOKEN",
		},
		Cache: Cache{Dir: defaultCacheDir()},
		Run: Run{
			Severity:       "error",
			ShmSegmentSize: 12000000000,
		},
		Log: Log{Level: "info", Format: "text"},
		Migrate: config.Keep{
			Parents: []string{"internal-dpl-*"},
		},
	}
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "o2dq")
	}
	return ".o2dq-cache"
}

func (s *Settings) Encode(w io.Writer) error {
	e := toml.NewEncoder(w)
	return e.Encode(s)
}

// Decode overlays the content of r on s, keys missing from r keep their current value.
func (s *Settings) Decode(r io.Reader) error {
	if _, err := toml.DecodeReader(r, s); err != nil {
		return err
	}

	return nil
}

// Lookup returns the settings file to use: the one in the working directory, else the one in the
// home directory. It returns "" when there is none.
func Lookup() string {
	candidates := []string{Filename}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, Filename))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Load reads the settings file at path on top of the defaults. An empty path means Lookup.
func Load(path string) (*Settings, error) {
	s := Default()
	if path == "" {
		path = Lookup()
		if path == "" {
			return s, nil
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := s.Decode(f); err != nil {
		return nil, ErrMalformedSettings.Wrap(err, path)
	}
	return s, nil
}

// FetcherOptions describes the upstream fetcher to use.
func (s *Settings) FetcherOptions() upstream.Options {
	return upstream.Options{
		Repository: s.Upstream.Repository,
		Transport:  s.Upstream.Transport,
		TokenEnv:   s.Upstream.TokenEnv,
		CacheDir:   s.Cache.Dir,
		Offline:    s.Cache.Offline,
	}
}
