package upstream

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/creachadair/atomicfile"
	"github.com/sirupsen/logrus"
)

// Cache keeps a copy of every fetched file under Dir/Ref/path. Online, files are always fetched
// again and the copy refreshed; with Offline set only the copies are read.
type Cache struct {
	Fetcher Fetcher
	Dir     string
	Ref     string
	Offline bool
}

// Path returns where the copy of a file is kept.
func (c *Cache) Path(path string) string {
	return filepath.Join(c.Dir, filepath.FromSlash(c.Ref), filepath.FromSlash(path))
}

func (c *Cache) Fetch(ctx context.Context, path string) (string, error) {
	local := c.Path(path)
	if c.Offline {
		data, err := ioutil.ReadFile(local)
		if os.IsNotExist(err) {
			return "", ErrNotCached.New(path)
		} else if err != nil {
			return "", ErrFetchFailed.Wrap(err, path)
		}
		logrus.WithField("file", local).Debug("read from cache")
		return string(data), nil
	}

	text, err := c.Fetcher.Fetch(ctx, path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(local), 0755); err != nil {
		return "", err
	}
	if err := atomicfile.WriteData(local, []byte(text), 0644); err != nil {
		return "", err
	}
	logrus.WithField("file", local).Debug("cached")
	return text, nil
}

// FetchAll fetches several files, stopping at the first failure.
func FetchAll(ctx context.Context, f Fetcher, paths []string) (map[string]string, error) {
	out := make(map[string]string, len(paths))
	for _, p := range paths {
		text, err := f.Fetch(ctx, p)
		if err != nil {
			return nil, err
		}
		out[p] = text
	}
	return out, nil
}
