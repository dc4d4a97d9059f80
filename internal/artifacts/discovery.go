package artifacts

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	VideoPattern      = "**/*.mp4"
	ScreenshotPattern = "**/*.png"
)

// Set holds artifact paths relative to the scanned directory, slash
// separated and sorted.
type Set struct {
	Videos      []string
	Screenshots []string
}

func (s Set) Empty() bool {
	return len(s.Videos) == 0 && len(s.Screenshots) == 0
}

// Discover walks workdir recursively and collects videos and screenshots.
// A missing or unreadable workdir is an error, not an empty set.
func Discover(workdir string) (Set, error) {
	info, err := os.Stat(workdir)
	if err != nil {
		return Set{}, fmt.Errorf("scan %s: %w", workdir, err)
	}
	if !info.IsDir() {
		return Set{}, fmt.Errorf("scan %s: not a directory", workdir)
	}

	fsys := os.DirFS(workdir)
	videos, err := match(fsys, VideoPattern)
	if err != nil {
		return Set{}, fmt.Errorf("scan %s for videos: %w", workdir, err)
	}
	screenshots, err := match(fsys, ScreenshotPattern)
	if err != nil {
		return Set{}, fmt.Errorf("scan %s for screenshots: %w", workdir, err)
	}
	return Set{Videos: videos, Screenshots: screenshots}, nil
}

func match(fsys fs.FS, pattern string) ([]string, error) {
	matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// Resolve joins a discovered relative path back onto workdir.
func Resolve(workdir string, rel string) string {
	return filepath.Join(workdir, filepath.FromSlash(rel))
}
