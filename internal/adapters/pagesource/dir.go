// Package pagesource reads archived results pages from a directory tree laid
// out as <root>/<athlete>/<year>/*.html.
package pagesource

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/okian/palmares/internal/domain/ingest"
)

// Dir is a PageSource over a local directory tree.
type Dir struct {
	root string
}

var _ ingest.PageSource = (*Dir)(nil)

// NewDir returns a source rooted at root.
func NewDir(root string) (*Dir, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("page source: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("page source: %s is not a directory", root)
	}
	return &Dir{root: root}, nil
}

// Athletes lists athlete directories in ascending order.
func (d *Dir) Athletes() ([]string, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, fmt.Errorf("page source: list athletes: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			ids = append(ids, e.Name())
		}
	}
	return ids, nil
}

// Years lists the season directories of one athlete in ascending order.
func (d *Dir) Years(athleteID string) ([]int, error) {
	entries, err := os.ReadDir(d.athleteDir(athleteID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ingest.ErrAthleteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("page source: list years of %s: %w", athleteID, err)
	}
	var years []int
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if y, err := strconv.Atoi(e.Name()); err == nil {
			years = append(years, y)
		}
	}
	sort.Ints(years)
	return years, nil
}

// Pages returns the season's pages in file name order.
func (d *Dir) Pages(ctx context.Context, athleteID string, year int) ([]string, error) {
	if _, err := os.Stat(d.athleteDir(athleteID)); errors.Is(err, fs.ErrNotExist) {
		return nil, ingest.ErrAthleteNotFound
	}
	files, err := filepath.Glob(filepath.Join(d.athleteDir(athleteID), strconv.Itoa(year), "*.html"))
	if err != nil {
		return nil, fmt.Errorf("page source: %w", err)
	}
	sort.Strings(files)

	pages := make([]string, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("page source: read %s: %w", f, err)
		}
		pages = append(pages, string(b))
	}
	return pages, nil
}

func (d *Dir) athleteDir(athleteID string) string {
	return filepath.Join(d.root, filepath.Base(filepath.Clean("/"+athleteID)))
}
