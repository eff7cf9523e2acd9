package bookmarks

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"mekicopy/src/screenshot"
)

var (
	// ErrNotFound is returned when a requested bookmark name has no entry.
	ErrNotFound = errors.New("bookmark not found")
	// ErrNoBookmarks is returned when an operation needs at least one
	// bookmark and the store is empty.
	ErrNoBookmarks = errors.New("no bookmarks saved")
)

// Bookmark is a persisted, named capture region.
type Bookmark struct {
	Name   string
	Region screenshot.Region
}

// Store maps bookmark names to regions. Names are the only identifier;
// Upsert with an existing name overwrites it.
type Store interface {
	Get(name string) (Bookmark, error)
	Upsert(b Bookmark) error
	// List returns all bookmarks in name-sorted order. ErrNoBookmarks when empty.
	List() ([]Bookmark, error)
}

// FileStore persists bookmarks as newline-delimited, tab-separated records:
//
//	name\tleft\ttop\twidth\theight
//
// Every save is a full rewrite in name-sorted order. Load is lenient: lines
// with a wrong field count or non-integer numbers are dropped, not fatal.
// The store is meant for a single process, one operation at a time; there is
// no partial-write protocol.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by the given file path. The file is
// created on first save; a missing file reads as an empty store.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Get(name string) (Bookmark, error) {
	all, err := s.load()
	if err != nil {
		return Bookmark{}, err
	}
	b, ok := all[name]
	if !ok {
		return Bookmark{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return b, nil
}

func (s *FileStore) Upsert(b Bookmark) error {
	if strings.TrimSpace(b.Name) == "" {
		return errors.New("bookmark name is empty")
	}
	all, err := s.load()
	if err != nil {
		return err
	}
	all[b.Name] = b
	return s.save(all)
}

func (s *FileStore) List() ([]Bookmark, error) {
	all, err := s.load()
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, ErrNoBookmarks
	}
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]Bookmark, 0, len(names))
	for _, name := range names {
		out = append(out, all[name])
	}
	return out, nil
}

func (s *FileStore) load() (map[string]Bookmark, error) {
	all := make(map[string]Bookmark)
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return all, nil
		}
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		b, ok := parseLine(line)
		if !ok {
			// Corrupt line, skip it. Never surfaced to the user.
			continue
		}
		all[b.Name] = b
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return all, nil
}

func parseLine(line string) (Bookmark, bool) {
	parts := strings.Split(line, "\t")
	if len(parts) != 5 {
		return Bookmark{}, false
	}
	nums := make([]int, 4)
	for i, field := range parts[1:] {
		n, err := strconv.Atoi(field)
		if err != nil {
			return Bookmark{}, false
		}
		nums[i] = n
	}
	return Bookmark{
		Name: parts[0],
		Region: screenshot.Region{
			X:      nums[0],
			Y:      nums[1],
			Width:  nums[2],
			Height: nums[3],
		},
	}, true
}

func (s *FileStore) save(all map[string]Bookmark) error {
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		b := all[name]
		fmt.Fprintf(&sb, "%s\t%d\t%d\t%d\t%d\n",
			b.Name, b.Region.X, b.Region.Y, b.Region.Width, b.Region.Height)
	}
	return os.WriteFile(s.path, []byte(sb.String()), 0644)
}
