// Package catalog lists a directory of bitmaps and packed files and tracks
// the conversion status of each entry.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Status of a catalog entry.
type Status int

const (
	Unknown Status = iota
	NotCompressed
	Compressed
	Unsupported
	Processing
)

func (s Status) String() string {
	switch s {
	case NotCompressed:
		return "not-compressed"
	case Compressed:
		return "compressed"
	case Unsupported:
		return "unsupported"
	case Processing:
		return "processing"
	}
	return "unknown"
}

var (
	ErrNotFound    = errors.New("catalog: no such entry")
	ErrUnsupported = errors.New("catalog: unsupported file type")
	ErrWrongState  = errors.New("catalog: entry in wrong state")
	ErrBusy        = errors.New("catalog: entry is being processed")
)

// Options select which suffixes are bitmaps and which are packed files.
type Options struct {
	BitmapExt string
	PackedExt string
}

// DefaultOptions returns ".bmp" and ".barch".
func DefaultOptions() Options {
	return Options{BitmapExt: ".bmp", PackedExt: ".barch"}
}

// Classify maps a file name to its resting status by suffix.
func (o Options) Classify(name string) Status {
	switch ext := filepath.Ext(name); {
	case strings.EqualFold(ext, o.BitmapExt):
		return NotCompressed
	case strings.EqualFold(ext, o.PackedExt):
		return Compressed
	}
	return Unsupported
}

// Entry is one file of the catalog.
type Entry struct {
	ID     uuid.UUID
	Name   string
	Path   string
	Ext    string
	Size   int64
	Status Status
}

// Catalog is a snapshot of one directory (not recursive). It is safe for
// concurrent use.
type Catalog struct {
	dir  string
	opts Options

	mu      sync.RWMutex
	entries []Entry
	busy    map[string]bool // paths read or written by an in-flight job
}

// Open lists dir.
func Open(dir string, opts Options) (*Catalog, error) {
	c := &Catalog{dir: dir, opts: opts, busy: map[string]bool{}}
	if err := c.Refresh(); err != nil {
		return nil, err
	}
	return c, nil
}

// Dir returns the listed directory.
func (c *Catalog) Dir() string {
	return c.dir
}

// Options returns the suffix configuration.
func (c *Catalog) Options() Options {
	return c.opts
}

// Refresh re-reads the directory. Entries that are being processed keep
// their status and ID.
func (c *Catalog) Refresh() error {
	des, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("listing %s: %w", c.dir, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := make(map[string]Entry, len(c.entries))
	for _, e := range c.entries {
		prev[e.Path] = e
	}
	entries := make([]Entry, 0, len(des))
	for _, de := range des {
		if !de.Type().IsRegular() {
			continue
		}
		info, err := de.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		e := c.newEntry(filepath.Join(c.dir, de.Name()), info.Size())
		if old, ok := prev[e.Path]; ok {
			e.ID = old.ID
			if old.Status == Processing {
				e.Status = Processing
			}
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	c.entries = entries
	return nil
}

func (c *Catalog) newEntry(path string, size int64) Entry {
	name := filepath.Base(path)
	return Entry{
		ID:     uuid.New(),
		Name:   name,
		Path:   path,
		Ext:    strings.TrimPrefix(filepath.Ext(name), "."),
		Size:   size,
		Status: c.opts.Classify(name),
	}
}

// Entries returns a copy of the current entries sorted by name.
func (c *Catalog) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Lookup finds an entry by path.
func (c *Catalog) Lookup(path string) (Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.find(path); i >= 0 {
		return c.entries[i], nil
	}
	return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, path)
}

func (c *Catalog) find(path string) int {
	for i := range c.entries {
		if c.entries[i].Path == path {
			return i
		}
	}
	return -1
}

// begin moves the entry at path from want to Processing and reserves out.
func (c *Catalog) begin(path, out string, want Status) (Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.find(path)
	if i < 0 {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	e := c.entries[i]
	switch {
	case e.Status == Processing || c.busy[path] || c.busy[out]:
		return e, fmt.Errorf("%w: %s", ErrBusy, e.Name)
	case e.Status == Unsupported:
		return e, fmt.Errorf("%w: %s", ErrUnsupported, e.Name)
	case e.Status != want:
		return e, fmt.Errorf("%w: %s is %s, must be %s", ErrWrongState, e.Name, e.Status, want)
	}
	c.entries[i].Status = Processing
	c.busy[path] = true
	c.busy[out] = true
	return c.entries[i], nil
}

// finish restores the entry status from its suffix, releases out and,
// when the job produced it, adds or updates the output entry.
func (c *Catalog) finish(path, out string, produced bool) {
	var size int64
	if produced {
		if info, err := os.Stat(out); err == nil {
			size = info.Size()
		} else {
			produced = false
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.busy, path)
	delete(c.busy, out)
	if i := c.find(path); i >= 0 {
		c.entries[i].Status = c.opts.Classify(c.entries[i].Name)
	}
	if !produced || filepath.Dir(out) != filepath.Clean(c.dir) {
		return
	}
	if i := c.find(out); i >= 0 {
		c.entries[i].Size = size
		c.entries[i].Status = c.opts.Classify(c.entries[i].Name)
		return
	}
	c.entries = append(c.entries, c.newEntry(out, size))
	sort.Slice(c.entries, func(i, j int) bool { return c.entries[i].Name < c.entries[j].Name })
}
