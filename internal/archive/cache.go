package archive

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"
)

// DefaultNamespace is the manifest namespace the retrieval engine writes.
const DefaultNamespace = "youtube"

// Cache is a memoized view of the archive manifest. The manifest is owned by
// the retrieval engine; this cache only ever reads it. The in-memory ID set
// is reparsed when the manifest's modification time changes and swapped
// atomically under the mutex.
type Cache struct {
	path      string
	namespace string

	mu       sync.Mutex
	mtime    time.Time
	haveM    bool
	ids      map[string]struct{}
	reparses int
}

// NewCache builds a cache over the manifest at path. An empty namespace
// falls back to DefaultNamespace.
func NewCache(path, namespace string) *Cache {
	if strings.TrimSpace(namespace) == "" {
		namespace = DefaultNamespace
	}
	return &Cache{
		path:      path,
		namespace: strings.ToLower(namespace),
		ids:       make(map[string]struct{}),
	}
}

// Contains reports whether the manifest lists id, refreshing the cached set
// first when the manifest changed on disk. A missing manifest reads as an
// empty archive.
func (c *Cache) Contains(id string) (bool, error) {
	if err := c.ensure(); err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.ids[id]
	return ok, nil
}

// Refresh drops the memoized modification time so the next Contains call
// reparses the manifest. Used after a download completes, where the engine
// may have appended within the mtime granularity window.
func (c *Cache) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.haveM = false
}

// Exists reports whether the manifest file is present on disk.
func (c *Cache) Exists() bool {
	info, err := os.Stat(c.path)
	return err == nil && !info.IsDir()
}

// Path returns the manifest location.
func (c *Cache) Path() string {
	return c.path
}

// Reparses returns how many times the manifest has been parsed. Test hook
// for the mtime memoization contract.
func (c *Cache) Reparses() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reparses
}

func (c *Cache) ensure() error {
	info, err := os.Stat(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.mu.Lock()
			c.haveM = false
			c.ids = make(map[string]struct{})
			c.mu.Unlock()
			return nil
		}
		return fmt.Errorf("stat manifest: %w", err)
	}

	mtime := info.ModTime()
	c.mu.Lock()
	if c.haveM && c.mtime.Equal(mtime) {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	ids, err := c.parse()
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.ids = ids
	c.mtime = mtime
	c.haveM = true
	c.reparses++
	c.mu.Unlock()
	return nil
}

func (c *Cache) parse() (map[string]struct{}, error) {
	file, err := os.Open(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return make(map[string]struct{}), nil
		}
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer file.Close()

	ids := make(map[string]struct{})
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if id, ok := c.parseLine(scanner.Text()); ok {
			ids[id] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return ids, nil
}

// parseLine extracts an ID from one "<namespace> <id>" manifest line.
// Malformed lines are ignored.
func (c *Cache) parseLine(line string) (string, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "", false
	}
	if !strings.EqualFold(fields[0], c.namespace) {
		return "", false
	}
	return fields[1], fields[1] != ""
}
