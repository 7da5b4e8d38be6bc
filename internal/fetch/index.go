package fetch

import (
	"fmt"
	"os"
	"sync"
)

// Index tracks which derived output filenames already exist in the output
// directory. It is seeded from a directory listing and shared by the fetch
// workers, so resumed runs skip work without touching the network.
type Index struct {
	mu    sync.Mutex
	names map[string]struct{}
}

// NewIndex builds an Index from the files currently present in dir.
func NewIndex(dir string) (*Index, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list output dir %s: %w", dir, err)
	}
	names := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names[e.Name()] = struct{}{}
	}
	return &Index{names: names}, nil
}

// Has reports whether name already exists.
func (i *Index) Has(name string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	_, ok := i.names[name]
	return ok
}

// Add records a newly written name.
func (i *Index) Add(name string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.names[name] = struct{}{}
}

// Len returns the number of known names.
func (i *Index) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.names)
}
