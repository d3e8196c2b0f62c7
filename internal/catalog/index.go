package catalog

import (
	"github.com/rs/zerolog"

	"github.com/Amerigo2020/vestigas-co2-scribe/internal"
)

// Index is the ordered set of unique catalog names. When a name occurs more
// than once, the first row wins.
type Index struct {
	names      []string
	byName     map[string]*internal.CatalogEntry
	duplicates map[string]int
}

func BuildIndex(entries []internal.CatalogEntry, logger zerolog.Logger) *Index {
	idx := &Index{
		names:      make([]string, 0, len(entries)),
		byName:     make(map[string]*internal.CatalogEntry, len(entries)),
		duplicates: map[string]int{},
	}

	for i := range entries {
		name := entries[i].Name
		if _, ok := idx.byName[name]; ok {
			idx.duplicates[name]++
			continue
		}
		entry := entries[i]
		idx.byName[name] = &entry
		idx.names = append(idx.names, name)
	}

	for _, name := range idx.names {
		n, ok := idx.duplicates[name]
		if !ok {
			continue
		}
		logger.Warn().Str("name", name).Int("duplicates", n).Msg("duplicate catalog name, first row kept")
	}
	return idx
}

// Names returns the unique names in first-seen order.
func (i *Index) Names() []string {
	return i.names
}

func (i *Index) Lookup(name string) (*internal.CatalogEntry, bool) {
	e, ok := i.byName[name]
	return e, ok
}

func (i *Index) Len() int {
	return len(i.names)
}

// Duplicates maps a name to the number of extra rows that were dropped.
func (i *Index) Duplicates() map[string]int {
	return i.duplicates
}
