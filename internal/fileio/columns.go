package fileio

import (
	"github.com/Amerigo2020/vestigas-co2-scribe/internal/util"
)

// Columns maps folded header names to the header text found in a sheet, so
// "Artikel-Nummer" also finds "artikel nummer".
type Columns struct {
	byFolded map[string]string
}

func NewColumns(rows []map[string]string) Columns {
	c := Columns{byFolded: map[string]string{}}
	if len(rows) == 0 {
		return c
	}
	for h := range rows[0] {
		folded := util.NormalizeHeader(h)
		if _, ok := c.byFolded[folded]; !ok || h == folded {
			c.byFolded[folded] = h
		}
	}
	return c
}

// Resolve returns the actual header for the first name present.
func (c Columns) Resolve(names ...string) (string, bool) {
	for _, n := range names {
		if h, ok := c.byFolded[util.NormalizeHeader(n)]; ok {
			return h, true
		}
	}
	return "", false
}

func (c Columns) Has(names ...string) bool {
	_, ok := c.Resolve(names...)
	return ok
}

// Get returns the first non-blank value among names.
func (c Columns) Get(row map[string]string, names ...string) string {
	for _, n := range names {
		h, ok := c.byFolded[util.NormalizeHeader(n)]
		if !ok {
			continue
		}
		if v := row[h]; v != "" {
			return v
		}
	}
	return ""
}
