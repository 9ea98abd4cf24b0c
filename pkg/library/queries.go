package library

import (
	"slices"

	"github.com/nainya/assetlib/pkg/query"
)

// Queries returns the user queries in insertion order, leaving out the
// names in exclude
func (l *Library) Queries(exclude ...string) []query.Query {
	out := make([]query.Query, 0, len(l.queries))
	for _, q := range l.queries {
		if !slices.Contains(exclude, q.Name) {
			out = append(out, q)
		}
	}
	return out
}

// QueryExists reports whether a user query named name exists
func (l *Library) QueryExists(name string) bool {
	return indexOfQuery(l.queries, name) >= 0
}

// AddQuery validates q and adds it, replacing a query with the same name
func (l *Library) AddQuery(q query.Query) error {
	if err := q.Validate(); err != nil {
		return err
	}
	l.queries = putQuery(l.queries, q)
	return nil
}

// RemoveQuery removes the user query named name, if any
func (l *Library) RemoveQuery(name string) {
	l.queries = deleteQuery(l.queries, name)
}

// GlobalQueries returns the queries applied to every search
func (l *Library) GlobalQueries() []query.Query {
	return slices.Clone(l.globalQueries)
}

// AddGlobalQuery validates q and adds it to every search, replacing a
// global query with the same name
func (l *Library) AddGlobalQuery(q query.Query) error {
	if err := q.Validate(); err != nil {
		return err
	}
	l.globalQueries = putQuery(l.globalQueries, q)
	return nil
}

// RemoveGlobalQuery removes the global query named name, if any
func (l *Library) RemoveGlobalQuery(name string) {
	l.globalQueries = deleteQuery(l.globalQueries, name)
}

func indexOfQuery(qs []query.Query, name string) int {
	return slices.IndexFunc(qs, func(q query.Query) bool { return q.Name == name })
}

func putQuery(qs []query.Query, q query.Query) []query.Query {
	if i := indexOfQuery(qs, q.Name); i >= 0 {
		qs[i] = q
		return qs
	}
	return append(qs, q)
}

func deleteQuery(qs []query.Query, name string) []query.Query {
	if i := indexOfQuery(qs, name); i >= 0 {
		return slices.Delete(qs, i, i+1)
	}
	return qs
}
