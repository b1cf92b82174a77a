// Package keytree converts flat dot-separated translation keys into the
// nested object tree consumed by the site runtime.
package keytree

import (
	"sort"
	"strings"

	"locsync/internal/utils"

	"github.com/sirupsen/logrus"
)

// Entry is one flat translation row to place into the tree.
type Entry struct {
	Key  string
	Text string
}

// Build converts flat entries into a nested map, splitting keys on '.'.
// Entries are processed in ascending key depth, lexicographically within one
// depth, so the result does not depend on input order. On conflicts the
// structure that was placed first wins:
//   - a leaf cannot overwrite an existing branch with children
//   - a branch cannot be created under a segment already holding a string
//
// Conflicting entries are skipped with a warning and never corrupt siblings.
func Build(entries []Entry) map[string]any {
	ordered := make([]Entry, len(entries))
	copy(ordered, entries)
	sort.Slice(ordered, func(i, j int) bool {
		di, dj := utils.KeyDepth(ordered[i].Key), utils.KeyDepth(ordered[j].Key)
		if di != dj {
			return di < dj
		}
		return ordered[i].Key < ordered[j].Key
	})

	tree := make(map[string]any)
	for _, e := range ordered {
		Insert(tree, e.Key, e.Text)
	}
	return tree
}

// Insert places one key into the tree, honoring the conflict rules. The
// outcome of conflicting keys depends on insertion order; Build fixes that
// order, callers using Insert directly carry the ordering burden themselves.
func Insert(tree map[string]any, key, text string) {
	segments := strings.Split(key, ".")
	node := tree

	for _, seg := range segments[:len(segments)-1] {
		existing, ok := node[seg]
		if !ok {
			child := make(map[string]any)
			node[seg] = child
			node = child
			continue
		}
		child, isMap := existing.(map[string]any)
		if !isMap {
			// A string already occupies this parent segment, the deeper
			// key cannot be placed without destroying it.
			logrus.WithField("key", key).Warnf("Skipping key: segment %q already holds a value", seg)
			return
		}
		node = child
	}

	leaf := segments[len(segments)-1]
	if existing, ok := node[leaf]; ok {
		if child, isMap := existing.(map[string]any); isMap && len(child) > 0 {
			logrus.WithField("key", key).Warn("Skipping key: would overwrite a branch with children")
			return
		}
	}
	node[leaf] = text
}
