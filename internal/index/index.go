// Package index maintains in-memory lookup structures over a catalog
// snapshot: objects by ID, objects by tag and group, and an inverted
// token index over entry text.
package index

import (
	"strings"
	"sync"

	"catalog/internal/media"
	"catalog/internal/store"
	"catalog/internal/textutil"
)

// Candidate pairs an entry with its owning object for scoring.
type Candidate struct {
	Entry  media.Entry
	Object media.Object

	fp *textutil.Fingerprint
}

// Fingerprint returns the token fingerprint of the entry text,
// computing it on first use.
func (c *Candidate) Fingerprint() *textutil.Fingerprint {
	if c.fp == nil {
		c.fp = textutil.NewFingerprint(c.Entry.Text)
	}
	return c.fp
}

// Filter narrows the candidates returned by Candidates. Empty fields
// match everything.
type Filter struct {
	Tags    []string
	GroupID string
}

// Index is safe for concurrent use. Rebuild swaps the entire contents;
// the Upsert and Delete methods apply incremental changes.
type Index struct {
	mu      sync.RWMutex
	objects map[string]media.Object
	entries map[string]map[media.Variant]media.Entry
	byTag   map[string]map[string]struct{}
	byGroup map[string]map[string]struct{}
	byToken map[string]map[string]struct{}
	groups  map[string]media.Group
}

// New returns an empty index.
func New() *Index {
	ix := &Index{}
	ix.reset()
	return ix
}

func (ix *Index) reset() {
	ix.objects = make(map[string]media.Object)
	ix.entries = make(map[string]map[media.Variant]media.Entry)
	ix.byTag = make(map[string]map[string]struct{})
	ix.byGroup = make(map[string]map[string]struct{})
	ix.byToken = make(map[string]map[string]struct{})
	ix.groups = make(map[string]media.Group)
}

// Rebuild replaces the index contents with the snapshot.
func (ix *Index) Rebuild(snap store.Snapshot) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.reset()
	for _, group := range snap.Groups {
		ix.groups[group.ID] = group
	}
	for _, object := range snap.Objects {
		ix.indexObjectLocked(object)
	}
	for _, entry := range snap.Entries {
		ix.indexEntryLocked(entry)
	}
}

// UpsertObject adds or replaces one object.
func (ix *Index) UpsertObject(object media.Object) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeObjectLocked(object.ID, false)
	ix.indexObjectLocked(object)
}

// DeleteObject removes an object and its entries.
func (ix *Index) DeleteObject(objectID string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeObjectLocked(objectID, true)
}

// UpsertEntry adds or replaces one entry.
func (ix *Index) UpsertEntry(entry media.Entry) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.indexEntryLocked(entry)
}

// DeleteEntry removes one entry.
func (ix *Index) DeleteEntry(entry media.Entry) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	variants, ok := ix.entries[entry.ObjectID]
	if !ok {
		return
	}
	if existing, ok := variants[entry.Variant]; ok && existing.ID == entry.ID {
		ix.unindexTokensLocked(existing)
		delete(variants, entry.Variant)
		if len(variants) == 0 {
			delete(ix.entries, entry.ObjectID)
		}
	}
}

// UpsertGroup adds or replaces group metadata.
func (ix *Index) UpsertGroup(group media.Group) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.groups[group.ID] = group
}

// Object returns the object with the given ID.
func (ix *Index) Object(objectID string) (media.Object, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	object, ok := ix.objects[objectID]
	return object, ok
}

// Group returns a group by ID, or by case-insensitive name.
func (ix *Index) Group(idOrName string) (media.Group, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if group, ok := ix.groups[idOrName]; ok {
		return group, true
	}
	for _, group := range ix.groups {
		if strings.EqualFold(group.Name, idOrName) {
			return group, true
		}
	}
	return media.Group{}, false
}

// EntriesWithToken returns the IDs of entries whose text contains the
// token.
func (ix *Index) EntriesWithToken(token string) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	ids := make([]string, 0, len(ix.byToken[token]))
	for id := range ix.byToken[token] {
		ids = append(ids, id)
	}
	return ids
}

// EntriesWithAnyToken returns the set of entry IDs whose text contains
// at least one of the tokens.
func (ix *Index) EntriesWithAnyToken(tokens []string) map[string]struct{} {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	ids := make(map[string]struct{})
	for _, token := range tokens {
		for id := range ix.byToken[token] {
			ids[id] = struct{}{}
		}
	}
	return ids
}

// Candidates returns every entry whose owning object passes the filter.
func (ix *Index) Candidates(filter Filter) []*Candidate {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var candidates []*Candidate
	for objectID, variants := range ix.entries {
		object, ok := ix.objects[objectID]
		if !ok || !ix.matchesLocked(objectID, filter) {
			continue
		}
		for _, entry := range variants {
			candidates = append(candidates, &Candidate{Entry: entry, Object: *object.Clone()})
		}
	}
	return candidates
}

// BestCandidates returns at most one candidate per object, using the
// highest-quality entry present.
func (ix *Index) BestCandidates(filter Filter) []*Candidate {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var candidates []*Candidate
	for objectID, variants := range ix.entries {
		object, ok := ix.objects[objectID]
		if !ok || !ix.matchesLocked(objectID, filter) {
			continue
		}
		var entries []media.Entry
		for _, entry := range variants {
			entries = append(entries, entry)
		}
		if best := media.BestEntry(entries); best != nil {
			candidates = append(candidates, &Candidate{Entry: *best, Object: *object.Clone()})
		}
	}
	return candidates
}

func (ix *Index) matchesLocked(objectID string, filter Filter) bool {
	for _, tag := range filter.Tags {
		if _, ok := ix.byTag[strings.ToLower(strings.TrimSpace(tag))][objectID]; !ok {
			return false
		}
	}
	if filter.GroupID != "" {
		if _, ok := ix.byGroup[filter.GroupID][objectID]; !ok {
			return false
		}
	}
	return true
}

func (ix *Index) indexObjectLocked(object media.Object) {
	ix.objects[object.ID] = *object.Clone()
	for _, tag := range object.Tags {
		if ix.byTag[tag] == nil {
			ix.byTag[tag] = make(map[string]struct{})
		}
		ix.byTag[tag][object.ID] = struct{}{}
	}
	for _, groupID := range object.GroupIDs {
		if ix.byGroup[groupID] == nil {
			ix.byGroup[groupID] = make(map[string]struct{})
		}
		ix.byGroup[groupID][object.ID] = struct{}{}
	}
}

func (ix *Index) indexEntryLocked(entry media.Entry) {
	variants := ix.entries[entry.ObjectID]
	if variants == nil {
		variants = make(map[media.Variant]media.Entry)
		ix.entries[entry.ObjectID] = variants
	}
	if existing, ok := variants[entry.Variant]; ok {
		ix.unindexTokensLocked(existing)
	}
	variants[entry.Variant] = entry
	for _, token := range textutil.Tokenize(entry.Text) {
		ix.addTokenLocked(token, entry.ID)
	}
}

func (ix *Index) removeObjectLocked(objectID string, dropEntries bool) {
	object, ok := ix.objects[objectID]
	if !ok {
		return
	}
	delete(ix.objects, objectID)
	for _, tag := range object.Tags {
		delete(ix.byTag[tag], objectID)
		if len(ix.byTag[tag]) == 0 {
			delete(ix.byTag, tag)
		}
	}
	for _, groupID := range object.GroupIDs {
		delete(ix.byGroup[groupID], objectID)
		if len(ix.byGroup[groupID]) == 0 {
			delete(ix.byGroup, groupID)
		}
	}
	if dropEntries {
		for _, entry := range ix.entries[objectID] {
			ix.unindexTokensLocked(entry)
		}
		delete(ix.entries, objectID)
	}
}

func (ix *Index) unindexTokensLocked(entry media.Entry) {
	for _, token := range textutil.Tokenize(entry.Text) {
		ids := ix.byToken[token]
		delete(ids, entry.ID)
		if len(ids) == 0 {
			delete(ix.byToken, token)
		}
	}
}

func (ix *Index) addTokenLocked(token, entryID string) {
	if ix.byToken[token] == nil {
		ix.byToken[token] = make(map[string]struct{})
	}
	ix.byToken[token][entryID] = struct{}{}
}
