package index_test

import (
	"slices"
	"testing"
	"time"

	"catalog/internal/index"
	"catalog/internal/media"
	"catalog/internal/store"
)

func object(id, title string, tags, groups []string) media.Object {
	return media.Object{
		ID:        id,
		Title:     title,
		Type:      media.TypeAudio,
		Tags:      tags,
		GroupIDs:  groups,
		State:     media.StateImported,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
}

func entry(id, objectID string, variant media.Variant, text string) media.Entry {
	return media.Entry{
		ID:          id,
		ObjectID:    objectID,
		Variant:     variant,
		Text:        text,
		ContentHash: media.HashText(text),
	}
}

func TestRebuildIndexesTokensTagsAndGroups(t *testing.T) {
	ix := index.New()
	ix.Rebuild(store.Snapshot{
		Objects: []media.Object{
			object("o1", "Standup Recording", []string{"work"}, []string{"g1"}),
			object("o2", "Holiday Photos", nil, nil),
		},
		Entries: []media.Entry{
			entry("e1", "o1", media.VariantRaw, "discussed the deployment plan"),
		},
		Groups: []media.Group{{ID: "g1", Name: "standups"}},
	})

	if ids := ix.EntriesWithToken("deployment"); !slices.Contains(ids, "e1") {
		t.Fatalf("token lookup returned %v", ids)
	}
	if matched := ix.EntriesWithAnyToken([]string{"deployment", "missing"}); len(matched) != 1 {
		t.Fatalf("union token lookup returned %v", matched)
	}

	if got := ix.Candidates(index.Filter{Tags: []string{"work"}}); len(got) != 1 || got[0].Object.ID != "o1" {
		t.Fatalf("tag filter returned %d candidates", len(got))
	}
	if got := ix.Candidates(index.Filter{GroupID: "g1"}); len(got) != 1 || got[0].Object.ID != "o1" {
		t.Fatalf("group filter returned %d candidates", len(got))
	}
	// Only o1 has an entry, so the unfiltered candidate set has one member.
	if got := ix.Candidates(index.Filter{}); len(got) != 1 {
		t.Fatalf("unfiltered candidates %d, want 1", len(got))
	}

	if _, ok := ix.Group("STANDUPS"); !ok {
		t.Fatal("group lookup by name failed")
	}
}

func TestBestCandidatesPreferProcessedEntry(t *testing.T) {
	ix := index.New()
	ix.Rebuild(store.Snapshot{
		Objects: []media.Object{object("o1", "Call", nil, nil)},
		Entries: []media.Entry{
			entry("e1", "o1", media.VariantRaw, "raw words"),
			entry("e2", "o1", media.VariantProcessed, "polished words"),
		},
	})

	if got := ix.Candidates(index.Filter{}); len(got) != 2 {
		t.Fatalf("entry candidates %d, want one per variant", len(got))
	}

	best := ix.BestCandidates(index.Filter{})
	if len(best) != 1 {
		t.Fatalf("best candidates %d", len(best))
	}
	if best[0].Entry.Variant != media.VariantProcessed {
		t.Fatalf("best entry variant %s", best[0].Entry.Variant)
	}
	if fp := best[0].Fingerprint(); fp.Count("polished") == 0 {
		t.Fatal("fingerprint missing processed text")
	}
}

func TestIncrementalUpdates(t *testing.T) {
	ix := index.New()
	ix.UpsertObject(object("o1", "Notes", nil, nil))
	ix.UpsertEntry(entry("e1", "o1", media.VariantRaw, "about compilers"))

	if ids := ix.EntriesWithToken("compilers"); len(ids) != 1 {
		t.Fatalf("token lookup after upsert returned %v", ids)
	}

	// Replacing the entry drops the old tokens.
	ix.UpsertEntry(entry("e1", "o1", media.VariantRaw, "about interpreters"))
	if ids := ix.EntriesWithToken("compilers"); len(ids) != 0 {
		t.Fatalf("stale token survived replace: %v", ids)
	}
	if ids := ix.EntriesWithToken("interpreters"); len(ids) != 1 {
		t.Fatalf("new token missing: %v", ids)
	}

	ix.DeleteObject("o1")
	if got := ix.Candidates(index.Filter{}); len(got) != 0 {
		t.Fatalf("candidates after delete: %d", len(got))
	}
	if ids := ix.EntriesWithToken("interpreters"); len(ids) != 0 {
		t.Fatalf("tokens survived object delete: %v", ids)
	}
}

func TestObjectWithoutEntriesIsNotACandidate(t *testing.T) {
	ix := index.New()
	ix.UpsertObject(object("o1", "Garden Planning", nil, nil))

	if got := ix.Candidates(index.Filter{}); len(got) != 0 {
		t.Fatalf("candidates %d, want none without entries", len(got))
	}
	if _, ok := ix.Object("o1"); !ok {
		t.Fatal("object lookup failed")
	}
}
