package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"sort"

	"catalog/internal/fileutil"
	"catalog/internal/media"
	"catalog/internal/services"
)

const documentVersion = 1

// document is the in-memory and on-disk shape of the catalog. Saves
// serialize an ID-sorted copy so successive saves of the same content are
// byte-identical.
type document struct {
	Version int            `json:"version"`
	Objects []media.Object `json:"objects"`
	Entries []media.Entry  `json:"entries"`
	Groups  []media.Group  `json:"groups"`
}

// Snapshot is a deep copy of the catalog contents at a point in time.
// Callers may retain and mutate it freely.
type Snapshot struct {
	Objects []media.Object
	Entries []media.Entry
	Groups  []media.Group
}

func loadDocument(path string) (*document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &document{Version: documentVersion}, nil
		}
		return nil, services.Wrap(services.ErrUnavailable, "store", "load", "read catalog document", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, services.Wrap(services.ErrCorrupt, "store", "load",
			fmt.Sprintf("catalog document %s is corrupt", path), err)
	}
	if doc.Version > documentVersion {
		return nil, services.Wrap(services.ErrCorrupt, "store", "load",
			fmt.Sprintf("catalog document version %d is newer than supported %d", doc.Version, documentVersion), nil)
	}
	doc.Version = documentVersion
	return &doc, nil
}

func saveDocument(path string, doc *document) error {
	data, err := json.MarshalIndent(doc.sortedForSave(), "", "  ")
	if err != nil {
		return services.Wrap(services.ErrPermanent, "store", "save", "encode catalog document", err)
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return services.Wrap(services.ErrUnavailable, "store", "save", "write catalog document", err)
	}
	return nil
}

// sortedForSave copies the slices before ordering them. The live slices
// must not be reordered: mutation paths hold pointers into them across
// the save.
func (d *document) sortedForSave() *document {
	cp := &document{
		Version: d.Version,
		Objects: slices.Clone(d.Objects),
		Entries: slices.Clone(d.Entries),
		Groups:  slices.Clone(d.Groups),
	}
	sort.Slice(cp.Objects, func(i, j int) bool { return cp.Objects[i].ID < cp.Objects[j].ID })
	sort.Slice(cp.Entries, func(i, j int) bool { return cp.Entries[i].ID < cp.Entries[j].ID })
	sort.Slice(cp.Groups, func(i, j int) bool { return cp.Groups[i].ID < cp.Groups[j].ID })
	return cp
}

func (d *document) snapshot() Snapshot {
	snap := Snapshot{
		Objects: make([]media.Object, 0, len(d.Objects)),
		Entries: make([]media.Entry, 0, len(d.Entries)),
		Groups:  make([]media.Group, 0, len(d.Groups)),
	}
	for i := range d.Objects {
		snap.Objects = append(snap.Objects, *d.Objects[i].Clone())
	}
	for i := range d.Entries {
		snap.Entries = append(snap.Entries, d.Entries[i])
	}
	for i := range d.Groups {
		group := d.Groups[i]
		group.Tags = append([]string(nil), group.Tags...)
		snap.Groups = append(snap.Groups, group)
	}
	return snap
}

func (d *document) objectIndex(id string) int {
	for i := range d.Objects {
		if d.Objects[i].ID == id {
			return i
		}
	}
	return -1
}

func (d *document) entryIndex(objectID string, variant media.Variant) int {
	for i := range d.Entries {
		if d.Entries[i].ObjectID == objectID && d.Entries[i].Variant == variant {
			return i
		}
	}
	return -1
}

func (d *document) groupIndex(id string) int {
	for i := range d.Groups {
		if d.Groups[i].ID == id {
			return i
		}
	}
	return -1
}
