package media

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"
	"time"
)

// Type classifies the source of a media object. Only audio transcription is
// implemented; other kinds are cataloged but not transcribed.
type Type string

const (
	TypeAudio   Type = "audio"
	TypeImage   Type = "image"
	TypeWebpage Type = "webpage"
	TypeOther   Type = "other"
)

var allTypes = []Type{TypeAudio, TypeImage, TypeWebpage, TypeOther}

// ParseType converts a string into a known Type, falling back to
// TypeOther for values coming from newer or foreign catalogs.
func ParseType(value string) Type {
	normalized := Type(strings.ToLower(strings.TrimSpace(value)))
	for _, t := range allTypes {
		if t == normalized {
			return t
		}
	}
	return TypeOther
}

// Transcribable reports whether objects of this type run the transcription stage.
func (t Type) Transcribable() bool {
	return t == TypeAudio
}

// Variant is the quality tier of an entry derived from a media object.
type Variant string

const (
	VariantRaw       Variant = "raw"
	VariantFormatted Variant = "formatted"
	VariantProcessed Variant = "processed"
)

// variantPreference orders variants from highest quality to lowest for
// export selection.
var variantPreference = []Variant{VariantProcessed, VariantFormatted, VariantRaw}

// ParseVariant converts a string into a known Variant.
func ParseVariant(value string) (Variant, bool) {
	normalized := Variant(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case VariantRaw, VariantFormatted, VariantProcessed:
		return normalized, true
	}
	return "", false
}

// StageReached returns the minimum lifecycle state implied by the presence
// of an entry of this variant.
func (v Variant) StageReached() State {
	if v == VariantProcessed {
		return StateProcessed
	}
	return StateTranscribed
}

// Object is a cataloged media item and its lifecycle state.
type Object struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	SourcePath string    `json:"source_path"`
	StoredPath string    `json:"stored_path"`
	Type       Type      `json:"type"`
	Tags       []string  `json:"tags,omitempty"`
	GroupIDs   []string  `json:"group_ids,omitempty"`
	State      State     `json:"state"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// HasTag reports whether the object carries the given tag.
func (o *Object) HasTag(tag string) bool {
	return slices.Contains(o.Tags, tag)
}

// InGroup reports whether the object belongs to the given group.
func (o *Object) InGroup(groupID string) bool {
	return slices.Contains(o.GroupIDs, groupID)
}

// Clone returns a deep copy so snapshot readers never alias store state.
func (o *Object) Clone() *Object {
	if o == nil {
		return nil
	}
	cp := *o
	cp.Tags = slices.Clone(o.Tags)
	cp.GroupIDs = slices.Clone(o.GroupIDs)
	return &cp
}

// Entry is a textual representation of a media object at one quality tier.
// A media object holds at most one entry per variant.
type Entry struct {
	ID          string    `json:"id"`
	ObjectID    string    `json:"object_id"`
	Variant     Variant   `json:"variant"`
	Text        string    `json:"text"`
	ContentHash string    `json:"content_hash"`
	CreatedAt   time.Time `json:"created_at"`
}

// Group is a flat, identified collection of media object references.
// Groups never nest.
type Group struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// HashText fingerprints entry text. Derived data (embeddings) stores this
// hash and is stale whenever it no longer matches.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// BestEntry selects the highest-quality entry available:
// processed > formatted > raw. Returns nil when entries is empty.
func BestEntry(entries []Entry) *Entry {
	for _, variant := range variantPreference {
		for i := range entries {
			if entries[i].Variant == variant {
				return &entries[i]
			}
		}
	}
	return nil
}
