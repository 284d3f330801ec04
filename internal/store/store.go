package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"catalog/internal/config"
	"catalog/internal/fileutil"
	"catalog/internal/logging"
	"catalog/internal/media"
	"catalog/internal/services"
	"catalog/internal/textutil"
)

// EntryObserver is notified after an entry is written or removed so
// dependent caches can invalidate derived data.
type EntryObserver func(entry media.Entry, removed bool)

// Store manages catalog persistence backed by a flat JSON document.
type Store struct {
	mu       sync.Mutex
	doc      *document
	path     string
	mediaDir string
	lock     *flock.Flock
	logger   *slog.Logger
	observer EntryObserver
}

// Open loads or creates the catalog document and takes an exclusive lock
// on it. A second process opening the same catalog receives an
// unavailable error rather than blocking.
func Open(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "store", "open", "ensure directories", err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	path := cfg.CatalogPath()
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "store", "open", "acquire catalog lock", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrUnavailable, "store", "open",
			fmt.Sprintf("catalog %s is locked by another process", path), nil)
	}

	doc, err := loadDocument(path)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	return &Store{
		doc:      doc,
		path:     path,
		mediaDir: cfg.MediaDir(),
		lock:     lock,
		logger:   logging.NewComponentLogger(logger, "store"),
	}, nil
}

// Close releases the catalog lock.
func (s *Store) Close() error {
	if s == nil || s.lock == nil {
		return nil
	}
	return s.lock.Unlock()
}

// SetEntryObserver registers a callback invoked after entry mutations.
// Only one observer is supported; a later call replaces the earlier one.
func (s *Store) SetEntryObserver(observer EntryObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = observer
}

// PutMedia copies the source file into the managed media directory and
// registers a new object in the imported state. If persisting the record
// fails the copy is removed, so the store never holds an orphaned file.
func (s *Store) PutMedia(ctx context.Context, sourcePath, title string, mediaType media.Type, tags []string) (*media.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sourcePath, err := config.ExpandPath(sourcePath)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "store", "put-media", "resolve source path", err)
	}
	info, err := os.Stat(sourcePath)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "store", "put-media",
			fmt.Sprintf("source %s is not readable", sourcePath), err)
	}
	if info.IsDir() {
		return nil, services.Wrap(services.ErrValidation, "store", "put-media",
			fmt.Sprintf("source %s is a directory", sourcePath), nil)
	}

	if strings.TrimSpace(title) == "" {
		title = inferTitleFromPath(sourcePath)
	}

	id := uuid.NewString()
	storedPath := filepath.Join(s.mediaDir, id+filepath.Ext(sourcePath))
	if err := fileutil.CopyFileVerified(sourcePath, storedPath); err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "store", "put-media", "copy media file", err)
	}

	now := time.Now().UTC()
	object := media.Object{
		ID:         id,
		Title:      title,
		SourcePath: sourcePath,
		StoredPath: storedPath,
		Type:       mediaType,
		Tags:       normalizeTags(tags),
		State:      media.StateImported,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.Objects = append(s.doc.Objects, object)
	if err := saveDocument(s.path, s.doc); err != nil {
		s.doc.Objects = s.doc.Objects[:len(s.doc.Objects)-1]
		_ = os.Remove(storedPath)
		return nil, err
	}

	s.logger.Info("imported media",
		logging.String(logging.FieldObjectID, object.ID),
		logging.String("title", object.Title),
		logging.String("type", string(object.Type)))
	return object.Clone(), nil
}

// GetMedia returns the object with the given ID.
func (s *Store) GetMedia(id string) (*media.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.doc.objectIndex(id)
	if idx < 0 {
		return nil, services.Wrap(services.ErrNotFound, "store", "get-media",
			fmt.Sprintf("object %s not found", id), nil)
	}
	return s.doc.Objects[idx].Clone(), nil
}

// PutEntry writes the text for one variant of an object, replacing any
// existing entry for that variant. Writing an entry advances the object
// to the stage the variant implies when that is further along than the
// object's current stage.
func (s *Store) PutEntry(ctx context.Context, objectID string, variant media.Variant, text string) (*media.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, services.Wrap(services.ErrValidation, "store", "put-entry", "entry text is empty", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	objIdx := s.doc.objectIndex(objectID)
	if objIdx < 0 {
		return nil, services.Wrap(services.ErrNotFound, "store", "put-entry",
			fmt.Sprintf("object %s not found", objectID), nil)
	}

	now := time.Now().UTC()
	entry := media.Entry{
		ID:          uuid.NewString(),
		ObjectID:    objectID,
		Variant:     variant,
		Text:        text,
		ContentHash: media.HashText(text),
		CreatedAt:   now,
	}

	prevObjects := slices.Clone(s.doc.Objects)
	prevEntries := slices.Clone(s.doc.Entries)

	if idx := s.doc.entryIndex(objectID, variant); idx >= 0 {
		entry.ID = s.doc.Entries[idx].ID
		entry.CreatedAt = s.doc.Entries[idx].CreatedAt
		s.doc.Entries[idx] = entry
	} else {
		s.doc.Entries = append(s.doc.Entries, entry)
	}

	object := &s.doc.Objects[objIdx]
	if target := variant.StageReached(); target.Rank() > object.State.Rank() {
		object.State = target
		object.Error = ""
	}
	object.UpdatedAt = now

	if err := saveDocument(s.path, s.doc); err != nil {
		s.doc.Objects = prevObjects
		s.doc.Entries = prevEntries
		return nil, err
	}

	if s.observer != nil {
		s.observer(entry, false)
	}
	s.logger.Info("wrote entry",
		logging.String(logging.FieldObjectID, objectID),
		logging.String(logging.FieldEntryID, entry.ID),
		logging.String(logging.FieldVariant, string(variant)))
	return &entry, nil
}

// GetEntry returns the entry for one variant of an object.
func (s *Store) GetEntry(objectID string, variant media.Variant) (*media.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.doc.entryIndex(objectID, variant)
	if idx < 0 {
		return nil, services.Wrap(services.ErrNotFound, "store", "get-entry",
			fmt.Sprintf("object %s has no %s entry", objectID, variant), nil)
	}
	entry := s.doc.Entries[idx]
	return &entry, nil
}

// Entries returns every entry recorded for an object.
func (s *Store) Entries(objectID string) ([]media.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc.objectIndex(objectID) < 0 {
		return nil, services.Wrap(services.ErrNotFound, "store", "entries",
			fmt.Sprintf("object %s not found", objectID), nil)
	}
	var entries []media.Entry
	for _, entry := range s.doc.Entries {
		if entry.ObjectID == objectID {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// UpdateTags adds and removes tags on an object in one write.
func (s *Store) UpdateTags(objectID string, add, remove []string) (*media.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.doc.objectIndex(objectID)
	if idx < 0 {
		return nil, services.Wrap(services.ErrNotFound, "store", "update-tags",
			fmt.Sprintf("object %s not found", objectID), nil)
	}

	object := &s.doc.Objects[idx]
	prevTags := slices.Clone(object.Tags)
	prevUpdated := object.UpdatedAt

	tags := normalizeTags(append(slices.Clone(object.Tags), add...))
	for _, tag := range normalizeTags(remove) {
		if i := slices.Index(tags, tag); i >= 0 {
			tags = slices.Delete(tags, i, i+1)
		}
	}
	object.Tags = tags
	object.UpdatedAt = time.Now().UTC()

	if err := saveDocument(s.path, s.doc); err != nil {
		object.Tags = prevTags
		object.UpdatedAt = prevUpdated
		return nil, err
	}
	return object.Clone(), nil
}

// SetState transitions an object to a new lifecycle state. Illegal
// transitions are rejected with a validation error.
func (s *Store) SetState(objectID string, state media.State, message string) (*media.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.doc.objectIndex(objectID)
	if idx < 0 {
		return nil, services.Wrap(services.ErrNotFound, "store", "set-state",
			fmt.Sprintf("object %s not found", objectID), nil)
	}

	object := &s.doc.Objects[idx]
	if !object.State.CanTransition(state) {
		return nil, services.Wrap(services.ErrValidation, "store", "set-state",
			fmt.Sprintf("object %s cannot move from %s to %s", objectID, object.State, state), nil)
	}

	prevState, prevError, prevUpdated := object.State, object.Error, object.UpdatedAt
	object.State = state
	object.UpdatedAt = time.Now().UTC()
	if state.IsFailed() {
		object.Error = message
	} else {
		object.Error = ""
	}

	if err := saveDocument(s.path, s.doc); err != nil {
		object.State, object.Error, object.UpdatedAt = prevState, prevError, prevUpdated
		return nil, err
	}

	s.logger.Info("state changed",
		logging.String(logging.FieldObjectID, objectID),
		logging.String("from", string(prevState)),
		logging.String("to", string(state)))
	return object.Clone(), nil
}

// CreateGroup registers a new flat collection of objects.
func (s *Store) CreateGroup(name, description string, tags []string) (*media.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, services.Wrap(services.ErrValidation, "store", "create-group", "group name is empty", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, group := range s.doc.Groups {
		if strings.EqualFold(group.Name, name) {
			return nil, services.Wrap(services.ErrValidation, "store", "create-group",
				fmt.Sprintf("group %q already exists", name), nil)
		}
	}

	group := media.Group{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Tags:        normalizeTags(tags),
	}
	s.doc.Groups = append(s.doc.Groups, group)
	if err := saveDocument(s.path, s.doc); err != nil {
		s.doc.Groups = s.doc.Groups[:len(s.doc.Groups)-1]
		return nil, err
	}
	return &group, nil
}

// AddToGroup places objects into a group. Objects already in the group
// are left untouched.
func (s *Store) AddToGroup(groupID string, objectIDs ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc.groupIndex(groupID) < 0 {
		return services.Wrap(services.ErrNotFound, "store", "add-to-group",
			fmt.Sprintf("group %s not found", groupID), nil)
	}

	prevObjects := make([]media.Object, len(s.doc.Objects))
	for i := range s.doc.Objects {
		prevObjects[i] = *s.doc.Objects[i].Clone()
	}

	now := time.Now().UTC()
	for _, objectID := range objectIDs {
		idx := s.doc.objectIndex(objectID)
		if idx < 0 {
			s.doc.Objects = prevObjects
			return services.Wrap(services.ErrNotFound, "store", "add-to-group",
				fmt.Sprintf("object %s not found", objectID), nil)
		}
		object := &s.doc.Objects[idx]
		if !slices.Contains(object.GroupIDs, groupID) {
			object.GroupIDs = append(object.GroupIDs, groupID)
			slices.Sort(object.GroupIDs)
			object.UpdatedAt = now
		}
	}

	if err := saveDocument(s.path, s.doc); err != nil {
		s.doc.Objects = prevObjects
		return err
	}
	return nil
}

// Groups returns all registered groups.
func (s *Store) Groups() []media.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.snapshot().Groups
}

// Remove deletes an object, its entries, and its stored media copy.
func (s *Store) Remove(objectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.doc.objectIndex(objectID)
	if idx < 0 {
		return services.Wrap(services.ErrNotFound, "store", "remove",
			fmt.Sprintf("object %s not found", objectID), nil)
	}

	storedPath := s.doc.Objects[idx].StoredPath
	prevObjects := slices.Clone(s.doc.Objects)
	prevEntries := slices.Clone(s.doc.Entries)

	s.doc.Objects = slices.Delete(s.doc.Objects, idx, idx+1)
	var removed []media.Entry
	kept := s.doc.Entries[:0]
	for _, entry := range s.doc.Entries {
		if entry.ObjectID == objectID {
			removed = append(removed, entry)
			continue
		}
		kept = append(kept, entry)
	}
	s.doc.Entries = kept

	if err := saveDocument(s.path, s.doc); err != nil {
		s.doc.Objects = prevObjects
		s.doc.Entries = prevEntries
		return err
	}

	if storedPath != "" {
		if err := os.Remove(storedPath); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to remove stored media",
				logging.String(logging.FieldObjectID, objectID),
				logging.Error(err))
		}
	}
	for _, entry := range removed {
		if s.observer != nil {
			s.observer(entry, true)
		}
	}
	s.logger.Info("removed object", logging.String(logging.FieldObjectID, objectID))
	return nil
}

// ListFilter narrows the objects returned by List. Empty fields match
// everything.
type ListFilter struct {
	States  []media.State
	Types   []media.Type
	Tags    []string
	GroupID string
}

func (f ListFilter) matches(object *media.Object) bool {
	if len(f.States) > 0 && !slices.Contains(f.States, object.State) {
		return false
	}
	if len(f.Types) > 0 && !slices.Contains(f.Types, object.Type) {
		return false
	}
	for _, tag := range f.Tags {
		if !object.HasTag(strings.ToLower(strings.TrimSpace(tag))) {
			return false
		}
	}
	if f.GroupID != "" && !object.InGroup(f.GroupID) {
		return false
	}
	return true
}

// List returns the objects matching the filter, most recently updated
// first.
func (s *Store) List(filter ListFilter) []media.Object {
	s.mu.Lock()
	defer s.mu.Unlock()

	var results []media.Object
	for i := range s.doc.Objects {
		if filter.matches(&s.doc.Objects[i]) {
			results = append(results, *s.doc.Objects[i].Clone())
		}
	}
	slices.SortFunc(results, func(a, b media.Object) int {
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			if a.UpdatedAt.After(b.UpdatedAt) {
				return -1
			}
			return 1
		}
		return strings.Compare(a.ID, b.ID)
	})
	return results
}

// Snapshot returns a deep copy of the entire catalog.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.snapshot()
}

func normalizeTags(tags []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	slices.Sort(out)
	return out
}

func inferTitleFromPath(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	base = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(base)
	base = strings.Join(strings.Fields(base), " ")
	if base == "" {
		return "untitled"
	}
	return textutil.TitleCase(base)
}
