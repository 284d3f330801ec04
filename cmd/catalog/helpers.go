package main

import (
	"fmt"
	"strings"

	"catalog/internal/media"
	"catalog/internal/store"
)

// resolveObject accepts a full object ID or a unique prefix.
func resolveObject(st *store.Store, idOrPrefix string) (*media.Object, error) {
	if object, err := st.GetMedia(idOrPrefix); err == nil {
		return object, nil
	}

	var matches []media.Object
	for _, object := range st.List(store.ListFilter{}) {
		if strings.HasPrefix(object.ID, idOrPrefix) {
			matches = append(matches, object)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no object matches %q", idOrPrefix)
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("%q is ambiguous, matches %d objects", idOrPrefix, len(matches))
	}
}

func resolveObjects(st *store.Store, idsOrPrefixes []string) ([]string, error) {
	ids := make([]string, 0, len(idsOrPrefixes))
	for _, arg := range idsOrPrefixes {
		object, err := resolveObject(st, arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, object.ID)
	}
	return ids, nil
}
