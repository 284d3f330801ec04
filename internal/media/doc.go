// Package media defines the catalog's data model: media objects, their
// derived entries, groups, and the lifecycle state machine a media object
// moves through from import to export.
package media
