package logging

// Standardized attribute keys shared across components.
const (
	FieldComponent = "component"
	FieldEventType = "event_type"
	FieldErrorHint = "error_hint"
	FieldObjectID  = "object_id"
	FieldEntryID   = "entry_id"
	FieldStage     = "stage"
	FieldVariant   = "variant"
	FieldMode      = "mode"
)
