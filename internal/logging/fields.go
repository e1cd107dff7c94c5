package logging

// Canonical field names.
const (
	FieldComponent = "component"
	FieldEvent     = "event"
	FieldError     = "error"
	FieldPath      = "path"
	FieldIndex     = "index"
	FieldTotal     = "total"
	FieldState     = "state"
	FieldLayer     = "layer"
	FieldOption    = "option"
)
