package models

// Shape selects the response representation of an entity. Handlers pick the
// shape for an operation once and pass it to the entity's Present method.
type Shape int

const (
	ShapeList Shape = iota
	ShapeDetail
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"
