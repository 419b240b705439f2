package model

// Category is a priority bucket assigned to an email. The built-in
// categories have a fixed digest ordering; custom categories from
// configuration sort after them in their configured order.
type Category string

// Built-in categories.
const (
	CategoryUrgent      Category = "Urgent"
	CategoryImportant   Category = "Important"
	CategoryLowPriority Category = "LowPriority"
	// CategoryUnclassified is reserved for emails whose classification
	// failed. It is never a rule target and always sorts last in a digest.
	CategoryUnclassified Category = "Unclassified"
)

// BuiltinCategories lists the built-in categories in digest order.
func BuiltinCategories() []Category {
	return []Category{CategoryUrgent, CategoryImportant, CategoryLowPriority}
}

// IsBuiltin reports whether c is one of the fixed built-in categories,
// including the reserved Unclassified bucket.
func (c Category) IsBuiltin() bool {
	switch c {
	case CategoryUrgent, CategoryImportant, CategoryLowPriority, CategoryUnclassified:
		return true
	default:
		return false
	}
}
