// Package catalog models the read-only checklist hierarchy of audit standards.
//
// A standard owns an ordered tree of StandardItem nodes. Only nodes whose field
// type is FieldTypeQuestion are selectable; grouping nodes are traversed but never
// counted. The package exposes pure tree transforms (search filtering, question
// counting, id collection), an Index that keeps each standard's tree behind its
// own key, a concurrent Loader, and the YAML seed format used to import a catalog.
package catalog
