package catalog

// FieldType distinguishes selectable questions from grouping nodes.
type FieldType string

// Known field types. Any value other than FieldTypeQuestion is treated as a grouping node.
const (
	FieldTypeQuestion FieldType = "question"
	FieldTypeGroup    FieldType = "group"
)

// Standard describes an external checklist document such as an ISO norm.
type Standard struct {
	ID      string `yaml:"id" json:"id"`
	Code    string `yaml:"code" json:"code"`
	Name    string `yaml:"name" json:"name"`
	Version string `yaml:"version" json:"version"`
}

// StandardItem is one node of a standard's checklist hierarchy.
type StandardItem struct {
	ID         string         `yaml:"id" json:"id"`
	StandardID string         `yaml:"standard_id,omitempty" json:"standard_id"`
	ItemNumber string         `yaml:"item_number" json:"item_number"`
	Title      string         `yaml:"title" json:"title"`
	FieldType  FieldType      `yaml:"field_type" json:"field_type"`
	Children   []StandardItem `yaml:"children,omitempty" json:"children"`
}

// IsQuestion reports whether the node is a selectable question leaf.
func (item StandardItem) IsQuestion() bool {
	return item.FieldType == FieldTypeQuestion
}

// Category groups audit templates.
type Category struct {
	ID    string `yaml:"id" json:"id"`
	Title string `yaml:"title" json:"title"`
}

// Template is an audit template scoped to exactly one category.
type Template struct {
	ID         string `yaml:"id" json:"id"`
	Name       string `yaml:"name" json:"name"`
	CategoryID string `yaml:"category_id" json:"category_id"`
}

// FilterTemplatesByCategory returns the templates belonging to categoryID, or all templates when categoryID is empty.
func FilterTemplatesByCategory(templates []Template, categoryID string) []Template {
	filtered := make([]Template, 0, len(templates))
	for _, template := range templates {
		if len(categoryID) > 0 && template.CategoryID != categoryID {
			continue
		}
		filtered = append(filtered, template)
	}
	return filtered
}
