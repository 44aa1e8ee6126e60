// Package draft holds the in-memory audit and session values assembled by the wizard
// before they are committed.
package draft

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/selection"
)

const (
	draftPathRequiredMessageConstant = "draft path must be provided"
	draftReadErrorTemplateConstant   = "failed to read draft: %w"
	draftParseErrorTemplateConstant  = "failed to parse draft %s: %w"
)

// Session is one optional grouping of checklist questions with its schedule.
// PersistedID stays empty until the session has been written.
type Session struct {
	PersistedID string        `yaml:"persisted_id,omitempty" json:"persisted_id,omitempty"`
	Name        string        `yaml:"name" json:"name"`
	Description string        `yaml:"description,omitempty" json:"description,omitempty"`
	Date        string        `yaml:"date,omitempty" json:"date,omitempty"`
	StartTime   string        `yaml:"start_time,omitempty" json:"start_time,omitempty"`
	EndTime     string        `yaml:"end_time,omitempty" json:"end_time,omitempty"`
	Location    string        `yaml:"location,omitempty" json:"location,omitempty"`
	ItemIDs     selection.Set `yaml:"item_ids" json:"item_ids"`
}

// TotalItems returns the number of selected questions in the session.
func (session Session) TotalItems() int {
	return session.ItemIDs.Len()
}

// Audit is the flat audit form plus its ordered standards and sessions.
type Audit struct {
	Title            string    `yaml:"title" json:"title"`
	Description      string    `yaml:"description,omitempty" json:"description,omitempty"`
	CategoryID       string    `yaml:"category_id,omitempty" json:"category_id,omitempty"`
	TemplateID       string    `yaml:"template_id,omitempty" json:"template_id,omitempty"`
	TargetEntity     string    `yaml:"target_entity,omitempty" json:"target_entity,omitempty"`
	TargetEntityType string    `yaml:"target_entity_type,omitempty" json:"target_entity_type,omitempty"`
	StartDate        string    `yaml:"start_date,omitempty" json:"start_date,omitempty"`
	EndDate          string    `yaml:"end_date,omitempty" json:"end_date,omitempty"`
	LeadAuditorID    string    `yaml:"lead_auditor_id,omitempty" json:"lead_auditor_id,omitempty"`
	StandardIDs      []string  `yaml:"standard_ids" json:"standard_ids"`
	Sessions         []Session `yaml:"sessions,omitempty" json:"sessions,omitempty"`
}

// TotalItems sums the selected questions across every session.
func (audit Audit) TotalItems() int {
	total := 0
	for _, session := range audit.Sessions {
		total += session.TotalItems()
	}
	return total
}

// Clone returns a copy that shares no slices with the receiver.
// Selection sets are immutable values and are shared as is.
func (audit Audit) Clone() Audit {
	cloned := audit
	if audit.StandardIDs != nil {
		cloned.StandardIDs = append([]string(nil), audit.StandardIDs...)
	}
	if audit.Sessions != nil {
		cloned.Sessions = append([]Session(nil), audit.Sessions...)
	}
	return cloned
}

// LoadFile decodes an audit draft from a YAML or JSON document.
func LoadFile(filePath string) (Audit, error) {
	trimmedPath := strings.TrimSpace(filePath)
	if len(trimmedPath) == 0 {
		return Audit{}, errors.New(draftPathRequiredMessageConstant)
	}
	contentBytes, readError := os.ReadFile(trimmedPath)
	if readError != nil {
		return Audit{}, fmt.Errorf(draftReadErrorTemplateConstant, readError)
	}
	var audit Audit
	if unmarshalError := yaml.Unmarshal(contentBytes, &audit); unmarshalError != nil {
		return Audit{}, fmt.Errorf(draftParseErrorTemplateConstant, trimmedPath, unmarshalError)
	}
	return audit, nil
}
