// Package selection provides the immutable set of selected checklist question ids.
//
// Every mutating operation returns a new Set and leaves the receiver untouched,
// so snapshots held by a session draft stay stable across edits, cancels, and
// search changes. Membership is independent of any tree: ids survive filtering.
package selection

import (
	"encoding/json"

	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/catalog"
)

// Set is an insertion-ordered set of question ids. The zero value is an empty set.
type Set struct {
	identifiers []string
	members     map[string]struct{}
}

// New builds a Set from ids, dropping duplicates and keeping first occurrence order.
func New(identifiers ...string) Set {
	return Set{}.Add(identifiers...)
}

// Len returns the number of selected ids.
func (set Set) Len() int {
	return len(set.identifiers)
}

// Contains reports whether identifier is selected.
func (set Set) Contains(identifier string) bool {
	_, exists := set.members[identifier]
	return exists
}

// ContainsAll reports whether every id in identifiers is selected.
func (set Set) ContainsAll(identifiers []string) bool {
	for _, identifier := range identifiers {
		if !set.Contains(identifier) {
			return false
		}
	}
	return true
}

// IDs returns the selected ids in insertion order.
func (set Set) IDs() []string {
	duplicated := make([]string, len(set.identifiers))
	copy(duplicated, set.identifiers)
	return duplicated
}

// Add returns a new Set with identifiers appended when not already present.
func (set Set) Add(identifiers ...string) Set {
	next := set.clone(len(identifiers))
	for _, identifier := range identifiers {
		if _, exists := next.members[identifier]; exists {
			continue
		}
		next.members[identifier] = struct{}{}
		next.identifiers = append(next.identifiers, identifier)
	}
	return next
}

// Remove returns a new Set without identifiers.
func (set Set) Remove(identifiers ...string) Set {
	removed := make(map[string]struct{}, len(identifiers))
	for _, identifier := range identifiers {
		removed[identifier] = struct{}{}
	}

	next := Set{members: make(map[string]struct{}, len(set.identifiers))}
	for _, identifier := range set.identifiers {
		if _, drop := removed[identifier]; drop {
			continue
		}
		next.members[identifier] = struct{}{}
		next.identifiers = append(next.identifiers, identifier)
	}
	return next
}

// Toggle adds identifier when absent and removes it when present.
func (set Set) Toggle(identifier string) Set {
	if set.Contains(identifier) {
		return set.Remove(identifier)
	}
	return set.Add(identifier)
}

// Equal reports whether both sets hold the same ids in the same order.
func (set Set) Equal(other Set) bool {
	if set.Len() != other.Len() {
		return false
	}
	for index := range set.identifiers {
		if set.identifiers[index] != other.identifiers[index] {
			return false
		}
	}
	return true
}

func (set Set) clone(extraCapacity int) Set {
	next := Set{
		identifiers: make([]string, len(set.identifiers), len(set.identifiers)+extraCapacity),
		members:     make(map[string]struct{}, len(set.identifiers)+extraCapacity),
	}
	copy(next.identifiers, set.identifiers)
	for _, identifier := range set.identifiers {
		next.members[identifier] = struct{}{}
	}
	return next
}

// ToggleAllInStandard flips every question under items at once: when all of them
// are already selected they are all removed, otherwise the missing ones are added.
func ToggleAllInStandard(items []catalog.StandardItem, set Set) Set {
	questionIDs := catalog.CollectQuestionIDs(items)
	if set.ContainsAll(questionIDs) {
		return set.Remove(questionIDs...)
	}
	return set.Add(questionIDs...)
}

// ApplyVisible replaces the selection state of the visible ids with chosen while
// keeping every selected id outside visible untouched.
func ApplyVisible(set Set, visible []string, chosen []string) Set {
	return set.Remove(visible...).Add(chosen...)
}

// MarshalJSON encodes the set as a JSON array of ids.
func (set Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(set.IDs())
}

// UnmarshalJSON decodes a JSON array of ids.
func (set *Set) UnmarshalJSON(data []byte) error {
	var identifiers []string
	if unmarshalError := json.Unmarshal(data, &identifiers); unmarshalError != nil {
		return unmarshalError
	}
	*set = New(identifiers...)
	return nil
}

// MarshalYAML encodes the set as a YAML sequence of ids.
func (set Set) MarshalYAML() (any, error) {
	return set.IDs(), nil
}

// UnmarshalYAML decodes a YAML sequence of ids.
func (set *Set) UnmarshalYAML(unmarshal func(any) error) error {
	var identifiers []string
	if unmarshalError := unmarshal(&identifiers); unmarshalError != nil {
		return unmarshalError
	}
	*set = New(identifiers...)
	return nil
}
