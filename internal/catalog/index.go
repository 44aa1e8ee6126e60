package catalog

import (
	"sort"
	"sync"
)

// Index keeps each standard's item tree under its own key so fetch and cache
// boundaries stay per standard. Trees are copied on the way in and out.
type Index struct {
	mutex sync.RWMutex
	trees map[string][]StandardItem
}

// NewIndex constructs an empty Index.
func NewIndex() *Index {
	return &Index{trees: make(map[string][]StandardItem)}
}

// Put stores a copy of the tree for standardID, replacing any previous tree.
func (index *Index) Put(standardID string, items []StandardItem) {
	cloned := CloneItems(items)
	assignStandardID(cloned, standardID)

	index.mutex.Lock()
	defer index.mutex.Unlock()
	index.trees[standardID] = cloned
}

// Tree returns a copy of the tree stored for standardID.
func (index *Index) Tree(standardID string) ([]StandardItem, bool) {
	index.mutex.RLock()
	defer index.mutex.RUnlock()
	items, exists := index.trees[standardID]
	if !exists {
		return nil, false
	}
	return CloneItems(items), true
}

// Has reports whether a tree is loaded for standardID.
func (index *Index) Has(standardID string) bool {
	index.mutex.RLock()
	defer index.mutex.RUnlock()
	_, exists := index.trees[standardID]
	return exists
}

// StandardIDs lists the loaded standards in lexical order.
func (index *Index) StandardIDs() []string {
	index.mutex.RLock()
	defer index.mutex.RUnlock()
	identifiers := make([]string, 0, len(index.trees))
	for standardID := range index.trees {
		identifiers = append(identifiers, standardID)
	}
	sort.Strings(identifiers)
	return identifiers
}

// QuestionOwners maps every question id under the given standards to its owning standard id.
// Standards without a loaded tree contribute nothing.
func (index *Index) QuestionOwners(standardIDs []string) map[string]string {
	index.mutex.RLock()
	defer index.mutex.RUnlock()
	owners := make(map[string]string)
	for _, standardID := range standardIDs {
		for _, questionID := range CollectQuestionIDs(index.trees[standardID]) {
			owners[questionID] = standardID
		}
	}
	return owners
}
