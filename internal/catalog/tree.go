package catalog

import "strings"

// FilterBySearch returns a pruned copy of items keeping every node whose title or
// item number contains term (case-insensitive) and every ancestor of such a node.
// Children of a kept node are filtered by the same rule. An empty term returns an
// unfiltered copy. The source tree is never modified.
func FilterBySearch(items []StandardItem, term string) []StandardItem {
	normalizedTerm := strings.ToLower(strings.TrimSpace(term))
	if len(normalizedTerm) == 0 {
		return CloneItems(items)
	}
	return filterItems(items, normalizedTerm)
}

func filterItems(items []StandardItem, normalizedTerm string) []StandardItem {
	filtered := make([]StandardItem, 0)
	for _, item := range items {
		filteredChildren := filterItems(item.Children, normalizedTerm)
		if !itemMatches(item, normalizedTerm) && len(filteredChildren) == 0 {
			continue
		}
		kept := item
		kept.Children = filteredChildren
		filtered = append(filtered, kept)
	}
	return filtered
}

func itemMatches(item StandardItem, normalizedTerm string) bool {
	if strings.Contains(strings.ToLower(item.Title), normalizedTerm) {
		return true
	}
	return strings.Contains(strings.ToLower(item.ItemNumber), normalizedTerm)
}

// CountQuestions counts question nodes at any depth, ignoring grouping nodes.
func CountQuestions(items []StandardItem) int {
	total := 0
	for _, item := range items {
		if item.IsQuestion() {
			total++
		}
		total += CountQuestions(item.Children)
	}
	return total
}

// CollectQuestionIDs returns the ids of all question nodes in pre-order.
func CollectQuestionIDs(items []StandardItem) []string {
	identifiers := make([]string, 0)
	return appendQuestionIDs(identifiers, items)
}

func appendQuestionIDs(identifiers []string, items []StandardItem) []string {
	for _, item := range items {
		if item.IsQuestion() {
			identifiers = append(identifiers, item.ID)
		}
		identifiers = appendQuestionIDs(identifiers, item.Children)
	}
	return identifiers
}

// CloneItems deep-copies a tree so callers never share child slices.
func CloneItems(items []StandardItem) []StandardItem {
	if items == nil {
		return nil
	}
	cloned := make([]StandardItem, len(items))
	for index, item := range items {
		cloned[index] = item
		cloned[index].Children = CloneItems(item.Children)
	}
	return cloned
}

// FindItem locates a node by id anywhere in the tree.
func FindItem(items []StandardItem, itemID string) (StandardItem, bool) {
	for _, item := range items {
		if item.ID == itemID {
			return item, true
		}
		if found, exists := FindItem(item.Children, itemID); exists {
			return found, true
		}
	}
	return StandardItem{}, false
}

// assignStandardID stamps standardID onto every node missing one.
func assignStandardID(items []StandardItem, standardID string) {
	for index := range items {
		if len(strings.TrimSpace(items[index].StandardID)) == 0 {
			items[index].StandardID = standardID
		}
		assignStandardID(items[index].Children, standardID)
	}
}
