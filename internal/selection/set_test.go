package selection_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/catalog"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/selection"
)

func standardTree() []catalog.StandardItem {
	return []catalog.StandardItem{
		{
			ID:        "g1",
			Title:     "Governance",
			FieldType: catalog.FieldTypeGroup,
			Children: []catalog.StandardItem{
				{ID: "i1", Title: "Board oversight", FieldType: catalog.FieldTypeQuestion},
				{ID: "i2", Title: "Ethics policy", FieldType: catalog.FieldTypeQuestion},
			},
		},
		{ID: "i3", Title: "Emissions inventory", FieldType: catalog.FieldTypeQuestion},
	}
}

func TestSetOperationsReturnNewValues(testInstance *testing.T) {
	original := selection.New("a", "b")

	added := original.Add("c", "a")
	removed := original.Remove("a")
	toggled := original.Toggle("b")

	require.Equal(testInstance, []string{"a", "b"}, original.IDs())
	require.Equal(testInstance, []string{"a", "b", "c"}, added.IDs())
	require.Equal(testInstance, []string{"b"}, removed.IDs())
	require.Equal(testInstance, []string{"a"}, toggled.IDs())
	require.True(testInstance, toggled.Toggle("b").Equal(original))
}

func TestZeroValueSetIsEmpty(testInstance *testing.T) {
	var empty selection.Set
	require.Zero(testInstance, empty.Len())
	require.False(testInstance, empty.Contains("a"))
	require.Equal(testInstance, []string{}, empty.IDs())
	require.Equal(testInstance, []string{"a"}, empty.Toggle("a").IDs())
	require.Zero(testInstance, empty.Len())
}

func TestIDsReturnsCopy(testInstance *testing.T) {
	set := selection.New("a", "b")
	identifiers := set.IDs()
	identifiers[0] = "mutated"
	require.Equal(testInstance, []string{"a", "b"}, set.IDs())
}

func TestToggleAllInStandard(testInstance *testing.T) {
	testCases := []struct {
		name        string
		initial     selection.Set
		expectedIDs []string
	}{
		{
			name:        "empty_selects_all",
			initial:     selection.New(),
			expectedIDs: []string{"i1", "i2", "i3"},
		},
		{
			name:        "partial_adds_missing_only",
			initial:     selection.New("other", "i2"),
			expectedIDs: []string{"other", "i2", "i1", "i3"},
		},
		{
			name:        "all_selected_removes_exactly_questions",
			initial:     selection.New("i3", "other", "i1", "i2"),
			expectedIDs: []string{"other"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			toggled := selection.ToggleAllInStandard(standardTree(), testCase.initial)
			require.Equal(subTest, testCase.expectedIDs, toggled.IDs())
		})
	}
}

func TestToggleAllTwiceFromPartialRestoresOriginalMembership(testInstance *testing.T) {
	initial := selection.New("other", "i2")

	selectedAll := selection.ToggleAllInStandard(standardTree(), initial)
	require.True(testInstance, selectedAll.ContainsAll(catalog.CollectQuestionIDs(standardTree())))

	deselected := selection.ToggleAllInStandard(standardTree(), selectedAll)
	require.Equal(testInstance, []string{"other"}, deselected.IDs())

	emptyStart := selection.New("other")
	roundTrip := selection.ToggleAllInStandard(standardTree(), selection.ToggleAllInStandard(standardTree(), emptyStart))
	require.True(testInstance, roundTrip.Equal(emptyStart))
}

func TestSelectionSurvivesSearchFiltering(testInstance *testing.T) {
	set := selection.New("i1", "i3")
	filtered := catalog.FilterBySearch(standardTree(), "no-match")
	require.Empty(testInstance, filtered)

	visible := catalog.CollectQuestionIDs(catalog.FilterBySearch(standardTree(), "board"))
	updated := selection.ApplyVisible(set, visible, nil)
	require.Equal(testInstance, []string{"i3"}, updated.IDs())
}

func TestApplyVisibleKeepsHiddenSelections(testInstance *testing.T) {
	set := selection.New("hidden", "i1")
	updated := selection.ApplyVisible(set, []string{"i1", "i2"}, []string{"i2"})
	require.Equal(testInstance, []string{"hidden", "i2"}, updated.IDs())
}

func TestSummarize(testInstance *testing.T) {
	testCases := []struct {
		name          string
		items         []catalog.StandardItem
		set           selection.Set
		expected      selection.Summary
		bulkToggle    bool
		allSelected   bool
		expectedRatio float64
	}{
		{
			name:          "partial",
			items:         standardTree(),
			set:           selection.New("i1"),
			expected:      selection.Summary{Selected: 1, Total: 3},
			bulkToggle:    true,
			expectedRatio: 1.0 / 3.0,
		},
		{
			name:          "all",
			items:         standardTree(),
			set:           selection.New("i1", "i2", "i3"),
			expected:      selection.Summary{Selected: 3, Total: 3},
			bulkToggle:    true,
			allSelected:   true,
			expectedRatio: 1,
		},
		{
			name:          "no_questions",
			items:         []catalog.StandardItem{{ID: "g", FieldType: catalog.FieldTypeGroup}},
			set:           selection.New("i1"),
			expected:      selection.Summary{},
			expectedRatio: 0,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			summary := selection.Summarize(testCase.items, testCase.set)
			require.Equal(subTest, testCase.expected, summary)
			require.Equal(subTest, testCase.bulkToggle, summary.BulkToggleAvailable())
			require.Equal(subTest, testCase.allSelected, summary.AllSelected())
			require.InDelta(subTest, testCase.expectedRatio, summary.Ratio(), 1e-9)
		})
	}
}

func TestSetEncodesAsList(testInstance *testing.T) {
	set := selection.New("b", "a")

	jsonBytes, marshalError := json.Marshal(set)
	require.NoError(testInstance, marshalError)
	require.JSONEq(testInstance, `["b","a"]`, string(jsonBytes))

	var fromYAML struct {
		ItemIDs selection.Set `yaml:"item_ids"`
	}
	require.NoError(testInstance, yaml.Unmarshal([]byte("item_ids: [x, y, x]\n"), &fromYAML))
	require.Equal(testInstance, []string{"x", "y"}, fromYAML.ItemIDs.IDs())
}
