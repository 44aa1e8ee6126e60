package catalog_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/catalog"
)

const (
	testStandardIdentifierConstant  = "iso-9001"
	testUnmatchedSearchTermConstant = "no-such-clause"
)

func sampleTree() []catalog.StandardItem {
	return []catalog.StandardItem{
		{
			ID:         "g4",
			ItemNumber: "4",
			Title:      "Context of the organization",
			FieldType:  catalog.FieldTypeGroup,
			Children: []catalog.StandardItem{
				{ID: "q4.1", ItemNumber: "4.1", Title: "Understanding the organization", FieldType: catalog.FieldTypeQuestion},
				{
					ID:         "g4.2",
					ItemNumber: "4.2",
					Title:      "Interested parties",
					FieldType:  catalog.FieldTypeGroup,
					Children: []catalog.StandardItem{
						{ID: "q4.2.1", ItemNumber: "4.2.1", Title: "Needs of interested parties", FieldType: catalog.FieldTypeQuestion},
					},
				},
			},
		},
		{
			ID:         "q5",
			ItemNumber: "5",
			Title:      "Leadership commitment",
			FieldType:  catalog.FieldTypeQuestion,
			Children: []catalog.StandardItem{
				{ID: "q5.1", ItemNumber: "5.1", Title: "Customer focus", FieldType: catalog.FieldTypeQuestion},
			},
		},
		{ID: "g6", ItemNumber: "6", Title: "Planning", FieldType: catalog.FieldTypeGroup},
	}
}

func TestCountQuestionsMatchesCollectedIdentifiers(testInstance *testing.T) {
	testCases := []struct {
		name          string
		items         []catalog.StandardItem
		expectedIDs   []string
		expectedCount int
	}{
		{
			name:          "nested_tree",
			items:         sampleTree(),
			expectedIDs:   []string{"q4.1", "q4.2.1", "q5", "q5.1"},
			expectedCount: 4,
		},
		{
			name:          "groups_only",
			items:         []catalog.StandardItem{{ID: "g1", FieldType: catalog.FieldTypeGroup}},
			expectedIDs:   []string{},
			expectedCount: 0,
		},
		{
			name:          "empty_tree",
			items:         nil,
			expectedIDs:   []string{},
			expectedCount: 0,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			collected := catalog.CollectQuestionIDs(testCase.items)
			require.Equal(subTest, testCase.expectedIDs, collected)
			require.Equal(subTest, testCase.expectedCount, catalog.CountQuestions(testCase.items))
			require.Len(subTest, collected, catalog.CountQuestions(testCase.items))
		})
	}
}

func TestFilterBySearch(testInstance *testing.T) {
	testCases := []struct {
		name        string
		term        string
		expectedIDs []string
	}{
		{name: "empty_term_identity", term: "", expectedIDs: []string{"q4.1", "q4.2.1", "q5", "q5.1"}},
		{name: "whitespace_term_identity", term: "   ", expectedIDs: []string{"q4.1", "q4.2.1", "q5", "q5.1"}},
		{name: "case_insensitive_title_keeps_question_ancestor", term: "CUSTOMER", expectedIDs: []string{"q5", "q5.1"}},
		{name: "matches_item_number", term: "4.2.1", expectedIDs: []string{"q4.2.1"}},
		{name: "parent_match_keeps_only_matching_children", term: "leadership", expectedIDs: []string{"q5"}},
		{name: "no_match_prunes_everything", term: testUnmatchedSearchTermConstant, expectedIDs: []string{}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			filtered := catalog.FilterBySearch(sampleTree(), testCase.term)
			require.Equal(subTest, testCase.expectedIDs, catalog.CollectQuestionIDs(filtered))
		})
	}
}

func TestFilterBySearchIdentityAndImmutability(testInstance *testing.T) {
	source := sampleTree()
	require.Equal(testInstance, source, catalog.FilterBySearch(source, ""))

	filtered := catalog.FilterBySearch(source, "customer")
	require.Len(testInstance, filtered, 1)
	require.Equal(testInstance, "q5", filtered[0].ID)
	require.Len(testInstance, filtered[0].Children, 1)

	require.Equal(testInstance, sampleTree(), source)
}

func TestFilterBySearchUnmatchedTermReturnsEmptyTree(testInstance *testing.T) {
	filtered := catalog.FilterBySearch(sampleTree(), testUnmatchedSearchTermConstant)
	require.NotNil(testInstance, filtered)
	require.Empty(testInstance, filtered)
	require.Zero(testInstance, catalog.CountQuestions(filtered))
}

func TestFilterTemplatesByCategory(testInstance *testing.T) {
	templates := []catalog.Template{
		{ID: "t1", Name: "Internal", CategoryID: "quality"},
		{ID: "t2", Name: "Supplier", CategoryID: "environment"},
		{ID: "t3", Name: "Process", CategoryID: "quality"},
	}

	require.Len(testInstance, catalog.FilterTemplatesByCategory(templates, ""), 3)

	filtered := catalog.FilterTemplatesByCategory(templates, "quality")
	require.Equal(testInstance, []catalog.Template{templates[0], templates[2]}, filtered)
	require.Empty(testInstance, catalog.FilterTemplatesByCategory(templates, "unknown"))
}

type stubItemsFetcher struct {
	mutex    sync.Mutex
	trees    map[string][]catalog.StandardItem
	failures map[string]error
	calls    []string
}

func (fetcher *stubItemsFetcher) FetchStandardItems(executionContext context.Context, standardID string) ([]catalog.StandardItem, error) {
	fetcher.mutex.Lock()
	fetcher.calls = append(fetcher.calls, standardID)
	fetcher.mutex.Unlock()
	if failure, exists := fetcher.failures[standardID]; exists {
		return nil, failure
	}
	return fetcher.trees[standardID], nil
}

func TestLoaderPopulatesIndexPerStandard(testInstance *testing.T) {
	fetcher := &stubItemsFetcher{trees: map[string][]catalog.StandardItem{
		testStandardIdentifierConstant: sampleTree(),
		"iso-14001":                    {{ID: "env-1", FieldType: catalog.FieldTypeQuestion}},
	}}
	loader, loaderError := catalog.NewLoader(fetcher, nil)
	require.NoError(testInstance, loaderError)

	index := catalog.NewIndex()
	require.NoError(testInstance, loader.Load(context.Background(), index, []string{testStandardIdentifierConstant, "iso-14001"}))
	require.Equal(testInstance, []string{"iso-14001", testStandardIdentifierConstant}, index.StandardIDs())

	tree, exists := index.Tree(testStandardIdentifierConstant)
	require.True(testInstance, exists)
	require.Equal(testInstance, testStandardIdentifierConstant, tree[0].StandardID)
	require.Equal(testInstance, testStandardIdentifierConstant, tree[0].Children[1].Children[0].StandardID)

	owners := index.QuestionOwners([]string{"iso-14001"})
	require.Equal(testInstance, map[string]string{"env-1": "iso-14001"}, owners)

	require.NoError(testInstance, loader.Load(context.Background(), index, []string{testStandardIdentifierConstant}))
	require.Len(testInstance, fetcher.calls, 2)
}

func TestLoaderReturnsFetchFailure(testInstance *testing.T) {
	fetchFailure := errors.New("catalog unavailable")
	fetcher := &stubItemsFetcher{failures: map[string]error{testStandardIdentifierConstant: fetchFailure}}
	loader, loaderError := catalog.NewLoader(fetcher, nil)
	require.NoError(testInstance, loaderError)

	loadError := loader.Load(context.Background(), catalog.NewIndex(), []string{testStandardIdentifierConstant})
	require.ErrorIs(testInstance, loadError, fetchFailure)
}

func TestNewLoaderRequiresFetcher(testInstance *testing.T) {
	_, loaderError := catalog.NewLoader(nil, nil)
	require.Error(testInstance, loaderError)
}
