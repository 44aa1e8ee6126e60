package console_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/catalog"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/console"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/selection"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/store"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/wizard"
)

func TestRenderItemTreeMarksSelectedQuestions(testInstance *testing.T) {
	rendered := console.RenderItemTree(testStandardItems(), selection.New("q4.2"))

	require.Contains(testInstance, rendered, "Context")
	require.Contains(testInstance, rendered, "[ ] 4.1 Understanding the organization")
	require.Contains(testInstance, rendered, "[x] 4.2 Interested parties")
	require.Contains(testInstance, rendered, "1 of 3 questions selected")
}

func TestRenderItemTreeReportsEmptyMatch(testInstance *testing.T) {
	rendered := console.RenderItemTree(catalog.FilterBySearch(testStandardItems(), "zzz"), selection.New("q4.2"))

	require.Contains(testInstance, rendered, "no questions match")
	require.NotContains(testInstance, rendered, "questions selected")
}

func TestRenderReviewListsSessions(testInstance *testing.T) {
	rendered := console.RenderReview(wizard.Review{
		Title:       "Quality audit",
		StandardIDs: []string{"iso-9001", "iso-14001"},
		Sessions:    []wizard.SessionReview{{Name: "Opening", Date: "2026-03-02", Location: "HQ", TotalItems: 2}},
		TotalItems:  2,
	})

	require.Contains(testInstance, rendered, "Quality audit")
	require.Contains(testInstance, rendered, "iso-9001, iso-14001")
	require.Contains(testInstance, rendered, "1. Opening (2 questions) on 2026-03-02 at HQ")
	require.Contains(testInstance, rendered, "Total questions:")
}

func TestRenderAuditListAndDetail(testInstance *testing.T) {
	record := store.AuditRecord{
		ID:          "a-1",
		AuditFields: store.AuditFields{Title: "Quality audit", Status: store.AuditStatusPlanning},
		TotalItems:  4,
		CreatedAt:   time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC),
	}

	require.Contains(testInstance, console.RenderAuditList([]store.AuditRecord{record}), "a-1  2026-03-01  Quality audit  4 questions")
	require.Contains(testInstance, console.RenderAuditList(nil), "no audits")

	detail := console.RenderAuditDetail(store.AuditDetail{Audit: record})
	require.Contains(testInstance, detail, "planning")
	require.Contains(testInstance, detail, "no sessions")
}

func testStandardItems() []catalog.StandardItem {
	return []catalog.StandardItem{
		{
			ID:         "g4",
			ItemNumber: "4",
			Title:      "Context",
			FieldType:  catalog.FieldTypeGroup,
			Children: []catalog.StandardItem{
				{ID: "q4.1", ItemNumber: "4.1", Title: "Understanding the organization", FieldType: catalog.FieldTypeQuestion},
				{ID: "q4.2", ItemNumber: "4.2", Title: "Interested parties", FieldType: catalog.FieldTypeQuestion},
			},
		},
		{ID: "q5", ItemNumber: "5", Title: "Leadership", FieldType: catalog.FieldTypeQuestion},
	}
}
