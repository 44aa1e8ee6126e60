package console

import (
	"fmt"
	"strings"

	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/catalog"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/selection"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/store"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/wizard"
)

const (
	treeIndentConstant              = "  "
	checkedMarkerConstant           = "[x]"
	uncheckedMarkerConstant         = "[ ]"
	groupMarkerConstant             = " - "
	itemLineTemplateConstant        = "%s%s %s %s\n"
	summaryTemplateConstant         = "%d of %d questions selected"
	fieldLineTemplateConstant       = "%s %s\n"
	sessionLineTemplateConstant     = "  %d. %s (%d questions)%s\n"
	sessionScheduleTemplateConstant = " on %s"
	sessionLocationTemplateConstant = " at %s"
	auditListLineTemplateConstant   = "%s  %s  %s  %d questions\n"
	emptyValueConstant              = "-"
	reviewHeadingConstant           = "Review audit"
	titleLabelConstant              = "Title:"
	categoryLabelConstant           = "Category:"
	templateLabelConstant           = "Template:"
	standardsLabelConstant          = "Standards:"
	sessionsLabelConstant           = "Sessions:"
	totalLabelConstant              = "Total questions:"
	statusLabelConstant             = "Status:"
	organizationLabelConstant       = "Organization:"
	auditLabelConstant              = "Audit:"
	noSessionsMessageConstant       = "  no sessions"
	noAuditsMessageConstant         = "no audits"
	noMatchingQuestionsConstant     = "  no questions match"
	listSeparatorConstant           = ", "
	dateLayoutConstant              = "2006-01-02"
)

// RenderItemTree draws a standard's hierarchy with selection markers on questions.
func RenderItemTree(items []catalog.StandardItem, selected selection.Set) string {
	var builder strings.Builder
	renderItems(&builder, items, selected, 0)
	summary := selection.Summarize(items, selected)
	if summary.Total == 0 {
		builder.WriteString(mutedStyle.Render(noMatchingQuestionsConstant))
		builder.WriteString("\n")
		return builder.String()
	}
	builder.WriteString(mutedStyle.Render(fmt.Sprintf(summaryTemplateConstant, summary.Selected, summary.Total)))
	builder.WriteString("\n")
	return builder.String()
}

func renderItems(builder *strings.Builder, items []catalog.StandardItem, selected selection.Set, depth int) {
	indent := strings.Repeat(treeIndentConstant, depth)
	for _, item := range items {
		switch {
		case !item.IsQuestion():
			builder.WriteString(fmt.Sprintf(itemLineTemplateConstant, indent, groupMarkerConstant, item.ItemNumber, labelStyle.Render(item.Title)))
		case selected.Contains(item.ID):
			builder.WriteString(fmt.Sprintf(itemLineTemplateConstant, indent, selectedStyle.Render(checkedMarkerConstant), item.ItemNumber, item.Title))
		default:
			builder.WriteString(fmt.Sprintf(itemLineTemplateConstant, indent, uncheckedMarkerConstant, item.ItemNumber, item.Title))
		}
		renderItems(builder, item.Children, selected, depth+1)
	}
}

// RenderReview draws the wizard's review page.
func RenderReview(review wizard.Review) string {
	var builder strings.Builder
	builder.WriteString(headingStyle.Render(reviewHeadingConstant))
	builder.WriteString("\n")
	writeField(&builder, titleLabelConstant, review.Title)
	writeField(&builder, categoryLabelConstant, review.CategoryID)
	writeField(&builder, templateLabelConstant, review.TemplateID)
	writeField(&builder, standardsLabelConstant, strings.Join(review.StandardIDs, listSeparatorConstant))
	builder.WriteString(labelStyle.Render(sessionsLabelConstant))
	builder.WriteString("\n")
	if len(review.Sessions) == 0 {
		builder.WriteString(mutedStyle.Render(noSessionsMessageConstant))
		builder.WriteString("\n")
	}
	for index, session := range review.Sessions {
		builder.WriteString(fmt.Sprintf(sessionLineTemplateConstant, index+1, session.Name, session.TotalItems, sessionSuffix(session.Date, session.Location)))
	}
	writeField(&builder, totalLabelConstant, fmt.Sprint(review.TotalItems))
	return builder.String()
}

// RenderAuditDetail draws a persisted audit with its sessions.
func RenderAuditDetail(detail store.AuditDetail) string {
	var builder strings.Builder
	builder.WriteString(headingStyle.Render(detail.Audit.Title))
	builder.WriteString("\n")
	writeField(&builder, auditLabelConstant, detail.Audit.ID)
	writeField(&builder, organizationLabelConstant, detail.Audit.OrganizationID)
	writeField(&builder, statusLabelConstant, detail.Audit.Status)
	writeField(&builder, categoryLabelConstant, detail.Audit.CategoryID)
	writeField(&builder, templateLabelConstant, detail.Audit.TemplateID)
	writeField(&builder, standardsLabelConstant, strings.Join(detail.StandardIDs, listSeparatorConstant))
	builder.WriteString(labelStyle.Render(sessionsLabelConstant))
	builder.WriteString("\n")
	if len(detail.Sessions) == 0 {
		builder.WriteString(mutedStyle.Render(noSessionsMessageConstant))
		builder.WriteString("\n")
	}
	for index, session := range detail.Sessions {
		builder.WriteString(fmt.Sprintf(sessionLineTemplateConstant, index+1, session.Name, session.TotalItems, sessionSuffix(session.Date, session.Location)))
	}
	writeField(&builder, totalLabelConstant, fmt.Sprint(detail.Audit.TotalItems))
	return builder.String()
}

// RenderAuditList draws one line per audit.
func RenderAuditList(records []store.AuditRecord) string {
	if len(records) == 0 {
		return mutedStyle.Render(noAuditsMessageConstant) + "\n"
	}
	var builder strings.Builder
	for _, record := range records {
		builder.WriteString(fmt.Sprintf(auditListLineTemplateConstant, record.ID, record.CreatedAt.Format(dateLayoutConstant), record.Title, record.TotalItems))
	}
	return builder.String()
}

// RenderFailure styles an error message.
func RenderFailure(failure error) string {
	return failureStyle.Render(failure.Error()) + "\n"
}

func writeField(builder *strings.Builder, label string, value string) {
	if len(strings.TrimSpace(value)) == 0 {
		value = emptyValueConstant
	}
	builder.WriteString(fmt.Sprintf(fieldLineTemplateConstant, labelStyle.Render(label), value))
}

func sessionSuffix(date string, location string) string {
	suffix := ""
	if len(date) > 0 {
		suffix += fmt.Sprintf(sessionScheduleTemplateConstant, date)
	}
	if len(location) > 0 {
		suffix += fmt.Sprintf(sessionLocationTemplateConstant, location)
	}
	return suffix
}
