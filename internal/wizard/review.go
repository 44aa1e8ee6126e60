package wizard

// SessionReview summarizes one session on the review page.
type SessionReview struct {
	Name       string
	Date       string
	Location   string
	TotalItems int
}

// Review summarizes the draft before submission.
type Review struct {
	Title       string
	CategoryID  string
	TemplateID  string
	StandardIDs []string
	Sessions    []SessionReview
	TotalItems  int
}

// Review builds the review page summary of the current draft.
func (controller *Controller) Review() Review {
	audit := controller.Draft()
	sessions := make([]SessionReview, 0, len(audit.Sessions))
	for _, session := range audit.Sessions {
		sessions = append(sessions, SessionReview{
			Name:       session.Name,
			Date:       session.Date,
			Location:   session.Location,
			TotalItems: session.TotalItems(),
		})
	}
	return Review{
		Title:       audit.Title,
		CategoryID:  audit.CategoryID,
		TemplateID:  audit.TemplateID,
		StandardIDs: audit.StandardIDs,
		Sessions:    sessions,
		TotalItems:  audit.TotalItems(),
	}
}
