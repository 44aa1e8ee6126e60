package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/catalog"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/draft"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/wizard"
)

const (
	searchQueryParameterConstant   = "search"
	categoryQueryParameterConstant = "category_id"
	standardIDParameterConstant    = "standardID"
	auditIDParameterConstant       = "auditID"
	healthStatusKeyConstant        = "status"
	healthStatusOKConstant         = "ok"
)

// StandardItemsResponse is the item tree of one standard with its question count.
type StandardItemsResponse struct {
	StandardID    string                 `json:"standard_id"`
	Items         []catalog.StandardItem `json:"items"`
	QuestionCount int                    `json:"question_count"`
}

// CreatedAuditResponse describes a committed audit.
type CreatedAuditResponse struct {
	AuditID        string   `json:"audit_id"`
	OrganizationID string   `json:"organization_id"`
	SessionIDs     []string `json:"session_ids"`
	TotalItems     int      `json:"total_items"`
}

func (server *Server) health(ginContext *gin.Context) {
	ginContext.JSON(http.StatusOK, gin.H{healthStatusKeyConstant: healthStatusOKConstant})
}

func (server *Server) notifications(ginContext *gin.Context) {
	server.hub.ServeWebSocket(ginContext.Writer, ginContext.Request)
}

func (server *Server) listStandards(ginContext *gin.Context) {
	standards, fetchError := server.repository.FetchStandards(ginContext.Request.Context())
	if fetchError != nil {
		server.responder.failureFromError(ginContext, fetchError)
		return
	}
	server.responder.success(ginContext, standards)
}

func (server *Server) listStandardItems(ginContext *gin.Context) {
	standardID := ginContext.Param(standardIDParameterConstant)
	items, fetchError := server.repository.FetchStandardItems(ginContext.Request.Context(), standardID)
	if fetchError != nil {
		server.responder.failureFromError(ginContext, fetchError)
		return
	}
	visible := catalog.FilterBySearch(items, ginContext.Query(searchQueryParameterConstant))
	server.responder.success(ginContext, StandardItemsResponse{
		StandardID:    standardID,
		Items:         visible,
		QuestionCount: catalog.CountQuestions(visible),
	})
}

func (server *Server) listCategories(ginContext *gin.Context) {
	categories, fetchError := server.repository.FetchCategories(ginContext.Request.Context())
	if fetchError != nil {
		server.responder.failureFromError(ginContext, fetchError)
		return
	}
	server.responder.success(ginContext, categories)
}

func (server *Server) listTemplates(ginContext *gin.Context) {
	templates, fetchError := server.repository.FetchTemplates(ginContext.Request.Context())
	if fetchError != nil {
		server.responder.failureFromError(ginContext, fetchError)
		return
	}
	categoryID := strings.TrimSpace(ginContext.Query(categoryQueryParameterConstant))
	server.responder.success(ginContext, catalog.FilterTemplatesByCategory(templates, categoryID))
}

func (server *Server) listAudits(ginContext *gin.Context) {
	requestContext := ginContext.Request.Context()
	organizationID, resolveError := server.repository.ResolveCurrentUserOrganization(requestContext)
	if resolveError != nil {
		server.responder.failureFromError(ginContext, resolveError)
		return
	}
	audits, listError := server.repository.ListAudits(requestContext, organizationID)
	if listError != nil {
		server.responder.failureFromError(ginContext, listError)
		return
	}
	server.responder.success(ginContext, audits)
}

func (server *Server) getAudit(ginContext *gin.Context) {
	requestContext := ginContext.Request.Context()
	organizationID, resolveError := server.repository.ResolveCurrentUserOrganization(requestContext)
	if resolveError != nil {
		server.responder.failureFromError(ginContext, resolveError)
		return
	}
	detail, getError := server.repository.GetAudit(requestContext, ginContext.Param(auditIDParameterConstant))
	if getError != nil {
		server.responder.failureFromError(ginContext, getError)
		return
	}
	if detail.Audit.OrganizationID != organizationID {
		server.responder.failure(ginContext, http.StatusNotFound, ErrorBody{Code: ErrorCodeNotFound, Message: http.StatusText(http.StatusNotFound)})
		return
	}
	server.responder.success(ginContext, detail)
}

// createAudit replays the posted draft through a fresh wizard controller and submits it.
func (server *Server) createAudit(ginContext *gin.Context) {
	var audit draft.Audit
	if bindError := ginContext.ShouldBindJSON(&audit); bindError != nil {
		server.responder.failure(ginContext, http.StatusBadRequest, ErrorBody{Code: ErrorCodeInvalidRequest, Message: bindError.Error()})
		return
	}

	requestContext := ginContext.Request.Context()
	templates, templatesError := server.repository.FetchTemplates(requestContext)
	if templatesError != nil {
		server.responder.failureFromError(ginContext, templatesError)
		return
	}

	controller, controllerError := wizard.NewController(wizard.Dependencies{
		Logger:       server.logger,
		Committer:    server.committer,
		Notifier:     server.notifier,
		ItemsFetcher: server.repository,
		Templates:    templates,
	})
	if controllerError != nil {
		server.responder.failureFromError(ginContext, controllerError)
		return
	}

	if loadError := controller.Load(audit); loadError != nil {
		server.responder.failureFromError(ginContext, loadError)
		return
	}
	for controller.Step() != wizard.StepReview {
		if nextError := controller.NextStep(); nextError != nil {
			server.responder.failureFromError(ginContext, nextError)
			return
		}
	}

	result, submitError := controller.Submit(requestContext)
	if submitError != nil {
		server.responder.failureFromError(ginContext, submitError)
		return
	}
	server.responder.created(ginContext, CreatedAuditResponse{
		AuditID:        result.AuditID,
		OrganizationID: result.OrganizationID,
		SessionIDs:     result.SessionIDs,
		TotalItems:     result.TotalItems,
	})
}
