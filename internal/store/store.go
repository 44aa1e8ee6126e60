package store

import (
	"context"
	"errors"
	"time"

	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/catalog"
)

const (
	unauthenticatedMessageConstant      = "no authenticated user"
	organizationNotFoundMessageConstant = "organization not found for user"
	notFoundMessageConstant             = "record not found"

	// AuditStatusPlanning is the status every newly created audit starts in.
	AuditStatusPlanning = "planning"
)

var (
	// ErrUnauthenticated reports that no acting user is available.
	ErrUnauthenticated = errors.New(unauthenticatedMessageConstant)
	// ErrOrganizationNotFound reports that the acting user has no owning organization.
	ErrOrganizationNotFound = errors.New(organizationNotFoundMessageConstant)
	// ErrNotFound reports a missing audit on read-back.
	ErrNotFound = errors.New(notFoundMessageConstant)
)

// CatalogReader supplies the read-only catalog used by the wizard.
type CatalogReader interface {
	FetchStandards(executionContext context.Context) ([]catalog.Standard, error)
	FetchStandardItems(executionContext context.Context, standardID string) ([]catalog.StandardItem, error)
	FetchCategories(executionContext context.Context) ([]catalog.Category, error)
	FetchTemplates(executionContext context.Context) ([]catalog.Template, error)
}

// CatalogImporter loads a seed document into the backend.
type CatalogImporter interface {
	ImportSeed(executionContext context.Context, seed catalog.Seed) error
}

// OrganizationResolver resolves the owning organization of the acting user found in the context.
type OrganizationResolver interface {
	ResolveCurrentUserOrganization(executionContext context.Context) (string, error)
}

// AuditWriter performs the individual writes of an audit creation.
type AuditWriter interface {
	InsertAudit(executionContext context.Context, fields AuditFields) (AuditRecord, error)
	InsertStandardLinks(executionContext context.Context, auditID string, links []StandardLink) ([]StandardLinkRecord, error)
	InsertSession(executionContext context.Context, auditID string, fields SessionFields, order int, totalItems int) (SessionRecord, error)
	InsertSessionItemLinks(executionContext context.Context, sessionID string, links []SessionItemLink) ([]SessionItemLinkRecord, error)
	UpdateAuditTotalItems(executionContext context.Context, auditID string, totalItems int) (AuditRecord, error)
}

// AuditCompensator removes records written by an aborted creation.
type AuditCompensator interface {
	DeleteSessionItemLinks(executionContext context.Context, sessionID string) error
	DeleteSession(executionContext context.Context, sessionID string) error
	DeleteStandardLinks(executionContext context.Context, auditID string) error
	DeleteAudit(executionContext context.Context, auditID string) error
}

// AuditReader reads persisted audits back.
type AuditReader interface {
	GetAudit(executionContext context.Context, auditID string) (AuditDetail, error)
	ListAudits(executionContext context.Context, organizationID string) ([]AuditRecord, error)
}

// Store aggregates every backend capability.
type Store interface {
	CatalogReader
	CatalogImporter
	OrganizationResolver
	AuditWriter
	AuditCompensator
	AuditReader
	Close() error
}

// AuditFields carries the audit root columns supplied by the caller.
type AuditFields struct {
	OrganizationID   string `json:"organization_id"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	CategoryID       string `json:"category_id"`
	TemplateID       string `json:"template_id"`
	TargetEntity     string `json:"target_entity"`
	TargetEntityType string `json:"target_entity_type"`
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
	LeadAuditorID    string `json:"lead_auditor_id"`
	CreatedBy        string `json:"created_by"`
	Status           string `json:"status"`
}

// AuditRecord is a persisted audit root.
type AuditRecord struct {
	ID string `json:"id"`
	AuditFields
	TotalItems int       `json:"total_items"`
	CreatedAt  time.Time `json:"created_at"`
}

// StandardLink attaches a standard to an audit at a display position.
type StandardLink struct {
	StandardID string
	Order      int
}

// StandardLinkRecord is a persisted audit to standard link.
type StandardLinkRecord struct {
	ID         string `json:"id"`
	AuditID    string `json:"audit_id"`
	StandardID string `json:"standard_id"`
	Order      int    `json:"display_order"`
}

// SessionFields carries the session columns supplied by the caller.
type SessionFields struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Location    string `json:"location"`
}

// SessionRecord is a persisted session.
type SessionRecord struct {
	ID      string `json:"id"`
	AuditID string `json:"audit_id"`
	SessionFields
	Order      int `json:"display_order"`
	TotalItems int `json:"total_items"`
}

// SessionItemLink attaches a question to a session at a display position.
type SessionItemLink struct {
	ItemID string
	Order  int
}

// SessionItemLinkRecord is a persisted session to question link.
type SessionItemLinkRecord struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	ItemID    string `json:"item_id"`
	Order     int    `json:"display_order"`
}

// SessionDetail is a session together with its ordered question ids.
type SessionDetail struct {
	SessionRecord
	ItemIDs []string `json:"item_ids"`
}

// AuditDetail is an audit with its ordered standards and sessions.
type AuditDetail struct {
	Audit       AuditRecord     `json:"audit"`
	StandardIDs []string        `json:"standard_ids"`
	Sessions    []SessionDetail `json:"sessions"`
}
