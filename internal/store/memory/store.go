// Package memory provides an in-process store backend with operation recording
// and failure injection for exercising partial audit creations.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/catalog"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/store"
)

// Operation names recorded in the operation log and accepted by FailOn.
const (
	OperationInsertAudit            = "insert_audit"
	OperationInsertStandardLinks    = "insert_standard_links"
	OperationInsertSession          = "insert_session"
	OperationInsertSessionItemLinks = "insert_session_item_links"
	OperationUpdateAuditTotalItems  = "update_audit_total_items"
	OperationDeleteSessionItemLinks = "delete_session_item_links"
	OperationDeleteSession          = "delete_session"
	OperationDeleteStandardLinks    = "delete_standard_links"
	OperationDeleteAudit            = "delete_audit"

	standardNotFoundTemplateConstant = "standard %s: %w"
	auditNotFoundTemplateConstant    = "audit %s: %w"
	sessionNotFoundTemplateConstant  = "session %s: %w"
)

// Operation is one recorded write call.
type Operation struct {
	Name       string
	TargetID   string
	Count      int
	Order      int
	Orders     []int
	TotalItems int
}

type failureRule struct {
	occurrence int
	err        error
}

// Store keeps every collection in maps guarded by one mutex.
type Store struct {
	mutex sync.Mutex

	standards        []catalog.Standard
	standardItems    map[string][]catalog.StandardItem
	categories       []catalog.Category
	templates        []catalog.Template
	userOrganization map[string]string

	audits           map[string]store.AuditRecord
	auditOrder       []string
	standardLinks    map[string][]store.StandardLinkRecord
	sessions         map[string]store.SessionRecord
	auditSessions    map[string][]string
	sessionItemLinks map[string][]store.SessionItemLinkRecord

	operations []Operation
	calls      map[string]int
	failures   map[string]failureRule
	now        func() time.Time
}

// New constructs an empty Store.
func New() *Store {
	return &Store{
		standardItems:    make(map[string][]catalog.StandardItem),
		userOrganization: make(map[string]string),
		audits:           make(map[string]store.AuditRecord),
		standardLinks:    make(map[string][]store.StandardLinkRecord),
		sessions:         make(map[string]store.SessionRecord),
		auditSessions:    make(map[string][]string),
		sessionItemLinks: make(map[string][]store.SessionItemLinkRecord),
		calls:            make(map[string]int),
		failures:         make(map[string]failureRule),
		now:              time.Now,
	}
}

// SetUserOrganization maps a user id to its owning organization.
func (memoryStore *Store) SetUserOrganization(userID string, organizationID string) {
	memoryStore.mutex.Lock()
	defer memoryStore.mutex.Unlock()
	memoryStore.userOrganization[userID] = organizationID
}

// FailOn makes the occurrence-th call (1-based) of operation return failure.
func (memoryStore *Store) FailOn(operation string, occurrence int, failure error) {
	memoryStore.mutex.Lock()
	defer memoryStore.mutex.Unlock()
	memoryStore.failures[operation] = failureRule{occurrence: occurrence, err: failure}
}

// Operations returns the recorded write calls in order, failed calls included.
func (memoryStore *Store) Operations() []Operation {
	memoryStore.mutex.Lock()
	defer memoryStore.mutex.Unlock()
	return append([]Operation(nil), memoryStore.operations...)
}

// AuditCount reports how many audit roots are stored.
func (memoryStore *Store) AuditCount() int {
	memoryStore.mutex.Lock()
	defer memoryStore.mutex.Unlock()
	return len(memoryStore.audits)
}

// Close is a no-op.
func (memoryStore *Store) Close() error {
	return nil
}

// ImportSeed replaces the catalog with the seed contents and adds its user mappings.
// Standards missing from the seed are no longer served.
func (memoryStore *Store) ImportSeed(executionContext context.Context, seed catalog.Seed) error {
	memoryStore.mutex.Lock()
	defer memoryStore.mutex.Unlock()

	memoryStore.standards = make([]catalog.Standard, 0, len(seed.Standards))
	memoryStore.standardItems = make(map[string][]catalog.StandardItem, len(seed.Standards))
	for _, seedStandard := range seed.Standards {
		memoryStore.standards = append(memoryStore.standards, seedStandard.Standard)
		memoryStore.standardItems[seedStandard.ID] = catalog.CloneItems(seedStandard.Items)
	}
	memoryStore.categories = append([]catalog.Category(nil), seed.Categories...)
	memoryStore.templates = append([]catalog.Template(nil), seed.Templates...)
	for _, user := range seed.Users {
		memoryStore.userOrganization[user.ID] = user.OrganizationID
	}
	return nil
}

// FetchStandards lists the imported standards in import order.
func (memoryStore *Store) FetchStandards(executionContext context.Context) ([]catalog.Standard, error) {
	memoryStore.mutex.Lock()
	defer memoryStore.mutex.Unlock()
	return append([]catalog.Standard{}, memoryStore.standards...), nil
}

// FetchStandardItems returns a copy of the standard's item tree.
func (memoryStore *Store) FetchStandardItems(executionContext context.Context, standardID string) ([]catalog.StandardItem, error) {
	memoryStore.mutex.Lock()
	defer memoryStore.mutex.Unlock()
	items, exists := memoryStore.standardItems[standardID]
	if !exists {
		return nil, fmt.Errorf(standardNotFoundTemplateConstant, standardID, store.ErrNotFound)
	}
	return catalog.CloneItems(items), nil
}

// FetchCategories lists the imported categories.
func (memoryStore *Store) FetchCategories(executionContext context.Context) ([]catalog.Category, error) {
	memoryStore.mutex.Lock()
	defer memoryStore.mutex.Unlock()
	return append([]catalog.Category{}, memoryStore.categories...), nil
}

// FetchTemplates lists the imported templates.
func (memoryStore *Store) FetchTemplates(executionContext context.Context) ([]catalog.Template, error) {
	memoryStore.mutex.Lock()
	defer memoryStore.mutex.Unlock()
	return append([]catalog.Template{}, memoryStore.templates...), nil
}

// ResolveCurrentUserOrganization maps the acting user from the context to its organization.
func (memoryStore *Store) ResolveCurrentUserOrganization(executionContext context.Context) (string, error) {
	userID, available := store.ActingUserID(executionContext)
	if !available {
		return "", store.ErrUnauthenticated
	}

	memoryStore.mutex.Lock()
	defer memoryStore.mutex.Unlock()
	organizationID, exists := memoryStore.userOrganization[userID]
	if !exists || len(organizationID) == 0 {
		return "", store.ErrOrganizationNotFound
	}
	return organizationID, nil
}

// InsertAudit stores a new audit root with a generated id.
func (memoryStore *Store) InsertAudit(executionContext context.Context, fields store.AuditFields) (store.AuditRecord, error) {
	memoryStore.mutex.Lock()
	defer memoryStore.mutex.Unlock()

	if failure := memoryStore.record(Operation{Name: OperationInsertAudit}); failure != nil {
		return store.AuditRecord{}, failure
	}

	record := store.AuditRecord{ID: uuid.NewString(), AuditFields: fields, CreatedAt: memoryStore.now().UTC()}
	memoryStore.audits[record.ID] = record
	memoryStore.auditOrder = append(memoryStore.auditOrder, record.ID)
	memoryStore.operations[len(memoryStore.operations)-1].TargetID = record.ID
	return record, nil
}

// InsertStandardLinks stores one link per standard.
func (memoryStore *Store) InsertStandardLinks(executionContext context.Context, auditID string, links []store.StandardLink) ([]store.StandardLinkRecord, error) {
	memoryStore.mutex.Lock()
	defer memoryStore.mutex.Unlock()

	orders := make([]int, 0, len(links))
	for _, link := range links {
		orders = append(orders, link.Order)
	}
	if failure := memoryStore.record(Operation{Name: OperationInsertStandardLinks, TargetID: auditID, Count: len(links), Orders: orders}); failure != nil {
		return nil, failure
	}
	if _, exists := memoryStore.audits[auditID]; !exists {
		return nil, fmt.Errorf(auditNotFoundTemplateConstant, auditID, store.ErrNotFound)
	}

	records := make([]store.StandardLinkRecord, 0, len(links))
	for _, link := range links {
		records = append(records, store.StandardLinkRecord{ID: uuid.NewString(), AuditID: auditID, StandardID: link.StandardID, Order: link.Order})
	}
	memoryStore.standardLinks[auditID] = append(memoryStore.standardLinks[auditID], records...)
	return records, nil
}

// InsertSession stores a session under an audit.
func (memoryStore *Store) InsertSession(executionContext context.Context, auditID string, fields store.SessionFields, order int, totalItems int) (store.SessionRecord, error) {
	memoryStore.mutex.Lock()
	defer memoryStore.mutex.Unlock()

	if failure := memoryStore.record(Operation{Name: OperationInsertSession, TargetID: auditID, Order: order, TotalItems: totalItems}); failure != nil {
		return store.SessionRecord{}, failure
	}
	if _, exists := memoryStore.audits[auditID]; !exists {
		return store.SessionRecord{}, fmt.Errorf(auditNotFoundTemplateConstant, auditID, store.ErrNotFound)
	}

	record := store.SessionRecord{ID: uuid.NewString(), AuditID: auditID, SessionFields: fields, Order: order, TotalItems: totalItems}
	memoryStore.sessions[record.ID] = record
	memoryStore.auditSessions[auditID] = append(memoryStore.auditSessions[auditID], record.ID)
	return record, nil
}

// InsertSessionItemLinks stores one link per question.
func (memoryStore *Store) InsertSessionItemLinks(executionContext context.Context, sessionID string, links []store.SessionItemLink) ([]store.SessionItemLinkRecord, error) {
	memoryStore.mutex.Lock()
	defer memoryStore.mutex.Unlock()

	orders := make([]int, 0, len(links))
	for _, link := range links {
		orders = append(orders, link.Order)
	}
	if failure := memoryStore.record(Operation{Name: OperationInsertSessionItemLinks, TargetID: sessionID, Count: len(links), Orders: orders}); failure != nil {
		return nil, failure
	}
	if _, exists := memoryStore.sessions[sessionID]; !exists {
		return nil, fmt.Errorf(sessionNotFoundTemplateConstant, sessionID, store.ErrNotFound)
	}

	records := make([]store.SessionItemLinkRecord, 0, len(links))
	for _, link := range links {
		records = append(records, store.SessionItemLinkRecord{ID: uuid.NewString(), SessionID: sessionID, ItemID: link.ItemID, Order: link.Order})
	}
	memoryStore.sessionItemLinks[sessionID] = append(memoryStore.sessionItemLinks[sessionID], records...)
	return records, nil
}

// UpdateAuditTotalItems overwrites the audit's derived total.
func (memoryStore *Store) UpdateAuditTotalItems(executionContext context.Context, auditID string, totalItems int) (store.AuditRecord, error) {
	memoryStore.mutex.Lock()
	defer memoryStore.mutex.Unlock()

	if failure := memoryStore.record(Operation{Name: OperationUpdateAuditTotalItems, TargetID: auditID, TotalItems: totalItems}); failure != nil {
		return store.AuditRecord{}, failure
	}
	record, exists := memoryStore.audits[auditID]
	if !exists {
		return store.AuditRecord{}, fmt.Errorf(auditNotFoundTemplateConstant, auditID, store.ErrNotFound)
	}
	record.TotalItems = totalItems
	memoryStore.audits[auditID] = record
	return record, nil
}

// DeleteSessionItemLinks removes every link of a session.
func (memoryStore *Store) DeleteSessionItemLinks(executionContext context.Context, sessionID string) error {
	memoryStore.mutex.Lock()
	defer memoryStore.mutex.Unlock()
	if failure := memoryStore.record(Operation{Name: OperationDeleteSessionItemLinks, TargetID: sessionID}); failure != nil {
		return failure
	}
	delete(memoryStore.sessionItemLinks, sessionID)
	return nil
}

// DeleteSession removes a session.
func (memoryStore *Store) DeleteSession(executionContext context.Context, sessionID string) error {
	memoryStore.mutex.Lock()
	defer memoryStore.mutex.Unlock()
	if failure := memoryStore.record(Operation{Name: OperationDeleteSession, TargetID: sessionID}); failure != nil {
		return failure
	}
	record, exists := memoryStore.sessions[sessionID]
	if !exists {
		return nil
	}
	delete(memoryStore.sessions, sessionID)
	remaining := make([]string, 0, len(memoryStore.auditSessions[record.AuditID]))
	for _, candidate := range memoryStore.auditSessions[record.AuditID] {
		if candidate != sessionID {
			remaining = append(remaining, candidate)
		}
	}
	memoryStore.auditSessions[record.AuditID] = remaining
	return nil
}

// DeleteStandardLinks removes every standard link of an audit.
func (memoryStore *Store) DeleteStandardLinks(executionContext context.Context, auditID string) error {
	memoryStore.mutex.Lock()
	defer memoryStore.mutex.Unlock()
	if failure := memoryStore.record(Operation{Name: OperationDeleteStandardLinks, TargetID: auditID}); failure != nil {
		return failure
	}
	delete(memoryStore.standardLinks, auditID)
	return nil
}

// DeleteAudit removes an audit root.
func (memoryStore *Store) DeleteAudit(executionContext context.Context, auditID string) error {
	memoryStore.mutex.Lock()
	defer memoryStore.mutex.Unlock()
	if failure := memoryStore.record(Operation{Name: OperationDeleteAudit, TargetID: auditID}); failure != nil {
		return failure
	}
	delete(memoryStore.audits, auditID)
	delete(memoryStore.auditSessions, auditID)
	remaining := make([]string, 0, len(memoryStore.auditOrder))
	for _, candidate := range memoryStore.auditOrder {
		if candidate != auditID {
			remaining = append(remaining, candidate)
		}
	}
	memoryStore.auditOrder = remaining
	return nil
}

// GetAudit returns an audit with its ordered standards and sessions.
func (memoryStore *Store) GetAudit(executionContext context.Context, auditID string) (store.AuditDetail, error) {
	memoryStore.mutex.Lock()
	defer memoryStore.mutex.Unlock()

	record, exists := memoryStore.audits[auditID]
	if !exists {
		return store.AuditDetail{}, fmt.Errorf(auditNotFoundTemplateConstant, auditID, store.ErrNotFound)
	}

	links := append([]store.StandardLinkRecord(nil), memoryStore.standardLinks[auditID]...)
	sort.SliceStable(links, func(left, right int) bool { return links[left].Order < links[right].Order })
	standardIDs := make([]string, 0, len(links))
	for _, link := range links {
		standardIDs = append(standardIDs, link.StandardID)
	}

	sessions := make([]store.SessionDetail, 0, len(memoryStore.auditSessions[auditID]))
	for _, sessionID := range memoryStore.auditSessions[auditID] {
		itemLinks := append([]store.SessionItemLinkRecord(nil), memoryStore.sessionItemLinks[sessionID]...)
		sort.SliceStable(itemLinks, func(left, right int) bool { return itemLinks[left].Order < itemLinks[right].Order })
		itemIDs := make([]string, 0, len(itemLinks))
		for _, itemLink := range itemLinks {
			itemIDs = append(itemIDs, itemLink.ItemID)
		}
		sessions = append(sessions, store.SessionDetail{SessionRecord: memoryStore.sessions[sessionID], ItemIDs: itemIDs})
	}
	sort.SliceStable(sessions, func(left, right int) bool { return sessions[left].Order < sessions[right].Order })

	return store.AuditDetail{Audit: record, StandardIDs: standardIDs, Sessions: sessions}, nil
}

// ListAudits lists an organization's audits in creation order.
func (memoryStore *Store) ListAudits(executionContext context.Context, organizationID string) ([]store.AuditRecord, error) {
	memoryStore.mutex.Lock()
	defer memoryStore.mutex.Unlock()

	records := make([]store.AuditRecord, 0, len(memoryStore.auditOrder))
	for _, auditID := range memoryStore.auditOrder {
		record := memoryStore.audits[auditID]
		if len(organizationID) > 0 && record.OrganizationID != organizationID {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// record appends the operation and returns the injected failure, if any. Callers hold the mutex.
func (memoryStore *Store) record(operation Operation) error {
	memoryStore.operations = append(memoryStore.operations, operation)
	memoryStore.calls[operation.Name]++
	rule, configured := memoryStore.failures[operation.Name]
	if configured && rule.occurrence == memoryStore.calls[operation.Name] {
		return rule.err
	}
	return nil
}

var _ store.Store = (*Store)(nil)
