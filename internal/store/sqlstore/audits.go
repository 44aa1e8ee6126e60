package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/store"
)

const (
	auditNotFoundTemplateConstant = "audit %s: %w"
	auditColumnsConstant          = `id, organization_id, title, description, category_id, template_id, target_entity, target_entity_type, start_date, end_date, lead_auditor_id, created_by, status, total_items, created_at_unixms`
)

// InsertAudit writes the audit root.
func (sqlStore *Store) InsertAudit(executionContext context.Context, fields store.AuditFields) (store.AuditRecord, error) {
	record := store.AuditRecord{
		ID:          uuid.NewString(),
		AuditFields: fields,
		CreatedAt:   sqlStore.now().UTC().Truncate(time.Millisecond),
	}
	_, execError := sqlStore.database.ExecContext(executionContext,
		`INSERT INTO audits (`+auditColumnsConstant+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, fields.OrganizationID, fields.Title, fields.Description, fields.CategoryID, fields.TemplateID,
		fields.TargetEntity, fields.TargetEntityType, fields.StartDate, fields.EndDate, fields.LeadAuditorID,
		fields.CreatedBy, fields.Status, record.TotalItems, record.CreatedAt.UnixMilli(),
	)
	if execError != nil {
		return store.AuditRecord{}, execError
	}
	return record, nil
}

// InsertStandardLinks writes every link of the call in one transaction.
func (sqlStore *Store) InsertStandardLinks(executionContext context.Context, auditID string, links []store.StandardLink) ([]store.StandardLinkRecord, error) {
	records := make([]store.StandardLinkRecord, 0, len(links))
	for _, link := range links {
		records = append(records, store.StandardLinkRecord{ID: uuid.NewString(), AuditID: auditID, StandardID: link.StandardID, Order: link.Order})
	}
	insertError := sqlStore.inTransaction(executionContext, func(transaction *sql.Tx) error {
		for _, record := range records {
			if _, execError := transaction.ExecContext(executionContext,
				`INSERT INTO audit_standards (id, audit_id, standard_id, display_order) VALUES (?, ?, ?, ?)`,
				record.ID, record.AuditID, record.StandardID, record.Order,
			); execError != nil {
				return execError
			}
		}
		return nil
	})
	if insertError != nil {
		return nil, insertError
	}
	return records, nil
}

// InsertSession writes one session row.
func (sqlStore *Store) InsertSession(executionContext context.Context, auditID string, fields store.SessionFields, order int, totalItems int) (store.SessionRecord, error) {
	record := store.SessionRecord{ID: uuid.NewString(), AuditID: auditID, SessionFields: fields, Order: order, TotalItems: totalItems}
	_, execError := sqlStore.database.ExecContext(executionContext,
		`INSERT INTO audit_sessions (id, audit_id, name, description, session_date, start_time, end_time, location, display_order, total_items) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, auditID, fields.Name, fields.Description, fields.Date, fields.StartTime, fields.EndTime, fields.Location, order, totalItems,
	)
	if execError != nil {
		return store.SessionRecord{}, execError
	}
	return record, nil
}

// InsertSessionItemLinks writes every link of the call in one transaction.
func (sqlStore *Store) InsertSessionItemLinks(executionContext context.Context, sessionID string, links []store.SessionItemLink) ([]store.SessionItemLinkRecord, error) {
	records := make([]store.SessionItemLinkRecord, 0, len(links))
	for _, link := range links {
		records = append(records, store.SessionItemLinkRecord{ID: uuid.NewString(), SessionID: sessionID, ItemID: link.ItemID, Order: link.Order})
	}
	insertError := sqlStore.inTransaction(executionContext, func(transaction *sql.Tx) error {
		for _, record := range records {
			if _, execError := transaction.ExecContext(executionContext,
				`INSERT INTO session_items (id, session_id, item_id, display_order) VALUES (?, ?, ?, ?)`,
				record.ID, record.SessionID, record.ItemID, record.Order,
			); execError != nil {
				return execError
			}
		}
		return nil
	})
	if insertError != nil {
		return nil, insertError
	}
	return records, nil
}

// UpdateAuditTotalItems overwrites the audit's derived total and returns the updated row.
func (sqlStore *Store) UpdateAuditTotalItems(executionContext context.Context, auditID string, totalItems int) (store.AuditRecord, error) {
	// MySQL reports zero affected rows for an unchanged value, so existence is checked by the re-read.
	if _, execError := sqlStore.database.ExecContext(executionContext, `UPDATE audits SET total_items = ? WHERE id = ?`, totalItems, auditID); execError != nil {
		return store.AuditRecord{}, execError
	}
	return sqlStore.loadAudit(executionContext, auditID)
}

// DeleteSessionItemLinks removes every link of a session.
func (sqlStore *Store) DeleteSessionItemLinks(executionContext context.Context, sessionID string) error {
	_, execError := sqlStore.database.ExecContext(executionContext, `DELETE FROM session_items WHERE session_id = ?`, sessionID)
	return execError
}

// DeleteSession removes a session row.
func (sqlStore *Store) DeleteSession(executionContext context.Context, sessionID string) error {
	_, execError := sqlStore.database.ExecContext(executionContext, `DELETE FROM audit_sessions WHERE id = ?`, sessionID)
	return execError
}

// DeleteStandardLinks removes every standard link of an audit.
func (sqlStore *Store) DeleteStandardLinks(executionContext context.Context, auditID string) error {
	_, execError := sqlStore.database.ExecContext(executionContext, `DELETE FROM audit_standards WHERE audit_id = ?`, auditID)
	return execError
}

// DeleteAudit removes an audit root.
func (sqlStore *Store) DeleteAudit(executionContext context.Context, auditID string) error {
	_, execError := sqlStore.database.ExecContext(executionContext, `DELETE FROM audits WHERE id = ?`, auditID)
	return execError
}

// GetAudit reads an audit with its ordered standards and sessions.
func (sqlStore *Store) GetAudit(executionContext context.Context, auditID string) (store.AuditDetail, error) {
	record, loadError := sqlStore.loadAudit(executionContext, auditID)
	if loadError != nil {
		return store.AuditDetail{}, loadError
	}

	standardIDs, standardsError := sqlStore.queryStrings(executionContext,
		`SELECT standard_id FROM audit_standards WHERE audit_id = ? ORDER BY display_order`, auditID)
	if standardsError != nil {
		return store.AuditDetail{}, standardsError
	}

	sessions, sessionsError := sqlStore.loadSessions(executionContext, auditID)
	if sessionsError != nil {
		return store.AuditDetail{}, sessionsError
	}
	for index := range sessions {
		itemIDs, itemsError := sqlStore.queryStrings(executionContext,
			`SELECT item_id FROM session_items WHERE session_id = ? ORDER BY display_order`, sessions[index].ID)
		if itemsError != nil {
			return store.AuditDetail{}, itemsError
		}
		sessions[index].ItemIDs = itemIDs
	}

	return store.AuditDetail{Audit: record, StandardIDs: standardIDs, Sessions: sessions}, nil
}

// ListAudits lists an organization's audits oldest first; an empty organization lists all.
func (sqlStore *Store) ListAudits(executionContext context.Context, organizationID string) ([]store.AuditRecord, error) {
	query := `SELECT ` + auditColumnsConstant + ` FROM audits ORDER BY created_at_unixms, id`
	arguments := []any{}
	if len(organizationID) > 0 {
		query = `SELECT ` + auditColumnsConstant + ` FROM audits WHERE organization_id = ? ORDER BY created_at_unixms, id`
		arguments = append(arguments, organizationID)
	}

	rows, queryError := sqlStore.database.QueryContext(executionContext, query, arguments...)
	if queryError != nil {
		return nil, queryError
	}
	defer rows.Close()

	records := []store.AuditRecord{}
	for rows.Next() {
		record, scanError := scanAudit(rows)
		if scanError != nil {
			return nil, scanError
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(destinations ...any) error
}

func scanAudit(scanner rowScanner) (store.AuditRecord, error) {
	var record store.AuditRecord
	var createdAtMilliseconds int64
	scanError := scanner.Scan(
		&record.ID, &record.OrganizationID, &record.Title, &record.Description, &record.CategoryID, &record.TemplateID,
		&record.TargetEntity, &record.TargetEntityType, &record.StartDate, &record.EndDate, &record.LeadAuditorID,
		&record.CreatedBy, &record.Status, &record.TotalItems, &createdAtMilliseconds,
	)
	if scanError != nil {
		return store.AuditRecord{}, scanError
	}
	record.CreatedAt = time.UnixMilli(createdAtMilliseconds).UTC()
	return record, nil
}

func (sqlStore *Store) loadAudit(executionContext context.Context, auditID string) (store.AuditRecord, error) {
	row := sqlStore.database.QueryRowContext(executionContext, `SELECT `+auditColumnsConstant+` FROM audits WHERE id = ?`, auditID)
	record, scanError := scanAudit(row)
	if errors.Is(scanError, sql.ErrNoRows) {
		return store.AuditRecord{}, fmt.Errorf(auditNotFoundTemplateConstant, auditID, store.ErrNotFound)
	}
	return record, scanError
}

func (sqlStore *Store) loadSessions(executionContext context.Context, auditID string) ([]store.SessionDetail, error) {
	rows, queryError := sqlStore.database.QueryContext(executionContext,
		`SELECT id, audit_id, name, description, session_date, start_time, end_time, location, display_order, total_items FROM audit_sessions WHERE audit_id = ? ORDER BY display_order`,
		auditID,
	)
	if queryError != nil {
		return nil, queryError
	}
	defer rows.Close()

	sessions := []store.SessionDetail{}
	for rows.Next() {
		var session store.SessionDetail
		if scanError := rows.Scan(
			&session.ID, &session.AuditID, &session.Name, &session.Description, &session.Date,
			&session.StartTime, &session.EndTime, &session.Location, &session.Order, &session.TotalItems,
		); scanError != nil {
			return nil, scanError
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func (sqlStore *Store) queryStrings(executionContext context.Context, query string, arguments ...any) ([]string, error) {
	rows, queryError := sqlStore.database.QueryContext(executionContext, query, arguments...)
	if queryError != nil {
		return nil, queryError
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var value string
		if scanError := rows.Scan(&value); scanError != nil {
			return nil, scanError
		}
		values = append(values, value)
	}
	return values, rows.Err()
}

func (sqlStore *Store) inTransaction(executionContext context.Context, operation func(transaction *sql.Tx) error) error {
	transaction, beginError := sqlStore.database.BeginTx(executionContext, nil)
	if beginError != nil {
		return beginError
	}
	if operationError := operation(transaction); operationError != nil {
		_ = transaction.Rollback()
		return operationError
	}
	return transaction.Commit()
}
