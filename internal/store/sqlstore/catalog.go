package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/catalog"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/store"
)

const (
	importErrorTemplateConstant           = "unable to import catalog seed: %w"
	standardItemsNotFoundTemplateConstant = "standard %s: %w"
	rootParentIDConstant                  = ""
)

// ImportSeed upserts the seed's standards, categories, templates, and users in one transaction.
func (sqlStore *Store) ImportSeed(executionContext context.Context, seed catalog.Seed) (importError error) {
	transaction, beginError := sqlStore.database.BeginTx(executionContext, nil)
	if beginError != nil {
		return fmt.Errorf(importErrorTemplateConstant, beginError)
	}
	defer func() {
		if importError != nil {
			_ = transaction.Rollback()
			importError = fmt.Errorf(importErrorTemplateConstant, importError)
		}
	}()

	for position, seedStandard := range seed.Standards {
		if _, execError := transaction.ExecContext(executionContext, `DELETE FROM standard_items WHERE standard_id = ?`, seedStandard.ID); execError != nil {
			return execError
		}
		if _, execError := transaction.ExecContext(executionContext, `DELETE FROM standards WHERE id = ?`, seedStandard.ID); execError != nil {
			return execError
		}
		if _, execError := transaction.ExecContext(executionContext,
			`INSERT INTO standards (id, code, name, version, sort_index) VALUES (?, ?, ?, ?, ?)`,
			seedStandard.ID, seedStandard.Code, seedStandard.Name, seedStandard.Version, position,
		); execError != nil {
			return execError
		}
		itemPosition := 0
		if insertError := insertItems(executionContext, transaction, seedStandard.ID, rootParentIDConstant, seedStandard.Items, &itemPosition); insertError != nil {
			return insertError
		}
	}

	for _, category := range seed.Categories {
		if _, execError := transaction.ExecContext(executionContext, `DELETE FROM categories WHERE id = ?`, category.ID); execError != nil {
			return execError
		}
		if _, execError := transaction.ExecContext(executionContext, `INSERT INTO categories (id, title) VALUES (?, ?)`, category.ID, category.Title); execError != nil {
			return execError
		}
	}

	for _, template := range seed.Templates {
		if _, execError := transaction.ExecContext(executionContext, `DELETE FROM templates WHERE id = ?`, template.ID); execError != nil {
			return execError
		}
		if _, execError := transaction.ExecContext(executionContext,
			`INSERT INTO templates (id, name, category_id) VALUES (?, ?, ?)`,
			template.ID, template.Name, template.CategoryID,
		); execError != nil {
			return execError
		}
	}

	for _, user := range seed.Users {
		if _, execError := transaction.ExecContext(executionContext, `DELETE FROM users WHERE id = ?`, user.ID); execError != nil {
			return execError
		}
		if _, execError := transaction.ExecContext(executionContext, `INSERT INTO users (id, organization_id) VALUES (?, ?)`, user.ID, user.OrganizationID); execError != nil {
			return execError
		}
	}

	return transaction.Commit()
}

func insertItems(executionContext context.Context, transaction *sql.Tx, standardID string, parentID string, items []catalog.StandardItem, position *int) error {
	for _, item := range items {
		if _, execError := transaction.ExecContext(executionContext,
			`INSERT INTO standard_items (id, standard_id, parent_id, item_number, title, field_type, sort_index) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			item.ID, standardID, parentID, item.ItemNumber, item.Title, string(item.FieldType), *position,
		); execError != nil {
			return execError
		}
		*position++
		if childError := insertItems(executionContext, transaction, standardID, item.ID, item.Children, position); childError != nil {
			return childError
		}
	}
	return nil
}

// FetchStandards lists standards in import order.
func (sqlStore *Store) FetchStandards(executionContext context.Context) ([]catalog.Standard, error) {
	rows, queryError := sqlStore.database.QueryContext(executionContext, `SELECT id, code, name, version FROM standards ORDER BY sort_index, id`)
	if queryError != nil {
		return nil, queryError
	}
	defer rows.Close()

	standards := []catalog.Standard{}
	for rows.Next() {
		var standard catalog.Standard
		if scanError := rows.Scan(&standard.ID, &standard.Code, &standard.Name, &standard.Version); scanError != nil {
			return nil, scanError
		}
		standards = append(standards, standard)
	}
	return standards, rows.Err()
}

type itemRow struct {
	item     catalog.StandardItem
	parentID string
}

// FetchStandardItems rebuilds the standard's tree from its flattened rows.
func (sqlStore *Store) FetchStandardItems(executionContext context.Context, standardID string) ([]catalog.StandardItem, error) {
	var exists int
	existsError := sqlStore.database.QueryRowContext(executionContext, `SELECT 1 FROM standards WHERE id = ?`, standardID).Scan(&exists)
	if errors.Is(existsError, sql.ErrNoRows) {
		return nil, fmt.Errorf(standardItemsNotFoundTemplateConstant, standardID, store.ErrNotFound)
	}
	if existsError != nil {
		return nil, existsError
	}

	rows, queryError := sqlStore.database.QueryContext(executionContext,
		`SELECT id, parent_id, item_number, title, field_type FROM standard_items WHERE standard_id = ? ORDER BY sort_index`,
		standardID,
	)
	if queryError != nil {
		return nil, queryError
	}
	defer rows.Close()

	childrenByParent := make(map[string][]itemRow)
	for rows.Next() {
		var row itemRow
		var fieldType string
		if scanError := rows.Scan(&row.item.ID, &row.parentID, &row.item.ItemNumber, &row.item.Title, &fieldType); scanError != nil {
			return nil, scanError
		}
		row.item.StandardID = standardID
		row.item.FieldType = catalog.FieldType(fieldType)
		childrenByParent[row.parentID] = append(childrenByParent[row.parentID], row)
	}
	if rowsError := rows.Err(); rowsError != nil {
		return nil, rowsError
	}

	return buildTree(childrenByParent, rootParentIDConstant), nil
}

func buildTree(childrenByParent map[string][]itemRow, parentID string) []catalog.StandardItem {
	rows := childrenByParent[parentID]
	if len(rows) == 0 {
		if parentID == rootParentIDConstant {
			return []catalog.StandardItem{}
		}
		return nil
	}
	items := make([]catalog.StandardItem, 0, len(rows))
	for _, row := range rows {
		item := row.item
		item.Children = buildTree(childrenByParent, item.ID)
		items = append(items, item)
	}
	return items
}

// FetchCategories lists categories by id.
func (sqlStore *Store) FetchCategories(executionContext context.Context) ([]catalog.Category, error) {
	rows, queryError := sqlStore.database.QueryContext(executionContext, `SELECT id, title FROM categories ORDER BY id`)
	if queryError != nil {
		return nil, queryError
	}
	defer rows.Close()

	categories := []catalog.Category{}
	for rows.Next() {
		var category catalog.Category
		if scanError := rows.Scan(&category.ID, &category.Title); scanError != nil {
			return nil, scanError
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

// FetchTemplates lists templates by id.
func (sqlStore *Store) FetchTemplates(executionContext context.Context) ([]catalog.Template, error) {
	rows, queryError := sqlStore.database.QueryContext(executionContext, `SELECT id, name, category_id FROM templates ORDER BY id`)
	if queryError != nil {
		return nil, queryError
	}
	defer rows.Close()

	templates := []catalog.Template{}
	for rows.Next() {
		var template catalog.Template
		if scanError := rows.Scan(&template.ID, &template.Name, &template.CategoryID); scanError != nil {
			return nil, scanError
		}
		templates = append(templates, template)
	}
	return templates, rows.Err()
}

// ResolveCurrentUserOrganization looks the acting user up in the users table.
func (sqlStore *Store) ResolveCurrentUserOrganization(executionContext context.Context) (string, error) {
	userID, available := store.ActingUserID(executionContext)
	if !available {
		return "", store.ErrUnauthenticated
	}
	var organizationID string
	queryError := sqlStore.database.QueryRowContext(executionContext, `SELECT organization_id FROM users WHERE id = ?`, userID).Scan(&organizationID)
	if errors.Is(queryError, sql.ErrNoRows) || (queryError == nil && len(organizationID) == 0) {
		return "", store.ErrOrganizationNotFound
	}
	if queryError != nil {
		return "", queryError
	}
	return organizationID, nil
}
