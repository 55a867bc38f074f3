package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"sourcing-system/internal/domain"
)

const defaultPageLimit = 20
const maxPageLimit = 100

// MySQLRfqRepository stores RFQs as whole JSON documents with a version
// column checked on every save. Filterable fields are mirrored into columns.
type MySQLRfqRepository struct {
	db *sql.DB
}

func NewMySQLRfqRepository(db *sql.DB) *MySQLRfqRepository {
	return &MySQLRfqRepository{db: db}
}

func (r *MySQLRfqRepository) CreateRfq(ctx context.Context, rfq *domain.Rfq) error {
	doc, err := json.Marshal(rfq)
	if err != nil {
		return err
	}

	query := `
        INSERT INTO rfqs (id, buyer_id, status, expiry_date, doc, version, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, 1, ?, ?)
    `
	_, err = r.db.ExecContext(ctx, query,
		rfq.ID, rfq.BuyerID, string(rfq.Status), rfq.ExpiryDate,
		doc, rfq.CreatedAt, rfq.UpdatedAt)
	if err != nil {
		return err
	}
	rfq.Version = 1
	return nil
}

func (r *MySQLRfqRepository) GetRfq(ctx context.Context, rfqID string) (*domain.Rfq, error) {
	query := `SELECT doc, version FROM rfqs WHERE id = ?`

	var doc []byte
	var version int64

	err := r.db.QueryRowContext(ctx, query, rfqID).Scan(&doc, &version)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rfq domain.Rfq
	if err := json.Unmarshal(doc, &rfq); err != nil {
		return nil, err
	}
	rfq.Version = version
	return &rfq, nil
}

func (r *MySQLRfqRepository) FindRfqs(ctx context.Context, filter domain.RfqFilter, page domain.Page) ([]*domain.Rfq, int, error) {
	where := "1=1"
	var args []interface{}

	if filter.BuyerID != "" {
		where += " AND buyer_id = ?"
		args = append(args, filter.BuyerID)
	}
	if filter.Status != "" {
		where += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	if filter.InvitedVendorID != "" {
		where += " AND JSON_CONTAINS(doc->'$.invited_vendors', JSON_OBJECT('vendor_id', ?))"
		args = append(args, filter.InvitedVendorID)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM rfqs WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := page.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	offset := page.Offset
	if offset < 0 {
		offset = 0
	}

	query := "SELECT doc, version FROM rfqs WHERE " + where + " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	rfqs, err := scanRfqRows(rows)
	if err != nil {
		return nil, 0, err
	}
	return rfqs, total, nil
}

func (r *MySQLRfqRepository) UpdateRfq(ctx context.Context, rfq *domain.Rfq) error {
	doc, err := json.Marshal(rfq)
	if err != nil {
		return err
	}

	query := `
        UPDATE rfqs
        SET buyer_id = ?, status = ?, expiry_date = ?, doc = ?, version = version + 1, updated_at = ?
        WHERE id = ? AND version = ?
    `
	result, err := r.db.ExecContext(ctx, query,
		rfq.BuyerID, string(rfq.Status), rfq.ExpiryDate, doc, rfq.UpdatedAt,
		rfq.ID, rfq.Version)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrVersionConflict
	}
	rfq.Version++
	return nil
}

func (r *MySQLRfqRepository) DeleteRfq(ctx context.Context, rfqID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM rfqs WHERE id = ?`, rfqID)
	return err
}

func (r *MySQLRfqRepository) FindExpiredPublished(ctx context.Context, before time.Time) ([]*domain.Rfq, error) {
	query := `SELECT doc, version FROM rfqs WHERE status = ? AND expiry_date <= ?`

	rows, err := r.db.QueryContext(ctx, query, string(domain.RfqPublished), before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRfqRows(rows)
}

func scanRfqRows(rows *sql.Rows) ([]*domain.Rfq, error) {
	var rfqs []*domain.Rfq
	for rows.Next() {
		var doc []byte
		var version int64
		if err := rows.Scan(&doc, &version); err != nil {
			return nil, err
		}

		var rfq domain.Rfq
		if err := json.Unmarshal(doc, &rfq); err != nil {
			return nil, err
		}
		rfq.Version = version
		rfqs = append(rfqs, &rfq)
	}
	return rfqs, rows.Err()
}
