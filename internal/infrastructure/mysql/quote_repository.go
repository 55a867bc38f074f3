package mysql

import (
	"context"
	"database/sql"
	"encoding/json"

	"sourcing-system/internal/domain"
)

type MySQLQuoteRepository struct {
	db *sql.DB
}

func NewMySQLQuoteRepository(db *sql.DB) *MySQLQuoteRepository {
	return &MySQLQuoteRepository{db: db}
}

func (r *MySQLQuoteRepository) CreateQuote(ctx context.Context, quote *domain.Quote) error {
	doc, err := json.Marshal(quote)
	if err != nil {
		return err
	}

	query := `
        INSERT INTO quotes (id, rfq_id, vendor_id, created_by, status, doc, version, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)
    `
	_, err = r.db.ExecContext(ctx, query,
		quote.ID, quote.RfqID, quote.VendorID, quote.CreatedBy,
		string(quote.Status), doc, quote.CreatedAt, quote.UpdatedAt)
	if err != nil {
		return err
	}
	quote.Version = 1
	return nil
}

func (r *MySQLQuoteRepository) GetQuote(ctx context.Context, quoteID string) (*domain.Quote, error) {
	query := `SELECT doc, version FROM quotes WHERE id = ?`

	var doc []byte
	var version int64

	err := r.db.QueryRowContext(ctx, query, quoteID).Scan(&doc, &version)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var quote domain.Quote
	if err := json.Unmarshal(doc, &quote); err != nil {
		return nil, err
	}
	quote.Version = version
	return &quote, nil
}

func (r *MySQLQuoteRepository) FindQuotes(ctx context.Context, filter domain.QuoteFilter, page domain.Page) ([]*domain.Quote, int, error) {
	where := "1=1"
	var args []interface{}

	if filter.RfqID != "" {
		where += " AND rfq_id = ?"
		args = append(args, filter.RfqID)
	}
	if filter.VendorID != "" {
		where += " AND vendor_id = ?"
		args = append(args, filter.VendorID)
	}
	if filter.CreatedBy != "" {
		where += " AND created_by = ?"
		args = append(args, filter.CreatedBy)
	}
	if filter.Status != "" {
		where += " AND status = ?"
		args = append(args, string(filter.Status))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM quotes WHERE "+where, args...).Scan(&total); err != nil {
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

	query := "SELECT doc, version FROM quotes WHERE " + where + " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	quotes, err := scanQuoteRows(rows)
	if err != nil {
		return nil, 0, err
	}
	return quotes, total, nil
}

func (r *MySQLQuoteRepository) FindQuotesByRfq(ctx context.Context, rfqID string) ([]*domain.Quote, error) {
	query := `SELECT doc, version FROM quotes WHERE rfq_id = ? ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, rfqID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanQuoteRows(rows)
}

// FindActiveQuote returns the vendor's live quote for an RFQ, if any.
// Rejected and expired quotes don't count against the one-active-quote rule.
func (r *MySQLQuoteRepository) FindActiveQuote(ctx context.Context, rfqID, vendorID string) (*domain.Quote, error) {
	query := `
        SELECT doc, version FROM quotes
        WHERE rfq_id = ? AND vendor_id = ? AND status NOT IN (?, ?)
        LIMIT 1
    `

	var doc []byte
	var version int64

	err := r.db.QueryRowContext(ctx, query, rfqID, vendorID,
		string(domain.QuoteRejected), string(domain.QuoteExpired)).Scan(&doc, &version)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var quote domain.Quote
	if err := json.Unmarshal(doc, &quote); err != nil {
		return nil, err
	}
	quote.Version = version
	return &quote, nil
}

func (r *MySQLQuoteRepository) UpdateQuote(ctx context.Context, quote *domain.Quote) error {
	doc, err := json.Marshal(quote)
	if err != nil {
		return err
	}

	query := `
        UPDATE quotes
        SET status = ?, doc = ?, version = version + 1, updated_at = ?
        WHERE id = ? AND version = ?
    `
	result, err := r.db.ExecContext(ctx, query,
		string(quote.Status), doc, quote.UpdatedAt, quote.ID, quote.Version)
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
	quote.Version++
	return nil
}

func (r *MySQLQuoteRepository) DeleteQuote(ctx context.Context, quoteID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM quotes WHERE id = ?`, quoteID)
	return err
}

func scanQuoteRows(rows *sql.Rows) ([]*domain.Quote, error) {
	var quotes []*domain.Quote
	for rows.Next() {
		var doc []byte
		var version int64
		if err := rows.Scan(&doc, &version); err != nil {
			return nil, err
		}

		var quote domain.Quote
		if err := json.Unmarshal(doc, &quote); err != nil {
			return nil, err
		}
		quote.Version = version
		quotes = append(quotes, &quote)
	}
	return quotes, rows.Err()
}
