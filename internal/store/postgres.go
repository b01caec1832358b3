package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/nikhilbhutani/bodyshop/internal/models"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgUndefinedTable      = "42P01"
)

// Postgres implements Store on a pgx pool. The database is the data
// platform's Postgres instance.
type Postgres struct {
	db *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// mapError turns driver errors into the package's sentinel errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", ErrUniqueViolation, pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s", ErrInvalidReference, pgErr.ConstraintName)
		}
	}
	return err
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable
}

// Documents

const documentColumns = `id, document_number, kind, status, original_document_id, converted_from_id, quote_request_id,
	customer_name, customer_phone, car_model, vehicle_reg_number, repair_description, total_amount::text,
	document_date, due_date, notes, created_at, updated_at`

func scanDocument(row rowScanner) (*models.Document, error) {
	var d models.Document
	var kind, total string
	err := row.Scan(&d.ID, &d.DocumentNumber, &kind, &d.Status, &d.OriginalDocumentID, &d.ConvertedFromID, &d.QuoteRequestID,
		&d.CustomerName, &d.CustomerPhone, &d.CarModel, &d.VehicleRegNumber, &d.RepairDescription, &total,
		&d.DocumentDate, &d.DueDate, &d.Notes, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.Kind = models.DocumentKind(kind)
	d.TotalAmount, err = decimal.NewFromString(total)
	if err != nil {
		return nil, fmt.Errorf("parse total_amount %q: %w", total, err)
	}
	return &d, nil
}

func collectDocuments(rows pgx.Rows) ([]models.Document, error) {
	defer rows.Close()
	var docs []models.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

func (p *Postgres) LatestByKind(ctx context.Context, kind models.DocumentKind) (*models.Document, error) {
	d, err := scanDocument(p.db.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE kind = $1 ORDER BY created_at DESC LIMIT 1`,
		string(kind),
	))
	if err != nil {
		return nil, fmt.Errorf("latest %s: %w", kind, mapError(err))
	}
	return d, nil
}

func (p *Postgres) GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	d, err := scanDocument(p.db.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1`, id,
	))
	if err != nil {
		return nil, fmt.Errorf("get document: %w", mapError(err))
	}
	return d, nil
}

func (p *Postgres) FindByOriginalAndKind(ctx context.Context, originalID uuid.UUID, kind models.DocumentKind) ([]models.Document, error) {
	rows, err := p.db.Query(ctx,
		`SELECT `+documentColumns+` FROM documents
		 WHERE (original_document_id = $1 OR id = $1) AND kind = $2
		 ORDER BY created_at ASC`,
		originalID, string(kind),
	)
	if err != nil {
		return nil, fmt.Errorf("find chain documents: %w", err)
	}
	return collectDocuments(rows)
}

func (p *Postgres) ListDocuments(ctx context.Context, f DocumentFilter) ([]models.Document, error) {
	query, args := listDocumentsQuery(f)
	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return collectDocuments(rows)
}

func listDocumentsQuery(f DocumentFilter) (string, []any) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE 1=1`
	var args []any
	argIdx := 1

	if f.Kind != "" {
		query += fmt.Sprintf(" AND kind = $%d", argIdx)
		args = append(args, string(f.Kind))
		argIdx++
	}
	if f.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, f.Status)
		argIdx++
	}
	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, f.Limit)
		argIdx++
	}
	if f.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, f.Offset)
	}
	return query, args
}

func (p *Postgres) InsertDocument(ctx context.Context, d models.Document) (*models.Document, error) {
	out, err := scanDocument(p.db.QueryRow(ctx,
		`INSERT INTO documents (document_number, kind, status, original_document_id, converted_from_id, quote_request_id,
			customer_name, customer_phone, car_model, vehicle_reg_number, repair_description, total_amount,
			document_date, due_date, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12::numeric, $13, $14, $15)
		 RETURNING `+documentColumns,
		d.DocumentNumber, string(d.Kind), d.Status, d.OriginalDocumentID, d.ConvertedFromID, d.QuoteRequestID,
		d.CustomerName, d.CustomerPhone, d.CarModel, d.VehicleRegNumber, d.RepairDescription, d.TotalAmount.String(),
		d.DocumentDate, d.DueDate, d.Notes,
	))
	if err != nil {
		return nil, fmt.Errorf("insert document: %w", mapError(err))
	}
	return out, nil
}

func (p *Postgres) UpdateDocument(ctx context.Context, d models.Document) (*models.Document, error) {
	out, err := scanDocument(p.db.QueryRow(ctx,
		`UPDATE documents SET status = $2, customer_name = $3, customer_phone = $4, car_model = $5,
			vehicle_reg_number = $6, repair_description = $7, total_amount = $8::numeric, document_date = $9,
			due_date = $10, notes = $11, quote_request_id = $12, updated_at = now()
		 WHERE id = $1
		 RETURNING `+documentColumns,
		d.ID, d.Status, d.CustomerName, d.CustomerPhone, d.CarModel,
		d.VehicleRegNumber, d.RepairDescription, d.TotalAmount.String(), d.DocumentDate,
		d.DueDate, d.Notes, d.QuoteRequestID,
	))
	if err != nil {
		return nil, fmt.Errorf("update document: %w", mapError(err))
	}
	return out, nil
}

func (p *Postgres) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	tag, err := p.db.Exec(ctx, "DELETE FROM documents WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete document: %w", ErrNotFound)
	}
	return nil
}

// Line items

// listLineItemsSQL orders by seq, which follows insertion order even when a
// batch shares one created_at.
const listLineItemsSQL = `SELECT id, document_id, repair_type, description, amount::text, created_at
	FROM line_items WHERE document_id = $1 ORDER BY seq ASC`

func (p *Postgres) ListLineItems(ctx context.Context, documentID uuid.UUID) ([]models.LineItem, error) {
	rows, err := p.db.Query(ctx, listLineItemsSQL, documentID)
	if err != nil {
		if isUndefinedTable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list line items: %w", err)
	}
	defer rows.Close()

	var items []models.LineItem
	for rows.Next() {
		var it models.LineItem
		var amount string
		if err := rows.Scan(&it.ID, &it.DocumentID, &it.RepairType, &it.Description, &amount, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan line item: %w", err)
		}
		it.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse amount %q: %w", amount, err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func insertLineItems(ctx context.Context, q execer, items []models.LineItem) error {
	for _, it := range items {
		_, err := q.Exec(ctx,
			`INSERT INTO line_items (document_id, repair_type, description, amount)
			 VALUES ($1, $2, $3, $4::numeric)`,
			it.DocumentID, it.RepairType, it.Description, it.Amount.String(),
		)
		if err != nil {
			return fmt.Errorf("insert line item: %w", mapError(err))
		}
	}
	return nil
}

func (p *Postgres) InsertLineItems(ctx context.Context, items []models.LineItem) error {
	if len(items) == 0 {
		return nil
	}
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := insertLineItems(ctx, tx, items); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (p *Postgres) ReplaceLineItems(ctx context.Context, documentID uuid.UUID, items []models.LineItem) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM line_items WHERE document_id = $1", documentID); err != nil {
		return fmt.Errorf("delete line items: %w", err)
	}
	for i := range items {
		items[i].DocumentID = documentID
	}
	if err := insertLineItems(ctx, tx, items); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Quote requests

const quoteRequestColumns = `id, name, phone, car_model, damage_description, images, status, created_at, updated_at`

func scanQuoteRequest(row rowScanner) (*models.QuoteRequest, error) {
	var q models.QuoteRequest
	if err := row.Scan(&q.ID, &q.Name, &q.Phone, &q.CarModel, &q.DamageDescription, &q.Images, &q.Status, &q.CreatedAt, &q.UpdatedAt); err != nil {
		return nil, err
	}
	return &q, nil
}

func (p *Postgres) InsertQuoteRequest(ctx context.Context, q models.QuoteRequest) (*models.QuoteRequest, error) {
	if q.Images == nil {
		q.Images = []string{}
	}
	out, err := scanQuoteRequest(p.db.QueryRow(ctx,
		`INSERT INTO quote_requests (name, phone, car_model, damage_description, images, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+quoteRequestColumns,
		q.Name, q.Phone, q.CarModel, q.DamageDescription, q.Images, q.Status,
	))
	if err != nil {
		return nil, fmt.Errorf("insert quote request: %w", mapError(err))
	}
	return out, nil
}

func (p *Postgres) ListQuoteRequests(ctx context.Context) ([]models.QuoteRequest, error) {
	rows, err := p.db.Query(ctx, `SELECT `+quoteRequestColumns+` FROM quote_requests ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list quote requests: %w", err)
	}
	defer rows.Close()

	var out []models.QuoteRequest
	for rows.Next() {
		q, err := scanQuoteRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quote request: %w", err)
		}
		out = append(out, *q)
	}
	return out, rows.Err()
}

func (p *Postgres) UpdateQuoteRequestStatus(ctx context.Context, id uuid.UUID, status string) (*models.QuoteRequest, error) {
	out, err := scanQuoteRequest(p.db.QueryRow(ctx,
		`UPDATE quote_requests SET status = $2, updated_at = now() WHERE id = $1 RETURNING `+quoteRequestColumns,
		id, status,
	))
	if err != nil {
		return nil, fmt.Errorf("update quote request: %w", mapError(err))
	}
	return out, nil
}

// Gallery

const galleryColumns = `id, title, description, before_image_url, after_image_url, display_order, is_active, created_at, updated_at`

func scanGalleryItem(row rowScanner) (*models.GalleryItem, error) {
	var g models.GalleryItem
	if err := row.Scan(&g.ID, &g.Title, &g.Description, &g.BeforeImageURL, &g.AfterImageURL, &g.DisplayOrder, &g.IsActive, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, err
	}
	return &g, nil
}

func (p *Postgres) ListGalleryItems(ctx context.Context, activeOnly bool) ([]models.GalleryItem, error) {
	query := `SELECT ` + galleryColumns + ` FROM gallery_items`
	if activeOnly {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY display_order ASC, created_at DESC`

	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list gallery items: %w", err)
	}
	defer rows.Close()

	var out []models.GalleryItem
	for rows.Next() {
		g, err := scanGalleryItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan gallery item: %w", err)
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

func (p *Postgres) GetGalleryItem(ctx context.Context, id uuid.UUID) (*models.GalleryItem, error) {
	g, err := scanGalleryItem(p.db.QueryRow(ctx, `SELECT `+galleryColumns+` FROM gallery_items WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get gallery item: %w", mapError(err))
	}
	return g, nil
}

func (p *Postgres) InsertGalleryItem(ctx context.Context, g models.GalleryItem) (*models.GalleryItem, error) {
	out, err := scanGalleryItem(p.db.QueryRow(ctx,
		`INSERT INTO gallery_items (title, description, before_image_url, after_image_url, display_order, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+galleryColumns,
		g.Title, g.Description, g.BeforeImageURL, g.AfterImageURL, g.DisplayOrder, g.IsActive,
	))
	if err != nil {
		return nil, fmt.Errorf("insert gallery item: %w", mapError(err))
	}
	return out, nil
}

func (p *Postgres) UpdateGalleryItem(ctx context.Context, g models.GalleryItem) (*models.GalleryItem, error) {
	out, err := scanGalleryItem(p.db.QueryRow(ctx,
		`UPDATE gallery_items SET title = $2, description = $3, before_image_url = $4, after_image_url = $5,
			display_order = $6, is_active = $7, updated_at = now()
		 WHERE id = $1
		 RETURNING `+galleryColumns,
		g.ID, g.Title, g.Description, g.BeforeImageURL, g.AfterImageURL, g.DisplayOrder, g.IsActive,
	))
	if err != nil {
		return nil, fmt.Errorf("update gallery item: %w", mapError(err))
	}
	return out, nil
}

func (p *Postgres) DeleteGalleryItem(ctx context.Context, id uuid.UUID) error {
	tag, err := p.db.Exec(ctx, "DELETE FROM gallery_items WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete gallery item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete gallery item: %w", ErrNotFound)
	}
	return nil
}

// Admins

func (p *Postgres) GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	var a models.Admin
	err := p.db.QueryRow(ctx,
		"SELECT id, email, password_hash, name, created_at FROM admins WHERE lower(email) = lower($1)", email,
	).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Name, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get admin: %w", mapError(err))
	}
	return &a, nil
}

// Audit

func (p *Postgres) InsertAuditLog(ctx context.Context, e models.AuditLog) error {
	details := e.Details
	if details == nil {
		details = []byte("{}")
	}
	_, err := p.db.Exec(ctx,
		`INSERT INTO audit_logs (admin_id, action, resource_type, resource_id, details)
		 VALUES ($1, $2, $3, $4, $5)`,
		e.AdminID, e.Action, e.ResourceType, e.ResourceID, details,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

func (p *Postgres) ListAuditLogs(ctx context.Context, f AuditFilter) ([]models.AuditLog, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}

	query := `SELECT id, admin_id, action, resource_type, resource_id, details, created_at FROM audit_logs WHERE 1=1`
	var args []any
	argIdx := 1

	if f.Action != "" {
		query += fmt.Sprintf(" AND action = $%d", argIdx)
		args = append(args, f.Action)
		argIdx++
	}
	if f.ResourceID != nil {
		query += fmt.Sprintf(" AND resource_id = $%d", argIdx)
		args = append(args, *f.ResourceID)
		argIdx++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit logs: %w", err)
	}
	defer rows.Close()

	var logs []models.AuditLog
	for rows.Next() {
		var l models.AuditLog
		if err := rows.Scan(&l.ID, &l.AdminID, &l.Action, &l.ResourceType, &l.ResourceID, &l.Details, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
