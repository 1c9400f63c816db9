package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/travellanka/listings-backend/internal/models"
)

// ListingRepository stores listings in PostgreSQL, one table per variant.
// The full document lives in a JSONB column; status, owner and search
// area are mirrored into columns for filtering.
type ListingRepository struct {
	db DB
}

// NewListingRepository creates a new PostgreSQL listing repository
func NewListingRepository(db DB) *ListingRepository {
	return &ListingRepository{
		db: db,
	}
}

type listingRow struct {
	ID       string `db:"id"`
	Document []byte `db:"document"`
	Version  int64  `db:"version"`
}

func decodeListing(t models.BusinessType, row listingRow) (models.BusinessListing, error) {
	listing, err := models.NewListing(t)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(row.Document, listing); err != nil {
		return nil, fmt.Errorf("failed to decode %s document %s: %w", t, row.ID, err)
	}
	base := listing.Base()
	base.ID = row.ID
	base.Version = row.Version
	return listing, nil
}

// Create inserts a new listing at version 1
func (r *ListingRepository) Create(ctx context.Context, listing models.BusinessListing) error {
	base := listing.Base()
	if base.ID == "" {
		base.ID = uuid.NewString()
	}
	now := time.Now()
	base.CreatedAt = now
	base.UpdatedAt = now
	base.Version = 1

	doc, err := json.Marshal(listing)
	if err != nil {
		return fmt.Errorf("failed to encode listing: %w", err)
	}
	cities, districts := areaValues(listing)

	query := fmt.Sprintf(`
		INSERT INTO %s (
			id, owner_id, name, status, is_setup_complete, cities, districts,
			document, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, collectionName(listing.Type()))

	_, err = r.db.ExecContext(ctx, query,
		base.ID,
		base.Owner,
		base.Name,
		base.Status,
		base.IsSetupComplete,
		pq.Array(cities),
		pq.Array(districts),
		doc,
		base.Version,
		base.CreatedAt,
		base.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrListingExists
		}
		return fmt.Errorf("failed to create %s listing: %w", listing.Type(), err)
	}

	return nil
}

// GetByID retrieves a listing by ID
func (r *ListingRepository) GetByID(ctx context.Context, t models.BusinessType, id string) (models.BusinessListing, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	query := fmt.Sprintf(`SELECT id, document, version FROM %s WHERE id = $1`, collectionName(t))
	return r.getOne(ctx, t, query, id)
}

// GetByOwner retrieves the single listing owned by an account
func (r *ListingRepository) GetByOwner(ctx context.Context, t models.BusinessType, ownerID string) (models.BusinessListing, error) {
	query := fmt.Sprintf(`SELECT id, document, version FROM %s WHERE owner_id = $1`, collectionName(t))
	return r.getOne(ctx, t, query, ownerID)
}

func (r *ListingRepository) getOne(ctx context.Context, t models.BusinessType, query string, arg interface{}) (models.BusinessListing, error) {
	var row listingRow
	err := r.db.GetContext(ctx, &row, query, arg)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s listing: %w", t, err)
	}
	return decodeListing(t, row)
}

// Save writes the listing back if nobody else changed it since it was read.
// On success the listing's version is incremented.
func (r *ListingRepository) Save(ctx context.Context, listing models.BusinessListing) error {
	base := listing.Base()
	expected := base.Version
	previousUpdatedAt := base.UpdatedAt

	base.Version = expected + 1
	base.UpdatedAt = time.Now()

	doc, err := json.Marshal(listing)
	if err != nil {
		base.Version, base.UpdatedAt = expected, previousUpdatedAt
		return fmt.Errorf("failed to encode listing: %w", err)
	}
	cities, districts := areaValues(listing)

	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, status = $2, is_setup_complete = $3, cities = $4, districts = $5,
		    document = $6, version = $7, updated_at = $8
		WHERE id = $9 AND version = $10
	`, collectionName(listing.Type()))

	result, err := r.db.ExecContext(ctx, query,
		base.Name,
		base.Status,
		base.IsSetupComplete,
		pq.Array(cities),
		pq.Array(districts),
		doc,
		base.Version,
		base.UpdatedAt,
		base.ID,
		expected,
	)
	if err != nil {
		base.Version, base.UpdatedAt = expected, previousUpdatedAt
		return fmt.Errorf("failed to save %s listing: %w", listing.Type(), err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		base.Version, base.UpdatedAt = expected, previousUpdatedAt
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		base.Version, base.UpdatedAt = expected, previousUpdatedAt
		return ErrVersionConflict
	}

	return nil
}

// Delete removes a listing
func (r *ListingRepository) Delete(ctx context.Context, t models.BusinessType, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, collectionName(t))

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s listing: %w", t, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// List returns one page of listings matching the filter plus the total match count
func (r *ListingRepository) List(ctx context.Context, t models.BusinessType, filter ListingFilter) ([]models.BusinessListing, int, error) {
	filter = filter.Normalize()
	table := collectionName(t)

	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.City != "" {
		args = append(args, "%"+strings.ToLower(filter.City)+"%")
		conditions = append(conditions, fmt.Sprintf("EXISTS (SELECT 1 FROM unnest(cities) c WHERE c LIKE $%d)", len(args)))
	}
	if filter.District != "" {
		args = append(args, "%"+strings.ToLower(filter.District)+"%")
		conditions = append(conditions, fmt.Sprintf("EXISTS (SELECT 1 FROM unnest(districts) d WHERE d LIKE $%d)", len(args)))
	}
	conditions, args = documentConditions(t, filter, conditions, args)

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s %s`, table, where)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count %s listings: %w", t, err)
	}

	pageArgs := append(append([]interface{}{}, args...), filter.Limit, filter.Offset())
	query := fmt.Sprintf(`
		SELECT id, document, version FROM %s %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, table, where, len(args)+1, len(args)+2)

	var rows []listingRow
	if err := r.db.SelectContext(ctx, &rows, query, pageArgs...); err != nil {
		return nil, 0, fmt.Errorf("failed to list %s listings: %w", t, err)
	}

	listings := make([]models.BusinessListing, 0, len(rows))
	for _, row := range rows {
		listing, err := decodeListing(t, row)
		if err != nil {
			return nil, 0, err
		}
		listings = append(listings, listing)
	}

	return listings, total, nil
}

// documentConditions adds the variant filters, which match against the JSONB document
func documentConditions(t models.BusinessType, filter ListingFilter, conditions []string, args []interface{}) ([]string, []interface{}) {
	add := func(format string, arg interface{}) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(format, len(args)))
	}

	if filter.MinRating > 0 {
		add("(document->'rating'->>'average')::numeric >= $%d", filter.MinRating)
	}

	switch t {
	case models.BusinessTypeHotel:
		if filter.StarRating > 0 {
			add("(document->>'starRating')::int = $%d", filter.StarRating)
		}
		var room []string
		if filter.MinPrice > 0 {
			args = append(args, filter.MinPrice)
			room = append(room, fmt.Sprintf("(room->>'pricePerNight')::numeric >= $%d", len(args)))
		}
		if filter.MaxPrice > 0 {
			args = append(args, filter.MaxPrice)
			room = append(room, fmt.Sprintf("(room->>'pricePerNight')::numeric <= $%d", len(args)))
		}
		if len(room) > 0 {
			conditions = append(conditions, fmt.Sprintf(
				"EXISTS (SELECT 1 FROM jsonb_array_elements(COALESCE(document->'rooms', '[]'::jsonb)) room WHERE %s)",
				strings.Join(room, " AND ")))
		}
		if len(filter.Amenities) > 0 {
			add("document->'amenities' ?| $%d", pq.Array(filter.Amenities))
		}
	case models.BusinessTypeRestaurant:
		if len(filter.Cuisine) > 0 {
			add("document->'cuisine' ?| $%d", pq.Array(filter.Cuisine))
		}
		if filter.PriceRange != "" {
			add("document->>'priceRange' = $%d", filter.PriceRange)
		}
	case models.BusinessTypeTransport:
		if filter.TransportType != "" {
			add("document->>'type' = $%d", filter.TransportType)
		}
	}

	return conditions, args
}

// CountByStatus returns the number of listings per status
func (r *ListingRepository) CountByStatus(ctx context.Context, t models.BusinessType) (map[models.ListingStatus]int, error) {
	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	query := fmt.Sprintf(`SELECT status, COUNT(*) AS count FROM %s GROUP BY status`, collectionName(t))

	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to count %s listings: %w", t, err)
	}

	counts := map[models.ListingStatus]int{}
	for _, row := range rows {
		counts[models.ListingStatus(row.Status)] = row.Count
	}
	return counts, nil
}
