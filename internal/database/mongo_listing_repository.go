package database

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/travellanka/listings-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoListingRepository stores listings as documents, one collection per variant
type MongoListingRepository struct {
	db *mongo.Database
}

// NewMongoListingRepository creates a new MongoDB listing repository
func NewMongoListingRepository(db *mongo.Database) *MongoListingRepository {
	return &MongoListingRepository{
		db: db,
	}
}

func (r *MongoListingRepository) collection(t models.BusinessType) *mongo.Collection {
	return r.db.Collection(collectionName(t))
}

// EnsureIndexes creates the one-listing-per-owner index on every collection
func (r *MongoListingRepository) EnsureIndexes(ctx context.Context) error {
	for _, t := range models.BusinessTypes {
		_, err := r.collection(t).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "owner", Value: 1}},
			Options: options.Index().SetUnique(true),
		})
		if err != nil {
			return fmt.Errorf("failed to create owner index on %s: %w", collectionName(t), err)
		}
	}
	return nil
}

// Create inserts a new listing at version 1
func (r *MongoListingRepository) Create(ctx context.Context, listing models.BusinessListing) error {
	base := listing.Base()
	if base.ID == "" {
		base.ID = uuid.NewString()
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	base.CreatedAt = now
	base.UpdatedAt = now
	base.Version = 1

	if _, err := r.collection(listing.Type()).InsertOne(ctx, listing); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrListingExists
		}
		return fmt.Errorf("failed to create %s listing: %w", listing.Type(), err)
	}
	return nil
}

// GetByID retrieves a listing by ID
func (r *MongoListingRepository) GetByID(ctx context.Context, t models.BusinessType, id string) (models.BusinessListing, error) {
	return r.findOne(ctx, t, bson.M{"_id": id})
}

// GetByOwner retrieves the single listing owned by an account
func (r *MongoListingRepository) GetByOwner(ctx context.Context, t models.BusinessType, ownerID string) (models.BusinessListing, error) {
	return r.findOne(ctx, t, bson.M{"owner": ownerID})
}

func (r *MongoListingRepository) findOne(ctx context.Context, t models.BusinessType, filter bson.M) (models.BusinessListing, error) {
	listing, err := models.NewListing(t)
	if err != nil {
		return nil, err
	}

	err = r.collection(t).FindOne(ctx, filter).Decode(listing)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s listing: %w", t, err)
	}
	return listing, nil
}

// Save replaces the stored document if its version still matches.
// On success the listing's version is incremented.
func (r *MongoListingRepository) Save(ctx context.Context, listing models.BusinessListing) error {
	base := listing.Base()
	expected := base.Version
	previousUpdatedAt := base.UpdatedAt

	base.Version = expected + 1
	base.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	result, err := r.collection(listing.Type()).ReplaceOne(ctx,
		bson.M{"_id": base.ID, "version": expected},
		listing,
	)
	if err != nil {
		base.Version, base.UpdatedAt = expected, previousUpdatedAt
		return fmt.Errorf("failed to save %s listing: %w", listing.Type(), err)
	}
	if result.MatchedCount == 0 {
		base.Version, base.UpdatedAt = expected, previousUpdatedAt
		return ErrVersionConflict
	}
	return nil
}

// Delete removes a listing
func (r *MongoListingRepository) Delete(ctx context.Context, t models.BusinessType, id string) error {
	result, err := r.collection(t).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete %s listing: %w", t, err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns one page of listings matching the filter plus the total match count
func (r *MongoListingRepository) List(ctx context.Context, t models.BusinessType, filter ListingFilter) ([]models.BusinessListing, int, error) {
	filter = filter.Normalize()
	query := mongoFilter(t, filter)
	coll := r.collection(t)

	total, err := coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count %s listings: %w", t, err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(filter.Offset())).
		SetLimit(int64(filter.Limit))

	cursor, err := coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list %s listings: %w", t, err)
	}
	defer cursor.Close(ctx)

	listings := []models.BusinessListing{}
	for cursor.Next(ctx) {
		listing, err := models.NewListing(t)
		if err != nil {
			return nil, 0, err
		}
		if err := cursor.Decode(listing); err != nil {
			return nil, 0, fmt.Errorf("failed to decode %s listing: %w", t, err)
		}
		listings = append(listings, listing)
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate %s listings: %w", t, err)
	}

	return listings, int(total), nil
}

// CountByStatus returns the number of listings per status
func (r *MongoListingRepository) CountByStatus(ctx context.Context, t models.BusinessType) (map[models.ListingStatus]int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := r.collection(t).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to count %s listings: %w", t, err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status string `bson:"_id"`
		Count  int    `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode %s counts: %w", t, err)
	}

	counts := map[models.ListingStatus]int{}
	for _, row := range rows {
		counts[models.ListingStatus(row.Status)] = row.Count
	}
	return counts, nil
}

// mongoFilter translates a ListingFilter into a query document.
// City and district match as case-insensitive substrings; variant
// filters only apply to the variant that has the field.
func mongoFilter(t models.BusinessType, filter ListingFilter) bson.M {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	prefix := "location"
	if t == models.BusinessTypeTransport {
		prefix = "serviceArea"
	}
	if filter.City != "" {
		query[prefix+".city"] = bson.M{"$regex": regexp.QuoteMeta(filter.City), "$options": "i"}
	}
	if filter.District != "" {
		query[prefix+".district"] = bson.M{"$regex": regexp.QuoteMeta(filter.District), "$options": "i"}
	}

	if filter.MinRating > 0 {
		query["rating.average"] = bson.M{"$gte": filter.MinRating}
	}

	switch t {
	case models.BusinessTypeHotel:
		if filter.StarRating > 0 {
			query["starRating"] = filter.StarRating
		}
		price := bson.M{}
		if filter.MinPrice > 0 {
			price["$gte"] = filter.MinPrice
		}
		if filter.MaxPrice > 0 {
			price["$lte"] = filter.MaxPrice
		}
		if len(price) > 0 {
			// both bounds must hold for the same room
			query["rooms"] = bson.M{"$elemMatch": bson.M{"pricePerNight": price}}
		}
		if len(filter.Amenities) > 0 {
			query["amenities"] = bson.M{"$in": filter.Amenities}
		}
	case models.BusinessTypeRestaurant:
		if len(filter.Cuisine) > 0 {
			query["cuisine"] = bson.M{"$in": filter.Cuisine}
		}
		if filter.PriceRange != "" {
			query["priceRange"] = filter.PriceRange
		}
	case models.BusinessTypeTransport:
		if filter.TransportType != "" {
			query["type"] = filter.TransportType
		}
	}
	return query
}
