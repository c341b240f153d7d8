package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/agentkyo/jadlog-bot/internal/core/domain"
)

const collectionPackages = "packages"

type PackageRepository struct {
	col *mongo.Collection
}

func NewPackageRepository(db *mongo.Database) *PackageRepository {
	return &PackageRepository{col: db.Collection(collectionPackages)}
}

// Insert appends a new tracked package document. Duplicate (user_id,
// tracking_code) pairs are allowed; each registration is its own record.
func (r *PackageRepository) Insert(ctx context.Context, pkg *domain.TrackedPackage) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, pkg)
	return err
}

// FindByUser retrieves every package registered by one user.
func (r *PackageRepository) FindByUser(ctx context.Context, userID int64) ([]*domain.TrackedPackage, error) {
	return r.find(ctx, bson.M{"user_id": userID})
}

// FindByTrackingCode retrieves every record for a tracking code, across users.
func (r *PackageRepository) FindByTrackingCode(ctx context.Context, trackingCode string) ([]*domain.TrackedPackage, error) {
	return r.find(ctx, bson.M{"tracking_code": trackingCode})
}

// FindAll retrieves every stored package, in insertion order.
func (r *PackageRepository) FindAll(ctx context.Context) ([]*domain.TrackedPackage, error) {
	return r.find(ctx, bson.M{})
}

func (r *PackageRepository) find(ctx context.Context, filter bson.M) ([]*domain.TrackedPackage, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var pkgs []*domain.TrackedPackage
	if err := cur.All(ctx, &pkgs); err != nil {
		return nil, err
	}
	return pkgs, nil
}

// UpdateEvents replaces events and last_checked_at wholesale on every record
// matching the tracking code. A non-zero userID scopes the update to that
// user's records.
func (r *PackageRepository) UpdateEvents(ctx context.Context, trackingCode string, userID int64, events []domain.TrackingEvent, checkedAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"tracking_code": trackingCode}
	if userID != 0 {
		filter["user_id"] = userID
	}

	res, err := r.col.UpdateMany(ctx, filter, bson.M{"$set": bson.M{
		"events":          events,
		"last_checked_at": checkedAt,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrPackageNotFound
	}
	return nil
}

// EnsureIndexes creates the lookup indexes on the packages collection. The
// indexes are deliberately non-unique: see Insert.
func (r *PackageRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{{Key: "tracking_code", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
