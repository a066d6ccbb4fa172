package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/njprem/hubmarket-accounts/internal/domain"
	"github.com/njprem/hubmarket-accounts/internal/repository/ports"
)

const passwordResetCollection = "password_resets"

type passwordResetDocument struct {
	Email     string    `bson:"_id"`
	CodeHash  []byte    `bson:"code_hash"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}

type PasswordResetRepository struct {
	coll *mongo.Collection
}

func NewPasswordResetRepo(db *mongo.Database) *PasswordResetRepository {
	return &PasswordResetRepository{coll: db.Collection(passwordResetCollection)}
}

// EnsureIndexes adds a TTL index so the server purges expired codes.
func (r *PasswordResetRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetName("expires_at_ttl").SetExpireAfterSeconds(0),
	})
	return err
}

func (r *PasswordResetRepository) Upsert(ctx context.Context, reset domain.PasswordReset) error {
	doc := passwordResetDocument{
		Email:     reset.Email,
		CodeHash:  reset.CodeHash,
		ExpiresAt: reset.ExpiresAt.UTC(),
		CreatedAt: reset.CreatedAt.UTC(),
	}
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": reset.Email}, doc, options.Replace().SetUpsert(true))
	return err
}

func (r *PasswordResetRepository) FindByEmail(ctx context.Context, email string) (*domain.PasswordReset, error) {
	var doc passwordResetDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": email}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ports.ErrResetNotFound
		}
		return nil, err
	}
	return &domain.PasswordReset{
		Email:     doc.Email,
		CodeHash:  doc.CodeHash,
		ExpiresAt: doc.ExpiresAt,
		CreatedAt: doc.CreatedAt,
	}, nil
}

func (r *PasswordResetRepository) DeleteByEmail(ctx context.Context, email string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": email})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ports.ErrResetNotFound
	}
	return nil
}
