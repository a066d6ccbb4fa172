package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/njprem/hubmarket-accounts/internal/domain"
	"github.com/njprem/hubmarket-accounts/internal/repository/ports"
)

const accountCollection = "users"

// Index names double as the lookup key when decoding E11000 errors.
var uniqueIndexes = map[domain.UniqueField]string{
	domain.UniqueEmail:    "email_live_unique",
	domain.UniqueUserName: "user_name_live_unique",
	domain.UniqueMobileNo: "mobile_no_live_unique",
}

// accountDocument keeps the field names of the existing mongoose collection.
type accountDocument struct {
	ID        string    `bson:"_id"`
	FirstName string    `bson:"first_name"`
	LastName  string    `bson:"last_name"`
	UserName  string    `bson:"user_name"`
	Email     string    `bson:"email"`
	Address   string    `bson:"address"`
	MobileNo  int64     `bson:"mobile_no"`
	Gender    string    `bson:"gender"`
	Password  string    `bson:"password"`
	Photo     *string   `bson:"photo,omitempty"`
	IsDeleted bool      `bson:"is_deleted"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func (d accountDocument) toDomain() (*domain.Account, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("mongo: account id %q: %w", d.ID, err)
	}
	return &domain.Account{
		ID:           id,
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		UserName:     d.UserName,
		Email:        d.Email,
		Address:      d.Address,
		MobileNo:     d.MobileNo,
		Gender:       d.Gender,
		PasswordHash: d.Password,
		PhotoRef:     d.Photo,
		IsDeleted:    d.IsDeleted,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}, nil
}

type AccountRepository struct {
	coll *mongo.Collection
}

func NewAccountRepo(db *mongo.Database) *AccountRepository {
	return &AccountRepository{coll: db.Collection(accountCollection)}
}

// EnsureIndexes backfills is_deleted on documents written before the field
// existed, then builds the unique indexes over live accounts. Partial indexes
// cannot express $ne, so without the backfill those documents would escape them.
func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	if _, err := r.coll.UpdateMany(ctx,
		bson.M{"is_deleted": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"is_deleted": false}},
	); err != nil {
		return fmt.Errorf("mongo: backfill is_deleted: %w", err)
	}
	live := bson.M{"is_deleted": false}
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}},
	}
	for field, name := range uniqueIndexes {
		models = append(models, mongo.IndexModel{
			Keys: bson.D{{Key: string(field), Value: 1}},
			Options: options.Index().
				SetName(name).
				SetUnique(true).
				SetPartialFilterExpression(live),
		})
	}
	_, err := r.coll.Indexes().CreateMany(ctx, models)
	return err
}

func liveFilter(filter bson.M, includeDeleted bool) bson.M {
	if !includeDeleted {
		filter["is_deleted"] = bson.M{"$ne": true}
	}
	return filter
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*domain.Account, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "is_deleted", Value: 1}, {Key: "updatedAt", Value: -1}})
	var doc accountDocument
	if err := r.coll.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		return nil, mapError(err)
	}
	return doc.toDomain()
}

func (r *AccountRepository) FindByEmailOrUsername(ctx context.Context, email, userName string, includeDeleted bool) (*domain.Account, error) {
	var or bson.A
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	if userName != "" {
		or = append(or, bson.M{"user_name": userName})
	}
	if len(or) == 0 {
		return nil, ports.ErrAccountNotFound
	}
	return r.findOne(ctx, liveFilter(bson.M{"$or": or}, includeDeleted))
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string, includeDeleted bool) (*domain.Account, error) {
	return r.findOne(ctx, liveFilter(bson.M{"email": email}, includeDeleted))
}

func (r *AccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()})
}

func (r *AccountRepository) Insert(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	id := account.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	doc := accountDocument{
		ID:        id.String(),
		FirstName: account.FirstName,
		LastName:  account.LastName,
		UserName:  account.UserName,
		Email:     account.Email,
		Address:   account.Address,
		MobileNo:  account.MobileNo,
		Gender:    account.Gender,
		Password:  account.PasswordHash,
		Photo:     account.PhotoRef,
		IsDeleted: false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, mapError(err)
	}
	return doc.toDomain()
}

func (r *AccountRepository) UpdateFields(ctx context.Context, id uuid.UUID, update domain.AccountUpdate) (*domain.Account, error) {
	set := bson.M{"updatedAt": time.Now().UTC().Truncate(time.Millisecond)}
	if update.FirstName != nil {
		set["first_name"] = *update.FirstName
	}
	if update.LastName != nil {
		set["last_name"] = *update.LastName
	}
	if update.UserName != nil {
		set["user_name"] = *update.UserName
	}
	if update.Email != nil {
		set["email"] = *update.Email
	}
	if update.Address != nil {
		set["address"] = *update.Address
	}
	if update.MobileNo != nil {
		set["mobile_no"] = *update.MobileNo
	}
	if update.Gender != nil {
		set["gender"] = *update.Gender
	}
	if update.PasswordHash != nil {
		set["password"] = *update.PasswordHash
	}
	if update.PhotoRef != nil {
		set["photo"] = *update.PhotoRef
	}
	if update.IsDeleted != nil {
		set["is_deleted"] = *update.IsDeleted
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc accountDocument
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id.String()}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		return nil, mapError(err)
	}
	return doc.toDomain()
}

// DeleteByEmail removes every document registered under email, soft-deleted ones included.
func (r *AccountRepository) DeleteByEmail(ctx context.Context, email string) error {
	res, err := r.coll.DeleteMany(ctx, bson.M{"email": email})
	if err != nil {
		return mapError(err)
	}
	if res.DeletedCount == 0 {
		return ports.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) ExistsOther(ctx context.Context, field domain.UniqueField, value any, excludeID uuid.UUID) (bool, error) {
	if _, ok := uniqueIndexes[field]; !ok {
		return false, fmt.Errorf("mongo: unknown unique field %q", field)
	}
	filter := liveFilter(bson.M{
		string(field): value,
		"_id":         bson.M{"$ne": excludeID.String()},
	}, false)
	n, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ports.ErrAccountNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return &ports.DuplicateKeyError{Field: duplicateField(err.Error())}
	}
	return err
}

func duplicateField(message string) domain.UniqueField {
	for field, name := range uniqueIndexes {
		if strings.Contains(message, name) {
			return field
		}
	}
	return ""
}
