package repository

import (
	"context"
	"errors"

	"coursehub/internal/microservices/http-api/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const principalsCollection = "principals"

type mongoPrincipalRepository struct {
	coll *mongo.Collection
}

// NewMongoPrincipalRepository keys principal documents by email
func NewMongoPrincipalRepository(db *mongo.Database) PrincipalRepository {
	return &mongoPrincipalRepository{coll: db.Collection(principalsCollection)}
}

func (r *mongoPrincipalRepository) FindByEmail(ctx context.Context, email string) (*models.Principal, error) {
	var principal models.Principal
	err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: email}}).Decode(&principal)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &principal, nil
}

func (r *mongoPrincipalRepository) Create(ctx context.Context, principal *models.Principal) error {
	if _, err := r.coll.InsertOne(ctx, principal); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *mongoPrincipalRepository) UpdateRole(ctx context.Context, email, role string) error {
	result, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: email}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "role", Value: role}}}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoPrincipalRepository) List(ctx context.Context) ([]models.Principal, error) {
	cursor, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	principals := make([]models.Principal, 0)
	if err := cursor.All(ctx, &principals); err != nil {
		return nil, err
	}
	return principals, nil
}
