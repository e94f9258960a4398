package repository

import (
	"context"
	"errors"
	"fmt"

	"coursehub/internal/microservices/http-api/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const messagesCollection = "chat_messages"

type mongoMessageStore struct {
	coll *mongo.Collection
}

// NewMongoMessageStore keeps chat messages in a document collection.
func NewMongoMessageStore(db *mongo.Database) MessageStore {
	return &mongoMessageStore{coll: db.Collection(messagesCollection)}
}

// EnsureMessageIndexes creates the (roomId, timestamp) index used by history queries
func EnsureMessageIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(messagesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "roomId", Value: 1}, {Key: "timestamp", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create message index: %w", err)
	}
	return nil
}

func (s *mongoMessageStore) Insert(ctx context.Context, message *models.ChatMessage) error {
	if message.ID == "" {
		message.ID = bson.NewObjectID().Hex()
	}
	_, err := s.coll.InsertOne(ctx, message)
	return err
}

func (s *mongoMessageStore) FindByID(ctx context.Context, id string) (*models.ChatMessage, error) {
	var message models.ChatMessage
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&message)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &message, nil
}

func (s *mongoMessageStore) Find(ctx context.Context, filter MessageFilter) ([]models.ChatMessage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := s.coll.Find(ctx, historyFilter(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	messages := make([]models.ChatMessage, 0)
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// historyFilter mirrors ChatMessage.VisibleTo as a query document
func historyFilter(filter MessageFilter) bson.D {
	query := bson.D{{Key: "roomId", Value: filter.RoomID}}
	if filter.ViewerEmail == "" {
		return query
	}

	addressedToViewer := bson.A{
		bson.D{{Key: "targetEmail", Value: bson.D{{Key: "$exists", Value: false}}}},
		bson.D{{Key: "targetEmail", Value: ""}},
		bson.D{{Key: "targetEmail", Value: filter.ViewerEmail}},
	}
	return append(query, bson.E{Key: "$or", Value: bson.A{
		bson.D{{Key: "senderEmail", Value: filter.ViewerEmail}},
		bson.D{
			{Key: "isAdminMessage", Value: true},
			{Key: "$or", Value: addressedToViewer},
		},
	}})
}

func (s *mongoMessageStore) Delete(ctx context.Context, id string) error {
	result, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoMessageStore) Participants(ctx context.Context, roomID string) ([]models.Participant, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "roomId", Value: roomID}}}},
		{{Key: "$sort", Value: bson.D{{Key: "timestamp", Value: 1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$senderEmail"},
			{Key: "name", Value: bson.D{{Key: "$last", Value: "$senderName"}}},
			{Key: "photo", Value: bson.D{{Key: "$last", Value: "$senderPhoto"}}},
			{Key: "messageCount", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "name", Value: 1}}}},
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	participants := make([]models.Participant, 0)
	if err := cursor.All(ctx, &participants); err != nil {
		return nil, err
	}
	return participants, nil
}
