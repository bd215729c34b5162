package storage

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"firechat/internal/models"
)

// Mongo is the MongoDB-backed DocumentStore. The change feed is a change
// stream per subscribed conversation, which requires a replica set (Atlas
// or a local --replSet instance).
type Mongo struct {
	Client        *mongo.Client
	Conversations *mongo.Collection
	Presence      *mongo.Collection
}

func NewMongo(uri, dbName string) (*Mongo, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	// Ping the database to verify connection
	if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	log.Println("Successfully connected to MongoDB!")

	db := client.Database(dbName)
	return &Mongo{
		Client:        client,
		Conversations: db.Collection(ConversationsCollection),
		Presence:      db.Collection(PresenceCollection),
	}, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}

func (m *Mongo) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	var conv models.Conversation
	err := m.Conversations.FindOne(ctx, bson.M{"_id": id}).Decode(&conv)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %v", err)
	}
	return &conv, nil
}

func (m *Mongo) AppendMessage(ctx context.Context, id string, participants []string, msg models.Message, fields Fields) error {
	// $push is an additive merge: a message appended concurrently by the
	// other participant is never discarded. $setOnInsert fills in the
	// participant pair on first send; $inc bumps the version counter that
	// guards full replaces.
	update := bson.M{
		"$push":        bson.M{"messages": msg},
		"$set":         bson.M(fields),
		"$setOnInsert": bson.M{"participants": participants},
		"$inc":         bson.M{"version": 1},
	}
	_, err := m.Conversations.UpdateOne(ctx, bson.M{"_id": id}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to append message: %v", err)
	}
	return nil
}

func (m *Mongo) ReplaceMessages(ctx context.Context, id string, expectedVersion int64, messages []models.Message, fields Fields) error {
	set := bson.M{"messages": messages}
	for key, value := range fields {
		set[key] = value
	}

	// Matching on the version makes the replace a compare-and-swap: a
	// caller holding a stale snapshot matches nothing and must re-read.
	filter := bson.M{"_id": id, "version": expectedVersion}
	update := bson.M{"$set": set, "$inc": bson.M{"version": 1}}
	result, err := m.Conversations.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to replace messages: %v", err)
	}
	if result.MatchedCount == 0 {
		if err := m.Conversations.FindOne(ctx, bson.M{"_id": id}).Err(); err == mongo.ErrNoDocuments {
			return ErrNotFound
		}
		return ErrVersionConflict
	}
	return nil
}

// changeEvent is the slice of the change stream document we care about.
type changeEvent struct {
	FullDocument *models.Conversation `bson:"fullDocument"`
}

func (m *Mongo) SubscribeConversation(ctx context.Context, id string) (*Subscription, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"fullDocument._id": id}}},
	}
	streamCtx, cancelStream := context.WithCancel(ctx)
	stream, err := m.Conversations.Watch(streamCtx, pipeline,
		options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		cancelStream()
		return nil, fmt.Errorf("failed to open change stream: %v", err)
	}

	ch := make(chan *models.Conversation, 1)
	go func() {
		defer close(ch)
		defer stream.Close(context.Background())

		// Initial snapshot, so a subscriber immediately sees current state.
		if conv, err := m.GetConversation(streamCtx, id); err == nil {
			deliver(streamCtx, ch, conv)
		}

		for stream.Next(streamCtx) {
			var event changeEvent
			if err := stream.Decode(&event); err != nil {
				log.Printf("Failed to decode change event for %s: %v", id, err)
				continue
			}
			if event.FullDocument == nil {
				continue
			}
			if !deliver(streamCtx, ch, event.FullDocument) {
				return
			}
		}
	}()

	return NewSubscription(ch, cancelStream), nil
}

// deliver coalesces an undelivered snapshot and sends the newer one, unless
// the subscription was cancelled first.
func deliver(ctx context.Context, ch chan *models.Conversation, conv *models.Conversation) bool {
	select {
	case <-ctx.Done():
		return false
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- conv:
		return true
	case <-ctx.Done():
		return false
	}
}

func (m *Mongo) GetPresence(ctx context.Context, uid string) (*models.UserPresence, error) {
	var p models.UserPresence
	err := m.Presence.FindOne(ctx, bson.M{"_id": uid}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get presence: %v", err)
	}
	return &p, nil
}

func (m *Mongo) MergePresence(ctx context.Context, uid string, fields Fields) error {
	_, err := m.Presence.UpdateOne(ctx, bson.M{"_id": uid},
		bson.M{"$set": bson.M(fields)}, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to merge presence: %v", err)
	}
	return nil
}
