package database

import (
	"context"
	"fmt"

	"groupsight/entity"
	"groupsight/internal/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionEvents     = "member_events"
	collectionPayments   = "payment_payloads"
	collectionBroadcasts = "broadcast_runs"
)

// MongoDB is the best-effort archive: raw member events, provider payment
// payloads and broadcast run summaries end up here for support lookups.
// Callers treat every write as optional and only log failures.
type MongoDB struct {
	ctx           context.Context
	clientOptions *options.ClientOptions
	database      string
}

func NewMongoClient(conf *config.Config) *MongoDB {
	if !conf.Mongo.Enabled {
		return nil
	}
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}
	client := &MongoDB{
		ctx:           context.Background(),
		clientOptions: clientOptions,
		database:      conf.Mongo.Database,
	}
	return client
}

func (m *MongoDB) connect() (*mongo.Client, error) {
	connection, err := mongo.Connect(m.ctx, m.clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	return connection, nil
}

func (m *MongoDB) disconnect(connection *mongo.Client) {
	_ = connection.Disconnect(m.ctx)
}

func (m *MongoDB) insert(collection string, value interface{}) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	_, err = connection.Database(m.database).Collection(collection).InsertOne(m.ctx, value)
	return err
}

func (m *MongoDB) ArchiveEvent(event *entity.MemberEvent) error {
	return m.insert(collectionEvents, event)
}

func (m *MongoDB) ArchivePayment(payment *entity.Payment) error {
	return m.insert(collectionPayments, payment)
}

// ArchiveBroadcast stores the outcome of one broadcast run.
func (m *MongoDB) ArchiveBroadcast(run interface{}) error {
	return m.insert(collectionBroadcasts, run)
}

// RecentEvents reads back the latest archived events for a chat, used by
// support tooling when the relational stream has been pruned.
func (m *MongoDB) RecentEvents(chatId int64, limit int64) ([]*entity.MemberEvent, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionEvents)
	filter := bson.D{{Key: "chat_id", Value: chatId}}
	opts := options.Find().SetSort(bson.D{{Key: "happened_at", Value: -1}}).SetLimit(limit)
	cursor, err := collection.Find(m.ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb find: %w", err)
	}
	defer cursor.Close(m.ctx)

	var events []*entity.MemberEvent
	if err = cursor.All(m.ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
