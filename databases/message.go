package databases

// go generate: mockery --name MessageDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mentorhub/mentorhub-api/models"
)

const messageName = "messages"

// MessageDatabase contains the methods to use with the message database
type MessageDatabase interface {
	FindOne(context.Context, interface{}, ...*options.FindOneOptions) (*models.Message, error)
	Find(context.Context, interface{}, ...*options.FindOptions) ([]models.Message, error)
	FindPaginated(ctx context.Context, filter interface{}, limit, page int, opts ...*options.FindOptions) ([]models.Message, error)
	InsertOne(context.Context, interface{}, ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateMany(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error
	CountDocuments(context.Context, interface{}, ...*options.CountOptions) (int64, error)
}

type messageDatabase struct {
	db DatabaseHelper
}

// NewMessageDatabase initializes a new instance of message database with the provided db connection
func NewMessageDatabase(db DatabaseHelper) MessageDatabase {
	return &messageDatabase{
		db: db,
	}
}

func (m *messageDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Message, error) {
	message := &models.Message{}
	err := m.db.Collection(messageName).FindOne(ctx, filter, opts...).Decode(&message)
	if err != nil {
		return nil, err
	}
	return message, nil
}

func (m *messageDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Message, error) {
	var messages []models.Message
	cr := m.db.Collection(messageName).Find(ctx, filter, opts...)
	err := cr.Decode(&messages)
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// FindPaginated runs Find with limit and skip derived from a 1-based page
// number. A limit of zero falls back to an unpaginated Find.
func (m *messageDatabase) FindPaginated(ctx context.Context, filter interface{}, limit, page int, opts ...*options.FindOptions) ([]models.Message, error) {
	if limit <= 0 {
		return m.Find(ctx, filter, opts...)
	}
	if page <= 0 {
		page = 1
	}
	opts = append(opts, newMongoPaginate(limit, page).getPaginatedOpts())
	return m.Find(ctx, filter, opts...)
}

func (m *messageDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	res := m.db.Collection(messageName).InsertOne(ctx, document, opts...)
	return res, nil
}

func (m *messageDatabase) UpdateMany(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return m.db.Collection(messageName).UpdateMany(ctx, filter, update, opts...)
}

func (m *messageDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	return m.db.Collection(messageName).DeleteOne(ctx, filter, opts...)
}

func (m *messageDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return m.db.Collection(messageName).CountDocuments(ctx, filter, opts...)
}
