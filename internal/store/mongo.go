package store

import (
	"context"
	"fmt"
	"time"

	"oli-admin/internal/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoStore keeps items and articles in two MongoDB collections named after their Kind.
type MongoStore struct {
	client   *mongo.Client
	items    *mongo.Collection
	articles *mongo.Collection
	logger   *zap.Logger
	now      func() time.Time
}

// NewMongoStore connects to uri and pings the server before returning.
func NewMongoStore(ctx context.Context, uri, database string, logger *zap.Logger) (*MongoStore, error) {
	clientOptions := options.Client().
		ApplyURI(uri).
		SetAppName("oli-admin").
		SetMaxPoolSize(10).
		SetMaxConnIdleTime(30 * time.Second).
		SetTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(database)
	return &MongoStore{
		client:   client,
		items:    db.Collection(model.KindItem.String()),
		articles: db.Collection(model.KindArticle.String()),
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) FetchAll(ctx context.Context) (Snapshot, error) {
	newestFirst := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	items, err := findAll[model.Item](ctx, s.items, newestFirst)
	if err != nil {
		return Snapshot{}, fmt.Errorf("fetch items: %w", err)
	}
	articles, err := findAll[model.Article](ctx, s.articles, newestFirst)
	if err != nil {
		return Snapshot{}, fmt.Errorf("fetch articles: %w", err)
	}
	return Snapshot{Items: items, Articles: articles}, nil
}

func (s *MongoStore) CreateItem(ctx context.Context, item model.Item) (string, error) {
	item.ID = uuid.NewString()
	item.CreatedAt = s.now()
	item.UpdatedAt = item.CreatedAt
	if _, err := s.items.InsertOne(ctx, item); err != nil {
		return "", fmt.Errorf("failed to create item: %w", err)
	}
	return item.ID, nil
}

func (s *MongoStore) UpdateItem(ctx context.Context, id string, item model.Item) error {
	update := bson.M{
		"name":       item.Name,
		"category":   item.Category,
		"price":      item.Price,
		"unit":       item.Unit,
		"image":      item.Image,
		"updated_at": s.now(),
	}
	return updateByID(ctx, s.items, id, update)
}

func (s *MongoStore) DeleteItem(ctx context.Context, id string) error {
	if _, err := s.items.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete item %s: %w", id, err)
	}
	return nil
}

func (s *MongoStore) CreateArticle(ctx context.Context, article model.Article) (string, error) {
	article.ID = uuid.NewString()
	article.CreatedAt = s.now()
	article.UpdatedAt = article.CreatedAt
	if _, err := s.articles.InsertOne(ctx, article); err != nil {
		return "", fmt.Errorf("failed to create article: %w", err)
	}
	return article.ID, nil
}

func (s *MongoStore) UpdateArticle(ctx context.Context, id string, article model.Article) error {
	update := bson.M{
		"title":      article.Title,
		"tag":        article.Tag,
		"desc":       article.Desc,
		"image":      article.Image,
		"updated_at": s.now(),
	}
	return updateByID(ctx, s.articles, id, update)
}

func (s *MongoStore) DeleteArticle(ctx context.Context, id string) error {
	if _, err := s.articles.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete article %s: %w", id, err)
	}
	return nil
}

func updateByID(ctx context.Context, coll *mongo.Collection, id string, fields bson.M) error {
	result, err := coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update %s %s: %w", coll.Name(), id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("update %s %s: %w", coll.Name(), id, ErrNotFound)
	}
	return nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, bson.M{}, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	docs := []T{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}
