// Package mongo is the MongoDB revision store.
//
// Collections: pages, users, revisions and diagrams. Author contributions
// are computed by a single aggregation pipeline per page:
// $match → $group → $sort → $limit → $lookup.
package mongo

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/matzehuels/pathwiki/pkg/authors"
	"github.com/matzehuels/pathwiki/pkg/cache"
	"github.com/matzehuels/pathwiki/pkg/errors"
	"github.com/matzehuels/pathwiki/pkg/viewer"
)

// Collection names.
const (
	PagesCollection     = "pages"
	UsersCollection     = "users"
	RevisionsCollection = "revisions"
	DiagramsCollection  = "diagrams"
)

// DefaultDatabase is used when the URI names no database.
const DefaultDatabase = "pathwiki"

type pageDoc struct {
	ID    int64  `bson:"_id"`
	Title string `bson:"title"`
}

type userDoc struct {
	ID       int64    `bson:"_id"`
	Login    string   `bson:"login"`
	RealName string   `bson:"realName"`
	Groups   []string `bson:"groups,omitempty"`
}

type revisionDoc struct {
	PageID    int64     `bson:"pageId"`
	UserID    int64     `bson:"userId"`
	UserText  string    `bson:"userText"`
	Timestamp time.Time `bson:"timestamp"`
}

type diagramDoc struct {
	PageID   int64  `bson:"_id"`
	Pathway  string `bson:"pathway"`
	Entities string `bson:"entities"`
}

// contributionDoc is one output document of the contributions pipeline.
type contributionDoc struct {
	UserID    int64     `bson:"_id"`
	EditCount int       `bson:"editCount"`
	FirstEdit time.Time `bson:"firstEdit"`
	UserText  string    `bson:"userText"`
	User      []userDoc `bson:"user"`
}

// Store is a MongoDB-backed revision and diagram store.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var (
	_ authors.Store       = (*Store)(nil)
	_ viewer.DiagramStore = (*Store)(nil)
)

// Open connects to uri, pings the primary (retrying transient failures) and
// ensures indexes. database "" uses DefaultDatabase.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	if database == "" {
		database = DefaultDatabase
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	err = cache.RetryWithBackoff(ctx, func() error {
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			return cache.Retryable(fmt.Errorf("%w: %v", cache.ErrUnavailable, err))
		}
		return nil
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	s := &Store{client: client, db: client.Database(database)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(RevisionsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "pageId", Value: 1}, {Key: "userId", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create revisions index: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Drop removes the store's database. Tests use it for cleanup.
func (s *Store) Drop(ctx context.Context) error {
	return s.db.Drop(ctx)
}

// PageExists reports whether pageID has a page document.
func (s *Store) PageExists(ctx context.Context, pageID int64) (bool, error) {
	n, err := s.db.Collection(PagesCollection).CountDocuments(ctx, bson.M{"_id": pageID}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// contributionsPipeline groups the revisions of pageID by editor. The
// $limit stage bounds distinct editors before users are joined in.
func contributionsPipeline(pageID int64, maxEditors int) mongo.Pipeline {
	p := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"pageId": pageID}}},
		{{Key: "$group", Value: bson.M{
			"_id":       "$userId",
			"editCount": bson.M{"$sum": 1},
			"firstEdit": bson.M{"$min": "$timestamp"},
			"userText":  bson.M{"$min": "$userText"},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}
	if maxEditors > 0 {
		p = append(p, bson.D{{Key: "$limit", Value: int64(maxEditors)}})
	}
	return append(p, bson.D{{Key: "$lookup", Value: bson.M{
		"from":         UsersCollection,
		"localField":   "_id",
		"foreignField": "_id",
		"as":           "user",
	}}})
}

// Contributions returns one row per distinct editor of pageID, in user id order.
func (s *Store) Contributions(ctx context.Context, pageID int64, maxEditors int) ([]authors.Contribution, error) {
	cur, err := s.db.Collection(RevisionsCollection).Aggregate(ctx, contributionsPipeline(pageID, maxEditors))
	if err != nil {
		return nil, fmt.Errorf("aggregate contributions: %w", err)
	}
	defer cur.Close(ctx)

	var out []authors.Contribution
	for cur.Next(ctx) {
		var doc contributionDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode contribution: %w", err)
		}
		c := authors.Contribution{
			UserID:    doc.UserID,
			Login:     doc.UserText,
			EditCount: doc.EditCount,
			FirstEdit: doc.FirstEdit.UTC(),
		}
		if len(doc.User) > 0 {
			c.Login = doc.User[0].Login
			c.RealName = doc.User[0].RealName
			c.Groups = doc.User[0].Groups
		}
		out = append(out, c)
	}
	return out, cur.Err()
}

// Diagram returns the stored pathway of pageID.
func (s *Store) Diagram(ctx context.Context, pageID int64) (viewer.Diagram, error) {
	var doc diagramDoc
	err := s.db.Collection(DiagramsCollection).FindOne(ctx, bson.M{"_id": pageID}).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return viewer.Diagram{}, errors.New(errors.ErrCodeDiagramNotFound, "no diagram stored for page %d", pageID)
	}
	if err != nil {
		return viewer.Diagram{}, errors.Wrap(errors.ErrCodeStorage, err, "read diagram of page %d", pageID)
	}

	d := viewer.Diagram{PageID: pageID, Pathway: json.RawMessage(doc.Pathway)}
	if doc.Entities != "" {
		if err := json.Unmarshal([]byte(doc.Entities), &d.EntitiesByID); err != nil {
			return viewer.Diagram{}, errors.Wrap(errors.ErrCodeStorage, err, "decode entities of page %d", pageID)
		}
	}
	return d, nil
}
