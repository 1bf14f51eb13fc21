// Package mongo hosts the MongoDB client used by the list accessors.
package mongo

//go:generate cmg gen .

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"goa.design/clue/health"

	"github.com/imaging-api/containerlists/runtime/list"
)

const (
	defaultOpTimeout = 5 * time.Second
	listsClientName  = "lists-mongo"
)

// Client exposes the single-document operations list accessors need. The
// collection is named per call so one client serves every container kind.
type Client interface {
	health.Pinger

	// FindOne returns the first document matching filter, reduced by
	// projection when non-nil. Returns list.ErrNotFound when nothing matched.
	FindOne(ctx context.Context, collection string, filter, projection any) (bson.M, error)
	// UpdateOne applies update to the first document matching filter.
	UpdateOne(ctx context.Context, collection string, filter, update any) (list.UpdateResult, error)
}

// Options configures the Mongo list client.
type Options struct {
	Client   *mongodriver.Client
	Database string
	Timeout  time.Duration
}

type client struct {
	mongo   *mongodriver.Client
	db      database
	timeout time.Duration
}

// New returns a Client backed by MongoDB.
func New(opts Options) (Client, error) {
	if opts.Client == nil {
		return nil, errors.New("mongo client is required")
	}
	if opts.Database == "" {
		return nil, errors.New("database name is required")
	}
	db := mongoDatabase{db: opts.Client.Database(opts.Database)}
	return newClientWithDatabase(opts.Client, db, opts.Timeout)
}

func (c *client) Name() string {
	return listsClientName
}

func (c *client) Ping(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.mongo == nil {
		return errors.New("mongo client not configured")
	}
	return c.mongo.Ping(ctx, readpref.Primary())
}

func (c *client) FindOne(ctx context.Context, collection string, filter, projection any) (bson.M, error) {
	if collection == "" {
		return nil, errors.New("collection name is required")
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	opts := options.FindOne()
	if projection != nil {
		opts.SetProjection(projection)
	}
	var doc bson.M
	if err := c.db.Collection(collection).FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, list.ErrNotFound
		}
		return nil, fmt.Errorf("mongodb find one in %q: %w", collection, err)
	}
	return doc, nil
}

func (c *client) UpdateOne(ctx context.Context, collection string, filter, update any) (list.UpdateResult, error) {
	if collection == "" {
		return list.UpdateResult{}, errors.New("collection name is required")
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	res, err := c.db.Collection(collection).UpdateOne(ctx, filter, update)
	if err != nil {
		return list.UpdateResult{}, fmt.Errorf("mongodb update one in %q: %w", collection, err)
	}
	return list.UpdateResult{MatchedCount: res.MatchedCount, ModifiedCount: res.ModifiedCount}, nil
}

func (c *client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

func newClientWithDatabase(mongoClient *mongodriver.Client, db database, timeout time.Duration) (*client, error) {
	if db == nil {
		return nil, errors.New("database is required")
	}
	if timeout <= 0 {
		timeout = defaultOpTimeout
	}
	return &client{
		mongo:   mongoClient,
		db:      db,
		timeout: timeout,
	}, nil
}

type database interface {
	Collection(name string) collection
}

type collection interface {
	FindOne(ctx context.Context, filter any, opts ...*options.FindOneOptions) singleResult
	UpdateOne(ctx context.Context, filter any, update any,
		opts ...*options.UpdateOptions) (*mongodriver.UpdateResult, error)
}

type singleResult interface {
	Decode(val any) error
}

type mongoDatabase struct {
	db *mongodriver.Database
}

func (d mongoDatabase) Collection(name string) collection {
	return mongoCollection{coll: d.db.Collection(name)}
}

type mongoCollection struct {
	coll *mongodriver.Collection
}

func (c mongoCollection) FindOne(ctx context.Context, filter any, opts ...*options.FindOneOptions) singleResult {
	return mongoSingleResult{res: c.coll.FindOne(ctx, filter, opts...)}
}

func (c mongoCollection) UpdateOne(ctx context.Context, filter any, update any,
	opts ...*options.UpdateOptions) (*mongodriver.UpdateResult, error) {
	return c.coll.UpdateOne(ctx, filter, update, opts...)
}

type mongoSingleResult struct {
	res *mongodriver.SingleResult
}

func (r mongoSingleResult) Decode(val any) error {
	return r.res.Decode(val)
}
