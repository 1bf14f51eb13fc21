package mongo

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	clientsmongo "github.com/imaging-api/containerlists/features/list/mongo/clients/mongo"
	"github.com/imaging-api/containerlists/runtime/list"
)

var (
	setupOnce          sync.Once
	testMongoClient    *mongodriver.Client
	testMongoContainer testcontainers.Container
	skipMongoTests     bool
)

func setupMongoDB() {
	ctx := context.Background()

	var containerErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				containerErr = fmt.Errorf("docker not available: %v", r)
			}
		}()
		req := testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForLog("Waiting for connections"),
			Tmpfs:        map[string]string{"/data/db": "rw"},
		}
		testMongoContainer, containerErr = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
	}()
	if containerErr != nil {
		fmt.Printf("Docker not available, MongoDB tests will be skipped: %v\n", containerErr)
		skipMongoTests = true
		return
	}

	host, err := testMongoContainer.Host(ctx)
	if err != nil {
		fmt.Printf("Failed to get container host: %v\n", err)
		skipMongoTests = true
		return
	}
	port, err := testMongoContainer.MappedPort(ctx, "27017")
	if err != nil {
		fmt.Printf("Failed to get container port: %v\n", err)
		skipMongoTests = true
		return
	}
	uri := fmt.Sprintf("mongodb://%s:%s", host, port.Port())
	testMongoClient, err = mongodriver.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		fmt.Printf("Failed to connect to MongoDB: %v\n", err)
		skipMongoTests = true
		return
	}
	if err := testMongoClient.Ping(ctx, nil); err != nil {
		fmt.Printf("Failed to ping MongoDB: %v\n", err)
		skipMongoTests = true
	}
}

// testDB returns a fresh database and a list client bound to it.
func testDB(t *testing.T) (*mongodriver.Database, clientsmongo.Client) {
	t.Helper()
	setupOnce.Do(setupMongoDB)
	if skipMongoTests {
		t.Skip("Docker not available, skipping MongoDB test")
	}
	name := fmt.Sprintf("lists_%d", time.Now().UnixNano())
	db := testMongoClient.Database(name)
	t.Cleanup(func() { _ = db.Drop(context.Background()) })
	cl, err := clientsmongo.New(clientsmongo.Options{Client: testMongoClient, Database: name})
	require.NoError(t, err)
	return db, cl
}

// tickingClock returns strictly increasing timestamps with millisecond
// resolution so they survive the BSON round trip.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		at = at.Add(time.Second)
		return at
	}
}

type tagContainer struct {
	ID       string    `bson:"_id"`
	Tags     []string  `bson:"tags"`
	Modified time.Time `bson:"modified"`
}

type noteContainer struct {
	ID       primitive.ObjectID `bson:"_id"`
	Notes    []bson.M           `bson:"notes"`
	Modified time.Time          `bson:"modified"`
}

func TestMongoTagsScenario(t *testing.T) {
	db, cl := testDB(t)
	ctx := context.Background()
	coll := db.Collection("collections")
	_, err := coll.InsertOne(ctx, bson.M{"_id": "c1", "tags": bson.A{}})
	require.NoError(t, err)

	acc, err := NewStringAccessor(Options{
		Client:     cl,
		Collection: "collections",
		List:       "tags",
		IDKind:     list.IDString,
		Now:        tickingClock(),
	})
	require.NoError(t, err)

	load := func() tagContainer {
		var c tagContainer
		require.NoError(t, coll.FindOne(ctx, bson.M{"_id": "c1"}).Decode(&c))
		return c
	}

	_, err = acc.Exec(ctx, list.Request{Action: list.ActionCreate, ID: "c1", Payload: list.Params{"value": "x"}})
	require.NoError(t, err)
	require.Equal(t, []string{"x"}, load().Tags)

	_, err = acc.Exec(ctx, list.Request{Action: list.ActionCreate, ID: "c1", Payload: list.Params{"value": "x"}})
	require.ErrorIs(t, err, list.ErrConflict)
	require.Equal(t, []string{"x"}, load().Tags)

	got, err := acc.Exec(ctx, list.Request{Action: list.ActionGet, ID: "c1", Query: list.Params{"value": "x"}})
	require.NoError(t, err)
	require.Equal(t, "x", got.Element)

	before := load().Modified
	res, err := acc.Exec(ctx, list.Request{
		Action:  list.ActionUpdate,
		ID:      "c1",
		Query:   list.Params{"value": "x"},
		Payload: list.Params{"value": "y"},
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), res.Update.MatchedCount)
	after := load()
	require.Equal(t, []string{"y"}, after.Tags)
	require.True(t, after.Modified.After(before))

	res, err = acc.Exec(ctx, list.Request{
		Action:  list.ActionUpdate,
		ID:      "c1",
		Query:   list.Params{"value": "x"},
		Payload: list.Params{"value": "y"},
	})
	require.NoError(t, err)
	require.Equal(t, int64(0), res.Update.MatchedCount)
	require.Equal(t, []string{"y"}, load().Tags)

	_, err = acc.Exec(ctx, list.Request{Action: list.ActionDelete, ID: "c1", Query: list.Params{"value": "y"}})
	require.NoError(t, err)
	require.Empty(t, load().Tags)
}

func TestMongoStructuredLifecycle(t *testing.T) {
	db, cl := testDB(t)
	ctx := context.Background()
	coll := db.Collection("projects")
	oid := primitive.NewObjectID()
	_, err := coll.InsertOne(ctx, bson.M{"_id": oid, "notes": bson.A{}, "permissions": bson.A{}, "public": false})
	require.NoError(t, err)

	acc, err := NewAccessor(Options{Client: cl, Collection: "projects", List: "notes", Now: tickingClock()})
	require.NoError(t, err)
	load := func() noteContainer {
		var c noteContainer
		require.NoError(t, coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&c))
		return c
	}
	create := func(id, text string) error {
		_, err := acc.Exec(ctx, list.Request{
			Action:  list.ActionCreate,
			ID:      oid.Hex(),
			Payload: list.Params{"_id": id, "text": text, "user": "jdoe"},
			Exclude: list.Params{"_id": id},
		})
		return err
	}

	require.NoError(t, create("n1", "first"))
	require.NoError(t, create("n2", "second"))
	require.ErrorIs(t, create("n1", "again"), list.ErrConflict)
	require.Len(t, load().Notes, 2)

	// merge keeps unspecified fields
	before := load().Modified
	res, err := acc.Exec(ctx, list.Request{
		Action:  list.ActionUpdate,
		ID:      oid.Hex(),
		Query:   list.Params{"_id": "n1"},
		Payload: list.Params{"text": "edited"},
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), res.Update.MatchedCount)
	c := load()
	require.True(t, c.Modified.After(before))
	require.Equal(t, "edited", c.Notes[0]["text"])
	require.Equal(t, "jdoe", c.Notes[0]["user"])

	// renaming n1 to n2 would duplicate n2
	res, err = acc.Exec(ctx, list.Request{
		Action:  list.ActionUpdate,
		ID:      oid.Hex(),
		Query:   list.Params{"_id": "n1"},
		Payload: list.Params{"_id": "n2"},
		Exclude: list.Params{"_id": "n2"},
	})
	require.NoError(t, err)
	require.Equal(t, int64(0), res.Update.MatchedCount)
	require.Equal(t, "n1", load().Notes[0]["_id"])

	got, err := acc.Exec(ctx, list.Request{Action: list.ActionGet, ID: oid.Hex(), Query: list.Params{"_id": "n2"}})
	require.NoError(t, err)
	el, ok := got.Element.(bson.M)
	require.True(t, ok)
	require.Equal(t, "second", el["text"])

	got, err = acc.Exec(ctx, list.Request{Action: list.ActionGet, ID: oid.Hex(), Query: list.Params{"_id": "nope"}})
	require.NoError(t, err)
	require.Nil(t, got.Element)

	_, err = acc.Exec(ctx, list.Request{Action: list.ActionDelete, ID: oid.Hex(), Query: list.Params{"_id": "n1"}})
	require.NoError(t, err)
	notes := load().Notes
	require.Len(t, notes, 1)
	require.Equal(t, "n2", notes[0]["_id"])

	cont, err := acc.Container(ctx, oid.Hex(), list.Params{"_id": "n2"})
	require.NoError(t, err)
	require.Equal(t, false, cont["public"])
	require.Len(t, cont["notes"], 1)
}

func TestMongoModifyInfo(t *testing.T) {
	db, cl := testDB(t)
	ctx := context.Background()
	coll := db.Collection("acquisitions")
	oid := primitive.NewObjectID()
	_, err := coll.InsertOne(ctx, bson.M{
		"_id": oid,
		"files": bson.A{
			bson.M{"name": "a.dcm", "info": bson.M{"keep": 1, "drop": 2}},
			bson.M{"name": "b.dcm", "info": bson.M{"keep": 3}},
		},
	})
	require.NoError(t, err)
	acc, err := NewAccessor(Options{Client: cl, Collection: "acquisitions", List: "files", Now: tickingClock()})
	require.NoError(t, err)

	info := func(i int) bson.M {
		var c struct {
			Files []struct {
				Info bson.M `bson:"info"`
			} `bson:"files"`
		}
		require.NoError(t, coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&c))
		return c.Files[i].Info
	}

	_, err = acc.ModifyInfo(ctx, oid.Hex(), list.Params{"name": "a.dcm"}, list.InfoPatch{Delete: []string{"drop"}})
	require.NoError(t, err)
	require.Equal(t, bson.M{"keep": int32(1)}, info(0))
	require.Equal(t, bson.M{"keep": int32(3)}, info(1))

	_, err = acc.ModifyInfo(ctx, oid.Hex(), list.Params{"name": "a.dcm"}, list.InfoPatch{
		Replace: list.Info{"scanner.model": "Prisma"},
		Set:     list.Info{"ignored": true},
	})
	require.NoError(t, err)
	require.Equal(t, bson.M{"scanner_model": "Prisma"}, info(0))

	res, err := acc.ModifyInfo(ctx, oid.Hex(), list.Params{"name": "b.dcm"}, list.InfoPatch{})
	require.NoError(t, err)
	require.Equal(t, int64(1), res.ModifiedCount)
}

func TestMongoDeleteAcquisitionFileNotifiesSession(t *testing.T) {
	db, cl := testDB(t)
	ctx := context.Background()
	acqID := primitive.NewObjectID()
	sessID := primitive.NewObjectID()
	_, err := db.Collection("acquisitions").InsertOne(ctx, bson.M{
		"_id":     acqID,
		"session": sessID,
		"files":   bson.A{bson.M{"name": "a.dcm"}, bson.M{"name": "b.dcm"}},
	})
	require.NoError(t, err)
	rec := &fakeCompliance{}
	acc, err := NewAccessor(Options{Client: cl, Collection: "acquisitions", List: "files", Compliance: rec})
	require.NoError(t, err)

	_, err = acc.Exec(ctx, list.Request{Action: list.ActionDelete, ID: acqID.Hex(), Query: list.Params{"name": "a.dcm"}})
	require.NoError(t, err)
	require.Equal(t, []any{sessID}, rec.calls)
}

func TestMongoCreateThenReadProperty(t *testing.T) {
	db, cl := testDB(t)
	ctx := context.Background()
	coll := db.Collection("sessions")
	acc, err := NewStringAccessor(Options{Client: cl, Collection: "sessions", List: "tags", IDKind: list.IDString})
	require.NoError(t, err)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("a created tag is readable and cannot be created twice", prop.ForAll(
		func(tag string) bool {
			id := primitive.NewObjectID().Hex()
			if _, err := coll.InsertOne(ctx, bson.M{"_id": id, "tags": bson.A{}}); err != nil {
				return false
			}
			req := list.Request{Action: list.ActionCreate, ID: id, Payload: list.Params{"value": tag}}
			if _, err := acc.Exec(ctx, req); err != nil {
				return false
			}
			got, err := acc.Exec(ctx, list.Request{Action: list.ActionGet, ID: id, Query: list.Params{"value": tag}})
			if err != nil || got.Element != tag {
				return false
			}
			_, err = acc.Exec(ctx, req)
			return err == list.ErrConflict
		},
		gen.AlphaString().SuchThat(func(s string) bool { return s != "" }),
	))

	properties.TestingRun(t)
}
