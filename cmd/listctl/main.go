// Command listctl reads and edits the lists embedded in container documents
// (permissions, notes, files and tags of projects, sessions, acquisitions,
// collections and groups).
//
// # Configuration
//
// Environment variables (overridden by the matching flags):
//
//	MONGO_URI       - MongoDB connection URI (default: "mongodb://localhost:27017")
//	MONGO_DATABASE  - MongoDB database (default: "scitran")
//	MONGO_TIMEOUT   - Per-operation timeout (default: "5s")
//	REDIS_URL       - Redis address used to queue compliance requests (optional)
//	REDIS_PASSWORD  - Redis password (optional)
//	LISTS_CATALOG   - Path to a YAML list catalog (optional)
//	LISTS_DEBUG     - Enable debug logs
//
// # Example
//
//	listctl -container sessions -list notes -action POST \
//	  -id 5f1e... -payload '{"_id": "n1", "text": "motion artifacts"}'
//
//	listctl -container groups -list tags -action DELETE \
//	  -id neuro -query '{"value": "qa"}'
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"goa.design/clue/health"
	"goa.design/clue/log"

	compliance "github.com/imaging-api/containerlists/features/compliance/pulse"
	clientspulse "github.com/imaging-api/containerlists/features/compliance/pulse/clients/pulse"
	listmongo "github.com/imaging-api/containerlists/features/list/mongo"
	clientsmongo "github.com/imaging-api/containerlists/features/list/mongo/clients/mongo"
	"github.com/imaging-api/containerlists/runtime/list"
	"github.com/imaging-api/containerlists/runtime/list/catalog"
	"github.com/imaging-api/containerlists/runtime/list/check"
)

func main() {
	cfg, err := parseConfig(os.Args[1:], os.Getenv, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	format := log.FormatJSON
	if log.IsTerminal() {
		format = log.FormatTerminal
	}
	ctx := log.Context(context.Background(), log.WithFormat(format))
	if cfg.Debug {
		ctx = log.Context(ctx, log.WithDebug())
		log.Debugf(ctx, "debug logs enabled")
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdout); err != nil {
		log.Error(ctx, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config, out io.Writer) error {
	mc, err := mongodriver.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return fmt.Errorf("connect to mongo: %w", err)
	}
	defer func() {
		if err := mc.Disconnect(context.Background()); err != nil {
			log.Error(ctx, err, log.KV{K: "msg", V: "disconnect mongo"})
		}
	}()
	db, err := clientsmongo.New(clientsmongo.Options{
		Client:   mc,
		Database: cfg.Database,
		Timeout:  cfg.MongoTimeout,
	})
	if err != nil {
		return err
	}

	deps := []health.Pinger{db}
	var recalc list.ComplianceRecalculator
	var pc clientspulse.Client
	if cfg.RedisURL != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisURL, Password: cfg.RedisPassword})
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Error(ctx, err, log.KV{K: "msg", V: "close redis"})
			}
		}()
		if pc, err = clientspulse.New(clientspulse.Options{Redis: rdb}); err != nil {
			return err
		}
		deps = append(deps, pc)
		if recalc, err = compliance.NewRecalculator(compliance.RecalculatorOptions{Client: pc}); err != nil {
			return err
		}
	}

	switch {
	case cfg.Ping:
		return ping(ctx, deps, out)
	case cfg.Worker:
		if pc == nil {
			return errors.New("-worker requires REDIS_URL")
		}
		w, err := compliance.NewWorker(compliance.WorkerOptions{
			Client: pc,
			Handler: func(ctx context.Context, sessionID string) error {
				log.Info(ctx, log.KV{K: "msg", V: "session compliance requested"}, log.KV{K: "session", V: sessionID})
				return nil
			},
		})
		if err != nil {
			return err
		}
		return w.Run(ctx)
	}

	reg, err := newRegistry(cfg.CatalogPath, db, recalc)
	if err != nil {
		return err
	}
	acc, err := reg.Accessor(cfg.Container, cfg.List)
	if err != nil {
		return err
	}
	return execute(ctx, acc, cfg, out)
}

// newRegistry loads the catalog at path, or the built-in one when path is
// empty, and builds its accessors with the built-in payload checks.
func newRegistry(path string, db clientsmongo.Client, recalc list.ComplianceRecalculator) (*listmongo.Registry, error) {
	cat := catalog.Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog: %w", err)
		}
		if cat, err = catalog.Load(data); err != nil {
			return nil, err
		}
	}
	checker, err := check.New()
	if err != nil {
		return nil, fmt.Errorf("load payload checks: %w", err)
	}
	return listmongo.NewRegistry(cat, listmongo.Options{
		Client:      db,
		Consistency: checker,
		Compliance:  recalc,
	})
}

func execute(ctx context.Context, store list.Store, cfg config, out io.Writer) error {
	var doc bson.M
	if cfg.Info != nil {
		res, err := store.ModifyInfo(ctx, cfg.ID, cfg.Query, *cfg.Info)
		if err != nil {
			return err
		}
		doc = bson.M{"matched": res.MatchedCount, "modified": res.ModifiedCount}
	} else {
		res, err := store.Exec(ctx, list.Request{
			Action:  cfg.Action,
			ID:      cfg.ID,
			Query:   cfg.Query,
			Payload: cfg.Payload,
			Exclude: cfg.Exclude,
		})
		if err != nil && !errors.Is(err, list.ErrCompliance) {
			return err
		}
		if err != nil {
			log.Error(ctx, err, log.KV{K: "msg", V: "list updated but compliance was not queued"})
		}
		if cfg.Action == list.ActionGet {
			doc = bson.M{"element": res.Element}
		} else {
			doc = bson.M{"matched": res.Update.MatchedCount, "modified": res.Update.ModifiedCount}
		}
	}
	b, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	_, err = fmt.Fprintln(out, string(b))
	return err
}

func ping(ctx context.Context, deps []health.Pinger, out io.Writer) error {
	h, ok := health.NewChecker(deps...).Check(ctx)
	b, err := json.Marshal(h)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(b))
	if !ok {
		return errors.New("dependencies unhealthy")
	}
	return nil
}
