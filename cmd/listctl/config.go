package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/imaging-api/containerlists/runtime/list"
)

// config holds the resolved command line and environment settings.
type config struct {
	MongoURI      string
	Database      string
	MongoTimeout  time.Duration
	RedisURL      string
	RedisPassword string
	CatalogPath   string

	Container string
	List      string
	Action    list.Action
	ID        string
	Query     list.Params
	Payload   list.Params
	Exclude   list.Params
	Info      *list.InfoPatch

	Ping   bool
	Worker bool
	Debug  bool
}

// parseConfig resolves flags over environment defaults. getenv is os.Getenv
// outside of tests.
func parseConfig(args []string, getenv func(string) string, output io.Writer) (config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	env := func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return def
	}
	timeout := 5 * time.Second
	if v := getenv("MONGO_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return config{}, fmt.Errorf("MONGO_TIMEOUT: %w", err)
		}
		timeout = d
	}

	var (
		cfg                                       config
		action, query, payload, exclude, infoJSON string
	)
	fs := flag.NewFlagSet("listctl", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&cfg.MongoURI, "mongo-uri", env("MONGO_URI", "mongodb://localhost:27017"), "MongoDB connection URI")
	fs.StringVar(&cfg.Database, "db", env("MONGO_DATABASE", "scitran"), "MongoDB database name")
	fs.DurationVar(&cfg.MongoTimeout, "mongo-timeout", timeout, "Per-operation MongoDB timeout")
	fs.StringVar(&cfg.RedisURL, "redis-url", env("REDIS_URL", ""), "Redis address for compliance requests (disabled when empty)")
	fs.StringVar(&cfg.RedisPassword, "redis-password", env("REDIS_PASSWORD", ""), "Redis password")
	fs.StringVar(&cfg.CatalogPath, "catalog", env("LISTS_CATALOG", ""), "YAML list catalog (built-in catalog when empty)")
	fs.StringVar(&cfg.Container, "container", "", "Container collection, e.g. sessions")
	fs.StringVar(&cfg.List, "list", "", "List name, e.g. notes")
	fs.StringVar(&action, "action", "GET", "One of GET, POST, PUT, DELETE")
	fs.StringVar(&cfg.ID, "id", "", "Container id")
	fs.StringVar(&query, "query", "", "Element selector as extended JSON")
	fs.StringVar(&payload, "payload", "", "Element or fields as extended JSON")
	fs.StringVar(&exclude, "exclude", "", "Duplicate guard as extended JSON")
	fs.StringVar(&infoJSON, "info", "", "Info patch as JSON ({\"replace\":{}} or {\"set\":{},\"delete\":[]})")
	fs.BoolVar(&cfg.Ping, "ping", false, "Check MongoDB and Redis connectivity and exit")
	fs.BoolVar(&cfg.Worker, "worker", false, "Consume session compliance requests")
	fs.BoolVar(&cfg.Debug, "debug", envBool(getenv("LISTS_DEBUG")), "Enable debug logs")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	if cfg.Ping || cfg.Worker {
		return cfg, nil
	}
	if cfg.Container == "" || cfg.List == "" || cfg.ID == "" {
		return config{}, errors.New("-container, -list and -id are required")
	}
	a, err := list.ParseAction(action)
	if err != nil {
		return config{}, err
	}
	cfg.Action = a
	if cfg.Query, err = parseParams("query", query); err != nil {
		return config{}, err
	}
	if cfg.Payload, err = parseParams("payload", payload); err != nil {
		return config{}, err
	}
	if cfg.Exclude, err = parseParams("exclude", exclude); err != nil {
		return config{}, err
	}
	if infoJSON != "" {
		var patch list.InfoPatch
		if err := json.Unmarshal([]byte(infoJSON), &patch); err != nil {
			return config{}, fmt.Errorf("-info: %w", err)
		}
		cfg.Info = &patch
	}
	return cfg, nil
}

// parseParams decodes extended JSON so callers can write {"$oid": "..."}.
func parseParams(name, s string) (list.Params, error) {
	if s == "" {
		return nil, nil
	}
	var p list.Params
	if err := bson.UnmarshalExtJSON([]byte(s), false, &p); err != nil {
		return nil, fmt.Errorf("-%s: %w", name, err)
	}
	return p, nil
}

func envBool(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}
