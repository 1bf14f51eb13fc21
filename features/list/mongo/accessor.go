package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"goa.design/clue/log"

	clientsmongo "github.com/imaging-api/containerlists/features/list/mongo/clients/mongo"
	"github.com/imaging-api/containerlists/runtime/list"
)

const (
	instrumentationName = "github.com/imaging-api/containerlists/features/list/mongo"

	modifiedField = "modified"
	filesList     = "files"
	sessionsColl  = "sessions"
	acquisColl    = "acquisitions"
)

type (
	// Options configures an Accessor.
	Options struct {
		// Client executes queries. Required.
		Client clientsmongo.Client
		// Collection names the container collection. Required.
		Collection string
		// List names the embedded list field. Required.
		List string
		// IDKind selects how container ids are parsed. Defaults to
		// list.IDObjectID.
		IDKind list.IDKind
		// Consistency validates payloads. Defaults to list.NoConsistency.
		Consistency list.Consistency
		// Sanitizer rewrites info keys. Defaults to list.DefaultSanitizer.
		Sanitizer list.Sanitizer
		// Compliance is notified when files are removed from sessions or
		// acquisitions. Nil disables the follow-up.
		Compliance list.ComplianceRecalculator
		// Sessions resolves the session owning an acquisition. Defaults to a
		// resolver reading the acquisitions collection through Client.
		Sessions list.SessionResolver
		// Now returns the modification timestamp. Defaults to UTC now.
		Now func() time.Time
		// Tracer and Meter default to the global OpenTelemetry providers.
		Tracer trace.Tracer
		Meter  metric.Meter
	}

	// Accessor reads and mutates one list embedded in the documents of one
	// collection. Each operation is a single filter-and-update request.
	Accessor struct {
		client      clientsmongo.Client
		collection  string
		field       string
		ids         list.IDKind
		codec       codec
		consistency list.Consistency
		sanitizer   list.Sanitizer
		compliance  list.ComplianceRecalculator
		sessions    list.SessionResolver
		now         func() time.Time
		tracer      trace.Tracer
		ops         metric.Int64Counter
	}
)

// Compile-time check that Accessor implements list.Store.
var _ list.Store = (*Accessor)(nil)

// NewAccessor returns an Accessor for lists of documents.
func NewAccessor(opts Options) (*Accessor, error) {
	return newAccessor(opts, structuredCodec{})
}

// NewStringAccessor returns an Accessor for lists of scalar values. Callers
// wrap queries and payloads as {"value": x}; elements are stored bare.
func NewStringAccessor(opts Options) (*Accessor, error) {
	return newAccessor(opts, scalarCodec{})
}

func newAccessor(opts Options, c codec) (*Accessor, error) {
	if opts.Client == nil {
		return nil, errors.New("mongo client is required")
	}
	if opts.Collection == "" {
		return nil, errors.New("collection name is required")
	}
	if opts.List == "" {
		return nil, errors.New("list name is required")
	}
	ids := opts.IDKind
	if ids == "" {
		ids = list.IDObjectID
	}
	if ids != list.IDObjectID && ids != list.IDString {
		return nil, fmt.Errorf("%w: unknown id kind %q", list.ErrInvalidArgument, ids)
	}
	consistency := opts.Consistency
	if consistency == nil {
		consistency = list.NoConsistency
	}
	sanitizer := opts.Sanitizer
	if sanitizer == nil {
		sanitizer = list.DefaultSanitizer
	}
	sessions := opts.Sessions
	if sessions == nil {
		sessions = NewSessionResolver(opts.Client)
	}
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer(instrumentationName)
	}
	meter := opts.Meter
	if meter == nil {
		meter = otel.Meter(instrumentationName)
	}
	ops, err := meter.Int64Counter("containerlists.list.operations",
		metric.WithDescription("List operations executed, by collection, list, action and outcome."))
	if err != nil {
		return nil, fmt.Errorf("create operations counter: %w", err)
	}
	return &Accessor{
		client:      opts.Client,
		collection:  opts.Collection,
		field:       opts.List,
		ids:         ids,
		codec:       c,
		consistency: consistency,
		sanitizer:   sanitizer,
		compliance:  opts.Compliance,
		sessions:    sessions,
		now:         now,
		tracer:      tracer,
		ops:         ops,
	}, nil
}

// Collection returns the container collection name.
func (a *Accessor) Collection() string { return a.collection }

// List returns the embedded list field name.
func (a *Accessor) List() string { return a.field }

// Container loads the container with the given id. With a query, structured
// accessors only return the first matching element plus the permissions and
// public fields; scalar accessors always return the whole list with those
// fields. Returns nil when no container matched.
func (a *Accessor) Container(ctx context.Context, id string, query list.Params) (map[string]any, error) {
	if a == nil || a.client == nil {
		return nil, list.ErrNotInitialized
	}
	_id, err := a.parseID(id)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"_id": _id}
	clause, projection := a.codec.containerView(a.field, doc(query))
	if clause != nil {
		filter[a.field] = clause
	}
	var proj any
	if projection != nil {
		proj = projection
	}
	res, err := a.client.FindOne(ctx, a.collection, filter, proj)
	if err != nil {
		if errors.Is(err, list.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return map[string]any(res), nil
}

// Exec runs req against the container it names.
//
// The payload is unwrapped and checked before anything else; an invalid id or
// a failed check never reaches the database. GET, PUT and DELETE report
// missing containers or elements as a nil element or a zero matched count.
// POST reports them as list.ErrConflict since the duplicate guard and a
// missing container are indistinguishable.
func (a *Accessor) Exec(ctx context.Context, req list.Request) (res list.Result, err error) {
	if a == nil || a.client == nil {
		return list.Result{}, list.ErrNotInitialized
	}
	if !req.Action.Valid() {
		return list.Result{}, fmt.Errorf("%w: action should be one of GET, POST, PUT, DELETE, got %q", list.ErrInvalidArgument, req.Action)
	}
	ctx, span := a.tracer.Start(ctx, "list."+string(req.Action), trace.WithAttributes(a.attrs(req.Action)...))
	defer func() { a.finish(ctx, span, req.Action, err) }()

	q, p, err := a.codec.unwrap(req.Query, req.Payload)
	if err != nil {
		return list.Result{}, err
	}
	if err := requireParams(req.Action, q, p); err != nil {
		return list.Result{}, err
	}
	if err := a.consistency.For(req.Action, a.field)(p); err != nil {
		return list.Result{}, err
	}
	_id, err := a.parseID(req.ID)
	if err != nil {
		return list.Result{}, err
	}

	switch req.Action {
	case list.ActionGet:
		el, err := a.read(ctx, _id, q)
		return list.Result{Element: el}, err
	case list.ActionDelete:
		up, err := a.delete(ctx, _id, q)
		return list.Result{Update: up}, err
	case list.ActionUpdate:
		up, err := a.update(ctx, _id, q, p, req.Exclude)
		return list.Result{Update: up}, err
	case list.ActionCreate:
		up, err := a.create(ctx, _id, p, req.Exclude)
		return list.Result{Update: up}, err
	default:
		return list.Result{}, fmt.Errorf("%w: unhandled action %q", list.ErrInvalidArgument, req.Action)
	}
}

// ModifyInfo patches the info map of the element matching query. The
// modified timestamp is always updated, even when the patch is empty.
func (a *Accessor) ModifyInfo(ctx context.Context, id string, query list.Params, patch list.InfoPatch) (res list.UpdateResult, err error) {
	if a == nil || a.client == nil {
		return list.UpdateResult{}, list.ErrNotInitialized
	}
	if !a.codec.info() {
		return list.UpdateResult{}, fmt.Errorf("%w: list %q holds scalar values without info", list.ErrInvalidArgument, a.field)
	}
	if query == nil {
		return list.UpdateResult{}, fmt.Errorf("%w: query is required", list.ErrInvalidArgument)
	}
	ctx, span := a.tracer.Start(ctx, "list.info", trace.WithAttributes(a.attrs("INFO")...))
	defer func() { a.finish(ctx, span, "INFO", err) }()

	_id, err := a.parseID(id)
	if err != nil {
		return list.UpdateResult{}, err
	}
	prefix := a.field + ".$.info"
	set := bson.M{}
	update := bson.M{}
	if patch.Replace != nil {
		set[prefix] = a.sanitizer.SanitizeFields(patch.Replace)
	} else {
		for k, v := range patch.Set {
			set[prefix+"."+k] = a.sanitizer.SanitizeFields(v)
		}
		if len(patch.Delete) > 0 {
			unset := make(bson.M, len(patch.Delete))
			for _, k := range patch.Delete {
				unset[prefix+"."+k] = ""
			}
			update["$unset"] = unset
		}
	}
	set[modifiedField] = a.now()
	update["$set"] = set
	filter := bson.M{"_id": _id, a.field: a.codec.match(bson.M(query))}
	a.debug(ctx, "modify info", filter, update)
	return a.client.UpdateOne(ctx, a.collection, filter, update)
}

func (a *Accessor) create(ctx context.Context, id, p any, exclude list.Params) (list.UpdateResult, error) {
	filter := bson.M{"_id": id}
	if g := a.codec.guard(p, exclude); g != nil {
		filter[a.field] = g
	}
	update := bson.M{
		"$push": bson.M{a.field: p},
		"$set":  bson.M{modifiedField: a.now()},
	}
	a.debug(ctx, "create element", filter, update)
	res, err := a.client.UpdateOne(ctx, a.collection, filter, update)
	if err != nil {
		return list.UpdateResult{}, err
	}
	if res.MatchedCount < 1 {
		return res, list.ErrConflict
	}
	return res, nil
}

func (a *Accessor) read(ctx context.Context, id, q any) (any, error) {
	filter := bson.M{"_id": id, a.field: a.codec.match(q)}
	projection := bson.M{a.field + ".$": 1}
	a.debug(ctx, "read element", filter, projection)
	res, err := a.client.FindOne(ctx, a.collection, filter, projection)
	if err != nil {
		if errors.Is(err, list.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return firstElement(res[a.field]), nil
}

func (a *Accessor) update(ctx context.Context, id, q, p any, exclude list.Params) (list.UpdateResult, error) {
	set, err := a.codec.set(a.field, p)
	if err != nil {
		return list.UpdateResult{}, err
	}
	set[modifiedField] = a.now()
	filter := bson.M{"_id": id}
	if g := a.codec.guard(p, exclude); g != nil {
		filter["$and"] = []bson.M{
			{a.field: a.codec.match(q)},
			{a.field: g},
		}
	} else {
		filter[a.field] = a.codec.match(q)
	}
	update := bson.M{"$set": set}
	a.debug(ctx, "update element", filter, update)
	return a.client.UpdateOne(ctx, a.collection, filter, update)
}

func (a *Accessor) delete(ctx context.Context, id, q any) (list.UpdateResult, error) {
	filter := bson.M{"_id": id}
	update := bson.M{
		"$pull": bson.M{a.field: q},
		"$set":  bson.M{modifiedField: a.now()},
	}
	a.debug(ctx, "delete elements", filter, update)
	res, err := a.client.UpdateOne(ctx, a.collection, filter, update)
	if err != nil {
		return list.UpdateResult{}, err
	}
	if err := a.recalcCompliance(ctx, id); err != nil {
		log.Error(ctx, err,
			log.KV{K: "msg", V: "session compliance follow-up failed"},
			log.KV{K: "collection", V: a.collection},
			log.KV{K: "id", V: id})
		return res, fmt.Errorf("%w: %w", list.ErrCompliance, err)
	}
	return res, nil
}

// recalcCompliance asks for the owning session's compliance to be recomputed
// after files were removed from a session or an acquisition.
func (a *Accessor) recalcCompliance(ctx context.Context, id any) error {
	if a.compliance == nil || a.field != filesList {
		return nil
	}
	var sessionID any
	switch a.collection {
	case sessionsColl:
		sessionID = id
	case acquisColl:
		sid, err := a.sessions.SessionOf(ctx, id)
		if err != nil {
			return err
		}
		sessionID = sid
	default:
		return nil
	}
	return a.compliance.RecalcSessionCompliance(ctx, sessionID)
}

func (a *Accessor) parseID(id string) (any, error) {
	if a.ids == list.IDString {
		return id, nil
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", list.ErrInvalidID, id, err)
	}
	return oid, nil
}

func (a *Accessor) attrs(action list.Action) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("list.collection", a.collection),
		attribute.String("list.name", a.field),
		attribute.String("list.action", string(action)),
	}
}

func (a *Accessor) finish(ctx context.Context, span trace.Span, action list.Action, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	attrs := append(a.attrs(action), attribute.String("list.outcome", outcome))
	a.ops.Add(ctx, 1, metric.WithAttributes(attrs...))
	span.End()
}

func (a *Accessor) debug(ctx context.Context, msg string, filter, update any) {
	log.Debug(ctx,
		log.KV{K: "msg", V: msg},
		log.KV{K: "collection", V: a.collection},
		log.KV{K: "list", V: a.field},
		log.KV{K: "filter", V: filter},
		log.KV{K: "update", V: update})
}

// requireParams enforces the params each action needs.
func requireParams(action list.Action, q, p any) error {
	needQuery := action != list.ActionCreate
	needPayload := action == list.ActionCreate || action == list.ActionUpdate
	if needQuery && q == nil {
		return fmt.Errorf("%w: %s requires a query", list.ErrInvalidArgument, action)
	}
	if needPayload && p == nil {
		return fmt.Errorf("%w: %s requires a payload", list.ErrInvalidArgument, action)
	}
	return nil
}

func firstElement(v any) any {
	switch els := v.(type) {
	case bson.A:
		if len(els) > 0 {
			return els[0]
		}
	case []any:
		if len(els) > 0 {
			return els[0]
		}
	}
	return nil
}
