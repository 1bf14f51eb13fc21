package mongo

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/imaging-api/containerlists/runtime/list"
)

// codec captures how list elements are represented and matched. Structured
// lists hold documents matched with $elemMatch; scalar lists hold bare values
// matched by equality.
type codec interface {
	// unwrap converts caller params into the stored representation. Absent
	// params come back as untyped nil.
	unwrap(query, payload list.Params) (q, p any, err error)
	// match is the list clause selecting an element equal to q.
	match(q any) any
	// guard is the list clause rejecting duplicates of p or exclude, nil when
	// no guard applies.
	guard(p any, exclude list.Params) any
	// set returns the positional $set fields writing p into the matched
	// element of field.
	set(field string, p any) (bson.M, error)
	// containerView returns the list clause and projection used to load a
	// container for permission checks.
	containerView(field string, q any) (clause any, projection bson.M)
	// info reports whether elements carry an info map.
	info() bool
}

type (
	structuredCodec struct{}
	scalarCodec     struct{}
)

func (structuredCodec) unwrap(query, payload list.Params) (any, any, error) {
	return doc(query), doc(payload), nil
}

func (structuredCodec) match(q any) any {
	return bson.M{"$elemMatch": q}
}

func (structuredCodec) guard(_ any, exclude list.Params) any {
	if exclude == nil {
		return nil
	}
	return bson.M{"$not": bson.M{"$elemMatch": bson.M(exclude)}}
}

func (structuredCodec) set(field string, p any) (bson.M, error) {
	fields, ok := p.(bson.M)
	if !ok {
		return nil, fmt.Errorf("%w: payload must be a document, got %T", list.ErrInvalidArgument, p)
	}
	out := make(bson.M, len(fields)+1)
	for k, v := range fields {
		out[field+".$."+k] = v
	}
	return out, nil
}

func (c structuredCodec) containerView(field string, q any) (any, bson.M) {
	if q == nil {
		return nil, nil
	}
	return c.match(q), containerProjection(field + ".$")
}

func (structuredCodec) info() bool { return true }

func (scalarCodec) unwrap(query, payload list.Params) (any, any, error) {
	var q, p any
	if query != nil {
		v, ok := query["value"]
		if !ok {
			return nil, nil, fmt.Errorf("%w: query key \"value\" should be defined", list.ErrInvalidArgument)
		}
		q = v
	}
	if payload != nil {
		p = payload["value"]
		if p == nil {
			return nil, nil, fmt.Errorf("%w: payload key \"value\" should be defined", list.ErrInvalidArgument)
		}
	}
	return q, p, nil
}

func (scalarCodec) match(q any) any {
	return q
}

func (scalarCodec) guard(p any, _ list.Params) any {
	if p == nil {
		return nil
	}
	return bson.M{"$ne": p}
}

func (scalarCodec) set(field string, p any) (bson.M, error) {
	return bson.M{field + ".$": p}, nil
}

func (scalarCodec) containerView(field string, _ any) (any, bson.M) {
	return nil, containerProjection(field)
}

func (scalarCodec) info() bool { return false }

func containerProjection(listField string) bson.M {
	return bson.M{listField: 1, "permissions": 1, "public": 1}
}

func doc(p list.Params) any {
	if p == nil {
		return nil
	}
	return bson.M(p)
}
