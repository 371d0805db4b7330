package wire

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind discriminates the two envelope shapes.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindRequest
	KindResponse
)

// RouteUnknown is the routing key for messages that match neither shape.
const RouteUnknown = "unknown"

var errBadEnvelope = errors.New("wire: malformed envelope")

// Envelope is the tagged union over the request and response shapes.
// Params is set for requests, Payload for responses and events.
type Envelope struct {
	Kind      Kind
	RequestID uint64
	Method    string
	Params    json.RawMessage
	Payload   json.RawMessage
	Timestamp uint64 // unix milliseconds, requests only

	// Type carries the top-level "type" field of an unrecognised shape, used
	// only for routing.
	Type string
}

// RoutingKey derives the fan-out key: the method name for a response
// envelope, the "type" field for any other shape, else RouteUnknown.
func (e Envelope) RoutingKey() string {
	switch {
	case e.Kind == KindResponse:
		return e.Method
	case e.Type != "":
		return e.Type
	default:
		return RouteUnknown
	}
}

type envelopeJSON struct {
	Req  json.RawMessage `json:"req,omitempty"`
	Res  json.RawMessage `json:"res,omitempty"`
	Type string          `json:"type,omitempty"`
}

// MarshalJSON renders the positional-array wire form.
func (e Envelope) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case KindRequest:
		params := e.Params
		if params == nil {
			params = json.RawMessage(`{}`)
		}
		tuple, err := json.Marshal([]any{e.RequestID, e.Method, params, e.Timestamp})
		if err != nil {
			return nil, err
		}
		return json.Marshal(envelopeJSON{Req: tuple})
	case KindResponse:
		payload := e.Payload
		if payload == nil {
			payload = json.RawMessage(`{}`)
		}
		tuple, err := json.Marshal([]any{e.RequestID, e.Method, payload})
		if err != nil {
			return nil, err
		}
		return json.Marshal(envelopeJSON{Res: tuple})
	default:
		return nil, fmt.Errorf("wire: cannot marshal envelope of kind %d", e.Kind)
	}
}

// UnmarshalJSON parses either wire shape, validating arity and field types.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var raw envelopeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.Req != nil:
		id, method, body, ts, err := parseTuple(raw.Req, true)
		if err != nil {
			return err
		}
		*e = Envelope{Kind: KindRequest, RequestID: id, Method: method, Params: body, Timestamp: ts}
	case raw.Res != nil:
		id, method, body, _, err := parseTuple(raw.Res, false)
		if err != nil {
			return err
		}
		*e = Envelope{Kind: KindResponse, RequestID: id, Method: method, Payload: body}
	default:
		*e = Envelope{Kind: KindUnknown, Type: raw.Type}
	}
	return nil
}

// parseTuple validates [id, method, body] or [id, method, body, timestamp].
func parseTuple(raw json.RawMessage, wantTimestamp bool) (id uint64, method string, body json.RawMessage, ts uint64, err error) {
	var parts []json.RawMessage
	if err = json.Unmarshal(raw, &parts); err != nil {
		return 0, "", nil, 0, errBadEnvelope
	}
	want := 3
	if wantTimestamp {
		want = 4
	}
	if len(parts) != want {
		return 0, "", nil, 0, fmt.Errorf("%w: got %d elements, want %d", errBadEnvelope, len(parts), want)
	}
	if err = json.Unmarshal(parts[0], &id); err != nil {
		return 0, "", nil, 0, fmt.Errorf("%w: bad request id", errBadEnvelope)
	}
	if err = json.Unmarshal(parts[1], &method); err != nil {
		return 0, "", nil, 0, fmt.Errorf("%w: bad method", errBadEnvelope)
	}
	body = parts[2]
	if wantTimestamp {
		if err = json.Unmarshal(parts[3], &ts); err != nil {
			return 0, "", nil, 0, fmt.Errorf("%w: bad timestamp", errBadEnvelope)
		}
	}
	return id, method, body, ts, nil
}

// Decode parses one inbound frame. Callers treat a non-nil error as an
// unroutable message rather than a fault; the zero Envelope routes under
// RouteUnknown.
func Decode(data []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return Envelope{}, err
	}
	return e, nil
}

// NewRequest builds a request envelope with a fresh correlation id and the
// current timestamp.
func NewRequest(method string, params any) (Envelope, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		Kind:      KindRequest,
		RequestID: NextID(),
		Method:    method,
		Params:    raw,
		Timestamp: nowMillis(),
	}, nil
}
