package gateway

import (
	"bytes"
	"encoding/json"
	"net/http"

	internalerrors "github.com/jrsteele09/go-intercom-bridge/internal/errors"
	"github.com/pkg/errors"
)

// Envelope names the response shape a Result was unwrapped from.
type Envelope string

const (
	EnvelopeNone    Envelope = ""
	EnvelopeResult  Envelope = "result"
	EnvelopeCode    Envelope = "code"
	EnvelopeErrCode Envelope = "err_code"
)

// Result is a normalised upstream payload.
type Result struct {
	Data     json.RawMessage
	Envelope Envelope
}

// Empty reports whether the result carries no usable data. The upstream's
// "no data yet" marker and empty collections are both empty.
func (r Result) Empty() bool {
	d := bytes.TrimSpace(r.Data)
	switch string(d) {
	case "", "null", "[]", "{}", `""`:
		return true
	}
	return false
}

// Decode unmarshals the payload into out.
func (r Result) Decode(out any) error {
	if r.Empty() {
		return errors.Wrap(internalerrors.ErrProtocol, "[Result.Decode] empty result")
	}
	return errors.Wrap(json.Unmarshal(r.Data, out), "[Result.Decode]")
}

// Object decodes the payload as a JSON object.
func (r Result) Object() (map[string]any, error) {
	var m map[string]any
	if err := r.Decode(&m); err != nil {
		return nil, err
	}
	return m, nil
}

// Normalise maps the upstream's envelope shapes onto a single Result:
//
//	{result:0, datas:X} -> X        {result:0} -> body
//	{code:0, data:X}    -> X        {code:0}   -> body
//	{code:N}            -> empty    {err_code:"0"} -> body
//
// Anything else is ErrProtocol.
func Normalise(status int, body []byte) (Result, error) {
	if status != http.StatusOK {
		return Result{}, errors.Wrapf(internalerrors.ErrProtocol, "[Normalise] http status %d", status)
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return Result{}, errors.Wrapf(internalerrors.ErrProtocol, "[Normalise] parsing body: %v", err)
	}

	if raw, ok := envelope["result"]; ok && isZero(raw) {
		if datas, ok := envelope["datas"]; ok {
			return Result{Data: datas, Envelope: EnvelopeResult}, nil
		}
		return Result{Data: body, Envelope: EnvelopeResult}, nil
	}

	if raw, ok := envelope["code"]; ok {
		if !isZero(raw) {
			return Result{Envelope: EnvelopeCode}, nil
		}
		if data, ok := envelope["data"]; ok {
			return Result{Data: data, Envelope: EnvelopeCode}, nil
		}
		return Result{Data: body, Envelope: EnvelopeCode}, nil
	}

	if raw, ok := envelope["err_code"]; ok && isZero(raw) {
		return Result{Data: body, Envelope: EnvelopeErrCode}, nil
	}

	return Result{}, errors.Wrap(internalerrors.ErrProtocol, "[Normalise] unrecognised envelope")
}

// isZero accepts 0 and "0", the upstream uses both.
func isZero(raw json.RawMessage) bool {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case float64:
		return t == 0
	case string:
		return t == "0"
	}
	return false
}
