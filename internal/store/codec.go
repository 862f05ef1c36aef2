package store

import (
	"bytes"
	"encoding/json"
	"errors"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var errInvalidJSON = errors.New("invalid JSON")

// decodeLevel decodes one JSON object in document order, converting each
// member with fn. Anything but an object is an error.
func decodeLevel[V any](data []byte, fn func(key string, raw json.RawMessage) (V, error)) (*orderedmap.OrderedMap[string, V], error) {
	raws := orderedmap.New[string, json.RawMessage]()
	if err := raws.UnmarshalJSON(bytes.TrimSpace(data)); err != nil {
		return nil, err
	}
	out := orderedmap.New[string, V]()
	for p := raws.Oldest(); p != nil; p = p.Next() {
		v, err := fn(p.Key, p.Value)
		if err != nil {
			return nil, err
		}
		out.Set(p.Key, v)
	}
	return out, nil
}

// keysOf lists the keys of m in insertion order.
func keysOf[V any](m *orderedmap.OrderedMap[string, V]) []string {
	out := make([]string, 0, m.Len())
	for p := m.Oldest(); p != nil; p = p.Next() {
		out = append(out, p.Key)
	}
	return out
}

// encodeLevel appends m as a compact JSON object. OrderedMap.MarshalJSON
// passes values through json.Marshal, which escapes <, > and &; topic text
// is Telegram HTML and is written verbatim instead.
func encodeLevel[V any](buf *bytes.Buffer, m *orderedmap.OrderedMap[string, V], fn func(buf *bytes.Buffer, v V) error) error {
	buf.WriteByte('{')
	for p, first := m.Oldest(), true; p != nil; p, first = p.Next(), false {
		if !first {
			buf.WriteByte(',')
		}
		if err := encodeValue(buf, p.Key); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := fn(buf, p.Value); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

// encodeValue appends v as compact JSON without HTML escaping.
func encodeValue(buf *bytes.Buffer, v any) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}
