package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Record is the content of one topic. Media and Links are reserved and kept
// verbatim, as are any members this version does not know (Extra, nil when
// there are none).
type Record struct {
	Messages []string
	Media    []json.RawMessage
	Links    []json.RawMessage
	Extra    *orderedmap.OrderedMap[string, json.RawMessage]
}

// MigrateRecord decodes a topic record, upgrading the legacy {"text": "..."}
// form. A record without "messages" gets [text] when text is a non-empty
// string and [] otherwise; media and links default to []. null decodes to
// the empty record. The legacy text member is consumed; other unknown
// members are kept in document order. Applying it to its own output is a
// no-op.
func MigrateRecord(raw json.RawMessage) (Record, error) {
	var r Record
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		r.normalize()
		return r, nil
	}

	fields := orderedmap.New[string, json.RawMessage]()
	if err := fields.UnmarshalJSON(raw); err != nil {
		return Record{}, fmt.Errorf("topic record: %w", err)
	}

	var text json.RawMessage
	for p := fields.Oldest(); p != nil; p = p.Next() {
		var err error
		switch p.Key {
		case "messages":
			err = json.Unmarshal(p.Value, &r.Messages)
		case "media":
			err = json.Unmarshal(p.Value, &r.Media)
		case "links":
			err = json.Unmarshal(p.Value, &r.Links)
		case "text":
			text = p.Value
		default:
			if r.Extra == nil {
				r.Extra = orderedmap.New[string, json.RawMessage]()
			}
			r.Extra.Set(p.Key, p.Value)
		}
		if err != nil {
			return Record{}, fmt.Errorf("topic record %q: %w", p.Key, err)
		}
	}

	// absent or null messages fall back to the legacy text
	if r.Messages == nil {
		var s string
		if len(text) > 0 && json.Unmarshal(text, &s) == nil && s != "" {
			r.Messages = []string{s}
		}
	}
	r.normalize()
	return r, nil
}

// normalize guarantees all three sequences are present.
func (r *Record) normalize() {
	if r.Messages == nil {
		r.Messages = []string{}
	}
	if r.Media == nil {
		r.Media = []json.RawMessage{}
	}
	if r.Links == nil {
		r.Links = []json.RawMessage{}
	}
}

func (r *Record) clone() Record {
	c := Record{
		Messages: append([]string{}, r.Messages...),
		Media:    make([]json.RawMessage, len(r.Media)),
		Links:    make([]json.RawMessage, len(r.Links)),
	}
	for i, m := range r.Media {
		c.Media[i] = append(json.RawMessage{}, m...)
	}
	for i, l := range r.Links {
		c.Links[i] = append(json.RawMessage{}, l...)
	}
	if r.Extra != nil {
		c.Extra = orderedmap.New[string, json.RawMessage]()
		for p := r.Extra.Oldest(); p != nil; p = p.Next() {
			c.Extra.Set(p.Key, append(json.RawMessage{}, p.Value...))
		}
	}
	return c
}

// MarshalJSON writes the current format: messages, media, links, then any
// kept unknown members.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := r.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *Record) encode(buf *bytes.Buffer) error {
	n := *r
	n.normalize()

	buf.WriteString(`{"messages":`)
	if err := encodeValue(buf, n.Messages); err != nil {
		return err
	}
	buf.WriteString(`,"media":`)
	if err := encodeRaw(buf, n.Media); err != nil {
		return err
	}
	buf.WriteString(`,"links":`)
	if err := encodeRaw(buf, n.Links); err != nil {
		return err
	}
	if n.Extra != nil {
		for p := n.Extra.Oldest(); p != nil; p = p.Next() {
			buf.WriteByte(',')
			if err := encodeValue(buf, p.Key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := json.Compact(buf, p.Value); err != nil {
				return err
			}
		}
	}
	buf.WriteByte('}')
	return nil
}

func encodeRaw(buf *bytes.Buffer, items []json.RawMessage) error {
	buf.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := json.Compact(buf, item); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}
