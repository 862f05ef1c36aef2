package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

type (
	topicMap  = orderedmap.OrderedMap[string, *Record]
	seasonMap = orderedmap.OrderedMap[string, *topicMap]
	ageMap    = orderedmap.OrderedMap[string, *seasonMap]
)

// Tree is the age → season → topic → record hierarchy. All levels keep
// insertion order.
type Tree struct {
	ages *ageMap
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{ages: orderedmap.New[string, *seasonMap]()}
}

// DecodeTree parses a menu document and migrates every record.
func DecodeTree(data []byte) (*Tree, error) {
	if !json.Valid(data) {
		return nil, errInvalidJSON
	}
	ages, err := decodeLevel(data, func(age string, raw json.RawMessage) (*seasonMap, error) {
		seasons, err := decodeLevel(raw, func(season string, raw json.RawMessage) (*topicMap, error) {
			topics, err := decodeLevel(raw, func(topic string, raw json.RawMessage) (*Record, error) {
				r, err := MigrateRecord(raw)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", topic, err)
				}
				return &r, nil
			})
			if err != nil {
				return nil, fmt.Errorf("%s: %w", season, err)
			}
			return topics, nil
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", age, err)
		}
		return seasons, nil
	})
	if err != nil {
		return nil, err
	}
	return &Tree{ages: ages}, nil
}

// Encode renders the tree as indented JSON with keys in insertion order and
// without escaping HTML or non-ASCII text.
func (t *Tree) Encode() ([]byte, error) {
	var compact bytes.Buffer
	err := encodeLevel(&compact, t.ages, func(buf *bytes.Buffer, seasons *seasonMap) error {
		return encodeLevel(buf, seasons, func(buf *bytes.Buffer, topics *topicMap) error {
			return encodeLevel(buf, topics, func(buf *bytes.Buffer, r *Record) error {
				return r.encode(buf)
			})
		})
	})
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// Clone returns a deep copy.
func (t *Tree) Clone() *Tree {
	c := NewTree()
	for a := t.ages.Oldest(); a != nil; a = a.Next() {
		cs := orderedmap.New[string, *topicMap]()
		for s := a.Value.Oldest(); s != nil; s = s.Next() {
			ct := orderedmap.New[string, *Record]()
			for tp := s.Value.Oldest(); tp != nil; tp = tp.Next() {
				r := tp.Value.clone()
				ct.Set(tp.Key, &r)
			}
			cs.Set(s.Key, ct)
		}
		c.ages.Set(a.Key, cs)
	}
	return c
}

// Ages lists the age categories in menu order.
func (t *Tree) Ages() []string {
	return keysOf(t.ages)
}

// Seasons lists the seasons of age in menu order.
func (t *Tree) Seasons(age string) ([]string, error) {
	seasons, err := t.seasons(age)
	if err != nil {
		return nil, err
	}
	return keysOf(seasons), nil
}

// Topics lists the topic titles of age/season in menu order.
func (t *Tree) Topics(age, season string) ([]string, error) {
	topics, err := t.topics(age, season)
	if err != nil {
		return nil, err
	}
	return keysOf(topics), nil
}

// Record returns a copy of the addressed record.
func (t *Tree) Record(age, season, topic string) (Record, error) {
	r, err := t.record(age, season, topic)
	if err != nil {
		return Record{}, err
	}
	r.normalize()
	return r.clone(), nil
}

// AddSeason creates age and season if they are missing. Ages and seasons
// are curated outside the chat flows; this is for seeding and tooling.
func (t *Tree) AddSeason(age, season string) {
	seasons, ok := t.ages.Get(age)
	if !ok {
		seasons = orderedmap.New[string, *topicMap]()
		t.ages.Set(age, seasons)
	}
	if _, ok := seasons.Get(season); !ok {
		seasons.Set(season, orderedmap.New[string, *Record]())
	}
}

func (t *Tree) seasons(age string) (*seasonMap, error) {
	seasons, ok := t.ages.Get(age)
	if !ok {
		return nil, notFound(LevelAge, age)
	}
	return seasons, nil
}

func (t *Tree) topics(age, season string) (*topicMap, error) {
	seasons, err := t.seasons(age)
	if err != nil {
		return nil, err
	}
	topics, ok := seasons.Get(season)
	if !ok {
		return nil, notFound(LevelSeason, season)
	}
	return topics, nil
}

func (t *Tree) record(age, season, topic string) (*Record, error) {
	topics, err := t.topics(age, season)
	if err != nil {
		return nil, err
	}
	r, ok := topics.Get(topic)
	if !ok {
		return nil, notFound(LevelTopic, topic)
	}
	return r, nil
}

func (t *Tree) message(age, season, topic string, index int) (*Record, error) {
	r, err := t.record(age, season, topic)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(r.Messages) {
		return nil, notFound(LevelMessage, strconv.Itoa(index))
	}
	return r, nil
}

// Stats summarizes the size of a tree.
type Stats struct {
	Ages     int
	Seasons  int
	Topics   int
	Messages int
}

// Stats counts every level of the tree.
func (t *Tree) Stats() Stats {
	var s Stats
	s.Ages = t.ages.Len()
	for a := t.ages.Oldest(); a != nil; a = a.Next() {
		s.Seasons += a.Value.Len()
		for ss := a.Value.Oldest(); ss != nil; ss = ss.Next() {
			s.Topics += ss.Value.Len()
			for tp := ss.Value.Oldest(); tp != nil; tp = tp.Next() {
				s.Messages += len(tp.Value.Messages)
			}
		}
	}
	return s
}
