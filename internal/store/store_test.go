package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMenu = `{
  "3-4 years": {
    "Winter": {
      "Snow <fun>": {"text": "Build a snowman & sing"},
      "Colds": {"messages": ["Wear a scarf", "Drink tea"], "media": [], "links": []}
    },
    "Spring": {}
  },
  "5-6 years": {
    "Summer": {
      "Sun": {"messages": []}
    }
  }
}`

func writeMenu(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "menu_data.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func openSample(t *testing.T) *Store {
	t.Helper()
	s, err := Open(writeMenu(t, sampleMenu))
	require.NoError(t, err)
	return s
}

func TestOpen_MissingFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "menu.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if len(s.Ages()) != 0 {
		t.Errorf("expected empty tree, got ages %v", s.Ages())
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Open must not create the file, stat err = %v", err)
	}

	require.NoError(t, s.AddSeason("7+", "Autumn"))
	require.NoError(t, s.PutTopic("7+", "Autumn", "Leaves", "Collect leaves"))
	_, err = os.Stat(path)
	assert.NoError(t, err, "first save creates the file")
}

func TestOpen_Corrupt(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "empty file", content: ""},
		{name: "not json", content: "{menu"},
		{name: "top-level array", content: `[]`},
		{name: "season is a string", content: `{"a": {"s": "x"}}`},
		{name: "age is null", content: `{"a": null}`},
		{name: "record is a list", content: `{"a": {"s": {"t": [1]}}}`},
		{name: "trailing data", content: `{} {}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(writeMenu(t, tt.content))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrCorrupt))
			var ce *CorruptStoreError
			assert.True(t, errors.As(err, &ce))
		})
	}
}

func TestOpen_MigratesAndKeepsOrder(t *testing.T) {
	s := openSample(t)

	assert.Equal(t, []string{"3-4 years", "5-6 years"}, s.Ages())
	assert.Equal(t, []string{"Winter", "Spring"}, s.Seasons("3-4 years"))
	assert.Equal(t, []string{"Snow <fun>", "Colds"}, s.Topics("3-4 years", "Winter"))
	assert.Empty(t, s.Topics("3-4 years", "Spring"))
	assert.Nil(t, s.Seasons("missing"))
	assert.Nil(t, s.Topics("3-4 years", "missing"))

	r, ok := s.Get("3-4 years", "Winter", "Snow <fun>")
	require.True(t, ok)
	assert.Equal(t, []string{"Build a snowman & sing"}, r.Messages)
	assert.NotNil(t, r.Media)
	assert.NotNil(t, r.Links)

	r, ok = s.Get("5-6 years", "Summer", "Sun")
	require.True(t, ok)
	assert.Empty(t, r.Messages)

	assert.True(t, s.HasAge("5-6 years"))
	assert.False(t, s.HasAge("9 years"))
	assert.True(t, s.HasSeason("3-4 years", "Spring"))
	assert.False(t, s.HasSeason("5-6 years", "Spring"))
}

func TestGet_ReturnsCopy(t *testing.T) {
	s := openSample(t)

	r, _ := s.Get("3-4 years", "Winter", "Colds")
	r.Messages[0] = "changed"

	again, _ := s.Get("3-4 years", "Winter", "Colds")
	assert.Equal(t, "Wear a scarf", again.Messages[0])
}

func TestSave_Format(t *testing.T) {
	path := filepath.Join(t.TempDir(), "menu.json")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.AddSeason("Вік 3-4", "Зима"))
	require.NoError(t, s.PutTopic("Вік 3-4", "Зима", "<b>Сніг</b>", "a & b"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	want := `{
  "Вік 3-4": {
    "Зима": {
      "<b>Сніг</b>": {
        "messages": [
          "a & b"
        ],
        "media": [],
        "links": []
      }
    }
  }
}
`
	assert.Equal(t, want, string(data))
}

func TestSave_RoundTrip(t *testing.T) {
	s := openSample(t)
	require.NoError(t, s.Save())

	reopened, err := Open(s.Path())
	require.NoError(t, err)

	if diff := cmp.Diff(s.Snapshot().dump(), reopened.Snapshot().dump()); diff != "" {
		t.Errorf("round trip mismatch (-before +after):\n%s", diff)
	}

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"text"`, "legacy key is not written back")
}

func TestSave_KeepsUnknownRecordMembers(t *testing.T) {
	path := writeMenu(t, `{"A": {"S": {"T": {"messages": ["m"], "audience": "parents", "v": 2}}}}`)
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.AppendMessage("A", "S", "T", "n"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"audience": "parents",`)
	assert.Contains(t, string(data), `"v": 2`)

	rec, ok := s.Get("A", "S", "T")
	require.True(t, ok)
	assert.Equal(t, []string{"m", "n"}, rec.Messages)
}

func TestSave_KeepsInsertionOrderAtEveryLevel(t *testing.T) {
	var names []string
	for i := 0; i < 40; i++ {
		names = append(names, fmt.Sprintf("k%02d", (i*17)%40))
	}
	s, err := Open(filepath.Join(t.TempDir(), "menu.json"))
	require.NoError(t, err)
	for _, n := range names {
		require.NoError(t, s.AddSeason(n, n))
		require.NoError(t, s.PutTopic(names[0], names[0], n, "x"))
	}

	reopened, err := Open(s.Path())
	require.NoError(t, err)
	assert.Equal(t, names, reopened.Ages())
	assert.Equal(t, names, reopened.Topics(names[0], names[0]))
}

func TestSave_NonAtomic(t *testing.T) {
	path := writeMenu(t, sampleMenu)
	s, err := Open(path, WithAtomicWrite(false))
	require.NoError(t, err)
	require.NoError(t, s.AppendMessage("3-4 years", "Winter", "Colds", "Sleep"))

	reopened, err := Open(path)
	require.NoError(t, err)
	r, _ := reopened.Get("3-4 years", "Winter", "Colds")
	assert.Equal(t, []string{"Wear a scarf", "Drink tea", "Sleep"}, r.Messages)
}

func TestPutTopic(t *testing.T) {
	t.Run("creates at the end", func(t *testing.T) {
		s := openSample(t)
		require.NoError(t, s.PutTopic("3-4 years", "Winter", "Skates", "Careful on ice"))

		assert.Equal(t, []string{"Snow <fun>", "Colds", "Skates"}, s.Topics("3-4 years", "Winter"))
		r, _ := s.Get("3-4 years", "Winter", "Skates")
		assert.Equal(t, []string{"Careful on ice"}, r.Messages)
	})

	t.Run("overwrites only the first message", func(t *testing.T) {
		s := openSample(t)
		require.NoError(t, s.PutTopic("3-4 years", "Winter", "Colds", "Wash hands"))

		r, _ := s.Get("3-4 years", "Winter", "Colds")
		assert.Equal(t, []string{"Wash hands", "Drink tea"}, r.Messages)
		assert.Equal(t, []string{"Snow <fun>", "Colds"}, s.Topics("3-4 years", "Winter"))
	})

	t.Run("appends when empty", func(t *testing.T) {
		s := openSample(t)
		require.NoError(t, s.PutTopic("5-6 years", "Summer", "Sun", "Use sunscreen"))

		r, _ := s.Get("5-6 years", "Summer", "Sun")
		assert.Equal(t, []string{"Use sunscreen"}, r.Messages)
	})

	t.Run("unknown season", func(t *testing.T) {
		s := openSample(t)
		err := s.PutTopic("3-4 years", "Autumn", "Leaves", "x")
		assert.ErrorIs(t, err, ErrNotFound)
		var nf *NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, LevelSeason, nf.Level)
	})
}

func TestDeleteTopic(t *testing.T) {
	s := openSample(t)
	require.NoError(t, s.DeleteTopic("3-4 years", "Winter", "Snow <fun>"))
	assert.Equal(t, []string{"Colds"}, s.Topics("3-4 years", "Winter"))

	err := s.DeleteTopic("3-4 years", "Winter", "Snow <fun>")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRenameTopic(t *testing.T) {
	t.Run("moves to the end with content", func(t *testing.T) {
		s := openSample(t)
		require.NoError(t, s.RenameTopic("3-4 years", "Winter", "Snow <fun>", "Snow games"))

		assert.Equal(t, []string{"Colds", "Snow games"}, s.Topics("3-4 years", "Winter"))
		r, ok := s.Get("3-4 years", "Winter", "Snow games")
		require.True(t, ok)
		assert.Equal(t, []string{"Build a snowman & sing"}, r.Messages)
		_, ok = s.Get("3-4 years", "Winter", "Snow <fun>")
		assert.False(t, ok)
	})

	t.Run("same title is a no-op", func(t *testing.T) {
		s := openSample(t)
		before := s.Persisted()
		require.NoError(t, s.RenameTopic("3-4 years", "Winter", "Colds", "Colds"))
		assert.Equal(t, []string{"Snow <fun>", "Colds"}, s.Topics("3-4 years", "Winter"))
		assert.Equal(t, before, s.Persisted())
	})

	t.Run("taken title conflicts", func(t *testing.T) {
		s := openSample(t)
		err := s.RenameTopic("3-4 years", "Winter", "Colds", "Snow <fun>")
		assert.ErrorIs(t, err, ErrConflict)

		r, _ := s.Get("3-4 years", "Winter", "Snow <fun>")
		assert.Equal(t, []string{"Build a snowman & sing"}, r.Messages, "target untouched")
		assert.Equal(t, []string{"Snow <fun>", "Colds"}, s.Topics("3-4 years", "Winter"))
	})

	t.Run("missing topic", func(t *testing.T) {
		s := openSample(t)
		assert.ErrorIs(t, s.RenameTopic("3-4 years", "Winter", "Nope", "X"), ErrNotFound)
		assert.ErrorIs(t, s.RenameTopic("3-4 years", "Winter", "Nope", "Nope"), ErrNotFound)
	})
}

func TestMessageOperations(t *testing.T) {
	s := openSample(t)
	const age, season, topic = "3-4 years", "Winter", "Colds"

	require.NoError(t, s.AppendMessage(age, season, topic, "Sleep well"))
	r, _ := s.Get(age, season, topic)
	assert.Equal(t, []string{"Wear a scarf", "Drink tea", "Sleep well"}, r.Messages)

	require.NoError(t, s.ReplaceMessage(age, season, topic, 1, "Drink warm tea"))
	r, _ = s.Get(age, season, topic)
	assert.Equal(t, []string{"Wear a scarf", "Drink warm tea", "Sleep well"}, r.Messages)

	require.NoError(t, s.DeleteMessage(age, season, topic, 0))
	r, _ = s.Get(age, season, topic)
	assert.Equal(t, []string{"Drink warm tea", "Sleep well"}, r.Messages)

	for _, idx := range []int{-1, 2, 10} {
		assert.ErrorIs(t, s.ReplaceMessage(age, season, topic, idx, "x"), ErrNotFound)
		assert.ErrorIs(t, s.DeleteMessage(age, season, topic, idx), ErrNotFound)
	}
	assert.ErrorIs(t, s.AppendMessage(age, season, "Nope", "x"), ErrNotFound)

	reopened, err := Open(s.Path())
	require.NoError(t, err)
	r, _ = reopened.Get(age, season, topic)
	assert.Equal(t, []string{"Drink warm tea", "Sleep well"}, r.Messages, "every mutation is persisted")
}

func TestMutate_RollsBackOnSaveFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "menu.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleMenu), 0644))
	s, err := Open(path)
	require.NoError(t, err)

	// A directory in place of the file makes the rename fail.
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.Mkdir(path, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(path, "keep"), nil, 0644))

	err = s.AppendMessage("3-4 years", "Winter", "Colds", "lost")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	r, _ := s.Get("3-4 years", "Winter", "Colds")
	assert.Equal(t, []string{"Wear a scarf", "Drink tea"}, r.Messages)
}

func TestReload(t *testing.T) {
	s := openSample(t)

	changed, err := s.Reload()
	require.NoError(t, err)
	assert.False(t, changed, "unchanged bytes are skipped")

	notified := 0
	s.OnChange(func() { notified++ })

	require.NoError(t, os.WriteFile(s.Path(), []byte(`{"New": {"Season": {}}}`), 0644))
	changed, err = s.Reload()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"New"}, s.Ages())
	assert.Equal(t, 1, notified)

	require.NoError(t, os.WriteFile(s.Path(), []byte(`{broken`), 0644))
	_, err = s.Reload()
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.Equal(t, []string{"New"}, s.Ages(), "corrupt reload keeps the tree")

	require.NoError(t, s.AddSeason("New", "Other"))
	changed, err = s.Reload()
	require.NoError(t, err)
	assert.False(t, changed, "own save is not a change")
}

func TestStats(t *testing.T) {
	s := openSample(t)
	assert.Equal(t, Stats{Ages: 2, Seasons: 3, Topics: 3, Messages: 3}, s.Stats())
}

// dump flattens a tree for comparison.
func (t *Tree) dump() []string {
	var out []string
	for _, age := range t.Ages() {
		out = append(out, age)
		seasons, _ := t.Seasons(age)
		for _, season := range seasons {
			out = append(out, age+"/"+season)
			topics, _ := t.Topics(age, season)
			for _, topic := range topics {
				r, _ := t.Record(age, season, topic)
				out = append(out, age+"/"+season+"/"+topic)
				out = append(out, r.Messages...)
			}
		}
	}
	return out
}
