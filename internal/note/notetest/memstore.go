// Package notetest provides an in-memory note store for tests.
package notetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"bulletnotes/internal/note/model"

	"github.com/google/uuid"
)

// MemStore mimics the postgres repository: ids and timestamps are assigned
// on create, updatedAt never moves backwards, and search matches any whole
// query word case-insensitively against the weighted fields. Stemming is
// limited to a trailing "s", quoted phrases are treated as separate words,
// and there are no stop words or negation.
type MemStore struct {
	mu    sync.Mutex
	notes map[string]model.Note
	clock time.Time

	// Calls counts every store operation, including failed ones.
	Calls int
	// Err, when set, is returned by every operation.
	Err error
}

func NewMemStore() *MemStore {
	return &MemStore{
		notes: make(map[string]model.Note),
		clock: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

// tick advances the fake clock so successive writes get distinct times.
func (m *MemStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *MemStore) begin() error {
	m.Calls++
	return m.Err
}

func (m *MemStore) List(ctx context.Context) ([]model.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(); err != nil {
		return nil, err
	}

	out := make([]model.Note, 0, len(m.notes))
	for _, n := range m.notes {
		out = append(out, clone(n))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemStore) Search(ctx context.Context, term string) ([]model.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(); err != nil {
		return nil, err
	}

	var words []string
	for _, w := range splitWords(term) {
		if w != "or" {
			words = append(words, w)
		}
	}
	type scored struct {
		note  model.Note
		score int
	}
	var hits []scored
	for _, n := range m.notes {
		if s := score(n, words); s > 0 {
			hits = append(hits, scored{note: clone(n), score: s})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].note.CreatedAt.After(hits[j].note.CreatedAt)
	})

	out := make([]model.Note, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.note)
	}
	return out, nil
}

func (m *MemStore) Get(ctx context.Context, id string) (*model.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(); err != nil {
		return nil, err
	}

	n, ok := m.notes[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	n = clone(n)
	return &n, nil
}

func (m *MemStore) Create(ctx context.Context, n model.Note) (*model.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(); err != nil {
		return nil, err
	}

	now := m.tick()
	n = clone(n)
	n.ID = uuid.NewString()
	n.CreatedAt = now
	n.UpdatedAt = now
	m.notes[n.ID] = n

	out := clone(n)
	return &out, nil
}

func (m *MemStore) Update(ctx context.Context, id string, mutate func(*model.Note) error) (*model.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(); err != nil {
		return nil, err
	}

	stored, ok := m.notes[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	working := clone(stored)
	if err := mutate(&working); err != nil {
		return nil, err
	}

	// Only the mutable fields are written back, as in the SQL update.
	stored.Subject = working.Subject
	stored.SubHeader = working.SubHeader
	stored.Content = append([]string(nil), working.Content...)
	if now := m.tick(); now.After(stored.UpdatedAt) {
		stored.UpdatedAt = now
	}
	m.notes[id] = stored

	out := clone(stored)
	return &out, nil
}

func (m *MemStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(); err != nil {
		return err
	}

	if _, ok := m.notes[id]; !ok {
		return model.ErrNotFound
	}
	delete(m.notes, id)
	return nil
}

// Len reports how many notes are stored.
func (m *MemStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.notes)
}

func clone(n model.Note) model.Note {
	n.Content = append([]string(nil), n.Content...)
	return n
}

func score(n model.Note, words []string) int {
	fields := []struct {
		text   string
		weight int
	}{
		{n.Subject, 10},
		{n.SubHeader, 5},
		{strings.Join(n.Content, " "), 1},
	}
	total := 0
	for _, f := range fields {
		text := splitWords(f.text)
		for _, w := range words {
			if containsWord(text, w) {
				total += f.weight
			}
		}
	}
	return total
}

func splitWords(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(c rune) bool {
		return !unicode.IsLetter(c) && !unicode.IsDigit(c)
	})
}

func containsWord(text []string, w string) bool {
	for _, t := range text {
		if stem(t) == stem(w) {
			return true
		}
	}
	return false
}

func stem(w string) string {
	if len(w) > 3 {
		return strings.TrimSuffix(w, "s")
	}
	return w
}
