package service

import (
	"context"
	"strings"

	"bulletnotes/internal/note/model"
)

// NoteStore is the persistence the service needs. The postgres repository
// implements it.
type NoteStore interface {
	List(ctx context.Context) ([]model.Note, error)
	Search(ctx context.Context, term string) ([]model.Note, error)
	Get(ctx context.Context, id string) (*model.Note, error)
	Create(ctx context.Context, n model.Note) (*model.Note, error)
	Update(ctx context.Context, id string, mutate func(*model.Note) error) (*model.Note, error)
	Delete(ctx context.Context, id string) error
}

type NoteService struct {
	Repo NoteStore
}

func NewNoteService(repo NoteStore) *NoteService {
	return &NoteService{Repo: repo}
}

// ListNotes returns every note newest first, or the notes matching search
// ranked by relevance when search is not blank.
func (s *NoteService) ListNotes(ctx context.Context, search string) ([]model.Note, error) {
	var (
		notes []model.Note
		err   error
	)
	if term := strings.TrimSpace(search); term != "" {
		notes, err = s.Repo.Search(ctx, term)
	} else {
		notes, err = s.Repo.List(ctx)
	}
	if err != nil {
		return nil, err
	}
	if notes == nil {
		notes = []model.Note{}
	}
	for i := range notes {
		notes[i].Sanitize()
	}
	return notes, nil
}

func (s *NoteService) GetNote(ctx context.Context, id string) (*model.Note, error) {
	noteID, err := model.ParseID(id)
	if err != nil {
		return nil, err
	}
	n, err := s.Repo.Get(ctx, noteID)
	if err != nil {
		return nil, err
	}
	n.Sanitize()
	return n, nil
}

func (s *NoteService) CreateNote(ctx context.Context, req model.CreateNoteRequest) (*model.Note, error) {
	n, err := model.NewNote(req)
	if err != nil {
		return nil, err
	}
	if err := model.Validate(n); err != nil {
		return nil, err
	}
	return s.Repo.Create(ctx, n)
}

// UpdateNote merges req onto the stored note and re-validates the result
// before it is written.
func (s *NoteService) UpdateNote(ctx context.Context, id string, req model.UpdateNoteRequest) (*model.Note, error) {
	noteID, err := model.ParseID(id)
	if err != nil {
		return nil, err
	}
	// Reject malformed content before opening a transaction.
	if _, err := model.NormalizeContent(req.Content); err != nil {
		return nil, err
	}

	return s.Repo.Update(ctx, noteID, func(n *model.Note) error {
		if err := n.Apply(req); err != nil {
			return err
		}
		return model.Validate(*n)
	})
}

func (s *NoteService) DeleteNote(ctx context.Context, id string) error {
	noteID, err := model.ParseID(id)
	if err != nil {
		return err
	}
	return s.Repo.Delete(ctx, noteID)
}
