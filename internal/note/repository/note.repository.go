package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"bulletnotes/internal/note/model"
	"bulletnotes/pkg/logger"

	"github.com/lib/pq"
)

const selectNote = `SELECT id, subject, sub_header, content, created_at, updated_at FROM notes`

type NoteRepository struct {
	DB    *sql.DB
	Index model.SearchIndex
}

func NewNoteRepository(db *sql.DB) *NoteRepository {
	return &NoteRepository{DB: db, Index: model.DefaultSearchIndex}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanNote reads one row into the transport shape, turning a NULL or missing
// content array into an empty list.
func scanNote(row rowScanner) (*model.Note, error) {
	var (
		n         model.Note
		subHeader sql.NullString
		content   []string
	)
	if err := row.Scan(&n.ID, &n.Subject, &subHeader, pq.Array(&content), &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	n.SubHeader = subHeader.String
	n.Content = content
	if n.Content == nil {
		n.Content = []string{}
	}
	return &n, nil
}

func (r *NoteRepository) List(ctx context.Context) ([]model.Note, error) {
	rows, err := r.DB.QueryContext(ctx, selectNote+` ORDER BY created_at DESC`)
	if err != nil {
		logger.Sugar.Errorf("Failed to list notes: %v", err)
		return nil, storeErr("list notes", err)
	}
	return collect(rows, "list notes")
}

// Search returns notes matching any word or quoted phrase of term, most
// relevant first.
func (r *NoteRepository) Search(ctx context.Context, term string) ([]model.Note, error) {
	query := selectNote + `, websearch_to_tsquery($1::regconfig, $2) AS query
		WHERE search_vector @@ query
		ORDER BY ts_rank($3::float4[], search_vector, query) DESC, created_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, r.language(), anyOf(term), pq.Array(rankWeights(r.Index)))
	if err != nil {
		logger.Sugar.Errorf("Failed to search notes for %q: %v", term, err)
		return nil, storeErr("search notes", err)
	}
	return collect(rows, "search notes")
}

// anyOf rewrites term in websearch syntax so that its words and quoted
// phrases are alternatives rather than all required.
func anyOf(term string) string {
	var parts []string
	rest := strings.TrimSpace(term)
	for rest != "" {
		var part string
		if rest[0] == '"' {
			end := strings.IndexByte(rest[1:], '"')
			if end < 0 {
				part, rest = rest+`"`, ""
			} else {
				part, rest = rest[:end+2], rest[end+2:]
			}
		} else {
			end := strings.IndexFunc(rest, func(c rune) bool { return unicode.IsSpace(c) || c == '"' })
			if end < 0 {
				end = len(rest)
			}
			part, rest = rest[:end], rest[end:]
		}
		rest = strings.TrimSpace(rest)
		if part == `""` || strings.EqualFold(part, "or") {
			continue
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, " or ")
}

func (r *NoteRepository) Get(ctx context.Context, id string) (*model.Note, error) {
	n, err := scanNote(r.DB.QueryRowContext(ctx, selectNote+` WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to get note %s: %v", id, err)
		return nil, storeErr("get note", err)
	}
	return n, nil
}

// Create inserts n and returns it with the id and timestamps the database
// assigned.
func (r *NoteRepository) Create(ctx context.Context, n model.Note) (*model.Note, error) {
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO notes (subject, sub_header, content) VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`,
		n.Subject, n.SubHeader, pq.Array(n.Content),
	).Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		logger.Sugar.Errorf("Failed to create note: %v", err)
		return nil, storeErr("create note", err)
	}
	return &n, nil
}

// Update locks the note row, lets mutate change it and writes the result in
// the same transaction. An error from mutate rolls back without writing.
func (r *NoteRepository) Update(ctx context.Context, id string, mutate func(*model.Note) error) (*model.Note, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		logger.Sugar.Errorf("Failed to begin update of note %s: %v", id, err)
		return nil, storeErr("update note", err)
	}
	defer tx.Rollback()

	n, err := scanNote(tx.QueryRowContext(ctx, selectNote+` WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to load note %s for update: %v", id, err)
		return nil, storeErr("update note", err)
	}

	if err := mutate(n); err != nil {
		return nil, err
	}

	err = tx.QueryRowContext(ctx,
		`UPDATE notes SET subject = $2, sub_header = $3, content = $4,
			updated_at = GREATEST(NOW(), updated_at), revision = revision + 1
		WHERE id = $1
		RETURNING updated_at`,
		id, n.Subject, n.SubHeader, pq.Array(n.Content),
	).Scan(&n.UpdatedAt)
	if err != nil {
		logger.Sugar.Errorf("Failed to update note %s: %v", id, err)
		return nil, storeErr("update note", err)
	}

	if err := tx.Commit(); err != nil {
		logger.Sugar.Errorf("Failed to commit update of note %s: %v", id, err)
		return nil, storeErr("update note", err)
	}
	return n, nil
}

func (r *NoteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		logger.Sugar.Errorf("Failed to delete note %s: %v", id, err)
		return storeErr("delete note", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		logger.Sugar.Errorf("Failed to read delete result for note %s: %v", id, err)
		return storeErr("delete note", err)
	}
	if affected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *NoteRepository) language() string {
	if r.Index.Language == "" {
		return "simple"
	}
	return r.Index.Language
}

func collect(rows *sql.Rows, op string) ([]model.Note, error) {
	defer rows.Close()

	notes := []model.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			logger.Sugar.Errorf("Failed to scan note row (%s): %v", op, err)
			return nil, storeErr(op, err)
		}
		notes = append(notes, *n)
	}
	if err := rows.Err(); err != nil {
		logger.Sugar.Errorf("Failed to iterate note rows (%s): %v", op, err)
		return nil, storeErr(op, err)
	}
	return notes, nil
}

// storeErr wraps a driver failure so callers can match ErrStore. A uuid
// syntax error from postgres is reported as an invalid identifier.
func storeErr(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "22P02" {
		return fmt.Errorf("%s: %w", op, model.ErrInvalidIdentifier)
	}
	return fmt.Errorf("%s: %w: %w", op, model.ErrStore, err)
}
