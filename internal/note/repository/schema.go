package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"bulletnotes/internal/note/model"
	"bulletnotes/pkg/logger"
)

// column describes how an indexed note field is stored.
type column struct {
	name  string
	array bool
}

var indexColumns = map[string]column{
	"subject":   {name: "subject"},
	"subHeader": {name: "sub_header"},
	"content":   {name: "content", array: true},
}

// weightClasses are the postgres tsvector weight labels, heaviest first.
var weightClasses = []string{"A", "B", "C", "D"}

const createTable = `CREATE TABLE IF NOT EXISTS notes (
	id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	subject       VARCHAR(100) NOT NULL CHECK (length(btrim(subject)) > 0),
	sub_header    VARCHAR(150) NOT NULL DEFAULT '',
	content       TEXT[] NOT NULL CHECK (cardinality(content) > 0),
	search_vector TSVECTOR,
	revision      INTEGER NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CHECK (updated_at >= created_at)
)`

// Migrate creates the notes table, its indexes and the trigger that keeps
// search_vector in step with the indexed fields.
func Migrate(ctx context.Context, db *sql.DB, idx model.SearchIndex) error {
	expr, err := searchVectorExpr(idx, "NEW.")
	if err != nil {
		return err
	}
	rowExpr, _ := searchVectorExpr(idx, "")

	statements := []string{
		createTable,
		`CREATE INDEX IF NOT EXISTS notes_created_at_idx ON notes (created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS notes_search_idx ON notes USING GIN (search_vector)`,
		`CREATE OR REPLACE FUNCTION notes_search_vector_refresh() RETURNS trigger AS $$
BEGIN
	NEW.search_vector := ` + expr + `;
	RETURN NEW;
END
$$ LANGUAGE plpgsql`,
		`DROP TRIGGER IF EXISTS notes_search_vector_trigger ON notes`,
		`CREATE TRIGGER notes_search_vector_trigger BEFORE INSERT OR UPDATE ON notes
	FOR EACH ROW EXECUTE FUNCTION notes_search_vector_refresh()`,
		// Re-index existing rows when the weights change.
		`UPDATE notes SET search_vector = ` + rowExpr,
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migrate: %w: %w", model.ErrStore, err)
	}
	defer tx.Rollback()

	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			logger.Sugar.Errorf("Migration statement failed: %v", err)
			return fmt.Errorf("migrate: %w: %w", model.ErrStore, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate: %w: %w", model.ErrStore, err)
	}
	logger.Sugar.Info("Notes schema is up to date")
	return nil
}

// searchVectorExpr builds the weighted tsvector expression for idx. prefix
// qualifies column references, e.g. "NEW." inside a trigger.
func searchVectorExpr(idx model.SearchIndex, prefix string) (string, error) {
	ranked := idx.Ranked()
	if len(ranked) == 0 {
		return "", fmt.Errorf("search index has no fields")
	}
	if len(ranked) > len(weightClasses) {
		return "", fmt.Errorf("search index supports at most %d fields, got %d", len(weightClasses), len(ranked))
	}

	lang := idx.Language
	if lang == "" {
		lang = "simple"
	}

	parts := make([]string, 0, len(ranked))
	for i, f := range ranked {
		col, ok := indexColumns[f.Field]
		if !ok {
			return "", fmt.Errorf("search index field %q is not a note field", f.Field)
		}
		ref := prefix + col.name
		if col.array {
			ref = "array_to_string(" + ref + ", ' ')"
		}
		parts = append(parts, fmt.Sprintf("setweight(to_tsvector('%s', coalesce(%s, '')), '%s')", lang, ref, weightClasses[i]))
	}
	return strings.Join(parts, " || "), nil
}

// rankWeights maps field weights onto the ts_rank weight array, which is
// ordered {D, C, B, A}. Weights are scaled so the heaviest field is 1.
func rankWeights(idx model.SearchIndex) []float64 {
	weights := make([]float64, len(weightClasses))
	maxW := idx.MaxWeight()
	if maxW <= 0 {
		return weights
	}
	for i, f := range idx.Ranked() {
		if i >= len(weightClasses) {
			break
		}
		weights[len(weightClasses)-1-i] = float64(f.Weight) / float64(maxW)
	}
	return weights
}
