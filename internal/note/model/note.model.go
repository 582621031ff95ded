package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MaxSubjectLength   = 100
	MaxSubHeaderLength = 150
)

// Note is the transport shape of a stored note. Store metadata such as the
// revision counter and search vector never appear here.
type Note struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject" validate:"required,max=100"`
	SubHeader string    `json:"subHeader" validate:"max=150"`
	Content   []string  `json:"content" validate:"min=1,dive,nonempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" validate:"gtefield=CreatedAt"`
}

type CreateNoteRequest struct {
	Subject   string          `json:"subject"`
	SubHeader string          `json:"subHeader"`
	Content   json.RawMessage `json:"content"`
}

// UpdateNoteRequest carries a partial note. Nil fields and an absent content
// key leave the stored value unchanged.
type UpdateNoteRequest struct {
	Subject   *string         `json:"subject"`
	SubHeader *string         `json:"subHeader"`
	Content   json.RawMessage `json:"content"`
}

type DeleteNoteResponse struct {
	Message string `json:"message"`
}

// ParseID checks that id is a note identifier and returns its canonical form.
func ParseID(id string) (string, error) {
	u, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", ErrInvalidIdentifier
	}
	return u.String(), nil
}

// NormalizeContent turns the raw content field into bullet lines. Older
// clients send a single scalar, which becomes a one-line list; numbers and
// booleans keep their JSON text. A nil result with a nil error means the
// field was absent.
func NormalizeContent(raw json.RawMessage) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}

	switch raw[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, errContentShape
		}
		lines := make([]string, 0, len(items))
		for _, item := range items {
			line, ok := scalarText(item)
			if !ok {
				return nil, errContentShape
			}
			lines = append(lines, line)
		}
		return lines, nil
	case 'n':
		if string(raw) == "null" {
			return []string{}, nil
		}
	}

	line, ok := scalarText(raw)
	if !ok {
		return nil, errContentShape
	}
	return []string{line}, nil
}

var errContentShape = invalid("content", "Content must be an array of strings")

// scalarText renders a JSON string, number or boolean as a bullet line.
func scalarText(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}
	switch c := raw[0]; {
	case c == '"':
		var line string
		if err := json.Unmarshal(raw, &line); err != nil {
			return "", false
		}
		return line, true
	case c == 't' || c == 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return "", false
		}
		return strconv.FormatBool(b), true
	case c == '-' || (c >= '0' && c <= '9'):
		var num json.Number
		if err := json.Unmarshal(raw, &num); err != nil {
			return "", false
		}
		return num.String(), true
	}
	return "", false
}

// NewNote builds an unsaved note from a create request.
func NewNote(req CreateNoteRequest) (Note, error) {
	content, err := NormalizeContent(req.Content)
	if err != nil {
		return Note{}, err
	}
	if len(content) == 0 {
		return Note{}, invalid("content", "Content must be a non-empty array")
	}
	n := Note{
		Subject:   req.Subject,
		SubHeader: req.SubHeader,
		Content:   content,
	}
	n.Sanitize()
	return n, nil
}

// Apply merges the fields present in req onto n.
func (n *Note) Apply(req UpdateNoteRequest) error {
	content, err := NormalizeContent(req.Content)
	if err != nil {
		return err
	}
	if req.Subject != nil {
		n.Subject = *req.Subject
	}
	if req.SubHeader != nil {
		n.SubHeader = *req.SubHeader
	}
	if content != nil {
		n.Content = content
	}
	n.Sanitize()
	return nil
}

// Sanitize trims the text fields and guarantees content is a list.
func (n *Note) Sanitize() {
	n.Subject = strings.TrimSpace(n.Subject)
	n.SubHeader = strings.TrimSpace(n.SubHeader)
	if n.Content == nil {
		n.Content = []string{}
	}
}
