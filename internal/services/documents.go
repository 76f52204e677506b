package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"budgethub/internal/core"
	"budgethub/internal/sheets"
)

// ErrInvalidDocument is returned by Import for bodies that are not a budget.
var ErrInvalidDocument = errors.New("invalid budget document")

// DocumentService imports and exports budget documents as JSON.
type DocumentService struct {
	docs  sheets.DocumentStore
	newID func() string
}

func NewDocumentService(docs sheets.DocumentStore) *DocumentService {
	return &DocumentService{docs: docs, newID: uuid.NewString}
}

// ImportResult carries the stored budget and advisory validation problems.
type ImportResult struct {
	Budget   core.Budget
	Warnings error
}

// Import decodes a budget, assigns ids where missing and stores it.
// Validation problems are reported but do not block the import.
func (d *DocumentService) Import(ctx context.Context, r io.Reader) (ImportResult, error) {
	var b core.Budget
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&b); err != nil {
		return ImportResult{}, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	d.assignIDs(&b)
	if err := d.docs.SaveBudget(ctx, b); err != nil {
		return ImportResult{}, fmt.Errorf("import %q: %w", b.ID, err)
	}
	return ImportResult{Budget: b, Warnings: b.Validate()}, nil
}

func (d *DocumentService) assignIDs(b *core.Budget) {
	if strings.TrimSpace(b.ID) == "" {
		b.ID = d.newID()
	}
	for si := range b.Sections {
		s := &b.Sections[si]
		if strings.TrimSpace(s.ID) == "" {
			s.ID = d.newID()
		}
		for ii := range s.Items {
			if strings.TrimSpace(s.Items[ii].ID) == "" {
				s.Items[ii].ID = d.newID()
			}
		}
	}
}

// Export writes the stored budget as indented JSON.
func (d *DocumentService) Export(ctx context.Context, id string, w io.Writer) error {
	b, err := d.docs.LoadBudget(ctx, id)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("export %q: %w", id, err)
	}
	return nil
}

// List returns all stored budgets.
func (d *DocumentService) List(ctx context.Context) ([]core.Budget, error) {
	return d.docs.ListBudgets(ctx)
}
