package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/graph"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

// envelopeSchema only checks the outer shape of an imported document. Node and
// edge contents are left to the store invariants.
var envelopeSchema = gojsonschema.NewGoLoader(map[string]any{
	"$schema":  "http://json-schema.org/draft-07/schema#",
	"type":     "object",
	"required": []any{"nodes", "edges"},
	"properties": map[string]any{
		"nodes":    map[string]any{"type": "array"},
		"edges":    map[string]any{"type": "array"},
		"metadata": map[string]any{"type": "object"},
	},
})

// Export returns the current document.
func (b *Builder) Export() *models.WorkflowDocument {
	return b.store.Document()
}

// Import replaces the current document with data. Nothing changes unless the
// payload passes the envelope check and the store accepts the document.
func (b *Builder) Import(ctx context.Context, data []byte) error {
	doc, err := DecodeDocument(data)
	if err != nil {
		return err
	}

	if err := b.store.ReplaceDocument(ctx, doc); err != nil {
		if graph.IsPersistWarning(err) {
			return err
		}

		return &ServiceError{Op: "import", Code: "invalid_document", Message: err.Error(), Err: fmt.Errorf("%w: %w", ErrInvalidDocument, err)}
	}

	b.logger.InfoContext(ctx, "Imported document", "nodes", len(doc.Nodes), "edges", len(doc.Edges))

	return nil
}

// DecodeDocument parses an exported document after checking its envelope.
func DecodeDocument(data []byte) (*models.WorkflowDocument, error) {
	result, err := gojsonschema.Validate(envelopeSchema, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, &ServiceError{Op: "import", Code: "invalid_json", Message: err.Error(), Err: ErrInvalidDocument}
	}

	if !result.Valid() {
		var errors []string
		for _, desc := range result.Errors() {
			errors = append(errors, desc.String())
		}

		return nil, &ServiceError{Op: "import", Code: "invalid_envelope", Message: strings.Join(errors, "; "), Err: ErrInvalidDocument}
	}

	var doc models.WorkflowDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ServiceError{Op: "import", Code: "invalid_json", Message: err.Error(), Err: ErrInvalidDocument}
	}

	return &doc, nil
}
