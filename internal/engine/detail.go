package engine

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/openfield/crewmarket/pkg/models"
	"github.com/qri-io/jsonschema"
)

// DetailValidator checks the structured payload of a JobRequest.Detail
// variant against the JSON Schema embedded for its kind. Parsing happens once
// here, at the system boundary; everything downstream sees a typed value.
type DetailValidator struct {
	schemas map[models.DetailKind]*jsonschema.Schema
}

// NewDetailValidator compiles every `detail_<kind>.json` schema found in the
// embedded FS under schemasDir.
func NewDetailValidator(schemaFS embed.FS, schemasDir string) (*DetailValidator, error) {
	entries, err := fs.ReadDir(schemaFS, schemasDir)
	if err != nil {
		return nil, fmt.Errorf("read schemas dir: %w", err)
	}

	v := &DetailValidator{schemas: make(map[models.DetailKind]*jsonschema.Schema)}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") || !strings.HasPrefix(name, "detail_") {
			continue
		}
		kind := models.DetailKind(strings.TrimSuffix(strings.TrimPrefix(name, "detail_"), ".json"))

		b, err := fs.ReadFile(schemaFS, path.Join(schemasDir, name))
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", name, err)
		}
		rs := &jsonschema.Schema{}
		if err := json.Unmarshal(b, rs); err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		v.schemas[kind] = rs
	}

	return v, nil
}

// Validate verifies the variant's shape and, when the kind carries a
// structured payload, validates that payload against its schema.
func (v *DetailValidator) Validate(ctx context.Context, d models.JobDetail) error {
	if err := d.Validate(); err != nil {
		return validationErr("detail", err.Error())
	}

	var payload any
	switch d.Kind {
	case models.DetailSandDelivery:
		payload = d.SandDelivery
	case models.DetailHaulage:
		payload = d.Haulage
	default:
		return nil
	}

	schema, ok := v.schemas[d.Kind]
	if !ok {
		// shape already checked above; a kind without a schema passes
		return nil
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return validationErr("detail", err.Error())
	}
	verrs, err := schema.ValidateBytes(ctx, b)
	if err != nil {
		return fmt.Errorf("validate detail payload: %w", err)
	}
	if len(verrs) > 0 {
		return validationErr("detail", verrs[0].Message)
	}

	return nil
}
