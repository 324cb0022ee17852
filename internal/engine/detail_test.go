package engine_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	embedded "github.com/openfield/crewmarket/db"
	"github.com/openfield/crewmarket/internal/engine"
	"github.com/openfield/crewmarket/pkg/models"
)

func newDetailValidator(t *testing.T) *engine.DetailValidator {
	t.Helper()
	v, err := engine.NewDetailValidator(embedded.DetailSchemas, "schemas")
	require.NoError(t, err)
	return v
}

func TestDetailValidator(t *testing.T) {
	v := newDetailValidator(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		detail models.JobDetail
		ok     bool
	}{
		{
			name:   "standard with notes",
			detail: models.StandardDetail("bring your own shovel"),
			ok:     true,
		},
		{
			name: "valid sand delivery",
			detail: models.JobDetail{
				Kind:         models.DetailSandDelivery,
				SandDelivery: &models.SandDelivery{Quantity: 12.5, Material: "gravel"},
			},
			ok: true,
		},
		{
			name: "sand delivery with unknown material",
			detail: models.JobDetail{
				Kind:         models.DetailSandDelivery,
				SandDelivery: &models.SandDelivery{Quantity: 12.5, Material: "lava"},
			},
			ok: false,
		},
		{
			name: "sand delivery with zero quantity",
			detail: models.JobDetail{
				Kind:         models.DetailSandDelivery,
				SandDelivery: &models.SandDelivery{Quantity: 0, Material: "sand"},
			},
			ok: false,
		},
		{
			name: "valid haulage",
			detail: models.JobDetail{
				Kind:    models.DetailHaulage,
				Haulage: &models.Haulage{DistanceKM: 40, Cargo: "pipe sections"},
			},
			ok: true,
		},
		{
			name: "haulage with empty cargo",
			detail: models.JobDetail{
				Kind:    models.DetailHaulage,
				Haulage: &models.Haulage{DistanceKM: 40, Cargo: ""},
			},
			ok: false,
		},
		{
			name:   "sand delivery without payload",
			detail: models.JobDetail{Kind: models.DetailSandDelivery},
			ok:     false,
		},
		{
			name: "standard with stray payload",
			detail: models.JobDetail{
				Kind:         models.DetailStandard,
				SandDelivery: &models.SandDelivery{Quantity: 1, Material: "sand"},
			},
			ok: false,
		},
		{
			name:   "unknown kind",
			detail: models.JobDetail{Kind: "demolition"},
			ok:     false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Validate(ctx, tc.detail)
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var verr *engine.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestJobDetailUnmarshalDefaultsKind(t *testing.T) {
	var d models.JobDetail
	require.NoError(t, json.Unmarshal([]byte(`{"notes":"old row"}`), &d))
	assert.Equal(t, models.DetailStandard, d.Kind)
	assert.Equal(t, "old row", d.Notes)

	var sd models.JobDetail
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"sand_delivery","sand_delivery":{"quantity":3,"material":"sand"}}`), &sd))
	assert.Equal(t, models.DetailSandDelivery, sd.Kind)
	require.NotNil(t, sd.SandDelivery)
	assert.Equal(t, 3.0, sd.SandDelivery.Quantity)
}
