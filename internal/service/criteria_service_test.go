package service

import (
	"context"
	"testing"

	"github.com/lshigami/Classtrail/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCriteriaService_EnsureDefaultCriteria(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	seeded, err := f.criteria.EnsureDefaultCriteria(ctx)
	require.NoError(t, err)
	require.Len(t, seeded, 4)
	assert.Equal(t, "Correctness", seeded[0].Name)

	var total float64
	for _, c := range seeded {
		total += c.Weight
	}
	assert.InDelta(t, 1.0, total, 1e-9)

	again, err := f.criteria.EnsureDefaultCriteria(ctx)
	require.NoError(t, err)
	assert.Len(t, again, 4, "seeding happens once")
}

func TestCriteriaService_Create(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     dto.CreateCriterionRequest
		wantErr error
	}{
		{name: "valid", req: dto.CreateCriterionRequest{Name: "Performance", Weight: 0.5}},
		{name: "weight too low", req: dto.CreateCriterionRequest{Name: "Tiny", Weight: 0.05}, wantErr: ErrValidation},
		{name: "weight too high", req: dto.CreateCriterionRequest{Name: "Huge", Weight: 1.5}, wantErr: ErrValidation},
		{name: "missing name", req: dto.CreateCriterionRequest{Name: "  ", Weight: 0.5}, wantErr: ErrValidation},
		{name: "duplicate name", req: dto.CreateCriterionRequest{Name: "Performance", Weight: 0.3}, wantErr: ErrCriterionExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := f.criteria.Create(ctx, tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.req.Name, resp.Name)
			assert.Equal(t, tt.req.Weight, resp.Weight)
		})
	}

	list, err := f.criteria.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1, "an existing rubric is not topped up with defaults")
}
