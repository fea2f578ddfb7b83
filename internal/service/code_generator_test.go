package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type checkerFunc func(ctx context.Context, code string) (bool, error)

func (f checkerFunc) AccessCodeExists(ctx context.Context, code string) (bool, error) {
	return f(ctx, code)
}

func TestCodeGenerator_Generate(t *testing.T) {
	gen := NewCodeGenerator(checkerFunc(func(context.Context, string) (bool, error) { return false, nil }), testConfig())

	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		code, err := gen.Generate()
		require.NoError(t, err)
		require.Len(t, code, AccessCodeLength)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(accessCodeAlphabet, r), "unexpected character %q in %s", r, code)
		}
		seen[code] = true
	}
	assert.Greater(t, len(seen), 190)
}

func TestCodeGenerator_AllocateUnique(t *testing.T) {
	t.Run("skips taken codes", func(t *testing.T) {
		calls := 0
		gen := NewCodeGenerator(checkerFunc(func(context.Context, string) (bool, error) {
			calls++
			return calls < 3, nil
		}), testConfig())

		code, err := gen.AllocateUnique(context.Background())
		require.NoError(t, err)
		assert.Len(t, code, AccessCodeLength)
		assert.Equal(t, 3, calls)
	})

	t.Run("exhausts after the configured attempts", func(t *testing.T) {
		calls := 0
		gen := NewCodeGenerator(checkerFunc(func(context.Context, string) (bool, error) {
			calls++
			return true, nil
		}), testConfig())

		_, err := gen.AllocateUnique(context.Background())
		assert.ErrorIs(t, err, ErrCodeExhaustion)
		assert.Equal(t, 10, calls)
	})

	t.Run("checker failures count as attempts", func(t *testing.T) {
		calls := 0
		gen := NewCodeGenerator(checkerFunc(func(context.Context, string) (bool, error) {
			calls++
			return false, errors.New("connection reset")
		}), testConfig())

		_, err := gen.AllocateUnique(context.Background())
		assert.ErrorIs(t, err, ErrCodeExhaustion)
		assert.Equal(t, 10, calls)
	})

	t.Run("bound never drops below the minimum", func(t *testing.T) {
		cfg := testConfig()
		cfg.Grading.AccessCodeMaxAttempts = 2
		calls := 0
		gen := NewCodeGenerator(checkerFunc(func(context.Context, string) (bool, error) {
			calls++
			return true, nil
		}), cfg)

		_, err := gen.AllocateUnique(context.Background())
		assert.ErrorIs(t, err, ErrCodeExhaustion)
		assert.Equal(t, 10, calls)
	})
}

func TestNormalizeAccessCode(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr error
	}{
		{name: "already normalized", raw: "ABCD1234", want: "ABCD1234"},
		{name: "lower case and spaces", raw: "  abcd1234 ", want: "ABCD1234"},
		{name: "too short", raw: "ABC123", wantErr: ErrInvalidAccessCode},
		{name: "too long", raw: "ABCD12345", wantErr: ErrInvalidAccessCode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeAccessCode(tt.raw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
