package errors_test

import (
	"errors"
	"fmt"
	"testing"

	pkgerrors "github.com/respawnmetrics/respawn/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestMissingKeyError(t *testing.T) {
	t.Run("message", func(t *testing.T) {
		err := pkgerrors.NewMissingKeyError("anxiety", "participant_id")
		assert.Equal(t, `dataset anxiety: required key column "participant_id" is missing`, err.Error())
	})

	t.Run("sentinel", func(t *testing.T) {
		err := pkgerrors.NewMissingKeyError("anxiety", "participant_id")
		assert.True(t, errors.Is(err, pkgerrors.ErrMissingKey))
		assert.True(t, pkgerrors.IsMissingKey(err))
		assert.False(t, pkgerrors.IsDuplicateKey(err))
	})

	t.Run("wrapped", func(t *testing.T) {
		wrapped := fmt.Errorf("loading: %w", pkgerrors.NewMissingKeyError("a", "b"))
		assert.True(t, pkgerrors.IsMissingKey(wrapped))

		var target *pkgerrors.MissingKeyError
		require.True(t, errors.As(wrapped, &target))
		assert.Equal(t, "a", target.Dataset)
	})
}

func TestDuplicateKeyError(t *testing.T) {
	err := pkgerrors.NewDuplicateKeyError("aggression", "participant_id", "G0001", []int{0, 4})
	assert.Contains(t, err.Error(), "G0001")
	assert.Contains(t, err.Error(), "2 times")
	assert.True(t, pkgerrors.IsDuplicateKey(err))
	assert.Equal(t, "DuplicateKeyError", pkgerrors.Kind(err))
}

func TestSchemaMismatchError(t *testing.T) {
	t.Run("column level", func(t *testing.T) {
		err := pkgerrors.NewSchemaMismatchError("wellbeing", "age", "int", "string")
		assert.Equal(t, `dataset wellbeing: column "age" expected int, got string`, err.Error())
		assert.True(t, pkgerrors.IsSchemaMismatch(err))
	})

	t.Run("cell level", func(t *testing.T) {
		err := &pkgerrors.SchemaMismatchError{
			Dataset:  "anxiety",
			Column:   "age",
			Expected: "int",
			Actual:   "string",
			Row:      7,
			Message:  `cannot parse "old"`,
		}
		assert.Contains(t, err.Error(), "at row 7")
		assert.Contains(t, err.Error(), `cannot parse "old"`)
	})
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{Field: "input_dir", Message: "cannot be empty"}
		assert.Equal(t, "validation failed for field input_dir: cannot be empty", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})

	t.Run("without field", func(t *testing.T) {
		err := pkgerrors.NewValidationError("", nil, "invalid configuration")
		assert.Equal(t, "validation failed: invalid configuration", err.Error())
	})
}

func TestMergeError(t *testing.T) {
	err := pkgerrors.NewMergeError("", []string{"anxiety", "aggression"}, pkgerrors.ErrNoUsableSources)
	assert.Contains(t, err.Error(), "all outputs")
	assert.Contains(t, err.Error(), "anxiety, aggression")
	assert.True(t, errors.Is(err, pkgerrors.ErrNoUsableSources))
}

func TestIsSourceFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"missing key", pkgerrors.NewMissingKeyError("a", "k"), true},
		{"duplicate key", pkgerrors.NewDuplicateKeyError("a", "k", "1", []int{0, 1}), true},
		{"schema mismatch", pkgerrors.NewSchemaMismatchError("a", "c", "int", "bool"), true},
		{"io", pkgerrors.NewIOError("read", "x.csv", errors.New("boom")), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pkgerrors.IsSourceFailure(tt.err))
		})
	}
}

func TestKind(t *testing.T) {
	assert.Equal(t, "", pkgerrors.Kind(nil))
	assert.Equal(t, "MissingKeyError", pkgerrors.Kind(pkgerrors.NewMissingKeyError("a", "b")))
	assert.Equal(t, "SchemaMismatchError", pkgerrors.Kind(pkgerrors.NewSchemaMismatchError("a", "b", "c", "d")))
	assert.Equal(t, "IOError", pkgerrors.Kind(pkgerrors.NewIOError("open", "f", errors.New("x"))))
	assert.Equal(t, "ParseError", pkgerrors.Kind(pkgerrors.WrapParse("csv", "f", errors.New("x"))))
	assert.Equal(t, "Error", pkgerrors.Kind(errors.New("plain")))
}

func TestWrapHelpers(t *testing.T) {
	assert.Nil(t, pkgerrors.WrapIO("read", "f", nil))
	assert.Nil(t, pkgerrors.WrapParse("csv", "f", nil))
	assert.Nil(t, pkgerrors.WrapResource("load", "dataset", "x", nil))

	base := errors.New("disk full")
	err := pkgerrors.WrapIO("write", "/tmp/out.csv", base)
	assert.ErrorIs(t, err, base)
	assert.Contains(t, err.Error(), "/tmp/out.csv")

	err = pkgerrors.WrapResource("export", "dataset", "master", base)
	assert.Equal(t, "failed to export dataset master: disk full", err.Error())
}
