package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorBuilder(t *testing.T) {
	t.Parallel()

	base := stderrors.New("device open failed")
	err := New(base).
		Component("video").
		Category(CategoryVideoSource).
		Context("device", "/dev/video0").
		Build()

	assert.Equal(t, "device open failed", err.Error())
	assert.Equal(t, "video", err.GetComponent())
	assert.Equal(t, CategoryVideoSource, err.Category)
	assert.Equal(t, "/dev/video0", err.GetContext()["device"])
	assert.True(t, stderrors.Is(err, base), "enhanced error should unwrap to the original")
}

func TestNewfFormatsMessage(t *testing.T) {
	t.Parallel()

	err := Newf("invalid capacity: %d", 0).Category(CategoryValidation).Build()
	assert.Equal(t, "invalid capacity: 0", err.Error())
	assert.Equal(t, CategoryValidation, err.Category)
}

func TestDefaultsApplied(t *testing.T) {
	t.Parallel()

	err := Newf("boom").Build()
	assert.Equal(t, ComponentUnknown, err.GetComponent())
	assert.Equal(t, CategoryGeneric, err.Category)
	assert.False(t, err.Timestamp.IsZero())
}

func TestHasCategory(t *testing.T) {
	t.Parallel()

	inner := Newf("encode failed").Category(CategoryEncode).Build()
	wrapped := fmt.Errorf("saving clip: %w", inner)

	assert.True(t, HasCategory(wrapped, CategoryEncode))
	assert.False(t, HasCategory(wrapped, CategoryVideoSource))
	assert.False(t, HasCategory(stderrors.New("plain"), CategoryEncode))
}

func TestTimingAddsOperationContext(t *testing.T) {
	t.Parallel()

	err := Newf("encode failed").
		Category(CategoryEncode).
		Timing("clip-encode", 1500*time.Millisecond).
		Build()

	ctx := err.GetContext()
	assert.Equal(t, "clip-encode", ctx["operation"])
	assert.Equal(t, int64(1500), ctx["duration_ms"])
}

func TestContextIsCopied(t *testing.T) {
	t.Parallel()

	err := Newf("x").Context("key", "value").Build()
	ctx := err.GetContext()
	require.NotNil(t, ctx)
	ctx["key"] = "mutated"
	assert.Equal(t, "value", err.GetContext()["key"], "callers must not be able to mutate error context")
}
