package mmapio

import (
	"errors"
	"fmt"
	"testing"

	"github.com/hupe1980/mmapio/internal/window"
	"github.com/stretchr/testify/assert"
)

func TestKind_Fatal(t *testing.T) {
	tests := []struct {
		kind  Kind
		fatal bool
	}{
		{KindMapFailed, true},
		{KindAdviseFailed, true},
		{KindRegistryExhausted, true},
		{KindRequestTooLarge, true},
		{KindSharedWindow, true},
		{KindSyncFailed, false},
		{KindAdviseDropFailed, false},
		{KindTrimFailed, false},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.fatal, tt.kind.Fatal())
		})
	}
}

func TestTranslateError(t *testing.T) {
	cause := errors.New("ENOMEM")

	tests := []struct {
		name string
		err  error
		kind Kind
	}{
		{"map", &window.Error{Op: "mmap", Kind: window.ErrMapFailed, Err: cause}, KindMapFailed},
		{"advise", &window.Error{Op: "madvise", Kind: window.ErrAdviseFailed, Err: cause}, KindAdviseFailed},
		{"registry", &window.Error{Op: "register", Kind: window.ErrRegistryExhausted, Err: cause}, KindRegistryExhausted},
		{"too large", &window.Error{Op: "prep", Kind: window.ErrRequestTooLarge}, KindRequestTooLarge},
		{"shared", &window.Error{Op: "remap", Kind: window.ErrSharedWindow}, KindSharedWindow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := translateError("f", tt.err)

			var me *MappingError
			assert.ErrorAs(t, err, &me)
			assert.Equal(t, tt.kind, me.Kind)
			assert.Equal(t, "f", me.File)
			assert.True(t, IsKind(err, tt.kind))
			assert.True(t, IsFatal(err))
			if tt.err.(*window.Error).Err != nil {
				assert.ErrorIs(t, err, cause)
			}
		})
	}

	assert.NoError(t, translateError("f", nil))

	plain := errors.New("plain")
	assert.Same(t, plain, translateError("f", plain))

	err := translateError("f", &window.Error{Op: "prep", Kind: window.ErrOutOfRange})
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.ErrorIs(t, err, window.ErrOutOfRange)
}

func TestMappingError(t *testing.T) {
	err := &MappingError{Kind: KindSyncFailed, Op: "msync", File: "data", Err: errors.New("EIO")}
	assert.Equal(t, "mmapio: msync data: sync failed: EIO", err.Error())

	wrapped := fmt.Errorf("request: %w", err)
	assert.True(t, IsKind(wrapped, KindSyncFailed))
	assert.False(t, IsKind(wrapped, KindTrimFailed))
	assert.False(t, IsFatal(wrapped))

	joined := errors.Join(err, &MappingError{Kind: KindAdviseDropFailed, Op: "madvise"})
	assert.True(t, IsKind(joined, KindAdviseDropFailed))
	assert.False(t, IsFatal(joined))

	assert.False(t, IsFatal(nil))
	assert.False(t, IsFatal(ErrReadOnly))
	assert.True(t, IsFatal(ErrOutOfRange))
}

func TestJobErrors(t *testing.T) {
	j := &JobErrors{}
	assert.False(t, j.Failed())

	j.ReportError("prep", nil)
	assert.False(t, j.Failed())

	first := errors.New("first")
	j.ReportError("prep", first)
	j.ReportError("close", errors.New("second"))

	op, err := j.Err()
	assert.Equal(t, "prep", op)
	assert.Same(t, first, err)
	assert.Equal(t, 2, j.Count())
	assert.True(t, j.Failed())
}
