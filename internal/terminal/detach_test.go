package terminal

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isDetached(r *DetachReader) bool {
	select {
	case <-r.Detached():
		return true
	default:
		return false
	}
}

func TestDetachReaderPassesInput(t *testing.T) {
	r := NewDetachReader(bytes.NewReader([]byte("ls -la\n")))

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "ls -la\n", string(got))
	assert.False(t, isDetached(r))
}

func TestDetachReaderSingleKeyPassesThrough(t *testing.T) {
	input := []byte{DetachKey, 'a', 'b'}
	r := NewDetachReader(bytes.NewReader(input))

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, input, got)
	assert.False(t, isDetached(r))
}

func TestDetachReaderTrailingKeyFlushedAtEOF(t *testing.T) {
	input := []byte{'x', DetachKey}
	r := NewDetachReader(bytes.NewReader(input))

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, input, got)
}

func TestDetachReaderDoublePressDetaches(t *testing.T) {
	input := []byte{'e', 'x', DetachKey, DetachKey, 'z'}
	r := NewDetachReader(bytes.NewReader(input))

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "ex", string(got), "bytes after the sequence are dropped")
	assert.True(t, isDetached(r))

	n, err := r.Read(make([]byte, 8))
	assert.Zero(t, n)
	assert.ErrorIs(t, err, io.EOF)
}

func TestDetachReaderSlowPressesDoNotDetach(t *testing.T) {
	r := NewDetachReader(bytes.NewReader([]byte{DetachKey, DetachKey}))
	clock := time.Unix(0, 0)
	r.now = func() time.Time {
		clock = clock.Add(DetachWindow + time.Millisecond)
		return clock
	}

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, []byte{DetachKey, DetachKey}, got)
	assert.False(t, isDetached(r))
}

func TestDetachReaderSmallBuffer(t *testing.T) {
	r := NewDetachReader(bytes.NewReader([]byte("abcdef")))

	var out []byte
	buf := make([]byte, 2)
	for {
		n, err := r.Read(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}
	assert.Equal(t, "abcdef", string(out))
}
