package progress

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader(t *testing.T) {
	src := strings.NewReader("0123456789")
	assert.Same(t, src, Reader(context.Background(), src))

	bar := NewBar(10, false, "Uploading")
	r := Reader(WithBar(context.Background(), bar), strings.NewReader("0123456789"))

	b, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(b))
	assert.EqualValues(t, 10, bar.State().CurrentBytes)
}

func TestReadSeeker(t *testing.T) {
	src := strings.NewReader("0123456789")
	assert.Same(t, src, ReadSeeker(context.Background(), src))

	bar := NewBar(10, false, "Uploading")
	r := ReadSeeker(WithBar(context.Background(), bar), strings.NewReader("0123456789"))

	_, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.EqualValues(t, 10, bar.State().CurrentBytes)

	// a retry starts over
	_, err = r.Seek(4, io.SeekStart)
	require.NoError(t, err)
	assert.EqualValues(t, 4, bar.State().CurrentBytes)

	b, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "456789", string(b))
	assert.EqualValues(t, 10, bar.State().CurrentBytes)
}
