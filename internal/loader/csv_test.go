package loader

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, s *csvStream) (string, error) {
	t.Helper()
	var sb strings.Builder
	_, err := io.Copy(&sb, s)
	return sb.String(), err
}

func TestCSVStream_SkipsHeader(t *testing.T) {
	in := "id,name\n1,alice\n2,bob\n3,carol\n"
	s := newCSVStream(strings.NewReader(in), ',', true, 10)

	out, err := drain(t, s)
	require.NoError(t, err)

	assert.Equal(t, "1,alice\n2,bob\n3,carol\n", out)
	assert.Equal(t, int64(3), s.Rows())
	assert.Zero(t, s.Rejected())
}

func TestCSVStream_NoHeader(t *testing.T) {
	in := "1,alice\n2,bob\n3,carol\n4,dave\n"
	s := newCSVStream(strings.NewReader(in), ',', false, 10)

	out, err := drain(t, s)
	require.NoError(t, err)

	assert.Equal(t, in, out)
	assert.Equal(t, int64(4), s.Rows())
}

func TestCSVStream_PipeDelimiterRewritten(t *testing.T) {
	in := "1|alice\n2|bob\n"
	s := newCSVStream(strings.NewReader(in), '|', false, 10)

	out, err := drain(t, s)
	require.NoError(t, err)

	// Output is canonical comma-separated CSV regardless of source delimiter.
	assert.Equal(t, "1,alice\n2,bob\n", out)
}

func TestCSVStream_QuotesFieldsContainingCommas(t *testing.T) {
	in := "1|alice, the first\n"
	s := newCSVStream(strings.NewReader(in), '|', false, 10)

	out, err := drain(t, s)
	require.NoError(t, err)

	assert.Equal(t, "1,\"alice, the first\"\n", out)
}

func TestCSVStream_RejectsWithinTolerance(t *testing.T) {
	// Second line has a stray field; the first record fixed the expected
	// field count at two.
	in := "1,alice\n2,bob,extra\n3,carol\n"
	s := newCSVStream(strings.NewReader(in), ',', false, 10)

	out, err := drain(t, s)
	require.NoError(t, err)

	assert.Equal(t, "1,alice\n3,carol\n", out)
	assert.Equal(t, int64(2), s.Rows())
	assert.Equal(t, 1, s.Rejected())
	assert.False(t, s.RejectLimitExceeded())
}

func TestCSVStream_AbortsBeyondTolerance(t *testing.T) {
	in := "1,alice\n2,bob,x\n3,carol,y\n4,dave\n"
	s := newCSVStream(strings.NewReader(in), ',', false, 1)

	_, err := drain(t, s)
	require.Error(t, err)

	assert.True(t, errors.Is(err, errTooManyRejects))
	assert.True(t, s.RejectLimitExceeded())
	assert.Equal(t, 2, s.Rejected())
}

func TestCSVStream_ZeroToleranceAbortsOnFirstBadLine(t *testing.T) {
	in := "1,alice\n2,bob,x\n"
	s := newCSVStream(strings.NewReader(in), ',', false, 0)

	_, err := drain(t, s)
	require.Error(t, err)
	assert.True(t, s.RejectLimitExceeded())
}

func TestCSVStream_RecoversAfterStrayQuote(t *testing.T) {
	// A stray quote rejects only its own line; parsing resumes at the
	// next one instead of misreading the rest of the file.
	in := "1,alice\n2,\"bo\"b\n3,carol\n4,dave\n"
	s := newCSVStream(strings.NewReader(in), ',', false, 10)

	out, err := drain(t, s)
	require.NoError(t, err)

	assert.Equal(t, "1,alice\n3,carol\n4,dave\n", out)
	assert.Equal(t, int64(3), s.Rows())
	assert.Equal(t, 1, s.Rejected())
}

func TestCSVStream_MalformedHeaderNotCountedAsReject(t *testing.T) {
	// Header with a stray quote is skipped, not rejected.
	in := "id,\"na\"me\n1,alice\n2,bob\n"
	s := newCSVStream(strings.NewReader(in), ',', true, 10)

	out, err := drain(t, s)
	require.NoError(t, err)

	assert.Equal(t, "1,alice\n2,bob\n", out)
	assert.Zero(t, s.Rejected())
}

func TestCSVStream_EmptyFile(t *testing.T) {
	s := newCSVStream(strings.NewReader(""), ',', true, 10)

	out, err := drain(t, s)
	require.NoError(t, err)

	assert.Empty(t, out)
	assert.Zero(t, s.Rows())
}

func TestCSVStream_HeaderOnlyFile(t *testing.T) {
	s := newCSVStream(strings.NewReader("id,name\n"), ',', true, 10)

	out, err := drain(t, s)
	require.NoError(t, err)

	assert.Empty(t, out)
	assert.Zero(t, s.Rows())
}

func TestCSVStream_ErrorIsSticky(t *testing.T) {
	in := "1,alice\n2,bob,x\n"
	s := newCSVStream(strings.NewReader(in), ',', false, 0)

	_, err := drain(t, s)
	require.Error(t, err)

	_, err2 := s.Read(make([]byte, 8))
	assert.Equal(t, err, err2, "subsequent reads must return the latched error")
}
