package isolation

import (
	"bufio"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadLineRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	req := runRequest{Kind: msgRun, Concurrency: 4}
	require.NoError(t, writeLine(&buf, req))

	var got runRequest
	require.NoError(t, readLine(bufio.NewReader(&buf), &got))
	assert.Equal(t, req.Kind, got.Kind)
	assert.Equal(t, req.Concurrency, got.Concurrency)
}

func TestReadLineRejectsUnterminatedInput(t *testing.T) {
	buf := bytes.NewBufferString(`{"kind":"run"}`) // no trailing newline, EOF hit mid-line
	var got runRequest
	err := readLine(bufio.NewReader(buf), &got)
	assert.Error(t, err)
}

func TestReadLineEOFOnEmptyStream(t *testing.T) {
	buf := &bytes.Buffer{}
	var got runRequest
	err := readLine(bufio.NewReader(buf), &got)
	assert.ErrorIs(t, err, io.EOF)
}
