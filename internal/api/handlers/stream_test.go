package handlers

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteEvent(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)

	require.NoError(t, writeEvent(w, "memos", []string{"a"}))
	require.NoError(t, writeKeepAlive(w))

	assert.Equal(t, "event: memos\ndata: [\"a\"]\n\n: keepalive\n\n", buf.String())
}
