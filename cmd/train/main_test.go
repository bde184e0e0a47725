package main

import (
	"bytes"
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlp/snapshot"
	"mlp/utils"
)

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevVerbose := utils.Output, utils.Verbose
	utils.Output, utils.Verbose = &buf, true
	t.Cleanup(func() { utils.Output, utils.Verbose = prevOut, prevVerbose })
	return &buf
}

func TestCloseStreamDone(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, closeStream(snapshot.NewWriter(&buf), nil))

	_, err := snapshot.NewReader(&buf).ReceiveEpoch()
	assert.Equal(t, io.EOF, err)
}

func TestCloseStreamRecordsFailure(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, closeStream(snapshot.NewWriter(&buf), errors.New("diverged")))

	_, err := snapshot.NewReader(&buf).ReceiveEpoch()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "diverged")
}

func TestCloseStreamLogsWriteFailure(t *testing.T) {
	log := captureLog(t)

	err := closeStream(snapshot.NewWriter(failWriter{}), errors.New("diverged"))
	assert.NoError(t, err)
	assert.Contains(t, log.String(), "[TRAIN] could not record failure in snapshot stream")
	assert.Contains(t, log.String(), "disk full")

	assert.Error(t, closeStream(snapshot.NewWriter(failWriter{}), nil))
}
