package logger

import (
	"bytes"
	"encoding/json"
	"io"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHook(t *testing.T) {
	var buf bytes.Buffer
	l := log.New()
	l.SetOutput(io.Discard)
	l.AddHook(NewErrorHook(&buf))

	l.Info("not duplicated")
	assert.Zero(t, buf.Len())

	l.WithField("id", 7).Error("delete failed")
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "delete failed", entry["msg"])
	assert.EqualValues(t, 7, entry["id"])
}

func TestGetOutput(t *testing.T) {
	dir := t.TempDir()
	w := getOutput(dir, false, "test.log")
	_, err := w.Write([]byte("x"))
	require.NoError(t, err)
	assert.FileExists(t, dir+"/test.log")
}
