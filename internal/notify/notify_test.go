package notify

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mesh-intelligence/backoffice/pkg/types"
)

func TestLogWritesLevelAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	NewLog(logger).Notify(types.Notice{
		Level:    types.NoticeError,
		Resource: "parents",
		Message:  "record not found",
		Err:      errors.New("404"),
	})

	out := buf.String()
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, `msg="record not found"`)
	assert.Contains(t, out, "resource=parents")
	assert.Contains(t, out, "error=404")
}

func TestRecorderAndMulti(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	m := Multi{a, nil, b}

	m.Notify(types.Notice{Level: types.NoticeWarning, Message: "soft"})
	m.Notify(types.Notice{Level: types.NoticeError, Message: "hard"})

	assert.Len(t, a.Notices(), 2)
	assert.Equal(t, 1, b.Count(types.NoticeError))
	a.Reset()
	assert.Empty(t, a.Notices())
}
