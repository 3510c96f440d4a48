package debug

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitWriter(t *testing.T) {
	t.Cleanup(func() { Init(false) })

	var buf bytes.Buffer
	InitWriter(false, &buf)
	Debug("hidden")
	Error("also hidden")
	assert.False(t, Enabled())
	assert.Empty(t, buf.String())

	InitWriter(true, &buf)
	Debug("registry create", "name", "reporting")
	With("dialect", "mysql").Info("opened")
	assert.True(t, Enabled())

	out := buf.String()
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, `msg="registry create"`)
	assert.Contains(t, out, "name=reporting")
	assert.Contains(t, out, "component=stardb")
	assert.Contains(t, out, "dialect=mysql")
}
