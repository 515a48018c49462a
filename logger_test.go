package vikasyatra

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeKVs(t *testing.T) {
	out := sanitizeKVs([]any{
		"user_email", "learner@example.com",
		"Authorization", "Bearer x",
		"uid", "u1",
		"job_id", "j1",
		"payload", map[string]any{"token": "t", "mode": "pdf"},
		"dangling",
	})
	assert.Len(t, out, 11)
	assert.Equal(t, "[REDACTED]", out[1])
	assert.Equal(t, "[REDACTED]", out[3])

	hashed, ok := out[5].(string)
	assert.True(t, ok)
	assert.Regexp(t, `^hash:[0-9a-f]{12}$`, hashed)
	assert.Equal(t, hashed, hashValue("u1"))

	assert.Equal(t, "j1", out[7])
	assert.Equal(t, map[string]any{"token": "[REDACTED]", "mode": "pdf"}, out[9])
	assert.Equal(t, "dangling", out[10])
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, orNop(nil).SugaredLogger)
	l := NopLogger()
	assert.Same(t, l, orNop(l))
	assert.NotPanics(t, func() { l.With("uid", "u1").Info("hello", "password", "p") })
}
