package provider

import (
	"testing"

	"github.com/danmuck/edgeprobe/internal/testutil/testlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhomMasks(t *testing.T) {
	testlog.Start(t)
	assert.Equal(t, uint32(0o400), Owner.mask(accessRead))
	assert.Equal(t, uint32(0o040), Group.mask(accessRead))
	assert.Equal(t, uint32(0o004), Others.mask(accessRead))
	assert.Equal(t, uint32(0o444), Anyone.mask(accessRead))
	assert.Equal(t, uint32(0o200), Owner.mask(accessWrite))
	assert.Equal(t, uint32(0o020), Group.mask(accessWrite))
	assert.Equal(t, uint32(0o002), Others.mask(accessWrite))
	assert.Equal(t, uint32(0o222), Anyone.mask(accessWrite))
	assert.Equal(t, uint32(0o111), Whom{}.mask(accessExecute))
	assert.Zero(t, User("alice").mask(accessRead))
}

func TestParseWhom(t *testing.T) {
	testlog.Start(t)
	cases := map[string]Whom{
		"":           Anyone,
		"any":        Anyone,
		"Owner":      Owner,
		"group":      Group,
		"others":     Others,
		"user:alice": User("alice"),
	}
	for raw, want := range cases {
		got, err := ParseWhom(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
	for _, raw := range []string{"user:", "everyone"} {
		_, err := ParseWhom(raw)
		assert.Error(t, err, raw)
	}
	assert.Equal(t, "user:alice", User("alice").String())
}
