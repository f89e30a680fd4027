package redis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionKey(t *testing.T) {
	assert.Equal(t, "mall:session:42", sessionKey(42))
}

func TestBlacklistKey(t *testing.T) {
	token := strings.Repeat("x", 512)

	key := blacklistKey(token)
	assert.True(t, strings.HasPrefix(key, "mall:blacklist:"))
	assert.Len(t, key, len("mall:blacklist:")+64)
	assert.Equal(t, key, blacklistKey(token))
	assert.NotEqual(t, key, blacklistKey(token+"y"))
}
