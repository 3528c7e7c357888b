package server

import (
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestGenerateNickname(t *testing.T) {
	t.Parallel()

	for range 50 {
		name := GenerateNickname()
		assert.LessOrEqual(t, utf8.RuneCountInString(name), maxNameLength)

		hasAdj := false
		for _, adj := range adjectives {
			if strings.HasPrefix(name, adj) {
				hasAdj = true
				break
			}
		}
		assert.True(t, hasAdj, "nickname %q should start with an adjective", name)

		suffix := name[len(name)-2:]
		assert.Regexp(t, `^\d\d$`, suffix)
	}
}

func TestDisplayName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "FromToken", displayName("FromToken", "Requested"))
	assert.Equal(t, "Requested", displayName("", "  Requested "))
	assert.Equal(t, "一二三四五六七八九十一二三四五六", displayName("", "一二三四五六七八九十一二三四五六七八"))
	assert.NotEmpty(t, displayName("", ""))
	assert.NotEqual(t, "\xff", displayName("", "\xff"))
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest("GET", "/ws?token=from-query", nil)
	assert.Equal(t, "from-query", bearerToken(r))

	r.Header.Set("Authorization", "Bearer from-header")
	assert.Equal(t, "from-header", bearerToken(r))

	r.Header.Set("Authorization", "Basic abc")
	assert.Equal(t, "from-query", bearerToken(r))
}
