package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireSession(t *testing.T) {
	now := time.Now()
	tokens := newTestCodec(t, func() time.Time { return now })
	cookies := DefaultCookieConfig()

	valid, _, err := tokens.Issue(Claims{ID: "id1", Username: "jimi"})
	require.NoError(t, err)

	tests := []struct {
		name     string
		cookie   *http.Cookie
		advance  time.Duration
		wantCode int
	}{
		{name: "no cookie", wantCode: http.StatusUnauthorized},
		{name: "garbage", cookie: &http.Cookie{Name: "token", Value: "garbage"}, wantCode: http.StatusUnauthorized},
		{name: "other cookie name", cookie: &http.Cookie{Name: "session", Value: valid}, wantCode: http.StatusUnauthorized},
		{name: "expired", cookie: &http.Cookie{Name: "token", Value: valid}, advance: SessionTTL + time.Second, wantCode: http.StatusUnauthorized},
		{name: "valid", cookie: &http.Cookie{Name: "token", Value: valid}, wantCode: http.StatusTeapot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens.now = func() time.Time { return now.Add(tt.advance) }

			var seen *Claims
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = ClaimsFromContext(r.Context())
				w.WriteHeader(http.StatusTeapot)
			})

			r := httptest.NewRequest(http.MethodGet, "/auth", nil)
			if tt.cookie != nil {
				r.AddCookie(tt.cookie)
			}
			w := httptest.NewRecorder()
			RequireSession(tokens, cookies, next).ServeHTTP(w, r)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode == http.StatusTeapot {
				require.NotNil(t, seen)
				assert.Equal(t, ID("id1"), seen.ID)
				assert.Equal(t, "jimi", seen.Username)
			} else {
				assert.Nil(t, seen)
				assert.Equal(t, "Unauthorized", decodeResponse(t, w).Msg)
			}
		})
	}
}

func TestClaimsFromContext_Empty(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	c, ok := ClaimsFromContext(r.Context())
	assert.False(t, ok)
	assert.Nil(t, c)
}
