package middleware

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

func sign(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func run(guard func(fasthttp.RequestHandler) fasthttp.RequestHandler, authorization string) (*fasthttp.RequestCtx, bool) {
	var ctx fasthttp.RequestCtx
	if authorization != "" {
		ctx.Request.Header.Set("Authorization", authorization)
	}
	called := false
	guard(func(*fasthttp.RequestCtx) { called = true })(&ctx)
	return &ctx, called
}

func TestJWTAuth_DisabledWithoutSecret(t *testing.T) {
	_, called := run(JWTAuth("", "", nil), "")
	assert.True(t, called)
}

func TestJWTAuth(t *testing.T) {
	const secret = "s3cret"
	guard := JWTAuth(secret, "tasks", nil)
	valid := sign(t, secret, jwt.MapClaims{"sub": "alice", "iss": "tasks", "exp": time.Now().Add(time.Hour).Unix()})

	tests := []struct {
		name   string
		header string
		want   bool
	}{
		{name: "missing token", header: "", want: false},
		{name: "valid bearer", header: "Bearer " + valid, want: true},
		{name: "valid raw token", header: valid, want: true},
		{name: "wrong secret", header: "Bearer " + sign(t, "other", jwt.MapClaims{"iss": "tasks"}), want: false},
		{name: "wrong issuer", header: "Bearer " + sign(t, secret, jwt.MapClaims{"iss": "elsewhere"}), want: false},
		{name: "expired", header: "Bearer " + sign(t, secret, jwt.MapClaims{"iss": "tasks", "exp": time.Now().Add(-time.Hour).Unix()}), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, called := run(guard, tt.header)
			assert.Equal(t, tt.want, called)
			if !tt.want {
				assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
			}
		})
	}
}

func TestJWTAuth_ExposesSubject(t *testing.T) {
	const secret = "s3cret"
	token := sign(t, secret, jwt.MapClaims{"sub": "alice"})

	ctx, called := run(JWTAuth(secret, "", nil), "Bearer "+token)
	require.True(t, called)
	assert.Equal(t, "alice", ctx.UserValue("subject"))
}
