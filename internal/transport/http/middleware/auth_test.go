package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minitwit/internal/httputil"
	"minitwit/internal/model"
)

const secret = "test-secret"

func signToken(t *testing.T, key string, userID int64, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     exp.Unix(),
		"iat":     time.Now().Unix(),
	})
	signed, err := token.SignedString([]byte(key))
	require.NoError(t, err)
	return signed
}

// echoUser reports the resolved user id, or -1 when anonymous.
var echoUser = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	id := int64(-1)
	if current := CurrentUserID(r.Context()); current != nil {
		id = *current
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int64{"user_id": id})
})

func serve(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestAuthMiddleware(t *testing.T) {
	valid := signToken(t, secret, 7, time.Now().Add(time.Hour))
	expired := signToken(t, secret, 7, time.Now().Add(-time.Hour))
	forged := signToken(t, "other-secret", 7, time.Now().Add(time.Hour))

	tests := []struct {
		name       string
		header     string
		cookie     string
		wantStatus int
		wantCode   string
	}{
		{name: "bearer header", header: "Bearer " + valid, wantStatus: http.StatusOK},
		{name: "cookie", cookie: valid, wantStatus: http.StatusOK},
		{name: "missing", wantStatus: http.StatusUnauthorized, wantCode: httputil.ErrCodeUnauthorized},
		{name: "expired", header: "Bearer " + expired, wantStatus: http.StatusUnauthorized, wantCode: model.CodeTokenExpired},
		{name: "bad signature", header: "Bearer " + forged, wantStatus: http.StatusUnauthorized, wantCode: model.CodeTokenInvalid},
		{name: "garbage", cookie: "not-a-jwt", wantStatus: http.StatusUnauthorized, wantCode: model.CodeTokenInvalid},
	}

	h := AuthMiddleware(secret)(echoUser)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: tt.cookie})
			}

			rec, body := serve(t, h, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, float64(7), body["user_id"])
				return
			}
			errBody, ok := body["error"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, errBody["code"])
		})
	}
}

func TestOptionalAuthMiddleware(t *testing.T) {
	valid := signToken(t, secret, 7, time.Now().Add(time.Hour))
	expired := signToken(t, secret, 7, time.Now().Add(-time.Hour))

	tests := []struct {
		name   string
		cookie string
		want   float64
	}{
		{name: "valid token", cookie: valid, want: 7},
		{name: "no token", want: -1},
		{name: "expired token is anonymous", cookie: expired, want: -1},
		{name: "garbage token is anonymous", cookie: "xyz", want: -1},
	}

	h := OptionalAuthMiddleware(secret)(echoUser)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: tt.cookie})
			}

			rec, body := serve(t, h, req)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, body["user_id"])
		})
	}
}
