package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func newRouter(extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(zerolog.Nop()), ActorMiddleware(testSecret))
	handlers := append(extra, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"actor": ActorFrom(c).String()})
	})
	r.GET("/", handlers...)
	return r
}

func TestActorMiddleware(t *testing.T) {
	valid := signed(t, jwt.MapClaims{"sub": "42", "role": "Staff", "exp": time.Now().Add(time.Hour).Unix()})
	noRole := signed(t, jwt.MapClaims{"sub": "p-9"})
	expired := signed(t, jwt.MapClaims{"sub": "42", "exp": time.Now().Add(-time.Hour).Unix()})
	noSub := signed(t, jwt.MapClaims{"role": "admin"})

	tests := []struct {
		name   string
		header string
		status int
		actor  string
	}{
		{"anonymous", "", http.StatusOK, `{"actor":"anonymous"}`},
		{"staff token", "Bearer " + valid, http.StatusOK, `{"actor":"staff:42"}`},
		{"defaults to patient", "Bearer " + noRole, http.StatusOK, `{"actor":"patient:p-9"}`},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, ""},
		{"no subject", "Bearer " + noSub, http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			newRouter().ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.actor != "" {
				assert.JSONEq(t, tt.actor, w.Body.String())
			}
			assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
		})
	}
}

func TestRequireRole(t *testing.T) {
	r := newRouter(RequireRole(RoleStaff, RoleAdmin))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed(t, jwt.MapClaims{"sub": "p1", "role": "patient"}))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed(t, jwt.MapClaims{"sub": "1", "role": "admin"}))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestID_PropagatesHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "req-123")
	w := httptest.NewRecorder()

	newRouter().ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get(HeaderRequestID))
}

func TestCORSPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware())
	r.OPTIONS("/api/slots", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/api/slots", nil)
	req.Header.Set("Origin", "https://clinic.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://clinic.example", w.Header().Get("Access-Control-Allow-Origin"))
}
