package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIssuer() *Issuer {
	return NewIssuer("tuition-test", "secret", "1234", time.Minute, time.Hour)
}

func TestLoginAndParse(t *testing.T) {
	iss := newIssuer()

	_, err := iss.Login("tablet", "0000")
	assert.ErrorIs(t, err, ErrBadPasscode)

	pair, err := iss.Login("tablet", "1234")
	require.NoError(t, err)

	claims, err := iss.Parse(pair.AccessToken, KindAccess)
	require.NoError(t, err)
	assert.Equal(t, "tablet", claims.Subject)

	_, err = iss.Parse(pair.RefreshToken, KindAccess)
	assert.ErrorIs(t, err, ErrWrongKind)

	_, err = iss.Refresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrWrongKind)
	next, err := iss.Refresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, next.AccessToken)
}

func TestParse_Expired(t *testing.T) {
	iss := newIssuer()
	pair, err := iss.Issue("tablet")
	require.NoError(t, err)

	iss.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = iss.Parse(pair.AccessToken, KindAccess)
	assert.Error(t, err)
}

func TestParse_OtherKey(t *testing.T) {
	pair, err := NewIssuer("tuition-test", "other", "1234", time.Minute, time.Hour).Issue("tablet")
	require.NoError(t, err)
	_, err = newIssuer().Parse(pair.AccessToken, KindAccess)
	assert.Error(t, err)
}

func TestRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	iss := newIssuer()
	r := gin.New()
	r.GET("/x", Required(iss), func(c *gin.Context) {
		claims := c.MustGet(ClaimsKey).(Claims)
		c.String(http.StatusOK, claims.Subject)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	pair, err := iss.Issue("tablet")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tablet", w.Body.String())
}
