package httpx

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
	return c, w
}

func TestWriteObjectSuccess(t *testing.T) {
	c, w := newTestContext()

	WriteObject(c, gin.H{"ok": true}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWriteObjectErrorDefaultsToBadRequest(t *testing.T) {
	c, w := newTestContext()

	WriteObject(c, gin.H{"ok": false}, errors.New("boom"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWriteObjectErrorStatusOverride(t *testing.T) {
	c, w := newTestContext()

	WriteObject(c, gin.H{"ok": false}, errors.New("store down"), http.StatusServiceUnavailable)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestWriteObjectOverrideIgnoredOnSuccess(t *testing.T) {
	c, w := newTestContext()

	WriteObject(c, gin.H{"ok": true}, nil, http.StatusServiceUnavailable)
	assert.Equal(t, http.StatusOK, w.Code)
}
