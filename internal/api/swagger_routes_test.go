//go:build swagger

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestSwaggerUIReadsOpenAPI(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	registerOpenAPIRoutes(engine)
	registerSwaggerRoutes(engine)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/openapi")
}
