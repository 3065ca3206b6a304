//go:build e2e

package helper

import (
	"net/http"
	"testing"

	"clinic-booking/internal/handler/dto/request"
	resdto "clinic-booking/internal/handler/dto/response"
	"clinic-booking/tests/common/httptest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// ObtainToken exchanges client credentials for a bearer token over the wire.
func ObtainToken(t *testing.T, router *gin.Engine, clientID, clientSecret string) string {
	t.Helper()

	w := httptest.PerformRequest(t, router, http.MethodPost, "/api/auth/token",
		request.TokenRequest{ClientID: clientID, ClientSecret: clientSecret}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp resdto.TokenResponse
	require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &resp))
	require.NotEmpty(t, resp.AccessToken)

	return resp.AccessToken
}
