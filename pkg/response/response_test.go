package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/jay1247sjh/smartmall-governance-api/internal/geometry"
	appErrors "github.com/jay1247sjh/smartmall-governance-api/pkg/errors"
)

func TestErrorBoundaryViolation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	authorized := &geometry.Region{
		Kind: geometry.KindBox,
		Min:  &geometry.Point{X: 0, Y: 0, Z: 0},
		Max:  &geometry.Point{X: 20, Y: 5, Z: 20},
	}
	err := geometry.ValidateEdit(authorized, geometry.Box{
		Min: geometry.Point{X: 25, Y: 5, Z: 25},
		Max: geometry.Point{X: 26, Y: 6, Z: 26},
	})
	require.Error(t, err)

	Error(c, err)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var envelope struct {
		Error *appErrors.Error       `json:"error"`
		Meta  map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, "BOUNDARY_VIOLATION", envelope.Error.Code)

	offending, ok := envelope.Meta["offendingPoint"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, 25.0, offending["x"])

	region, ok := envelope.Meta["authorizedRegion"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "box", region["kind"])
}

func TestErrorTypedError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, appErrors.Clone(appErrors.ErrForbidden, "not your application"))
	require.Equal(t, http.StatusForbidden, w.Code)

	var envelope struct {
		Error *appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, "FORBIDDEN", envelope.Error.Code)
	require.Equal(t, "not your application", envelope.Error.Message)
}
