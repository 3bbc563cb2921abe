package result

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"NetworkingServer/consts"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestSuccessEnvelope(t *testing.T) {
	c, w := newContext()
	c.Set("trace_id", "t-1")

	Success(c, map[string]int{"id": 7})

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, StatusSuccess, body["status"])
	assert.EqualValues(t, 200, body["status_code"])
	assert.Equal(t, "Successful", body["message"])
	assert.Equal(t, map[string]interface{}{"id": float64(7)}, body["data"])
	assert.Equal(t, map[string]interface{}{}, body["error_data"])
	assert.Equal(t, "", body["error_message"])
	assert.NotEmpty(t, body["timestamp"])
	assert.Equal(t, "t-1", body["trace_id"])
	_, hasMeta := body["meta"]
	assert.False(t, hasMeta)

	code, _ := c.Get(ContextKeyBusinessCode)
	assert.Equal(t, consts.CodeSuccess, code)
}

func TestFailEnvelope(t *testing.T) {
	c, w := newContext()

	Fail(c, nil, consts.CodeRequestAlreadyExists)

	assert.Equal(t, http.StatusConflict, w.Code)
	body := decode(t, w)
	assert.Equal(t, StatusFailure, body["status"])
	assert.EqualValues(t, http.StatusConflict, body["status_code"])
	assert.EqualValues(t, consts.CodeRequestAlreadyExists, body["code"])
	assert.Equal(t, consts.GetMessage(consts.CodeRequestAlreadyExists), body["message"])
	assert.Equal(t, map[string]interface{}{}, body["data"])
	assert.Equal(t, StatusFailure, c.GetString(ContextKeyStatus))
}

func TestFailWithErrorHidesInternalsOutsideDebug(t *testing.T) {
	c, w := newContext()
	FailWithError(c, consts.CodeInternalError, errors.New("dial tcp: refused"), false)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "", decode(t, w)["error_message"])

	c, w = newContext()
	FailWithError(c, consts.CodeInternalError, errors.New("dial tcp: refused"), true)
	assert.Equal(t, "dial tcp: refused", decode(t, w)["error_message"])
}

func TestSuccessWithMeta(t *testing.T) {
	c, w := newContext()
	SuccessWithMeta(c, []int{1, 2}, "", Meta{Count: 12, Page: 2, PageSize: 10})

	body := decode(t, w)
	assert.Equal(t, map[string]interface{}{"count": float64(12), "page": float64(2), "page_size": float64(10)}, body["meta"])
}

func TestFailWithErrorData(t *testing.T) {
	c, w := newContext()
	FailWithErrorData(c, "Note_content: This field is required.", consts.CodeParamError, map[string][]string{"note_content": {"This field is required."}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Note_content: This field is required.", body["message"])
	assert.Contains(t, body["error_data"], "note_content")
}

func TestCreated(t *testing.T) {
	c, w := newContext()

	Created(c, map[string]int{"id": 1}, "Networking request sent successfully")

	assert.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, StatusSuccess, body["status"])
	assert.Equal(t, float64(http.StatusCreated), body["status_code"])
	assert.Equal(t, "Networking request sent successfully", body["message"])
	assert.Equal(t, 0, c.GetInt(ContextKeyBusinessCode))
}
