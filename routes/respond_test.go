package routes

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tackler-server/models"
)

func runRespondError(t *testing.T, err error) (int, map[string]string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/test", nil)

	respondError(c, err)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestRespondErrorDomainCodes(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{models.ErrDuplicateBid("already bid"), http.StatusConflict, "duplicate_bid"},
		{models.ErrBookingAlreadyAssigned("taken"), http.StatusConflict, "booking_already_assigned"},
		{models.ErrInvalidStageTransition("no skip"), http.StatusBadRequest, "invalid_stage_transition"},
		{models.ErrExtraPartsPending(3), http.StatusConflict, "extra_parts_pending"},
		{models.ErrUnauthorized("not yours"), http.StatusForbidden, "unauthorized"},
		{models.ErrNotFound("gone"), http.StatusNotFound, "not_found"},
		{models.ErrValidation("bad input"), http.StatusUnprocessableEntity, "validation_failed"},
	}

	for _, tc := range cases {
		status, body := runRespondError(t, tc.err)
		assert.Equal(t, tc.status, status, "code %s", tc.code)
		assert.Equal(t, tc.code, body["code"])
		assert.NotEmpty(t, body["error"])
	}
}

func TestRespondErrorUnknown(t *testing.T) {
	status, body := runRespondError(t, errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal_error", body["code"])
	// Internal details never leak to the client
	assert.NotContains(t, body["error"], "boom")
}
