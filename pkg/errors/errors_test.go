package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type AppErrorTestSuite struct {
	suite.Suite
}

func TestAppErrorSuite(t *testing.T) {
	suite.Run(t, new(AppErrorTestSuite))
}

func (s *AppErrorTestSuite) TestStatusCode() {
	cases := map[*AppError]int{
		NewRecipeNotFoundError(7):               http.StatusNotFound,
		NewValidationError("title is required"): http.StatusBadRequest,
		NewImportError("bad json", nil):         http.StatusBadRequest,
		NewTooManyRequestsError():               http.StatusTooManyRequests,
		NewQueueError("task", nil):              http.StatusServiceUnavailable,
		NewDatabaseError("load recipe", nil):    http.StatusInternalServerError,
	}

	for err, want := range cases {
		assert.Equal(s.T(), want, err.StatusCode(), string(err.Code))
	}
}

func (s *AppErrorTestSuite) TestWrappedAppErrorIsDetected() {
	s.Run("Wrapped_ShouldKeepCode", func() {
		// Arrange
		inner := NewRecipeNotFoundError(42)
		wrapped := fmt.Errorf("loading: %w", inner)

		// Act
		appErr := Wrap(wrapped, "ignored")

		// Assert
		assert.True(s.T(), Is(wrapped, CodeRecipeNotFound))
		require.NotNil(s.T(), appErr)
		assert.Equal(s.T(), uint(42), appErr.Metadata["recipe_id"])
	})

	s.Run("PlainError_ShouldBecomeInternal", func() {
		err := Wrap(fmt.Errorf("boom"), "something broke")

		require.NotNil(s.T(), err)
		assert.Equal(s.T(), CodeInternal, err.Code)
		assert.Equal(s.T(), "something broke", err.Message)
		assert.EqualError(s.T(), err.Cause, "boom")
	})

	s.Run("Nil_ShouldStayNil", func() {
		assert.Nil(s.T(), Wrap(nil, "nothing"))
	})
}

func (s *AppErrorTestSuite) TestToErrorResponse() {
	err := NewRecipeNotFoundError(3)

	resp := ToErrorResponse(err, "req-1")

	assert.Equal(s.T(), CodeRecipeNotFound, resp.Error.Code)
	assert.Equal(s.T(), "Recipe not found", resp.Error.Message)
	assert.Equal(s.T(), "req-1", resp.Error.RequestID)
	assert.Equal(s.T(), map[string]interface{}{"recipe_id": uint(3)}, resp.Error.Metadata)
	assert.NotEmpty(s.T(), resp.Error.Timestamp)
}

func (s *AppErrorTestSuite) TestValidationErrorsMessage() {
	errs := ValidationErrors{
		{Field: "title", Message: "title is required"},
		{Field: "ratings", Message: "ratings must be between 0 and 5"},
	}

	assert.Equal(s.T(), "title is required; ratings must be between 0 and 5", errs.Error())
	assert.Equal(s.T(), "validation failed", ValidationErrors{}.Error())
}
