package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lilizblack/bookeareads-server/internal/errors"
)

type createBookRequest struct {
	Title  string  `json:"title" validate:"required"`
	Author string  `json:"author" validate:"required"`
	Status string  `json:"status,omitempty" validate:"omitempty,oneof=want-to-read reading read paused dnf"`
	Rating float64 `json:"rating" validate:"gte=0,lte=5"`
}

func TestValidatePasses(t *testing.T) {
	v := New()

	err := v.Validate(createBookRequest{
		Title:  "The Hobbit",
		Author: "J.R.R. Tolkien",
		Status: "reading",
		Rating: 4.5,
	})
	assert.NoError(t, err)
}

func TestValidateReturnsDomainError(t *testing.T) {
	v := New()

	err := v.Validate(createBookRequest{Author: "Someone", Rating: 7})
	require.Error(t, err)

	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeValidation, appErr.Code)

	details, ok := appErr.Details.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", details["title"])
	assert.Equal(t, "must be less than or equal to 5", details["rating"])
}

func TestValidateUsesJSONTagNames(t *testing.T) {
	v := New()

	err := v.Validate(createBookRequest{Title: "x"})
	require.Error(t, err)

	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	details := appErr.Details.(map[string]string)
	_, hasGoName := details["Author"]
	assert.False(t, hasGoName)
	assert.Contains(t, details, "author")
}

func TestValidateRejectsBadEnum(t *testing.T) {
	v := New()

	err := v.Validate(createBookRequest{Title: "x", Author: "y", Status: "abandoned"})
	require.Error(t, err)

	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	details := appErr.Details.(map[string]string)
	assert.Equal(t, "must be one of: want-to-read reading read paused dnf", details["status"])
}
