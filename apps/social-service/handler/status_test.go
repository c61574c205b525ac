package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"melodiary/apps/social-service/model"
)

func TestStatusOfStoreUnavailable(t *testing.T) {
	err := fmt.Errorf("%w: failed to create follow: connection refused", model.ErrStoreUnavailable)
	assert.Equal(t, http.StatusServiceUnavailable, statusOf(err))
}

func TestStatusOfClientErrors(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusOf(model.ErrValidation))
	assert.Equal(t, http.StatusBadRequest, statusOf(model.ErrNotFound))
	assert.Equal(t, http.StatusBadRequest, statusOf(model.ErrAlreadyFollowing))
}
