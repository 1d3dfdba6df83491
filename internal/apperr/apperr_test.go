package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:     http.StatusBadRequest,
		KindStock:          http.StatusBadRequest,
		KindPaymentGateway: http.StatusBadRequest,
		KindUnauthorized:   http.StatusUnauthorized,
		KindNotFound:       http.StatusNotFound,
		KindConflict:       http.StatusConflict,
		KindInternal:       http.StatusInternalServerError,
	}
	for k, want := range cases {
		assert.Equal(t, want, k.HTTPStatus(), k.String())
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	base := NotFound("order not found")
	wrapped := fmt.Errorf("load: %w", base)

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.True(t, errors.Is(wrapped, base))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestError_MessageIncludesCause(t *testing.T) {
	err := PaymentGateway("Your card was declined.", errors.New("card_declined"))
	assert.Equal(t, "Your card was declined.: card_declined", err.Error())
	assert.Equal(t, "validation failed", Validation("validation failed", Field("quantity", "must be positive")).Error())
}
