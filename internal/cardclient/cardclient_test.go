package cardclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruthwwikreddy/emergency/internal/models"
)

func TestFetchCard_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/cards/abc1234", r.URL.Path)
		assert.Equal(t, "1234", r.URL.Query().Get("v4"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"fullName":"Asha","uniqueId":"abc1234","insuranceStatus":"Valid","bloodType":"O+"}`))
	}))
	defer srv.Close()

	card, err := New(srv.URL).FetchCard(context.Background(), "abc1234", "1234")
	require.NoError(t, err)
	assert.Equal(t, "Asha", card.FullName)
	assert.Equal(t, models.InsuranceValid, card.InsuranceStatus)
}

func TestFetchCard_MalformedPasscodeSkipsNetwork(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	_, err := New(srv.URL).FetchCard(context.Background(), "abc1234", "12a4")
	var perr *models.PasscodeError
	require.ErrorAs(t, err, &perr)
	assert.False(t, called)
}

func TestFetchCard_PasscodeShapedStatuses(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusNotFound} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		_, err := New(srv.URL).FetchCard(context.Background(), "abc1234", "1234")
		srv.Close()

		var nerr *models.NotFoundError
		require.ErrorAs(t, err, &nerr, "status %d", status)
	}
}

func TestFetchCard_OtherStatusIsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	_, err := New(srv.URL).FetchCard(context.Background(), "abc1234", "1234")
	var serr *models.ServerError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusServiceUnavailable, serr.StatusCode)
	assert.Equal(t, "upstream down", serr.Message)
}

func TestFetchCard_TransportFailure(t *testing.T) {
	_, err := New("http://127.0.0.1:0").FetchCard(context.Background(), "abc1234", "1234")
	var nerr *models.NetworkError
	require.ErrorAs(t, err, &nerr)
}
