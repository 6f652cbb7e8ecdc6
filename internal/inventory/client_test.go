package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, Options{Timeout: 5 * time.Second}, nil), srv
}

func TestFetchStock_Success(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/products/p1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"p1","name":"Glove","price":10,"quantity":5,"brand":"Rawlings","yearsUsed":2}`))
	})

	product, err := client.FetchStock(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, domain.ProductID("p1"), product.ID)
	assert.Equal(t, 5, product.Quantity)
	assert.Equal(t, "Rawlings", product.Brand)
	assert.Equal(t, float64(2), product.YearsUsed)
}

func TestFetchStock_HTTPError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such product", http.StatusNotFound)
	})

	_, err := client.FetchStock(context.Background(), "missing")
	require.Error(t, err)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	assert.Equal(t, "no such product", httpErr.Body)
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
}

func TestFetchStock_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClient(url, Options{Timeout: time.Second}, nil)
	_, err := client.FetchStock(context.Background(), "p1")

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, "fetch product", netErr.Op)
	assert.Zero(t, StatusCode(err))
}

func TestFetchStock_BadBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":`))
	})

	_, err := client.FetchStock(context.Background(), "p1")
	assert.ErrorContains(t, err, "decode response")
}

func TestFetchStock_ConcurrentCallersGetOwnCopy(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		w.Write([]byte(`{"id":"p1","quantity":7}`))
	})

	var wg sync.WaitGroup
	results := make([]*domain.RemoteProduct, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := client.FetchStock(context.Background(), "p1")
			assert.NoError(t, err)
			results[i] = p
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, calls.Load(), int32(4))
	for _, p := range results {
		require.NotNil(t, p)
		assert.Equal(t, 7, p.Quantity)
	}
	results[0].Quantity = 0
	assert.Equal(t, 7, results[1].Quantity)
}

func TestFetchStock_CancelledCallerDoesNotCancelSharedRead(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() { close(started) })
		<-release
		w.Write([]byte(`{"id":"p1","quantity":7}`))
	})

	type result struct {
		product *domain.RemoteProduct
		err     error
	}
	patient := make(chan result, 1)
	go func() {
		p, err := client.FetchStock(context.Background(), "p1")
		patient <- result{p, err}
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	impatient := make(chan error, 1)
	go func() {
		_, err := client.FetchStock(ctx, "p1")
		impatient <- err
	}()
	cancel()

	err := <-impatient
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	res := <-patient
	require.NoError(t, res.err)
	assert.Equal(t, 7, res.product.Quantity)
}

func TestPushStock_SendsIDAndQuantity(t *testing.T) {
	var got map[string]any
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/update-product-quantity", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.PushStock(context.Background(), "42", 3))
	assert.Equal(t, map[string]any{"id": float64(42), "quantity": float64(3)}, got)
}

func TestPushStock_ServerError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := client.PushStock(context.Background(), "p1", 3)
	assert.Equal(t, http.StatusInternalServerError, StatusCode(err))
	assert.EqualError(t, err, "update product quantity: shop api returned 500")
}

func TestSubmitOrder_PostsOrderWithIdempotencyKey(t *testing.T) {
	var body []byte
	var key string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/submit-order", r.URL.Path)
		key = r.Header.Get(IdempotencyHeader)
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	})

	order := domain.Order{
		BuyerForm: domain.BuyerForm{Name: "Ann", Email: "a@b.c", Address: "1 Main", Card: "4111", Expiration: "12/30", CCV: "123"},
		Items:     domain.Cart{{ID: "p1", Price: 10, Quantity: 2}},
		Total:     "20.00",
	}
	require.NoError(t, client.SubmitOrder(context.Background(), order, "key-1"))

	assert.Equal(t, "key-1", key)
	var decoded domain.Order
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, order, decoded)
}

func TestFilteredProducts(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/filtered-products", r.URL.Path)
		assert.Equal(t, "baseball", r.URL.Query().Get("category"))
		assert.Equal(t, "gloves & mitts", r.URL.Query().Get("type"))
		w.Write([]byte(`[{"id":1,"name":"A","quantity":2},{"id":2,"name":"B","quantity":0}]`))
	})

	products, err := client.FilteredProducts(context.Background(), "baseball", "gloves & mitts")
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, domain.ProductID("1"), products[0].ID)

	_, err = client.FilteredProducts(context.Background(), "", "gloves")
	assert.ErrorIs(t, err, ErrMissingFilter)
}

func TestClient_NotConfigured(t *testing.T) {
	client := NewClient("", Options{}, nil)
	assert.ErrorIs(t, client.PushStock(context.Background(), "p1", 1), ErrNotConfigured)
}

func TestClient_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})
	client = NewClient(client.baseURL, Options{MaxFailures: 2, OpenTimeout: time.Minute}, nil)

	for i := 0; i < 2; i++ {
		err := client.PushStock(context.Background(), "p1", 1)
		assert.Equal(t, http.StatusBadGateway, StatusCode(err))
	}

	err := client.PushStock(context.Background(), "p1", 1)
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_ClientErrorsDoNotOpenBreaker(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	client = NewClient(client.baseURL, Options{MaxFailures: 1}, nil)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusBadRequest, StatusCode(client.PushStock(context.Background(), "p1", 1)))
	}
}
