package fx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFetchRates(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"amount":1.0,"base":"CNY","date":"2024-03-15","rates":{"USD":0.1389,"eur":0.1275,"XXX":0}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 0, 1)
	quote, err := client.FetchRates(context.Background(), []string{"USD", "EUR"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotQuery != "from=CNY&to=USD%2CEUR" {
		t.Errorf("query = %q", gotQuery)
	}
	if want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC); !quote.Date.Equal(want) {
		t.Errorf("date = %v, want %v", quote.Date, want)
	}
	if !quote.Rates["USD"].Equal(decimal.RequireFromString("0.1389")) {
		t.Errorf("USD = %s, want 0.1389", quote.Rates["USD"])
	}
	if !quote.Rates.Has("EUR") {
		t.Error("lower-case code should be normalized")
	}
	if quote.Rates.Has("XXX") {
		t.Error("zero rate should be dropped")
	}
	if !quote.Rates["CNY"].Equal(decimal.NewFromInt(1)) {
		t.Errorf("base rate = %s, want 1", quote.Rates["CNY"])
	}
}

func TestFetchRatesWrongBase(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"base":"EUR","rates":{"USD":1.08}}`))
	}))
	defer server.Close()

	if _, err := NewClient(server.URL, 0, 0).FetchRates(context.Background(), []string{"USD"}); err == nil {
		t.Fatal("expected error for foreign base")
	}
}

func TestFetchRatesRetryOn429(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"base":"CNY","rates":{"USD":0.14}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 10*time.Millisecond, 2)
	quote, err := client.FetchRates(context.Background(), []string{"USD"})
	if err != nil {
		t.Fatalf("unexpected error after retry: %v", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
	if !quote.Rates.Has("USD") {
		t.Error("USD missing after retry")
	}
}

func TestFetchRatesClientErrorNotRetried(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	if _, err := NewClient(server.URL, time.Millisecond, 3).FetchRates(context.Background(), nil); err == nil {
		t.Fatal("expected error on 400")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestFetchRatesContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(1 * time.Second)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := NewClient(server.URL, 0, 1).FetchRates(ctx, nil); err == nil {
		t.Fatal("expected error on cancelled context")
	}
}
