package stockdash

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stockdash/internal/domain"
	"stockdash/internal/util"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api/stocks/", WithLogger(util.Discard()))
}

func TestNewClient(t *testing.T) {
	c := NewClient("http://localhost:8000/api/stocks/")
	if c == nil {
		t.Fatal("expected non-nil client")
	}
	if c.BaseURL() != "http://localhost:8000/api/stocks" {
		t.Errorf("BaseURL() = %q, trailing slash should be trimmed", c.BaseURL())
	}
	if c.httpClient == nil {
		t.Fatal("expected non-nil httpClient")
	}
	if c.httpClient.Timeout != 30*time.Second {
		t.Errorf("default timeout = %v, want 30s", c.httpClient.Timeout)
	}
}

func TestListSymbols(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/stocks/" {
			t.Errorf("path = %q, want /api/stocks/", r.URL.Path)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept = %q", got)
		}
		_, _ = io.WriteString(w, `["MSFT","AAPL","GOOG"]`)
	})

	got, err := c.ListSymbols(context.Background())
	if err != nil {
		t.Fatalf("ListSymbols: %v", err)
	}
	want := []string{"MSFT", "AAPL", "GOOG"}
	if len(got) != len(want) {
		t.Fatalf("ListSymbols = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ListSymbols[%d] = %q, want %q (server order preserved)", i, got[i], want[i])
		}
	}
}

func TestListSymbolsDegradesToEmpty(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"detail":"boom"}`},
		{"not found", http.StatusNotFound, ``},
		{"object body", http.StatusOK, `{"symbols":["AAPL"]}`},
		{"garbage", http.StatusOK, `not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			got, err := c.ListSymbols(context.Background())
			if err != nil {
				t.Fatalf("ListSymbols error = %v, want nil", err)
			}
			if got == nil || len(got) != 0 {
				t.Errorf("ListSymbols = %#v, want empty non-nil slice", got)
			}
		})
	}
}

func TestListSymbolsTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, WithLogger(util.Discard()))
	got, err := c.ListSymbols(context.Background())
	if err != nil {
		t.Fatalf("ListSymbols error = %v, want nil", err)
	}
	if len(got) != 0 {
		t.Errorf("ListSymbols = %v, want empty", got)
	}
}

func TestListSymbolsFiltersNonStrings(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `["AAPL", 42, null, {"x":1}, "TSLA"]`)
	})
	got, err := c.ListSymbols(context.Background())
	if err != nil {
		t.Fatalf("ListSymbols: %v", err)
	}
	if len(got) != 2 || got[0] != "AAPL" || got[1] != "TSLA" {
		t.Errorf("ListSymbols = %v, want [AAPL TSLA]", got)
	}
}

func TestListSymbolsAllNull(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[null, null]`)
	})
	got, err := c.ListSymbols(context.Background())
	if err != nil {
		t.Fatalf("ListSymbols: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ListSymbols = %q, want empty", got)
	}
}

func TestListSymbolsExceptionalErrors(t *testing.T) {
	c := NewClient("http://bad host/api", WithLogger(util.Discard()))
	if _, err := c.ListSymbols(context.Background()); err == nil {
		t.Error("ListSymbols with an unbuildable URL should return an error")
	}

	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c = NewClient(srv.URL, WithLogger(util.Discard()))
	if _, err := c.ListSymbols(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("ListSymbols(cancelled) error = %v, want context.Canceled", err)
	}
}

func TestGetPriceSeries(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/stocks/AAPL/prices" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("skip") != "0" || r.URL.Query().Get("limit") != "100" {
			t.Errorf("query = %q, want skip=0&limit=100", r.URL.RawQuery)
		}
		_, _ = io.WriteString(w, `{"data":[
			{"id":1,"name":"AAPL","asof":"2024-01-02","volume":10,"close_usd":100,"sector_level1":"Tech","sector_level2":"HW"},
			{"id":2,"name":"AAPL","asof":"2024-01-03","volume":12,"close_usd":105,"sector_level1":"Tech","sector_level2":"HW"}
		],"total":250}`)
	})

	s, err := c.GetPriceSeries(context.Background(), "AAPL", -5, 0)
	if err != nil {
		t.Fatalf("GetPriceSeries: %v", err)
	}
	if s.Total != 250 {
		t.Errorf("Total = %d, want 250", s.Total)
	}
	if len(s.Data) != 2 || s.Data[1].CloseUSD != 105 || s.Data[0].AsOf.String() != "2024-01-02" {
		t.Errorf("Data = %+v", s.Data)
	}
}

func TestGetPriceSeriesPaging(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("skip") != "200" || r.URL.Query().Get("limit") != "50" {
			t.Errorf("query = %q", r.URL.RawQuery)
		}
		_, _ = io.WriteString(w, `{"data":[],"total":210}`)
	})
	s, err := c.GetPriceSeries(context.Background(), "AAPL", 200, 50)
	if err != nil {
		t.Fatalf("GetPriceSeries: %v", err)
	}
	if len(s.Data) != 0 || s.Total != 210 {
		t.Errorf("series = %+v", s)
	}
}

func TestGetPriceSeriesErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantInvalid bool
	}{
		{"http 500", http.StatusInternalServerError, `{"detail":"boom"}`, false},
		{"data not array", http.StatusOK, `{"data":{"0":1},"total":1}`, true},
		{"data missing", http.StatusOK, `{"total":1}`, true},
		{"data null", http.StatusOK, `{"data":null,"total":0}`, true},
		{"body is array", http.StatusOK, `[1,2,3]`, true},
		{"bad entry", http.StatusOK, `{"data":[{"close_usd":"abc"}],"total":1}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			_, err := c.GetPriceSeries(context.Background(), "AAPL", 0, 100)
			if err == nil {
				t.Fatal("GetPriceSeries should fail")
			}
			if got := errors.Is(err, ErrInvalidFormat); got != tt.wantInvalid {
				t.Errorf("errors.Is(err, ErrInvalidFormat) = %v, want %v (err=%v)", got, tt.wantInvalid, err)
			}
			var se *StatusError
			if !tt.wantInvalid && (!errors.As(err, &se) || se.StatusCode != tt.status) {
				t.Errorf("err = %v, want *StatusError with %d", err, tt.status)
			}
		})
	}
}

func TestGetPriceAtDate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		want := "/api/stocks/BRK.B/prices/2024-01-02T00:00:00.000Z"
		if r.URL.Path != want {
			t.Errorf("path = %q, want %q", r.URL.Path, want)
		}
		_, _ = io.WriteString(w, `{"id":9,"name":"BRK.B","asof":"2024-01-02","volume":1,"close_usd":362.5,"sector_level1":"Fin","sector_level2":"Ins"}`)
	})
	d, _ := domain.ParseDate("2024-01-02")
	p, err := c.GetPriceAtDate(context.Background(), "BRK.B", d.Time)
	if err != nil {
		t.Fatalf("GetPriceAtDate: %v", err)
	}
	if p.CloseUSD != 362.5 {
		t.Errorf("CloseUSD = %v, want 362.5", p.CloseUSD)
	}
}

func TestGetPriceAtDateNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Price not found"}`, http.StatusNotFound)
	})
	_, err := c.GetPriceAtDate(context.Background(), "AAPL", time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC))
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusNotFound {
		t.Fatalf("err = %v, want 404 StatusError", err)
	}
}

func TestCalculateReturn(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/api/stocks/AAPL/returns" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q", got)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		if body["start_date"] != "2024-01-01" || body["end_date"] != "2024-01-31" || len(body) != 2 {
			t.Errorf("body = %v", body)
		}
		_, _ = io.WriteString(w, `{"name":"AAPL","start_date":"2024-01-01","end_date":"2024-01-31",
			"start_price":100,"end_price":110,"cumulative_return":10.0}`)
	})

	r, err := c.CalculateReturn(context.Background(), "AAPL", domain.ReturnQuery{
		Symbol: "AAPL", StartDate: "2024-01-01", EndDate: "2024-01-31",
	})
	if err != nil {
		t.Fatalf("CalculateReturn: %v", err)
	}
	if r.StartPrice != 100 || r.EndPrice != 110 || r.CumulativeReturn != 10.0 {
		t.Errorf("result = %+v", r)
	}
}

func TestCalculateReturnBadRequest(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	_, err := c.CalculateReturn(context.Background(), "AAPL", domain.ReturnQuery{StartDate: "2024-02-01", EndDate: "2024-01-01"})
	if err == nil {
		t.Fatal("CalculateReturn should fail on 400")
	}
	if errors.Is(err, ErrInvalidFormat) {
		t.Error("an HTTP failure must not be reported as invalid format")
	}
}
