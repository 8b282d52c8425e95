package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHeaderRoundTripper_RoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(r.Header.Get("Custom-Header")))
	}))
	defer server.Close()

	tests := []struct {
		name          string
		headers       map[string]string
		requestHeader map[string]string
		wantHeader    string
	}{
		{
			name:          "add default header when not present",
			headers:       map[string]string{"Custom-Header": "default-value"},
			requestHeader: map[string]string{},
			wantHeader:    "default-value",
		},
		{
			name:          "preserve existing request header",
			headers:       map[string]string{"Custom-Header": "default-value"},
			requestHeader: map[string]string{"Custom-Header": "request-value"},
			wantHeader:    "request-value",
		},
		{
			name:          "nil headers map",
			headers:       nil,
			requestHeader: map[string]string{},
			wantHeader:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hrt := &HeaderRoundTripper{
				Headers: tt.headers,
				Next:    http.DefaultTransport,
			}

			client := &http.Client{
				Transport: hrt,
			}

			req, err := http.NewRequest("GET", server.URL, nil)
			if err != nil {
				t.Fatal(err)
			}

			for k, v := range tt.requestHeader {
				req.Header.Set(k, v)
			}

			resp, err := client.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			defer func() {
				_ = resp.Body.Close()
			}()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				t.Fatal(err)
			}

			if string(body) != tt.wantHeader {
				t.Errorf("Expected header value %q, got %q", tt.wantHeader, string(body))
			}
		})
	}
}

func TestGetHTTPClient(t *testing.T) {
	t.Run("client without extra headers", func(t *testing.T) {
		client := GetHTTPClient(nil, 3)
		if client == nil {
			t.Fatal("Expected non-nil client")
			return
		}
		if client.Logger != nil {
			t.Error("Expected logger to be nil")
		}
		if client.RetryMax != 3 {
			t.Errorf("Expected RetryMax 3, got %d", client.RetryMax)
		}

		hrt, ok := client.HTTPClient.Transport.(*HeaderRoundTripper)
		if !ok {
			t.Fatal("Expected HeaderRoundTripper transport")
		}
		if hrt.Headers["User-Agent"] != UserAgent {
			t.Errorf("Expected default User-Agent, got %q", hrt.Headers["User-Agent"])
		}
	})

	t.Run("client with default headers", func(t *testing.T) {
		headers := map[string]string{
			"User-Agent":  "test-agent",
			"Add-Padding": "true",
		}
		client := GetHTTPClient(headers, 0)

		hrt, ok := client.HTTPClient.Transport.(*HeaderRoundTripper)
		if !ok {
			t.Fatal("Expected HeaderRoundTripper transport")
		}

		if hrt.Headers["User-Agent"] != "test-agent" {
			t.Errorf("Expected User-Agent header to be 'test-agent', got %q", hrt.Headers["User-Agent"])
		}
		if hrt.Headers["Add-Padding"] != "true" {
			t.Errorf("Expected Add-Padding header, got %q", hrt.Headers["Add-Padding"])
		}
	})

	t.Run("ignore proxy", func(t *testing.T) {
		t.Setenv("HTTP_PROXY", "http://127.0.0.1:3128")
		SetIgnoreProxy(true)
		defer SetIgnoreProxy(false)

		client := GetHTTPClient(nil, 0)
		hrt := client.HTTPClient.Transport.(*HeaderRoundTripper)
		tr := hrt.Next.(*http.Transport)
		if tr.Proxy != nil {
			t.Error("Expected no proxy when ignoring HTTP_PROXY")
		}
	})

	t.Run("check retry function", func(t *testing.T) {
		client := GetHTTPClient(nil, 0)
		ctx := context.Background()

		shouldRetry, _ := client.CheckRetry(ctx, &http.Response{StatusCode: 429}, nil)
		if !shouldRetry {
			t.Error("Expected to retry on 429 status")
		}

		shouldRetry, _ = client.CheckRetry(ctx, &http.Response{StatusCode: 500}, nil)
		if !shouldRetry {
			t.Error("Expected to retry on 500 status")
		}

		shouldRetry, _ = client.CheckRetry(ctx, &http.Response{StatusCode: 501}, nil)
		if shouldRetry {
			t.Error("Expected NOT to retry on 501 status")
		}

		shouldRetry, _ = client.CheckRetry(ctx, &http.Response{StatusCode: 200}, nil)
		if shouldRetry {
			t.Error("Expected NOT to retry on 200 status")
		}

		shouldRetry, _ = client.CheckRetry(ctx, nil, nil)
		if shouldRetry {
			t.Error("Expected NOT to retry with nil response")
		}

		shouldRetry, _ = client.CheckRetry(ctx, nil, http.ErrServerClosed)
		if !shouldRetry {
			t.Error("Expected to retry on error")
		}

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		shouldRetry, err := client.CheckRetry(cancelled, nil, http.ErrServerClosed)
		if shouldRetry || err == nil {
			t.Error("Expected NOT to retry a cancelled request")
		}
	})
}
