package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/wikisearch/internal/config"
)

const page = `<html><head><title>Java - Wiki</title></head><body>
<div id="mw-navigation">navigation links</div>
<div id="mw-content-text"><p>Java is a programming language.</p><script>x()</script></div>
</body></html>`

func testConfig() config.FetchConfig {
	return config.FetchConfig{RatePerSecond: 100, Burst: 10, TimeoutSeconds: 5, UserAgent: "wikisearch-test"}
}

func TestFetch(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		switch r.URL.Path {
		case "/wiki/Java":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(page))
		case "/notes.txt":
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte("plain   notes"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := New(testConfig(), nil)
	ctx := context.Background()

	input, err := f.Fetch(ctx, srv.URL+"/wiki/Java#History")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	wantURL := srv.URL + "/wiki/Java"
	if input.ID != wantURL || input.Source != wantURL {
		t.Errorf("ID=%q Source=%q, want %q", input.ID, input.Source, wantURL)
	}
	if input.Title != "Java - Wiki" {
		t.Errorf("Title = %q", input.Title)
	}
	if input.Content != "Java is a programming language." {
		t.Errorf("Content = %q", input.Content)
	}
	if gotUA != "wikisearch-test" {
		t.Errorf("User-Agent = %q", gotUA)
	}

	input, err = f.Fetch(ctx, srv.URL+"/notes.txt")
	if err != nil {
		t.Fatalf("Fetch text: %v", err)
	}
	if input.Content != "plain   notes" || input.Title != srv.URL+"/notes.txt" {
		t.Errorf("text page = %+v", input)
	}

	if _, err := f.Fetch(ctx, srv.URL+"/missing"); err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("missing page err = %v", err)
	}
}

func TestFetch_rateLimitHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<p>ok</p>"))
	}))
	defer srv.Close()

	f := New(config.FetchConfig{RatePerSecond: 0.01, Burst: 1}, nil)
	if _, err := f.Fetch(context.Background(), srv.URL); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := f.Fetch(ctx, srv.URL); err == nil {
		t.Error("expected the limiter to refuse a second request within the deadline")
	}
}

func TestFetch_bodyLimit(t *testing.T) {
	const limit = 64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		switch r.URL.Path {
		case "/exact":
			_, _ = w.Write([]byte(strings.Repeat("a", limit)))
		case "/declared":
			_, _ = w.Write([]byte(strings.Repeat("b", limit+1)))
		case "/streamed":
			// flushing first drops Content-Length, so only the read can catch the size
			for i := 0; i < 4; i++ {
				_, _ = w.Write([]byte(strings.Repeat("c", limit/2)))
				w.(http.Flusher).Flush()
			}
		}
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxBodyBytes = limit
	f := New(cfg, nil)
	ctx := context.Background()

	input, err := f.Fetch(ctx, srv.URL+"/exact")
	if err != nil {
		t.Fatalf("body at the limit: %v", err)
	}
	if len(input.Content) != limit {
		t.Errorf("content length = %d, want %d", len(input.Content), limit)
	}
	for _, path := range []string{"/declared", "/streamed"} {
		input, err := f.Fetch(ctx, srv.URL+path)
		if !errors.Is(err, ErrBodyTooLarge) {
			t.Errorf("Fetch(%s) err = %v, want ErrBodyTooLarge", path, err)
		}
		if input != nil {
			t.Errorf("Fetch(%s) returned a truncated page: %+v", path, input)
		}
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"HTTPS://EN.Wikipedia.org/wiki/Java_(programming_language)", "https://en.wikipedia.org/wiki/Java_(programming_language)", false},
		{" http://example.com/a#frag ", "http://example.com/a", false},
		{"ftp://example.com/file", "", true},
		{"/wiki/Java", "", true},
		{"::not a url", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeURL(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedURL) {
					t.Errorf("err = %v, want ErrUnsupportedURL", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExtensionFor(t *testing.T) {
	tests := map[string]string{
		"text/html; charset=UTF-8": ".html",
		"text/plain":               ".txt",
		"application/pdf":          ".pdf",
		"":                         ".html",
	}
	for ct, want := range tests {
		if got := extensionFor(ct); got != want {
			t.Errorf("extensionFor(%q) = %q, want %q", ct, got, want)
		}
	}
}
