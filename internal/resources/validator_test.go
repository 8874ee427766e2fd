package resources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPageServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		fmt.Fprint(w, "<html><h1>Phương Trình Bậc Nhất</h1></html>")
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})
	mux.HandleFunc("/soft404", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><title>Page Not Found</title>phương trình</html>")
	})
	mux.HandleFunc("/offtopic", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>Cooking recipes</html>")
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
		fmt.Fprint(w, "phương trình")
	})
	mux.HandleFunc("/redirect", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ok", http.StatusFound)
	})
	mux.HandleFunc("/oembed", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		switch r.URL.Query().Get("url") {
		case "https://www.youtube.com/watch?v=good":
			fmt.Fprint(w, `{"title": "Giải phương trình bậc nhất", "author_name": "Thầy Toán"}`)
		default:
			http.Error(w, "Not Found", http.StatusNotFound)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPValidator(t *testing.T) {
	srv := newPageServer(t)
	v := NewHTTPValidator(DefaultTrustPolicy(), WithOEmbedEndpoint(srv.URL+"/oembed"))
	tokens := DefaultTrustPolicy().Tokens("phương trình")

	tests := []struct {
		name   string
		url    string
		ok     bool
		reason string
	}{
		{"live page with token", srv.URL + "/ok", true, ""},
		{"non-2xx", srv.URL + "/missing", false, "status 404"},
		{"not found marker", srv.URL + "/soft404", false, `body says "page not found"`},
		{"no token overlap", srv.URL + "/offtopic", false, "no query token in body"},
		{"video via oembed", "https://www.youtube.com/watch?v=good", true, ""},
		{"removed video", "https://www.youtube.com/watch?v=gone", false, "status 404"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(context.Background(), Resource{URL: tt.url}, tokens)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsRejected(err))
			var re *RejectError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, tt.reason, re.Reason)
			assert.Equal(t, tt.url, re.URL)
		})
	}
}

func TestHTTPValidator_Timeout(t *testing.T) {
	srv := newPageServer(t)
	v := NewHTTPValidator(DefaultTrustPolicy(), WithValidateTimeout(50*time.Millisecond))

	start := time.Now()
	err := v.Validate(context.Background(), Resource{URL: srv.URL + "/slow"}, []string{"phương"})
	require.Error(t, err)
	assert.True(t, IsRejected(err))
	assert.Less(t, time.Since(start), time.Second)
}

func TestHTTPValidator_RedirectMustStayTrusted(t *testing.T) {
	srv := newPageServer(t)
	v := NewHTTPValidator(DefaultTrustPolicy())

	// The test server lives on 127.0.0.1, which the policy never trusts.
	err := v.Validate(context.Background(), Resource{URL: srv.URL + "/redirect"}, []string{"phương"})
	require.Error(t, err)
	var re *RejectError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "fetch failed", re.Reason)
}

func TestHTTPValidator_BodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaa phương trình")
	}))
	defer srv.Close()

	v := NewHTTPValidator(DefaultTrustPolicy(), WithMaxBodyBytes(10))
	err := v.Validate(context.Background(), Resource{URL: srv.URL}, []string{"phương"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no query token")
}

func TestValidatorFunc(t *testing.T) {
	var got string
	v := ValidatorFunc(func(_ context.Context, r Resource, _ []string) error {
		got = r.URL
		return nil
	})
	require.NoError(t, v.Validate(context.Background(), Resource{URL: "https://vietjack.com"}, nil))
	assert.Equal(t, "https://vietjack.com", got)
}
