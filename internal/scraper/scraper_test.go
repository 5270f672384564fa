package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsu-tools/course-scheduler-api/pkg/config"
	appErrors "github.com/nsu-tools/course-scheduler-api/pkg/errors"
)

func TestClientFetch(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(offeredCoursesPage))
	}))
	defer server.Close()

	client := NewClient(config.ScraperConfig{
		URL:        server.URL,
		UserAgent:  "catalog-bot/1.0",
		CrossLists: map[string]string{"CSE332/EEE336": "CSE332"},
	}, nil)

	sections, skipped, err := client.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, sections, 3)
	assert.Equal(t, 2, skipped)
	assert.Equal(t, "catalog-bot/1.0", gotUA)
}

func TestClientFetchUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(config.ScraperConfig{URL: server.URL}, nil)

	_, _, err := client.Fetch(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUpstream.Code, appErrors.FromError(err).Code)
}

func TestClientFetchBadPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>maintenance window</body></html>"))
	}))
	defer server.Close()

	client := NewClient(config.ScraperConfig{URL: server.URL}, nil)

	_, _, err := client.Fetch(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUpstream.Code, appErrors.FromError(err).Code)
}
