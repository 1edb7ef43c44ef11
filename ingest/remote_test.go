package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/orplan/auth"
)

func TestRemoteFetch_WithAuth(t *testing.T) {
	idp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"feed-token","token_type":"bearer","expires_in":3600}`))
	}))
	defer idp.Close()

	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer feed-token" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		_, _ = w.Write([]byte("id,category,start,end\na,ortho,0,60\nb,cardio,30,90\n"))
	}))
	defer feed.Close()

	r := NewRemote(RemoteConfig{Auth: auth.Conf{ClientID: "planner", ClientSecret: "s", AuthURL: idp.URL}})
	tasks, err := r.Fetch(context.Background(), feed.URL+"/export", Options{Categories: []string{"ortho"}})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "a", tasks[0].ID)
}

func TestRemoteFetch_FormatFromPath(t *testing.T) {
	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte("tasks:\n  - id: a\n    start: 0\n    end: 60\n"))
	}))
	defer feed.Close()

	tasks, err := NewRemote(RemoteConfig{}).Fetch(context.Background(), feed.URL+"/day.yaml", Options{})
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestRemoteFetch_Status(t *testing.T) {
	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer feed.Close()

	_, err := NewRemote(RemoteConfig{}).Fetch(context.Background(), feed.URL+"/t.json", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("https://host/tasks.csv"))
	assert.False(t, IsRemote("tasks.csv"))
}
