package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Xlonenzo/contratos/internal/annotation"
	"github.com/Xlonenzo/contratos/internal/document"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func issueRequest() annotation.CreateRequest {
	return annotation.CreateRequest{
		ContractID:    9,
		Kind:          annotation.KindIssue,
		Title:         "Risco Legal",
		Description:   "revisar multa",
		Priority:      document.PriorityHigh,
		IssueType:     document.IssueBug,
		SelectionText: "Cláusula 3.1",
		Range: document.Range{
			Anchor: document.Point{Path: document.Path{0}, Offset: 0},
			Focus:  document.Point{Path: document.Path{0}, Offset: 12},
		},
	}
}

func TestCreateAnnotationPostsExpectedPayload(t *testing.T) {
	var got map[string]any
	var path, auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id": 101, "title": "Risco Legal", "priority": "high",
		})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Token: "tok-123"})
	rec, err := c.CreateAnnotation(context.Background(), issueRequest())
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/contracts/9/issues", path)
	assert.Equal(t, "Bearer tok-123", auth)
	assert.Equal(t, "Risco Legal", got["title"])
	assert.Equal(t, "high", got["priority"])
	assert.Equal(t, "bug", got["issue_type"])
	assert.Equal(t, "Cláusula 3.1", got["selection_text"])

	pos, ok := got["text_position"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(12), pos["focus_offset"])

	assert.Equal(t, int64(101), rec.ID)
	assert.Equal(t, annotation.KindIssue, rec.Kind, "kind is backfilled from the request")
	assert.Equal(t, int64(9), rec.ContractID)
}

func TestCreateBookmarkUsesBookmarkEndpointWithoutIssueFields(t *testing.T) {
	var got map[string]any
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]any{"id": 7})
	}))
	defer srv.Close()

	req := issueRequest()
	req.Kind = annotation.KindBookmark
	c := NewClient(Config{BaseURL: srv.URL})
	rec, err := c.CreateAnnotation(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/contracts/9/bookmarks", path)
	_, hasPriority := got["priority"]
	assert.False(t, hasPriority, "bookmarks carry no issue fields")
	assert.Equal(t, int64(7), rec.ID)
}

func TestCreateAnnotationSurfacesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Contract not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	_, err := c.CreateAnnotation(context.Background(), issueRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Contains(t, err.Error(), "Contract not found")
}

func TestCreateAnnotationTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused from here on

	c := NewClient(Config{BaseURL: srv.URL, Timeout: 2 * time.Second})
	_, err := c.CreateAnnotation(context.Background(), issueRequest())
	assert.Error(t, err)
}

func TestListAnnotationsMergesIssuesAndBookmarks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/contracts/3/issues":
			json.NewEncoder(w).Encode([]map[string]any{{"id": 1, "title": "issue um"}})
		case "/api/v1/contracts/3/bookmarks":
			json.NewEncoder(w).Encode([]map[string]any{{"id": 2, "title": "bm um"}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	recs, err := c.ListAnnotations(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, annotation.KindIssue, recs[0].Kind)
	assert.Equal(t, annotation.KindBookmark, recs[1].Kind)
}
