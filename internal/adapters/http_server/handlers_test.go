package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	server "flexreviews/internal/adapters/http_server"
	"flexreviews/internal/app"
	"flexreviews/internal/domain"
	"flexreviews/internal/storage/filestore"
)

func pfloat(f float64) *float64 { return &f }
func pbool(b bool) *bool        { return &b }

type failingChannel struct{}

func (failingChannel) FetchReviews(ctx context.Context) ([]domain.RawChannelReview, error) {
	return nil, domain.ErrUnavailable
}

type stubPlaces struct {
	ps  domain.PlaceSummary
	err error
}

func (s stubPlaces) GetPlace(ctx context.Context, id string) (domain.PlaceSummary, error) {
	return s.ps, s.err
}

func seed() domain.Snapshot {
	return domain.Snapshot{Result: []domain.RawChannelReview{
		{ID: 1, ListingName: "Loft A", GuestName: "Ana", Rating: pfloat(9), SubmittedAt: "2024-01-01 10:00:00", Status: "published", Approved: pbool(true),
			ReviewCategory: []domain.Category{{Category: "cleanliness", Rating: 9}}},
		{ID: 2, ListingName: "Loft A", GuestName: "Bo", SubmittedAt: "2024-01-02 10:00:00", Status: "published"},
		{ID: 3, ListingName: "Studio B", GuestName: "Cy", Rating: pfloat(6), SubmittedAt: "2024-01-03 10:00:00", Status: "published"},
	}}
}

func newTestServer(t *testing.T, places domain.PlacesClient) (*httptest.Server, *filestore.Memory) {
	t.Helper()
	store := filestore.NewMemory(seed())
	srv := server.New(nil, 5*time.Second)
	srv.MountHandlers(&server.Handlers{
		Reviews:    app.NewReviewService(failingChannel{}, store),
		Moderation: app.NewModerationService(store, nil),
		Places:     app.NewPlacesService(places, nil, time.Minute),
	})
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return ts, store
}

func getJSON(t *testing.T, url string, dst any) *http.Response {
	t.Helper()
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	if dst != nil && res.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(res.Body).Decode(dst))
	}
	return res
}

func patch(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPatch, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(res.Body).Decode(&out)
	return res, out
}

func TestGetReviews_FallbackShape(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	var body struct {
		Reviews []map[string]any `json:"reviews"`
	}
	res := getJSON(t, ts.URL+"/api/reviews/hostaway", &body)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.NotEmpty(t, res.Header.Get("ETag"))
	require.Len(t, body.Reviews, 3)

	// newest first by default
	require.EqualValues(t, 3, body.Reviews[0]["id"])
	// absent rating serialized as null, not 0
	bo := body.Reviews[1]
	require.Contains(t, bo, "rating")
	require.Nil(t, bo["rating"])
	require.Equal(t, "Hostaway", bo["channel"])
	require.Equal(t, "2024-01-02T10:00:00Z", bo["date"])
}

func TestGetReviews_FiltersAndSort(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	var body struct {
		Reviews []domain.NormalizedReview `json:"reviews"`
	}
	res := getJSON(t, ts.URL+"/api/reviews/hostaway?property=Loft%20A&minRating=8&category=All&sort=rating_desc", &body)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Len(t, body.Reviews, 1)
	require.EqualValues(t, 1, body.Reviews[0].ID)

	body.Reviews = nil
	res = getJSON(t, ts.URL+"/api/reviews/hostaway?approved=false&sort=date_asc", &body)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Len(t, body.Reviews, 2)
	require.EqualValues(t, 2, body.Reviews[0].ID)
	require.EqualValues(t, 3, body.Reviews[1].ID)

	res = getJSON(t, ts.URL+"/api/reviews/hostaway?sort=sideways", nil)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = getJSON(t, ts.URL+"/api/reviews/hostaway?minRating=high", nil)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestGetReviews_NotModified(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	res := getJSON(t, ts.URL+"/api/reviews/hostaway", nil)
	etag := res.Header.Get("ETag")

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/reviews/hostaway", nil)
	req.Header.Set("If-None-Match", etag)
	res2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res2.Body.Close()
	require.Equal(t, http.StatusNotModified, res2.StatusCode)
}

func TestPatch_ToggleAndPersist(t *testing.T) {
	ts, store := newTestServer(t, nil)

	res, out := patch(t, ts.URL+"/api/reviews/hostaway", `{"id":2,"approved":true}`)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, true, out["success"])

	snap, err := store.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap.Result[1].Approved)
	require.True(t, *snap.Result[1].Approved)

	// approved=false is a real value, not a missing field
	res, _ = patch(t, ts.URL+"/api/reviews/hostaway", `{"id":1,"approved":false}`)
	require.Equal(t, http.StatusOK, res.StatusCode)
	snap, _ = store.Load(context.Background())
	require.False(t, *snap.Result[0].Approved)
}

func TestPatch_UnknownIDLeavesSnapshotUnchanged(t *testing.T) {
	ts, store := newTestServer(t, nil)
	before, _ := store.Load(context.Background())
	beforeJSON, _ := filestore.Encode(before)

	res, out := patch(t, ts.URL+"/api/reviews/hostaway", `{"id":999999,"approved":true}`)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, map[string]any{"success": true}, out)

	after, _ := store.Load(context.Background())
	afterJSON, _ := filestore.Encode(after)
	require.True(t, bytes.Equal(beforeJSON, afterJSON))
}

func TestPatch_MalformedBody(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	for _, body := range []string{
		``,
		`{"id":1}`,
		`{"approved":true}`,
		`{"id":"one","approved":true}`,
		`{"id":1,"approved":true,"extra":1}`,
	} {
		res, _ := patch(t, ts.URL+"/api/reviews/hostaway", body)
		require.Equal(t, http.StatusBadRequest, res.StatusCode, "body %q", body)
	}
}

func TestStatsAndFacets(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	var stats struct {
		Properties []domain.PropertyAggregate `json:"properties"`
	}
	res := getJSON(t, ts.URL+"/api/reviews/hostaway/stats", &stats)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, []domain.PropertyAggregate{
		{Property: "Loft A", AverageRating: 9, ApprovedCount: 1, ReviewCount: 2},
		{Property: "Studio B", AverageRating: 6, ApprovedCount: 0, ReviewCount: 1},
	}, stats.Properties)

	var facets domain.Facets
	res = getJSON(t, ts.URL+"/api/reviews/hostaway/facets", &facets)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, []string{"Loft A", "Studio B"}, facets.Properties)
	require.Equal(t, []string{"cleanliness"}, facets.Categories)
	require.Equal(t, []string{"Hostaway"}, facets.Channels)
}

func TestPropertyReviews_ApprovedOnly(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	var body struct {
		Reviews []domain.NormalizedReview `json:"reviews"`
	}
	res := getJSON(t, ts.URL+"/api/properties/"+url.PathEscape("Loft A")+"/reviews", &body)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Len(t, body.Reviews, 1)
	require.EqualValues(t, 1, body.Reviews[0].ID)
}

func TestGoogleReviews(t *testing.T) {
	rating := 4.7
	ts, _ := newTestServer(t, stubPlaces{ps: domain.PlaceSummary{Rating: &rating, Reviews: []domain.ExternalReview{
		{AuthorName: "a"}, {AuthorName: "b"}, {AuthorName: "c"},
	}}})

	res := getJSON(t, ts.URL+"/api/google-reviews", nil)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)

	var body struct {
		Result domain.PlaceSummary `json:"result"`
	}
	res = getJSON(t, ts.URL+"/api/google-reviews?placeId=abc", &body)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.NotNil(t, body.Result.Rating)
	require.Len(t, body.Result.Reviews, domain.MaxExternalReviews)
}

func TestGoogleReviews_UpstreamFailureIsEmpty(t *testing.T) {
	ts, _ := newTestServer(t, stubPlaces{err: errors.New("boom")})

	res, err := http.Get(ts.URL + "/api/google-reviews?placeId=abc")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var raw map[string]map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&raw))
	require.NotContains(t, raw["result"], "rating")
	require.Equal(t, []any{}, raw["result"]["reviews"])
}
