package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-team-directory/client"
	"github.com/goliatone/go-team-directory/member"
	"github.com/goliatone/go-team-directory/pkg/testsupport"
)

func newClient(t *testing.T, opts ...testsupport.ServerOption) (*client.Client, *testsupport.Server) {
	t.Helper()
	srv := testsupport.NewServer(testsupport.Members(), opts...)
	t.Cleanup(srv.Close)
	return client.New(srv.URL), srv
}

func TestList_FirstAndSecondPage(t *testing.T) {
	c, _ := newClient(t)
	ctx := context.Background()

	first, err := c.List(ctx, member.PageQuery{Page: 1, PageSize: 6})
	require.NoError(t, err)
	assert.Equal(t, 7, first.Total)
	require.Len(t, first.Members, 6)
	assert.Equal(t, member.ID("1"), first.Members[0].ID)
	assert.Equal(t, member.ID("6"), first.Members[5].ID)

	second, err := c.List(ctx, member.PageQuery{Page: 2, PageSize: 6})
	require.NoError(t, err)
	assert.Equal(t, 7, second.Total)
	require.Len(t, second.Members, 1)
	assert.Equal(t, "George Hall", second.Members[0].Name)
}

func TestList_Search(t *testing.T) {
	c, _ := newClient(t)
	ctx := context.Background()

	one, err := c.List(ctx, member.PageQuery{Search: "designer", Page: 1, PageSize: 6})
	require.NoError(t, err)
	assert.Equal(t, 1, one.Total)
	require.Len(t, one.Members, 1)
	assert.Equal(t, "Charlie Davis", one.Members[0].Name)

	none, err := c.List(ctx, member.PageQuery{Search: "nobody-matches", Page: 1, PageSize: 6})
	require.NoError(t, err)
	assert.Equal(t, 0, none.Total)
	assert.NotNil(t, none.Members)
	assert.Empty(t, none.Members)
}

func TestList_TotalIsIndependentOfPageLength(t *testing.T) {
	c, _ := newClient(t)

	result, err := c.List(context.Background(), member.PageQuery{Page: 5, PageSize: 6})
	require.NoError(t, err)
	assert.Empty(t, result.Members)
	assert.Equal(t, 7, result.Total)
}

func TestList_Envelope(t *testing.T) {
	c, srv := newClient(t, testsupport.WithEnvelope())

	result, err := c.List(context.Background(), member.PageQuery{Page: 2, PageSize: 3})
	require.NoError(t, err)
	assert.Equal(t, 7, result.Total)
	assert.Len(t, result.Members, 3)
	assert.Equal(t, 1, srv.Hits(testsupport.RouteList))
}

func TestList_MissingTotalIsServerError(t *testing.T) {
	srv := testsupport.NewServer(testsupport.Members())
	t.Cleanup(srv.Close)
	c := client.New(srv.URL, client.WithTotalHeader("X-Unknown-Total"))

	_, err := c.List(context.Background(), member.PageQuery{Page: 1, PageSize: 6})
	require.Error(t, err)
	assert.True(t, member.IsServer(err), "got %T", err)
}

func TestList_JSONServerParams(t *testing.T) {
	var gotQuery string
	srv := testsupport.NewServer(testsupport.Members(), testsupport.BeforeList(func(r *http.Request) {
		gotQuery = r.URL.RawQuery
	}))
	t.Cleanup(srv.Close)
	c := client.New(srv.URL, client.WithQueryParams(client.JSONServerParams()))

	result, err := c.List(context.Background(), member.PageQuery{Search: "dev", Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Contains(t, gotQuery, "_page=1")
	assert.Contains(t, gotQuery, "_limit=2")
	assert.Contains(t, gotQuery, "q=dev")
	// Frontend Dev, Backend Dev, DevOps
	assert.Equal(t, 3, result.Total)
	assert.Len(t, result.Members, 2)
}

func TestList_ServerError(t *testing.T) {
	c, srv := newClient(t)
	srv.Fail(testsupport.RouteList, http.StatusInternalServerError, 1)

	_, err := c.List(context.Background(), member.PageQuery{Page: 1, PageSize: 6})
	var serverErr *member.ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, http.StatusInternalServerError, serverErr.StatusCode)
	assert.Contains(t, serverErr.Body, "Internal Server Error")

	// No retry at this layer.
	assert.Equal(t, 1, srv.Hits(testsupport.RouteList))
}

func TestList_PageLongerThanLimitIsServerError(t *testing.T) {
	srv := testsupport.NewServer(testsupport.Members())
	t.Cleanup(srv.Close)
	// The server does not know per_page and answers with the whole collection.
	c := client.New(srv.URL, client.WithQueryParams(client.QueryParams{Page: "page", Limit: "per_page", Search: "q"}))

	_, err := c.List(context.Background(), member.PageQuery{Page: 1, PageSize: 6})
	var serverErr *member.ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Contains(t, serverErr.Body, "page holds 7 members, limit is 6")
}

func TestList_ErrorBodyTrimmedOnRuneBoundary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		// 511 ASCII bytes, then two byte runes straddling the cap.
		_, _ = w.Write([]byte(strings.Repeat("x", 511) + strings.Repeat("é", 10)))
	}))
	t.Cleanup(srv.Close)

	_, err := client.New(srv.URL).List(context.Background(), member.PageQuery{Page: 1, PageSize: 6})
	var serverErr *member.ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.True(t, utf8.ValidString(serverErr.Body))
	assert.Equal(t, strings.Repeat("x", 511), serverErr.Body)
}

func TestList_NetworkError(t *testing.T) {
	srv := testsupport.NewServer(nil)
	url := srv.URL
	srv.Close()

	c := client.New(url, client.WithTimeout(time.Second))
	_, err := c.List(context.Background(), member.PageQuery{Page: 1, PageSize: 6})
	require.Error(t, err)
	assert.True(t, member.IsNetwork(err), "got %T", err)
}

func TestGetByID(t *testing.T) {
	c, _ := newClient(t)
	ctx := context.Background()

	m, err := c.GetByID(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, "Charlie Davis", m.Name)

	_, err = c.GetByID(ctx, "404")
	var notFound *member.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, member.ID("404"), notFound.ID)
}

func TestCreate_AssignsID(t *testing.T) {
	c, srv := newClient(t)

	created, err := c.Create(context.Background(), member.Fields{
		Name:  "Hana Lee",
		Role:  "Support",
		Email: "hana@company.com",
		Bio:   "Answers everything.",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Hana Lee", created.Name)

	members := srv.Members()
	require.Len(t, members, 8)
	assert.Equal(t, created.ID, members[7].ID)
}

func TestCreate_ServerValidation(t *testing.T) {
	c, srv := newClient(t)

	_, err := c.Create(context.Background(), member.Fields{Name: "No Email", Role: "Ghost", Bio: "-"})
	verr := member.AsValidation(err)
	require.NotNil(t, verr, "got %v", err)
	assert.True(t, verr.FromServer)
	assert.Equal(t, member.MsgRequired, verr.Field(member.FieldEmail))
	assert.Len(t, srv.Members(), 7)
}

func TestUpdate(t *testing.T) {
	c, srv := newClient(t)
	ctx := context.Background()

	role := "Staff Designer"
	updated, err := c.Update(ctx, "3", member.Patch{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, "Staff Designer", updated.Role)
	assert.Equal(t, "Charlie Davis", updated.Name)

	stored, ok := srv.Find("3")
	require.True(t, ok)
	assert.Equal(t, "Staff Designer", stored.Role)

	_, err = c.Update(ctx, "99", member.Patch{Role: &role})
	assert.True(t, member.IsNotFound(err))
}

func TestDelete(t *testing.T) {
	c, srv := newClient(t)
	ctx := context.Background()

	require.NoError(t, c.Delete(ctx, "2"))
	_, ok := srv.Find("2")
	assert.False(t, ok)

	err := c.Delete(ctx, "2")
	assert.True(t, member.IsNotFound(err), "second delete should report not found, got %v", err)
}

func TestDelete_ServerError(t *testing.T) {
	c, srv := newClient(t)
	srv.Fail(testsupport.RouteDelete, http.StatusServiceUnavailable, 1)

	err := c.Delete(context.Background(), "2")
	assert.True(t, member.IsServer(err))
	_, ok := srv.Find("2")
	assert.True(t, ok)
}

func TestWithHTTPClient(t *testing.T) {
	var seenUA string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUA = r.UserAgent()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 11, "name": "Ivy", "role": "Ops", "email": "ivy@company.com"}`))
	}))
	t.Cleanup(backend.Close)

	c := client.New(backend.URL+"/",
		client.WithHTTPClient(backend.Client()),
		client.WithPath("people/"),
		client.WithUserAgent("directory-test"),
	)

	m, err := c.GetByID(context.Background(), "11")
	require.NoError(t, err)
	assert.Equal(t, member.ID("11"), m.ID)
	assert.Equal(t, "directory-test", seenUA)
}

func TestContextCancelled(t *testing.T) {
	c, _ := newClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.GetByID(ctx, "1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
