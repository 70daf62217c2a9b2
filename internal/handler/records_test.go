package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shieldhq/shield-admin/internal/handler"
	"github.com/shieldhq/shield-admin/internal/model"
	"github.com/shieldhq/shield-admin/internal/service"
	"github.com/shieldhq/shield-admin/internal/store"
	"github.com/shieldhq/shield-admin/internal/testutil"
)

type recordsFixture struct {
	records *store.Store
	feeds   *service.FeedService
	users   *service.UserService
	router  http.Handler
}

func newRecordsFixture(t *testing.T) *recordsFixture {
	t.Helper()

	records := testutil.TestStore(t)

	feeds := service.NewFeedService(records)
	wanteds := service.NewWantedService(records)
	employees := service.NewEmployeeService(records)
	applications := service.NewApplicationService(records)
	requests := service.NewRequestService(records)
	users := service.NewUserService(records)

	feeds.Activate()
	users.Activate()
	t.Cleanup(func() {
		feeds.Release()
		users.Release()
	})

	h := &handler.RecordsHandler{
		Feeds:        feeds,
		Wanteds:      wanteds,
		Employees:    employees,
		Applications: applications,
		Requests:     requests,
		Users:        users,
	}

	r := chi.NewRouter()
	r.Get("/feeds", h.ListFeeds)
	r.Post("/feeds", h.CreateFeed)
	r.Post("/feeds/{id}/done", h.MarkFeedDone)
	r.Delete("/feeds/{id}", h.DeleteFeed)
	r.Get("/users", h.ListUsers)
	r.Post("/users", h.CreateUser)
	r.Put("/users/{id}/role", h.SetUserRole)
	r.Delete("/users/{id}", h.DeleteUser)

	return &recordsFixture{records: records, feeds: feeds, users: users, router: r}
}

func (f *recordsFixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

// listTotal polls the list endpoint until meta.total matches want or the
// deadline passes. Views apply store changes asynchronously.
func (f *recordsFixture) listTotal(t *testing.T, path string, want int) *httptest.ResponseRecorder {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		rec := f.do(t, http.MethodGet, path, "")
		var resp struct {
			Meta struct {
				Total int `json:"total"`
			} `json:"meta"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		if resp.Meta.Total == want {
			return rec
		}
		if time.Now().After(deadline) {
			t.Fatalf("list %s never reached total %d, last total %d", path, want, resp.Meta.Total)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestCreateFeed(t *testing.T) {
	f := newRecordsFixture(t)

	rec := f.do(t, http.MethodPost, "/feeds", `{"title":"Standup notes","body":"Sprint recap","assignedTo":["root@example.com"]}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "id")

	n, err := f.records.Count(context.Background(), model.CollectionFeeds)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCreateFeed_ValidationError(t *testing.T) {
	f := newRecordsFixture(t)

	rec := f.do(t, http.MethodPost, "/feeds", `{"title":"  ","body":"no title","assignedTo":["a@b.c"]}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "validation_error")
}

func TestCreateFeed_MalformedBody(t *testing.T) {
	f := newRecordsFixture(t)

	rec := f.do(t, http.MethodPost, "/feeds", `{"title":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFeedDoneAndDelete(t *testing.T) {
	f := newRecordsFixture(t)
	ctx := context.Background()

	id, err := f.feeds.Create(ctx, "Ship release", "cut the tag", []string{"root@example.com"})
	require.NoError(t, err)

	done := f.do(t, http.MethodPost, "/feeds/"+id+"/done", "")
	require.Equal(t, http.StatusOK, done.Code)

	doc, err := f.records.Get(ctx, model.CollectionFeeds, id)
	require.NoError(t, err)
	assert.Equal(t, model.FeedStatusDone, doc.Field("status"))

	del := f.do(t, http.MethodDelete, "/feeds/"+id, "")
	require.Equal(t, http.StatusOK, del.Code)

	_, err = f.records.Get(ctx, model.CollectionFeeds, id)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestFeedDone_MissingReturns404(t *testing.T) {
	f := newRecordsFixture(t)

	rec := f.do(t, http.MethodPost, "/feeds/no-such-id/done", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListFeeds_Search(t *testing.T) {
	f := newRecordsFixture(t)
	ctx := context.Background()

	_, err := f.feeds.Create(ctx, "Deploy checklist", "steps", []string{"a@b.c"})
	require.NoError(t, err)
	_, err = f.feeds.Create(ctx, "Lunch menu", "pizza", []string{"a@b.c"})
	require.NoError(t, err)

	f.listTotal(t, "/feeds", 2)
	rec := f.listTotal(t, "/feeds?q=deploy", 1)
	assert.Contains(t, rec.Body.String(), "Deploy checklist")
}

func TestUserEndpoints(t *testing.T) {
	f := newRecordsFixture(t)
	ctx := context.Background()

	created := f.do(t, http.MethodPost, "/users", `{"email":"New@Example.com","role":"admin"}`)
	require.Equal(t, http.StatusCreated, created.Code)

	rec := f.listTotal(t, "/users", 1)
	assert.Contains(t, rec.Body.String(), "new@example.com")

	role := f.do(t, http.MethodPut, "/users/new@example.com/role", `{"role":"user"}`)
	require.Equal(t, http.StatusOK, role.Code)

	n, err := f.users.AdminCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	del := f.do(t, http.MethodDelete, "/users/new@example.com", "")
	require.Equal(t, http.StatusOK, del.Code)
	f.listTotal(t, "/users", 0)
}

func TestCreateUser_InvalidRole(t *testing.T) {
	f := newRecordsFixture(t)

	rec := f.do(t, http.MethodPost, "/users", `{"email":"x@y.z","role":"superuser"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
