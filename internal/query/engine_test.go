package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shieldhq/shield-admin/internal/model"
	"github.com/shieldhq/shield-admin/internal/store"
)

// fakeFeed implements Subscriber with hand-delivered snapshots.
type fakeFeed struct {
	fn             store.SnapshotFunc
	subscribeCount int
}

func (f *fakeFeed) Subscribe(_ string, _ store.OrderSpec, fn store.SnapshotFunc) store.Unsubscribe {
	f.subscribeCount++
	f.fn = fn
	return func() { f.fn = nil }
}

func (f *fakeFeed) push(docs []store.Document) {
	if f.fn != nil {
		f.fn(docs)
	}
}

func appCaps() Capabilities[model.JoinApplication] {
	return Capabilities[model.JoinApplication]{
		Decode: func(doc store.Document) (model.JoinApplication, error) {
			var a model.JoinApplication
			if err := doc.Decode(&a); err != nil {
				return a, err
			}
			a.DocID = doc.ID
			return a, nil
		},
		SearchFields: func(a model.JoinApplication) []string {
			fields := []string{a.FullName, a.Email, a.Contact, a.Reason}
			return append(fields, a.Interests...)
		},
		Source:    func(a model.JoinApplication) string { return a.Source },
		Accepted:  func(a model.JoinApplication) bool { return a.AcceptedTerms.Bool() },
		Name:      func(a model.JoinApplication) string { return a.FullName },
		CreatedAt: func(a model.JoinApplication) time.Time { return a.CreatedAt },
	}
}

func appDoc(id string, data map[string]any) store.Document {
	return store.Document{Collection: model.CollectionApplications, ID: id, Data: data}
}

func newAppEngine(t *testing.T) (*Engine[model.JoinApplication], *fakeFeed) {
	t.Helper()
	feed := &fakeFeed{}
	e := NewEngine(feed, model.CollectionApplications, store.OrderByCreatedDesc, appCaps())
	e.Activate()
	t.Cleanup(e.Release)
	return e, feed
}

var (
	t1 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	t3 = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
)

func threeApps() []store.Document {
	return []store.Document{
		appDoc("app-1", map[string]any{
			"fullName": "Alice Adams", "email": "alice@x.com", "contact": "+1 555 0001",
			"reason": "wants to help", "interests": []any{"logistics"},
			"source": "website", "acceptedTerms": true, "createdAt": t1.Format(time.RFC3339),
		}),
		appDoc("app-2", map[string]any{
			"fullName": "Bob Brown", "email": "bob@x.com", "contact": "+1 555 0002",
			"reason": "carrier pigeon enthusiast", "interests": []any{"comms", "field work"},
			"source": "referral", "acceptedTerms": false, "createdAt": t2.Format(time.RFC3339),
		}),
		appDoc("app-3", map[string]any{
			"fullName": "carla cruz", "email": "carla@x.com", "contact": "+1 555 0003",
			"reason": "recommended by hq", "interests": []any{},
			"source": "website", "acceptedTerms": true, "createdAt": t3.Format(time.RFC3339),
		}),
	}
}

func ids(apps []model.JoinApplication) []string {
	out := make([]string, len(apps))
	for i, a := range apps {
		out[i] = a.DocID
	}
	return out
}

func TestEngine_SnapshotReplacedWholesale(t *testing.T) {
	e, feed := newAppEngine(t)

	feed.push(threeApps())
	assert.Equal(t, 3, e.Len())

	// The next notification replaces everything, it never patches.
	feed.push(threeApps()[:1])
	assert.Equal(t, 1, e.Len())
	assert.Equal(t, []string{"app-1"}, ids(e.Snapshot()))
}

func TestEngine_SortNewestFirst(t *testing.T) {
	e, feed := newAppEngine(t)
	feed.push(threeApps())

	view := e.View(State{Sort: SortCreatedDesc})
	assert.Equal(t, []string{"app-3", "app-2", "app-1"}, ids(view))

	view = e.View(State{Sort: SortCreatedAsc})
	assert.Equal(t, []string{"app-1", "app-2", "app-3"}, ids(view))
}

func TestEngine_SearchMatchesSingleField(t *testing.T) {
	e, feed := newAppEngine(t)
	feed.push(threeApps())

	// Term appears only in app-2's reason; every other control is at
	// its sentinel.
	view := e.View(State{Search: "pigeon", Source: FilterAny, Accepted: AcceptedAny})
	assert.Equal(t, []string{"app-2"}, ids(view))
}

func TestEngine_SearchIsTrimmedAndCaseInsensitive(t *testing.T) {
	e, feed := newAppEngine(t)
	feed.push(threeApps())

	view := e.View(State{Search: "  PIGEON  "})
	assert.Equal(t, []string{"app-2"}, ids(view))
}

func TestEngine_SearchCoversListValuedFields(t *testing.T) {
	e, feed := newAppEngine(t)
	feed.push(threeApps())

	view := e.View(State{Search: "field work"})
	assert.Equal(t, []string{"app-2"}, ids(view))
}

func TestEngine_EmptySearchMatchesEverything(t *testing.T) {
	e, feed := newAppEngine(t)
	feed.push(threeApps())

	withText := e.View(State{Search: "   "})
	withoutText := e.View(State{})
	assert.Equal(t, ids(withoutText), ids(withText))
	assert.Len(t, withText, 3)
}

func TestEngine_SourceFilter(t *testing.T) {
	e, feed := newAppEngine(t)
	feed.push(threeApps())

	view := e.View(State{Source: "website"})
	assert.Equal(t, []string{"app-3", "app-1"}, ids(view))

	view = e.View(State{Source: FilterAny})
	assert.Len(t, view, 3)
}

func TestEngine_AcceptedTriState(t *testing.T) {
	e, feed := newAppEngine(t)
	feed.push(threeApps())

	assert.Equal(t, []string{"app-3", "app-1"}, ids(e.View(State{Accepted: AcceptedYes})))
	assert.Equal(t, []string{"app-2"}, ids(e.View(State{Accepted: AcceptedNo})))
	assert.Len(t, e.View(State{Accepted: AcceptedAny}), 3)
}

func TestEngine_FiltersAreConjunctive(t *testing.T) {
	e, feed := newAppEngine(t)
	feed.push(threeApps())

	view := e.View(State{Source: "website", Search: "alice"})
	assert.Equal(t, []string{"app-1"}, ids(view))

	view = e.View(State{Source: "referral", Search: "alice"})
	assert.Empty(t, view)
}

func TestEngine_PlanFilter(t *testing.T) {
	caps := Capabilities[model.ServiceRequest]{
		Decode: func(doc store.Document) (model.ServiceRequest, error) {
			var r model.ServiceRequest
			if err := doc.Decode(&r); err != nil {
				return r, err
			}
			r.DocID = doc.ID
			return r, nil
		},
		SearchFields: func(r model.ServiceRequest) []string {
			return []string{r.Name, r.Email, r.PreferredContact, r.Requirements, r.ProjectReference}
		},
		Plan:      func(r model.ServiceRequest) string { return r.Plan },
		Name:      func(r model.ServiceRequest) string { return r.Name },
		CreatedAt: func(r model.ServiceRequest) time.Time { return r.CreatedAt },
	}

	feed := &fakeFeed{}
	e := NewEngine(feed, model.CollectionRequests, store.OrderByCreatedDesc, caps)
	e.Activate()
	defer e.Release()

	feed.push([]store.Document{
		{Collection: model.CollectionRequests, ID: "req-1", Data: map[string]any{
			"name": "Dana", "plan": model.PlanBasic, "createdAt": t1.Format(time.RFC3339)}},
		{Collection: model.CollectionRequests, ID: "req-2", Data: map[string]any{
			"name": "Earl", "plan": model.PlanPremium, "createdAt": t2.Format(time.RFC3339)}},
	})

	view := e.View(State{Plan: model.PlanPremium})
	require.Len(t, view, 1)
	assert.Equal(t, "req-2", view[0].DocID)
}

func TestEngine_ViewIsDeterministicAndStable(t *testing.T) {
	e, feed := newAppEngine(t)

	// Two records share a creation time: ties must keep snapshot order.
	docs := []store.Document{
		appDoc("tie-a", map[string]any{"fullName": "Same Time", "createdAt": t1.Format(time.RFC3339)}),
		appDoc("tie-b", map[string]any{"fullName": "Same Time", "createdAt": t1.Format(time.RFC3339)}),
		appDoc("newer", map[string]any{"fullName": "Newer", "createdAt": t2.Format(time.RFC3339)}),
	}
	feed.push(docs)

	qs := State{Sort: SortCreatedDesc}
	first := ids(e.View(qs))
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ids(e.View(qs)))
	}
	assert.Equal(t, []string{"newer", "tie-a", "tie-b"}, first)
}

func TestEngine_NameSortCaseInsensitive(t *testing.T) {
	e, feed := newAppEngine(t)
	feed.push(threeApps())

	// "carla cruz" is lower-case in the data; a byte-wise sort would
	// push it past the capitalized names.
	view := e.View(State{Sort: SortNameAsc})
	assert.Equal(t, []string{"app-1", "app-2", "app-3"}, ids(view))

	view = e.View(State{Sort: SortNameDesc})
	assert.Equal(t, []string{"app-3", "app-2", "app-1"}, ids(view))
}

func TestEngine_MissingNameSortsAsEmpty(t *testing.T) {
	e, feed := newAppEngine(t)
	feed.push([]store.Document{
		appDoc("named", map[string]any{"fullName": "Alice", "createdAt": t1.Format(time.RFC3339)}),
		appDoc("anon", map[string]any{"createdAt": t2.Format(time.RFC3339)}),
	})

	view := e.View(State{Sort: SortNameAsc})
	assert.Equal(t, []string{"anon", "named"}, ids(view))
}

func TestEngine_MissingCreatedAtSortsOldest(t *testing.T) {
	e, feed := newAppEngine(t)
	feed.push([]store.Document{
		appDoc("dated", map[string]any{"fullName": "Dated", "createdAt": t1.Format(time.RFC3339)}),
		appDoc("undated", map[string]any{"fullName": "Undated"}),
	})

	view := e.View(State{Sort: SortCreatedAsc})
	assert.Equal(t, []string{"undated", "dated"}, ids(view))

	view = e.View(State{Sort: SortCreatedDesc})
	assert.Equal(t, []string{"dated", "undated"}, ids(view))
}

func TestEngine_UndecodableRecordSkipped(t *testing.T) {
	e, feed := newAppEngine(t)
	feed.push([]store.Document{
		appDoc("good", map[string]any{"fullName": "Fine", "createdAt": t1.Format(time.RFC3339)}),
		appDoc("bad", map[string]any{"interests": "not-a-list"}),
	})

	assert.Equal(t, []string{"good"}, ids(e.Snapshot()))
}

func TestEngine_ReleaseThenReactivate(t *testing.T) {
	e, feed := newAppEngine(t)
	feed.push(threeApps())
	require.Equal(t, 3, e.Len())

	e.Release()
	assert.Nil(t, feed.fn, "release must tear the subscription down")

	// The last snapshot survives release; re-activation opens a fresh
	// subscription rather than replaying stale data.
	assert.Equal(t, 3, e.Len())
	e.Activate()
	assert.Equal(t, 2, feed.subscribeCount)
}

func TestEngine_ParseHelpers(t *testing.T) {
	assert.Equal(t, AcceptedYes, ParseTriState("yes"))
	assert.Equal(t, AcceptedNo, ParseTriState("no"))
	assert.Equal(t, AcceptedAny, ParseTriState("any"))
	assert.Equal(t, AcceptedAny, ParseTriState(""))
	assert.Equal(t, AcceptedAny, ParseTriState("bogus"))

	assert.Equal(t, SortCreatedAsc, ParseSortKey("createdAsc"))
	assert.Equal(t, SortNameAsc, ParseSortKey("nameAsc"))
	assert.Equal(t, SortNameDesc, ParseSortKey("nameDesc"))
	assert.Equal(t, SortCreatedDesc, ParseSortKey("createdDesc"))
	assert.Equal(t, SortCreatedDesc, ParseSortKey(""))
}
