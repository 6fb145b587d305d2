package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/planner/internal/adapters/backend"
	"github.com/okian/planner/internal/adapters/http/api"
	"github.com/okian/planner/internal/adapters/http/client"
	"github.com/okian/planner/internal/domain/datekey"
	. "github.com/smartystreets/goconvey/convey"
)

type failingDisk struct{}

func (failingDisk) SaveJSON(string, any) error         { return errors.New("disk full") }
func (failingDisk) LoadJSON(string, any) (bool, error) { return false, nil }

func newServer(opts ...backend.Option) (*httptest.Server, *backend.Store) {
	n := 0
	base := []backend.Option{
		backend.WithIDGenerator(func() string { n++; return fmt.Sprintf("id%d", n) }),
		backend.WithClock(func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) }),
	}
	store := backend.New(append(base, opts...)...)
	srv := httptest.NewServer(api.NewServer(store, nil).Handler())
	return srv, store
}

func call(srv *httptest.Server, method, path, body string) (int, map[string]any) {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, rd)
	So(err, ShouldBeNil)
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.Client().Do(req)
	So(err, ShouldBeNil)
	defer resp.Body.Close()
	out := map[string]any{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp.StatusCode, out
}

func TestEventRoutes(t *testing.T) {
	Convey("Given a running backend", t, func() {
		srv, _ := newServer()
		defer srv.Close()

		Convey("GET /events on an empty store returns empty lists", func() {
			status, body := call(srv, http.MethodGet, "/events", "")
			So(status, ShouldEqual, http.StatusOK)
			So(body["events"], ShouldResemble, []any{})
			So(body["categories"], ShouldResemble, []any{})
		})

		Convey("POST /events creates and answers 201", func() {
			status, body := call(srv, http.MethodPost, "/events", `{"text":"Lunch","date":"2024-03-05T12:00:00Z"}`)
			So(status, ShouldEqual, http.StatusCreated)
			So(body["message"], ShouldEqual, "Event added successfully")
			event := body["event"].(map[string]any)
			So(event["id"], ShouldEqual, "id1")
			So(event["date"], ShouldEqual, "2024-03-05")
			So(event["categoryId"], ShouldBeNil)
		})

		Convey("POST /events without text answers 400 with an error body", func() {
			status, body := call(srv, http.MethodPost, "/events", `{"date":"2024-03-05"}`)
			So(status, ShouldEqual, http.StatusBadRequest)
			So(body["error"], ShouldEqual, "Missing 'text' or 'date' field")
		})

		Convey("POST /events with broken JSON answers 400", func() {
			status, body := call(srv, http.MethodPost, "/events", `{"text":`)
			So(status, ShouldEqual, http.StatusBadRequest)
			So(body["error"], ShouldStartWith, "invalid JSON body")
		})

		Convey("PATCH /events/{id} updates a known event", func() {
			call(srv, http.MethodPost, "/events", `{"text":"Lunch","date":"2024-03-05"}`)
			status, body := call(srv, http.MethodPatch, "/events/id1", `{"date":"2024-03-07"}`)
			So(status, ShouldEqual, http.StatusOK)
			event := body["event"].(map[string]any)
			So(event["date"], ShouldEqual, "2024-03-07")
			So(event["text"], ShouldEqual, "Lunch")
			So(event["updatedAt"], ShouldNotBeNil)
		})

		Convey("PATCH and DELETE on an unknown id answer 404", func() {
			status, body := call(srv, http.MethodPatch, "/events/ghost", `{"text":"x"}`)
			So(status, ShouldEqual, http.StatusNotFound)
			So(body["error"], ShouldEqual, "Event not found")

			status, body = call(srv, http.MethodDelete, "/events/ghost", "")
			So(status, ShouldEqual, http.StatusNotFound)
			So(body["error"], ShouldEqual, "Event not found")
		})

		Convey("DELETE /events/{id} removes the event", func() {
			call(srv, http.MethodPost, "/events", `{"text":"Lunch","date":"2024-03-05"}`)
			status, body := call(srv, http.MethodDelete, "/events/id1", "")
			So(status, ShouldEqual, http.StatusOK)
			So(body["message"], ShouldEqual, "Event deleted successfully")

			_, list := call(srv, http.MethodGet, "/events", "")
			So(list["events"], ShouldResemble, []any{})
		})
	})
}

func TestCategoryRoutes(t *testing.T) {
	Convey("Given a backend with a category and a tagged event", t, func() {
		srv, store := newServer()
		defer srv.Close()

		status, _ := call(srv, http.MethodPost, "/categories", `{"name":"Work","color":"#f00"}`)
		So(status, ShouldEqual, http.StatusCreated)
		status, _ = call(srv, http.MethodPost, "/events", `{"text":"Standup","date":"2024-03-05","categoryId":"id1"}`)
		So(status, ShouldEqual, http.StatusCreated)

		Convey("GET /categories lists it", func() {
			_, body := call(srv, http.MethodGet, "/categories", "")
			cats := body["categories"].([]any)
			So(len(cats), ShouldEqual, 1)
			So(cats[0].(map[string]any)["name"], ShouldEqual, "Work")
		})

		Convey("PATCH /categories/{id} renames it", func() {
			status, body := call(srv, http.MethodPatch, "/categories/id1", `{"name":"Office"}`)
			So(status, ShouldEqual, http.StatusOK)
			So(body["category"].(map[string]any)["name"], ShouldEqual, "Office")
			So(body["category"].(map[string]any)["color"], ShouldEqual, "#f00")
		})

		Convey("DELETE /categories/{id} clears event references", func() {
			status, body := call(srv, http.MethodDelete, "/categories/id1", "")
			So(status, ShouldEqual, http.StatusOK)
			So(body["clearedEvents"], ShouldEqual, float64(1))
			events := store.Events(context.Background())
			So(events[0].CategoryID, ShouldBeNil)
		})

		Convey("An unknown categoryId is rejected", func() {
			status, _ := call(srv, http.MethodPost, "/events", `{"text":"x","date":"2024-03-05","categoryId":"nope"}`)
			So(status, ShouldEqual, http.StatusBadRequest)
		})

		Convey("DELETE on an unknown category answers 404", func() {
			status, body := call(srv, http.MethodDelete, "/categories/ghost", "")
			So(status, ShouldEqual, http.StatusNotFound)
			So(body["error"], ShouldEqual, "Category not found")
		})
	})
}

func TestPersistFailure(t *testing.T) {
	Convey("Given a backend whose disk rejects writes", t, func() {
		srv, store := newServer(backend.WithPersister(failingDisk{}))
		defer srv.Close()

		Convey("Writes answer 500 and leave the store untouched", func() {
			status, body := call(srv, http.MethodPost, "/events", `{"text":"Lunch","date":"2024-03-05"}`)
			So(status, ShouldEqual, http.StatusInternalServerError)
			So(body["error"], ShouldContainSubstring, "failed to save data")
			So(store.Events(context.Background()), ShouldBeEmpty)
		})
	})
}

func TestAmbientRoutes(t *testing.T) {
	Convey("Given a running backend", t, func() {
		srv, _ := newServer()
		defer srv.Close()

		Convey("GET /healthz reports ok", func() {
			status, body := call(srv, http.MethodGet, "/healthz", "")
			So(status, ShouldEqual, http.StatusOK)
			So(body["status"], ShouldEqual, "ok")
		})

		Convey("GET /metrics exposes the planner registry", func() {
			call(srv, http.MethodGet, "/healthz", "")
			resp, err := srv.Client().Get(srv.URL + "/metrics")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			raw, _ := io.ReadAll(resp.Body)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(string(raw), ShouldContainSubstring, "planner_http_requests_total")
		})

		Convey("Preflight requests get CORS headers", func() {
			req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/events", nil)
			resp, err := srv.Client().Do(req)
			So(err, ShouldBeNil)
			resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusNoContent)
			So(resp.Header.Get("Access-Control-Allow-Origin"), ShouldEqual, "*")
			So(resp.Header.Get("Access-Control-Allow-Methods"), ShouldContainSubstring, "PATCH")
		})

		Convey("Unknown methods on a known path are refused", func() {
			status, _ := call(srv, http.MethodPut, "/events", `{}`)
			So(status, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestClientRoundTrip(t *testing.T) {
	Convey("Given the REST client pointed at the backend", t, func() {
		srv, _ := newServer()
		defer srv.Close()
		ctx := context.Background()
		c, err := client.New(srv.URL)
		So(err, ShouldBeNil)

		Convey("Created entities come back through a reload", func() {
			cat, err := c.CreateCategory(ctx, client.NewCategory{Name: "Home", Color: "#0f0"})
			So(err, ShouldBeNil)
			e, err := c.CreateEvent(ctx, client.NewEvent{Text: "Dinner", Date: "2024-03-09", CategoryID: &cat.ID})
			So(err, ShouldBeNil)
			So(e.Date, ShouldEqual, datekey.Key("2024-03-09"))

			payload, err := c.ListEvents(ctx)
			So(err, ShouldBeNil)
			So(payload.Shape, ShouldEqual, client.ShapeEvents)
			So(payload.HasCategories, ShouldBeTrue)
			So(len(payload.Events), ShouldEqual, 1)
			So(*payload.Events[0].CategoryID, ShouldEqual, cat.ID)
		})

		Convey("A 404 surfaces as an APIError", func() {
			err := c.DeleteEvent(ctx, "ghost")
			var apiErr *client.APIError
			So(errors.As(err, &apiErr), ShouldBeTrue)
			So(apiErr.NotFound(), ShouldBeTrue)
			So(apiErr.Message, ShouldEqual, "Event not found")
		})
	})
}
