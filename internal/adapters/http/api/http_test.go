package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	service "github.com/bestquark/ml-at-ml-log/internal/app"
	"github.com/bestquark/ml-at-ml-log/internal/adapters/http/api"
	. "github.com/smartystreets/goconvey/convey"
)

func fixedClock() time.Time { return time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC) }

func newMux(svc *service.Service) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(svc, nil).Register(context.Background(), mux)
	return mux
}

func do(mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func decodeError(w *httptest.ResponseRecorder) errorBody {
	var e errorBody
	_ = json.Unmarshal(w.Body.Bytes(), &e)
	return e
}

type scheduleBody struct {
	Version  string `json:"version"`
	Proposed int    `json:"proposed"`
	Slots    []struct {
		Date       string    `json:"date"`
		Presenters [2]string `json:"presenters"`
	} `json:"slots"`
}

func decodeSchedule(w *httptest.ResponseRecorder) scheduleBody {
	var s scheduleBody
	_ = json.Unmarshal(w.Body.Bytes(), &s)
	return s
}

func TestServer_Basics(t *testing.T) {
	Convey("Given an API server over a fresh service", t, func() {
		svc := service.New(service.WithClock(fixedClock))
		defer svc.Stop()
		mux := newMux(svc)

		Convey("Then the health endpoint exposes metrics", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then the stats endpoint returns JSON", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var stats map[string]any
			So(json.Unmarshal(w.Body.Bytes(), &stats), ShouldBeNil)
			So(stats["started"], ShouldEqual, false)
		})

		Convey("Then an empty schedule is an empty list", func() {
			w := do(mux, http.MethodGet, "/schedule", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"slots":[]`)
		})

		Convey("Then wrong methods are refused", func() {
			w := do(mux, http.MethodPut, "/schedule", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(w.Header().Get("Allow"), ShouldEqual, http.MethodGet)
		})

		Convey("Then assigning without a roster is a configuration error", func() {
			w := do(mux, http.MethodPost, "/schedule/assign", "")
			So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
			So(decodeError(w).Code, ShouldEqual, "invalid_configuration")
		})

		Convey("Then confirmations need a running pipeline", func() {
			w := do(mux, http.MethodPost, "/notifications/confirmations", "")
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
		})

		Convey("Then a closed store is reported as unavailable", func() {
			svc.Stop()
			w := do(mux, http.MethodGet, "/schedule", "")
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
		})
	})
}

func TestServer_Participants(t *testing.T) {
	Convey("Given an API server", t, func() {
		svc := service.New()
		defer svc.Stop()
		mux := newMux(svc)

		Convey("When a participant is posted", func() {
			w := do(mux, http.MethodPost, "/participants", `{"name":"Ada","email":"ada@example.com"}`)
			So(w.Code, ShouldEqual, http.StatusCreated)

			Convey("Then it is listed", func() {
				w := do(mux, http.MethodGet, "/participants", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"name":"Ada"`)
			})

			Convey("Then posting it again conflicts", func() {
				w := do(mux, http.MethodPost, "/participants", `{"name":"Ada"}`)
				So(w.Code, ShouldEqual, http.StatusConflict)
			})

			Convey("Then it can be removed once", func() {
				So(do(mux, http.MethodDelete, "/participants?name=Ada", "").Code, ShouldEqual, http.StatusNoContent)
				So(do(mux, http.MethodDelete, "/participants?name=Ada", "").Code, ShouldEqual, http.StatusNotFound)
			})

			Convey("Then usage includes them", func() {
				w := do(mux, http.MethodGet, "/usage?q=ad", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"band":"average"`)
			})
		})

		Convey("When the body is invalid", func() {
			Convey("Then a bad email is rejected with the field name", func() {
				w := do(mux, http.MethodPost, "/participants", `{"name":"Bob","email":"nope"}`)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w).Message, ShouldContainSubstring, "email")
			})

			Convey("Then a missing name is rejected", func() {
				w := do(mux, http.MethodPost, "/participants", `{"email":"bob@example.com"}`)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})

			Convey("Then a reserved name is rejected", func() {
				w := do(mux, http.MethodPost, "/participants", `{"name":"EMPTY"}`)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})

			Convey("Then unknown fields are rejected", func() {
				w := do(mux, http.MethodPost, "/participants", `{"name":"Bob","role":"admin"}`)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})

			Convey("Then a delete without a name is rejected", func() {
				w := do(mux, http.MethodDelete, "/participants", "")
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestServer_Schedule(t *testing.T) {
	Convey("Given an API server with a roster", t, func() {
		svc := service.New(
			service.WithClock(fixedClock),
			service.WithMinGap(1),
			service.WithLookback(0),
		)
		defer svc.Stop()
		mux := newMux(svc)
		for _, n := range []string{"Ada", "Bob", "Cy"} {
			So(do(mux, http.MethodPost, "/participants", `{"name":"`+n+`"}`).Code, ShouldEqual, http.StatusCreated)
		}

		Convey("When the calendar is extended", func() {
			w := do(mux, http.MethodPost, "/schedule/extend", `{"weeks":2}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			ext := decodeSchedule(w)
			So(len(ext.Slots), ShouldEqual, 2)
			So(ext.Slots[0].Date, ShouldEqual, "2025-01-08")
			So(ext.Slots[0].Presenters, ShouldResemble, [2]string{"EMPTY", "EMPTY"})

			Convey("And presenters are assigned with a seed", func() {
				w := do(mux, http.MethodPost, "/schedule/assign", `{"seed":5}`)
				So(w.Code, ShouldEqual, http.StatusOK)
				res := decodeSchedule(w)
				So(res.Proposed, ShouldEqual, 4)
				So(res.Slots[0].Presenters[0], ShouldStartWith, "[P] ")

				Convey("Then the stored schedule carries the new version", func() {
					got := decodeSchedule(do(mux, http.MethodGet, "/schedule", ""))
					So(got.Version, ShouldEqual, res.Version)
					So(got.Slots, ShouldResemble, res.Slots)
				})

				Convey("Then a field can be confirmed once", func() {
					body := `{"date":"2025-01-08","position":1,"action":"confirm"}`
					w := do(mux, http.MethodPost, "/schedule/slot", body)
					So(w.Code, ShouldEqual, http.StatusOK)
					var slot struct {
						Presenters [2]string `json:"presenters"`
					}
					So(json.Unmarshal(w.Body.Bytes(), &slot), ShouldBeNil)
					So(slot.Presenters[0], ShouldEqual, strings.TrimPrefix(res.Slots[0].Presenters[0], "[P] "))

					again := do(mux, http.MethodPost, "/schedule/slot", body)
					So(again.Code, ShouldEqual, http.StatusConflict)
				})

				Convey("Then bad transitions are rejected", func() {
					So(do(mux, http.MethodPost, "/schedule/slot", `{"date":"2025-01-08","position":3,"action":"confirm"}`).Code, ShouldEqual, http.StatusBadRequest)
					So(do(mux, http.MethodPost, "/schedule/slot", `{"date":"2025-01-08","position":1,"action":"approve"}`).Code, ShouldEqual, http.StatusBadRequest)
					So(do(mux, http.MethodPost, "/schedule/slot", `{"date":"08/01/2025","position":1,"action":"cancel"}`).Code, ShouldEqual, http.StatusBadRequest)
					So(do(mux, http.MethodPost, "/schedule/slot", `{"date":"2025-01-09","position":1,"action":"cancel"}`).Code, ShouldEqual, http.StatusNotFound)
				})
			})

			Convey("Then a slot can be deleted", func() {
				So(do(mux, http.MethodDelete, "/schedule/slot?date=2025-01-15", "").Code, ShouldEqual, http.StatusNoContent)
				So(do(mux, http.MethodDelete, "/schedule/slot?date=2025-01-15", "").Code, ShouldEqual, http.StatusNotFound)
				So(do(mux, http.MethodDelete, "/schedule/slot", "").Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When too many weeks are requested", func() {
			w := do(mux, http.MethodPost, "/schedule/extend", `{"weeks":500}`)

			Convey("Then the request is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestServer_Notifications(t *testing.T) {
	Convey("Given a started API server", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithClock(fixedClock), service.WithMinGap(1))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()
		mux := newMux(svc)

		Convey("When confirmations are requested", func() {
			w := do(mux, http.MethodPost, "/notifications/confirmations", "")

			Convey("Then they are accepted", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(w.Body.String(), ShouldContainSubstring, `"queued":[]`)
			})
		})

		Convey("When a confirmation link is malformed", func() {
			Convey("Then it is rejected", func() {
				So(do(mux, http.MethodGet, "/confirm?token=garbage", "").Code, ShouldEqual, http.StatusBadRequest)
				So(do(mux, http.MethodGet, "/confirm", "").Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestServer_Records(t *testing.T) {
	Convey("Given an API server", t, func() {
		svc := service.New()
		defer svc.Stop()
		mux := newMux(svc)

		Convey("When a material is posted", func() {
			w := do(mux, http.MethodPost, "/materials", `{"date":"2025-01-08","title":"Attention","link":"https://example.com/a.pdf"}`)
			So(w.Code, ShouldEqual, http.StatusCreated)
			var m struct {
				ID string `json:"id"`
			}
			So(json.Unmarshal(w.Body.Bytes(), &m), ShouldBeNil)
			So(m.ID, ShouldNotBeEmpty)

			Convey("Then it is listed for its date", func() {
				w := do(mux, http.MethodGet, "/materials?date=2025-01-08", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"title":"Attention"`)
			})

			Convey("Then it can be deleted once", func() {
				So(do(mux, http.MethodDelete, "/materials?id="+m.ID, "").Code, ShouldEqual, http.StatusNoContent)
				So(do(mux, http.MethodDelete, "/materials?id="+m.ID, "").Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When a material has no title", func() {
			w := do(mux, http.MethodPost, "/materials", `{"date":"2025-01-08"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a slide deck is recorded", func() {
			w := do(mux, http.MethodPut, "/slides?date=2025-01-08", `{"presentation_id":"abc","link":"https://example.com/s"}`)
			So(w.Code, ShouldEqual, http.StatusOK)

			Convey("Then it is found by date", func() {
				w := do(mux, http.MethodGet, "/slides?date=2025-01-08", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"presentation_id":"abc"`)
			})

			Convey("Then other dates have none", func() {
				So(do(mux, http.MethodGet, "/slides?date=2025-01-15", "").Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the date is missing", func() {
			So(do(mux, http.MethodGet, "/slides", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/materials", "").Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}
