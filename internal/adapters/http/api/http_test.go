package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/palmares/internal/adapters/http/api"
	repository "github.com/okian/palmares/internal/adapters/repository"
	service "github.com/okian/palmares/internal/app"
	"github.com/okian/palmares/internal/domain/model"
	"github.com/okian/palmares/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

type mockDependencies struct {
	seen       map[string]bool
	submitErr  error
	lastSub    types.Submission
	lastID     string
	discipline string
}

func (m *mockDependencies) Submit(_ context.Context, athleteID string, sub types.Submission) (types.SubmitResult, error) {
	if m.submitErr != nil {
		return types.SubmitResult{}, m.submitErr
	}
	m.lastID, m.lastSub = athleteID, sub
	key := fmt.Sprintf("%s/%d", athleteID, sub.Year)
	res := types.SubmitResult{SubmissionID: key, Duplicate: m.seen[key]}
	m.seen[key] = true
	return res, nil
}

func (m *mockDependencies) Profile(_ context.Context, athleteID string) (*model.Profile, error) {
	if athleteID != "a1" {
		return nil, fmt.Errorf("get %s: %w", athleteID, repository.ErrNotFound)
	}
	p := model.NewProfile("a1")
	p.Records["100m"] = "10''60"
	return p, nil
}

func (m *mockDependencies) Timeline(ctx context.Context, athleteID, discipline string) (types.Timeline, error) {
	if _, err := m.Profile(ctx, athleteID); err != nil {
		return types.Timeline{}, err
	}
	m.discipline = discipline
	return types.Timeline{AthleteID: athleteID, Discipline: discipline, Source: "persisted", Points: []model.TimelinePoint{}}, nil
}

func (m *mockDependencies) MergedByEvent(ctx context.Context, athleteID, discipline string) (types.Timeline, error) {
	if _, err := m.Profile(ctx, athleteID); err != nil {
		return types.Timeline{}, err
	}
	m.discipline = discipline
	return types.Timeline{AthleteID: athleteID, Discipline: discipline, Source: "merged", Points: []model.TimelinePoint{}}, nil
}

func (m *mockDependencies) Records(ctx context.Context, athleteID string) ([]types.RecordView, error) {
	if _, err := m.Profile(ctx, athleteID); err != nil {
		return nil, err
	}
	return []types.RecordView{{Key: "100m", Discipline: "100m", Metric: model.MetricTime}}, nil
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func newMux(deps *mockDependencies) *http.ServeMux {
	server := api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}})
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return mux
}

func serve(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &mockDependencies{seen: map[string]bool{}}
		mux := newMux(deps)

		Convey("Then health serves the metrics exposition", func() {
			w := serve(mux, "GET", "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("And stats are encoded as JSON", func() {
			w := serve(mux, "GET", "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldContainSubstring, "application/json")
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("And unknown paths are not found", func() {
			w := serve(mux, "GET", "/unknown", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("And wrong methods are rejected", func() {
			w := serve(mux, "DELETE", "/athletes/a1", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestSubmissions(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &mockDependencies{seen: map[string]bool{}}
		mux := newMux(deps)
		body := `{"year":2024,"pages":["<table></table>"]}`

		Convey("A first submission is accepted", func() {
			w := serve(mux, "POST", "/athletes/a1/pages", body)
			So(w.Code, ShouldEqual, http.StatusAccepted)
			So(deps.lastID, ShouldEqual, "a1")
			So(deps.lastSub.Year, ShouldEqual, 2024)
			So(len(deps.lastSub.Pages), ShouldEqual, 1)

			var ack map[string]interface{}
			So(json.Unmarshal(w.Body.Bytes(), &ack), ShouldBeNil)
			So(ack["status"], ShouldEqual, "accepted")
			So(ack["submission_id"], ShouldEqual, "a1/2024")

			Convey("And a repeat is acknowledged as a duplicate", func() {
				w := serve(mux, "POST", "/athletes/a1/pages", body)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"duplicate":true`)
			})
		})

		Convey("Malformed bodies are bad requests", func() {
			for _, b := range []string{`{`, `{"year":"x"}`, `{"year":2024,"pages":[],"extra":1}`} {
				w := serve(mux, "POST", "/athletes/a1/pages", b)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, `"code":"bad_request"`)
			}
		})

		Convey("Validation failures are bad requests", func() {
			deps.submitErr = fmt.Errorf("%w: no pages", service.ErrInvalidSubmission)
			w := serve(mux, "POST", "/athletes/a1/pages", body)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, "no pages")
		})

		Convey("A full queue is backpressure", func() {
			deps.submitErr = service.ErrBackpressure
			w := serve(mux, "POST", "/athletes/a1/pages", body)
			So(w.Code, ShouldEqual, http.StatusTooManyRequests)
			So(w.Body.String(), ShouldContainSubstring, `"code":"backpressure"`)
		})

		Convey("A stopped service is unavailable", func() {
			deps.submitErr = service.ErrNotStarted
			w := serve(mux, "POST", "/athletes/a1/pages", body)
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
		})

		Convey("Other failures are internal errors", func() {
			deps.submitErr = errors.New("disk on fire")
			w := serve(mux, "POST", "/athletes/a1/pages", body)
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
		})
	})
}

func TestAthleteQueries(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &mockDependencies{seen: map[string]bool{}}
		mux := newMux(deps)

		Convey("The profile is served", func() {
			w := serve(mux, "GET", "/athletes/a1", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"athleteId":"a1"`)
		})

		Convey("The timeline passes the discipline through", func() {
			w := serve(mux, "GET", "/athletes/a1/timeline?discipline=100m", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.discipline, ShouldEqual, "100m")
			So(w.Body.String(), ShouldContainSubstring, `"source":"persisted"`)
			So(w.Body.String(), ShouldContainSubstring, `"points":[]`)
		})

		Convey("The merged view is served", func() {
			w := serve(mux, "GET", "/athletes/a1/events?discipline=Longueur", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.discipline, ShouldEqual, "Longueur")
			So(w.Body.String(), ShouldContainSubstring, `"source":"merged"`)
		})

		Convey("Records are served", func() {
			w := serve(mux, "GET", "/athletes/a1/records", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"metric":"time"`)
		})

		Convey("Unknown athletes are not found on every read route", func() {
			for _, path := range []string{"/athletes/zz", "/athletes/zz/timeline", "/athletes/zz/events", "/athletes/zz/records"} {
				w := serve(mux, "GET", path, "")
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(w.Body.String(), ShouldContainSubstring, `"code":"not_found"`)
			}
		})
	})
}

func TestErrorHelpers(t *testing.T) {
	Convey("Given wrapped API errors", t, func() {
		cause := errors.New("boom")

		Convey("WrapKind matches both the kind and the cause", func() {
			err := api.WrapKind("api.op", api.ErrBadRequest, cause)
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: bad request: boom")
		})

		Convey("NewKind carries only the kind", func() {
			err := api.NewKind("api.op", api.ErrBackpressure)
			So(errors.Is(err, api.ErrBackpressure), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: backpressure")
		})

		Convey("Wrap keeps nil nil", func() {
			So(api.Wrap("api.op", nil), ShouldBeNil)
			So(api.Wrap("api.op", cause).Error(), ShouldEqual, "api.op: boom")
		})
	})
}
