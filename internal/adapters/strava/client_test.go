package strava_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pablo-ross/komornicka100/internal/adapters/store"
	"github.com/pablo-ross/komornicka100/internal/adapters/strava"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClientActivity(t *testing.T) {
	Convey("Given an API serving one activity", t, func(c C) {
		ctx := context.Background()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.So(r.URL.Path, ShouldEqual, "/activities/12345")
			c.So(r.Header.Get("Authorization"), ShouldEqual, "Bearer tok")
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{
				"id": 12345,
				"name": "Sunday century",
				"type": "Ride",
				"distance": 101234.5,
				"moving_time": 14400,
				"elapsed_time": 15000,
				"start_date": "2026-06-07T06:30:00Z"
			}`)
		}))
		defer srv.Close()

		client := strava.NewClient(strava.WithAPIBase(srv.URL))

		Convey("The metadata is decoded", func() {
			act, err := client.Activity(ctx, "tok", "12345")
			So(err, ShouldBeNil)
			So(act.ID, ShouldEqual, 12345)
			So(act.Name, ShouldEqual, "Sunday century")
			So(act.Kind, ShouldEqual, strava.KindRide)
			So(act.DistanceMeters, ShouldAlmostEqual, 101234.5, 0.01)
			So(act.StartDate.Hour(), ShouldEqual, 6)
		})
	})

	Convey("Given an API returning an error status", t, func() {
		ctx := context.Background()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"message":"Record Not Found"}`, http.StatusNotFound)
		}))
		defer srv.Close()

		client := strava.NewClient(strava.WithAPIBase(srv.URL))

		Convey("The call fails", func() {
			_, err := client.Activity(ctx, "tok", "999")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestClientStreams(t *testing.T) {
	Convey("Given an API serving a latlng stream", t, func(c C) {
		ctx := context.Background()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.So(r.URL.Path, ShouldEqual, "/activities/12345/streams")
			c.So(r.URL.Query().Get("keys"), ShouldEqual, "latlng")
			c.So(r.URL.Query().Get("key_by_type"), ShouldEqual, "true")
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"latlng":{"data":[[52.1,16.5],[52.2,16.6],[52.3]]}}`)
		}))
		defer srv.Close()

		client := strava.NewClient(strava.WithAPIBase(srv.URL))

		Convey("Valid pairs become points in lat/lon order, malformed ones are dropped", func() {
			track, err := client.Streams(ctx, "tok", "12345")
			So(err, ShouldBeNil)
			So(track, ShouldHaveLength, 2)
			So(track[0].Lat, ShouldAlmostEqual, 52.1)
			So(track[0].Lon, ShouldAlmostEqual, 16.5)
		})
	})

	Convey("Given an activity without GPS data", t, func() {
		ctx := context.Background()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{}`)
		}))
		defer srv.Close()

		client := strava.NewClient(strava.WithAPIBase(srv.URL))

		Convey("An empty track is returned without error", func() {
			track, err := client.Streams(ctx, "tok", "12345")
			So(err, ShouldBeNil)
			So(track, ShouldBeEmpty)
		})
	})
}

func TestClientActivitiesAfter(t *testing.T) {
	Convey("Given a paginated activity listing", t, func() {
		ctx := context.Background()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			switch r.URL.Query().Get("page") {
			case "1":
				// A full page so the client asks for another.
				fmt.Fprint(w, "[")
				for i := 0; i < 30; i++ {
					if i > 0 {
						fmt.Fprint(w, ",")
					}
					kind := "Ride"
					if i%3 == 0 {
						kind = "Run"
					}
					fmt.Fprintf(w, `{"id":%d,"type":%q,"distance":100000}`, i+1, kind)
				}
				fmt.Fprint(w, "]")
			case "2":
				fmt.Fprint(w, `[{"id":31,"type":"Ride","distance":105000}]`)
			default:
				fmt.Fprint(w, `[]`)
			}
		}))
		defer srv.Close()

		client := strava.NewClient(strava.WithAPIBase(srv.URL))

		Convey("All pages are walked and only rides survive the filter", func() {
			after := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
			acts, err := client.ActivitiesAfter(ctx, "tok", after, strava.KindRide)
			So(err, ShouldBeNil)
			// 30 on page one minus every third (Run) plus one on page two.
			So(acts, ShouldHaveLength, 21)
			So(acts[len(acts)-1].ID, ShouldEqual, 31)
			for _, a := range acts {
				So(a.Kind, ShouldEqual, strava.KindRide)
			}
		})
	})
}

func TestTokenService(t *testing.T) {
	Convey("Given a token endpoint and a stored credential", t, func(c C) {
		ctx := context.Background()
		var refreshes atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			refreshes.Add(1)
			c.So(r.Method, ShouldEqual, http.MethodPost)
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{
				"token_type": "Bearer",
				"access_token": "fresh-access",
				"refresh_token": "rotated-refresh",
				"expires_in": 21600
			}`)
		}))
		defer srv.Close()

		now := time.Date(2026, 6, 7, 12, 0, 0, 0, time.UTC)
		mem := store.NewMemory()
		mem.AddUser(store.User{ID: "user-1", IsActive: true, EmailVerified: true, StravaConnected: true})

		newService := func() *strava.TokenService {
			return strava.NewTokenService(mem, "client-id", "client-secret",
				strava.WithTokenURL(srv.URL),
				strava.WithClock(func() time.Time { return now }),
			)
		}

		Convey("A credential far from expiry is returned as is", func() {
			So(mem.SaveCredential(ctx, &store.Credential{
				UserID:      "user-1",
				AccessToken: "stored-access",
				ExpiresAt:   now.Add(2 * time.Hour).Unix(),
			}), ShouldBeNil)

			tok, err := newService().AccessToken(ctx, "user-1")
			So(err, ShouldBeNil)
			So(tok, ShouldEqual, "stored-access")
			So(refreshes.Load(), ShouldEqual, 0)
		})

		Convey("A credential inside the leeway window is refreshed and persisted", func() {
			So(mem.SaveCredential(ctx, &store.Credential{
				UserID:       "user-1",
				AccessToken:  "stale-access",
				RefreshToken: "old-refresh",
				ExpiresAt:    now.Add(time.Minute).Unix(),
			}), ShouldBeNil)

			tok, err := newService().AccessToken(ctx, "user-1")
			So(err, ShouldBeNil)
			So(tok, ShouldEqual, "fresh-access")
			So(refreshes.Load(), ShouldEqual, 1)

			cred, err := mem.Credential(ctx, "user-1")
			So(err, ShouldBeNil)
			So(cred.AccessToken, ShouldEqual, "fresh-access")
			So(cred.RefreshToken, ShouldEqual, "rotated-refresh")
			So(cred.ExpiresAt, ShouldBeGreaterThan, now.Add(5*time.Hour).Unix())
		})

		Convey("A user without a credential yields ErrNoCredential", func() {
			_, err := newService().AccessToken(ctx, "ghost")
			So(errors.Is(err, strava.ErrNoCredential), ShouldBeTrue)
		})

		Convey("A rejected refresh yields ErrTokenRefresh", func() {
			bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, `{"message":"Bad Request"}`, http.StatusBadRequest)
			}))
			defer bad.Close()

			So(mem.SaveCredential(ctx, &store.Credential{
				UserID:       "user-1",
				AccessToken:  "stale-access",
				RefreshToken: "old-refresh",
				ExpiresAt:    now.Add(-time.Hour).Unix(),
			}), ShouldBeNil)

			svc := strava.NewTokenService(mem, "client-id", "client-secret",
				strava.WithTokenURL(bad.URL),
				strava.WithClock(func() time.Time { return now }),
			)
			_, err := svc.AccessToken(ctx, "user-1")
			So(errors.Is(err, strava.ErrTokenRefresh), ShouldBeTrue)
		})
	})
}
