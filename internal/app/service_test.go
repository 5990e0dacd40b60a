package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	service "github.com/bestquark/ml-at-ml-log/internal/app"
	"github.com/bestquark/ml-at-ml-log/internal/adapters/repository"
	"github.com/bestquark/ml-at-ml-log/internal/domain/model"
	"github.com/bestquark/ml-at-ml-log/internal/domain/rotation"
	. "github.com/smartystreets/goconvey/convey"
)

// wednesday is the fixed "today" of these tests.
var wednesday = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return wednesday }

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()
		defer svc.Stop()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			So(svc.DefaultSeed(), ShouldEqual, 42)
			stats := svc.GetStats()
			So(stats["minGap"], ShouldEqual, 7)
			So(stats["meetingDay"], ShouldEqual, "Wednesday")
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(4),
			service.WithQueueSize(16),
			service.WithDedupeSize(32),
			service.WithDefaultSeed(7),
			service.WithMeetingDay(time.Friday),
		)
		defer svc.Stop()

		Convey("Then they are reflected in the stats", func() {
			stats := svc.GetStats()
			So(stats["workerCount"], ShouldEqual, 4)
			So(stats["queueSize"], ShouldEqual, 16)
			So(stats["dedupeSize"], ShouldEqual, 32)
			So(stats["meetingDay"], ShouldEqual, "Friday")
			So(svc.DefaultSeed(), ShouldEqual, 7)
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New()

		Convey("When starting the service", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			So(svc.Start(ctx), ShouldBeNil)

			Convey("Then it should be marked as started", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["queueLength"], ShouldEqual, 0)
			})

			Convey("Then starting twice is harmless", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})

			Convey("And stopping it", func() {
				svc.Stop()

				Convey("Then it should be marked as stopped", func() {
					So(svc.GetStats()["started"], ShouldEqual, false)
				})
			})
			svc.Stop()
		})
	})

	Convey("Given a service that was never started", t, func() {
		svc := service.New()
		defer svc.Stop()

		Convey("When confirmations are requested", func() {
			_, err := svc.SendConfirmations(context.Background())

			Convey("Then it reports that the pipeline is not running", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})
	})
}

func TestService_Roster(t *testing.T) {
	Convey("Given a service", t, func() {
		ctx := context.Background()
		svc := service.New()
		defer svc.Stop()

		Convey("When participants are added", func() {
			So(svc.AddParticipant(ctx, model.Participant{Name: "  Ada ", Email: "ada@example.com"}), ShouldBeNil)
			So(svc.AddParticipant(ctx, model.Participant{Name: "Bob"}), ShouldBeNil)

			Convey("Then names are trimmed and kept in order", func() {
				roster, err := svc.Roster(ctx)
				So(err, ShouldBeNil)
				So(len(roster), ShouldEqual, 2)
				So(roster[0].Name, ShouldEqual, "Ada")
			})

			Convey("Then a duplicate is refused", func() {
				err := svc.AddParticipant(ctx, model.Participant{Name: "Bob"})
				So(errors.Is(err, repository.ErrDuplicate), ShouldBeTrue)
			})

			Convey("Then a reserved name is refused", func() {
				err := svc.AddParticipant(ctx, model.Participant{Name: "EMPTY"})
				So(errors.Is(err, model.ErrInvalidParticipant), ShouldBeTrue)
			})

			Convey("Then removing an unknown name fails", func() {
				err := svc.RemoveParticipant(ctx, "Zed")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestService_Schedule(t *testing.T) {
	Convey("Given a service with a roster", t, func() {
		ctx := context.Background()
		svc := service.New(
			service.WithClock(fixedClock),
			service.WithMinGap(1),
			service.WithLookback(0),
		)
		defer svc.Stop()
		for _, n := range []string{"Ada", "Bob", "Cy"} {
			So(svc.AddParticipant(ctx, model.Participant{Name: n}), ShouldBeNil)
		}

		Convey("When the calendar is extended", func() {
			sched, err := svc.Extend(ctx, 3)
			So(err, ShouldBeNil)

			Convey("Then slots fall on the following Wednesdays", func() {
				So(len(sched), ShouldEqual, 3)
				So(sched[0].Key(), ShouldEqual, "2025-01-08")
				So(sched[2].Key(), ShouldEqual, "2025-01-22")
				So(sched.EmptyFields(), ShouldEqual, 6)
			})

			Convey("Then a non-positive count adds the default", func() {
				sched, err := svc.Extend(ctx, 0)
				So(err, ShouldBeNil)
				So(len(sched), ShouldEqual, 4)
			})

			Convey("And presenters are assigned", func() {
				res, err := svc.Assign(ctx, 3)
				So(err, ShouldBeNil)

				Convey("Then every field is proposed and saved", func() {
					So(res.Proposed, ShouldEqual, 6)
					So(res.RunID, ShouldNotBeEmpty)
					stored, v, err := svc.Schedule(ctx)
					So(err, ShouldBeNil)
					So(v, ShouldEqual, res.Version)
					So(stored.EmptyFields(), ShouldEqual, 0)
					for _, slot := range stored {
						So(slot.Presenters[0].Status, ShouldEqual, model.StatusProposed)
						So(slot.Presenters[0].Name, ShouldNotEqual, slot.Presenters[1].Name)
					}
				})

				Convey("Then the same seed gives the same schedule", func() {
					other := service.New(service.WithClock(fixedClock), service.WithMinGap(1), service.WithLookback(0))
					defer other.Stop()
					for _, n := range []string{"Ada", "Bob", "Cy"} {
						So(other.AddParticipant(ctx, model.Participant{Name: n}), ShouldBeNil)
					}
					_, err := other.Extend(ctx, 3)
					So(err, ShouldBeNil)
					again, err := other.Assign(ctx, 3)
					So(err, ShouldBeNil)
					for i := range again.Schedule {
						So(again.Schedule[i].Presenters, ShouldResemble, res.Schedule[i].Presenters)
					}
				})

				Convey("Then usage reflects the proposals", func() {
					entries, err := svc.Usage(ctx, "")
					So(err, ShouldBeNil)
					So(len(entries), ShouldEqual, 3)
					total := 0
					for _, e := range entries {
						total += e.Count
					}
					So(total, ShouldEqual, 6)

					filtered, err := svc.Usage(ctx, "ad")
					So(err, ShouldBeNil)
					So(len(filtered), ShouldEqual, 1)
					So(filtered[0].Name, ShouldEqual, "Ada")
				})

				Convey("Then a slot can be confirmed and cleared", func() {
					date := res.Schedule[0].Date
					slot, err := svc.UpdateSlot(ctx, date, 1, service.ActionConfirm)
					So(err, ShouldBeNil)
					So(slot.Presenters[0].Status, ShouldEqual, model.StatusConfirmed)

					_, err = svc.UpdateSlot(ctx, date, 1, service.ActionConfirm)
					So(errors.Is(err, model.ErrInvalidTransition), ShouldBeTrue)

					slot, err = svc.UpdateSlot(ctx, date, 2, service.ActionClear)
					So(err, ShouldBeNil)
					So(slot.Presenters[1].IsEmpty(), ShouldBeTrue)
				})

				Convey("Then bad transitions are rejected", func() {
					date := res.Schedule[0].Date
					_, err := svc.UpdateSlot(ctx, date, 3, service.ActionConfirm)
					So(errors.Is(err, service.ErrInvalidPosition), ShouldBeTrue)
					_, err = svc.UpdateSlot(ctx, date, 1, service.Action("approve"))
					So(errors.Is(err, service.ErrInvalidAction), ShouldBeTrue)
					_, err = svc.UpdateSlot(ctx, date.AddDate(0, 0, 1), 1, service.ActionCancel)
					So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				})

				Convey("Then a slot can be deleted once", func() {
					date := res.Schedule[1].Date
					So(svc.DeleteSlot(ctx, date), ShouldBeNil)
					err := svc.DeleteSlot(ctx, date)
					So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
					stored, _, err := svc.Schedule(ctx)
					So(err, ShouldBeNil)
					So(len(stored), ShouldEqual, 2)
				})
			})
		})

		Convey("When the engine is misconfigured", func() {
			bad := service.New(service.WithMinGap(0))
			defer bad.Stop()
			_, err := bad.Assign(ctx, 1)

			Convey("Then the run fails with a configuration error", func() {
				So(errors.Is(err, rotation.ErrInvalidConfiguration), ShouldBeTrue)
			})
		})

		Convey("When the roster is empty", func() {
			empty := service.New()
			defer empty.Stop()
			_, err := empty.Assign(ctx, 1)

			Convey("Then the run fails with a configuration error", func() {
				So(errors.Is(err, rotation.ErrInvalidConfiguration), ShouldBeTrue)
			})
		})
	})
}

func TestService_Records(t *testing.T) {
	Convey("Given a service", t, func() {
		ctx := context.Background()
		svc := service.New()
		defer svc.Stop()
		date := time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)

		Convey("When a material is added", func() {
			m, err := svc.AddMaterial(ctx, model.Material{Date: date, Title: "Attention", Link: "https://example.com/a.pdf"})
			So(err, ShouldBeNil)

			Convey("Then it is listed for its date", func() {
				list, err := svc.Materials(ctx, date)
				So(err, ShouldBeNil)
				So(list, ShouldResemble, []model.Material{m})
			})

			Convey("Then it can be deleted", func() {
				So(svc.DeleteMaterial(ctx, m.ID), ShouldBeNil)
				So(errors.Is(svc.DeleteMaterial(ctx, m.ID), repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When a slide deck is recorded", func() {
			So(svc.SetSlideDeck(ctx, model.SlideDeck{Date: date, PresentationID: "abc", Link: "https://example.com/s"}), ShouldBeNil)

			Convey("Then it is found by date", func() {
				deck, err := svc.SlideDeck(ctx, date)
				So(err, ShouldBeNil)
				So(deck.PresentationID, ShouldEqual, "abc")

				_, err = svc.SlideDeck(ctx, date.AddDate(0, 0, 7))
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

// racingStore saves a competing edit right after the schedule is loaded,
// once armed.
type racingStore struct {
	repository.Store
	armed bool
	won   repository.Version
}

func (s *racingStore) LoadSchedule(ctx context.Context) (model.Schedule, repository.Version, error) {
	sched, v, err := s.Store.LoadSchedule(ctx)
	if err != nil || !s.armed {
		return sched, v, err
	}
	s.armed = false
	edit := sched.Clone()
	edit[0].Presenters[0] = model.Confirmed("Zed")
	if s.won, err = s.Store.SaveSchedule(ctx, edit, v); err != nil {
		return nil, "", err
	}
	return sched, v, nil
}

func TestService_AssignStoreFailures(t *testing.T) {
	Convey("Given a service over a store another writer also edits", t, func() {
		ctx := context.Background()
		store := &racingStore{Store: repository.NewMemoryStore()}
		svc := service.New(
			service.WithStore(store),
			service.WithClock(fixedClock),
			service.WithMinGap(1),
		)
		defer svc.Stop()
		for _, n := range []string{"Ada", "Bob", "Cy"} {
			So(svc.AddParticipant(ctx, model.Participant{Name: n}), ShouldBeNil)
		}
		_, err := svc.Extend(ctx, 2)
		So(err, ShouldBeNil)

		Convey("When the other writer saves between load and save", func() {
			store.armed = true
			res, err := svc.Assign(ctx, 5)

			Convey("Then the run fails with a version conflict", func() {
				So(errors.Is(err, repository.ErrVersionConflict), ShouldBeTrue)
				So(res.Proposed, ShouldEqual, 0)
			})

			Convey("Then only the other writer's edit is stored", func() {
				stored, v, err := svc.Schedule(ctx)
				So(err, ShouldBeNil)
				So(v, ShouldEqual, store.won)
				So(stored[0].Presenters[0].String(), ShouldEqual, "Zed")
				So(stored.EmptyFields(), ShouldEqual, 3)
			})
		})
	})

	Convey("Given a service whose store has been closed", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		svc := service.New(service.WithStore(store), service.WithClock(fixedClock))
		defer svc.Stop()
		So(svc.AddParticipant(ctx, model.Participant{Name: "Ada"}), ShouldBeNil)
		So(store.Close(), ShouldBeNil)

		Convey("When presenters are assigned", func() {
			_, err := svc.Assign(ctx, 1)

			Convey("Then the store failure surfaces unchanged", func() {
				So(errors.Is(err, repository.ErrStoreUnavailable), ShouldBeTrue)
				So(errors.Is(err, rotation.ErrInvalidConfiguration), ShouldBeFalse)
			})
		})
	})
}
