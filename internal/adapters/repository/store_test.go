package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	model "github.com/bestquark/ml-at-ml-log/internal/domain/model"
	repository "github.com/bestquark/ml-at-ml-log/internal/adapters/repository"
	. "github.com/smartystreets/goconvey/convey"
)

func mustSlot(date, a, b string) model.Slot {
	s, err := model.ParseSlot(date, a, b)
	if err != nil {
		panic(err)
	}
	return s
}

func day(s string) time.Time {
	d, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// storeContract exercises the behaviour every Store implementation shares.
func storeContract(newStore func() repository.Store) {
	ctx := context.Background()

	Convey("When the roster is edited", func() {
		s := newStore()
		defer s.Close()

		So(s.AddParticipant(ctx, model.Participant{Name: "Ada", Email: "ada@example.com"}), ShouldBeNil)
		So(s.AddParticipant(ctx, model.Participant{Name: "Bob"}), ShouldBeNil)

		Convey("Then it is returned in insertion order", func() {
			roster, err := s.LoadRoster(ctx)
			So(err, ShouldBeNil)
			So(roster, ShouldResemble, []model.Participant{
				{Name: "Ada", Email: "ada@example.com"},
				{Name: "Bob"},
			})
		})

		Convey("Then duplicates are rejected", func() {
			err := s.AddParticipant(ctx, model.Participant{Name: "Ada"})
			So(errors.Is(err, repository.ErrDuplicate), ShouldBeTrue)
		})

		Convey("Then removal works once", func() {
			So(s.RemoveParticipant(ctx, "Ada"), ShouldBeNil)
			err := s.RemoveParticipant(ctx, "Ada")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			roster, err := s.LoadRoster(ctx)
			So(err, ShouldBeNil)
			So(len(roster), ShouldEqual, 1)
		})

		Convey("Then the whole roster can be replaced", func() {
			So(s.SaveRoster(ctx, []model.Participant{{Name: "Cy"}}), ShouldBeNil)
			roster, err := s.LoadRoster(ctx)
			So(err, ShouldBeNil)
			So(roster, ShouldResemble, []model.Participant{{Name: "Cy"}})

			err = s.SaveRoster(ctx, []model.Participant{{Name: "Cy"}, {Name: "Cy"}})
			So(errors.Is(err, repository.ErrDuplicate), ShouldBeTrue)
		})
	})

	Convey("When the schedule is saved and loaded", func() {
		s := newStore()
		defer s.Close()

		empty, v0, err := s.LoadSchedule(ctx)
		So(err, ShouldBeNil)
		So(empty, ShouldBeEmpty)
		So(v0, ShouldNotBeEmpty)

		in := model.Schedule{
			mustSlot("2025-01-01", "Ada", "[R]  Bob"),
			mustSlot("2025-01-08", "[P] Cy", "EMPTY"),
		}
		v1, err := s.SaveSchedule(ctx, in, v0)
		So(err, ShouldBeNil)
		So(v1, ShouldNotEqual, v0)

		Convey("Then field text round-trips exactly", func() {
			out, v, err := s.LoadSchedule(ctx)
			So(err, ShouldBeNil)
			So(v, ShouldEqual, v1)
			So(len(out), ShouldEqual, 2)
			So(out[0].Presenters[1].String(), ShouldEqual, "[R]  Bob")
			So(out[1].Presenters[0].Status, ShouldEqual, model.StatusProposed)
			So(out[1].Presenters[1].IsEmpty(), ShouldBeTrue)
		})

		Convey("Then a save with a stale version conflicts", func() {
			_, err := s.SaveSchedule(ctx, in, v0)
			So(errors.Is(err, repository.ErrVersionConflict), ShouldBeTrue)
		})

		Convey("Then an out-of-order schedule is refused", func() {
			_, err := s.SaveSchedule(ctx, model.Schedule{in[1], in[0]}, v1)
			So(errors.Is(err, model.ErrMalformedSlot), ShouldBeTrue)
		})
	})

	Convey("When materials are managed", func() {
		s := newStore()
		defer s.Close()

		a, err := s.AddMaterial(ctx, model.Material{Date: day("2025-01-08"), Title: "Paper", Link: "https://example.com/p.pdf"})
		So(err, ShouldBeNil)
		So(a.ID, ShouldNotBeEmpty)
		_, err = s.AddMaterial(ctx, model.Material{Date: day("2025-01-15"), Title: "Other"})
		So(err, ShouldBeNil)

		Convey("Then they are listed per date", func() {
			list, err := s.ListMaterials(ctx, day("2025-01-08"))
			So(err, ShouldBeNil)
			So(len(list), ShouldEqual, 1)
			So(list[0], ShouldResemble, a)
		})

		Convey("Then they can be deleted once", func() {
			So(s.DeleteMaterial(ctx, a.ID), ShouldBeNil)
			So(errors.Is(s.DeleteMaterial(ctx, a.ID), repository.ErrNotFound), ShouldBeTrue)
		})
	})

	Convey("When slide decks are recorded", func() {
		s := newStore()
		defer s.Close()

		_, err := s.FindSlideDeck(ctx, day("2025-01-08"))
		So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)

		So(s.SetSlideDeck(ctx, model.SlideDeck{Date: day("2025-01-08"), PresentationID: "p1", Link: "l1"}), ShouldBeNil)
		So(s.SetSlideDeck(ctx, model.SlideDeck{Date: day("2025-01-08"), PresentationID: "p2", Link: "l2"}), ShouldBeNil)

		Convey("Then the latest deck wins", func() {
			deck, err := s.FindSlideDeck(ctx, day("2025-01-08"))
			So(err, ShouldBeNil)
			So(deck.PresentationID, ShouldEqual, "p2")
			So(deck.Link, ShouldEqual, "l2")
		})
	})
}

func TestMemoryStore(t *testing.T) {
	Convey("Given a memory store", t, func() {
		storeContract(func() repository.Store { return repository.NewMemoryStore() })

		Convey("When it is closed", func() {
			s := repository.NewMemoryStore()
			So(s.Close(), ShouldBeNil)
			_, _, err := s.LoadSchedule(context.Background())
			So(errors.Is(err, repository.ErrStoreUnavailable), ShouldBeTrue)
		})
	})
}

func TestSQLiteStore(t *testing.T) {
	Convey("Given a SQLite store", t, func() {
		dir := t.TempDir()
		n := 0
		storeContract(func() repository.Store {
			n++
			path := filepath.Join(dir, "store"+string(rune('a'+n))+".db")
			s, err := repository.OpenSQLite(context.Background(), path)
			if err != nil {
				panic(err)
			}
			return s
		})

		Convey("When it is reopened", func() {
			ctx := context.Background()
			path := filepath.Join(dir, "reopen.db")
			s, err := repository.OpenSQLite(ctx, path)
			So(err, ShouldBeNil)
			_, v0, err := s.LoadSchedule(ctx)
			So(err, ShouldBeNil)
			v1, err := s.SaveSchedule(ctx, model.Schedule{mustSlot("2025-01-01", "Ada", "Bob")}, v0)
			So(err, ShouldBeNil)
			So(s.Close(), ShouldBeNil)

			again, err := repository.OpenSQLite(ctx, path)
			So(err, ShouldBeNil)
			defer again.Close()

			Convey("Then the data and version persist", func() {
				out, v, err := again.LoadSchedule(ctx)
				So(err, ShouldBeNil)
				So(v, ShouldEqual, v1)
				So(out[0].Presenters[0].String(), ShouldEqual, "Ada")
			})
		})
	})
}
