package calendar_test

import (
	"testing"
	"time"

	calendar "github.com/bestquark/ml-at-ml-log/internal/domain/calendar"
	model "github.com/bestquark/ml-at-ml-log/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func date(s string) time.Time {
	d, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestNextWeekday(t *testing.T) {
	Convey("Given a reference date", t, func() {
		Convey("When the date is a Monday", func() {
			So(calendar.NextWeekday(date("2025-01-06"), time.Wednesday), ShouldEqual, date("2025-01-08"))
		})

		Convey("When the date already is the meeting day", func() {
			So(calendar.NextWeekday(date("2025-01-08"), time.Wednesday), ShouldEqual, date("2025-01-15"))
		})

		Convey("When the date has a time of day", func() {
			at := time.Date(2025, 1, 10, 18, 30, 0, 0, time.UTC)
			So(calendar.NextWeekday(at, time.Wednesday), ShouldEqual, date("2025-01-15"))
		})
	})
}

func TestExtend(t *testing.T) {
	Convey("Given a schedule ending on a Wednesday", t, func() {
		s := model.Schedule{model.NewSlot(date("2025-01-01"))}

		Convey("When extending by three weeks", func() {
			out := calendar.Extend(s, 3, time.Wednesday, date("2030-01-01"))

			Convey("Then empty weekly slots follow the last one", func() {
				So(len(out), ShouldEqual, 4)
				So(out[1].Key(), ShouldEqual, "2025-01-08")
				So(out[3].Key(), ShouldEqual, "2025-01-22")
				So(out[3].EmptyFields(), ShouldEqual, 2)
				So(out.Validate(), ShouldBeNil)
				So(len(s), ShouldEqual, 1)
			})
		})
	})

	Convey("Given an empty schedule", t, func() {
		out := calendar.Extend(nil, 1, time.Wednesday, date("2025-01-06"))
		So(len(out), ShouldEqual, 1)
		So(out[0].Key(), ShouldEqual, "2025-01-08")
	})

	Convey("Given zero weeks", t, func() {
		So(calendar.Extend(nil, 0, time.Wednesday, date("2025-01-06")), ShouldBeEmpty)
	})
}

func TestParseWeekday(t *testing.T) {
	Convey("Given weekday names", t, func() {
		d, err := calendar.ParseWeekday("Wednesday")
		So(err, ShouldBeNil)
		So(d, ShouldEqual, time.Wednesday)

		d, err = calendar.ParseWeekday("fri")
		So(err, ShouldBeNil)
		So(d, ShouldEqual, time.Friday)

		_, err = calendar.ParseWeekday("someday")
		So(err, ShouldNotBeNil)
	})
}
