package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "rotactl.yaml")
	content := "store_driver: sqlite\n" +
		"sqlite_path: " + filepath.Join(dir, "rotation.db") + "\n" +
		"min_gap: 1\n" +
		"log_level: error\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExecute(t *testing.T) {
	convey.Convey("Given a SQLite-backed configuration", t, func() {
		ctx := context.Background()
		cfg := writeConfig(t)
		run := func(args ...string) (string, error) {
			var out bytes.Buffer
			err := Execute(ctx, append([]string{"rotactl", "--config", cfg}, args...), &out)
			return out.String(), err
		}

		for _, name := range []string{"Ada", "Bob", "Cy"} {
			_, err := run("participant", "add", "--email", strings.ToLower(name)+"@example.com", name)
			convey.So(err, convey.ShouldBeNil)
		}

		convey.Convey("When the roster is printed", func() {
			out, err := run("roster")
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then every participant is listed", func() {
				convey.So(out, convey.ShouldContainSubstring, "ada@example.com")
				convey.So(out, convey.ShouldContainSubstring, "Cy")
			})
		})

		convey.Convey("When weeks are added and assigned", func() {
			out, err := run("extend", "--weeks", "2")
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "schedule has 2 slots")

			out, err = run("assign", "--seed", "9")
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then proposals are printed and persisted", func() {
				convey.So(out, convey.ShouldContainSubstring, "proposed 4 (relaxed 0) with seed 9")
				sched, err := run("schedule")
				convey.So(err, convey.ShouldBeNil)
				convey.So(strings.Count(sched, "[P] "), convey.ShouldEqual, 4)
			})

			convey.Convey("Then usage reflects them", func() {
				usage, err := run("usage")
				convey.So(err, convey.ShouldBeNil)
				convey.So(usage, convey.ShouldContainSubstring, "BAND")
				convey.So(usage, convey.ShouldContainSubstring, "Bob")
			})
		})

		convey.Convey("When a participant is removed twice", func() {
			_, err := run("participant", "remove", "Cy")
			convey.So(err, convey.ShouldBeNil)
			_, err = run("participant", "remove", "Cy")

			convey.Convey("Then the second call fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}
