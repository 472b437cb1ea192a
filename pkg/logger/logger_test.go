package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		So(Init(), ShouldBeNil)
		defer func() { So(Sync(), ShouldBeNil) }()

		Convey("Then Get and Named should return usable loggers", func() {
			So(Get(), ShouldNotBeNil)
			named := Named("test")
			So(named, ShouldNotBeNil)
			So(func() { named.Info(context.Background(), "test message", String("k", "v")) }, ShouldNotPanic)
		})
	})
}

func TestLoggerNew(t *testing.T) {
	Convey("Given a standalone JSON logger", t, func() {
		var buf bytes.Buffer
		level := &slog.LevelVar{}
		level.Set(slog.LevelWarn)
		log := New(&buf, WithFormat(FormatJSON), WithLevel(level), WithCaller(false))

		Convey("When logging below the level", func() {
			log.Info(context.Background(), "hidden")

			Convey("Then nothing is written", func() {
				So(buf.Len(), ShouldEqual, 0)
			})
		})

		Convey("When logging a warning with fields", func() {
			log.Warn(context.Background(), "record rejected", String("record_id", "t-1"), Int("count", 2), Bool("ok", false))

			Convey("Then the record carries the fields", func() {
				var rec map[string]any
				So(json.Unmarshal(buf.Bytes(), &rec), ShouldBeNil)
				So(rec["msg"], ShouldEqual, "record rejected")
				So(rec["record_id"], ShouldEqual, "t-1")
				So(rec["count"], ShouldEqual, float64(2))
				So(rec["ok"], ShouldEqual, false)
				_, hasSource := rec["source"]
				So(hasSource, ShouldBeFalse)
			})
		})

		Convey("When using a named logger", func() {
			log.Named("queue").Error(context.Background(), "boom", String("k", "v"))

			Convey("Then fields are grouped under the name", func() {
				So(buf.String(), ShouldContainSubstring, `"queue":{"k":"v"}`)
			})
		})
	})

	Convey("Given a Nop logger", t, func() {
		So(func() { Nop().Error(context.Background(), "ignored") }, ShouldNotPanic)
	})
}

func TestParseLevel(t *testing.T) {
	Convey("Given level names", t, func() {
		for name, want := range map[string]slog.Level{
			"debug":   slog.LevelDebug,
			"":        slog.LevelInfo,
			" INFO ":  slog.LevelInfo,
			"warning": slog.LevelWarn,
			"error":   slog.LevelError,
		} {
			got, err := ParseLevel(name)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, want)
		}

		_, err := ParseLevel("loud")
		So(err, ShouldNotBeNil)
		So(strings.Contains(err.Error(), "loud"), ShouldBeTrue)
		So(SetLevelString("loud"), ShouldNotBeNil)
	})
}
