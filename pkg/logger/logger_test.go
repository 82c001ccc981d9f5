package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When initialized with defaults", func() {
			So(Init(), ShouldBeNil)

			Convey("Then Get returns a usable logger", func() {
				So(Get(), ShouldNotBeNil)
				So(Sync(), ShouldBeNil)
			})
		})

		Convey("When initialized with an unknown format", func() {
			err := Init(WithFormat("xml"))

			Convey("Then it fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a JSON logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(Init(WithFormat("json"), WithWriter(&buf)), ShouldBeNil)

		Convey("When logging with a request id in the context", func() {
			ctx := WithRequestID(context.Background(), "req-1")
			Named("votes").Info(ctx, "vote recorded", Int64("winner", 3), Error(errors.New("boom")))

			var line map[string]any
			So(json.Unmarshal(buf.Bytes(), &line), ShouldBeNil)

			Convey("Then the line carries fields, component and request id", func() {
				So(line["msg"], ShouldEqual, "vote recorded")
				So(line["winner"], ShouldEqual, 3)
				So(line["error"], ShouldEqual, "boom")
				So(line["component"], ShouldEqual, "votes")
				So(line["request_id"], ShouldEqual, "req-1")
				So(line["source"], ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When the level is raised to warn", func() {
			So(SetLevelString("warn"), ShouldBeNil)
			Get().Info(context.Background(), "hidden")
			Get().Warn(context.Background(), "shown")

			Convey("Then only the warning is written", func() {
				out := buf.String()
				So(strings.Contains(out, "hidden"), ShouldBeFalse)
				So(out, ShouldContainSubstring, "shown")
			})
		})

		Convey("When the level string is invalid", func() {
			So(SetLevelString("loud"), ShouldNotBeNil)
		})
	})
}

func TestRequestID(t *testing.T) {
	Convey("RequestID is empty for a bare context", t, func() {
		So(RequestID(context.Background()), ShouldEqual, "")
		So(RequestID(WithRequestID(context.Background(), "abc")), ShouldEqual, "abc")
	})
}
