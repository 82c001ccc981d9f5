package seed

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoadEmbedded(t *testing.T) {
	Convey("Given no seed file", t, func() {
		parks, err := Load("")

		Convey("Then the embedded park list is used", func() {
			So(err, ShouldBeNil)
			So(len(parks), ShouldBeGreaterThanOrEqualTo, 20)
			So(parks[0].Name, ShouldEqual, "Yellowstone")
			So(parks[0].ImageURL, ShouldEqual, "/images/parks/yellowstone.jpg")
			So(parks[0].Established, ShouldNotBeNil)
			So(*parks[0].Established, ShouldEqual, "1872")
		})
	})
}

func TestLoadFile(t *testing.T) {
	Convey("Given a seed file on disk", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "parks.toml")
		doc := "[[parks]]\nname = \"Arches\"\nstate = \"Utah\"\n\n[[parks]]\nname = \" Zion \"\nstate = \"Utah\"\n"
		So(os.WriteFile(path, []byte(doc), 0o600), ShouldBeNil)

		Convey("When it is loaded", func() {
			parks, err := Load(path)

			Convey("Then names are trimmed and optional fields stay empty", func() {
				So(err, ShouldBeNil)
				So(parks, ShouldHaveLength, 2)
				So(parks[1].Name, ShouldEqual, "Zion")
				So(parks[0].Established, ShouldBeNil)
			})
		})

		Convey("When the path does not exist", func() {
			_, err := Load(filepath.Join(dir, "missing.toml"))
			So(err, ShouldNotBeNil)
		})
	})
}

func TestParseRejects(t *testing.T) {
	Convey("Parse rejects bad documents", t, func() {
		_, err := Parse([]byte("title = \"none\"\n"))
		So(err, ShouldEqual, ErrNoParks)

		_, err = Parse([]byte("[[parks]]\nstate = \"Utah\"\n"))
		So(errors.Is(err, ErrMissingName), ShouldBeTrue)

		_, err = Parse([]byte("[[parks]]\nname = \"Zion\"\n[[parks]]\nname = \"zion\"\n"))
		So(errors.Is(err, ErrDuplicateName), ShouldBeTrue)

		_, err = Parse([]byte("[[parks]\n"))
		So(err, ShouldNotBeNil)
	})
}
