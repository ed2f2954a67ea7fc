package filekind

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestClassify(t *testing.T) {
	Convey("Attachment classification", t, func() {
		cases := []struct {
			contentType string
			name        string
			want        Kind
		}{
			{"text/plain", "notes.txt", Text},
			{"text/markdown", "readme.md", Text},
			{"TEXT/HTML", "page.html", Text},
			{"application/json", "data.json", Text},
			{"application/octet-stream", "script.py", Text},
			{"", "main.cpp", Text},
			{"", "style.CSS", Text},
			{"image/png", "pic.png", Binary},
			{"application/pdf", "doc.pdf", Binary},
			{"application/zip", "bundle.zip", Binary},
			{"", "program.exe", Binary},
			{"", "noextension", Binary},
		}

		for _, tc := range cases {
			So(Classify(tc.contentType, tc.name), ShouldEqual, tc.want)
		}
	})

	Convey("Kind strings", t, func() {
		So(Text.String(), ShouldEqual, "text")
		So(Binary.String(), ShouldEqual, "binary")
		So(Missing.String(), ShouldEqual, "missing")
	})
}
