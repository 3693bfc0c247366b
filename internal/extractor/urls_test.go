package extractor

import (
	"net/url"
	"reflect"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u
}

func TestFileURLs(t *testing.T) {
	t.Parallel()

	base := mustParseURL(t, "http://example.com/albums/7/")

	t.Run("resolves relative references against the page", func(t *testing.T) {
		t.Parallel()

		doc := parseDoc(t, `<body>
			<a class="dl" href="one.jpg">1</a>
			<a class="dl" href="/two.jpg">2</a>
			<a class="dl" href="http://cdn.example.net/three.jpg">3</a>
		</body>`)
		e := &Extractor{FileSelector: "a.dl"}

		got := e.FileURLs(base, doc)
		want := []string{
			"http://example.com/albums/7/one.jpg",
			"http://example.com/two.jpg",
			"http://cdn.example.net/three.jpg",
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("FileURLs() = %v, want %v", got, want)
		}
	})

	t.Run("all present attributes contribute", func(t *testing.T) {
		t.Parallel()

		doc := parseDoc(t, `<body>
			<a class="dl" href="full.jpg"><img src="thumb.jpg" data-src="lazy.jpg"></a>
		</body>`)
		e := &Extractor{FileSelector: "a.dl, a.dl img"}

		got := e.FileURLs(base, doc)
		want := []string{
			"http://example.com/albums/7/full.jpg",
			"http://example.com/albums/7/thumb.jpg",
			"http://example.com/albums/7/lazy.jpg",
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("FileURLs() = %v, want %v", got, want)
		}
	})

	t.Run("discards data uris and empty values", func(t *testing.T) {
		t.Parallel()

		doc := parseDoc(t, `<body>
			<img class="ph" src="data:image/gif;base64,R0lGOD" data-src="real.jpg">
			<img class="ph" src="">
		</body>`)
		e := &Extractor{FileSelector: "img.ph"}

		got := e.FileURLs(base, doc)
		want := []string{"http://example.com/albums/7/real.jpg"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("FileURLs() = %v, want %v", got, want)
		}
	})

	t.Run("modifier can drop rewrite and fan out", func(t *testing.T) {
		t.Parallel()

		doc := parseDoc(t, `<body>
			<img class="ph" src="skip.jpg">
			<img class="ph" src="thumb_small.jpg">
		</body>`)
		e := &Extractor{
			FileSelector: "img.ph",
			FileURLModifier: func(fileURL, pageURL string) []string {
				if strings.Contains(fileURL, "skip") {
					return nil
				}
				full := strings.Replace(fileURL, "_small", "", 1)
				return []string{fileURL, full}
			},
		}

		got := e.FileURLs(base, doc)
		want := []string{
			"http://example.com/albums/7/thumb_small.jpg",
			"http://example.com/albums/7/thumb.jpg",
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("FileURLs() = %v, want %v", got, want)
		}
	})

	t.Run("additional urls come last and skip the modifier", func(t *testing.T) {
		t.Parallel()

		doc := parseDoc(t, `<body><img class="ph" src="a.jpg"></body>`)
		e := &Extractor{
			FileSelector: "img.ph",
			FileURLModifier: func(fileURL, pageURL string) []string {
				return []string{fileURL + "?mod=1"}
			},
			Additional: AdditionalExtractor{
				File: func(pageURL string, _ *goquery.Document) []string {
					return []string{"extra.jpg", "data:image/png;base64,AAA"}
				},
			},
		}

		got := e.FileURLs(base, doc)
		want := []string{
			"http://example.com/albums/7/a.jpg?mod=1",
			"http://example.com/albums/7/extra.jpg",
			"data:image/png;base64,AAA",
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("FileURLs() = %v, want %v", got, want)
		}
	})

	t.Run("no selector yields nothing", func(t *testing.T) {
		t.Parallel()

		doc := parseDoc(t, `<body><img src="a.jpg"></body>`)
		e := &Extractor{}

		if got := e.FileURLs(base, doc); len(got) != 0 {
			t.Errorf("FileURLs() = %v, want empty", got)
		}
	})
}

func TestPageURLs(t *testing.T) {
	t.Parallel()

	base := mustParseURL(t, "http://example.com/list?page=2")

	t.Run("reads href only", func(t *testing.T) {
		t.Parallel()

		doc := parseDoc(t, `<body>
			<a class="next" href="/list?page=3">next</a>
			<img class="next" src="ignored.jpg">
			<a class="next" href="#top">top</a>
		</body>`)
		e := &Extractor{PageSelector: ".next"}

		got := e.PageURLs(base, doc)
		want := []string{
			"http://example.com/list?page=3",
			"http://example.com/list?page=2#top",
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("PageURLs() = %v, want %v", got, want)
		}
	})

	t.Run("additional pages are resolved and appended", func(t *testing.T) {
		t.Parallel()

		doc := parseDoc(t, `<body><a class="next" href="/a">a</a></body>`)
		e := &Extractor{
			PageSelector: "a.next",
			Additional: AdditionalExtractor{
				Page: func(pageURL string, _ *goquery.Document) []string {
					return []string{"/feed", "http://other.net/b"}
				},
			},
		}

		got := e.PageURLs(base, doc)
		want := []string{
			"http://example.com/a",
			"http://example.com/feed",
			"http://other.net/b",
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("PageURLs() = %v, want %v", got, want)
		}
	})

	t.Run("unparseable references are dropped", func(t *testing.T) {
		t.Parallel()

		doc := parseDoc(t, `<body>
			<a class="next" href="%zz">broken</a>
			<a class="next" href="/ok">ok</a>
		</body>`)
		e := &Extractor{PageSelector: "a.next"}

		got := e.PageURLs(base, doc)
		want := []string{"http://example.com/ok"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("PageURLs() = %v, want %v", got, want)
		}
	})
}
