package linkify

import (
	"strings"
	"testing"
)

func TestLinkify_Empty(t *testing.T) {
	if got := Linkify(""); got != "" {
		t.Errorf("Linkify(\"\") = %q, want empty", got)
	}
}

func TestLinkify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "url with balanced parentheses",
			in:   "check http://example.com/x(y) now",
			want: `check <a href="http://example.com/x(y)" target="_blank">http://example.com/x(y)</a> now`,
		},
		{
			name: "hashtag with digits",
			in:   "love #drupal8 today",
			want: `love <a href="https://twitter.com/hashtag/drupal8" target="_blank">#drupal8</a> today`,
		},
		{
			name: "numeric hashtag stays plain",
			in:   "#123",
			want: "#123",
		},
		{
			name: "mention with underscore",
			in:   "cc @jane_doe please",
			want: `cc <a href="https://twitter.com/jane_doe" target="_blank">@jane_doe</a> please`,
		},
		{
			name: "plain text",
			in:   "nothing to see here",
			want: "nothing to see here",
		},
		{
			name: "hashtag and mention",
			in:   "#go @gopher",
			want: ` <a href="https://twitter.com/hashtag/go" target="_blank">#go</a> <a href="https://twitter.com/gopher" target="_blank">@gopher</a>`,
		},
		{
			name: "fragment inside url is not a hashtag",
			in:   "read http://example.com/#section now",
			want: `read <a href="http://example.com/#section" target="_blank">http://example.com/#section</a> now`,
		},
		{
			name: "at sign inside url is not a mention",
			in:   "see https://example.com/@gopher",
			want: `see <a href="https://example.com/@gopher" target="_blank">https://example.com/@gopher</a>`,
		},
		{
			name: "all three",
			in:   "new post https://blog.example.org/a by @ann #golang",
			want: `new post <a href="https://blog.example.org/a" target="_blank">https://blog.example.org/a</a> by` +
				` <a href="https://twitter.com/ann" target="_blank">@ann</a>` +
				` <a href="https://twitter.com/hashtag/golang" target="_blank">#golang</a>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Linkify(tt.in); got != tt.want {
				t.Errorf("Linkify(%q)\n got: %s\nwant: %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestLinks_TrailingPunctuation(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"see http://example.com.", `see <a href="http://example.com" target="_blank">http://example.com</a>.`},
		{"(http://example.com/a)", `(<a href="http://example.com/a" target="_blank">http://example.com/a</a>)`},
		{`"http://example.com/a"`, `"<a href="http://example.com/a" target="_blank">http://example.com/a</a>"`},
		{"«http://example.com/a»", `«<a href="http://example.com/a" target="_blank">http://example.com/a</a>»`},
		{"“http://example.com/a”", `“<a href="http://example.com/a" target="_blank">http://example.com/a</a>”`},
		{"is it http://example.com/faq?", `is it <a href="http://example.com/faq" target="_blank">http://example.com/faq</a>?`},
	}

	for _, tt := range tests {
		if got := Links(tt.in); got != tt.want {
			t.Errorf("Links(%q)\n got: %s\nwant: %s", tt.in, got, tt.want)
		}
	}
}

func TestLinks_WWWAndBareDomain(t *testing.T) {
	got := Links("http://a.example.com/ and www.example.com and example.org/path")

	for _, want := range []string{
		`<a href="http://a.example.com/" target="_blank">http://a.example.com/</a>`,
		`<a href="www.example.com" target="_blank">www.example.com</a>`,
		`<a href="example.org/path" target="_blank">example.org/path</a>`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Links() = %s\nmissing %s", got, want)
		}
	}
}

func TestLinks_CaseInsensitive(t *testing.T) {
	got := Links("go to http://Example.COM/Path now")
	want := `go to <a href="http://Example.COM/Path" target="_blank">http://Example.COM/Path</a> now`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestLinks_NoHTTPSubstring(t *testing.T) {
	text := "www.example.com without a scheme anywhere"
	if got := Links(text); got != text {
		t.Errorf("got %q, want unchanged", got)
	}
}

func TestHashtags_StartOfText(t *testing.T) {
	got := Hashtags("#golang rocks")
	want := ` <a href="https://twitter.com/hashtag/golang" target="_blank">#golang</a> rocks`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestHashtags_Umlauts(t *testing.T) {
	got := Hashtags("gute #Grüße heute")
	want := `gute <a href="https://twitter.com/hashtag/Grüße" target="_blank">#Grüße</a> heute`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestHashtags_NotAfterWordCharacter(t *testing.T) {
	text := "issue#42 and a#b"
	if got := Hashtags(text); got != text {
		t.Errorf("got %q, want unchanged", got)
	}
}

func TestHashtags_PunctuationOnly(t *testing.T) {
	text := "# and #! and #___"
	if got := Hashtags(text); got != text {
		t.Errorf("got %q, want unchanged", got)
	}
}

func TestHashtags_Consecutive(t *testing.T) {
	got := Hashtags("#a #b")
	want := ` <a href="https://twitter.com/hashtag/a" target="_blank">#a</a>` +
		` <a href="https://twitter.com/hashtag/b" target="_blank">#b</a>`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestHashtags_NewlineBecomesSpace(t *testing.T) {
	got := Hashtags("line\n#tag")
	want := `line <a href="https://twitter.com/hashtag/tag" target="_blank">#tag</a>`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMentions_Email(t *testing.T) {
	text := "mail me@example.com"
	if got := Mentions(text); got != text {
		t.Errorf("got %q, want unchanged", got)
	}
}

func TestMentions_DigitsOnly(t *testing.T) {
	text := "call @1234"
	if got := Mentions(text); got != text {
		t.Errorf("got %q, want unchanged", got)
	}
}

func TestMentions_DigitsWithLetter(t *testing.T) {
	got := Mentions("@42bot hi")
	want := ` <a href="https://twitter.com/42bot" target="_blank">@42bot</a> hi`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestNew_CustomBaseURL(t *testing.T) {
	l := New("https://x.example/")

	got := l.Linkify("#tag @user")
	want := ` <a href="https://x.example/hashtag/tag" target="_blank">#tag</a>` +
		` <a href="https://x.example/user" target="_blank">@user</a>`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestNew_EmptyBaseURL(t *testing.T) {
	if got, want := New("").Mentions("@a"), Mentions("@a"); got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func BenchmarkLinkify(b *testing.B) {
	text := "Release notes https://example.com/notes(v2) by @maintainer #golang #release today"
	for b.Loop() {
		_ = Linkify(text)
	}
}

func TestLinkifier_ProfileURL(t *testing.T) {
	if got := New("").ProfileURL("jane_doe"); got != "https://twitter.com/jane_doe" {
		t.Errorf("got %q", got)
	}
}

func TestLinks_QuotesStayInsideHref(t *testing.T) {
	in := "see http://a.co/x\"onmouseover=\"alert`1`\"y ok"
	want := `see <a href="http://a.co/x&quot;onmouseover=&quot;alert` + "`1`" + `&quot;y" target="_blank">` +
		`http://a.co/x&quot;onmouseover=&quot;alert` + "`1`" + `&quot;y</a> ok`

	if got := Linkify(in); got != want {
		t.Errorf("Linkify(%q) = %q, want %q", in, got, want)
	}
}

func TestLinks_SingleQuoteEscaped(t *testing.T) {
	in := "http://a.co/it's"
	want := `<a href="http://a.co/it&#39;s" target="_blank">http://a.co/it&#39;s</a>`

	if got := Links(in); got != want {
		t.Errorf("Links(%q) = %q, want %q", in, got, want)
	}
}

func TestLinks_EncodedAngleBrackets(t *testing.T) {
	// The trailing ';' of "&gt;" is excluded punctuation, so "&gt" stays in the URL.
	in := "&lt;http://x.com&gt;"
	want := `&lt;<a href="http://x.com&gt" target="_blank">http://x.com&gt</a>;`

	if got := Links(in); got != want {
		t.Errorf("Links(%q) = %q, want %q", in, got, want)
	}
}
