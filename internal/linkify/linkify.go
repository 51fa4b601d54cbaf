// Package linkify turns plain post text into HTML by wrapping URLs, hashtags
// and mentions in anchor tags.
//
// The three passes run in a fixed order: links, then hashtags, then mentions.
// Hashtags and mentions only match after whitespace or at the start of the
// text, so a '#' or '@' that ended up inside an anchor emitted by an earlier
// pass (always preceded by '/', '>' or '"') is left alone.
//
// The upstream API entity-encodes '&', '<' and '>' in post text but leaves
// quotes alone. Links escapes quotes inside the URLs it wraps so a match cannot
// leave the href attribute; the rest of the text is passed through unchanged.
package linkify

import (
	"net/url"
	"regexp"
	"strings"
)

// DefaultBaseURL is the site hashtag and profile links point to.
const DefaultBaseURL = "https://twitter.com"

// urlPattern recognises http(s) URLs, www-prefixed hosts and bare domains
// followed by a slash. Balanced parentheses are allowed inside the URL and
// trailing punctuation (including guillemets and smart quotes) is not captured.
var urlPattern = regexp.MustCompile(`(?i)\b(?:https?://|www\d{0,3}[.]|[a-z0-9.\-]+[.][a-z]{2,4}/)` +
	`(?:[^\s()<>]+|\((?:[^\s()<>]+|\([^\s()<>]+\))*\))+` +
	`(?:\((?:[^\s()<>]+|\([^\s()<>]+\))*\)|[^\s` + "`" + `!()\[\]{};:'".,<>?«»“”‘’])`)

// hashtagPattern requires at least one letter so "#123" stays plain text.
var hashtagPattern = regexp.MustCompile(`(^|\s)#([\wüöäßÜÄÖ]*[a-zA-ZüöäßÜÄÖ][\wüöäßÜÄÖ]*)`)

// mentionPattern requires at least one ASCII letter in the screen name.
var mentionPattern = regexp.MustCompile(`(^|\s)@(\w*[a-zA-Z]\w*)`)

// Linkifier renders hashtag and mention anchors against a configurable site.
// It holds no mutable state and is safe for concurrent use.
type Linkifier struct {
	baseURL         string
	hashtagTemplate string
	mentionTemplate string
}

// New creates a Linkifier whose hashtag and mention anchors point at baseURL.
// An empty baseURL selects DefaultBaseURL.
func New(baseURL string) *Linkifier {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	base := strings.ReplaceAll(baseURL, "$", "$$")

	return &Linkifier{
		baseURL:         baseURL,
		hashtagTemplate: ` <a href="` + base + `/hashtag/${2}" target="_blank">#${2}</a>`,
		mentionTemplate: ` <a href="` + base + `/${2}" target="_blank">@${2}</a>`,
	}
}

// Linkify applies Links, Hashtags and Mentions in that order.
func (l *Linkifier) Linkify(text string) string {
	text = Links(text)
	text = l.Hashtags(text)
	return l.Mentions(text)
}

// Hashtags wraps every hashtag that follows whitespace (or starts the text)
// in an anchor. The preceding whitespace character is replaced by one space.
func (l *Linkifier) Hashtags(text string) string {
	if !strings.Contains(text, "#") {
		return text
	}
	return hashtagPattern.ReplaceAllString(text, l.hashtagTemplate)
}

// Mentions wraps every @mention that follows whitespace (or starts the text)
// in a profile anchor. The preceding whitespace character is replaced by one space.
func (l *Linkifier) Mentions(text string) string {
	if !strings.Contains(text, "@") {
		return text
	}
	return mentionPattern.ReplaceAllString(text, l.mentionTemplate)
}

// ProfileURL returns the profile page of username on the configured site.
func (l *Linkifier) ProfileURL(username string) string {
	return l.baseURL + "/" + url.PathEscape(username)
}

// Links wraps URLs in anchors that open in a new window. Text without the
// substring "http" is returned unchanged.
func Links(text string) string {
	if !strings.Contains(text, "http") {
		return text
	}
	return urlPattern.ReplaceAllStringFunc(text, func(match string) string {
		u := quoteEscaper.Replace(match)
		return `<a href="` + u + `" target="_blank">` + u + `</a>`
	})
}

// quoteEscaper covers what the upstream encoding leaves out.
var quoteEscaper = strings.NewReplacer(`"`, "&quot;", `'`, "&#39;")

var defaultLinkifier = New(DefaultBaseURL)

// Linkify runs the full pipeline with anchors pointing at DefaultBaseURL.
func Linkify(text string) string {
	return defaultLinkifier.Linkify(text)
}

// Hashtags is Linkifier.Hashtags with DefaultBaseURL.
func Hashtags(text string) string {
	return defaultLinkifier.Hashtags(text)
}

// Mentions is Linkifier.Mentions with DefaultBaseURL.
func Mentions(text string) string {
	return defaultLinkifier.Mentions(text)
}
