package block

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed block.html.tmpl
var blockTemplateText string

var blockTemplate = template.Must(template.New("block").Parse(blockTemplateText))

type htmlPost struct {
	// Text is linkified upstream text: &, < and > arrive encoded and quotes in
	// URLs are escaped by linkify.Links.
	Text      template.HTML
	CreatedAt string
}

type htmlData struct {
	Username    string
	ProfileURL  string
	Posts       []htmlPost
	Unavailable bool
}

// WriteHTML renders v as an HTML fragment. profileURL may be empty to omit
// the profile link.
func WriteHTML(w io.Writer, v *View, profileURL string) error {
	data := htmlData{
		Username:   v.Username,
		ProfileURL: profileURL,
		Posts:      make([]htmlPost, 0, len(v.Posts)),
	}
	for _, p := range v.Posts {
		data.Posts = append(data.Posts, htmlPost{
			Text:      template.HTML(p.Text),
			CreatedAt: p.CreatedAt,
		})
	}

	if err := blockTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("rendering block: %w", err)
	}
	return nil
}

// WriteUnavailableHTML renders the placeholder shown when a cycle failed.
func WriteUnavailableHTML(w io.Writer, username string) error {
	if err := blockTemplate.Execute(w, htmlData{Username: username, Unavailable: true}); err != nil {
		return fmt.Errorf("rendering block: %w", err)
	}
	return nil
}
