package templates

import (
	"bytes"
	"embed"
	"fmt"
	htmpl "html/template"
)

//go:embed *.tmpl
var FS embed.FS

const (
	Welcome       = "welcome"
	FriendRequest = "friend_request"
)

var tset = htmpl.Must(htmpl.ParseFS(FS, "*.tmpl"))

// RenderHTML renders the named template with the supplied data.
func RenderHTML(name string, data map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := tset.ExecuteTemplate(&buf, name+".tmpl", data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// SubjectFor maps a template name to its email subject.
func SubjectFor(name string) string {
	switch name {
	case Welcome:
		return "Welcome to PeerLingo"
	case FriendRequest:
		return "You have a new friend request"
	default:
		return "Notification"
	}
}
