package share

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhillyerd/enmime"

	"vitrina/internal"
	"vitrina/internal/exporter"
	"vitrina/internal/render"
)

// DraftStore saves a raw RFC 5322 message as a draft and returns the
// provider's draft id.
type DraftStore interface {
	SaveDraft(ctx context.Context, raw []byte) (string, error)
}

type Message struct {
	From    string
	To      string
	Subject string
	Date    time.Time
}

// BuildDraft wraps the exported catalog page and JSON tree in a message with a
// short per-category summary as its body.
func BuildDraft(c internal.Catalog, page, tree []byte, msg Message) ([]byte, error) {
	if strings.TrimSpace(msg.From) == "" {
		return nil, fmt.Errorf("missing sender address")
	}
	to := msg.To
	if strings.TrimSpace(to) == "" {
		to = msg.From
	}
	subject := msg.Subject
	if subject == "" {
		subject = "Catálogo " + strings.TrimSpace(c.Config.BusinessName)
	}
	date := msg.Date
	if date.IsZero() {
		date = time.Now()
	}

	text, html := summary(c)
	part, err := enmime.Builder().
		From(c.Config.BusinessName, msg.From).
		To("", to).
		Subject(strings.TrimSpace(subject)).
		Date(date).
		Text([]byte(text)).
		HTML([]byte(html)).
		AddAttachment(page, "text/html", "catalogo.html").
		AddAttachment(tree, "application/json", "catalogo.json").
		Build()
	if err != nil {
		return nil, fmt.Errorf("build draft: %w", err)
	}

	var buf bytes.Buffer
	if err := part.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode draft: %w", err)
	}
	return buf.Bytes(), nil
}

func summary(c internal.Catalog) (string, string) {
	var text, html strings.Builder
	name := strings.TrimSpace(c.Config.BusinessName)
	fmt.Fprintf(&text, "%s\n\n", name)
	fmt.Fprintf(&html, "<h1>%s</h1>\n<ul>\n", render.EscapeHTML(name))
	for _, cat := range c.Categories {
		n := len(c.Products[cat.ID])
		if n == 0 {
			continue
		}
		fmt.Fprintf(&text, "%s %s: %d\n", cat.Icon, cat.Name, n)
		fmt.Fprintf(&html, "<li>%s %s: %d</li>\n", render.EscapeHTML(cat.Icon), render.EscapeHTML(cat.Name), n)
	}
	html.WriteString("</ul>\n<p>Abre el archivo adjunto catalogo.html en cualquier navegador.</p>\n")
	text.WriteString("\nAbre el archivo adjunto catalogo.html en cualquier navegador.\n")
	return text.String(), html.String()
}

// Share renders the catalog and stores it as a draft.
func Share(ctx context.Context, store DraftStore, ex *exporter.Exporter, c internal.Catalog, msg Message) (string, error) {
	page, err := ex.Render(c, exporter.FormatHTML)
	if err != nil {
		return "", err
	}
	tree, err := ex.Render(c, exporter.FormatJSON)
	if err != nil {
		return "", err
	}
	raw, err := BuildDraft(c, page, tree, msg)
	if err != nil {
		return "", err
	}
	return store.SaveDraft(ctx, raw)
}
