package render

import (
	"bytes"
	"embed"
	"fmt"
	"html"
	"html/template"
	"net/url"
	"strings"

	"github.com/jo-hoe/setupguide/internal/page"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed views/*.html
var viewsFS embed.FS

const shellTemplate = "index.html"

// HTMLRenderer turns a page.Document into a standalone HTML page.
// It holds no per-render state and can be shared between requests.
type HTMLRenderer struct {
	markdown goldmark.Markdown
	shell    *template.Template
}

type shellData struct {
	Title    string
	IconHref template.URL
	Wide     bool
	Body     template.HTML
}

func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
		shell:    template.Must(template.New("").ParseFS(viewsFS, "views/*.html")),
	}
}

// Render walks the document once and wraps the result in the page shell.
func (r *HTMLRenderer) Render(doc *page.Document) ([]byte, error) {
	body, err := r.RenderNodes(doc.Nodes)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err = r.shell.ExecuteTemplate(&buf, shellTemplate, shellData{
		Title:    doc.Title,
		IconHref: iconHref(doc.Icon),
		Wide:     doc.Wide,
		Body:     template.HTML(body),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to execute page template: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderNodes renders nodes as an HTML fragment without the page shell.
func (r *HTMLRenderer) RenderNodes(nodes []*page.Node) (string, error) {
	var b strings.Builder
	for _, node := range nodes {
		if err := r.renderNode(&b, node); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

func (r *HTMLRenderer) renderNode(b *strings.Builder, node *page.Node) error {
	switch node.Kind {
	case page.KindTitle:
		fmt.Fprintf(b, "<h1>%s</h1>\n", html.EscapeString(node.Text))
	case page.KindHeader:
		fmt.Fprintf(b, "<h2>%s</h2>\n", html.EscapeString(node.Text))
	case page.KindSubheader:
		fmt.Fprintf(b, "<h3>%s</h3>\n", html.EscapeString(node.Text))
	case page.KindMarkdown:
		if err := r.markdown.Convert([]byte(node.Text), b); err != nil {
			return fmt.Errorf("failed to render markdown: %w", err)
		}
	case page.KindCode:
		renderCode(b, node)
	case page.KindImage:
		renderImage(b, node)
	case page.KindSuccess:
		fmt.Fprintf(b, "<div class=\"callout success\" role=\"status\">%s</div>\n", html.EscapeString(node.Text))
	case page.KindDivider:
		b.WriteString("<hr>\n")
	case page.KindTabs:
		return r.renderTabs(b, node)
	case page.KindColumns:
		return r.renderColumns(b, node)
	case page.KindExpander:
		fmt.Fprintf(b, "<details id=\"%s\">\n<summary>%s</summary>\n", node.ID, html.EscapeString(node.Label))
		if err := r.renderChildren(b, node); err != nil {
			return err
		}
		b.WriteString("</details>\n")
	case page.KindPane:
		return r.renderChildren(b, node)
	default:
		return fmt.Errorf("unsupported node kind %q", node.Kind)
	}
	return nil
}

func (r *HTMLRenderer) renderChildren(b *strings.Builder, node *page.Node) error {
	for _, child := range node.Children {
		if err := r.renderNode(b, child); err != nil {
			return err
		}
	}
	return nil
}

// renderTabs emits CSS-only tabs: one radio input per pane and a generated rule
// revealing the matching panel, so tabs also work in the exported file.
func (r *HTMLRenderer) renderTabs(b *strings.Builder, node *page.Node) error {
	b.WriteString("<style>")
	for _, pane := range node.Children {
		fmt.Fprintf(b, "#%s:checked~[data-panel=\"%s\"]{display:block}", pane.ID, pane.ID)
	}
	b.WriteString("</style>\n")

	fmt.Fprintf(b, "<div class=\"tabs\" id=\"%s\">\n", node.ID)
	for i, pane := range node.Children {
		checked := ""
		if i == 0 {
			checked = " checked"
		}
		fmt.Fprintf(b, "<input type=\"radio\" name=\"%s\" id=\"%s\"%s><label for=\"%s\">%s</label>\n",
			node.ID, pane.ID, checked, pane.ID, html.EscapeString(pane.Label))
	}
	for _, pane := range node.Children {
		fmt.Fprintf(b, "<div class=\"tab-panel\" data-panel=\"%s\">\n", pane.ID)
		if err := r.renderChildren(b, pane); err != nil {
			return err
		}
		b.WriteString("</div>\n")
	}
	b.WriteString("</div>\n")
	return nil
}

func (r *HTMLRenderer) renderColumns(b *strings.Builder, node *page.Node) error {
	tracks := make([]string, len(node.Children))
	for i, pane := range node.Children {
		tracks[i] = fmt.Sprintf("%dfr", pane.Weight)
	}
	fmt.Fprintf(b, "<div class=\"columns\" id=\"%s\" style=\"grid-template-columns:%s\">\n", node.ID, strings.Join(tracks, " "))
	for _, pane := range node.Children {
		b.WriteString("<div class=\"column\">\n")
		if err := r.renderChildren(b, pane); err != nil {
			return err
		}
		b.WriteString("</div>\n")
	}
	b.WriteString("</div>\n")
	return nil
}

// iconHref wraps an emoji in an SVG data URI so the favicon needs no extra request.
func iconHref(icon string) template.URL {
	if icon == "" {
		return ""
	}
	svg := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100"><text y=".9em" font-size="90">` +
		html.EscapeString(icon) + `</text></svg>`
	return template.URL("data:image/svg+xml," + url.PathEscape(svg))
}

func renderCode(b *strings.Builder, node *page.Node) {
	language := node.Language
	if language == "" {
		language = "text"
	}
	text := strings.Trim(node.Text, "\n")
	fmt.Fprintf(b, "<div class=\"code-block\"><pre><code class=\"language-%s\">%s</code></pre>"+
		"<button type=\"button\" class=\"copy secondary outline\" onclick=\"copyCode(this)\">Copy</button></div>\n",
		html.EscapeString(language), html.EscapeString(text))
}

func renderImage(b *strings.Builder, node *page.Node) {
	width := ""
	if node.Width > 0 {
		width = fmt.Sprintf(" width=\"%d\"", node.Width)
	}
	b.WriteString("<figure>")
	fmt.Fprintf(b, "<img src=\"%s\" alt=\"%s\"%s loading=\"lazy\">", html.EscapeString(node.URL), html.EscapeString(node.Caption), width)
	if node.Caption != "" {
		fmt.Fprintf(b, "<figcaption>%s</figcaption>", html.EscapeString(node.Caption))
	}
	b.WriteString("</figure>\n")
}
