package render

import (
	"bytes"
	"html"
	"strings"
	"testing"

	"github.com/jo-hoe/setupguide/internal/content"
	"github.com/jo-hoe/setupguide/internal/page"
)

func collectCode(blocks []content.Block, out *[]string) {
	for _, block := range blocks {
		if block.Type == content.BlockCode {
			*out = append(*out, strings.Trim(block.Text, "\n"))
		}
		for _, tab := range block.Tabs {
			collectCode(tab.Blocks, out)
		}
		for _, column := range block.Columns {
			collectCode(column.Blocks, out)
		}
		collectCode(block.Blocks, out)
	}
}

func TestRenderNodes_Elements(t *testing.T) {
	b := page.New("T", "")
	b.Title("Guide <1>")
	b.Header("Header")
	b.Subheader("Sub")
	b.Markdown("Some **bold** text and `pip`")
	b.Code("echo \"<hi>\" && ls", "bash")
	b.Image("https://example.com/a.png?x=1&y=2", 600, "Spyder IDE Interface")
	b.Success("Done & dusted")
	b.Divider()

	out, err := NewHTMLRenderer().RenderNodes(b.Document().Nodes)
	if err != nil {
		t.Fatalf("RenderNodes failed: %v", err)
	}

	expected := []string{
		"<h1>Guide &lt;1&gt;</h1>",
		"<h2>Header</h2>",
		"<h3>Sub</h3>",
		"<strong>bold</strong>",
		"<code>pip</code>",
		`<code class="language-bash">echo &#34;&lt;hi&gt;&#34; &amp;&amp; ls</code>`,
		`src="https://example.com/a.png?x=1&amp;y=2"`,
		`width="600"`,
		"<figcaption>Spyder IDE Interface</figcaption>",
		`<div class="callout success" role="status">Done &amp; dusted</div>`,
		"<hr>",
	}
	for _, want := range expected {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q\noutput:\n%s", want, out)
		}
	}
}

func TestRenderNodes_Containers(t *testing.T) {
	b := page.New("T", "")
	tabs := b.Tabs("Windows", "macOS")
	tabs[0].Code("python --version", "bash")
	tabs[1].Code("python3 --version", "bash")
	cols := b.Columns(3, 1)
	cols[0].Markdown("left")
	b.Expander("FAQ").Markdown("answer")

	out, err := NewHTMLRenderer().RenderNodes(b.Document().Nodes)
	if err != nil {
		t.Fatalf("RenderNodes failed: %v", err)
	}

	expected := []string{
		`<input type="radio" name="tabs-1" id="tabs-1-0" checked><label for="tabs-1-0">Windows</label>`,
		`<input type="radio" name="tabs-1" id="tabs-1-1"><label for="tabs-1-1">macOS</label>`,
		`#tabs-1-1:checked~[data-panel="tabs-1-1"]{display:block}`,
		`<div class="tab-panel" data-panel="tabs-1-0">`,
		`style="grid-template-columns:3fr 1fr"`,
		`<details id="expander-1">`,
		"<summary>FAQ</summary>",
		"<p>answer</p>",
	}
	for _, want := range expected {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q\noutput:\n%s", want, out)
		}
	}

	winPanel := strings.Index(out, `data-panel="tabs-1-0"`)
	macPanel := strings.Index(out, `data-panel="tabs-1-1"`)
	if !(winPanel < strings.Index(out, "python --version") && strings.Index(out, "python3 --version") > macPanel) {
		t.Error("expected each command inside its own tab panel")
	}
}

func TestRenderNodes_UnknownKind(t *testing.T) {
	_, err := NewHTMLRenderer().RenderNodes([]*page.Node{{Kind: "video"}})
	if err == nil {
		t.Fatal("expected error for unknown node kind")
	}
}

func TestRender_DefaultGuide(t *testing.T) {
	guide, err := content.Default()
	if err != nil {
		t.Fatalf("content.Default failed: %v", err)
	}

	r := NewHTMLRenderer()
	out, err := r.Render(page.FromGuide(guide))
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	s := string(out)

	if !strings.HasPrefix(s, "<!DOCTYPE html>") {
		t.Error("expected a full HTML document")
	}
	if !strings.Contains(s, "<title>Python Setup Guide for Beginners</title>") {
		t.Error("expected page title in <title>")
	}
	if !strings.Contains(s, `<link rel="icon" href="data:image/svg+xml,`) {
		t.Error("expected emoji favicon")
	}
	if !strings.Contains(s, `class="container-fluid"`) {
		t.Error("expected wide layout")
	}
	for _, label := range []string{"Windows", "macOS", "Linux"} {
		if !strings.Contains(s, ">"+label+"</label>") {
			t.Errorf("expected tab label %q", label)
		}
	}

	var commands []string
	for _, section := range guide.Sections {
		collectCode(section.Blocks, &commands)
	}
	if len(commands) == 0 {
		t.Fatal("expected the guide to contain code blocks")
	}
	for _, cmd := range commands {
		if !strings.Contains(s, html.EscapeString(cmd)) {
			t.Errorf("expected rendered page to contain command %q", cmd)
		}
	}

	again, err := r.Render(page.FromGuide(guide))
	if err != nil {
		t.Fatalf("second Render failed: %v", err)
	}
	if !bytes.Equal(out, again) {
		t.Error("expected rendering to be deterministic")
	}
}

func TestIconHref(t *testing.T) {
	if got := iconHref(""); got != "" {
		t.Errorf("expected empty href for empty icon, got %q", got)
	}
	got := string(iconHref("🐍"))
	if !strings.HasPrefix(got, "data:image/svg+xml,") {
		t.Errorf("expected SVG data URI, got %q", got)
	}
	if strings.ContainsAny(strings.TrimPrefix(got, "data:image/svg+xml,"), `<>" `) {
		t.Errorf("expected escaped SVG payload, got %q", got)
	}
}
