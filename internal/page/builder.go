package page

import "fmt"

type NodeKind string

const (
	KindTitle     NodeKind = "title"
	KindMarkdown  NodeKind = "markdown"
	KindHeader    NodeKind = "header"
	KindSubheader NodeKind = "subheader"
	KindCode      NodeKind = "code"
	KindImage     NodeKind = "image"
	KindSuccess   NodeKind = "success"
	KindDivider   NodeKind = "divider"
	KindTabs      NodeKind = "tabs"
	KindColumns   NodeKind = "columns"
	KindExpander  NodeKind = "expander"
	// KindPane is a single tab or column inside a container.
	KindPane NodeKind = "pane"
)

// Node is one piece of structured content. Container kinds hold panes in Children;
// panes and expanders hold their content in Children.
type Node struct {
	Kind     NodeKind
	ID       string
	Text     string
	Language string
	URL      string
	Width    int
	Caption  string
	Label    string
	Weight   int
	Children []*Node
}

// Document is the accumulated page, walked once by a renderer.
type Document struct {
	Title string
	Icon  string
	Wide  bool
	Nodes []*Node
}

// Builder appends nodes in call order. Builders returned from container methods
// write into that container and share the id counter of the root.
type Builder struct {
	doc    *Document
	target *[]*Node
	ids    map[NodeKind]int
}

func New(title, icon string) *Builder {
	doc := &Document{Title: title, Icon: icon}
	return &Builder{
		doc:    doc,
		target: &doc.Nodes,
		ids:    make(map[NodeKind]int),
	}
}

// Wide switches the page to full-width layout.
func (b *Builder) Wide() *Builder {
	b.doc.Wide = true
	return b
}

func (b *Builder) Document() *Document {
	return b.doc
}

func (b *Builder) Title(text string) {
	b.append(&Node{Kind: KindTitle, Text: text})
}

func (b *Builder) Markdown(text string) {
	b.append(&Node{Kind: KindMarkdown, Text: text})
}

func (b *Builder) Header(text string) {
	b.append(&Node{Kind: KindHeader, Text: text})
}

func (b *Builder) Subheader(text string) {
	b.append(&Node{Kind: KindSubheader, Text: text})
}

// Code adds a literal command or output; language is a display hint only.
func (b *Builder) Code(text, language string) {
	b.append(&Node{Kind: KindCode, Text: text, Language: language})
}

// Image references an external image by URL. width 0 keeps the natural size.
func (b *Builder) Image(url string, width int, caption string) {
	b.append(&Node{Kind: KindImage, URL: url, Width: width, Caption: caption})
}

func (b *Builder) Success(text string) {
	b.append(&Node{Kind: KindSuccess, Text: text})
}

func (b *Builder) Divider() {
	b.append(&Node{Kind: KindDivider})
}

// Tabs adds a tab group and returns one builder per label, in order.
func (b *Builder) Tabs(labels ...string) []*Builder {
	group := &Node{Kind: KindTabs, ID: b.nextID(KindTabs)}
	b.append(group)

	builders := make([]*Builder, len(labels))
	for i, label := range labels {
		pane := &Node{Kind: KindPane, ID: fmt.Sprintf("%s-%d", group.ID, i), Label: label}
		group.Children = append(group.Children, pane)
		builders[i] = b.child(pane)
	}
	return builders
}

// Columns adds side-by-side columns sized by relative weight. Non-positive weights count as 1.
func (b *Builder) Columns(weights ...int) []*Builder {
	group := &Node{Kind: KindColumns, ID: b.nextID(KindColumns)}
	b.append(group)

	builders := make([]*Builder, len(weights))
	for i, weight := range weights {
		if weight <= 0 {
			weight = 1
		}
		pane := &Node{Kind: KindPane, ID: fmt.Sprintf("%s-%d", group.ID, i), Weight: weight}
		group.Children = append(group.Children, pane)
		builders[i] = b.child(pane)
	}
	return builders
}

// Expander adds a collapsed panel and returns a builder for its body.
func (b *Builder) Expander(label string) *Builder {
	node := &Node{Kind: KindExpander, ID: b.nextID(KindExpander), Label: label}
	b.append(node)
	return b.child(node)
}

func (b *Builder) append(node *Node) {
	*b.target = append(*b.target, node)
}

func (b *Builder) child(parent *Node) *Builder {
	return &Builder{doc: b.doc, target: &parent.Children, ids: b.ids}
}

func (b *Builder) nextID(kind NodeKind) string {
	b.ids[kind]++
	return fmt.Sprintf("%s-%d", kind, b.ids[kind])
}
