package page

import (
	"log/slog"

	"github.com/jo-hoe/setupguide/internal/content"
)

// FromGuide feeds every section of g into a new builder and returns the document.
func FromGuide(g *content.Guide) *Document {
	b := New(g.PageTitle, g.Icon)
	if g.Layout == "wide" {
		b.Wide()
	}
	for _, section := range g.Sections {
		EmitSection(b, section)
	}
	return b.Document()
}

// EmitSection writes the blocks of one section into b.
func EmitSection(b *Builder, section content.Section) {
	emitBlocks(b, section.Blocks)
}

func emitBlocks(b *Builder, blocks []content.Block) {
	for _, block := range blocks {
		emitBlock(b, block)
	}
}

func emitBlock(b *Builder, block content.Block) {
	switch block.Type {
	case content.BlockTitle:
		b.Title(block.Text)
	case content.BlockMarkdown:
		b.Markdown(block.Text)
	case content.BlockHeader:
		b.Header(block.Text)
	case content.BlockSubheader:
		b.Subheader(block.Text)
	case content.BlockCode:
		b.Code(block.Text, block.Language)
	case content.BlockImage:
		b.Image(block.URL, block.Width, block.Caption)
	case content.BlockSuccess:
		b.Success(block.Text)
	case content.BlockDivider:
		b.Divider()
	case content.BlockTabs:
		labels := make([]string, len(block.Tabs))
		for i, tab := range block.Tabs {
			labels[i] = tab.Label
		}
		for i, tb := range b.Tabs(labels...) {
			emitBlocks(tb, block.Tabs[i].Blocks)
		}
	case content.BlockColumns:
		weights := make([]int, len(block.Columns))
		for i, column := range block.Columns {
			weights[i] = column.Weight
		}
		for i, cb := range b.Columns(weights...) {
			emitBlocks(cb, block.Columns[i].Blocks)
		}
	case content.BlockExpander:
		emitBlocks(b.Expander(block.Label), block.Blocks)
	default:
		slog.Warn("EmitSection: skipping unknown block type", "type", block.Type)
	}
}
