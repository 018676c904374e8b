package content

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"github.com/jo-hoe/setupguide/internal/common"
	"gopkg.in/yaml.v3"
)

//go:embed guide.yaml
var defaultGuideSource []byte

type BlockType string

const (
	BlockTitle     BlockType = "title"
	BlockMarkdown  BlockType = "markdown"
	BlockHeader    BlockType = "header"
	BlockSubheader BlockType = "subheader"
	BlockCode      BlockType = "code"
	BlockImage     BlockType = "image"
	BlockSuccess   BlockType = "success"
	BlockDivider   BlockType = "divider"
	BlockTabs      BlockType = "tabs"
	BlockColumns   BlockType = "columns"
	BlockExpander  BlockType = "expander"
)

// Guide is the whole tutorial as literal data, in display order.
type Guide struct {
	PageTitle string    `yaml:"pageTitle" validate:"required"`
	Icon      string    `yaml:"icon"`
	Layout    string    `yaml:"layout" validate:"omitempty,oneof=wide centered"`
	Sections  []Section `yaml:"sections" validate:"required,min=1,dive"`

	// Source is the raw document the guide was parsed from.
	Source []byte `yaml:"-"`
}

type Section struct {
	ID     string  `yaml:"id" validate:"required"`
	Blocks []Block `yaml:"blocks" validate:"required,min=1,dive"`
}

// Block is one piece of content. Which fields are used depends on Type.
type Block struct {
	Type     BlockType `yaml:"type" validate:"required,oneof=title markdown header subheader code image success divider tabs columns expander"`
	Text     string    `yaml:"text,omitempty"`
	Language string    `yaml:"language,omitempty"`
	URL      string    `yaml:"url,omitempty" validate:"omitempty,url"`
	Width    int       `yaml:"width,omitempty" validate:"gte=0"`
	Caption  string    `yaml:"caption,omitempty"`
	Label    string    `yaml:"label,omitempty"`
	Tabs     []Pane    `yaml:"tabs,omitempty" validate:"omitempty,dive"`
	Columns  []Pane    `yaml:"columns,omitempty" validate:"omitempty,dive"`
	Blocks   []Block   `yaml:"blocks,omitempty" validate:"omitempty,dive"`
}

// Pane is a tab or a column holding nested blocks.
type Pane struct {
	Label  string  `yaml:"label,omitempty"`
	Weight int     `yaml:"weight,omitempty" validate:"gte=0"`
	Blocks []Block `yaml:"blocks" validate:"omitempty,dive"`
}

var loadDefault = sync.OnceValues(func() (*Guide, error) {
	return Parse(defaultGuideSource)
})

// Default returns the guide compiled into the binary.
func Default() (*Guide, error) {
	return loadDefault()
}

// Load reads and parses a guide from disk.
func Load(path string) (*Guide, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read content file %s: %w", path, err)
	}
	guide, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load content file %s: %w", path, err)
	}
	return guide, nil
}

// Parse decodes and validates a YAML guide.
func Parse(data []byte) (*Guide, error) {
	var guide Guide
	if err := yaml.Unmarshal(data, &guide); err != nil {
		return nil, fmt.Errorf("failed to parse guide: %w", err)
	}
	if err := Validate(&guide); err != nil {
		return nil, fmt.Errorf("invalid guide: %w", err)
	}
	guide.Source = data
	return &guide, nil
}

// Validate checks struct constraints, then the per-type requirements validator tags can't express.
func Validate(guide *Guide) error {
	if err := common.ValidateStruct(guide); err != nil {
		return err
	}

	seenIDs := make(map[string]bool)
	for _, section := range guide.Sections {
		if seenIDs[section.ID] {
			return fmt.Errorf("duplicate section id: %s", section.ID)
		}
		seenIDs[section.ID] = true

		if err := validateBlocks(section.Blocks, section.ID); err != nil {
			return err
		}
	}
	return nil
}

func validateBlocks(blocks []Block, path string) error {
	for i, block := range blocks {
		where := fmt.Sprintf("%s[%d]", path, i)
		if err := validateBlock(block, where); err != nil {
			return err
		}
	}
	return nil
}

func validateBlock(block Block, where string) error {
	switch block.Type {
	case BlockTitle, BlockMarkdown, BlockHeader, BlockSubheader, BlockCode, BlockSuccess:
		if block.Text == "" {
			return fmt.Errorf("%s: %s block requires text", where, block.Type)
		}
	case BlockImage:
		if block.URL == "" {
			return fmt.Errorf("%s: image block requires url", where)
		}
	case BlockTabs:
		if len(block.Tabs) == 0 {
			return fmt.Errorf("%s: tabs block requires at least one tab", where)
		}
		for i, tab := range block.Tabs {
			if tab.Label == "" {
				return fmt.Errorf("%s: tab %d has empty label", where, i)
			}
			if err := validateBlocks(tab.Blocks, fmt.Sprintf("%s.tabs[%d]", where, i)); err != nil {
				return err
			}
		}
	case BlockColumns:
		if len(block.Columns) == 0 {
			return fmt.Errorf("%s: columns block requires at least one column", where)
		}
		for i, column := range block.Columns {
			if err := validateBlocks(column.Blocks, fmt.Sprintf("%s.columns[%d]", where, i)); err != nil {
				return err
			}
		}
	case BlockExpander:
		if block.Label == "" {
			return fmt.Errorf("%s: expander block requires label", where)
		}
		if err := validateBlocks(block.Blocks, where+".blocks"); err != nil {
			return err
		}
	case BlockDivider:
	default:
		return fmt.Errorf("%s: unknown block type %q", where, block.Type)
	}
	return nil
}
