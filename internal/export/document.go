// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/content-engine/pkg/types"
)

// BlockKind distinguishes document blocks.
type BlockKind string

const (
	BlockHeading   BlockKind = "heading"
	BlockParagraph BlockKind = "paragraph"
	BlockBullet    BlockKind = "bullet"
)

// Block is one element of a structured document. Level is 1-3 for headings
// and zero otherwise.
type Block struct {
	Kind  BlockKind
	Level int
	Text  string
}

// Document is the article reduced to headings, paragraphs, and bullets
// under a title.
type Document struct {
	Title  string
	Blocks []Block
}

// BuildDocument walks the h1, h2, h3, p, and li elements of a in document
// order. An h1 repeating the title is not emitted twice.
func BuildDocument(a *types.Article) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(a.HTML))
	if err != nil {
		return nil, fmt.Errorf("parsing article: %w", err)
	}
	out := &Document{Title: a.Title}
	doc.Find("h1, h2, h3, p, li").Each(func(_ int, s *goquery.Selection) {
		text := strings.Join(strings.Fields(s.Text()), " ")
		if text == "" {
			return
		}
		switch name := goquery.NodeName(s); name {
		case "h1", "h2", "h3":
			level := int(name[1] - '0')
			if level == 1 && text == out.Title && !out.hasHeading() {
				return
			}
			out.Blocks = append(out.Blocks, Block{Kind: BlockHeading, Level: level, Text: text})
		case "li":
			out.Blocks = append(out.Blocks, Block{Kind: BlockBullet, Text: text})
		default:
			if s.ParentsFiltered("li").Length() > 0 {
				return
			}
			out.Blocks = append(out.Blocks, Block{Kind: BlockParagraph, Text: text})
		}
	})
	return out, nil
}

func (d *Document) hasHeading() bool {
	for _, b := range d.Blocks {
		if b.Kind == BlockHeading {
			return true
		}
	}
	return false
}

// Markdown renders the document with the title as the only top-level
// heading; article headings shift down one level.
func (d *Document) Markdown() string {
	var b strings.Builder
	if d.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", d.Title)
	}
	prevBullet := false
	for _, blk := range d.Blocks {
		if prevBullet && blk.Kind != BlockBullet {
			b.WriteString("\n")
		}
		switch blk.Kind {
		case BlockHeading:
			fmt.Fprintf(&b, "%s %s\n\n", strings.Repeat("#", blk.Level+1), blk.Text)
		case BlockBullet:
			fmt.Fprintf(&b, "- %s\n", blk.Text)
		default:
			fmt.Fprintf(&b, "%s\n\n", blk.Text)
		}
		prevBullet = blk.Kind == BlockBullet
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// WriteDocument writes the structured document for a to path.
func WriteDocument(path string, a *types.Article) error {
	d, err := BuildDocument(a)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(d.Markdown()), 0o644)
}
