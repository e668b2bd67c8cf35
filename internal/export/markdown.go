// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"fmt"
	"os"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"github.com/pdiddy/content-engine/pkg/types"
)

// ToMarkdown converts the whole article body to Markdown.
func ToMarkdown(a *types.Article) (string, error) {
	conv := md.NewConverter("", true, nil)
	out, err := conv.ConvertString(a.HTML)
	if err != nil {
		return "", fmt.Errorf("converting article to markdown: %w", err)
	}
	return out + "\n", nil
}

// WriteMarkdown writes the Markdown conversion of a to path.
func WriteMarkdown(path string, a *types.Article) error {
	out, err := ToMarkdown(a)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(out), 0o644)
}
