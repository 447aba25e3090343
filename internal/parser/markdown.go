package parser

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// parseMarkdown strips markup and keeps the readable text. Each leaf block
// (paragraph, heading, code block) ends with a blank line so paragraph
// chunking sees the document's own structure.
func parseMarkdown(src []byte) (string, error) {
	doc := markdown.Parser().Parse(text.NewReader(src))

	var out strings.Builder
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			switch n.Kind() {
			case ast.KindParagraph, ast.KindHeading, ast.KindTextBlock, ast.KindThematicBreak:
				out.WriteString(blockSeparator)
			case east.KindTableCell:
				out.WriteString("\t")
			case east.KindTableRow, east.KindTableHeader:
				out.WriteString("\n")
			case east.KindTable:
				out.WriteString(blockSeparator)
			}
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Text:
			out.Write(node.Segment.Value(src))
			if node.SoftLineBreak() || node.HardLineBreak() {
				out.WriteString("\n")
			}
		case *ast.String:
			out.Write(node.Value)
		case *ast.AutoLink:
			out.Write(node.Label(src))
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				line := lines.At(i)
				out.Write(line.Value(src))
			}
			out.WriteString(blockSeparator)
			return ast.WalkSkipChildren, nil
		case *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", err
	}
	return tidyBlocks(out.String()), nil
}

// tidyBlocks trims each block and collapses runs of blank lines to one.
func tidyBlocks(s string) string {
	raw := strings.Split(s, blockSeparator)
	blocks := make([]string, 0, len(raw))
	for _, b := range raw {
		b = strings.TrimSpace(b)
		if b != "" {
			blocks = append(blocks, b)
		}
	}
	return strings.Join(blocks, blockSeparator)
}
