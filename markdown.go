package domwalk

import (
	"fmt"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// Markdown renders the document as markdown with commonmark and table
// support. domain, when non-empty, is used to resolve relative links and
// image sources in the output.
func (d *Document) Markdown(domain string) (string, error) {
	raw, err := d.HTML()
	if err != nil {
		return "", err
	}
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	var opts []converter.ConvertOptionFunc
	if domain != "" {
		opts = append(opts, converter.WithDomain(domain))
	}
	md, err := conv.ConvertString(raw, opts...)
	if err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return md, nil
}
