package xmlnode

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// Parse reads a response document and returns its root element.
func Parse(raw []byte) (*etree.Element, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("parsing XML: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("parsing XML: document has no root element")
	}
	return root, nil
}

// Text returns the trimmed text of the first element matching path below el,
// or "" when el is nil or nothing matches.
func Text(el *etree.Element, path string) string {
	if el == nil {
		return ""
	}
	found := el.FindElement(path)
	if found == nil {
		return ""
	}
	return strings.TrimSpace(found.Text())
}

// FirstText tries each path in order and returns the first non-blank text.
func FirstText(el *etree.Element, paths ...string) string {
	for _, p := range paths {
		if s := Text(el, p); s != "" {
			return s
		}
	}
	return ""
}
