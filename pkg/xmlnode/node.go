// Package xmlnode is a small insertion-ordered XML tree builder used to
// render carrier request documents, plus a couple of lookup helpers for the
// responses that come back.
//
// A parent owns its children: nested nodes are only ever created through a
// builder callback on their parent, so a finished tree has no shared
// sub-trees and serializes the same way every time.
//
//	req := xmlnode.New("TrackRequest", func(root *xmlnode.Node) {
//		root.AddNode("Request", func(r *xmlnode.Node) {
//			r.Add("RequestAction", "Track")
//		})
//		root.Add("TrackingNumber", "1Z12345E0291980793")
//	})
//	body := req.String()
package xmlnode

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// Declaration is the XML prolog some carrier endpoints insist on.
const Declaration = `<?xml version="1.0" encoding="UTF-8"?>`

// Node is one element of a request document.
type Node struct {
	el *etree.Element
}

// New creates a root node and runs the optional builders against it.
func New(name string, build ...func(*Node)) *Node {
	n := &Node{el: etree.NewElement(name)}
	for _, fn := range build {
		if fn != nil {
			fn(n)
		}
	}
	return n
}

// Name returns the element tag.
func (n *Node) Name() string {
	return n.el.Tag
}

// Add appends a named child carrying value and returns it.
func (n *Node) Add(name string, value any) *Node {
	child := &Node{el: n.el.CreateElement(name)}
	if s, ok := format(value); ok {
		child.el.SetText(s)
	}
	return child
}

// AddOptional appends a named child only when value is not blank.
func (n *Node) AddOptional(name, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	n.Add(name, value)
}

// AddNode appends a named child whose content is produced by build.
func (n *Node) AddNode(name string, build func(*Node)) *Node {
	child := &Node{el: n.el.CreateElement(name)}
	if build != nil {
		build(child)
	}
	return child
}

// Attr sets an attribute on the node.
func (n *Node) Attr(name, value string) *Node {
	n.el.CreateAttr(name, value)
	return n
}

// String serializes the tree without an XML declaration.
func (n *Node) String() string {
	doc := etree.NewDocument()
	doc.SetRoot(n.el.Copy())
	s, err := doc.WriteToString()
	if err != nil {
		// Writing to an in-memory builder only fails on a broken writer.
		panic(fmt.Sprintf("xmlnode: serialize %s: %v", n.el.Tag, err))
	}
	return s
}

// Document serializes the tree prefixed with Declaration.
func (n *Node) Document() string {
	return Declaration + n.String()
}

func format(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case fmt.Stringer:
		return v.String(), true
	default:
		return fmt.Sprint(v), true
	}
}
