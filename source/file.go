package source

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"
)

// ErrUnknownKind is returned for files which are neither svg nor html.
var ErrUnknownKind = errors.New("unsupported source kind")

// ContainerTag is tag of the element wrapping diagram found in html page.
const ContainerTag = "div"

// LoadFile reads saved diagram view. Standalone svg (or xml) file gives its
// root element, html page gives container element holding the first diagram
// of the page, container is empty when page has none.
func LoadFile(path string) (*etree.Element, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open source: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".svg", ".xml":
		return ParseSVG(f)
	case ".html", ".htm", ".xhtml":
		return ParseHTML(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, filepath.Ext(path))
	}
}

func newDocument() *etree.Document {
	doc := etree.NewDocument()
	doc.ReadSettings = etree.ReadSettings{
		CharsetReader: charset.NewReaderLabel,
		// saved views may use html named references
		Entity:     xml.HTMLEntity,
		Permissive: true,
	}
	return doc
}

// ParseSVG reads svg markup and returns its root element.
func ParseSVG(r io.Reader) (*etree.Element, error) {
	doc := newDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("unable to parse svg: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, errors.New("svg source has no root element")
	}
	return root, nil
}

// ParseHTML reads html page and returns container holding its first
// outermost svg element.
func ParseHTML(r io.Reader) (*etree.Element, error) {
	page, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("unable to parse html: %w", err)
	}

	container := etree.NewElement(ContainerTag)
	node := findSVG(page)
	if node == nil {
		return container, nil
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, node); err != nil {
		return nil, fmt.Errorf("unable to render diagram markup: %w", err)
	}
	svg, err := ParseSVG(&buf)
	if err != nil {
		return nil, err
	}
	container.AddChild(svg)
	return container, nil
}

// findSVG looks for the first svg element in document order.
func findSVG(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && (n.DataAtom == atom.Svg || strings.EqualFold(n.Data, "svg")) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findSVG(c); found != nil {
			return found
		}
	}
	return nil
}
