package serialize

import (
	"errors"
	"strings"

	"github.com/beevik/etree"
	"github.com/google/uuid"

	"regraph/icons"
)

// placeholders are icon tokens of a single export. Their marker does not
// occur anywhere in the tree, so diagram text which happens to look like an
// icon token is never expanded.
type placeholders struct {
	marker string
}

const markerAttempts = 4

func newPlaceholders(tree *etree.Element) (placeholders, error) {
	for range markerAttempts {
		id, err := uuid.NewRandom()
		if err != nil {
			return placeholders{}, err
		}
		marker := "regraph-" + id.String()
		if !treeContains(tree, marker) {
			return placeholders{marker: marker}, nil
		}
	}
	return placeholders{}, errors.New("unable to choose unique placeholder marker")
}

func (p placeholders) token(g icons.Glyph) string {
	return "{{" + p.marker + ":" + g.String() + "}}"
}

// treeContains looks for s in everything that ends up in serialized text.
func treeContains(el *etree.Element, s string) bool {
	if strings.Contains(el.Tag, s) {
		return true
	}
	for _, a := range el.Attr {
		if strings.Contains(a.Key, s) || strings.Contains(a.Value, s) {
			return true
		}
	}
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.Element:
			if treeContains(t, s) {
				return true
			}
		case *etree.CharData:
			if strings.Contains(t.Data, s) {
				return true
			}
		case *etree.Comment:
			if strings.Contains(t.Data, s) {
				return true
			}
		case *etree.ProcInst:
			if strings.Contains(t.Inst, s) {
				return true
			}
		}
	}
	return false
}
