// Package fragment encodes a single preference value as the XML plist
// fragment that `defaults write` accepts in place of a typed argument, e.g.
// <dict><key>enabled</key><true/></dict>.
package fragment

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"howett.net/plist"

	"github.com/bolasblack/prefsniff/internal/prefs"
)

// Fragment is XML markup holding exactly one plist element.
type Fragment string

func (f Fragment) String() string { return string(f) }

// Serialize renders v as a fragment. Dicts and arrays recurse to any depth.
func Serialize(v prefs.Value) (Fragment, error) {
	native, err := v.Native()
	if err != nil {
		return "", err
	}
	doc, err := plist.Marshal(native, plist.XMLFormat)
	if err != nil {
		return "", fmt.Errorf("%w: marshal %s: %v", prefs.ErrSerialization, v.Kind(), err)
	}
	return Extract(doc)
}

// Extract pulls the single child element out of a <plist> document and
// renders it without insignificant whitespace. Zero or several children is
// an error.
func Extract(doc []byte) (Fragment, error) {
	dec := xml.NewDecoder(bytes.NewReader(doc))
	dec.Strict = true

	if err := seekPlistRoot(dec); err != nil {
		return "", err
	}

	var (
		children []string
		buf      strings.Builder
	)
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", fmt.Errorf("%w: %v", prefs.ErrSerialization, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			buf.Reset()
			if err := writeElement(dec, &buf, t); err != nil {
				return "", err
			}
			children = append(children, buf.String())
		case xml.EndElement:
			switch len(children) {
			case 0:
				return "", fmt.Errorf("%w: plist holds no element", prefs.ErrSerialization)
			case 1:
				return Fragment(children[0]), nil
			default:
				return "", fmt.Errorf("%w: plist holds %d elements, expected one", prefs.ErrSerialization, len(children))
			}
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return "", fmt.Errorf("%w: stray text %q in plist", prefs.ErrSerialization, string(t))
			}
		}
	}
}

func seekPlistRoot(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: no <plist> root", prefs.ErrSerialization)
		}
		if err != nil {
			return fmt.Errorf("%w: %v", prefs.ErrSerialization, err)
		}
		if se, ok := tok.(xml.StartElement); ok {
			if se.Name.Local != "plist" {
				return fmt.Errorf("%w: root element is <%s>, not <plist>", prefs.ErrSerialization, se.Name.Local)
			}
			return nil
		}
	}
}

// containers hold only elements; whitespace inside them is layout.
var containers = map[string]bool{"dict": true, "array": true}

// writeElement copies the element opened by start, and everything inside it,
// into w. Elements without content are written self-closing.
func writeElement(dec *xml.Decoder, w *strings.Builder, start xml.StartElement) error {
	name := start.Name.Local
	w.WriteString("<" + name)
	open := true
	var text bytes.Buffer

	closeTag := func() {
		if open {
			w.WriteByte('>')
			open = false
		}
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", prefs.ErrSerialization, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			closeTag()
			if err := writeElement(dec, w, t); err != nil {
				return err
			}
		case xml.CharData:
			if containers[name] && len(bytes.TrimSpace(t)) == 0 {
				continue
			}
			text.Write(t)
		case xml.EndElement:
			if open && text.Len() == 0 {
				w.WriteString("/>")
				return nil
			}
			closeTag()
			if err := xml.EscapeText(w, text.Bytes()); err != nil {
				return err
			}
			w.WriteString("</" + name + ">")
			return nil
		}
	}
}

// Parse decodes a fragment back into a value.
func Parse(f Fragment) (prefs.Value, error) {
	doc := `<?xml version="1.0" encoding="UTF-8"?><plist version="1.0">` + string(f) + `</plist>`
	var out any
	if _, err := plist.Unmarshal([]byte(doc), &out); err != nil {
		return prefs.Value{}, fmt.Errorf("%w: parse fragment: %v", prefs.ErrSerialization, err)
	}
	return prefs.FromNative(out)
}
