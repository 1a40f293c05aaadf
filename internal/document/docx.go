package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

const (
	wordNS              = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	officeDocumentRel   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	wordMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
)

var errNotDocx = errors.New("not a word document")

type relationships struct {
	Items []struct {
		Type   string `xml:"Type,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

type contentTypes struct {
	Defaults []struct {
		Extension   string `xml:"Extension,attr"`
		ContentType string `xml:"ContentType,attr"`
	} `xml:"Default"`
	Overrides []struct {
		PartName    string `xml:"PartName,attr"`
		ContentType string `xml:"ContentType,attr"`
	} `xml:"Override"`
}

// docxParagraphs opens data as an OOXML package and returns the text of the
// body-level paragraphs in document order, empty paragraphs included.
func docxParagraphs(data []byte) ([]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open container: %w", err)
	}
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[strings.TrimPrefix(f.Name, "/")] = f
	}

	var rels relationships
	if err := readXML(files, "_rels/.rels", &rels); err != nil {
		return nil, err
	}
	part := ""
	for _, r := range rels.Items {
		if r.Type == officeDocumentRel {
			part = strings.TrimPrefix(path.Clean("/"+r.Target), "/")
			break
		}
	}
	if part == "" {
		return nil, fmt.Errorf("%w: no main document relationship", errNotDocx)
	}

	var types contentTypes
	if err := readXML(files, "[Content_Types].xml", &types); err != nil {
		return nil, err
	}
	if ct := types.lookup(part); ct != wordMainContentType {
		return nil, fmt.Errorf("%w: content type %q", errNotDocx, ct)
	}

	f, ok := files[part]
	if !ok {
		return nil, fmt.Errorf("%w: missing part %s", errNotDocx, part)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", part, err)
	}
	defer rc.Close()

	return bodyParagraphs(rc)
}

func (c contentTypes) lookup(part string) string {
	name := "/" + part
	for _, o := range c.Overrides {
		if strings.EqualFold(o.PartName, name) {
			return o.ContentType
		}
	}
	ext := strings.TrimPrefix(path.Ext(part), ".")
	for _, d := range c.Defaults {
		if strings.EqualFold(d.Extension, ext) {
			return d.ContentType
		}
	}
	return ""
}

func readXML(files map[string]*zip.File, name string, v any) error {
	f, ok := files[name]
	if !ok {
		return fmt.Errorf("%w: missing %s", errNotDocx, name)
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()
	if err := xml.NewDecoder(rc).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// bodyParagraphs walks word/document.xml. Only w:p elements that are direct
// children of w:body count, matching what a Word reader calls the document's
// paragraphs; table cells, text boxes and headers are not included.
//
// A paragraph's text is its runs (direct, or inside a w:hyperlink) in order:
// w:t as written, w:tab and w:ptab as a tab, w:cr and text-wrapping w:br as a
// newline, w:noBreakHyphen as "-".
func bodyParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		stack      []string // local names, "" for foreign namespaces
		paragraphs []string
		para       strings.Builder
		inPara     bool
		runDepth   = -1
		inText     bool
		sawBody    bool
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse document: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := ""
			if t.Name.Space == wordNS {
				name = t.Name.Local
			}
			depth := len(stack)
			parent := ""
			if depth > 0 {
				parent = stack[depth-1]
			}

			switch {
			case depth == 0:
				if name != "document" {
					return nil, fmt.Errorf("%w: root element %q", errNotDocx, t.Name.Local)
				}
			case depth == 1 && name == "body":
				sawBody = true
			case depth == 2 && parent == "body" && name == "p":
				inPara = true
				para.Reset()
			case inPara && name == "r" && runDepth < 0 && isRunParent(stack):
				runDepth = depth
			case runDepth >= 0 && depth == runDepth+1:
				switch name {
				case "t":
					inText = true
				case "tab", "ptab":
					para.WriteByte('\t')
				case "cr":
					para.WriteByte('\n')
				case "br":
					if breakIsNewline(t) {
						para.WriteByte('\n')
					}
				case "noBreakHyphen":
					para.WriteByte('-')
				}
			}
			stack = append(stack, name)

		case xml.CharData:
			if inText {
				para.Write(t)
			}

		case xml.EndElement:
			if len(stack) == 0 {
				continue
			}
			depth := len(stack) - 1
			name := stack[depth]
			stack = stack[:depth]

			switch {
			case inText && name == "t" && depth == runDepth+1:
				inText = false
			case runDepth >= 0 && depth == runDepth:
				runDepth = -1
			case inPara && depth == 2 && name == "p":
				paragraphs = append(paragraphs, para.String())
				inPara = false
			}
		}
	}

	if !sawBody {
		return nil, fmt.Errorf("%w: no body", errNotDocx)
	}
	return paragraphs, nil
}

// isRunParent reports whether a run opened at the current position belongs to
// the paragraph's content: stack is document/body/p or document/body/p/hyperlink.
func isRunParent(stack []string) bool {
	switch len(stack) {
	case 3:
		return stack[2] == "p"
	case 4:
		return stack[2] == "p" && stack[3] == "hyperlink"
	}
	return false
}

func breakIsNewline(t xml.StartElement) bool {
	for _, a := range t.Attr {
		if a.Name.Local == "type" {
			return a.Value == "" || a.Value == "textWrapping"
		}
	}
	return true
}
