package authors

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Wire formats accepted by Encode.
const (
	FormatXML  = "xml"
	FormatJSON = "json"
	FormatText = "text"
)

// ContentType returns the MIME type of format.
func ContentType(format string) string {
	switch format {
	case FormatJSON:
		return "application/json; charset=utf-8"
	case FormatText:
		return "text/plain; charset=utf-8"
	default:
		return "text/xml; charset=utf-8"
	}
}

// Encode writes l in the given format ("" means xml).
func Encode(w io.Writer, format string, l List) error {
	switch format {
	case "", FormatXML:
		return EncodeXML(w, l)
	case FormatJSON:
		return EncodeJSON(w, l)
	case FormatText:
		_, err := io.WriteString(w, RenderText(l.Entries())+"\n")
		return err
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

type xmlAuthorList struct {
	XMLName xml.Name    `xml:"AuthorList"`
	Authors []xmlAuthor `xml:"Author"`
}

type xmlAuthor struct {
	Name      string `xml:"Name,attr"`
	EditCount int    `xml:"EditCount,attr"`
	URL       string `xml:"Url,attr"`
}

// EncodeXML writes the <AuthorList> document for l.
func EncodeXML(w io.Writer, l List) error {
	doc := xmlAuthorList{Authors: make([]xmlAuthor, len(l))}
	for i, e := range l {
		doc.Authors[i] = xmlAuthor{Name: e.DisplayName, EditCount: e.EditCount, URL: e.ProfileURL}
	}
	if _, err := io.WriteString(w, `<?xml version="1.0"?>`+"\n"); err != nil {
		return err
	}
	if err := xml.NewEncoder(w).Encode(doc); err != nil {
		return fmt.Errorf("encode author list: %w", err)
	}
	return nil
}

// DecodeXML parses an <AuthorList> document. Author elements are read in
// document order; a document without Author elements yields an empty slice.
func DecodeXML(r io.Reader) ([]Entry, error) {
	var doc xmlAuthorList
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode author list: %w", err)
	}
	out := make([]Entry, len(doc.Authors))
	for i, a := range doc.Authors {
		out[i] = Entry{Name: a.Name, EditCount: a.EditCount, URL: a.URL}
	}
	return out, nil
}

type jsonAuthorList struct {
	Authors []Entry `json:"authors"`
}

// EncodeJSON writes {"authors":[...]} for l.
func EncodeJSON(w io.Writer, l List) error {
	return json.NewEncoder(w).Encode(jsonAuthorList{Authors: l.Entries()})
}

// DecodeJSON parses a document written by EncodeJSON.
func DecodeJSON(r io.Reader) ([]Entry, error) {
	var doc jsonAuthorList
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode author list: %w", err)
	}
	if doc.Authors == nil {
		doc.Authors = []Entry{}
	}
	return doc.Authors, nil
}

// RenderText joins entry names with ", ", the plain-text author line.
func RenderText(entries []Entry) string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return strings.Join(names, ", ")
}
