package tsi18n

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"os"
)

// tsFile mirrors the Qt Linguist TS document.
type tsFile struct {
	XMLName        xml.Name    `xml:"TS"`
	Version        string      `xml:"version,attr"`
	Language       string      `xml:"language,attr,omitempty"`
	SourceLanguage string      `xml:"sourcelanguage,attr,omitempty"`
	Contexts       []tsContext `xml:"context"`
}

type tsContext struct {
	Name     string      `xml:"name"`
	Messages []tsMessage `xml:"message"`
}

type tsMessage struct {
	Locations    []tsLocation  `xml:"location"`
	Source       string        `xml:"source"`
	Comment      string        `xml:"comment,omitempty"`
	ExtraComment string        `xml:"extracomment,omitempty"`
	Translation  tsTranslation `xml:"translation"`
}

type tsLocation struct {
	Filename string `xml:"filename,attr,omitempty"`
	Line     int    `xml:"line,attr,omitempty"`
}

type tsTranslation struct {
	Type string `xml:"type,attr,omitempty"`
	Text string `xml:",chardata"`
}

// ParseTS decodes a TS document. The returned catalog keeps the message
// order of the document; its Language is empty when the root element does
// not declare one.
func ParseTS(r io.Reader) (*Catalog, error) {
	var doc tsFile
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode ts: %w", err)
	}

	c := NewCatalog(doc.Language)
	c.SourceLanguage = doc.SourceLanguage
	if doc.Version != "" {
		c.Version = doc.Version
	}
	for _, ctx := range doc.Contexts {
		for _, m := range ctx.Messages {
			u := &Unit{
				Key:          Key{Context: ctx.Name, Source: m.Source},
				Translation:  m.Translation.Text,
				Type:         m.Translation.Type,
				Comment:      m.Comment,
				ExtraComment: m.ExtraComment,
			}
			for _, l := range m.Locations {
				u.Locations = append(u.Locations, Location{Filename: l.Filename, Line: l.Line})
			}
			c.Add(u)
		}
	}
	return c, nil
}

// ParseTSFile reads and decodes the TS file at path. A catalog without a
// language attribute takes it from the file name.
func ParseTSFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := ParseTS(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := checkLanguage(c, path); err != nil {
		return nil, err
	}
	return c, nil
}

// WriteTS encodes c as a TS document. Contexts are grouped in order of
// first appearance, messages keep their catalog order.
func WriteTS(w io.Writer, c *Catalog) error {
	doc := tsFile{
		Version:        c.Version,
		Language:       c.Language,
		SourceLanguage: c.SourceLanguage,
	}
	if doc.Version == "" {
		doc.Version = "2.1"
	}

	pos := make(map[string]int)
	for _, u := range c.units {
		i, ok := pos[u.Context]
		if !ok {
			i = len(doc.Contexts)
			pos[u.Context] = i
			doc.Contexts = append(doc.Contexts, tsContext{Name: u.Context})
		}
		m := tsMessage{
			Source:       u.Source,
			Comment:      u.Comment,
			ExtraComment: u.ExtraComment,
			Translation:  tsTranslation{Type: u.Type, Text: u.Translation},
		}
		for _, l := range u.Locations {
			m.Locations = append(m.Locations, tsLocation{Filename: l.Filename, Line: l.Line})
		}
		doc.Contexts[i].Messages = append(doc.Contexts[i].Messages, m)
	}

	if _, err := io.WriteString(w, `<?xml version="1.0" encoding="utf-8"?>`+"\n<!DOCTYPE TS>\n"); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode ts: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}
