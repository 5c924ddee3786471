package endpoints

import (
	"fmt"
	"io"
	"strings"

	"cube-panel/models"
)

// Field is one text input of a Form.
type Field struct {
	Name string
}

// Form submits one endpoint. Fields follow the manifest's param order.
type Form struct {
	Endpoint models.EndpointDescriptor
	Fields   []Field
}

type Link struct {
	Href  string
	Label string
}

// Section is everything rendered for one category.
type Section struct {
	Heading string
	Forms   []Form
	Links   []Link
}

// FormFor builds the form for a single descriptor.
func FormFor(d models.EndpointDescriptor) Form {
	f := Form{Endpoint: d, Fields: make([]Field, 0, len(d.Params))}
	for _, p := range d.Params {
		f.Fields = append(f.Fields, Field{Name: p})
	}
	return f
}

// LinkFor builds the labelled link for a single descriptor.
func LinkFor(d models.EndpointDescriptor) Link {
	key := d.Category + "-" + d.Name
	return Link{
		Href:  "/" + key,
		Label: fmt.Sprintf("%s, params: %s, public: %t", key, strings.Join(d.Params, ","), d.Public),
	}
}

// Render lays out m as one section per category, in manifest order.
func Render(m models.Manifest) []Section {
	sections := make([]Section, 0, len(m.Categories))
	for _, c := range m.Categories {
		s := Section{Heading: c.Name}
		for _, d := range c.Endpoints {
			s.Forms = append(s.Forms, FormFor(d))
			s.Links = append(s.Links, LinkFor(d))
		}
		sections = append(sections, s)
	}
	return sections
}

// WriteText prints sections as plain text.
func WriteText(w io.Writer, sections []Section) error {
	for i, s := range sections {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s\n", s.Heading); err != nil {
			return err
		}
		for j, f := range s.Forms {
			names := make([]string, len(f.Fields))
			for k, fld := range f.Fields {
				names[k] = fld.Name
			}
			if _, err := fmt.Fprintf(w, "  %-6s %s\n", f.Endpoint.Method, s.Links[j].Label); err != nil {
				return err
			}
			if len(names) > 0 {
				if _, err := fmt.Fprintf(w, "         fields: %s\n", strings.Join(names, " ")); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
