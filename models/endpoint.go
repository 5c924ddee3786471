package models

import "strings"

// EndpointDescriptor describes one callable device endpoint as listed in the
// /getEndpoints manifest. Identity is (Category, Name).
type EndpointDescriptor struct {
	Category string   `json:"category,omitempty"`
	Name     string   `json:"name"`
	Params   []string `json:"params"`
	Public   bool     `json:"public"`
	Method   string   `json:"method"`
}

// Path returns the request path "/<category>-<name>".
func (d EndpointDescriptor) Path() string {
	return "/" + d.Category + "-" + d.Name
}

// IsGet reports whether the endpoint is invoked with a query string.
func (d EndpointDescriptor) IsGet() bool {
	return d.Method == "" || strings.EqualFold(d.Method, "GET")
}

// Manifest is the category-grouped endpoint list. Categories keep the order
// the server sent them in.
type Manifest struct {
	Categories []Category
}

type Category struct {
	Name      string
	Endpoints []EndpointDescriptor
}

// Lookup finds a descriptor by category and name.
func (m Manifest) Lookup(category, name string) (EndpointDescriptor, bool) {
	for _, c := range m.Categories {
		if c.Name != category {
			continue
		}
		for _, e := range c.Endpoints {
			if e.Name == name {
				return e, true
			}
		}
	}
	return EndpointDescriptor{}, false
}

// LookupPath finds a descriptor by its "<category>-<name>" key.
func (m Manifest) LookupPath(key string) (EndpointDescriptor, bool) {
	key = strings.TrimPrefix(key, "/")
	for _, c := range m.Categories {
		for _, e := range c.Endpoints {
			if c.Name+"-"+e.Name == key {
				return e, true
			}
		}
	}
	return EndpointDescriptor{}, false
}
