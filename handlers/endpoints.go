package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"cube-panel/middleware"
	"cube-panel/models"
)

type endpoint struct {
	desc    models.EndpointDescriptor
	handler http.HandlerFunc
}

// Registry holds the endpoints advertised by /getEndpoints and served at
// /<Category>-<name>. Categories are listed in registration order.
type Registry struct {
	auth       *middleware.Auth
	categories []string
	endpoints  map[string][]endpoint
}

func NewRegistry(auth *middleware.Auth) *Registry {
	return &Registry{auth: auth, endpoints: make(map[string][]endpoint)}
}

// Add registers an endpoint. An empty method means GET.
func (g *Registry) Add(desc models.EndpointDescriptor, h http.HandlerFunc) {
	if desc.Method == "" {
		desc.Method = http.MethodGet
	}
	desc.Method = strings.ToUpper(desc.Method)
	if desc.Params == nil {
		desc.Params = []string{}
	}
	if _, seen := g.endpoints[desc.Category]; !seen {
		g.categories = append(g.categories, desc.Category)
	}
	g.endpoints[desc.Category] = append(g.endpoints[desc.Category], endpoint{desc: desc, handler: h})
}

func (g *Registry) lookup(key string) (endpoint, bool) {
	for _, cat := range g.categories {
		for _, e := range g.endpoints[cat] {
			if cat+"-"+e.desc.Name == key {
				return e, true
			}
		}
	}
	return endpoint{}, false
}

// Manifest writes {"<Category>": [{name, params, public, method}, ...], ...}.
// The object is built by hand so the category order survives encoding.
func (g *Registry) Manifest(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, cat := range g.categories {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(cat)
		buf.Write(key)
		buf.WriteByte(':')

		list := make([]models.EndpointDescriptor, 0, len(g.endpoints[cat]))
		for _, e := range g.endpoints[cat] {
			d := e.desc
			d.Category = ""
			list = append(list, d)
		}
		val, err := json.Marshal(list)
		if err != nil {
			errorJSON(w, http.StatusInternalServerError, "failed to encode manifest")
			return
		}
		buf.Write(val)
	}
	buf.WriteByte('}')

	w.Header().Set("Content-Type", "application/json")
	w.Write(buf.Bytes())
}

// Dispatch serves /{endpoint}. Unknown keys fall through to Unknown, and
// private endpoints go through the bearer check first.
func (g *Registry) Dispatch(w http.ResponseWriter, r *http.Request) {
	e, found := g.lookup(r.PathValue("endpoint"))
	if !found {
		Unknown(w, r)
		return
	}
	if r.Method != e.desc.Method {
		authJSON(w, http.StatusMethodNotAllowed, false, "Method not allowed.")
		return
	}
	if e.desc.Public {
		e.handler(w, r)
		return
	}
	g.auth.Require(e.handler)(w, r)
}
