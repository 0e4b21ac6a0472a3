// Package swagger serves the OpenAPI description of the HTTP API.
package swagger

import (
	"context"
	"errors"
	"net/http"
)

// Error constants.
var (
	ErrServe = errors.New("swagger serve failed")
)

type document struct {
	path        string
	contentType string
	body        []byte
}

func documents() []document {
	return []document{
		{path: "/api-docs", contentType: "text/html; charset=utf-8", body: []byte(indexHTML)},
		{path: "/openapi.yaml", contentType: "application/yaml; charset=utf-8", body: OpenAPI},
	}
}

// Register attaches the API docs routes to mux: a ReDoc page at /api-docs
// rendering the embedded document served at /openapi.yaml.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	for _, doc := range documents() {
		mux.HandleFunc(doc.path, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", doc.contentType)
			_, _ = w.Write(doc.body)
		})
	}
}

const indexHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8">
    <title>Tc reanalysis API</title>
    <style>body{margin:0;padding:0}</style>
  </head>
  <body>
    <redoc id="redoc-container"></redoc>
    <script src="https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js"></script>
    <script>Redoc.init('/openapi.yaml', { suppressWarnings: true }, document.getElementById('redoc-container'));</script>
  </body>
</html>`
