// Package openapidoc builds the OpenAPI 3.0 document served at
// GET /openapi.json, grounded on the teacher's api.GenerateOpenAPISpec
// (api/openapi.go): a hand-built kin-openapi/openapi3.T assembled by one
// AddXPaths-style function per resource group, rather than a swag-generated
// spec — this module has no controller-annotation comments for swag to
// parse, so the teacher's alternate, equally-idiomatic path (api/openapi.go
// exists alongside the swag-driven cmd/generate-openapi) is the one that
// fits here.
package openapidoc

import (
	"encoding/json"

	"github.com/getkin/kin-openapi/openapi3"
)

// Generate builds the full OpenAPI document for this system's HTTP API.
func Generate() *openapi3.T {
	spec := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       "Editorial Competitive Intelligence API",
			Version:     "1.0.0",
			Description: "Site profiling, competitor discovery, and trend analysis over editorial content.",
		},
		Servers: openapi3.Servers{
			{URL: "http://localhost:8080", Description: "Local development server"},
		},
	}
	spec.Paths = &openapi3.Paths{}
	spec.Components = &openapi3.Components{
		Schemas:    make(openapi3.Schemas),
		Responses:  make(openapi3.ResponseBodies),
		Parameters: make(openapi3.ParametersMap),
	}

	addCommonSchemas(spec)
	addSitePaths(spec)
	addCompetitorPaths(spec)
	addScrapingPaths(spec)
	addTrendPaths(spec)
	addTrainingPaths(spec)
	addExecutionPaths(spec)
	addOperationalPaths(spec)

	return spec
}

// addCommonSchemas registers the shared error envelope every non-2xx
// response uses (internal/httpapi.errorEnvelope).
func addCommonSchemas(spec *openapi3.T) {
	spec.Components.Schemas["ErrorEnvelope"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:     &openapi3.Types{"object"},
			Required: []string{"kind", "message"},
			Properties: map[string]*openapi3.SchemaRef{
				"kind":    {Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}},
				"message": {Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}},
			},
		},
	}
	spec.Components.Responses["Error"] = &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: strPtr("Classified error envelope"),
			Content: map[string]*openapi3.MediaType{
				"application/json": {Schema: &openapi3.SchemaRef{Ref: "#/components/schemas/ErrorEnvelope"}},
			},
		},
	}
}

// errorResponse registers the shared error envelope as op's response for
// status.
func errorResponse(op *openapi3.Operation, status int) {
	op.AddResponse(status, &openapi3.Response{
		Description: strPtr("error"),
		Content: map[string]*openapi3.MediaType{
			"application/json": {Schema: &openapi3.SchemaRef{Ref: "#/components/schemas/ErrorEnvelope"}},
		},
	})
}

func jsonResponse(status int, description string) *openapi3.Response {
	return &openapi3.Response{
		Description: strPtr(description),
		Content: map[string]*openapi3.MediaType{
			"application/json": {Schema: &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"object"}}}},
		},
	}
}

func strPtr(s string) *string { return &s }

// GenerateJSON marshals Generate()'s document to indented JSON, the shape
// served at GET /openapi.json.
func GenerateJSON() ([]byte, error) {
	return json.MarshalIndent(Generate(), "", "  ")
}

// Validate resolves every $ref in the generated document, catching broken
// cross-references between the per-resource Add*Paths functions.
func Validate() error {
	spec := Generate()
	loader := openapi3.NewLoader()
	return loader.ResolveRefsIn(spec, nil)
}
