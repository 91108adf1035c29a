package openapidoc

import "github.com/getkin/kin-openapi/openapi3"

func addScrapingPaths(spec *openapi3.T) {
	scrapeOp := &openapi3.Operation{
		OperationID: "scrape",
		Summary:     "Queue article ingestion for a client domain or a set of domains",
		Tags:        []string{"Scraping"},
		RequestBody: &openapi3.RequestBodyRef{Value: &openapi3.RequestBody{
			Required: true,
			Content: map[string]*openapi3.MediaType{
				"application/json": {Schema: &openapi3.SchemaRef{Value: &openapi3.Schema{
					Type: &openapi3.Types{"object"},
					Properties: map[string]*openapi3.SchemaRef{
						"client_domain":           {Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}},
						"domains":                 {Value: &openapi3.Schema{Type: &openapi3.Types{"array"}, Items: &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}}}},
						"max_articles_per_domain": {Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}}},
					},
				}}},
			},
		}},
	}
	scrapeOp.AddResponse(202, jsonResponse(202, "Scraping queued"))
	errorResponse(scrapeOp, 400)
	spec.Paths.Set("/scraping/scrape", &openapi3.PathItem{Post: scrapeOp})
}
