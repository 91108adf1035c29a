package openapidoc

import "github.com/getkin/kin-openapi/openapi3"

func addTrainingPaths(spec *openapi3.T) {
	op := &openapi3.Operation{
		OperationID: "analyzeArticlePatterns",
		Summary:     "Mine keyword-frequency patterns across a domain's ingested articles",
		Tags:        []string{"Training"},
		RequestBody: &openapi3.RequestBodyRef{Value: &openapi3.RequestBody{
			Required: true,
			Content: map[string]*openapi3.MediaType{
				"application/json": {Schema: &openapi3.SchemaRef{Value: &openapi3.Schema{
					Type:     &openapi3.Types{"object"},
					Required: []string{"domain"},
					Properties: map[string]*openapi3.SchemaRef{
						"domain":    {Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}},
						"top_count": {Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}}},
					},
				}}},
			},
		}},
	}
	op.AddResponse(200, jsonResponse(200, "Ranked keyword patterns"))
	errorResponse(op, 400)
	spec.Paths.Set("/articles/training/analyze", &openapi3.PathItem{Post: op})
}
