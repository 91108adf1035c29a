package openapidoc

import "github.com/getkin/kin-openapi/openapi3"

func addTrendPaths(spec *openapi3.T) {
	analyzeOp := &openapi3.Operation{
		OperationID: "analyzeTrends",
		Summary:     "Run the trend extraction pipeline over a client and competitor domains",
		Tags:        []string{"Trends"},
		RequestBody: &openapi3.RequestBodyRef{Value: &openapi3.RequestBody{
			Required: true,
			Content: map[string]*openapi3.MediaType{
				"application/json": {Schema: &openapi3.SchemaRef{Value: &openapi3.Schema{
					Type:     &openapi3.Types{"object"},
					Required: []string{"client_domain", "domains"},
					Properties: map[string]*openapi3.SchemaRef{
						"client_domain":     {Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}},
						"domains":           {Value: &openapi3.Schema{Type: &openapi3.Types{"array"}, Items: &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}}}},
						"time_window_days":  {Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}}},
						"skip_llm":          {Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}},
						"skip_gap_analysis": {Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}},
					},
				}}},
			},
		}},
	}
	analyzeOp.AddResponse(202, jsonResponse(202, "Pipeline started"))
	errorResponse(analyzeOp, 400)
	spec.Paths.Set("/trends/analyze", &openapi3.PathItem{Post: analyzeOp})

	topicsOp := &openapi3.Operation{
		OperationID: "listTopics",
		Summary:     "List topic clusters and their article recommendations",
		Tags:        []string{"Trends"},
		Parameters: openapi3.Parameters{
			{Value: &openapi3.Parameter{Name: "analysis_id", In: "query", Schema: &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}}}}},
			{Value: &openapi3.Parameter{Name: "client_domain", In: "query", Schema: &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}}}},
		},
	}
	topicsOp.AddResponse(200, jsonResponse(200, "Topic clusters"))
	errorResponse(topicsOp, 400)
	errorResponse(topicsOp, 404)
	spec.Paths.Set("/trends/topics", &openapi3.PathItem{Get: topicsOp})
}
