package openapidoc

import "github.com/getkin/kin-openapi/openapi3"

func addCompetitorPaths(spec *openapi3.T) {
	searchOp := &openapi3.Operation{
		OperationID: "searchCompetitors",
		Summary:     "Queue competitor discovery for a domain",
		Tags:        []string{"Competitors"},
		RequestBody: &openapi3.RequestBodyRef{Value: &openapi3.RequestBody{
			Required: true,
			Content: map[string]*openapi3.MediaType{
				"application/json": {Schema: &openapi3.SchemaRef{Value: &openapi3.Schema{
					Type:     &openapi3.Types{"object"},
					Required: []string{"domain", "max_competitors"},
					Properties: map[string]*openapi3.SchemaRef{
						"domain":          {Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}},
						"max_competitors": {Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Min: floatPtr(3), Max: floatPtr(100)}},
					},
				}}},
			},
		}},
	}
	searchOp.AddResponse(202, jsonResponse(202, "Competitor search queued"))
	errorResponse(searchOp, 400)
	spec.Paths.Set("/competitors/search", &openapi3.PathItem{Post: searchOp})

	listOp := &openapi3.Operation{
		OperationID: "listCompetitors",
		Summary:     "List recorded competitor domains for a client domain",
		Tags:        []string{"Competitors"},
		Parameters:  openapi3.Parameters{domainPathParam()},
	}
	listOp.AddResponse(200, jsonResponse(200, "Competitor domains"))
	spec.Paths.Set("/competitors/{domain}", &openapi3.PathItem{Get: listOp})

	validateOp := &openapi3.Operation{
		OperationID: "validateCompetitor",
		Summary:     "Manually confirm or exclude a competitor domain",
		Tags:        []string{"Competitors"},
		Parameters:  openapi3.Parameters{domainPathParam()},
		RequestBody: &openapi3.RequestBodyRef{Value: &openapi3.RequestBody{
			Required: true,
			Content: map[string]*openapi3.MediaType{
				"application/json": {Schema: &openapi3.SchemaRef{Value: &openapi3.Schema{
					Type:     &openapi3.Types{"object"},
					Required: []string{"domain"},
					Properties: map[string]*openapi3.SchemaRef{
						"domain":    {Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}},
						"validated": {Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}},
						"excluded":  {Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}},
						"manual":    {Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}},
					},
				}}},
			},
		}},
	}
	validateOp.AddResponse(200, jsonResponse(200, "Updated competitor record"))
	errorResponse(validateOp, 400)
	spec.Paths.Set("/competitors/{domain}/validate", &openapi3.PathItem{Post: validateOp})
}

func floatPtr(f float64) *float64 { return &f }
