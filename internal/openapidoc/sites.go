package openapidoc

import "github.com/getkin/kin-openapi/openapi3"

// addSitePaths documents the /sites group.
func addSitePaths(spec *openapi3.T) {
	analyzeOp := &openapi3.Operation{
		OperationID: "analyzeSite",
		Summary:     "Queue an editorial-style analysis of a domain",
		Tags:        []string{"Sites"},
		RequestBody: &openapi3.RequestBodyRef{
			Value: &openapi3.RequestBody{
				Required: true,
				Content: map[string]*openapi3.MediaType{
					"application/json": {Schema: &openapi3.SchemaRef{Value: &openapi3.Schema{
						Type:     &openapi3.Types{"object"},
						Required: []string{"domain"},
						Properties: map[string]*openapi3.SchemaRef{
							"domain":    {Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}},
							"max_pages": {Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}}},
						},
					}}},
				},
			},
		},
	}
	analyzeOp.AddResponse(202, jsonResponse(202, "Analysis queued"))
	errorResponse(analyzeOp, 400)
	spec.Paths.Set("/sites/analyze", &openapi3.PathItem{Post: analyzeOp})

	profileOp := &openapi3.Operation{
		OperationID: "getSiteProfile",
		Summary:     "Fetch the latest editorial-style profile for a domain",
		Tags:        []string{"Sites"},
		Parameters:  openapi3.Parameters{domainPathParam()},
	}
	profileOp.AddResponse(200, jsonResponse(200, "Latest site profile"))
	errorResponse(profileOp, 404)
	spec.Paths.Set("/sites/{domain}", &openapi3.PathItem{Get: profileOp})

	historyOp := &openapi3.Operation{
		OperationID: "getSiteHistory",
		Summary:     "Fetch every historical profile for a domain with metric deltas",
		Tags:        []string{"Sites"},
		Parameters:  openapi3.Parameters{domainPathParam()},
	}
	historyOp.AddResponse(200, jsonResponse(200, "Profile history"))
	spec.Paths.Set("/sites/{domain}/history", &openapi3.PathItem{Get: historyOp})

	auditOp := &openapi3.Operation{
		OperationID: "getSiteAudit",
		Summary:     "Check whether a full audit is complete, or launch one",
		Tags:        []string{"Sites", "Audit"},
		Parameters:  openapi3.Parameters{domainPathParam()},
	}
	auditOp.AddResponse(200, jsonResponse(200, "Pending or complete audit result"))
	errorResponse(auditOp, 422)
	spec.Paths.Set("/sites/{domain}/audit", &openapi3.PathItem{Get: auditOp})

	statusOp := &openapi3.Operation{
		OperationID: "getAuditStatus",
		Summary:     "Poll the status of a running audit orchestration",
		Tags:        []string{"Sites", "Audit"},
		Parameters:  openapi3.Parameters{domainPathParam(), executionIDPathParam()},
	}
	statusOp.AddResponse(200, jsonResponse(200, "Audit status"))
	errorResponse(statusOp, 404)
	spec.Paths.Set("/sites/{domain}/audit/status/{execution_id}", &openapi3.PathItem{Get: statusOp})
}

func domainPathParam() *openapi3.ParameterRef {
	return &openapi3.ParameterRef{Value: &openapi3.Parameter{
		Name: "domain", In: "path", Required: true,
		Schema: &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}},
	}}
}

func executionIDPathParam() *openapi3.ParameterRef {
	return &openapi3.ParameterRef{Value: &openapi3.Parameter{
		Name: "execution_id", In: "path", Required: true,
		Schema: &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}},
	}}
}
