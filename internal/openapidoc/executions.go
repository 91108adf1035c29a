package openapidoc

import "github.com/getkin/kin-openapi/openapi3"

func addExecutionPaths(spec *openapi3.T) {
	op := &openapi3.Operation{
		OperationID: "getExecution",
		Summary:     "Fetch the lifecycle state of any workflow execution",
		Tags:        []string{"Executions"},
		Parameters:  openapi3.Parameters{executionIDPathParam()},
	}
	op.AddResponse(200, jsonResponse(200, "Workflow execution"))
	errorResponse(op, 404)
	spec.Paths.Set("/executions/{execution_id}", &openapi3.PathItem{Get: op})
}
