package openapidoc

import "github.com/getkin/kin-openapi/openapi3"

// addOperationalPaths documents the ambient endpoints that sit outside the
// domain resource groups: health, metrics, and the audit-status websocket.
func addOperationalPaths(spec *openapi3.T) {
	healthOp := &openapi3.Operation{
		OperationID: "healthz",
		Summary:     "Liveness check",
		Tags:        []string{"Operations"},
	}
	healthOp.AddResponse(200, jsonResponse(200, "Service is healthy"))
	spec.Paths.Set("/healthz", &openapi3.PathItem{Get: healthOp})

	metricsOp := &openapi3.Operation{
		OperationID: "metrics",
		Summary:     "Prometheus metrics exposition",
		Tags:        []string{"Operations"},
	}
	metricsOp.AddResponse(200, &openapi3.Response{
		Description: strPtr("Prometheus text exposition format"),
		Content: map[string]*openapi3.MediaType{
			"text/plain": {Schema: &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}}},
		},
	})
	spec.Paths.Set("/metrics", &openapi3.PathItem{Get: metricsOp})

	streamOp := &openapi3.Operation{
		OperationID: "streamAuditStatus",
		Summary:     "Stream audit status updates over a websocket connection",
		Tags:        []string{"Sites", "Audit"},
		Parameters:  openapi3.Parameters{domainPathParam(), executionIDPathParam()},
	}
	streamOp.AddResponse(101, &openapi3.Response{Description: strPtr("Switching Protocols to websocket")})
	spec.Paths.Set("/sites/{domain}/audit/status/{execution_id}/stream", &openapi3.PathItem{Get: streamOp})
}
