// Package awslambda adapts an http.Handler to run behind API Gateway or a
// Lambda Function URL, by recording the handler's output with
// responseRecorder and translating it back into the shape Lambda expects.
package awslambda

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/soapbridge/proxy/internal/logger"
)

// HandleLambdaRequest routes a raw Lambda invocation event to handler,
// supporting both API Gateway proxy integration and Lambda Function URLs.
func HandleLambdaRequest(handler http.Handler, req json.RawMessage) (interface{}, error) {
	var apiGatewayReq events.APIGatewayProxyRequest
	var lambdaFunctionURLReq events.LambdaFunctionURLRequest

	if err := json.Unmarshal(req, &apiGatewayReq); err == nil && apiGatewayReq.HTTPMethod != "" {
		return handleAPIGatewayProxyRequest(handler, apiGatewayReq)
	} else if err := json.Unmarshal(req, &lambdaFunctionURLReq); err == nil && lambdaFunctionURLReq.RequestContext.HTTP.Method != "" {
		return handleLambdaFunctionURLRequest(handler, lambdaFunctionURLReq)
	}
	return events.LambdaFunctionURLResponse{StatusCode: 400, Body: "unsupported request type"}, nil
}

func handleAPIGatewayProxyRequest(handler http.Handler, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	httpReq, err := convertLambdaRequestToHTTPRequest(req.HTTPMethod, req.Path, req.Headers, req.Body)
	if err != nil {
		return events.APIGatewayProxyResponse{StatusCode: 500, Body: "failed to convert request"}, nil
	}
	logger.Debugf("lambda request: %s %s", httpReq.Method, httpReq.URL.String())

	recorder := &responseRecorder{Headers: make(http.Header)}
	handler.ServeHTTP(recorder, httpReq)
	logger.Debugf("lambda response: %d", recorder.StatusCode)

	return convertHTTPResponseToLambdaResponse(recorder), nil
}

func handleLambdaFunctionURLRequest(handler http.Handler, req events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	httpReq, err := convertLambdaRequestToHTTPRequest(req.RequestContext.HTTP.Method, req.RawPath, req.Headers, req.Body)
	if err != nil {
		return events.LambdaFunctionURLResponse{StatusCode: 500, Body: "failed to convert request"}, nil
	}
	logger.Debugf("lambda request: %s %s", httpReq.Method, httpReq.URL.String())

	recorder := &responseRecorder{Headers: make(http.Header)}
	handler.ServeHTTP(recorder, httpReq)
	logger.Debugf("lambda response: %d", recorder.StatusCode)

	return convertHTTPResponseToLambdaFunctionURLResponse(recorder), nil
}

func convertLambdaRequestToHTTPRequest(method, path string, headers map[string]string, body string) (*http.Request, error) {
	httpReq, err := http.NewRequest(method, path, strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	for key, value := range headers {
		httpReq.Header.Set(key, value)
	}
	return httpReq, nil
}

func convertHTTPResponseToLambdaResponse(recorder *responseRecorder) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: recorder.StatusCode,
		Headers:    convertHTTPHeaderToMap(recorder.Headers),
		Body:       recorder.Body.String(),
	}
}

func convertHTTPResponseToLambdaFunctionURLResponse(recorder *responseRecorder) events.LambdaFunctionURLResponse {
	return events.LambdaFunctionURLResponse{
		StatusCode: recorder.StatusCode,
		Headers:    convertHTTPHeaderToMap(recorder.Headers),
		Body:       recorder.Body.String(),
	}
}

func convertHTTPHeaderToMap(header http.Header) map[string]string {
	result := make(map[string]string)
	for key, values := range header {
		result[key] = strings.Join(values, ",")
	}
	return result
}
