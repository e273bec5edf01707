package main

import (
	"agentbacktest/api"
	"agentbacktest/cmd"
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"go.uber.org/zap"
)

type lambdaHandler struct {
	ginLambda *ginadapter.GinLambda
}

func (m lambdaHandler) Handler(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	zap.S().Debugw("lambda request", "method", req.HTTPMethod, "path", req.Path)
	return m.ginLambda.ProxyWithContext(ctx, req)
}

func newLambdaHandler(apiHandler *api.ApiHandler) lambdaHandler {
	return lambdaHandler{
		ginLambda: ginadapter.New(apiHandler.InitializeRouterEngine()),
	}
}

func main() {
	apiHandler, err := cmd.InitializeDependencies()
	if err != nil {
		zap.S().Fatal(err)
	}
	defer cmd.CloseDependencies(apiHandler)

	lambda.Start(newLambdaHandler(apiHandler).Handler)
}
