package main

import (
	"context"
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"log"
	"tablestackdeployer/config"
	"tablestackdeployer/lambdautils"
	"tablestackdeployer/stackdeployment/awsdao"
	"tablestackdeployer/stackdeployment/model"
	"tablestackdeployer/utils"
)

type Deployer interface {
	Deploy(ctx context.Context, request model.DeploymentRequest) (model.DeploymentResult, error)
}

// setup runs once per cold start; the SDK clients it builds are reused across invocations.
func setup(ctx context.Context) (Deployer, *zap.Logger, error) {
	v := config.NewViper()
	cfg, err := config.Load(v)
	if err != nil {
		return nil, nil, errors.Wrap(err, "invalid configuration")
	}

	logger, err := utils.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	deployer, err := awsdao.BuildDeploymentService(ctx, cfg, config.NewEnvironment(v), logger)
	if err != nil {
		return nil, nil, err
	}
	return deployer, logger, nil
}

func newHandler(deployer Deployer, logger *zap.Logger) func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return func(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		requestLogger := logger
		if lc, ok := lambdacontext.FromContext(ctx); ok {
			requestLogger = logger.With(zap.String("requestId", lc.AwsRequestID))
		}

		deploymentRequest, err := lambdautils.DecodeDeploymentRequest(request)
		if err != nil {
			requestLogger.Warn("rejected deployment request", zap.Error(err))
			return lambdautils.BadRequestResponse(), nil
		}

		result, err := deployer.Deploy(ctx, deploymentRequest)
		if err != nil {
			requestLogger.Error("Error deploying CloudFormation stack",
				zap.String("table", deploymentRequest.TableName),
				zap.String("stack", result.StackName),
				zap.String("deploymentId", result.DeploymentId),
				zap.String("operation", string(result.Operation)),
				zap.Error(err))
			return lambdautils.InternalErrorResponse(), nil
		}

		return lambdautils.SuccessResponse(), nil
	}
}

func main() {
	deployer, logger, err := setup(context.Background())
	if err != nil {
		log.Fatalf("Could not start the deployment handler: %v", err)
	}
	lambda.Start(newHandler(deployer, logger))
}
