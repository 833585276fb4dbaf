package lambdautils

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/pkg/errors"
	"net/http"
	"tablestackdeployer/config"
	"tablestackdeployer/stackdeployment/model"
)

func LoadAwsConfig(ctx context.Context, cfg config.Config) (aws.Config, error) {
	options := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithClientLogMode(aws.LogRetries),
		awsconfig.WithRetryer(func() aws.Retryer {
			return retry.NewStandard(func(so *retry.StandardOptions) {
				so.MaxAttempts = cfg.MaxAttempts
			})
		}),
	}
	if cfg.Region != "" {
		options = append(options, awsconfig.WithRegion(cfg.Region))
	}
	// Local emulators accept any static key pair.
	if cfg.EndpointUrl != "" {
		options = append(options, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyId, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return aws.Config{}, errors.Wrap(err, "unable to load SDK config")
	}
	return awsCfg, nil
}

func CreateCloudFormationClient(awsCfg aws.Config, cfg config.Config) *cloudformation.Client {
	return cloudformation.NewFromConfig(awsCfg, func(o *cloudformation.Options) {
		if cfg.EndpointUrl != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointUrl)
		}
	})
}

func CreateSnsClient(awsCfg aws.Config, cfg config.Config) *sns.Client {
	return sns.NewFromConfig(awsCfg, func(o *sns.Options) {
		if cfg.EndpointUrl != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointUrl)
		}
	})
}

// DecodeDeploymentRequest parses the proxy request body. A body that cannot be decoded or that
// lacks a table name yields model.ErrTableNameRequired.
func DecodeDeploymentRequest(request events.APIGatewayProxyRequest) (model.DeploymentRequest, error) {
	body := []byte(request.Body)
	if request.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(request.Body)
		if err != nil {
			return model.DeploymentRequest{}, errors.Wrap(model.ErrTableNameRequired, "body is not valid base64")
		}
		body = decoded
	}

	var deploymentRequest model.DeploymentRequest
	if err := json.Unmarshal(body, &deploymentRequest); err != nil {
		return model.DeploymentRequest{}, errors.Wrapf(model.ErrTableNameRequired, "body is not a valid request: %v", err)
	}
	if err := deploymentRequest.Validate(); err != nil {
		return model.DeploymentRequest{}, err
	}
	return deploymentRequest, nil
}

func NewJsonResponse(statusCode int, body any) events.APIGatewayProxyResponse {
	payload, err := json.Marshal(body)
	if err != nil {
		statusCode = http.StatusInternalServerError
		payload = []byte(`{"error":"` + model.DeploymentFailedMessage + `"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(payload),
	}
}

func SuccessResponse() events.APIGatewayProxyResponse {
	return NewJsonResponse(http.StatusOK, model.MessageBody{Message: model.DeploymentSuccessfulMessage})
}

func BadRequestResponse() events.APIGatewayProxyResponse {
	return NewJsonResponse(http.StatusBadRequest, model.ErrorBody{Error: model.TableNameRequiredMessage})
}

func InternalErrorResponse() events.APIGatewayProxyResponse {
	return NewJsonResponse(http.StatusInternalServerError, model.ErrorBody{Error: model.DeploymentFailedMessage})
}
