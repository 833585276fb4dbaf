package main

import (
	"context"
	"encoding/json"
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cfntypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/smithy-go"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"net/http"
	"tablestackdeployer/cfnutils"
	"tablestackdeployer/stackdeployment/awsdao"
	"tablestackdeployer/stackdeployment/model"
	"tablestackdeployer/stackdeployment/services"
	"testing"
)

type cloudFormationFake struct {
	stackExists  bool
	operationErr error

	calls        []string
	templateBody string
}

func (f *cloudFormationFake) DescribeStacks(_ context.Context, _ *cloudformation.DescribeStacksInput, _ ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error) {
	f.calls = append(f.calls, "describe")
	if !f.stackExists {
		return nil, &smithy.GenericAPIError{Code: "ValidationError", Message: "Stack with id MyDynamoDBStack does not exist"}
	}
	return &cloudformation.DescribeStacksOutput{Stacks: []cfntypes.Stack{{StackName: aws.String("MyDynamoDBStack")}}}, nil
}

func (f *cloudFormationFake) CreateStack(_ context.Context, params *cloudformation.CreateStackInput, _ ...func(*cloudformation.Options)) (*cloudformation.CreateStackOutput, error) {
	f.calls = append(f.calls, "create")
	f.templateBody = aws.ToString(params.TemplateBody)
	if f.operationErr != nil {
		return nil, f.operationErr
	}
	return &cloudformation.CreateStackOutput{StackId: aws.String("stack-id")}, nil
}

func (f *cloudFormationFake) UpdateStack(_ context.Context, params *cloudformation.UpdateStackInput, _ ...func(*cloudformation.Options)) (*cloudformation.UpdateStackOutput, error) {
	f.calls = append(f.calls, "update")
	f.templateBody = aws.ToString(params.TemplateBody)
	if f.operationErr != nil {
		return nil, f.operationErr
	}
	return &cloudformation.UpdateStackOutput{StackId: aws.String("stack-id")}, nil
}

type snsFake struct {
	err    error
	inputs []*sns.PublishInput
}

func (f *snsFake) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-1")}, nil
}

type staticEnvironment struct{}

func (staticEnvironment) AccountId() string { return "123456789012" }
func (staticEnvironment) Region() string    { return "eu-west-3" }

func newTestHandler(cfn *cloudFormationFake, topic *snsFake) func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger := zap.NewNop()
	deployer := services.NewDeploymentService(
		awsdao.NewStackCfnDao(cfn, logger),
		awsdao.NewNotificationSnsDao(topic),
		staticEnvironment{},
		services.DeploymentParameters{
			StackName:      "MyDynamoDBStack",
			TopicArn:       "arn:aws:sns:eu-west-3:123456789012:deployments",
			TemplateFormat: cfnutils.FormatJSON,
		},
		logger,
	)
	return newHandler(deployer, logger)
}

func TestHandlerRejectsInvalidBodies(t *testing.T) {
	for _, body := range []string{`{"TableName": ""}`, `{}`, `{"TableName":`} {
		cfn := &cloudFormationFake{}
		topic := &snsFake{}
		handler := newTestHandler(cfn, topic)

		response, err := handler(context.Background(), events.APIGatewayProxyRequest{Body: body})
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, response.StatusCode, body)
		assert.JSONEq(t, `{"error": "Table name is required in the request body."}`, response.Body)
		assert.Empty(t, cfn.calls, body)
		assert.Empty(t, topic.inputs, body)
	}
}

func TestHandlerCreatesStack(t *testing.T) {
	cfn := &cloudFormationFake{}
	topic := &snsFake{}
	handler := newTestHandler(cfn, topic)

	ctx := lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{AwsRequestID: "req-1"})
	response, err := handler(ctx, events.APIGatewayProxyRequest{Body: `{"TableName": "Orders"}`})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, response.StatusCode)
	assert.JSONEq(t, `{"message": "CloudFormation stack deployment successful."}`, response.Body)
	assert.Equal(t, []string{"describe", "create"}, cfn.calls)

	var tmpl cfnutils.Template
	require.NoError(t, json.Unmarshal([]byte(cfn.templateBody), &tmpl))
	assert.Equal(t, "Orders", tmpl.Resources["DynamoDBTable"].Properties["TableName"])

	require.Len(t, topic.inputs, 1)
	assert.Equal(t, "CloudFormation stack deployed successfully in account 123456789012 and region eu-west-3", aws.ToString(topic.inputs[0].Message))
	assert.Equal(t, "CloudFormation Stack Deployment", aws.ToString(topic.inputs[0].Subject))
}

func TestHandlerUpdatesExistingStack(t *testing.T) {
	cfn := &cloudFormationFake{stackExists: true}
	topic := &snsFake{}
	handler := newTestHandler(cfn, topic)

	response, err := handler(context.Background(), events.APIGatewayProxyRequest{Body: `{"TableName": "Orders"}`})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, response.StatusCode)
	assert.Equal(t, []string{"describe", "update"}, cfn.calls)
	assert.Len(t, topic.inputs, 1)
}

func TestHandlerStackFailure(t *testing.T) {
	cfn := &cloudFormationFake{operationErr: &smithy.GenericAPIError{Code: "AccessDenied", Message: "not authorized"}}
	topic := &snsFake{}
	handler := newTestHandler(cfn, topic)

	response, err := handler(context.Background(), events.APIGatewayProxyRequest{Body: `{"TableName": "Orders"}`})
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, response.StatusCode)
	assert.JSONEq(t, `{"error": "Error deploying CloudFormation stack."}`, response.Body)
	assert.Empty(t, topic.inputs)
}

func TestHandlerUnchangedStackFails(t *testing.T) {
	cfn := &cloudFormationFake{
		stackExists:  true,
		operationErr: &smithy.GenericAPIError{Code: "ValidationError", Message: "No updates are to be performed."},
	}
	topic := &snsFake{}
	handler := newTestHandler(cfn, topic)

	response, err := handler(context.Background(), events.APIGatewayProxyRequest{Body: `{"TableName": "Orders"}`})
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, response.StatusCode)
	assert.JSONEq(t, `{"error": "Error deploying CloudFormation stack."}`, response.Body)
	assert.Equal(t, []string{"describe", "update"}, cfn.calls)
	assert.Empty(t, topic.inputs)
}

type deployerStub struct {
	err   error
	calls int
}

func (d *deployerStub) Deploy(_ context.Context, _ model.DeploymentRequest) (model.DeploymentResult, error) {
	d.calls++
	return model.DeploymentResult{}, d.err
}

// Requests are validated once, before the deployer runs; every deployer error is a 500.
func TestHandlerMapsDeployerErrorsToInternalError(t *testing.T) {
	deployer := &deployerStub{err: errors.Wrap(model.ErrTableNameRequired, "unexpected")}
	handler := newHandler(deployer, zap.NewNop())

	response, err := handler(context.Background(), events.APIGatewayProxyRequest{Body: `{"TableName": "Orders"}`})
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, response.StatusCode)
	assert.Equal(t, 1, deployer.calls)

	response, err = handler(context.Background(), events.APIGatewayProxyRequest{Body: `{}`})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, response.StatusCode)
	assert.Equal(t, 1, deployer.calls)
}

// A stack that was created but whose notification failed is still reported as a failed deployment.
func TestHandlerPublishFailureAfterCreate(t *testing.T) {
	cfn := &cloudFormationFake{}
	topic := &snsFake{err: errors.New("topic does not exist")}
	handler := newTestHandler(cfn, topic)

	response, err := handler(context.Background(), events.APIGatewayProxyRequest{Body: `{"TableName": "Orders"}`})
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, response.StatusCode)
	assert.JSONEq(t, `{"error": "Error deploying CloudFormation stack."}`, response.Body)
	assert.Equal(t, []string{"describe", "create"}, cfn.calls)
}

func TestSetup(t *testing.T) {
	t.Setenv("NOTIFICATION_TOPIC_ARN", "arn:aws:sns:eu-west-3:123456789012:deployments")
	t.Setenv("AWS_REGION", "eu-west-3")
	t.Setenv("AWS_ENDPOINT_URL", "http://localhost:4566")

	deployer, logger, err := setup(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, deployer)
	assert.NotNil(t, logger)
}

func TestSetupWithoutTopic(t *testing.T) {
	t.Setenv("NOTIFICATION_TOPIC_ARN", "")

	_, _, err := setup(context.Background())
	assert.Error(t, err)
}
