package awsdao

import (
	"context"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/smithy-go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"strings"
	"tablestackdeployer/stackdeployment/model"
	"time"
)

const (
	validationErrorCode  = "ValidationError"
	stackMissingFragment = "does not exist"
)

// CloudFormationClient is the subset of *cloudformation.Client used by StackCfnDao. It also
// satisfies cloudformation.DescribeStacksAPIClient so the SDK waiters accept it.
type CloudFormationClient interface {
	DescribeStacks(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error)
	CreateStack(ctx context.Context, params *cloudformation.CreateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.CreateStackOutput, error)
	UpdateStack(ctx context.Context, params *cloudformation.UpdateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.UpdateStackOutput, error)
}

type StackCfnDao struct {
	client CloudFormationClient
	logger *zap.Logger
}

func NewStackCfnDao(client CloudFormationClient, logger *zap.Logger) *StackCfnDao {
	return &StackCfnDao{client: client, logger: logger}
}

func (dao *StackCfnDao) StackExists(ctx context.Context, stackName string) (bool, error) {
	output, err := dao.client.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(stackName),
	})

	if err != nil {
		if isValidationError(err, stackMissingFragment) {
			dao.logger.Debug("stack not found", zap.String("stack", stackName))
			return false, nil
		}
		return false, errors.Wrapf(err, "could not describe stack %v", stackName)
	}

	return len(output.Stacks) > 0, nil
}

func (dao *StackCfnDao) CreateStack(ctx context.Context, stackName string, templateBody string) (model.StackOperationResult, error) {
	output, err := dao.client.CreateStack(ctx, &cloudformation.CreateStackInput{
		StackName:    aws.String(stackName),
		TemplateBody: aws.String(templateBody),
	})

	if err != nil {
		return model.StackOperationResult{}, errors.Wrapf(err, "could not create stack %v", stackName)
	}

	return model.StackOperationResult{StackId: aws.ToString(output.StackId)}, nil
}

func (dao *StackCfnDao) UpdateStack(ctx context.Context, stackName string, templateBody string) (model.StackOperationResult, error) {
	output, err := dao.client.UpdateStack(ctx, &cloudformation.UpdateStackInput{
		StackName:    aws.String(stackName),
		TemplateBody: aws.String(templateBody),
	})

	// An unchanged template is rejected by CloudFormation and reported like any other failure.
	if err != nil {
		return model.StackOperationResult{}, errors.Wrapf(err, "could not update stack %v", stackName)
	}

	return model.StackOperationResult{StackId: aws.ToString(output.StackId)}, nil
}

func (dao *StackCfnDao) WaitForStack(ctx context.Context, stackName string, operation model.StackOperation, timeout time.Duration) error {
	input := &cloudformation.DescribeStacksInput{StackName: aws.String(stackName)}

	var err error
	switch operation {
	case model.StackOperationCreate:
		err = cloudformation.NewStackCreateCompleteWaiter(dao.client).Wait(ctx, input, timeout)
	case model.StackOperationUpdate:
		err = cloudformation.NewStackUpdateCompleteWaiter(dao.client).Wait(ctx, input, timeout)
	default:
		return errors.Errorf("no waiter for stack operation %q", operation)
	}

	if err != nil {
		return errors.Wrapf(err, "stack %v did not reach %v complete", stackName, operation)
	}
	return nil
}

func isValidationError(err error, messageFragment string) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.ErrorCode() == validationErrorCode && strings.Contains(apiErr.ErrorMessage(), messageFragment)
}
