package services

import (
	"context"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"tablestackdeployer/cfnutils"
	"tablestackdeployer/dynamoutils"
	"tablestackdeployer/stackdeployment/model"
	"time"
)

type DeploymentParameters struct {
	StackName      string
	TopicArn       string
	TemplateFormat cfnutils.Format
	// WaitTimeout bounds the wait for the stack to settle. Zero submits without waiting.
	WaitTimeout time.Duration
}

type DeploymentService struct {
	stackDao        model.StackDao
	notificationDao model.NotificationDao
	environment     model.Environment
	params          DeploymentParameters
	logger          *zap.Logger

	newDeploymentId func() string
}

func NewDeploymentService(
	stackDao model.StackDao,
	notificationDao model.NotificationDao,
	environment model.Environment,
	params DeploymentParameters,
	logger *zap.Logger) *DeploymentService {
	return &DeploymentService{
		stackDao:        stackDao,
		notificationDao: notificationDao,
		environment:     environment,
		params:          params,
		logger:          logger,
		newDeploymentId: uuid.NewString,
	}
}

// Deploy creates the stack when it does not exist yet, updates it otherwise, and then publishes
// the deployment notification. Every step runs only after the previous one succeeded; there is
// no rollback, so a failed publish after a successful stack operation is still reported as a
// failure.
func (ds *DeploymentService) Deploy(ctx context.Context, request model.DeploymentRequest) (model.DeploymentResult, error) {
	if err := request.Validate(); err != nil {
		return model.DeploymentResult{}, err
	}

	result := model.DeploymentResult{
		DeploymentId: ds.newDeploymentId(),
		StackName:    ds.params.StackName,
	}
	logger := ds.logger.With(
		zap.String("deploymentId", result.DeploymentId),
		zap.String("stack", result.StackName),
		zap.String("table", request.TableName),
	)

	templateBody, err := RenderTableTemplate(request.TableName, ds.params.TemplateFormat)
	if err != nil {
		return result, err
	}

	exists, err := ds.stackDao.StackExists(ctx, ds.params.StackName)
	if err != nil {
		return result, errors.Wrap(err, "stack lookup failed")
	}

	var operationResult model.StackOperationResult
	if exists {
		result.Operation = model.StackOperationUpdate
		logger.Info("updating stack")
		operationResult, err = ds.stackDao.UpdateStack(ctx, ds.params.StackName, templateBody)
	} else {
		result.Operation = model.StackOperationCreate
		logger.Info("creating stack")
		operationResult, err = ds.stackDao.CreateStack(ctx, ds.params.StackName, templateBody)
	}
	if err != nil {
		return result, errors.Wrapf(err, "stack %v failed", result.Operation)
	}
	result.StackId = operationResult.StackId
	logger = logger.With(zap.String("operation", string(result.Operation)))

	if ds.params.WaitTimeout > 0 {
		logger.Info("waiting for stack", zap.Duration("timeout", ds.params.WaitTimeout))
		if err = ds.stackDao.WaitForStack(ctx, ds.params.StackName, result.Operation, ds.params.WaitTimeout); err != nil {
			return result, err
		}
	}

	notification := model.NewDeploymentNotification(ds.params.TopicArn, ds.environment, map[string]string{
		"deploymentId": result.DeploymentId,
		"operation":    string(result.Operation),
		"tableName":    request.TableName,
	})
	result.MessageId, err = ds.notificationDao.Publish(ctx, notification)
	if err != nil {
		return result, errors.Wrap(err, "deployment notification failed")
	}

	logger.Info("stack deployed", zap.String("stackId", result.StackId), zap.String("messageId", result.MessageId))
	return result, nil
}

// RenderTableTemplate renders the template for the default table definition of tableName.
func RenderTableTemplate(tableName string, format cfnutils.Format) (string, error) {
	templateBody, err := cfnutils.NewTableTemplate(dynamoutils.DefaultTableDefinition(tableName)).Render(format)
	if err != nil {
		return "", errors.Wrap(err, "template generation failed")
	}
	return templateBody, nil
}
