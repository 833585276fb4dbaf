package awsdao

import (
	"context"
	"go.uber.org/zap"
	"tablestackdeployer/config"
	"tablestackdeployer/lambdautils"
	"tablestackdeployer/stackdeployment/model"
	"tablestackdeployer/stackdeployment/services"
)

// BuildDeploymentService wires a DeploymentService to CloudFormation and SNS clients built from cfg.
func BuildDeploymentService(ctx context.Context, cfg config.Config, environment model.Environment, logger *zap.Logger) (*services.DeploymentService, error) {
	awsCfg, err := lambdautils.LoadAwsConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return services.NewDeploymentService(
		NewStackCfnDao(lambdautils.CreateCloudFormationClient(awsCfg, cfg), logger),
		NewNotificationSnsDao(lambdautils.CreateSnsClient(awsCfg, cfg)),
		environment,
		services.DeploymentParameters{
			StackName:      cfg.StackName,
			TopicArn:       cfg.TopicArn,
			TemplateFormat: cfg.TemplateFormat,
			WaitTimeout:    cfg.WaitTimeout,
		},
		logger,
	), nil
}
