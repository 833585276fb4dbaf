package main

import (
	"context"
	"fmt"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"io"
	"os"
	"tablestackdeployer/cfnutils"
	"tablestackdeployer/config"
	"tablestackdeployer/stackdeployment/awsdao"
	"tablestackdeployer/stackdeployment/model"
	"tablestackdeployer/stackdeployment/services"
	"tablestackdeployer/utils"
)

func main() {
	if err := newRootCommand(config.NewViper()).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newRootCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stack-deployer",
		Short:         "Render or deploy the DynamoDB table stack outside Lambda",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newRenderCommand(), newDeployCommand(v))
	return cmd
}

func newRenderCommand() *cobra.Command {
	var tableName, format string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print the CloudFormation template for a table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRender(cmd.OutOrStdout(), tableName, format)
		},
	}
	cmd.Flags().StringVar(&tableName, "table", "", "table name")
	cmd.Flags().StringVar(&format, "format", string(cfnutils.FormatJSON), "template format (json or yaml)")
	_ = cmd.MarkFlagRequired("table")
	return cmd
}

func runRender(out io.Writer, tableName string, format string) error {
	if err := (model.DeploymentRequest{TableName: tableName}).Validate(); err != nil {
		return err
	}
	parsedFormat, err := cfnutils.ParseFormat(format)
	if err != nil {
		return err
	}
	body, err := services.RenderTableTemplate(tableName, parsedFormat)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, body)
	return err
}

func newDeployCommand(v *viper.Viper) *cobra.Command {
	var tableName string
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Create or update the stack and publish the deployment notification",
		Long: "Runs the same deployment as the Lambda handler. Settings come from the same environment\n" +
			"variables (NOTIFICATION_TOPIC_ARN, STACK_NAME, AWS_ENDPOINT_URL, ...) or the flags below.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDeploy(cmd.Context(), cmd.OutOrStdout(), v, tableName)
		},
	}
	cmd.Flags().StringVar(&tableName, "table", "", "table name")
	cmd.Flags().String("stack-name", config.DefaultStackName, "stack name")
	cmd.Flags().String("notification-topic-arn", "", "SNS topic notified after deployment")
	cmd.Flags().String("template-format", string(cfnutils.FormatJSON), "template format (json or yaml)")
	cmd.Flags().Duration("stack-wait-timeout", 0, "wait for the stack to settle, 0 to skip")
	cmd.Flags().String("log-level", "info", "debug, info, warn, or error")
	_ = cmd.MarkFlagRequired("table")
	bindFlags(v, cmd, map[string]string{
		"stack-name":             config.KeyStackName,
		"notification-topic-arn": config.KeyTopicArn,
		"template-format":        config.KeyTemplateFormat,
		"stack-wait-timeout":     config.KeyStackWaitTimeout,
		"log-level":              config.KeyLogLevel,
	})
	return cmd
}

func runDeploy(ctx context.Context, out io.Writer, v *viper.Viper, tableName string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	logger, err := utils.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	service, err := awsdao.BuildDeploymentService(ctx, cfg, config.NewEnvironment(v), logger)
	if err != nil {
		return err
	}

	result, err := service.Deploy(ctx, model.DeploymentRequest{TableName: tableName})
	if err != nil {
		logger.Error("deployment failed", zap.Error(err))
		return err
	}

	_, err = fmt.Fprintf(out, "%v %v (%v) deployment %v, notification %v\n",
		result.Operation, result.StackName, result.StackId, result.DeploymentId, result.MessageId)
	return err
}

// bindFlags makes explicitly set flags take precedence over the environment.
func bindFlags(v *viper.Viper, cmd *cobra.Command, keysByFlag map[string]string) {
	for flagName, key := range keysByFlag {
		cobra.CheckErr(v.BindPFlag(key, cmd.Flags().Lookup(flagName)))
	}
}
