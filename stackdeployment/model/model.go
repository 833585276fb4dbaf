package model

import (
	"fmt"
	"github.com/pkg/errors"
)

const (
	DeploymentSuccessfulMessage = "CloudFormation stack deployment successful."
	TableNameRequiredMessage    = "Table name is required in the request body."
	DeploymentFailedMessage     = "Error deploying CloudFormation stack."

	NotificationSubject = "CloudFormation Stack Deployment"
)

var ErrTableNameRequired = errors.New("table name is required")

type DeploymentRequest struct {
	TableName string `json:"TableName"`
}

func (r DeploymentRequest) Validate() error {
	if r.TableName == "" {
		return ErrTableNameRequired
	}
	return nil
}

type StackOperation string

const (
	StackOperationCreate StackOperation = "create"
	StackOperationUpdate StackOperation = "update"
)

type StackOperationResult struct {
	StackId string
}

type DeploymentResult struct {
	DeploymentId string
	StackName    string
	StackId      string
	Operation    StackOperation
	MessageId    string
}

type Notification struct {
	TopicArn   string
	Subject    string
	Message    string
	Attributes map[string]string
}

func NewDeploymentNotification(topicArn string, env Environment, attributes map[string]string) Notification {
	return Notification{
		TopicArn:   topicArn,
		Subject:    NotificationSubject,
		Message:    fmt.Sprintf("CloudFormation stack deployed successfully in account %v and region %v", env.AccountId(), env.Region()),
		Attributes: attributes,
	}
}

type MessageBody struct {
	Message string `json:"message"`
}

type ErrorBody struct {
	Error string `json:"error"`
}
