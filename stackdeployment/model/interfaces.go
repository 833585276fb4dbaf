package model

import (
	"context"
	"time"
)

type StackDao interface {
	StackExists(ctx context.Context, stackName string) (bool, error)
	CreateStack(ctx context.Context, stackName string, templateBody string) (StackOperationResult, error)
	UpdateStack(ctx context.Context, stackName string, templateBody string) (StackOperationResult, error)
	WaitForStack(ctx context.Context, stackName string, operation StackOperation, timeout time.Duration) error
}

type NotificationDao interface {
	Publish(ctx context.Context, notification Notification) (messageId string, err error)
}

// Environment exposes process-level values that are resolved at call time.
type Environment interface {
	AccountId() string
	Region() string
}
