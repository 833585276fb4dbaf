package awsdao

import (
	"context"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/pkg/errors"
	"tablestackdeployer/stackdeployment/model"
)

type SnsClient interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type NotificationSnsDao struct {
	client SnsClient
}

func NewNotificationSnsDao(client SnsClient) *NotificationSnsDao {
	return &NotificationSnsDao{client: client}
}

func (dao *NotificationSnsDao) Publish(ctx context.Context, notification model.Notification) (string, error) {
	output, err := dao.client.Publish(ctx, &sns.PublishInput{
		TopicArn:          aws.String(notification.TopicArn),
		Subject:           aws.String(notification.Subject),
		Message:           aws.String(notification.Message),
		MessageAttributes: buildMessageAttributes(notification.Attributes),
	})

	if err != nil {
		return "", errors.Wrapf(err, "could not publish to topic %v", notification.TopicArn)
	}

	return aws.ToString(output.MessageId), nil
}

// SNS rejects attributes with an empty value, so those are dropped.
func buildMessageAttributes(attributes map[string]string) map[string]types.MessageAttributeValue {
	var messageAttributes map[string]types.MessageAttributeValue
	for name, value := range attributes {
		if value == "" {
			continue
		}
		if messageAttributes == nil {
			messageAttributes = make(map[string]types.MessageAttributeValue, len(attributes))
		}
		messageAttributes[name] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(value),
		}
	}
	return messageAttributes
}
