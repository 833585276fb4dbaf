// Package config reads the deployer settings from the process environment.
package config

import (
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"strings"
	"tablestackdeployer/cfnutils"
	"time"
)

const (
	KeyStackName        = "stack_name"
	KeyTopicArn         = "notification_topic_arn"
	KeyTemplateFormat   = "template_format"
	KeyStackWaitTimeout = "stack_wait_timeout"
	KeyRegion           = "aws_region"
	KeyAccountId        = "aws_account_id"
	KeyEndpointUrl      = "aws_endpoint_url"
	KeyAccessKeyId      = "aws_access_key_id"
	KeySecretAccessKey  = "aws_secret_access_key"
	KeyMaxAttempts      = "aws_max_attempts"
	KeyLogLevel         = "log_level"

	DefaultStackName = "MyDynamoDBStack"
)

var ErrTopicRequired = errors.New("notification topic ARN is required (set NOTIFICATION_TOPIC_ARN)")

type Config struct {
	StackName      string
	TopicArn       string
	TemplateFormat cfnutils.Format
	WaitTimeout    time.Duration

	Region          string
	EndpointUrl     string
	AccessKeyId     string
	SecretAccessKey string
	MaxAttempts     int

	LogLevel string
}

// NewViper returns a viper instance bound to the environment, with dashes in keys mapped to
// underscores so CLI flag names resolve to the same variables.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyStackName, DefaultStackName)
	v.SetDefault(KeyTemplateFormat, string(cfnutils.FormatJSON))
	v.SetDefault(KeyStackWaitTimeout, "0s")
	v.SetDefault(KeyAccessKeyId, "test")
	v.SetDefault(KeySecretAccessKey, "test")
	v.SetDefault(KeyMaxAttempts, 1)
	v.SetDefault(KeyLogLevel, "info")
	return v
}

func Load(v *viper.Viper) (Config, error) {
	format, err := cfnutils.ParseFormat(v.GetString(KeyTemplateFormat))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		StackName:       v.GetString(KeyStackName),
		TopicArn:        v.GetString(KeyTopicArn),
		TemplateFormat:  format,
		WaitTimeout:     v.GetDuration(KeyStackWaitTimeout),
		Region:          v.GetString(KeyRegion),
		EndpointUrl:     v.GetString(KeyEndpointUrl),
		AccessKeyId:     v.GetString(KeyAccessKeyId),
		SecretAccessKey: v.GetString(KeySecretAccessKey),
		MaxAttempts:     v.GetInt(KeyMaxAttempts),
		LogLevel:        v.GetString(KeyLogLevel),
	}

	if cfg.TopicArn == "" {
		return Config{}, ErrTopicRequired
	}
	if cfg.StackName == "" {
		return Config{}, errors.New("stack name must not be empty")
	}
	if cfg.WaitTimeout < 0 {
		return Config{}, errors.Errorf("stack wait timeout must not be negative, got %v", cfg.WaitTimeout)
	}
	if cfg.MaxAttempts < 1 {
		return Config{}, errors.Errorf("aws max attempts must be at least 1, got %v", cfg.MaxAttempts)
	}
	return cfg, nil
}

// Environment resolves the account and region on every call, so values changed after start-up
// are reflected in the next notification.
type Environment struct {
	v *viper.Viper
}

func NewEnvironment(v *viper.Viper) *Environment {
	return &Environment{v: v}
}

func (e *Environment) AccountId() string {
	return e.v.GetString(KeyAccountId)
}

func (e *Environment) Region() string {
	return e.v.GetString(KeyRegion)
}
