// Package cfnutils builds and renders the CloudFormation documents submitted by the deployer.
package cfnutils

import (
	"encoding/json"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	"strings"
	"tablestackdeployer/dynamoutils"
)

const (
	TemplateFormatVersion = "2010-09-09"
	TableResourceName     = "DynamoDBTable"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var ErrUnknownFormat = errors.New("unknown template format")

// ParseFormat accepts "json" or "yaml" (case-insensitive); the empty string selects JSON.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatYAML:
		return FormatYAML, nil
	default:
		return "", errors.Wrapf(ErrUnknownFormat, "%q (expected json or yaml)", s)
	}
}

// Template is a CloudFormation template document.
type Template struct {
	AWSTemplateFormatVersion string                 `json:"AWSTemplateFormatVersion" yaml:"AWSTemplateFormatVersion"`
	Description              string                 `json:"Description,omitempty" yaml:"Description,omitempty"`
	Resources                map[string]ResourceDef `json:"Resources" yaml:"Resources"`
}

// ResourceDef is a single resource in the template.
type ResourceDef struct {
	Type       string         `json:"Type" yaml:"Type"`
	Properties map[string]any `json:"Properties,omitempty" yaml:"Properties,omitempty"`
}

// NewTableTemplate returns a template holding exactly one table resource.
func NewTableTemplate(td dynamoutils.TableDefinition) *Template {
	return &Template{
		AWSTemplateFormatVersion: TemplateFormatVersion,
		Resources: map[string]ResourceDef{
			TableResourceName: {
				Type:       dynamoutils.TableResourceType,
				Properties: td.ResourceProperties(),
			},
		},
	}
}

// Render serializes the template. Map keys are emitted in sorted order by both encoders, so the
// same template always renders to the same bytes.
func (t *Template) Render(format Format) (string, error) {
	var (
		body []byte
		err  error
	)
	switch format {
	case FormatJSON, "":
		body, err = json.Marshal(t)
	case FormatYAML:
		body, err = yaml.Marshal(t)
	default:
		return "", errors.Wrapf(ErrUnknownFormat, "%q", format)
	}
	if err != nil {
		return "", errors.Wrap(err, "could not serialize template")
	}
	return string(body), nil
}
