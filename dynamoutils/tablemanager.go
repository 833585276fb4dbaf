package dynamoutils

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	DefaultPartitionKeyName   = "id"
	DefaultReadCapacityUnits  = 5
	DefaultWriteCapacityUnits = 5

	TableResourceType = "AWS::DynamoDB::Table"
)

// TableDefinition describes a table keyed by a single hash attribute.
type TableDefinition struct {
	TableName    string
	PartitionKey AttributeDefinition

	ReadCapacityUnits  int64
	WriteCapacityUnits int64
}

type AttributeDefinition struct {
	Name       string
	ScalarType types.ScalarAttributeType
}

// DefaultTableDefinition describes the table every deployment provisions: numeric hash key "id"
// and 5/5 provisioned throughput.
func DefaultTableDefinition(tableName string) TableDefinition {
	return TableDefinition{
		TableName:          tableName,
		PartitionKey:       AttributeDefinition{DefaultPartitionKeyName, types.ScalarAttributeTypeN},
		ReadCapacityUnits:  DefaultReadCapacityUnits,
		WriteCapacityUnits: DefaultWriteCapacityUnits,
	}
}

// ResourceProperties returns the CloudFormation properties of an AWS::DynamoDB::Table resource.
// Keys and slices are laid out so that serialization is deterministic.
func (td TableDefinition) ResourceProperties() map[string]any {
	attributeDefinitions := []map[string]string{{
		"AttributeName": td.PartitionKey.Name,
		"AttributeType": string(td.PartitionKey.ScalarType),
	}}

	return map[string]any{
		"TableName":            td.TableName,
		"AttributeDefinitions": attributeDefinitions,
		"KeySchema":            createKeySchema(td.PartitionKey.Name),
		"ProvisionedThroughput": map[string]int64{
			"ReadCapacityUnits":  td.ReadCapacityUnits,
			"WriteCapacityUnits": td.WriteCapacityUnits,
		},
	}
}

func createKeySchema(partitionKeyName string) []map[string]string {
	return []map[string]string{{
		"AttributeName": partitionKeyName,
		"KeyType":       string(types.KeyTypeHash),
	}}
}
