package dynamodb

import (
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"finagotchi-backend/domain/pet"
)

func TestSaveStateInputPreservesCreatedAt(t *testing.T) {
	state := pet.State{
		SubjectID: "pet-1",
		Stats:     pet.Stats{"risk": 52, "compliance": 51},
		Path:      "Baby Auditor",
	}

	input, err := saveStateInput("finagotchi", state, "2026-08-28T12:00:00Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pk, ok := input.Key["PK"].(*types.AttributeValueMemberS)
	if !ok || pk.Value != "SUBJECT#pet-1" {
		t.Errorf("PK = %v, want SUBJECT#pet-1", input.Key["PK"])
	}
	sk, ok := input.Key["SK"].(*types.AttributeValueMemberS)
	if !ok || sk.Value != "STATE" {
		t.Errorf("SK = %v, want STATE", input.Key["SK"])
	}

	expr := *input.UpdateExpression
	if !strings.Contains(expr, "CreatedAt = if_not_exists(CreatedAt") {
		t.Errorf("expression must keep an existing CreatedAt: %s", expr)
	}
	if strings.Count(expr, "CreatedAt") != 2 {
		t.Errorf("CreatedAt must only appear in the if_not_exists guard: %s", expr)
	}
	if !strings.Contains(expr, "UpdatedAt = :now") {
		t.Errorf("expression must refresh UpdatedAt: %s", expr)
	}

	if input.ExpressionAttributeNames["#stats"] != "Stats" || input.ExpressionAttributeNames["#path"] != "Path" {
		t.Errorf("reserved attribute aliases missing: %v", input.ExpressionAttributeNames)
	}

	path, ok := input.ExpressionAttributeValues[":path"].(*types.AttributeValueMemberS)
	if !ok || path.Value != "Baby Auditor" {
		t.Errorf(":path = %v, want Baby Auditor", input.ExpressionAttributeValues[":path"])
	}
	stats, ok := input.ExpressionAttributeValues[":stats"].(*types.AttributeValueMemberM)
	if !ok || len(stats.Value) != 2 {
		t.Errorf(":stats = %v, want a 2-entry map", input.ExpressionAttributeValues[":stats"])
	}
}
