package dynamodb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"finagotchi-backend/application/ports"
	"finagotchi-backend/domain/evidence"
	"finagotchi-backend/domain/graph"
	"finagotchi-backend/domain/pet"
)

// Fixed-width UTC timestamp for sort keys. RFC3339Nano trims trailing
// zeros, which breaks lexicographic ordering, so a padded layout is
// used instead.
const sortableTimeLayout = "20060102T150405.000000000Z"

// SubjectRepository implements ports.SubjectRepository on a single
// DynamoDB table. Pet state lives under a fixed sort key; interactions
// and overlay edges are append-only items ordered by timestamp. GSI1
// resolves interaction ids back to their subject.
type SubjectRepository struct {
	client    *dynamodb.Client
	tableName string
	indexName string
	logger    *zap.Logger
}

// NewSubjectRepository creates a new SubjectRepository
func NewSubjectRepository(client *dynamodb.Client, tableName, indexName string, logger *zap.Logger) ports.SubjectRepository {
	return &SubjectRepository{
		client:    client,
		tableName: tableName,
		indexName: indexName,
		logger:    logger,
	}
}

// stateItem represents the DynamoDB item structure for pet state
type stateItem struct {
	PK         string         `dynamodbav:"PK"`
	SK         string         `dynamodbav:"SK"`
	EntityType string         `dynamodbav:"EntityType"`
	SubjectID  string         `dynamodbav:"SubjectID"`
	Stats      map[string]int `dynamodbav:"Stats"`
	Path       string         `dynamodbav:"Path"`
	CreatedAt  string         `dynamodbav:"CreatedAt"`
	UpdatedAt  string         `dynamodbav:"UpdatedAt"`
}

// interactionItem represents one logged question/decision pair. The
// evidence and answer travel as JSON blobs to keep attribute types
// stable across round trips.
type interactionItem struct {
	PK            string `dynamodbav:"PK"`
	SK            string `dynamodbav:"SK"`
	GSI1PK        string `dynamodbav:"GSI1PK"`
	GSI1SK        string `dynamodbav:"GSI1SK"`
	EntityType    string `dynamodbav:"EntityType"`
	SubjectID     string `dynamodbav:"SubjectID"`
	InteractionID string `dynamodbav:"InteractionID"`
	Question      string `dynamodbav:"Question"`
	EvidenceJSON  string `dynamodbav:"EvidenceJSON"`
	AnswerJSON    string `dynamodbav:"AnswerJSON"`
	CreatedAt     string `dynamodbav:"CreatedAt"`
}

// overlayEdgeItem represents one append-only overlay edge
type overlayEdgeItem struct {
	PK         string  `dynamodbav:"PK"`
	SK         string  `dynamodbav:"SK"`
	EntityType string  `dynamodbav:"EntityType"`
	SubjectID  string  `dynamodbav:"SubjectID"`
	EdgeID     string  `dynamodbav:"EdgeID"`
	Src        string  `dynamodbav:"Src"`
	Rel        string  `dynamodbav:"Rel"`
	Dst        string  `dynamodbav:"Dst"`
	Weight     float64 `dynamodbav:"Weight"`
	MetaJSON   string  `dynamodbav:"MetaJSON"`
	CreatedAt  string  `dynamodbav:"CreatedAt"`
}

func subjectPK(subjectID string) string {
	return fmt.Sprintf("SUBJECT#%s", subjectID)
}

// GetOrCreateState loads the subject's pet state, writing the fresh
// default with a conditional put when the subject is new. A concurrent
// creation loses the race cleanly: the condition fails and the winner's
// state is re-read.
func (r *SubjectRepository) GetOrCreateState(ctx context.Context, subjectID string, fresh pet.State) (pet.State, error) {
	state, found, err := r.getState(ctx, subjectID)
	if err != nil {
		return pet.State{}, err
	}
	if found {
		return state, nil
	}

	now := time.Now().UTC().Format(time.RFC3339)
	item := stateItem{
		PK:         subjectPK(subjectID),
		SK:         "STATE",
		EntityType: "PET_STATE",
		SubjectID:  subjectID,
		Stats:      fresh.Stats,
		Path:       fresh.Path,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return pet.State{}, fmt.Errorf("failed to marshal pet state: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			// Another writer created the state first; use theirs.
			state, found, err = r.getState(ctx, subjectID)
			if err != nil {
				return pet.State{}, err
			}
			if found {
				return state, nil
			}
		}
		return pet.State{}, fmt.Errorf("failed to create pet state: %w", err)
	}

	r.logger.Info("Created pet state",
		zap.String("subjectID", subjectID),
		zap.String("path", fresh.Path),
	)
	return fresh, nil
}

func (r *SubjectRepository) getState(ctx context.Context, subjectID string) (pet.State, bool, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: subjectPK(subjectID)},
			"SK": &types.AttributeValueMemberS{Value: "STATE"},
		},
	})
	if err != nil {
		return pet.State{}, false, fmt.Errorf("failed to get pet state: %w", err)
	}
	if result.Item == nil {
		return pet.State{}, false, nil
	}

	var item stateItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return pet.State{}, false, fmt.Errorf("failed to unmarshal pet state: %w", err)
	}
	return pet.State{SubjectID: item.SubjectID, Stats: item.Stats, Path: item.Path}, true, nil
}

// SaveState persists the subject's pet state. Only the mutable fields
// are written; the creation timestamp set when the state was first
// stored is left untouched.
func (r *SubjectRepository) SaveState(ctx context.Context, state pet.State) error {
	input, err := saveStateInput(r.tableName, state, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to marshal pet state: %w", err)
	}

	if _, err := r.client.UpdateItem(ctx, input); err != nil {
		r.logger.Error("Failed to save pet state",
			zap.Error(err),
			zap.String("subjectID", state.SubjectID),
		)
		return fmt.Errorf("failed to save pet state: %w", err)
	}
	return nil
}

// saveStateInput updates stats, path and UpdatedAt in place. CreatedAt
// and the key attributes are only written when the item does not exist
// yet. Stats and Path are aliased since both collide with DynamoDB
// reserved words.
func saveStateInput(tableName string, state pet.State, now string) (*dynamodb.UpdateItemInput, error) {
	stats, err := attributevalue.Marshal(state.Stats)
	if err != nil {
		return nil, err
	}

	return &dynamodb.UpdateItemInput{
		TableName: aws.String(tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: subjectPK(state.SubjectID)},
			"SK": &types.AttributeValueMemberS{Value: "STATE"},
		},
		UpdateExpression: aws.String("SET #stats = :stats, #path = :path, UpdatedAt = :now, " +
			"EntityType = if_not_exists(EntityType, :entity_type), " +
			"SubjectID = if_not_exists(SubjectID, :subject_id), " +
			"CreatedAt = if_not_exists(CreatedAt, :now)"),
		ExpressionAttributeNames: map[string]string{
			"#stats": "Stats",
			"#path":  "Path",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":stats":       stats,
			":path":        &types.AttributeValueMemberS{Value: state.Path},
			":now":         &types.AttributeValueMemberS{Value: now},
			":entity_type": &types.AttributeValueMemberS{Value: "PET_STATE"},
			":subject_id":  &types.AttributeValueMemberS{Value: state.SubjectID},
		},
	}, nil
}

// RecordInteraction appends one interaction item and returns its id
func (r *SubjectRepository) RecordInteraction(ctx context.Context, subjectID string, question string, items []evidence.Item, decision evidence.Decision) (string, error) {
	interactionID := uuid.New().String()
	now := time.Now().UTC()

	evidenceJSON, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to marshal evidence: %w", err)
	}
	answerJSON, err := json.Marshal(decision)
	if err != nil {
		return "", fmt.Errorf("failed to marshal decision: %w", err)
	}

	item := interactionItem{
		PK:            subjectPK(subjectID),
		SK:            fmt.Sprintf("INTERACTION#%s#%s", now.Format(sortableTimeLayout), interactionID),
		GSI1PK:        fmt.Sprintf("INTERACTION#%s", interactionID),
		GSI1SK:        "METADATA",
		EntityType:    "INTERACTION",
		SubjectID:     subjectID,
		InteractionID: interactionID,
		Question:      question,
		EvidenceJSON:  string(evidenceJSON),
		AnswerJSON:    string(answerJSON),
		CreatedAt:     now.Format(time.RFC3339Nano),
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return "", fmt.Errorf("failed to marshal interaction: %w", err)
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}); err != nil {
		r.logger.Error("Failed to record interaction",
			zap.Error(err),
			zap.String("subjectID", subjectID),
			zap.String("interactionID", interactionID),
		)
		return "", fmt.Errorf("failed to record interaction: %w", err)
	}
	return interactionID, nil
}

// ResolveSubjectForInteraction looks up the owning subject via GSI1.
// Returns "" without error when the interaction id is unknown.
func (r *SubjectRepository) ResolveSubjectForInteraction(ctx context.Context, interactionID string) (string, error) {
	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(r.indexName),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND GSI1SK = :sk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("INTERACTION#%s", interactionID)},
			":sk": &types.AttributeValueMemberS{Value: "METADATA"},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return "", fmt.Errorf("failed to query interaction: %w", err)
	}
	if len(result.Items) == 0 {
		return "", nil
	}

	var item interactionItem
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return "", fmt.Errorf("failed to unmarshal interaction: %w", err)
	}
	return item.SubjectID, nil
}

// AppendOverlayEdges appends overlay edges and returns their persisted
// views under the stored edge ids. Existing records are never touched.
// Edges missing src, rel or dst are skipped.
func (r *SubjectRepository) AppendOverlayEdges(ctx context.Context, subjectID string, edges []ports.OverlayEdgeInput) ([]graph.Edge, error) {
	saved := make([]graph.Edge, 0, len(edges))
	for _, edge := range edges {
		if edge.Src == "" || edge.Rel == "" || edge.Dst == "" {
			continue
		}
		edgeID := uuid.New().String()
		now := time.Now().UTC()

		metaJSON := "{}"
		if edge.Meta != nil {
			encoded, err := json.Marshal(edge.Meta)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal edge meta: %w", err)
			}
			metaJSON = string(encoded)
		}

		item := overlayEdgeItem{
			PK:         subjectPK(subjectID),
			SK:         fmt.Sprintf("OVERLAY#%s#%s", now.Format(sortableTimeLayout), edgeID),
			EntityType: "OVERLAY_EDGE",
			SubjectID:  subjectID,
			EdgeID:     edgeID,
			Src:        edge.Src,
			Rel:        edge.Rel,
			Dst:        edge.Dst,
			Weight:     edge.Weight,
			MetaJSON:   metaJSON,
			CreatedAt:  now.Format(time.RFC3339Nano),
		}
		av, err := attributevalue.MarshalMap(item)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal overlay edge: %w", err)
		}

		if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(r.tableName),
			Item:      av,
		}); err != nil {
			r.logger.Error("Failed to append overlay edge",
				zap.Error(err),
				zap.String("subjectID", subjectID),
			)
			return nil, fmt.Errorf("failed to append overlay edge: %w", err)
		}

		saved = append(saved, graph.Edge{
			ID:        edgeID,
			Source:    edge.Src,
			Target:    edge.Dst,
			Label:     edge.Rel,
			Weight:    edge.Weight,
			Meta:      edge.Meta,
			IsOverlay: true,
		})
	}
	return saved, nil
}

// OverlayGraph returns the newest overlay edges as a graph bundle
func (r *SubjectRepository) OverlayGraph(ctx context.Context, subjectID string, limit int) (graph.Bundle, error) {
	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: subjectPK(subjectID)},
			":prefix": &types.AttributeValueMemberS{Value: "OVERLAY#"},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		return graph.Bundle{}, fmt.Errorf("failed to query overlay edges: %w", err)
	}

	var bundle graph.Bundle
	seen := make(map[string]struct{})
	for _, raw := range result.Items {
		var item overlayEdgeItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return graph.Bundle{}, fmt.Errorf("failed to unmarshal overlay edge: %w", err)
		}
		for _, id := range []string{item.Src, item.Dst} {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			bundle.Nodes = append(bundle.Nodes, graph.Node{ID: id, Label: id, Group: "overlay"})
		}
		bundle.Edges = append(bundle.Edges, graph.Edge{
			ID:        fmt.Sprintf("%s->%s:%s", item.Src, item.Rel, item.Dst),
			Source:    item.Src,
			Target:    item.Dst,
			Label:     item.Rel,
			Weight:    item.Weight,
			Meta:      decodeMeta(item.MetaJSON),
			IsOverlay: true,
		})
	}
	return bundle, nil
}

// ListInteractions returns the newest interactions for a subject
func (r *SubjectRepository) ListInteractions(ctx context.Context, subjectID string, limit int) ([]ports.InteractionSummary, error) {
	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: subjectPK(subjectID)},
			":prefix": &types.AttributeValueMemberS{Value: "INTERACTION#"},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}

	summaries := make([]ports.InteractionSummary, 0, len(result.Items))
	for _, raw := range result.Items {
		var item interactionItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal interaction: %w", err)
		}
		// A malformed answer blob downgrades to an empty decision
		// rather than failing the listing.
		var decision evidence.Decision
		if err := json.Unmarshal([]byte(item.AnswerJSON), &decision); err != nil {
			r.logger.Warn("Skipping malformed answer payload",
				zap.String("interactionID", item.InteractionID),
			)
		}
		summaries = append(summaries, ports.InteractionSummary{
			ID:        item.InteractionID,
			Question:  item.Question,
			Decision:  decision,
			CreatedAt: item.CreatedAt,
		})
	}
	return summaries, nil
}

// ExportAll streams the subject's full history in insertion order,
// paginating through every interaction and overlay edge item.
func (r *SubjectRepository) ExportAll(ctx context.Context, subjectID string) ([]ports.ExportRow, error) {
	var rows []ports.ExportRow

	err := r.queryAllForward(ctx, subjectID, "INTERACTION#", func(raw map[string]types.AttributeValue) error {
		var item interactionItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return fmt.Errorf("failed to unmarshal interaction: %w", err)
		}
		var items []evidence.Item
		if err := json.Unmarshal([]byte(item.EvidenceJSON), &items); err != nil {
			items = nil
		}
		var decision evidence.Decision
		if err := json.Unmarshal([]byte(item.AnswerJSON), &decision); err != nil {
			decision = evidence.Decision{}
		}
		rows = append(rows, ports.ExportRow{
			Kind:      "interaction",
			CreatedAt: item.CreatedAt,
			Payload: map[string]any{
				"question":   item.Question,
				"evidence":   items,
				"decision":   decision.Decision,
				"rationale":  decision.Rationale,
				"confidence": decision.Confidence,
			},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = r.queryAllForward(ctx, subjectID, "OVERLAY#", func(raw map[string]types.AttributeValue) error {
		var item overlayEdgeItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return fmt.Errorf("failed to unmarshal overlay edge: %w", err)
		}
		rows = append(rows, ports.ExportRow{
			Kind:      "overlay_edge",
			CreatedAt: item.CreatedAt,
			Payload: map[string]any{
				"src":    item.Src,
				"rel":    item.Rel,
				"dst":    item.Dst,
				"weight": item.Weight,
				"meta":   decodeMeta(item.MetaJSON),
			},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// queryAllForward pages through every item under the subject with the
// given sort key prefix, oldest first.
func (r *SubjectRepository) queryAllForward(ctx context.Context, subjectID, prefix string, visit func(map[string]types.AttributeValue) error) error {
	var startKey map[string]types.AttributeValue
	for {
		result, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(r.tableName),
			KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk":     &types.AttributeValueMemberS{Value: subjectPK(subjectID)},
				":prefix": &types.AttributeValueMemberS{Value: prefix},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return fmt.Errorf("failed to query items: %w", err)
		}
		for _, raw := range result.Items {
			if err := visit(raw); err != nil {
				return err
			}
		}
		if result.LastEvaluatedKey == nil {
			return nil
		}
		startKey = result.LastEvaluatedKey
	}
}

func decodeMeta(metaJSON string) map[string]any {
	if metaJSON == "" {
		return map[string]any{}
	}
	var meta map[string]any
	if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil || meta == nil {
		return map[string]any{}
	}
	return meta
}
