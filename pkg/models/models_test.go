package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const requiredTag = "required"

var testTime = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func stringPtr(s string) *string { return &s }

// Document Model Tests

func TestNewDocument(t *testing.T) {
	doc := NewDocument(testTime)

	require.Len(t, doc.Nodes, 1)
	assert.Equal(t, StartNodeID, doc.Nodes[0].ID)
	assert.Equal(t, NodeKindStart, doc.Nodes[0].Kind)
	assert.Equal(t, DefaultStartPosition, doc.Nodes[0].Position)
	assert.Equal(t, "Start", doc.Nodes[0].Attributes.Label)
	assert.Empty(t, doc.Edges)
	assert.Equal(t, DefaultDocumentVersion, doc.Metadata.Version)
	assert.Equal(t, DefaultDocumentAuthor, doc.Metadata.Author)
	assert.Equal(t, testTime, doc.Metadata.UpdatedAt)
}

func TestWorkflowDocument_Clone(t *testing.T) {
	doc := NewDocument(testTime)
	doc.Nodes = append(doc.Nodes, &GraphNode{ID: "a1", Kind: NodeKindApproval, Attributes: NodeAttributes{RecipientEmail: "boss@example.com"}})
	doc.Edges = append(doc.Edges, &GraphEdge{ID: "e1", SourceNodeID: StartNodeID, TargetNodeID: "a1"})

	clone := doc.Clone()
	require.Equal(t, doc, clone)

	clone.Nodes[1].Attributes.RecipientEmail = "other@example.com"
	clone.Edges[0].TargetNodeID = "elsewhere"

	assert.Equal(t, "boss@example.com", doc.Nodes[1].Attributes.RecipientEmail)
	assert.Equal(t, "a1", doc.Edges[0].TargetNodeID)

	var nilDoc *WorkflowDocument
	assert.Nil(t, nilDoc.Clone())

	empty := (&WorkflowDocument{}).Clone()
	assert.NotNil(t, empty.Nodes)
	assert.NotNil(t, empty.Edges)
}

func TestWorkflowDocument_Lookups(t *testing.T) {
	doc := NewDocument(testTime)
	doc.Nodes = append(doc.Nodes,
		&GraphNode{ID: "a1", Kind: NodeKindApproval},
		&GraphNode{ID: "end", Kind: NodeKindEnd},
	)
	doc.Edges = append(doc.Edges,
		&GraphEdge{ID: "e1", SourceNodeID: StartNodeID, TargetNodeID: "a1"},
		&GraphEdge{ID: "e2", SourceNodeID: "a1", TargetNodeID: "end", Attributes: EdgeAttributes{Branch: BranchDeny}},
	)

	assert.Equal(t, NodeKindApproval, doc.NodeByID("a1").Kind)
	assert.Nil(t, doc.NodeByID("missing"))
	assert.Equal(t, "end", doc.EdgeByID("e2").TargetNodeID)
	assert.Nil(t, doc.EdgeByID("missing"))
	assert.Len(t, doc.NodeIndex(), 3)

	incident := doc.IncidentEdges("a1")
	require.Len(t, incident, 2)
	assert.Equal(t, "e1", incident[0].ID)
	assert.Equal(t, "e2", incident[1].ID)
	assert.Len(t, doc.IncidentEdges("end"), 1)
}

func TestWorkflowDocument_Validation(t *testing.T) {
	validate := validator.New()

	doc := NewDocument(testTime)
	require.NoError(t, validate.Struct(doc))

	doc.Nodes = append(doc.Nodes, &GraphNode{ID: "x", Kind: "email"})
	doc.Edges = append(doc.Edges, &GraphEdge{ID: "e1", SourceNodeID: StartNodeID})

	err := validate.Struct(doc)
	require.Error(t, err)

	var validationErrors validator.ValidationErrors
	require.True(t, errors.As(err, &validationErrors))

	tags := map[string]string{}
	for _, fieldErr := range validationErrors {
		tags[fieldErr.Field()] = fieldErr.Tag()
	}

	assert.Equal(t, "oneof", tags["Kind"])
	assert.Equal(t, requiredTag, tags["TargetNodeID"])
}

// Node Model Tests

func TestParseNodeKind(t *testing.T) {
	tests := []struct {
		input string
		kind  NodeKind
		ok    bool
	}{
		{input: "approval", kind: NodeKindApproval, ok: true},
		{input: "Approval", kind: NodeKindApproval, ok: true},
		{input: " END ", kind: NodeKindEnd, ok: true},
		{input: "notify", kind: NodeKindNotify, ok: true},
		{input: "email", kind: "email", ok: false},
		{input: "", kind: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			kind, ok := ParseNodeKind(tt.input)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestNodeKinds_PaletteOrder(t *testing.T) {
	assert.Equal(t, []NodeKind{NodeKindStart, NodeKindApproval, NodeKindNotify, NodeKindEnd}, NodeKinds)

	for _, kind := range NodeKinds {
		assert.True(t, kind.Valid(), kind)
	}

	assert.False(t, NodeKind("email").Valid())
	assert.False(t, NodeKind("").Valid())
}

func TestGraphNode_UnmarshalLegacyType(t *testing.T) {
	var node GraphNode
	require.NoError(t, json.Unmarshal([]byte(`{"id":"n1","type":"approval","position":{"x":1,"y":2}}`), &node))

	assert.Equal(t, "n1", node.ID)
	assert.Equal(t, NodeKindApproval, node.Kind)
	assert.Equal(t, Position{X: 1, Y: 2}, node.Position)

	require.NoError(t, json.Unmarshal([]byte(`{"id":"n2","kind":"notify","type":"approval"}`), &node))
	assert.Equal(t, NodeKindNotify, node.Kind)
}

func TestNodeAttributes_Merge(t *testing.T) {
	attrs := NodeAttributes{Label: "Approval", RecipientEmail: "a@example.com"}

	merged := attrs.Merge(NodeAttributesPatch{RecipientEmail: stringPtr("b@example.com"), ApproverName: stringPtr("Bea")})

	assert.Equal(t, NodeAttributes{Label: "Approval", RecipientEmail: "b@example.com", ApproverName: "Bea"}, merged)
	assert.Equal(t, "a@example.com", attrs.RecipientEmail)
	assert.True(t, NodeAttributesPatch{}.IsEmpty())
	assert.False(t, NodeAttributes{RecipientEmail: "  "}.HasRecipient())
	assert.True(t, merged.HasRecipient())
}

func TestPosition_Offset(t *testing.T) {
	assert.Equal(t, Position{X: 280, Y: 300}, Position{X: 100, Y: 200}.Offset(180, 100))
}

// Edge Model Tests

func TestEdgeAttributes_Merge(t *testing.T) {
	attrs := EdgeAttributes{Branch: BranchApprove}

	none := Branch("")
	assert.Equal(t, EdgeAttributes{}, attrs.Merge(EdgeAttributesPatch{Branch: &none}))
	assert.Equal(t, attrs, attrs.Merge(EdgeAttributesPatch{}))
	assert.True(t, BranchDeny.Valid())
	assert.False(t, Branch("maybe").Valid())
}

// Event Model Tests

func TestWorkflowEvent_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		expected WorkflowEvent
	}{
		{
			name:    "current names",
			payload: `{"workflowId":"wf-1","phase":"WAITING","detail":{"recipient":"boss@example.com","currentApproverId":"a1"},"timestamp":"2025-03-14T09:30:00Z","seq":3}`,
			expected: WorkflowEvent{
				WorkflowID: "wf-1",
				Phase:      PhaseWaiting,
				Detail:     &EventDetail{Recipient: "boss@example.com", CurrentApproverID: stringPtr("a1")},
				Timestamp:  testTime,
				Sequence:   3,
			},
		},
		{
			name:    "legacy status and meta",
			payload: `{"workflowId":"wf-1","status":"DECISION","message":"approve","meta":{"to":"boss@example.com"},"timestamp":"2025-03-14T09:30:00Z"}`,
			expected: WorkflowEvent{
				WorkflowID: "wf-1",
				Phase:      PhaseDecision,
				Message:    "approve",
				Detail:     &EventDetail{Recipient: "boss@example.com"},
				Timestamp:  testTime,
			},
		},
		{
			name:    "legacy email phase",
			payload: `{"workflowId":"wf-1","phase":"EMAIL_SENT","timestamp":"2025-03-14T09:30:00Z"}`,
			expected: WorkflowEvent{
				WorkflowID: "wf-1",
				Phase:      PhaseNotifySent,
				Timestamp:  testTime,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var event WorkflowEvent
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &event))
			assert.Equal(t, tt.expected, event)
		})
	}
}

func TestEventDetail_KeepsReportedEmptyLists(t *testing.T) {
	detail := EventDetail{CompletedApproverIDs: []string{}}

	data, err := json.Marshal(detail)
	require.NoError(t, err)
	assert.JSONEq(t, `{"completedApproverIds":[]}`, string(data))

	var decoded EventDetail
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.NotNil(t, decoded.CompletedApproverIDs)
	assert.Nil(t, decoded.CompletedEdgeIDs)
}

func TestHasPhase(t *testing.T) {
	events := []WorkflowEvent{{Phase: PhaseStarted}, {Phase: PhaseWaiting}}

	assert.True(t, HasPhase(events, PhaseWaiting))
	assert.False(t, HasPhase(events, PhaseCompleted))
	assert.True(t, PhaseCompleted.Terminal())
	assert.False(t, PhaseDecision.Terminal())
}

// Status Model Tests

func TestDecision_JSON(t *testing.T) {
	data, err := json.Marshal(DecisionNone)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	data, err = json.Marshal(DecisionDeny)
	require.NoError(t, err)
	assert.Equal(t, `"deny"`, string(data))

	var decision Decision
	require.NoError(t, json.Unmarshal([]byte(`"approve"`), &decision))
	assert.Equal(t, DecisionApprove, decision)

	require.NoError(t, json.Unmarshal([]byte(`null`), &decision))
	assert.Equal(t, DecisionNone, decision)

	_, ok := ParseDecision("maybe")
	assert.False(t, ok)
}

func TestEngineIDs(t *testing.T) {
	reported := []string{"a1", "a2"}
	ids := MirrorEngineIDs(reported)

	reported[0] = "changed"

	assert.Equal(t, []string{"a1", "a2"}, ids.IDs())
	assert.True(t, ids.Contains("a2"))
	assert.False(t, ids.Contains("changed"))
	assert.Equal(t, 2, ids.Len())

	data, err := json.Marshal(MirrorEngineIDs(nil))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	var decoded EngineIDs
	require.NoError(t, json.Unmarshal([]byte(`["e1"]`), &decoded))
	assert.Equal(t, []string{"e1"}, decoded.IDs())
}

func TestStatusSnapshot_JSON(t *testing.T) {
	snapshot := StatusSnapshot{
		Started:              true,
		Waiting:              true,
		CurrentApproverID:    stringPtr("a1"),
		CompletedApproverIDs: MirrorEngineIDs(nil),
		CompletedEdgeIDs:     MirrorEngineIDs([]string{"e1"}),
	}

	data, err := json.Marshal(snapshot)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"started": true,
		"waiting": true,
		"decision": null,
		"completed": false,
		"currentApproverId": "a1",
		"currentEdgeId": null,
		"completedApproverIds": [],
		"completedEdgeIds": ["e1"]
	}`, string(data))
}
