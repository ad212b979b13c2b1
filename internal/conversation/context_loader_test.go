package conversation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeMetadata(t *testing.T) {
	got := SanitizeMetadata(map[string]any{
		"department":    " 내과 ",
		"patient_id":    "P-9",
		"patientId":     "P-9",
		"verified_user": true,
		"visit_count":   float64(3),
		"first_visit":   false,
		"empty":         "  ",
		"nested":        map[string]any{"a": 1},
	})

	assert.Equal(t, map[string]string{
		"department":  "내과",
		"visit_count": "3",
		"first_visit": "false",
	}, got)
	assert.False(t, HasAuth(got))
}

func TestMergeContext(t *testing.T) {
	turns := []Turn{
		{Metadata: map[string]string{"doctor_name": "이서연"}},
		{Metadata: map[string]string{"doctor_name": "김민수", "department": "내과", "patient_id": "P-1"}},
	}

	t.Run("newest turn wins and request keys are kept", func(t *testing.T) {
		got := MergeContext(map[string]string{"department": "정형외과", "patient_id": "P-2"}, turns, true)
		assert.Equal(t, "이서연", got["doctor_name"])
		assert.Equal(t, "정형외과", got["department"])
		assert.Equal(t, "P-2", got["patient_id"])
	})

	t.Run("history never authenticates", func(t *testing.T) {
		got := MergeContext(map[string]string{}, turns, false)
		assert.Equal(t, "내과", got["department"])
		assert.NotContains(t, got, "patient_id")
		assert.False(t, HasAuth(got))
	})

	t.Run("identity from another user is not inherited", func(t *testing.T) {
		history := []Turn{{Metadata: map[string]string{
			"user_id": "victim-A", "patient_id": "victim-A", "department": "내과",
		}}}
		got := MergeContext(map[string]string{"patient_id": "attacker-B"}, history, true)
		assert.Equal(t, "attacker-B", got["patient_id"])
		assert.NotContains(t, got, "user_id")
		assert.Equal(t, "내과", got["department"])
		assert.Equal(t, "attacker-B", VouchedUserID(got))
	})

	t.Run("same identity fills missing auth keys", func(t *testing.T) {
		history := []Turn{{Metadata: map[string]string{"user_id": "U-1", "patient_id": "P-1"}}}
		got := MergeContext(map[string]string{"patient_id": "P-1"}, history, true)
		assert.Equal(t, "U-1", got["user_id"])
	})

	t.Run("input is not mutated", func(t *testing.T) {
		md := map[string]string{}
		MergeContext(md, turns, false)
		assert.Empty(t, md)
	})
}

func TestContextLoader_Load(t *testing.T) {
	history := newMemoryHistory()
	_ = history.Append(context.Background(), Turn{
		SessionID: "s1",
		Metadata:  map[string]string{"department": "내과", "patient_id": "P-1"},
	})
	loader := NewContextLoader(history, 0, nil)

	md, authed := loader.Load(context.Background(), "s1", map[string]string{"patient_id": "P-1"})
	assert.True(t, authed)
	assert.Equal(t, "내과", md["department"])

	md, authed = loader.Load(context.Background(), "s1", map[string]string{})
	assert.False(t, authed)
	assert.Equal(t, map[string]string{"department": "내과"}, md)

	md, _ = loader.Load(context.Background(), "", map[string]string{"dept": "안과"})
	assert.Equal(t, map[string]string{"dept": "안과"}, md)
}

func TestContextLoader_UserIDIsVouchedIdentity(t *testing.T) {
	history := newMemoryHistory()
	_ = history.Append(context.Background(), Turn{
		SessionID: "s1",
		Metadata:  map[string]string{"user_id": "victim-A", "patient_id": "victim-A"},
	})
	loader := NewContextLoader(history, 0, nil)

	s := loader.LoadSession(context.Background(), "s1", map[string]string{"patient_id": "attacker-B"})
	assert.True(t, s.Authenticated)
	assert.Equal(t, "attacker-B", s.UserID)
	assert.NotContains(t, s.Metadata, "user_id")

	snapshot := Snapshot{SessionID: "s1", Metadata: map[string]string{"user_id": "victim-A"}, UserID: s.UserID}
	assert.Equal(t, "attacker-B", toolContext(snapshot).UserID)
}

func TestContextLoader_StoreFailureKeepsMetadata(t *testing.T) {
	history := newMemoryHistory()
	history.readErr = errStoreDown
	loader := NewContextLoader(history, 5, nil)

	md, authed := loader.Load(context.Background(), "s1", map[string]string{"department": "내과"})
	assert.False(t, authed)
	assert.Equal(t, map[string]string{"department": "내과"}, md)
}
