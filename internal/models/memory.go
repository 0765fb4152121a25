package models

// MemoryResult is an opaque response from the memory service. This layer
// never interprets its content beyond the few fields named below.
type MemoryResult = map[string]any

// RecordID returns the identifier field of a memory record, if present.
func RecordID(record MemoryResult) string {
	id, _ := record["id"].(string)
	return id
}

// RecordOwner returns the owning user identifier of a memory record, if
// present.
func RecordOwner(record MemoryResult) string {
	owner, _ := record["user_id"].(string)
	return owner
}

// RecordResults extracts the "results" list from a list/search response.
// The memory service returns either a bare list or a paginated envelope.
func RecordResults(result MemoryResult) []MemoryResult {
	raw, ok := result["results"].([]any)
	if !ok {
		return nil
	}

	records := make([]MemoryResult, 0, len(raw))
	for _, item := range raw {
		if record, ok := item.(map[string]any); ok {
			records = append(records, record)
		}
	}
	return records
}

// WebhookEvent is a change notification from the memory service.
// Only the affected-user path is interpreted; the rest is carried opaquely.
type WebhookEvent struct {
	Event        string              `json:"event,omitempty"`
	EventDetails WebhookEventDetails `json:"event_details"`
}

// WebhookEventDetails carries the nested attribution fields of an event.
type WebhookEventDetails struct {
	UserID   string `json:"user_id,omitempty"`
	MemoryID string `json:"memory_id,omitempty"`
}

// AffectedUser returns the user the event is attributable to, or "" when
// attribution is unknown and a full cache flush is required.
func (e *WebhookEvent) AffectedUser() string {
	return e.EventDetails.UserID
}
