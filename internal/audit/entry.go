package audit

// Decision is the recorded outcome of one guardian operation.
type Decision string

const (
	DecisionOK   Decision = "ok"
	DecisionDeny Decision = "deny"
)

// Entry is one line in the hash-chained JSONL audit log.
// All fields are scalars (no map[string]any) to guarantee deterministic
// json.Marshal field order for reproducible hashing.
type Entry struct {
	Timestamp string   `json:"ts"`
	Caller    string   `json:"caller"`
	Op        string   `json:"op"`
	Ilk       string   `json:"ilk,omitempty"`
	Decision  Decision `json:"decision"`
	Reason    string   `json:"reason,omitempty"`
	RulesHash string   `json:"rules_hash,omitempty"`
	PrevHash  string   `json:"prev_hash"`
}
