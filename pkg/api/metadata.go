package api

import "maps"

// Metadata contains additional context passed to step handlers
type Metadata map[string]any

const (
	MetaFlowID       = "flow_id"
	MetaStepID       = "step_id"
	MetaReceiptToken = "receipt_token"
	MetaWebhookURL   = "webhook_url"
)

// Apply merges the keys/values of the other metadata set into a copy of this
// one
func (m Metadata) Apply(other Metadata) Metadata {
	if m == nil {
		return maps.Clone(other)
	}
	res := maps.Clone(m)
	maps.Copy(res, other)
	return res
}

// GetMetaString retrieves a non-empty string value from metadata, allowing
// the caller to narrow into a string-derived type
func GetMetaString[T ~string](meta Metadata, key string) (T, bool) {
	var zero T
	val, ok := meta[key]
	if !ok {
		return zero, false
	}

	switch v := val.(type) {
	case T:
		if v == "" {
			return zero, false
		}
		return v, true
	case string:
		if v == "" {
			return zero, false
		}
		return T(v), true
	default:
		return zero, false
	}
}
