package builder

import (
	"strings"

	"github.com/google/uuid"

	"github.com/kode4food/argyll/worker/pkg/api"
)

// NewFlowID generates a unique flow ID with a readable prefix
func NewFlowID(prefix string) api.FlowID {
	prefix = strings.ToLower(prefix)
	prefix = strings.ReplaceAll(prefix, " ", "-")
	suffix := uuid.NewString()[:8]
	return api.FlowID(prefix + "-" + suffix)
}
