package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type invocationRecord struct {
	bun.BaseModel `bun:"table:capability_invocations,alias:ci"`

	ID           string         `bun:"id,pk"`
	Capability   string         `bun:"capability,notnull"`
	Operation    string         `bun:"operation,notnull"`
	TenantID     string         `bun:"tenant_id"`
	Provider     string         `bun:"provider"`
	Status       string         `bun:"status,notnull"`
	AttemptCount int            `bun:"attempt_count,notnull"`
	ErrorText    string         `bun:"error_text"`
	Metadata     map[string]any `bun:"metadata,type:jsonb,notnull"`
	CreatedAt    time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
