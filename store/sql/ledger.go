package sqlstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-capability/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// InvocationLedger persists finished invocations for diagnostics and audit.
// It sits behind the core's activity sink; the request path only ever hands
// it completed entries, never waits on it for provider selection.
type InvocationLedger struct {
	db   *bun.DB
	repo repository.Repository[*invocationRecord]
}

func NewInvocationLedger(db *bun.DB) (*InvocationLedger, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*invocationRecord](db, invocationHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid invocation repository wiring: %w", err)
		}
	}
	return &InvocationLedger{db: db, repo: repo}, nil
}

func (l *InvocationLedger) Record(ctx context.Context, entry core.InvocationActivityEntry) error {
	if l == nil || l.repo == nil {
		return fmt.Errorf("sqlstore: invocation ledger is not configured")
	}
	id := strings.TrimSpace(entry.ID)
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := entry.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	status := strings.TrimSpace(string(entry.Status))
	if status == "" {
		status = string(core.ActivityStatusOK)
	}
	metadata := entry.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	record := &invocationRecord{
		ID:           id,
		Capability:   strings.TrimSpace(string(entry.Capability)),
		Operation:    strings.TrimSpace(entry.Operation),
		TenantID:     strings.TrimSpace(entry.TenantID),
		Provider:     strings.TrimSpace(entry.Provider),
		Status:       status,
		AttemptCount: entry.AttemptCount,
		ErrorText:    entry.ErrorText,
		Metadata:     metadata,
		CreatedAt:    createdAt,
	}
	if record.Capability == "" {
		return fmt.Errorf("sqlstore: invocation entry requires a capability")
	}
	if record.Operation == "" {
		return fmt.Errorf("sqlstore: invocation entry requires an operation")
	}

	_, err := l.repo.Create(ctx, record)
	return err
}

func (l *InvocationLedger) ListActivity(ctx context.Context, filter core.InvocationActivityFilter) (core.InvocationActivityPage, error) {
	if l == nil || l.repo == nil {
		return core.InvocationActivityPage{}, fmt.Errorf("sqlstore: invocation ledger is not configured")
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 25
	}
	offset := (page - 1) * perPage

	selectors := []repository.SelectCriteria{
		repository.OrderBy("created_at DESC"),
		repository.SelectPaginate(perPage, offset),
	}
	if capability := strings.TrimSpace(string(filter.Capability)); capability != "" {
		selectors = append(selectors, repository.SelectBy("capability", "=", capability))
	}
	if provider := strings.TrimSpace(filter.Provider); provider != "" {
		selectors = append(selectors, repository.SelectBy("provider", "=", provider))
	}
	if tenantID := strings.TrimSpace(filter.TenantID); tenantID != "" {
		selectors = append(selectors, repository.SelectBy("tenant_id", "=", tenantID))
	}
	if status := strings.TrimSpace(string(filter.Status)); status != "" {
		selectors = append(selectors, repository.SelectBy("status", "=", status))
	}
	if filter.From != nil {
		selectors = append(selectors, repository.SelectByTimetz("created_at", ">=", filter.From.UTC()))
	}
	if filter.To != nil {
		selectors = append(selectors, repository.SelectByTimetz("created_at", "<=", filter.To.UTC()))
	}

	records, total, err := l.repo.List(ctx, selectors...)
	if err != nil {
		return core.InvocationActivityPage{}, err
	}
	items := make([]core.InvocationActivityEntry, 0, len(records))
	for _, record := range records {
		items = append(items, invocationRecordToDomain(record))
	}
	hasNext := offset+len(items) < total
	nextCursor := ""
	if hasNext {
		nextCursor = strconv.Itoa(offset + len(items))
	}
	return core.InvocationActivityPage{
		Items:      items,
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		HasNext:    hasNext,
		NextCursor: nextCursor,
	}, nil
}

// RetentionPolicy bounds ledger growth: entries older than TTL are removed,
// and when RowCap is exceeded the oldest rows beyond the cap go too.
type RetentionPolicy struct {
	TTL    time.Duration
	RowCap int
}

func (l *InvocationLedger) Prune(ctx context.Context, policy RetentionPolicy) (int, error) {
	if l == nil || l.db == nil {
		return 0, fmt.Errorf("sqlstore: invocation ledger is not configured")
	}
	deleted := 0
	now := time.Now().UTC()

	if policy.TTL > 0 {
		cutoff := now.Add(-policy.TTL)
		res, err := l.db.NewDelete().
			Model((*invocationRecord)(nil)).
			Where("created_at < ?", cutoff).
			Exec(ctx)
		if err != nil {
			return deleted, err
		}
		affected, _ := res.RowsAffected()
		deleted += int(affected)
	}

	if policy.RowCap > 0 {
		total, err := l.db.NewSelect().Model((*invocationRecord)(nil)).Count(ctx)
		if err != nil {
			return deleted, err
		}
		excess := total - policy.RowCap
		if excess > 0 {
			res, err := l.db.NewRaw(
				"DELETE FROM capability_invocations WHERE id IN (SELECT id FROM capability_invocations ORDER BY created_at ASC LIMIT ?)",
				excess,
			).Exec(ctx)
			if err != nil {
				return deleted, err
			}
			affected, _ := res.RowsAffected()
			deleted += int(affected)
		}
	}

	return deleted, nil
}

func invocationRecordToDomain(record *invocationRecord) core.InvocationActivityEntry {
	if record == nil {
		return core.InvocationActivityEntry{}
	}
	return core.InvocationActivityEntry{
		ID:           record.ID,
		Capability:   core.Capability(record.Capability),
		Operation:    record.Operation,
		TenantID:     record.TenantID,
		Provider:     record.Provider,
		Status:       core.ActivityStatus(record.Status),
		AttemptCount: record.AttemptCount,
		ErrorText:    record.ErrorText,
		Metadata:     record.Metadata,
		CreatedAt:    record.CreatedAt,
	}
}

var (
	_ core.ActivitySink   = (*InvocationLedger)(nil)
	_ core.ActivityReader = (*InvocationLedger)(nil)
)
