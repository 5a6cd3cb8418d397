package sqlstore_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/goliatone/go-capability/core"
	sqlstore "github.com/goliatone/go-capability/store/sql"
	persistence "github.com/goliatone/go-persistence-bun"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

type testPersistenceConfig struct {
	driver string
	server string
}

func (c testPersistenceConfig) GetDebug() bool {
	return false
}

func (c testPersistenceConfig) GetDriver() string {
	return c.driver
}

func (c testPersistenceConfig) GetServer() string {
	return c.server
}

func (c testPersistenceConfig) GetPingTimeout() time.Duration {
	return time.Second
}

func (c testPersistenceConfig) GetOtelIdentifier() string {
	return "go-capability-tests"
}

func newSQLiteDB(t *testing.T) (*bun.DB, func()) {
	t.Helper()

	dsn := fmt.Sprintf(
		"file:capability-test-%d?mode=memory&cache=shared&_foreign_keys=on",
		time.Now().UnixNano(),
	)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	db := bun.NewDB(sqlDB, sqlitedialect.New())
	if err := sqlstore.EnsureSchema(context.Background(), db); err != nil {
		_ = db.Close()
		t.Fatalf("ensure schema: %v", err)
	}
	return db, func() {
		_ = db.Close()
	}
}

func sampleEntry(id string, capability core.Capability, provider string, status core.ActivityStatus, createdAt time.Time) core.InvocationActivityEntry {
	return core.InvocationActivityEntry{
		ID:           id,
		Capability:   capability,
		Operation:    "charge",
		TenantID:     "tenant-us",
		Provider:     provider,
		Status:       status,
		AttemptCount: 1,
		Metadata:     map[string]any{"flags": map[string]string{}},
		CreatedAt:    createdAt,
	}
}

func TestInvocationLedger_RecordAndList(t *testing.T) {
	ctx := context.Background()
	db, cleanup := newSQLiteDB(t)
	defer cleanup()

	ledger, err := sqlstore.NewInvocationLedger(db)
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}

	base := time.Now().UTC().Add(-time.Hour)
	entries := []core.InvocationActivityEntry{
		sampleEntry("00000000-0000-0000-0000-000000000001", core.CapabilityPayments, "stripe", core.ActivityStatusOK, base),
		sampleEntry("00000000-0000-0000-0000-000000000002", core.CapabilityPayments, "pagseguro", core.ActivityStatusFailed, base.Add(time.Minute)),
		sampleEntry("00000000-0000-0000-0000-000000000003", core.CapabilitySearch, "algolia", core.ActivityStatusOK, base.Add(2*time.Minute)),
	}
	for _, entry := range entries {
		if err := ledger.Record(ctx, entry); err != nil {
			t.Fatalf("record %s: %v", entry.ID, err)
		}
	}

	page, err := ledger.ListActivity(ctx, core.InvocationActivityFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 3 || len(page.Items) != 3 {
		t.Fatalf("expected 3 entries, got total=%d items=%d", page.Total, len(page.Items))
	}
	// Newest first.
	if page.Items[0].Capability != core.CapabilitySearch {
		t.Fatalf("expected newest entry first, got %+v", page.Items[0])
	}

	filtered, err := ledger.ListActivity(ctx, core.InvocationActivityFilter{
		Capability: core.CapabilityPayments,
		Status:     core.ActivityStatusFailed,
	})
	if err != nil {
		t.Fatalf("filtered list: %v", err)
	}
	if filtered.Total != 1 || filtered.Items[0].Provider != "pagseguro" {
		t.Fatalf("unexpected filtered page %+v", filtered)
	}

	byTenant, err := ledger.ListActivity(ctx, core.InvocationActivityFilter{TenantID: "tenant-br"})
	if err != nil {
		t.Fatalf("tenant list: %v", err)
	}
	if byTenant.Total != 0 {
		t.Fatalf("expected no entries for unknown tenant, got %d", byTenant.Total)
	}
}

func TestInvocationLedger_ListPaginates(t *testing.T) {
	ctx := context.Background()
	db, cleanup := newSQLiteDB(t)
	defer cleanup()

	ledger, err := sqlstore.NewInvocationLedger(db)
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}

	base := time.Now().UTC().Add(-time.Hour)
	for idx := 0; idx < 5; idx++ {
		entry := sampleEntry(
			fmt.Sprintf("00000000-0000-0000-0000-00000000001%d", idx),
			core.CapabilityPayments,
			"stripe",
			core.ActivityStatusOK,
			base.Add(time.Duration(idx)*time.Minute),
		)
		if err := ledger.Record(ctx, entry); err != nil {
			t.Fatalf("record %d: %v", idx, err)
		}
	}

	first, err := ledger.ListActivity(ctx, core.InvocationActivityFilter{Page: 1, PerPage: 2})
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(first.Items) != 2 || first.Total != 5 || !first.HasNext {
		t.Fatalf("unexpected first page %+v", first)
	}
	last, err := ledger.ListActivity(ctx, core.InvocationActivityFilter{Page: 3, PerPage: 2})
	if err != nil {
		t.Fatalf("last page: %v", err)
	}
	if len(last.Items) != 1 || last.HasNext {
		t.Fatalf("unexpected last page %+v", last)
	}
}

func TestInvocationLedger_RecordFillsDefaults(t *testing.T) {
	ctx := context.Background()
	db, cleanup := newSQLiteDB(t)
	defer cleanup()

	ledger, err := sqlstore.NewInvocationLedger(db)
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}

	entry := core.InvocationActivityEntry{
		Capability: core.CapabilityNotifications,
		Operation:  "send",
	}
	if err := ledger.Record(ctx, entry); err != nil {
		t.Fatalf("record: %v", err)
	}
	page, err := ledger.ListActivity(ctx, core.InvocationActivityFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("expected one entry, got %d", len(page.Items))
	}
	stored := page.Items[0]
	if stored.ID == "" || stored.CreatedAt.IsZero() {
		t.Fatalf("expected generated id and timestamp, got %+v", stored)
	}
	if stored.Status != core.ActivityStatusOK {
		t.Fatalf("expected default ok status, got %s", stored.Status)
	}

	if err := ledger.Record(ctx, core.InvocationActivityEntry{Operation: "send"}); err == nil {
		t.Fatalf("expected missing capability to be rejected")
	}
}

func TestInvocationLedger_Prune(t *testing.T) {
	ctx := context.Background()
	db, cleanup := newSQLiteDB(t)
	defer cleanup()

	ledger, err := sqlstore.NewInvocationLedger(db)
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}

	now := time.Now().UTC()
	old := sampleEntry("00000000-0000-0000-0000-000000000021", core.CapabilityPayments, "stripe", core.ActivityStatusOK, now.Add(-48*time.Hour))
	fresh := sampleEntry("00000000-0000-0000-0000-000000000022", core.CapabilityPayments, "stripe", core.ActivityStatusOK, now)
	if err := ledger.Record(ctx, old); err != nil {
		t.Fatalf("record old: %v", err)
	}
	if err := ledger.Record(ctx, fresh); err != nil {
		t.Fatalf("record fresh: %v", err)
	}

	deleted, err := ledger.Prune(ctx, sqlstore.RetentionPolicy{TTL: 24 * time.Hour})
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected one pruned entry, got %d", deleted)
	}

	deleted, err = ledger.Prune(ctx, sqlstore.RetentionPolicy{RowCap: 0})
	if err != nil {
		t.Fatalf("noop prune: %v", err)
	}
	if deleted != 0 {
		t.Fatalf("expected noop prune, got %d", deleted)
	}

	page, err := ledger.ListActivity(ctx, core.InvocationActivityFilter{})
	if err != nil {
		t.Fatalf("list after prune: %v", err)
	}
	if page.Total != 1 || page.Items[0].ID != fresh.ID {
		t.Fatalf("expected fresh entry to survive, got %+v", page)
	}
}

func TestRepositoryFactory_FromPersistenceClient(t *testing.T) {
	dsn := fmt.Sprintf(
		"file:capability-factory-%d?mode=memory&cache=shared&_foreign_keys=on",
		time.Now().UnixNano(),
	)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	client, err := persistence.New(testPersistenceConfig{driver: "sqlite3", server: dsn}, sqlDB, sqlitedialect.New())
	if err != nil {
		_ = sqlDB.Close()
		t.Fatalf("new persistence client: %v", err)
	}
	defer func() { _ = client.Close() }()

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		t.Fatalf("new repository factory: %v", err)
	}
	if factory.DB() == nil || factory.InvocationLedger() == nil {
		t.Fatalf("expected db and ledger from factory")
	}

	if err := sqlstore.EnsureSchema(context.Background(), factory.DB()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	entry := sampleEntry("00000000-0000-0000-0000-000000000031", core.CapabilityStorage, "s3", core.ActivityStatusOK, time.Now().UTC())
	if err := factory.InvocationLedger().Record(context.Background(), entry); err != nil {
		t.Fatalf("record via factory ledger: %v", err)
	}
}

func TestRepositoryFactory_RejectsUnsupportedClient(t *testing.T) {
	factory := sqlstore.NewRepositoryFactory()
	if err := factory.BuildStores(nil); err == nil {
		t.Fatalf("expected nil client rejected")
	}
	if err := factory.BuildStores(42); err == nil {
		t.Fatalf("expected unsupported client rejected")
	}
}
