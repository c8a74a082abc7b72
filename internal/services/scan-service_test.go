package services

import (
	"errors"
	"testing"
	"time"

	"github.com/SundayYogurt/equipment_service/internal/audit"
	"github.com/SundayYogurt/equipment_service/internal/domain"
	"github.com/SundayYogurt/equipment_service/internal/lease"
	"github.com/SundayYogurt/equipment_service/internal/reconcile"
	"github.com/SundayYogurt/equipment_service/internal/registry"
	"github.com/SundayYogurt/equipment_service/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubToolRepo struct {
	tools      map[string]domain.Tool
	writesFail bool
}

func (r *stubToolRepo) FindByKey(key string, kind domain.RegistryKind) (*domain.Tool, error) {
	if t, ok := r.tools[string(kind)+"/"+key]; ok {
		return &t, nil
	}
	return nil, nil
}

func (r *stubToolRepo) FindByDisplayName(name string, kind domain.RegistryKind) (*domain.Tool, error) {
	for _, t := range r.tools {
		if t.RegistryKind == kind && t.DisplayName == name {
			return &t, nil
		}
	}
	return nil, nil
}

func (r *stubToolRepo) ListByKind(kind domain.RegistryKind) ([]domain.Tool, error) {
	return nil, nil
}

func (r *stubToolRepo) UpsertTool(tool *domain.Tool) error {
	if r.writesFail {
		return errors.New("durable store unreachable")
	}
	r.tools[string(tool.RegistryKind)+"/"+tool.RegistryKey] = *tool
	return nil
}

type stubAuditRepo struct {
	rows []domain.AuditLog
}

func (r *stubAuditRepo) Append(entry *domain.AuditLog) error {
	r.rows = append(r.rows, *entry)
	return nil
}

func (r *stubAuditRepo) ListByToolKey(key string, limit int) ([]domain.AuditLog, error) {
	var out []domain.AuditLog
	for i := len(r.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if r.rows[i].ToolKey == key {
			out = append(out, r.rows[i])
		}
	}
	return out, nil
}

type stubProducer struct {
	published [][]byte
}

func (p *stubProducer) PublishMessage(key, value []byte) error {
	p.published = append(p.published, value)
	return nil
}

type fixture struct {
	svc      ScanService
	store    *registry.Store
	trail    *audit.Trail
	leases   *lease.Manager
	repo     *stubToolRepo
	audits   *stubAuditRepo
	producer *stubProducer
}

var _ repository.ToolRepository = (*stubToolRepo)(nil)
var _ repository.AuditRepository = (*stubAuditRepo)(nil)

func newFixture(seedTools ...domain.Tool) *fixture {
	f := &fixture{
		store:    registry.NewStore(),
		trail:    audit.NewTrail(),
		leases:   lease.NewManager(time.Minute),
		repo:     &stubToolRepo{tools: make(map[string]domain.Tool)},
		audits:   &stubAuditRepo{},
		producer: &stubProducer{},
	}
	for _, t := range seedTools {
		f.store.Put(t)
	}
	rec := reconcile.NewReconciler(f.repo, f.store)
	f.svc = NewScanService(f.store, f.trail, f.leases, rec, f.audits, f.producer, nil)
	return f
}

func toolA() domain.Tool {
	return domain.Tool{RegistryKey: "AB12CD34", RegistryKind: domain.RegistryA, DisplayName: "Infusion pump 4", Location: "Ward 2", StatusCode: domain.StatusNominal}
}

func toolB() domain.Tool {
	return domain.Tool{RegistryKey: "ab12cd34", RegistryKind: domain.RegistryB, DisplayName: "Loaner bed rail", Location: "Pool shelf 1", StatusCode: domain.StatusNominal}
}

func strPtr(s string) *string { return &s }

func TestStartScanResolvesPrefixedPayloadViaRegistryA(t *testing.T) {
	f := newFixture(toolA(), toolB())

	res, err := f.svc.StartScan("CARE_aB12cD34", "moss")
	require.NoError(t, err)

	assert.Equal(t, domain.RegistryA, res.Registry)
	assert.Equal(t, "AB12CD34", res.Tool.RegistryKey)
	assert.NotEmpty(t, res.Token)

	entries := f.trail.ForKey("AB12CD34")
	require.Len(t, entries, 1)
	assert.Equal(t, domain.AuditScan, entries[0].Action)
	assert.Equal(t, "moss", entries[0].Actor)
	assert.Empty(t, entries[0].Field, "scans are presence events, not field changes")
	assert.Len(t, f.producer.published, 1)
}

func TestStartScanUnprefixedPayloadPrefersRegistryB(t *testing.T) {
	f := newFixture(toolA(), toolB())

	res, err := f.svc.StartScan("aB12cD34", "moss")
	require.NoError(t, err)
	assert.Equal(t, domain.RegistryB, res.Registry)
	assert.Equal(t, "ab12cd34", res.Tool.RegistryKey)
}

func TestStartScanFallsBackToRegistryAWithoutPrefix(t *testing.T) {
	f := newFixture(toolA())

	res, err := f.svc.StartScan("aB12cD34", "moss")
	require.NoError(t, err)
	assert.Equal(t, domain.RegistryA, res.Registry)
	assert.Equal(t, "AB12CD34", res.Tool.RegistryKey)
}

func TestStartScanResolvesDisplayNameLabels(t *testing.T) {
	f := newFixture(toolA(), toolB())

	res, err := f.svc.StartScan("Loaner bed rail", "moss")
	require.NoError(t, err)
	assert.Equal(t, domain.RegistryB, res.Registry)

	res, err = f.svc.StartScan("Infusion pump 4", "moss")
	require.NoError(t, err)
	assert.Equal(t, domain.RegistryA, res.Registry)
}

func TestStartScanUnknownPayloadHasNoSideEffects(t *testing.T) {
	f := newFixture(toolA())

	_, err := f.svc.StartScan("ZZ-FOREIGN-QR", "moss")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.StartScan("   ", "moss")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Empty(t, f.trail.Shared())
	assert.Zero(t, f.leases.Active())
	assert.Empty(t, f.producer.published)
}

func TestApplyEditAuditsExactlyTheChangedFields(t *testing.T) {
	f := newFixture(toolA())

	scan, err := f.svc.StartScan("CARE_AB12CD34", "moss")
	require.NoError(t, err)

	res, err := f.svc.ApplyEdit("AB12CD34", domain.RegistryA, scan.Token, domain.ToolPatch{
		Location:   strPtr("Ward 5"),
		StatusCode: strPtr("nominal"), // same value, must not be audited
	}, "moss")
	require.NoError(t, err)
	assert.Equal(t, "Ward 5", res.Tool.Location)

	var modifies []domain.AuditEntry
	for _, e := range f.trail.ForKey("AB12CD34") {
		if e.Action == domain.AuditModify {
			modifies = append(modifies, e)
		}
	}
	require.Len(t, modifies, 1)
	assert.Equal(t, "location", modifies[0].Field)
	assert.Equal(t, "Ward 2", modifies[0].OldValue)
	assert.Equal(t, "Ward 5", modifies[0].NewValue)
}

func TestApplyEditRotatesTheLeaseToken(t *testing.T) {
	f := newFixture(toolA())

	scan, err := f.svc.StartScan("CARE_AB12CD34", "moss")
	require.NoError(t, err)

	first, err := f.svc.ApplyEdit("AB12CD34", domain.RegistryA, scan.Token, domain.ToolPatch{Location: strPtr("Ward 5")}, "moss")
	require.NoError(t, err)
	require.NotEqual(t, scan.Token, first.Token)

	// continued editing uses the fresh token
	second, err := f.svc.ApplyEdit("AB12CD34", domain.RegistryA, first.Token, domain.ToolPatch{Location: strPtr("Ward 6")}, "moss")
	require.NoError(t, err)
	assert.Equal(t, "Ward 6", second.Tool.Location)

	// the original scan token was consumed by the first edit
	_, err = f.svc.ApplyEdit("AB12CD34", domain.RegistryA, scan.Token, domain.ToolPatch{Location: strPtr("Ward 7")}, "moss")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestApplyEditCreatesUnknownToolOnFirstMutation(t *testing.T) {
	f := newFixture()

	token, err := f.leases.Issue("zz99ff00", domain.RegistryA, "moss")
	require.NoError(t, err)

	res, err := f.svc.ApplyEdit("zz99ff00", domain.RegistryA, token, domain.ToolPatch{Location: strPtr("Ward 1")}, "moss")
	require.NoError(t, err)
	assert.Equal(t, "Tool ZZ99FF00", res.Tool.DisplayName)

	var actions []domain.AuditAction
	for _, e := range f.trail.ForKey("ZZ99FF00") {
		actions = append(actions, e.Action)
	}
	assert.Contains(t, actions, domain.AuditCreate)
}

func TestApplyEditSurvivesDurableWriteFailure(t *testing.T) {
	f := newFixture(toolA())
	f.repo.writesFail = true

	scan, err := f.svc.StartScan("CARE_AB12CD34", "moss")
	require.NoError(t, err)

	res, err := f.svc.ApplyEdit("AB12CD34", domain.RegistryA, scan.Token, domain.ToolPatch{Location: strPtr("Ward 5")}, "moss")
	require.NoError(t, err, "a persistence failure must not fail the edit")
	assert.Equal(t, "Ward 5", res.Tool.Location)

	// the in-memory path serves the mutated record
	got, err := f.svc.GetTool("AB12CD34", domain.RegistryA)
	require.NoError(t, err)
	assert.Equal(t, "Ward 5", got.Tool.Location)
	assert.Equal(t, string(reconcile.SourceSnapshot), got.Source)
}

func TestGetToolPrefersDurableStore(t *testing.T) {
	f := newFixture(toolA())
	f.repo.tools["A/AB12CD34"] = domain.Tool{
		RegistryKey: "AB12CD34", RegistryKind: domain.RegistryA, DisplayName: "Infusion pump 4", Location: "Ward 9",
	}

	got, err := f.svc.GetTool("ab12cd34", domain.RegistryA)
	require.NoError(t, err)
	assert.Equal(t, string(reconcile.SourceDurable), got.Source)
	assert.Equal(t, "Ward 9", got.Tool.Location)
}

func TestGetAuditTrailFallsBackToDurableMirror(t *testing.T) {
	f := newFixture(toolA())

	scan, err := f.svc.StartScan("CARE_AB12CD34", "moss")
	require.NoError(t, err)
	_, err = f.svc.ApplyEdit("AB12CD34", domain.RegistryA, scan.Token, domain.ToolPatch{Location: strPtr("Ward 5")}, "moss")
	require.NoError(t, err)

	// a fresh process shares the durable mirror but not the in-memory trail
	fresh := newFixture(toolA())
	fresh.audits.rows = f.audits.rows

	entries, err := fresh.svc.GetAuditTrail("AB12CD34", domain.RegistryA)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, domain.AuditModify, entries[0].Action)
}
