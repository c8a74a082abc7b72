package reconcile

import (
	"log"

	"github.com/SundayYogurt/equipment_service/internal/domain"
	"github.com/SundayYogurt/equipment_service/internal/registry"
	"github.com/SundayYogurt/equipment_service/internal/repository"
	"github.com/SundayYogurt/equipment_service/internal/seed"
)

// Source tags which backend served a read, so callers and tests can assert
// the path instead of inferring it.
type Source string

const (
	SourceDurable  Source = "durable"
	SourceSnapshot Source = "snapshot"
)

// Reconciler keeps the process-local registry store and the durable store in
// step: reads prefer the durable store and fall back to the in-memory
// snapshot, writes mirror every mutation into the durable store. Durability
// never gates an already-applied in-memory mutation — eventual consistency,
// not atomicity.
type Reconciler struct {
	repo  repository.ToolRepository
	store *registry.Store
}

func NewReconciler(repo repository.ToolRepository, store *registry.Store) *Reconciler {
	return &Reconciler{repo: repo, store: store}
}

// WarmStore loads both registries into the in-memory store. Durable rows win;
// an empty or unreachable registry falls back to the static snapshot, which
// is then opportunistically backfilled into the durable store.
func (r *Reconciler) WarmStore() {
	for _, kind := range []domain.RegistryKind{domain.RegistryA, domain.RegistryB} {
		rows, err := r.repo.ListByKind(kind)
		if err == nil && len(rows) > 0 {
			r.store.Load(kind, rows)
			log.Printf("registry %s warmed from durable store (%d tools)", kind, len(rows))
			continue
		}
		if err != nil {
			log.Printf("registry %s durable load degraded: %v", kind, err)
		}

		fallback := seed.ForKind(kind)
		r.store.Load(kind, fallback)
		log.Printf("registry %s warmed from snapshot %s (%d tools)", kind, seed.SnapshotVersion, len(fallback))

		if err != nil {
			continue // store not writable, skip backfill
		}
		for i := range fallback {
			t := fallback[i]
			t.RegistryKey = registry.NormalizeKey(t.RegistryKey, kind)
			if err := r.repo.UpsertTool(&t); err != nil {
				log.Printf("snapshot backfill degraded for %s/%s: %v", kind, t.RegistryKey, err)
			}
		}
	}
}

// Lookup resolves a key durable-first, refreshing the in-memory copy on a
// durable hit so later snapshot reads stay coherent.
func (r *Reconciler) Lookup(key string, kind domain.RegistryKind) (domain.Tool, Source, bool) {
	normKey := registry.NormalizeKey(key, kind)

	row, err := r.repo.FindByKey(normKey, kind)
	if err != nil {
		log.Printf("durable lookup degraded for %s/%s: %v", kind, normKey, err)
	}
	if row != nil {
		r.store.Put(*row)
		return *row, SourceDurable, true
	}

	tool, ok := r.store.Get(normKey, kind)
	return tool, SourceSnapshot, ok
}

// LookupByName is the display-name fallback, same durable-first policy.
func (r *Reconciler) LookupByName(name string, kind domain.RegistryKind) (domain.Tool, Source, bool) {
	row, err := r.repo.FindByDisplayName(name, kind)
	if err != nil {
		log.Printf("durable name lookup degraded for %s/%q: %v", kind, name, err)
	}
	if row != nil {
		r.store.Put(*row)
		return *row, SourceDurable, true
	}

	tool, ok := r.store.FindByDisplayName(name, kind)
	return tool, SourceSnapshot, ok
}

// Persist mirrors one mutated record into the durable store. The caller logs
// and swallows the error at the request boundary; the in-memory mutation has
// already succeeded and is never rolled back.
func (r *Reconciler) Persist(tool domain.Tool) error {
	return r.repo.UpsertTool(&tool)
}
