// registry.go — LRU-реестр рабочих пространств с TTL.
// Обёртка над hashicorp/golang-lru/v2/expirable.
package directory

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus-метрики реестра.
var (
	workspaceHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ua_workspace_hits_total",
		Help: "Общее количество обращений к существующему рабочему пространству сессии.",
	})
	workspaceMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ua_workspace_misses_total",
		Help: "Общее количество обращений к отсутствующему рабочему пространству сессии.",
	})
)

// Registry — рабочие пространства по идентификатору сессии.
// Каждый экземпляр хранит состояние в памяти; после вытеснения или
// перезапуска каталог загружается заново при активации.
type Registry struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, *Workspace]
}

// NewRegistry создаёт реестр.
// maxSize — максимальное количество сессий, ttl — время жизни после создания.
func NewRegistry(maxSize int, ttl time.Duration) *Registry {
	return &Registry{
		cache: expirable.NewLRU[string, *Workspace](maxSize, nil, ttl),
	}
}

// Get возвращает рабочее пространство сессии.
// Возвращает (workspace, true) при hit или (nil, false) при miss.
func (r *Registry) Get(sessionID string) (*Workspace, bool) {
	ws, ok := r.cache.Get(sessionID)
	if ok {
		workspaceHitsTotal.Inc()
		return ws, true
	}
	workspaceMissesTotal.Inc()
	return nil, false
}

// GetOrCreate возвращает рабочее пространство сессии, создавая пустое при отсутствии.
func (r *Registry) GetOrCreate(sessionID string) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ws, ok := r.Get(sessionID); ok {
		return ws
	}
	ws := NewWorkspace()
	r.cache.Add(sessionID, ws)
	return ws
}

// Delete удаляет рабочее пространство (выход из сессии).
func (r *Registry) Delete(sessionID string) {
	r.cache.Remove(sessionID)
}

// Len возвращает количество активных рабочих пространств.
func (r *Registry) Len() int {
	return r.cache.Len()
}
