package journal

import (
	"sync"

	"github.com/2beens/fitjournal/internal/cache"
	"github.com/2beens/fitjournal/internal/docstore"
	"github.com/2beens/fitjournal/internal/telemetry/metrics"

	log "github.com/sirupsen/logrus"
)

// Manager keeps one open Repository per active user.
type Manager struct {
	store          docstore.Store
	failures       FailurePublisher
	bestsCache     cache.BestsCache
	metricsManager *metrics.Manager

	mu     sync.Mutex
	repos  map[string]*Repository
	closed bool
}

func NewManager(
	store docstore.Store,
	failures FailurePublisher,
	bestsCache cache.BestsCache,
	metricsManager *metrics.Manager,
) *Manager {
	return &Manager{
		store:          store,
		failures:       failures,
		bestsCache:     bestsCache,
		metricsManager: metricsManager,
		repos:          make(map[string]*Repository),
	}
}

// For returns the journal of the user, opening it on first use.
func (m *Manager) For(userID string) (*Repository, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	if repo, ok := m.repos[userID]; ok {
		return repo, nil
	}

	repo, err := NewRepository(NewRepositoryParams{
		UserID:         userID,
		Store:          m.store,
		Failures:       m.failures,
		BestsCache:     m.bestsCache,
		MetricsManager: m.metricsManager,
	})
	if err != nil {
		return nil, err
	}
	m.repos[userID] = repo
	m.updateGauge()
	log.Debugf("journal manager: opened journal of %s", userID)
	return repo, nil
}

// Journal is For behind the Journal interface.
func (m *Manager) Journal(userID string) (Journal, error) {
	repo, err := m.For(userID)
	if err != nil {
		return nil, err
	}
	return repo, nil
}

// Close closes the journal of a user (e.g. after sign out).
func (m *Manager) Close(userID string) {
	m.mu.Lock()
	repo, ok := m.repos[userID]
	delete(m.repos, userID)
	m.updateGauge()
	m.mu.Unlock()

	if ok {
		repo.Close()
		log.Debugf("journal manager: closed journal of %s", userID)
	}
}

// CloseAll closes every journal, For fails afterwards.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	repos := m.repos
	m.repos = make(map[string]*Repository)
	m.closed = true
	m.updateGauge()
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, repo := range repos {
		wg.Add(1)
		go func(repo *Repository) {
			defer wg.Done()
			repo.Close()
		}(repo)
	}
	wg.Wait()
	log.Debugf("journal manager: closed %d journals", len(repos))
}

func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.repos)
}

func (m *Manager) updateGauge() {
	if m.metricsManager != nil {
		m.metricsManager.GaugeActiveJournals.Set(float64(len(m.repos)))
	}
}
