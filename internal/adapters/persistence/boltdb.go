// Package persistence stores the router record and the append-only run
// journal in bolt.
package persistence

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	boltdb "github.com/andrew-solarstorm/bolt-db"
	"github.com/bytedance/sonic"
	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/roguepiratex/solanadeads-fee/internal/config"
	"github.com/roguepiratex/solanadeads-fee/internal/domain"
	"github.com/roguepiratex/solanadeads-fee/internal/services/builder"
)

const STORAGE_SERVICE = "storage-service"

const (
	RoutersBucket       = "routers"
	HarvestsBucket      = "harvest-runs"
	DistributionsBucket = "distributions"

	DefaultDBPath = "./data/fee-router.db"
)

// StoredRouter is the serialized router record.
type StoredRouter struct {
	AddressNonce uint8  `json:"addressNonce"`
	Authority    string `json:"authority"`
	CreatedAt    string `json:"createdAt"`
}

type Storage struct {
	container.BaseDIInstance

	db     *boltdb.BoltDatabase
	dbPath string
}

func (s *Storage) ID() string {
	return STORAGE_SERVICE
}

func (s *Storage) Configure(c container.IContainer) error {
	conf := c.GetConfig(config.GENERAL_CONFIG_KEY).(*config.GeneralConfig)
	return s.Open(conf.DBPath)
}

func (s *Storage) Stop() error {
	return s.Close()
}

// Open opens the database at dbPath, creating parent directories.
func (s *Storage) Open(dbPath string) error {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}
	os.MkdirAll(filepath.Dir(dbPath), 0755)

	db := boltdb.NewBoltDatabase(dbPath)
	if db == nil {
		return fmt.Errorf("failed to open database at %s", dbPath)
	}

	s.db = db
	s.dbPath = dbPath
	log.Info().Str("path", dbPath).Msg("[routerStorage] opened database")
	return nil
}

func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveRouterState persists the record for the given mint. The record is
// written once at setup; callers enforce the create-once rule.
func (s *Storage) SaveRouterState(mint solana.PublicKey, state *domain.RouterState) error {
	stored := StoredRouter{
		AddressNonce: state.AddressNonce,
		Authority:    state.Authority.String(),
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	data, err := sonic.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal router record: %w", err)
	}
	return s.db.Set(RoutersBucket, []byte(builder.RouterRecordKey(mint)), data)
}

// LoadRouterState returns the record for the mint, or nil when setup has
// not run yet.
func (s *Storage) LoadRouterState(mint solana.PublicKey) (*domain.RouterState, error) {
	records, err := s.db.List(RoutersBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list router records: %w", err)
	}

	value, ok := records[builder.RouterRecordKey(mint)]
	if !ok {
		return nil, nil
	}

	var stored StoredRouter
	if err := sonic.Unmarshal(value, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal router record: %w", err)
	}
	authority, err := solana.PublicKeyFromBase58(stored.Authority)
	if err != nil {
		return nil, fmt.Errorf("corrupt authority in router record: %w", err)
	}

	return &domain.RouterState{
		AddressNonce: stored.AddressNonce,
		Authority:    authority,
	}, nil
}

// AppendHarvestRun journals one harvest pipeline pass.
func (s *Storage) AppendHarvestRun(run *domain.HarvestRun) error {
	data, err := sonic.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal harvest run: %w", err)
	}
	return s.db.Set(HarvestsBucket, journalKey(run.Timestamp), data)
}

// AppendDistribution journals one distribution pass.
func (s *Storage) AppendDistribution(dist *domain.FeeDistribution) error {
	data, err := sonic.Marshal(dist)
	if err != nil {
		return fmt.Errorf("failed to marshal distribution: %w", err)
	}
	return s.db.Set(DistributionsBucket, journalKey(dist.Timestamp), data)
}

// RecentHarvestRuns returns up to limit journal entries, newest first.
func (s *Storage) RecentHarvestRuns(limit int) ([]*domain.HarvestRun, error) {
	entries, err := s.db.List(HarvestsBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list harvest runs: %w", err)
	}

	runs := make([]*domain.HarvestRun, 0, len(entries))
	for key, value := range entries {
		var run domain.HarvestRun
		if err := sonic.Unmarshal(value, &run); err != nil {
			log.Warn().Str("key", key).Err(err).Msg("[routerStorage] skipping corrupt harvest entry")
			continue
		}
		runs = append(runs, &run)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// RecentDistributions returns up to limit journal entries, newest first.
func (s *Storage) RecentDistributions(limit int) ([]*domain.FeeDistribution, error) {
	entries, err := s.db.List(DistributionsBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list distributions: %w", err)
	}

	dists := make([]*domain.FeeDistribution, 0, len(entries))
	for key, value := range entries {
		var dist domain.FeeDistribution
		if err := sonic.Unmarshal(value, &dist); err != nil {
			log.Warn().Str("key", key).Err(err).Msg("[routerStorage] skipping corrupt distribution entry")
			continue
		}
		dists = append(dists, &dist)
	}

	sort.Slice(dists, func(i, j int) bool { return dists[i].Timestamp.After(dists[j].Timestamp) })
	if limit > 0 && len(dists) > limit {
		dists = dists[:limit]
	}
	return dists, nil
}

func journalKey(ts time.Time) []byte {
	return []byte(ts.UTC().Format(time.RFC3339Nano))
}
