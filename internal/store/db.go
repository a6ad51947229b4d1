package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Database wraps the GORM DB handle and exposes repository helpers.
type Database struct {
	gorm *gorm.DB
	mu   sync.Mutex
}

// Open initializes the SQLite-backed database at the provided path.
func Open(path string, silent bool) (*Database, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("db path required")
	}
	cfg := &gorm.Config{}
	if silent {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&DecisionTally{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		logrus.WithError(err).Warn("enable WAL mode")
	}
	if err := db.Exec("PRAGMA synchronous=NORMAL").Error; err != nil {
		logrus.WithError(err).Warn("set synchronous pragma")
	}
	return &Database{gorm: db}, nil
}

// Close closes the underlying database connection.
func (d *Database) Close() error {
	if d == nil {
		return nil
	}
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// IncrementTally adds one prediction to the day/class counter.
func (d *Database) IncrementTally(day, decisionClass string) error {
	if d == nil {
		return errors.New("database is nil")
	}
	day = strings.TrimSpace(day)
	decisionClass = strings.TrimSpace(decisionClass)
	if day == "" || decisionClass == "" {
		return errors.New("day and decision class required")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	row := &DecisionTally{Day: day, DecisionClass: decisionClass, Total: 1}
	return d.gorm.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "day"}, {Name: "decision_class"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total":      gorm.Expr("total + 1"),
			"updated_at": time.Now(),
		}),
	}).Create(row).Error
}

// ListTallies returns per-day counters on or after since, newest day first.
// An empty since returns every row.
func (d *Database) ListTallies(since string) ([]DecisionTally, error) {
	if d == nil {
		return nil, errors.New("database is nil")
	}
	query := d.gorm.Model(&DecisionTally{})
	if since = strings.TrimSpace(since); since != "" {
		query = query.Where("day >= ?", since)
	}
	var rows []DecisionTally
	if err := query.Order("day DESC, decision_class ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list tallies: %w", err)
	}
	return rows, nil
}

// Totals aggregates counters across all days per decision class.
func (d *Database) Totals() ([]ClassTotal, error) {
	if d == nil {
		return nil, errors.New("database is nil")
	}
	var out []ClassTotal
	err := d.gorm.Model(&DecisionTally{}).
		Select("decision_class, SUM(total) AS total").
		Group("decision_class").
		Order("decision_class ASC").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("tally totals: %w", err)
	}
	return out, nil
}
