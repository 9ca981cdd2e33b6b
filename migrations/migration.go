package migrations

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Migration records an applied migration in schema_migrations.
type Migration struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"unique;not null"`
	Batch     int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Migration) TableName() string {
	return "schema_migrations"
}

type MigrationFunc func(*gorm.DB) error

type MigrationDefinition struct {
	Name string
	Up   MigrationFunc
	Down MigrationFunc
}

// MigrationStatus pairs a known migration with the batch it ran in, if any.
type MigrationStatus struct {
	Name  string
	Ran   bool
	Batch int
}

type Migrator struct {
	db         *gorm.DB
	migrations []MigrationDefinition
}

func NewMigrator(db *gorm.DB) (*Migrator, error) {
	if err := db.AutoMigrate(&Migration{}); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}
	return &Migrator{
		db:         db,
		migrations: []MigrationDefinition{},
	}, nil
}

func (m *Migrator) AddMigration(migration MigrationDefinition) {
	m.migrations = append(m.migrations, migration)
}

// Migrate applies every pending migration in one new batch. Each migration
// runs in its own transaction together with its bookkeeping row.
func (m *Migrator) Migrate() (int, error) {
	batch, err := m.latestBatch()
	if err != nil {
		return 0, err
	}
	batch++

	applied := 0
	for _, migration := range m.migrations {
		ran, err := m.hasRun(migration.Name)
		if err != nil {
			return applied, err
		}
		if ran {
			continue
		}

		fmt.Printf("Migrating: %s\n", migration.Name)
		err = m.db.Transaction(func(tx *gorm.DB) error {
			if err := migration.Up(tx); err != nil {
				return err
			}
			return tx.Create(&Migration{Name: migration.Name, Batch: batch}).Error
		})
		if err != nil {
			return applied, fmt.Errorf("migration %s failed: %w", migration.Name, err)
		}
		fmt.Printf("Migrated: %s\n", migration.Name)
		applied++
	}

	return applied, nil
}

// Rollback reverts the last steps batches, newest migration first.
func (m *Migrator) Rollback(steps int) (int, error) {
	if steps <= 0 {
		steps = 1
	}

	batch, err := m.latestBatch()
	if err != nil {
		return 0, err
	}

	reverted := 0
	for i := 0; i < steps && batch > 0; i++ {
		var records []Migration
		if err := m.db.Where("batch = ?", batch).Order("id DESC").Find(&records).Error; err != nil {
			return reverted, err
		}

		for _, record := range records {
			migration := m.findMigration(record.Name)
			if migration == nil {
				return reverted, fmt.Errorf("migration definition not found: %s", record.Name)
			}
			if migration.Down == nil {
				return reverted, fmt.Errorf("rollback not defined for migration: %s", record.Name)
			}

			fmt.Printf("Rolling back: %s\n", record.Name)
			err := m.db.Transaction(func(tx *gorm.DB) error {
				if err := migration.Down(tx); err != nil {
					return err
				}
				return tx.Delete(&record).Error
			})
			if err != nil {
				return reverted, fmt.Errorf("rollback failed for %s: %w", record.Name, err)
			}
			fmt.Printf("Rolled back: %s\n", record.Name)
			reverted++
		}

		batch--
	}

	return reverted, nil
}

// Status lists every known migration in registration order.
func (m *Migrator) Status() ([]MigrationStatus, error) {
	var records []Migration
	if err := m.db.Find(&records).Error; err != nil {
		return nil, err
	}
	batches := make(map[string]int, len(records))
	for _, r := range records {
		batches[r.Name] = r.Batch
	}

	status := make([]MigrationStatus, 0, len(m.migrations))
	for _, migration := range m.migrations {
		batch, ran := batches[migration.Name]
		status = append(status, MigrationStatus{Name: migration.Name, Ran: ran, Batch: batch})
	}
	return status, nil
}

func (m *Migrator) hasRun(name string) (bool, error) {
	var count int64
	if err := m.db.Model(&Migration{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (m *Migrator) latestBatch() (int, error) {
	var migration Migration
	err := m.db.Order("batch DESC").First(&migration).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return migration.Batch, nil
}

func (m *Migrator) findMigration(name string) *MigrationDefinition {
	for i := range m.migrations {
		if m.migrations[i].Name == name {
			return &m.migrations[i]
		}
	}
	return nil
}
