package migrations

import "gorm.io/gorm"

// GetCoreMigrations returns the ledger schema in the order it must be applied.
func GetCoreMigrations() []MigrationDefinition {
	return []MigrationDefinition{
		{
			Name: "2025_01_01_000000_create_players_table",
			Up: func(db *gorm.DB) error {
				return execAll(db,
					`CREATE TABLE IF NOT EXISTS players (
						id VARCHAR(36) PRIMARY KEY,
						first_name VARCHAR(255) NOT NULL,
						last_name VARCHAR(255) NOT NULL DEFAULT '',
						handed VARCHAR(1) NOT NULL,
						is_active BOOLEAN NOT NULL,
						balance_usd_cents BIGINT NOT NULL CHECK (balance_usd_cents >= 0),
						created_at TIMESTAMP NOT NULL,
						updated_at TIMESTAMP NOT NULL
					)`,
					`CREATE INDEX IF NOT EXISTS idx_players_is_active ON players(is_active)`,
				)
			},
			Down: func(db *gorm.DB) error {
				return execAll(db, `DROP TABLE IF EXISTS players`)
			},
		},
		{
			Name: "2025_01_01_000001_create_matches_table",
			Up: func(db *gorm.DB) error {
				return execAll(db,
					`CREATE TABLE IF NOT EXISTS matches (
						id VARCHAR(36) PRIMARY KEY,
						p1_id VARCHAR(36) NOT NULL REFERENCES players(id),
						p2_id VARCHAR(36) NOT NULL REFERENCES players(id),
						entry_fee_usd_cents BIGINT NOT NULL CHECK (entry_fee_usd_cents >= 0),
						prize_usd_cents BIGINT NOT NULL CHECK (prize_usd_cents >= 0),
						p1_points BIGINT NOT NULL DEFAULT 0 CHECK (p1_points >= 0),
						p2_points BIGINT NOT NULL DEFAULT 0 CHECK (p2_points >= 0),
						dq_player_id VARCHAR(36) NULL,
						ended_at TIMESTAMP NULL,
						created_at TIMESTAMP NOT NULL,
						CHECK (p1_id <> p2_id)
					)`,
					`CREATE INDEX IF NOT EXISTS idx_matches_p1_id ON matches(p1_id)`,
					`CREATE INDEX IF NOT EXISTS idx_matches_p2_id ON matches(p2_id)`,
					`CREATE INDEX IF NOT EXISTS idx_matches_prize_usd_cents ON matches(prize_usd_cents)`,
					`CREATE INDEX IF NOT EXISTS idx_matches_ended_at ON matches(ended_at)`,
				)
			},
			Down: func(db *gorm.DB) error {
				return execAll(db, `DROP TABLE IF EXISTS matches`)
			},
		},
	}
}

func execAll(db *gorm.DB, statements ...string) error {
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
