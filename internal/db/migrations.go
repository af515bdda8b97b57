package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'wagon_status') THEN
			CREATE TYPE wagon_status AS ENUM ('at_elevator', 'in_transit', 'shipped');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'document_owner_type') THEN
			CREATE TYPE document_owner_type AS ENUM ('contract', 'application', 'wagon');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'upload_status') THEN
			CREATE TYPE upload_status AS ENUM ('pending', 'uploading', 'uploaded', 'failed');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS contracts (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		number VARCHAR(64) NOT NULL,
		total_volume NUMERIC(18,3) NOT NULL CHECK (total_volume >= 0),
		currency VARCHAR(8) NOT NULL,
		crop VARCHAR(64),
		elevator VARCHAR(128),
		station VARCHAR(128),
		sender VARCHAR(128),
		receiver VARCHAR(128),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS applications (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		contract_id UUID NOT NULL REFERENCES contracts(id),
		name VARCHAR(128),
		volume NUMERIC(18,3) NOT NULL CHECK (volume >= 0),
		price_per_ton NUMERIC(18,2) NOT NULL CHECK (price_per_ton >= 0),
		currency VARCHAR(8) NOT NULL,
		culture VARCHAR(64),
		total_amount NUMERIC(18,2) NOT NULL,
		comment TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_applications_contract_id ON applications (contract_id);`,
	`CREATE TABLE IF NOT EXISTS wagons (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		application_id UUID REFERENCES applications(id) ON DELETE SET NULL,
		number VARCHAR(32) NOT NULL,
		capacity BIGINT NOT NULL,
		real_weight BIGINT,
		owner VARCHAR(128),
		status wagon_status NOT NULL DEFAULT 'at_elevator',
		date_of_departure DATE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_wagons_application_id ON wagons (application_id) WHERE application_id IS NOT NULL;`,
	`CREATE INDEX IF NOT EXISTS idx_wagons_status ON wagons (status);`,
	`CREATE TABLE IF NOT EXISTS documents (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		owner_type document_owner_type NOT NULL,
		owner_id UUID NOT NULL,
		name VARCHAR(128) NOT NULL,
		number VARCHAR(64) NOT NULL,
		date DATE,
		location VARCHAR(512),
		file_id UUID,
		upload_status upload_status NOT NULL DEFAULT 'pending',
		correlation_id UUID NOT NULL DEFAULT uuid_generate_v4(),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_document_owner_number ON documents (owner_type, owner_id, number);`,
	`CREATE INDEX IF NOT EXISTS idx_documents_owner ON documents (owner_type, owner_id);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
