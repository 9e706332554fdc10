package seeder

import (
	"context"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/zerobertocosta/Karibu/internal/database"
	"github.com/zerobertocosta/Karibu/internal/entity"
)

// Module exposes the seeder to Fx.
var Module = fx.Provide(New)

// devEstablishmentID is the tenant used by local seed data. Real tenants are
// minted by the token issuer.
const devEstablishmentID = 1

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	db     *bun.DB
	logger *zap.Logger
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, logger *zap.Logger) *Seeder {
	return &Seeder{db: conns.Writer, logger: logger}
}

// Floor seeds a small dining room if the tables are missing.
func (s *Seeder) Floor(ctx context.Context) error {
	now := time.Now().UTC()
	samples := []entity.Table{
		{EstablishmentID: devEstablishmentID, Number: "1", Capacity: 2, Status: entity.TableFree, CreatedAt: now},
		{EstablishmentID: devEstablishmentID, Number: "2", Capacity: 4, Status: entity.TableFree, CreatedAt: now},
		{EstablishmentID: devEstablishmentID, Number: "3", Capacity: 4, Status: entity.TableFree, CreatedAt: now},
		{EstablishmentID: devEstablishmentID, Number: "10", Capacity: 8, Status: entity.TableReserved, CreatedAt: now, Description: "window booth"},
	}

	for _, sample := range samples {
		table := sample
		_, err := s.db.NewInsert().Model(&table).
			On("CONFLICT (establishment_id, number) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
	}

	if s.logger != nil {
		s.logger.Info("seeded tables", zap.Int("count", len(samples)))
	}
	return nil
}

// Menu seeds a starter catalog if it is missing.
func (s *Seeder) Menu(ctx context.Context) error {
	now := time.Now().UTC()

	category := entity.Category{
		EstablishmentID: devEstablishmentID,
		Name:            "Mains",
		Active:          true,
		SortOrder:       1,
		CreatedAt:       now,
	}
	exists, err := s.db.NewSelect().Model((*entity.Category)(nil)).
		Where("cat.establishment_id = ?", devEstablishmentID).
		Where("cat.name = ?", category.Name).
		Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		if _, err := s.db.NewInsert().Model(&category).Exec(ctx); err != nil {
			return err
		}
	} else {
		if err := s.db.NewSelect().Model(&category).
			Where("cat.establishment_id = ?", devEstablishmentID).
			Where("cat.name = ?", category.Name).
			Scan(ctx); err != nil {
			return err
		}
	}

	items := []entity.MenuItem{
		{EstablishmentID: devEstablishmentID, CategoryID: category.ID, Name: "Margherita", PriceCents: 2500, Available: true, CreatedAt: now},
		{EstablishmentID: devEstablishmentID, CategoryID: category.ID, Name: "Feijoada", PriceCents: 4200, Available: true, CreatedAt: now},
		{EstablishmentID: devEstablishmentID, CategoryID: category.ID, Name: "Moqueca", PriceCents: 4800, Available: true, CreatedAt: now},
		{EstablishmentID: devEstablishmentID, CategoryID: category.ID, Name: "Caipirinha", PriceCents: 1600, Available: false, CreatedAt: now},
	}

	seeded := 0
	for _, sample := range items {
		item := sample
		exists, err := s.db.NewSelect().Model((*entity.MenuItem)(nil)).
			Where("mi.establishment_id = ?", devEstablishmentID).
			Where("mi.name = ?", item.Name).
			Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if _, err := s.db.NewInsert().Model(&item).Exec(ctx); err != nil {
			return err
		}
		seeded++
	}

	if s.logger != nil {
		s.logger.Info("seeded menu items", zap.Int("count", seeded))
	}
	return nil
}
