package demonlistmigrations

import (
	"context"
	"fmt"

	demonlistdb "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/infrastructure/repositories"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating demon list tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			// Both tier tables share the Level model.
			for _, table := range []string{demonlistdb.ActiveLevelsTable, demonlistdb.ReserveLevelsTable} {
				if _, err := tx.NewCreateTable().
					Model((*demonlistdb.Level)(nil)).
					ModelTableExpr(table).
					IfNotExists().
					Exec(ctx); err != nil {
					return fmt.Errorf("failed to create %s table: %w", table, err)
				}
			}

			for _, model := range []any{
				(*demonlistdb.Progress)(nil),
				(*demonlistdb.Player)(nil),
				(*demonlistdb.BankedPoints)(nil),
			} {
				if _, err := tx.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
					return fmt.Errorf("failed to create table for %T: %w", model, err)
				}
			}

			if _, err := tx.NewCreateIndex().
				Model((*demonlistdb.Progress)(nil)).
				Index("idx_level_progress_player").
				Column("player").
				IfNotExists().
				Exec(ctx); err != nil {
				return fmt.Errorf("failed to create level_progress player index: %w", err)
			}

			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping demon list tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			for _, table := range []string{
				"banked_points",
				"players",
				"level_progress",
				demonlistdb.ReserveLevelsTable,
				demonlistdb.ActiveLevelsTable,
			} {
				if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
					return fmt.Errorf("failed to drop %s: %w", table, err)
				}
			}
			return nil
		})
	})
}
