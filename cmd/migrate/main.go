package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/urfave/cli/v2"

	"github.com/jrpal2001/scan2Reword-sub000/internal/datastore"
	"github.com/jrpal2001/scan2Reword-sub000/internal/models"
	"github.com/jrpal2001/scan2Reword-sub000/internal/services"
)

func init() {
	// for development
	//nolint:errcheck
	godotenv.Load("../../.env")

	// for production
	//nolint:errcheck
	godotenv.Load("./.env")
}

func main() {
	app := &cli.App{
		Name: "migrate",
		Commands: []*cli.Command{
			commandMigration(),
			commandConfigMigration(),
			commandSeedDemo(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandMigration() *cli.Command {
	return &cli.Command{
		Name: "migrate",
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db, err := getDb()
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableAccount(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableLedgerEntry(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTablePumpTransaction(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableReward(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableRedemption(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableCampaign(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableBanner(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableAuditLog(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableConfig(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			fmt.Println("Migration success")

			return nil
		},
	}
}

// insert default configs to db
func commandConfigMigration() *cli.Command {
	return &cli.Command{
		Name:        "migrate-config",
		Description: "Insert default configs to db",
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db, err := getDb()
			if err != nil {
				log.Fatal(err)
			}

			configs := []models.Config{
				{Key: services.CONFIG_SERVER_MODE, Value: "production"},
				{Key: services.CONFIG_POINTS_RATE_FUEL_PER_LITER, Value: "1"},
				{Key: services.CONFIG_POINTS_RATE_PER_100, Value: "5"},
				{Key: services.CONFIG_POINTS_EXPIRY_MONTHS, Value: "12"},
				{Key: services.CONFIG_POINTS_EXPIRY_NOTIFY_DAYS, Value: services.DEFAULT_POINTS_EXPIRY_NOTIFY_DAYS},
				{Key: services.CONFIG_REDEMPTION_EXPIRY_DAYS, Value: "30"},
				{Key: services.CONFIG_EXPIRY_SWEEP_CRON, Value: services.DEFAULT_EXPIRY_SWEEP_CRON},
				{Key: services.CONFIG_EXPIRY_SWEEP_ENABLED, Value: "false"},
			}

			for _, config := range configs {
				_, err = db.NewInsert().Model(&config).Exec(ctx)
				if err != nil {
					log.Println(err)
				}
			}

			fmt.Println("Migration success")

			return nil
		},
	}
}

// seed a handful of rows for local development
func commandSeedDemo() *cli.Command {
	return &cli.Command{
		Name:        "seed-demo",
		Description: "Insert demo accounts, rewards, campaigns and banners",
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db, err := getDb()
			if err != nil {
				log.Fatal(err)
			}

			accounts := []models.Account{
				{LoyaltyID: "LOY00000001", Mobile: "+10000000001", Name: "Demo Admin", Role: models.RoleAdmin, Active: true},
				{LoyaltyID: "LOY00000002", Mobile: "+10000000002", Name: "Demo Manager", Role: models.RoleManager, Active: true},
				{LoyaltyID: "LOY00000003", Mobile: "+10000000003", Name: "Demo Staff", Role: models.RoleStaff, Active: true},
				{LoyaltyID: "LOY00000004", Mobile: "+10000000004", Name: "Demo Customer", Role: models.RoleCustomer, Active: true},
			}
			for i := range accounts {
				if _, err := datastore.CreateAccount(ctx, db, &accounts[i]); err != nil {
					log.Println(err)
				}
			}

			rewards := []models.Reward{
				{Name: "Free Car Wash", Description: "One standard wash", PointsRequired: 500, Availability: models.AvailabilityUnlimited, Active: true},
				{Name: "Engine Oil 1L", Description: "Synthetic blend", PointsRequired: 1200, Availability: models.AvailabilityLimited, TotalQuantity: 100, Active: true},
			}
			for i := range rewards {
				if _, err := datastore.InsertReward(ctx, db, &rewards[i]); err != nil {
					log.Println(err)
				}
			}

			now := time.Now()
			campaigns := []models.Campaign{
				{
					Name:       "Weekend Fuel Double",
					Type:       models.CampaignMultiplier,
					Multiplier: 2,
					StartDate:  now,
					EndDate:    now.AddDate(0, 1, 0),
					Categories: []string{string(models.CategoryFuel)},
					Active:     true,
				},
				{
					Name:            "Store Bonus 10%",
					Type:            models.CampaignBonusPercentage,
					BonusPercentage: 10,
					StartDate:       now,
					EndDate:         now.AddDate(0, 1, 0),
					Categories:      []string{string(models.CategoryStore)},
					MinAmount:       500,
					Active:          true,
				},
			}
			for i := range campaigns {
				if _, err := datastore.InsertCampaign(ctx, db, &campaigns[i]); err != nil {
					log.Println(err)
				}
			}

			banners := []models.Banner{
				{Title: "Double points weekend", ImageURL: "https://cdn.example.com/banners/double.png", Weight: 3, Active: true},
				{Title: "New rewards catalog", ImageURL: "https://cdn.example.com/banners/catalog.png", Weight: 1, Active: true},
			}
			for i := range banners {
				if _, err := datastore.InsertBanner(ctx, db, &banners[i]); err != nil {
					log.Println(err)
				}
			}

			fmt.Println("Seed success")

			return nil
		},
	}
}

func getDb() (*bun.DB, error) {
	godotenv.Load()
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(os.Getenv("DB_DSN")),
		pgdriver.WithPassword(os.Getenv("DB_PASSWORD")),
	))

	db := bun.NewDB(sqldb, pgdialect.New())
	return db, nil
}
