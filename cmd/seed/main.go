package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/itsalifarrukh/hb-apparel/internal/category"
	"github.com/itsalifarrukh/hb-apparel/internal/config"
	"github.com/itsalifarrukh/hb-apparel/internal/database"
	"github.com/itsalifarrukh/hb-apparel/internal/deal"
	"github.com/itsalifarrukh/hb-apparel/internal/logging"
	"github.com/itsalifarrukh/hb-apparel/internal/product"
)

type seedProduct struct {
	name     string
	category string
	price    string
	discount string
	stock    int
	deal     string
}

var categories = []struct {
	cat  category.Category
	subs []category.Subcategory
}{
	{category.Category{Slug: "men", Name: "Men", Ord: 3}, []category.Subcategory{
		{Slug: "men-shirts", Name: "Shirts"}, {Slug: "men-trousers", Name: "Trousers"},
	}},
	{category.Category{Slug: "women", Name: "Women", Ord: 2}, []category.Subcategory{
		{Slug: "women-dresses", Name: "Dresses"}, {Slug: "women-knitwear", Name: "Knitwear"},
	}},
	{category.Category{Slug: "accessories", Name: "Accessories", Ord: 1}, []category.Subcategory{
		{Slug: "accessories-hats", Name: "Hats"}, {Slug: "accessories-bags", Name: "Bags"},
	}},
}

var catalogue = []seedProduct{
	{"Oxford Shirt", "men", "100.00", "0", 40, ""},
	{"Slim Chinos", "men", "19.99", "33", 25, "Winter Sale"},
	{"Wrap Dress", "women", "79.00", "10", 15, "Black Friday"},
	{"Merino Cardigan", "women", "120.00", "0", 12, "Black Friday"},
	{"Wool Beanie", "accessories", "12.50", "0", 60, ""},
	{"Canvas Tote", "accessories", "35.00", "20", 30, "Winter Sale"},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.New("info", false)
		bootLogger.Fatal().Err(err).Msg("load config")
	}
	logger := logging.New(cfg.LogLevel, cfg.LogPretty)
	ctx := context.Background()

	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("migrate database")
	}

	deals := deal.NewPostgresRepository(db)
	err = database.NewSQLTx(db).WithinTx(ctx, func(ctx context.Context) error {
		return seed(ctx, logger,
			category.NewService(category.NewPostgresRepository(db)),
			deals,
			product.NewService(product.NewPostgresRepository(db), deals),
			time.Now().UTC())
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("seed")
	}
	logger.Info().Msg("seed complete")
}

// seed is safe to run repeatedly: categories and deals are upserted by their
// unique slug or title, products are matched by name.
func seed(ctx context.Context, logger zerolog.Logger, categoriesSvc *category.Service, deals deal.Repository, products *product.Service, now time.Time) error {
	categoryIDs := map[string]int{}
	for _, c := range categories {
		saved, err := categoriesSvc.Seed(ctx, c.cat, c.subs...)
		if err != nil {
			return err
		}
		categoryIDs[saved.Slug] = saved.ID
	}

	dealIDs := map[string]int{}
	for _, d := range []deal.Deal{
		{Title: "Black Friday", Discount: decimal.RequireFromString("25"), StartTime: now.Add(-24 * time.Hour), EndTime: now.Add(7 * 24 * time.Hour)},
		{Title: "Winter Sale", Discount: decimal.RequireFromString("15"), StartTime: now.Add(30 * 24 * time.Hour), EndTime: now.Add(60 * 24 * time.Hour)},
	} {
		saved, err := deals.Upsert(ctx, d)
		if err != nil {
			return err
		}
		dealIDs[saved.Title] = saved.ID
	}

	existing, err := products.List(ctx)
	if err != nil {
		return err
	}
	byName := make(map[string]product.Product, len(existing))
	for _, p := range existing {
		byName[p.Name] = p
	}

	for _, sp := range catalogue {
		p, ok := byName[sp.name]
		if !ok {
			catID := categoryIDs[sp.category]
			p, err = products.Create(ctx, product.Input{
				Name:       sp.name,
				Price:      decimal.RequireFromString(sp.price),
				Discount:   decimal.RequireFromString(sp.discount),
				Stock:      sp.stock,
				CategoryID: &catID,
			})
			if err != nil {
				return err
			}
			logger.Info().Str("product", p.Name).Int("id", p.ID).Msg("product created")
		}
		if sp.deal != "" {
			if err := deals.Attach(ctx, p.ID, dealIDs[sp.deal]); err != nil {
				return err
			}
		}
	}
	return nil
}
