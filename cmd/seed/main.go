package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"commerce-payload-bridge/internal/config"
	"commerce-payload-bridge/internal/domain/model"
	pg "commerce-payload-bridge/internal/infra/db/postgres"
)

// Seeds a sample order, a subscription anchored on it and a pending renewal,
// enough to exercise the checkout and renewal endpoints against a fresh
// database.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.Connect(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	orderRepo := pg.NewOrderRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)

	anchor := &model.Order{
		UserID:   1,
		Total:    4999,
		Currency: "USD",
		Status:   model.OrderStatusPending,
		Items:    []model.LineItem{{Name: "Monthly Coffee Box", Quantity: 1, Total: 4999}},
	}
	if err := orderRepo.Create(ctx, nil, anchor); err != nil {
		log.Fatalf("create anchor order: %v", err)
	}
	fmt.Printf("seeded: anchor order #%d (user=1, total=49.99 USD)\n", anchor.ID)

	next := time.Now().Add(30 * 24 * time.Hour)
	sub := &model.Subscription{
		ID:            anchor.ID + 1,
		UserID:        1,
		ParentOrderID: anchor.ID,
		Status:        model.SubscriptionStatusActive,
		Interval:      30 * 24 * time.Hour,
		NextPaymentAt: &next,
	}
	if err := subRepo.Save(ctx, nil, sub); err != nil {
		log.Fatalf("create subscription: %v", err)
	}
	fmt.Printf("seeded: subscription #%d anchored on order #%d\n", sub.ID, anchor.ID)

	renewal := &model.Order{
		UserID:   1,
		Total:    anchor.Total,
		Currency: anchor.Currency,
		Status:   model.OrderStatusPending,
		ParentID: anchor.ID,
		Items:    anchor.Items,
	}
	if err := orderRepo.Create(ctx, nil, renewal); err != nil {
		log.Fatalf("create renewal order: %v", err)
	}
	fmt.Printf("seeded: pending renewal order #%d\n", renewal.ID)

	fmt.Println("✅ Seeding complete.")
}
