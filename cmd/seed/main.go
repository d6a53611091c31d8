package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	userID := envOrDefault("SEED_USER_ID", "00000000-0000-0000-0000-000000000001")
	presetName := envOrDefault("SEED_PRESET_NAME", "Dealer DMS export")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		log.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("begin tx: %v", err)
	}
	defer tx.Rollback(ctx)

	mapping := map[string]string{
		"Job Card No":      "job_card_no",
		"Registration No.": "registration_no",
		"Bill No":          "bill_no",
		"Customer Name":    "customer_name",
		"Mobile No":        "mobile_no",
		"Model":            "model",
		"Service Type":     "service_type",
		"Labour Amt":       "labour_amt",
		"Part Amt":         "part_amt",
		"Bill Amount":      "bill_amount",
	}
	mappingJSON, err := json.Marshal(mapping)
	if err != nil {
		log.Fatalf("encode mapping: %v", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.Exec(ctx, `
		INSERT INTO mapping_presets (id, user_id, name, mapping, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, name) DO UPDATE SET mapping = EXCLUDED.mapping, updated_at = EXCLUDED.updated_at
	`, uuid.NewString(), userID, presetName, mappingJSON, now); err != nil {
		log.Fatalf("upsert preset: %v", err)
	}

	samples := []struct {
		id       string
		customer string
		model    string
		jobType  string
		labour   float64
		part     float64
		bill     float64
	}{
		{"JC-1001", "Asha Verma", "Swift VXi", "Cash", 1500, 800, 3200},
		{"JC-1002", "Rahul Nair", "Baleno Zeta", "Insurance", 5400, 12200, 21000},
		{"JC-1003", "Meena Pillai", "WagonR LXi", "Warranty", 0, 0, 0},
	}

	for _, sample := range samples {
		profit := sample.bill - (sample.labour + sample.part)
		payload, err := json.Marshal(map[string]any{
			"id":           sample.id,
			"customerName": sample.customer,
			"model":        sample.model,
			"jobType":      sample.jobType,
			"status":       "Service",
			"currentStage": "Job Created",
			"labourAmt":    sample.labour,
			"partAmt":      sample.part,
			"billAmount":   sample.bill,
			"profit":       profit,
			"createdBy":    userID,
			"createdAt":    now,
			"updatedAt":    now,
		})
		if err != nil {
			log.Fatalf("encode job payload: %v", err)
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO jobs (id, customer_name, model, job_type, status, current_stage,
				labour_amt, part_amt, bill_amount, profit, created_by, created_at, updated_at, payload)
			VALUES ($1, $2, $3, $4, 'Service', 'Job Created', $5, $6, $7, $8, $9, $10, $10, $11)
			ON CONFLICT (id) DO UPDATE SET
				customer_name = EXCLUDED.customer_name,
				bill_amount = EXCLUDED.bill_amount,
				profit = EXCLUDED.profit,
				updated_at = EXCLUDED.updated_at,
				payload = EXCLUDED.payload
		`, sample.id, sample.customer, sample.model, sample.jobType,
			sample.labour, sample.part, sample.bill, profit, userID, now, payload); err != nil {
			log.Fatalf("upsert job %s: %v", sample.id, err)
		}
	}

	parts := []struct {
		partNo string
		name   string
		qty    float64
		price  float64
	}{
		{"BP-2041", "Front bumper", 4, 6500},
		{"WS-1108", "Windshield", 2, 9800},
		{"PT-0032", "Touch-up paint (white)", 12, 450},
	}

	for _, part := range parts {
		if _, err := tx.Exec(ctx, `
			INSERT INTO inventory (id, part_no, name, quantity, unit_price, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (part_no) DO UPDATE SET
				quantity = EXCLUDED.quantity,
				unit_price = EXCLUDED.unit_price,
				updated_at = EXCLUDED.updated_at
		`, uuid.NewString(), part.partNo, part.name, part.qty, part.price, now); err != nil {
			log.Fatalf("insert part %s: %v", part.partNo, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("commit tx: %v", err)
	}

	fmt.Printf("Seed completed. Preset=%q, jobs=%d, parts=%d\n", presetName, len(samples), len(parts))
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
