package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaSQL = `CREATE TABLE IF NOT EXISTS listings (
	source          text        NOT NULL,
	listing_id      text        NOT NULL,
	url             text        NOT NULL,
	title           text        NOT NULL,
	description     text        NOT NULL DEFAULT '',
	property_type   text        NOT NULL DEFAULT '',
	price_text      text        NOT NULL DEFAULT '',
	price           numeric,
	bedrooms        numeric,
	bathrooms       numeric,
	garages         numeric,
	erf_size_sqm    numeric,
	floor_size_sqm  numeric,
	features        text[]      NOT NULL DEFAULT '{}',
	images          text[]      NOT NULL DEFAULT '{}',
	address         text        NOT NULL DEFAULT '',
	suburb          text        NOT NULL DEFAULT '',
	city            text        NOT NULL DEFAULT '',
	province        text        NOT NULL DEFAULT '',
	agent_name      text        NOT NULL DEFAULT '',
	agent_phone     text        NOT NULL DEFAULT '',
	agent_email     text        NOT NULL DEFAULT '',
	agency_name     text        NOT NULL DEFAULT '',
	listed_on       date,
	scraped_at      timestamptz NOT NULL,
	PRIMARY KEY (source, listing_id)
)`

const upsertSQL = `INSERT INTO listings
	(source, listing_id, url, title, description, property_type, price_text, price,
	 bedrooms, bathrooms, garages, erf_size_sqm, floor_size_sqm, features, images,
	 address, suburb, city, province, agent_name, agent_phone, agent_email, agency_name,
	 listed_on, scraped_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25)
	ON CONFLICT (source, listing_id) DO UPDATE SET
	 url = EXCLUDED.url, title = EXCLUDED.title, description = EXCLUDED.description,
	 property_type = EXCLUDED.property_type, price_text = EXCLUDED.price_text, price = EXCLUDED.price,
	 bedrooms = EXCLUDED.bedrooms, bathrooms = EXCLUDED.bathrooms, garages = EXCLUDED.garages,
	 erf_size_sqm = EXCLUDED.erf_size_sqm, floor_size_sqm = EXCLUDED.floor_size_sqm,
	 features = EXCLUDED.features, images = EXCLUDED.images, address = EXCLUDED.address,
	 suburb = EXCLUDED.suburb, city = EXCLUDED.city, province = EXCLUDED.province,
	 agent_name = EXCLUDED.agent_name, agent_phone = EXCLUDED.agent_phone,
	 agent_email = EXCLUDED.agent_email, agency_name = EXCLUDED.agency_name,
	 listed_on = EXCLUDED.listed_on, scraped_at = EXCLUDED.scraped_at`

// PostgresStore writes records to the listings table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn and creates the listings table if needed.
func OpenPostgres(ctx context.Context, dsn string, maxConns int) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: parse dsn: %w", err)
	}
	if maxConns <= 0 {
		maxConns = 4
	}
	cfg.MaxConns = int32(maxConns)

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage: connect: %w", err)
	}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage: create schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Save upserts recs in one batch.
func (s *PostgresStore) Save(ctx context.Context, recs ...*Record) (int, error) {
	b := &pgx.Batch{}
	for _, r := range recs {
		if r == nil || strings.TrimSpace(r.ListingID) == "" {
			continue
		}
		b.Queue(upsertSQL, upsertArgs(r)...)
	}
	if b.Len() == 0 {
		return 0, nil
	}

	br := s.pool.SendBatch(ctx, b)
	total := 0
	for k := 0; k < b.Len(); k++ {
		tag, err := br.Exec()
		if err != nil {
			_ = br.Close()
			return total, fmt.Errorf("storage: upsert: %w", err)
		}
		total += int(tag.RowsAffected())
	}
	if err := br.Close(); err != nil {
		return total, fmt.Errorf("storage: upsert: %w", err)
	}
	return total, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

// upsertArgs lists r's columns in upsertSQL order.
func upsertArgs(r *Record) []any {
	p, loc, a := r.Property, r.Location, r.Agent
	return []any{
		string(r.Source), r.ListingID, r.URL, p.Title, p.Description, p.PropertyType, p.PriceText, p.Price,
		p.Bedrooms, p.Bathrooms, p.Garages, p.ErfSizeSqm, p.FloorSizeSqm, p.Features, p.Images,
		loc.Address, loc.Suburb, loc.City, loc.Province, a.Name, a.Phone, a.Email, a.Agency,
		r.ListedOn, r.ScrapedAt,
	}
}
