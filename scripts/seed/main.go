package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/primavera-events/primavera/internal/app"
	"github.com/primavera-events/primavera/internal/platform/db"
	"github.com/primavera-events/primavera/internal/staff"
	"github.com/primavera-events/primavera/internal/venues"
)

type seedItem struct {
	name  string
	unit  string
	price float64
	stock *int
}

type seedSubCategory struct {
	name  string
	items []seedItem
}

type seedCategory struct {
	name        string
	description string
	subs        []seedSubCategory
}

func stock(n int) *int { return &n }

var catalogSeed = []seedCategory{
	{name: "Mobiliario", description: "Mesas, Sillas, Salas Lounge", subs: []seedSubCategory{
		{name: "Sillas", items: []seedItem{
			{name: "Silla Tiffany", unit: "pieza", price: 45, stock: stock(200)},
			{name: "Silla Versailles", unit: "pieza", price: 55, stock: stock(150)},
			{name: "Silla Crossback", unit: "pieza", price: 60, stock: stock(120)},
		}},
		{name: "Mesas", items: []seedItem{
			{name: "Mesa Redonda (10 pax)", unit: "pieza", price: 150, stock: stock(30)},
			{name: "Mesa Imperial (12-14 pax)", unit: "pieza", price: 350, stock: stock(8)},
		}},
	}},
	{name: "Catering", description: "Banquetes y Alimentos", subs: []seedSubCategory{
		{name: "Menús Base", items: []seedItem{
			{name: "Menú 3 Tiempos", unit: "persona", price: 450},
			{name: "Buffet Mexicano", unit: "persona", price: 380},
		}},
	}},
	{name: "Vajilla & Equipo", description: "Cristalería, Plaqué, Audio", subs: []seedSubCategory{
		{name: "Cristalería", items: []seedItem{
			{name: "Copa Vino Tinto", unit: "pieza", price: 12, stock: stock(300)},
			{name: "Vaso Highball", unit: "pieza", price: 8, stock: stock(500)},
		}},
		{name: "Plaqué", items: []seedItem{
			{name: "Set Cubiertos Oro (3 pzas)", unit: "set", price: 25, stock: stock(150)},
		}},
	}},
	{name: "Servicios Adicionales", description: "Personal, Música y Pista", subs: []seedSubCategory{
		{name: "Entretenimiento", items: []seedItem{
			{name: "DJ", unit: "evento", price: 8500, stock: stock(0)},
			{name: "Photobooth Espejo", unit: "servicio", price: 4500},
		}},
	}},
}

type seedVenue struct {
	name, kind, address, hours string
	capacity                   int
	rate                       float64
	services                   []string
	packages                   []venues.Package
}

var venueSeed = []seedVenue{
	{name: "Salón Los Caballos", kind: "salon", address: "Av. Principal 123, Centro", hours: "08:00-02:00", capacity: 250, rate: 3500,
		services: []string{"Estacionamiento", "Cocina equipada", "Pista de baile"},
		packages: []venues.Package{{Name: "Paquete Básico", Price: 15000, Includes: []string{"Salón 5 horas", "Mobiliario básico"}}}},
	{name: "Salón Los Potrillos", kind: "salon", address: "Calle Hidalgo 456", hours: "10:00-01:00", capacity: 150, rate: 2500,
		services: []string{"Estacionamiento", "Sonido básico"},
		packages: []venues.Package{{Name: "Paquete Íntimo", Price: 10000, Includes: []string{"Salón 5 horas", "Mobiliario"}}}},
	{name: "Salón Jardín Yolomécatl", kind: "jardin", address: "Carretera Estatal Km 5.5", hours: "08:00-23:00", capacity: 300, rate: 4000,
		services: []string{"Jardín", "Carpa", "Estacionamiento"},
		packages: []venues.Package{{Name: "Paquete Jardín", Price: 20000, Includes: []string{"Jardín completo 8 horas", "Sillas", "Iluminación"}}}},
	{name: "Jardín La Flor", kind: "jardin", address: "Camino Real 789, Fraccionamiento Las Flores", hours: "09:00-22:00", capacity: 200, rate: 3000,
		services: []string{"Jardín", "Fuente"},
		packages: []venues.Package{{Name: "Paquete Boutique", Price: 18000, Includes: []string{"Jardín 6 horas", "Mobiliario lounge", "Decoración floral"}}}},
	{name: "Salón Presidente", kind: "salon", address: "Blvd. Presidentes 1000, Zona Dorada", hours: "08:00-03:00", capacity: 400, rate: 5000,
		services: []string{"Valet parking", "Aire acondicionado", "Planta de luz"},
		packages: []venues.Package{
			{Name: "Paquete Ejecutivo", Price: 30000, Includes: []string{"Salón 8 horas", "Todo incluido", "Coordinador de evento"}},
			{Name: "Paquete VIP", Price: 50000, Includes: []string{"Salón 12 horas", "Servicio completo", "Decoración premium", "Valet parking"}},
		}},
}

var staffSeed = []staff.MemberInput{
	{FirstName: "Rosa", LastName: "Vega", Role: "Capitán de meseros", DailyRate: rate(900)},
	{FirstName: "Luis", LastName: "Ortega", Role: "Mesero", DailyRate: rate(600)},
	{FirstName: "Carmen", LastName: "Díaz", Role: "Cocinera", DailyRate: rate(850)},
}

func rate(v float64) *float64 { return &v }

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	ctx := context.Background()
	pool, err := db.New(ctx, cfg.PGDSN, db.Options{Timezone: cfg.AppTimezone})
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	var items map[string]uuid.UUID
	err = db.WithTx(ctx, pool, func(tx pgx.Tx) error {
		fmt.Println("→ Seeding catalog...")
		var err error
		if items, err = seedCatalog(ctx, tx); err != nil {
			return fmt.Errorf("catalog: %w", err)
		}
		fmt.Println("→ Seeding venues and staff...")
		venueIDs, err := seedVenues(ctx, tx)
		if err != nil {
			return fmt.Errorf("venues: %w", err)
		}
		if err := seedStaff(ctx, tx); err != nil {
			return fmt.Errorf("staff: %w", err)
		}
		fmt.Println("→ Seeding clients and events...")
		return seedBookings(ctx, tx, items, venueIDs, cfg.Location())
	})
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	fmt.Println("✓ Seed complete at", time.Now().Format(time.RFC3339))
}

func seedCatalog(ctx context.Context, tx pgx.Tx) (map[string]uuid.UUID, error) {
	ids := make(map[string]uuid.UUID)
	for _, cat := range catalogSeed {
		var catID uuid.UUID
		if err := tx.QueryRow(ctx, `INSERT INTO catalog_categories (name, description) VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description RETURNING id`, cat.name, cat.description).Scan(&catID); err != nil {
			return nil, err
		}
		for _, sub := range cat.subs {
			var subID uuid.UUID
			if err := tx.QueryRow(ctx, `INSERT INTO catalog_sub_categories (category_id, name) VALUES ($1, $2)
ON CONFLICT (category_id, name) DO UPDATE SET name = EXCLUDED.name RETURNING id`, catID, sub.name).Scan(&subID); err != nil {
				return nil, err
			}
			for _, item := range sub.items {
				var id uuid.UUID
				err := tx.QueryRow(ctx, `SELECT id FROM catalog_items WHERE sub_category_id = $1 AND name = $2`, subID, item.name).Scan(&id)
				if errors.Is(err, pgx.ErrNoRows) {
					err = tx.QueryRow(ctx, `INSERT INTO catalog_items (sub_category_id, name, unit, price, stock) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
						subID, item.name, item.unit, item.price, item.stock).Scan(&id)
				}
				if err != nil {
					return nil, err
				}
				ids[item.name] = id
			}
		}
	}
	return ids, nil
}

func seedVenues(ctx context.Context, tx pgx.Tx) (map[string]uuid.UUID, error) {
	ids := make(map[string]uuid.UUID, len(venueSeed))
	for _, v := range venueSeed {
		var id uuid.UUID
		if err := tx.QueryRow(ctx, `INSERT INTO venues (name, type, address, city, capacity, hourly_rate, working_hours, services, package_options)
VALUES ($1, $2, $3, 'Yolomécatl', $4, $5, $6, $7, $8)
ON CONFLICT (name) DO UPDATE SET capacity = EXCLUDED.capacity, hourly_rate = EXCLUDED.hourly_rate RETURNING id`,
			v.name, v.kind, v.address, v.capacity, v.rate, v.hours, v.services, v.packages).Scan(&id); err != nil {
			return nil, err
		}
		ids[v.name] = id
	}
	return ids, nil
}

func seedStaff(ctx context.Context, tx pgx.Tx) error {
	var existing int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM staff`).Scan(&existing); err != nil {
		return err
	}
	if existing > 0 {
		return nil
	}
	for _, m := range staffSeed {
		if _, err := tx.Exec(ctx, `INSERT INTO staff (first_name, last_name, role, daily_rate) VALUES ($1, $2, $3, $4)`,
			m.FirstName, m.LastName, m.Role, m.DailyRate); err != nil {
			return err
		}
	}
	return nil
}

func seedBookings(ctx context.Context, tx pgx.Tx, items, venueIDs map[string]uuid.UUID, loc *time.Location) error {
	var existing int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM events`).Scan(&existing); err != nil {
		return err
	}
	if existing > 0 {
		fmt.Println("  events already present, skipping")
		return nil
	}

	clients := []struct {
		first, last, email, kind string
	}{
		{"Mariana", "López", "mariana.lopez@example.com", "ACTIVE"},
		{"Jorge", "Hernández", "jorge.hdz@example.com", "LEAD"},
		{"Sofía", "Ramírez", "sofia.ramirez@example.com", "VIP"},
	}
	clientIDs := make([]uuid.UUID, 0, len(clients))
	for _, c := range clients {
		var id uuid.UUID
		if err := tx.QueryRow(ctx, `INSERT INTO clients (first_name, last_name, email, type) VALUES ($1, $2, $3, $4) RETURNING id`,
			c.first, c.last, c.email, c.kind).Scan(&id); err != nil {
			return err
		}
		clientIDs = append(clientIDs, id)
	}

	now := time.Now().In(loc)
	saturday := time.Date(now.Year(), now.Month(), now.Day(), 19, 0, 0, 0, loc)
	for saturday.Weekday() != time.Saturday {
		saturday = saturday.AddDate(0, 0, 1)
	}

	events := []struct {
		client   uuid.UUID
		venue    string
		name     string
		kind     string
		date     time.Time
		guests   int
		status   string
		reserved map[string]int
	}{
		{clientIDs[0], "Salón Los Caballos", "Boda López-García", "Boda", saturday, 180, "CONFIRMED", map[string]int{"Silla Tiffany": 180, "Mesa Redonda (10 pax)": 18, "Copa Vino Tinto": 200}},
		{clientIDs[2], "Salón Los Potrillos", "XV Años Sofía", "XV Años", saturday.Add(2 * time.Hour), 100, "CONFIRMED", map[string]int{"Silla Tiffany": 40, "Copa Vino Tinto": 120}},
		{clientIDs[1], "Salón Presidente", "Cena corporativa", "Corporativo", saturday.AddDate(0, 0, 7), 60, "DRAFT", map[string]int{"Silla Versailles": 60}},
	}
	for _, ev := range events {
		var eventID uuid.UUID
		if err := tx.QueryRow(ctx, `INSERT INTO events (client_id, venue_id, venue, name, type, date, guest_count, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
			ev.client, venueIDs[ev.venue], ev.venue, ev.name, ev.kind, ev.date, ev.guests, ev.status).Scan(&eventID); err != nil {
			return err
		}
		status := "DRAFT"
		if ev.status == "CONFIRMED" {
			status = "ACCEPTED"
		}
		var quoteID uuid.UUID
		if err := tx.QueryRow(ctx, `INSERT INTO quotes (event_id, status) VALUES ($1, $2) RETURNING id`, eventID, status).Scan(&quoteID); err != nil {
			return err
		}
		batch := &pgx.Batch{}
		for name, qty := range ev.reserved {
			batch.Queue(`INSERT INTO quote_items (quote_id, catalog_item_id, quantity, unit_price)
SELECT $1, id, $3, price FROM catalog_items WHERE id = $2`, quoteID, items[name], qty)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE quotes SET subtotal = (SELECT COALESCE(SUM(quantity * unit_price), 0) FROM quote_items WHERE quote_id = $1) WHERE id = $1`, quoteID); err != nil {
			return err
		}
	}
	return nil
}
