// Command seeder loads demo restaurants, menus, staff and coupons so a
// fresh environment is browsable without manual setup. Safe to re-run.
package main

import (
	"database/sql"
	"log"
	"os"

	"github.com/alexedwards/argon2id"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

const seedPassword = "password123"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("ping db: %v", err)
	}

	hash, err := argon2id.CreateHash(seedPassword, argon2id.DefaultParams)
	if err != nil {
		log.Fatalf("hash seed password: %v", err)
	}

	userIDs := seedUsers(db, hash)
	restIDs := seedRestaurants(db)
	seedStaff(db, userIDs, restIDs)
	seedBranches(db, restIDs)
	seedMenus(db, restIDs)
	seedCoupons(db, restIDs)

	log.Println("seeding completed")
}

func seedUsers(db *sql.DB, hash string) map[string]string {
	users := []struct {
		Name  string
		Email string
		Role  string
	}{
		{"Platform Admin", "admin@resto.dev", "SUPER_ADMIN"},
		{"Rina Hartono", "rina@warungnusantara.id", "RESTAURANT_ADMIN"},
		{"Dimas Saputro", "dimas@bakmi88.id", "RESTAURANT_ADMIN"},
		{"Lia Kusuma", "lia@warungnusantara.id", "BRANCH_MANAGER"},
		{"Budi Santoso", "budi@example.com", "CUSTOMER"},
		{"Siti Aminah", "siti@example.com", "CUSTOMER"},
		{"Andi Pratama", "andi@example.com", "CUSTOMER"},
		{"Dewi Lestari", "dewi@example.com", "CUSTOMER"},
	}

	log.Println("seeding users...")
	ids := make(map[string]string)
	for _, u := range users {
		var id string
		err := db.QueryRow(`
			INSERT INTO users (name, email, password_hash, role)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`, u.Name, u.Email, hash, u.Role).Scan(&id)
		if err != nil {
			log.Printf("seed user %s: %v", u.Email, err)
			continue
		}
		ids[u.Email] = id
	}
	return ids
}

func seedRestaurants(db *sql.DB) map[string]string {
	restaurants := []struct {
		Slug        string
		Name        string
		Description string
		Email       string
		Phone       string
	}{
		{"warung-nusantara", "Warung Nusantara", "Masakan rumahan khas Jawa dan Sumatera.", "halo@warungnusantara.id", "+62211234567"},
		{"bakmi-88", "Bakmi 88", "Bakmi dan dimsum sejak 1988.", "order@bakmi88.id", "+62217654321"},
		{"kopi-senja", "Kopi Senja", "Kopi susu gula aren dan pastry.", "hi@kopisenja.id", "+62218889900"},
	}

	log.Println("seeding restaurants...")
	ids := make(map[string]string)
	for _, r := range restaurants {
		var id string
		err := db.QueryRow(`
			INSERT INTO restaurants (slug, name, description, contact_email, contact_phone)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (slug) DO UPDATE SET
				name = EXCLUDED.name,
				description = EXCLUDED.description
			RETURNING id`, r.Slug, r.Name, r.Description, r.Email, r.Phone).Scan(&id)
		if err != nil {
			log.Printf("seed restaurant %s: %v", r.Slug, err)
			continue
		}
		ids[r.Slug] = id
	}
	return ids
}

func seedStaff(db *sql.DB, users, restaurants map[string]string) {
	admins := []struct{ Email, Slug string }{
		{"rina@warungnusantara.id", "warung-nusantara"},
		{"dimas@bakmi88.id", "bakmi-88"},
	}

	log.Println("seeding staff assignments...")
	for _, a := range admins {
		userID, ok1 := users[a.Email]
		restID, ok2 := restaurants[a.Slug]
		if !ok1 || !ok2 {
			continue
		}
		if _, err := db.Exec(`
			INSERT INTO restaurant_admins (user_id, restaurant_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, userID, restID); err != nil {
			log.Printf("seed admin %s: %v", a.Email, err)
		}
	}

	// Branch manager for the first Warung Nusantara branch.
	managerID, ok1 := users["lia@warungnusantara.id"]
	restID, ok2 := restaurants["warung-nusantara"]
	if !ok1 || !ok2 {
		return
	}
	var branchID string
	err := db.QueryRow(`
		SELECT id FROM branches
		WHERE restaurant_id = $1 ORDER BY name LIMIT 1`, restID).Scan(&branchID)
	if err != nil {
		log.Printf("skip branch manager seed: %v", err)
		return
	}
	if _, err := db.Exec(`
		INSERT INTO branch_managers (user_id, branch_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, managerID, branchID); err != nil {
		log.Printf("seed branch manager: %v", err)
	}
}

func seedBranches(db *sql.DB, restaurants map[string]string) {
	branches := []struct {
		Slug    string
		Name    string
		Address string
		Phone   string
	}{
		{"warung-nusantara", "Senayan", "Jl. Asia Afrika No. 8, Jakarta Pusat", "+62215550001"},
		{"warung-nusantara", "Kemang", "Jl. Kemang Raya No. 12, Jakarta Selatan", "+62215550002"},
		{"bakmi-88", "Glodok", "Jl. Pancoran No. 88, Jakarta Barat", "+62215550003"},
		{"kopi-senja", "Blok M", "Jl. Melawai V No. 3, Jakarta Selatan", "+62215550004"},
	}

	log.Println("seeding branches...")
	for _, b := range branches {
		restID, ok := restaurants[b.Slug]
		if !ok {
			continue
		}
		var exists bool
		if err := db.QueryRow(`
			SELECT EXISTS (
				SELECT 1 FROM branches WHERE restaurant_id = $1 AND name = $2
			)`, restID, b.Name).Scan(&exists); err != nil || exists {
			continue
		}
		if _, err := db.Exec(`
			INSERT INTO branches (restaurant_id, name, address, phone)
			VALUES ($1, $2, $3, $4)`, restID, b.Name, b.Address, b.Phone); err != nil {
			log.Printf("seed branch %s/%s: %v", b.Slug, b.Name, err)
		}
	}
}

func seedMenus(db *sql.DB, restaurants map[string]string) {
	items := []struct {
		Slug        string
		Name        string
		Description string
		Category    string
		Price       int64
	}{
		{"warung-nusantara", "Nasi Goreng Kampung", "Nasi goreng dengan teri dan pete.", "Nasi", 38000},
		{"warung-nusantara", "Rendang Daging", "Rendang sapi dimasak 8 jam.", "Lauk", 55000},
		{"warung-nusantara", "Ayam Bakar Taliwang", "Ayam kampung bumbu taliwang.", "Lauk", 48000},
		{"warung-nusantara", "Es Teh Manis", "", "Minuman", 8000},
		{"bakmi-88", "Bakmi Ayam Jamur", "Mie tipis dengan ayam cincang dan jamur.", "Mie", 35000},
		{"bakmi-88", "Pangsit Goreng", "Isi 6, saus asam manis.", "Dimsum", 22000},
		{"bakmi-88", "Siomay Udang", "Isi 4.", "Dimsum", 28000},
		{"kopi-senja", "Kopi Susu Gula Aren", "Signature, espresso double shot.", "Kopi", 24000},
		{"kopi-senja", "Croissant Butter", "", "Pastry", 28000},
		{"kopi-senja", "Americano", "", "Kopi", 20000},
	}

	log.Println("seeding menu items...")
	itemIDs := make(map[string]string)
	for _, it := range items {
		restID, ok := restaurants[it.Slug]
		if !ok {
			continue
		}
		var id string
		err := db.QueryRow(`
			SELECT id FROM menu_items WHERE restaurant_id = $1 AND name = $2`,
			restID, it.Name).Scan(&id)
		if err == sql.ErrNoRows {
			err = db.QueryRow(`
				INSERT INTO menu_items (restaurant_id, name, description, category, price)
				VALUES ($1, $2, NULLIF($3, ''), $4, $5)
				RETURNING id`, restID, it.Name, it.Description, it.Category, it.Price).Scan(&id)
		}
		if err != nil {
			log.Printf("seed menu item %s: %v", it.Name, err)
			continue
		}
		itemIDs[it.Slug+"/"+it.Name] = id
	}

	seedAddons(db, restaurants, itemIDs)
}

func seedAddons(db *sql.DB, restaurants, items map[string]string) {
	addons := []struct {
		Slug  string
		Name  string
		Price int64
		Items []string
	}{
		{"warung-nusantara", "Telur Ceplok", 6000, []string{"Nasi Goreng Kampung"}},
		{"warung-nusantara", "Kerupuk", 3000, []string{"Nasi Goreng Kampung", "Rendang Daging"}},
		{"bakmi-88", "Extra Pangsit", 8000, []string{"Bakmi Ayam Jamur"}},
		{"kopi-senja", "Extra Shot", 8000, []string{"Kopi Susu Gula Aren", "Americano"}},
		{"kopi-senja", "Oat Milk", 10000, []string{"Kopi Susu Gula Aren", "Americano"}},
	}

	log.Println("seeding addons...")
	for _, a := range addons {
		restID, ok := restaurants[a.Slug]
		if !ok {
			continue
		}
		var id string
		err := db.QueryRow(`
			SELECT id FROM addons WHERE restaurant_id = $1 AND name = $2`,
			restID, a.Name).Scan(&id)
		if err == sql.ErrNoRows {
			err = db.QueryRow(`
				INSERT INTO addons (restaurant_id, name, price)
				VALUES ($1, $2, $3)
				RETURNING id`, restID, a.Name, a.Price).Scan(&id)
		}
		if err != nil {
			log.Printf("seed addon %s: %v", a.Name, err)
			continue
		}
		for _, itemName := range a.Items {
			itemID, ok := items[a.Slug+"/"+itemName]
			if !ok {
				continue
			}
			if _, err := db.Exec(`
				INSERT INTO menu_item_addons (menu_item_id, addon_id)
				VALUES ($1, $2)
				ON CONFLICT DO NOTHING`, itemID, id); err != nil {
				log.Printf("link addon %s to %s: %v", a.Name, itemName, err)
			}
		}
	}
}

func seedCoupons(db *sql.DB, restaurants map[string]string) {
	log.Println("seeding coupons...")

	// Platform-wide welcome coupon.
	if _, err := db.Exec(`
		INSERT INTO coupons (restaurant_id, code, discount_type, discount_value,
			min_order_amount, max_discount_amount, starts_at, ends_at, usage_limit)
		VALUES (NULL, 'WELCOME10', 'PERCENTAGE', 10, 25000, 15000, now(), now() + INTERVAL '1 year', 1000)
		ON CONFLICT DO NOTHING`); err != nil {
		log.Printf("seed coupon WELCOME10: %v", err)
	}

	coupons := []struct {
		Slug  string
		Code  string
		Type  string
		Value int64
		Min   int64
	}{
		{"warung-nusantara", "HEMAT15", "FIXED", 15000, 75000},
		{"bakmi-88", "BAKMI20", "PERCENTAGE", 20, 50000},
	}
	for _, c := range coupons {
		restID, ok := restaurants[c.Slug]
		if !ok {
			continue
		}
		if _, err := db.Exec(`
			INSERT INTO coupons (restaurant_id, code, discount_type, discount_value,
				min_order_amount, max_discount_amount, starts_at, ends_at)
			VALUES ($1, $2, $3, $4, $5, 25000, now(), now() + INTERVAL '6 months')
			ON CONFLICT DO NOTHING`, restID, c.Code, c.Type, c.Value, c.Min); err != nil {
			log.Printf("seed coupon %s: %v", c.Code, err)
		}
	}
}
