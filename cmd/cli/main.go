package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/omerdikyol/api-for-travel-company/internal/domain"
	"github.com/omerdikyol/api-for-travel-company/internal/infrastructure/logger"
	"github.com/omerdikyol/api-for-travel-company/internal/repository"
	"github.com/omerdikyol/api-for-travel-company/migrations"
	"github.com/omerdikyol/api-for-travel-company/pkg/config"
	"github.com/omerdikyol/api-for-travel-company/pkg/database"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "auth":
		handleAuth(args)
	case "houses":
		handleHouses(args)
	case "stay":
		handleStay(args)
	case "admin":
		handleAdmin(args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handleAuth(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: travelctl auth <register|login|logout|who>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "register":
		registerUser(args[1:])
	case "login":
		loginUser(args[1:])
	case "logout":
		logoutUser()
	case "who":
		whoAmI()
	default:
		fmt.Printf("unknown auth command: %s\n", subCmd)
	}
}

func handleHouses(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: travelctl houses <query>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "query":
		queryHouses(args[1:])
	default:
		fmt.Printf("unknown houses command: %s\n", subCmd)
	}
}

func handleStay(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: travelctl stay <book>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "book":
		bookStay(args[1:])
	default:
		fmt.Printf("unknown stay command: %s\n", subCmd)
	}
}

func handleAdmin(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: travelctl admin <seed|migrate>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "seed":
		seedHouses(args[1:])
	case "migrate":
		runMigrations()
	default:
		fmt.Printf("unknown admin command: %s\n", subCmd)
	}
}

// Auth commands
func registerUser(args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	username := fs.String("username", "", "username")
	password := fs.String("password", "", "password")

	fs.Parse(args)

	if *username == "" || *password == "" {
		fmt.Println("Error: username and password are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]string{"username": *username, "password": *password}
	data, _ := json.Marshal(payload)
	resp, err := http.Post(getAPIURL()+"/register", "application/json", bytes.NewReader(data))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 201 {
		fmt.Printf("✓ User registered: %s\n", *username)
		if token, ok := result["access_token"].(string); ok {
			saveToken(token)
		}
	} else {
		fmt.Printf("✗ Registration failed: %v\n", result["message"])
	}
}

func loginUser(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	username := fs.String("username", "", "username")
	password := fs.String("password", "", "password")

	fs.Parse(args)

	if *username == "" || *password == "" {
		fmt.Println("Error: username and password are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]string{"username": *username, "password": *password}
	data, _ := json.Marshal(payload)
	resp, err := http.Post(getAPIURL()+"/login", "application/json", bytes.NewReader(data))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 200 {
		if token, ok := result["access_token"].(string); ok {
			saveToken(token)
			fmt.Printf("✓ Logged in as: %s\n", *username)
		}
	} else {
		fmt.Printf("✗ Login failed: %v\n", result["message"])
	}
}

func logoutUser() {
	os.Remove(tokenFile())
	fmt.Println("✓ Logged out")
}

func whoAmI() {
	token := loadToken()
	if token == "" {
		fmt.Println("Not logged in")
		return
	}
	fmt.Printf("✓ Logged in (token: %s...)\n", token[:20])
}

// House commands
func queryHouses(args []string) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	from := fs.String("from", "", "check-in date (YYYY-MM-DD)")
	to := fs.String("to", "", "check-out date (YYYY-MM-DD)")
	people := fs.Int("people", 0, "number of guests")
	page := fs.Int("page", 1, "result page")
	limit := fs.Int("limit", 10, "results per page")

	fs.Parse(args)

	if *from == "" || *to == "" || *people == 0 {
		fmt.Println("Error: from, to, and people are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]interface{}{
		"from":   *from,
		"to":     *to,
		"people": *people,
		"page":   *page,
		"limit":  *limit,
	}
	data, _ := json.Marshal(payload)
	resp, err := http.Post(getAPIURL()+"/query_houses", "application/json", bytes.NewReader(data))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		var result map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&result)
		fmt.Printf("✗ Query failed: %v\n", result["message"])
		return
	}

	var result struct {
		Houses []struct {
			ID          int64  `json:"id"`
			Description string `json:"description"`
			Amenities   string `json:"amenities"`
			City        string `json:"city"`
			Capacity    int    `json:"capacity"`
		} `json:"houses"`
		TotalResults int `json:"total_results"`
		CurrentPage  int `json:"current_page"`
		TotalPages   int `json:"total_pages"`
	}
	json.NewDecoder(resp.Body).Decode(&result)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCITY\tCAPACITY\tDESCRIPTION")
	for _, h := range result.Houses {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", h.ID, h.City, h.Capacity, h.Description)
	}
	w.Flush()
	fmt.Printf("\nPage %d of %d (%d houses total)\n", result.CurrentPage, result.TotalPages, result.TotalResults)
}

// Booking commands
func bookStay(args []string) {
	fs := flag.NewFlagSet("book", flag.ExitOnError)
	houseID := fs.Int64("house", 0, "house ID")
	from := fs.String("from", "", "check-in date (YYYY-MM-DD)")
	to := fs.String("to", "", "check-out date (YYYY-MM-DD)")
	names := fs.String("names", "", "comma-separated guest names")

	fs.Parse(args)

	if *houseID == 0 || *from == "" || *to == "" || *names == "" {
		fmt.Println("Error: house, from, to, and names are required")
		fs.PrintDefaults()
		return
	}

	guestNames := strings.Split(*names, ",")
	payload := map[string]interface{}{
		"house_id": *houseID,
		"from":     *from,
		"to":       *to,
		"names":    guestNames,
	}
	data, _ := json.Marshal(payload)
	req, _ := http.NewRequest("POST", getAPIURL()+"/book_stay", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 201 {
		fmt.Printf("✓ Booked house %d from %s to %s for %d guest(s)\n",
			*houseID, *from, *to, len(guestNames))
	} else {
		fmt.Printf("✗ Booking failed: %v\n", result["message"])
	}
}

// Admin commands talk to Postgres directly using the server's
// configuration, bypassing the HTTP surface.
func seedHouses(args []string) {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	file := fs.String("file", "", "path to a JSON file with an array of houses")

	fs.Parse(args)

	if *file == "" {
		fmt.Println("Error: file is required")
		fs.PrintDefaults()
		return
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	var houses []domain.House
	if err := json.Unmarshal(data, &houses); err != nil {
		fmt.Printf("Error: invalid house file: %v\n", err)
		return
	}

	repo, closeDB, err := connectHouseRepo()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer closeDB()

	ctx := context.Background()
	for i := range houses {
		if houses[i].Capacity < 1 {
			fmt.Printf("✗ Skipping %q: capacity must be at least 1\n", houses[i].Name)
			continue
		}
		if err := repo.Create(ctx, &houses[i]); err != nil {
			fmt.Printf("✗ Failed to seed %q: %v\n", houses[i].Name, err)
			continue
		}
		fmt.Printf("✓ Seeded house %d: %s (%s, sleeps %d)\n",
			houses[i].ID, houses[i].Name, houses[i].City, houses[i].Capacity)
	}
}

func runMigrations() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	log := logger.NewLogger("error")
	pool, err := database.NewConnectionPool(context.Background(), &database.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Database: cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	}, log)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer pool.Close()

	if err := migrations.Up(context.Background(), pool.DB()); err != nil {
		fmt.Printf("✗ Migration failed: %v\n", err)
		return
	}
	fmt.Println("✓ Migrations applied")
}

func connectHouseRepo() (domain.HouseRepository, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	log := logger.NewLogger("error")
	pool, err := database.NewConnectionPool(context.Background(), &database.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Database: cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	}, log)
	if err != nil {
		return nil, nil, err
	}

	return repository.NewPostgresHouseRepository(pool.DB(), log), func() { pool.Close() }, nil
}

// Helper functions
func getAPIURL() string {
	if url := os.Getenv("TRAVELAPI_URL"); url != "" {
		return url
	}
	return "http://localhost:8080/api/v1"
}

func tokenFile() string {
	home, _ := os.UserHomeDir()
	return home + "/.travelapi/token"
}

func saveToken(token string) error {
	home, _ := os.UserHomeDir()
	os.MkdirAll(home+"/.travelapi", 0700)
	return os.WriteFile(tokenFile(), []byte(token), 0600)
}

func loadToken() string {
	data, _ := os.ReadFile(tokenFile())
	return string(data)
}

func addAuthHeader(req *http.Request) {
	token := loadToken()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func printUsage() {
	fmt.Print(`Travel API CLI

Usage:
  travelctl <command> [options]

Commands:
  auth    User authentication (register, login, logout, who)
  houses  Availability search (query)
  stay    Booking operations (book) - requires login
  admin   Operator tasks (seed, migrate) - direct database access
  help    Show this help message

Environment Variables:
  TRAVELAPI_URL    API endpoint (default: http://localhost:8080/api/v1)
  DB_HOST etc.     Database connection for admin commands

Examples:
  travelctl auth register -username alice -password secret
  travelctl houses query -from 2024-06-01 -to 2024-06-05 -people 2
  travelctl stay book -house 3 -from 2024-06-01 -to 2024-06-05 -names "Alice,Bob"
  travelctl admin seed -file houses.json
`)
}
