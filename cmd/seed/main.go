package main

import (
	"log"
	"os"

	"interview-engine-be/internal/model"
	"interview-engine-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	// Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Seeding welcome flow question rows...")

	rows := []model.QuestionRow{
		{Flow: "welcome", OrderKey: "1", Qid: "name", Label: "What should we call you?", Type: "short-text", Required: true, MaxLen: 60},
		{Flow: "welcome", OrderKey: "2", Qid: "age", Label: "How old are you?", Type: "number", Required: true,
			Rules: "if age < 18 goto guardian_consent else goto 3"},
		{Flow: "welcome", OrderKey: "3", Qid: "experience", Label: "How would you describe your experience?", Type: "single-select", Required: true,
			Options: "Beginner=beginner;Intermediate=intermediate;Veteran=veteran",
			Rules:   "if beginner skip 7*\nif veteran make 5 optional"},
		{Flow: "welcome", OrderKey: "4", Qid: "region", Label: "Which region do you play in?", Type: "single-select", Required: true,
			Options: "Europe=eu;North America=na;Asia Pacific=apac",
			Rules:   "if region in [eu, na] goto 6"},
		{Flow: "welcome", OrderKey: "5", Qid: "timezone", Label: "What timezone are you in?", Type: "short-text", MaxLen: 40},
		{Flow: "welcome", OrderKey: "6", Qid: "playstyle", Label: "Which playstyles fit you?", Type: "multi-select(3)",
			Options: "Early Game=early-game;Late Game=late-game;PvP=pvp;Support=support"},
		{Flow: "welcome", OrderKey: "7", Qid: "hours_week", Label: "Hours played per week?", Type: "number"},
		{Flow: "welcome", OrderKey: "7a", Qid: "advanced_tips", Label: "Any advanced strategies you favor?", Type: "paragraph-text", MaxLen: 500},
		{Flow: "welcome", OrderKey: "8", Qid: "about", Label: "Anything else we should know?", Type: "paragraph-text", MaxLen: 500},
		{Flow: "welcome", OrderKey: "999", Qid: "guardian_consent", Label: "Please confirm a guardian approves your application.", Type: "single-select", Required: true,
			Options: "Yes=yes;No=no"},
	}

	for _, row := range rows {
		var existing model.QuestionRow
		if err := db.Where("flow = ? AND qid = ?", row.Flow, row.Qid).First(&existing).Error; err == nil {
			log.Printf("Row '%s/%s' already exists, skipping...", row.Flow, row.Qid)
			continue
		}

		row.Id = uuid.New()
		if err := db.Create(&row).Error; err != nil {
			log.Printf("Error creating row '%s/%s': %v", row.Flow, row.Qid, err)
		} else {
			log.Printf("Created row: %s (order %s)", row.Qid, row.OrderKey)
		}
	}

	log.Println("Seeding completed! Hit POST /api/schema/v1/reload to load it.")
}
