package main

import (
	"flag"
	"fmt"
	"log"

	"court-motion/chat"
	"court-motion/db"

	"github.com/joho/godotenv"
)

// Fetch a stored session and print a plain-language summary of it.
func main() {
	id := flag.Int64("id", 0, "Session id to summarize (0 = most recent)")
	flag.Parse()

	_ = godotenv.Load()

	dbClient, err := db.NewDBClient()
	if err != nil {
		log.Fatalf("failed to open session storage: %v", err)
	}
	defer dbClient.Close()

	sessionID := *id
	if sessionID == 0 {
		records, err := dbClient.GetAllSessions()
		if err != nil {
			log.Fatalf("failed to list sessions: %v", err)
		}
		if len(records) == 0 {
			log.Fatal("no stored sessions to summarize")
		}
		sessionID = records[0].ID
	}

	record, found, err := dbClient.GetSessionByID(sessionID)
	if err != nil {
		log.Fatalf("failed to load session %d: %v", sessionID, err)
	}
	if !found {
		log.Fatalf("session %d not found", sessionID)
	}
	samples, err := dbClient.GetSpeedSamples(sessionID)
	if err != nil {
		log.Fatalf("failed to load speed samples: %v", err)
	}

	client, err := chat.NewGeminiClient()
	if err != nil {
		log.Fatalf("failed to create summary client: %v", err)
	}
	defer client.Close()

	summary, err := client.SummarizeSession(record, samples)
	if err != nil {
		log.Fatalf("failed to summarize session: %v", err)
	}

	fmt.Printf("=== Session %d (%s, %s) ===\n\n", record.ID, record.CourtType, record.ModeID)
	fmt.Println(summary)
}
