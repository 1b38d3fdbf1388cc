package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/IBM/sarama"
)

// GameSubmission mirrors the message format consumed by the server
type GameSubmission struct {
	LeagueID   string                `json:"league_id"`
	Kind       string                `json:"kind"`
	PlayedAt   time.Time             `json:"played_at,omitempty"`
	Placements []PlacementSubmission `json:"placements"`
	Objectives map[string]string     `json:"objectives,omitempty"`
	Notes      string                `json:"notes,omitempty"`
}

// PlacementSubmission is a single player's reported finish
type PlacementSubmission struct {
	PlayerID string `json:"player_id"`
	Place    int    `json:"place"`
}

var gameKinds = []string{"commander", "draft", "standard"}

var objectiveClaims = []string{
	"first_blood", "first_commander_kill", "last_stand", "table_wipe", "biggest_creature",
}

var playerPrefixes = []string{
	"Phoenix", "Shadow", "Thunder", "Storm", "Blaze", "Ninja", "Dragon", "Wolf", "Hawk", "Viper",
	"Ghost", "Titan", "Frost", "Cyber", "Nova", "Raven", "Omega", "Alpha", "Delta", "Sigma",
	"Ace", "Bolt", "Crash", "Dash", "Edge", "Flash", "Glitch", "Haze", "Ion", "Jade",
	"Knight", "Luna", "Mystic", "Neon", "Orion", "Pulse", "Quantum", "Rebel", "Spark", "Turbo",
}

func getPlayerID(idx int) string {
	prefixIdx := idx % len(playerPrefixes)
	suffix := idx/len(playerPrefixes) + 1
	return fmt.Sprintf("%s%d", playerPrefixes[prefixIdx], suffix)
}

// randomGame builds a randomized pod of podSize distinct players with
// shuffled finishing places and occasional objective claims
func randomGame(leagueID string, totalPlayers, podSize int) GameSubmission {
	if podSize > totalPlayers {
		podSize = totalPlayers
	}

	indices := rand.Perm(totalPlayers)[:podSize]
	placements := make([]PlacementSubmission, podSize)
	for place, idx := range indices {
		placements[place] = PlacementSubmission{
			PlayerID: getPlayerID(idx),
			Place:    place + 1,
		}
	}

	submission := GameSubmission{
		LeagueID:   leagueID,
		Kind:       gameKinds[rand.Intn(len(gameKinds))],
		PlayedAt:   time.Now(),
		Placements: placements,
	}

	// Roughly half of games carry objective claims
	if rand.Intn(2) == 0 {
		claims := make(map[string]string)
		for _, claim := range objectiveClaims {
			if rand.Intn(4) == 0 {
				claims[claim] = placements[rand.Intn(podSize)].PlayerID
			}
		}
		if len(claims) > 0 {
			submission.Objectives = claims
		}
	}

	return submission
}

func main() {
	// Command line flags
	brokers := flag.String("brokers", "localhost:9094", "Kafka brokers (comma-separated)")
	topic := flag.String("topic", "league-games", "Kafka topic")
	leagueID := flag.String("league", "league1", "League ID")
	totalPlayers := flag.Int("players", 40, "Size of the player pool")
	podSize := flag.Int("pod", 4, "Players per game")
	gamesPerSecond := flag.Int("rate", 10, "Games per second")
	duration := flag.Duration("duration", 0, "Duration to run (0 = forever)")
	flag.Parse()

	brokerList := strings.Split(*brokers, ",")

	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println("  🎲 Kafka Game Record Producer")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("  Brokers:       %s\n", *brokers)
	fmt.Printf("  Topic:         %s\n", *topic)
	fmt.Printf("  League:        %s\n", *leagueID)
	fmt.Printf("  Player Pool:   %d\n", *totalPlayers)
	fmt.Printf("  Pod Size:      %d\n", *podSize)
	fmt.Printf("  Games/sec:     %d\n", *gamesPerSecond)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	// Configure Sarama producer
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Flush.Frequency = 100 * time.Millisecond
	config.Producer.Flush.Messages = 100
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true

	// Create producer
	producer, err := sarama.NewAsyncProducer(brokerList, config)
	if err != nil {
		log.Fatalf("Failed to create producer: %v", err)
	}
	defer producer.Close()

	// Handle producer errors and successes
	var successCount, errorCount int64
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for range producer.Successes() {
			atomic.AddInt64(&successCount, 1)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for err := range producer.Errors() {
			atomic.AddInt64(&errorCount, 1)
			log.Printf("Producer error: %v", err)
		}
	}()

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})

	// Send message helper
	sendGame := func(submission GameSubmission) {
		data, err := json.Marshal(submission)
		if err != nil {
			log.Printf("Failed to marshal message: %v", err)
			return
		}

		msg := &sarama.ProducerMessage{
			Topic: *topic,
			Key:   sarama.StringEncoder(submission.LeagueID),
			Value: sarama.ByteEncoder(data),
		}

		select {
		case producer.Input() <- msg:
		case <-done:
			return
		}
	}

	fmt.Printf("Producing games (%d/sec)\n", *gamesPerSecond)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	interval := time.Second / time.Duration(*gamesPerSecond)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	statsTicker := time.NewTicker(5 * time.Second)
	defer statsTicker.Stop()

	var endTime time.Time
	if *duration > 0 {
		endTime = time.Now().Add(*duration)
	}

	var gameCount int64

	shutdown := func(reason string) {
		fmt.Printf("\n\n%s\n", reason)
		close(done)
		producer.AsyncClose()
		wg.Wait()
		fmt.Printf("\n✓ Completed. Sent: %d, Errors: %d\n", atomic.LoadInt64(&successCount), atomic.LoadInt64(&errorCount))
	}

	for {
		select {
		case <-sigChan:
			shutdown("Shutting down...")
			return

		case <-ticker.C:
			if *duration > 0 && time.Now().After(endTime) {
				shutdown("Duration reached, shutting down...")
				return
			}

			sendGame(randomGame(*leagueID, *totalPlayers, *podSize))
			atomic.AddInt64(&gameCount, 1)

		case <-statsTicker.C:
			games := atomic.LoadInt64(&gameCount)
			success := atomic.LoadInt64(&successCount)
			errors := atomic.LoadInt64(&errorCount)
			fmt.Printf("[%s] Games: %d | Sent: %d | Errors: %d\n",
				time.Now().Format("15:04:05"),
				games,
				success,
				errors,
			)
		}
	}
}
