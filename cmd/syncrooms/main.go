// Command syncrooms upserts the rooms of a YAML file into the store by name.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"seminar/internal/database"
	"seminar/internal/domain"
	"seminar/internal/models"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type RoomsConfig struct {
	Rooms []*models.Room `yaml:"rooms"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		roomsPath = flag.String("rooms", "configs/rooms.yaml", "path to rooms.yaml")
		dbPath    = flag.String("db", "./data/seminar.db", "path to sqlite db")
	)
	flag.Parse()

	data, err := os.ReadFile(*roomsPath)
	if err != nil {
		return fmt.Errorf("read rooms: %w", err)
	}
	var cfg RoomsConfig
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse rooms: %w", err)
	}
	if len(cfg.Rooms) == 0 {
		return fmt.Errorf("no rooms in yaml")
	}

	db, err := database.NewDB(*dbPath, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	created, updated, err := syncRooms(ctx, db, cfg.Rooms)
	if err != nil {
		return err
	}

	fmt.Printf("done: created=%d updated=%d\n", created, updated)
	return nil
}

// syncRooms updates rooms whose name already exists and creates the rest.
// Images of existing rooms are left alone.
func syncRooms(ctx context.Context, store domain.RoomStore, rooms []*models.Room) (created, updated int, err error) {
	existing, err := store.ListRooms(ctx, false)
	if err != nil {
		return 0, 0, fmt.Errorf("list rooms: %w", err)
	}
	byName := make(map[string]int64, len(existing))
	for _, r := range existing {
		byName[strings.TrimSpace(r.Name)] = r.ID
	}

	for _, room := range rooms {
		name := strings.TrimSpace(room.Name)
		if name == "" {
			continue
		}
		if id, ok := byName[name]; ok {
			room.ID = id
			if err = store.UpdateRoom(ctx, room); err != nil {
				return created, updated, fmt.Errorf("update %s: %w", name, err)
			}
			updated++
			continue
		}
		if err = store.CreateRoom(ctx, room); err != nil {
			return created, updated, fmt.Errorf("create %s: %w", name, err)
		}
		byName[name] = room.ID
		created++
	}
	return created, updated, nil
}
