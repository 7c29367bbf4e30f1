package main

import (
	"context"
	"flag"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"chat-relay/internal/chat"
	"chat-relay/internal/config"
	"chat-relay/internal/filter"
	"chat-relay/internal/store"
)

// roomStore is what main needs from a persistence backend: the hub's write
// side plus the read side for optional startup hydration.
type roomStore interface {
	chat.Store
	Rooms(ctx context.Context) ([]string, error)
	LoadHistory(ctx context.Context, room string) ([]chat.Message, error)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Bad configuration: %v", err)
	}

	addr := flag.String("addr", cfg.Addr, "http service address")
	flag.Parse()

	// Persistence backend: Postgres when a DSN is configured, Redis otherwise.
	var st roomStore
	if cfg.PostgresDSN != "" {
		pg, err := store.NewPostgres(cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("❌ Failed to connect to Postgres: %v", err)
		}
		if err := pg.AutoMigrate(); err != nil {
			log.Fatalf("❌ Migration failed: %v", err)
		}
		log.Println("✅ Connected to PostgreSQL")
		st = pg
	} else {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if _, err := client.Ping(context.Background()).Result(); err != nil {
			log.Fatalf("❌ Failed to connect to Redis: %v", err)
		}
		log.Println("✅ Connected to Redis")
		st = store.NewRedis(client)
	}

	registry := chat.NewRegistry()
	if cfg.Hydrate {
		if err := hydrate(context.Background(), registry, st); err != nil {
			log.Printf("⚠️ Hydration failed, starting empty: %v", err)
		}
	}

	hub := chat.NewHub(registry, st, filter.New(), chat.HubOptions{
		ResetDelay:        cfg.ResetDelay,
		CancelResetOnJoin: cfg.CancelResetOnJoin,
	})
	go hub.Run(context.Background())

	handler := chat.NewHandler(hub, registry)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/ws", handler.ServeWs)
	r.Get("/chat_log/{room}", handler.GetChatLog)
	r.Get("/user_log/{room}", handler.GetUserLog)
	r.Handle("/*", http.FileServer(http.Dir(cfg.PublicDir)))

	log.Printf("🚀 Server starting on %s", *addr)
	if err := http.ListenAndServe(*addr, r); err != nil {
		log.Fatal(err)
	}
}

// hydrate reloads persisted histories into the registry. Member lists are
// deliberately not restored: membership reflects live connections, and there
// are none yet at startup.
func hydrate(ctx context.Context, registry *chat.Registry, st roomStore) error {
	rooms, err := st.Rooms(ctx)
	if err != nil {
		return err
	}
	for _, name := range rooms {
		history, err := st.LoadHistory(ctx, name)
		if err != nil {
			return err
		}
		registry.Seed(name, history, nil)
	}
	log.Printf("✅ Hydrated %d room(s) from store", len(rooms))
	return nil
}
