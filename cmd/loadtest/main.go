package main

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	WSURL        = "ws://localhost:8080/ws"
	RoomCount    = 10 // ⚠️ Start small. 10 rooms x 20 users = 200 sockets.
	UsersPerRoom = 20
	MsgCount     = 20 // Messages per user
)

func main() {
	log.Printf("🔥 STARTING LOAD TEST: %d rooms, %d users each, %d messages per user...", RoomCount, UsersPerRoom, MsgCount)
	var wg sync.WaitGroup

	for r := 0; r < RoomCount; r++ {
		for u := 0; u < UsersPerRoom; u++ {
			wg.Add(1)
			room := fmt.Sprintf("room_%d", r)
			user := fmt.Sprintf("u_%d_%d", r, u)
			go func() {
				defer wg.Done()
				runUser(room, user)
			}()
		}
	}

	wg.Wait()
	log.Println("✅ LOAD TEST COMPLETE")
}

func runUser(room, user string) {
	conn, _, err := websocket.DefaultDialer.Dial(WSURL, nil)
	if err != nil {
		log.Printf("❌ WS Connect Fail [%s]: %v", user, err)
		return
	}
	defer conn.Close()

	// Drain server frames so the read side never backs up.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	join := map[string]any{
		"event": "join",
		"data":  map[string]string{"room": room, "user": user},
	}
	if err := conn.WriteJSON(join); err != nil {
		log.Printf("❌ Join Fail [%s]: %v", user, err)
		return
	}

	for i := 0; i < MsgCount; i++ {
		msg := map[string]any{
			"event": "chat message",
			"data":  fmt.Sprintf("LoadTest Msg %d from %s", i, user),
		}
		if err := conn.WriteJSON(msg); err != nil {
			log.Printf("❌ Send Fail [%s]: %v", user, err)
			break
		}
		// Small sleep to prevent instant localhost bottleneck (simulate real network)
		time.Sleep(10 * time.Millisecond)
	}
	log.Printf("✅ %s finished sending %d msgs", user, MsgCount)
}
