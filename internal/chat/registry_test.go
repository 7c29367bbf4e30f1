package chat

import (
	"fmt"
	"testing"
	"time"
)

func TestRegistry_GetOrCreateIdempotent(t *testing.T) {
	reg := NewRegistry()

	room := reg.GetOrCreate("lobby")
	room.Append(Message{User: "A", Message: "hi", Time: time.Now()})
	room.AddMember("A")

	again := reg.GetOrCreate("lobby")
	if again != room {
		t.Fatal("GetOrCreate() returned a different room for the same name")
	}
	if len(again.History()) != 1 {
		t.Errorf("history length = %d, want 1", len(again.History()))
	}
	if got := again.Members(); len(got) != 1 || got[0] != "A" {
		t.Errorf("members = %v, want [A]", got)
	}
}

func TestRegistry_GetDoesNotCreate(t *testing.T) {
	reg := NewRegistry()

	if _, ok := reg.Get("ghost"); ok {
		t.Fatal("Get() reported an absent room as present")
	}
	// The failed lookup must not have created the room either.
	if _, ok := reg.Get("ghost"); ok {
		t.Fatal("Get() created a room as a side effect")
	}
}

func TestRoom_HistoryOrderAndCopy(t *testing.T) {
	room := newRoom("lobby")
	for i := 0; i < 3; i++ {
		room.Append(Message{User: "A", Message: fmt.Sprintf("msg %d", i), Time: time.Now()})
	}

	history := room.History()
	if len(history) != 3 {
		t.Fatalf("history length = %d, want 3", len(history))
	}
	for i, msg := range history {
		if want := fmt.Sprintf("msg %d", i); msg.Message != want {
			t.Errorf("history[%d].Message = %q, want %q", i, msg.Message, want)
		}
	}

	// Mutating the snapshot must not touch the room.
	history[0].Message = "tampered"
	if room.History()[0].Message != "msg 0" {
		t.Error("History() exposed internal state")
	}
}

func TestRoom_MembersNameKeyed(t *testing.T) {
	room := newRoom("lobby")

	// Two connections under the same name collapse to one entry.
	room.AddMember("A")
	room.AddMember("A")
	room.AddMember("B")
	if got := room.Members(); len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Fatalf("members = %v, want [A B]", got)
	}

	// Removing a name removes all occurrences.
	room.RemoveMember("A")
	if got := room.Members(); len(got) != 1 || got[0] != "B" {
		t.Fatalf("members after remove = %v, want [B]", got)
	}
	if room.MemberCount() != 1 {
		t.Errorf("MemberCount() = %d, want 1", room.MemberCount())
	}
}

func TestRoom_ClearHistory(t *testing.T) {
	room := newRoom("lobby")
	room.Append(Message{User: "A", Message: "hi", Time: time.Now()})
	room.AddMember("A")

	room.ClearHistory()

	if got := room.History(); len(got) != 0 {
		t.Errorf("history after clear = %v, want empty", got)
	}
	if got := room.History(); got == nil {
		t.Error("History() returned nil, want empty slice")
	}
	if room.MemberCount() != 1 {
		t.Error("ClearHistory() touched membership")
	}
}

func TestRegistry_Seed(t *testing.T) {
	reg := NewRegistry()
	history := []Message{{User: "A", Message: "restored", Time: time.Now()}}

	reg.Seed("lobby", history, []string{"A", "B"})

	room, ok := reg.Get("lobby")
	if !ok {
		t.Fatal("seeded room not found")
	}
	if got := room.History(); len(got) != 1 || got[0].Message != "restored" {
		t.Errorf("history = %v, want the seeded entry", got)
	}
	if got := room.Members(); len(got) != 2 {
		t.Errorf("members = %v, want [A B]", got)
	}
}
