// Load generator for the chat backend: registers user pairs, opens a 1:1
// chat over the HTTP API, then drives the realtime relay the way the web
// client does (setup, join chat, new message emits after each POST).
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	BaseURL   = "http://localhost:5000"
	WSURL     = "ws://localhost:5000/ws"
	PairCount = 50 // pairs of users chatting with each other
	MsgCount  = 20 // messages per user
)

type authResponse struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Token string `json:"token"`
}

type chatResponse struct {
	ID    string `json:"_id"`
	Users []struct {
		ID string `json:"_id"`
	} `json:"users"`
}

type event struct {
	Name    string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func main() {
	log.Printf("🔥 STARTING LOAD TEST: %d users, %d messages each...", PairCount*2, MsgCount)
	var wg sync.WaitGroup

	for i := 0; i < PairCount; i++ {
		wg.Add(1)
		go func(pairID int) {
			defer wg.Done()
			runPair(pairID)
		}(i)
	}

	wg.Wait()
	log.Println("✅ LOAD TEST COMPLETE")
}

func runPair(pairID int) {
	a := authenticate(fmt.Sprintf("LoadUser %d A", pairID), fmt.Sprintf("u_%d_a@load.test", pairID))
	b := authenticate(fmt.Sprintf("LoadUser %d B", pairID), fmt.Sprintf("u_%d_b@load.test", pairID))
	if a == nil || b == nil {
		return
	}

	chatID := accessChat(a.Token, b.ID)
	if chatID == "" {
		return
	}

	var wsWg sync.WaitGroup
	wsWg.Add(2)
	go chatSession(&wsWg, a, b.ID, chatID)
	go chatSession(&wsWg, b, a.ID, chatID)
	wsWg.Wait()
}

// authenticate registers (errors ignored, the user may exist) and logs in.
func authenticate(name, email string) *authResponse {
	pass := "password123"
	postJSON("/api/user", map[string]string{"name": name, "email": email, "password": pass})

	resp, err := postJSON("/api/user/login", map[string]string{"email": email, "password": pass})
	if err != nil {
		log.Printf("❌ Login failed [%s]: %v", email, err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("❌ Login rejected [%s]: %d", email, resp.StatusCode)
		return nil
	}

	var data authResponse
	json.NewDecoder(resp.Body).Decode(&data)
	return &data
}

func accessChat(token, targetID string) string {
	body, _ := json.Marshal(map[string]string{"userId": targetID})
	req, _ := http.NewRequest("POST", BaseURL+"/api/chat", bytes.NewBuffer(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		log.Printf("❌ Access chat failed: %v", err)
		return ""
	}
	defer resp.Body.Close()

	var data chatResponse
	json.NewDecoder(resp.Body).Decode(&data)
	return data.ID
}

func chatSession(wg *sync.WaitGroup, me *authResponse, peerID, chatID string) {
	defer wg.Done()

	conn, _, err := websocket.DefaultDialer.Dial(WSURL, nil)
	if err != nil {
		log.Printf("❌ WS connect failed [%s]: %v", me.Name, err)
		return
	}
	defer conn.Close()

	emit(conn, "setup", map[string]string{"_id": me.ID})
	emit(conn, "join chat", chatID)

	// Drain incoming frames so the server never sees us as a slow consumer.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for i := 0; i < MsgCount; i++ {
		content := fmt.Sprintf("load msg %d from %s", i, me.Name)
		if !sendMessage(me.Token, chatID, content) {
			break
		}
		emit(conn, "new message", map[string]any{
			"chat": map[string]any{
				"_id":   chatID,
				"users": []map[string]string{{"_id": me.ID}, {"_id": peerID}},
			},
			"sender":  map[string]string{"_id": me.ID},
			"content": content,
		})
		// simulate a human-ish send rate
		time.Sleep(10 * time.Millisecond)
	}
	log.Printf("✅ %s finished sending %d msgs", me.Name, MsgCount)
}

func sendMessage(token, chatID, content string) bool {
	body, _ := json.Marshal(map[string]string{"chatId": chatID, "content": content})
	req, _ := http.NewRequest("POST", BaseURL+"/api/message", bytes.NewBuffer(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Printf("❌ Send failed: %v", err)
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func emit(conn *websocket.Conn, name string, payload any) {
	raw, _ := json.Marshal(payload)
	conn.WriteJSON(event{Name: name, Payload: raw})
}

func postJSON(endpoint string, data any) (*http.Response, error) {
	jsonData, _ := json.Marshal(data)
	return http.Post(BaseURL+endpoint, "application/json", bytes.NewBuffer(jsonData))
}
