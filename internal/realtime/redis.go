package realtime

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// relayChannel is the pub/sub channel every server instance shares.
const relayChannel = "chat-relay"

// bridgeFrame is what one instance publishes so the others can re-deliver a
// broadcast to their local room members.
type bridgeFrame struct {
	Origin string          `json:"origin"`
	Room   string          `json:"room"`
	Data   json.RawMessage `json:"data"`
}

// RedisBridge is the multi-instance Registry: room membership stays local,
// but every broadcast is also published to Redis so participants connected
// to other instances receive it too.
type RedisBridge struct {
	local      *MemoryRegistry
	rdb        *redis.Client
	instanceID string
}

func NewRedisBridge(rdb *redis.Client, local *MemoryRegistry) *RedisBridge {
	return &RedisBridge{
		local:      local,
		rdb:        rdb,
		instanceID: uuid.NewString(),
	}
}

func (b *RedisBridge) Join(room string, c *Conn)  { b.local.Join(room, c) }
func (b *RedisBridge) Leave(room string, c *Conn) { b.local.Leave(room, c) }
func (b *RedisBridge) Drop(c *Conn)               { b.local.Drop(c) }

func (b *RedisBridge) Broadcast(room string, sender *Conn, data []byte) {
	b.local.Broadcast(room, sender, data)

	frame, err := json.Marshal(bridgeFrame{
		Origin: b.instanceID,
		Room:   room,
		Data:   data,
	})
	if err != nil {
		log.Printf("encode bridge frame: %v", err)
		return
	}

	if err := b.rdb.Publish(context.Background(), relayChannel, frame).Err(); err != nil {
		log.Printf("redis publish: %v", err)
	}
}

// Subscribe re-delivers remote broadcasts to local room members. Frames this
// instance published are skipped: the sender exclusion already happened on
// the origin instance. Run in its own goroutine; returns when ctx is done.
func (b *RedisBridge) Subscribe(ctx context.Context) {
	pubsub := b.rdb.Subscribe(ctx, relayChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var frame bridgeFrame
			if err := json.Unmarshal([]byte(msg.Payload), &frame); err != nil {
				log.Printf("dropping malformed bridge frame: %v", err)
				continue
			}
			if frame.Origin == b.instanceID {
				continue
			}
			b.local.Broadcast(frame.Room, nil, frame.Data)
		}
	}
}
