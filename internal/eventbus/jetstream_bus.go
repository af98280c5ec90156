package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	nats "github.com/nats-io/nats.go"
)

// wireEnvelope — представление конверта на проводе. Вид нагрузки
// кодируется отдельным полем, сама нагрузка — сырым JSON.
type wireEnvelope struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Source    string          `json:"source"`
	Priority  int             `json:"priority"`
	Kind      Kind            `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
}

// decodePayload восстанавливает типизированную нагрузку по виду.
// Закрытое множество видов делает switch исчерпывающим.
func decodePayload(kind Kind, raw json.RawMessage) (Payload, error) {
	var target Payload
	switch kind {
	case KindLevelStarted:
		target = &LevelStarted{}
	case KindTilePicked:
		target = &TilePicked{}
	case KindTilesEliminated:
		target = &TilesEliminated{}
	case KindBackpackExtended:
		target = &BackpackExtended{}
	case KindBackpackFull:
		target = &BackpackFull{}
	case KindLevelCompleted:
		target = &LevelCompleted{}
	case KindLevelFailed:
		target = &LevelFailed{}
	case KindProgressSaved:
		target = &ProgressSaved{}
	default:
		return nil, fmt.Errorf("неизвестный вид события %d", kind)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return nil, err
	}
	return derefPayload(target), nil
}

// derefPayload возвращает значение нагрузки (Kind() объявлен на значениях)
func derefPayload(p Payload) Payload {
	switch v := p.(type) {
	case *LevelStarted:
		return *v
	case *TilePicked:
		return *v
	case *TilesEliminated:
		return *v
	case *BackpackExtended:
		return *v
	case *BackpackFull:
		return *v
	case *LevelCompleted:
		return *v
	case *LevelFailed:
		return *v
	case *ProgressSaved:
		return *v
	default:
		return p
	}
}

// JetStreamBus реализует EventBus поверх NATS JetStream.
type JetStreamBus struct {
	nc        *nats.Conn
	js        nats.JetStreamContext
	stream    string
	published uint64
	consumed  uint64
	dropped   uint64
}

// NewJetStreamBus подключается к кластеру NATS и гарантирует наличие стрима.
// url: nats://127.0.0.1:4222, stream: "GAME_EVENTS".
func NewJetStreamBus(url, stream string, retention time.Duration) (*JetStreamBus, error) {
	if stream == "" {
		stream = "GAME_EVENTS"
	}

	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Drain()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	// Ensure stream exists (subjects: events.*)
	_, err = js.StreamInfo(stream)
	if err != nil {
		_, err = js.AddStream(&nats.StreamConfig{
			Name:      stream,
			Subjects:  []string{"events.*"},
			Retention: nats.LimitsPolicy,
			MaxAge:    retention,
			Storage:   nats.FileStorage,
		})
		if err != nil {
			nc.Drain()
			return nil, fmt.Errorf("add stream: %w", err)
		}
	}

	return &JetStreamBus{nc: nc, js: js, stream: stream}, nil
}

// Publish сериализует Envelope в JSON и публикует в subject events.<kind>.
func (jb *JetStreamBus) Publish(ctx context.Context, ev *Envelope) error {
	if ev.Payload == nil {
		return fmt.Errorf("событие без нагрузки")
	}

	payloadData, err := json.Marshal(ev.Payload)
	if err != nil {
		return err
	}
	wire := wireEnvelope{
		ID:        ev.ID,
		Timestamp: ev.Timestamp,
		Source:    ev.Source,
		Priority:  ev.Priority,
		Kind:      ev.Payload.Kind(),
		Payload:   payloadData,
	}
	data, err := json.Marshal(wire)
	if err != nil {
		return err
	}

	subj := fmt.Sprintf("events.%s", wire.Kind)
	_, err = jb.js.Publish(subj, data)
	if err == nil {
		atomic.AddUint64(&jb.published, 1)
	}
	return err
}

// Subscribe создаёт durable consumer и вызывает handler асинхронно.
func (jb *JetStreamBus) Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error) {
	subj := "events.*"
	if len(f.Kinds) == 1 {
		subj = fmt.Sprintf("events.%s", f.Kinds[0])
	}

	durable := nats.Durable(fmt.Sprintf("sub_%d", time.Now().UnixNano()))

	natSub, err := jb.js.Subscribe(subj, func(msg *nats.Msg) {
		var wire wireEnvelope
		if err := json.Unmarshal(msg.Data, &wire); err != nil {
			atomic.AddUint64(&jb.dropped, 1)
			_ = msg.Ack()
			return
		}
		payload, err := decodePayload(wire.Kind, wire.Payload)
		if err != nil {
			atomic.AddUint64(&jb.dropped, 1)
			_ = msg.Ack()
			return
		}
		ev := &Envelope{
			ID:        wire.ID,
			Timestamp: wire.Timestamp,
			Source:    wire.Source,
			Priority:  wire.Priority,
			Payload:   payload,
		}
		if matchFilter(ev, f) {
			h(ctx, ev)
			atomic.AddUint64(&jb.consumed, 1)
		}
		_ = msg.Ack()
	}, nats.ManualAck(), durable, nats.AckWait(30*time.Second))
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	return &jsSub{sub: natSub}, nil
}

// Metrics возвращает счётчики шины.
func (jb *JetStreamBus) Metrics() Stats {
	return Stats{
		Published: atomic.LoadUint64(&jb.published),
		Consumed:  atomic.LoadUint64(&jb.consumed),
		Dropped:   atomic.LoadUint64(&jb.dropped),
	}
}

// Close дренирует соединение с NATS.
func (jb *JetStreamBus) Close() error {
	return jb.nc.Drain()
}

type jsSub struct {
	sub *nats.Subscription
}

func (s *jsSub) Unsubscribe() {
	_ = s.sub.Unsubscribe()
}
