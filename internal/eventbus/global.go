package eventbus

import "context"

var globalBus EventBus

// Init устанавливает глобальную шину.
func Init(bus EventBus) { globalBus = bus }

// Publish отправляет событие в глобальную шину, если она инициализирована.
func Publish(ctx context.Context, ev *Envelope) error {
	if globalBus == nil {
		return nil
	}
	return globalBus.Publish(ctx, ev)
}

// PublishPayload строит конверт и отправляет его в глобальную шину.
func PublishPayload(ctx context.Context, source string, payload Payload) error {
	if globalBus == nil {
		return nil
	}
	return globalBus.Publish(ctx, NewEnvelope(source, payload))
}
