package operations

import (
	"context"

	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/pkg/contracts/events"
)

// Observer receives stage transitions. Implementations must not block.
type Observer interface {
	OnStageEvent(ctx context.Context, event events.StageEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, event events.StageEvent)

// OnStageEvent calls f.
func (f ObserverFunc) OnStageEvent(ctx context.Context, event events.StageEvent) {
	f(ctx, event)
}

type nopObserver struct{}

func (nopObserver) OnStageEvent(context.Context, events.StageEvent) {}
