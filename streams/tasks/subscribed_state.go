package tasks

import (
	"fmt"

	pkgErrors "github.com/ersushantsood/storm/pkg/errors"
	"github.com/ersushantsood/storm/streams/topology"
)

// SubscribedState receives the updates of a state producer stream.
type SubscribedState interface {
	Set(key, value interface{})
	Remove(key interface{})
}

// SetAllSubscribedState would sync state with every state producer stream this
// component subscribes to. It is not implemented and always fails.
func (c *TopologyContext) SetAllSubscribedState(state SubscribedState) (SubscribedState, error) {
	return nil, pkgErrors.Wrap(ErrNotImplemented, `subscribed state`)
}

// SetSubscribedState subscribes state to the default stream of a state producer.
// It is not implemented and always fails.
func (c *TopologyContext) SetSubscribedState(component topology.ComponentID, state SubscribedState) (SubscribedState, error) {
	return c.SetSubscribedStateStream(component, topology.DefaultStreamID, state)
}

// SetSubscribedStateStream subscribes state to a stream of a state producer.
// It is not implemented and always fails.
func (c *TopologyContext) SetSubscribedStateStream(component topology.ComponentID, stream topology.StreamID, state SubscribedState) (SubscribedState, error) {
	return nil, pkgErrors.Wrap(ErrNotImplemented, fmt.Sprintf(`subscribed state for stream %d:%d`, component, stream))
}
