package xled

import (
	"sync"
	"time"

	"github.com/TeamNorCal/xled/frame"
)

// FanOut implements a broadcast mechanism for frames that have been shown,
// subscribers such as the preview server and the OPC sink each receive a
// copy of the stream.  Slow subscribers miss frames rather than stall the
// player.
type FanOut struct {
	inC    chan *frame.Frame
	subC   chan chan *frame.Frame
	unsubC chan chan *frame.Frame
	quitC  <-chan struct{}

	subs []chan *frame.Frame
	sync.Mutex
}

const subscriberWait = 50 * time.Millisecond

// StartFanOut starts the broadcaster, it runs until the quitC channel is closed
func StartFanOut(quitC <-chan struct{}) (fan *FanOut) {
	fan = &FanOut{
		inC:    make(chan *frame.Frame, 1),
		subC:   make(chan chan *frame.Frame),
		unsubC: make(chan chan *frame.Frame),
		quitC:  quitC,
		subs:   []chan *frame.Frame{},
	}

	go func(quitC <-chan struct{}) {
		defer logger.Debug("fanout stopped")
		for {
			select {
			case <-quitC:
				fan.Lock()
				for _, ch := range fan.subs {
					close(ch)
				}
				fan.subs = nil
				fan.Unlock()
				return
			case sub := <-fan.subC:
				if nil != sub {
					fan.Lock()
					fan.subs = append(fan.subs, sub)
					fan.Unlock()
					logger.Debug("subscription added")
				}
			case sub := <-fan.unsubC:
				removed := false
				fan.Lock()
				newSubs := fan.subs[:0]
				for _, ch := range fan.subs {
					if ch != sub {
						newSubs = append(newSubs, ch)
						continue
					}
					removed = true
				}
				fan.subs = newSubs
				fan.Unlock()
				// Channels unsubscribed before are already closed
				if removed {
					close(sub)
				}
			case f := <-fan.inC:
				// Subscriptions that can no longer be sent to are groomed out using
				// https://github.com/golang/go/wiki/SliceTricks#filtering-without-allocating
				fan.Lock()
				newSubs := fan.subs[:0]
				for _, ch := range fan.subs {
					if fan.send(ch, f) {
						newSubs = append(newSubs, ch)
					}
				}
				fan.subs = newSubs
				fan.Unlock()
			}
		}
	}(quitC)

	return fan
}

// send returns false when the subscriber channel has been closed underneath us
func (fan *FanOut) send(ch chan *frame.Frame, f *frame.Frame) (alive bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Debug("subscription dropped failed to send")
			alive = false
		}
	}()
	select {
	case ch <- f:
	case <-time.After(subscriberWait):
		logger.Debug("subscription missed a frame")
	}
	return true
}

// Publish offers a frame to the subscribers, when the broadcaster is still busy
// with the previous frame the new one is dropped
func (fan *FanOut) Publish(f *frame.Frame) (sent bool) {
	if fan == nil || f == nil {
		return false
	}
	select {
	case fan.inC <- f:
		return true
	default:
		return false
	}
}

// Subscribe returns a channel on which frames published from now on arrive.
// Once the fan out has stopped the channel returned is already closed.
func (fan *FanOut) Subscribe() (sub chan *frame.Frame) {
	sub = make(chan *frame.Frame, 1)
	select {
	case fan.subC <- sub:
	case <-fan.quitC:
		close(sub)
	}
	return sub
}

// Unsubscribe removes the subscription, the channel is closed once removed.
// Unknown channels and calls after the fan out has stopped are ignored.
func (fan *FanOut) Unsubscribe(sub chan *frame.Frame) {
	select {
	case fan.unsubC <- sub:
	case <-fan.quitC:
	}
}

// Subscribers is the number of active subscriptions
func (fan *FanOut) Subscribers() int {
	fan.Lock()
	defer fan.Unlock()
	return len(fan.subs)
}
