package messaging

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TypingNotifier debounces the typing indicator of one chat. The first
// keystroke publishes true; every keystroke restarts a single idle timer, and
// when it fires false is published. One goroutine writes the latest wanted
// state, so callers never wait on the backend.
type TypingNotifier struct {
	svc    *Service
	chatID string
	idle   time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	active  bool
	stopped bool
	keys    uint64

	// want is written when dirty; wake holds at most one pending signal.
	want  bool
	dirty bool
	wake  chan struct{}
	quit  chan struct{}
	done  chan struct{}
	once  sync.Once
}

// NewTypingNotifier starts a notifier for chatID. Stop must be called when
// the composer goes away.
func (s *Service) NewTypingNotifier(chatID string) *TypingNotifier {
	n := &TypingNotifier{
		svc:    s,
		chatID: chatID,
		idle:   s.typingIdle,
		wake:   make(chan struct{}, 1),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go n.run()
	return n
}

func (n *TypingNotifier) run() {
	defer close(n.done)
	for {
		select {
		case <-n.wake:
			n.flush()
		case <-n.quit:
			n.flush()
			return
		}
	}
}

func (n *TypingNotifier) flush() {
	n.mu.Lock()
	state, dirty := n.want, n.dirty
	n.dirty = false
	n.mu.Unlock()
	if !dirty {
		return
	}
	if err := n.svc.SetTyping(context.Background(), n.chatID, state); err != nil {
		n.svc.logger.Debug("typing update failed",
			zap.String("chat", n.chatID), zap.Bool("state", state), zap.Error(err))
	}
}

// publish must be called with mu held.
func (n *TypingNotifier) publish(state bool) {
	n.want = state
	n.dirty = true
	select {
	case n.wake <- struct{}{}:
	default:
	}
}

// Keystroke records user input in the composer.
func (n *TypingNotifier) Keystroke() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.stopped {
		return
	}
	n.keys++
	if !n.active {
		n.active = true
		n.publish(true)
	}
	if n.timer == nil {
		n.timer = time.AfterFunc(n.idle, n.expire)
		return
	}
	n.timer.Reset(n.idle)
}

func (n *TypingNotifier) expire() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.stopped || !n.active {
		return
	}
	n.active = false
	n.publish(false)
}

// Mark returns a token for the keystrokes seen so far. Pass it to Sent once
// the message it belongs to was written.
func (n *TypingNotifier) Mark() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.keys
}

// Sent settles the indicator after a send that started at mark. Without newer
// keystrokes the indicator goes off. Typing that resumed during the send is
// published again, since the send reset the field, and left to the idle timer.
func (n *TypingNotifier) Sent(mark uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.stopped {
		return
	}
	if n.keys != mark && n.active {
		n.publish(true)
		return
	}
	if n.timer != nil {
		n.timer.Stop()
	}
	if n.active {
		n.active = false
		n.publish(false)
	}
}

// Stop cancels the idle timer and publishes false if typing was on. The last
// update is written in the background; Done is closed after it. Further calls
// do nothing.
func (n *TypingNotifier) Stop() {
	n.once.Do(func() {
		n.mu.Lock()
		n.stopped = true
		if n.timer != nil {
			n.timer.Stop()
		}
		if n.active {
			n.active = false
			n.want, n.dirty = false, true
		}
		n.mu.Unlock()
		close(n.quit)
	})
}

// Done is closed once the notifier has written its last update after Stop.
func (n *TypingNotifier) Done() <-chan struct{} {
	return n.done
}
