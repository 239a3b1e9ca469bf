package eventloop

import (
	"context"
	"errors"
	"log"

	"xshot/src/hotkey"
	"xshot/src/messages"
	"xshot/src/session"
	"xshot/src/singleinstance"
	"xshot/src/worker"
)

const inputBuffer = 256

// Loop is the single-threaded coordinator. It owns the session machine; every
// other goroutine talks to it through channels.
type Loop struct {
	machine  *session.Machine
	pool     *worker.Pool
	srv      singleinstance.Server
	results  chan messages.Message
	hotkeyCh chan string
	inputCh  chan messages.Message
	done     chan struct{}
	pending  singleinstance.Conn
	onIdle   func(err error)
	onState  func(session.State)
}

// New creates the loop and the machine it drives. opts.Dispatcher is replaced
// by the loop itself.
func New(opts session.Options) (*Loop, error) {
	l := &Loop{
		pool:     worker.New(2),
		results:  make(chan messages.Message, 4),
		hotkeyCh: make(chan string, 4),
		inputCh:  make(chan messages.Message, inputBuffer),
		done:     make(chan struct{}),
	}
	opts.Dispatcher = l
	m, err := session.New(opts)
	if err != nil {
		l.pool.Close()
		return nil, err
	}
	m.OnIdle(l.sessionIdle)
	l.machine = m
	return l, nil
}

// WithServer makes the loop answer remote capture triggers.
func (l *Loop) WithServer(srv singleinstance.Server) *Loop {
	l.srv = srv
	return l
}

// OnIdle registers a hook run on the loop goroutine whenever a session ends.
func (l *Loop) OnIdle(fn func(err error)) { l.onIdle = fn }

// OnStateChange registers a hook run on the loop goroutine after every
// handled message whose processing changed the machine state.
func (l *Loop) OnStateChange(fn func(session.State)) { l.onState = fn }

// Machine exposes the session machine for inspection. It must only be used
// from the loop goroutine or after Run returned.
func (l *Loop) Machine() *session.Machine { return l.machine }

// Dispatch runs job on the worker pool and posts its message back into the loop.
func (l *Loop) Dispatch(ctx context.Context, job func(ctx context.Context) messages.Message) bool {
	return l.pool.Submit(ctx, job, func(msg messages.Message) {
		select {
		case l.results <- msg:
		case <-l.done:
			log.Printf("eventloop: dropping %s after shutdown", msg.Type())
		}
	})
}

// Trigger requests a capture. It never blocks; extra presses while the queue
// is full are dropped since the session would ignore them anyway.
func (l *Loop) Trigger(source string) {
	select {
	case l.hotkeyCh <- source:
	default:
		log.Printf("eventloop: trigger from %s dropped", source)
	}
}

// Post delivers input from the window. It never blocks the caller, which is
// usually the GUI thread.
func (l *Loop) Post(msg messages.Message) {
	select {
	case l.inputCh <- msg:
	default:
		log.Printf("eventloop: input queue full, dropping %s", msg.Type())
	}
}

// StartHotkey registers a global hotkey and posts events into the loop.
func (l *Loop) StartHotkey(combo string) error {
	if combo == "" {
		return nil
	}
	return hotkey.Listen(combo, func() { l.Trigger(messages.SourceHotkey) })
}

// Run processes events until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer l.pool.Close()
	defer close(l.done)

	var reqCh chan singleinstance.Conn
	if l.srv != nil {
		if err := l.srv.Start(ctx); err != nil {
			log.Printf("eventloop: remote triggers disabled: %v", err)
		} else {
			log.Printf("Resident listening on 127.0.0.1:%d", l.srv.Port())
			defer l.srv.Close()
			reqCh = make(chan singleinstance.Conn, 4)
			go l.accept(ctx, reqCh)
		}
	}

	for {
		select {
		case <-ctx.Done():
			l.shutdown()
			return ctx.Err()
		case source := <-l.hotkeyCh:
			l.handle(ctx, messages.HotkeyPressed{Source: source})
		case conn, ok := <-reqCh:
			if !ok {
				reqCh = nil
				continue
			}
			l.handleConn(ctx, conn)
		case msg := <-l.inputCh:
			for _, m := range l.coalesce(msg) {
				l.handle(ctx, m)
			}
		case msg := <-l.results:
			l.handle(ctx, msg)
		}
	}
}

func (l *Loop) accept(ctx context.Context, reqCh chan<- singleinstance.Conn) {
	defer close(reqCh)
	for {
		conn, err := l.srv.Next(ctx)
		if err != nil {
			return
		}
		select {
		case reqCh <- conn:
		case <-ctx.Done():
			_ = conn.Close()
			return
		}
	}
}

// coalesce folds a run of queued PointerMove messages into the last one. The
// first non-move message found ends the run and is returned after it.
func (l *Loop) coalesce(first messages.Message) []messages.Message {
	if _, ok := first.(messages.PointerMove); !ok {
		return []messages.Message{first}
	}
	last := first
	for {
		select {
		case next := <-l.inputCh:
			if _, ok := next.(messages.PointerMove); ok {
				last = next
				continue
			}
			return []messages.Message{last, next}
		default:
			return []messages.Message{last}
		}
	}
}

func (l *Loop) handle(ctx context.Context, msg messages.Message) {
	before := l.machine.State()
	err := l.machine.Handle(ctx, msg)
	switch {
	case err == nil:
	case errors.Is(err, session.ErrStaleEvent):
		log.Printf("eventloop: %s discarded: %v", msg.Type(), err)
	default:
		log.Printf("eventloop: %s: %v", msg.Type(), err)
	}
	if after := l.machine.State(); after != before && l.onState != nil {
		l.onState(after)
	}
}

func (l *Loop) handleConn(ctx context.Context, conn singleinstance.Conn) {
	if l.pending != nil || l.machine.State() != session.Idle {
		log.Printf("eventloop: remote trigger while busy")
		_ = conn.RespondError("Busy, please retry")
		_ = conn.Close()
		return
	}
	l.pending = conn
	l.handle(ctx, messages.HotkeyPressed{Source: messages.SourceRemote})
}

// sessionIdle runs inside machine.Handle on the loop goroutine.
func (l *Loop) sessionIdle(err error) {
	if l.pending != nil {
		conn := l.pending
		l.pending = nil
		if err != nil {
			_ = conn.RespondError(err.Error())
		} else {
			_ = conn.RespondSuccess()
		}
		_ = conn.Close()
	}
	if l.onIdle != nil {
		l.onIdle(err)
	}
}

func (l *Loop) shutdown() {
	if l.pending != nil {
		_ = l.pending.RespondError("shutting down")
		_ = l.pending.Close()
		l.pending = nil
	}
}
