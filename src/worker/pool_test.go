package worker

import (
	"context"
	"testing"
	"time"

	"xshot/src/messages"
)

func TestSubmitDeliversResult(t *testing.T) {
	p := New(1)
	defer p.Close()

	got := make(chan messages.Message, 1)
	ok := p.Submit(context.Background(), func(context.Context) messages.Message {
		return messages.CaptureComplete{Generation: 3}
	}, func(msg messages.Message) { got <- msg })
	if !ok {
		t.Fatal("Submit rejected job on an idle pool")
	}

	select {
	case msg := <-got:
		cc, ok := msg.(messages.CaptureComplete)
		if !ok || cc.Generation != 3 {
			t.Fatalf("unexpected message %#v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for result")
	}
}

func TestSubmitBackPressure(t *testing.T) {
	p := New(1)
	release := make(chan struct{})
	started := make(chan struct{})
	block := func(context.Context) messages.Message {
		close(started)
		<-release
		return messages.ExportComplete{}
	}
	noop := func(context.Context) messages.Message { return messages.ExportComplete{} }
	cb := func(messages.Message) {}

	if !p.Submit(context.Background(), block, cb) {
		t.Fatal("first job rejected")
	}
	<-started
	if !p.Submit(context.Background(), noop, cb) {
		t.Fatal("queue slot should accept one job while the worker is busy")
	}
	if p.Submit(context.Background(), noop, cb) {
		t.Fatal("expected back-pressure with a full queue")
	}
	close(release)
	p.Close()
}

func TestPanickingJobDoesNotKillWorker(t *testing.T) {
	p := New(1)
	defer p.Close()

	called := make(chan struct{}, 1)
	p.Submit(context.Background(), func(context.Context) messages.Message {
		panic("boom")
	}, func(messages.Message) { called <- struct{}{} })

	got := make(chan messages.Message, 1)
	deadline := time.Now().Add(2 * time.Second)
	for !p.Submit(context.Background(), func(context.Context) messages.Message {
		return messages.CaptureComplete{Generation: 1}
	}, func(msg messages.Message) { got <- msg }) {
		if time.Now().After(deadline) {
			t.Fatal("pool never accepted a second job")
		}
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive a panicking job")
	}
	select {
	case <-called:
		t.Fatal("callback invoked for a panicking job")
	default:
	}
}
