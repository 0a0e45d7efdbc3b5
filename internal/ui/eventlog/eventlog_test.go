package eventlog

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/dixel/internal/chain"
	"github.com/zjrosen/dixel/internal/engine"
)

var collAddr = chain.AddressFromLabel("collection")

// fakeSource serves events from memory, honoring AfterSeq.
type fakeSource struct {
	mu     sync.Mutex
	events []engine.StoredEvent
	err    error
}

func (s *fakeSource) Events(_ context.Context, f engine.EventFilter) ([]engine.StoredEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var out []engine.StoredEvent
	for _, ev := range s.events {
		if ev.Seq > f.AfterSeq {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (s *fakeSource) add(name string, attrs ...chain.Attr) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, stored(int64(len(s.events)+1), name, attrs...))
}

func stored(seq int64, name string, attrs ...chain.Attr) engine.StoredEvent {
	return engine.StoredEvent{
		Seq: seq,
		Event: chain.Event{
			ID:      name,
			Name:    name,
			Emitter: collAddr,
			Attrs:   attrs,
			Time:    time.Unix(1_700_000_000, 0),
		},
	}
}

func sized(m Model) Model {
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	return next.(Model)
}

func TestModel_AppendsEvents(t *testing.T) {
	m := sized(New(context.Background(), &fakeSource{}, engine.EventFilter{}, nil))

	next, _ := m.Update(eventsMsg{events: []engine.StoredEvent{
		stored(1, "Initialized"),
		stored(2, "Transfer", chain.A("tokenId", "0")),
	}})
	m = next.(Model)
	require.Len(t, m.Events(), 2)
	require.Contains(t, m.View(), "Transfer(tokenId=0)")
	require.Contains(t, m.View(), "2 events")
}

func TestModel_DropsAlreadySeenEvents(t *testing.T) {
	m := sized(New(context.Background(), &fakeSource{}, engine.EventFilter{}, nil))

	batch := eventsMsg{events: []engine.StoredEvent{stored(1, "Initialized"), stored(2, "Transfer")}}
	next, _ := m.Update(batch)
	next, _ = next.Update(batch)
	next, _ = next.Update(eventsMsg{events: []engine.StoredEvent{stored(2, "Transfer"), stored(3, "Burned")}})

	events := next.(Model).Events()
	require.Len(t, events, 3)
	require.Equal(t, "Burned", events[2].Name)
}

func TestModel_StartsAfterFilterSeq(t *testing.T) {
	src := &fakeSource{}
	src.add("Initialized")
	src.add("Transfer")
	src.add("Burned")

	m := New(context.Background(), src, engine.EventFilter{AfterSeq: 2}, nil)
	msg := m.fetch()()
	next, _ := m.Update(msg)

	events := next.(Model).Events()
	require.Len(t, events, 1)
	require.Equal(t, int64(3), events[0].Seq)
}

func TestModel_FetchError(t *testing.T) {
	m := sized(New(context.Background(), &fakeSource{}, engine.EventFilter{}, nil))

	next, _ := m.Update(eventsMsg{err: errors.New("database is locked")})
	require.Contains(t, next.View(), "error: database is locked")

	next, _ = next.Update(eventsMsg{})
	require.NotContains(t, next.View(), "error:")
}

func TestModel_FollowToggle(t *testing.T) {
	m := sized(New(context.Background(), &fakeSource{}, engine.EventFilter{}, nil))
	require.True(t, m.Following())

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")})
	require.False(t, next.(Model).Following())
	require.Contains(t, next.View(), "paused")

	next, _ = next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("G")})
	require.True(t, next.(Model).Following())
}

func TestModel_Title(t *testing.T) {
	m := sized(New(context.Background(), &fakeSource{}, engine.EventFilter{Emitter: collAddr, Name: "Burned"}, nil))
	view := m.View()
	require.Contains(t, view, collAddr.Short())
	require.Contains(t, view, "Burned")
	require.Contains(t, view, "No events yet")
}

func TestModel_WaitForChange(t *testing.T) {
	m := New(context.Background(), &fakeSource{}, engine.EventFilter{}, nil)
	require.Nil(t, m.waitForChange())

	changes := make(chan struct{}, 1)
	m = New(context.Background(), &fakeSource{}, engine.EventFilter{}, changes)
	changes <- struct{}{}
	require.Equal(t, changedMsg{}, m.waitForChange()())

	close(changes)
	require.Nil(t, m.waitForChange()())
}

func TestModel_WaitForChangeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := New(ctx, &fakeSource{}, engine.EventFilter{}, make(chan struct{}))
	require.Nil(t, m.waitForChange()())
}

func TestProgram_FollowsNewEvents(t *testing.T) {
	src := &fakeSource{}
	src.add("CollectionCreated", chain.A("name", "Dixel Art"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := make(chan struct{}, 1)

	tm := teatest.NewTestModel(t, New(ctx, src, engine.EventFilter{}, changes),
		teatest.WithInitialTermSize(100, 20))

	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return bytes.Contains(out, []byte("CollectionCreated"))
	}, teatest.WithDuration(3*time.Second))

	src.add("Burned", chain.A("tokenId", "7"))
	changes <- struct{}{}

	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return bytes.Contains(out, []byte("Burned(tokenId=7)"))
	}, teatest.WithDuration(3*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	tm.WaitFinished(t, teatest.WithFinalTimeout(3*time.Second))

	final := tm.FinalModel(t).(Model)
	require.Len(t, final.Events(), 2)
}
