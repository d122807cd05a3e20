package doorlog_test

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-intercom-bridge/doorlog"
	"github.com/jrsteele09/go-intercom-bridge/gateway"
	internalerrors "github.com/jrsteele09/go-intercom-bridge/internal/errors"
	"github.com/jrsteele09/go-intercom-bridge/sessions"
	"github.com/jrsteele09/go-intercom-bridge/store"
	storerepofake "github.com/jrsteele09/go-intercom-bridge/store/repofake"
	"github.com/stretchr/testify/require"
)

// fakeSender answers activity log requests from a script.
type fakeSender struct {
	mu      sync.Mutex
	calls   []string
	respond func(url string, call int) []doorlog.Entry
}

func (f *fakeSender) Send(_ context.Context, req gateway.Request) (gateway.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req.URL)
	call := len(f.calls)
	f.mu.Unlock()

	entries := f.respond(req.URL, call)
	if len(entries) == 0 {
		return gateway.Result{Envelope: gateway.EnvelopeCode}, nil
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return gateway.Result{}, err
	}
	return gateway.Result{Data: raw, Envelope: gateway.EnvelopeCode}, nil
}

func (f *fakeSender) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []doorlog.Entry
}

func (f *fakePublisher) Publish(e doorlog.Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
}

func (f *fakePublisher) published() []doorlog.Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]doorlog.Entry(nil), f.events...)
}

var (
	entryA = doorlog.Entry{CaptureTime: "2024-03-01 10:00:00", Initiator: "Alice", CaptureType: "Open Door via App", Location: "Front Gate", MAC: "0C1105AABBCC", Relay: "0", PicURL: "https://pics/a.jpg"}
	entryB = doorlog.Entry{CaptureTime: "2024-03-01 10:05:00", Initiator: "Bob", CaptureType: "Call", Location: "Front Gate", MAC: "0C1105AABBCC", Relay: "0"}
)

func withPic(e doorlog.Entry) doorlog.Entry {
	e.PicURL = "https://pics/b.jpg"
	return e
}

func testConfig() doorlog.Config {
	return doorlog.Config{
		PollInterval:      10 * time.Millisecond,
		ImageWaitTimeout:  100 * time.Millisecond,
		ImageWaitInterval: 10 * time.Millisecond,
		BackfillDelay:     20 * time.Millisecond,
	}
}

type testFixture struct {
	sender    *fakeSender
	publisher *fakePublisher
	store     *storerepofake.FakeStore
	session   *sessions.Session
	poller    *doorlog.Poller
}

func setupTestFixture(t *testing.T, wait bool, lastSeen *doorlog.Entry, respond func(url string, call int) []doorlog.Entry) *testFixture {
	t.Helper()

	sess := sessions.New(sessions.Data{Token: "tok", WaitForImageURL: wait})
	require.NoError(t, sess.Transition(sessions.StateFresh, false))

	st := storerepofake.NewFakeStore()
	if lastSeen != nil {
		require.NoError(t, st.Set(context.Background(), store.KeyLatestDoorLog, *lastSeen))
	}

	sender := &fakeSender{respond: respond}
	pub := &fakePublisher{}
	p, err := doorlog.NewPoller(sender, sess, st, pub, doorlog.WithConfig(testConfig()))
	require.NoError(t, err)
	t.Cleanup(p.Stop)

	return &testFixture{sender: sender, publisher: pub, store: st, session: sess, poller: p}
}

func (f *testFixture) lastSeen(t *testing.T) doorlog.Entry {
	t.Helper()
	var e doorlog.Entry
	found, err := f.store.Get(context.Background(), store.KeyLatestDoorLog, &e)
	require.NoError(t, err)
	require.True(t, found)
	return e
}

func always(entries ...doorlog.Entry) func(string, int) []doorlog.Entry {
	return func(string, int) []doorlog.Entry { return entries }
}

func TestNewPoller_RequiresDependencies(t *testing.T) {
	sess := sessions.New(sessions.Data{})
	st := storerepofake.NewFakeStore()
	_, err := doorlog.NewPoller(nil, sess, st, &fakePublisher{})
	require.Error(t, err)
	_, err = doorlog.NewPoller(&fakeSender{}, sess, st, nil)
	require.Error(t, err)
}

func TestPollOnce_FirstObservationIsBaseline(t *testing.T) {
	f := setupTestFixture(t, false, nil, always(entryA))

	got, err := f.poller.PollOnce(context.Background())
	require.NoError(t, err)
	require.Nil(t, got)
	require.Empty(t, f.publisher.published())
	require.Equal(t, entryA, f.lastSeen(t))
}

func TestPollOnce_DuplicateCaptureTimeEmitsOnce(t *testing.T) {
	f := setupTestFixture(t, false, &entryA, always(withPic(entryB), entryA))

	got, err := f.poller.PollOnce(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, withPic(entryB), *got)

	got, err = f.poller.PollOnce(context.Background())
	require.NoError(t, err)
	require.Nil(t, got)

	require.Equal(t, []doorlog.Entry{withPic(entryB)}, f.publisher.published())
	require.Equal(t, withPic(entryB), f.lastSeen(t))
}

func TestPollOnce_SameAsLastSeen(t *testing.T) {
	f := setupTestFixture(t, false, &entryA, always(entryA))

	got, err := f.poller.PollOnce(context.Background())
	require.NoError(t, err)
	require.Nil(t, got)
	require.Empty(t, f.publisher.published())
}

func TestPollOnce_WaitPolicyTimeoutStillEmits(t *testing.T) {
	f := setupTestFixture(t, true, &entryA, always(entryB, entryA))

	start := time.Now()
	got, err := f.poller.PollOnce(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got.PicURL)
	require.GreaterOrEqual(t, time.Since(start), testConfig().ImageWaitTimeout)

	require.Len(t, f.publisher.published(), 1)
	require.Equal(t, entryB, f.lastSeen(t))
}

func TestPollOnce_WaitPolicyPicksUpPicture(t *testing.T) {
	f := setupTestFixture(t, true, &entryA, func(_ string, call int) []doorlog.Entry {
		if call < 3 {
			return []doorlog.Entry{entryB, entryA}
		}
		return []doorlog.Entry{withPic(entryB), entryA}
	})

	got, err := f.poller.PollOnce(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "https://pics/b.jpg", got.PicURL)
	require.Equal(t, withPic(entryB), f.lastSeen(t))
}

func TestPollOnce_EmptySingleRetriesOnCommunity(t *testing.T) {
	f := setupTestFixture(t, false, &entryA, func(url string, _ int) []doorlog.Entry {
		if strings.Contains(url, "app/community/") {
			return []doorlog.Entry{withPic(entryB)}
		}
		return nil
	})

	got, err := f.poller.PollOnce(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, entryB.CaptureTime, got.CaptureTime)
	require.Equal(t, sessions.AppTypeCommunity, f.session.AppType())
	require.Equal(t, 2, f.sender.callCount())

	var appType string
	_, err = f.store.Get(context.Background(), store.KeyAppType, &appType)
	require.NoError(t, err)
	require.Equal(t, "community", appType)
}

func TestPollOnce_EmptyOnBothVariants(t *testing.T) {
	f := setupTestFixture(t, false, &entryA, always())

	got, err := f.poller.PollOnce(context.Background())
	require.NoError(t, err)
	require.Nil(t, got)
	require.Equal(t, 2, f.sender.callCount())
	require.Equal(t, sessions.AppTypeCommunity, f.session.AppType())
}

func TestPollOnce_RequiresAuthenticatedSession(t *testing.T) {
	f := setupTestFixture(t, false, &entryA, always(entryB))
	require.NoError(t, f.session.Transition(sessions.StateDegraded, false))

	_, err := f.poller.PollOnce(context.Background())
	require.ErrorIs(t, err, internalerrors.ErrNotRunning)
	require.Zero(t, f.sender.callCount())
	require.Equal(t, sessions.AppTypeSingle, f.session.AppType())
}

func TestPollOnce_ConcurrentTriggerSkips(t *testing.T) {
	f := setupTestFixture(t, true, &entryA, always(entryB, entryA))

	var wg sync.WaitGroup
	results := make(chan *doorlog.Entry, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, _ := f.poller.PollOnce(context.Background())
			results <- got
		}()
	}
	wg.Wait()
	close(results)

	emitted := 0
	for r := range results {
		if r != nil {
			emitted++
		}
	}
	require.Equal(t, 1, emitted)
	require.Len(t, f.publisher.published(), 1)
}

func TestPollOnce_CancelDuringWaitAbandonsEvent(t *testing.T) {
	f := setupTestFixture(t, true, &entryA, always(entryB, entryA))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	got, err := f.poller.PollOnce(ctx)
	require.NoError(t, err)
	require.Nil(t, got)
	require.Empty(t, f.publisher.published())
	require.Equal(t, entryA, f.lastSeen(t))
}

func TestPollOnce_AsapBackfillsPicture(t *testing.T) {
	f := setupTestFixture(t, false, &entryA, func(_ string, call int) []doorlog.Entry {
		if call == 1 {
			return []doorlog.Entry{entryB, entryA}
		}
		return []doorlog.Entry{withPic(entryB), entryA}
	})

	got, err := f.poller.PollOnce(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got.PicURL)

	require.Eventually(t, func() bool {
		return f.lastSeen(t).PicURL != ""
	}, time.Second, 5*time.Millisecond)
	require.Len(t, f.publisher.published(), 1)
}

func TestPollOnce_NoBackfillAfterStop(t *testing.T) {
	var stopped atomic.Int32
	f := setupTestFixture(t, false, &entryA, func(string, int) []doorlog.Entry {
		switch stopped.Load() {
		case 0:
			return []doorlog.Entry{entryA}
		case 1:
			stopped.Store(2)
			return []doorlog.Entry{entryB, entryA}
		}
		return []doorlog.Entry{withPic(entryB), entryA}
	})
	f.poller.Start(context.Background())
	require.Eventually(t, func() bool { return f.sender.callCount() > 0 }, time.Second, 5*time.Millisecond)
	f.poller.Stop()
	calls := f.sender.callCount()
	stopped.Store(1)

	got, err := f.poller.PollOnce(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got.PicURL)

	time.Sleep(5 * testConfig().BackfillDelay)
	require.Equal(t, calls+1, f.sender.callCount())
	require.Equal(t, entryB.CaptureTime, f.lastSeen(t).CaptureTime)
	require.Empty(t, f.lastSeen(t).PicURL)
}

func TestStop_ConcurrentWithManualPolls(t *testing.T) {
	f := setupTestFixture(t, false, &entryA, always(entryB, entryA))
	f.poller.Start(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.poller.PollOnce(context.Background())
		}()
	}
	f.poller.Stop()
	wg.Wait()
	f.poller.Stop()
	require.False(t, f.poller.Running())
}

func TestStop_Idempotent(t *testing.T) {
	f := setupTestFixture(t, false, &entryA, always(entryA))

	f.poller.Stop()
	require.False(t, f.poller.Running())

	f.poller.Start(context.Background())
	f.poller.Start(context.Background())
	require.True(t, f.poller.Running())

	f.poller.Stop()
	f.poller.Stop()
	require.False(t, f.poller.Running())
}

func TestStart_EmitsAndStopsPromptly(t *testing.T) {
	var mu sync.Mutex
	current := []doorlog.Entry{entryA}
	f := setupTestFixture(t, false, &entryA, func(string, int) []doorlog.Entry {
		mu.Lock()
		defer mu.Unlock()
		return current
	})

	f.poller.Start(context.Background())
	require.Eventually(t, func() bool { return f.sender.callCount() > 2 }, time.Second, 5*time.Millisecond)
	require.Empty(t, f.publisher.published())

	mu.Lock()
	current = []doorlog.Entry{withPic(entryB), entryA}
	mu.Unlock()
	require.Eventually(t, func() bool { return len(f.publisher.published()) == 1 }, time.Second, 5*time.Millisecond)

	done := make(chan struct{})
	go func() {
		f.poller.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
	require.Len(t, f.publisher.published(), 1)
}
