package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"cryptotracker/internal/application/port"
	"cryptotracker/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEvaluatorFixture(t *testing.T) (*domain.PriceTable, *AlertBook, *AlertEvaluator, *recordingNotifier) {
	t.Helper()
	table := domain.NewPriceTable()
	book := NewAlertBook(context.Background(), newFakeStore(), 10)
	notifier := &recordingNotifier{}
	eval := NewAlertEvaluator(book, table, notifier)
	t.Cleanup(eval.Wait)
	t.Cleanup(eval.Attach(table))
	return table, book, eval, notifier
}

func TestAlertEvaluator_FiresExactlyOnceAcrossRepeatedCrossings(t *testing.T) {
	table, book, eval, notifier := newEvaluatorFixture(t)
	a, err := book.Add(btcAbove)
	require.NoError(t, err)

	for _, px := range []float64{59000, 61000, 59500, 62000} {
		table.Merge(map[string]domain.Price{"bitcoin": {Price: px}})
	}

	eval.Wait()
	assert.Equal(t, 1, notifier.count())
	got, _ := book.Get(a.ID)
	assert.True(t, got.IsTriggered)
	assert.False(t, got.IsActive)
	require.NotNil(t, got.TriggeredAt)
}

func TestAlertEvaluator_SkipsMissingPriceThenTriggers(t *testing.T) {
	table, book, eval, notifier := newEvaluatorFixture(t)
	a, err := book.Add(btcAbove)
	require.NoError(t, err)

	table.Merge(map[string]domain.Price{"ethereum": {Price: 3000}})
	eval.Wait()
	got, _ := book.Get(a.ID)
	assert.False(t, got.IsTriggered)
	assert.Equal(t, 0, notifier.count())

	table.Merge(map[string]domain.Price{"bitcoin": {Price: 60000, ChangePercent: 2}})
	got, _ = book.Get(a.ID)
	assert.True(t, got.IsTriggered)
	assert.NotNil(t, got.TriggeredAt)
	eval.Wait()
	require.Equal(t, 1, notifier.count())

	msg := notifier.at(0)
	assert.Equal(t, "Bitcoin Price Alert", msg.Title)
	assert.Equal(t, "Bitcoin is now above $60000.00 (Current: $60000.00)", msg.Body)
	assert.Equal(t, "bitcoin", msg.Data["coinId"])
}

func TestAlertEvaluator_BelowCondition(t *testing.T) {
	table, book, eval, notifier := newEvaluatorFixture(t)
	d := btcAbove
	d.Condition = domain.ConditionBelow
	d.TargetPrice = 55000
	a, _ := book.Add(d)

	table.Merge(map[string]domain.Price{"bitcoin": {Price: 55000.01}})
	eval.Wait()
	assert.Equal(t, 0, notifier.count())

	table.Merge(map[string]domain.Price{"bitcoin": {Price: 54000}})
	eval.Wait()
	assert.Equal(t, 1, notifier.count())
	got, _ := book.Get(a.ID)
	assert.True(t, got.IsTriggered)
}

func TestAlertEvaluator_InactiveAlertsAreNotEvaluated(t *testing.T) {
	table, book, eval, notifier := newEvaluatorFixture(t)
	a, _ := book.Add(btcAbove)
	book.Toggle(a.ID)

	table.Merge(map[string]domain.Price{"bitcoin": {Price: 70000}})
	eval.Wait()
	assert.Equal(t, 0, notifier.count())

	book.Toggle(a.ID)
	table.Merge(map[string]domain.Price{"bitcoin": {Price: 70001}})
	eval.Wait()
	assert.Equal(t, 1, notifier.count())
}

func TestAlertEvaluator_NotificationFailureKeepsTriggeredState(t *testing.T) {
	table, book, eval, notifier := newEvaluatorFixture(t)
	notifier.err = errors.New("permission denied")
	a, _ := book.Add(btcAbove)

	table.Merge(map[string]domain.Price{"bitcoin": {Price: 65000}})
	table.Merge(map[string]domain.Price{"bitcoin": {Price: 66000}})
	eval.Wait()

	got, _ := book.Get(a.ID)
	assert.True(t, got.IsTriggered)
	assert.Equal(t, 1, notifier.count(), "delivery is not retried")
}

func TestAlertEvaluator_TriggerLeavesSiblingsUntouched(t *testing.T) {
	table, book, _, _ := newEvaluatorFixture(t)
	btc, _ := book.Add(btcAbove)
	eth := btcAbove
	eth.AssetID = "ethereum"
	eth.TargetPrice = 5000
	sibling, _ := book.Add(eth)

	table.Merge(map[string]domain.Price{"bitcoin": {Price: 60000}, "ethereum": {Price: 3000}})

	got, _ := book.Get(btc.ID)
	assert.True(t, got.IsTriggered)
	got, _ = book.Get(sibling.ID)
	assert.Equal(t, sibling, got)
}

func TestAlertEvaluator_EvaluateReturnsTriggered(t *testing.T) {
	table := domain.NewPriceTable()
	book := NewAlertBook(context.Background(), nil, 10)
	eval := NewAlertEvaluator(book, table, nil)
	a, _ := book.Add(btcAbove)

	table.Merge(map[string]domain.Price{"bitcoin": {Price: 60001}})

	first := eval.Evaluate(context.Background())
	require.Len(t, first, 1)
	assert.Equal(t, a.ID, first[0].ID)
	assert.Empty(t, eval.Evaluate(context.Background()))
}

// blockingNotifier holds every delivery until released or its context ends.
type blockingNotifier struct {
	started chan struct{}
	release chan struct{}
}

func (n *blockingNotifier) Notify(ctx context.Context, msg port.Notification) error {
	n.started <- struct{}{}
	select {
	case <-n.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestAlertEvaluator_SlowDeliveryDoesNotHoldMerge(t *testing.T) {
	table := domain.NewPriceTable()
	book := NewAlertBook(context.Background(), newFakeStore(), 10)
	notifier := &blockingNotifier{started: make(chan struct{}, 2), release: make(chan struct{})}
	eval := NewAlertEvaluator(book, table, notifier)
	detach := eval.Attach(table)
	defer detach()

	first, _ := book.Add(btcAbove)
	lower := btcAbove
	lower.TargetPrice = 50000
	second, _ := book.Add(lower)

	began := time.Now()
	table.Merge(map[string]domain.Price{"bitcoin": {Price: 61000}})
	assert.Less(t, time.Since(began), time.Second)

	for _, id := range []string{first.ID, second.ID} {
		got, _ := book.Get(id)
		assert.True(t, got.IsTriggered, id)
	}

	for i := 0; i < 2; i++ {
		select {
		case <-notifier.started:
		case <-time.After(time.Second):
			t.Fatal("notification was not handed off")
		}
	}
	close(notifier.release)
	eval.Wait()
}

type ctxRecordingNotifier struct {
	errs chan error
}

func (n *ctxRecordingNotifier) Notify(ctx context.Context, msg port.Notification) error {
	_, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		n.errs <- errors.New("delivery without timeout")
		return nil
	}
	n.errs <- ctx.Err()
	return nil
}

func TestAlertEvaluator_DeliveryOutlivesEvaluationContext(t *testing.T) {
	table := domain.NewPriceTable()
	book := NewAlertBook(context.Background(), nil, 10)
	notifier := &ctxRecordingNotifier{errs: make(chan error, 1)}
	eval := NewAlertEvaluator(book, table, notifier)
	_, _ = book.Add(btcAbove)
	table.Merge(map[string]domain.Price{"bitcoin": {Price: 60001}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Len(t, eval.Evaluate(ctx), 1)
	eval.Wait()

	assert.NoError(t, <-notifier.errs)
}
