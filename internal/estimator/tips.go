package estimator

import (
	"context"
	"slices"
	"sync/atomic"
	"time"

	"github.com/sadopc/fitfeast/internal/debounce"
	"github.com/sadopc/fitfeast/internal/diary"
	"go.uber.org/zap"
)

// DefaultTipsDelay is how long the history has to stay unchanged before
// advice is requested.
const DefaultTipsDelay = time.Second

// TipScheduler requests advice after the entry history settles. Failures
// are delivered as empty advice.
type TipScheduler struct {
	adv     Advisor
	deb     *debounce.Debouncer
	deliver func(string)
	log     *zap.Logger
	gen     atomic.Uint64
}

func NewTipScheduler(adv Advisor, delay time.Duration, deliver func(string), log *zap.Logger) *TipScheduler {
	if delay <= 0 {
		delay = DefaultTipsDelay
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &TipScheduler{
		adv:     adv,
		deb:     debounce.New(delay),
		deliver: deliver,
		log:     log,
	}
}

// Schedule replaces any pending request with one for history. An empty
// history clears the advice right away.
func (t *TipScheduler) Schedule(history []diary.FoodEntry) {
	gen := t.gen.Add(1)
	if len(history) == 0 || t.adv == nil {
		t.deb.Cancel()
		t.deliver("")
		return
	}

	snapshot := slices.Clone(history)
	t.deb.Trigger(func() {
		tips, err := t.adv.Advise(context.Background(), snapshot)
		if err != nil {
			t.log.Debug("advice unavailable", zap.Error(err))
			tips = ""
		}
		if t.gen.Load() != gen {
			// a newer schedule owns the output
			return
		}
		t.deliver(tips)
	})
}

// Stop drops any pending request.
func (t *TipScheduler) Stop() {
	t.gen.Add(1)
	t.deb.Cancel()
}

func (t *TipScheduler) Pending() bool { return t.deb.Pending() }
