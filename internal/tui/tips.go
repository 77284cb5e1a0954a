package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/fitfeast/internal/diary"
	"github.com/sadopc/fitfeast/internal/estimator"
	"go.uber.org/zap"
)

// tipFeed carries debounced advice from the scheduler's timer goroutine
// into the Bubble Tea loop. Only the latest result is kept.
type tipFeed struct {
	sched *estimator.TipScheduler
	ch    chan string
}

func newTipFeed(adv estimator.Advisor, delay time.Duration, log *zap.Logger) *tipFeed {
	f := &tipFeed{ch: make(chan string, 1)}
	f.sched = estimator.NewTipScheduler(adv, delay, f.deliver, log)
	return f
}

func (f *tipFeed) deliver(text string) {
	for {
		select {
		case f.ch <- text:
			return
		default:
			// drop the stale value nobody has read yet
			select {
			case <-f.ch:
			default:
			}
		}
	}
}

// wait blocks a command until the next advice arrives.
func (f *tipFeed) wait() tea.Cmd {
	if f == nil {
		return nil
	}
	return func() tea.Msg {
		return tipsMsg{text: <-f.ch}
	}
}

func (f *tipFeed) schedule(entries []diary.FoodEntry) {
	if f == nil {
		return
	}
	f.sched.Schedule(entries)
}

// pending reports whether advice is scheduled but not yet requested.
func (f *tipFeed) pending() bool {
	return f != nil && f.sched.Pending()
}

func (f *tipFeed) stop() {
	if f == nil {
		return
	}
	f.sched.Stop()
}
