package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/platformer/internal/protocol"
	"github.com/vovakirdan/platformer/internal/scoresync"
)

// SyncStatus is what the sync indicator shows.
type SyncStatus int

const (
	SyncOffline SyncStatus = iota
	SyncConnecting
	SyncUnsynced
	SyncPushing
	SyncSynced
	SyncFailed
)

func (s SyncStatus) String() string {
	switch s {
	case SyncOffline:
		return "offline"
	case SyncConnecting:
		return "connecting"
	case SyncUnsynced:
		return "unsynced"
	case SyncPushing:
		return "syncing"
	case SyncSynced:
		return "synced"
	case SyncFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// joinResultMsg reports the outcome of joining the score topic.
type joinResultMsg struct {
	err error
}

// pushResultMsg reports the outcome of a score push.
// Round ties it to the round that was running when it was sent.
type pushResultMsg struct {
	Round int
	Score int
	Share bool
	Err   error
}

// remoteScoreMsg is a score broadcast from the topic.
type remoteScoreMsg struct {
	Event string
	Score protocol.ScoreBroadcast
}

// remoteFeed buffers broadcasts between the client's read goroutine and
// the Bubble Tea loop. It ends when the client's transport goes away.
type remoteFeed struct {
	ch   chan remoteScoreMsg
	done <-chan struct{}
}

func newRemoteFeed(c *scoresync.Client) remoteFeed {
	feed := remoteFeed{ch: make(chan remoteScoreMsg, 16), done: c.Done()}
	c.Subscribe(func(event string, s protocol.ScoreBroadcast) {
		select {
		case feed.ch <- remoteScoreMsg{Event: event, Score: s}:
		default:
		}
	})
	return feed
}

func (f remoteFeed) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-f.ch:
			return msg
		case <-f.done:
			return nil
		}
	}
}

func joinCmd(c *scoresync.Client, topic string, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return joinResultMsg{err: c.Join(ctx, topic)}
	}
}

func pushCmd(c *scoresync.Client, round, score int, share bool) tea.Cmd {
	return func() tea.Msg {
		var err error
		if share {
			err = c.BroadcastScore(context.Background(), score)
		} else {
			err = c.PushScore(context.Background(), score)
		}
		return pushResultMsg{Round: round, Score: score, Share: share, Err: err}
	}
}

// describeSyncError shortens sync errors for the status line.
func describeSyncError(err error) string {
	var pe *scoresync.PushError
	switch {
	case errors.Is(err, scoresync.ErrNotConnected):
		return "not connected"
	case errors.Is(err, scoresync.ErrAckTimeout):
		return "no response"
	case errors.Is(err, scoresync.ErrClosed):
		return "connection closed"
	case errors.As(err, &pe) && pe.Reason != "":
		return pe.Reason
	}
	return err.Error()
}
