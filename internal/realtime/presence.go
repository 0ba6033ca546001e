package realtime

import (
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// StatusSelf is how a recipient sees its own entry when self presence is on.
const StatusSelf = "you"

// View projects a snapshot into the public presence view: display name and
// status only.
func View(snapshot []Connection) []UserPresence {
	return lo.Map(snapshot, func(conn Connection, _ int) UserPresence {
		return UserPresence{Name: conn.Identity.DisplayName, Status: string(conn.Status)}
	})
}

// SelfView is View as seen by the connection with id self: its own entry is
// rendered as StatusSelf.
func SelfView(snapshot []Connection, self string) []UserPresence {
	return lo.Map(snapshot, func(conn Connection, _ int) UserPresence {
		status := string(conn.Status)
		if conn.Identity.ID == self {
			status = StatusSelf
		}
		return UserPresence{Name: conn.Identity.DisplayName, Status: status}
	})
}

// Broadcaster publishes presence views to every connection of a snapshot.
// Delivery is fire-and-forget.
type Broadcaster struct {
	log      *zap.Logger
	selfView bool
}

// NewBroadcaster creates a Broadcaster. With selfView set, the connection a
// change is about receives a view where its own entry reads "you".
func NewBroadcaster(log *zap.Logger, selfView bool) *Broadcaster {
	return &Broadcaster{log: log, selfView: selfView}
}

// Publish implements Publisher.
func (b *Broadcaster) Publish(change Change) {
	shared, err := Encode(UpdateUsers(View(change.Snapshot)))
	if err != nil {
		b.log.Error("encode presence", zap.Error(err))
		return
	}

	for _, conn := range change.Snapshot {
		frame := shared
		if b.selfView && conn.Identity.ID == change.Subject {
			own, err := Encode(UpdateUsers(SelfView(change.Snapshot, conn.Identity.ID)))
			if err != nil {
				b.log.Error("encode self presence", zap.Error(err))
				continue
			}
			frame = own
		}
		if !conn.Client.Send(frame) {
			b.log.Debug("presence frame dropped", zap.String("user_id", conn.Identity.ID))
		}
	}
}

var _ Publisher = (*Broadcaster)(nil)
