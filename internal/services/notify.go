package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/models"
)

// NoticeChannel returns the pub/sub channel a user's notices are published
// on. User id 0 addresses every connected user.
func NoticeChannel(userID int64) string {
	if userID == 0 {
		return "notices:all"
	}
	return fmt.Sprintf("notices:%d", userID)
}

// Notifier is the notification sink: every user-visible outcome (forced
// logout, lock denial, role denial, sweep results) goes through Notify.
// Notices are published to redis pub/sub and delivered to browsers by the
// websocket hub.
type Notifier struct {
	redis *redis.Client
}

func NewNotifier(redisClient *redis.Client) *Notifier {
	return &Notifier{redis: redisClient}
}

func (n *Notifier) Notify(ctx context.Context, userID int64, message, severity string) {
	log.Printf("Notice [%s] user=%d: %s", severity, userID, message)
	if n.redis == nil {
		return
	}

	payload, err := json.Marshal(models.Notice{
		UserID:   userID,
		Message:  message,
		Severity: severity,
		At:       time.Now(),
	})
	if err != nil {
		return
	}

	if err := n.redis.Publish(ctx, NoticeChannel(userID), payload).Err(); err != nil {
		log.Printf("Notice publish failed: %v", err)
	}
}
