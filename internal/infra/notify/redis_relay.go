package notify

import (
	"context"
	"encoding/json"
	"time"

	"app/internal/notify"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const publishTimeout = 3 * time.Second

// RedisRelay は注文イベントをredisのpub/subチャンネルへ流す。
// ライブ配信側（チャット/ソケットのゲートウェイ）がこのチャンネルを購読する。
type RedisRelay struct {
	client  *redis.Client
	channel string
	log     *logrus.Logger
}

func NewRedisRelay(addr string, channel string, log *logrus.Logger) (*RedisRelay, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	//接続確認
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisRelay{client: client, channel: channel, log: log}, nil
}

// Publish はベストエフォート。リクエスト側のctxが終わっても配信は
// 打ち切らないので、専用のタイムアウト付きctxで投げる。
// 失敗はログに残すだけでリクエストを失敗させない。
func (r *RedisRelay) Publish(ctx context.Context, event notify.OrderEvent) {
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		data, err := json.Marshal(event)
		if err != nil {
			r.log.WithError(err).WithField("event", event.Name).Warn("order event marshal failed")
			return
		}

		if err := r.client.Publish(pubCtx, r.channel, data).Err(); err != nil {
			r.log.WithError(err).
				WithField("event", event.Name).
				WithField("order_id", event.OrderID).
				Warn("order event publish failed")
		}
	}()
}

func (r *RedisRelay) Close() error {
	return r.client.Close()
}
