package data

import (
	"context"
	"log"
	"strings"

	"github.com/commonsdao/fundbot/src/types"
	"github.com/redis/go-redis/v9"
)

const streamTransactions = "fundbot.transactions"

func MustRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	return redis.NewClient(opt)
}

// PublishTransaction mirrors an executed free funding transaction onto a
// stream for other consumers. Best effort: callers log and move on.
func PublishTransaction(ctx context.Context, rdb *redis.Client, tx *types.FreeTransaction) error {
	_, err := rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: streamTransactions,
		Values: map[string]interface{}{
			"author":      tx.Author,
			"mentions":    tx.Mentions,
			"recipients":  len(strings.Fields(tx.Mentions)),
			"amount":      tx.Amount,
			"description": tx.Description,
			"time":        tx.SubmittedAt.Unix(),
		},
	}).Result()
	return err
}
