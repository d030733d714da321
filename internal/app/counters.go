package app

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/redis/go-redis/v9"

	"github.com/carrierdesk/carrierdesk/internal/numbering"
	"github.com/carrierdesk/carrierdesk/internal/platform/db"
)

const redisCounterPrefix = "carrier:counter"

// NewCounterStore builds the counter store selected by COUNTER_BACKEND.
func NewCounterStore(ctx context.Context, cfg *Config, conn db.DBTX, rdb redis.UniversalClient) (numbering.Store, error) {
	switch cfg.CounterBackend {
	case "postgres":
		return numbering.NewPostgresStore(conn), nil
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("app: redis counter backend requires REDIS_ADDR")
		}
		return numbering.NewRedisStore(rdb, redisCounterPrefix), nil
	case "dynamodb":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.DynamoRegion))
		if err != nil {
			return nil, fmt.Errorf("app: load aws config: %w", err)
		}
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if cfg.DynamoEndpoint != "" {
				o.BaseEndpoint = aws.String(cfg.DynamoEndpoint)
			}
		})
		return numbering.NewDynamoStore(client, cfg.DynamoCounterTable), nil
	default:
		return nil, fmt.Errorf("app: unsupported counter backend %q", cfg.CounterBackend)
	}
}

// RedisPinger adapts a redis client to Pinger.
type RedisPinger struct {
	Client redis.UniversalClient
}

// Ping implements Pinger.
func (p RedisPinger) Ping(ctx context.Context) error {
	return p.Client.Ping(ctx).Err()
}
