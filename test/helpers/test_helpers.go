package helpers

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/lkalantari/askout/internal/model"
	"github.com/lkalantari/askout/internal/repository"
	"github.com/lkalantari/askout/internal/token"
	"github.com/lkalantari/askout/pkg/pg"
	"github.com/lkalantari/askout/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func SetupTestDB(t *testing.T) *pg.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	// every pooled connection to :memory: gets its own database,
	// keep the pool at one connection
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&repository.MessageEntity{},
		&repository.ResponseEntity{},
	)
	require.NoError(t, err)

	pgDB := &pg.DB{}
	pgDBValue := reflect.ValueOf(pgDB).Elem()

	readField := pgDBValue.FieldByName("read")
	writeField := pgDBValue.FieldByName("write")

	readField = reflect.NewAt(readField.Type(), readField.Addr().UnsafePointer()).Elem()
	writeField = reflect.NewAt(writeField.Type(), writeField.Addr().UnsafePointer()).Elem()

	readField.Set(reflect.ValueOf(db))
	writeField.Set(reflect.ValueOf(db))

	return pgDB
}

func SetupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	adapter, err := redis.NewRedisAdapter("test", "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	return mr, adapter
}

func CreateTestMessage(t *testing.T, db *pg.DB, text string, expiresAt time.Time) *repository.MessageEntity {
	ctx := context.Background()
	msg := &repository.MessageEntity{
		AccessToken:   token.Generate(),
		TrackingToken: token.Generate(),
		SenderName:    "Alex",
		RecipientName: "Sam",
		MessageText:   text,
		CardStyle:     string(model.CardStyleClassic),
		Activities:    []string{string(model.ActivityCoffee)},
		ExpiresAt:     expiresAt,
		CreatedAt:     time.Now(),
	}
	err := db.Write(ctx).Create(msg).Error
	require.NoError(t, err)
	return msg
}

func CreateTestResponse(t *testing.T, db *pg.DB, messageID int64, responseType string) *repository.ResponseEntity {
	ctx := context.Background()
	resp := &repository.ResponseEntity{
		MessageID:    messageID,
		ResponseType: responseType,
		CreatedAt:    time.Now(),
	}
	err := db.Write(ctx).Create(resp).Error
	require.NoError(t, err)
	return resp
}

func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func AssertEventually(t *testing.T, timeout time.Duration, condition func() bool, msg string) {
	if !WaitForCondition(t, timeout, condition) {
		t.Fatal(msg)
	}
}

func ContextWithTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func Ptr[T any](v T) *T {
	return &v
}
