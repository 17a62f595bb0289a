package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var codeBase = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func storedCode(t *testing.T, code string) string {
	t.Helper()
	data, err := json.Marshal(RequestCode{
		Code:      code,
		Recipient: "user1",
		Amount:    decimal.NewFromInt(250),
		Reason:    "market stall",
		CreatedAt: codeBase,
		ExpiresAt: codeBase.Add(5 * time.Minute),
	})
	assert.NoError(t, err)
	return string(data)
}

func TestRequestCodeService_Generate(t *testing.T) {
	t.Run("stores a code with a TTL", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		service := NewRequestCodeService(client).WithClock(func() time.Time { return codeBase })

		mock.ExpectGet("token:reqcode:rate:user1").RedisNil()
		mock.Regexp().ExpectSet(`token:reqcode:\d{8}`, `.*`, 5*time.Minute).SetVal("OK")
		mock.ExpectIncr("token:reqcode:rate:user1").SetVal(1)
		mock.ExpectExpire("token:reqcode:rate:user1", time.Hour).SetVal(true)

		code, err := service.Generate(context.Background(), "user1", decimal.NewFromInt(250), "market stall")
		assert.NoError(t, err)
		assert.Len(t, code.Code, 8)
		assert.Equal(t, "user1", code.Recipient)
		assert.Equal(t, codeBase.Add(5*time.Minute), code.ExpiresAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rate limited after too many codes", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		service := NewRequestCodeService(client)

		mock.ExpectGet("token:reqcode:rate:user1").SetVal("5")

		_, err := service.Generate(context.Background(), "user1", decimal.NewFromInt(250), "")
		assert.ErrorIs(t, err, ErrRateLimited)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		client, _ := redismock.NewClientMock()
		service := NewRequestCodeService(client)

		_, err := service.Generate(context.Background(), "user1", decimal.Zero, "")
		assert.Error(t, err)
	})
}

func TestRequestCodeService_Get(t *testing.T) {
	t.Run("live code", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		service := NewRequestCodeService(client).WithClock(func() time.Time { return codeBase.Add(time.Minute) })

		mock.ExpectGet("token:reqcode:12345678").SetVal(storedCode(t, "12345678"))

		code, err := service.Get(context.Background(), "12345678")
		assert.NoError(t, err)
		assert.Equal(t, "user1", code.Recipient)
		assert.True(t, code.Amount.Equal(decimal.NewFromInt(250)))
	})

	t.Run("unknown code", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		service := NewRequestCodeService(client)

		mock.ExpectGet("token:reqcode:00000000").RedisNil()

		_, err := service.Get(context.Background(), "00000000")
		assert.ErrorIs(t, err, ErrCodeNotFound)
	})

	t.Run("expired by clock even if still stored", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		service := NewRequestCodeService(client).WithClock(func() time.Time { return codeBase.Add(10 * time.Minute) })

		mock.ExpectGet("token:reqcode:12345678").SetVal(storedCode(t, "12345678"))

		_, err := service.Get(context.Background(), "12345678")
		assert.ErrorIs(t, err, ErrCodeNotFound)
	})
}

func TestRequestCodeService_Consume(t *testing.T) {
	t.Run("single use", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		service := NewRequestCodeService(client).WithClock(func() time.Time { return codeBase.Add(time.Minute) })

		mock.ExpectGet("token:reqcode:12345678").SetVal(storedCode(t, "12345678"))
		mock.ExpectDel("token:reqcode:12345678").SetVal(1)

		code, err := service.Consume(context.Background(), "12345678")
		assert.NoError(t, err)
		assert.Equal(t, "12345678", code.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRequestCodeService_QRImage(t *testing.T) {
	client, mock := redismock.NewClientMock()
	service := NewRequestCodeService(client).WithClock(func() time.Time { return codeBase.Add(time.Minute) })

	mock.ExpectGet("token:reqcode:12345678").SetVal(storedCode(t, "12345678"))

	image, err := service.QRImage(context.Background(), "12345678")
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, image[:4])
}
