// utils/otp.go
package utils

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"github.com/labdesk/labdesk_backend/models"
)

const (
	OTPLength      = 6
	OTPTTL         = 5 * time.Minute
	MaxOTPAttempts = 5
)

var (
	ErrOTPNotFound        = errors.New("OTP expired or not requested")
	ErrOTPInvalid         = errors.New("invalid OTP")
	ErrOTPTooManyAttempts = errors.New("too many OTP attempts")
)

// OTPStore keeps one pending code per phone and purpose
type OTPStore interface {
	// Save replaces any pending code and resets its attempt counter
	Save(ctx context.Context, phone, purpose, code string, ttl time.Duration) error
	// Verify consumes the code on success. Each call counts as an attempt.
	Verify(ctx context.Context, phone, purpose, code string) error
}

// GenerateNumericOTP returns a random code of OTPLength decimal digits
func GenerateNumericOTP() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < OTPLength; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", OTPLength, n.Int64()), nil
}

func hashOTP(code string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func checkOTP(hash, code string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)); err != nil {
		return ErrOTPInvalid
	}
	return nil
}

// RedisOTPStore keeps hashed codes in Redis keys that expire with the code
type RedisOTPStore struct {
	client *redis.Client
}

func NewRedisOTPStore(client *redis.Client) *RedisOTPStore {
	return &RedisOTPStore{client: client}
}

func otpKey(phone, purpose string) string {
	return "otp:" + purpose + ":" + phone
}

func otpAttemptsKey(phone, purpose string) string {
	return "otp_attempts:" + purpose + ":" + phone
}

func (s *RedisOTPStore) Save(ctx context.Context, phone, purpose, code string, ttl time.Duration) error {
	hash, err := hashOTP(code)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, otpKey(phone, purpose), hash, ttl)
	pipe.Del(ctx, otpAttemptsKey(phone, purpose))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisOTPStore) Verify(ctx context.Context, phone, purpose, code string) error {
	key := otpKey(phone, purpose)
	attemptsKey := otpAttemptsKey(phone, purpose)

	hash, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return ErrOTPNotFound
	}
	if err != nil {
		return err
	}

	attempts, err := s.client.Incr(ctx, attemptsKey).Result()
	if err != nil {
		return err
	}
	if attempts == 1 {
		if ttl, err := s.client.TTL(ctx, key).Result(); err == nil && ttl > 0 {
			s.client.Expire(ctx, attemptsKey, ttl)
		}
	}
	if attempts > MaxOTPAttempts {
		s.client.Del(ctx, key, attemptsKey)
		return ErrOTPTooManyAttempts
	}

	if err := checkOTP(hash, code); err != nil {
		return err
	}
	return s.client.Del(ctx, key, attemptsKey).Err()
}

// MongoOTPStore keeps hashed codes in a collection with a TTL index on expiresAt
type MongoOTPStore struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewMongoOTPStore(collection *mongo.Collection) *MongoOTPStore {
	return &MongoOTPStore{collection: collection, now: time.Now}
}

func (s *MongoOTPStore) Save(ctx context.Context, phone, purpose, code string, ttl time.Duration) error {
	hash, err := hashOTP(code)
	if err != nil {
		return err
	}
	_, err = s.collection.UpdateOne(ctx,
		bson.M{"phone": phone, "purpose": purpose},
		bson.M{"$set": models.PhoneOTP{
			Phone:     phone,
			Purpose:   purpose,
			CodeHash:  hash,
			Attempts:  0,
			ExpiresAt: s.now().Add(ttl),
		}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *MongoOTPStore) Verify(ctx context.Context, phone, purpose, code string) error {
	filter := bson.M{"phone": phone, "purpose": purpose}

	// the TTL monitor runs about once a minute, so expiry is checked here too
	var otp models.PhoneOTP
	err := s.collection.FindOneAndUpdate(ctx,
		bson.M{"phone": phone, "purpose": purpose, "expiresAt": bson.M{"$gt": s.now()}},
		bson.M{"$inc": bson.M{"attempts": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&otp)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrOTPNotFound
	}
	if err != nil {
		return err
	}

	if otp.Attempts > MaxOTPAttempts {
		s.collection.DeleteOne(ctx, filter)
		return ErrOTPTooManyAttempts
	}
	if err := checkOTP(otp.CodeHash, code); err != nil {
		return err
	}
	_, err = s.collection.DeleteOne(ctx, filter)
	return err
}
