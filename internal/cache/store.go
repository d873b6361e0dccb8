package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"time"
)

// ErrMiss возвращается Store.Get, когда ключа нет или срок жизни истёк.
var ErrMiss = errors.New("cache miss")

// Store - кэш сырых JSON-ответов внешних API.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Key строит ключ из пути и параметров запроса. url.Values.Encode сортирует
// параметры по имени, поэтому порядок их добавления на ключ не влияет.
func Key(path string, query url.Values) string {
	sum := sha256.Sum256([]byte(path + "?" + query.Encode()))
	return "nasa_api:" + hex.EncodeToString(sum[:])
}
