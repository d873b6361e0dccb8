package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"skystream/internal/cache"
	"skystream/internal/logging"

	"github.com/cenkalti/backoff/v5"
)

const (
	DemoAPIKey = "DEMO_KEY"

	apodPath          = "/planetary/apod"
	neoFeedPath       = "/neo/rest/v1/feed"
	roverPhotosPath   = "/mars-photos/api/v1/rovers/%s/photos"
	roverManifestPath = "/mars-photos/api/v1/manifests/%s"

	PastAPODTTL    = 30 * 24 * time.Hour
	NEOFeedTTL     = 60 * time.Minute
	RoverPhotosTTL = 24 * time.Hour
	ManifestTTL    = 30 * time.Minute

	dateLayout = "2006-01-02"
)

type NASAClient interface {
	// Fetch возвращает JSON-ответ по path и query: из кэша, если запись свежая,
	// иначе из API с сохранением в кэш на ttl.
	Fetch(ctx context.Context, path string, query url.Values, ttl time.Duration) (json.RawMessage, error)
	FetchAPOD(ctx context.Context, date string) (*APODResponse, error)
	FetchNEOFeed(ctx context.Context, startDate, endDate string) (*NEOFeedResponse, error)
	FetchRoverPhotos(ctx context.Context, rover string, sol, page int) (*RoverPhotosResponse, error)
	FetchRoverManifest(ctx context.Context, rover string) (*RoverManifestResponse, error)
}

type NASAConfig struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	Retries    int
	RetryDelay time.Duration
}

type nasaClient struct {
	apiKey     string
	baseURL    string
	retries    int
	retryDelay time.Duration
	store      cache.Store
	client     *http.Client
	now        func() time.Time
}

func NewNASAClient(config NASAConfig, store cache.Store) NASAClient {
	return newNASAClient(config, store, func() time.Time { return time.Now().UTC() })
}

func newNASAClient(config NASAConfig, store cache.Store, now func() time.Time) *nasaClient {
	if config.APIKey == "" {
		config.APIKey = DemoAPIKey
	}
	if config.APIKey == DemoAPIKey {
		logging.Warn().Msg("NASA client is using DEMO_KEY, rate limits will be very low")
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://api.nasa.gov"
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	if config.Retries < 1 {
		config.Retries = 1
	}

	return &nasaClient{
		apiKey:     config.APIKey,
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		retries:    config.Retries,
		retryDelay: config.RetryDelay,
		store:      store,
		now:        now,
		client: &http.Client{
			Timeout: config.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 30 * time.Second,
			},
		},
	}
}

func (c *nasaClient) Fetch(ctx context.Context, path string, query url.Values, ttl time.Duration) (json.RawMessage, error) {
	params := url.Values{}
	for k, v := range query {
		params[k] = append([]string(nil), v...)
	}
	params.Set("api_key", c.apiKey)

	key := cache.Key(path, params)

	cached, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		logging.Debug().Str("path", path).Msg("NASA response served from cache")
		return json.RawMessage(cached), nil
	case !errors.Is(err, cache.ErrMiss):
		// кэш недоступен - идём в API напрямую
		logging.Warn().Err(err).Str("path", path).Msg("Cache read failed")
	}

	var attempt int
	payload, err := backoff.Retry(ctx, func() (json.RawMessage, error) {
		attempt++
		body, err := c.get(ctx, path, params)
		if err == nil {
			return body, nil
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Transient() {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(c.retryDelay)),
		backoff.WithMaxTries(uint(c.retries)),
		backoff.WithNotify(func(err error, next time.Duration) {
			logging.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", next).Msg("NASA request failed, retrying")
		}),
	)
	if err != nil {
		logging.Error().Err(err).Str("path", path).Int("attempts", attempt).Msg("NASA request failed")
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return nil, apiErr
		}
		// отмена контекста во время паузы между попытками
		return nil, &APIError{Path: path, Message: err.Error()}
	}

	if err := c.store.Set(ctx, key, payload, ttl); err != nil {
		logging.Warn().Err(err).Str("path", path).Msg("Cache write failed")
	}

	return payload, nil
}

// get выполняет один GET-запрос. Любая ошибка возвращается как *APIError.
func (c *nasaClient) get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	reqURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &APIError{Path: path, Message: fmt.Sprintf("create request: %v", err)}
	}

	req.Header.Set("User-Agent", "SkyStream/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// url.Error содержит полный URL вместе с api_key
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, &APIError{Path: path, Message: fmt.Sprintf("execute request: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, &APIError{Path: path, Message: fmt.Sprintf("read body: %v", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Path:       path,
			Message:    http.StatusText(resp.StatusCode),
		}
	}

	if !json.Valid(body) {
		return nil, &APIError{Path: path, Message: "decode JSON: invalid payload"}
	}

	return json.RawMessage(body), nil
}

func (c *nasaClient) FetchAPOD(ctx context.Context, date string) (*APODResponse, error) {
	query := url.Values{}
	if date != "" {
		query.Set("date", date)
	}

	var resp APODResponse
	if err := c.fetchInto(ctx, apodPath, query, c.apodTTL(date), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// apodTTL - сегодняшняя картинка ещё может смениться, поэтому живёт до конца
// суток UTC. Прошлые даты неизменны.
func (c *nasaClient) apodTTL(date string) time.Duration {
	now := c.now().UTC()
	today := now.Format(dateLayout)
	if date != "" && date < today {
		return PastAPODTTL
	}

	endOfDay := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	return endOfDay.Sub(now)
}

func (c *nasaClient) FetchNEOFeed(ctx context.Context, startDate, endDate string) (*NEOFeedResponse, error) {
	if endDate == "" {
		endDate = startDate
	}

	query := url.Values{}
	query.Set("start_date", startDate)
	query.Set("end_date", endDate)

	var resp NEOFeedResponse
	if err := c.fetchInto(ctx, neoFeedPath, query, NEOFeedTTL, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *nasaClient) FetchRoverPhotos(ctx context.Context, rover string, sol, page int) (*RoverPhotosResponse, error) {
	if page < 1 {
		page = 1
	}

	query := url.Values{}
	query.Set("sol", strconv.Itoa(sol))
	query.Set("page", strconv.Itoa(page))

	var resp RoverPhotosResponse
	path := fmt.Sprintf(roverPhotosPath, url.PathEscape(strings.ToLower(rover)))
	if err := c.fetchInto(ctx, path, query, RoverPhotosTTL, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *nasaClient) FetchRoverManifest(ctx context.Context, rover string) (*RoverManifestResponse, error) {
	var resp RoverManifestResponse
	path := fmt.Sprintf(roverManifestPath, url.PathEscape(strings.ToLower(rover)))
	if err := c.fetchInto(ctx, path, nil, ManifestTTL, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *nasaClient) fetchInto(ctx context.Context, path string, query url.Values, ttl time.Duration, dst any) error {
	payload, err := c.Fetch(ctx, path, query, ttl)
	if err != nil {
		return err
	}

	// валидный JSON другой формы (например, массив вместо объекта)
	if err := json.Unmarshal(payload, dst); err != nil {
		return &APIError{Path: path, Message: fmt.Sprintf("unexpected response shape: %v", err)}
	}
	return nil
}
