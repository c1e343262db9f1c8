package cache

import (
	"encoding/json"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Cache holds the result of FetchMethod for TTL, optionally with a JSON rendering.
type Cache[T any] struct {
	Data            T
	Marshalled      string
	LastFetched     time.Time
	TTL             time.Duration
	FetchMethod     func() (T, error)
	EnableMarshal   bool
	mutex           sync.Mutex
	marshalledMutex sync.RWMutex
	now             func() time.Time
}

func CreateCache[T any](ttl time.Duration, enabledMarshal bool, fetchMethod func() (T, error)) *Cache[T] {
	return &Cache[T]{
		TTL:           ttl,
		FetchMethod:   fetchMethod,
		EnableMarshal: enabledMarshal,
		now:           time.Now,
	}
}

// Get returns the cached data, fetching first when it expired or force is set. On a
// failed fetch the previous data is returned with the error.
func (c *Cache[T]) Get(force bool) (T, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if !force && !c.LastFetched.IsZero() && c.now().Before(c.LastFetched.Add(c.TTL)) {
		return c.Data, nil
	}
	log.Debugf("Cache expired, fetching new data")
	data, err := c.FetchMethod()
	if err != nil {
		return c.Data, err
	}
	c.Data = data
	c.LastFetched = c.now()
	if c.EnableMarshal {
		s, err := json.Marshal(c.Data)
		if err != nil {
			return c.Data, err
		}
		c.marshalledMutex.Lock()
		c.Marshalled = string(s)
		c.marshalledMutex.Unlock()
	}
	return c.Data, nil
}

// GetMarshalled refreshes if needed and returns the JSON rendering.
func (c *Cache[T]) GetMarshalled() (string, error) {
	if _, err := c.Get(false); err != nil {
		return "", err
	}
	c.marshalledMutex.RLock()
	defer c.marshalledMutex.RUnlock()
	return c.Marshalled, nil
}
