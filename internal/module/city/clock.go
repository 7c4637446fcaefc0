package city

import (
	"context"
	"errors"
	"time"
)

// Clock resolves the local time for an order's city. The transition
// dispatcher resolves it once per transition and threads the result
// through every history write, so a single transition never carries two
// slightly different timestamps.
type Clock interface {
	Localtime(ctx context.Context, cityID *int64) (time.Time, error)
}

type cityClock struct {
	repo Repository
	now  func() time.Time
}

// NewClock creates a Clock backed by the city repository.
func NewClock(repo Repository) Clock {
	return &cityClock{repo: repo, now: time.Now}
}

func (c *cityClock) Localtime(ctx context.Context, cityID *int64) (time.Time, error) {
	now := c.now()
	if cityID == nil {
		return now, nil
	}

	ct, err := c.repo.GetCity(ctx, *cityID)
	if err != nil {
		if errors.Is(err, ErrCityNotFound) {
			return now, nil
		}
		return time.Time{}, err
	}
	return ct.Localtime(now), nil
}
