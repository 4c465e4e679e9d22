package datasource

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/seenimoa/stockfusion/internal/infra"
	"github.com/seenimoa/stockfusion/internal/provider"
	"github.com/seenimoa/stockfusion/pkg/models"
)

// DefaultConstituentTTL bounds how long a board's member quotes are reused.
const DefaultConstituentTTL = 10 * time.Minute

// Directory caches the industry directory of a provider. The board list is
// kept for the lifetime of the process once fetched; constituent quotes
// expire after a TTL.
type Directory struct {
	src   provider.IndustryDirectory
	retry infra.RetryPolicy
	log   zerolog.Logger

	mu      sync.Mutex
	boards  []models.Industry
	members *infra.Cache[[]models.PeerQuote]
}

// NewDirectory wraps src. A zero ttl uses DefaultConstituentTTL.
func NewDirectory(src provider.IndustryDirectory, ttl time.Duration, retry infra.RetryPolicy, log zerolog.Logger) *Directory {
	if ttl <= 0 {
		ttl = DefaultConstituentTTL
	}
	return &Directory{
		src:     src,
		retry:   retry,
		log:     infra.Component(log, "directory"),
		members: infra.NewCache[[]models.PeerQuote](ttl),
	}
}

// Industries returns the board list, fetching it on first use.
func (d *Directory) Industries(ctx context.Context) ([]models.Industry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.boards != nil {
		return d.boards, nil
	}

	boards, err := infra.RetryValue(ctx, d.retry, guard(d.src.Industries))
	if err != nil {
		return nil, fmt.Errorf("industry directory: %w", err)
	}
	d.boards = boards
	d.log.Debug().Int("boards", len(boards)).Msg("directory cached")
	return boards, nil
}

// Constituents returns the member quotes of a board.
func (d *Directory) Constituents(ctx context.Context, boardCode string) ([]models.PeerQuote, error) {
	if peers, ok := d.members.Get(boardCode); ok {
		return peers, nil
	}
	peers, err := infra.RetryValue(ctx, d.retry, guard(func(ctx context.Context) ([]models.PeerQuote, error) {
		return d.src.Constituents(ctx, boardCode)
	}))
	if err != nil {
		return nil, fmt.Errorf("constituents %s: %w", boardCode, err)
	}
	d.members.Set(boardCode, peers)
	d.members.Cleanup()
	d.log.Debug().Str("board", boardCode).Int("peers", len(peers)).Int("cached_boards", d.members.Len()).Msg("constituents cached")
	return peers, nil
}

// ByName returns the board with the given name.
func (d *Directory) ByName(ctx context.Context, name string) (models.Industry, bool, error) {
	boards, err := d.Industries(ctx)
	if err != nil {
		return models.Industry{}, false, err
	}
	for _, b := range boards {
		if b.Name == name {
			return b, true, nil
		}
	}
	return models.Industry{}, false, nil
}

// Find scans every board for code and returns the first that lists it.
// Boards whose constituents cannot be fetched are skipped.
func (d *Directory) Find(ctx context.Context, code string) (models.Industry, []models.PeerQuote, bool, error) {
	boards, err := d.Industries(ctx)
	if err != nil {
		return models.Industry{}, nil, false, err
	}
	for _, b := range boards {
		peers, err := d.Constituents(ctx, b.Code)
		if err != nil {
			d.log.Debug().Err(err).Str("board", b.Code).Msg("skipping board")
			continue
		}
		for _, p := range peers {
			if p.Code == code {
				return b, peers, true, nil
			}
		}
	}
	return models.Industry{}, nil, false, nil
}
