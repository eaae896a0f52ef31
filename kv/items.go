package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Items is the typed persistence wrapper the stores use: values are
// encoded with the configured codec and every call is counted.
type Items struct {
	store   Store
	codec   Codec
	log     zerolog.Logger
	metrics *Metrics
}

func NewItems(store Store, codec Codec, log zerolog.Logger, metrics *Metrics) *Items {
	if codec == nil {
		codec = JSONCodec{}
	}
	return &Items{
		store:   store,
		codec:   codec,
		log:     log.With().Str("component", "kv").Str("codec", codec.Name()).Logger(),
		metrics: metrics,
	}
}

// Load decodes the value under key into v. It reports found=false with a
// nil error when the key is absent.
func (i *Items) Load(ctx context.Context, key string, v any) (bool, error) {
	data, err := i.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		i.metrics.observe("load", key, nil)
		return false, nil
	}
	if err == nil {
		if uerr := i.codec.Unmarshal(data, v); uerr != nil {
			err = fmt.Errorf("decode %s: %w", key, uerr)
		}
	} else {
		err = fmt.Errorf("get %s: %w", key, err)
	}
	i.metrics.observe("load", key, err)
	if err != nil {
		return false, err
	}
	i.log.Debug().Str("key", key).Int("bytes", len(data)).Msg("loaded")
	return true, nil
}

// Save encodes v and stores it under key.
func (i *Items) Save(ctx context.Context, key string, v any) error {
	data, err := i.codec.Marshal(v)
	if err != nil {
		err = fmt.Errorf("encode %s: %w", key, err)
	} else if serr := i.store.Set(ctx, key, data); serr != nil {
		err = fmt.Errorf("set %s: %w", key, serr)
	}
	i.metrics.observe("save", key, err)
	if err != nil {
		return err
	}
	i.log.Debug().Str("key", key).Int("bytes", len(data)).Msg("saved")
	return nil
}

func (i *Items) Ready(ctx context.Context) bool {
	return i.store.Ready(ctx)
}
