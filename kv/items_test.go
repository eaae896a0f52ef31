package kv_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vinizap/studydock/kv"
)

type record struct {
	ID        string    `json:"id"`
	Count     int       `json:"count"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type brokenStore struct {
	*kv.Memory
}

func (brokenStore) Set(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func TestItemsRoundTrip(t *testing.T) {
	cbor, err := kv.NewCBORCodec()
	require.NoError(t, err)

	for _, codec := range []kv.Codec{kv.JSONCodec{}, cbor} {
		t.Run(codec.Name(), func(t *testing.T) {
			items := kv.NewItems(kv.NewMemory(), codec, zerolog.Nop(), nil)
			ctx := context.Background()
			want := []record{
				{ID: "a", Count: 2, UpdatedAt: time.Date(2026, 3, 1, 9, 30, 0, 123000000, time.UTC)},
				{ID: "b"},
			}

			require.NoError(t, items.Save(ctx, "records", want))

			var got []record
			found, err := items.Load(ctx, "records", &got)
			require.NoError(t, err)
			require.True(t, found)
			require.Len(t, got, 2)
			assert.Equal(t, "a", got[0].ID)
			assert.Equal(t, 2, got[0].Count)
			assert.True(t, want[0].UpdatedAt.Equal(got[0].UpdatedAt))
		})
	}
}

func TestItemsLoadMissingKey(t *testing.T) {
	items := kv.NewItems(kv.NewMemory(), nil, zerolog.Nop(), nil)

	var got []record
	found, err := items.Load(context.Background(), "nothing", &got)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)
}

func TestItemsLoadUndecodable(t *testing.T) {
	mem := kv.NewMemory()
	require.NoError(t, mem.Set(context.Background(), "records", []byte("{not json")))
	items := kv.NewItems(mem, kv.JSONCodec{}, zerolog.Nop(), nil)

	var got []record
	found, err := items.Load(context.Background(), "records", &got)
	assert.Error(t, err)
	assert.False(t, found)
}

func TestItemsCountsFailures(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := kv.NewMetrics(reg)
	items := kv.NewItems(brokenStore{kv.NewMemory()}, kv.JSONCodec{}, zerolog.Nop(), metrics)

	err := items.Save(context.Background(), "records", []record{{ID: "a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Failures("save", "records")))
}

func TestCodecByName(t *testing.T) {
	c, err := kv.CodecByName("")
	require.NoError(t, err)
	assert.Equal(t, "json", c.Name())

	c, err = kv.CodecByName("CBOR")
	require.NoError(t, err)
	assert.Equal(t, "cbor", c.Name())

	_, err = kv.CodecByName("xml")
	assert.Error(t, err)
}
