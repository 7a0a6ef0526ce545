// Package idcodec translates raw board ids to the short opaque strings used in URLs
package idcodec

import (
	"math"

	"github.com/pkg/errors"
	"github.com/speps/go-hashids/v2"
)

// ErrInvalidID is returned when a public id does not decode to exactly one board id
var ErrInvalidID = errors.New("invalid board id")

// Codec is a reversible id encoder backed by hashids
type Codec struct {
	h *hashids.HashID
}

// New creates a codec. The same salt must be used for encoding and decoding.
func New(salt string, minLength int) (*Codec, error) {
	if salt == "" {
		return nil, errors.New("[idcodec.New] salt must not be empty")
	}

	data := hashids.NewData()
	data.Salt = salt
	data.MinLength = minLength

	h, err := hashids.NewWithData(data)
	if err != nil {
		return nil, errors.Wrap(err, "[idcodec.New] failed to create hashids")
	}
	return &Codec{h: h}, nil
}

// Encode returns the public id for a raw board id
func (c *Codec) Encode(id uint64) (string, error) {
	if id > math.MaxInt64 {
		return "", errors.Wrapf(ErrInvalidID, "[Encode] %d overflows int64", id)
	}
	s, err := c.h.EncodeInt64([]int64{int64(id)})
	if err != nil {
		return "", errors.Wrapf(err, "[Encode] failed to encode %d", id)
	}
	return s, nil
}

// Decode returns the raw board id behind a public id
func (c *Codec) Decode(public string) (uint64, error) {
	if public == "" {
		return 0, errors.Wrap(ErrInvalidID, "[Decode] empty id")
	}

	values, err := c.h.DecodeInt64WithError(public)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidID, "[Decode] %q: %v", public, err)
	}
	if len(values) != 1 || values[0] < 0 {
		return 0, errors.Wrapf(ErrInvalidID, "[Decode] %q", public)
	}
	return uint64(values[0]), nil
}
