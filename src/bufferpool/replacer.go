package bufferpool

import "github.com/go-faster/errors"

type Policy string

const (
	PolicyFIFO Policy = "fifo"
	PolicyLRU  Policy = "lru"
)

var ErrUnknownPolicy = errors.New("unknown replacement policy")

func NewReplacer(policy Policy) (Replacer, error) {
	switch policy {
	case PolicyFIFO:
		return NewFIFOReplacer(), nil
	case PolicyLRU:
		return NewLRUReplacer(), nil
	default:
		return nil, errors.Wrapf(ErrUnknownPolicy, "%q", policy)
	}
}
