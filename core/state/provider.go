package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/eth2030/evmsim/core/types"
)

// DefaultProviderTimeout bounds a single remote storage request.
const DefaultProviderTimeout = 10 * time.Second

// StorageProvider answers storage reads for accounts that are not present
// locally.
type StorageProvider interface {
	StorageAt(ctx context.Context, addr types.Address, slot types.Word) (types.Word, error)
}

// ProviderFunc adapts a plain function to StorageProvider.
type ProviderFunc func(ctx context.Context, addr types.Address, slot types.Word) (types.Word, error)

// StorageAt calls f.
func (f ProviderFunc) StorageAt(ctx context.Context, addr types.Address, slot types.Word) (types.Word, error) {
	return f(ctx, addr, slot)
}

// RPCProvider reads storage from a JSON-RPC node via eth_getStorageAt at the
// latest block.
type RPCProvider struct {
	client  *ethclient.Client
	timeout time.Duration
}

// DialProvider connects to the node at url. A non-positive timeout selects
// DefaultProviderTimeout.
func DialProvider(ctx context.Context, url string, timeout time.Duration) (*RPCProvider, error) {
	if url == "" {
		return nil, errors.New("state: empty provider url")
	}
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("state: dial provider %s: %w", url, err)
	}
	return NewRPCProvider(client, timeout), nil
}

// NewRPCProvider wraps an existing client.
func NewRPCProvider(client *ethclient.Client, timeout time.Duration) *RPCProvider {
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	return &RPCProvider{client: client, timeout: timeout}
}

// StorageAt implements StorageProvider.
func (p *RPCProvider) StorageAt(ctx context.Context, addr types.Address, slot types.Word) (types.Word, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	raw, err := p.client.StorageAt(ctx, common.Address(addr), common.Hash(slot), nil)
	if err != nil {
		return types.Word{}, fmt.Errorf("eth_getStorageAt %s %s: %w", addr.Hex(), slot.Hex(), err)
	}
	return types.BytesToWord(raw), nil
}

// Close releases the underlying connection.
func (p *RPCProvider) Close() {
	p.client.Close()
}
