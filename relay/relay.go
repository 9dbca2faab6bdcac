// Package relay is a bearer-token-polling HTTP client for the upstream
// full node's header/proof/transaction API, fetching the engine's own raw
// wire bytes instead of JSON.
package relay

import (
	"context"
	"encoding/binary"
	"fmt"
	"io/ioutil"
	"net/http"

	"github.com/bridgewatch/lightclient/errs"
)

// Client fetches raw header, finalization proof, transaction, and Merkle
// proof bytes from a single upstream full node.
type Client struct {
	BaseURL     string
	BearerToken string
	HTTP        *http.Client
}

// New constructs a Client against baseURL, using http.DefaultClient unless
// the caller sets Client.HTTP itself.
func New(baseURL, bearerToken string) *Client {
	return &Client{BaseURL: baseURL, BearerToken: bearerToken, HTTP: http.DefaultClient}
}

// FetchHeader returns the raw header bytes at height and the raw
// finalization proof bytes finalizing its predecessor.
func (c *Client) FetchHeader(ctx context.Context, height uint64) (headerBytes, proofBytes []byte, err error) {
	headerBytes, err = c.getBytes(ctx, fmt.Sprintf("%s/v1/header/%d", c.BaseURL, height))
	if err != nil {
		return nil, nil, err
	}
	proofBytes, err = c.getBytes(ctx, fmt.Sprintf("%s/v1/finalization-proof/%d", c.BaseURL, height))
	if err != nil {
		return nil, nil, err
	}
	return headerBytes, proofBytes, nil
}

// FetchTransaction returns the raw transaction, execution payload, and
// Merkle proof bytes for txIndex within the block at height.
func (c *Client) FetchTransaction(ctx context.Context, height uint64, txIndex int) (txBytes, payloadBytes, merkleProofBytes []byte, err error) {
	txBytes, err = c.getBytes(ctx, fmt.Sprintf("%s/v1/block/%d/tx/%d", c.BaseURL, height, txIndex))
	if err != nil {
		return nil, nil, nil, err
	}
	payloadBytes, err = c.getBytes(ctx, fmt.Sprintf("%s/v1/block/%d/tx/%d/payload", c.BaseURL, height, txIndex))
	if err != nil {
		return nil, nil, nil, err
	}
	merkleProofBytes, err = c.getBytes(ctx, fmt.Sprintf("%s/v1/block/%d/tx/%d/proof", c.BaseURL, height, txIndex))
	if err != nil {
		return nil, nil, nil, err
	}
	return txBytes, payloadBytes, merkleProofBytes, nil
}

// FetchChaintipHeight returns the upstream chain's current tip height, as
// an 8-byte little-endian body.
func (c *Client) FetchChaintipHeight(ctx context.Context) (uint64, error) {
	b, err := c.getBytes(ctx, fmt.Sprintf("%s/v1/chaintip", c.BaseURL))
	if err != nil {
		return 0, err
	}
	if len(b) != 8 {
		return 0, errs.RelayUnreachable{Endpoint: "chaintip", Reason: fmt.Errorf("got %d body bytes, want 8", len(b))}
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (c *Client) getBytes(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.RelayUnreachable{Endpoint: url, Reason: err}
	}
	req = req.WithContext(ctx)
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	res, err := httpClient.Do(req)
	if err != nil {
		return nil, errs.RelayUnreachable{Endpoint: url, Reason: err}
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, errs.RelayUnreachable{Endpoint: url, Reason: fmt.Errorf("status %d", res.StatusCode)}
	}

	body, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return nil, errs.RelayUnreachable{Endpoint: url, Reason: err}
	}
	return body, nil
}
