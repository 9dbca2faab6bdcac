package relay

import (
	"context"
	"encoding/binary"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bridgewatch/lightclient/errs"
)

func TestFetchHeader(t *testing.T) {
	wantHeader := []byte("raw header bytes")
	wantProof := []byte("raw proof bytes")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/v1/header/5":
			w.Write(wantHeader)
		case "/v1/finalization-proof/5":
			w.Write(wantProof)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "test-token")
	headerBytes, proofBytes, err := c.FetchHeader(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, wantHeader, headerBytes)
	require.Equal(t, wantProof, proofBytes)
}

func TestFetchTransaction(t *testing.T) {
	wantTx := []byte("tx bytes")
	wantPayload := []byte("payload bytes")
	wantProof := []byte("merkle proof bytes")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/block/5/tx/2":
			w.Write(wantTx)
		case "/v1/block/5/tx/2/payload":
			w.Write(wantPayload)
		case "/v1/block/5/tx/2/proof":
			w.Write(wantProof)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	txBytes, payloadBytes, proofBytes, err := c.FetchTransaction(context.Background(), 5, 2)
	require.NoError(t, err)
	require.Equal(t, wantTx, txBytes)
	require.Equal(t, wantPayload, payloadBytes)
	require.Equal(t, wantProof, proofBytes)
}

func TestFetchChaintipHeight(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], 42)
		w.Write(buf[:])
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	height, err := c.FetchChaintipHeight(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(42), height)
}

func TestFetchChaintipHeightRejectsWrongBodyLength(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not eight bytes"))
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	_, err := c.FetchChaintipHeight(context.Background())
	require.Error(t, err)
}

func TestGetBytesWrapsNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	_, _, err := c.FetchHeader(context.Background(), 1)
	require.Error(t, err)
	require.IsType(t, errs.RelayUnreachable{}, err)
}

func TestGetBytesWrapsUnreachableHost(t *testing.T) {
	c := New(fmt.Sprintf("http://127.0.0.1:%d", 1), "")
	_, err := c.getBytes(context.Background(), c.BaseURL+"/v1/chaintip")
	require.Error(t, err)
	require.IsType(t, errs.RelayUnreachable{}, err)
}
