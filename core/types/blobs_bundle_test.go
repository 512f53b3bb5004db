package types

import (
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/crypto/kzg4844"
	"github.com/stretchr/testify/require"
)

func TestBlobsBundleAddAndPop(t *testing.T) {
	bundle := NewBlobsBundle(BlobSidecarVersion0)
	require.NoError(t, bundle.Add(sidecarV0(2)))
	require.NoError(t, bundle.Add(sidecarV0(3)))
	require.Equal(t, 5, bundle.BlobCount())
	require.Len(t, bundle.Proofs, 5)

	// Drain in transaction order.
	sc := bundle.Pop(2)
	require.Equal(t, BlobSidecarVersion0, sc.Version)
	require.Len(t, sc.Blobs, 2)
	require.Len(t, sc.Commitments, 2)
	require.Len(t, sc.Proofs, 2)
	require.Equal(t, 3, bundle.BlobCount())

	sc = bundle.Pop(3)
	require.Len(t, sc.Blobs, 3)
	require.Equal(t, 0, bundle.BlobCount())

	// An empty pop on an empty bundle is fine.
	sc = bundle.Pop(0)
	require.Len(t, sc.Blobs, 0)
}

func TestBlobsBundleCellProofArithmetic(t *testing.T) {
	bundle := NewBlobsBundle(BlobSidecarVersion1)
	require.NoError(t, bundle.Add(sidecarV1(2)))
	require.Len(t, bundle.Proofs, 2*kzg4844.CellProofsPerBlob)

	sc := bundle.Pop(1)
	require.Equal(t, BlobSidecarVersion1, sc.Version)
	require.Len(t, sc.Blobs, 1)
	require.Len(t, sc.Proofs, kzg4844.CellProofsPerBlob)
	require.Len(t, bundle.Proofs, kzg4844.CellProofsPerBlob)
}

func TestBlobsBundleVersionMismatch(t *testing.T) {
	bundle := NewBlobsBundle(BlobSidecarVersion0)
	require.ErrorContains(t, bundle.Add(sidecarV1(1)), "cannot join")
	require.Equal(t, 0, bundle.BlobCount())
}

func TestBlobsBundlePopOverflow(t *testing.T) {
	bundle := NewBlobsBundle(BlobSidecarVersion0)
	require.NoError(t, bundle.Add(sidecarV0(1)))
	require.Panics(t, func() { bundle.Pop(2) })
}

func TestBlobsBundleToSidecar(t *testing.T) {
	bundle := NewBlobsBundle(BlobSidecarVersion1)
	require.NoError(t, bundle.Add(sidecarV1(2)))

	sc, err := bundle.ToSidecar()
	require.NoError(t, err)
	require.Equal(t, BlobSidecarVersion1, sc.Version)
	require.Len(t, sc.Blobs, 2)
	require.Len(t, sc.Proofs, 2*kzg4844.CellProofsPerBlob)
}

func TestBlobsBundleToSidecarCardinality(t *testing.T) {
	bundle := NewBlobsBundle(BlobSidecarVersion0)
	require.NoError(t, bundle.Add(sidecarV0(2)))
	bundle.Proofs = bundle.Proofs[:1]

	_, err := bundle.ToSidecar()
	require.ErrorContains(t, err, "invalid number of 1 proofs")

	// The failed conversion leaves the bundle usable.
	require.Equal(t, 2, bundle.BlobCount())
	require.NoError(t, bundle.Add(sidecarV0(1)))
	require.Equal(t, 3, bundle.BlobCount())
}

func TestBlobsBundleJSONRoundTrip(t *testing.T) {
	bundle := NewBlobsBundle(BlobSidecarVersion1)
	require.NoError(t, bundle.Add(sidecarV1(1)))

	enc, err := json.Marshal(bundle)
	require.NoError(t, err)

	var parsed BlobsBundle
	require.NoError(t, json.Unmarshal(enc, &parsed))
	require.Equal(t, bundle.Version, parsed.Version)
	require.Equal(t, bundle.Blobs, parsed.Blobs)
	require.Equal(t, bundle.Commitments, parsed.Commitments)
	require.Equal(t, bundle.Proofs, parsed.Proofs)
}

func TestBlobsBundleJSONCardinality(t *testing.T) {
	bundle := NewBlobsBundle(BlobSidecarVersion1)
	require.NoError(t, bundle.Add(sidecarV1(1)))
	bundle.Proofs = bundle.Proofs[:5]

	enc, err := json.Marshal(bundle)
	require.NoError(t, err)

	var parsed BlobsBundle
	require.ErrorContains(t, json.Unmarshal(enc, &parsed), "invalid number of 5 proofs")
}
