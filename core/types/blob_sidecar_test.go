package types

import (
	"crypto/sha256"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto/kzg4844"
	"github.com/stretchr/testify/require"
)

func TestSidecarBlobHashes(t *testing.T) {
	sc := sidecarV0(2)
	hashes := sc.BlobHashes()
	require.Len(t, hashes, 2)

	// Versioned hash: sha256 of the commitment with the first byte replaced by
	// the version marker.
	for i := range hashes {
		expected := common.Hash(sha256.Sum256(sc.Commitments[i][:]))
		expected[0] = 0x01
		require.Equal(t, expected, hashes[i])
	}
	require.NoError(t, sc.ValidateBlobCommitmentHashes(hashes))
}

func TestSidecarValidateHashMismatch(t *testing.T) {
	sc := sidecarV0(1)
	bad := []common.Hash{{0xde, 0xad}}
	require.ErrorContains(t, sc.Validate(bad), "mismatches transaction one")
}

func TestSidecarValidateCardinality(t *testing.T) {
	// Commitment count disagreeing with the blob count.
	sc := sidecarV0(2)
	sc.Commitments = sc.Commitments[:1]
	require.ErrorContains(t, sc.Validate(sc.BlobHashes()), "blob commitments")

	// Hash count disagreeing with the commitment count.
	sc = sidecarV0(2)
	require.ErrorContains(t, sc.Validate(sc.BlobHashes()[:1]), "versioned hashes")

	// A v0 proof count on a v1 sidecar.
	sc = sidecarV1(1)
	sc.Proofs = sc.Proofs[:1]
	require.ErrorContains(t, sc.Validate(sc.BlobHashes()), "cell proofs")

	// A truncated v0 proof list.
	sc = sidecarV0(2)
	sc.Proofs = sc.Proofs[:1]
	require.ErrorContains(t, sc.Validate(sc.BlobHashes()), "blob proofs")
}

func TestSidecarValidateUnknownVersion(t *testing.T) {
	sc := sidecarV0(1)
	sc.Version = 7
	require.ErrorContains(t, sc.Validate(sc.BlobHashes()), "unsupported sidecar version")
}

func TestSidecarToV1Identity(t *testing.T) {
	sc := sidecarV1(1)
	converted, err := sc.ToV1()
	require.NoError(t, err)
	require.Same(t, sc, converted)
}

func TestSidecarProofsPerBlob(t *testing.T) {
	require.Equal(t, 1, sidecarV0(1).proofsPerBlob())
	require.Equal(t, kzg4844.CellProofsPerBlob, sidecarV1(1).proofsPerBlob())
}

func TestSidecarCopyIndependent(t *testing.T) {
	sc := sidecarV0(2)
	cpy := sc.Copy()
	require.Equal(t, sc, cpy)

	cpy.Blobs[0][0] = 0xff
	cpy.Commitments[0][0] = 0xff
	cpy.Proofs[0][0] = 0xff
	require.Zero(t, sc.Blobs[0][0])
	require.NotEqual(t, byte(0xff), sc.Commitments[0][0])
	require.NotEqual(t, byte(0xff), sc.Proofs[0][0])
}
