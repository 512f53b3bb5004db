package types

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto/kzg4844"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/evmkit/txtypes/params"
)

// emptyBlob materials for sidecar plumbing tests. The KZG proofs are not
// verified at the encoding level, so placeholder values suffice.
var (
	emptyBlob       = kzg4844.Blob{}
	emptyCommitment = kzg4844.Commitment{0xc0}
	emptyProof      = kzg4844.Proof{0x01}
)

func sidecarV0(n int) *BlobTxSidecar {
	sc := &BlobTxSidecar{Version: BlobSidecarVersion0}
	for i := 0; i < n; i++ {
		sc.Blobs = append(sc.Blobs, emptyBlob)
		sc.Commitments = append(sc.Commitments, emptyCommitment)
		sc.Proofs = append(sc.Proofs, emptyProof)
	}
	return sc
}

func sidecarV1(n int) *BlobTxSidecar {
	sc := &BlobTxSidecar{Version: BlobSidecarVersion1}
	for i := 0; i < n; i++ {
		sc.Blobs = append(sc.Blobs, emptyBlob)
		sc.Commitments = append(sc.Commitments, emptyCommitment)
		for j := 0; j < kzg4844.CellProofsPerBlob; j++ {
			sc.Proofs = append(sc.Proofs, emptyProof)
		}
	}
	return sc
}

func blobTx(chainID uint64, sidecar *BlobTxSidecar) *Transaction {
	blobHashes := []common.Hash{}
	if sidecar != nil {
		blobHashes = sidecar.BlobHashes()
	}
	return NewTx(&BlobTx{
		ChainID:    uint256.NewInt(chainID),
		Nonce:      5,
		GasTipCap:  uint256.NewInt(22),
		GasFeeCap:  uint256.NewInt(5),
		Gas:        25000,
		To:         common.HexToAddress("0x03"),
		Value:      uint256.NewInt(99),
		Data:       []byte{0x04, 0x05},
		BlobFeeCap: uint256.NewInt(15),
		BlobHashes: blobHashes,
		Sidecar:    sidecar,
		V:          uint256.NewInt(1),
		R:          uint256.NewInt(10),
		S:          uint256.NewInt(11),
	})
}

// A signed mainnet-shaped blob transaction (chain id 1, nonce 15435, two
// versioned hashes) pinned down to its exact canonical bytes, transaction
// hash and signing hash, computed independently of this package.
var (
	pinnedBlobTxRaw         = hexutil.MustDecode("0x03f8b601823c4b843b9aca008506fc23ac0082520894ff000000000000000000000000000000000084538080c084b2d05e00f842a001a3fcde22a5e1a1b59e36b0a10ab10bf04ae8e18cb4fe2f1ab36b6ce4f1e352a001b98c64fe356b3127c617bc1ab83a20de5268b2e4a7280ad3a06b18b4e2a76280a05d1ba26431d7d805cafb69a990a9fef2abf7ff3ced5bd16c46096b10c9a5e172a01cf5af15f72ebf5f1f9d6b23dd2b0f54b1a1b2a78d9b2a1cf0e4a7cbcd865b21")
	pinnedBlobTxHash        = common.HexToHash("0x2fe25f7732777628db897bc65887f7aa1876568998e82a973a8081c392b061c0")
	pinnedBlobTxSigningHash = common.HexToHash("0x3ec63246902a857a139f0fa3b12f5ed235493c18a7dc4d76a58e949ad311deea")
)

func TestDecodePinnedBlobTransaction(t *testing.T) {
	var tx Transaction
	require.NoError(t, tx.UnmarshalBinary(pinnedBlobTxRaw))

	require.Equal(t, uint8(BlobTxType), tx.Type())
	require.Equal(t, big.NewInt(1), tx.ChainId())
	require.Equal(t, uint64(15435), tx.Nonce())
	require.Equal(t, big.NewInt(1_000_000_000), tx.GasTipCap())
	require.Equal(t, big.NewInt(30_000_000_000), tx.GasFeeCap())
	require.Equal(t, uint64(21000), tx.Gas())
	require.Equal(t, common.HexToAddress("0xff00000000000000000000000000000000008453"), *tx.To())
	require.Equal(t, big.NewInt(3_000_000_000), tx.BlobGasFeeCap())
	require.Equal(t, []common.Hash{
		common.HexToHash("0x01a3fcde22a5e1a1b59e36b0a10ab10bf04ae8e18cb4fe2f1ab36b6ce4f1e352"),
		common.HexToHash("0x01b98c64fe356b3127c617bc1ab83a20de5268b2e4a7280ad3a06b18b4e2a762"),
	}, tx.BlobHashes())
	require.Equal(t, uint64(2*params.BlobTxBlobGasPerBlob), tx.BlobGas())
	require.Nil(t, tx.BlobTxSidecar())

	require.Equal(t, pinnedBlobTxHash, tx.Hash())
	require.Equal(t, pinnedBlobTxSigningHash, tx.SigningHash(big.NewInt(1)))

	// Re-encoding reproduces the input byte for byte, and decoding the
	// re-encoded bytes reproduces an identical value.
	enc, err := tx.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, pinnedBlobTxRaw, enc)

	var again Transaction
	require.NoError(t, again.UnmarshalBinary(enc))
	require.Equal(t, tx.Hash(), again.Hash())
	require.Equal(t, tx.BlobHashes(), again.BlobHashes())
	v1, r1, s1 := tx.RawSignatureValues()
	v2, r2, s2 := again.RawSignatureValues()
	require.Equal(t, v1, v2)
	require.Equal(t, r1, r2)
	require.Equal(t, s1, s2)
}

// The signing hash is computed with the chain id the caller supplies, not
// with whatever chain id the record happens to carry.
func TestSigningHashUsesGivenChainID(t *testing.T) {
	chain1 := blobTx(1, nil)
	chain2 := blobTx(2, nil)
	require.NotEqual(t, chain1.SigningHash(big.NewInt(1)), chain1.SigningHash(big.NewInt(2)))
	require.Equal(t, chain1.SigningHash(big.NewInt(2)), chain2.SigningHash(big.NewInt(2)))

	dyn1 := sampleTransactions()[2]
	require.NotEqual(t, dyn1.SigningHash(big.NewInt(1)), dyn1.SigningHash(big.NewInt(2)))
}

func TestBlobTxCanonicalRoundTrip(t *testing.T) {
	tx := blobTx(1, nil)
	enc, err := tx.MarshalBinary()
	require.NoError(t, err)

	var parsed Transaction
	require.NoError(t, parsed.UnmarshalBinary(enc))
	require.Equal(t, tx.Hash(), parsed.Hash())
	require.Nil(t, parsed.BlobTxSidecar())

	reenc, err := parsed.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, enc, reenc)
}

func TestBlobTxWithSidecarRoundTrip(t *testing.T) {
	for _, sc := range []*BlobTxSidecar{sidecarV0(2), sidecarV1(2)} {
		tx := blobTx(1, sc)
		enc, err := tx.MarshalBinary()
		require.NoError(t, err)

		var parsed Transaction
		require.NoError(t, parsed.UnmarshalBinary(enc))
		require.Equal(t, tx.Hash(), parsed.Hash())

		got := parsed.BlobTxSidecar()
		require.NotNil(t, got)
		require.Equal(t, sc.Version, got.Version)
		require.Equal(t, sc.Blobs, got.Blobs)
		require.Equal(t, sc.Commitments, got.Commitments)
		require.Equal(t, sc.Proofs, got.Proofs)

		reenc, err := parsed.MarshalBinary()
		require.NoError(t, err)
		require.Equal(t, enc, reenc)
	}
}

// The canonical and network encodings must stay distinguishable for any chain
// id value, since the decoder peeks at the first list element to tell them
// apart.
func TestBlobTxEncodingDisambiguation(t *testing.T) {
	for _, chainID := range []uint64{0, 1, 0x7f, 0x80, 0xffff, 1 << 40} {
		plain := blobTx(chainID, nil)
		enc, err := plain.MarshalBinary()
		require.NoError(t, err)
		var parsedPlain Transaction
		require.NoError(t, parsedPlain.UnmarshalBinary(enc))
		require.Nil(t, parsedPlain.BlobTxSidecar())
		require.Equal(t, new(big.Int).SetUint64(chainID), parsedPlain.ChainId())

		wrapped := blobTx(chainID, sidecarV0(1))
		enc, err = wrapped.MarshalBinary()
		require.NoError(t, err)
		var parsedWrapped Transaction
		require.NoError(t, parsedWrapped.UnmarshalBinary(enc))
		require.NotNil(t, parsedWrapped.BlobTxSidecar())
		require.Equal(t, new(big.Int).SetUint64(chainID), parsedWrapped.ChainId())
	}
}

func TestBlobTxHashInvariantUnderSidecar(t *testing.T) {
	sc := sidecarV0(1)
	with := blobTx(1, sc)
	without := with.WithoutBlobTxSidecar()

	require.Nil(t, without.BlobTxSidecar())
	require.Equal(t, with.Hash(), without.Hash())
	require.Equal(t, with.SigningHash(big.NewInt(1)), without.SigningHash(big.NewInt(1)))

	// Attaching a different sidecar version changes neither hash.
	reattached := without.WithBlobTxSidecar(sidecarV1(1))
	require.Equal(t, with.Hash(), reattached.Hash())
	require.Equal(t, with.SigningHash(big.NewInt(1)), reattached.SigningHash(big.NewInt(1)))

	// The canonical encodings agree as well.
	encWithout, err := without.MarshalBinary()
	require.NoError(t, err)
	encStripped, err := reattached.WithoutBlobTxSidecar().MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, encWithout, encStripped)
}

func TestBlobTxSizeIncludesSidecar(t *testing.T) {
	sc := sidecarV0(2)
	with := blobTx(1, sc)
	without := with.WithoutBlobTxSidecar()

	require.Equal(t, without.Size()+rlp.ListSize(sc.encodedSize()), with.Size())
}

func TestBlobTxPooled(t *testing.T) {
	sc := sidecarV0(1)

	// A blob transaction without its sidecar cannot enter the pool.
	plain := blobTx(1, sc).WithoutBlobTxSidecar()
	_, err := plain.Pooled()
	require.ErrorIs(t, err, ErrMissingSidecar)

	// Attaching the sidecar makes it poolable.
	pooled, err := plain.PooledWithSidecar(sc)
	require.NoError(t, err)
	require.NotNil(t, pooled.BlobTxSidecar())
	require.Equal(t, plain.Hash(), pooled.Hash())

	// Non-blob transactions pass through unchanged.
	legacy := sampleTransactions()[0]
	pooled, err = legacy.Pooled()
	require.NoError(t, err)
	require.Same(t, legacy, pooled)
}

func TestMapBlobTxSidecar(t *testing.T) {
	tx := blobTx(1, sidecarV0(1))

	mapped, err := tx.MapBlobTxSidecar(func(sc *BlobTxSidecar) (*BlobTxSidecar, error) {
		require.Equal(t, BlobSidecarVersion0, sc.Version)
		return sidecarV1(1), nil
	})
	require.NoError(t, err)
	require.Equal(t, BlobSidecarVersion1, mapped.BlobTxSidecar().Version)
	require.Equal(t, tx.Hash(), mapped.Hash())

	// Blob transactions without a sidecar pass through without invoking f.
	plain := tx.WithoutBlobTxSidecar()
	mapped, err = plain.MapBlobTxSidecar(func(*BlobTxSidecar) (*BlobTxSidecar, error) {
		t.Fatal("mapping function called without a sidecar")
		return nil, nil
	})
	require.NoError(t, err)
	require.Same(t, plain, mapped)
}

func TestBlobTxValidateSidecarMissing(t *testing.T) {
	plain := blobTx(1, sidecarV0(1)).WithoutBlobTxSidecar()
	require.ErrorIs(t, plain.ValidateBlobSidecar(), ErrMissingSidecar)

	legacy := sampleTransactions()[0]
	require.ErrorIs(t, legacy.ValidateBlobSidecar(), ErrInvalidTxType)
}

func TestBlobTxDecodeBadSidecarVersion(t *testing.T) {
	tx := blobTx(1, sidecarV1(1))
	enc, err := tx.MarshalBinary()
	require.NoError(t, err)

	// Corrupt the wrapper version byte. It sits right after the nested
	// transaction body, which in turn starts after the outer list header.
	body, _, err := rlp.SplitList(enc[1:])
	require.NoError(t, err)
	_, _, rest, err := rlp.Split(body)
	require.NoError(t, err)
	require.Equal(t, byte(BlobSidecarVersion1), rest[0])
	rest[0] = 0x02

	var parsed Transaction
	require.ErrorContains(t, parsed.UnmarshalBinary(enc), "unsupported blob tx sidecar version")
}
