package types

import (
	"crypto/sha256"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto/kzg4844"
	"github.com/ethereum/go-ethereum/rlp"
)

// Blob sidecar versions.
const (
	// BlobSidecarVersion0 is the original EIP-4844 sidecar format, carrying one
	// proof per blob.
	BlobSidecarVersion0 = byte(0)
	// BlobSidecarVersion1 is the EIP-7594 sidecar format, carrying
	// kzg4844.CellProofsPerBlob cell proofs per blob.
	BlobSidecarVersion1 = byte(1)
)

// BlobTxSidecar contains the blobs of a blob transaction. It exists in two
// versions that differ in their proof cardinality; the blob and commitment
// layout is shared. The sidecar is never part of the signed payload, so a
// transaction's signature and hash are unaffected by whichever sidecar is
// attached.
type BlobTxSidecar struct {
	Version     byte
	Blobs       []kzg4844.Blob
	Commitments []kzg4844.Commitment
	Proofs      []kzg4844.Proof
}

// NewBlobTxSidecar creates a sidecar value of the given version.
func NewBlobTxSidecar(version byte, blobs []kzg4844.Blob, commitments []kzg4844.Commitment, proofs []kzg4844.Proof) *BlobTxSidecar {
	return &BlobTxSidecar{
		Version:     version,
		Blobs:       blobs,
		Commitments: commitments,
		Proofs:      proofs,
	}
}

// BlobHashes computes the blob versioned hashes of the given blobs.
func (sc *BlobTxSidecar) BlobHashes() []common.Hash {
	hasher := sha256.New()
	h := make([]common.Hash, len(sc.Commitments))
	for i := range sc.Commitments {
		h[i] = kzg4844.CalcBlobHashV1(hasher, &sc.Commitments[i])
	}
	return h
}

// Copy returns a deep-copy of the sidecar.
func (sc *BlobTxSidecar) Copy() *BlobTxSidecar {
	return &BlobTxSidecar{
		Version:     sc.Version,
		Blobs:       append([]kzg4844.Blob(nil), sc.Blobs...),
		Commitments: append([]kzg4844.Commitment(nil), sc.Commitments...),
		Proofs:      append([]kzg4844.Proof(nil), sc.Proofs...),
	}
}

// encodedSize computes the RLP size of the sidecar elements. This does NOT
// return the encoded size of the BlobTxSidecar, it's just a helper for
// tx.Size().
func (sc *BlobTxSidecar) encodedSize() uint64 {
	var blobs, commitments, proofs uint64
	for i := range sc.Blobs {
		blobs += rlp.BytesSize(sc.Blobs[i][:])
	}
	for i := range sc.Commitments {
		commitments += rlp.BytesSize(sc.Commitments[i][:])
	}
	for i := range sc.Proofs {
		proofs += rlp.BytesSize(sc.Proofs[i][:])
	}
	size := rlp.ListSize(blobs) + rlp.ListSize(commitments) + rlp.ListSize(proofs)
	if sc.Version == BlobSidecarVersion1 {
		size += 1 // wrapper version byte
	}
	return size
}

// proofsPerBlob returns the number of proofs the sidecar's version mandates
// for each blob.
func (sc *BlobTxSidecar) proofsPerBlob() int {
	if sc.Version == BlobSidecarVersion1 {
		return kzg4844.CellProofsPerBlob
	}
	return 1
}

// ValidateBlobCommitmentHashes checks that the versioned hashes derived from
// the sidecar commitments match the given transaction hashes.
func (sc *BlobTxSidecar) ValidateBlobCommitmentHashes(hashes []common.Hash) error {
	if len(sc.Blobs) != len(sc.Commitments) {
		return fmt.Errorf("invalid number of %d blob commitments compared to %d blobs", len(sc.Commitments), len(sc.Blobs))
	}
	if len(hashes) != len(sc.Commitments) {
		return fmt.Errorf("invalid number of %d blob versioned hashes compared to %d commitments", len(hashes), len(sc.Commitments))
	}
	hasher := sha256.New()
	for i, vhash := range hashes {
		computed := kzg4844.CalcBlobHashV1(hasher, &sc.Commitments[i])
		if vhash != computed {
			return fmt.Errorf("blob %d: computed hash %#x mismatches transaction one %#x", i, computed, vhash)
		}
	}
	return nil
}

// Validate checks the sidecar against the versioned hashes committed to in a
// transaction, including the cryptographic proofs. Proof verification errors
// are returned as produced by the KZG library.
func (sc *BlobTxSidecar) Validate(hashes []common.Hash) error {
	if err := sc.ValidateBlobCommitmentHashes(hashes); err != nil {
		return err
	}
	switch sc.Version {
	case BlobSidecarVersion0:
		if len(sc.Proofs) != len(sc.Blobs) {
			return fmt.Errorf("invalid number of %d blob proofs compared to %d blobs", len(sc.Proofs), len(sc.Blobs))
		}
		for i := range sc.Blobs {
			if err := kzg4844.VerifyBlobProof(&sc.Blobs[i], sc.Commitments[i], sc.Proofs[i]); err != nil {
				return err
			}
		}
		return nil
	case BlobSidecarVersion1:
		if len(sc.Proofs) != len(sc.Blobs)*kzg4844.CellProofsPerBlob {
			return fmt.Errorf("invalid number of %d cell proofs compared to %d blobs", len(sc.Proofs), len(sc.Blobs))
		}
		return kzg4844.VerifyCellProofs(sc.Blobs, sc.Commitments, sc.Proofs)
	default:
		return fmt.Errorf("unsupported sidecar version %d", sc.Version)
	}
}

// ToV1 converts the sidecar to the EIP-7594 cell proof format, recomputing the
// proofs through the KZG library. The commitments and blobs carry over
// unchanged. A version 1 sidecar is returned as is. Note the conversion cannot
// be undone: the original per-blob proofs are discarded.
func (sc *BlobTxSidecar) ToV1() (*BlobTxSidecar, error) {
	if sc.Version == BlobSidecarVersion1 {
		return sc, nil
	}
	proofs := make([]kzg4844.Proof, 0, len(sc.Blobs)*kzg4844.CellProofsPerBlob)
	for i := range sc.Blobs {
		cellProofs, err := kzg4844.ComputeCellProofs(&sc.Blobs[i])
		if err != nil {
			return nil, err
		}
		proofs = append(proofs, cellProofs...)
	}
	return &BlobTxSidecar{
		Version:     BlobSidecarVersion1,
		Blobs:       sc.Blobs,
		Commitments: sc.Commitments,
		Proofs:      proofs,
	}, nil
}
