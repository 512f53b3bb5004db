package types

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto/kzg4844"
)

// BlobsBundle flattens the sidecar material of many blob transactions into
// three parallel sequences, in transaction order. Bundles are assembled
// incrementally while building an execution payload and drained again, one
// transaction's worth at a time, while taking one apart. No cryptographic
// checking happens at this level; the material was validated per transaction
// before it got here.
type BlobsBundle struct {
	Version     byte
	Commitments []kzg4844.Commitment
	Proofs      []kzg4844.Proof
	Blobs       []kzg4844.Blob
}

// NewBlobsBundle creates an empty bundle accepting sidecars of the given
// version.
func NewBlobsBundle(version byte) *BlobsBundle {
	return &BlobsBundle{
		Version:     version,
		Commitments: make([]kzg4844.Commitment, 0),
		Proofs:      make([]kzg4844.Proof, 0),
		Blobs:       make([]kzg4844.Blob, 0),
	}
}

// BlobCount returns the number of blobs currently held.
func (b *BlobsBundle) BlobCount() int {
	return len(b.Blobs)
}

func (b *BlobsBundle) proofsPerBlob() int {
	if b.Version == BlobSidecarVersion1 {
		return kzg4844.CellProofsPerBlob
	}
	return 1
}

// Add appends a transaction's sidecar material to the bundle. Mixing sidecar
// versions within one bundle is not representable on the wire and is rejected.
func (b *BlobsBundle) Add(sc *BlobTxSidecar) error {
	if sc.Version != b.Version {
		return fmt.Errorf("version %d sidecar cannot join version %d blobs bundle", sc.Version, b.Version)
	}
	b.Commitments = append(b.Commitments, sc.Commitments...)
	b.Proofs = append(b.Proofs, sc.Proofs...)
	b.Blobs = append(b.Blobs, sc.Blobs...)
	return nil
}

// Pop removes the first n blobs' worth of material from the bundle and returns
// it as a sidecar of the bundle's version. The count always comes from an
// already-validated transaction's blob hashes, so asking for more blobs than
// the bundle holds is a caller bug and panics.
func (b *BlobsBundle) Pop(n int) *BlobTxSidecar {
	if n > len(b.Blobs) {
		panic(fmt.Sprintf("popping %d blobs from a bundle of %d", n, len(b.Blobs)))
	}
	np := n * b.proofsPerBlob()
	sc := &BlobTxSidecar{
		Version:     b.Version,
		Blobs:       b.Blobs[:n:n],
		Commitments: b.Commitments[:n:n],
		Proofs:      b.Proofs[:np:np],
	}
	b.Blobs = b.Blobs[n:]
	b.Commitments = b.Commitments[n:]
	b.Proofs = b.Proofs[np:]
	return sc
}

// ToSidecar converts a bundle assumed to hold a single transaction's material
// into a sidecar. The bundle is left untouched, and in particular remains
// usable, when the cardinalities do not line up with its version.
func (b *BlobsBundle) ToSidecar() (*BlobTxSidecar, error) {
	if len(b.Commitments) != len(b.Blobs) {
		return nil, fmt.Errorf("invalid number of %d commitments compared to %d blobs", len(b.Commitments), len(b.Blobs))
	}
	if len(b.Proofs) != len(b.Blobs)*b.proofsPerBlob() {
		return nil, fmt.Errorf("invalid number of %d proofs compared to %d blobs at version %d", len(b.Proofs), len(b.Blobs), b.Version)
	}
	return &BlobTxSidecar{
		Version:     b.Version,
		Blobs:       b.Blobs,
		Commitments: b.Commitments,
		Proofs:      b.Proofs,
	}, nil
}

// blobsBundleJSON is the engine API wire form of a bundle.
type blobsBundleJSON struct {
	Version     hexutil.Uint64       `json:"version"`
	Commitments []kzg4844.Commitment `json:"commitments"`
	Proofs      []kzg4844.Proof      `json:"proofs"`
	Blobs       []kzg4844.Blob       `json:"blobs"`
}

// MarshalJSON implements json.Marshaler.
func (b *BlobsBundle) MarshalJSON() ([]byte, error) {
	return json.Marshal(&blobsBundleJSON{
		Version:     hexutil.Uint64(b.Version),
		Commitments: b.Commitments,
		Proofs:      b.Proofs,
		Blobs:       b.Blobs,
	})
}

// UnmarshalJSON implements json.Unmarshaler. The cardinalities are re-checked
// here since the wire cannot be trusted to keep the three sequences aligned.
func (b *BlobsBundle) UnmarshalJSON(input []byte) error {
	var dec blobsBundleJSON
	if err := json.Unmarshal(input, &dec); err != nil {
		return err
	}
	if dec.Version != 0 && dec.Version != 1 {
		return fmt.Errorf("unsupported blobs bundle version %d", dec.Version)
	}
	cpy := BlobsBundle{
		Version:     byte(dec.Version),
		Commitments: dec.Commitments,
		Proofs:      dec.Proofs,
		Blobs:       dec.Blobs,
	}
	if len(cpy.Commitments) != len(cpy.Blobs) {
		return fmt.Errorf("invalid number of %d commitments compared to %d blobs", len(cpy.Commitments), len(cpy.Blobs))
	}
	if len(cpy.Proofs) != len(cpy.Blobs)*cpy.proofsPerBlob() {
		return fmt.Errorf("invalid number of %d proofs compared to %d blobs at version %d", len(cpy.Proofs), len(cpy.Blobs), cpy.Version)
	}
	*b = cpy
	return nil
}
