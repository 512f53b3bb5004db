package params

// Blob transaction constants, per EIP-4844.
const (
	BlobTxBytesPerFieldElement       = 32      // Size in bytes of a field element
	BlobTxFieldElementsPerBlob       = 4096    // Number of field elements stored in a single data blob
	BlobTxBlobGasPerBlob             = 1 << 17 // Gas consumption of a single data blob (== blob byte size)
	BlobTxMinBlobGasprice            = 1       // Minimum gas price for data blobs
	BlobTxBlobGaspriceUpdateFraction = 3338477 // Controls the maximum rate of change for blob gas price

	BlobTxHashVersion = 0x01 // Version byte of the commitment hash
)
