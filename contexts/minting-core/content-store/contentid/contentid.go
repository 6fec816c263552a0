package contentid

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// ForBytes returns the CIDv1 string (raw multicodec + sha2-256 multihash)
// identifying data.
func ForBytes(data []byte) string {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		// multihash.Sum cannot fail for SHA2_256 with default length.
		return ""
	}
	return cid.NewCidV1(cid.Raw, sum).String()
}

// Valid reports whether id parses as a CID.
func Valid(id string) bool {
	_, err := cid.Decode(id)
	return err == nil
}
