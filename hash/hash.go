package hash

import (
	"crypto"
	"fmt"
)

// HashValues writes every value into a CBOR-fed hasher and returns the digest.
func HashValues(hashAlgorithm crypto.Hash, values ...any) ([]byte, error) {
	hasher := New(hashAlgorithm.New())
	for _, value := range values {
		hasher.Write(value)
	}
	return hasher.Sum()
}

/*
Sum is like HashValues but panics on encoding error. Meant for values built
only from integers, byte slices and strings, which always encode.
*/
func Sum(hashAlgorithm crypto.Hash, values ...any) []byte {
	res, err := HashValues(hashAlgorithm, values...)
	if err != nil {
		panic(fmt.Errorf("failed to calculate hash: %w", err))
	}
	return res
}
