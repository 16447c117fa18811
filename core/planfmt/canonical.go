// Package planfmt encodes tokenized plans in a canonical binary form.
//
// A tokenized plan is the merged word sequence produced by the lexer. Its
// canonical encoding is deterministic CBOR, so two plans with the same words
// always encode to the same bytes and share a digest regardless of comments,
// blank lines or spacing in the source text.
package planfmt

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"
)

// Version is the canonical format version written by Encode.
const Version uint8 = 1

// DigestPrefix tags digests with the hash algorithm.
const DigestPrefix = "blake2b:"

// MaxWords is the largest plan Encode accepts and Decode reads back.
// It is the CBOR library's ceiling on array length.
const MaxWords = 2147483647

// ErrPlanTooLarge is returned when a plan has more than MaxWords words.
var ErrPlanTooLarge = errors.New("plan exceeds maximum word count")

// ErrUnsupportedVersion is returned when decoding a plan written by a newer format.
var ErrUnsupportedVersion = errors.New("unsupported plan format version")

// CanonicalPlan is the encoded form of a tokenized plan.
type CanonicalPlan struct {
	Version uint8    `cbor:"1,keyasint"`
	Words   []string `cbor:"2,keyasint"`
}

// Encode produces the canonical CBOR encoding of words.
func Encode(words []string) ([]byte, error) {
	encMode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("failed to create CBOR encoder: %w", err)
	}

	if words == nil {
		words = []string{}
	}
	if int64(len(words)) > MaxWords {
		return nil, fmt.Errorf("%w: %d (max %d)", ErrPlanTooLarge, len(words), MaxWords)
	}

	data, err := encMode.Marshal(CanonicalPlan{Version: Version, Words: words})
	if err != nil {
		return nil, fmt.Errorf("CBOR encoding failed: %w", err)
	}
	return data, nil
}

// Decode parses a canonical plan and returns its words.
func Decode(data []byte) ([]string, error) {
	decMode, err := cbor.DecOptions{
		DupMapKey:        cbor.DupMapKeyEnforcedAPF,
		MaxArrayElements: MaxWords,
	}.DecMode()
	if err != nil {
		return nil, fmt.Errorf("failed to create CBOR decoder: %w", err)
	}

	var plan CanonicalPlan
	if err := decMode.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("CBOR decoding failed: %w", err)
	}
	if plan.Version != Version {
		return nil, fmt.Errorf("%w: %d (expected %d)", ErrUnsupportedVersion, plan.Version, Version)
	}
	if plan.Words == nil {
		plan.Words = []string{}
	}
	return plan.Words, nil
}

// Digest returns the BLAKE2b-256 digest of the canonical encoding of words,
// formatted as "blake2b:<hex>".
func Digest(words []string) (string, error) {
	data, err := Encode(words)
	if err != nil {
		return "", err
	}
	sum := blake2b.Sum256(data)
	return DigestPrefix + hex.EncodeToString(sum[:]), nil
}
