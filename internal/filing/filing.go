// Package filing issues the per-year unique case identifiers and the
// petitioner access codes.
package filing

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
)

// Prefix is the filing number namespace for citizen requests.
const Prefix = "PQRSD"

// SequenceWidth is the minimum zero-padded width of the sequence part.
const SequenceWidth = 6

// Sequencer issues strictly increasing per-year sequence numbers. Issuance
// must be atomic under concurrent case creation; implementations serialize
// on a durable counter rather than counting existing rows.
type Sequencer interface {
	Next(ctx context.Context, year int) (int64, error)
}

// Number formats a filing number as PQRSD-<year>-<sequence>, zero-padded to
// six digits. Sequences past 999999 widen the field instead of failing, so
// lexicographic order within a year is preserved up to that point and the
// identifier never becomes ambiguous.
func Number(year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%0*d", Prefix, year, SequenceWidth, seq)
}

// accessCodeAlphabet excludes visually ambiguous characters (0, 1, O, I).
const accessCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// DefaultAccessCodeLength is the standard petitioner access code length.
const DefaultAccessCodeLength = 6

// AccessCode draws a lookup secret uniformly from the restricted alphabet.
// The code gates access to petitioner data without authentication, so it is
// drawn from crypto/rand.
func AccessCode(length int) (string, error) {
	if length <= 0 {
		length = DefaultAccessCodeLength
	}
	max := big.NewInt(int64(len(accessCodeAlphabet)))
	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("draw access code: %w", err)
		}
		code[i] = accessCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}
