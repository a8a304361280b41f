package postgres

import (
	"encoding/binary"
	"fmt"

	"github.com/oklog/ulid/v2"
)

// accountNumberSpace keeps account numbers at twelve digits.
const accountNumberSpace = 1_000_000_000_000

// ULIDGenerator generates ULID-based IDs and account numbers.
type ULIDGenerator struct{}

// NewULIDGenerator creates a new ULIDGenerator.
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{}
}

// Generate generates a new ULID.
func (g *ULIDGenerator) Generate() string {
	return ulid.Make().String()
}

// GenerateAccountNumber derives a zero-padded twelve digit number from the
// random part of a fresh ULID. Collisions are caught by the unique constraint
// on accounts.account_number.
func (g *ULIDGenerator) GenerateAccountNumber() string {
	id := ulid.Make()
	entropy := id.Entropy()
	n := binary.BigEndian.Uint64(entropy[2:]) % accountNumberSpace
	return fmt.Sprintf("%012d", n)
}
