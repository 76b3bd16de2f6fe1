package swap

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"

	"wallet-core/pkg/types"
)

var errBadChecksum = errors.New("bad ss58 checksum")

var ss58Prefix = []byte("SS58PRE")

// ValidateRecipient checks that address is well formed for the chain's account model
func ValidateRecipient(chain *types.ChainDescriptor, address string) error {
	switch chain.ExecutionType() {
	case types.ChainTypeEVM:
		if !common.IsHexAddress(address) {
			return fmt.Errorf("invalid EVM address: %s", address)
		}
	case types.ChainTypeSolana:
		if _, err := solana.PublicKeyFromBase58(address); err != nil {
			return fmt.Errorf("invalid Solana address: %w", err)
		}
	default:
		if err := validateSS58(address); err != nil {
			return fmt.Errorf("invalid substrate address: %w", err)
		}
	}
	return nil
}

// genericSS58Format is the address format of chains without a registered prefix
const genericSS58Format = 42

// PlaceholderAddress returns a well formed address on chain that nobody
// controls. Venues that price a swap only for a given recipient get it when
// the request has none.
func PlaceholderAddress(chain *types.ChainDescriptor) string {
	switch chain.ExecutionType() {
	case types.ChainTypeEVM:
		return common.Address{}.Hex()
	case types.ChainTypeSolana:
		return solana.SystemProgramID.String()
	default:
		return encodeSS58(genericSS58Format, make([]byte, 32))
	}
}

func encodeSS58(format byte, accountID []byte) string {
	body := append([]byte{format}, accountID...)
	hash := blake2b.Sum512(append(append([]byte{}, ss58Prefix...), body...))
	return base58.Encode(append(body, hash[:2]...))
}

// validateSS58 checks the length and checksum of an SS58 encoded account id
func validateSS58(address string) error {
	raw, err := base58.Decode(address)
	if err != nil {
		return err
	}

	var prefixLen int
	switch len(raw) {
	case 35:
		prefixLen = 1
	case 36:
		prefixLen = 2
	default:
		return fmt.Errorf("unexpected length %d", len(raw))
	}

	body := raw[:prefixLen+32]
	hash := blake2b.Sum512(append(append([]byte{}, ss58Prefix...), body...))
	if !bytes.Equal(hash[:2], raw[prefixLen+32:]) {
		return errBadChecksum
	}
	return nil
}
