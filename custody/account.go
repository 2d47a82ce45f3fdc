package custody

import (
	"crypto/sha256"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"

	"github.com/clawpay/settler/types"
)

// Derivation seeds. These match the account layout promised to callers: the
// program state account and one token sub-account per asset, both locatable
// from the deployment identifier alone.
const (
	seedProgramState = "program_state"
	seedTokenAccount = "program_token_account"
)

// DeriveProgramAccount returns the deployment's well-known state account,
// which also holds the native-currency balance.
func DeriveProgramAccount(scheme types.AccountScheme, deploymentID string) types.Identity {
	switch scheme {
	case types.SchemeSolana:
		pda, _, err := solana.FindProgramAddress(
			[][]byte{[]byte(seedProgramState)},
			programID(deploymentID),
		)
		if err != nil {
			// Exhausting all 256 bump seeds is not reachable with a fixed
			// seed set; fall through to the hash form to stay total.
			return hashAccount(deploymentID, seedProgramState, nil)
		}
		return types.IdentityFromPublicKey(pda)
	default:
		return hashAccount(deploymentID, seedProgramState, nil)
	}
}

// DeriveAssetAccount returns the custody sub-account that holds the given
// asset, derived from the deployment identifier and the asset identifier.
func DeriveAssetAccount(scheme types.AccountScheme, deploymentID string, asset types.Asset) types.Identity {
	switch scheme {
	case types.SchemeSolana:
		pda, _, err := solana.FindProgramAddress(
			[][]byte{[]byte(seedTokenAccount), asset.Address().Bytes()},
			programID(deploymentID),
		)
		if err != nil {
			return hashAccount(deploymentID, seedTokenAccount, asset.Address().Bytes())
		}
		return types.IdentityFromPublicKey(pda)
	default:
		return hashAccount(deploymentID, seedTokenAccount, asset.Address().Bytes())
	}
}

// programID maps a deployment identifier onto a 32-byte Solana program id:
// a base58-encoded 32-byte identifier is used verbatim, anything else is
// hashed.
func programID(deploymentID string) solana.PublicKey {
	if key, err := solana.PublicKeyFromBase58(deploymentID); err == nil {
		return key
	}
	return solana.PublicKey(sha256.Sum256([]byte(deploymentID)))
}

// hashAccount is the EVM-scheme derivation: keccak over the seed material,
// truncated to an address the way contract addresses are.
func hashAccount(deploymentID, seed string, extra []byte) types.Identity {
	material := make([]byte, 0, len(deploymentID)+len(seed)+len(extra))
	material = append(material, deploymentID...)
	material = append(material, seed...)
	material = append(material, extra...)
	digest := crypto.Keccak256(material)
	var id types.Identity
	copy(id[:], digest[12:])
	return id
}
