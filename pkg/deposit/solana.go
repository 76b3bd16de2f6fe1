package deposit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"

	"wallet-core/config"
	"wallet-core/pkg/transfer"
	"wallet-core/pkg/types"
)

// Solana fees are typically 5000 lamports per signature
const signatureFee = uint64(5000)

// SolanaBroadcaster signs and sends system and token transfer calls
type SolanaBroadcaster struct {
	client        *rpc.Client
	privateKey    solana.PrivateKey
	publicKey     solana.PublicKey
	commitment    rpc.CommitmentType
	skipPreflight bool
}

// NewSolanaBroadcaster creates a broadcaster for a Solana network
func NewSolanaBroadcaster(network config.NetworkConfig) (*SolanaBroadcaster, error) {
	if network.RPCUrl == "" {
		return nil, fmt.Errorf("RPC URL not configured for Solana")
	}
	if network.PrivateKey == "" {
		return nil, fmt.Errorf("private key not configured for Solana")
	}

	// Base58 encoded
	privateKey, err := solana.PrivateKeyFromBase58(network.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	return &SolanaBroadcaster{
		client:        rpc.New(network.RPCUrl),
		privateKey:    privateKey,
		publicKey:     privateKey.PublicKey(),
		commitment:    getCommitment(network.Commitment),
		skipPreflight: network.SkipPreflight,
	}, nil
}

// Address returns the fee payer's public key
func (s *SolanaBroadcaster) Address() string {
	return s.publicKey.String()
}

// Broadcast signs the submit step's call and sends it
func (s *SolanaBroadcaster) Broadcast(ctx context.Context, data *types.SwapSubmitStepData) (string, error) {
	call := data.Extrinsic

	var instructions []solana.Instruction
	switch call.Module {
	case transfer.ModuleSystem:
		recipient, lamports, err := solanaTransferArgs(call, 0)
		if err != nil {
			return "", err
		}
		if err := s.checkBalance(ctx, lamports); err != nil {
			return "", err
		}
		instructions = nativeTransferInstructions(s.publicKey, recipient, lamports)

	case transfer.ModuleToken:
		if len(call.Args) == 0 {
			return "", fmt.Errorf("token call has no mint")
		}
		mint, err := publicKey(call.Args[0])
		if err != nil {
			return "", fmt.Errorf("invalid token mint address: %w", err)
		}
		recipient, amount, err := solanaTransferArgs(call, 1)
		if err != nil {
			return "", err
		}
		instructions, err = s.splInstructions(ctx, recipient, mint, amount)
		if err != nil {
			return "", err
		}

	default:
		return "", fmt.Errorf("unsupported solana call module: %s", call.Module)
	}

	sig, err := s.signAndSend(ctx, instructions)
	if err != nil {
		return "", err
	}
	return sig.String(), nil
}

func (s *SolanaBroadcaster) checkBalance(ctx context.Context, lamports uint64) error {
	balance, err := s.getBalance(ctx)
	if err != nil {
		return err
	}

	minRequired := lamports + signatureFee
	if balance < minRequired {
		return fmt.Errorf("insufficient balance: have %d lamports, need %d lamports (including fees)", balance, minRequired)
	}
	return nil
}

func (s *SolanaBroadcaster) splInstructions(ctx context.Context, recipient, mint solana.PublicKey, amount uint64) ([]solana.Instruction, error) {
	sourceTokenAccount, err := getAssociatedTokenAddress(s.publicKey, mint)
	if err != nil {
		return nil, fmt.Errorf("failed to get source token account: %w", err)
	}

	balance, err := s.getTokenBalance(ctx, sourceTokenAccount)
	if err != nil {
		return nil, err
	}
	if balance < amount {
		return nil, fmt.Errorf("insufficient token balance: have %d, need %d", balance, amount)
	}

	destTokenAccount, err := getAssociatedTokenAddress(recipient, mint)
	if err != nil {
		return nil, fmt.Errorf("failed to get destination token account: %w", err)
	}

	destAccountExists, err := s.accountExists(ctx, destTokenAccount)
	if err != nil {
		return nil, fmt.Errorf("failed to check destination account: %w", err)
	}

	return splTransferInstructions(s.publicKey, recipient, mint, sourceTokenAccount, destTokenAccount, amount, !destAccountExists), nil
}

func (s *SolanaBroadcaster) signAndSend(ctx context.Context, instructions []solana.Instruction) (solana.Signature, error) {
	recent, err := s.client.GetRecentBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get recent blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		instructions,
		recent.Value.Blockhash,
		solana.TransactionPayer(s.publicKey),
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to create transaction: %w", err)
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(s.publicKey) {
			return &s.privateKey
		}
		return nil
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	opts := rpc.TransactionOpts{
		SkipPreflight:       s.skipPreflight,
		PreflightCommitment: s.commitment,
	}

	sig, err := s.client.SendTransactionWithOpts(ctx, tx, opts)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
	}
	return sig, nil
}

func nativeTransferInstructions(payer, recipient solana.PublicKey, lamports uint64) []solana.Instruction {
	return []solana.Instruction{
		system.NewTransferInstruction(lamports, payer, recipient).Build(),
	}
}

// splTransferInstructions creates the recipient's token account first when it is missing
func splTransferInstructions(payer, recipient, mint, source, dest solana.PublicKey, amount uint64, createDest bool) []solana.Instruction {
	instructions := []solana.Instruction{}

	if createDest {
		createAccountIx := associatedtokenaccount.NewCreateInstruction(
			payer,     // payer
			recipient, // wallet
			mint,      // mint
		).Build()
		instructions = append(instructions, createAccountIx)
	}

	transferIx := token.NewTransferInstruction(
		amount,
		source,
		dest,
		payer,
		[]solana.PublicKey{}, // no multisig
	).Build()
	return append(instructions, transferIx)
}

// solanaTransferArgs reads (recipient, amount in base units) starting at offset
func solanaTransferArgs(call *types.UnsignedCall, offset int) (solana.PublicKey, uint64, error) {
	if len(call.Args) < offset+2 {
		return solana.PublicKey{}, 0, fmt.Errorf("call %s needs a recipient and an amount", call)
	}

	recipient, err := publicKey(call.Args[offset])
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("invalid recipient address: %w", err)
	}

	amount, err := strconv.ParseUint(fmt.Sprintf("%v", call.Args[offset+1]), 10, 64)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("invalid amount: %w", err)
	}
	return recipient, amount, nil
}

func publicKey(v any) (solana.PublicKey, error) {
	s, ok := v.(string)
	if !ok {
		return solana.PublicKey{}, fmt.Errorf("not an address: %v", v)
	}
	return solana.PublicKeyFromBase58(s)
}

// getBalance returns the SOL balance in lamports
func (s *SolanaBroadcaster) getBalance(ctx context.Context) (uint64, error) {
	balance, err := s.client.GetBalance(ctx, s.publicKey, rpc.CommitmentFinalized)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance.Value, nil
}

// getTokenBalance returns the token balance for a token account
func (s *SolanaBroadcaster) getTokenBalance(ctx context.Context, tokenAccount solana.PublicKey) (uint64, error) {
	accountInfo, err := s.client.GetTokenAccountBalance(ctx, tokenAccount, rpc.CommitmentFinalized)
	if err != nil {
		return 0, fmt.Errorf("failed to get token balance: %w", err)
	}

	amount, err := strconv.ParseUint(accountInfo.Value.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse token balance: %w", err)
	}
	return amount, nil
}

// accountExists checks if an account exists on-chain
func (s *SolanaBroadcaster) accountExists(ctx context.Context, account solana.PublicKey) (bool, error) {
	accountInfo, err := s.client.GetAccountInfo(ctx, account)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) || strings.Contains(err.Error(), "not found") {
			return false, nil
		}
		return false, err
	}
	return accountInfo.Value != nil, nil
}

// getAssociatedTokenAddress derives the associated token account address
func getAssociatedTokenAddress(wallet solana.PublicKey, mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindAssociatedTokenAddress(wallet, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive associated token address: %w", err)
	}
	return addr, nil
}

// getCommitment maps a configured commitment level
func getCommitment(commitment string) rpc.CommitmentType {
	switch strings.ToLower(commitment) {
	case "finalized":
		return rpc.CommitmentFinalized
	case "confirmed":
		return rpc.CommitmentConfirmed
	case "processed":
		return rpc.CommitmentProcessed
	default:
		return rpc.CommitmentConfirmed
	}
}
