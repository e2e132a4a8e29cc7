package launcher

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"gopkg.in/urfave/cli.v1"

	"github.com/tessera-chain/go-tessera/common"
	"github.com/tessera-chain/go-tessera/core/state"
	"github.com/tessera-chain/go-tessera/core/types"
	"github.com/tessera-chain/go-tessera/core/vm"
	"github.com/tessera-chain/go-tessera/crypto"
	"github.com/tessera-chain/go-tessera/tessera/contracts/account"
	"github.com/tessera-chain/go-tessera/tessera/contracts/bootloader"
	"github.com/tessera-chain/go-tessera/tessera/contracts/deployer"
	"github.com/tessera-chain/go-tessera/tessera/contracts/entrypoint"
	"github.com/tessera-chain/go-tessera/tessera/contracts/minttoken"
	"github.com/tessera-chain/go-tessera/tessera/contracts/nonces"
	"github.com/tessera-chain/go-tessera/utils"
)

var (
	tokenAddress   = common.HexToAddress("0x00000000000000000000000000000000000a0001")
	accountAddress = common.HexToAddress("0x00000000000000000000000000000000000a0002")
)

func openEVM(cfg Config) (*vm.EVM, state.Database, error) {
	var (
		db  state.Database
		err error
	)
	if cfg.DataDir != "" {
		db, err = state.NewLevelDatabase(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
	} else {
		db = state.NewMemoryDatabase()
	}
	statedb := state.New(db)
	evm := vm.NewEVM(vm.BlockContext{ChainID: big.NewInt(cfg.ChainID), BlockNumber: big.NewInt(1)}, statedb)
	return evm, db, nil
}

// aggregateDemo drives one signed mint operation through the entry point:
// deploy an account, fund it, sign the canonical operation hash with the
// owner key, and hand the batch to a submitter.
func aggregateDemo(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	startMetrics(cfg)

	evm, db, err := openEVM(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ownerKey, err := crypto.GenerateKey()
	if err != nil {
		return err
	}
	owner := crypto.PubkeyToAddress(ownerKey.PubKey())

	ep := entrypoint.New(evm, entrypoint.ContractAddress)
	acct := account.Deploy(evm, accountAddress, owner, account.NewEntryPointBackend(ep.Address))
	token := minttoken.Deploy(evm, tokenAddress)
	evm.StateDB.AddBalance(acct.Address, uint256.MustFromBig(utils.ToTSA(10)))

	amount := big.NewInt(1000)
	op := &types.PackedUserOperation{
		Sender:             acct.Address,
		Nonce:              ep.GetNonce(evm, acct.Address),
		CallData:           account.EncodeExecuteCall(token.Address, new(big.Int), minttoken.EncodeMintCall(acct.Address, amount)),
		AccountGasLimits:   types.PackGasWord(big.NewInt(200000), big.NewInt(100000)),
		PreVerificationGas: big.NewInt(21000),
		GasFees:            types.PackGasWord(utils.ToGWEI(1), utils.ToGWEI(2)),
	}
	op.Signature, err = crypto.Sign(crypto.PrefixedDigest(ep.GetUserOpHash(op)).Bytes(), ownerKey)
	if err != nil {
		return err
	}

	submitter := common.HexToAddress("0x00000000000000000000000000000000000b0001")
	if err := ep.HandleOps(evm, []*types.PackedUserOperation{op}, submitter); err != nil {
		return errors.Wrap(err, "batch rejected")
	}
	if err := evm.StateDB.Commit(); err != nil {
		return err
	}

	log.Log.
		WithField("account", acct.Address.Hex()).
		WithField("minted", token.BalanceOf(evm, acct.Address)).
		WithField("submitterBalance", evm.StateDB.GetBalance(submitter)).
		Info("aggregation pipeline completed")
	return nil
}

// nativeDemo drives one signed envelope through the bootloader: the account
// consumes its sequencer nonce, proves funding, pays the fee, and performs
// the mint.
func nativeDemo(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	startMetrics(cfg)

	evm, db, err := openEVM(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ownerKey, err := crypto.GenerateKey()
	if err != nil {
		return err
	}
	owner := crypto.PubkeyToAddress(ownerKey.PubKey())

	nm := nonces.New(nonces.ContractAddress)
	evm.Register(nm.Address, nm)
	backend := account.NewBootloaderBackend(bootloader.ContractAddress, deployer.ContractAddress, nm)
	sys := deployer.New(deployer.ContractAddress, backend)
	evm.Register(sys.Address, sys)
	boot := bootloader.New(bootloader.ContractAddress)
	evm.Register(boot.Address, boot)

	acct := sys.CreateAccount(evm, owner, common.Hash{})
	token := minttoken.Deploy(evm, tokenAddress)
	evm.StateDB.AddBalance(acct.Address, uint256.MustFromBig(utils.ToTSA(10)))

	amount := big.NewInt(1000)
	tx := &types.NativeTransaction{
		TxType:                 big.NewInt(113),
		From:                   acct.Address,
		To:                     token.Address,
		GasLimit:               big.NewInt(100000),
		GasPerPubdataByteLimit: big.NewInt(800),
		MaxFeePerGas:           utils.ToGWEI(2),
		MaxPriorityFeePerGas:   utils.ToGWEI(1),
		Nonce:                  nm.GetMinNonce(evm, acct.Address),
		Value:                  new(big.Int),
		Data:                   minttoken.EncodeMintCall(acct.Address, amount),
	}
	tx.Signature, err = crypto.Sign(crypto.PrefixedDigest(tx.SigningHash(evm.Context.ChainID)).Bytes(), ownerKey)
	if err != nil {
		return err
	}

	if _, _, err := boot.ProcessTransaction(evm, tx); err != nil {
		return errors.Wrap(err, "transaction rejected")
	}
	if err := evm.StateDB.Commit(); err != nil {
		return err
	}

	log.Log.
		WithField("account", acct.Address.Hex()).
		WithField("minted", token.BalanceOf(evm, acct.Address)).
		WithField("nonce", nm.GetMinNonce(evm, acct.Address)).
		Info("native pipeline completed")
	return nil
}
