package staking

import (
	"math"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"stakingLedger/internal/derive"
	"stakingLedger/internal/storage"
)

func TestInitializeRejectsRepeat(t *testing.T) {
	f := newFixture(t, RewardPerEvent)
	f.initialize(1, 1, 0)

	_, err := f.ledger.Initialize(f.ctx, f.initRequest(9, 9))
	require.ErrorIs(t, err, ErrAlreadyInitialized)
	require.Equal(t, uint64(1), f.pool().Cap)
}

func TestInitializeChecksDerivation(t *testing.T) {
	f := newFixture(t, RewardPerEvent)

	req := f.initRequest(1, 1)
	req.PoolBump--
	_, err := f.ledger.Initialize(f.ctx, req)
	require.ErrorIs(t, err, ErrDerivationMismatch)

	req = f.initRequest(1, 1)
	req.RewardVault = f.keys.PrincipalVault
	_, err = f.ledger.Initialize(f.ctx, req)
	require.ErrorIs(t, err, ErrDerivationMismatch)

	_, err = f.ledger.Pool(f.ctx, f.keys.Pool)
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestInitializeRequiresMints(t *testing.T) {
	f := newFixture(t, RewardPerEvent)

	req := f.initRequest(1, 1)
	req.RewardMint = common.HexToAddress("0x0000000000000000000000000000000000000c99")
	_, err := f.ledger.Initialize(f.ctx, req)
	require.ErrorIs(t, err, ErrAccountNotFound)

	// The principal vault created earlier in the same operation is rolled back.
	_, err = f.ledger.TokenAccount(f.ctx, f.keys.PrincipalVault)
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestInitializeRejectsOccupiedVault(t *testing.T) {
	f := newFixture(t, RewardPerEvent)
	f.update(func(tx storage.Tx) error {
		_, err := f.tokens.CreateAccount(f.ctx, tx, f.keys.RewardVault, rewardMint, stranger)
		return err
	})

	_, err := f.ledger.Initialize(f.ctx, f.initRequest(1, 1))
	require.ErrorIs(t, err, ErrAlreadyInitialized)
}

func TestConfigureRequiresSigner(t *testing.T) {
	f := newFixture(t, RewardPerEvent)
	f.initialize(1, 173611, 0)

	_, err := f.ledger.Configure(f.ctx, ConfigureRequest{Caller: user, Pool: f.keys.Pool, Cap: 100, Rate: 100})
	require.ErrorIs(t, err, ErrUnauthorized)
	require.Equal(t, uint64(1), f.pool().Cap)
	require.Equal(t, uint64(173611), f.pool().Rate)

	_, err = f.ledger.ConfigureSigner(f.ctx, ConfigureSignerRequest{Caller: user, Pool: f.keys.Pool, NewSigner: user})
	require.ErrorIs(t, err, ErrUnauthorized)
	require.Equal(t, admin, f.pool().Signer)
}

func TestConfigureSignerHandsOver(t *testing.T) {
	f := newFixture(t, RewardPerEvent)
	f.initialize(1, 1, 0)

	_, err := f.ledger.ConfigureSigner(f.ctx, ConfigureSignerRequest{Caller: admin, Pool: f.keys.Pool, NewSigner: newAdmin})
	require.NoError(t, err)

	_, err = f.ledger.Configure(f.ctx, ConfigureRequest{Caller: admin, Pool: f.keys.Pool, Cap: 3, Rate: 3})
	require.ErrorIs(t, err, ErrUnauthorized)

	pool, err := f.ledger.Configure(f.ctx, ConfigureRequest{Caller: newAdmin, Pool: f.keys.Pool, Cap: 3, Rate: 4})
	require.NoError(t, err)
	require.Equal(t, uint64(3), pool.Cap)
	require.Equal(t, uint64(4), pool.Rate)
}

func TestConfigureSignerRejectsZeroAddress(t *testing.T) {
	f := newFixture(t, RewardPerEvent)
	f.initialize(1, 1, 0)

	_, err := f.ledger.ConfigureSigner(f.ctx, ConfigureSignerRequest{Caller: admin, Pool: f.keys.Pool})
	require.ErrorIs(t, err, ErrInvalidArgument)
	require.Equal(t, admin, f.pool().Signer)
}

func TestRegisterTwiceKeepsRecord(t *testing.T) {
	f := newFixture(t, RewardPerEvent)
	f.initialize(2, 1, rewardFunding)
	f.register()

	_, err := f.ledger.Deposit(f.ctx, f.stakeRequest(2))
	require.NoError(t, err)

	_, err = f.ledger.RegisterDepositor(f.ctx, RegisterDepositorRequest{
		Caller:    user,
		Pool:      f.keys.Pool,
		Depositor: f.depositor,
		Bump:      f.depositorBump,
	})
	require.ErrorIs(t, err, ErrAlreadyInitialized)
	require.Equal(t, uint64(2), f.staked())
}

func TestRegisterChecksDerivation(t *testing.T) {
	f := newFixture(t, RewardPerEvent)
	f.initialize(1, 1, 0)

	// Another owner's depositor address cannot be claimed.
	strangerDepositor, bump, err := derive.FindDepositor(program, poolKey, stranger)
	require.NoError(t, err)
	_, err = f.ledger.RegisterDepositor(f.ctx, RegisterDepositorRequest{
		Caller:    user,
		Pool:      f.keys.Pool,
		Depositor: strangerDepositor,
		Bump:      bump,
	})
	require.ErrorIs(t, err, ErrDerivationMismatch)

	_, err = f.ledger.RegisterDepositor(f.ctx, RegisterDepositorRequest{
		Caller:    user,
		Pool:      f.keys.Pool,
		Depositor: f.depositor,
		Bump:      f.depositorBump - 1,
	})
	require.ErrorIs(t, err, ErrDerivationMismatch)

	_, err = f.ledger.RegisterDepositor(f.ctx, RegisterDepositorRequest{
		Caller:    user,
		Pool:      common.HexToAddress("0x0000000000000000000000000000000000000f0f"),
		Depositor: f.depositor,
		Bump:      f.depositorBump,
	})
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestDepositOverCapChangesNothing(t *testing.T) {
	f := newFixture(t, RewardPerEvent)
	f.initialize(2, 5, rewardFunding)
	f.register()

	_, err := f.ledger.Deposit(f.ctx, f.stakeRequest(2))
	require.NoError(t, err)

	_, err = f.ledger.Deposit(f.ctx, f.stakeRequest(1))
	require.ErrorIs(t, err, ErrCapExceeded)
	require.Equal(t, uint64(2), f.staked())
	require.Equal(t, uint64(2), f.balance(f.keys.PrincipalVault))
	require.Equal(t, uint64(userFunding-2), f.balance(userPrincipal))
	require.Equal(t, uint64(5), f.balance(userReward))
}

func TestWithdrawMoreThanStaked(t *testing.T) {
	f := newFixture(t, RewardPerEvent)
	f.initialize(5, 1, rewardFunding)
	f.register()

	_, err := f.ledger.Deposit(f.ctx, f.stakeRequest(2))
	require.NoError(t, err)

	_, err = f.ledger.Withdraw(f.ctx, f.stakeRequest(3))
	require.ErrorIs(t, err, ErrInsufficientStakedBalance)
	require.Equal(t, uint64(2), f.staked())
	require.Equal(t, uint64(1), f.balance(userReward))
}

func TestDepositRollsBackWhenRewardVaultEmpty(t *testing.T) {
	f := newFixture(t, RewardPerEvent)
	f.initialize(5, 10, 0)
	f.register()

	_, err := f.ledger.Deposit(f.ctx, f.stakeRequest(1))
	require.ErrorIs(t, err, ErrInsufficientFunds)
	require.Equal(t, uint64(0), f.staked())
	require.Equal(t, uint64(userFunding), f.balance(userPrincipal))
	require.Equal(t, uint64(0), f.balance(f.keys.PrincipalVault))
}

func TestDepositWithoutFunds(t *testing.T) {
	f := newFixture(t, RewardPerEvent)
	f.initialize(100, 0, 0)
	f.register()

	_, err := f.ledger.Deposit(f.ctx, f.stakeRequest(userFunding+1))
	require.ErrorIs(t, err, ErrInsufficientFunds)
	require.Equal(t, uint64(0), f.staked())
}

func TestZeroRateSkipsReward(t *testing.T) {
	f := newFixture(t, RewardPerEvent)
	f.initialize(5, 0, 0)
	f.register()

	res, err := f.ledger.Deposit(f.ctx, f.stakeRequest(1))
	require.NoError(t, err)
	require.Equal(t, uint64(0), res.Reward)
	require.Equal(t, uint64(0), f.balance(userReward))
}

func TestRewardUsesLiveRate(t *testing.T) {
	f := newFixture(t, RewardPerEvent)
	f.initialize(5, 7, rewardFunding)
	f.register()

	res, err := f.ledger.Deposit(f.ctx, f.stakeRequest(1))
	require.NoError(t, err)
	require.Equal(t, uint64(7), res.Reward)

	_, err = f.ledger.Configure(f.ctx, ConfigureRequest{Caller: admin, Pool: f.keys.Pool, Cap: 5, Rate: 11})
	require.NoError(t, err)

	res, err = f.ledger.Withdraw(f.ctx, f.stakeRequest(1))
	require.NoError(t, err)
	require.Equal(t, uint64(11), res.Reward)
	require.Equal(t, uint64(18), f.balance(userReward))
}

func TestStakeRequestValidation(t *testing.T) {
	f := newFixture(t, RewardPerEvent)
	f.initialize(5, 1, rewardFunding)
	f.register()

	tests := []struct {
		name   string
		mutate func(req *StakeRequest)
		want   error
	}{
		{name: "zero quantity", mutate: func(req *StakeRequest) { req.Quantity = 0 }, want: ErrInvalidArgument},
		{name: "other caller", mutate: func(req *StakeRequest) { req.Caller = stranger }, want: ErrUnauthorized},
		{name: "wrong principal vault", mutate: func(req *StakeRequest) { req.PrincipalVault = f.keys.RewardVault }, want: ErrDerivationMismatch},
		{name: "wrong reward vault", mutate: func(req *StakeRequest) { req.RewardVault = f.keys.PrincipalVault }, want: ErrDerivationMismatch},
		{name: "principal account of wrong mint", mutate: func(req *StakeRequest) { req.PrincipalAccount = userReward }, want: ErrInvalidAccount},
		{name: "reward account of wrong mint", mutate: func(req *StakeRequest) { req.RewardAccount = userPrincipal }, want: ErrInvalidAccount},
		{name: "principal account of another owner", mutate: func(req *StakeRequest) { req.PrincipalAccount = strangerPrinc }, want: ErrUnauthorized},
		{name: "depositor is not a depositor", mutate: func(req *StakeRequest) { req.Depositor = userPrincipal }, want: ErrInvalidAccount},
		{name: "unknown pool", mutate: func(req *StakeRequest) { req.Pool = common.HexToAddress("0x0000000000000000000000000000000000000f0f") }, want: ErrAccountNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := f.stakeRequest(1)
			tt.mutate(&req)
			_, err := f.ledger.Deposit(f.ctx, req)
			require.ErrorIs(t, err, tt.want)
			_, err = f.ledger.Withdraw(f.ctx, req)
			require.ErrorIs(t, err, tt.want)
		})
	}

	require.Equal(t, uint64(0), f.staked())
	require.Equal(t, uint64(userFunding), f.balance(userPrincipal))
}

func TestCodeOf(t *testing.T) {
	f := newFixture(t, RewardPerEvent)
	f.initialize(1, 1, 0)

	_, err := f.ledger.Configure(f.ctx, ConfigureRequest{Caller: user, Pool: f.keys.Pool})
	require.Equal(t, CodeUnauthorized, CodeOf(err))
	require.Equal(t, Code(""), CodeOf(nil))
}

func TestConfigureLeavesDepositorsUntouched(t *testing.T) {
	f := newFixture(t, RewardPerEvent)
	f.initialize(5, 1, rewardFunding)
	f.register()

	_, err := f.ledger.Deposit(f.ctx, f.stakeRequest(3))
	require.NoError(t, err)

	_, err = f.ledger.Configure(f.ctx, ConfigureRequest{Caller: admin, Pool: f.keys.Pool, Cap: 1, Rate: 1})
	require.NoError(t, err)
	require.Equal(t, uint64(3), f.staked())

	res, err := f.ledger.Withdraw(f.ctx, f.stakeRequest(1))
	require.NoError(t, err)
	require.Equal(t, uint64(2), res.Depositor.Amount)

	_, err = f.ledger.Deposit(f.ctx, f.stakeRequest(1))
	require.ErrorIs(t, err, ErrCapExceeded)
	require.Equal(t, uint64(2), f.staked())
	require.Equal(t, uint64(2), f.balance(f.keys.PrincipalVault))
}

func TestDepositRejectsStakedOverflow(t *testing.T) {
	f := newFixture(t, RewardPerEvent)
	f.initialize(math.MaxUint64, 1, rewardFunding)
	f.register()

	f.update(func(tx storage.Tx) error {
		depositor, err := storage.GetDepositor(f.ctx, tx, f.depositor)
		if err != nil {
			return err
		}
		depositor.Amount = math.MaxUint64
		return storage.PutDepositor(f.ctx, tx, f.depositor, depositor)
	})

	_, err := f.ledger.Deposit(f.ctx, f.stakeRequest(1))
	require.ErrorIs(t, err, ErrOverflow)
	require.Equal(t, uint64(math.MaxUint64), f.staked())
	require.Equal(t, uint64(userFunding), f.balance(userPrincipal))
	require.Equal(t, uint64(0), f.balance(userReward))
}
