package apperrors

import "net/http"

// Authorization
var (
	ErrUnauthorized            = define(ErrAuthorization, "UNAUTHORIZED", "signer lacks the required role")
	ErrUnauthorizedCaller      = define(ErrAuthorization, "UNAUTHORIZED_CALLER", "calling module is not authorized")
	ErrUnauthorizedRelayer     = define(ErrAuthorization, "UNAUTHORIZED_RELAYER", "signer is not an authorized relayer")
	ErrOnlySellerCanSettle     = define(ErrAuthorization, "ONLY_SELLER_CAN_SETTLE", "only the seller can settle the trade")
	ErrOnlyBuyerCanCancel      = define(ErrAuthorization, "ONLY_BUYER_CAN_CANCEL", "only the buyer can cancel the trade")
	ErrInvalidSignature        = define(ErrAuthorization, "INVALID_SIGNATURE", "order signature does not match trader")
	ErrFailedToLoadInstruction = define(ErrAuthorization, "FAILED_TO_LOAD_INSTRUCTION", "no calling module found in instruction chain")
)

// State
var (
	ErrNotInitialized          = define(ErrState, "NOT_INITIALIZED", "module is not initialized")
	ErrAlreadyInitialized      = define(ErrState, "ALREADY_INITIALIZED", "module is already initialized")
	ErrVaultPaused             = define(ErrState, "VAULT_PAUSED", "vault is paused")
	ErrVaultNotPaused          = define(ErrState, "VAULT_NOT_PAUSED", "vault is not paused")
	ErrTradingPaused           = define(ErrState, "TRADING_PAUSED", "trading is paused")
	ErrTradingNotPaused        = define(ErrState, "TRADING_NOT_PAUSED", "trading is not paused")
	ErrInsufficientBalance     = define(ErrState, "INSUFFICIENT_BALANCE", "insufficient balance")
	ErrCallerAlreadyAuthorized = define(ErrState, "CALLER_ALREADY_AUTHORIZED", "caller is already authorized")
	ErrCallerNotFound          = define(ErrState, "CALLER_NOT_FOUND", "caller is not in the allow-list")
	ErrRelayerAlreadyAdded     = define(ErrState, "RELAYER_ALREADY_ADDED", "relayer is already authorized")
	ErrRelayerNotFound         = define(ErrState, "RELAYER_NOT_FOUND", "relayer is not in the relayer list")
	ErrTradeAlreadySettled     = define(ErrState, "TRADE_ALREADY_SETTLED", "trade is already settled")
	ErrOrderAlreadyFilled      = define(ErrState, "ORDER_ALREADY_FILLED", "order is already filled")
	ErrOrderAlreadyCancelled   = define(ErrState, "ORDER_ALREADY_CANCELLED", "order is already cancelled")
	ErrOrderAlreadyPlaced      = define(ErrState, "ORDER_ALREADY_PLACED", "order is already placed")
	ErrOrderNotActive          = define(ErrState, "ORDER_NOT_ACTIVE", "order is not active")
	ErrTokenAlreadyMapped      = define(ErrState, "TOKEN_ALREADY_MAPPED", "market is already mapped to a real token")
	ErrTokenNotMapped          = define(ErrState, "TOKEN_NOT_MAPPED", "market has no real token mapping")
	ErrDuplicateSymbol         = define(ErrState, "DUPLICATE_SYMBOL", "market symbol already exists")
	ErrLedgerModuleMismatch    = define(ErrState, "LEDGER_MODULE_MISMATCH", "ledger module does not match trading config")
)

// Validation
var (
	ErrZeroAmount         = define(ErrValidation, "ZERO_AMOUNT", "amount must be greater than zero")
	ErrInvalidPrice       = define(ErrValidation, "INVALID_PRICE", "buy price is below sell price")
	ErrPriceTooLow        = define(ErrValidation, "PRICE_TOO_LOW", "price is below the minimum")
	ErrPriceTooHigh       = define(ErrValidation, "PRICE_TOO_HIGH", "price is above the maximum")
	ErrMarketMismatch     = define(ErrValidation, "MARKET_MISMATCH", "orders reference different markets")
	ErrCollateralMismatch = define(ErrValidation, "COLLATERAL_MISMATCH", "orders use different collateral tokens")
	ErrInvalidOrderSide   = define(ErrValidation, "INVALID_ORDER_SIDE", "orders must be one buy and one sell")
	ErrSelfTrade          = define(ErrValidation, "SELF_TRADE", "buyer and seller must differ")
	ErrBelowMinimumFill   = define(ErrValidation, "BELOW_MINIMUM_FILL", "fill amount is below the minimum")
	ErrOrderTooLarge      = define(ErrValidation, "ORDER_TOO_LARGE", "order amount exceeds the maximum")
	ErrExceedOrderAmount  = define(ErrValidation, "EXCEED_ORDER_AMOUNT", "fill exceeds remaining order quantity")
	ErrInvalidPolicy      = define(ErrValidation, "INVALID_POLICY", "policy value out of bounds")
	ErrInvalidSettleTime  = define(ErrValidation, "INVALID_SETTLE_TIME", "settle window out of bounds")
	ErrInvalidSymbol      = define(ErrValidation, "INVALID_SYMBOL", "symbol must be 1-10 characters")
	ErrInvalidName        = define(ErrValidation, "INVALID_NAME", "name must be 1-50 characters")
	ErrSameAccount        = define(ErrValidation, "SAME_ACCOUNT", "source and destination must differ")
	ErrInvalidAddress     = define(ErrValidation, "INVALID_ADDRESS", "address must not be zero")
)

// Arithmetic
var (
	ErrOverflow = define(ErrArithmetic, "OVERFLOW", "arithmetic overflow")
)

// Timing
var (
	ErrOrderExpired       = define(ErrTiming, "ORDER_EXPIRED", "order is expired or not fillable")
	ErrOrderNotExpired    = define(ErrTiming, "ORDER_NOT_EXPIRED", "order deadline has not passed")
	ErrGracePeriodActive  = define(ErrTiming, "GRACE_PERIOD_ACTIVE", "settle window is still open")
	ErrGracePeriodExpired = define(ErrTiming, "GRACE_PERIOD_EXPIRED", "settle window has closed")
)

// Resource limits
var (
	ErrTooManyCallers  = define(ErrResourceLimit, "TOO_MANY_CALLERS", "caller allow-list is full")
	ErrTooManyRelayers = define(ErrResourceLimit, "TOO_MANY_RELAYERS", "relayer list is full")
)

// Not found
var (
	ErrMarketNotFound  = define(ErrNotFound, "MARKET_NOT_FOUND", "market not found")
	ErrTradeNotFound   = define(ErrNotFound, "TRADE_NOT_FOUND", "trade not found")
	ErrOrderNotFound   = define(ErrNotFound, "ORDER_NOT_FOUND", "order not found")
	ErrCustodyNotFound = define(ErrNotFound, "CUSTODY_NOT_FOUND", "no custody record for token")
)

// Edge
var (
	ErrReadOnly          = define(ErrState, "READ_ONLY", "server is in read-only mode")
	ErrRateLimited       = define(ErrResourceLimit, "RATE_LIMITED", "rate limit exceeded").withStatus(http.StatusTooManyRequests)
	ErrMissingAPIKey     = define(ErrAuthFailed, "MISSING_API_KEY", "missing API key")
	ErrInvalidAPIKey     = define(ErrAuthFailed, "INVALID_API_KEY", "invalid API key")
	ErrRequestInProgress = define(ErrState, "REQUEST_IN_PROGRESS", "request with this idempotency key is in progress")
)
