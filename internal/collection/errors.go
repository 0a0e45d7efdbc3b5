package collection

import "github.com/zjrosen/dixel/internal/chain"

// Validation
var (
	ErrNameBlank            = chain.NewRevert(chain.KindValidation, "NAME_CANNOT_BE_BLANK")
	ErrSymbolBlank          = chain.NewRevert(chain.KindValidation, "SYMBOL_CANNOT_BE_BLANK")
	ErrInvalidMaxSupply     = chain.NewRevert(chain.KindValidation, "INVALID_MAX_SUPPLY")
	ErrInvalidRoyalty       = chain.NewRevert(chain.KindValidation, "INVALID_ROYALTY_FRICTION")
	ErrDescriptionTooLong   = chain.NewRevert(chain.KindValidation, "DESCRIPTION_TOO_LONG")
	ErrSymbolMalicious      = chain.NewRevert(chain.KindValidation, "SYMBOL_CONTAINS_MALICIOUS_CHARACTER")
	ErrDescriptionMalicious = chain.NewRevert(chain.KindValidation, "DESCRIPTION_CONTAINS_MALICIOUS_CHARACTER")
	ErrInvalidMintingCost   = chain.NewRevert(chain.KindValidation, "INVALID_MINTING_COST_SENT")
	ErrInvalidCanvas        = chain.NewRevert(chain.KindValidation, "INVALID_PIXELS")
	ErrInvalidPalette       = chain.NewRevert(chain.KindValidation, "INVALID_PALETTE")
	ErrWhitelistZeroAddress = chain.NewRevert(chain.KindValidation, "WHITELIST_ZERO_ADDRESS")
	ErrPaymentNotAccepted   = chain.NewRevert(chain.KindValidation, "PAYMENT_NOT_ACCEPTED")
)

// Authorization
var (
	ErrCallerNotApproved = chain.NewRevert(chain.KindAuthorization, "CALLER_IS_NOT_APPROVED")
)

// State
var (
	ErrAlreadyInitialized    = chain.NewRevert(chain.KindState, "CONTRACT_ALREADY_INITIALIZED")
	ErrNotInitialized        = chain.NewRevert(chain.KindState, "CONTRACT_NOT_INITIALIZED")
	ErrMintingNotStarted     = chain.NewRevert(chain.KindState, "MINTING_NOT_STARTED_YET")
	ErrMintingAlreadyStarted = chain.NewRevert(chain.KindState, "MINTING_ALREADY_STARTED")
	ErrMaxSupplyReached      = chain.NewRevert(chain.KindState, "MAX_SUPPLY_REACHED")
	ErrCollectionIsPublic    = chain.NewRevert(chain.KindState, "COLLECTION_IS_PUBLIC")
	ErrWhitelistOnly         = chain.NewRevert(chain.KindState, "COLLECTION_IS_WHITELIST_ONLY")
	ErrInvalidWhitelistIndex = chain.NewRevert(chain.KindState, "INVALID_WHITELIST_INDEX")
	ErrTokenNotFound         = chain.NewRevert(chain.KindState, "TOKEN_DOES_NOT_EXIST")
)

// Arithmetic
var (
	ErrNotInWhitelist = chain.NewRevert(chain.KindArithmetic, "NOT_IN_WHITELIST")
)
