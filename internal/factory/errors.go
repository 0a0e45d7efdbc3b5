package factory

import "github.com/zjrosen/dixel/internal/chain"

var (
	ErrInvalidCreationFee    = chain.NewRevert(chain.KindValidation, "INVALID_CREATION_FEE_SENT")
	ErrInvalidMintingFee     = chain.NewRevert(chain.KindValidation, "INVALID_MINTING_FEE")
	ErrZeroBeneficiary       = chain.NewRevert(chain.KindValidation, "BENEFICIARY_CANNOT_BE_ZERO")
	ErrInvalidCollection     = chain.NewRevert(chain.KindValidation, "INVALID_COLLECTION_ADDRESS")
	ErrUnknownImplementation = chain.NewRevert(chain.KindState, "UNKNOWN_IMPLEMENTATION")
	ErrIndexOutOfRange       = chain.NewRevert(chain.KindState, "INDEX_OUT_OF_RANGE")
)
