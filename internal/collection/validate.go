package collection

import (
	"strings"

	"github.com/zjrosen/dixel/internal/pixel"
)

const (
	// FrictionBase is the denominator of every fee fraction.
	FrictionBase uint64 = 10000
	// MaxSupplyCap bounds MetaParams.MaxSupply.
	MaxSupplyCap uint64 = 1_000_000
	// MaxRoyaltyCap bounds MetaParams.RoyaltyFraction (10%).
	MaxRoyaltyCap uint64 = 1000
	// MaxDescriptionLength is measured in bytes.
	MaxDescriptionLength = 1000
)

// The JSON documents are assembled around this character, so it may never
// appear in stored text.
const delimiter = `"`

// ValidateCreation checks the arguments shared by collection creation and init.
func ValidateCreation(name, symbol, description string, meta MetaParams) error {
	if strings.TrimSpace(name) == "" {
		return ErrNameBlank
	}
	if strings.TrimSpace(symbol) == "" {
		return ErrSymbolBlank
	}
	if meta.MaxSupply == 0 || meta.MaxSupply > MaxSupplyCap {
		return ErrInvalidMaxSupply
	}
	if meta.RoyaltyFraction > MaxRoyaltyCap {
		return ErrInvalidRoyalty
	}
	if len(description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if strings.Contains(symbol, delimiter) {
		return ErrSymbolMalicious
	}
	if strings.Contains(description, delimiter) {
		return ErrDescriptionMalicious
	}
	return nil
}

func validateDescription(description string) error {
	if len(description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if strings.Contains(description, delimiter) {
		return ErrDescriptionMalicious
	}
	return nil
}

// ValidateArtwork checks the canvas and palette of a new collection.
func ValidateArtwork(canvas *pixel.Canvas, palette pixel.Palette) error {
	if canvas.Validate() != nil {
		return ErrInvalidCanvas
	}
	return validatePalette(palette)
}

func validatePalette(palette pixel.Palette) error {
	if palette.Validate() != nil {
		return ErrInvalidPalette
	}
	return nil
}
