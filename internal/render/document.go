package render

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	MimeJSON = "application/json"
	MimeSVG  = "image/svg+xml"
)

// DataURI wraps body as a base64 data URI.
func DataURI(mime, body string) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString([]byte(body))
}

// DecodeDataURI reverses DataURI, returning the mime type and body.
func DecodeDataURI(uri string) (mime, body string, err error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", "", fmt.Errorf("not a data uri")
	}
	mime, payload, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return "", "", fmt.Errorf("data uri is not base64 encoded")
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", "", fmt.Errorf("decoding data uri: %w", err)
	}
	return mime, string(raw), nil
}

// TokenDocument is the per-edition metadata document.
type TokenDocument struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ExternalURL string `json:"external_url"`
	Image       string `json:"image"`
}

// NewTokenDocument builds the document for edition id of a collection.
func NewTokenDocument(symbol, description, externalURL, svg string, id uint64) TokenDocument {
	return TokenDocument{
		Name:        symbol + " #" + strconv.FormatUint(id, 10),
		Description: description,
		ExternalURL: externalURL,
		Image:       DataURI(MimeSVG, svg),
	}
}

// ContractDocument is the collection-level metadata document.
type ContractDocument struct {
	Name                 string `json:"name"`
	Description          string `json:"description"`
	Image                string `json:"image"`
	ExternalLink         string `json:"external_link"`
	SellerFeeBasisPoints string `json:"seller_fee_basis_points"`
	FeeRecipient         string `json:"fee_recipient"`
}

// NewContractDocument builds the collection document. svg is edition 0's image.
func NewContractDocument(name, description, externalLink, svg string, royaltyFraction uint64, feeRecipient string) ContractDocument {
	return ContractDocument{
		Name:                 name,
		Description:          description,
		Image:                DataURI(MimeSVG, svg),
		ExternalLink:         externalLink,
		SellerFeeBasisPoints: strconv.FormatUint(royaltyFraction, 10),
		FeeRecipient:         feeRecipient,
	}
}

// Encode serializes a document without HTML escaping and without a trailing newline.
func Encode(doc any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("encoding document: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// TokenURI returns the data URI of an encoded token document.
func TokenURI(doc TokenDocument) (string, error) {
	body, err := Encode(doc)
	if err != nil {
		return "", err
	}
	return DataURI(MimeJSON, body), nil
}

// ContractURI returns the data URI of an encoded contract document.
func ContractURI(doc ContractDocument) (string, error) {
	body, err := Encode(doc)
	if err != nil {
		return "", err
	}
	return DataURI(MimeJSON, body), nil
}
