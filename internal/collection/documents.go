package collection

import (
	"strconv"
	"strings"

	"github.com/zjrosen/dixel/internal/render"
)

func (c *Collection) baseURL() string {
	base := c.impl.ExternalURL
	if base == "" {
		base = DefaultExternalURL
	}
	return strings.TrimSuffix(base, "/") + "/collection/" + c.address.String()
}

// ExternalURL links to one edition on the collection site.
func (c *Collection) ExternalURL(id uint64) string {
	return c.baseURL() + "/" + strconv.FormatUint(id, 10)
}

// RenderImage returns the SVG of a live edition.
func (c *Collection) RenderImage(id uint64) (string, error) {
	if !c.ledger.Exists(id) {
		return "", ErrTokenNotFound
	}
	return c.renderer.Image(&c.canvas, c.palettes[id]), nil
}

// RenderTokenDocument builds the metadata document of a live edition.
func (c *Collection) RenderTokenDocument(id uint64) (render.TokenDocument, error) {
	svg, err := c.RenderImage(id)
	if err != nil {
		return render.TokenDocument{}, err
	}
	return render.NewTokenDocument(c.symbol, c.description, c.ExternalURL(id), svg, id), nil
}

func (c *Collection) TokenURI(id uint64) (string, error) {
	doc, err := c.RenderTokenDocument(id)
	if err != nil {
		return "", err
	}
	return render.TokenURI(doc)
}

// ContractDocument builds the collection document. Its image is edition 0,
// drawn with an all-zero palette once edition 0 is burned.
func (c *Collection) ContractDocument() render.ContractDocument {
	svg := c.renderer.Image(&c.canvas, c.palettes[0])
	return render.NewContractDocument(
		c.name,
		c.description,
		c.baseURL(),
		svg,
		c.meta.RoyaltyFraction,
		c.Owner().String(),
	)
}

func (c *Collection) ContractURI() (string, error) {
	return render.ContractURI(c.ContractDocument())
}
