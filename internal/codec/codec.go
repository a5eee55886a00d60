// Package codec implements the bidirectional mapping between opaque image
// tokens embedded in generated markup and the inline image payloads held
// with a design. Tokens appear literally in markup as [[<id>]], typically
// as the value of an img src attribute.
//
// Replacement is exact-substring only. No regular expressions are used, so
// attacker-controlled markup cannot trigger pathological backtracking.
package codec

import (
	"strings"

	"github.com/google/uuid"

	"github.com/locaith/locaith-design/internal/model"
)

const (
	tokenOpen  = "[["
	tokenClose = "]]"

	// assetIDPrefix marks ids minted for uploaded images. The generation
	// backend is instructed to emit these tokens verbatim and never to
	// substitute them itself.
	assetIDPrefix = "USER_IMG_"
)

// NewAssetID mints an opaque, non-guessable id for an uploaded image.
// Ids are never reused within a session.
func NewAssetID() string {
	return assetIDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Token returns the literal markup token for an asset id.
func Token(id string) string {
	return tokenOpen + id + tokenClose
}

// HasTokens reports whether raw still contains at least one asset token.
func HasTokens(raw string) bool {
	return strings.Contains(raw, tokenOpen+assetIDPrefix)
}

// Substitute replaces every occurrence of each asset's token in raw with
// the asset's inline data. An image reused across pages is replaced at
// every occurrence. Tokens with no matching asset are left in place; the
// renderer shows those as broken images rather than failing.
//
// Asset order does not matter: tokens are uniquely named and
// non-overlapping.
func Substitute(raw string, assets []model.ImageAsset) string {
	if raw == "" || len(assets) == 0 {
		return raw
	}
	out := raw
	for _, a := range assets {
		if a.ID == "" || a.Data == "" {
			continue
		}
		out = strings.ReplaceAll(out, Token(a.ID), a.Data)
	}
	return out
}

// Reverse maps a displayed (substituted) document back to its raw form by
// replacing every occurrence of each asset's inline data with its token.
// Used after direct visual edits on the rendered view, so the edited
// markup can be persisted without baking in image payloads. Duplicated
// payloads are all restored; leaving even one behind would silently
// regress the stored content to the substituted form.
func Reverse(displayed string, assets []model.ImageAsset) string {
	if displayed == "" || len(assets) == 0 {
		return displayed
	}
	out := displayed
	for _, a := range assets {
		if a.ID == "" || a.Data == "" {
			continue
		}
		out = strings.ReplaceAll(out, a.Data, Token(a.ID))
	}
	return out
}
