package model

import "time"

// DesignType is the enumerated document category. It decides the default
// page count, the prompt profile used for generation, and the physical
// page geometry used by export.
type DesignType string

const (
	TypeCV         DesignType = "CV"
	TypeBrochure   DesignType = "BROCHURE"
	TypeSlide      DesignType = "SLIDE"
	TypePitch      DesignType = "PITCH"
	TypeSalekit    DesignType = "SALEKIT"
	TypeInvitation DesignType = "INVITATION"
	TypeOther      DesignType = "OTHER"
)

// Valid reports whether t is one of the known design types.
func (t DesignType) Valid() bool {
	switch t {
	case TypeCV, TypeBrochure, TypeSlide, TypePitch, TypeSalekit, TypeInvitation, TypeOther:
		return true
	}
	return false
}

// Landscape reports whether the type renders on 16:9 landscape pages.
func (t DesignType) Landscape() bool {
	return t == TypeSlide || t == TypePitch
}

// DefaultPageCount returns the page count a fresh design of this type
// starts with.
func (t DesignType) DefaultPageCount() int {
	switch t {
	case TypeBrochure:
		return 4
	case TypeSlide, TypeSalekit:
		return 8
	case TypePitch:
		return 10
	case TypeInvitation:
		return 2
	default:
		return 1
	}
}

// ImageContext tells the generation backend how an uploaded image should
// be styled (contain vs cover). It is not consulted by the codec.
type ImageContext string

const (
	ContextLogo    ImageContext = "LOGO"
	ContextProduct ImageContext = "PRODUCT"
	ContextStyle   ImageContext = "STYLE"
)

// Valid reports whether c is a known image context.
func (c ImageContext) Valid() bool {
	return c == ContextLogo || c == ContextProduct || c == ContextStyle
}

// MaxAssetsPerDesign caps the number of uploaded images per design.
const MaxAssetsPerDesign = 5

// MaxAssetBytes caps the inline-encoded payload of a single image asset.
const MaxAssetBytes = 2 * 1024 * 1024

// ImageAsset is a user-uploaded image referenced from generated markup by
// an opaque token. Data holds the inline-encoded payload (a data URL).
type ImageAsset struct {
	ID          string       `json:"id"`
	Data        string       `json:"data"`
	Context     ImageContext `json:"context"`
	Description string       `json:"description,omitempty"`
}

// Design is the persisted unit: the placeholder-bearing document plus its
// metadata and the full image asset set. Content is always the raw form;
// the substituted display form is derived and never stored.
type Design struct {
	ID        string       `json:"id"`
	OwnerID   string       `json:"user_id"`
	Prompt    string       `json:"prompt"`
	Type      DesignType   `json:"type"`
	Content   string       `json:"content"`
	Title     string       `json:"title"`
	Thumbnail string       `json:"thumbnail,omitempty"`
	Assets    []ImageAsset `json:"assets,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}
