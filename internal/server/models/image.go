package models

import "io"

// Image is the image half of a create or update request: either freshly
// uploaded bytes or a reference to an already stored asset. The interface
// is sealed; NewAsset and ExistingAssetRef are its only implementations.
type Image interface {
	isImage()
}

// NewAsset is an upload that still has to pass content validation.
// DeclaredType is whatever the client claimed and is not trusted.
type NewAsset struct {
	Name         string
	DeclaredType string
	Content      io.Reader
}

// ExistingAssetRef keeps the post's image pointing at an already stored URL.
type ExistingAssetRef struct {
	URL string
}

func (NewAsset) isImage()         {}
func (ExistingAssetRef) isImage() {}
