package client

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/pomyannik/pomyannik/pkg/validation"
)

// Image is a photo to upload with a card. Data is kept in memory so the upload
// can be repeated after a token refresh.
type Image struct {
	FileName    string
	ContentType string
	Data        []byte
}

func (img *Image) body() Body {
	if img == nil {
		return nil
	}
	return MultipartBody(nil, FilePart{
		Field:       "image",
		FileName:    img.FileName,
		ContentType: img.ContentType,
		Content:     bytes.NewReader(img.Data),
	})
}

// CreateCard adds a card to a folder. The description travels as a query
// parameter; the image, when given, as the multipart part "image".
func (a *API) CreateCard(ctx context.Context, folderID int, description string, img *Image) (*Card, error) {
	if err := validation.ValidateID("folder", folderID); err != nil {
		return nil, newValidationError(err)
	}
	if err := validation.ValidateCardDescription(description); err != nil {
		return nil, newValidationError(err)
	}
	card, err := authed[Card](ctx, a, func() Request {
		return Request{
			Method: http.MethodPost,
			Path:   folderPath(folderID) + "/",
			Query:  url.Values{"description": {description}},
			Body:   img.body(),
		}
	})
	if err != nil {
		return nil, withResource(err, "folder")
	}
	return &card, nil
}

// UpdateCard changes the description, the image, or both.
func (a *API) UpdateCard(ctx context.Context, folderID, cardID int, description string, img *Image) (*Card, error) {
	if err := validation.ValidateID("folder", folderID); err != nil {
		return nil, newValidationError(err)
	}
	if err := validation.ValidateID("card", cardID); err != nil {
		return nil, newValidationError(err)
	}
	if err := validation.ValidateCardUpdate(description, img != nil); err != nil {
		return nil, newValidationError(err)
	}
	card, err := authed[Card](ctx, a, func() Request {
		r := Request{Method: http.MethodPatch, Path: cardPath(folderID, cardID), Body: img.body()}
		if strings.TrimSpace(description) != "" {
			r.Query = url.Values{"description": {description}}
		}
		return r
	})
	if err != nil {
		return nil, withResource(err, "card")
	}
	return &card, nil
}

// DeleteCard removes a card from a folder.
func (a *API) DeleteCard(ctx context.Context, folderID, cardID int) error {
	if err := validation.ValidateID("folder", folderID); err != nil {
		return newValidationError(err)
	}
	if err := validation.ValidateID("card", cardID); err != nil {
		return newValidationError(err)
	}
	err := authedNoContent(ctx, a, func() Request {
		return Request{Method: http.MethodDelete, Path: cardPath(folderID, cardID)}
	})
	return withResource(err, "card")
}
