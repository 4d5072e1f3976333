package client

import (
	"context"
	"net/http"

	"github.com/pomyannik/pomyannik/pkg/validation"
)

type folderRequest struct {
	Name string `json:"name"`
}

// ListFolders returns the folders of the logged-in user.
func (a *API) ListFolders(ctx context.Context) ([]Folder, error) {
	folders, err := authed[[]Folder](ctx, a, func() Request {
		return Request{Method: http.MethodGet, Path: "/api/folders/"}
	})
	if err != nil {
		return nil, err
	}
	if folders == nil {
		folders = []Folder{}
	}
	return folders, nil
}

// GetFolder returns a folder together with its cards.
func (a *API) GetFolder(ctx context.Context, id int) (*FolderDetail, error) {
	if err := validation.ValidateID("folder", id); err != nil {
		return nil, newValidationError(err)
	}
	detail, err := authed[FolderDetail](ctx, a, func() Request {
		return Request{Method: http.MethodGet, Path: folderPath(id) + "/"}
	})
	if err != nil {
		return nil, withResource(err, "folder")
	}
	if detail.Cards == nil {
		detail.Cards = []Card{}
	}
	return &detail, nil
}

// CreateFolder creates a folder named name. An empty name fails without a request.
func (a *API) CreateFolder(ctx context.Context, name string) (*Folder, error) {
	if err := validation.ValidateFolderName(name); err != nil {
		return nil, newValidationError(err)
	}
	folder, err := authed[Folder](ctx, a, func() Request {
		return Request{Method: http.MethodPost, Path: "/api/folders/", Body: JSONBody(folderRequest{Name: name})}
	})
	if err != nil {
		return nil, err
	}
	return &folder, nil
}

// UpdateFolder renames a folder.
func (a *API) UpdateFolder(ctx context.Context, id int, name string) (*Folder, error) {
	if err := validation.ValidateID("folder", id); err != nil {
		return nil, newValidationError(err)
	}
	if err := validation.ValidateFolderName(name); err != nil {
		return nil, newValidationError(err)
	}
	folder, err := authed[Folder](ctx, a, func() Request {
		return Request{Method: http.MethodPatch, Path: folderPath(id), Body: JSONBody(folderRequest{Name: name})}
	})
	if err != nil {
		return nil, withResource(err, "folder")
	}
	if folder.ID == 0 {
		folder = Folder{ID: id, Name: name}
	}
	return &folder, nil
}

// DeleteFolder removes a folder and its cards.
func (a *API) DeleteFolder(ctx context.Context, id int) error {
	if err := validation.ValidateID("folder", id); err != nil {
		return newValidationError(err)
	}
	err := authedNoContent(ctx, a, func() Request {
		return Request{Method: http.MethodDelete, Path: folderPath(id)}
	})
	return withResource(err, "folder")
}
