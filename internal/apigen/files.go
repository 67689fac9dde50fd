package apigen

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"apiforge/internal/errs"
	"apiforge/internal/filestore"
)

// presignTTL bounds how long upload download links stay valid.
const presignTTL = 15 * time.Minute

// fileRoutes attaches upload endpoints for one table. Uploads are keyed
// tenant/table/record so every tenant shares one bucket safely.
func fileRoutes(store filestore.Store, table string) []Route {
	return []Route{
		newRoute(http.MethodPost, "/"+table+"/{id}/files",
			"Attach a file to a "+table+" record",
			uploadHandler(store, table)),
		newRoute(http.MethodGet, "/"+table+"/{id}/files",
			"List files attached to a "+table+" record",
			listFilesHandler(store, table)),
		newRoute(http.MethodDelete, "/"+table+"/{id}/files/{filename}",
			"Remove a file from a "+table+" record",
			deleteFileHandler(store, table)),
	}
}

func uploadHandler(store filestore.Store, table string) HandlerFunc {
	return func(ctx context.Context, req *Request) (*Response, error) {
		filename, err := cleanFilename(req.Query.Get("filename"))
		if err != nil {
			return nil, err
		}
		if len(req.Body) == 0 {
			return nil, errs.New(errs.ErrKindValidation, "request body must not be empty")
		}

		contentType := req.Query.Get("content_type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		key := filestore.ObjectKey(req.TenantID, table, req.Params["id"], filename)
		info, err := store.Put(ctx, key, bytes.NewReader(req.Body), int64(len(req.Body)), contentType)
		if err != nil {
			return nil, err
		}

		url, err := store.PresignGetURL(ctx, key, presignTTL)
		if err != nil {
			return nil, err
		}

		return &Response{Status: http.StatusCreated, Body: map[string]any{
			"file": info,
			"url":  url,
		}}, nil
	}
}

func listFilesHandler(store filestore.Store, table string) HandlerFunc {
	return func(ctx context.Context, req *Request) (*Response, error) {
		prefix := filestore.RecordPrefix(req.TenantID, table, req.Params["id"])
		files, err := store.List(ctx, prefix)
		if err != nil {
			return nil, err
		}
		if files == nil {
			files = []filestore.ObjectInfo{}
		}
		return &Response{Status: http.StatusOK, Body: map[string]any{
			"files": files,
			"count": len(files),
		}}, nil
	}
}

func deleteFileHandler(store filestore.Store, table string) HandlerFunc {
	return func(ctx context.Context, req *Request) (*Response, error) {
		filename, err := cleanFilename(req.Params["filename"])
		if err != nil {
			return nil, err
		}

		key := filestore.ObjectKey(req.TenantID, table, req.Params["id"], filename)
		if _, err := store.Stat(ctx, key); err != nil {
			return nil, err
		}
		if err := store.Delete(ctx, key); err != nil {
			return nil, err
		}
		return &Response{Status: http.StatusOK, Body: map[string]any{
			"deleted": key,
		}}, nil
	}
}

// cleanFilename rejects names that would escape the record's key prefix.
func cleanFilename(name string) (string, error) {
	if name == "" {
		return "", errs.New(errs.ErrKindValidation, "filename is required")
	}
	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return "", errs.Newf(errs.ErrKindValidation, "invalid filename %q", name)
	}
	return name, nil
}
