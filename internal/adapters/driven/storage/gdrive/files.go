package gdrive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const (
	// MimeTypeFolder is the Drive MIME type of folders.
	MimeTypeFolder = "application/vnd.google-apps.folder"

	// rootFolderID aliases the user's "My Drive".
	rootFolderID = "root"

	fileFields = "id, name, mimeType, size, modifiedTime, trashed"
	listFields = "nextPageToken, files(" + fileFields + ")"
	pageSize   = 100
)

// remoteFile is the subset of Drive file metadata the adapter uses.
type remoteFile struct {
	ID       string
	Name     string
	MimeType string
	Trashed  bool
}

// IsFolder reports whether the file is a Drive folder.
func (f *remoteFile) IsFolder() bool {
	return f.MimeType == MimeTypeFolder
}

// filesAPI is the Drive surface used by Adapter.
type filesAPI interface {
	// find returns the first child of parentID named name, or nil.
	find(ctx context.Context, parentID, name string) (*remoteFile, error)
	list(ctx context.Context, parentID string) ([]*remoteFile, error)
	get(ctx context.Context, fileID string) (*remoteFile, error)
	createFolder(ctx context.Context, parentID, name string) (*remoteFile, error)
	create(ctx context.Context, parentID, name string, content []byte) (*remoteFile, error)
	update(ctx context.Context, fileID string, content []byte) error
	download(ctx context.Context, fileID string) ([]byte, error)
	accountEmail(ctx context.Context) (string, error)
}

// newDriveFiles creates a filesAPI backed by the Drive v3 client.
func newDriveFiles(ctx context.Context, ts oauth2.TokenSource) (filesAPI, error) {
	svc, err := drive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &driveFiles{svc: svc}, nil
}

type driveFiles struct {
	svc *drive.Service
}

func (d *driveFiles) find(ctx context.Context, parentID, name string) (*remoteFile, error) {
	q := fmt.Sprintf("name = '%s' and '%s' in parents and trashed = false", escapeQuery(name), escapeQuery(parentID))
	res, err := d.svc.Files.List().
		Q(q).
		Spaces("drive").
		OrderBy("createdTime").
		PageSize(1).
		Fields(listFields).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	if len(res.Files) == 0 {
		return nil, nil
	}
	return fromDrive(res.Files[0]), nil
}

func (d *driveFiles) list(ctx context.Context, parentID string) ([]*remoteFile, error) {
	q := fmt.Sprintf("'%s' in parents and trashed = false", escapeQuery(parentID))
	call := d.svc.Files.List().
		Q(q).
		Spaces("drive").
		PageSize(pageSize).
		Fields(listFields)

	var out []*remoteFile
	err := call.Pages(ctx, func(page *drive.FileList) error {
		for _, f := range page.Files {
			out = append(out, fromDrive(f))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (d *driveFiles) get(ctx context.Context, fileID string) (*remoteFile, error) {
	f, err := d.svc.Files.Get(fileID).Fields(fileFields).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return fromDrive(f), nil
}

func (d *driveFiles) createFolder(ctx context.Context, parentID, name string) (*remoteFile, error) {
	f, err := d.svc.Files.Create(&drive.File{
		Name:     name,
		MimeType: MimeTypeFolder,
		Parents:  []string{parentID},
	}).Fields(fileFields).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return fromDrive(f), nil
}

func (d *driveFiles) create(ctx context.Context, parentID, name string, content []byte) (*remoteFile, error) {
	f, err := d.svc.Files.Create(&drive.File{
		Name:    name,
		Parents: []string{parentID},
	}).Media(bytes.NewReader(content)).Fields(fileFields).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return fromDrive(f), nil
}

func (d *driveFiles) update(ctx context.Context, fileID string, content []byte) error {
	_, err := d.svc.Files.Update(fileID, &drive.File{}).
		Media(bytes.NewReader(content)).
		Fields("id").
		Context(ctx).
		Do()
	return err
}

func (d *driveFiles) download(ctx context.Context, fileID string) ([]byte, error) {
	resp, err := d.svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file content: %w", err)
	}
	return data, nil
}

func (d *driveFiles) accountEmail(ctx context.Context) (string, error) {
	about, err := d.svc.About.Get().Fields("user(emailAddress)").Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if about.User == nil {
		return "", nil
	}
	return about.User.EmailAddress, nil
}

func fromDrive(f *drive.File) *remoteFile {
	return &remoteFile{
		ID:       f.Id,
		Name:     f.Name,
		MimeType: f.MimeType,
		Trashed:  f.Trashed,
	}
}

// escapeQuery escapes a value for use inside a single-quoted Drive query string.
func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
