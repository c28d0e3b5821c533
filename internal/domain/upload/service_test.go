package upload

import (
	"bytes"
	"context"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"testing"

	"fileintake/internal/database"
	"fileintake/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type testFile struct {
	name    string
	content []byte
}

func buildMultipart(t *testing.T, field string, files []testFile, values map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, f := range files {
		part, err := w.CreateFormFile(field, f.name)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	for k, v := range values {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

func fileHeaders(t *testing.T, files ...testFile) []*multipart.FileHeader {
	t.Helper()
	body, contentType := buildMultipart(t, "file", files, nil)
	_, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)

	form, err := multipart.NewReader(body, params["boundary"]).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"]
}

type serviceEnv struct {
	*testEnv
	service *Service
	repo    Repository
}

func setupService(t *testing.T, maxSize int64, opts Options) *serviceEnv {
	t.Helper()

	db, err := database.Connect(filepath.Join(t.TempDir(), "uploads.db"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&Upload{}))

	repo := NewRepository(db)
	opts.BasePath = filepath.Join(t.TempDir(), "uploads")
	recorder := NewRecorder(repo, opts.BasePath, StaticURLBase, logger.Discard())
	opts.PostMove = recorder.Record

	env := setupPipeline(t, opts)
	return &serviceEnv{
		testEnv: env,
		service: NewService(repo, env.pipeline, env.staging, maxSize),
		repo:    repo,
	}
}

func TestServiceUpload_StoresAndRecords(t *testing.T) {
	env := setupService(t, 0, Options{})
	ctx := context.Background()

	files := fileHeaders(t,
		testFile{name: "photo.PNG", content: pngBytes},
		testFile{name: "tool.exe", content: []byte("MZ")},
	)
	results, err := env.service.Upload(ctx, 42, files, fixedTS)
	require.NoError(t, err)
	require.Len(t, results, 2)

	stored := results[0]
	require.True(t, stored.OK, stored.Message)
	assert.Equal(t, MsgAddedFile, stored.Message)
	require.NotNil(t, stored.Upload)
	assert.Equal(t, int64(42), stored.Upload.UserID)
	assert.Equal(t, "photo.PNG", stored.Upload.OriginalName)
	assert.Equal(t, "image/png", stored.Upload.MimeType)
	assert.Equal(t, int64(len(pngBytes)), stored.Upload.Size)
	assert.Equal(t, "2024/01/02/"+stored.Upload.StoredName, stored.Upload.FilePath)
	assert.Equal(t, StaticURLBase+"/"+stored.Upload.FilePath, stored.Upload.FileURL)
	assert.FileExists(t, filepath.Join(env.base, filepath.FromSlash(stored.Upload.FilePath)))

	assert.Equal(t, FileResult{OriginalName: "tool.exe", Message: MsgUnsupportedType}, results[1])

	entries, err := os.ReadDir(env.staging.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries, "staged files are released after the request")
}

func TestServiceUpload_Limits(t *testing.T) {
	env := setupService(t, 4, Options{})

	_, err := env.service.Upload(context.Background(), 1, nil, fixedTS)
	assert.ErrorIs(t, err, ErrNoFiles)

	_, err = env.service.Upload(context.Background(), 1, fileHeaders(t, testFile{name: "a.png", content: pngBytes}), fixedTS)
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestServiceDelete(t *testing.T) {
	env := setupService(t, 0, Options{})
	ctx := context.Background()

	results, err := env.service.Upload(ctx, 42, fileHeaders(t, testFile{name: "doc.pdf", content: []byte("%PDF-1.4\n")}), fixedTS)
	require.NoError(t, err)
	require.True(t, results[0].OK)
	u := results[0].Upload
	require.NotNil(t, u)
	path := filepath.Join(env.base, filepath.FromSlash(u.FilePath))

	list, err := env.service.ListByUser(ctx, 42)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = env.service.GetOwned(ctx, u.ID, 7)
	assert.ErrorIs(t, err, ErrNotOwner)
	got, err := env.service.GetOwned(ctx, u.ID, 42)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = env.service.Delete(ctx, u.ID, 7)
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.FileExists(t, path)

	var removed []string
	env.service.OnRemove(func(_ context.Context, rel string) { removed = append(removed, rel) })

	out, err := env.service.Delete(ctx, u.ID, 42)
	require.NoError(t, err)
	assert.Equal(t, MsgFileRemoved, out.Message)
	assert.Equal(t, []string{u.FilePath}, removed)
	assert.NoFileExists(t, path)

	_, err = env.service.GetByID(ctx, u.ID)
	assert.ErrorIs(t, err, ErrUploadNotFound)

	_, err = env.service.Delete(ctx, u.ID, 42)
	assert.ErrorIs(t, err, ErrUploadNotFound)
}

func TestServiceDelete_FileAlreadyGone(t *testing.T) {
	env := setupService(t, 0, Options{})
	ctx := context.Background()

	results, err := env.service.Upload(ctx, 42, fileHeaders(t, testFile{name: "a.gif", content: []byte("GIF89a")}), fixedTS)
	require.NoError(t, err)
	u := results[0].Upload
	require.NotNil(t, u)
	require.NoError(t, os.Remove(filepath.Join(env.base, filepath.FromSlash(u.FilePath))))

	env.service.OnRemove(func(context.Context, string) { t.Fatal("no file was removed") })

	out, err := env.service.Delete(ctx, u.ID, 42)
	require.NoError(t, err)
	assert.Equal(t, Outcome{Message: MsgRemoveNotFound}, out)

	_, err = env.service.GetByID(ctx, u.ID)
	assert.ErrorIs(t, err, ErrUploadNotFound)
}

func TestServiceRemoveStored(t *testing.T) {
	env := setupService(t, 0, Options{})
	ctx := context.Background()

	results, err := env.service.Upload(ctx, 42, fileHeaders(t, testFile{name: "a.jpg", content: []byte("\xff\xd8\xff")}), fixedTS)
	require.NoError(t, err)
	u := results[0].Upload
	require.NotNil(t, u)

	var removed []string
	env.service.OnRemove(func(_ context.Context, rel string) { removed = append(removed, rel) })

	out, err := env.service.RemoveStored(ctx, u.StoredName, fixedTS)
	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.Equal(t, []string{"2024/01/02/" + u.StoredName}, removed)

	_, err = env.repo.GetByID(ctx, u.ID)
	assert.ErrorIs(t, err, ErrUploadNotFound)

	out, err = env.service.RemoveStored(ctx, u.StoredName, fixedTS)
	require.NoError(t, err)
	assert.Equal(t, Outcome{Message: MsgRemoveNotFound}, out)
}

func TestRecorder_ReplacesRecordOfOverwrittenFile(t *testing.T) {
	env := setupService(t, 0, Options{
		Namer: func(original string, _ AdditionalData) string { return "1111-" + original },
	})
	ctx := context.Background()

	first, err := env.service.Upload(ctx, 1, fileHeaders(t, testFile{name: "same.png", content: pngBytes}), fixedTS)
	require.NoError(t, err)
	second, err := env.service.Upload(ctx, 2, fileHeaders(t, testFile{name: "same.png", content: pngBytes}), fixedTS)
	require.NoError(t, err)
	require.NotNil(t, second[0].Upload)

	_, err = env.repo.GetByID(ctx, first[0].Upload.ID)
	assert.ErrorIs(t, err, ErrUploadNotFound)

	u, err := env.repo.GetByPath(ctx, "2024/01/02/1111-same.png")
	require.NoError(t, err)
	assert.Equal(t, int64(2), u.UserID)
}

func TestRecorder_WithoutUploadID(t *testing.T) {
	env := setupService(t, 0, Options{})
	ctx := context.Background()

	local := filepath.Join(t.TempDir(), "scan.pdf")
	require.NoError(t, os.WriteFile(local, []byte("%PDF-1.4\n"), 0o600))

	out, err := env.pipeline.AddFile(ctx, RawUpload{Name: "scan.pdf", TmpName: local, LocalFile: true}, AdditionalData{Timestamp: fixedTS})
	require.NoError(t, err)
	require.True(t, out.OK)

	u, err := env.repo.GetByPath(ctx, env.pipeline.RelativePath(out.Path))
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "application/pdf", u.MimeType)
	assert.True(t, u.StoredAt.Equal(fixedTS))
}

func TestServiceValidate(t *testing.T) {
	env := setupService(t, 0, Options{AllowedExtensions: []string{"png"}})

	assert.Equal(t, Outcome{OK: true, Message: MsgNoFilesUploaded}, env.service.Validate(nil))
	assert.Equal(t, Outcome{OK: true, Message: "2 file(s) validated"}, env.service.Validate([]string{"a.png", "B.PNG"}))
	assert.False(t, env.service.Validate([]string{"a.png", "b.jpg"}).OK)
}
