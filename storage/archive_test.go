package storage

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/Aashish23092/loan-intake-verification/dto"
)

func TestArchiveName(t *testing.T) {
	at := time.Unix(1700000000, 0)
	assert.Equal(t, "VerifiedDocuments/aadhaar_1700000000.jpg", ArchiveName(dto.DocTypeAadhaar, at))
	assert.Equal(t, "VerifiedDocuments/pan_1700000000.jpg", ArchiveName(dto.DocTypePAN, at))
	assert.Equal(t, "VerifiedDocuments/income_proof_1700000000.jpg", ArchiveName(dto.DocTypeIncomeProof, at))
}

func TestFSArchiveSave(t *testing.T) {
	fs := afero.NewMemMapFs()
	archive := NewFSArchive(fs)
	at := time.Unix(1700000000, 0)

	name, err := archive.Save(context.Background(), dto.DocTypePAN, []byte("jpeg-bytes"), at)
	require.NoError(t, err)
	assert.Equal(t, "VerifiedDocuments/pan_1700000000.jpg", name)

	data, err := afero.ReadFile(fs, name)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), data)
}

func TestFSArchiveSaveKeepsExisting(t *testing.T) {
	fs := afero.NewMemMapFs()
	archive := NewFSArchive(fs)
	at := time.Unix(1700000000, 0)

	_, err := archive.Save(context.Background(), dto.DocTypeAadhaar, []byte("first"), at)
	require.NoError(t, err)
	name, err := archive.Save(context.Background(), dto.DocTypeAadhaar, []byte("second"), at)
	require.NoError(t, err)

	data, err := afero.ReadFile(fs, name)
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), data)
}

func TestFSArchiveSaveReadOnly(t *testing.T) {
	archive := NewFSArchive(afero.NewReadOnlyFs(afero.NewMemMapFs()))

	_, err := archive.Save(context.Background(), dto.DocTypePAN, []byte("x"), time.Now())
	assert.Error(t, err)
}

func TestIsPreconditionFailed(t *testing.T) {
	assert.True(t, isPreconditionFailed(&googleapi.Error{Code: http.StatusPreconditionFailed}))
	assert.False(t, isPreconditionFailed(&googleapi.Error{Code: http.StatusForbidden}))
	assert.False(t, isPreconditionFailed(errors.New("boom")))
}
