package media

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"thumbserver/internal/logging"
	"thumbserver/internal/mediatypes"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
)

// sniffLen is the number of leading bytes needed by filetype matchers.
const sniffLen = 261

// Classify selects a decode strategy for the file at path by sniffing
// its leading bytes. The file extension is only consulted to flag
// mislabeled files in the debug log; routing is always decided by
// content so a renamed or corrupt file surfaces as a decode error in
// the right decoder instead of silently wrong output.
//
// An unrecognized header yields KindUnsupported with a nil error.
// The returned error is non-nil only when the file cannot be read.
func Classify(path string) (mediatypes.Kind, error) {
	f, err := os.Open(path)
	if err != nil {
		return mediatypes.KindUnsupported, err
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return mediatypes.KindUnsupported, err
	}
	head = head[:n]

	kind := ClassifyBytes(head)

	if hint := mediatypes.KindForExtension(strings.ToLower(filepath.Ext(path))); hint != kind {
		logging.Debug("classify: %s sniffed as %s but extension suggests %s", path, kind, hint)
	}

	return kind, nil
}

// ClassifyBytes classifies the leading bytes of a file.
func ClassifyBytes(head []byte) mediatypes.Kind {
	t, err := filetype.Match(head)
	if err != nil || t == filetype.Unknown {
		return mediatypes.KindUnsupported
	}

	switch t {
	case matchers.TypeJpeg, matchers.TypePng, matchers.TypeGif,
		matchers.TypeWebp, matchers.TypeBmp, matchers.TypeTiff:
		return mediatypes.KindRaster
	case matchers.TypePsd:
		return mediatypes.KindLayered
	}

	if strings.HasPrefix(t.MIME.Value, "video/") {
		return mediatypes.KindVideo
	}

	return mediatypes.KindUnsupported
}
