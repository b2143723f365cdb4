package workspace

import (
	"encoding/base64"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/m4xw311/gemini-agent/config"
	"github.com/m4xw311/gemini-agent/errors"
	"github.com/m4xw311/gemini-agent/session"
)

var imageTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".heic": "image/heic",
	".heif": "image/heif",
	".gif":  "image/gif",
}

// LoadAttachment validates an image path against the allow-list and size
// limit and returns it as a base64 payload for the next request.
func LoadAttachment(path string, limits config.Attachments) (*session.Attachment, error) {
	ext := strings.ToLower(filepath.Ext(path))
	allowed := false
	for _, e := range limits.Extensions {
		if strings.EqualFold(e, ext) {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, errors.User("unsupported image type "+ext+" for "+path, nil)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.User("cannot read image "+path, err)
	}
	if info.IsDir() {
		return nil, errors.User(path+" is a directory", nil)
	}
	if limits.MaxBytes > 0 && info.Size() > limits.MaxBytes {
		return nil, errors.User("image "+path+" exceeds the size limit", nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.User("cannot read image "+path, err)
	}

	mimeType, ok := imageTypes[ext]
	if !ok {
		mimeType = mime.TypeByExtension(ext)
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return &session.Attachment{
		MIMEType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(data),
		Name:     filepath.Base(path),
	}, nil
}
